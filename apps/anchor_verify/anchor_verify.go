package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/acadtrust/anchor/context"
	"github.com/acadtrust/anchor/models"
	"github.com/acadtrust/anchor/submission"
	"github.com/acadtrust/anchor/util/fingerprint"
)

// anchor_verify checks whether the ledger record for a (submitter,
// item) pair matches a file or digest. Exit code 0 means verified,
// 2 means not verified, 1 means the program itself failed.
func main() {
	opts := parseCommandLine()
	config, err := models.LoadConfigFile(opts.configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, err.Error())
		os.Exit(1)
	}
	_context := context.NewContext(config)

	probeDigest := opts.digest
	if opts.pathToFile != "" {
		probeDigest, err = fingerprint.FingerprintFile(opts.pathToFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cannot fingerprint '%s': %v\n", opts.pathToFile, err)
			os.Exit(1)
		}
	}
	if !fingerprint.LooksLikeDigest(probeDigest) {
		fmt.Fprintf(os.Stderr, "'%s' does not look like a digest\n", probeDigest)
		os.Exit(1)
	}

	cache := submission.NewRecordCache(_context.LedgerClient, config.EventHorizon,
		_context.MessageLog)
	_, err = cache.Refresh()
	if err != nil {
		// The verifier falls back to a direct ledger query on cache
		// miss, so a failed refresh is not fatal here.
		_context.MessageLog.Warning("Proceeding with empty snapshot: %v", err)
	}
	verifier := submission.NewVerifier(cache, _context.LedgerClient, _context.MessageLog)
	verdict := verifier.Verify(opts.submitter, opts.itemId, probeDigest)
	if verdict.Matched {
		fmt.Printf("VERIFIED: %s submitted item %s with this digest on %s (source: %s)\n",
			verdict.Record.Submitter, verdict.Record.ItemId,
			verdict.Record.RecordedAt.Format("2006-01-02 15:04:05 MST"),
			verdict.Source)
		os.Exit(0)
	}
	fmt.Printf("NOT VERIFIED: no matching record for submitter %s, item %s\n",
		opts.submitter, opts.itemId)
	os.Exit(2)
}

type options struct {
	configFile string
	submitter  string
	itemId     string
	pathToFile string
	digest     string
}

func parseCommandLine() *options {
	opts := &options{}
	flag.StringVar(&opts.configFile, "config", "", "Path to anchor config file")
	flag.StringVar(&opts.submitter, "submitter", "", "Submitter identity to verify against")
	flag.StringVar(&opts.itemId, "item", "", "Item id to verify")
	flag.StringVar(&opts.pathToFile, "file", "", "Path to the file to fingerprint")
	flag.StringVar(&opts.digest, "digest", "", "Digest to verify, if no file is given")
	flag.Parse()
	if opts.configFile == "" || opts.submitter == "" || opts.itemId == "" ||
		(opts.pathToFile == "" && opts.digest == "") {
		printUsage()
		os.Exit(1)
	}
	return opts
}

// Tell the user about the program.
func printUsage() {
	message := `
anchor_verify checks a file or digest against the ledger record for a
(submitter, item) pair.

Usage: anchor_verify -config=<path> -submitter=<identity> -item=<item id> \
                     [-file=<path> | -digest=<0x...>]

Exit code 0 means verified, 2 means not verified.
`
	fmt.Println(message)
}
