package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/acadtrust/anchor/constants"
	"github.com/acadtrust/anchor/context"
	"github.com/acadtrust/anchor/models"
	"github.com/acadtrust/anchor/network"
	"github.com/acadtrust/anchor/submission"
	"github.com/acadtrust/anchor/util/fingerprint"
	"github.com/acadtrust/anchor/wallet"
)

// anchor_submit fingerprints a local file, or an artifact in a
// partner S3 bucket, and records the digest on the ledger for the
// connected wallet identity.
func main() {
	opts := parseCommandLine()
	config, err := models.LoadConfigFile(opts.configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, err.Error())
		os.Exit(1)
	}
	_context := context.NewContext(config)

	var digest string
	if opts.bucket != "" {
		download := network.NewArtifactDownload(config.ArtifactRegion,
			opts.bucket, opts.key, "/dev/null")
		download.Fetch()
		if download.ErrorMessage != "" {
			fmt.Fprintf(os.Stderr, "Cannot fingerprint s3://%s/%s: %s\n",
				opts.bucket, opts.key, download.ErrorMessage)
			os.Exit(1)
		}
		digest = download.Digest
		fmt.Printf("Artifact: s3://%s/%s (%d bytes)\nDigest:   %s\n",
			opts.bucket, opts.key, download.BytesCopied, digest)
	} else {
		digest, err = fingerprint.FingerprintFile(opts.pathToFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cannot fingerprint '%s': %v\n", opts.pathToFile, err)
			os.Exit(1)
		}
		fmt.Printf("File:   %s\nDigest: %s\n", opts.pathToFile, digest)
	}

	_context.AgentClient.ListenForEvents()
	session := wallet.NewSession(_context.AgentClient, _context.MessageLog)
	session.Listen()
	if !session.IsConnected() {
		_, err = session.Connect()
		if err != nil {
			explainSessionFailure(err)
			os.Exit(1)
		}
	}
	state := session.State()
	fmt.Printf("Wallet: %s (network %d)\n", state.Identity, state.NetworkId)

	coordinator := submission.NewCoordinator(session, _context.LedgerClient,
		_context.MessageLog)
	coordinator.StartAuditForwarder(_context.NSQClient)

	receipt, err := coordinator.Submit(opts.itemId, digest)
	if err != nil {
		explainSubmitFailure(opts.itemId, err)
		_context.IncrementFailed()
		os.Exit(1)
	}
	_context.IncrementSucceeded()
	fmt.Printf("Submitted item %s.\nWrite ref: %s\n", receipt.ItemId, receipt.WriteRef)
}

// Each failure kind gets its own message, because each one has a
// different remedy.
func explainSessionFailure(err error) {
	switch wallet.ErrorKind(err) {
	case constants.ErrAgentMissing:
		fmt.Fprintln(os.Stderr, "No signing agent found. Install or start the "+
			"signing agent, then try again.")
	case constants.ErrUserRejected:
		fmt.Fprintln(os.Stderr, "The connection request was declined. Approve "+
			"the request in the signing agent to submit.")
	default:
		fmt.Fprintf(os.Stderr, "Cannot connect wallet: %v\n", err)
	}
}

func explainSubmitFailure(itemId string, err error) {
	switch submission.ErrorKind(err) {
	case constants.ErrDuplicateSubmission:
		fmt.Fprintf(os.Stderr, "Item %s was already submitted from this wallet. "+
			"The ledger keeps the first record.\n", itemId)
	case constants.ErrTimeout:
		fmt.Fprintf(os.Stderr, "The ledger did not acknowledge in time. The write "+
			"may still have landed; verify before resubmitting.\n")
	case constants.ErrNotAuthenticated:
		fmt.Fprintln(os.Stderr, "No connected wallet identity. Connect and try again.")
	case constants.ErrUnauthorized:
		fmt.Fprintln(os.Stderr, "The ledger gateway rejected our credentials. "+
			"Check ANCHOR_LEDGER_TOKEN.")
	default:
		fmt.Fprintf(os.Stderr, "Submission failed: %v\n", err)
	}
}

type submitOptions struct {
	configFile string
	itemId     string
	pathToFile string
	bucket     string
	key        string
}

func parseCommandLine() *submitOptions {
	opts := &submitOptions{}
	flag.StringVar(&opts.configFile, "config", "", "Path to anchor config file")
	flag.StringVar(&opts.itemId, "item", "", "Item id to submit under")
	flag.StringVar(&opts.pathToFile, "file", "", "Path to the file to fingerprint")
	flag.StringVar(&opts.bucket, "bucket", "", "S3 bucket holding the artifact")
	flag.StringVar(&opts.key, "key", "", "S3 key of the artifact")
	flag.Parse()
	if opts.configFile == "" || opts.itemId == "" {
		printUsage()
		os.Exit(1)
	}
	if (opts.pathToFile == "") == (opts.bucket == "" || opts.key == "") {
		printUsage()
		os.Exit(1)
	}
	return opts
}

// Tell the user about the program.
func printUsage() {
	message := `
anchor_submit fingerprints a file and records the digest on the ledger.

Usage:
  anchor_submit -config=<path to config file> -item=<item id> -file=<path>
  anchor_submit -config=<path to config file> -item=<item id> -bucket=<bucket> -key=<key>

Config and item are always required, along with either a local file
path or an S3 bucket and key. S3 credentials come from
AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY in the environment.
`
	fmt.Println(message)
}
