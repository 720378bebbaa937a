package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/acadtrust/anchor/constants"
	"github.com/acadtrust/anchor/context"
	"github.com/acadtrust/anchor/models"
	"github.com/acadtrust/anchor/submission"
)

// anchor_list prints the submission records within the ledger event
// horizon. When the ledger has no live records and the config allows
// it, the static demo fixtures are shown instead, clearly labeled.
func main() {
	pathToConfigFile := parseCommandLine()
	config, err := models.LoadConfigFile(pathToConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, err.Error())
		os.Exit(1)
	}
	_context := context.NewContext(config)

	cache := submission.NewRecordCache(_context.LedgerClient, config.EventHorizon,
		_context.MessageLog)
	live, err := cache.Refresh()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot read ledger events: %v\n", err)
		os.Exit(1)
	}
	records := submission.RecordsOrDemo(live, config.DemoFallbackEnabled)
	if len(records) == 0 {
		fmt.Println("No submission records within the event horizon.")
		return
	}
	if records[0].Source == constants.SourceDemo {
		fmt.Println("*** The ledger has no live records. Showing DEMO data. ***")
	}
	fmt.Printf("%-44s  %-12s  %-68s  %s\n", "Submitter", "Item", "Digest", "Recorded At")
	for _, record := range records {
		fmt.Printf("%-44s  %-12s  %-68s  %s\n",
			record.Submitter, record.ItemId, record.Digest,
			record.RecordedAt.Format("2006-01-02 15:04:05 MST"))
	}
}

func parseCommandLine() (configFile string) {
	var pathToConfigFile string
	flag.StringVar(&pathToConfigFile, "config", "", "Path to anchor config file")
	flag.Parse()
	if pathToConfigFile == "" {
		printUsage()
		os.Exit(1)
	}
	return pathToConfigFile
}

// Tell the user about the program.
func printUsage() {
	message := `
anchor_list prints the submission records within the ledger event horizon.

Usage: anchor_list -config=<path to anchor config file>

Param -config is required.
`
	fmt.Println(message)
}
