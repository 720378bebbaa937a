package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/acadtrust/anchor/models"
	"github.com/acadtrust/anchor/util/storage"
)

// anchor_audit_list dumps the bolt audit side store. This is a
// convenience view; the ledger is the source of truth, and a missing
// entry here proves nothing.
func main() {
	pathToConfigFile := parseCommandLine()
	config, err := models.LoadConfigFile(pathToConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, err.Error())
		os.Exit(1)
	}
	config.ExpandFilePaths()
	store, err := storage.NewAuditStore(config.AuditDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot open audit store at %s: %v\n",
			config.AuditDBPath, err)
		os.Exit(1)
	}
	defer store.Close()

	entries, err := store.Entries()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot read audit store: %v\n", err)
		os.Exit(1)
	}
	if len(entries) == 0 {
		fmt.Println("Audit store is empty.")
		return
	}
	fmt.Printf("%-36s  %-44s  %-12s  %-68s  %s\n",
		"Event Id", "Submitter", "Item", "Write Ref", "Recorded At")
	for _, entry := range entries {
		fmt.Printf("%-36s  %-44s  %-12s  %-68s  %s\n",
			entry.EventId, entry.Submitter, entry.ItemId, entry.WriteRef,
			entry.RecordedAt.Format("2006-01-02 15:04:05 MST"))
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
anchor_audit_list dumps the contents of the bolt audit side store.

Usage: anchor_audit_list -config=<path to anchor config file>

Param -config is required.
`
	fmt.Println(message)
}
