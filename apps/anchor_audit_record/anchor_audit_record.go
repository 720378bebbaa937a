package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/acadtrust/anchor/context"
	"github.com/acadtrust/anchor/models"
	"github.com/acadtrust/anchor/util/storage"
	"github.com/acadtrust/anchor/workers"
)

// anchor_audit_record is a service that mirrors audit entries from
// the queue into the bolt side store.
func main() {
	pathToConfigFile := parseCommandLine()
	config, err := models.LoadConfigFile(pathToConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, err.Error())
		os.Exit(1)
	}
	_context := context.NewContext(config)
	_context.MessageLog.Info("Connecting to NSQLookupd at %s", _context.Config.NsqLookupd)
	_context.MessageLog.Info("NSQDHttpAddress is %s", _context.Config.NsqdHttpAddress)

	store, err := storage.NewAuditStore(config.AuditDBPath)
	if err != nil {
		_context.MessageLog.Fatalf("Cannot open audit store at %s: %v",
			config.AuditDBPath, err)
	}
	defer store.Close()

	consumer, err := workers.CreateNsqConsumer(_context.Config, &_context.Config.AuditWorker)
	if err != nil {
		_context.MessageLog.Fatalf(err.Error())
	}
	_context.MessageLog.Info("anchor_audit_record started")

	worker := workers.NewAuditRecorder(_context, store)
	consumer.AddHandler(worker)
	consumer.ConnectToNSQLookupd(_context.Config.NsqLookupd)

	// This reader blocks until we get an interrupt, so our program does not exit.
	<-consumer.StopChan
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
anchor_audit_record mirrors audit entries from NSQ into the bolt side store.

Usage: anchor_audit_record -config=<path to anchor config file>

Param -config is required.
`
	fmt.Println(message)
}
