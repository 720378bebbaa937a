package context

import (
	"fmt"
	stdlog "log"
	"os"
	"sync/atomic"

	"github.com/acadtrust/anchor/models"
	"github.com/acadtrust/anchor/network"
	"github.com/acadtrust/anchor/util/logger"
	"github.com/minio/minio-go"
	"github.com/op/go-logging"
)

/*
Context sets up the items common to the anchor services (submitter,
verifier, audit recorder, listing tools). It also encapsulates some
functions common to all of those services.
*/
type Context struct {
	Config        *models.Config
	MessageLog    *logging.Logger
	JsonLog       *stdlog.Logger
	NSQClient     *network.NSQClient
	LedgerClient  *network.LedgerClient
	AgentClient   *network.AgentClient
	pathToLogFile string
	pathToJsonLog string
	succeeded     int64
	failed        int64
}

/*
Creates and returns a new Context object. Because some items are
absolutely required by this object and the processes that use it,
this method will panic if it gets an invalid config param from the
command line, or if it cannot set up some essential services, such
as logging.

This object is meant to be used as a singleton with any of the
stand-alone anchor services.
*/
func NewContext(config *models.Config) (context *Context) {
	context = &Context{
		succeeded: int64(0),
		failed:    int64(0),
	}
	context.Config = config
	context.MessageLog, context.pathToLogFile = logger.InitLogger(config)
	context.JsonLog, context.pathToJsonLog = logger.InitJsonLogger(config)
	context.NSQClient = network.NewNSQClient(config.NsqdHttpAddress)
	context.AgentClient = network.NewAgentClient(config.SigningAgentURL, context.MessageLog)
	context.initLedgerClient()
	return context
}

// Initializes a reusable ledger gateway client. The API token comes
// from the environment, not the config file, for the same reason the
// agent keeps the signing keys: secrets don't belong on disk here.
func (context *Context) initLedgerClient() {
	ledgerClient, err := network.NewLedgerClient(
		context.Config.LedgerGatewayURL,
		"v1",
		context.Config.ContractAddress,
		os.Getenv("ANCHOR_LEDGER_TOKEN"),
		context.Config.LedgerRequestTimeout,
		context.MessageLog)
	if err != nil {
		message := fmt.Sprintf("Exiting. Cannot initialize Ledger Client: %v", err)
		fmt.Fprintln(os.Stderr, message)
		context.MessageLog.Fatal(message)
	}
	context.LedgerClient = ledgerClient
}

// Returns the number of work items that succeeded.
func (context *Context) Succeeded() int64 {
	return context.succeeded
}

// Returns the number of work items that failed.
func (context *Context) Failed() int64 {
	return context.failed
}

// Increases the count of successfully processed items by one.
func (context *Context) IncrementSucceeded() int64 {
	return atomic.AddInt64(&context.succeeded, 1)
}

// Increases the count of unsuccessfully processed items by one.
func (context *Context) IncrementFailed() int64 {
	return atomic.AddInt64(&context.failed, 1)
}

// Returns the path to this process' log file
func (context *Context) PathToLogFile() string {
	return context.pathToLogFile
}

// Returns the path to this process' JSON log file
func (context *Context) PathToJsonLog() string {
	return context.pathToJsonLog
}

// Logs info about the number of items that have succeeded and failed.
func (context *Context) LogStats() {
	context.MessageLog.Info("**STATS** Succeeded: %d, Failed: %d",
		context.Succeeded(), context.Failed())
}

// GetS3Client returns a Minio client for fetching partner artifacts.
// For url param, do not include protocol. E.g. Use "example.com" not
// "https://example.com". The Minio client will use https by default.
func (context *Context) GetS3Client(url, accessKeyId, secretAccessKey string) (*minio.Client, error) {
	return minio.New(url, accessKeyId, secretAccessKey, true)
}
