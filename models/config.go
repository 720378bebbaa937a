package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/acadtrust/anchor/constants"
	"github.com/acadtrust/anchor/util/fileutil"
	"github.com/op/go-logging"
)

type WorkerConfig struct {
	// This describes how often the NSQ client should ping
	// the NSQ server to let it know it's still there. The
	// setting must be formatted like so:
	//
	// "800ms" for 800 milliseconds
	// "10s" for ten seconds
	// "1m" for one minute
	HeartbeatInterval string

	// The maximum number of times the worker should try to
	// process a job. If non-fatal errors cause a job to
	// fail, it will be requeued this number of times.
	MaxAttempts uint16

	// Maximum number of jobs a worker will accept from the
	// queue at one time.
	MaxInFlight int

	// If the NSQ server does not hear from a client that a
	// job is complete in this amount of time, the server
	// considers the job to have timed out and re-queues it.
	MessageTimeout string

	// The name of the NSQ Channel the worker should read from.
	NsqChannel string

	// The name of the NSQ Topic the worker should listen to.
	NsqTopic string

	// This describes how long the NSQ client will wait for
	// a read from the NSQ server before timing out. The format
	// is the same as for HeartbeatInterval.
	ReadTimeout string

	// Number of go routines the worker runs to handle writes
	// to the audit side store.
	Workers int

	// This describes how long the NSQ client will wait for
	// a write to the NSQ server to complete before timing out.
	// The format is the same as for HeartbeatInterval.
	WriteTimeout string
}

type Config struct {
	// ActiveConfig is the configuration currently in use.
	ActiveConfig string

	// ContractAddress is the address of the submission contract
	// on the ledger. The gateway needs this on every call.
	ContractAddress string

	// LedgerGatewayURL is the base URL of the ledger gateway,
	// the narrow RPC service in front of the ledger itself.
	LedgerGatewayURL string

	// LedgerRequestTimeout is how long, in seconds, the ledger
	// client waits for the gateway before reporting a Timeout.
	// Note that a timed-out write may still land on the ledger.
	LedgerRequestTimeout int

	// SigningAgentURL is the base URL of the local signing agent
	// service. The agent holds the private keys; we never see them.
	SigningAgentURL string

	// EventHorizon is how many of the most recent ledger append
	// events a snapshot refresh scans. Zero means use the default.
	EventHorizon int

	// AuditDBPath is the path to the bolt file backing the audit
	// side store.
	AuditDBPath string

	// AuditWorker is the configuration for the audit recorder.
	AuditWorker WorkerConfig

	// ArtifactRegion is the AWS region hosting partner artifact
	// buckets, for remote fingerprinting.
	ArtifactRegion string

	// NsqdHttpAddress is the address of the nsqd HTTP endpoint
	// to which audit entries are posted.
	NsqdHttpAddress string

	// NsqLookupd is the address the audit recorder uses to find
	// nsqd instances.
	NsqLookupd string

	// DemoFallbackEnabled says whether record listings may fall
	// back to the static demo fixtures when the ledger reports
	// zero live records. Demo data is always labeled as such.
	DemoFallbackEnabled bool

	// LogDirectory is where we'll write our log files.
	LogDirectory string

	// LogLevel is defined in github.com/op/go-logging
	// and should be one of the following:
	// 1 - CRITICAL
	// 2 - ERROR
	// 3 - WARNING
	// 4 - NOTICE
	// 5 - INFO
	// 6 - DEBUG
	LogLevel logging.Level

	// If true, processes will log to STDERR in addition
	// to their standard log files.
	LogToStderr bool
}

// LoadConfigFile loads a JSON config file from the specified path,
// which may be relative to ANCHOR_HOME.
func LoadConfigFile(pathToConfigFile string) (*Config, error) {
	file, err := fileutil.LoadRelativeFile(pathToConfigFile)
	if err != nil {
		detailedError := fmt.Errorf("Error reading config file '%s': %v\n",
			pathToConfigFile, err)
		return nil, detailedError
	}
	config := &Config{}
	err = json.Unmarshal(file, config)
	if err != nil {
		detailedError := fmt.Errorf("Error parsing JSON from config file '%s': %v",
			pathToConfigFile, err)
		return nil, detailedError
	}
	config.ActiveConfig = pathToConfigFile
	if config.EventHorizon == 0 {
		config.EventHorizon = constants.DefaultEventHorizon
	}
	return config, nil
}

// EnsureLogDirectory expands the log directory path, creates the
// directory if necessary, and returns its absolute path.
func (config *Config) EnsureLogDirectory() (string, error) {
	config.ExpandFilePaths()
	if config.LogDirectory != "" {
		err := os.MkdirAll(config.LogDirectory, 0755)
		if err != nil {
			return "", err
		}
	}
	return config.AbsLogDirectory(), nil
}

func (config *Config) AbsLogDirectory() string {
	absLogDir, err := filepath.Abs(config.LogDirectory)
	if err != nil {
		msg := fmt.Sprintf("Cannot get absolute path to log directory. "+
			"config.LogDirectory is set to '%s'", config.LogDirectory)
		panic(msg)
	}
	return absLogDir
}

// ExpandFilePaths expands the tilde in the log directory and audit
// DB paths.
func (config *Config) ExpandFilePaths() {
	expanded, err := fileutil.ExpandTilde(config.LogDirectory)
	if err == nil {
		config.LogDirectory = expanded
	}
	expanded, err = fileutil.ExpandTilde(config.AuditDBPath)
	if err == nil {
		config.AuditDBPath = expanded
	}
}
