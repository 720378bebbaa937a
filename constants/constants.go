// Common vars and constants, shared by many parts of the anchor library.
package constants

import (
	"regexp"
)

// AlgSha256 is the only digest algorithm the ledger contract accepts.
const AlgSha256 = "sha256"

// DigestPrefix is prepended to every locally generated digest so that
// downstream consumers can recognize an anchor fingerprint on sight.
const DigestPrefix = "0x"

// DigestHexLength is the length of the hex portion of a digest,
// not counting the prefix. (32 bytes -> 64 hex characters)
const DigestHexLength = 64

// DigestPattern matches a well-formed digest, with or without the
// 0x prefix. The ledger gateway does not guarantee casing, so both
// cases are accepted.
var DigestPattern = regexp.MustCompile("^(0x)?[0-9a-fA-F]{64}$")

// Error kinds returned by the ledger gateway and the signing agent.
// These match values defined in the gateway's API contract. Remediation
// differs for each kind, so they must never be collapsed into a single
// generic failure.
const (
	ErrAlreadyExists       = "AlreadyExists"
	ErrUnauthorized        = "Unauthorized"
	ErrUnreachable         = "Unreachable"
	ErrTimeout             = "Timeout"
	ErrUserRejected        = "UserRejected"
	ErrAgentMissing        = "AgentMissing"
	ErrNotAuthenticated    = "NotAuthenticated"
	ErrDuplicateSubmission = "DuplicateSubmission"
)

var LedgerErrorKinds []string = []string{
	ErrAlreadyExists,
	ErrUnauthorized,
	ErrUnreachable,
	ErrTimeout,
}

// Sources describe where a submission record came from. Demo records
// are static fixtures shown only when the ledger has no live records;
// they are never merged with live data.
const (
	SourceLedger = "ledger"
	SourceCache  = "cache"
	SourceDemo   = "demo"
)

// Wallet session statuses.
const (
	SessionDisconnected = "Disconnected"
	SessionConnecting   = "Connecting"
	SessionConnected    = "Connected"
	SessionError        = "Error"
)

var SessionStatuses []string = []string{
	SessionDisconnected,
	SessionConnecting,
	SessionConnected,
	SessionError,
}

// DefaultEventHorizon is how many of the most recent ledger append
// events a snapshot refresh will scan when the config doesn't say
// otherwise. Matches the contract event query window of the reference
// deployment.
const DefaultEventHorizon = 10000

// AuditTopic is the NSQ topic to which the submission coordinator
// posts audit entries, and from which the audit recorder reads.
const AuditTopic = "anchor_audit_topic"
