package models

import (
	"github.com/nsqio/go-nsq"
)

// AuditResult describes one attempt to mirror an audit entry into the
// side store.
type AuditResult struct {
	// NSQMessage is the NSQ message being processed. Not serialized
	// because it will change each time we try to process a request.
	NSQMessage *nsq.Message `json:"-"`
	// Entry is the audit entry parsed from the message body.
	Entry *AuditEntry
	// ErrorIsFatal is true when the message can never succeed, such
	// as an unparsable body. Fatal errors are not requeued.
	ErrorIsFatal bool
	// RecordSummary contains information about the result of the
	// attempt to save the entry to the side store.
	RecordSummary *WorkSummary
}

// NewAuditResult returns a new empty AuditResult for the given
// NSQ message.
func NewAuditResult(message *nsq.Message) *AuditResult {
	return &AuditResult{
		NSQMessage:    message,
		RecordSummary: NewWorkSummary(),
	}
}
