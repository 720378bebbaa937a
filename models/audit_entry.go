package models

import (
	"encoding/json"
	"time"

	"github.com/satori/go.uuid"
)

/*
AuditEntry is the observational mirror of a successful submission. The
coordinator emits one of these after every successful ledger write, and
the audit recorder persists it to the side store. Audit entries exist
for convenience only: the ledger is the source of truth, and a lost or
failed audit entry never affects a submission's outcome.
*/
type AuditEntry struct {
	// EventId uniquely identifies this audit event, so the recorder
	// can tell a redelivered message from a genuinely new one.
	EventId    string    `json:"event_id"`
	Submitter  string    `json:"submitter"`
	ItemId     string    `json:"item_id"`
	WriteRef   string    `json:"write_ref"`
	RecordedAt time.Time `json:"recorded_at"`
}

// NewAuditEntry creates an audit entry for a successful write,
// stamped with a fresh event id and the current UTC time.
func NewAuditEntry(submitter, itemId, writeRef string) *AuditEntry {
	return &AuditEntry{
		EventId:    uuid.NewV4().String(),
		Submitter:  submitter,
		ItemId:     itemId,
		WriteRef:   writeRef,
		RecordedAt: time.Now().UTC(),
	}
}

// Key returns the side-store key for this entry.
func (entry *AuditEntry) Key() string {
	return RecordKey(entry.Submitter, entry.ItemId)
}

// ToJson serializes this entry for the audit queue.
func (entry *AuditEntry) ToJson() ([]byte, error) {
	return json.Marshal(entry)
}

// AuditEntryFromJson deserializes an entry read off the audit queue.
func AuditEntryFromJson(data []byte) (*AuditEntry, error) {
	entry := &AuditEntry{}
	err := json.Unmarshal(data, entry)
	if err != nil {
		return nil, err
	}
	return entry, nil
}
