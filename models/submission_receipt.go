package models

import (
	"time"
)

// SubmissionReceipt is what the coordinator hands back after a
// successful ledger write. WriteRef is the gateway's reference for the
// write (the transaction hash on the reference deployment), which the
// caller can use to find the write on a ledger explorer.
type SubmissionReceipt struct {
	Submitter   string    `json:"submitter"`
	ItemId      string    `json:"item_id"`
	Digest      string    `json:"digest"`
	WriteRef    string    `json:"write_ref"`
	SubmittedAt time.Time `json:"submitted_at"`
}
