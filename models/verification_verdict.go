package models

/*
VerificationVerdict is the result of comparing a probe digest against
the ledger record for a (submitter, itemId) pair. Matched is true only
when a record exists and its digest equals the probe digest under
case-insensitive comparison; in that case Record is present and Source
says which layer produced it (cache or ledger). In every other case,
including ledger unavailability, Matched is false and Record is nil.
The verdict is deliberately fail-closed: uncertain means not verified.
*/
type VerificationVerdict struct {
	Matched bool              `json:"matched"`
	Record  *SubmissionRecord `json:"record,omitempty"`
	Source  string            `json:"source,omitempty"`
}
