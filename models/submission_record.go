package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/acadtrust/anchor/constants"
)

/*
SubmissionRecord is the persisted (submitter, itemId, digest, timestamp)
tuple that the ledger holds for a single submission. The ledger creates
at most one record per (submitter, itemId) pair and never mutates it
afterward. RecordedAt should be in ISO8601 format for local time or UTC
when we serialize a record to JSON for the gateway.

For example:
1994-11-05T08:15:30-05:00     (Local Time)
1994-11-05T08:15:30Z          (UTC)
*/
type SubmissionRecord struct {
	Submitter  string    `json:"submitter"`
	ItemId     string    `json:"item_id"`
	Digest     string    `json:"digest"`
	RecordedAt time.Time `json:"recorded_at"`
	// Source says where this record came from: constants.SourceLedger,
	// constants.SourceCache or constants.SourceDemo. Not serialized,
	// because the gateway knows nothing about our caching layers.
	Source string `json:"-"`
}

// Key returns the lookup key for this record. Submitter addresses come
// back from the ledger in mixed case, so the key is case-folded.
func (record *SubmissionRecord) Key() string {
	return RecordKey(record.Submitter, record.ItemId)
}

// RecordKey builds the cache/store key for a (submitter, itemId) pair.
func RecordKey(submitter, itemId string) string {
	return fmt.Sprintf("%s/%s", strings.ToLower(submitter), itemId)
}

// DigestMatches compares the record's digest to the probe digest using
// case-insensitive equality over the hex representation. The gateway
// does not guarantee that stored hex casing matches locally generated
// casing, and probes may arrive without the 0x prefix.
func (record *SubmissionRecord) DigestMatches(probeDigest string) bool {
	return NormalizeDigest(record.Digest) == NormalizeDigest(probeDigest)
}

// NormalizeDigest lowercases a digest and strips the 0x prefix, if
// present, so digests from any source compare cleanly.
func NormalizeDigest(digest string) string {
	return strings.TrimPrefix(strings.ToLower(digest), constants.DigestPrefix)
}

// SerializeForGateway serializes a SubmissionRecord into the JSON
// format the ledger gateway accepts for POST calls.
func (record *SubmissionRecord) SerializeForGateway() ([]byte, error) {
	dataStruct := make(map[string]interface{})
	dataStruct["submission"] = record
	return json.Marshal(dataStruct)
}
