package submission

import (
	"time"

	"github.com/acadtrust/anchor/constants"
	"github.com/acadtrust/anchor/models"
)

// DemoRecords returns the static fixture records shown when the
// ledger reports zero live records within the horizon, so a fresh
// deployment has something to display. Every record is labeled
// Source=SourceDemo, and callers must never merge these with live
// data. The fixtures match the reference deployment's seed data;
// the digests are sha256("hello"), sha256("test") and sha256("abc").
func DemoRecords() []*models.SubmissionRecord {
	return []*models.SubmissionRecord{
		{
			Submitter:  "0x742d35Cc6634C0532925a3b844Bc9e7595f8aB21",
			ItemId:     "ASN001",
			Digest:     "0x7d865e959b2466918c9863afca942d0fb89d7c9ac0c99bafc3749504ded97730",
			RecordedAt: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
			Source:     constants.SourceDemo,
		},
		{
			Submitter:  "0x8ba1f109551bD432803012645Ac136ddd64DBA72",
			ItemId:     "ASN001",
			Digest:     "0x3e23e8160039594a33894f6564e1b1348bbd7a0088d42c4acb73eeaed59c009d",
			RecordedAt: time.Date(2024, 1, 15, 11, 45, 0, 0, time.UTC),
			Source:     constants.SourceDemo,
		},
		{
			Submitter:  "0xdD2FD4581271e230360230F9337D5c0430Bf44C0",
			ItemId:     "ASN002",
			Digest:     "0x2c26b46b68ffc68ff99b453c1d30413413422d706483bfa0f98a5e886266e7ae",
			RecordedAt: time.Date(2024, 1, 16, 9, 15, 0, 0, time.UTC),
			Source:     constants.SourceDemo,
		},
	}
}

// RecordsOrDemo returns live records when there are any, or the demo
// fixtures when the refreshed snapshot is empty and the config allows
// the fallback. The two sources are never mixed.
func RecordsOrDemo(live []*models.SubmissionRecord, demoFallbackEnabled bool) []*models.SubmissionRecord {
	if len(live) > 0 || !demoFallbackEnabled {
		return live
	}
	return DemoRecords()
}
