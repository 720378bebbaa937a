package submission

import (
	"github.com/acadtrust/anchor/models"
	"github.com/op/go-logging"
)

/*
Verifier reconciles a probe digest against the ledger record for a
(submitter, itemId) pair. Lookups go through the snapshot cache first;
a cache miss falls through to a direct single-pair ledger query before
the verifier concludes the pair is absent, so a stale cache can never
produce a wrong verdict.

Verification is fail-closed. If the ledger is unreachable on the
fallback path, the verdict is matched=false with the same shape as a
genuinely absent record; the difference shows up in the diagnostic
log, never in the verdict. An uncertain submission is an unverified
submission.
*/
type Verifier struct {
	cache  *RecordCache
	ledger LedgerStore
	logger *logging.Logger
}

// NewVerifier returns a verifier reading through the given cache and
// falling back to the given ledger store.
func NewVerifier(cache *RecordCache, ledger LedgerStore, logger *logging.Logger) *Verifier {
	return &Verifier{
		cache:  cache,
		ledger: ledger,
		logger: logger,
	}
}

// Verify reports whether the ledger record for (submitter, itemId)
// carries the probe digest. Digest comparison is case-insensitive
// over the hex representation, because ledger-returned casing is not
// guaranteed to match locally generated casing. Verify never mutates
// ledger state and never fails the caller: every outcome, including
// ledger unavailability, is a verdict.
func (verifier *Verifier) Verify(submitter, itemId, probeDigest string) *models.VerificationVerdict {
	record := verifier.cache.Lookup(submitter, itemId)
	if record == nil {
		ledgerRecord, err := verifier.ledger.GetSubmission(submitter, itemId)
		if err != nil {
			// Fail closed. The caller sees the same verdict as for
			// an absent record; this log line is the only place the
			// two cases differ.
			verifier.logger.Warning("Cannot verify %s/%s: ledger lookup failed (%v). "+
				"Returning unverified.", submitter, itemId, err)
			return &models.VerificationVerdict{Matched: false}
		}
		record = ledgerRecord
	}
	if record == nil {
		verifier.logger.Info("No record for %s/%s", submitter, itemId)
		return &models.VerificationVerdict{Matched: false}
	}
	if record.DigestMatches(probeDigest) {
		verifier.logger.Info("Verified %s/%s: digest %s matches record from %s",
			submitter, itemId, probeDigest, record.Source)
		return &models.VerificationVerdict{
			Matched: true,
			Record:  record,
			Source:  record.Source,
		}
	}
	verifier.logger.Warning("Digest mismatch for %s/%s: probe %s does not match "+
		"recorded %s", submitter, itemId, probeDigest, record.Digest)
	return &models.VerificationVerdict{Matched: false}
}
