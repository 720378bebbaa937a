// Package submission holds the core of the integrity pipeline: the
// coordinator that writes fingerprints to the ledger, the verifier
// that reconciles probe digests against ledger records, and the
// snapshot cache that keeps verification from requiring a full ledger
// scan per request.
package submission

import (
	"fmt"

	"github.com/acadtrust/anchor/constants"
	"github.com/acadtrust/anchor/models"
	"github.com/acadtrust/anchor/network"
	"github.com/acadtrust/anchor/wallet"
	"github.com/op/go-logging"
)

// LedgerStore is the narrow contract this package needs from the
// ledger gateway. network.LedgerClient implements it; tests supply
// fakes.
type LedgerStore interface {
	RecordSubmission(submitter, itemId, digest string) (string, error)
	GetSubmission(submitter, itemId string) (*models.SubmissionRecord, error)
	RecentSubmissions(horizon int) ([]*models.SubmissionRecord, error)
}

// AuditPublisher is the one-way transport for audit entries.
// network.NSQClient implements it.
type AuditPublisher interface {
	Enqueue(topic string, data []byte) error
}

// SubmissionError describes a failed submission. Kind is one of
// constants.ErrNotAuthenticated, constants.ErrDuplicateSubmission,
// or a pass-through ledger kind (Unauthorized, Unreachable, Timeout).
type SubmissionError struct {
	Kind    string
	Message string
}

func (submissionErr *SubmissionError) Error() string {
	return fmt.Sprintf("%s: %s", submissionErr.Kind, submissionErr.Message)
}

func NewSubmissionError(kind, format string, a ...interface{}) *SubmissionError {
	return &SubmissionError{
		Kind:    kind,
		Message: fmt.Sprintf(format, a...),
	}
}

// ErrorKind returns the SubmissionError kind of err, or an empty
// string if err is nil or not a SubmissionError.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	if submissionErr, ok := err.(*SubmissionError); ok {
		return submissionErr.Kind
	}
	return ""
}

/*
Coordinator orchestrates a submission: it takes the current identity
from the wallet session, issues exactly one authenticated write to the
ledger, and translates ledger failures into typed outcomes the caller
can act on. It never retries a failed write on its own. A retry here
would be a second authorized action against an external ledger with
real-world consequences, and only the caller can decide whether that's
wanted - especially after a Timeout, when the first write may have
landed anyway.
*/
type Coordinator struct {
	session      *wallet.Session
	ledger       LedgerStore
	logger       *logging.Logger
	auditChannel chan *models.AuditEntry
}

// NewCoordinator returns a coordinator writing through the given
// ledger store on behalf of the given session. The audit channel is
// buffered; if the forwarder can't keep up, entries are dropped with
// a log line, never blocking a submission.
func NewCoordinator(session *wallet.Session, ledger LedgerStore, logger *logging.Logger) *Coordinator {
	return &Coordinator{
		session:      session,
		ledger:       ledger,
		logger:       logger,
		auditChannel: make(chan *models.AuditEntry, 100),
	}
}

// Submit fingerprints are written for the pair (current identity,
// itemId). On success the returned receipt carries the gateway's
// write reference. Failure kinds:
//
// NotAuthenticated - the session is not Connected; connect and retry.
// DuplicateSubmission - the ledger already has a record for this
// pair. Terminal: the existing record is immutable.
// Timeout - the gateway did not acknowledge in time. The write may
// still land on the ledger, so resubmitting is the caller's call.
// Unauthorized, Unreachable - pass-through transport outcomes.
func (coordinator *Coordinator) Submit(itemId, digest string) (*models.SubmissionReceipt, error) {
	if itemId == "" {
		return nil, fmt.Errorf("Param itemId cannot be empty.")
	}
	identity, err := coordinator.session.CurrentIdentity()
	if err != nil {
		return nil, NewSubmissionError(constants.ErrNotAuthenticated,
			"Cannot submit item %s: %v", itemId, err)
	}
	coordinator.logger.Info("Submitting item %s for %s with digest %s",
		itemId, identity, digest)
	writeRef, err := coordinator.ledger.RecordSubmission(identity, itemId, digest)
	if err != nil {
		return nil, coordinator.translateWriteError(identity, itemId, err)
	}
	coordinator.logger.Info("Ledger accepted item %s for %s, write ref %s",
		itemId, identity, writeRef)

	receipt := &models.SubmissionReceipt{
		Submitter: identity,
		ItemId:    itemId,
		Digest:    digest,
		WriteRef:  writeRef,
	}
	entry := models.NewAuditEntry(identity, itemId, writeRef)
	receipt.SubmittedAt = entry.RecordedAt

	// Fire and forget. Audit logging is observational only; a full
	// channel or dead forwarder must not touch the success outcome.
	select {
	case coordinator.auditChannel <- entry:
	default:
		coordinator.logger.Warning("Audit channel full; dropped audit entry %s for %s/%s",
			entry.EventId, identity, itemId)
	}
	return receipt, nil
}

// translateWriteError maps a ledger rejection to the typed outcome
// the caller sees. The one remap is AlreadyExists -> DuplicateSubmission,
// because "the ledger refused a second record for this pair" is a
// domain outcome, not a transport condition. Everything else passes
// through by kind so timeout and rejection stay distinguishable.
func (coordinator *Coordinator) translateWriteError(identity, itemId string, err error) error {
	kind := network.ErrorKind(err)
	switch kind {
	case constants.ErrAlreadyExists:
		coordinator.logger.Info("Ledger already has a record for %s/%s", identity, itemId)
		return NewSubmissionError(constants.ErrDuplicateSubmission,
			"Item %s was already submitted by %s. The existing record stands.",
			itemId, identity)
	case constants.ErrTimeout:
		coordinator.logger.Warning("Write for %s/%s timed out; the write may still land",
			identity, itemId)
		return NewSubmissionError(constants.ErrTimeout,
			"Ledger write for item %s timed out. The write may still have landed; "+
				"check before resubmitting.", itemId)
	case constants.ErrUnauthorized:
		return NewSubmissionError(constants.ErrUnauthorized,
			"Ledger rejected credentials for item %s: %v", itemId, err)
	case constants.ErrUnreachable:
		return NewSubmissionError(constants.ErrUnreachable,
			"Cannot reach ledger for item %s: %v", itemId, err)
	default:
		coordinator.logger.Error("Unclassified ledger error for %s/%s: %v",
			identity, itemId, err)
		return NewSubmissionError(constants.ErrUnreachable,
			"Ledger write for item %s failed: %v", itemId, err)
	}
}

// AuditEntries exposes the audit channel for tests and for custom
// forwarders.
func (coordinator *Coordinator) AuditEntries() <-chan *models.AuditEntry {
	return coordinator.auditChannel
}

// StartAuditForwarder starts the goroutine that drains the audit
// channel to the publisher. Publish failures are logged and swallowed
// unconditionally: the ledger is the source of truth, and the audit
// mirror is best-effort by contract.
func (coordinator *Coordinator) StartAuditForwarder(publisher AuditPublisher) {
	go func() {
		for entry := range coordinator.auditChannel {
			data, err := entry.ToJson()
			if err != nil {
				coordinator.logger.Warning("Cannot serialize audit entry %s: %v",
					entry.EventId, err)
				continue
			}
			err = publisher.Enqueue(constants.AuditTopic, data)
			if err != nil {
				coordinator.logger.Warning("Audit publish failed for entry %s (%s/%s): %v",
					entry.EventId, entry.Submitter, entry.ItemId, err)
			}
		}
	}()
}
