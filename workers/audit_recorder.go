package workers

import (
	"time"

	"github.com/acadtrust/anchor/context"
	"github.com/acadtrust/anchor/models"
	"github.com/acadtrust/anchor/util/storage"
	"github.com/nsqio/go-nsq"
)

// AuditRecorder mirrors audit entries from the queue into the bolt
// side store. The mirror is observational: the ledger is the source
// of truth, and nothing in here can affect a submission that already
// succeeded. The store exists so support staff can answer "who
// submitted what, when" without walking ledger events.
type AuditRecorder struct {
	Context            *context.Context
	Store              *storage.AuditStore
	SaveChannel        chan *models.AuditResult
	PostProcessChannel chan *models.AuditResult
	ItemsInProcess     *models.SynchronizedMap
}

func NewAuditRecorder(_context *context.Context, store *storage.AuditStore) *AuditRecorder {
	recorder := &AuditRecorder{
		Context:        _context,
		Store:          store,
		ItemsInProcess: models.NewSynchronizedMap(),
	}
	workerBufferSize := _context.Config.AuditWorker.Workers * 10
	recorder.SaveChannel = make(chan *models.AuditResult, workerBufferSize)
	recorder.PostProcessChannel = make(chan *models.AuditResult, workerBufferSize)
	for i := 0; i < _context.Config.AuditWorker.Workers; i++ {
		go recorder.save()
		go recorder.postProcess()
	}
	return recorder
}

func (recorder *AuditRecorder) HandleMessage(message *nsq.Message) error {
	auditResult := recorder.buildAuditResult(message)
	if auditResult.Entry == nil {
		recorder.Context.MessageLog.Error("Cannot process audit message '%s': %s",
			string(message.Body), auditResult.RecordSummary.FirstError())
		message.Finish()
		return nil
	}
	// Check syncmap to see if this entry is already in process,
	// which happens when NSQ redelivers a slow message.
	key := auditResult.Entry.Key()
	startedAt := recorder.ItemsInProcess.Get(key)
	if startedAt != "" {
		recorder.Context.MessageLog.Info("Skipping %s: already in process as of %s.",
			key, startedAt)
		message.Finish()
		return nil
	}

	recorder.ItemsInProcess.Add(key, time.Now().UTC().Format(time.RFC3339))

	// We'll ping NSQ manually when we need to.
	message.DisableAutoResponse()
	recorder.SaveChannel <- auditResult
	return nil
}

func (recorder *AuditRecorder) save() {
	for auditResult := range recorder.SaveChannel {
		auditResult.RecordSummary.Attempted = true
		auditResult.RecordSummary.AttemptNumber += 1
		auditResult.RecordSummary.Start()
		existing, err := recorder.Store.Get(auditResult.Entry.Key())
		if err != nil {
			auditResult.RecordSummary.AddError(
				"Cannot read side store for %s: %v", auditResult.Entry.Key(), err)
		} else if existing != nil && existing.EventId != auditResult.Entry.EventId {
			// The ledger enforces one record per pair, so a second
			// event id for the same key means someone replayed an
			// old message. Keep the first entry.
			recorder.Context.MessageLog.Info("Store already has entry for %s "+
				"(event %s); ignoring event %s", auditResult.Entry.Key(),
				existing.EventId, auditResult.Entry.EventId)
		} else {
			err = recorder.Store.Save(auditResult.Entry.Key(), auditResult.Entry)
			if err != nil {
				auditResult.RecordSummary.AddError(
					"Cannot save audit entry %s: %v", auditResult.Entry.EventId, err)
			}
		}
		auditResult.RecordSummary.Finish()
		recorder.PostProcessChannel <- auditResult
	}
}

func (recorder *AuditRecorder) postProcess() {
	for auditResult := range recorder.PostProcessChannel {
		key := auditResult.Entry.Key()
		if auditResult.RecordSummary.HasErrors() {
			if auditResult.ErrorIsFatal {
				recorder.Context.MessageLog.Error("%s (FATAL)",
					auditResult.RecordSummary.AllErrorsAsString())
				recorder.Context.IncrementFailed()
				auditResult.NSQMessage.Finish()
			} else {
				recorder.Context.MessageLog.Error("%s (transient)",
					auditResult.RecordSummary.AllErrorsAsString())
				auditResult.NSQMessage.Requeue(1 * time.Minute)
			}
		} else {
			recorder.Context.MessageLog.Info("Mirrored audit entry %s for %s",
				auditResult.Entry.EventId, key)
			recorder.Context.IncrementSucceeded()
			auditResult.NSQMessage.Finish()
		}
		recorder.ItemsInProcess.Delete(key)
	}
}

func (recorder *AuditRecorder) buildAuditResult(message *nsq.Message) *models.AuditResult {
	auditResult := models.NewAuditResult(message)
	entry, err := models.AuditEntryFromJson(message.Body)
	if err != nil {
		auditResult.RecordSummary.AddError("Unparsable audit message: %v", err)
		auditResult.ErrorIsFatal = true
		return auditResult
	}
	auditResult.Entry = entry
	return auditResult
}
