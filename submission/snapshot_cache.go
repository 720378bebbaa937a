package submission

import (
	"sync"

	"github.com/acadtrust/anchor/constants"
	"github.com/acadtrust/anchor/models"
	"github.com/op/go-logging"
)

/*
RecordCache is a best-effort in-memory mirror of the ledger's recent
append events, so verification and listing don't need a ledger round
trip per request. It is advisory and rebuildable: the verifier falls
through to a direct ledger query on a miss, and a failed refresh
keeps the previous snapshot. The cache never invents records; it only
mirrors what the ledger already returned.

The snapshot is replaced wholesale under the write lock. Readers see
either the old snapshot or the new one, never a half-built map.
*/
type RecordCache struct {
	ledger  LedgerStore
	horizon int
	logger  *logging.Logger

	mutex   sync.RWMutex
	byKey   map[string]*models.SubmissionRecord
	ordered []*models.SubmissionRecord
}

// NewRecordCache returns an empty cache that refreshes from the given
// ledger store, scanning at most horizon append events per refresh.
func NewRecordCache(ledger LedgerStore, horizon int, logger *logging.Logger) *RecordCache {
	if horizon <= 0 {
		horizon = constants.DefaultEventHorizon
	}
	return &RecordCache{
		ledger:  ledger,
		horizon: horizon,
		logger:  logger,
		byKey:   make(map[string]*models.SubmissionRecord),
		ordered: make([]*models.SubmissionRecord, 0),
	}
}

// Refresh scans the most recent ledger append events and replaces the
// snapshot atomically, returning the new ordered record list. If the
// ledger is unreachable, the previous snapshot is retained and the
// error is returned to the caller; it is never swallowed here.
func (cache *RecordCache) Refresh() ([]*models.SubmissionRecord, error) {
	records, err := cache.ledger.RecentSubmissions(cache.horizon)
	if err != nil {
		cache.logger.Warning("Snapshot refresh failed, keeping previous snapshot "+
			"of %d records: %v", cache.Size(), err)
		return nil, err
	}
	byKey := make(map[string]*models.SubmissionRecord, len(records))
	ordered := make([]*models.SubmissionRecord, 0, len(records))
	for _, record := range records {
		mirrored := &models.SubmissionRecord{
			Submitter:  record.Submitter,
			ItemId:     record.ItemId,
			Digest:     record.Digest,
			RecordedAt: record.RecordedAt,
			Source:     constants.SourceCache,
		}
		// The ledger enforces one record per pair, so a duplicate
		// key in the event range means a redelivered event. First
		// one wins; the record is immutable anyway.
		if _, exists := byKey[mirrored.Key()]; exists {
			continue
		}
		byKey[mirrored.Key()] = mirrored
		ordered = append(ordered, mirrored)
	}

	cache.mutex.Lock()
	cache.byKey = byKey
	cache.ordered = ordered
	cache.mutex.Unlock()

	cache.logger.Info("Snapshot refreshed: %d records within horizon %d",
		len(ordered), cache.horizon)
	return cache.Records(), nil
}

// Lookup returns the cached record for (submitter, itemId), or nil if
// the current snapshot has none. O(1) against the snapshot map. A nil
// here means only "not in the snapshot"; the verifier still asks the
// ledger before concluding the pair is absent.
func (cache *RecordCache) Lookup(submitter, itemId string) *models.SubmissionRecord {
	cache.mutex.RLock()
	defer cache.mutex.RUnlock()
	return cache.byKey[models.RecordKey(submitter, itemId)]
}

// Records returns the current snapshot in ledger event order. The
// returned slice is a copy; callers can't corrupt the snapshot.
func (cache *RecordCache) Records() []*models.SubmissionRecord {
	cache.mutex.RLock()
	defer cache.mutex.RUnlock()
	records := make([]*models.SubmissionRecord, len(cache.ordered))
	copy(records, cache.ordered)
	return records
}

// Size returns the number of records in the current snapshot.
func (cache *RecordCache) Size() int {
	cache.mutex.RLock()
	defer cache.mutex.RUnlock()
	return len(cache.ordered)
}
