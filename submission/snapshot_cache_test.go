package submission_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/acadtrust/anchor/constants"
	"github.com/acadtrust/anchor/models"
	"github.com/acadtrust/anchor/network"
	"github.com/acadtrust/anchor/submission"
	"github.com/acadtrust/anchor/util/logger"
	"github.com/icrowley/fake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ledgerRecord(submitter, itemId, digest string) *models.SubmissionRecord {
	return &models.SubmissionRecord{
		Submitter:  submitter,
		ItemId:     itemId,
		Digest:     digest,
		RecordedAt: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		Source:     constants.SourceLedger,
	}
}

func TestCacheRefresh(t *testing.T) {
	ledger := &fakeLedger{
		recent: []*models.SubmissionRecord{
			ledgerRecord(testSubmitter, "ASN001", "0xaaaa"),
			ledgerRecord(testSubmitter, "ASN002", "0xbbbb"),
		},
	}
	cache := submission.NewRecordCache(ledger, 500, logger.DiscardLogger("submission_test"))
	assert.Equal(t, 0, cache.Size())

	records, err := cache.Refresh()
	require.Nil(t, err)
	require.Equal(t, 2, len(records))
	assert.Equal(t, "ASN001", records[0].ItemId)
	assert.Equal(t, "ASN002", records[1].ItemId)
	// Mirrored records are tagged as cache copies.
	assert.Equal(t, constants.SourceCache, records[0].Source)
	assert.Equal(t, 2, cache.Size())
}

func TestCacheLookup(t *testing.T) {
	ledger := &fakeLedger{
		recent: []*models.SubmissionRecord{
			ledgerRecord(testSubmitter, "ASN001", "0xaaaa"),
		},
	}
	cache := submission.NewRecordCache(ledger, 500, logger.DiscardLogger("submission_test"))
	_, err := cache.Refresh()
	require.Nil(t, err)

	record := cache.Lookup(testSubmitter, "ASN001")
	require.NotNil(t, record)
	assert.Equal(t, "0xaaaa", record.Digest)

	// Submitter lookup is case-insensitive, like the key itself.
	record = cache.Lookup("0X742D35CC6634C0532925A3B844BC9E7595F0BEB0", "ASN001")
	assert.NotNil(t, record)

	assert.Nil(t, cache.Lookup(testSubmitter, "ASN999"))
}

func TestCacheFailedRefreshKeepsSnapshot(t *testing.T) {
	ledger := &fakeLedger{
		recent: []*models.SubmissionRecord{
			ledgerRecord(testSubmitter, "ASN001", "0xaaaa"),
		},
	}
	cache := submission.NewRecordCache(ledger, 500, logger.DiscardLogger("submission_test"))
	_, err := cache.Refresh()
	require.Nil(t, err)
	require.Equal(t, 1, cache.Size())

	ledger.recentErr = network.NewLedgerError(constants.ErrUnreachable, "connection refused")
	_, err = cache.Refresh()
	require.NotNil(t, err)

	// The previous snapshot survives a failed refresh.
	assert.Equal(t, 1, cache.Size())
	assert.NotNil(t, cache.Lookup(testSubmitter, "ASN001"))
}

func TestCacheDuplicateEventsFirstWins(t *testing.T) {
	ledger := &fakeLedger{
		recent: []*models.SubmissionRecord{
			ledgerRecord(testSubmitter, "ASN001", "0xaaaa"),
			ledgerRecord(testSubmitter, "ASN001", "0xffff"),
		},
	}
	cache := submission.NewRecordCache(ledger, 500, logger.DiscardLogger("submission_test"))
	_, err := cache.Refresh()
	require.Nil(t, err)

	assert.Equal(t, 1, cache.Size())
	record := cache.Lookup(testSubmitter, "ASN001")
	require.NotNil(t, record)
	assert.Equal(t, "0xaaaa", record.Digest)
}

func TestCacheRecordsReturnsCopy(t *testing.T) {
	ledger := &fakeLedger{
		recent: []*models.SubmissionRecord{
			ledgerRecord(testSubmitter, "ASN001", "0xaaaa"),
			ledgerRecord(testSubmitter, "ASN002", "0xbbbb"),
		},
	}
	cache := submission.NewRecordCache(ledger, 500, logger.DiscardLogger("submission_test"))
	_, err := cache.Refresh()
	require.Nil(t, err)

	records := cache.Records()
	records[0] = nil
	fresh := cache.Records()
	require.NotNil(t, fresh[0])
	assert.Equal(t, "ASN001", fresh[0].ItemId)
}

func TestCacheLargeSnapshot(t *testing.T) {
	recent := make([]*models.SubmissionRecord, 0, 250)
	for i := 0; i < 250; i++ {
		itemId := fmt.Sprintf("ASN%03d-%s", i, fake.DigitsN(4))
		recent = append(recent, ledgerRecord(testSubmitter, itemId, "0xaaaa"))
	}
	ledger := &fakeLedger{recent: recent}
	cache := submission.NewRecordCache(ledger, 0, logger.DiscardLogger("submission_test"))

	records, err := cache.Refresh()
	require.Nil(t, err)
	assert.Equal(t, 250, len(records))
	for _, record := range records {
		assert.NotNil(t, cache.Lookup(record.Submitter, record.ItemId))
	}
}
