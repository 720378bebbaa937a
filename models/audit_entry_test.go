package models_test

import (
	"testing"

	"github.com/acadtrust/anchor/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAuditEntry(t *testing.T) {
	entry := models.NewAuditEntry("0xAbCd", "ASN001", "0xfeedbeef")
	assert.NotEmpty(t, entry.EventId)
	assert.Equal(t, "0xAbCd", entry.Submitter)
	assert.Equal(t, "ASN001", entry.ItemId)
	assert.Equal(t, "0xfeedbeef", entry.WriteRef)
	assert.False(t, entry.RecordedAt.IsZero())
	assert.Equal(t, "0xabcd/ASN001", entry.Key())

	// Event ids must be unique across entries.
	other := models.NewAuditEntry("0xAbCd", "ASN001", "0xfeedbeef")
	assert.NotEqual(t, entry.EventId, other.EventId)
}

func TestAuditEntryJsonRoundTrip(t *testing.T) {
	entry := models.NewAuditEntry("0xAbCd", "ASN001", "0xfeedbeef")
	data, err := entry.ToJson()
	require.Nil(t, err)

	parsed, err := models.AuditEntryFromJson(data)
	require.Nil(t, err)
	assert.Equal(t, entry.EventId, parsed.EventId)
	assert.Equal(t, entry.Submitter, parsed.Submitter)
	assert.Equal(t, entry.ItemId, parsed.ItemId)
	assert.Equal(t, entry.WriteRef, parsed.WriteRef)

	_, err = models.AuditEntryFromJson([]byte("this is not json"))
	assert.NotNil(t, err)
}
