package storage_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/acadtrust/anchor/models"
	"github.com/acadtrust/anchor/util/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*storage.AuditStore, string) {
	dir, err := ioutil.TempDir("", "anchor_audit_test")
	require.Nil(t, err)
	store, err := storage.NewAuditStore(filepath.Join(dir, "audit.db"))
	require.Nil(t, err)
	return store, dir
}

func TestNewAuditStore(t *testing.T) {
	store, dir := newTestStore(t)
	defer os.RemoveAll(dir)
	defer store.Close()
	assert.Equal(t, filepath.Join(dir, "audit.db"), store.FilePath())
	assert.True(t, len(store.Keys()) == 0)
}

func TestAuditStoreSaveAndGet(t *testing.T) {
	store, dir := newTestStore(t)
	defer os.RemoveAll(dir)
	defer store.Close()

	entry := models.NewAuditEntry("0xAbCd", "ASN001", "0xfeed01")
	err := store.Save(entry.Key(), entry)
	require.Nil(t, err)

	stored, err := store.Get(entry.Key())
	require.Nil(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, entry.EventId, stored.EventId)
	assert.Equal(t, "0xAbCd", stored.Submitter)
	assert.Equal(t, "ASN001", stored.ItemId)
	assert.Equal(t, "0xfeed01", stored.WriteRef)
	assert.True(t, entry.RecordedAt.Equal(stored.RecordedAt))
}

func TestAuditStoreGetMissingKey(t *testing.T) {
	store, dir := newTestStore(t)
	defer os.RemoveAll(dir)
	defer store.Close()

	entry, err := store.Get("0xabcd/ASN404")
	assert.Nil(t, err)
	assert.Nil(t, entry)
}

func TestAuditStoreKeysAndEntries(t *testing.T) {
	store, dir := newTestStore(t)
	defer os.RemoveAll(dir)
	defer store.Close()

	first := models.NewAuditEntry("0xAbCd", "ASN001", "0xfeed01")
	second := models.NewAuditEntry("0xAbCd", "ASN002", "0xfeed02")
	require.Nil(t, store.Save(first.Key(), first))
	require.Nil(t, store.Save(second.Key(), second))

	keys := store.Keys()
	require.Equal(t, 2, len(keys))
	assert.Equal(t, "0xabcd/ASN001", keys[0])
	assert.Equal(t, "0xabcd/ASN002", keys[1])

	entries, err := store.Entries()
	require.Nil(t, err)
	require.Equal(t, 2, len(entries))
	assert.Equal(t, first.EventId, entries[0].EventId)
	assert.Equal(t, second.EventId, entries[1].EventId)
}

func TestAuditStoreOverwrite(t *testing.T) {
	store, dir := newTestStore(t)
	defer os.RemoveAll(dir)
	defer store.Close()

	first := models.NewAuditEntry("0xAbCd", "ASN001", "0xfeed01")
	require.Nil(t, store.Save(first.Key(), first))
	second := models.NewAuditEntry("0xAbCd", "ASN001", "0xfeed99")
	require.Nil(t, store.Save(second.Key(), second))

	stored, err := store.Get(first.Key())
	require.Nil(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, second.EventId, stored.EventId)
	assert.Equal(t, 1, len(store.Keys()))
}
