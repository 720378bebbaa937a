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
	"github.com/acadtrust/anchor/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSubmitter = "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb0"

// fakeLedger implements submission.LedgerStore.
type fakeLedger struct {
	writeRef    string
	writeErr    error
	writeCalls  int
	record      *models.SubmissionRecord
	getErr      error
	getCalls    int
	recent      []*models.SubmissionRecord
	recentErr   error
	recentCalls int
}

func (ledger *fakeLedger) RecordSubmission(submitter, itemId, digest string) (string, error) {
	ledger.writeCalls++
	if ledger.writeErr != nil {
		return "", ledger.writeErr
	}
	return ledger.writeRef, nil
}

func (ledger *fakeLedger) GetSubmission(submitter, itemId string) (*models.SubmissionRecord, error) {
	ledger.getCalls++
	if ledger.getErr != nil {
		return nil, ledger.getErr
	}
	return ledger.record, nil
}

func (ledger *fakeLedger) RecentSubmissions(horizon int) ([]*models.SubmissionRecord, error) {
	ledger.recentCalls++
	if ledger.recentErr != nil {
		return nil, ledger.recentErr
	}
	return ledger.recent, nil
}

// fakePublisher implements submission.AuditPublisher.
type fakePublisher struct {
	err       error
	published chan []byte
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{published: make(chan []byte, 10)}
}

func (publisher *fakePublisher) Enqueue(topic string, data []byte) error {
	publisher.published <- data
	return publisher.err
}

// testAgent implements network.SigningAgent.
type testAgent struct {
	identities []string
	events     chan network.AgentEvent
}

func (agent *testAgent) CurrentIdentities() ([]string, error) {
	return agent.identities, nil
}

func (agent *testAgent) RequestIdentities() ([]string, error) {
	return agent.identities, nil
}

func (agent *testAgent) CurrentNetwork() (int64, error) {
	return 31337, nil
}

func (agent *testAgent) Events() <-chan network.AgentEvent {
	return agent.events
}

func connectedSession(t *testing.T) *wallet.Session {
	agent := &testAgent{
		identities: []string{testSubmitter},
		events:     make(chan network.AgentEvent, 10),
	}
	session := wallet.NewSession(agent, logger.DiscardLogger("submission_test"))
	require.True(t, session.IsConnected())
	return session
}

func disconnectedSession(t *testing.T) *wallet.Session {
	agent := &testAgent{events: make(chan network.AgentEvent, 10)}
	session := wallet.NewSession(agent, logger.DiscardLogger("submission_test"))
	require.False(t, session.IsConnected())
	return session
}

func TestSubmit(t *testing.T) {
	ledger := &fakeLedger{writeRef: "0xfeed01"}
	coordinator := submission.NewCoordinator(connectedSession(t), ledger,
		logger.DiscardLogger("submission_test"))

	digest := "0x2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	receipt, err := coordinator.Submit("ASN001", digest)
	require.Nil(t, err)
	require.NotNil(t, receipt)
	assert.Equal(t, testSubmitter, receipt.Submitter)
	assert.Equal(t, "ASN001", receipt.ItemId)
	assert.Equal(t, digest, receipt.Digest)
	assert.Equal(t, "0xfeed01", receipt.WriteRef)
	assert.False(t, receipt.SubmittedAt.IsZero())
	assert.Equal(t, 1, ledger.writeCalls)

	// One audit entry should be waiting on the channel.
	select {
	case entry := <-coordinator.AuditEntries():
		assert.Equal(t, testSubmitter, entry.Submitter)
		assert.Equal(t, "ASN001", entry.ItemId)
		assert.Equal(t, "0xfeed01", entry.WriteRef)
		assert.NotEmpty(t, entry.EventId)
	default:
		t.Error("Expected an audit entry on the channel")
	}
}

func TestSubmitEmptyItemId(t *testing.T) {
	ledger := &fakeLedger{writeRef: "0xfeed01"}
	coordinator := submission.NewCoordinator(connectedSession(t), ledger,
		logger.DiscardLogger("submission_test"))
	_, err := coordinator.Submit("", "0xabcd")
	require.NotNil(t, err)
	assert.Equal(t, 0, ledger.writeCalls)
}

func TestSubmitNotAuthenticated(t *testing.T) {
	ledger := &fakeLedger{writeRef: "0xfeed01"}
	coordinator := submission.NewCoordinator(disconnectedSession(t), ledger,
		logger.DiscardLogger("submission_test"))
	_, err := coordinator.Submit("ASN001", "0xabcd")
	require.NotNil(t, err)
	assert.Equal(t, constants.ErrNotAuthenticated, submission.ErrorKind(err))
	// The ledger must never see an unauthenticated write.
	assert.Equal(t, 0, ledger.writeCalls)
}

func TestSubmitDuplicate(t *testing.T) {
	ledger := &fakeLedger{
		writeErr: network.NewLedgerError(constants.ErrAlreadyExists,
			"record exists for this pair"),
	}
	coordinator := submission.NewCoordinator(connectedSession(t), ledger,
		logger.DiscardLogger("submission_test"))
	_, err := coordinator.Submit("ASN001", "0xabcd")
	require.NotNil(t, err)
	assert.Equal(t, constants.ErrDuplicateSubmission, submission.ErrorKind(err))
	// Exactly one write attempt: the coordinator never retries.
	assert.Equal(t, 1, ledger.writeCalls)
}

func TestSubmitTimeout(t *testing.T) {
	ledger := &fakeLedger{
		writeErr: network.NewLedgerError(constants.ErrTimeout, "gateway timeout"),
	}
	coordinator := submission.NewCoordinator(connectedSession(t), ledger,
		logger.DiscardLogger("submission_test"))
	_, err := coordinator.Submit("ASN001", "0xabcd")
	require.NotNil(t, err)
	// Timeout must stay distinguishable from a duplicate: the write
	// may have landed, and the caller decides whether to resubmit.
	assert.Equal(t, constants.ErrTimeout, submission.ErrorKind(err))
	assert.Equal(t, 1, ledger.writeCalls)
}

func TestSubmitUnreachable(t *testing.T) {
	ledger := &fakeLedger{
		writeErr: network.NewLedgerError(constants.ErrUnreachable, "connection refused"),
	}
	coordinator := submission.NewCoordinator(connectedSession(t), ledger,
		logger.DiscardLogger("submission_test"))
	_, err := coordinator.Submit("ASN001", "0xabcd")
	require.NotNil(t, err)
	assert.Equal(t, constants.ErrUnreachable, submission.ErrorKind(err))
}

func TestSubmitUnauthorized(t *testing.T) {
	ledger := &fakeLedger{
		writeErr: network.NewLedgerError(constants.ErrUnauthorized, "bad token"),
	}
	coordinator := submission.NewCoordinator(connectedSession(t), ledger,
		logger.DiscardLogger("submission_test"))
	_, err := coordinator.Submit("ASN001", "0xabcd")
	require.NotNil(t, err)
	assert.Equal(t, constants.ErrUnauthorized, submission.ErrorKind(err))
}

func TestSubmitFullAuditChannelDoesNotBlock(t *testing.T) {
	ledger := &fakeLedger{writeRef: "0xfeed01"}
	coordinator := submission.NewCoordinator(connectedSession(t), ledger,
		logger.DiscardLogger("submission_test"))

	// No forwarder is draining, so the buffered channel eventually
	// fills. Submissions must keep succeeding regardless.
	for i := 0; i < 150; i++ {
		receipt, err := coordinator.Submit(fmt.Sprintf("ASN%03d", i), "0xabcd")
		require.Nil(t, err)
		require.NotNil(t, receipt)
	}
}

func TestAuditForwarder(t *testing.T) {
	ledger := &fakeLedger{writeRef: "0xfeed01"}
	coordinator := submission.NewCoordinator(connectedSession(t), ledger,
		logger.DiscardLogger("submission_test"))
	publisher := newFakePublisher()
	coordinator.StartAuditForwarder(publisher)

	_, err := coordinator.Submit("ASN001", "0xabcd")
	require.Nil(t, err)

	select {
	case data := <-publisher.published:
		entry, err := models.AuditEntryFromJson(data)
		require.Nil(t, err)
		assert.Equal(t, testSubmitter, entry.Submitter)
		assert.Equal(t, "ASN001", entry.ItemId)
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for the forwarder to publish")
	}
}

func TestAuditForwarderSwallowsPublishErrors(t *testing.T) {
	ledger := &fakeLedger{writeRef: "0xfeed01"}
	coordinator := submission.NewCoordinator(connectedSession(t), ledger,
		logger.DiscardLogger("submission_test"))
	publisher := newFakePublisher()
	publisher.err = fmt.Errorf("nsqd is down")
	coordinator.StartAuditForwarder(publisher)

	// Publish failures never surface to the submitter.
	for i := 0; i < 3; i++ {
		_, err := coordinator.Submit(fmt.Sprintf("ASN%03d", i), "0xabcd")
		require.Nil(t, err)
	}
	for i := 0; i < 3; i++ {
		select {
		case <-publisher.published:
		case <-time.After(2 * time.Second):
			t.Fatal("Timed out waiting for publish attempts")
		}
	}
}
