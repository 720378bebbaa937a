package network

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net"
	"net/http"
	"time"

	"github.com/acadtrust/anchor/constants"
	"github.com/acadtrust/anchor/models"
	"github.com/op/go-logging"
)

/*
LedgerClient talks to the ledger gateway, the narrow RPC service that
fronts the append-only ledger. The gateway exposes exactly three
operations on the submission contract: record a submission, read one
submission, and read the recent append events. The ledger enforces
at-most-one record per (submitter, itemId) pair; this client just
reports whatever the gateway says and never papers over a rejection.

One thing the gateway contract does not pin down is what happens when
two processes write the same pair at the same instant. We treat the
gateway's uniqueness enforcement as authoritative and surface its
answer, whatever that is.
*/
type LedgerClient struct {
	hostUrl         string
	apiVersion      string
	contractAddress string
	apiToken        string
	httpClient      *http.Client
	transport       *http.Transport
	logger          *logging.Logger
}

// LedgerError describes a failed gateway call. Kind is one of
// constants.LedgerErrorKinds. Callers branch on Kind because
// remediation differs: AlreadyExists is terminal for the pair,
// Timeout means the write may or may not have landed, Unreachable
// and Unauthorized are fixable outside this system.
type LedgerError struct {
	Kind    string
	Message string
}

func (ledgerErr *LedgerError) Error() string {
	return fmt.Sprintf("%s: %s", ledgerErr.Kind, ledgerErr.Message)
}

func NewLedgerError(kind, format string, a ...interface{}) *LedgerError {
	return &LedgerError{
		Kind:    kind,
		Message: fmt.Sprintf(format, a...),
	}
}

// ErrorKind returns the LedgerError kind of err, or an empty
// string if err is nil or not a LedgerError.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	if ledgerErr, ok := err.(*LedgerError); ok {
		return ledgerErr.Kind
	}
	return ""
}

// NewLedgerClient creates a new ledger gateway client. Param hostUrl
// should come from the config file; apiToken usually comes from the
// ANCHOR_LEDGER_TOKEN environment variable. Param timeoutSeconds caps
// how long we wait on the gateway; note that a write that times out
// may still land on the ledger, so callers must never infer
// non-occurrence from a Timeout.
func NewLedgerClient(hostUrl, apiVersion, contractAddress, apiToken string, timeoutSeconds int, logger *logging.Logger) (*LedgerClient, error) {
	if hostUrl == "" {
		return nil, fmt.Errorf("Param hostUrl cannot be empty.")
	}
	if contractAddress == "" {
		return nil, fmt.Errorf("Param contractAddress cannot be empty.")
	}
	transport := &http.Transport{
		MaxIdleConnsPerHost: 8,
		DisableKeepAlives:   false,
	}
	httpClient := &http.Client{
		Transport: transport,
		Timeout:   time.Duration(timeoutSeconds) * time.Second,
	}
	return &LedgerClient{
		hostUrl:         hostUrl,
		apiVersion:      apiVersion,
		contractAddress: contractAddress,
		apiToken:        apiToken,
		httpClient:      httpClient,
		transport:       transport,
		logger:          logger,
	}, nil
}

// HostUrl returns the base URL of the ledger gateway.
func (client *LedgerClient) HostUrl() string {
	return client.hostUrl
}

type writeRequest struct {
	Submitter string `json:"submitter"`
	ItemId    string `json:"item_id"`
	Digest    string `json:"digest"`
}

type writeResponse struct {
	WriteRef   string    `json:"write_ref"`
	RecordedAt time.Time `json:"recorded_at"`
	Error      string    `json:"error,omitempty"`
}

type rangeResponse struct {
	Submissions []*models.SubmissionRecord `json:"submissions"`
}

// RecordSubmission issues one authenticated write to the submission
// contract for (submitter, itemId) with the given digest. On success
// it returns the gateway's write reference (the transaction hash on
// the reference deployment). On failure it returns a *LedgerError
// whose Kind distinguishes AlreadyExists, Unauthorized, Unreachable
// and Timeout.
func (client *LedgerClient) RecordSubmission(submitter, itemId, digest string) (string, error) {
	reqUrl := fmt.Sprintf("%s/api/%s/contracts/%s/submissions",
		client.hostUrl, client.apiVersion, client.contractAddress)
	payload, err := json.Marshal(&writeRequest{
		Submitter: submitter,
		ItemId:    itemId,
		Digest:    digest,
	})
	if err != nil {
		return "", NewLedgerError(constants.ErrUnreachable,
			"Cannot serialize write request: %v", err)
	}
	req, err := http.NewRequest("POST", reqUrl, bytes.NewBuffer(payload))
	if err != nil {
		return "", NewLedgerError(constants.ErrUnreachable,
			"Cannot build write request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	client.setAuthHeader(req)

	resp, err := client.httpClient.Do(req)
	if err != nil {
		return "", client.classifyTransportError("write", err)
	}
	body, err := readResponse(resp)
	if err != nil {
		return "", client.classifyTransportError("write", err)
	}
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		ack := &writeResponse{}
		err = json.Unmarshal(body, ack)
		if err != nil {
			return "", NewLedgerError(constants.ErrUnreachable,
				"Gateway returned unparsable write ack: %v", err)
		}
		return ack.WriteRef, nil
	case http.StatusConflict:
		return "", NewLedgerError(constants.ErrAlreadyExists,
			"Ledger already has a record for submitter %s, item %s", submitter, itemId)
	case http.StatusUnauthorized, http.StatusForbidden:
		return "", NewLedgerError(constants.ErrUnauthorized,
			"Gateway rejected credentials for write (status %d)", resp.StatusCode)
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return "", NewLedgerError(constants.ErrTimeout,
			"Gateway timed out waiting for ledger inclusion (status %d). "+
				"The write may still land.", resp.StatusCode)
	default:
		return "", NewLedgerError(constants.ErrUnreachable,
			"Gateway returned status %d: %s", resp.StatusCode, string(body))
	}
}

// GetSubmission performs a direct single-pair query against the
// ledger. If the pair has no record, this returns (nil, nil): an
// unknown pair is a valid state, not an error. The gateway signals
// absence with a 404, and some contract versions signal it with an
// empty digest and zero timestamp, so both are handled here.
func (client *LedgerClient) GetSubmission(submitter, itemId string) (*models.SubmissionRecord, error) {
	reqUrl := fmt.Sprintf("%s/api/%s/contracts/%s/submissions/%s/%s",
		client.hostUrl, client.apiVersion, client.contractAddress, submitter, itemId)
	req, err := http.NewRequest("GET", reqUrl, nil)
	if err != nil {
		return nil, NewLedgerError(constants.ErrUnreachable,
			"Cannot build read request: %v", err)
	}
	client.setAuthHeader(req)
	resp, err := client.httpClient.Do(req)
	if err != nil {
		return nil, client.classifyTransportError("read", err)
	}
	body, err := readResponse(resp)
	if err != nil {
		return nil, client.classifyTransportError("read", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, NewLedgerError(constants.ErrUnreachable,
			"Gateway returned status %d: %s", resp.StatusCode, string(body))
	}
	record := &models.SubmissionRecord{}
	err = json.Unmarshal(body, record)
	if err != nil {
		return nil, NewLedgerError(constants.ErrUnreachable,
			"Gateway returned unparsable record: %v", err)
	}
	if record.Digest == "" || record.RecordedAt.IsZero() {
		return nil, nil
	}
	record.Source = constants.SourceLedger
	return record, nil
}

// RecentSubmissions returns the submission records from the most
// recent ledger append events, oldest first, scanning at most horizon
// events. The horizon is fixed so a refresh never turns into an
// unbounded ledger scan.
func (client *LedgerClient) RecentSubmissions(horizon int) ([]*models.SubmissionRecord, error) {
	reqUrl := fmt.Sprintf("%s/api/%s/contracts/%s/events?limit=%d",
		client.hostUrl, client.apiVersion, client.contractAddress, horizon)
	req, err := http.NewRequest("GET", reqUrl, nil)
	if err != nil {
		return nil, NewLedgerError(constants.ErrUnreachable,
			"Cannot build range request: %v", err)
	}
	client.setAuthHeader(req)
	resp, err := client.httpClient.Do(req)
	if err != nil {
		return nil, client.classifyTransportError("range read", err)
	}
	body, err := readResponse(resp)
	if err != nil {
		return nil, client.classifyTransportError("range read", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, NewLedgerError(constants.ErrUnreachable,
			"Gateway returned status %d: %s", resp.StatusCode, string(body))
	}
	events := &rangeResponse{}
	err = json.Unmarshal(body, events)
	if err != nil {
		return nil, NewLedgerError(constants.ErrUnreachable,
			"Gateway returned unparsable event range: %v", err)
	}
	for _, record := range events.Submissions {
		record.Source = constants.SourceLedger
	}
	return events.Submissions, nil
}

func (client *LedgerClient) setAuthHeader(req *http.Request) {
	if client.apiToken != "" {
		req.Header.Set("X-Anchor-Ledger-Token", client.apiToken)
	}
}

// classifyTransportError separates timeouts from everything else.
// The distinction matters: a timed-out write may have landed on the
// ledger, while a connection refused definitely did not reach it.
func (client *LedgerClient) classifyTransportError(operation string, err error) *LedgerError {
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		if client.logger != nil {
			client.logger.Warning("Ledger %s timed out: %v", operation, err)
		}
		return NewLedgerError(constants.ErrTimeout,
			"Ledger %s timed out: %v", operation, err)
	}
	if client.logger != nil {
		client.logger.Warning("Ledger %s failed: %v", operation, err)
	}
	return NewLedgerError(constants.ErrUnreachable,
		"Cannot reach ledger gateway for %s: %v", operation, err)
}

// readResponse reads and closes the response body. We have to read
// the body, or the connection will hang open forever.
func readResponse(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return ioutil.ReadAll(resp.Body)
}
