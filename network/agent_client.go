package network

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/acadtrust/anchor/constants"
	"github.com/op/go-logging"
)

// Agent event types, as emitted by the signing agent's event stream.
const (
	AgentEventIdentityChanged = "identityChanged"
	AgentEventNetworkChanged  = "networkChanged"
)

// AgentEvent is an externally-driven change notification from the
// signing agent: the user switched accounts, authorized or revoked
// identities, or switched networks. These can arrive at any time.
type AgentEvent struct {
	Type       string   `json:"type"`
	Identities []string `json:"identities,omitempty"`
	NetworkId  int64    `json:"network_id,omitempty"`
}

// SigningAgent is the wallet session's view of the external signing
// agent. The agent manages private keys and user authorization; we
// never see key material, only identities (addresses) the user has
// authorized. CurrentIdentities must never prompt the user;
// RequestIdentities may.
type SigningAgent interface {
	CurrentIdentities() ([]string, error)
	RequestIdentities() ([]string, error)
	CurrentNetwork() (int64, error)
	Events() <-chan AgentEvent
}

// AgentError describes a failed signing agent call. Kind is
// constants.ErrAgentMissing when no agent is reachable, or
// constants.ErrUserRejected when the user declined authorization.
type AgentError struct {
	Kind    string
	Message string
}

func (agentErr *AgentError) Error() string {
	return fmt.Sprintf("%s: %s", agentErr.Kind, agentErr.Message)
}

func NewAgentError(kind, format string, a ...interface{}) *AgentError {
	return &AgentError{
		Kind:    kind,
		Message: fmt.Sprintf(format, a...),
	}
}

// AgentErrorKind returns the AgentError kind of err, or an empty
// string if err is nil or not an AgentError.
func AgentErrorKind(err error) string {
	if err == nil {
		return ""
	}
	if agentErr, ok := err.(*AgentError); ok {
		return agentErr.Kind
	}
	return ""
}

/*
AgentClient connects to the local signing agent service, which should
always be running on localhost. (The agent has to interact with the
user who holds the keys, so it runs beside them, not beside us.) It
implements the SigningAgent interface the wallet session consumes.
*/
type AgentClient struct {
	serviceUrl string
	httpClient *http.Client
	pollClient *http.Client
	events     chan AgentEvent
	stopChan   chan struct{}
	logger     *logging.Logger
}

// NewAgentClient returns a new AgentClient for the agent service at
// serviceUrl. The returned client does not poll for events until
// ListenForEvents is called.
func NewAgentClient(serviceUrl string, logger *logging.Logger) *AgentClient {
	return &AgentClient{
		serviceUrl: serviceUrl,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		// The poll client waits out the agent's long-poll window,
		// so its timeout has to exceed the agent's.
		pollClient: &http.Client{Timeout: 45 * time.Second},
		events:     make(chan AgentEvent, 20),
		stopChan:   make(chan struct{}),
		logger:     logger,
	}
}

// CurrentIdentities asks the agent for already-authorized identities
// without prompting the user. An empty list with no error means the
// agent is present but nothing is pre-authorized.
func (client *AgentClient) CurrentIdentities() ([]string, error) {
	return client.getIdentities("GET", fmt.Sprintf("%s/identities", client.serviceUrl))
}

// RequestIdentities asks the agent for authorized identities,
// prompting the user if necessary. Fails with kind UserRejected when
// the user declines, or AgentMissing when no agent is reachable.
func (client *AgentClient) RequestIdentities() ([]string, error) {
	return client.getIdentities("POST", fmt.Sprintf("%s/identities/request", client.serviceUrl))
}

type identitiesResponse struct {
	Identities []string `json:"identities"`
}

func (client *AgentClient) getIdentities(method, reqUrl string) ([]string, error) {
	req, err := http.NewRequest(method, reqUrl, nil)
	if err != nil {
		return nil, NewAgentError(constants.ErrAgentMissing,
			"Cannot build agent request: %v", err)
	}
	resp, err := client.httpClient.Do(req)
	if err != nil {
		return nil, NewAgentError(constants.ErrAgentMissing,
			"No signing agent at %s: %v", client.serviceUrl, err)
	}
	defer resp.Body.Close()
	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, NewAgentError(constants.ErrAgentMissing,
			"Error reading agent response: %v", err)
	}
	if resp.StatusCode == http.StatusForbidden {
		return nil, NewAgentError(constants.ErrUserRejected,
			"User declined the authorization request.")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, NewAgentError(constants.ErrAgentMissing,
			"Agent returned status %d: %s", resp.StatusCode, string(body))
	}
	identities := &identitiesResponse{}
	err = json.Unmarshal(body, identities)
	if err != nil {
		return nil, NewAgentError(constants.ErrAgentMissing,
			"Agent returned unparsable identity list: %v", err)
	}
	return identities.Identities, nil
}

type networkResponse struct {
	NetworkId int64 `json:"network_id"`
}

// CurrentNetwork returns the id of the network the agent is
// currently pointed at.
func (client *AgentClient) CurrentNetwork() (int64, error) {
	resp, err := client.httpClient.Get(fmt.Sprintf("%s/network", client.serviceUrl))
	if err != nil {
		return 0, NewAgentError(constants.ErrAgentMissing,
			"No signing agent at %s: %v", client.serviceUrl, err)
	}
	defer resp.Body.Close()
	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return 0, NewAgentError(constants.ErrAgentMissing,
			"Error reading agent response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, NewAgentError(constants.ErrAgentMissing,
			"Agent returned status %d: %s", resp.StatusCode, string(body))
	}
	network := &networkResponse{}
	err = json.Unmarshal(body, network)
	if err != nil {
		return 0, NewAgentError(constants.ErrAgentMissing,
			"Agent returned unparsable network id: %v", err)
	}
	return network.NetworkId, nil
}

// Events returns the channel on which agent change notifications
// arrive. Call ListenForEvents to start the long-poll loop that
// feeds it.
func (client *AgentClient) Events() <-chan AgentEvent {
	return client.events
}

type eventsResponse struct {
	Events []AgentEvent `json:"events"`
}

// ListenForEvents starts a goroutine that long-polls the agent's
// event endpoint and forwards events to the Events channel. Poll
// failures are logged and retried after a short pause; a dead agent
// shows up as an agent error on the next call, not as a crash here.
func (client *AgentClient) ListenForEvents() {
	go func() {
		for {
			select {
			case <-client.stopChan:
				return
			default:
			}
			resp, err := client.pollClient.Get(fmt.Sprintf("%s/events", client.serviceUrl))
			if err != nil {
				if client.logger != nil {
					client.logger.Warning("Agent event poll failed: %v", err)
				}
				time.Sleep(5 * time.Second)
				continue
			}
			body, err := ioutil.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil || resp.StatusCode != http.StatusOK {
				if client.logger != nil {
					client.logger.Warning("Agent event poll returned status %d, err %v",
						resp.StatusCode, err)
				}
				time.Sleep(5 * time.Second)
				continue
			}
			batch := &eventsResponse{}
			if err := json.Unmarshal(body, batch); err != nil {
				if client.logger != nil {
					client.logger.Warning("Agent event poll returned unparsable batch: %v", err)
				}
				continue
			}
			for _, event := range batch.Events {
				client.events <- event
			}
		}
	}()
}

// StopListening ends the event poll loop.
func (client *AgentClient) StopListening() {
	close(client.stopChan)
}
