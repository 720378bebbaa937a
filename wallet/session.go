// Package wallet manages the authenticated signing identity used to
// authorize ledger writes. The session is an explicit state machine
// (Disconnected, Connecting, Connected, Error) rather than ambient
// global state; every transition funnels through one mutation point,
// which is what keeps the connected/identity invariant true no matter
// how externally-driven changes interleave with local calls.
package wallet

import (
	"fmt"
	"sync"

	"github.com/acadtrust/anchor/constants"
	"github.com/acadtrust/anchor/models"
	"github.com/acadtrust/anchor/network"
	"github.com/op/go-logging"
)

// SessionError describes a wallet session failure. Kind is one of
// constants.ErrNotAuthenticated, constants.ErrUserRejected or
// constants.ErrAgentMissing.
type SessionError struct {
	Kind    string
	Message string
}

func (sessionErr *SessionError) Error() string {
	return fmt.Sprintf("%s: %s", sessionErr.Kind, sessionErr.Message)
}

func NewSessionError(kind, format string, a ...interface{}) *SessionError {
	return &SessionError{
		Kind:    kind,
		Message: fmt.Sprintf(format, a...),
	}
}

// ErrorKind returns the SessionError kind of err, or an empty string
// if err is nil or not a SessionError.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	if sessionErr, ok := err.(*SessionError); ok {
		return sessionErr.Kind
	}
	return ""
}

// Session tracks the connection, identity and network state of the
// external signing agent. Consumers hold a *Session and read state
// snapshots; they never see an intermediate state, because every
// transition is applied atomically under the session mutex.
type Session struct {
	agent  network.SigningAgent
	logger *logging.Logger

	mutex     sync.Mutex
	status    string
	identity  string
	networkId int64
	lastError string
}

// NewSession creates a session against the given signing agent and
// probes it for a pre-authorized identity without prompting the user.
// If one is found, the session starts out Connected (silent
// reconnection); otherwise it starts Disconnected. Probe failures are
// not errors here: a missing agent just means we start Disconnected,
// and the user finds out when they try to connect.
func NewSession(agent network.SigningAgent, logger *logging.Logger) *Session {
	session := &Session{
		agent:  agent,
		logger: logger,
		status: constants.SessionDisconnected,
	}
	identities, err := agent.CurrentIdentities()
	if err == nil && len(identities) > 0 {
		networkId, err := agent.CurrentNetwork()
		if err == nil {
			session.setConnected(identities[0], networkId)
			logger.Info("Silently reconnected wallet session as %s on network %d",
				identities[0], networkId)
		}
	}
	return session
}

// Connect asks the signing agent to authorize an identity, prompting
// the user if necessary. If the session is already Connected, this is
// a no-op that returns the current identity. On failure the session
// lands in the Error state and the returned error's kind says whether
// the user declined (UserRejected) or no agent was found
// (AgentMissing).
func (session *Session) Connect() (string, error) {
	session.mutex.Lock()
	if session.status == constants.SessionConnected {
		identity := session.identity
		session.mutex.Unlock()
		return identity, nil
	}
	session.status = constants.SessionConnecting
	session.lastError = ""
	session.mutex.Unlock()

	// Agent calls happen outside the lock. Whatever notifications
	// arrive meanwhile are applied before or after the transition
	// below, never halfway through it.
	identities, err := session.agent.RequestIdentities()
	if err != nil {
		kind := network.AgentErrorKind(err)
		if kind == "" {
			kind = constants.ErrAgentMissing
		}
		session.setError(kind)
		return "", NewSessionError(kind, "Cannot connect wallet: %v", err)
	}
	if len(identities) == 0 {
		session.setError(constants.ErrUserRejected)
		return "", NewSessionError(constants.ErrUserRejected,
			"Signing agent returned no authorized identities.")
	}
	networkId, err := session.agent.CurrentNetwork()
	if err != nil {
		kind := network.AgentErrorKind(err)
		if kind == "" {
			kind = constants.ErrAgentMissing
		}
		session.setError(kind)
		return "", NewSessionError(kind, "Cannot read agent network: %v", err)
	}
	session.setConnected(identities[0], networkId)
	session.logger.Info("Wallet session connected as %s on network %d",
		identities[0], networkId)
	return identities[0], nil
}

// Disconnect drops the local session state. This is local-only: it
// does not revoke whatever authorization the user granted inside the
// signing agent.
func (session *Session) Disconnect() {
	session.setDisconnected("")
	session.logger.Info("Wallet session disconnected")
}

// Listen starts a goroutine that applies the agent's change
// notifications to the session. An identity change while Connected
// swaps the identity in place; zero remaining identities disconnects
// the session; a network change swaps the network id. Notifications
// that arrive while not Connected are dropped, because there is no
// session state for them to amend.
func (session *Session) Listen() {
	go func() {
		for event := range session.agent.Events() {
			session.apply(event)
		}
	}()
}

// apply is the reaction to one external event, expressed as a pure
// transition on the session state.
func (session *Session) apply(event network.AgentEvent) {
	session.mutex.Lock()
	defer session.mutex.Unlock()
	if session.status != constants.SessionConnected {
		return
	}
	switch event.Type {
	case network.AgentEventIdentityChanged:
		if len(event.Identities) == 0 {
			session.logger.Info("Agent reports zero identities; disconnecting session")
			session.clearLocked(constants.SessionDisconnected, "")
			return
		}
		if event.Identities[0] != session.identity {
			session.logger.Info("Agent switched identity from %s to %s",
				session.identity, event.Identities[0])
			session.identity = event.Identities[0]
		}
	case network.AgentEventNetworkChanged:
		if event.NetworkId != session.networkId {
			session.logger.Info("Agent switched network from %d to %d",
				session.networkId, event.NetworkId)
			session.networkId = event.NetworkId
		}
	default:
		session.logger.Warning("Ignoring unknown agent event type '%s'", event.Type)
	}
}

// State returns a point-in-time snapshot of the session.
func (session *Session) State() models.WalletState {
	session.mutex.Lock()
	defer session.mutex.Unlock()
	return models.WalletState{
		Status:    session.status,
		Connected: session.status == constants.SessionConnected,
		Identity:  session.identity,
		NetworkId: session.networkId,
		LastError: session.lastError,
	}
}

// CurrentIdentity returns the connected identity, or a
// NotAuthenticated error when the session is not Connected.
func (session *Session) CurrentIdentity() (string, error) {
	session.mutex.Lock()
	defer session.mutex.Unlock()
	if session.status != constants.SessionConnected {
		return "", NewSessionError(constants.ErrNotAuthenticated,
			"Wallet session is %s; connect before submitting.", session.status)
	}
	return session.identity, nil
}

// IsConnected is a convenience for callers that only need the bool.
func (session *Session) IsConnected() bool {
	session.mutex.Lock()
	defer session.mutex.Unlock()
	return session.status == constants.SessionConnected
}

// --- transition funnel ---
//
// Everything below runs under the mutex and is the only code that
// writes session fields. Identity and network are cleared on every
// non-Connected transition, which is the invariant the rest of the
// system leans on.

func (session *Session) setConnected(identity string, networkId int64) {
	session.mutex.Lock()
	defer session.mutex.Unlock()
	session.status = constants.SessionConnected
	session.identity = identity
	session.networkId = networkId
	session.lastError = ""
}

func (session *Session) setDisconnected(lastError string) {
	session.mutex.Lock()
	defer session.mutex.Unlock()
	session.clearLocked(constants.SessionDisconnected, lastError)
}

func (session *Session) setError(kind string) {
	session.mutex.Lock()
	defer session.mutex.Unlock()
	session.clearLocked(constants.SessionError, kind)
}

// clearLocked requires the caller to hold session.mutex.
func (session *Session) clearLocked(status, lastError string) {
	session.status = status
	session.identity = ""
	session.networkId = 0
	session.lastError = lastError
}
