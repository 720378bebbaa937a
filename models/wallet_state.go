package models

import (
	"github.com/acadtrust/anchor/constants"
)

// WalletState is a point-in-time snapshot of the wallet session,
// safe to hand to callers while the session keeps changing underneath.
// Invariant: Connected == false implies Identity and NetworkId are
// both zero. The wallet.Session transition funnel enforces this.
type WalletState struct {
	Status    string `json:"status"`
	Connected bool   `json:"connected"`
	Identity  string `json:"identity,omitempty"`
	NetworkId int64  `json:"network_id,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

// IsValid reports whether this snapshot satisfies the session
// invariant. Mostly useful in tests that hammer the session from
// multiple goroutines.
func (state WalletState) IsValid() bool {
	if !state.Connected && (state.Identity != "" || state.NetworkId != 0) {
		return false
	}
	if state.Connected && state.Status != constants.SessionConnected {
		return false
	}
	return true
}
