package models_test

import (
	"testing"

	"github.com/acadtrust/anchor/constants"
	"github.com/acadtrust/anchor/models"
	"github.com/stretchr/testify/assert"
)

func TestWalletStateIsValid(t *testing.T) {
	state := &models.WalletState{
		Status:    constants.SessionConnected,
		Connected: true,
		Identity:  "0xAbCd",
		NetworkId: 31337,
	}
	assert.True(t, state.IsValid())

	state = &models.WalletState{
		Status:    constants.SessionDisconnected,
		Connected: false,
	}
	assert.True(t, state.IsValid())

	// Disconnected state must not carry an identity.
	state = &models.WalletState{
		Status:   constants.SessionDisconnected,
		Identity: "0xAbCd",
	}
	assert.False(t, state.IsValid())

	// Or a network id.
	state = &models.WalletState{
		Status:    constants.SessionError,
		NetworkId: 1,
	}
	assert.False(t, state.IsValid())
}
