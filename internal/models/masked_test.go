package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskAccount(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bank account", "6222021234567890123", "622****0123"},
		{"phone number", "13812345678", "138****5678"},
		{"minimum maskable length", "12345678", "123****5678"},
		{"short value fully masked", "1234567", "****"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, MaskedAccount(tt.want), MaskAccount(tt.raw))
		})
	}
}

func TestWithdrawalNeverSerializesRawAccount(t *testing.T) {
	w := Withdrawal{
		Account: "6222021234567890123",
		Status:  WithdrawalStatusPending,
	}

	data, err := json.Marshal(&w)
	assert.NoError(t, err)
	assert.NotContains(t, string(data), "6222021234567890123")
	assert.Equal(t, MaskedAccount("622****0123"), w.MaskedAccount())
}

func TestWithdrawalStatusTerminal(t *testing.T) {
	assert.False(t, WithdrawalStatusPending.Terminal())
	assert.False(t, WithdrawalStatusApproved.Terminal())
	assert.False(t, WithdrawalStatusProcessing.Terminal())
	assert.True(t, WithdrawalStatusRejected.Terminal())
	assert.True(t, WithdrawalStatusCompleted.Terminal())
	assert.True(t, WithdrawalStatusFailed.Terminal())
}
