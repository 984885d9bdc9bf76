package provider_test

import (
	"testing"

	"github.com/amirasaad/smartledger/pkg/domain"
	"github.com/amirasaad/smartledger/pkg/money"
	"github.com/amirasaad/smartledger/pkg/provider"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	p, err := provider.Parse(" Pesapal ")
	require.NoError(t, err)
	assert.Equal(t, provider.Pesapal, p)

	_, err = provider.Parse("stripe")
	require.ErrorIs(t, err, provider.ErrUnsupportedProvider)
}

func TestRegistry_DecodePesapal(t *testing.T) {
	userID := uuid.New()
	reg := provider.DefaultRegistry(money.KES)
	body := []byte(`{"status":"COMPLETED","amount":"1000","reference":"PSP-1","meta":{"user_id":"` + userID.String() + `"}}`)

	ev, err := reg.Decode(provider.Pesapal, body)
	require.NoError(t, err)
	assert.Equal(t, provider.Pesapal, ev.Provider)
	assert.Equal(t, provider.StatusSucceeded, ev.Status)
	assert.Equal(t, "KES 1000.00", ev.Amount.String())
	assert.Equal(t, "PSP-1", ev.Reference)

	got, err := ev.UserID()
	require.NoError(t, err)
	assert.Equal(t, userID, got)
	assert.Equal(t, userID.String()+"|pesapal|PSP-1", ev.IdempotencyKey(userID))
}

func TestRegistry_DecodeFlutterwave(t *testing.T) {
	reg := provider.DefaultRegistry(money.KES)
	body := []byte(`{"event":"charge.completed","data":{"status":"successful","amount":250.5,"currency":"ugx","tx_ref":"FLW-9"}}`)

	ev, err := reg.Decode(provider.Flutterwave, body)
	require.NoError(t, err)
	assert.Equal(t, provider.StatusSucceeded, ev.Status)
	assert.Equal(t, money.UGX, ev.Amount.Currency())
	assert.Equal(t, "250.50", ev.Amount.StringFixed())
	assert.Equal(t, "FLW-9", ev.Reference)
	assert.Equal(t, "charge.completed", ev.Meta["event"])

	_, err = ev.UserID()
	require.ErrorIs(t, err, provider.ErrMissingUser)
}

func TestRegistry_DecodeErrors(t *testing.T) {
	reg := provider.DefaultRegistry(money.KES)

	tests := []struct {
		name     string
		provider provider.Provider
		body     string
		wantErr  error
	}{
		{"no decoder for system", provider.System, `{}`, provider.ErrUnsupportedProvider},
		{"malformed json", provider.Pesapal, `{`, provider.ErrInvalidEvent},
		{"unknown status", provider.Pesapal, `{"status":"weird","amount":"1","reference":"r"}`, provider.ErrInvalidEvent},
		{"negative amount", provider.Pesapal, `{"status":"completed","amount":"-5","reference":"r"}`, money.ErrInvalidAmount},
		{"missing amount", provider.Pesapal, `{"status":"completed","reference":"r"}`, money.ErrInvalidAmount},
		{"missing reference", provider.Pesapal, `{"status":"completed","amount":"5"}`, domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Decode(tt.provider, []byte(tt.body))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRegistry_Register(t *testing.T) {
	reg := provider.NewRegistry()
	assert.Empty(t, reg.Providers())

	called := false
	err := reg.Register(provider.System, provider.DecoderFunc(func(body []byte) (provider.Event, error) {
		called = true
		return provider.Event{
			Status:    provider.StatusSucceeded,
			Amount:    money.MustNew(money.KES, "1"),
			Reference: "internal-1",
		}, nil
	}))
	require.NoError(t, err)
	assert.Equal(t, []provider.Provider{provider.System}, reg.Providers())

	ev, err := reg.Decode(provider.System, nil)
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, provider.System, ev.Provider)

	err = reg.Register("mpesa", nil)
	require.ErrorIs(t, err, provider.ErrUnsupportedProvider)
}
