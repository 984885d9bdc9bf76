package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/amirasaad/smartledger/pkg/money"
)

var statusAliases = map[string]Status{
	"succeeded":  StatusSucceeded,
	"success":    StatusSucceeded,
	"successful": StatusSucceeded,
	"completed":  StatusSucceeded,
	"paid":       StatusSucceeded,
	"failed":     StatusFailed,
	"failure":    StatusFailed,
	"cancelled":  StatusFailed,
	"reversed":   StatusFailed,
	"invalid":    StatusFailed,
	"pending":    StatusPending,
	"processing": StatusPending,
}

// NormalizeStatus maps provider-specific status words onto Status.
func NormalizeStatus(raw string) (Status, error) {
	s, ok := statusAliases[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidEvent, raw)
	}
	return s, nil
}

type payload struct {
	Status    string         `json:"status"`
	Amount    json.Number    `json:"amount"`
	Currency  string         `json:"currency"`
	Reference string         `json:"reference"`
	Meta      map[string]any `json:"meta"`
}

func (p payload) event(defaultCurrency money.Code) (Event, error) {
	status, err := NormalizeStatus(p.Status)
	if err != nil {
		return Event{}, err
	}
	code := defaultCurrency
	if p.Currency != "" {
		code = money.Code(strings.ToUpper(p.Currency))
	}
	amount, err := money.New(code, p.Amount.String())
	if err != nil {
		return Event{}, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	meta := p.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	return Event{
		Status:    status,
		Amount:    amount,
		Reference: p.Reference,
		Meta:      meta,
	}, nil
}

// NewPesapalDecoder decodes the flat IPN body:
// {"status","amount","currency","reference","meta"}.
func NewPesapalDecoder(defaultCurrency money.Code) Decoder {
	return DecoderFunc(func(body []byte) (Event, error) {
		var p payload
		if err := json.Unmarshal(body, &p); err != nil {
			return Event{}, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
		}
		return p.event(defaultCurrency)
	})
}

// NewFlutterwaveDecoder decodes the charge webhook envelope:
// {"event":"charge.completed","data":{"status","amount","currency","tx_ref","meta"}}.
func NewFlutterwaveDecoder(defaultCurrency money.Code) Decoder {
	return DecoderFunc(func(body []byte) (Event, error) {
		var envelope struct {
			Event string `json:"event"`
			Data  struct {
				payload
				TxRef string `json:"tx_ref"`
			} `json:"data"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return Event{}, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
		}
		p := envelope.Data.payload
		if p.Reference == "" {
			p.Reference = envelope.Data.TxRef
		}
		ev, err := p.event(defaultCurrency)
		if err != nil {
			return Event{}, err
		}
		if envelope.Event != "" {
			ev.Meta["event"] = envelope.Event
		}
		return ev, nil
	})
}
