package provider

import (
	"fmt"
	"sync"

	"github.com/amirasaad/smartledger/pkg/money"
)

// Decoder turns an already-verified webhook body into a normalized Event.
type Decoder interface {
	Decode(body []byte) (Event, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(body []byte) (Event, error)

func (f DecoderFunc) Decode(body []byte) (Event, error) {
	return f(body)
}

// Registry maps providers to decoders. It is filled once at startup.
type Registry struct {
	mu       sync.RWMutex
	decoders map[Provider]Decoder
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{decoders: make(map[Provider]Decoder)}
}

// DefaultRegistry registers the built-in webhook decoders.
// defaultCurrency is applied when a payload omits its currency.
func DefaultRegistry(defaultCurrency money.Code) *Registry {
	r := NewRegistry()
	// Both registrations target known providers, so they cannot fail.
	_ = r.Register(Pesapal, NewPesapalDecoder(defaultCurrency))
	_ = r.Register(Flutterwave, NewFlutterwaveDecoder(defaultCurrency))
	return r
}

// Register binds a decoder to a provider from the closed set.
func (r *Registry) Register(p Provider, d Decoder) error {
	if _, err := Parse(string(p)); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoders[p] = d
	return nil
}

// Decode runs the provider's decoder and validates the resulting event.
func (r *Registry) Decode(p Provider, body []byte) (Event, error) {
	r.mu.RLock()
	d, ok := r.decoders[p]
	r.mu.RUnlock()
	if !ok {
		return Event{}, fmt.Errorf("%w: no decoder for %q", ErrUnsupportedProvider, p)
	}
	ev, err := d.Decode(body)
	if err != nil {
		return Event{}, err
	}
	ev.Provider = p
	if err := ev.Validate(); err != nil {
		return Event{}, err
	}
	return ev, nil
}

// Providers lists the providers with a registered decoder.
func (r *Registry) Providers() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Provider, 0, len(r.decoders))
	for _, p := range All() {
		if _, ok := r.decoders[p]; ok {
			out = append(out, p)
		}
	}
	return out
}
