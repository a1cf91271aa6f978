// Package testing provides scaffolding shared by the overlay tests.
package testing

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/chord/codec"
	"go.dedis.ch/chord/overlay"
	"go.dedis.ch/chord/overlay/impl"
	"go.dedis.ch/chord/overlay/impl/ring"
)

// Option transforms a configuration before the overlay is built.
type Option func(*overlay.Configuration)

// WithSink attaches a sink to the test overlay.
func WithSink(s overlay.Sink) Option {
	return func(conf *overlay.Configuration) {
		conf.Sink = s
	}
}

// WithValueCodec attaches a value codec to the test overlay.
func WithValueCodec(c codec.Codec) Option {
	return func(conf *overlay.Configuration) {
		conf.ValueCodec = c
	}
}

// WithStabilizePassesCap bounds the rebalance sweep count.
func WithStabilizePassesCap(passes uint) Option {
	return func(conf *overlay.Configuration) {
		conf.StabilizePassesCap = passes
	}
}

// NewTestOverlay builds an overlay with the given ring exponent and initial
// ids, failing the test on any construction error.
func NewTestOverlay(t *testing.T, m int, ids []uint64, opts ...Option) overlay.Overlay {
	conf := overlay.Configuration{
		BitLength:  m,
		InitialIDs: ids,
	}
	for _, opt := range opts {
		opt(&conf)
	}

	ov, err := impl.NewOverlay(conf)
	require.NoError(t, err)
	return ov
}

// MineName brute-forces a name whose hash lands exactly on the wanted ring
// position, so scenario tests can talk about keys the way the protocol
// description does. Only usable with small rings.
func MineName(t *testing.T, m int, key uint64) string {
	require.Less(t, key, ring.Size(m))

	for i := 0; i < 1<<22; i++ {
		name := fmt.Sprintf("name-%d", i)
		if ring.Hash(name, m) == key {
			return name
		}
	}

	t.Fatalf("no name found hashing to %d on a %d-bit ring", key, m)
	return ""
}
