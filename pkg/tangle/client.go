// Package tangle provides the narrow client interface to the ledger gateway
// and the confirmation engine that drives a submitted bundle to inclusion.
package tangle

import (
	"context"
	"errors"
)

var (
	// ErrNode wraps any transport or protocol failure talking to the node.
	ErrNode = errors.New("tangle: node request failed")

	// ErrNotConfirmed is returned when a bounded confirmation run exhausts
	// its attempt budget without reaching inclusion.
	ErrNotConfirmed = errors.New("tangle: transaction not confirmed")
)

// Client is the capability the core needs from the ledger. A bundle is
// submitted as an ordered sequence of tryte fragments and identified by the
// hash of its tail transaction.
type Client interface {
	// Submit attaches a new bundle carrying the fragments to the given
	// address and returns the tail transaction hash.
	Submit(ctx context.Context, fragments []string, address string) (string, error)

	// FetchFragments returns the bundle's message fragments in bundle order,
	// including any filler padding.
	FetchFragments(ctx context.Context, tailHash string) ([]string, error)

	// IsIncluded reports the inclusion state of each tail hash.
	IsIncluded(ctx context.Context, tailHashes []string) (map[string]bool, error)

	// IsPromotable reports whether the tail is still attached to a valid
	// subtangle and recent enough to be promoted.
	IsPromotable(ctx context.Context, tailHash string) (bool, error)

	// Promote reinforces a pending tail. Fails if the tail is not promotable.
	Promote(ctx context.Context, tailHash string) error

	// Reattach reissues the bundle as a fresh transaction and returns the new
	// tail hash.
	Reattach(ctx context.Context, tailHash string) (string, error)
}
