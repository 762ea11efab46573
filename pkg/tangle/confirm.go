package tangle

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultPollInterval  = 10 * time.Second
	defaultClockInterval = time.Second
)

// Result describes a finished confirmation run.
type Result struct {
	// ConfirmedTail is the tail hash the ledger reported as included. It is
	// the original tail unless the bundle had to be reattached.
	ConfirmedTail string

	// Tails lists every tail hash tried, in submission order. The original
	// tail is first; each reattachment appends one more.
	Tails []string

	// Attempts is the number of inclusion polls issued.
	Attempts int

	// Elapsed is the measured wall time from start to confirmation.
	Elapsed time.Duration
}

// Engine drives one submitted bundle to confirmation. On every poll tick it
// queries inclusion for all known tails; while none is included it promotes
// the newest tail when the ledger still considers it consistent, and
// reattaches otherwise, accumulating tail hashes until one of them lands.
//
// Engines are stateless between runs: one Confirm call owns all its mutable
// state, so a single Engine value may serve concurrent submissions.
type Engine struct {
	Client Client

	// PollInterval is the confirmation check cadence. Defaults to 10s.
	PollInterval time.Duration

	// ClockInterval drives the elapsed-seconds counter used for reporting.
	// It has no effect on control flow. Defaults to 1s.
	ClockInterval time.Duration

	// MaxAttempts bounds the number of polls. Zero means poll until the
	// bundle confirms, the context is cancelled, or the client errors.
	MaxAttempts int

	Logger zerolog.Logger
}

// Confirm blocks until the bundle identified by tailHash is confirmed, the
// context is cancelled, the attempt budget runs out, or the ledger client
// fails. Client errors are terminal: the engine retries non-inclusion, never
// its own transport.
func (e *Engine) Confirm(ctx context.Context, tailHash string) (Result, error) {
	pollInterval := e.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	clockInterval := e.ClockInterval
	if clockInterval <= 0 {
		clockInterval = defaultClockInterval
	}

	e.Logger.Info().Str("tail", tailHash).Msg("started confirming transaction")

	tails := []string{tailHash}
	seconds := 0
	attempts := 0
	start := time.Now()

	poll := time.NewTicker(pollInterval)
	defer poll.Stop()
	clock := time.NewTicker(clockInterval)
	defer clock.Stop()

	for {
		select {
		case <-ctx.Done():
			confirmFailuresTotal.Inc()
			return Result{Tails: tails, Attempts: attempts}, ctx.Err()

		case <-clock.C:
			seconds++

		case <-poll.C:
			attempts++
			confirmPollsTotal.Inc()

			states, err := e.Client.IsIncluded(ctx, tails)
			if err != nil {
				confirmFailuresTotal.Inc()
				return Result{Tails: tails, Attempts: attempts}, fmt.Errorf("inclusion check: %w", err)
			}

			if confirmed, ok := firstIncluded(tails, states); ok {
				elapsed := time.Since(start)
				confirmDuration.Observe(elapsed.Seconds())
				e.Logger.Info().
					Str("tail", confirmed).
					Int("reattachments", len(tails)-1).
					Float64("minutes", float64(seconds)/60).
					Msg("confirmed transaction")
				return Result{
					ConfirmedTail: confirmed,
					Tails:         tails,
					Attempts:      attempts,
					Elapsed:       elapsed,
				}, nil
			}

			newest := tails[len(tails)-1]
			promotable, err := e.Client.IsPromotable(ctx, newest)
			if err != nil {
				confirmFailuresTotal.Inc()
				return Result{Tails: tails, Attempts: attempts}, fmt.Errorf("promotability check: %w", err)
			}
			if promotable {
				if err := e.Client.Promote(ctx, newest); err != nil {
					confirmFailuresTotal.Inc()
					return Result{Tails: tails, Attempts: attempts}, fmt.Errorf("promote: %w", err)
				}
				confirmPromotionsTotal.Inc()
				e.Logger.Info().Str("tail", newest).Msg("promoted transaction")
			} else {
				newTail, err := e.Client.Reattach(ctx, newest)
				if err != nil {
					confirmFailuresTotal.Inc()
					return Result{Tails: tails, Attempts: attempts}, fmt.Errorf("reattach: %w", err)
				}
				confirmReattachmentsTotal.Inc()
				e.Logger.Info().Str("tail", newest).Str("newTail", newTail).Msg("reattached transaction")
				tails = append(tails, newTail)
			}

			if e.MaxAttempts > 0 && attempts >= e.MaxAttempts {
				confirmFailuresTotal.Inc()
				return Result{Tails: tails, Attempts: attempts},
					fmt.Errorf("%w after %d attempts", ErrNotConfirmed, attempts)
			}
		}
	}
}

func firstIncluded(tails []string, states map[string]bool) (string, bool) {
	for _, t := range tails {
		if states[t] {
			return t, true
		}
	}
	return "", false
}
