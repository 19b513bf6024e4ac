package store

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/aeolive/competitor-cli/internal/model"
)

// ErrJournalUnavailable is returned by a guarded store while writes are
// being short-circuited after repeated failures.
var ErrJournalUnavailable = eris.New("store: journal unavailable")

// GuardConfig controls when a guarded store stops attempting writes.
type GuardConfig struct {
	// FailureThreshold consecutive RecordRun errors open the guard. Default 5.
	FailureThreshold int
	// Cooldown is how long writes are skipped before one probe is let
	// through. Default 30s.
	Cooldown time.Duration
}

// Guarded wraps a Store with a circuit breaker on RecordRun. Reads pass
// straight through.
type Guarded struct {
	Store

	cfg GuardConfig

	mu       sync.Mutex
	failures int
	openedAt time.Time
	open     bool
	now      func() time.Time
}

// Guard wraps st. A nil st yields nil.
func Guard(st Store, cfg GuardConfig) *Guarded {
	if st == nil {
		return nil
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	return &Guarded{Store: st, cfg: cfg, now: time.Now}
}

// RecordRun journals res unless the guard is open.
func (g *Guarded) RecordRun(ctx context.Context, res *model.DiscoveryResult) (*model.Run, error) {
	if !g.allow() {
		return nil, ErrJournalUnavailable
	}
	run, err := g.Store.RecordRun(ctx, res)
	g.record(err)
	return run, err
}

// Open reports whether writes are currently short-circuited.
func (g *Guarded) Open() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.open && g.now().Sub(g.openedAt) < g.cfg.Cooldown
}

func (g *Guarded) allow() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.open {
		return true
	}
	if g.now().Sub(g.openedAt) >= g.cfg.Cooldown {
		// Let one probe through; a failure re-arms the cooldown.
		g.openedAt = g.now()
		return true
	}
	return false
}

func (g *Guarded) record(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err == nil {
		if g.open {
			zap.L().Info("store: journal writes recovered")
		}
		g.failures = 0
		g.open = false
		return
	}

	g.failures++
	if g.open || g.failures >= g.cfg.FailureThreshold {
		if !g.open {
			zap.L().Warn("store: journal writes suspended",
				zap.Int("failures", g.failures),
				zap.Duration("cooldown", g.cfg.Cooldown),
				zap.Error(err),
			)
		}
		g.open = true
		g.openedAt = g.now()
	}
}
