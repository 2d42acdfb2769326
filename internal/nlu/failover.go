package nlu

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/AvaWorks/TaskAssist/internal/models"
)

// remoteCooldown is how long the failover provider stops trying the remote
// capability after a failure before lazily re-checking it.
const remoteCooldown = time.Minute

// FailoverProvider prefers the remote provider and falls back to the local
// one for the turn whenever the remote call errors, times out, or returns
// an unparsable result. After a remote failure the remote side is skipped
// for a cooldown period, then retried lazily. A nil remote provider means
// local-only operation.
type FailoverProvider struct {
	remote Provider
	local  Provider

	mu        sync.Mutex
	downUntil time.Time
}

// NewFailoverProvider composes a remote and local provider. remote may be
// nil when no API key is configured.
func NewFailoverProvider(remote, local Provider) *FailoverProvider {
	return &FailoverProvider{remote: remote, local: local}
}

// Classify delegates to the remote provider when available, else local.
func (p *FailoverProvider) Classify(ctx context.Context, text string, history []models.Turn) (models.Classification, error) {
	if p.remoteAvailable() {
		result, err := p.remote.Classify(ctx, text, history)
		if err == nil {
			return result, nil
		}
		p.markDown(err, "classify")
	}
	return p.local.Classify(ctx, text, history)
}

// Extract delegates to the remote provider when available, else local.
func (p *FailoverProvider) Extract(ctx context.Context, text string, intent models.Intent, slots map[models.Slot]string, history []models.Turn) (map[models.Slot]string, error) {
	if p.remoteAvailable() {
		updates, err := p.remote.Extract(ctx, text, intent, slots, history)
		if err == nil {
			return updates, nil
		}
		p.markDown(err, "extract")
	}
	return p.local.Extract(ctx, text, intent, slots, history)
}

func (p *FailoverProvider) remoteAvailable() bool {
	if p.remote == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return time.Now().After(p.downUntil)
}

// markDown records a remote failure. A parse failure is a per-turn
// fallback only; transport errors and timeouts start the cooldown so a dead
// backend is not hammered on every turn.
func (p *FailoverProvider) markDown(err error, op string) {
	if errors.Is(err, models.ErrNoConfidentResult) {
		slog.Warn("FailoverProvider: remote reply not usable, using local rules for this turn", "op", op, "error", err)
		return
	}
	p.mu.Lock()
	p.downUntil = time.Now().Add(remoteCooldown)
	p.mu.Unlock()
	slog.Warn("FailoverProvider: remote capability failed, using local rules", "op", op, "error", err, "cooldown", remoteCooldown)
}
