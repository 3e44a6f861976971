// Package safety implements the spending-limit and rate-limit guardrails
// spec.md §11 (SUPPLEMENTED FEATURES) calls for, grounded on the original
// SDK's SafetyConfig (tools/safety.py): a hard per-transaction cap, a
// rolling 24h spend cap, a destination allow-list, and an hourly
// action-rate limit. The API's withdrawal-draft handler checks them before
// returning a draft; the relayer's Sweeper signs sweeps without calling
// ValidateSend or ValidateRateLimit.
package safety

import (
	"sync"
	"time"
)

// Violation is the typed error the original raised as SafetyViolation.
type Violation struct {
	Reason string
}

func (v *Violation) Error() string { return v.Reason }

// Config holds the tunable guardrails. Zero values disable the
// corresponding check entirely (a zero max-per-tx cap would be useless,
// so callers must set real values; Policy does not substitute defaults).
type Config struct {
	MaxNanoErgPerTx  int64
	MaxNanoErgPerDay int64
	AllowedErgoTrees []string // empty means no allow-list restriction
	RateLimitPerHour int
	DryRun           bool
}

// Policy is the stateful guardrail enforcer. One Policy instance should be
// shared across every sweep attempt, mirroring the single long-lived
// SafetyConfig instance the original wires into its toolkit.
type Policy struct {
	cfg Config

	mu            sync.Mutex
	actionTimes   []time.Time
	dailySpendLog []spendEntry
}

type spendEntry struct {
	at      time.Time
	nanoErg int64
}

func NewPolicy(cfg Config) *Policy {
	return &Policy{cfg: cfg}
}

// ValidateSend checks a pending sweep value against the per-tx cap, the
// rolling daily cap, and the destination allow-list (validate_send).
func (p *Policy) ValidateSend(amountNanoErg int64, destinationErgoTree string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cfg.MaxNanoErgPerTx > 0 && amountNanoErg > p.cfg.MaxNanoErgPerTx {
		return &Violation{Reason: "transaction amount exceeds the configured per-transaction limit"}
	}

	if p.cfg.MaxNanoErgPerDay > 0 {
		dailyTotal := p.dailyTotalLocked()
		if dailyTotal+amountNanoErg > p.cfg.MaxNanoErgPerDay {
			return &Violation{Reason: "transaction would exceed the rolling 24h spend limit"}
		}
	}

	if len(p.cfg.AllowedErgoTrees) > 0 {
		allowed := false
		for _, tree := range p.cfg.AllowedErgoTrees {
			if tree == destinationErgoTree {
				allowed = true
				break
			}
		}
		if !allowed {
			return &Violation{Reason: "destination ergo tree is not in the allow-list"}
		}
	}
	return nil
}

// ValidateRateLimit checks the hourly action-rate cap (validate_rate_limit).
func (p *Policy) ValidateRateLimit() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pruneActionsLocked()
	if p.cfg.RateLimitPerHour > 0 && len(p.actionTimes) >= p.cfg.RateLimitPerHour {
		return &Violation{Reason: "hourly action rate limit exceeded"}
	}
	return nil
}

// RecordAction records one approved action for rate limiting and spend
// tracking (record_action); the API's withdrawal-draft handler calls it
// once a draft passes ValidateSend.
func (p *Policy) RecordAction(nanoErgSpent int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	p.actionTimes = append(p.actionTimes, now)
	if nanoErgSpent > 0 {
		p.dailySpendLog = append(p.dailySpendLog, spendEntry{at: now, nanoErg: nanoErgSpent})
	}
}

// Status is the structured snapshot get_status returns for agent/operator
// awareness via the /api/v1/safety/status endpoint.
type Status struct {
	DailyNanoErgSpent     int64 `json:"dailyNanoErgSpent"`
	DailyNanoErgRemaining int64 `json:"dailyNanoErgRemaining"`
	ActionsLastHour       int   `json:"actionsLastHour"`
	ActionsRemainingHour  int   `json:"actionsRemainingThisHour"`
	DryRun                bool  `json:"dryRun"`
}

func (p *Policy) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pruneActionsLocked()
	dailyTotal := p.dailyTotalLocked()
	remaining := p.cfg.MaxNanoErgPerDay - dailyTotal
	if remaining < 0 {
		remaining = 0
	}
	actionsRemaining := p.cfg.RateLimitPerHour - len(p.actionTimes)
	if actionsRemaining < 0 {
		actionsRemaining = 0
	}
	return Status{
		DailyNanoErgSpent:     dailyTotal,
		DailyNanoErgRemaining: remaining,
		ActionsLastHour:       len(p.actionTimes),
		ActionsRemainingHour:  actionsRemaining,
		DryRun:                p.cfg.DryRun,
	}
}

func (p *Policy) pruneActionsLocked() {
	cutoff := time.Now().Add(-time.Hour)
	i := 0
	for ; i < len(p.actionTimes); i++ {
		if p.actionTimes[i].After(cutoff) {
			break
		}
	}
	p.actionTimes = p.actionTimes[i:]
}

// dailyTotalLocked sums spend in the last 24h, pruning older entries
// (_get_daily_total). Caller must hold p.mu.
func (p *Policy) dailyTotalLocked() int64 {
	cutoff := time.Now().Add(-24 * time.Hour)
	kept := p.dailySpendLog[:0]
	var total int64
	for _, e := range p.dailySpendLog {
		if e.at.After(cutoff) {
			kept = append(kept, e)
			total += e.nanoErg
		}
	}
	p.dailySpendLog = kept
	return total
}
