package relayer

import (
	"context"
	"encoding/json"
	"log"

	"github.com/rawblock/privacypool/pkg/models"
)

// ShadowEvaluator runs the same build-and-validate path a real sweep would
// take, but never calls Submit, adapted from the teacher's shadow-mode idea
// (internal/shadow: run an alternate code path against the same input and
// diff the outcome) for a domain that has drafts to compare rather than
// heuristic classifiers: here the "production" path and the "shadow" path
// are the same draft builder, and the diff being logged is "what would have
// been submitted" versus nothing at all.
type ShadowEvaluator struct {
	hub   Broadcaster
	audit AuditLog
}

// NewShadowEvaluator builds an evaluator that records dry-run outcomes the
// same way a live sweep would, minus the submission.
func NewShadowEvaluator(hub Broadcaster, audit AuditLog) *ShadowEvaluator {
	return &ShadowEvaluator{hub: hub, audit: audit}
}

// Evaluate logs and records what draft would have been submitted, without
// ever touching the node or signer.
func (e *ShadowEvaluator) Evaluate(ctx context.Context, draft models.TxDraft, result models.SweepResult) {
	result.DryRun = true
	log.Printf("[Shadow] %s sweep for pool %s would move ring %d->%d, value %d->%d (draft %s)",
		result.Kind, result.PoolID, result.RingBefore, result.RingAfter, result.ValueBefore, result.ValueAfter, draft.DraftID)

	if e.audit != nil {
		if err := e.audit.SaveSweepResult(ctx, result); err != nil {
			log.Printf("[Shadow] failed to persist shadow result: %v", err)
		}
	}
	if e.hub != nil {
		if payload, err := json.Marshal(result); err == nil {
			e.hub.Broadcast(payload)
		}
	}
}
