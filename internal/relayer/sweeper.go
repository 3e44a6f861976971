package relayer

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/rawblock/privacypool/internal/node"
	"github.com/rawblock/privacypool/internal/pool"
	"github.com/rawblock/privacypool/internal/signer"
	"github.com/rawblock/privacypool/pkg/models"
)

func decodeBoxForSweep(box models.Box) (models.PoolBox, error) {
	return pool.DecodePoolBox(box)
}

// Broadcaster is the subset of the WebSocket hub the sweeper needs to push
// sweep events to live dashboard clients.
type Broadcaster interface {
	Broadcast(payload []byte)
}

// AuditLog is the subset of persistence the sweeper needs to record sweep
// outcomes (internal/db).
type AuditLog interface {
	SaveSweepResult(ctx context.Context, result models.SweepResult) error
}

// Sweeper runs the periodic deposit-batch and withdrawal-forward loop,
// adapted from the mempool poller's ticker/context shape (internal/mempool)
// but driving pool state transitions instead of heuristic analysis.
type Sweeper struct {
	client   *node.Client
	signer   signer.Signer
	hub      Broadcaster
	audit    AuditLog
	batcher  *DepositBatcher
	withdraw *WithdrawalProcessor
	shadow   *ShadowEvaluator
	dryRun   bool

	poolID             string
	depositScriptHash  string
	withdrawScriptHash string
}

// Config bundles everything NewSweeper needs to wire a running loop.
type Config struct {
	Client             *node.Client
	Signer             signer.Signer
	Hub                Broadcaster
	Audit              AuditLog
	PoolID             string
	DepositScriptHash  string
	WithdrawScriptHash string
	DryRun             bool
}

func NewSweeper(cfg Config) *Sweeper {
	return &Sweeper{
		client:             cfg.Client,
		signer:             cfg.Signer,
		hub:                cfg.Hub,
		audit:              cfg.Audit,
		batcher:            NewDepositBatcher(cfg.Client),
		withdraw:           NewWithdrawalProcessor(),
		shadow:             NewShadowEvaluator(cfg.Hub, cfg.Audit),
		dryRun:             cfg.DryRun,
		poolID:             cfg.PoolID,
		depositScriptHash:  cfg.DepositScriptHash,
		withdrawScriptHash: cfg.WithdrawScriptHash,
	}
}

// Run polls for pending intents every tick, sweeping a deposit batch and at
// most one withdrawal per cycle, until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	if s.client == nil {
		log.Println("[Sweeper] node client is nil; sweeper will not start")
		return
	}

	log.Println("Starting Privacy Pool Sweeper...")
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Stopping Privacy Pool Sweeper...")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one sweep cycle immediately, used both by the ticker loop and
// by the operator-triggered /api/v1/relayer/sweep endpoint.
func (s *Sweeper) Tick(ctx context.Context) {
	box, err := s.client.GetBoxByID(ctx, s.poolID)
	if err != nil || box == nil {
		log.Printf("[Sweeper] failed to fetch pool box %s: %v", s.poolID, err)
		return
	}
	pool, err := decodeBoxForSweep(*box)
	if err != nil {
		log.Printf("[Sweeper] failed to decode pool box %s: %v", s.poolID, err)
		return
	}

	s.sweepDeposits(ctx, pool)
	s.sweepWithdrawal(ctx, pool)
}

func (s *Sweeper) sweepDeposits(ctx context.Context, pool models.PoolBox) {
	intents, err := ScanPendingDeposits(ctx, s.client, s.depositScriptHash)
	if err != nil {
		log.Printf("[Sweeper] deposit scan failed: %v", err)
		return
	}
	if len(intents) == 0 {
		return
	}
	if len(intents) > MaxBatchSize {
		log.Printf("[Sweeper] %d pending deposits exceed batch size %d; sweeping first %d, %d deferred to next tick",
			len(intents), MaxBatchSize, MaxBatchSize, len(intents)-MaxBatchSize)
		intents = intents[:MaxBatchSize]
	}

	draft, result, err := s.batcher.BuildBatchDeposit(pool, intents)
	if err != nil {
		log.Printf("[Sweeper] deposit batch build failed: %v", err)
		return
	}
	s.submit(ctx, draft, result)
}

func (s *Sweeper) sweepWithdrawal(ctx context.Context, pool models.PoolBox) {
	intents, err := ScanPendingWithdrawals(ctx, s.client, s.withdrawScriptHash)
	if err != nil {
		log.Printf("[Sweeper] withdrawal scan failed: %v", err)
		return
	}
	if len(intents) == 0 {
		return
	}
	intent := intents[0]
	draft, result, err := s.withdraw.BuildWithdrawal(pool, intent, intent.RingProofHex)
	if err != nil {
		log.Printf("[Sweeper] withdrawal build failed for %s: %v", intent.BoxID, err)
		return
	}
	s.submit(ctx, draft, result)
}

func (s *Sweeper) submit(ctx context.Context, draft models.TxDraft, result models.SweepResult) {
	result.DryRun = s.dryRun
	if s.dryRun {
		s.shadow.Evaluate(ctx, draft, result)
		return
	}

	signed, err := s.signer.Sign(ctx, draft.Tx, draft.InputsRaw, draft.SigningHints)
	if err != nil {
		result.Err = err.Error()
		log.Printf("[Sweeper] signing failed: %v", err)
		s.record(ctx, result)
		return
	}
	txID, err := s.client.Submit(ctx, json.RawMessage(signed))
	if err != nil {
		result.Err = err.Error()
		log.Printf("[Sweeper] submit failed: %v", err)
		s.record(ctx, result)
		return
	}
	result.TxID = txID
	log.Printf("[Sweeper] %s sweep confirmed: tx %s, pool %s", result.Kind, txID, result.PoolID)
	s.record(ctx, result)
}

func (s *Sweeper) record(ctx context.Context, result models.SweepResult) {
	if s.audit != nil {
		if err := s.audit.SaveSweepResult(ctx, result); err != nil {
			log.Printf("[Sweeper] failed to persist sweep result: %v", err)
		}
	}
	if s.hub != nil {
		payload, err := json.Marshal(result)
		if err == nil {
			s.hub.Broadcast(payload)
		}
	}
}
