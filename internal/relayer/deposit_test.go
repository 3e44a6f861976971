package relayer

import (
	"testing"

	"github.com/rawblock/privacypool/internal/curve"
	"github.com/rawblock/privacypool/pkg/models"
)

func randomKeyHex(t *testing.T) string {
	t.Helper()
	s, err := curve.RandomScalar()
	if err != nil {
		t.Fatalf("RandomScalar: %v", err)
	}
	p, err := curve.ScalarBaseMult(s)
	if err != nil {
		t.Fatalf("ScalarBaseMult: %v", err)
	}
	return p.Hex()
}

func basePool(t *testing.T, keys ...string) models.PoolBox {
	t.Helper()
	return models.PoolBox{
		BoxID:         "pool-box-id",
		ErgoTree:      "pool-ergo-tree",
		Value:         int64(len(keys)) * 1_000_000,
		Denomination:  1_000_000,
		MaxRingSize:   100,
		DepositorKeys: keys,
		Nullifiers:    models.NullifierState{Kind: models.NullifierStateList},
		Token:         models.Token{TokenID: "tok", Amount: int64(len(keys)) * 1_000_000},
	}
}

func TestBuildBatchDepositHappyPath(t *testing.T) {
	pool := basePool(t, randomKeyHex(t))
	batcher := NewDepositBatcher(nil)

	intent := models.IntentToDepositBox{
		BoxID:         "intent-1",
		ValueNanoErg:  1_000_000,
		CommitmentHex: randomKeyHex(t),
	}

	draft, result, err := batcher.BuildBatchDeposit(pool, []models.IntentToDepositBox{intent})
	if err != nil {
		t.Fatalf("BuildBatchDeposit: %v", err)
	}
	if draft.DraftID == "" {
		t.Fatal("expected a non-empty DraftID")
	}
	if result.SweepID != draft.DraftID {
		t.Fatalf("SweepID %s != DraftID %s", result.SweepID, draft.DraftID)
	}
	if result.RingAfter != result.RingBefore+1 {
		t.Fatalf("ring after = %d, want %d", result.RingAfter, result.RingBefore+1)
	}
	if result.ValueAfter != result.ValueBefore+pool.Denomination {
		t.Fatalf("value after = %d, want %d", result.ValueAfter, result.ValueBefore+pool.Denomination)
	}
	if len(draft.Tx.Inputs) != 2 {
		t.Fatalf("expected 2 inputs (pool + intent), got %d", len(draft.Tx.Inputs))
	}
}

func TestBuildBatchDepositRejectsEmptyBatch(t *testing.T) {
	pool := basePool(t)
	batcher := NewDepositBatcher(nil)

	if _, _, err := batcher.BuildBatchDeposit(pool, nil); err == nil {
		t.Fatal("expected error for empty batch")
	}
}

func TestBuildBatchDepositRejectsOversizedBatch(t *testing.T) {
	pool := basePool(t)
	batcher := NewDepositBatcher(nil)

	intents := make([]models.IntentToDepositBox, MaxBatchSize+1)
	for i := range intents {
		intents[i] = models.IntentToDepositBox{BoxID: "x", ValueNanoErg: 1_000_000, CommitmentHex: randomKeyHex(t)}
	}

	if _, _, err := batcher.BuildBatchDeposit(pool, intents); err == nil {
		t.Fatal("expected error for oversized batch")
	}
}

func TestBuildBatchDepositRejectsRingOverflow(t *testing.T) {
	key := randomKeyHex(t)
	pool := basePool(t, key)
	pool.MaxRingSize = 1
	batcher := NewDepositBatcher(nil)

	intent := models.IntentToDepositBox{BoxID: "intent-2", ValueNanoErg: 1_000_000, CommitmentHex: randomKeyHex(t)}

	if _, _, err := batcher.BuildBatchDeposit(pool, []models.IntentToDepositBox{intent}); err == nil {
		t.Fatal("expected error when batch would exceed max ring size")
	}
}

func TestBuildBatchDepositRejectsUnderfundedIntent(t *testing.T) {
	pool := basePool(t)
	batcher := NewDepositBatcher(nil)

	intent := models.IntentToDepositBox{BoxID: "intent-3", ValueNanoErg: 500_000, CommitmentHex: randomKeyHex(t)}

	if _, _, err := batcher.BuildBatchDeposit(pool, []models.IntentToDepositBox{intent}); err == nil {
		t.Fatal("expected error for underfunded intent")
	}
}

func TestBuildBatchDepositRejectsBannedPoint(t *testing.T) {
	pool := basePool(t)
	batcher := NewDepositBatcher(nil)

	intent := models.IntentToDepositBox{BoxID: "intent-4", ValueNanoErg: 1_000_000, CommitmentHex: curve.G().Hex()}

	if _, _, err := batcher.BuildBatchDeposit(pool, []models.IntentToDepositBox{intent}); err == nil {
		t.Fatal("expected error for banned generator point")
	}
}

func TestBuildBatchDepositRejectsDuplicateKey(t *testing.T) {
	key := randomKeyHex(t)
	pool := basePool(t, key)
	batcher := NewDepositBatcher(nil)

	intent := models.IntentToDepositBox{BoxID: "intent-5", ValueNanoErg: 1_000_000, CommitmentHex: key}

	if _, _, err := batcher.BuildBatchDeposit(pool, []models.IntentToDepositBox{intent}); err == nil {
		t.Fatal("expected error for duplicate key already in ring")
	}
}
