package relayer

import (
	"testing"

	"github.com/rawblock/privacypool/internal/curve"
	"github.com/rawblock/privacypool/pkg/models"
)

func withdrawPool(t *testing.T, keys ...string) models.PoolBox {
	t.Helper()
	pool := basePool(t, keys...)
	pool.Value += MinerFee // enough to cover one payout plus fee on top of the ring value
	return pool
}

func TestBuildWithdrawalHappyPath(t *testing.T) {
	key := randomKeyHex(t)
	pool := withdrawPool(t, key)
	proc := NewWithdrawalProcessor()

	intent := models.IntentToWithdrawBox{
		BoxID:          "withdraw-intent-1",
		NullifierHex:   randomKeyHex(t),
		PayoutErgoTree: "payout-tree",
	}

	draft, result, err := proc.BuildWithdrawal(pool, intent, "deadbeef")
	if err != nil {
		t.Fatalf("BuildWithdrawal: %v", err)
	}
	if draft.DraftID == "" {
		t.Fatal("expected a non-empty DraftID")
	}
	if result.SweepID != draft.DraftID {
		t.Fatalf("SweepID %s != DraftID %s", result.SweepID, draft.DraftID)
	}
	if result.ValueAfter != result.ValueBefore-pool.Denomination {
		t.Fatalf("value after = %d, want %d", result.ValueAfter, result.ValueBefore-pool.Denomination)
	}
	if len(draft.Tx.Outputs) != 3 {
		t.Fatalf("expected pool/payout/fee outputs, got %d", len(draft.Tx.Outputs))
	}
	ext := draft.Tx.Inputs[0].Extension
	if ext["0"].DataHex != "deadbeef" {
		t.Fatalf("expected ring proof forwarded verbatim into context var 0, got %q", ext["0"].DataHex)
	}
}

func TestBuildWithdrawalRejectsBannedNullifier(t *testing.T) {
	pool := withdrawPool(t, randomKeyHex(t))
	proc := NewWithdrawalProcessor()

	intent := models.IntentToWithdrawBox{BoxID: "w2", NullifierHex: curve.H().Hex(), PayoutErgoTree: "payout-tree"}

	if _, _, err := proc.BuildWithdrawal(pool, intent, "ff"); err == nil {
		t.Fatal("expected error for banned NUMS point nullifier")
	}
}

func TestBuildWithdrawalRejectsSpentNullifier(t *testing.T) {
	spent := randomKeyHex(t)
	pool := withdrawPool(t, randomKeyHex(t))
	pool.Nullifiers = models.NullifierState{Kind: models.NullifierStateList, List: []string{spent}}
	proc := NewWithdrawalProcessor()

	intent := models.IntentToWithdrawBox{BoxID: "w3", NullifierHex: spent, PayoutErgoTree: "payout-tree"}

	if _, _, err := proc.BuildWithdrawal(pool, intent, "ff"); err == nil {
		t.Fatal("expected error for already-spent nullifier")
	}
}

func TestBuildWithdrawalRejectsEmptyPayout(t *testing.T) {
	pool := withdrawPool(t, randomKeyHex(t))
	proc := NewWithdrawalProcessor()

	intent := models.IntentToWithdrawBox{BoxID: "w4", NullifierHex: randomKeyHex(t), PayoutErgoTree: ""}

	if _, _, err := proc.BuildWithdrawal(pool, intent, "ff"); err == nil {
		t.Fatal("expected error for empty payout ergo tree")
	}
}

func TestBuildWithdrawalRejectsInsufficientPoolValue(t *testing.T) {
	pool := basePool(t, randomKeyHex(t)) // Value == 1 denom, no room for fee
	proc := NewWithdrawalProcessor()

	intent := models.IntentToWithdrawBox{BoxID: "w5", NullifierHex: randomKeyHex(t), PayoutErgoTree: "payout-tree"}

	if _, _, err := proc.BuildWithdrawal(pool, intent, "ff"); err == nil {
		t.Fatal("expected error when pool lacks value to cover payout plus fee")
	}
}

func TestBuildWithdrawalTreeStateInsertsPlaceholderDigest(t *testing.T) {
	pool := withdrawPool(t, randomKeyHex(t))
	pool.Nullifiers = models.NullifierState{
		Kind: models.NullifierStateTree,
		Tree: models.AVLTreeRegister{DigestHex: "aa0000000000000000000000000000000000000000000000000000000000000011", Flags: 0x07, KeyLen: 0x21}, // 33-byte digest
	}
	proc := NewWithdrawalProcessor()

	intent := models.IntentToWithdrawBox{BoxID: "w6", NullifierHex: randomKeyHex(t), PayoutErgoTree: "payout-tree"}

	draft, _, err := proc.BuildWithdrawal(pool, intent, "ff")
	if err != nil {
		t.Fatalf("BuildWithdrawal: %v", err)
	}
	newR5 := draft.Tx.Outputs[0].AdditionalRegisters["R5"]
	if newR5 == "" {
		t.Fatal("expected a non-empty re-encoded R5 for tree-typed nullifier state")
	}
}
