package pool

import (
	"context"
	"testing"

	"github.com/rawblock/privacypool/internal/curve"
	"github.com/rawblock/privacypool/internal/proof"
	"github.com/rawblock/privacypool/internal/register"
	"github.com/rawblock/privacypool/pkg/models"
)

// fakeNode is an in-memory NodeReader stand-in, keyed by box id and by a
// single registered script hash, for exercising Client without any real
// network dependency.
type fakeNode struct {
	boxesByID     map[string]models.Box
	byScript      map[string][]models.Box
}

func newFakeNode() *fakeNode {
	return &fakeNode{boxesByID: map[string]models.Box{}, byScript: map[string][]models.Box{}}
}

func (f *fakeNode) GetBoxByID(ctx context.Context, boxID string) (*models.Box, error) {
	b, ok := f.boxesByID[boxID]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (f *fakeNode) GetBoxesByScript(ctx context.Context, scriptHash string, limit int) ([]models.Box, error) {
	return f.byScript[scriptHash], nil
}

func (f *fakeNode) addPool(scriptHash string, box models.Box) {
	f.boxesByID[box.BoxID] = box
	f.byScript[scriptHash] = append(f.byScript[scriptHash], box)
}

func randomPointHex(t *testing.T) string {
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

// buildPoolBox constructs an on-chain-shaped Box for a pool carrying keys
// as its R4 depositor-key ring, denomination denom, and an empty R5.
func buildPoolBox(t *testing.T, boxID string, keys []string, denom int64, maxRing int32) models.Box {
	t.Helper()
	r4, err := register.EncodeR4(keys)
	if err != nil {
		t.Fatalf("EncodeR4: %v", err)
	}
	r5, err := register.EncodeR5List(nil)
	if err != nil {
		t.Fatalf("EncodeR5List: %v", err)
	}
	return models.Box{
		BoxID:    boxID,
		Value:    int64(len(keys))*denom + denom,
		ErgoTree: "pool-tree",
		Tokens:   []models.Token{{TokenID: "tok", Amount: int64(len(keys)) * denom}},
		Registers: map[string]string{
			"R4": r4,
			"R5": r5,
			"R6": register.EncodeR6(denom),
			"R7": register.EncodeR7(maxRing),
		},
	}
}

func TestListPoolsFiltersByDenomination(t *testing.T) {
	node := newFakeNode()
	key := randomPointHex(t)
	node.addPool("script", buildPoolBox(t, "pool-a", []string{key}, 1_000_000, 10))
	node.addPool("script", buildPoolBox(t, "pool-b", []string{key}, 2_000_000, 10))

	client := NewClient(node, "script", "fee-tree", 1_100_000)
	pools, err := client.ListPools(context.Background(), 1_000_000)
	if err != nil {
		t.Fatalf("ListPools: %v", err)
	}
	if len(pools) != 1 || pools[0].PoolID != "pool-a" {
		t.Fatalf("expected only pool-a to match denomination, got %+v", pools)
	}
}

func TestSelectBestPoolPrefersLargerRing(t *testing.T) {
	node := newFakeNode()
	node.addPool("script", buildPoolBox(t, "small", []string{randomPointHex(t)}, 1_000_000, 10))
	node.addPool("script", buildPoolBox(t, "big", []string{randomPointHex(t), randomPointHex(t), randomPointHex(t)}, 1_000_000, 10))

	client := NewClient(node, "script", "fee-tree", 1_100_000)
	best, err := client.SelectBestPool(context.Background(), 1_000_000)
	if err != nil {
		t.Fatalf("SelectBestPool: %v", err)
	}
	if best == nil || best.PoolID != "big" {
		t.Fatalf("expected 'big' pool to be selected, got %+v", best)
	}
}

func TestSelectBestPoolSkipsFullRings(t *testing.T) {
	node := newFakeNode()
	node.addPool("script", buildPoolBox(t, "full", []string{randomPointHex(t), randomPointHex(t)}, 1_000_000, 2))

	client := NewClient(node, "script", "fee-tree", 1_100_000)
	best, err := client.SelectBestPool(context.Background(), 1_000_000)
	if err != nil {
		t.Fatalf("SelectBestPool: %v", err)
	}
	if best != nil {
		t.Fatalf("expected no candidate since the only pool is full, got %+v", best)
	}
}

func TestBuildDepositHappyPath(t *testing.T) {
	node := newFakeNode()
	poolBox := buildPoolBox(t, "pool-1", []string{randomPointHex(t)}, 1_000_000, 10)
	node.boxesByID["pool-1"] = poolBox

	client := NewClient(node, "script", "fee-tree", 1_100_000)
	draft, err := client.BuildDeposit(context.Background(), "pool-1", randomPointHex(t))
	if err != nil {
		t.Fatalf("BuildDeposit: %v", err)
	}
	if draft.DraftID == "" {
		t.Fatal("expected a non-empty DraftID")
	}
	if draft.Kind != models.DraftDeposit {
		t.Fatalf("kind = %v, want DraftDeposit", draft.Kind)
	}
}

func TestBuildDepositRejectsRingFull(t *testing.T) {
	node := newFakeNode()
	poolBox := buildPoolBox(t, "pool-2", []string{randomPointHex(t)}, 1_000_000, 1)
	node.boxesByID["pool-2"] = poolBox

	client := NewClient(node, "script", "fee-tree", 1_100_000)
	if _, err := client.BuildDeposit(context.Background(), "pool-2", randomPointHex(t)); err == nil {
		t.Fatal("expected error when the ring is already at max size")
	}
}

func TestBuildDepositRejectsPoolNotFound(t *testing.T) {
	node := newFakeNode()
	client := NewClient(node, "script", "fee-tree", 1_100_000)
	if _, err := client.BuildDeposit(context.Background(), "missing", randomPointHex(t)); err == nil {
		t.Fatal("expected error when pool box is not found")
	}
}

func TestBuildWithdrawalHappyPath(t *testing.T) {
	node := newFakeNode()
	secret, err := curve.RandomScalar()
	if err != nil {
		t.Fatalf("RandomScalar: %v", err)
	}
	stealth, err := curve.ScalarBaseMult(secret)
	if err != nil {
		t.Fatalf("ScalarBaseMult: %v", err)
	}
	denomScalar, err := scalarFromInt64(1_000_000)
	if err != nil {
		t.Fatalf("scalarFromInt64: %v", err)
	}
	denomH, err := curve.ScalarMult(denomScalar, curve.H())
	if err != nil {
		t.Fatalf("ScalarMult: %v", err)
	}
	commitment, err := curve.Add(stealth, denomH)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	poolBox := buildPoolBox(t, "pool-3", []string{commitment.Hex(), randomPointHex(t)}, 1_000_000, 10)
	node.boxesByID["pool-3"] = poolBox

	client := NewClient(node, "script", "fee-tree", 1_100_000)
	draft, err := client.BuildWithdrawal(context.Background(), "pool-3", secret.Hex(), "recipient-tree")
	if err != nil {
		t.Fatalf("BuildWithdrawal: %v", err)
	}
	if draft.Kind != models.DraftWithdrawal {
		t.Fatalf("kind = %v, want DraftWithdrawal", draft.Kind)
	}
	if len(draft.SigningHints.DHT) != 1 {
		t.Fatalf("expected one DH-tuple signing hint, got %d", len(draft.SigningHints.DHT))
	}

	nullifier, err := proof.Nullifier(secret)
	if err != nil {
		t.Fatalf("Nullifier: %v", err)
	}
	if draft.Extensions[0].DataHex == "" {
		t.Fatal("expected a non-empty ring proof in context extension 0")
	}
	_ = nullifier
}

func TestBuildWithdrawalRejectsSecretNotInRing(t *testing.T) {
	node := newFakeNode()
	poolBox := buildPoolBox(t, "pool-4", []string{randomPointHex(t)}, 1_000_000, 10)
	node.boxesByID["pool-4"] = poolBox

	secret, err := curve.RandomScalar()
	if err != nil {
		t.Fatalf("RandomScalar: %v", err)
	}

	client := NewClient(node, "script", "fee-tree", 1_100_000)
	if _, err := client.BuildWithdrawal(context.Background(), "pool-4", secret.Hex(), "recipient-tree"); err == nil {
		t.Fatal("expected error when the secret's commitment is not in the ring")
	}
}
