package commitment

import (
	"testing"

	"github.com/rawblock/privacypool/internal/curve"
)

func TestProveMultiAssetBalanceAcceptsMatchingBaskets(t *testing.T) {
	rGive, _ := curve.RandomScalar()
	rTake, _ := curve.RandomScalar()

	basket := []AssetAmount{
		{AssetID: ERGAssetID, Amount: 1_000_000},
		{AssetID: []byte("token-x"), Amount: 42},
	}

	give, err := CommitBasket(rGive, basket)
	if err != nil {
		t.Fatalf("CommitBasket give: %v", err)
	}
	take, err := CommitBasket(rTake, basket)
	if err != nil {
		t.Fatalf("CommitBasket take: %v", err)
	}

	deltaR := rGive.Add(rTake.Negate())
	proof, err := ProveMultiAssetBalance(give.Commitment, take.Commitment, deltaR)
	if err != nil {
		t.Fatalf("ProveMultiAssetBalance: %v", err)
	}
	if err := VerifySwapBalance(proof, give.Commitment, take.Commitment); err != nil {
		t.Fatalf("VerifySwapBalance rejected a genuinely balanced swap: %v", err)
	}
}

func TestVerifySwapBalanceRejectsMismatchedBaskets(t *testing.T) {
	rGive, _ := curve.RandomScalar()
	rTake, _ := curve.RandomScalar()

	give, err := CommitBasket(rGive, []AssetAmount{{AssetID: []byte("token-x"), Amount: 42}})
	if err != nil {
		t.Fatalf("CommitBasket give: %v", err)
	}
	take, err := CommitBasket(rTake, []AssetAmount{{AssetID: []byte("token-x"), Amount: 41}})
	if err != nil {
		t.Fatalf("CommitBasket take: %v", err)
	}

	deltaR := rGive.Add(rTake.Negate())
	proof, err := ProveMultiAssetBalance(give.Commitment, take.Commitment, deltaR)
	if err != nil {
		t.Fatalf("ProveMultiAssetBalance: %v", err)
	}
	if err := VerifySwapBalance(proof, give.Commitment, take.Commitment); err == nil {
		t.Fatal("expected verification to reject an unbalanced swap (41 != 42)")
	}
}

func TestSumCommitmentsMatchesPairwiseAdd(t *testing.T) {
	r1, _ := curve.RandomScalar()
	r2, _ := curve.RandomScalar()
	r3, _ := curve.RandomScalar()
	c1, _ := Commit(r1, 10)
	c2, _ := Commit(r2, 20)
	c3, _ := Commit(r3, 30)

	sum, err := SumCommitments([]Commitment{c1, c2, c3})
	if err != nil {
		t.Fatalf("SumCommitments: %v", err)
	}
	expected, err := Add(c1, c2)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	expected, err = Add(expected, c3)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !sum.Point.Equal(expected.Point) {
		t.Fatal("SumCommitments must match iteratively Add-ing the same list")
	}
}
