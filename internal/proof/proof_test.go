package proof

import (
	"testing"

	"github.com/rawblock/privacypool/internal/commitment"
	"github.com/rawblock/privacypool/internal/curve"
)

func TestNullifierDeterministicAndNotBanned(t *testing.T) {
	r, err := curve.RandomScalar()
	if err != nil {
		t.Fatalf("RandomScalar: %v", err)
	}
	i1, err := Nullifier(r)
	if err != nil {
		t.Fatalf("Nullifier: %v", err)
	}
	i2, err := Nullifier(r)
	if err != nil {
		t.Fatalf("Nullifier: %v", err)
	}
	if !i1.Equal(i2) {
		t.Fatalf("nullifier must be deterministic for the same r")
	}
	if i1.Equal(curve.G()) || i1.Equal(curve.H()) {
		t.Fatalf("nullifier must never equal G or H")
	}
}

func buildRing(t *testing.T, n, realIndex int, denom uint64) ([]curve.Point, curve.Scalar) {
	t.Helper()
	ring := make([]curve.Point, n)
	var realR curve.Scalar
	for i := 0; i < n; i++ {
		r, err := curve.RandomScalar()
		if err != nil {
			t.Fatalf("RandomScalar: %v", err)
		}
		c, err := commitment.Commit(r, denom)
		if err != nil {
			t.Fatalf("Commit: %v", err)
		}
		ring[i] = c.Point
		if i == realIndex {
			realR = r
		}
	}
	return ring, realR
}

func TestRingProofBuildAndVerify(t *testing.T) {
	const denom = uint64(100)
	ring, r := buildRing(t, 4, 2, denom)
	txMsg := []byte("tx-message-s3")

	p, err := BuildRingProof(txMsg, ring, denom, 2, r)
	if err != nil {
		t.Fatalf("BuildRingProof: %v", err)
	}

	nullifier, err := Nullifier(r)
	if err != nil {
		t.Fatalf("Nullifier: %v", err)
	}

	if err := VerifyRingProof(p, txMsg, ring, denom, nullifier); err != nil {
		t.Fatalf("VerifyRingProof: %v", err)
	}
}

func TestRingProofRejectsWrongMessage(t *testing.T) {
	const denom = uint64(100)
	ring, r := buildRing(t, 3, 0, denom)
	p, err := BuildRingProof([]byte("real-message"), ring, denom, 0, r)
	if err != nil {
		t.Fatalf("BuildRingProof: %v", err)
	}
	nullifier, err := Nullifier(r)
	if err != nil {
		t.Fatalf("Nullifier: %v", err)
	}
	if err := VerifyRingProof(p, []byte("different-message"), ring, denom, nullifier); err == nil {
		t.Fatalf("expected rejection when transcript message differs")
	}
}

func TestRingProofRejectsOutOfRangeIndex(t *testing.T) {
	const denom = uint64(100)
	ring, r := buildRing(t, 2, 0, denom)
	if _, err := BuildRingProof([]byte("m"), ring, denom, 5, r); err == nil {
		t.Fatalf("expected rejection of out-of-range real index")
	}
}

func TestRangeProofBuildAndVerify(t *testing.T) {
	r, err := curve.RandomScalar()
	if err != nil {
		t.Fatalf("RandomScalar: %v", err)
	}
	const v = uint64(100)
	const nBits = 16

	rp, blinds, err := BuildRangeProof(r, v, nBits)
	if err != nil {
		t.Fatalf("BuildRangeProof: %v", err)
	}
	if err := VerifyRangeProof(rp); err != nil {
		t.Fatalf("VerifyRangeProof: %v", err)
	}

	sumBlinds := curve.ScalarZero()
	for _, b := range blinds {
		sumBlinds = sumBlinds.Add(b)
	}
	if !sumBlinds.Equal(r) {
		t.Fatalf("per-bit blinding factors must sum to r")
	}

	sum, err := SumCommitments(rp.BitCommitments)
	if err != nil {
		t.Fatalf("SumCommitments: %v", err)
	}
	c, err := commitment.Commit(r, v)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if !sum.Equal(c.Point) {
		t.Fatalf("sum of bit commitments must equal commit(r,v)")
	}
}

func TestBalanceProofBuildAndVerify(t *testing.T) {
	deltaR, err := curve.RandomScalar()
	if err != nil {
		t.Fatalf("RandomScalar: %v", err)
	}
	residual, err := curve.ScalarBaseMult(deltaR)
	if err != nil {
		t.Fatalf("ScalarBaseMult: %v", err)
	}

	bp, err := BuildBalanceProof(residual, deltaR)
	if err != nil {
		t.Fatalf("BuildBalanceProof: %v", err)
	}
	if err := VerifyBalanceProof(bp, residual); err != nil {
		t.Fatalf("VerifyBalanceProof: %v", err)
	}
}

func TestBalanceProofRejectsWrongResidual(t *testing.T) {
	deltaR, _ := curve.RandomScalar()
	residual, err := curve.ScalarBaseMult(deltaR)
	if err != nil {
		t.Fatalf("ScalarBaseMult: %v", err)
	}
	bp, err := BuildBalanceProof(residual, deltaR)
	if err != nil {
		t.Fatalf("BuildBalanceProof: %v", err)
	}

	other, _ := curve.RandomScalar()
	otherResidual, err := curve.ScalarBaseMult(other)
	if err != nil {
		t.Fatalf("ScalarBaseMult: %v", err)
	}
	if err := VerifyBalanceProof(bp, otherResidual); err == nil {
		t.Fatalf("expected rejection against a mismatched residual")
	}
}
