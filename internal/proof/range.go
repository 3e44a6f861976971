package proof

import (
	"github.com/rawblock/privacypool/internal/curve"
	"github.com/rawblock/privacypool/internal/poolerr"
)

// MaxRangeBits bounds the bit-decomposition range proof to 64-bit values
// (spec.md §3: "v is a non-negative integer <= 2^64-1").
const MaxRangeBits = 64

// BitProof is a two-branch Sigma OR proving that a per-bit commitment opens
// to either 0 or 2^k, without revealing which (spec.md §4.C "Range proof").
type BitProof struct {
	Challenge0, Response0 curve.Scalar // branch: commitment == r_k*G        (bit == 0)
	Challenge1, Response1 curve.Scalar // branch: commitment == r_k*G+2^k*H  (bit == 1)
}

// RangeProof is the bit-decomposed bundle for a single value v: one
// commitment and one BitProof per bit position. The per-bit blinding
// factors, which sum to the original r (spec.md §4.C: "Σ r_k = r"), are not
// stored here; BuildRangeProof returns them alongside the proof.
type RangeProof struct {
	BitCommitments []curve.Point
	BitProofs      []BitProof
}

// BuildRangeProof decomposes v into its binary digits and proves each
// per-bit commitment opens to 0 or to 2^k, for bits in [0, nBits). The
// returned blinding factors sum to r (mod n) by construction: every bit
// but the last draws a fresh random blinding factor, and the last bit's
// blinding factor is fixed as the residual.
func BuildRangeProof(r curve.Scalar, v uint64, nBits int) (RangeProof, []curve.Scalar, error) {
	if nBits <= 0 || nBits > MaxRangeBits {
		return RangeProof{}, nil, poolerr.New(poolerr.Proof, "range_decomposition_failed", "bit width out of bounds")
	}

	blinds := make([]curve.Scalar, nBits)
	sum := curve.ScalarZero()
	for k := 0; k < nBits-1; k++ {
		rk, err := curve.RandomScalar()
		if err != nil {
			return RangeProof{}, nil, err
		}
		blinds[k] = rk
		sum = sum.Add(rk)
	}
	blinds[nBits-1] = r.Add(sum.Negate())

	commitments := make([]curve.Point, nBits)
	proofs := make([]BitProof, nBits)
	for k := 0; k < nBits; k++ {
		bit := (v >> uint(k)) & 1
		c, err := bitCommitment(blinds[k], bit, k)
		if err != nil {
			return RangeProof{}, nil, err
		}
		commitments[k] = c

		bp, err := buildBitProof(blinds[k], bit, k, c)
		if err != nil {
			return RangeProof{}, nil, err
		}
		proofs[k] = bp
	}

	return RangeProof{BitCommitments: commitments, BitProofs: proofs}, blinds, nil
}

// VerifyRangeProof checks every bit commitment's OR proof and that the
// commitments sum to the claimed total commitment C = r*G + v*H (implicitly,
// by the caller comparing the sum of BitCommitments against C).
func VerifyRangeProof(rp RangeProof) error {
	if len(rp.BitCommitments) != len(rp.BitProofs) {
		return poolerr.New(poolerr.Proof, "range_decomposition_failed", "bit commitment/proof count mismatch")
	}
	for k, c := range rp.BitCommitments {
		if err := verifyBitProof(rp.BitProofs[k], k, c); err != nil {
			return err
		}
	}
	return nil
}

// SumCommitments folds a list of points with Add, used to check that a
// RangeProof's per-bit commitments reconstruct the original commitment.
func SumCommitments(points []curve.Point) (curve.Point, error) {
	if len(points) == 0 {
		return curve.Point{}, poolerr.New(poolerr.Proof, "empty_sum", "no points to sum")
	}
	acc := points[0]
	var err error
	for _, p := range points[1:] {
		acc, err = curve.Add(acc, p)
		if err != nil {
			return curve.Point{}, poolerr.Wrap(poolerr.Proof, "identity", "bit commitment sum produced the identity point", err)
		}
	}
	return acc, nil
}

func bitCommitment(rk curve.Scalar, bit uint64, k int) (curve.Point, error) {
	base, err := curve.ScalarBaseMult(rk)
	if err != nil {
		return curve.Point{}, poolerr.Wrap(poolerr.Proof, "bit_commitment", "failed to compute r_k*G", err)
	}
	if bit == 0 {
		return base, nil
	}
	shift, err := powerOfTwoTimesH(k)
	if err != nil {
		return curve.Point{}, err
	}
	return curve.Add(base, shift)
}

func powerOfTwoTimesH(k int) (curve.Point, error) {
	var raw [8]byte
	// k < MaxRangeBits == 64, so 2^k always fits in a uint64.
	val := uint64(1) << uint(k)
	for i := 0; i < 8; i++ {
		raw[7-i] = byte(val >> (8 * i))
	}
	sc, err := curve.ScalarFromBytes(raw[:])
	if err != nil {
		return curve.Point{}, poolerr.Wrap(poolerr.Proof, "bit_commitment", "failed to encode 2^k as a scalar", err)
	}
	return curve.ScalarMult(sc, curve.H())
}

// buildBitProof proves knowledge of the discrete log (w.r.t. G) of either
// commitment (bit 0 branch) or commitment-2^k*H (bit 1 branch), without
// revealing which -- the same CDS OR-composition pattern as the ring proof,
// specialized to two branches and challenge-bound to the bit's own
// commitment rather than a shared ring transcript.
func buildBitProof(rk curve.Scalar, bit uint64, k int, commitment curve.Point) (BitProof, error) {
	shift, err := powerOfTwoTimesH(k)
	if err != nil {
		return BitProof{}, err
	}
	target1, err := curve.Sub(commitment, shift)
	if err != nil {
		return BitProof{}, poolerr.Wrap(poolerr.Proof, "bit_commitment", "failed to compute commitment-2^k*H", err)
	}

	var e0, z0, e1, z1 curve.Scalar
	var realNonce curve.Scalar
	var realCommitPoint curve.Point

	if bit == 0 {
		e1, err = curve.RandomScalar()
		if err != nil {
			return BitProof{}, err
		}
		z1, err = curve.RandomScalar()
		if err != nil {
			return BitProof{}, err
		}
		realNonce, err = curve.RandomScalar()
		if err != nil {
			return BitProof{}, err
		}
		realCommitPoint, err = curve.ScalarBaseMult(realNonce)
		if err != nil {
			return BitProof{}, poolerr.Wrap(poolerr.Proof, "bit_commitment", "failed to compute branch-0 nonce commitment", err)
		}
	} else {
		e0, err = curve.RandomScalar()
		if err != nil {
			return BitProof{}, err
		}
		z0, err = curve.RandomScalar()
		if err != nil {
			return BitProof{}, err
		}
		realNonce, err = curve.RandomScalar()
		if err != nil {
			return BitProof{}, err
		}
		realCommitPoint, err = curve.ScalarBaseMult(realNonce)
		if err != nil {
			return BitProof{}, poolerr.Wrap(poolerr.Proof, "bit_commitment", "failed to compute branch-1 nonce commitment", err)
		}
	}

	var sim0, sim1 curve.Point
	if bit == 0 {
		sim1, err = simulateCommitment(z1, e1, target1)
		if err != nil {
			return BitProof{}, err
		}
		sim0 = realCommitPoint
	} else {
		sim0, err = simulateCommitment(z0, e0, commitment)
		if err != nil {
			return BitProof{}, err
		}
		sim1 = realCommitPoint
	}

	e := bitFiatShamirChallenge(k, commitment, sim0, sim1)

	if bit == 0 {
		e0 = e.Add(e1.Negate())
		z0 = realNonce.Add(e0.Mul(rk))
	} else {
		e1 = e.Add(e0.Negate())
		z1 = realNonce.Add(e1.Mul(rk))
	}

	return BitProof{Challenge0: e0, Response0: z0, Challenge1: e1, Response1: z1}, nil
}

func verifyBitProof(bp BitProof, k int, commitment curve.Point) error {
	shift, err := powerOfTwoTimesH(k)
	if err != nil {
		return err
	}
	target1, err := curve.Sub(commitment, shift)
	if err != nil {
		return poolerr.Wrap(poolerr.Proof, "bit_commitment", "failed to compute commitment-2^k*H", err)
	}

	sim0, err := simulateCommitment(bp.Response0, bp.Challenge0, commitment)
	if err != nil {
		return err
	}
	sim1, err := simulateCommitment(bp.Response1, bp.Challenge1, target1)
	if err != nil {
		return err
	}

	e := bitFiatShamirChallenge(k, commitment, sim0, sim1)
	challengeSum := bp.Challenge0.Add(bp.Challenge1)
	if !e.Equal(challengeSum) {
		return poolerr.New(poolerr.Proof, "challenge_sum_mismatch", "bit proof challenge sum does not match the Fiat-Shamir hash")
	}
	return nil
}

func bitFiatShamirChallenge(k int, commitment, sim0, sim1 curve.Point) curve.Scalar {
	var kb [4]byte
	kb[0] = byte(k)
	kb[1] = byte(k >> 8)
	kb[2] = byte(k >> 16)
	kb[3] = byte(k >> 24)
	digest := append(append(append(append([]byte{}, kb[:]...), commitment.Compressed()...), sim0.Compressed()...), sim1.Compressed()...)
	return curve.ScalarFromHash(blake2bSum(digest))
}
