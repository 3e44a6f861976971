package proof

import (
	"golang.org/x/crypto/blake2b"

	"github.com/rawblock/privacypool/internal/curve"
	"github.com/rawblock/privacypool/internal/poolerr"
)

// RingElement is one index's challenge/response pair in the assembled
// Fiat-Shamir transcript (spec.md §4.C step 3).
type RingElement struct {
	Challenge curve.Scalar
	Response  curve.Scalar
}

// RingProof is the witness bundle the withdrawal processor attaches as the
// pool input's context-extension variable 0 (spec.md §4.C step 4, §6): one
// (challenge, response) pair per ring index, whose challenges sum (mod n)
// to the Fiat-Shamir hash of the transcript message and every index's
// first-move commitments.
type RingProof struct {
	Elements []RingElement
}

// BuildRingProof assembles the DH-tuple ring signature described in
// spec.md §4.C: "at least one index i in the ring satisfies
// proveDHTuple(G, H, T_i, I)" where T_i = C_i - denom*H. realIndex must
// satisfy T_{realIndex} == r*G; the caller (pool client) is responsible for
// locating realIndex and supplying the matching secret r.
//
// This implements the standard CDS-style sigma-protocol OR-composition:
// every decoy index's challenge/response is sampled freely and its
// first-move commitments are derived backwards from them; the real index's
// first-move commitments come from a fresh random nonce, and its challenge
// is fixed as the residual once every decoy's challenge and the overall
// Fiat-Shamir hash are known.
func BuildRingProof(txMessage []byte, ring []curve.Point, denom uint64, realIndex int, r curve.Scalar) (RingProof, error) {
	n := len(ring)
	if realIndex < 0 || realIndex >= n {
		return RingProof{}, poolerr.New(poolerr.Proof, "ring_index_out_of_range", "real index is out of range for the ring")
	}

	ts, err := computeTValues(ring, denom)
	if err != nil {
		return RingProof{}, err
	}

	// Sanity-check the real index really opens to r*G (spec.md §4.C step 2).
	expected, err := curve.ScalarBaseMult(r)
	if err != nil {
		return RingProof{}, poolerr.Wrap(poolerr.Proof, "real_index_check", "failed to compute r*G", err)
	}
	if !ts[realIndex].Equal(expected) {
		return RingProof{}, poolerr.New(poolerr.Proof, "real_index_mismatch", "real index's T_j does not equal r*G")
	}

	challenges := make([]curve.Scalar, n)
	responses := make([]curve.Scalar, n)
	firstMoveA := make([]curve.Point, n) // t1_i = z_i*G - e_i*T_i   (real index: k_j*G)
	firstMoveB := make([]curve.Point, n) // t2_i = z_i*H - e_i*I     (real index: k_j*H)

	nullifier, err := Nullifier(r)
	if err != nil {
		return RingProof{}, err
	}

	challengeSum := curve.ScalarZero()

	var k curve.Scalar
	for i := 0; i < n; i++ {
		if i == realIndex {
			k, err = curve.RandomScalar()
			if err != nil {
				return RingProof{}, err
			}
			a, err := curve.ScalarBaseMult(k)
			if err != nil {
				return RingProof{}, poolerr.Wrap(poolerr.Proof, "commitment", "failed to compute real-index commitment k*G", err)
			}
			b, err := curve.ScalarMult(k, curve.H())
			if err != nil {
				return RingProof{}, poolerr.Wrap(poolerr.Proof, "commitment", "failed to compute real-index commitment k*H", err)
			}
			firstMoveA[i], firstMoveB[i] = a, b
			continue
		}

		ei, err := curve.RandomScalar()
		if err != nil {
			return RingProof{}, err
		}
		zi, err := curve.RandomScalar()
		if err != nil {
			return RingProof{}, err
		}
		challenges[i] = ei
		responses[i] = zi
		challengeSum = challengeSum.Add(ei)

		a, err := simulateCommitment(zi, ei, ts[i])
		if err != nil {
			return RingProof{}, err
		}
		b, err := simulateCommitmentBase(zi, ei, curve.H(), nullifier)
		if err != nil {
			return RingProof{}, err
		}
		firstMoveA[i], firstMoveB[i] = a, b
	}

	e := fiatShamirChallenge(txMessage, firstMoveA, firstMoveB)
	eReal := e.Add(challengeSum.Negate())
	challenges[realIndex] = eReal
	responses[realIndex] = k.Add(eReal.Mul(r))

	elements := make([]RingElement, n)
	for i := 0; i < n; i++ {
		elements[i] = RingElement{Challenge: challenges[i], Response: responses[i]}
	}
	return RingProof{Elements: elements}, nil
}

// VerifyRingProof re-derives each index's first-move commitments from its
// (challenge, response) pair, recomputes the Fiat-Shamir hash, and checks
// that the challenges sum to it -- the same verification equation the
// on-chain script's atLeast(1, proveDHTuple(...)) enforces (spec.md §4.C,
// §8.2).
func VerifyRingProof(proof RingProof, txMessage []byte, ring []curve.Point, denom uint64, nullifier curve.Point) error {
	n := len(ring)
	if len(proof.Elements) != n {
		return poolerr.New(poolerr.Proof, "ring_size_mismatch", "proof element count does not match ring size")
	}
	ts, err := computeTValues(ring, denom)
	if err != nil {
		return err
	}

	firstMoveA := make([]curve.Point, n)
	firstMoveB := make([]curve.Point, n)
	challengeSum := curve.ScalarZero()

	for i, el := range proof.Elements {
		a, err := simulateCommitment(el.Response, el.Challenge, ts[i])
		if err != nil {
			return err
		}
		b, err := simulateCommitmentBase(el.Response, el.Challenge, curve.H(), nullifier)
		if err != nil {
			return err
		}
		firstMoveA[i], firstMoveB[i] = a, b
		challengeSum = challengeSum.Add(el.Challenge)
	}

	e := fiatShamirChallenge(txMessage, firstMoveA, firstMoveB)
	if !e.Equal(challengeSum) {
		return poolerr.New(poolerr.Proof, "challenge_sum_mismatch", "ring proof challenge sum does not match the Fiat-Shamir hash")
	}
	return nil
}

// simulateCommitment computes z*Base - e*Image, the standard Sigma-protocol
// "simulated first move" used both to forge decoy transcripts and to
// recompute every index's commitment when verifying.
func simulateCommitment(z, e curve.Scalar, image curve.Point) (curve.Point, error) {
	zBase, err := curve.ScalarBaseMult(z)
	if err != nil {
		return curve.Point{}, poolerr.Wrap(poolerr.Proof, "commitment", "failed to compute z*G", err)
	}
	eImage, err := curve.ScalarMult(e, image)
	if err != nil {
		return curve.Point{}, poolerr.Wrap(poolerr.Proof, "commitment", "failed to compute e*image", err)
	}
	return curve.Sub(zBase, eImage)
}

// simulateCommitmentBase is like simulateCommitment but against an
// arbitrary base instead of G (used for the H-base half of each DH-tuple).
func simulateCommitmentBase(z, e curve.Scalar, base, image curve.Point) (curve.Point, error) {
	zBase, err := curve.ScalarMult(z, base)
	if err != nil {
		return curve.Point{}, poolerr.Wrap(poolerr.Proof, "commitment", "failed to compute z*base", err)
	}
	eImage, err := curve.ScalarMult(e, image)
	if err != nil {
		return curve.Point{}, poolerr.Wrap(poolerr.Proof, "commitment", "failed to compute e*image", err)
	}
	return curve.Sub(zBase, eImage)
}

// computeTValues computes T_i = C_i - denom*H for every ring entry
// (spec.md §4.C step 2).
func computeTValues(ring []curve.Point, denom uint64) ([]curve.Point, error) {
	denomScalarBytes := make([]byte, 8)
	for i := 0; i < 8; i++ {
		denomScalarBytes[7-i] = byte(denom >> (8 * i))
	}
	ds, err := curve.ScalarFromBytes(denomScalarBytes)
	if err != nil {
		return nil, poolerr.Wrap(poolerr.Proof, "denom_scalar", "failed to encode denomination as a scalar", err)
	}
	denomH, err := curve.ScalarMult(ds, curve.H())
	if err != nil {
		return nil, poolerr.Wrap(poolerr.Proof, "denom_term", "failed to compute denom*H", err)
	}

	out := make([]curve.Point, len(ring))
	for i, c := range ring {
		t, err := curve.Sub(c, denomH)
		if err != nil {
			return nil, poolerr.Wrap(poolerr.Proof, "t_value", "failed to compute C_i - denom*H", err)
		}
		out[i] = t
	}
	return out, nil
}

// fiatShamirChallenge hashes the transaction-binding message together with
// every index's first-move commitments, matching spec.md §4.C step 3's
// "Σ challenge_i = H_challenge(tx_message, commitments...)" and using
// Blake2b-256 as the protocol's canonical hash function.
func fiatShamirChallenge(txMessage []byte, as, bs []curve.Point) curve.Scalar {
	h, _ := blake2b.New256(nil)
	h.Write(txMessage)
	for i := range as {
		h.Write(as[i].Compressed())
		h.Write(bs[i].Compressed())
	}
	return curve.ScalarFromHash(h.Sum(nil))
}
