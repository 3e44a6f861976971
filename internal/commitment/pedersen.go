// Package commitment implements Pedersen commitments and their multi-asset
// extension (spec.md §4.B), grounded on the NUMS generators the curve
// package derives.
package commitment

import (
	"github.com/rawblock/privacypool/internal/curve"
	"github.com/rawblock/privacypool/internal/poolerr"
)

// Commitment is the public point C = r*G + v*H (or its multi-asset form).
// It never wraps the identity -- Commit rejects any input that would
// produce one, per spec.md §4.B.
type Commitment struct {
	Point curve.Point
}

// Commit returns r*G + v*H. v is treated as an 64-bit unsigned magnitude
// (spec.md §3: "v is a non-negative integer <= 2^64-1").
func Commit(r curve.Scalar, v uint64) (Commitment, error) {
	return CommitMulti(r, []AssetAmount{{AssetID: nil, Amount: v}})
}

// AssetAmount is one (asset_id, amount) term of a multi-asset commitment.
// A nil/empty AssetID addresses the protocol's base denomination asset,
// whose generator is the fixed H rather than a derived H_id.
type AssetAmount struct {
	AssetID []byte
	Amount  uint64
}

// CommitMulti returns r*G + sum(amount_i * H_{id_i}) (spec.md §4.B). The
// per-asset generators are resolved through the shared, memoized table
// (spec.md §9).
func CommitMulti(r curve.Scalar, amounts []AssetAmount) (Commitment, error) {
	acc, err := curve.ScalarBaseMult(r)
	if err != nil {
		return Commitment{}, poolerr.Wrap(poolerr.Commitment, "base_term", "failed to compute r*G", err)
	}

	for _, aa := range amounts {
		gen, err := generatorFor(aa.AssetID)
		if err != nil {
			return Commitment{}, err
		}
		if aa.Amount == 0 {
			continue
		}
		term, err := curve.ScalarMult(scalarFromUint64(aa.Amount), gen)
		if err != nil {
			return Commitment{}, poolerr.Wrap(poolerr.Commitment, "asset_term", "failed to compute amount*H_id", err)
		}
		acc, err = curve.Add(acc, term)
		if err != nil {
			return Commitment{}, poolerr.Wrap(poolerr.Commitment, "identity", "commitment accumulation produced the identity point", err)
		}
	}
	return Commitment{Point: acc}, nil
}

// Open verifies that C == commit(r, v); spec.md §4.B rejects r == 0 (callers
// can never construct a zero Scalar anyway -- curve.Scalar's decoders
// reject it) and any v whose recomputed commitment mismatches.
func Open(c Commitment, r curve.Scalar, v uint64) (bool, error) {
	return OpenMulti(c, r, []AssetAmount{{Amount: v}})
}

// OpenMulti is the multi-asset form of Open.
func OpenMulti(c Commitment, r curve.Scalar, amounts []AssetAmount) (bool, error) {
	recomputed, err := CommitMulti(r, amounts)
	if err != nil {
		return false, err
	}
	return c.Point.Equal(recomputed.Point), nil
}

// Add returns c1 + c2, exercising the homomorphism
// commit(r1,v1) + commit(r2,v2) == commit(r1+r2, v1+v2) (spec.md §8.4).
// Add/Sub require both operands to carry the same asset set, but because
// Commitment only stores the resulting point (not the asset list that
// produced it), that invariant is the caller's responsibility to uphold by
// construction -- exactly as the on-chain script only ever sees the point.
func Add(c1, c2 Commitment) (Commitment, error) {
	p, err := curve.Add(c1.Point, c2.Point)
	if err != nil {
		return Commitment{}, poolerr.Wrap(poolerr.Commitment, "identity", "commitment sum is the identity point", err)
	}
	return Commitment{Point: p}, nil
}

// Sub returns c1 - c2.
func Sub(c1, c2 Commitment) (Commitment, error) {
	p, err := curve.Sub(c1.Point, c2.Point)
	if err != nil {
		return Commitment{}, poolerr.Wrap(poolerr.Commitment, "identity", "commitment difference is the identity point", err)
	}
	return Commitment{Point: p}, nil
}

func scalarFromUint64(v uint64) curve.Scalar {
	var raw [8]byte
	for i := 0; i < 8; i++ {
		raw[7-i] = byte(v >> (8 * i))
	}
	// A uint64 amount is always representable as a nonzero-padded 32-byte
	// scalar < n (secp256k1's n exceeds 2^64 by a wide margin), except for
	// the amount-zero case which callers already skip before calling this.
	sc, err := curve.ScalarFromBytes(raw[:])
	if err != nil {
		// v == 0 is the only way ScalarFromBytes rejects an 8-byte input
		// here (zero scalar); CommitMulti never calls this with 0.
		panic("commitment: unexpected scalar decode failure for amount: " + err.Error())
	}
	return sc
}
