// Package proof implements the Sigma-protocol witness assembly spec.md §4.C
// describes: nullifier derivation, the DH-tuple ring signature with
// Fiat-Shamir challenge splitting, the bit-decomposition range proof, and
// the algebraic balance proof.
package proof

import (
	"github.com/rawblock/privacypool/internal/curve"
	"github.com/rawblock/privacypool/internal/poolerr"
)

// Nullifier computes I = r*H for a deposit secret r. Because H is globally
// fixed, two withdrawals from the same r produce the same I -- this is the
// double-spend detector spec.md §4.C relies on. Rejects the vanishingly
// unlikely (and protocol-invalid) case of I landing on G or H.
func Nullifier(r curve.Scalar) (curve.Point, error) {
	i, err := curve.ScalarMult(r, curve.H())
	if err != nil {
		return curve.Point{}, poolerr.Wrap(poolerr.Proof, "nullifier_identity", "nullifier computation produced the identity point", err)
	}
	if i.Equal(curve.G()) || i.Equal(curve.H()) {
		return curve.Point{}, poolerr.New(poolerr.Validation, "banned_point", "nullifier coincides with a banned base point")
	}
	return i, nil
}
