package proof

import (
	"github.com/rawblock/privacypool/internal/curve"
	"github.com/rawblock/privacypool/internal/poolerr"
)

// BalanceProof is a standard Schnorr proof of knowledge of deltaR on G,
// demonstrating that a multi-output split's residual commitment
// Σ C_in - Σ C_out carries no H component (spec.md §4.C "Balance proof").
type BalanceProof struct {
	Commitment curve.Point // k*G
	Challenge  curve.Scalar
	Response   curve.Scalar
}

// BuildBalanceProof proves knowledge of deltaR such that residual == deltaR*G.
// Callers are responsible for choosing output randomness so that the residual
// actually has no H component before calling this (spec.md §4.C: "the client
// selects output randomness so the sum matches").
func BuildBalanceProof(residual curve.Point, deltaR curve.Scalar) (BalanceProof, error) {
	k, err := curve.RandomScalar()
	if err != nil {
		return BalanceProof{}, err
	}
	commitment, err := curve.ScalarBaseMult(k)
	if err != nil {
		return BalanceProof{}, poolerr.Wrap(poolerr.Proof, "balance_commitment", "failed to compute k*G", err)
	}

	e := balanceFiatShamirChallenge(residual, commitment)
	z := k.Add(e.Mul(deltaR))
	return BalanceProof{Commitment: commitment, Challenge: e, Response: z}, nil
}

// VerifyBalanceProof checks z*G == commitment + e*residual, and that e was
// honestly derived from (residual, commitment) via Fiat-Shamir.
func VerifyBalanceProof(bp BalanceProof, residual curve.Point) error {
	expectedE := balanceFiatShamirChallenge(residual, bp.Commitment)
	if !expectedE.Equal(bp.Challenge) {
		return poolerr.New(poolerr.Proof, "challenge_mismatch", "balance proof challenge was not honestly derived")
	}

	zG, err := curve.ScalarBaseMult(bp.Response)
	if err != nil {
		return poolerr.Wrap(poolerr.Proof, "balance_commitment", "failed to compute z*G", err)
	}
	eResidual, err := curve.ScalarMult(bp.Challenge, residual)
	if err != nil {
		return poolerr.Wrap(poolerr.Proof, "balance_commitment", "failed to compute e*residual", err)
	}
	expected, err := curve.Add(bp.Commitment, eResidual)
	if err != nil {
		return poolerr.Wrap(poolerr.Proof, "identity", "balance verification equation produced the identity point", err)
	}
	if !zG.Equal(expected) {
		return poolerr.New(poolerr.Proof, "balance_residual_nonzero_h", "balance residual has a non-zero H component")
	}
	return nil
}

func balanceFiatShamirChallenge(residual, commitment curve.Point) curve.Scalar {
	digest := append(append([]byte{}, residual.Compressed()...), commitment.Compressed()...)
	return curve.ScalarFromHash(blake2bSum(digest))
}
