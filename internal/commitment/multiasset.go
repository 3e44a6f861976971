// Private OTC multi-asset swap primitives, grounded on the original SDK's
// crypto/multi_asset.py: a deterministic per-asset NUMS generator chain
// (already provided by generatorFor/curve.HashToCurveAsset) plus a balance
// proof that a basket of multi-asset commitments nets to zero, the
// building block an over-the-counter swap uses to prove "what I'm giving
// up equals what I'm receiving" without revealing any individual amount.
//
// spec.md scopes pool operations to a single denomination asset; these
// primitives exist standalone for that reason -- no pool-building path in
// this repo invokes them.
package commitment

import (
	"golang.org/x/crypto/blake2b"

	"github.com/rawblock/privacypool/internal/curve"
	"github.com/rawblock/privacypool/internal/poolerr"
)

// ERGAssetID is the sentinel AssetAmount.AssetID for the chain's native
// asset, whose generator is the fixed H rather than a derived H_id
// (mirrors the original's ERG_ASSET_ID constant).
var ERGAssetID = []byte(nil)

// MultiAssetCommitment pairs a basket of (asset, amount) terms with the
// commitment point they produced, so an OTC leg can be reasoned about
// without re-deriving its generators.
type MultiAssetCommitment struct {
	Commitment Commitment
	Amounts    []AssetAmount
}

// CommitBasket builds a MultiAssetCommitment over an arbitrary basket of
// assets, e.g. one party's side of an OTC swap.
func CommitBasket(r curve.Scalar, amounts []AssetAmount) (MultiAssetCommitment, error) {
	c, err := CommitMulti(r, amounts)
	if err != nil {
		return MultiAssetCommitment{}, err
	}
	return MultiAssetCommitment{Commitment: c, Amounts: amounts}, nil
}

// SumCommitments folds a list of per-leg commitments into one point,
// exercising the same homomorphic Add every multi-input/output transaction
// relies on (spec.md §8.4).
func SumCommitments(cs []Commitment) (Commitment, error) {
	if len(cs) == 0 {
		return Commitment{}, poolerr.New(poolerr.Commitment, "empty_basket", "cannot sum an empty commitment list")
	}
	acc := cs[0]
	var err error
	for _, c := range cs[1:] {
		acc, err = Add(acc, c)
		if err != nil {
			return Commitment{}, err
		}
	}
	return acc, nil
}

// SwapBalanceProof is a Schnorr proof of knowledge of deltaR on G,
// demonstrating that what the give side of an OTC swap commits to and what
// the take side commits to differ only in blinding factor, never in the
// asset amounts carried (prove_multi_asset_balance). It has the identical
// shape to proof.BalanceProof; kept as its own type here so this package
// never needs to import internal/proof for a single struct.
type SwapBalanceProof struct {
	Commitment curve.Point
	Challenge  curve.Scalar
	Response   curve.Scalar
}

// ProveMultiAssetBalance proves that give and take (each a basket of
// possibly several assets) commit to the same per-asset amounts: the
// residual give-take carries no leftover H_i component, only deltaR*G.
// Callers compute deltaR as (r_give - r_take) over the matching baskets.
func ProveMultiAssetBalance(give, take Commitment, deltaR curve.Scalar) (SwapBalanceProof, error) {
	residual, err := Sub(give, take)
	if err != nil {
		return SwapBalanceProof{}, err
	}
	k, err := curve.RandomScalar()
	if err != nil {
		return SwapBalanceProof{}, err
	}
	commitment, err := curve.ScalarBaseMult(k)
	if err != nil {
		return SwapBalanceProof{}, poolerr.Wrap(poolerr.Commitment, "swap_balance_commitment", "failed to compute k*G", err)
	}
	e := swapFiatShamirChallenge(residual.Point, commitment)
	z := k.Add(e.Mul(deltaR))
	return SwapBalanceProof{Commitment: commitment, Challenge: e, Response: z}, nil
}

// VerifySwapBalance checks a SwapBalanceProof against the same give/take
// commitments ProveMultiAssetBalance was built from.
func VerifySwapBalance(bp SwapBalanceProof, give, take Commitment) error {
	residual, err := Sub(give, take)
	if err != nil {
		return err
	}
	expectedE := swapFiatShamirChallenge(residual.Point, bp.Commitment)
	if !expectedE.Equal(bp.Challenge) {
		return poolerr.New(poolerr.Proof, "challenge_mismatch", "swap balance proof challenge was not honestly derived")
	}

	zG, err := curve.ScalarBaseMult(bp.Response)
	if err != nil {
		return poolerr.Wrap(poolerr.Proof, "swap_balance_commitment", "failed to compute z*G", err)
	}
	eResidual, err := curve.ScalarMult(bp.Challenge, residual.Point)
	if err != nil {
		return poolerr.Wrap(poolerr.Proof, "swap_balance_commitment", "failed to compute e*residual", err)
	}
	expected, err := curve.Add(bp.Commitment, eResidual)
	if err != nil {
		return poolerr.Wrap(poolerr.Proof, "identity", "swap balance verification equation produced the identity point", err)
	}
	if !zG.Equal(expected) {
		return poolerr.New(poolerr.Proof, "balance_residual_nonzero_h", "swap balance residual has a non-zero asset-generator component")
	}
	return nil
}

func swapFiatShamirChallenge(residual, commitment curve.Point) curve.Scalar {
	digest := append(append([]byte{}, residual.Compressed()...), commitment.Compressed()...)
	sum := blake2b.Sum256(digest)
	return curve.ScalarFromHash(sum[:])
}
