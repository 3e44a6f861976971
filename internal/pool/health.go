package pool

import "github.com/rawblock/privacypool/pkg/models"

// Risk-flag point deductions, carried over verbatim from the original
// SDK's _compute_privacy_score (defi/privacy_pool.py) per SPEC_FULL.md §11.
const (
	scorePerUniqueKey       = 10
	deductLowRingSize       = 30
	deductDuplicateKeys     = 40
	deductInflatedRing      = 20
	deductLowLiquidity      = 10
	deductHighWithdrawRatio = 15

	lowRingSizeThreshold  = 4
	highWithdrawRatioFrac = 0.5
)

// EvaluateHealth builds the structured risk assessment spec.md §4.E
// requires, flagging ring size, duplicate/inflated keys, liquidity, and
// withdrawal ratio, then bucketing a raw score into the five-level
// HealthScore.
func EvaluateHealth(poolID string, pb models.PoolBox) models.HealthReport {
	ringSize := len(pb.DepositorKeys)
	uniqueCount, duplicateCount := countUnique(pb.DepositorKeys)

	nullifierCount := nullifierCount(pb.Nullifiers)
	tokenBalance := pb.Token.Amount
	withdrawable := int64(0)
	if pb.Denomination > 0 {
		withdrawable = tokenBalance / pb.Denomination
	}

	var flags []string
	rawScore := uniqueCount * scorePerUniqueKey

	if ringSize < lowRingSizeThreshold {
		flags = append(flags, "LOW_RING_SIZE: Ring < 4, weak anonymity")
		rawScore -= deductLowRingSize
	}
	if duplicateCount > 0 {
		flags = append(flags, "DUPLICATE_KEYS: ring poisoning suspected")
		rawScore -= deductDuplicateKeys
	}
	if uniqueCount < ringSize {
		flags = append(flags, "INFLATED_RING: reported ring size exceeds unique keys")
		rawScore -= deductInflatedRing
	}
	if ringSize > 0 && withdrawable < int64(ringSize) {
		flags = append(flags, "LOW_LIQUIDITY: fewer withdrawals possible than ring size")
		rawScore -= deductLowLiquidity
	}
	if ringSize > 0 && float64(nullifierCount)/float64(ringSize) > highWithdrawRatioFrac {
		flags = append(flags, "HIGH_WITHDRAWAL_RATIO: over half the ring has withdrawn")
		rawScore -= deductHighWithdrawRatio
	}

	return models.HealthReport{
		PoolID:             poolID,
		RingSize:           ringSize,
		EffectiveAnonymity: uniqueCount,
		DuplicateKeyCount:  duplicateCount,
		NullifierCount:     nullifierCount,
		Denomination:       pb.Denomination,
		TokenBalance:       tokenBalance,
		WithdrawableCount:  withdrawable,
		RiskFlags:          flags,
		Score:              bucketScore(rawScore),
		RawScore:           rawScore,
	}
}

func bucketScore(raw int) models.HealthScore {
	switch {
	case raw >= 100:
		return models.HealthExcellent
	case raw >= 60:
		return models.HealthGood
	case raw >= 30:
		return models.HealthFair
	case raw >= 10:
		return models.HealthPoor
	default:
		return models.HealthCritical
	}
}

func nullifierCount(n models.NullifierState) int {
	if n.Kind == models.NullifierStateList {
		return len(n.List)
	}
	// Tree-typed nullifier sets don't carry an enumerable count locally --
	// the AVL digest only proves membership, not cardinality -- so a
	// tree-backed pool's nullifier count is reported as 0 here and callers
	// needing the exact count must track it out-of-band (e.g. from the
	// relayer's own sweep history), matching privacy_pool.py's R5-type
	// branch which defers the same question to the node validator.
	return 0
}
