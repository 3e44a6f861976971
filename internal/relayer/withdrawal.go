package relayer

import (
	"encoding/hex"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/rawblock/privacypool/internal/curve"
	"github.com/rawblock/privacypool/internal/poolerr"
	"github.com/rawblock/privacypool/internal/register"
	"github.com/rawblock/privacypool/pkg/models"
)

// WithdrawalProcessor forwards exactly one IntentToWithdraw box per
// transaction into the pool's nullifier set, mirroring
// WithdrawalRelayer.build_withdrawal_tx. Unlike the deposit side, a
// withdrawal's ring-signature proof was already assembled by the
// depositor's own pool.Client.BuildWithdrawal call (the relayer never
// holds a depositor's secret); ringProofHex here is that proof, which the
// sweeper reads from the intent box's R5 register.
type WithdrawalProcessor struct{}

func NewWithdrawalProcessor() *WithdrawalProcessor { return &WithdrawalProcessor{} }

// ValidateIntent checks an IntentToWithdraw box is well-formed: the
// nullifier decodes and isn't banned, the payout script is non-empty, and
// the pool holds enough value to cover the payout plus the miner fee
// (withdrawal_relayer.py validate_intent).
func (p *WithdrawalProcessor) ValidateIntent(pool models.PoolBox, intent models.IntentToWithdrawBox) error {
	point, err := curve.DecodePointHex(intent.NullifierHex)
	if err != nil {
		return err
	}
	if isBanned(point) {
		return poolerr.New(poolerr.Validation, "banned_point", "nullifier must not be the curve generator or NUMS constant H")
	}
	if pool.Nullifiers.Contains(intent.NullifierHex) {
		return poolerr.New(poolerr.Validation, "nullifier_spent", "nullifier already recorded in the pool")
	}
	if intent.PayoutErgoTree == "" {
		return poolerr.New(poolerr.Validation, "empty_payout", "payout ergo tree must not be empty")
	}
	if pool.Value < pool.Denomination+MinerFee {
		return poolerr.New(poolerr.Resolution, "insufficient_pool_value", "pool does not hold enough value to cover the withdrawal and fee")
	}
	return nil
}

// BuildWithdrawal sweeps one validated intent: value -= denom, R5 gains the
// nullifier, R4/R6/R7 unchanged. ringProofHex is attached verbatim as the
// pool input's context-extension var 0; the nullifier insert proof this
// function derives is attached as var 1 (spec.md §4.C, §6).
func (p *WithdrawalProcessor) BuildWithdrawal(pool models.PoolBox, intent models.IntentToWithdrawBox, ringProofHex string) (models.TxDraft, models.SweepResult, error) {
	if err := p.ValidateIntent(pool, intent); err != nil {
		return models.TxDraft{}, models.SweepResult{}, err
	}

	newR5, nullifierProofHex, err := insertNullifier(pool.Nullifiers, intent.NullifierHex)
	if err != nil {
		return models.TxDraft{}, models.SweepResult{}, err
	}
	newValue := pool.Value - pool.Denomination

	poolOutput := models.UnsignedOutput{
		Value:    newValue,
		ErgoTree: pool.ErgoTree,
		Assets:   []models.Token{{TokenID: pool.Token.TokenID, Amount: pool.Token.Amount - pool.Denomination}},
		AdditionalRegisters: map[string]string{
			"R4": mustEncodeR4(pool.DepositorKeys),
			"R5": newR5,
			"R6": register.EncodeR6(pool.Denomination),
			"R7": register.EncodeR7(pool.MaxRingSize),
		},
	}
	payoutOutput := models.UnsignedOutput{Value: pool.Denomination, ErgoTree: intent.PayoutErgoTree}
	feeOutput := models.UnsignedOutput{Value: MinerFee, ErgoTree: FeeErgoTree}

	poolExt := map[string]models.ContextVar{
		"0": {TypeTag: 0x0e, DataHex: ringProofHex},
		"1": {TypeTag: 0x0e, DataHex: nullifierProofHex},
	}
	inputs := []models.UnsignedInput{
		{BoxID: pool.BoxID, Extension: poolExt},
		{BoxID: intent.BoxID, Extension: map[string]models.ContextVar{}},
	}

	rawBytes := rawBytesOf(pool.RawBytes)
	if intent.RawBytes != "" {
		rawBytes = append(rawBytes, intent.RawBytes)
	}

	tx := models.UnsignedTx{
		Inputs:  inputs,
		Outputs: []models.UnsignedOutput{poolOutput, payoutOutput, feeOutput},
	}

	draftID := uuid.NewString()
	result := models.SweepResult{
		SweepID:     draftID,
		Kind:        models.DraftWithdrawal,
		PoolID:      pool.BoxID,
		BatchSize:   1,
		RingBefore:  len(pool.DepositorKeys),
		RingAfter:   len(pool.DepositorKeys),
		ValueBefore: pool.Value,
		ValueAfter:  newValue,
	}

	return models.TxDraft{DraftID: draftID, Kind: models.DraftWithdrawal, Tx: tx, InputsRaw: rawBytes}, result, nil
}

func mustEncodeR4(keys []string) string {
	enc, err := register.EncodeR4(keys)
	if err != nil {
		panic("relayer: unexpected R4 re-encode failure: " + err.Error())
	}
	return enc
}

// encodeNullifiers re-serializes a NullifierState's current R5 register,
// unchanged -- used when a deposit batch leaves the nullifier set untouched.
func encodeNullifiers(n models.NullifierState) (string, error) {
	switch n.Kind {
	case models.NullifierStateList:
		return register.EncodeR5List(n.List)
	case models.NullifierStateTree:
		return register.EncodeR5Tree(n.Tree.DigestHex)
	default:
		return "", poolerr.New(poolerr.Serialization, "bad_kind", "unrecognized nullifier state kind")
	}
}

// insertNullifier mirrors internal/pool's insert logic: the collection
// variant appends directly; the AVL-tree variant derives a deterministic
// placeholder digest chain (Blake2b-256(oldDigest||nullifier)) in place of
// the real Rust ergo_avltree insert proof the reference relayer also falls
// back from (deposit_relayer.py/_generate_batch_avl_proof's ImportError
// branch), since that native dependency has no Go equivalent in this stack.
func insertNullifier(n models.NullifierState, nullifierHex string) (newR5Hex string, proofHex string, err error) {
	switch n.Kind {
	case models.NullifierStateList:
		updated := append(append([]string{}, n.List...), nullifierHex)
		r5, err := register.EncodeR5List(updated)
		if err != nil {
			return "", "", err
		}
		return r5, nullifierHex, nil

	case models.NullifierStateTree:
		oldDigest, err := hex.DecodeString(n.Tree.DigestHex)
		if err != nil {
			return "", "", poolerr.Wrap(poolerr.Serialization, "bad_digest", "existing AVL digest is not valid hex", err)
		}
		nullifier, err := hex.DecodeString(nullifierHex)
		if err != nil {
			return "", "", poolerr.Wrap(poolerr.Serialization, "bad_nullifier", "nullifier is not valid hex", err)
		}
		sum := blake2b.Sum256(append(append([]byte{}, oldDigest...), nullifier...))
		digest33 := make([]byte, 33)
		copy(digest33, sum[:])
		r5, err := register.EncodeR5Tree(hex.EncodeToString(digest33))
		if err != nil {
			return "", "", err
		}
		return r5, hex.EncodeToString(digest33), nil

	default:
		return "", "", poolerr.New(poolerr.Serialization, "bad_kind", "unrecognized nullifier state kind")
	}
}
