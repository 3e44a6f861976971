package pool

import (
	"context"
	"sort"
	"strconv"

	"github.com/google/uuid"

	"github.com/rawblock/privacypool/internal/curve"
	"github.com/rawblock/privacypool/internal/poolerr"
	"github.com/rawblock/privacypool/internal/proof"
	"github.com/rawblock/privacypool/internal/register"
	"github.com/rawblock/privacypool/pkg/models"
)

// NodeReader is the subset of the Node collaborator the pool client needs.
// Kept narrow so tests can supply a fake without pulling in the HTTP client.
type NodeReader interface {
	GetBoxesByScript(ctx context.Context, scriptHash string, limit int) ([]models.Box, error)
	GetBoxByID(ctx context.Context, boxID string) (*models.Box, error)
}

const defaultScanLimit = 500

// Client is the pool client described in spec.md §4.E.
type Client struct {
	node           NodeReader
	poolScriptHash string
	feeErgoTree    string
	minerFee       int64
}

// NewClient builds a pool Client scoped to one compiled pool contract.
func NewClient(n NodeReader, poolScriptHash, feeErgoTree string, minerFee int64) *Client {
	return &Client{node: n, poolScriptHash: poolScriptHash, feeErgoTree: feeErgoTree, minerFee: minerFee}
}

// ListPools scans the chain for live pool boxes and summarizes each one
// matching the requested denomination (spec.md §4.E list_pools). A
// denomination of 0 matches every pool.
func (c *Client) ListPools(ctx context.Context, denomination int64) ([]models.PoolSummary, error) {
	boxes, err := c.node.GetBoxesByScript(ctx, c.poolScriptHash, defaultScanLimit)
	if err != nil {
		return nil, poolerr.Wrap(poolerr.Resolution, "scan_failed", "failed to scan for pool boxes", err)
	}

	var out []models.PoolSummary
	for _, box := range boxes {
		pb, err := DecodePoolBox(box)
		if err != nil {
			continue // a box that doesn't decode as a pool box is not one; skip, don't fail the whole scan
		}
		if denomination != 0 && pb.Denomination != denomination {
			continue
		}
		out = append(out, summarize(pb))
	}
	return out, nil
}

func summarize(pb models.PoolBox) models.PoolSummary {
	ringSize := len(pb.DepositorKeys)
	uniqueCount, _ := countUnique(pb.DepositorKeys)
	withdrawable := int64(0)
	if pb.Denomination > 0 {
		withdrawable = pb.Token.Amount / pb.Denomination
	}
	slotsRemaining := pb.MaxRingSize - int32(ringSize)
	if slotsRemaining < 0 {
		slotsRemaining = 0
	}
	return models.PoolSummary{
		PoolID:            pb.BoxID,
		Denomination:      pb.Denomination,
		RingSize:          ringSize,
		UniqueKeyCount:    uniqueCount,
		MaxRingSize:       pb.MaxRingSize,
		NullifierCount:    nullifierCount(pb.Nullifiers),
		TokenBalance:      pb.Token.Amount,
		WithdrawableCount: withdrawable,
		SlotsRemaining:    slotsRemaining,
		IsFull:            int32(ringSize) >= pb.MaxRingSize,
	}
}

// SelectBestPool picks the largest non-full ring, breaking ties by most
// slots remaining (spec.md §4.E select_best_pool).
func (c *Client) SelectBestPool(ctx context.Context, denomination int64) (*models.PoolSummary, error) {
	pools, err := c.ListPools(ctx, denomination)
	if err != nil {
		return nil, err
	}
	var candidates []models.PoolSummary
	for _, p := range pools {
		if !p.IsFull {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].RingSize != candidates[j].RingSize {
			return candidates[i].RingSize > candidates[j].RingSize
		}
		return candidates[i].SlotsRemaining > candidates[j].SlotsRemaining
	})
	best := candidates[0]
	return &best, nil
}

// EvaluatePoolHealth implements spec.md §4.E evaluate_pool_health.
func (c *Client) EvaluatePoolHealth(ctx context.Context, poolID string) (models.HealthReport, error) {
	pb, err := c.fetchPool(ctx, poolID)
	if err != nil {
		return models.HealthReport{}, err
	}
	return EvaluateHealth(poolID, pb), nil
}

func (c *Client) fetchPool(ctx context.Context, poolID string) (models.PoolBox, error) {
	box, err := c.node.GetBoxByID(ctx, poolID)
	if err != nil {
		return models.PoolBox{}, poolerr.Wrap(poolerr.Resolution, "box_fetch_failed", "failed to fetch pool box", err)
	}
	if box == nil {
		return models.PoolBox{}, poolerr.New(poolerr.Resolution, "box_not_found", "pool box not found")
	}
	return DecodePoolBox(*box)
}

// BuildDeposit implements spec.md §4.E build_deposit, running every
// validation before emitting a draft.
func (c *Client) BuildDeposit(ctx context.Context, poolID string, stealthKeyHex string) (models.TxDraft, error) {
	pb, err := c.fetchPool(ctx, poolID)
	if err != nil {
		return models.TxDraft{}, err
	}

	stealthKey, err := curve.DecodePointHex(stealthKeyHex)
	if err != nil {
		return models.TxDraft{}, err
	}
	if isBannedPoint(stealthKey) {
		return models.TxDraft{}, poolerr.New(poolerr.Validation, "banned_point", "stealth key must not be the curve generator or the NUMS constant H")
	}
	for _, existing := range pb.DepositorKeys {
		if normalizeHex(existing) == normalizeHex(stealthKeyHex) {
			return models.TxDraft{}, poolerr.New(poolerr.Validation, "duplicate_key", "stealth key already present in the pool's depositor-key list")
		}
	}
	if int32(len(pb.DepositorKeys)) >= pb.MaxRingSize {
		return models.TxDraft{}, poolerr.New(poolerr.Capacity, "ring_full", "pool has reached its maximum ring size")
	}

	newKeys := append(append([]string{}, pb.DepositorKeys...), stealthKeyHex)
	newR4, err := register.EncodeR4(newKeys)
	if err != nil {
		return models.TxDraft{}, err
	}
	r5Hex, err := encodeNullifierState(pb.Nullifiers)
	if err != nil {
		return models.TxDraft{}, err
	}

	poolOutput := models.UnsignedOutput{
		Value:    pb.Value,
		ErgoTree: pb.ErgoTree,
		Assets:   []models.Token{{TokenID: pb.Token.TokenID, Amount: pb.Token.Amount + pb.Denomination}},
		AdditionalRegisters: map[string]string{
			"R4": newR4,
			"R5": r5Hex,
			"R6": register.EncodeR6(pb.Denomination),
			"R7": register.EncodeR7(pb.MaxRingSize),
		},
	}
	feeOutput := models.UnsignedOutput{Value: c.minerFee, ErgoTree: c.feeErgoTree}

	tx := models.UnsignedTx{
		Inputs: []models.UnsignedInput{
			{BoxID: pb.BoxID, Extension: map[string]models.ContextVar{}},
		},
		Outputs: []models.UnsignedOutput{poolOutput, feeOutput},
	}

	return models.TxDraft{
		DraftID:    uuid.NewString(),
		Kind:       models.DraftDeposit,
		Tx:         tx,
		InputsRaw:  rawBytesOf(pb.RawBytes),
		Extensions: map[int]models.ContextVar{},
	}, nil
}

// BuildWithdrawal implements spec.md §4.E build_withdrawal.
func (c *Client) BuildWithdrawal(ctx context.Context, poolID string, secretHex string, recipientErgoTree string) (models.TxDraft, error) {
	pb, err := c.fetchPool(ctx, poolID)
	if err != nil {
		return models.TxDraft{}, err
	}

	r, err := curve.ScalarFromHex(secretHex)
	if err != nil {
		return models.TxDraft{}, err
	}

	nullifier, err := proof.Nullifier(r)
	if err != nil {
		return models.TxDraft{}, err
	}
	if pb.Nullifiers.Contains(nullifier.Hex()) {
		return models.TxDraft{}, poolerr.New(poolerr.Validation, "nullifier_spent", "this deposit secret has already been used to withdraw")
	}

	ring := make([]curve.Point, len(pb.DepositorKeys))
	realIndex := -1
	for i, keyHex := range pb.DepositorKeys {
		p, err := curve.DecodePointHex(keyHex)
		if err != nil {
			return models.TxDraft{}, err
		}
		ring[i] = p
	}

	expectedStealth, err := curve.ScalarBaseMult(r)
	if err != nil {
		return models.TxDraft{}, err
	}
	denomScalar, err := scalarFromInt64(pb.Denomination)
	if err != nil {
		return models.TxDraft{}, err
	}
	denomH, err := curve.ScalarMult(denomScalar, curve.H())
	if err != nil {
		return models.TxDraft{}, err
	}
	expectedCommitment, err := curve.Add(expectedStealth, denomH)
	if err != nil {
		return models.TxDraft{}, err
	}
	for i, p := range ring {
		if p.Equal(expectedCommitment) {
			realIndex = i
			break
		}
	}
	if realIndex == -1 {
		return models.TxDraft{}, poolerr.New(poolerr.Validation, "secret_not_in_ring", "deposit secret does not correspond to any key in the current ring")
	}

	newR5, nullifierProofHex, err := insertNullifier(pb.Nullifiers, nullifier.Hex())
	if err != nil {
		return models.TxDraft{}, err
	}

	poolOutput := models.UnsignedOutput{
		Value:    pb.Value - pb.Denomination,
		ErgoTree: pb.ErgoTree,
		Assets:   []models.Token{{TokenID: pb.Token.TokenID, Amount: pb.Token.Amount - pb.Denomination}},
		AdditionalRegisters: map[string]string{
			"R4": mustEncodeR4(pb.DepositorKeys),
			"R5": newR5,
			"R6": register.EncodeR6(pb.Denomination),
			"R7": register.EncodeR7(pb.MaxRingSize),
		},
	}
	payoutOutput := models.UnsignedOutput{Value: pb.Denomination, ErgoTree: recipientErgoTree}
	feeOutput := models.UnsignedOutput{Value: c.minerFee, ErgoTree: c.feeErgoTree}

	// The transaction-binding message the ring proof's Fiat-Shamir hash
	// folds in is the pool box id plus the recipient script -- a stand-in
	// for "tx.messageToSign" (spec.md §4.C step 3) until the node
	// collaborator's real transaction-serialization digest is wired in.
	txMessage := append([]byte(pb.BoxID), []byte(recipientErgoTree)...)
	ringProof, err := proof.BuildRingProof(txMessage, ring, uint64(pb.Denomination), realIndex, r)
	if err != nil {
		return models.TxDraft{}, err
	}
	ringProofHex, err := encodeRingProof(ringProof)
	if err != nil {
		return models.TxDraft{}, err
	}

	extensions := map[int]models.ContextVar{
		0: {TypeTag: 0x0e, DataHex: ringProofHex},
		1: {TypeTag: 0x0e, DataHex: nullifierProofHex},
	}

	tx := models.UnsignedTx{
		Inputs: []models.UnsignedInput{
			{BoxID: pb.BoxID, Extension: contextVarMap(extensions)},
		},
		Outputs: []models.UnsignedOutput{poolOutput, payoutOutput, feeOutput},
	}

	hints := models.SigningHints{
		Dlog: []string{r.Hex()},
		DHT: []models.DHTupleHint{
			{Secret: r.Hex(), G: curve.G().Hex(), H: curve.H().Hex(), U: expectedStealth.Hex(), V: nullifier.Hex()},
		},
	}

	return models.TxDraft{
		DraftID:      uuid.NewString(),
		Kind:         models.DraftWithdrawal,
		Tx:           tx,
		InputsRaw:    rawBytesOf(pb.RawBytes),
		SigningHints: hints,
		Extensions:   extensions,
	}, nil
}

func contextVarMap(vars map[int]models.ContextVar) map[string]models.ContextVar {
	out := make(map[string]models.ContextVar, len(vars))
	for k, v := range vars {
		out[strconv.Itoa(k)] = v
	}
	return out
}

func rawBytesOf(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

func mustEncodeR4(keys []string) string {
	enc, err := register.EncodeR4(keys)
	if err != nil {
		// keys were already decoded from a valid R4 register by fetchPool;
		// re-encoding them cannot fail.
		panic("pool: unexpected R4 re-encode failure: " + err.Error())
	}
	return enc
}

func scalarFromInt64(v int64) (curve.Scalar, error) {
	raw := make([]byte, 8)
	for i := 0; i < 8; i++ {
		raw[7-i] = byte(v >> (8 * i))
	}
	return curve.ScalarFromBytes(raw)
}
