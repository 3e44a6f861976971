package relayer

import (
	"context"

	"github.com/rawblock/privacypool/internal/poolerr"
	"github.com/rawblock/privacypool/pkg/models"
)

// IntentScanner is the node surface both scan helpers need: listing boxes
// that sit under a known intent-box script.
type IntentScanner interface {
	GetBoxesByScript(ctx context.Context, scriptHash string, limit int) ([]models.Box, error)
}

const defaultIntentScanLimit = 200

// ScanPendingDeposits lists unswept IntentToDeposit boxes under
// depositScriptHash, taking each one's R4 register hex as the commitment
// without decoding it; boxes with no R4 are skipped.
func ScanPendingDeposits(ctx context.Context, node IntentScanner, depositScriptHash string) ([]models.IntentToDepositBox, error) {
	boxes, err := node.GetBoxesByScript(ctx, depositScriptHash, defaultIntentScanLimit)
	if err != nil {
		return nil, poolerr.Wrap(poolerr.Resolution, "scan_failed", "failed to scan for intent-to-deposit boxes", err)
	}
	out := make([]models.IntentToDepositBox, 0, len(boxes))
	for _, box := range boxes {
		r4, ok := box.RegisterHex("R4")
		if !ok {
			continue
		}
		out = append(out, models.IntentToDepositBox{
			BoxID:         box.BoxID,
			ValueNanoErg:  box.Value,
			CommitmentHex: r4,
			ErgoTree:      box.ErgoTree,
			RawBytes:      box.RawBytes,
		})
	}
	return out, nil
}

// ScanPendingWithdrawals lists unswept IntentToWithdraw boxes under
// withdrawScriptHash, taking each one's R4 (nullifier), R5 (ring proof,
// empty if absent) and R6 (payout script) register hex without decoding
// it; boxes missing R4 or R6 are skipped.
func ScanPendingWithdrawals(ctx context.Context, node IntentScanner, withdrawScriptHash string) ([]models.IntentToWithdrawBox, error) {
	boxes, err := node.GetBoxesByScript(ctx, withdrawScriptHash, defaultIntentScanLimit)
	if err != nil {
		return nil, poolerr.Wrap(poolerr.Resolution, "scan_failed", "failed to scan for intent-to-withdraw boxes", err)
	}
	out := make([]models.IntentToWithdrawBox, 0, len(boxes))
	for _, box := range boxes {
		r4, ok := box.RegisterHex("R4")
		if !ok {
			continue
		}
		payout, ok := box.RegisterHex("R6")
		if !ok {
			continue
		}
		ringProof, _ := box.RegisterHex("R5")
		out = append(out, models.IntentToWithdrawBox{
			BoxID:          box.BoxID,
			ValueNanoErg:   box.Value,
			NullifierHex:   r4,
			RingProofHex:   ringProof,
			PayoutErgoTree: payout,
			ErgoTree:       box.ErgoTree,
			RawBytes:       box.RawBytes,
		})
	}
	return out, nil
}
