package relayer

import (
	"context"
	"testing"

	"github.com/rawblock/privacypool/pkg/models"
)

type fakeScanner struct {
	boxes []models.Box
}

func (f fakeScanner) GetBoxesByScript(ctx context.Context, scriptHash string, limit int) ([]models.Box, error) {
	return f.boxes, nil
}

func TestScanPendingDepositsSkipsBoxesMissingR4(t *testing.T) {
	scanner := fakeScanner{boxes: []models.Box{
		{BoxID: "with-r4", Value: 1_000_000, Registers: map[string]string{"R4": "aabb"}},
		{BoxID: "missing-r4", Value: 1_000_000, Registers: map[string]string{}},
	}}

	intents, err := ScanPendingDeposits(context.Background(), scanner, "script")
	if err != nil {
		t.Fatalf("ScanPendingDeposits: %v", err)
	}
	if len(intents) != 1 || intents[0].BoxID != "with-r4" {
		t.Fatalf("expected only the box carrying R4, got %+v", intents)
	}
}

func TestScanPendingWithdrawalsRequiresR4AndR6(t *testing.T) {
	scanner := fakeScanner{boxes: []models.Box{
		{BoxID: "complete", Value: 1_000_000, Registers: map[string]string{"R4": "aabb", "R5": "ff", "R6": "cc"}},
		{BoxID: "missing-r6", Value: 1_000_000, Registers: map[string]string{"R4": "aabb"}},
		{BoxID: "missing-r4", Value: 1_000_000, Registers: map[string]string{"R6": "cc"}},
	}}

	intents, err := ScanPendingWithdrawals(context.Background(), scanner, "script")
	if err != nil {
		t.Fatalf("ScanPendingWithdrawals: %v", err)
	}
	if len(intents) != 1 || intents[0].BoxID != "complete" {
		t.Fatalf("expected only the fully-registered box, got %+v", intents)
	}
	if intents[0].RingProofHex != "ff" {
		t.Fatalf("expected R5 to populate RingProofHex, got %q", intents[0].RingProofHex)
	}
}
