package commitment

import (
	"encoding/hex"
	"sync"

	"github.com/rawblock/privacypool/internal/curve"
)

// generatorTable is the process-wide, read-mostly, lazily populated
// per-asset NUMS generator table spec.md §9 describes: "a table owned by
// the commitment layer and guarded by a single-writer/multi-reader access
// discipline; consumers request entries through a lookup function that
// computes-and-inserts on miss." There is no hidden singleton at the API
// level -- Asset generators are always requested through generatorFor,
// which owns the table as a package-level value the way the teacher's
// AddressWatchlist owns its map under a sync.RWMutex.
type generatorTable struct {
	mu    sync.RWMutex
	cache map[string]curve.Point
}

var assetGenerators = &generatorTable{cache: make(map[string]curve.Point)}

// generatorFor resolves the generator for a given asset id: the fixed H for
// the base denomination asset (nil/empty id), or the memoized per-asset
// H_id otherwise.
func generatorFor(assetID []byte) (curve.Point, error) {
	if len(assetID) == 0 {
		return curve.H(), nil
	}

	key := hex.EncodeToString(assetID)

	assetGenerators.mu.RLock()
	if g, ok := assetGenerators.cache[key]; ok {
		assetGenerators.mu.RUnlock()
		return g, nil
	}
	assetGenerators.mu.RUnlock()

	g, err := curve.HashToCurveAsset(assetID)
	if err != nil {
		return curve.Point{}, err
	}

	assetGenerators.mu.Lock()
	// Re-check under the write lock: another goroutine may have computed
	// and inserted the same entry while we held no lock. Recomputing is
	// harmless (hash-to-curve is deterministic) but we keep the first
	// insert so concurrent readers never see a torn table.
	if existing, ok := assetGenerators.cache[key]; ok {
		assetGenerators.mu.Unlock()
		return existing, nil
	}
	assetGenerators.cache[key] = g
	assetGenerators.mu.Unlock()

	return g, nil
}
