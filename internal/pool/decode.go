// Package pool implements the pool client (spec.md §4.E): scanning for live
// pools, evaluating health, and building deposit/withdrawal transaction
// drafts. Grounded directly on the original SDK's PrivacyPoolClient
// (defi/privacy_pool.py), adapted from Python exceptions to Go's
// poolerr.Error returns.
package pool

import (
	"github.com/rawblock/privacypool/internal/curve"
	"github.com/rawblock/privacypool/internal/poolerr"
	"github.com/rawblock/privacypool/internal/register"
	"github.com/rawblock/privacypool/pkg/models"
)

// bannedPoints are the two points this protocol must never accept as a
// stealth key or a nullifier (privacy_pool.py's _BANNED_KEYS): the raw
// curve generator, which would poison the ring with a trivially provable
// slot, and the NUMS constant H, which would break the DH-tuple proof's
// security assumption that log_G(H) is unknown.
func isBannedPoint(p curve.Point) bool {
	return p.Equal(curve.G()) || p.Equal(curve.H())
}

// DecodePoolBox parses a raw node box into the typed PoolBox view spec.md
// §3/§4.D describe. Any register that doesn't decode byte-for-byte is a
// Serialization error, never silently skipped.
func DecodePoolBox(box models.Box) (models.PoolBox, error) {
	r4Hex, ok := box.RegisterHex("R4")
	if !ok {
		return models.PoolBox{}, poolerr.New(poolerr.Serialization, "missing_register", "pool box missing R4")
	}
	keys, err := register.DecodeR4(r4Hex)
	if err != nil {
		return models.PoolBox{}, err
	}

	r5Hex, ok := box.RegisterHex("R5")
	if !ok {
		return models.PoolBox{}, poolerr.New(poolerr.Serialization, "missing_register", "pool box missing R5")
	}
	nullifiers, err := decodeNullifierState(r5Hex)
	if err != nil {
		return models.PoolBox{}, err
	}

	r6Hex, ok := box.RegisterHex("R6")
	if !ok {
		return models.PoolBox{}, poolerr.New(poolerr.Serialization, "missing_register", "pool box missing R6")
	}
	denom, err := register.DecodeR6(r6Hex)
	if err != nil {
		return models.PoolBox{}, err
	}

	r7Hex, ok := box.RegisterHex("R7")
	if !ok {
		return models.PoolBox{}, poolerr.New(poolerr.Serialization, "missing_register", "pool box missing R7")
	}
	maxRing, err := register.DecodeR7(r7Hex)
	if err != nil {
		return models.PoolBox{}, err
	}

	var token models.Token
	if len(box.Tokens) > 0 {
		token = box.Tokens[0]
	}

	return models.PoolBox{
		BoxID:         box.BoxID,
		Value:         box.Value,
		Token:         token,
		DepositorKeys: keys,
		Nullifiers:    nullifiers,
		Denomination:  denom,
		MaxRingSize:   maxRing,
		ErgoTree:      box.ErgoTree,
		RawBytes:      box.RawBytes,
	}, nil
}

func decodeNullifierState(r5Hex string) (models.NullifierState, error) {
	isTree, err := register.IsTreeTyped(r5Hex)
	if err != nil {
		return models.NullifierState{}, err
	}
	if isTree {
		tree, err := register.DecodeR5Tree(r5Hex)
		if err != nil {
			return models.NullifierState{}, err
		}
		return models.NullifierState{
			Kind: models.NullifierStateTree,
			Tree: models.AVLTreeRegister{DigestHex: tree.DigestHex, Flags: tree.Flags, KeyLen: tree.KeyLen},
		}, nil
	}
	list, err := register.DecodeR5List(r5Hex)
	if err != nil {
		return models.NullifierState{}, err
	}
	return models.NullifierState{Kind: models.NullifierStateList, List: list}, nil
}

// countUnique returns the number of distinct (case-insensitive) hex points
// in keys, and the number that are duplicates of an earlier entry --
// privacy_pool.py's evaluate_pool_health duplicate-key tracking.
func countUnique(keys []string) (unique int, duplicates int) {
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		norm := normalizeHex(k)
		if _, ok := seen[norm]; ok {
			duplicates++
			continue
		}
		seen[norm] = struct{}{}
	}
	return len(seen), duplicates
}

func normalizeHex(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
