package pool

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"

	"github.com/rawblock/privacypool/internal/poolerr"
	"github.com/rawblock/privacypool/internal/proof"
	"github.com/rawblock/privacypool/internal/register"
	"github.com/rawblock/privacypool/pkg/models"
)

// encodeRingProof packs a RingProof into the context-extension-variable wire
// shape: a VLQ element count followed by each element's 32-byte challenge
// and 32-byte response, laid out as a Sigma Coll[Byte] (spec.md §4.C: "var 0
// = ring-signature bundle").
func encodeRingProof(rp proof.RingProof) (string, error) {
	var payload []byte
	payload = append(payload, register.EncodeVLQ(uint64(len(rp.Elements)))...)
	for _, el := range rp.Elements {
		payload = append(payload, el.Challenge.Bytes()...)
		payload = append(payload, el.Response.Bytes()...)
	}
	out := append(register.EncodeVLQ(uint64(len(payload))), payload...)
	return hex.EncodeToString(out), nil
}

// encodeNullifierState re-serializes the pool's current R5 register,
// unchanged in content -- used by build_deposit, where the nullifier set is
// untouched by a deposit.
func encodeNullifierState(n models.NullifierState) (string, error) {
	switch n.Kind {
	case models.NullifierStateList:
		return register.EncodeR5List(n.List)
	case models.NullifierStateTree:
		return register.EncodeR5Tree(n.Tree.DigestHex)
	default:
		return "", poolerr.New(poolerr.Serialization, "bad_kind", "unrecognized nullifier state kind")
	}
}

// insertNullifier returns the pool's updated R5 register after recording
// nullifierHex as spent, plus the insert-proof bytes a withdrawal's context
// extension var 1 carries.
//
// The collection variant can be serialized directly. The AVL+-tree variant
// would normally carry a real authenticated insert proof generated by the
// node's tree-batching extension; absent that native dependency here, the
// new root is derived as a deterministic digest chain
// (Blake2b-256(oldDigest || nullifier)) and the "proof" is the digest delta
// itself -- a placeholder the node-side AVL validator is expected to
// recompute and check bit-for-bit, the same fallback shape
// relayer/withdrawal_relayer.py falls back to when the native ergo_avltree
// prover extension isn't available.
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
		newDigest := sum[:]
		// Pad/truncate to the fixed 33-byte digest width EncodeR5Tree expects.
		digest33 := make([]byte, 33)
		copy(digest33, newDigest)
		r5, err := register.EncodeR5Tree(hex.EncodeToString(digest33))
		if err != nil {
			return "", "", err
		}
		return r5, hex.EncodeToString(digest33), nil

	default:
		return "", "", poolerr.New(poolerr.Serialization, "bad_kind", "unrecognized nullifier state kind")
	}
}
