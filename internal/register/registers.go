package register

import (
	"encoding/hex"

	"github.com/rawblock/privacypool/internal/poolerr"
)

const pointLen = 33

// AVLFlagsKeyLenSuffix is the trailing "flags + key length" suffix pinned to
// the current pool contract version (spec.md §9 Open Question: "treat this
// as a versioned wire-format constant pinned to the pool contract version,
// not as an implementation detail"). Flags byte 0x07 and key length byte
// 0x21 (== 33, the compressed point length) match every AVL
// insert-proof register observed in the reference relayer implementation.
var AVLFlagsKeyLenSuffix = []byte{0x07, 0x21, 0x00}

// PoolContractVersion versions the wire format AVLFlagsKeyLenSuffix pins. A
// future pool contract revision that changes the AVL+ tree's flags or key
// length bumps this constant and adds a new suffix table rather than
// deriving the suffix from node-reported tree metadata at runtime.
const PoolContractVersion = 1

// EncodeR4 serializes the depositor-key collection: type tag 0x13, VLQ
// count, then count*33 bytes of compressed points in insertion order.
func EncodeR4(keysHex []string) (string, error) {
	out := []byte{TypeCollGroupElement}
	out = append(out, EncodeVLQ(uint64(len(keysHex)))...)
	for _, kh := range keysHex {
		raw, err := hex.DecodeString(kh)
		if err != nil || len(raw) != pointLen {
			return "", poolerr.New(poolerr.Serialization, "bad_point", "R4 entry is not a 33-byte compressed point")
		}
		out = append(out, raw...)
	}
	return hex.EncodeToString(out), nil
}

// DecodeR4 is the inverse of EncodeR4. Rejects anything that isn't exactly
// tag + VLQ count + count*33 bytes, with no trailing garbage.
func DecodeR4(hexStr string) ([]string, error) {
	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, poolerr.Wrap(poolerr.Serialization, "bad_hex", "R4 is not valid hex", err)
	}
	if len(raw) < 1 || raw[0] != TypeCollGroupElement {
		return nil, poolerr.New(poolerr.Serialization, "bad_tag", "R4 must start with type tag 0x13")
	}
	count, n, err := DecodeVLQ(raw[1:])
	if err != nil {
		return nil, err
	}
	offset := 1 + n
	expected := offset + int(count)*pointLen
	if expected != len(raw) {
		return nil, poolerr.New(poolerr.Serialization, "length_mismatch", "R4 byte length does not match declared count")
	}
	keys := make([]string, count)
	for i := 0; i < int(count); i++ {
		start := offset + i*pointLen
		keys[i] = hex.EncodeToString(raw[start : start+pointLen])
	}
	return keys, nil
}

// EncodeR5List is the legacy R5 encoding -- a collection of spent-nullifier
// points, same shape as R4.
func EncodeR5List(nullifiersHex []string) (string, error) {
	return EncodeR4(nullifiersHex)
}

// DecodeR5List is the inverse of EncodeR5List.
func DecodeR5List(hexStr string) ([]string, error) {
	return DecodeR4(hexStr)
}

// AVLTree is the decoded tree-typed R5 payload.
type AVLTree struct {
	DigestHex string
	Flags     byte
	KeyLen    byte
}

// EncodeR5Tree serializes the AVL+-tree R5 encoding: type tag 0x64, 33-byte
// root digest, then the pinned flags+key-length suffix (spec.md §4.D, §9).
func EncodeR5Tree(digestHex string) (string, error) {
	digest, err := hex.DecodeString(digestHex)
	if err != nil || len(digest) != pointLen {
		return "", poolerr.New(poolerr.Serialization, "bad_digest", "AVL digest must be 33 bytes")
	}
	out := append([]byte{TypeAvlTree}, digest...)
	out = append(out, AVLFlagsKeyLenSuffix...)
	return hex.EncodeToString(out), nil
}

// DecodeR5Tree is the inverse of EncodeR5Tree.
func DecodeR5Tree(hexStr string) (AVLTree, error) {
	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		return AVLTree{}, poolerr.Wrap(poolerr.Serialization, "bad_hex", "R5 tree register is not valid hex", err)
	}
	if len(raw) != 1+pointLen+len(AVLFlagsKeyLenSuffix) {
		return AVLTree{}, poolerr.New(poolerr.Serialization, "length_mismatch", "R5 tree register has unexpected length")
	}
	if raw[0] != TypeAvlTree {
		return AVLTree{}, poolerr.New(poolerr.Serialization, "bad_tag", "R5 tree register must start with type tag 0x64")
	}
	digest := raw[1 : 1+pointLen]
	suffix := raw[1+pointLen:]
	for i, b := range AVLFlagsKeyLenSuffix {
		if suffix[i] != b {
			return AVLTree{}, poolerr.New(poolerr.Serialization, "bad_suffix", "R5 tree register carries an unrecognized flags/key-length suffix")
		}
	}
	return AVLTree{DigestHex: hex.EncodeToString(digest), Flags: suffix[0], KeyLen: suffix[1]}, nil
}

// IsTreeTyped reports whether a raw R5 register hex string is the AVL-tree
// variant (type tag 0x64) as opposed to the explicit collection variant
// (type tag 0x13). Used to decide which decoder to invoke without ever
// falling back from one to the other (spec.md §7: "the client never falls
// back from an AVL-tree R5 encoding to a collection encoding, or vice
// versa").
func IsTreeTyped(hexStr string) (bool, error) {
	raw, err := hex.DecodeString(hexStr)
	if err != nil || len(raw) == 0 {
		return false, poolerr.New(poolerr.Serialization, "bad_hex", "R5 register is not valid non-empty hex")
	}
	switch raw[0] {
	case TypeAvlTree:
		return true, nil
	case TypeCollGroupElement:
		return false, nil
	default:
		return false, poolerr.New(poolerr.Serialization, "bad_tag", "R5 register carries an unrecognized type tag")
	}
}

// EncodeR6 serializes the denomination register: signed 64-bit (spec.md §4.D).
func EncodeR6(denomination int64) string {
	out := append([]byte{TypeSignedLong}, EncodeZigZag64(denomination)...)
	return hex.EncodeToString(out)
}

// DecodeR6 is the inverse of EncodeR6.
func DecodeR6(hexStr string) (int64, error) {
	raw, err := hex.DecodeString(hexStr)
	if err != nil || len(raw) < 2 {
		return 0, poolerr.New(poolerr.Serialization, "bad_hex", "R6 is not valid hex")
	}
	if raw[0] != TypeSignedLong {
		return 0, poolerr.New(poolerr.Serialization, "bad_tag", "R6 must start with type tag 0x05")
	}
	val, n, err := DecodeZigZag64(raw[1:])
	if err != nil {
		return 0, err
	}
	if 1+n != len(raw) {
		return 0, poolerr.New(poolerr.Serialization, "trailing_bytes", "R6 has trailing bytes past the encoded value")
	}
	return val, nil
}

// EncodeR7 serializes the max-ring-size register: signed 32-bit.
func EncodeR7(maxRingSize int32) string {
	out := append([]byte{TypeSignedInt}, EncodeZigZag32(maxRingSize)...)
	return hex.EncodeToString(out)
}

// DecodeR7 is the inverse of EncodeR7.
func DecodeR7(hexStr string) (int32, error) {
	raw, err := hex.DecodeString(hexStr)
	if err != nil || len(raw) < 2 {
		return 0, poolerr.New(poolerr.Serialization, "bad_hex", "R7 is not valid hex")
	}
	if raw[0] != TypeSignedInt {
		return 0, poolerr.New(poolerr.Serialization, "bad_tag", "R7 must start with type tag 0x04")
	}
	val, n, err := DecodeZigZag32(raw[1:])
	if err != nil {
		return 0, err
	}
	if 1+n != len(raw) {
		return 0, poolerr.New(poolerr.Serialization, "trailing_bytes", "R7 has trailing bytes past the encoded value")
	}
	return val, nil
}
