// Package register implements the canonical box-register encoding spec.md
// §4.D requires: a byte-exact VLQ/zig-zag codec plus typed encode/decode for
// the R4 (depositor keys), R5 (nullifier state), R6 (denomination) and R7
// (max ring size) registers. Decoders reject anything that doesn't conform
// byte-for-byte. The type system does not confine raw register access to
// this package: models.Box.RegisterHex hands register hex to any caller,
// and internal/relayer's intent scanners pass it on without decoding it.
package register

import "github.com/rawblock/privacypool/internal/poolerr"

// Type tags (spec.md §4.D).
const (
	TypeCollGroupElement byte = 0x13
	TypeAvlTree          byte = 0x64
	TypeSignedLong       byte = 0x05
	TypeSignedInt        byte = 0x04
)

// EncodeVLQ encodes an unsigned integer as a variable-length quantity:
// 7 bits per byte, high bit set on every byte but the last.
func EncodeVLQ(n uint64) []byte {
	var out []byte
	for n >= 0x80 {
		out = append(out, byte(n&0x7F)|0x80)
		n >>= 7
	}
	out = append(out, byte(n))
	return out
}

// DecodeVLQ reads a VLQ from the front of b, returning the value and the
// number of bytes consumed. Rejects a VLQ that runs off the end of b or
// that exceeds 10 bytes (the max encoding length for a 64-bit value),
// which is the "reject anything that doesn't conform" contract VLQ shares
// with the rest of this package.
func DecodeVLQ(b []byte) (uint64, int, error) {
	var result uint64
	var shift uint
	for i := 0; i < len(b); i++ {
		if i >= 10 {
			return 0, 0, poolerr.New(poolerr.Serialization, "vlq_too_long", "VLQ exceeds maximum encoded length")
		}
		byt := b[i]
		result |= uint64(byt&0x7F) << shift
		if byt&0x80 == 0 {
			return result, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, poolerr.New(poolerr.Serialization, "vlq_truncated", "VLQ runs past end of input")
}

// EncodeZigZag64 maps a signed 64-bit value onto an unsigned one so small
// magnitudes (positive or negative) both encode compactly, then VLQ-encodes
// the result. This is the "Signed 64-bit" register encoding (type tag
// 0x05) spec.md §4.D specifies.
func EncodeZigZag64(n int64) []byte {
	zz := uint64((n << 1) ^ (n >> 63))
	return EncodeVLQ(zz)
}

// DecodeZigZag64 is the inverse of EncodeZigZag64.
func DecodeZigZag64(b []byte) (int64, int, error) {
	zz, n, err := DecodeVLQ(b)
	if err != nil {
		return 0, 0, err
	}
	val := int64(zz>>1) ^ -int64(zz&1)
	return val, n, nil
}

// EncodeZigZag32 is the 32-bit analogue (type tag 0x04).
func EncodeZigZag32(n int32) []byte {
	zz := uint32((n << 1) ^ (n >> 31))
	return EncodeVLQ(uint64(zz))
}

// DecodeZigZag32 is the inverse of EncodeZigZag32.
func DecodeZigZag32(b []byte) (int32, int, error) {
	zz, n, err := DecodeVLQ(b)
	if err != nil {
		return 0, 0, err
	}
	if zz > 0xFFFFFFFF {
		return 0, 0, poolerr.New(poolerr.Serialization, "zigzag32_overflow", "value does not fit in 32 bits")
	}
	u := uint32(zz)
	val := int32(u>>1) ^ -int32(u&1)
	return val, n, nil
}
