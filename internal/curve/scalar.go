// Package curve implements the secp256k1 scalar/point arithmetic and the
// Blake2b-256 hash-to-curve NUMS derivation spec.md §3 and §4.A require.
// All arithmetic routes through btcec/v2's constant-time scalar type and
// its Jacobian point helpers. Scalar-by-point multiplication (ScalarMult,
// ScalarBaseMult) uses btcec's ScalarMultNonConst/ScalarBaseMultNonConst,
// which are not constant-time: their running time can depend on the
// scalar, including secret scalars.
package curve

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/rawblock/privacypool/internal/poolerr"
)

// Scalar is an integer mod the curve's group order n. Zero is never a valid
// witness (spec.md §3); callers that need a fresh blinding factor must use
// RandomScalar, which resamples on the vanishingly unlikely zero draw.
type Scalar struct {
	s btcec.ModNScalar
}

// ScalarZero returns the additive identity. It is not a valid witness
// scalar (spec.md §3) and exists only as an accumulator seed for arithmetic
// such as a Fiat-Shamir challenge sum.
func ScalarZero() Scalar { return Scalar{} }

// RandomScalar draws a uniformly random non-zero scalar.
func RandomScalar() (Scalar, error) {
	var buf [32]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			return Scalar{}, poolerr.Wrap(poolerr.Curve, "rand_read", "failed to read randomness", err)
		}
		var sc btcec.ModNScalar
		overflow := sc.SetByteSlice(buf[:])
		if overflow || sc.IsZero() {
			continue
		}
		return Scalar{s: sc}, nil
	}
}

// ScalarFromHex decodes a 32-byte big-endian hex scalar. Overflowing or
// zero values are rejected -- spec.md §3: "Zero is never a valid witness".
func ScalarFromHex(s string) (Scalar, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Scalar{}, poolerr.Wrap(poolerr.Curve, "bad_encoding", "scalar is not valid hex", err)
	}
	return ScalarFromBytes(raw)
}

// ScalarFromBytes decodes a big-endian scalar.
func ScalarFromBytes(raw []byte) (Scalar, error) {
	if len(raw) == 0 || len(raw) > 32 {
		return Scalar{}, poolerr.New(poolerr.Curve, "bad_encoding", "scalar must be 1..32 bytes")
	}
	var padded [32]byte
	copy(padded[32-len(raw):], raw)
	var sc btcec.ModNScalar
	overflow := sc.SetByteSlice(padded[:])
	if overflow {
		return Scalar{}, poolerr.New(poolerr.Curve, "bad_encoding", "scalar exceeds group order")
	}
	if sc.IsZero() {
		return Scalar{}, poolerr.New(poolerr.Curve, "zero_scalar", "scalar must not be zero")
	}
	return Scalar{s: sc}, nil
}

// Bytes returns the canonical 32-byte big-endian encoding.
func (a Scalar) Bytes() []byte {
	b := a.s.Bytes()
	out := make([]byte, 32)
	copy(out, b[:])
	return out
}

func (a Scalar) Hex() string { return hex.EncodeToString(a.Bytes()) }

// Add returns a + b mod n.
func (a Scalar) Add(b Scalar) Scalar {
	var out btcec.ModNScalar
	out.Set(&a.s)
	out.Add(&b.s)
	return Scalar{s: out}
}

// Mul returns a * b mod n.
func (a Scalar) Mul(b Scalar) Scalar {
	var out btcec.ModNScalar
	out.Set(&a.s)
	out.Mul(&b.s)
	return Scalar{s: out}
}

// Negate returns -a mod n.
func (a Scalar) Negate() Scalar {
	var out btcec.ModNScalar
	out.Set(&a.s)
	out.Negate()
	return Scalar{s: out}
}

// IsZero reports whether the scalar is the additive identity. A decoded
// Scalar is never zero (ScalarFromBytes rejects it), so this only matters
// for values produced by arithmetic (e.g. a Schnorr residual Δr).
func (a Scalar) IsZero() bool { return a.s.IsZero() }

func (a Scalar) Equal(b Scalar) bool { return a.s.Equals(&b.s) }

// ScalarFromHash reduces an arbitrary-length hash digest modulo the group
// order n, for use as a Fiat-Shamir challenge. Unlike ScalarFromBytes, this
// never rejects on overflow (reduction is exactly what a challenge scalar
// needs) and tolerates a zero result (negligible probability, and a
// challenge of zero is not a "witness" in the spec.md §3 sense).
func ScalarFromHash(digest []byte) Scalar {
	var sc btcec.ModNScalar
	sc.SetByteSlice(digest)
	return Scalar{s: sc}
}
