package curve

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/rawblock/privacypool/internal/poolerr"
)

// Point is a non-identity element of the secp256k1 group in affine form,
// always representable as a valid 33-byte compressed encoding.
type Point struct {
	pub *btcec.PublicKey
}

// generator is the fixed curve generator G, computed once.
var generator = func() Point {
	params := btcec.S256().Params()
	var x, y btcec.FieldVal
	x.SetByteSlice(params.Gx.Bytes())
	y.SetByteSlice(params.Gy.Bytes())
	return Point{pub: btcec.NewPublicKey(&x, &y)}
}()

// G returns the curve's fixed generator point.
func G() Point { return generator }

// DecodePoint parses a 33-byte compressed point (0x02/0x03 prefix + 32-byte
// x-coordinate). Rejects points not on the curve and the identity
// (ParsePubKey never returns the identity, since compressed encoding has no
// representation for it).
func DecodePoint(compressed []byte) (Point, error) {
	if len(compressed) != 33 {
		return Point{}, poolerr.New(poolerr.Curve, "bad_encoding", "compressed point must be 33 bytes")
	}
	if compressed[0] != 0x02 && compressed[0] != 0x03 {
		return Point{}, poolerr.New(poolerr.Curve, "bad_encoding", "compressed point prefix must be 0x02 or 0x03")
	}
	pub, err := btcec.ParsePubKey(compressed)
	if err != nil {
		return Point{}, poolerr.Wrap(poolerr.Curve, "not_on_curve", "point does not decode to a valid curve point", err)
	}
	return Point{pub: pub}, nil
}

// DecodePointHex is the hex convenience wrapper around DecodePoint.
func DecodePointHex(s string) (Point, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Point{}, poolerr.Wrap(poolerr.Curve, "bad_encoding", "point is not valid hex", err)
	}
	return DecodePoint(raw)
}

// Compressed returns the 33-byte compressed encoding.
func (p Point) Compressed() []byte { return p.pub.SerializeCompressed() }

func (p Point) Hex() string { return hex.EncodeToString(p.Compressed()) }

func (p Point) Equal(q Point) bool {
	return p.pub.X().Cmp(q.pub.X()) == 0 && p.pub.Y().Cmp(q.pub.Y()) == 0
}

func (p Point) toJacobian() btcec.JacobianPoint {
	var jp btcec.JacobianPoint
	x := p.pub.X()
	y := p.pub.Y()
	jp.X.SetByteSlice(x.Bytes())
	jp.Y.SetByteSlice(y.Bytes())
	jp.Z.SetInt(1)
	return jp
}

func fromJacobian(jp *btcec.JacobianPoint) (Point, error) {
	if jp.Z.IsZero() {
		return Point{}, poolerr.New(poolerr.Curve, "identity", "operation produced the point at infinity")
	}
	jp.ToAffine()
	pub := btcec.NewPublicKey(&jp.X, &jp.Y)
	return Point{pub: pub}, nil
}

// Add returns p + q. Errors with Curve/identity if the result is the point
// at infinity (p == -q), which the protocol never expects to see.
func Add(p, q Point) (Point, error) {
	pj, qj := p.toJacobian(), q.toJacobian()
	var rj btcec.JacobianPoint
	btcec.AddNonConst(&pj, &qj, &rj)
	return fromJacobian(&rj)
}

// Sub returns p - q.
func Sub(p, q Point) (Point, error) {
	return Add(p, Negate(q))
}

// Negate returns -p (same x, negated y).
func Negate(p Point) Point {
	jp := p.toJacobian()
	jp.Y.Negate(1)
	jp.Y.Normalize()
	jp.ToAffine()
	pub := btcec.NewPublicKey(&jp.X, &jp.Y)
	return Point{pub: pub}
}

// ScalarMult returns k*P.
func ScalarMult(k Scalar, p Point) (Point, error) {
	pj := p.toJacobian()
	var rj btcec.JacobianPoint
	btcec.S256().ScalarMultNonConst(&k.s, &pj, &rj)
	return fromJacobian(&rj)
}

// ScalarBaseMult returns k*G.
func ScalarBaseMult(k Scalar) (Point, error) {
	var rj btcec.JacobianPoint
	btcec.S256().ScalarBaseMultNonConst(&k.s, &rj)
	return fromJacobian(&rj)
}
