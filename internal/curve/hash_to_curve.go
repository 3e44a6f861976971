package curve

import (
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/rawblock/privacypool/internal/poolerr"
)

// hashToCurveMaxCounter bounds the try-and-increment search. Failure to find
// a valid x within this many attempts would indicate a broken hash function,
// not bad luck -- the probability of exhausting it is astronomically small.
const hashToCurveMaxCounter = 1000

var (
	curveP = btcec.S256().Params().P
	curveB = big.NewInt(7)
	four   = big.NewInt(4)
)

// HashToCurve implements the try-and-increment hash-to-curve method
// spec.md §4.A specifies: for seed s, test x = Blake2b-256(s || ctr) for
// ctr = 0,1,2,..., solve y^2 = x^3+7 mod p, accept the first x yielding a
// quadratic residue, and pick the root with even parity (compressed prefix
// 0x02). This never returns G and never returns a point the caller can
// relate to G by a known discrete log -- that is the entire point of a NUMS
// generator (spec.md §3).
func HashToCurve(seed []byte) (Point, error) {
	for ctr := 0; ctr < hashToCurveMaxCounter; ctr++ {
		digest := blake2b.Sum256(append(append([]byte{}, seed...), encodeCounter(ctr)...))
		x := new(big.Int).SetBytes(digest[:])
		x.Mod(x, curveP)
		if x.Sign() == 0 {
			continue
		}

		// rhs = x^3 + 7 mod p
		rhs := new(big.Int).Exp(x, big.NewInt(3), curveP)
		rhs.Add(rhs, curveB)
		rhs.Mod(rhs, curveP)

		y, ok := sqrtModP(rhs)
		if !ok {
			continue
		}

		// Pick the even-parity root (compressed prefix 0x02).
		if y.Bit(0) == 1 {
			y.Sub(curveP, y)
		}

		compressed := make([]byte, 33)
		compressed[0] = 0x02
		xBytes := x.Bytes()
		copy(compressed[33-len(xBytes):], xBytes)

		pt, err := DecodePoint(compressed)
		if err != nil {
			// x solved the curve equation over the field but ParsePubKey's
			// own validation disagrees (should not happen); keep searching
			// rather than trust our own arithmetic over the library's.
			continue
		}
		return pt, nil
	}
	return Point{}, poolerr.New(poolerr.Curve, "hash_to_curve_exhausted", "no valid x found within counter bound")
}

// sqrtModP returns a square root of a mod secp256k1's prime p, using
// a^((p+1)/4) mod p, valid because p ≡ 3 (mod 4). ok is false if a is not a
// quadratic residue.
func sqrtModP(a *big.Int) (*big.Int, bool) {
	if a.Sign() == 0 {
		return big.NewInt(0), true
	}
	exp := new(big.Int).Add(curveP, big.NewInt(1))
	exp.Div(exp, four)
	y := new(big.Int).Exp(a, exp, curveP)

	check := new(big.Int).Exp(y, big.NewInt(2), curveP)
	if check.Cmp(a) != 0 {
		return nil, false
	}
	return y, true
}

func encodeCounter(ctr int) []byte {
	// Matches the Python reference's plain-integer counter concatenation:
	// counters below 256 take a single byte, and larger counters (up to
	// hashToCurveMaxCounter, 1000) take their minimal big-endian bytes, so
	// generators derived at ctr < 256 keep their single-byte encoding.
	if ctr < 256 {
		return []byte{byte(ctr)}
	}
	out := big.NewInt(int64(ctr)).Bytes()
	return out
}

// nums is H, derived once from G per spec.md §3/§4.A.
var nums = func() Point {
	h, err := HashToCurve(G().Compressed())
	if err != nil {
		panic("curve: failed to derive NUMS generator H: " + err.Error())
	}
	return h
}()

// H returns the protocol's fixed NUMS generator, hash_to_curve(G).
func H() Point { return nums }

// HashToCurveAsset derives the per-asset NUMS generator H_id from
// Blake2b-256(G_compressed || assetID) (spec.md §3, §4.A).
func HashToCurveAsset(assetID []byte) (Point, error) {
	seed := blake2b.Sum256(append(append([]byte{}, G().Compressed()...), assetID...))
	return HashToCurve(seed[:])
}
