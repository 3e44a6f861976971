package curve

import "testing"

func TestHDerivationIsDeterministicAndDistinctFromG(t *testing.T) {
	h1 := H()
	h2, err := HashToCurve(G().Compressed())
	if err != nil {
		t.Fatalf("HashToCurve(G): %v", err)
	}
	if !h1.Equal(h2) {
		t.Fatalf("H is not deterministic across calls")
	}
	if h1.Equal(G()) {
		t.Fatalf("H must not equal G")
	}
}

func TestPerAssetGeneratorsAreDistinct(t *testing.T) {
	h1, err := HashToCurveAsset([]byte("asset-one"))
	if err != nil {
		t.Fatalf("asset one: %v", err)
	}
	h2, err := HashToCurveAsset([]byte("asset-two"))
	if err != nil {
		t.Fatalf("asset two: %v", err)
	}
	if h1.Equal(h2) {
		t.Fatalf("distinct asset ids must not collide")
	}
	if h1.Equal(H()) {
		t.Fatalf("asset generator must not equal the fixed H")
	}
}

func TestScalarBaseMultEncodeDecodeRoundTrip(t *testing.T) {
	r, err := RandomScalar()
	if err != nil {
		t.Fatalf("RandomScalar: %v", err)
	}
	p, err := ScalarBaseMult(r)
	if err != nil {
		t.Fatalf("ScalarBaseMult: %v", err)
	}

	decoded, err := DecodePoint(p.Compressed())
	if err != nil {
		t.Fatalf("DecodePoint round-trip: %v", err)
	}
	if !decoded.Equal(p) {
		t.Fatalf("decoded point does not equal original")
	}
}

func TestAddSubInverse(t *testing.T) {
	a, _ := RandomScalar()
	b, _ := RandomScalar()
	pa, err := ScalarBaseMult(a)
	if err != nil {
		t.Fatalf("ScalarBaseMult a: %v", err)
	}
	pb, err := ScalarBaseMult(b)
	if err != nil {
		t.Fatalf("ScalarBaseMult b: %v", err)
	}

	sum, err := Add(pa, pb)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	back, err := Sub(sum, pb)
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}
	if !back.Equal(pa) {
		t.Fatalf("(a+b)-b != a")
	}
}

func TestDecodePointRejectsBadPrefix(t *testing.T) {
	raw := G().Compressed()
	raw[0] = 0x04
	if _, err := DecodePoint(raw); err == nil {
		t.Fatalf("expected rejection of non-02/03 prefix")
	}
}

func TestScalarFromBytesRejectsZero(t *testing.T) {
	zero := make([]byte, 32)
	if _, err := ScalarFromBytes(zero); err == nil {
		t.Fatalf("expected rejection of zero scalar")
	}
}
