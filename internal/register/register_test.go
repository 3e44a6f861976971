package register

import (
	"strings"
	"testing"
)

func TestVLQRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 127, 128, 300, 16384, 1 << 40}
	for _, v := range cases {
		enc := EncodeVLQ(v)
		got, n, err := DecodeVLQ(enc)
		if err != nil {
			t.Fatalf("DecodeVLQ(%d): %v", v, err)
		}
		if got != v || n != len(enc) {
			t.Fatalf("VLQ round-trip mismatch for %d: got %d consumed %d/%d", v, got, n, len(enc))
		}
	}
}

func TestZigZag64RoundTrip(t *testing.T) {
	cases := []int64{0, 1, -1, 100, -100, 1 << 40, -(1 << 40)}
	for _, v := range cases {
		enc := EncodeZigZag64(v)
		got, _, err := DecodeZigZag64(enc)
		if err != nil {
			t.Fatalf("DecodeZigZag64(%d): %v", v, err)
		}
		if got != v {
			t.Fatalf("zigzag64 round-trip mismatch: want %d got %d", v, got)
		}
	}
}

func TestR4EncodeDecodeRoundTrip(t *testing.T) {
	keys := []string{
		strings.Repeat("02", 1) + strings.Repeat("ab", 32),
		strings.Repeat("03", 1) + strings.Repeat("cd", 32),
	}
	enc, err := EncodeR4(keys)
	if err != nil {
		t.Fatalf("EncodeR4: %v", err)
	}
	dec, err := DecodeR4(enc)
	if err != nil {
		t.Fatalf("DecodeR4: %v", err)
	}
	if len(dec) != len(keys) {
		t.Fatalf("length mismatch: want %d got %d", len(keys), len(dec))
	}
	for i := range keys {
		if dec[i] != keys[i] {
			t.Fatalf("entry %d mismatch: want %s got %s", i, keys[i], dec[i])
		}
	}
}

func TestR4DecodeRejectsPerturbedBytes(t *testing.T) {
	keys := []string{strings.Repeat("02", 1) + strings.Repeat("ab", 32)}
	enc, err := EncodeR4(keys)
	if err != nil {
		t.Fatalf("EncodeR4: %v", err)
	}
	// Flip the type tag byte.
	perturbed := "14" + enc[2:]
	if _, err := DecodeR4(perturbed); err == nil {
		t.Fatalf("expected rejection of perturbed type tag")
	}
	// Truncate.
	if _, err := DecodeR4(enc[:len(enc)-2]); err == nil {
		t.Fatalf("expected rejection of truncated register")
	}
}

func TestR6R7RoundTrip(t *testing.T) {
	enc6 := EncodeR6(100)
	got6, err := DecodeR6(enc6)
	if err != nil || got6 != 100 {
		t.Fatalf("R6 round-trip: got=%d err=%v", got6, err)
	}

	enc7 := EncodeR7(16)
	got7, err := DecodeR7(enc7)
	if err != nil || got7 != 16 {
		t.Fatalf("R7 round-trip: got=%d err=%v", got7, err)
	}
}

func TestAVLTreeRegisterRoundTrip(t *testing.T) {
	digest := strings.Repeat("ff", 33)
	enc, err := EncodeR5Tree(digest)
	if err != nil {
		t.Fatalf("EncodeR5Tree: %v", err)
	}
	tree, err := DecodeR5Tree(enc)
	if err != nil {
		t.Fatalf("DecodeR5Tree: %v", err)
	}
	if tree.DigestHex != digest {
		t.Fatalf("digest mismatch: want %s got %s", digest, tree.DigestHex)
	}
	isTree, err := IsTreeTyped(enc)
	if err != nil || !isTree {
		t.Fatalf("IsTreeTyped should report true for a tree register, got %v err=%v", isTree, err)
	}
}

func TestIsTreeTypedDistinguishesListVariant(t *testing.T) {
	keys := []string{strings.Repeat("02", 1) + strings.Repeat("ab", 32)}
	enc, err := EncodeR5List(keys)
	if err != nil {
		t.Fatalf("EncodeR5List: %v", err)
	}
	isTree, err := IsTreeTyped(enc)
	if err != nil || isTree {
		t.Fatalf("IsTreeTyped should report false for a list register, got %v err=%v", isTree, err)
	}
}
