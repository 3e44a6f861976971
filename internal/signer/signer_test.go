package signer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rawblock/privacypool/pkg/models"
)

func TestHTTPSignerSignSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sign" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req signRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.InputsRaw) != 1 || req.InputsRaw[0] != "rawbytes" {
			t.Fatalf("unexpected inputsRaw: %v", req.InputsRaw)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"signed-tx-bytes"}`))
	}))
	defer srv.Close()

	s := NewHTTPSigner(srv.URL, 0)
	out, err := s.Sign(context.Background(), models.UnsignedTx{}, []string{"rawbytes"}, models.SigningHints{})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	var decoded struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if decoded.ID != "signed-tx-bytes" {
		t.Fatalf("id = %q, want signed-tx-bytes", decoded.ID)
	}
}

func TestHTTPSignerSignRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad hints"))
	}))
	defer srv.Close()

	s := NewHTTPSigner(srv.URL, 0)
	if _, err := s.Sign(context.Background(), models.UnsignedTx{}, nil, models.SigningHints{}); err == nil {
		t.Fatal("expected error for a non-2xx signer response")
	}
}
