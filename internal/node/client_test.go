package node

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const validBoxID = "aabbccddeeff00112233445566778899aabbccddeeff00112233445566778899"

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	c, err := NewClient(context.Background(), Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return srv, c
}

func TestNewClientFailsWhenUnreachable(t *testing.T) {
	if _, err := NewClient(context.Background(), Config{BaseURL: "http://127.0.0.1:0"}); err == nil {
		t.Fatal("expected error connecting to an unreachable node")
	}
}

func TestGetBoxByIDRejectsMalformedID(t *testing.T) {
	srv, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/info" {
			json.NewEncoder(w).Encode(map[string]uint32{"height": 100})
			return
		}
		t.Fatalf("unexpected request to %s for a malformed box id test", r.URL.Path)
	})
	defer srv.Close()

	if _, err := c.GetBoxByID(context.Background(), "not-a-valid-hex-id"); err == nil {
		t.Fatal("expected error for a malformed box id")
	}
}

func TestGetBoxByIDReturnsNilForNotFound(t *testing.T) {
	srv, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/info" {
			json.NewEncoder(w).Encode(map[string]uint32{"height": 100})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	defer srv.Close()

	box, err := c.GetBoxByID(context.Background(), validBoxID)
	if err != nil {
		t.Fatalf("expected no error for a 404, got %v", err)
	}
	if box != nil {
		t.Fatalf("expected nil box for not-found, got %+v", box)
	}
}

func TestGetBoxByIDDecodesBox(t *testing.T) {
	srv, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/info":
			json.NewEncoder(w).Encode(map[string]uint32{"height": 100})
		case strings.HasPrefix(r.URL.Path, "/boxes/"):
			json.NewEncoder(w).Encode(boxDTO{BoxID: validBoxID, Value: 1_000_000, ErgoTree: "tree"})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})
	defer srv.Close()

	box, err := c.GetBoxByID(context.Background(), validBoxID)
	if err != nil {
		t.Fatalf("GetBoxByID: %v", err)
	}
	if box == nil || box.BoxID != validBoxID || box.Value != 1_000_000 {
		t.Fatalf("unexpected box: %+v", box)
	}
}

func TestSubmitRejectsMalformedTxID(t *testing.T) {
	srv, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/info":
			json.NewEncoder(w).Encode(map[string]uint32{"height": 100})
		case "/transactions":
			w.Write([]byte(`"not-a-valid-hex-txid"`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})
	defer srv.Close()

	if _, err := c.Submit(context.Background(), []byte(`{}`)); err == nil {
		t.Fatal("expected error for a malformed transaction id in the submit response")
	}
}

func TestSubmitReturnsTxID(t *testing.T) {
	srv, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/info":
			json.NewEncoder(w).Encode(map[string]uint32{"height": 100})
		case "/transactions":
			body, _ := json.Marshal(validBoxID)
			w.Write(body)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})
	defer srv.Close()

	txID, err := c.Submit(context.Background(), []byte(`{}`))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if txID != validBoxID {
		t.Fatalf("txID = %q, want %q", txID, validBoxID)
	}
}
