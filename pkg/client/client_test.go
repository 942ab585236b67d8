package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jmerrifield20/starnotary/pkg/client"
)

// ── Stub server ─────────────────────────────────────────────────────────

func stubNotaryServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/chain", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"height": 2, "tip": "abc"})
	})

	mux.HandleFunc("/api/v1/chain/validate", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"valid": false,
			"violations": []map[string]any{
				{"block": map[string]any{"height": 1, "hash": "h1"}, "reasons": []string{"stored hash does not match block contents"}},
			},
		})
	})

	mux.HandleFunc("/api/v1/blocks/height/1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"height": 1, "time": 1700000000, "previous_hash": "h0", "body": "7b7d", "hash": "h1",
			"body_decoded": map[string]any{"owner": "addr1", "star": map[string]string{"ra": "1h", "dec": "2", "story": "s"}},
		})
	})

	mux.HandleFunc("/api/v1/blocks/height/99", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"block not found"}`))
	})

	mux.HandleFunc("/api/v1/blocks/hash/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"block not found"}`))
	})

	mux.HandleFunc("/api/v1/challenges", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(map[string]any{
			"address":           req["address"],
			"message":           req["address"] + ":1700000000:starRegistry",
			"request_timestamp": 1700000000,
			"validation_window": 300,
		})
	})

	mux.HandleFunc("/api/v1/claims", func(w http.ResponseWriter, r *http.Request) {
		var req client.ClaimRequest
		json.NewDecoder(r.Body).Decode(&req)
		switch req.Signature {
		case "stale":
			w.WriteHeader(http.StatusGone)
			w.Write([]byte(`{"error":"challenge has expired; request a new one"}`))
		case "forged":
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"signature verification failed"}`))
		default:
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]any{"height": 3, "hash": "h3"})
		}
	})

	mux.HandleFunc("/api/v1/owners/addr1/stars", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"owner": "addr1",
			"stars": []map[string]string{{"ra": "C1"}, {"ra": "C2"}},
		})
	})

	mux.HandleFunc("/api/v1/blocks", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Admin-Secret") != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"invalid admin secret"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"height": 4, "hash": "h4"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

var ctx = context.Background()

// ── Tests ───────────────────────────────────────────────────────────────

func TestNew_invalidURL(t *testing.T) {
	if _, err := client.New("not a url"); err == nil {
		t.Error("expected error for invalid URL")
	}
}

func TestOverview(t *testing.T) {
	c := client.MustNew(stubNotaryServer(t).URL)
	o, err := c.Overview(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if o.Height != 2 || o.Tip != "abc" {
		t.Errorf("unexpected overview: %+v", o)
	}
}

func TestValidate(t *testing.T) {
	c := client.MustNew(stubNotaryServer(t).URL)
	res, err := c.Validate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid || len(res.Violations) != 1 || res.Violations[0].Block.Height != 1 {
		t.Errorf("unexpected validation result: %+v", res)
	}
}

func TestBlockByHeight(t *testing.T) {
	c := client.MustNew(stubNotaryServer(t).URL)

	b, err := c.BlockByHeight(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if b.Hash != "h1" || b.BodyDecoded == nil || b.BodyDecoded.Owner != "addr1" {
		t.Errorf("unexpected block: %+v", b)
	}

	missing, err := c.BlockByHeight(ctx, 99)
	if err != nil || missing != nil {
		t.Errorf("missing height: got %+v, %v; want nil, nil", missing, err)
	}
}

func TestBlockByHeight_unmountedRouteIsAnError(t *testing.T) {
	srv := stubNotaryServer(t)
	c := client.MustNew(srv.URL + "/wrong-prefix")

	b, err := c.BlockByHeight(ctx, 1)
	if b != nil {
		t.Errorf("expected no block, got %+v", b)
	}
	if !errors.Is(err, client.ErrNotFound) {
		t.Errorf("expected ErrNotFound for a route 404, got %v", err)
	}
}

func TestBlockByHash_notFound(t *testing.T) {
	c := client.MustNew(stubNotaryServer(t).URL)
	_, err := c.BlockByHash(ctx, "nope")
	if !errors.Is(err, client.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "block not found" {
		t.Errorf("expected APIError with server message, got %v", err)
	}
}

func TestClaimFlow(t *testing.T) {
	c := client.MustNew(stubNotaryServer(t).URL)

	ch, err := c.RequestChallenge(ctx, "addr1")
	if err != nil {
		t.Fatal(err)
	}
	if ch.Message != "addr1:1700000000:starRegistry" {
		t.Errorf("message: got %q", ch.Message)
	}

	req := client.ClaimRequest{Address: "addr1", Message: ch.Message, Signature: "sig", Star: client.Star{RA: "1h", Dec: "2", Story: "s"}}
	b, err := c.SubmitClaim(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if b.Height != 3 {
		t.Errorf("height: got %d", b.Height)
	}

	req.Signature = "stale"
	if _, err := c.SubmitClaim(ctx, req); !errors.Is(err, client.ErrChallengeExpired) {
		t.Errorf("expected ErrChallengeExpired, got %v", err)
	}

	req.Signature = "forged"
	if _, err := c.SubmitClaim(ctx, req); !errors.Is(err, client.ErrSignatureInvalid) {
		t.Errorf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestStarsByOwner(t *testing.T) {
	c := client.MustNew(stubNotaryServer(t).URL)
	stars, err := c.StarsByOwner(ctx, "addr1")
	if err != nil {
		t.Fatal(err)
	}
	if len(stars) != 2 || stars[0].RA != "C1" || stars[1].RA != "C2" {
		t.Errorf("unexpected stars: %+v", stars)
	}
}

func TestAppendData(t *testing.T) {
	srv := stubNotaryServer(t)

	if _, err := client.MustNew(srv.URL).AppendData(ctx, "x"); err == nil {
		t.Error("expected error without admin secret")
	}

	_, err := client.MustNew(srv.URL, client.WithAdminSecret("wrong")).AppendData(ctx, "x")
	if !errors.Is(err, client.ErrAdminUnauthorized) {
		t.Errorf("expected ErrAdminUnauthorized, got %v", err)
	}

	b, err := client.MustNew(srv.URL, client.WithAdminSecret("s3cret")).AppendData(ctx, map[string]string{"note": "x"})
	if err != nil {
		t.Fatal(err)
	}
	if b.Height != 4 {
		t.Errorf("height: got %d", b.Height)
	}
}
