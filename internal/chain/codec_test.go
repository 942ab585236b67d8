package chain_test

import (
	"testing"

	"github.com/jmerrifield20/starnotary/internal/chain"
)

func TestDecodeClaim_roundTrip(t *testing.T) {
	star := chain.Star{RA: "16h 29m 1.0s", Dec: "-26° 29' 24.9", Story: "Found star using https://www.google.com/sky/"}

	b, err := chain.NewClaimBlock("1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", star)
	if err != nil {
		t.Fatal(err)
	}

	c, ok := chain.DecodeClaim(b.Body)
	if !ok {
		t.Fatal("expected body to decode as a claim")
	}
	if c.Owner != "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa" {
		t.Errorf("Owner: got %q", c.Owner)
	}
	if c.Star != star {
		t.Errorf("Star: got %+v, want %+v", c.Star, star)
	}
}

func TestDecodeClaim_rejectsNonClaims(t *testing.T) {
	genesis, err := chain.EncodeBody(map[string]string{"data": chain.GenesisMessage})
	if err != nil {
		t.Fatal(err)
	}

	for name, body := range map[string]string{
		"genesis":  genesis,
		"not hex":  "zz-not-hex",
		"not json": "6e6f74206a736f6e",
		"empty":    "",
	} {
		t.Run(name, func(t *testing.T) {
			if _, ok := chain.DecodeClaim(body); ok {
				t.Errorf("body %q should not decode as a claim", body)
			}
		})
	}
}

func TestDecodeClaim_ownerShapedDataIsNotAClaim(t *testing.T) {
	payload := map[string]any{
		"kind":  chain.KindClaim,
		"owner": "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa",
		"star":  map[string]string{"ra": "1h", "dec": "2", "story": "never signed"},
	}

	b, err := chain.NewDataBlock(payload)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := chain.DecodeClaim(b.Body); ok {
		t.Error("data block decoded as a claim")
	}

	// An untagged owner/star body is not a claim either.
	untagged, err := chain.EncodeBody(map[string]any{"owner": "addr", "star": payload["star"]})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := chain.DecodeClaim(untagged); ok {
		t.Error("untagged body decoded as a claim")
	}
}
