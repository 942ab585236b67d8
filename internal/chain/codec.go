package chain

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// GenesisMessage is the marker payload carried by the genesis block.
const GenesisMessage = "First block in the chain - Genesis block"

// Star is the celestial object being claimed. Story is kept as plain text.
type Star struct {
	RA    string `json:"ra"`
	Dec   string `json:"dec"`
	Mag   string `json:"mag,omitempty"`
	Cen   string `json:"cen,omitempty"`
	Story string `json:"story"`
}

// Claim binds an owner's wallet address to a star.
type Claim struct {
	Owner string `json:"owner"`
	Star  Star   `json:"star"`
}

// Body kinds. Only bodies tagged KindClaim decode as claims.
const (
	KindClaim = "claim"
	KindData  = "data"
)

type genesisPayload struct {
	Data string `json:"data"`
}

type claimPayload struct {
	Kind  string `json:"kind"`
	Owner string `json:"owner"`
	Star  Star   `json:"star"`
}

type dataPayload struct {
	Kind string `json:"kind"`
	Data any    `json:"data"`
}

// EncodeBody JSON-encodes v and hex-encodes the result.
func EncodeBody(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal body: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

// DecodeBody reverses EncodeBody into v.
func DecodeBody(body string, v any) error {
	raw, err := hex.DecodeString(body)
	if err != nil {
		return fmt.Errorf("hex-decode body: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("unmarshal body: %w", err)
	}
	return nil
}

// DecodeClaim decodes body as a Claim. ok is false for bodies that are not
// tagged as claims, such as the genesis marker and privileged data.
func DecodeClaim(body string) (Claim, bool) {
	var p claimPayload
	if err := DecodeBody(body, &p); err != nil {
		return Claim{}, false
	}
	if p.Kind != KindClaim || p.Owner == "" {
		return Claim{}, false
	}
	return Claim{Owner: p.Owner, Star: p.Star}, true
}

// NewClaimBlock builds an unlinked block carrying the claim of owner on star.
func NewClaimBlock(owner string, star Star) (*Block, error) {
	body, err := EncodeBody(claimPayload{Kind: KindClaim, Owner: owner, Star: star})
	if err != nil {
		return nil, err
	}
	return NewBlock(body), nil
}

// NewDataBlock builds an unlinked block carrying an arbitrary payload. The
// payload is wrapped so it never decodes as a claim, whatever its shape.
func NewDataBlock(data any) (*Block, error) {
	body, err := EncodeBody(dataPayload{Kind: KindData, Data: data})
	if err != nil {
		return nil, err
	}
	return NewBlock(body), nil
}

func genesisBody() string {
	// json.Marshal cannot fail on a struct of strings.
	body, _ := EncodeBody(genesisPayload{Data: GenesisMessage})
	return body
}
