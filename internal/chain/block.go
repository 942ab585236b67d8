package chain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Block is a single entry in the chain. Height, Time, PreviousHash and Hash
// are assigned by Ledger.Append and never change after commit.
type Block struct {
	Height       int64  `json:"height"`
	Time         int64  `json:"time"`                    // unix seconds
	PreviousHash string `json:"previous_hash,omitempty"` // empty for genesis
	Body         string `json:"body"`                    // hex-encoded payload
	Hash         string `json:"hash"`
}

// NewBlock returns an unlinked block carrying body.
func NewBlock(body string) *Block {
	return &Block{Body: body}
}

// hashFields is the canonical input to the block digest. Hash is not part of it.
type hashFields struct {
	height       int64
	time         int64
	previousHash string
	body         string
}

func (b *Block) fields() hashFields {
	return hashFields{
		height:       b.Height,
		time:         b.Time,
		previousHash: b.PreviousHash,
		body:         b.Body,
	}
}

// digest computes a deterministic SHA-256 hash over f. String fields are
// length-prefixed so no two field sets share an encoding.
func digest(f hashFields) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%d|%d:%s|%d:%s",
		f.height, f.time,
		len(f.previousHash), f.previousHash,
		len(f.body), f.body,
	)
	return hex.EncodeToString(h.Sum(nil))
}

// ComputeHash returns the hash of the block's current fields, excluding Hash.
func (b *Block) ComputeHash() string {
	return digest(b.fields())
}

// SelfConsistent reports whether the stored hash matches the recomputed one.
func (b *Block) SelfConsistent() bool {
	return b.Hash != "" && b.Hash == b.ComputeHash()
}

// IsGenesis reports whether b sits at height 0.
func (b *Block) IsGenesis() bool {
	return b.Height == 0
}

func (b *Block) clone() *Block {
	cp := *b
	return &cp
}
