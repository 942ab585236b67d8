package chain_test

import (
	"testing"

	"github.com/jmerrifield20/starnotary/internal/chain"
)

func sampleBlock() *chain.Block {
	b := &chain.Block{
		Height:       3,
		Time:         1_700_000_000,
		PreviousHash: "ab12",
		Body:         "7b7d",
	}
	b.Hash = b.ComputeHash()
	return b
}

func TestComputeHash_deterministic(t *testing.T) {
	a := sampleBlock()
	b := sampleBlock()
	if a.ComputeHash() != b.ComputeHash() {
		t.Errorf("identical fields produced different hashes: %q vs %q", a.ComputeHash(), b.ComputeHash())
	}
	if len(a.Hash) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a.Hash))
	}
}

func TestComputeHash_ignoresStoredHash(t *testing.T) {
	b := sampleBlock()
	before := b.ComputeHash()
	b.Hash = "something else"
	if got := b.ComputeHash(); got != before {
		t.Errorf("hash depends on stored hash: got %q, want %q", got, before)
	}
}

func TestComputeHash_changesWithEachField(t *testing.T) {
	base := sampleBlock().ComputeHash()

	cases := map[string]func(b *chain.Block){
		"height":        func(b *chain.Block) { b.Height++ },
		"time":          func(b *chain.Block) { b.Time++ },
		"previous_hash": func(b *chain.Block) { b.PreviousHash = "cd34" },
		"body":          func(b *chain.Block) { b.Body = "7b2261223a317d" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			b := sampleBlock()
			mutate(b)
			if b.ComputeHash() == base {
				t.Errorf("changing %s did not change the hash", name)
			}
		})
	}
}

func TestSelfConsistent(t *testing.T) {
	b := sampleBlock()
	if !b.SelfConsistent() {
		t.Fatal("freshly hashed block should be self-consistent")
	}

	b.Body = "00"
	if b.SelfConsistent() {
		t.Error("block with modified body should not be self-consistent")
	}

	unhashed := chain.NewBlock("00")
	if unhashed.SelfConsistent() {
		t.Error("block without a hash should not be self-consistent")
	}
}

func TestComputeHash_fieldBoundaries(t *testing.T) {
	a := &chain.Block{Height: 1, Time: 1_700_000_000, PreviousHash: "ab|cd", Body: "ef"}
	b := &chain.Block{Height: 1, Time: 1_700_000_000, PreviousHash: "ab", Body: "cd|ef"}
	if a.ComputeHash() == b.ComputeHash() {
		t.Error("moving a separator between previous hash and body did not change the hash")
	}
}
