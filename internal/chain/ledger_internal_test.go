package chain

import (
	"context"
	"errors"
	"testing"
)

func TestLedgerValidate_flagsTamperedBlock(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()
	if err := l.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	b1, err := l.Append(ctx, NewBlock("7b7d"))
	if err != nil {
		t.Fatal(err)
	}

	l.blocks[1].Body = "7b2274616d7065726564223a747275657d"

	vs := l.Validate()
	if len(vs) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(vs))
	}
	if vs[0].Block.Hash != b1.Hash {
		t.Errorf("expected B1 flagged, got block at height %d", vs[0].Block.Height)
	}
}

func TestLedgerAppend_refusesCorruptedChain(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()
	if err := l.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Append(ctx, NewBlock("7b7d")); err != nil {
		t.Fatal(err)
	}

	l.blocks[0].PreviousHash = "tampered"

	_, err := l.Append(ctx, NewBlock("7b7d"))
	if !errors.Is(err, ErrChainCorrupted) {
		t.Fatalf("expected ErrChainCorrupted, got %v", err)
	}
	if h := l.Height(); h != 1 {
		t.Errorf("Height after refused append: got %d, want 1", h)
	}
}
