package chain_test

import (
	"errors"
	"testing"

	"github.com/jmerrifield20/starnotary/internal/chain"
)

func populatedStore(t *testing.T, claims int) *memStore {
	t.Helper()
	s := &memStore{}
	l := newInitialized(t, chain.WithStore(s), chain.WithClock(fixedClock(1_700_000_000)))
	for i := 0; i < claims; i++ {
		if _, err := l.Append(ctx, claimBlock(t, "owner", string(rune('a'+i)))); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func TestCopy_emptyDestination(t *testing.T) {
	src := populatedStore(t, 3)
	dst := &memStore{}

	n, err := chain.Copy(ctx, src, dst)
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Fatalf("written: got %d, want 4", n)
	}

	l := newInitialized(t, chain.WithStore(dst))
	if h := l.Height(); h != 3 {
		t.Errorf("restored height: got %d, want 3", h)
	}
}

func TestCopy_resumesFromPrefix(t *testing.T) {
	src := populatedStore(t, 3)
	dst := &memStore{blocks: append([]*chain.Block(nil), src.blocks[:2]...)}

	n, err := chain.Copy(ctx, src, dst)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("written: got %d, want 2", n)
	}
	if len(dst.blocks) != 4 {
		t.Errorf("destination length: got %d, want 4", len(dst.blocks))
	}
}

func TestCopy_upToDateWritesNothing(t *testing.T) {
	src := populatedStore(t, 1)
	dst := &memStore{blocks: append([]*chain.Block(nil), src.blocks...)}

	n, err := chain.Copy(ctx, src, dst)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("written: got %d, want 0", n)
	}
}

func TestCopy_divergedDestination(t *testing.T) {
	src := populatedStore(t, 2)
	other := populatedStore(t, 0)
	other.blocks[0].Hash = "not-the-same"

	_, err := chain.Copy(ctx, src, other)
	if !errors.Is(err, chain.ErrStoreDiverged) {
		t.Fatalf("expected ErrStoreDiverged, got %v", err)
	}
}

func TestCopy_rejectsCorruptSource(t *testing.T) {
	src := populatedStore(t, 2)
	src.blocks[1].Body = "00"

	_, err := chain.Copy(ctx, src, &memStore{})
	if !errors.Is(err, chain.ErrChainCorrupted) {
		t.Fatalf("expected ErrChainCorrupted, got %v", err)
	}
}

func TestCopy_saveFailure(t *testing.T) {
	src := populatedStore(t, 1)
	boom := errors.New("disk full")

	n, err := chain.Copy(ctx, src, &memStore{saveErr: boom})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped save error, got %v", err)
	}
	if n != 0 {
		t.Errorf("written: got %d, want 0", n)
	}
}
