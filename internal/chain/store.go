package chain

import (
	"context"
	"errors"
	"fmt"
)

// Store persists committed blocks. Load returns blocks in height order.
// Save is called once per block, before the block is committed in memory;
// a Save error aborts the append.
type Store interface {
	Load(ctx context.Context) ([]*Block, error)
	Save(ctx context.Context, b *Block) error
	Close() error
}

// ErrStoreDiverged is returned by Copy when the destination already holds
// blocks that differ from the source chain.
var ErrStoreDiverged = errors.New("destination chain diverges from source")

// Copy replicates the chain held by src into dst. The source chain must
// validate. Blocks dst already holds must match the source prefix; only the
// missing suffix is written. It returns the number of blocks written.
func Copy(ctx context.Context, src, dst Store) (int, error) {
	blocks, err := src.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load source: %w", err)
	}
	if vs := Validate(blocks); len(vs) > 0 {
		return 0, fmt.Errorf("%w: source has %d invalid block(s)", ErrChainCorrupted, len(vs))
	}

	existing, err := dst.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load destination: %w", err)
	}
	if len(existing) > len(blocks) {
		return 0, fmt.Errorf("%w: destination is longer (%d > %d)", ErrStoreDiverged, len(existing), len(blocks))
	}
	for i, b := range existing {
		if b.Hash != blocks[i].Hash {
			return 0, fmt.Errorf("%w at height %d", ErrStoreDiverged, b.Height)
		}
	}

	written := 0
	for _, b := range blocks[len(existing):] {
		if err := dst.Save(ctx, b); err != nil {
			return written, fmt.Errorf("save block %d: %w", b.Height, err)
		}
		written++
	}
	return written, nil
}
