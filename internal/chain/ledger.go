package chain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sentinel errors for the ledger.
var (
	ErrChainCorrupted = errors.New("chain validation failed")
	ErrBlockNotFound  = errors.New("block not found")
)

// Ledger owns the ordered block sequence. It is safe for concurrent use:
// Append is serialised under a write lock and all reads take a read lock.
type Ledger struct {
	mu     sync.RWMutex
	blocks []*Block

	store  Store // nil = volatile chain
	now    func() time.Time
	logger *zap.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithStore persists every committed block to s and restores the chain from
// it on Initialize.
func WithStore(s Store) Option {
	return func(l *Ledger) { l.store = s }
}

// WithClock overrides the time source used to stamp blocks.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithLogger sets the ledger logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// NewLedger creates an empty ledger. Call Initialize to restore or create the
// genesis block.
func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Initialize restores persisted blocks when a store is configured and creates
// the genesis block if the chain is still empty. It does nothing when the
// chain already has a genesis block.
func (l *Ledger) Initialize(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.blocks) > 0 {
		return nil
	}

	if l.store != nil {
		loaded, err := l.store.Load(ctx)
		if err != nil {
			return fmt.Errorf("load chain: %w", err)
		}
		if violations := Validate(loaded); len(violations) > 0 {
			for _, v := range violations {
				l.logger.Error("persisted block failed validation",
					zap.Int64("height", v.Block.Height),
					zap.String("hash", v.Block.Hash),
					zap.Strings("reasons", v.Reasons),
				)
			}
			return fmt.Errorf("%w: %d persisted block(s) rejected", ErrChainCorrupted, len(violations))
		}
		if len(loaded) > 0 {
			l.blocks = loaded
			l.logger.Info("chain restored",
				zap.Int("blocks", len(loaded)),
				zap.String("tip", loaded[len(loaded)-1].Hash),
			)
			return nil
		}
	}

	genesis, err := l.appendLocked(ctx, NewBlock(genesisBody()))
	if err != nil {
		return fmt.Errorf("create genesis block: %w", err)
	}
	l.logger.Info("genesis block created", zap.String("hash", genesis.Hash))
	return nil
}

// Append links block to the current tip, stamps and hashes it, validates the
// committed chain and commits. The chain and height change only when the
// block is committed. The returned block is a copy with every field set.
func (l *Ledger) Append(ctx context.Context, block *Block) (*Block, error) {
	if block == nil {
		return nil, errors.New("nil block")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.appendLocked(ctx, block)
}

// appendLocked must be called with l.mu held for writing.
func (l *Ledger) appendLocked(ctx context.Context, block *Block) (*Block, error) {
	b := &Block{Body: block.Body}
	if n := len(l.blocks); n == 0 {
		b.Height = 0
		b.PreviousHash = ""
	} else {
		tip := l.blocks[n-1]
		b.Height = tip.Height + 1
		b.PreviousHash = tip.Hash
	}
	b.Time = l.now().Unix()
	b.Hash = b.ComputeHash()

	if len(l.blocks) > 0 {
		if violations := Validate(l.blocks); len(violations) > 0 {
			for _, v := range violations {
				l.logger.Error("committed block failed validation",
					zap.Int64("height", v.Block.Height),
					zap.String("hash", v.Block.Hash),
					zap.Strings("reasons", v.Reasons),
				)
			}
			return nil, fmt.Errorf("%w: %d committed block(s) invalid", ErrChainCorrupted, len(violations))
		}
	}

	if l.store != nil {
		if err := l.store.Save(ctx, b); err != nil {
			return nil, fmt.Errorf("persist block %d: %w", b.Height, err)
		}
	}

	l.blocks = append(l.blocks, b)
	l.logger.Debug("block appended",
		zap.Int64("height", b.Height),
		zap.String("hash", b.Hash),
	)
	return b.clone(), nil
}

// Height returns the height of the tip, or -1 for an empty chain.
func (l *Ledger) Height() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return int64(len(l.blocks)) - 1
}

// Tip returns the most recent block, or nil for an empty chain.
func (l *Ledger) Tip() *Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.blocks) == 0 {
		return nil
	}
	return l.blocks[len(l.blocks)-1].clone()
}

// Blocks returns a copy of the chain in order.
func (l *Ledger) Blocks() []*Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Block, len(l.blocks))
	for i, b := range l.blocks {
		out[i] = b.clone()
	}
	return out
}

// BlockByHash returns the block whose hash equals hash, or ErrBlockNotFound.
func (l *Ledger) BlockByHash(hash string) (*Block, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, b := range l.blocks {
		if b.Hash == hash {
			return b.clone(), nil
		}
	}
	return nil, fmt.Errorf("%w: hash %s", ErrBlockNotFound, hash)
}

// BlockByHeight returns the block at height h, or nil if there is none.
func (l *Ledger) BlockByHeight(h int64) *Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, b := range l.blocks {
		if b.Height == h {
			return b.clone()
		}
	}
	return nil
}

// ClaimsByOwner returns, in chain order, the stars claimed by address.
// Blocks whose body is not a claim are skipped.
func (l *Ledger) ClaimsByOwner(address string) []Star {
	l.mu.RLock()
	defer l.mu.RUnlock()
	stars := []Star{}
	for _, b := range l.blocks {
		c, ok := DecodeClaim(b.Body)
		if !ok || c.Owner != address {
			continue
		}
		stars = append(stars, c.Star)
	}
	return stars
}

// Validate audits the whole chain and returns every offending block.
func (l *Ledger) Validate() []Violation {
	l.mu.RLock()
	defer l.mu.RUnlock()
	violations := Validate(l.blocks)
	if len(violations) == 0 {
		l.logger.Debug("chain valid", zap.Int("blocks", len(l.blocks)))
	}
	return violations
}
