package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/jmerrifield20/starnotary/internal/chain"
	"github.com/jmerrifield20/starnotary/internal/wallet"
	"go.uber.org/zap"
)

const (
	// DefaultValidationWindow is how long a challenge may be signed and
	// submitted after it was issued.
	DefaultValidationWindow = 5 * time.Minute

	// MaxStoryBytes bounds the plain-text story attached to a star.
	MaxStoryBytes = 500

	challengeSuffix = "starRegistry"
)

// Sentinel errors for the notary service.
var (
	ErrChallengeExpired   = errors.New("challenge has expired; request a new one")
	ErrSignatureInvalid   = errors.New("signature verification failed")
	ErrMalformedChallenge = errors.New("malformed challenge message")
	ErrInvalidStar        = errors.New("invalid star data")
	ErrInvalidAddress     = errors.New("invalid wallet address")
)

// Challenge is the message an address owner must sign to register a star.
type Challenge struct {
	Address          string    `json:"address"`
	Message          string    `json:"message"`
	RequestTimestamp int64     `json:"request_timestamp"`
	ValidationWindow int64     `json:"validation_window"` // seconds
	ExpiresAt        time.Time `json:"expires_at"`
}

// ClaimRequest is a signed request to register star for Address.
type ClaimRequest struct {
	Address   string     `json:"address"`
	Message   string     `json:"message"`
	Signature string     `json:"signature"`
	Star      chain.Star `json:"star"`
}

// Overview summarises the chain.
type Overview struct {
	Height int64  `json:"height"`
	Tip    string `json:"tip"`
}

// chainLedger is the ledger interface required by NotaryService.
// *chain.Ledger satisfies this interface.
type chainLedger interface {
	Append(ctx context.Context, block *chain.Block) (*chain.Block, error)
	Height() int64
	Tip() *chain.Block
	BlockByHash(hash string) (*chain.Block, error)
	BlockByHeight(h int64) *chain.Block
	ClaimsByOwner(address string) []chain.Star
	Validate() []chain.Violation
}

// NotaryService gates ledger writes behind proof of possession of a wallet.
type NotaryService struct {
	ledger   chainLedger
	verifier wallet.Verifier
	window   time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewNotaryService creates a NotaryService with the default validation window.
func NewNotaryService(ledger chainLedger, verifier wallet.Verifier, logger *zap.Logger) *NotaryService {
	return &NotaryService{
		ledger:   ledger,
		verifier: verifier,
		window:   DefaultValidationWindow,
		now:      time.Now,
		logger:   logger,
	}
}

// SetValidationWindow overrides how long a challenge stays valid.
func (s *NotaryService) SetValidationWindow(d time.Duration) {
	if d > 0 {
		s.window = d
	}
}

// SetClock overrides the time source used to issue and check challenges.
func (s *NotaryService) SetClock(now func() time.Time) {
	s.now = now
}

// RequestChallenge returns the message address must sign. Nothing is stored;
// freshness is enforced from the embedded timestamp on submission.
func (s *NotaryService) RequestChallenge(_ context.Context, address string) (*Challenge, error) {
	if err := s.verifier.ValidateAddress(address); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	issued := s.now().Unix()
	return &Challenge{
		Address:          address,
		Message:          fmt.Sprintf("%s:%d:%s", address, issued, challengeSuffix),
		RequestTimestamp: issued,
		ValidationWindow: int64(s.window / time.Second),
		ExpiresAt:        time.Unix(issued, 0).Add(s.window).UTC(),
	}, nil
}

// SubmitClaim verifies a signed challenge and appends the star claim to the
// chain. Ledger errors are returned wrapped and unchanged in kind.
func (s *NotaryService) SubmitClaim(ctx context.Context, req ClaimRequest) (*chain.Block, error) {
	issued, err := parseChallenge(req.Message, req.Address)
	if err != nil {
		return nil, err
	}

	now := s.now().Unix()
	if issued > now {
		return nil, fmt.Errorf("%w: timestamp is in the future", ErrMalformedChallenge)
	}
	if elapsed := now - issued; elapsed >= int64(s.window/time.Second) {
		s.logger.Info("claim rejected: challenge expired",
			zap.String("address", req.Address),
			zap.Int64("elapsed_seconds", elapsed),
		)
		return nil, ErrChallengeExpired
	}

	ok, err := s.verifier.VerifyMessage(req.Address, req.Message, req.Signature)
	if err != nil {
		if errors.Is(err, wallet.ErrInvalidAddress) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}
	if !ok {
		s.logger.Info("claim rejected: bad signature", zap.String("address", req.Address))
		return nil, ErrSignatureInvalid
	}

	if err := validateStar(req.Star); err != nil {
		return nil, err
	}

	block, err := chain.NewClaimBlock(req.Address, req.Star)
	if err != nil {
		return nil, fmt.Errorf("build claim block: %w", err)
	}

	committed, err := s.ledger.Append(ctx, block)
	if err != nil {
		s.logger.Error("ledger append failed",
			zap.String("address", req.Address),
			zap.Error(err),
		)
		return nil, fmt.Errorf("append claim: %w", err)
	}

	s.logger.Info("star registered",
		zap.String("address", req.Address),
		zap.Int64("height", committed.Height),
		zap.String("hash", committed.Hash),
	)
	return committed, nil
}

// AppendData appends an arbitrary payload without a wallet signature. It is
// reserved for privileged callers and never creates a claim.
func (s *NotaryService) AppendData(ctx context.Context, data any) (*chain.Block, error) {
	block, err := chain.NewDataBlock(data)
	if err != nil {
		return nil, err
	}
	committed, err := s.ledger.Append(ctx, block)
	if err != nil {
		return nil, fmt.Errorf("append data: %w", err)
	}
	s.logger.Info("privileged block appended",
		zap.Int64("height", committed.Height),
		zap.String("hash", committed.Hash),
	)
	return committed, nil
}

// Height returns the chain height (-1 when empty).
func (s *NotaryService) Height() int64 {
	return s.ledger.Height()
}

// Overview returns the chain height and tip hash.
func (s *NotaryService) Overview() Overview {
	o := Overview{Height: s.ledger.Height()}
	if tip := s.ledger.Tip(); tip != nil {
		o.Tip = tip.Hash
	}
	return o
}

// BlockByHash returns the block with the given hash or chain.ErrBlockNotFound.
func (s *NotaryService) BlockByHash(hash string) (*chain.Block, error) {
	return s.ledger.BlockByHash(hash)
}

// BlockByHeight returns the block at height h, or nil.
func (s *NotaryService) BlockByHeight(h int64) *chain.Block {
	return s.ledger.BlockByHeight(h)
}

// StarsByOwner returns the stars registered to address in chain order.
func (s *NotaryService) StarsByOwner(address string) []chain.Star {
	return s.ledger.ClaimsByOwner(address)
}

// ValidateChain audits the whole chain.
func (s *NotaryService) ValidateChain() []chain.Violation {
	violations := s.ledger.Validate()
	if len(violations) > 0 {
		s.logger.Warn("chain validation found invalid blocks", zap.Int("count", len(violations)))
	}
	return violations
}

// parseChallenge checks the "<address>:<unix>:starRegistry" layout and returns
// the embedded timestamp.
func parseChallenge(message, address string) (int64, error) {
	parts := strings.Split(message, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: expected 3 fields, got %d", ErrMalformedChallenge, len(parts))
	}
	if parts[0] != address {
		return 0, fmt.Errorf("%w: address does not match", ErrMalformedChallenge)
	}
	if parts[2] != challengeSuffix {
		return 0, fmt.Errorf("%w: unexpected suffix %q", ErrMalformedChallenge, parts[2])
	}
	ts, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad timestamp %q", ErrMalformedChallenge, parts[1])
	}
	return ts, nil
}

func validateStar(star chain.Star) error {
	if strings.TrimSpace(star.RA) == "" {
		return fmt.Errorf("%w: ra is required", ErrInvalidStar)
	}
	if strings.TrimSpace(star.Dec) == "" {
		return fmt.Errorf("%w: dec is required", ErrInvalidStar)
	}
	if strings.TrimSpace(star.Story) == "" {
		return fmt.Errorf("%w: story is required", ErrInvalidStar)
	}
	if len(star.Story) > MaxStoryBytes {
		return fmt.Errorf("%w: story exceeds %d bytes", ErrInvalidStar, MaxStoryBytes)
	}
	for _, r := range star.Story {
		if r > unicode.MaxASCII {
			return fmt.Errorf("%w: story must be ASCII", ErrInvalidStar)
		}
	}
	return nil
}
