package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ogozo/service-storefront/internal/catalog"
	"github.com/ogozo/service-storefront/internal/ledger"
)

var (
	ErrInvalidProductID = errors.New("product id is required")
	ErrLedgerTooLarge   = errors.New("cart is too large")
)

type Settings struct {
	// MaxTokenBytes bounds both accepted and produced tokens.
	MaxTokenBytes int
	Currency      string
	Publisher     Publisher
}

// Service applies cart operations to a token and returns the token to persist.
// It holds no cart state of its own.
type Service struct {
	lookup    catalog.Lookup
	logger    *zap.Logger
	maxBytes  int
	currency  string
	publisher Publisher
}

func NewService(lookup catalog.Lookup, logger *zap.Logger, settings Settings) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.MaxTokenBytes <= 0 {
		settings.MaxTokenBytes = ledger.DefaultMaxTokenBytes
	}
	if settings.Currency == "" {
		settings.Currency = "usd"
	}
	return &Service{
		lookup:    lookup,
		logger:    logger,
		maxBytes:  settings.MaxTokenBytes,
		currency:  strings.ToLower(settings.Currency),
		publisher: settings.Publisher,
	}
}

func (s *Service) MaxTokenBytes() int { return s.maxBytes }

// Add returns token with one more unit of productID. The returned token is
// empty when the cart is empty and the caller should delete it.
func (s *Service) Add(token, productID string) (string, error) {
	return s.mutate("add", token, productID, ledger.Add)
}

func (s *Service) Decrement(token, productID string) (string, error) {
	return s.mutate("decrement", token, productID, ledger.Decrement)
}

func (s *Service) Remove(token, productID string) (string, error) {
	return s.mutate("remove", token, productID, ledger.Remove)
}

// Clear always yields the empty token.
func (s *Service) Clear() string {
	s.logger.Debug("cart mutated", zap.String("op", "clear"))
	return ledger.Serialize(ledger.Ledger{})
}

// Get materializes the cart held in token. The token is never changed by a
// read, including a failed one.
func (s *Service) Get(ctx context.Context, token string) (Materialized, error) {
	l := s.parse(token)

	m, err := Materialize(ctx, s.lookup, l)
	if err != nil {
		s.logger.Error("failed to materialize cart",
			zap.Int("entries", l.Len()),
			zap.Error(err),
		)
		return Materialized{}, err
	}

	if dropped := l.Len() - len(m.LineItems); dropped > 0 {
		s.logger.Debug("dropped unresolved cart products", zap.Int("dropped", dropped))
	}
	return m, nil
}

func (s *Service) mutate(op, token, productID string, apply func(ledger.Ledger, string) ledger.Ledger) (string, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" || !utf8.ValidString(productID) {
		return token, ErrInvalidProductID
	}

	next := ledger.Serialize(apply(s.parse(token), productID))
	if len(next) > s.maxBytes {
		return token, fmt.Errorf("%w: %d bytes exceeds %d", ErrLedgerTooLarge, len(next), s.maxBytes)
	}

	s.logger.Debug("cart mutated",
		zap.String("op", op),
		zap.String("product_id", productID),
		zap.Bool("empty", next == ""),
	)
	return next, nil
}

// parse treats an unreadable token as an empty cart.
func (s *Service) parse(token string) ledger.Ledger {
	l, err := ledger.ParseLimit(token, s.maxBytes)
	if err != nil {
		s.logger.Warn("discarding unreadable cart token",
			zap.Int("token_bytes", len(token)),
			zap.Error(err),
		)
	}
	return l
}
