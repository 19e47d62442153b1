package cart

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ogozo/service-storefront/internal/broker"
)

var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrCheckoutDisabled = errors.New("checkout is disabled")
	ErrInvalidCheckout  = errors.New("invalid checkout details")
)

// Publisher hands a checked out cart to the order pipeline.
type Publisher interface {
	PublishCartCheckedOut(ctx context.Context, event broker.CartCheckedOutEvent) error
}

type CheckoutRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	City     string `json:"city"`
	Address  string `json:"address"`
}

func (r CheckoutRequest) normalize() CheckoutRequest {
	return CheckoutRequest{
		FullName: strings.TrimSpace(r.FullName),
		Email:    strings.TrimSpace(r.Email),
		Phone:    strings.TrimSpace(r.Phone),
		City:     strings.TrimSpace(r.City),
		Address:  strings.TrimSpace(r.Address),
	}
}

func (r CheckoutRequest) validate() error {
	var missing []string
	for name, v := range map[string]string{
		"fullName": r.FullName,
		"email":    r.Email,
		"phone":    r.Phone,
		"city":     r.City,
		"address":  r.Address,
	} {
		if v == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("%w: missing %s", ErrInvalidCheckout, strings.Join(missing, ", "))
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return fmt.Errorf("%w: email: %v", ErrInvalidCheckout, err)
	}
	return nil
}

type CheckoutReceipt struct {
	CheckoutID  string          `json:"checkoutId"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
	TotalCount  int             `json:"totalCount"`
	AmountMinor int64           `json:"amountMinor"`
	Currency    string          `json:"currency"`
}

// Checkout materializes the cart and publishes it for order processing. The
// cart is not cleared here; on success the caller persists Clear().
func (s *Service) Checkout(ctx context.Context, token string, req CheckoutRequest) (CheckoutReceipt, error) {
	if s.publisher == nil {
		return CheckoutReceipt{}, ErrCheckoutDisabled
	}

	req = req.normalize()
	if err := req.validate(); err != nil {
		return CheckoutReceipt{}, err
	}

	m, err := s.Get(ctx, token)
	if err != nil {
		return CheckoutReceipt{}, err
	}
	if m.IsEmpty() {
		return CheckoutReceipt{}, ErrEmptyCart
	}

	event := broker.CartCheckedOutEvent{
		CheckoutID: uuid.NewString(),
		Customer: broker.Customer{
			FullName: req.FullName,
			Email:    req.Email,
			Phone:    req.Phone,
			City:     req.City,
			Address:  req.Address,
		},
		Items:        make([]broker.CheckedOutItem, 0, len(m.LineItems)),
		TotalPrice:   m.TotalPrice.String(),
		AmountMinor:  minorUnits(m.TotalPrice),
		Currency:     s.currency,
		CheckedOutAt: time.Now().UTC(),
	}
	for _, li := range m.LineItems {
		event.Items = append(event.Items, broker.CheckedOutItem{
			ProductID: li.Product.ID,
			Name:      li.Product.Name,
			UnitPrice: li.Product.UnitPrice.String(),
			Quantity:  li.Count,
			LineTotal: li.LineTotal.String(),
		})
	}

	if err := s.publisher.PublishCartCheckedOut(ctx, event); err != nil {
		s.logger.Error("failed to publish checkout", zap.String("checkout_id", event.CheckoutID), zap.Error(err))
		return CheckoutReceipt{}, fmt.Errorf("publish checkout: %w", err)
	}

	s.logger.Info("cart checked out",
		zap.String("checkout_id", event.CheckoutID),
		zap.Int("items", m.TotalCount),
		zap.String("total", event.TotalPrice),
	)
	return CheckoutReceipt{
		CheckoutID:  event.CheckoutID,
		TotalPrice:  m.TotalPrice,
		TotalCount:  m.TotalCount,
		AmountMinor: event.AmountMinor,
		Currency:    s.currency,
	}, nil
}

// minorUnits converts a major-unit amount to cents, rounding half away from zero.
func minorUnits(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}
