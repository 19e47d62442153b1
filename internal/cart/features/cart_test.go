package features

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ogozo/service-storefront/internal/cart"
	"github.com/ogozo/service-storefront/internal/catalog"
	"github.com/ogozo/service-storefront/internal/ledger"
)

type cartTestContext struct {
	products    map[string]catalog.Product
	unavailable bool

	token      string
	tokenAtGet string
	cart       cart.Materialized
	err        error
}

func (c *cartTestContext) reset() {
	c.products = map[string]catalog.Product{}
	c.unavailable = false
	c.token = ""
	c.tokenAtGet = ""
	c.cart = cart.Materialized{}
	c.err = nil
}

func (c *cartTestContext) service() *cart.Service {
	lookup := catalog.LookupFunc(func(ctx context.Context, ids []string) (map[string]catalog.Product, error) {
		if c.unavailable {
			return nil, errors.New("cms unreachable")
		}
		out := map[string]catalog.Product{}
		for _, id := range ids {
			if p, ok := c.products[id]; ok {
				out[id] = p
			}
		}
		return out, nil
	})
	return cart.NewService(lookup, zap.NewNop(), cart.Settings{})
}

func (c *cartTestContext) theCatalogListsAt(id string, price int) error {
	c.products[id] = catalog.Product{ID: id, Name: id, UnitPrice: decimal.NewFromInt(int64(price))}
	return nil
}

func (c *cartTestContext) theCatalogNoLongerLists(id string) error {
	delete(c.products, id)
	return nil
}

func (c *cartTestContext) theCatalogIsUnavailable() error {
	c.unavailable = true
	return nil
}

func (c *cartTestContext) anEmptyCart() error {
	c.token = ""
	return nil
}

func (c *cartTestContext) theCartToken(token string) error {
	c.token = token
	return nil
}

func (c *cartTestContext) iAddToTheCart(id string) error {
	next, err := c.service().Add(c.token, id)
	c.token = next
	return err
}

func (c *cartTestContext) iDecrement(id string) error {
	next, err := c.service().Decrement(c.token, id)
	c.token = next
	return err
}

func (c *cartTestContext) iRemoveFromTheCart(id string) error {
	next, err := c.service().Remove(c.token, id)
	c.token = next
	return err
}

func (c *cartTestContext) iViewTheCart() error {
	c.tokenAtGet = c.token
	c.cart, c.err = c.service().Get(context.Background(), c.token)
	return nil
}

func (c *cartTestContext) theCartHoldsOf(count int, id string) error {
	l, err := ledger.Parse(c.token)
	if err != nil {
		return err
	}
	if got := l.Count(id); got != count {
		return fmt.Errorf("expected %d of %q, got %d (token %s)", count, id, got, c.token)
	}
	return nil
}

func (c *cartTestContext) theCartTokenIsCleared() error {
	if c.token != "" {
		return fmt.Errorf("expected no token, got %s", c.token)
	}
	return nil
}

func (c *cartTestContext) theCartTokenIsUnchanged() error {
	if c.token != c.tokenAtGet {
		return fmt.Errorf("token changed from %s to %s", c.tokenAtGet, c.token)
	}
	return nil
}

func (c *cartTestContext) theCartShowsLineItems(n int) error {
	if c.err != nil {
		return fmt.Errorf("expected a cart but got error: %v", c.err)
	}
	if len(c.cart.LineItems) != n {
		return fmt.Errorf("expected %d line items, got %d", n, len(c.cart.LineItems))
	}
	return nil
}

func (c *cartTestContext) theCartTotalIsForItems(total, count int) error {
	if c.err != nil {
		return fmt.Errorf("expected a cart but got error: %v", c.err)
	}
	if !c.cart.TotalPrice.Equal(decimal.NewFromInt(int64(total))) {
		return fmt.Errorf("expected total %d, got %s", total, c.cart.TotalPrice)
	}
	if c.cart.TotalCount != count {
		return fmt.Errorf("expected %d items, got %d", count, c.cart.TotalCount)
	}
	return nil
}

func (c *cartTestContext) viewingTheCartFailsWithARetryableError() error {
	if !errors.Is(c.err, catalog.ErrUnavailable) {
		return fmt.Errorf("expected catalog unavailable, got %v", c.err)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &cartTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^the catalog lists "([^"]*)" at (\d+)$`, tc.theCatalogListsAt)
	ctx.Step(`^the catalog no longer lists "([^"]*)"$`, tc.theCatalogNoLongerLists)
	ctx.Step(`^the catalog is unavailable$`, tc.theCatalogIsUnavailable)
	ctx.Step(`^an empty cart$`, tc.anEmptyCart)
	ctx.Step(`^the cart token '([^']*)'$`, tc.theCartToken)

	// When steps
	ctx.Step(`^I add "([^"]*)" to the cart$`, tc.iAddToTheCart)
	ctx.Step(`^I decrement "([^"]*)"$`, tc.iDecrement)
	ctx.Step(`^I remove "([^"]*)" from the cart$`, tc.iRemoveFromTheCart)
	ctx.Step(`^I view the cart$`, tc.iViewTheCart)

	// Then steps
	ctx.Step(`^the cart holds (\d+) of "([^"]*)"$`, tc.theCartHoldsOf)
	ctx.Step(`^the cart token is cleared$`, tc.theCartTokenIsCleared)
	ctx.Step(`^the cart token is unchanged$`, tc.theCartTokenIsUnchanged)
	ctx.Step(`^the cart shows (\d+) line items$`, tc.theCartShowsLineItems)
	ctx.Step(`^the cart total is (\d+) for (\d+) items$`, tc.theCartTotalIsForItems)
	ctx.Step(`^viewing the cart fails with a retryable error$`, tc.viewingTheCartFailsWithARetryableError)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"cart.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
