package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeChannel struct {
	exchange string
	msgs     []amqp.Publishing
	err      error
	closed   bool
}

func (f *fakeChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.exchange = exchange
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func sampleEvent() CartCheckedOutEvent {
	return CartCheckedOutEvent{
		CheckoutID: "c-1",
		Customer:   Customer{FullName: "Ada", Email: "ada@example.com"},
		Items: []CheckedOutItem{
			{ProductID: "ring-1", Name: "Gold ring", UnitPrice: "500", Quantity: 2, LineTotal: "1000"},
		},
		TotalPrice:   "1000",
		AmountMinor:  100000,
		Currency:     "usd",
		CheckedOutAt: time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestPublishCartCheckedOut(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{channel: ch, logger: zap.NewNop()}

	require.NoError(t, p.PublishCartCheckedOut(context.Background(), sampleEvent()))
	require.Len(t, ch.msgs, 1)

	msg := ch.msgs[0]
	assert.Equal(t, CartCheckedOutExchange, ch.exchange)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "c-1", msg.MessageId)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, "c-1", decoded["checkout_id"])
	assert.EqualValues(t, 100000, decoded["amount_minor"])
	items := decoded["items"].([]any)
	assert.Equal(t, "ring-1", items[0].(map[string]any)["product_id"])
}

func TestPublishCartCheckedOutErrors(t *testing.T) {
	boom := errors.New("channel closed")
	p := &Publisher{channel: &fakeChannel{err: boom}, logger: zap.NewNop()}

	err := p.PublishCartCheckedOut(context.Background(), sampleEvent())
	require.ErrorIs(t, err, boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, p.PublishCartCheckedOut(ctx, sampleEvent()), context.Canceled)
}

func TestCloseWithoutConnection(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{channel: ch, logger: zap.NewNop()}
	p.Close()
	assert.True(t, ch.closed)
}
