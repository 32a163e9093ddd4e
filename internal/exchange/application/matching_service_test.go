package application

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumitrade/exchange/internal/exchange/domain"
	"github.com/lumitrade/exchange/internal/exchange/infrastructure/persistence/memory"
)

type capturedEvent struct {
	Topic string
	Key   string
	Event any
}

// capturingPublisher 记录所有发布的事件，用于断言
type capturingPublisher struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (p *capturingPublisher) Publish(ctx context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, capturedEvent{Topic: topic, Key: key, Event: event})
	return nil
}

func (p *capturingPublisher) byTopic(topic string) []capturedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []capturedEvent
	for _, e := range p.events {
		if e.Topic == topic {
			out = append(out, e)
		}
	}
	return out
}

func newTestService(publisher domain.EventPublisher) (*MatchingService, *memory.TradeRepository) {
	repo := memory.NewTradeRepository()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewMatchingService("BTC-USDT", repo, memory.NewSnapshotRepository(), publisher, nil, log)
	return svc, repo
}

func TestSubmitOrderLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("resting order is pending", func(t *testing.T) {
		svc, _ := newTestService(nil)

		result, err := svc.SubmitOrder(ctx, &SubmitOrderRequest{
			Side: "BUY", Price: "100", Quantity: "2",
		})
		require.NoError(t, err)

		assert.NotEmpty(t, result.OrderID)
		assert.Equal(t, StatusPending, result.Status)
		assert.Equal(t, "2", result.RemainingQuantity)
		assert.Empty(t, result.Trades)
	})

	t.Run("crossing orders produce trades and persist them", func(t *testing.T) {
		svc, repo := newTestService(nil)

		sell, err := svc.SubmitOrder(ctx, &SubmitOrderRequest{
			Side: "SELL", Price: "100", Quantity: "5",
		})
		require.NoError(t, err)

		buy, err := svc.SubmitOrder(ctx, &SubmitOrderRequest{
			Side: "BUY", Price: "100", Quantity: "3",
		})
		require.NoError(t, err)

		assert.Equal(t, StatusMatched, buy.Status)
		assert.Equal(t, "0", buy.RemainingQuantity)
		require.Len(t, buy.Trades, 1)
		assert.Equal(t, sell.OrderID, buy.Trades[0].MakerOrderID)
		assert.Equal(t, buy.OrderID, buy.Trades[0].TakerOrderID)
		assert.Equal(t, "100", buy.Trades[0].Price)
		assert.Equal(t, "3", buy.Trades[0].Quantity)

		persisted, err := repo.GetLatestTrades(ctx, "BTC-USDT", 10)
		require.NoError(t, err)
		assert.Len(t, persisted, 1)
	})

	t.Run("partial fill reports remainder", func(t *testing.T) {
		svc, _ := newTestService(nil)

		_, err := svc.SubmitOrder(ctx, &SubmitOrderRequest{
			Side: "SELL", Price: "100", Quantity: "2",
		})
		require.NoError(t, err)

		result, err := svc.SubmitOrder(ctx, &SubmitOrderRequest{
			Side: "BUY", Price: "100", Quantity: "5",
		})
		require.NoError(t, err)

		assert.Equal(t, StatusPartiallyMatched, result.Status)
		assert.Equal(t, "3", result.RemainingQuantity)
	})

	t.Run("market order is rejected and book stays intact", func(t *testing.T) {
		svc, _ := newTestService(nil)

		_, err := svc.SubmitOrder(ctx, &SubmitOrderRequest{
			Side: "SELL", Price: "100", Quantity: "5",
		})
		require.NoError(t, err)

		_, err = svc.SubmitOrder(ctx, &SubmitOrderRequest{
			Side: "BUY", Type: "MARKET", Quantity: "1",
		})
		assert.ErrorIs(t, err, domain.ErrUnsupportedOrder)

		snap, err := svc.GetOrderBook(ctx, 10)
		require.NoError(t, err)
		require.Len(t, snap.Asks, 1)
		assert.Equal(t, "5", snap.Asks[0].Quantity.String())
	})

	t.Run("invalid input is rejected before matching", func(t *testing.T) {
		svc, _ := newTestService(nil)

		_, err := svc.SubmitOrder(ctx, &SubmitOrderRequest{Side: "HODL", Price: "100", Quantity: "1"})
		assert.ErrorIs(t, err, domain.ErrInvalidSide)

		_, err = svc.SubmitOrder(ctx, &SubmitOrderRequest{Side: "BUY", Price: "abc", Quantity: "1"})
		assert.ErrorIs(t, err, domain.ErrInvalidPrice)

		_, err = svc.SubmitOrder(ctx, &SubmitOrderRequest{Side: "BUY", Price: "100", Quantity: "-1"})
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	})
}

func TestSubmitOrderPublishesEvents(t *testing.T) {
	ctx := context.Background()
	publisher := &capturingPublisher{}
	svc, _ := newTestService(publisher)

	_, err := svc.SubmitOrder(ctx, &SubmitOrderRequest{
		Side: "SELL", Price: "105", Quantity: "5",
	})
	require.NoError(t, err)

	// 限价高于最优卖价：先产出套利信号，再照常撮合
	result, err := svc.SubmitOrder(ctx, &SubmitOrderRequest{
		Side: "BUY", Price: "110", Quantity: "5",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusMatched, result.Status)
	require.Len(t, result.Trades, 1)
	assert.Equal(t, "105", result.Trades[0].Price, "execution still honors the maker price")

	crossings := publisher.byTopic(domain.CrossingDetectedTopic)
	require.Len(t, crossings, 1)
	event := crossings[0].Event.(*domain.CrossingDetectedEvent)
	assert.Equal(t, result.OrderID, event.OrderID)
	assert.Contains(t, event.Message, "higher than best ASK of 105")

	executed := publisher.byTopic(domain.TradeExecutedTopic)
	require.Len(t, executed, 1)
	assert.Equal(t, result.OrderID, executed[0].Key)
}

func TestGetOrderBookAndTrades(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(nil)

	for _, req := range []*SubmitOrderRequest{
		{Side: "BUY", Price: "99", Quantity: "1"},
		{Side: "BUY", Price: "98", Quantity: "2"},
		{Side: "SELL", Price: "101", Quantity: "1"},
	} {
		_, err := svc.SubmitOrder(ctx, req)
		require.NoError(t, err)
	}

	snap, err := svc.GetOrderBook(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "BTC-USDT", snap.Symbol)
	require.Len(t, snap.Bids, 2)
	assert.Equal(t, "99", snap.Bids[0].Price.String())
	require.Len(t, snap.Asks, 1)

	// 触发一笔成交后查询历史
	_, err = svc.SubmitOrder(ctx, &SubmitOrderRequest{Side: "SELL", Price: "99", Quantity: "1"})
	require.NoError(t, err)

	trades, err := svc.GetTrades(ctx, 10)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "99", trades[0].Price)
}
