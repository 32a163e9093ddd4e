package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchFullFill(t *testing.T) {
	book := NewOrderBook("BTC-USDT")
	book.Insert(limitOrder("maker", SideSell, "100", "5"))

	taker := limitOrder("taker", SideBuy, "100", "5")
	trades, err := book.Match(taker)
	require.NoError(t, err)

	require.Len(t, trades, 1)
	assert.Equal(t, "maker", trades[0].MakerOrderID)
	assert.Equal(t, "taker", trades[0].TakerOrderID)
	assert.True(t, trades[0].Price.Equal(d("100")))
	assert.True(t, trades[0].Quantity.Equal(d("5")))

	assert.True(t, taker.IsFilled())
	assert.Equal(t, 0, book.LevelCount(), "both sides should be empty after exact fill")
}

func TestMatchPartialFillOfMaker(t *testing.T) {
	book := NewOrderBook("BTC-USDT")
	book.Insert(limitOrder("maker", SideSell, "100", "10"))

	trades, err := book.Match(limitOrder("taker", SideBuy, "100", "3"))
	require.NoError(t, err)

	require.Len(t, trades, 1)
	assert.True(t, trades[0].Quantity.Equal(d("3")))

	best, ok := book.BestAsk()
	require.True(t, ok)
	assert.True(t, best.TotalQuantity().Equal(d("7")), "maker keeps its reduced remainder and its queue position")
	assert.Equal(t, "maker", best.Orders.Front().Value.(*Order).ID)
}

func TestMatchPartialFillOfTaker(t *testing.T) {
	book := NewOrderBook("BTC-USDT")
	book.Insert(limitOrder("maker", SideSell, "100", "4"))

	taker := limitOrder("taker", SideBuy, "102", "10")
	trades, err := book.Match(taker)
	require.NoError(t, err)

	require.Len(t, trades, 1)
	assert.True(t, trades[0].Price.Equal(d("100")), "execution price is the maker price")
	assert.True(t, trades[0].Quantity.Equal(d("4")))

	assert.Equal(t, 0, book.Asks.Size())

	// 剩余量按原始限价重新挂簿
	best, ok := book.BestBid()
	require.True(t, ok)
	assert.True(t, best.Price.Equal(d("102")))
	assert.True(t, best.TotalQuantity().Equal(d("6")))
	assert.Equal(t, "taker", best.Orders.Front().Value.(*Order).ID)
}

func TestMatchSweepsMultipleLevels(t *testing.T) {
	book := NewOrderBook("BTC-USDT")
	book.Insert(limitOrder("a1", SideSell, "100", "2"))
	book.Insert(limitOrder("a2", SideSell, "101", "2"))
	book.Insert(limitOrder("a3", SideSell, "103", "2"))

	taker := limitOrder("taker", SideBuy, "101", "10")
	trades, err := book.Match(taker)
	require.NoError(t, err)

	require.Len(t, trades, 2)
	assert.True(t, trades[0].Price.Equal(d("100")), "cheapest ask consumed first")
	assert.True(t, trades[1].Price.Equal(d("101")))

	// 103 超出限价，不被消耗
	best, ok := book.BestAsk()
	require.True(t, ok)
	assert.True(t, best.Price.Equal(d("103")))

	// taker 剩余 6 挂入买盘
	bid, ok := book.BestBid()
	require.True(t, ok)
	assert.True(t, bid.Price.Equal(d("101")))
	assert.True(t, bid.TotalQuantity().Equal(d("6")))
}

func TestMatchTimePriorityWithinLevel(t *testing.T) {
	book := NewOrderBook("BTC-USDT")
	book.Insert(limitOrder("first", SideSell, "100", "2"))
	book.Insert(limitOrder("second", SideSell, "100", "2"))
	book.Insert(limitOrder("third", SideSell, "100", "2"))

	trades, err := book.Match(limitOrder("taker", SideBuy, "100", "5"))
	require.NoError(t, err)

	require.Len(t, trades, 3)
	assert.Equal(t, "first", trades[0].MakerOrderID)
	assert.Equal(t, "second", trades[1].MakerOrderID)
	assert.Equal(t, "third", trades[2].MakerOrderID)
	assert.True(t, trades[2].Quantity.Equal(d("1")), "last maker only partially consumed")

	best, ok := book.BestAsk()
	require.True(t, ok)
	require.Equal(t, 1, best.Orders.Len())
	assert.Equal(t, "third", best.Orders.Front().Value.(*Order).ID)
	assert.True(t, best.TotalQuantity().Equal(d("1")))
}

func TestMatchNoCrossRestsOrder(t *testing.T) {
	book := NewOrderBook("BTC-USDT")
	book.Insert(limitOrder("a1", SideSell, "105", "1"))

	trades, err := book.Match(limitOrder("taker", SideBuy, "100", "1"))
	require.NoError(t, err)

	assert.Empty(t, trades)
	assert.Equal(t, 1, book.Bids.Size())
	assert.Equal(t, 1, book.Asks.Size())
}

func TestMatchSellSideSymmetry(t *testing.T) {
	book := NewOrderBook("BTC-USDT")
	book.Insert(limitOrder("b1", SideBuy, "100", "3"))
	book.Insert(limitOrder("b2", SideBuy, "98", "3"))

	trades, err := book.Match(limitOrder("taker", SideSell, "99", "5"))
	require.NoError(t, err)

	require.Len(t, trades, 1)
	assert.True(t, trades[0].Price.Equal(d("100")), "highest bid consumed first")
	assert.True(t, trades[0].Quantity.Equal(d("3")))

	// 98 低于卖方限价，不被消耗；剩余 2 挂入卖盘
	bid, ok := book.BestBid()
	require.True(t, ok)
	assert.True(t, bid.Price.Equal(d("98")))

	ask, ok := book.BestAsk()
	require.True(t, ok)
	assert.True(t, ask.Price.Equal(d("99")))
	assert.True(t, ask.TotalQuantity().Equal(d("2")))
}

func TestMatchExactDecimalFill(t *testing.T) {
	book := NewOrderBook("BTC-USDT")
	book.Insert(limitOrder("maker", SideSell, "100.10", "0.3"))

	trades, err := book.Match(limitOrder("t1", SideBuy, "100.10", "0.1"))
	require.NoError(t, err)
	require.Len(t, trades, 1)

	trades, err = book.Match(limitOrder("t2", SideBuy, "100.10", "0.2"))
	require.NoError(t, err)
	require.Len(t, trades, 1)

	// 0.3 - 0.1 - 0.2 精确为零，档位必须被清除
	assert.Equal(t, 0, book.LevelCount())
}

func TestMatchRejectsMarketOrder(t *testing.T) {
	book := NewOrderBook("BTC-USDT")
	book.Insert(limitOrder("a1", SideSell, "100", "5"))

	trades, err := book.Match(NewMarketOrder("m1", SideBuy, d("1"), time.Now()))

	assert.ErrorIs(t, err, ErrUnsupportedOrder)
	assert.Nil(t, trades)
	assert.Equal(t, 1, book.LevelCount(), "book must be untouched")

	best, _ := book.BestAsk()
	assert.True(t, best.TotalQuantity().Equal(d("5")))
}

func TestMatchQuantityConservation(t *testing.T) {
	book := NewOrderBook("BTC-USDT")
	book.Insert(limitOrder("a1", SideSell, "100", "1.5"))
	book.Insert(limitOrder("a2", SideSell, "100", "2.5"))
	book.Insert(limitOrder("a3", SideSell, "101", "4"))

	initial := d("7")
	taker := limitOrder("taker", SideBuy, "101", "7")

	trades, err := book.Match(taker)
	require.NoError(t, err)

	executed := decimal.Zero
	for _, tr := range trades {
		executed = executed.Add(tr.Quantity)
	}

	assert.True(t, executed.Add(taker.Quantity).Equal(initial), "executed plus remaining must equal submitted quantity")
	assert.True(t, taker.IsFilled())
	assert.Equal(t, 0, book.LevelCount())
}

func TestMatchNeverTradesThroughLimit(t *testing.T) {
	book := NewOrderBook("BTC-USDT")
	book.Insert(limitOrder("a1", SideSell, "100", "1"))
	book.Insert(limitOrder("a2", SideSell, "110", "1"))

	trades, err := book.Match(limitOrder("taker", SideBuy, "105", "5"))
	require.NoError(t, err)

	for _, tr := range trades {
		assert.True(t, tr.Price.LessThanOrEqual(d("105")))
	}
	require.Len(t, trades, 1)
}
