package domain

import (
	"container/list"
	"fmt"
	"time"

	rbt "github.com/emirpasic/gods/trees/redblacktree"
	"github.com/shopspring/decimal"
)

// PriceLevel 同一精确价格下的挂单队列，按到达顺序排列（时间优先）。
// 插入顺序即撮合消耗顺序，不做按量分配。
type PriceLevel struct {
	Price  decimal.Decimal
	Orders *list.List // 存储 *Order
}

// NewPriceLevel 创建空的价格档位
func NewPriceLevel(price decimal.Decimal) *PriceLevel {
	return &PriceLevel{
		Price:  price,
		Orders: list.New(),
	}
}

// Append 将订单追加到档位队尾
func (l *PriceLevel) Append(o *Order) {
	l.Orders.PushBack(o)
}

// TotalQuantity 档位内全部挂单的剩余数量之和
func (l *PriceLevel) TotalQuantity() decimal.Decimal {
	total := decimal.Zero
	for el := l.Orders.Front(); el != nil; el = el.Next() {
		total = total.Add(el.Value.(*Order).Quantity)
	}
	return total
}

// OrderBook 单一交易对的双边订单簿。买盘按价格从高到低、卖盘按价格
// 从低到高维护优先级；空档位立即移除。本结构自身不加锁，由上层以
// 互斥方式独占访问（见 application 层）。
type OrderBook struct {
	Symbol string

	// Bids 买盘：比较器降序，Left() 即最优（最高）买价
	Bids *rbt.Tree
	// Asks 卖盘：比较器升序，Left() 即最优（最低）卖价
	Asks *rbt.Tree
}

// NewOrderBook 创建空订单簿
func NewOrderBook(symbol string) *OrderBook {
	return &OrderBook{
		Symbol: symbol,
		Bids:   rbt.NewWith(bidComparator),
		Asks:   rbt.NewWith(askComparator),
	}
}

func askComparator(a, b interface{}) int {
	return a.(decimal.Decimal).Cmp(b.(decimal.Decimal))
}

func bidComparator(a, b interface{}) int {
	return b.(decimal.Decimal).Cmp(a.(decimal.Decimal))
}

// Insert 将限价单追加到其所在方向、精确价格对应档位的队尾，档位不存在
// 则创建。市价单从不挂簿，此处为有意的 no-op。
func (b *OrderBook) Insert(o *Order) {
	if o.Type != TypeLimit {
		return
	}

	tree := b.Bids
	if o.Side == SideSell {
		tree = b.Asks
	}

	var level *PriceLevel
	if v, found := tree.Get(o.Price); found {
		level = v.(*PriceLevel)
	} else {
		level = NewPriceLevel(o.Price)
		tree.Put(o.Price, level)
	}
	level.Append(o)
}

// BestBid 返回最优买价档位
func (b *OrderBook) BestBid() (*PriceLevel, bool) {
	node := b.Bids.Left()
	if node == nil {
		return nil, false
	}
	return node.Value.(*PriceLevel), true
}

// BestAsk 返回最优卖价档位
func (b *OrderBook) BestAsk() (*PriceLevel, bool) {
	node := b.Asks.Left()
	if node == nil {
		return nil, false
	}
	return node.Value.(*PriceLevel), true
}

// LevelCount 当前买卖两侧的档位总数
func (b *OrderBook) LevelCount() int {
	return b.Bids.Size() + b.Asks.Size()
}

// Match 将入场订单与对手盘按严格的价格-时间优先级撮合，返回按成交
// 先后排列的成交序列并就地修改订单簿。
//
// 市价单没有限价可作扫描边界，返回 ErrUnsupportedOrder 且订单簿保持
// 不变（订单被丢弃，不挂簿）。
//
// 限价买单从最低卖价档位向上扫描，价格高于限价的档位不消耗；卖单
// 对称。档位内按到达顺序逐个 maker 成交，成交量取双方剩余量的较小
// 值，成交价取 maker 的价格。maker 剩余量精确归零即从档位移除，
// 档位清空即从订单簿移除。扫完后 taker 仍有剩余量则按其原始限价
// 重新挂簿，成为后续订单的 maker。
//
// 全部价格与数量运算使用精确十进制，满仓判定依赖对零的精确相等。
func (b *OrderBook) Match(taker *Order) ([]*Trade, error) {
	if taker.Type == TypeMarket {
		return nil, ErrUnsupportedOrder
	}

	trades := make([]*Trade, 0, 4)

	opposite := b.Asks
	if taker.Side == SideSell {
		opposite = b.Bids
	}

	for !taker.Quantity.IsZero() {
		node := opposite.Left()
		if node == nil {
			break
		}
		level := node.Value.(*PriceLevel)

		// 价格越过 taker 限价即停止扫描，不消耗该档位
		if taker.Side == SideBuy && level.Price.GreaterThan(taker.Price) {
			break
		}
		if taker.Side == SideSell && level.Price.LessThan(taker.Price) {
			break
		}

		var next *list.Element
		for el := level.Orders.Front(); el != nil && !taker.Quantity.IsZero(); el = next {
			next = el.Next()
			maker := el.Value.(*Order)

			qty := decimal.Min(taker.Quantity, maker.Quantity)

			trades = append(trades, &Trade{
				MakerOrderID: maker.ID,
				TakerOrderID: taker.ID,
				Price:        maker.Price,
				Quantity:     qty,
				Timestamp:    time.Now(),
			})

			maker.Quantity = maker.Quantity.Sub(qty)
			taker.Quantity = taker.Quantity.Sub(qty)

			if maker.Quantity.IsZero() {
				level.Orders.Remove(el)
			}
		}

		if level.Orders.Len() == 0 {
			opposite.Remove(node.Key)
		}
	}

	if taker.Quantity.IsPositive() {
		b.Insert(taker)
	}

	return trades, nil
}

// DetectArbitrage 在撮合前对当前订单簿做只读的顶档检查：入场买单限价
// 严格高于最优卖价，或入场卖单限价严格低于最优买价时，产出描述价差
// 的提示信息。仅检查双边最优价，不触及深度，也不改动任何状态。
func (b *OrderBook) DetectArbitrage(o *Order) (string, bool) {
	if o.Type != TypeLimit {
		return "", false
	}

	switch o.Side {
	case SideBuy:
		if ask, ok := b.BestAsk(); ok && o.Price.GreaterThan(ask.Price) {
			return fmt.Sprintf(
				"arbitrage: incoming BUY order at %s is higher than best ASK of %s; opportunity to buy at %s and sell at %s",
				o.Price, ask.Price, ask.Price, o.Price,
			), true
		}
	case SideSell:
		if bid, ok := b.BestBid(); ok && o.Price.LessThan(bid.Price) {
			return fmt.Sprintf(
				"arbitrage: incoming SELL order at %s is lower than best BID of %s; opportunity to buy at %s and sell at %s",
				o.Price, bid.Price, o.Price, bid.Price,
			), true
		}
	}
	return "", false
}
