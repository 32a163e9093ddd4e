package domain

import (
	"time"

	rbt "github.com/emirpasic/gods/trees/redblacktree"
	"github.com/shopspring/decimal"
)

// BookLevel 订单簿档位汇总
type BookLevel struct {
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

// BookSnapshot 订单簿的只读快照，两侧各取最优的 depth 个档位
type BookSnapshot struct {
	Symbol    string       `json:"symbol"`
	Bids      []*BookLevel `json:"bids"`
	Asks      []*BookLevel `json:"asks"`
	Timestamp time.Time    `json:"timestamp"`
}

// Snapshot 按优先级顺序汇总两侧档位。depth <= 0 时返回全部档位。
func (b *OrderBook) Snapshot(depth int) *BookSnapshot {
	return &BookSnapshot{
		Symbol:    b.Symbol,
		Bids:      b.collectLevels(b.Bids, depth),
		Asks:      b.collectLevels(b.Asks, depth),
		Timestamp: time.Now(),
	}
}

func (b *OrderBook) collectLevels(tree *rbt.Tree, depth int) []*BookLevel {
	levels := make([]*BookLevel, 0, tree.Size())
	it := tree.Iterator()
	for it.Next() {
		if depth > 0 && len(levels) >= depth {
			break
		}
		level := it.Value().(*PriceLevel)
		levels = append(levels, &BookLevel{
			Price:    level.Price,
			Quantity: level.TotalQuantity(),
		})
	}
	return levels
}
