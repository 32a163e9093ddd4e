package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade 一笔成交的不可变记录。成交价格始终取 maker（挂单方）的价格，
// taker 获得价格改善而不会劣于自身限价。
type Trade struct {
	MakerOrderID string          `json:"maker_order_id"`
	TakerOrderID string          `json:"taker_order_id"`
	Price        decimal.Decimal `json:"price"`
	Quantity     decimal.Decimal `json:"quantity"`
	Timestamp    time.Time       `json:"timestamp"`
}
