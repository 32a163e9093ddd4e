// Package domain 撮合核心的领域模型：订单、价格档位、订单簿与撮合算法
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side 买卖方向
type Side int

const (
	SideBuy Side = iota + 1
	SideSell
)

// String 返回方向的可读名称
func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Opposite 返回对手方向
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// OrderType 订单类型
type OrderType int

const (
	TypeLimit OrderType = iota + 1
	TypeMarket
)

// String 返回订单类型的可读名称
func (t OrderType) String() string {
	switch t {
	case TypeLimit:
		return "LIMIT"
	case TypeMarket:
		return "MARKET"
	default:
		return "UNKNOWN"
	}
}

// Order 订单。ID 与 Timestamp 由接入层在订单进入核心前分配。
// 方向与类型在订单生命周期内不变，撮合过程中只有 Quantity 单调递减。
// Price 仅对限价单有意义，市价单不携带限价。
type Order struct {
	ID        string          `json:"order_id"`
	Side      Side            `json:"side"`
	Type      OrderType       `json:"type"`
	Price     decimal.Decimal `json:"price"`
	Quantity  decimal.Decimal `json:"quantity"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewLimitOrder 创建限价单
func NewLimitOrder(id string, side Side, price, quantity decimal.Decimal, ts time.Time) *Order {
	return &Order{
		ID:        id,
		Side:      side,
		Type:      TypeLimit,
		Price:     price,
		Quantity:  quantity,
		Timestamp: ts,
	}
}

// NewMarketOrder 创建市价单（当前核心不支持撮合，提交时会被显式拒绝）
func NewMarketOrder(id string, side Side, quantity decimal.Decimal, ts time.Time) *Order {
	return &Order{
		ID:        id,
		Side:      side,
		Type:      TypeMarket,
		Quantity:  quantity,
		Timestamp: ts,
	}
}

// Validate 校验订单的基本合法性
func (o *Order) Validate() error {
	if o.ID == "" {
		return ErrMissingOrderID
	}
	switch o.Side {
	case SideBuy, SideSell:
	default:
		return ErrInvalidSide
	}
	switch o.Type {
	case TypeLimit, TypeMarket:
	default:
		return ErrInvalidOrderType
	}
	if !o.Quantity.IsPositive() {
		return ErrInvalidQuantity
	}
	if o.Type == TypeLimit && !o.Price.IsPositive() {
		return ErrInvalidPrice
	}
	return nil
}

// IsFilled 订单是否已全部成交
func (o *Order) IsFilled() bool {
	return o.Quantity.IsZero()
}
