package domain

import "errors"

var (
	// ErrUnsupportedOrder 市价单没有限价约束，当前核心不对其撮合，提交时显式拒绝
	ErrUnsupportedOrder = errors.New("market orders are not supported")

	// ErrMissingOrderID 订单缺少 ID
	ErrMissingOrderID = errors.New("order id is required")

	// ErrInvalidSide 非法的买卖方向
	ErrInvalidSide = errors.New("invalid order side")

	// ErrInvalidOrderType 非法的订单类型
	ErrInvalidOrderType = errors.New("invalid order type")

	// ErrInvalidQuantity 数量必须为正
	ErrInvalidQuantity = errors.New("order quantity must be positive")

	// ErrInvalidPrice 限价单价格必须为正
	ErrInvalidPrice = errors.New("limit order price must be positive")
)
