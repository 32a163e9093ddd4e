package domain

import (
	"context"
	"time"
)

// Kafka topic 常量
const (
	TradeExecutedTopic    = "exchange.trade.executed"
	CrossingDetectedTopic = "exchange.crossing.detected"
)

// EventPublisher 领域事件发布接口，由 infrastructure/messaging 实现
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
}

// TradeExecutedEvent 成交事件。价格与数量以十进制字符串承载，
// 避免消费端经过浮点造成精度损失。
type TradeExecutedEvent struct {
	TradeID      string    `json:"trade_id"`
	MakerOrderID string    `json:"maker_order_id"`
	TakerOrderID string    `json:"taker_order_id"`
	Symbol       string    `json:"symbol"`
	Price        string    `json:"price"`
	Quantity     string    `json:"quantity"`
	ExecutedAt   time.Time `json:"executed_at"`
}

// NewTradeExecutedEvent 由成交记录构造事件
func NewTradeExecutedEvent(tradeID, symbol string, t *Trade) *TradeExecutedEvent {
	return &TradeExecutedEvent{
		TradeID:      tradeID,
		MakerOrderID: t.MakerOrderID,
		TakerOrderID: t.TakerOrderID,
		Symbol:       symbol,
		Price:        t.Price.String(),
		Quantity:     t.Quantity.String(),
		ExecutedAt:   t.Timestamp,
	}
}

// CrossingDetectedEvent 套利信号事件：入场订单即将穿越对手盘最优价成交。
// 该条件与撮合条件一致，用作可观测性信号而非独立的异常检测。
type CrossingDetectedEvent struct {
	OrderID    string    `json:"order_id"`
	Symbol     string    `json:"symbol"`
	Side       string    `json:"side"`
	LimitPrice string    `json:"limit_price"`
	Message    string    `json:"message"`
	DetectedAt time.Time `json:"detected_at"`
}
