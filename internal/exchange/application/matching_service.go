// Package application 撮合服务的用例逻辑：订单接入、仲裁信号、持久化与事件发布
package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/lumitrade/exchange/internal/exchange/domain"
	"github.com/lumitrade/exchange/pkg/metrics"
)

// SubmitOrderRequest 提交订单请求 DTO。价格与数量以字符串承载，
// 在应用层解析为精确十进制。
type SubmitOrderRequest struct {
	Side     string `json:"side" binding:"required"`
	Type     string `json:"type"`
	Price    string `json:"price"`
	Quantity string `json:"quantity" binding:"required"`
}

// TradeDTO 对外暴露的成交视图
type TradeDTO struct {
	MakerOrderID string    `json:"maker_order_id"`
	TakerOrderID string    `json:"taker_order_id"`
	Price        string    `json:"price"`
	Quantity     string    `json:"quantity"`
	Timestamp    time.Time `json:"timestamp"`
}

// SubmitOrderResult 提交订单的处理结果
type SubmitOrderResult struct {
	OrderID           string      `json:"order_id"`
	Symbol            string      `json:"symbol"`
	Status            string      `json:"status"`
	RemainingQuantity string      `json:"remaining_quantity"`
	Trades            []*TradeDTO `json:"trades"`
}

// 订单处理结果状态
const (
	StatusMatched          = "MATCHED"
	StatusPartiallyMatched = "PARTIALLY_MATCHED"
	StatusPending          = "PENDING"
)

// MatchingService 撮合应用服务。持有唯一的订单簿实例，所有提交通过
// 同一把互斥锁串行化：锁覆盖仲裁检查与撮合（纯计算），在任何外部
// I/O（持久化、事件发布）之前释放。锁内路径没有 panic 来源，失败
// 一律以显式错误返回，单笔提交的失败不会污染订单簿状态。
type MatchingService struct {
	symbol string

	mu   sync.Mutex
	book *domain.OrderBook

	tradeRepo    domain.TradeRepository
	snapshotRepo domain.SnapshotRepository
	publisher    domain.EventPublisher
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// NewMatchingService 创建撮合服务。snapshotRepo、publisher 与 m 均可为
// nil，对应能力单独关闭。
func NewMatchingService(
	symbol string,
	tradeRepo domain.TradeRepository,
	snapshotRepo domain.SnapshotRepository,
	publisher domain.EventPublisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *MatchingService {
	return &MatchingService{
		symbol:       symbol,
		book:         domain.NewOrderBook(symbol),
		tradeRepo:    tradeRepo,
		snapshotRepo: snapshotRepo,
		publisher:    publisher,
		metrics:      m,
		logger:       logger.With("module", "matching_service", "symbol", symbol),
	}
}

// Symbol 返回本服务的交易对
func (s *MatchingService) Symbol() string {
	return s.symbol
}

// SubmitOrder 提交一笔订单：构造订单（分配 ID 与时间戳），持锁执行
// 仲裁检查与撮合，释放锁后逐笔持久化成交并发布事件。
func (s *MatchingService) SubmitOrder(ctx context.Context, req *SubmitOrderRequest) (*SubmitOrderResult, error) {
	order, err := s.buildOrder(req)
	if err != nil {
		if s.metrics != nil {
			s.metrics.OrdersRejected.Inc()
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.OrdersSubmitted.Inc()
	}

	start := time.Now()
	s.mu.Lock()

	advisory, crossed := s.book.DetectArbitrage(order)

	trades, matchErr := s.book.Match(order)
	remaining := order.Quantity
	levelCount := s.book.LevelCount()

	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.MatchDuration.Observe(time.Since(start).Seconds())
		s.metrics.BookLevels.Set(float64(levelCount))
	}

	if matchErr != nil {
		if s.metrics != nil {
			s.metrics.OrdersRejected.Inc()
		}
		return nil, fmt.Errorf("order %s rejected: %w", order.ID, matchErr)
	}

	if crossed {
		if s.metrics != nil {
			s.metrics.CrossingsDetected.Inc()
		}
		s.logger.InfoContext(ctx, "crossing detected", "order_id", order.ID, "advisory", advisory)
		s.publishCrossing(ctx, order, advisory)
	}

	s.persistAndPublishTrades(ctx, trades)

	if s.metrics != nil && len(trades) > 0 {
		s.metrics.TradesExecuted.Add(float64(len(trades)))
	}

	return &SubmitOrderResult{
		OrderID:           order.ID,
		Symbol:            s.symbol,
		Status:            resultStatus(trades, remaining),
		RemainingQuantity: remaining.String(),
		Trades:            toTradeDTOs(trades),
	}, nil
}

// GetOrderBook 返回订单簿快照，并尽力写入快照仓储
func (s *MatchingService) GetOrderBook(ctx context.Context, depth int) (*domain.BookSnapshot, error) {
	if depth <= 0 {
		depth = 20
	}

	s.mu.Lock()
	snapshot := s.book.Snapshot(depth)
	s.mu.Unlock()

	if s.snapshotRepo != nil {
		if err := s.snapshotRepo.SaveSnapshot(ctx, snapshot); err != nil {
			s.logger.ErrorContext(ctx, "failed to save order book snapshot", "error", err)
		}
	}

	return snapshot, nil
}

// GetTrades 返回最近的成交历史
func (s *MatchingService) GetTrades(ctx context.Context, limit int) ([]*TradeDTO, error) {
	if limit <= 0 {
		limit = 100
	}

	trades, err := s.tradeRepo.GetLatestTrades(ctx, s.symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get trades: %w", err)
	}

	return toTradeDTOs(trades), nil
}

// buildOrder 解析请求并构造进入核心的订单，ID 与时间戳在此分配
func (s *MatchingService) buildOrder(req *SubmitOrderRequest) (*domain.Order, error) {
	side, err := parseSide(req.Side)
	if err != nil {
		return nil, err
	}

	orderType, err := parseOrderType(req.Type)
	if err != nil {
		return nil, err
	}

	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot parse %q", domain.ErrInvalidQuantity, req.Quantity)
	}

	var order *domain.Order
	now := time.Now()
	id := uuid.NewString()

	if orderType == domain.TypeMarket {
		order = domain.NewMarketOrder(id, side, quantity, now)
	} else {
		price, err := decimal.NewFromString(req.Price)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot parse %q", domain.ErrInvalidPrice, req.Price)
		}
		order = domain.NewLimitOrder(id, side, price, quantity, now)
	}

	if err := order.Validate(); err != nil {
		return nil, err
	}
	return order, nil
}

// persistAndPublishTrades 在锁外逐笔写库并发布事件。持久化失败只记录
// 日志与指标，撮合结果已在内存中生效，不做回滚。
func (s *MatchingService) persistAndPublishTrades(ctx context.Context, trades []*domain.Trade) {
	for _, t := range trades {
		if s.tradeRepo != nil {
			if err := s.tradeRepo.Save(ctx, s.symbol, t); err != nil {
				if s.metrics != nil {
					s.metrics.TradePersistFailures.Inc()
				}
				s.logger.ErrorContext(ctx, "failed to persist trade",
					"maker_order_id", t.MakerOrderID,
					"taker_order_id", t.TakerOrderID,
					"error", err,
				)
			}
		}

		if s.publisher != nil {
			event := domain.NewTradeExecutedEvent(uuid.NewString(), s.symbol, t)
			if err := s.publisher.Publish(ctx, domain.TradeExecutedTopic, t.TakerOrderID, event); err != nil {
				s.logger.ErrorContext(ctx, "failed to publish trade event", "error", err)
			}
		}
	}
}

func (s *MatchingService) publishCrossing(ctx context.Context, order *domain.Order, advisory string) {
	if s.publisher == nil {
		return
	}
	event := &domain.CrossingDetectedEvent{
		OrderID:    order.ID,
		Symbol:     s.symbol,
		Side:       order.Side.String(),
		LimitPrice: order.Price.String(),
		Message:    advisory,
		DetectedAt: time.Now(),
	}
	if err := s.publisher.Publish(ctx, domain.CrossingDetectedTopic, order.ID, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish crossing event", "error", err)
	}
}

func resultStatus(trades []*domain.Trade, remaining decimal.Decimal) string {
	if len(trades) == 0 {
		return StatusPending
	}
	if remaining.IsZero() {
		return StatusMatched
	}
	return StatusPartiallyMatched
}

func toTradeDTOs(trades []*domain.Trade) []*TradeDTO {
	return lo.Map(trades, func(t *domain.Trade, _ int) *TradeDTO {
		return &TradeDTO{
			MakerOrderID: t.MakerOrderID,
			TakerOrderID: t.TakerOrderID,
			Price:        t.Price.String(),
			Quantity:     t.Quantity.String(),
			Timestamp:    t.Timestamp,
		}
	})
}

func parseSide(s string) (domain.Side, error) {
	switch strings.ToUpper(s) {
	case "BUY":
		return domain.SideBuy, nil
	case "SELL":
		return domain.SideSell, nil
	default:
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidSide, s)
	}
}

func parseOrderType(s string) (domain.OrderType, error) {
	switch strings.ToUpper(s) {
	case "", "LIMIT":
		return domain.TypeLimit, nil
	case "MARKET":
		return domain.TypeMarket, nil
	default:
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidOrderType, s)
	}
}
