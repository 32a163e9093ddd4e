package mysql

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/lumitrade/exchange/internal/exchange/domain"
)

// TradeRepository 成交记录的 MySQL 仓储
type TradeRepository struct {
	db *gorm.DB
}

// NewTradeRepository 创建成交仓储
func NewTradeRepository(db *gorm.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// Save 保存一笔成交
func (r *TradeRepository) Save(ctx context.Context, symbol string, t *domain.Trade) error {
	model := &TradeModel{
		TradeID:      uuid.NewString(),
		Symbol:       symbol,
		MakerOrderID: t.MakerOrderID,
		TakerOrderID: t.TakerOrderID,
		Price:        t.Price,
		Quantity:     t.Quantity,
		ExecutedAt:   t.Timestamp,
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save trade: %w", err)
	}
	return nil
}

// GetLatestTrades 按成交时间倒序返回最近的成交
func (r *TradeRepository) GetLatestTrades(ctx context.Context, symbol string, limit int) ([]*domain.Trade, error) {
	var models []*TradeModel
	err := r.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("executed_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}

	return lo.Map(models, func(m *TradeModel, _ int) *domain.Trade {
		return m.ToDomain()
	}), nil
}
