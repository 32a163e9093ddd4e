// Package memory 内存版仓储实现，用于开发环境与测试
package memory

import (
	"context"
	"sync"

	"github.com/lumitrade/exchange/internal/exchange/domain"
)

// TradeRepository 内存成交仓储
type TradeRepository struct {
	mu     sync.RWMutex
	trades map[string][]*domain.Trade
}

// NewTradeRepository 创建内存成交仓储
func NewTradeRepository() *TradeRepository {
	return &TradeRepository{
		trades: make(map[string][]*domain.Trade),
	}
}

// Save 保存一笔成交
func (r *TradeRepository) Save(ctx context.Context, symbol string, t *domain.Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trades[symbol] = append(r.trades[symbol], t)
	return nil
}

// GetLatestTrades 按写入顺序倒序返回最近的成交
func (r *TradeRepository) GetLatestTrades(ctx context.Context, symbol string, limit int) ([]*domain.Trade, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.trades[symbol]
	if limit > len(all) {
		limit = len(all)
	}

	result := make([]*domain.Trade, 0, limit)
	for i := len(all) - 1; i >= len(all)-limit; i-- {
		result = append(result, all[i])
	}
	return result, nil
}

// SnapshotRepository 内存快照仓储，保留最近一次快照
type SnapshotRepository struct {
	mu     sync.RWMutex
	latest *domain.BookSnapshot
}

// NewSnapshotRepository 创建内存快照仓储
func NewSnapshotRepository() *SnapshotRepository {
	return &SnapshotRepository{}
}

// SaveSnapshot 保存快照
func (r *SnapshotRepository) SaveSnapshot(ctx context.Context, s *domain.BookSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latest = s
	return nil
}

// Latest 返回最近一次快照
func (r *SnapshotRepository) Latest() *domain.BookSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest
}
