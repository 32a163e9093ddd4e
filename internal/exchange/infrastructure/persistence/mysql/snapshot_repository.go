package mysql

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/lumitrade/exchange/internal/exchange/domain"
)

// SnapshotRepository 订单簿快照的 MySQL 仓储
type SnapshotRepository struct {
	db *gorm.DB
}

// NewSnapshotRepository 创建快照仓储
func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// SaveSnapshot 保存一次订单簿快照
func (r *SnapshotRepository) SaveSnapshot(ctx context.Context, s *domain.BookSnapshot) error {
	bids, err := json.Marshal(s.Bids)
	if err != nil {
		return fmt.Errorf("failed to marshal bids: %w", err)
	}
	asks, err := json.Marshal(s.Asks)
	if err != nil {
		return fmt.Errorf("failed to marshal asks: %w", err)
	}

	model := &SnapshotModel{
		Symbol:     s.Symbol,
		BidsJSON:   string(bids),
		AsksJSON:   string(asks),
		CapturedAt: s.Timestamp,
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}
