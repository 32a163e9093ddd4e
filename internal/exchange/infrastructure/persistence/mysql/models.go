// Package mysql 基于 GORM 的持久化实现
package mysql

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lumitrade/exchange/internal/exchange/domain"
)

// TradeModel 成交记录表
type TradeModel struct {
	gorm.Model
	TradeID      string          `gorm:"type:varchar(64);uniqueIndex;not null"`
	Symbol       string          `gorm:"type:varchar(32);index;not null"`
	MakerOrderID string          `gorm:"type:varchar(64);index;not null"`
	TakerOrderID string          `gorm:"type:varchar(64);index;not null"`
	Price        decimal.Decimal `gorm:"type:decimal(32,16);not null"`
	Quantity     decimal.Decimal `gorm:"type:decimal(32,16);not null"`
	ExecutedAt   time.Time       `gorm:"index;not null"`
}

// TableName 指定表名
func (TradeModel) TableName() string {
	return "trades"
}

// ToDomain 转换为领域对象
func (m *TradeModel) ToDomain() *domain.Trade {
	return &domain.Trade{
		MakerOrderID: m.MakerOrderID,
		TakerOrderID: m.TakerOrderID,
		Price:        m.Price,
		Quantity:     m.Quantity,
		Timestamp:    m.ExecutedAt,
	}
}

// SnapshotModel 订单簿快照表，买卖档位以 JSON 存储
type SnapshotModel struct {
	gorm.Model
	Symbol     string    `gorm:"type:varchar(32);index;not null"`
	BidsJSON   string    `gorm:"type:text"`
	AsksJSON   string    `gorm:"type:text"`
	CapturedAt time.Time `gorm:"index;not null"`
}

// TableName 指定表名
func (SnapshotModel) TableName() string {
	return "order_book_snapshots"
}

// AutoMigrate 创建或更新表结构
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&TradeModel{}, &SnapshotModel{})
}
