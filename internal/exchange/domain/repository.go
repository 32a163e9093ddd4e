package domain

import "context"

// TradeRepository 成交记录仓储接口。Save 为尽力而为：写入失败由调用方
// 记录并自行重试，绝不回滚已在内存中生效的撮合结果。
type TradeRepository interface {
	Save(ctx context.Context, symbol string, trade *Trade) error
	GetLatestTrades(ctx context.Context, symbol string, limit int) ([]*Trade, error)
}

// SnapshotRepository 订单簿快照仓储接口
type SnapshotRepository interface {
	SaveSnapshot(ctx context.Context, snapshot *BookSnapshot) error
}
