// Package metrics 提供 Prometheus helper，包含撮合核心的业务指标
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/lumitrade/exchange/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 指标集合
type Metrics struct {
	// 提交的订单计数
	OrdersSubmitted prometheus.Counter
	// 被拒绝的订单计数（市价单等不支持的类型）
	OrdersRejected prometheus.Counter
	// 成交计数
	TradesExecuted prometheus.Counter
	// 套利信号计数（入场订单穿越对手盘最优价）
	CrossingsDetected prometheus.Counter
	// 成交持久化失败计数
	TradePersistFailures prometheus.Counter
	// 撮合耗时（持锁区间）
	MatchDuration prometheus.Histogram
	// 订单簿档位数（买盘 + 卖盘）
	BookLevels prometheus.Gauge
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		OrdersSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "exchange",
			Subsystem: serviceName,
			Name:      "orders_submitted_total",
			Help:      "Total orders submitted to the matching core",
		}),
		OrdersRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "exchange",
			Subsystem: serviceName,
			Name:      "orders_rejected_total",
			Help:      "Total orders rejected before matching",
		}),
		TradesExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "exchange",
			Subsystem: serviceName,
			Name:      "trades_executed_total",
			Help:      "Total trades produced by matching",
		}),
		CrossingsDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "exchange",
			Subsystem: serviceName,
			Name:      "crossings_detected_total",
			Help:      "Total incoming orders that crossed the opposite best price",
		}),
		TradePersistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "exchange",
			Subsystem: serviceName,
			Name:      "trade_persist_failures_total",
			Help:      "Total trade rows that could not be written to storage",
		}),
		MatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "exchange",
			Subsystem: serviceName,
			Name:      "match_duration_seconds",
			Help:      "Time spent inside the book lock per submission",
			Buckets:   prometheus.ExponentialBuckets(0.000001, 4, 12),
		}),
		BookLevels: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "exchange",
			Subsystem: serviceName,
			Name:      "book_levels",
			Help:      "Number of price levels currently resting in the book",
		}),
	}
}

// Register 注册所有指标
func (m *Metrics) Register() error {
	collectors := []prometheus.Collector{
		m.OrdersSubmitted,
		m.OrdersRejected,
		m.TradesExecuted,
		m.CrossingsDetected,
		m.TradePersistFailures,
		m.MatchDuration,
		m.BookLevels,
	}

	for _, c := range collectors {
		if err := prometheus.DefaultRegisterer.Register(c); err != nil {
			logger.Error(context.Background(), "failed to register metric", "error", err)
			return err
		}
	}

	logger.Info(context.Background(), "metrics registered")
	return nil
}

// StartHTTPServer 启动 Prometheus HTTP 服务器
func StartHTTPServer(port int, path string) error {
	if path == "" {
		path = "/metrics"
	}

	http.Handle(path, promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info(context.Background(), "starting prometheus http server", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, nil); err != nil {
			logger.Error(context.Background(), "prometheus http server stopped", "error", err)
		}
	}()

	return nil
}
