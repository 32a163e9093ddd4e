// Package http 撮合服务的 HTTP 接口层
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lumitrade/exchange/internal/exchange/application"
	"github.com/lumitrade/exchange/internal/exchange/domain"
	"github.com/lumitrade/exchange/pkg/response"
)

// MatchingHandler 撮合服务 HTTP 处理器
type MatchingHandler struct {
	service *application.MatchingService
}

// NewMatchingHandler 创建处理器
func NewMatchingHandler(service *application.MatchingService) *MatchingHandler {
	return &MatchingHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *MatchingHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api/v1")
	{
		api.POST("/orders", h.SubmitOrder)
		api.GET("/orderbook", h.GetOrderBook)
		api.GET("/trades", h.GetTrades)
	}
}

// SubmitOrder 提交订单
// POST /api/v1/orders
func (h *MatchingHandler) SubmitOrder(c *gin.Context) {
	var req application.SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.service.SubmitOrder(c.Request.Context(), &req)
	if err != nil {
		if isRejection(err) {
			response.ErrorWithStatus(c, http.StatusBadRequest, "order rejected", err.Error())
			return
		}
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetOrderBook 查询订单簿快照
// GET /api/v1/orderbook?depth=20
func (h *MatchingHandler) GetOrderBook(c *gin.Context) {
	depth, _ := strconv.Atoi(c.DefaultQuery("depth", "20"))

	snapshot, err := h.service.GetOrderBook(c.Request.Context(), depth)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, snapshot)
}

// GetTrades 查询最近成交
// GET /api/v1/trades?limit=100
func (h *MatchingHandler) GetTrades(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	trades, err := h.service.GetTrades(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, trades)
}

// Health 健康检查
func (h *MatchingHandler) Health(c *gin.Context) {
	response.Success(c, gin.H{
		"status": "ok",
		"symbol": h.service.Symbol(),
	})
}

// isRejection 判断是否为订单校验类错误，此类错误返回 400 而非 500
func isRejection(err error) bool {
	return errors.Is(err, domain.ErrUnsupportedOrder) ||
		errors.Is(err, domain.ErrMissingOrderID) ||
		errors.Is(err, domain.ErrInvalidSide) ||
		errors.Is(err, domain.ErrInvalidOrderType) ||
		errors.Is(err, domain.ErrInvalidQuantity) ||
		errors.Is(err, domain.ErrInvalidPrice)
}
