package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/latticepricing/internal/pricing/application"
	"github.com/wyfcoding/latticepricing/pkg/logger"
	"github.com/wyfcoding/latticepricing/pkg/response"
)

// 默认批量上限
const defaultMaxBatchSize = 100

// PricingHandler HTTP 处理器
// 负责处理与定价相关的 HTTP 请求
type PricingHandler struct {
	app          *application.PricingService
	maxBatchSize int
}

// NewPricingHandler 创建 HTTP 处理器实例
func NewPricingHandler(app *application.PricingService, maxBatchSize int) *PricingHandler {
	if maxBatchSize <= 0 {
		maxBatchSize = defaultMaxBatchSize
	}
	return &PricingHandler{app: app, maxBatchSize: maxBatchSize}
}

// RegisterRoutes 注册路由
func (h *PricingHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/health", h.Health)

	api := router.Group("/api/v1/pricing")
	{
		api.POST("/option/price", h.PriceOption)
		api.POST("/option/batch", h.BatchPriceOptions)
		api.GET("/results/:symbol/latest", h.GetLatestResult)
		api.GET("/results/:symbol/history", h.GetHistory)
	}
}

// BarrierRequest 障碍条款
type BarrierRequest struct {
	Level     float64 `json:"level"`
	Direction string  `json:"direction" binding:"required"`
	Knock     string  `json:"knock" binding:"required"`
}

// PriceOptionRequest 定价请求，数值合法性由领域层校验
type PriceOptionRequest struct {
	Symbol          string          `json:"symbol" binding:"required"`
	OptionType      string          `json:"option_type" binding:"required"`
	ExerciseStyle   string          `json:"exercise_style" binding:"required"`
	StrikePrice     float64         `json:"strike_price"`
	Maturity        float64         `json:"maturity"`
	UnderlyingPrice float64         `json:"underlying_price"`
	Volatility      float64         `json:"volatility"`
	RiskFreeRate    float64         `json:"risk_free_rate"`
	Steps           int             `json:"steps"`
	Barrier         *BarrierRequest `json:"barrier"`
}

// BatchPriceOptionsRequest 批量定价请求
type BatchPriceOptionsRequest struct {
	BatchID   string               `json:"batch_id"`
	Contracts []PriceOptionRequest `json:"contracts" binding:"required,min=1,dive"`
}

func (r PriceOptionRequest) toCommand() application.PriceOptionCommand {
	cmd := application.PriceOptionCommand{
		Symbol:          r.Symbol,
		OptionType:      r.OptionType,
		ExerciseStyle:   r.ExerciseStyle,
		StrikePrice:     r.StrikePrice,
		Maturity:        r.Maturity,
		UnderlyingPrice: r.UnderlyingPrice,
		Volatility:      r.Volatility,
		RiskFreeRate:    r.RiskFreeRate,
		Steps:           r.Steps,
	}
	if r.Barrier != nil {
		cmd.Barrier = &application.BarrierCommand{
			Level:     r.Barrier.Level,
			Direction: r.Barrier.Direction,
			Knock:     r.Barrier.Knock,
		}
	}
	return cmd
}

// Health 存活检查
func (h *PricingHandler) Health(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}

// PriceOption 期权定价
func (h *PricingHandler) PriceOption(c *gin.Context) {
	var req PriceOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	res, err := h.app.PriceOption(c.Request.Context(), req.toCommand())
	if err != nil {
		h.fail(c, "failed to price option", err)
		return
	}
	response.Success(c, application.ToPriceOptionDTO(res))
}

// BatchPriceOptions 批量定价，单个合约失败不影响 HTTP 状态
func (h *PricingHandler) BatchPriceOptions(c *gin.Context) {
	var req BatchPriceOptionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if len(req.Contracts) > h.maxBatchSize {
		response.Error(c, http.StatusBadRequest, "BATCH_TOO_LARGE",
			fmt.Sprintf("batch size %d exceeds limit %d", len(req.Contracts), h.maxBatchSize))
		return
	}

	cmd := application.BatchPriceOptionsCommand{
		BatchID:   req.BatchID,
		Contracts: make([]application.PriceOptionCommand, len(req.Contracts)),
	}
	for i, contract := range req.Contracts {
		cmd.Contracts[i] = contract.toCommand()
	}

	res, err := h.app.BatchPriceOptions(c.Request.Context(), cmd)
	if err != nil {
		h.fail(c, "failed to price batch", err)
		return
	}
	response.Success(c, application.ToBatchPricingDTO(res))
}

// GetLatestResult 最新定价结果
func (h *PricingHandler) GetLatestResult(c *gin.Context) {
	res, err := h.app.GetLatestResult(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		h.fail(c, "failed to get latest pricing result", err)
		return
	}
	response.Success(c, application.ToPricingResultDTO(res, true))
}

// GetHistory 历史定价结果
func (h *PricingHandler) GetHistory(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	results, err := h.app.GetHistory(c.Request.Context(), c.Param("symbol"), limit)
	if err != nil {
		h.fail(c, "failed to get pricing history", err)
		return
	}
	dtos := make([]*application.PricingResultDTO, 0, len(results))
	for _, r := range results {
		dtos = append(dtos, application.ToPricingResultDTO(r, false))
	}
	response.Success(c, dtos)
}

// fail 错误映射：输入错误 400，未找到 404，其余 500
func (h *PricingHandler) fail(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, application.ErrResultNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case application.IsClientError(err):
		response.Error(c, http.StatusBadRequest, application.ErrorCode(err), err.Error())
	default:
		logger.Error(c.Request.Context(), msg, "error", err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "internal server error")
	}
}
