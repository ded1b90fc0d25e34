package admin

import (
	"strconv"
	"strings"
	"time"

	"github.com/padala-next/internal/http/handlers/shared"
	"github.com/padala-next/internal/http/response"
	"github.com/padala-next/internal/models"
	"github.com/padala-next/internal/queue"
	"github.com/padala-next/internal/repository"
	"github.com/padala-next/internal/service"

	"github.com/gin-gonic/gin"
)

// RecordTransactionRequest 支付成功入账参数
type RecordTransactionRequest struct {
	PaymentMethod   string      `json:"payment_method" binding:"required"`
	GatewayResponse models.JSON `json:"gateway_response"`
}

// ProcessSettlementsRequest 手动触发到期结算
type ProcessSettlementsRequest struct {
	At    string `json:"at"`    // RFC3339，为空取当前时间
	Async bool   `json:"async"` // 交给队列异步执行
}

// RecordTransaction 订单支付成功后记录分账并生成结算单
func (h *Handler) RecordTransaction(c *gin.Context) {
	orderID, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req RecordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "payment_method is required", err)
		return
	}
	result, err := h.SettlementService.RecordTransaction(c.Request.Context(), orderID, service.RecordTransactionInput{
		PaymentMethod:   strings.TrimSpace(req.PaymentMethod),
		GatewayResponse: req.GatewayResponse,
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, result)
}

// ProcessSettlements 立即处理到期结算单
func (h *Handler) ProcessSettlements(c *gin.Context) {
	var req ProcessSettlementsRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			shared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
			return
		}
	}
	at := time.Now()
	if strings.TrimSpace(req.At) != "" {
		parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(req.At))
		if err != nil {
			shared.RespondError(c, response.CodeBadRequest, "at must be RFC3339", err)
			return
		}
		at = parsed
	}
	if req.Async && h.QueueClient.Enabled() {
		if err := h.QueueClient.EnqueueSettlementProcessDue(queue.SettlementProcessDuePayload{At: at.Unix()}); err != nil {
			shared.RespondError(c, response.CodeServiceUnavailable, "enqueue settlement sweep failed", err)
			return
		}
		response.SuccessWithMsg(c, "settlement sweep queued", gin.H{"at": at.UTC(), "queued": true})
		return
	}
	result, err := h.SettlementService.ProcessDue(c.Request.Context(), at)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, result)
}

// RetrySettlement 失败结算单重新排队
func (h *Handler) RetrySettlement(c *gin.Context) {
	settlementID, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	row, err := h.SettlementService.RetryFailed(c.Request.Context(), settlementID)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, row)
}

// ListSettlements 结算单列表
func (h *Handler) ListSettlements(c *gin.Context) {
	page, pageSize := shared.ParsePagination(c)

	from, err := shared.ParseTimeNullable(c.Query("from"))
	if err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid from", err)
		return
	}
	to, err := shared.ParseTimeNullable(c.Query("to"))
	if err != nil {
		shared.RespondError(c, response.CodeBadRequest, "invalid to", err)
		return
	}
	var recipientID uint
	if raw := strings.TrimSpace(c.Query("recipient_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			shared.RespondError(c, response.CodeBadRequest, "invalid recipient_id", err)
			return
		}
		recipientID = uint(parsed)
	}

	rows, total, err := h.SettlementService.ListSettlements(c.Request.Context(), repository.SettlementListFilter{
		RecipientType: strings.TrimSpace(c.Query("recipient_type")),
		RecipientID:   recipientID,
		Status:        strings.TrimSpace(c.Query("status")),
		From:          from,
		To:            to,
		Page:          page,
		PageSize:      pageSize,
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// GetRestaurantSettlements 商家结算汇总
func (h *Handler) GetRestaurantSettlements(c *gin.Context) {
	restaurantID, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	period, err := shared.ParseMonth(c.Query("period"))
	if err != nil {
		shared.RespondError(c, response.CodeBadRequest, "period must be YYYY-MM", err)
		return
	}
	summary, err := h.SettlementService.RestaurantSettlementSummary(c.Request.Context(), restaurantID, period)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, summary)
}

// GetDriverEarnings 骑手收入汇总
func (h *Handler) GetDriverEarnings(c *gin.Context) {
	driverID, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	period, err := shared.ParseMonth(c.Query("period"))
	if err != nil {
		shared.RespondError(c, response.CodeBadRequest, "period must be YYYY-MM", err)
		return
	}
	summary, err := h.SettlementService.DriverEarningsSummary(c.Request.Context(), driverID, period)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, summary)
}

// GetPlatformAnalytics 平台营收统计
func (h *Handler) GetPlatformAnalytics(c *gin.Context) {
	period := strings.TrimSpace(c.DefaultQuery("period", service.AnalyticsPeriodDay))
	analytics, err := h.SettlementService.PlatformAnalytics(c.Request.Context(), period, time.Now())
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, analytics)
}
