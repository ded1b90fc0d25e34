package public

import (
	"errors"

	"github.com/padala-next/internal/constants"
	"github.com/padala-next/internal/http/handlers/shared"
	"github.com/padala-next/internal/http/response"
	"github.com/padala-next/internal/queue"
	"github.com/padala-next/internal/service"

	"github.com/gin-gonic/gin"
)

// UpdateLocationRequest 骑手位置上报
type UpdateLocationRequest struct {
	Lat *float64 `json:"lat" binding:"required"`
	Lng *float64 `json:"lng" binding:"required"`
}

// UpdateDriverLocation 骑手上报当前位置
func (h *Handler) UpdateDriverLocation(c *gin.Context) {
	driverID, ok := shared.GetContextUint(c, shared.ContextKeyDriverID)
	if !ok {
		return
	}
	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "lat and lng are required", err)
		return
	}
	result, err := h.AssignmentService.UpdateDriverLocation(c.Request.Context(), driverID, *req.Lat, *req.Lng)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, result)
}

// RejectOrder 骑手拒单，系统立即改派
// 无人可接时订单退回 PENDING，并在队列可用时延迟重新派单
func (h *Handler) RejectOrder(c *gin.Context) {
	driverID, ok := shared.GetContextUint(c, shared.ContextKeyDriverID)
	if !ok {
		return
	}
	orderID, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	result, err := h.AssignmentService.Reassign(c.Request.Context(), orderID, driverID)
	if err == nil {
		response.Success(c, result)
		return
	}
	if !errors.Is(err, service.ErrNoDriversAvailable) {
		shared.RespondServiceError(c, err)
		return
	}

	requeued := false
	if h.QueueClient.Enabled() {
		delay := h.assignRetryDelay()
		if qerr := h.QueueClient.EnqueueAssignDriver(queue.AssignDriverPayload{OrderID: orderID, Attempt: 1}, delay); qerr != nil {
			shared.RequestLog(c).Warnw("driver_reject_requeue_failed", "order_id", orderID, "error", qerr)
		} else {
			requeued = true
		}
	}
	response.SuccessWithMsg(c, "order returned to pending", gin.H{
		"order_id": orderID,
		"status":   constants.OrderStatusPending,
		"requeued": requeued,
	})
}

// GetMyEarnings 骑手查询本人收入
func (h *Handler) GetMyEarnings(c *gin.Context) {
	driverID, ok := shared.GetContextUint(c, shared.ContextKeyDriverID)
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
