package admin

import (
	"github.com/padala-next/internal/http/handlers/shared"
	"github.com/padala-next/internal/http/response"
	"github.com/padala-next/internal/queue"

	"github.com/gin-gonic/gin"
)

// ReassignOrderRequest 人工改派参数
type ReassignOrderRequest struct {
	DriverID uint `json:"driver_id" binding:"required"` // 拒单骑手
}

// AssignOrder 为订单派单，async=true 且队列可用时改为异步派单
func (h *Handler) AssignOrder(c *gin.Context) {
	orderID, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	if c.Query("async") == "true" && h.QueueClient.Enabled() {
		if err := h.QueueClient.EnqueueAssignDriver(queue.AssignDriverPayload{OrderID: orderID}, 0); err != nil {
			shared.RespondError(c, response.CodeServiceUnavailable, "enqueue assignment failed", err)
			return
		}
		response.SuccessWithMsg(c, "assignment queued", gin.H{"order_id": orderID, "queued": true})
		return
	}
	result, err := h.AssignmentService.Assign(c.Request.Context(), orderID)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, result)
}

// ReassignOrder 代骑手拒单并改派
func (h *Handler) ReassignOrder(c *gin.Context) {
	orderID, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req ReassignOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "driver_id is required", err)
		return
	}
	result, err := h.AssignmentService.Reassign(c.Request.Context(), orderID, req.DriverID)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, result)
}
