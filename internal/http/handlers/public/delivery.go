package public

import (
	"github.com/padala-next/internal/geo"
	"github.com/padala-next/internal/http/handlers/shared"
	"github.com/padala-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// DeliveryEstimateQuery 配送预估查询参数
type DeliveryEstimateQuery struct {
	RestaurantID uint     `form:"restaurant_id" binding:"required"`
	Lat          *float64 `form:"lat" binding:"required"`
	Lng          *float64 `form:"lng" binding:"required"`
}

// GetDeliveryEstimate 下单前预估配送费与送达时间
func (h *Handler) GetDeliveryEstimate(c *gin.Context) {
	var query DeliveryEstimateQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "restaurant_id, lat and lng are required", err)
		return
	}
	estimate, err := h.AssignmentService.DeliveryEstimate(c.Request.Context(), query.RestaurantID, geo.Point{
		Lat: *query.Lat,
		Lng: *query.Lng,
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, estimate)
}

// GetOrderTracking 查询订单当前配送位置
func (h *Handler) GetOrderTracking(c *gin.Context) {
	orderID, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	tracking, err := h.AssignmentService.TrackOrder(c.Request.Context(), orderID)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, tracking)
}
