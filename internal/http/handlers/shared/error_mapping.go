package shared

import (
	"context"
	"errors"

	"github.com/padala-next/internal/http/response"
	"github.com/padala-next/internal/service"
)

type errorMapping struct {
	target error
	code   int
	msg    string
}

var serviceErrorMappings = []errorMapping{
	{service.ErrOrderNotFound, response.CodeNotFound, "order not found"},
	{service.ErrDriverNotFound, response.CodeNotFound, "driver not found"},
	{service.ErrRestaurantNotFound, response.CodeNotFound, "restaurant not found"},
	{service.ErrSettlementNotFound, response.CodeNotFound, "settlement not found"},
	{service.ErrTrackingNotFound, response.CodeNotFound, "tracking not available"},
	{service.ErrNoDriversAvailable, response.CodeConflict, "no drivers available"},
	{service.ErrOrderAlreadyAssigned, response.CodeConflict, "order already assigned"},
	{service.ErrOrderStatusInvalid, response.CodeConflict, "order status does not allow this action"},
	{service.ErrSettlementStatusInvalid, response.CodeConflict, "settlement status does not allow this action"},
	{service.ErrTransactionExists, response.CodeConflict, "transaction already recorded"},
	{service.ErrOutOfServiceArea, response.CodeBadRequest, "delivery address out of service area"},
	{service.ErrLocationInvalid, response.CodeBadRequest, "invalid coordinates"},
	{service.ErrInvalidAmount, response.CodeBadRequest, "invalid amount"},
	{service.ErrInvalidSchedule, response.CodeBadRequest, "invalid settlement schedule"},
	{service.ErrInvalidPeriod, response.CodeBadRequest, "invalid report period"},
	{service.ErrRecipientTypeInvalid, response.CodeBadRequest, "invalid recipient type"},
	{service.ErrPayoutAccountMissing, response.CodeBadRequest, "payout account missing"},
	{service.ErrGatewayFailure, response.CodeServiceUnavailable, "payout gateway unavailable"},
	{context.DeadlineExceeded, response.CodeServiceUnavailable, "request timed out"},
}

// MapServiceError 将业务错误映射为响应码与提示
func MapServiceError(err error) (int, string) {
	if err == nil {
		return response.CodeOK, "success"
	}
	for _, item := range serviceErrorMappings {
		if errors.Is(err, item.target) {
			return item.code, item.msg
		}
	}
	return response.CodeInternal, "internal error"
}
