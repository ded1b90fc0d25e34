package service

import "errors"

var (
	ErrOrderNotFound           = errors.New("order not found")
	ErrNoDriversAvailable      = errors.New("no drivers available")
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrGatewayFailure          = errors.New("gateway failure")
	ErrDriverNotFound          = errors.New("driver not found")
	ErrRestaurantNotFound      = errors.New("restaurant not found")
	ErrOrderAlreadyAssigned    = errors.New("order already assigned")
	ErrOrderStatusInvalid      = errors.New("order status invalid")
	ErrOutOfServiceArea        = errors.New("delivery address out of service area")
	ErrLocationInvalid         = errors.New("location invalid")
	ErrInvalidSchedule         = errors.New("invalid settlement schedule")
	ErrInvalidPeriod           = errors.New("invalid report period")
	ErrRecipientTypeInvalid    = errors.New("invalid settlement recipient type")
	ErrTransactionExists       = errors.New("transaction already recorded")
	ErrSettlementNotFound      = errors.New("settlement not found")
	ErrSettlementStatusInvalid = errors.New("settlement status invalid")
	ErrPayoutAccountMissing    = errors.New("payout account missing")
	ErrTrackingNotFound        = errors.New("tracking not found")
	ErrTokenInvalid            = errors.New("token invalid")
	ErrRoleInvalid             = errors.New("role invalid")
)
