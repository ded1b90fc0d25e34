package constants

// 订单状态常量
const (
	OrderStatusPending        = "PENDING"
	OrderStatusConfirmed      = "CONFIRMED"
	OrderStatusPreparing      = "PREPARING"
	OrderStatusReady          = "READY"
	OrderStatusOutForDelivery = "OUT_FOR_DELIVERY"
	OrderStatusDelivered      = "DELIVERED"
	OrderStatusCancelled      = "CANCELLED"
)

// 配送跟踪阶段常量
const (
	TrackingPhaseHeadingToRestaurant = "heading_to_restaurant"
	TrackingPhaseAtRestaurant        = "at_restaurant"
	TrackingPhaseHeadingToCustomer   = "heading_to_customer"
	TrackingPhaseArrived             = "arrived"
)

// 结算状态常量
const (
	SettlementStatusPending    = "pending"
	SettlementStatusProcessing = "processing"
	SettlementStatusCompleted  = "completed"
	SettlementStatusFailed     = "failed"
)

// 结算对象类型常量
const (
	RecipientTypeRestaurant = "restaurant"
	RecipientTypeDriver     = "driver"
)

// 结算周期常量
const (
	SettlementScheduleDaily   = "daily"
	SettlementScheduleWeekly  = "weekly"
	SettlementScheduleMonthly = "monthly"
)

// 骑手收入常量
const (
	EarningTypeDeliveryFee = "delivery_fee"
	EarningStatusPending   = "pending"
	EarningStatusPaid      = "paid"
)

// 交易状态常量
const (
	TransactionStatusCompleted = "completed"
	TransactionStatusRefunded  = "refunded"
)

// 通知类型常量
const (
	NotifyKindNewDeliveryRequest = "new_delivery_request"
	NotifyKindDriverAssigned     = "driver_assigned"
	NotifyKindDriverReassigned   = "driver_reassigned"
)

// 服务提供方常量
const (
	RoutingProviderOSRM   = "osrm"
	RoutingProviderGoogle = "google"
	RoutingProviderNone   = "none"

	NotifyProviderSemaphore = "semaphore"
	NotifyProviderLog       = "log"

	PayoutProviderGCash   = "gcash"
	PayoutProviderSandbox = "sandbox"
)

// 接口角色常量
const (
	RoleOps     = "ops"
	RoleFinance = "finance"
	RoleDriver  = "driver"
)

// 队列与任务常量
const (
	QueueDefault             = "default"
	QueueCritical            = "critical"
	TaskOrderAssignDriver    = "order:assign_driver"
	TaskSettlementProcessDue = "settlement:process_due"
)
