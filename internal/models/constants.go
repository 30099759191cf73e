package models

// OrderStatus константы статусов заказов
const (
	OrderStatusOpen       = "open"
	OrderStatusInProgress = "in_progress"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// OrderPriority константы приоритетов заказов
const (
	OrderPriorityUrgent = "urgent"
	OrderPriorityMedium = "medium"
)

// WorkType константы типов оплаты работы
const (
	WorkTypeFixed     = "fixed"
	WorkTypeHourly    = "hourly"
	WorkTypeMilestone = "milestone"
)

// ComplaintStatus константы статусов жалоб
const (
	ComplaintStatusOpen     = "open"
	ComplaintStatusReviewed = "reviewed"
	ComplaintStatusClosed   = "closed"
)

// ComplaintReason категории причин жалоб
const (
	ComplaintReasonQuality       = "quality"
	ComplaintReasonDeadline      = "deadline"
	ComplaintReasonPayment       = "payment"
	ComplaintReasonCommunication = "communication"
	ComplaintReasonOther         = "other"
)

// ValidOrderStatuses список валидных статусов заказов
var ValidOrderStatuses = map[string]struct{}{
	OrderStatusOpen:       {},
	OrderStatusInProgress: {},
	OrderStatusCompleted:  {},
	OrderStatusCancelled:  {},
}

// ValidOrderPriorities список валидных приоритетов заказов
var ValidOrderPriorities = map[string]struct{}{
	OrderPriorityUrgent: {},
	OrderPriorityMedium: {},
}

// ValidWorkTypes список валидных типов оплаты
var ValidWorkTypes = map[string]struct{}{
	WorkTypeFixed:     {},
	WorkTypeHourly:    {},
	WorkTypeMilestone: {},
}

// ValidComplaintReasons список валидных категорий причин жалоб
var ValidComplaintReasons = map[string]struct{}{
	ComplaintReasonQuality:       {},
	ComplaintReasonDeadline:      {},
	ComplaintReasonPayment:       {},
	ComplaintReasonCommunication: {},
	ComplaintReasonOther:         {},
}
