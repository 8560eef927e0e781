package enums

// Canonical order status names. Statuses live in the order_statuses table
// (seeded by migration); these constants match the seeded rows so the
// status engine can reason about milestones without string literals.
const (
	OrderStatusPending        = "Pending"
	OrderStatusPreparing      = "Preparing"
	OrderStatusReadyForPickup = "Ready for pickup"
	OrderStatusOutForDelivery = "Out for delivery"
	OrderStatusDelivered      = "Delivered"
	OrderStatusCancelled      = "Cancelled"
)

// IsMilestoneStatus reports whether the status triggers loyalty accrual.
func IsMilestoneStatus(name string) bool {
	return name == OrderStatusDelivered || name == OrderStatusReadyForPickup
}
