package orders

// NotificationKind names the seven emails the lifecycle can trigger. The
// controller only routes; building and sending live in the notify package.
type NotificationKind string

const (
	NotifyOrderConfirmation  NotificationKind = "OrderConfirmation"
	NotifyAdminNewOrder      NotificationKind = "AdminNewOrder"
	NotifyStatusUpdate       NotificationKind = "StatusUpdate"
	NotifyShippedUpdate      NotificationKind = "ShippedUpdate"
	NotifyTransferPending    NotificationKind = "TransferPending"
	NotifyTransferAdminAlert NotificationKind = "TransferAdminAlert"
	NotifyOfficialReceipt    NotificationKind = "OfficialReceipt"
)

// Notifier dispatches a notification without blocking and without reporting
// failure to the caller. The primary operation never waits on it.
type Notifier interface {
	Dispatch(kind NotificationKind, o *Order)
}
