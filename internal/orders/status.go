package orders

type Status string

// The mixed casing is historical and part of the stored JSON contract.
const (
	StatusPending             Status = "pending"
	StatusPaid                Status = "paid"
	StatusFailed              Status = "failed"
	StatusCancelled           Status = "cancelled"
	StatusPendingVerification Status = "PendingVerification"
	StatusProcessing          Status = "Processing"
	StatusShipped             Status = "Shipped"
	StatusDelivered           Status = "Delivered"
)

var allStatuses = map[Status]bool{
	StatusPending:             true,
	StatusPaid:                true,
	StatusFailed:              true,
	StatusCancelled:           true,
	StatusPendingVerification: true,
	StatusProcessing:          true,
	StatusShipped:             true,
	StatusDelivered:           true,
}

// IsValid reports membership in the status set. There is no transition
// table: any member may be written over any other.
func (s Status) IsValid() bool { return allStatuses[s] }

// notifiable statuses are the ones whose admin-driven update emails the
// customer; everything else is silent.
var notifiable = map[Status]bool{
	StatusPaid:                true,
	StatusProcessing:          true,
	StatusShipped:             true,
	StatusDelivered:           true,
	StatusPendingVerification: true,
}

func (s Status) Notifiable() bool { return notifiable[s] }
