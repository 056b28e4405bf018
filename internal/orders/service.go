package orders

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/winnerbanjo/nile-collective/internal/paystack"
)

var (
	ErrNoItems        = errors.New("order must contain at least one item")
	ErrBadQuantity    = errors.New("item quantity must be at least 1")
	ErrInvalidTotal   = errors.New("total amount must be greater than zero")
	ErrMissingReceipt = errors.New("receipt url is required for bank transfer orders")
	ErrInvalidStatus  = errors.New("invalid order status")
)

type OrderStore interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context) ([]*Order, error)
	ListByUser(ctx context.Context, userID string) ([]*Order, error)
	UpdateStatus(ctx context.Context, id string, s Status) (*Order, error)
	MarkPaid(ctx context.Context, id, reference string) error
}

type StockStore interface {
	DecrementFor(ctx context.Context, items []Item) error
}

// Service is the order lifecycle controller. Every mutation lands in the
// store first; notifications ride behind and can only fail silently.
type Service struct {
	Orders   OrderStore
	Stock    StockStore
	Verifier paystack.Verifier
	Notify   Notifier
}

type CreateInput struct {
	UserID          string
	Items           []Item
	TotalAmount     int64
	ShippingFee     int64
	ShippingDetails ShippingDetails
	ReceiptURL      string
}

func (in CreateInput) validate() error {
	if len(in.Items) == 0 {
		return ErrNoItems
	}
	for _, it := range in.Items {
		if it.Quantity < 1 {
			return fmt.Errorf("%w: %q", ErrBadQuantity, it.Name)
		}
	}
	if in.TotalAmount <= 0 {
		return ErrInvalidTotal
	}
	return nil
}

// CreateOrder persists a gateway-path order as pending. The confirmation
// email is dispatched after the order exists, never before.
func (s *Service) CreateOrder(ctx context.Context, in CreateInput) (*Order, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	o := &Order{
		UserID:          in.UserID,
		Items:           in.Items,
		TotalAmount:     in.TotalAmount,
		ShippingFee:     in.ShippingFee,
		Status:          StatusPending,
		PaymentMethod:   PaymentPaystack,
		ShippingDetails: in.ShippingDetails,
	}
	if err := s.Orders.Create(ctx, o); err != nil {
		return nil, err
	}
	s.Notify.Dispatch(NotifyOrderConfirmation, o)
	return o, nil
}

// CreateManualOrder persists a bank-transfer order as PendingVerification.
// The customer pending notice and the admin alert are independent; either
// may fail without affecting the other or the created order.
func (s *Service) CreateManualOrder(ctx context.Context, in CreateInput) (*Order, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.ReceiptURL == "" {
		return nil, ErrMissingReceipt
	}
	o := &Order{
		UserID:          in.UserID,
		Items:           in.Items,
		TotalAmount:     in.TotalAmount,
		ShippingFee:     in.ShippingFee,
		Status:          StatusPendingVerification,
		PaymentMethod:   PaymentBankTransfer,
		ReceiptURL:      in.ReceiptURL,
		ShippingDetails: in.ShippingDetails,
	}
	if err := s.Orders.Create(ctx, o); err != nil {
		return nil, err
	}
	s.Notify.Dispatch(NotifyTransferPending, o)
	s.Notify.Dispatch(NotifyTransferAdminAlert, o)
	return o, nil
}

// VerifyPayment asks the gateway about a reference. On success it mutates
// nothing: the caller responds to the client first and runs FinalizePaid
// afterwards. On a decline the order is marked failed before returning.
func (s *Service) VerifyPayment(ctx context.Context, orderID, reference string) error {
	if _, err := s.Orders.GetByID(ctx, orderID); err != nil {
		return err
	}
	err := s.Verifier.Verify(ctx, reference)
	if errors.Is(err, paystack.ErrDeclined) {
		if _, uerr := s.Orders.UpdateStatus(ctx, orderID, StatusFailed); uerr != nil {
			log.Printf("verify: mark failed order=%s: %v", orderID, uerr)
		}
		return err
	}
	return err
}

// FinalizePaid runs after the success response is already on the wire: flip
// to paid, record the reference, decrement variant stock, then notify. Each
// step is independent; a failure is logged and the rest still run. There is
// no guard against finalizing the same order twice, so a repeated verify
// decrements stock again.
func (s *Service) FinalizePaid(ctx context.Context, orderID, reference string) {
	o, err := s.Orders.GetByID(ctx, orderID)
	if err != nil {
		log.Printf("finalize: load order=%s: %v", orderID, err)
		return
	}
	if err := s.Orders.MarkPaid(ctx, orderID, reference); err != nil {
		log.Printf("finalize: mark paid order=%s: %v", orderID, err)
	} else {
		o.Status = StatusPaid
		o.PaymentReference = reference
	}
	if err := s.Stock.DecrementFor(ctx, o.Items); err != nil {
		log.Printf("finalize: stock decrement order=%s: %v", orderID, err)
	}
	s.Notify.Dispatch(NotifyOrderConfirmation, o)
	s.Notify.Dispatch(NotifyAdminNewOrder, o)
}

// UpdateStatus is the admin-driven transition. Membership in the status set
// is the only rule; any member may overwrite any other.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, status string) (*Order, error) {
	st := Status(status)
	if !st.IsValid() {
		return nil, ErrInvalidStatus
	}
	prev, err := s.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	updated, err := s.Orders.UpdateStatus(ctx, orderID, st)
	if err != nil {
		return nil, err
	}

	switch {
	case prev.Status == StatusPendingVerification && st == StatusPaid:
		s.Notify.Dispatch(NotifyOfficialReceipt, updated)
	case st == StatusShipped:
		s.Notify.Dispatch(NotifyShippedUpdate, updated)
	case st.Notifiable():
		s.Notify.Dispatch(NotifyStatusUpdate, updated)
	}
	return updated, nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (*Order, error) {
	return s.Orders.GetByID(ctx, id)
}

func (s *Service) ListOrders(ctx context.Context) ([]*Order, error) {
	return s.Orders.List(ctx)
}

func (s *Service) ListUserOrders(ctx context.Context, userID string) ([]*Order, error) {
	return s.Orders.ListByUser(ctx, userID)
}
