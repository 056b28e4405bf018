package orders

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winnerbanjo/nile-collective/internal/paystack"
)

type memStore struct {
	mu           sync.Mutex
	byID         map[string]*Order
	created      []string
	failMarkPaid bool
}

func newMemStore() *memStore { return &memStore{byID: map[string]*Order{}} }

func (m *memStore) Create(_ context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = fmt.Sprintf("order-%d", len(m.created)+1)
	cp := *o
	m.byID[o.ID] = &cp
	m.created = append(m.created, o.ID)
	return nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memStore) List(_ context.Context) ([]*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Order, 0, len(m.created))
	for i := len(m.created) - 1; i >= 0; i-- {
		cp := *m.byID[m.created[i]]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memStore) ListByUser(ctx context.Context, userID string) ([]*Order, error) {
	all, _ := m.List(ctx)
	var out []*Order
	for _, o := range all {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id string, s Status) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	o.Status = s
	cp := *o
	return &cp, nil
}

func (m *memStore) MarkPaid(_ context.Context, id, reference string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failMarkPaid {
		return errors.New("store unavailable")
	}
	o, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	o.Status = StatusPaid
	o.PaymentReference = reference
	return nil
}

type memStock struct {
	mu    sync.Mutex
	stock map[string]int // product|size|color
}

func newMemStock() *memStock { return &memStock{stock: map[string]int{}} }

func (m *memStock) set(pid, size, color string, n int) {
	m.stock[pid+"|"+size+"|"+color] = n
}

func (m *memStock) get(pid, size, color string) int {
	return m.stock[pid+"|"+size+"|"+color]
}

func (m *memStock) DecrementFor(_ context.Context, items []Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range items {
		if it.Size == "" || it.Color == "" {
			continue
		}
		key := it.ProductID + "|" + it.Size + "|" + it.Color
		cur, ok := m.stock[key]
		if !ok {
			continue
		}
		cur -= it.Quantity
		if cur < 0 {
			cur = 0
		}
		m.stock[key] = cur
	}
	return nil
}

type fakeVerifier struct{ err error }

func (f *fakeVerifier) Verify(context.Context, string) error { return f.err }

type recNotifier struct {
	mu    sync.Mutex
	kinds []NotificationKind
}

func (r *recNotifier) Dispatch(kind NotificationKind, _ *Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, kind)
}

func (r *recNotifier) seen() []NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]NotificationKind(nil), r.kinds...)
}

func newTestService(verifyErr error) (*Service, *memStore, *memStock, *recNotifier) {
	store := newMemStore()
	stock := newMemStock()
	rec := &recNotifier{}
	svc := &Service{
		Orders:   store,
		Stock:    stock,
		Verifier: &fakeVerifier{err: verifyErr},
		Notify:   rec,
	}
	return svc, store, stock, rec
}

func validInput() CreateInput {
	return CreateInput{
		Items: []Item{{
			ProductID: "p1", Name: "Bag", Price: 50000, Quantity: 1,
			Size: "M", Color: "Black",
		}},
		TotalAmount: 55000,
		ShippingFee: 5000,
		ShippingDetails: ShippingDetails{
			Name: "Ada O", Email: "ada@example.com", Address: "1 Marina Rd", City: "Lagos",
		},
	}
}

func TestCreateOrderPending(t *testing.T) {
	svc, store, _, rec := newTestService(nil)

	o, err := svc.CreateOrder(context.Background(), validInput())
	require.NoError(t, err)
	require.NotEmpty(t, o.ID)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, PaymentPaystack, o.PaymentMethod)

	stored, err := store.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
	assert.Equal(t, []NotificationKind{NotifyOrderConfirmation}, rec.seen())
}

func TestCreateOrderRejectsBadInput(t *testing.T) {
	svc, store, _, rec := newTestService(nil)

	in := validInput()
	in.Items = nil
	_, err := svc.CreateOrder(context.Background(), in)
	assert.ErrorIs(t, err, ErrNoItems)

	in = validInput()
	in.TotalAmount = 0
	_, err = svc.CreateOrder(context.Background(), in)
	assert.ErrorIs(t, err, ErrInvalidTotal)

	in = validInput()
	in.TotalAmount = -5
	_, err = svc.CreateOrder(context.Background(), in)
	assert.ErrorIs(t, err, ErrInvalidTotal)

	in = validInput()
	in.Items[0].Quantity = 0
	_, err = svc.CreateOrder(context.Background(), in)
	assert.ErrorIs(t, err, ErrBadQuantity)

	assert.Empty(t, store.created, "nothing may be persisted on rejection")
	assert.Empty(t, rec.seen())
}

func TestCreateManualOrder(t *testing.T) {
	svc, store, _, rec := newTestService(nil)

	in := validInput()
	in.ReceiptURL = "https://cdn/x.png"
	o, err := svc.CreateManualOrder(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, StatusPendingVerification, o.Status)
	assert.Equal(t, PaymentBankTransfer, o.PaymentMethod)
	assert.Equal(t, "https://cdn/x.png", o.ReceiptURL)

	stored, err := store.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPendingVerification, stored.Status)
	assert.Equal(t, []NotificationKind{NotifyTransferPending, NotifyTransferAdminAlert}, rec.seen())
}

func TestCreateManualOrderRequiresReceipt(t *testing.T) {
	svc, store, _, _ := newTestService(nil)

	_, err := svc.CreateManualOrder(context.Background(), validInput())
	assert.ErrorIs(t, err, ErrMissingReceipt)
	assert.Empty(t, store.created)
}

func TestVerifyPaymentOrderNotFound(t *testing.T) {
	svc, _, _, _ := newTestService(nil)
	err := svc.VerifyPayment(context.Background(), "missing", "ref-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVerifyPaymentSuccessMutatesNothing(t *testing.T) {
	svc, store, stock, _ := newTestService(nil)
	stock.set("p1", "M", "Black", 5)

	o, err := svc.CreateOrder(context.Background(), validInput())
	require.NoError(t, err)

	require.NoError(t, svc.VerifyPayment(context.Background(), o.ID, "ref-1"))

	// success is reported to the caller before any persistence happens
	stored, _ := store.GetByID(context.Background(), o.ID)
	assert.Equal(t, StatusPending, stored.Status)
	assert.Empty(t, stored.PaymentReference)
	assert.Equal(t, 5, stock.get("p1", "M", "Black"))
}

func TestFinalizePaid(t *testing.T) {
	svc, store, stock, rec := newTestService(nil)
	stock.set("p1", "M", "Black", 5)

	o, err := svc.CreateOrder(context.Background(), validInput())
	require.NoError(t, err)
	rec.kinds = nil

	svc.FinalizePaid(context.Background(), o.ID, "ref-1")

	stored, _ := store.GetByID(context.Background(), o.ID)
	assert.Equal(t, StatusPaid, stored.Status)
	assert.Equal(t, "ref-1", stored.PaymentReference)
	assert.Equal(t, 4, stock.get("p1", "M", "Black"))
	assert.Equal(t, []NotificationKind{NotifyOrderConfirmation, NotifyAdminNewOrder}, rec.seen())
}

func TestFinalizePaidStockFloorsAtZero(t *testing.T) {
	svc, _, stock, _ := newTestService(nil)
	stock.set("p1", "M", "Black", 2)

	in := validInput()
	in.Items[0].Quantity = 10
	o, err := svc.CreateOrder(context.Background(), in)
	require.NoError(t, err)

	svc.FinalizePaid(context.Background(), o.ID, "ref-1")
	assert.Equal(t, 0, stock.get("p1", "M", "Black"), "stock never goes negative")
}

func TestFinalizePaidSkipsUntrackedItems(t *testing.T) {
	svc, _, stock, _ := newTestService(nil)
	stock.set("p1", "M", "Black", 5)

	in := validInput()
	in.Items = append(in.Items, Item{ProductID: "p2", Name: "Scarf", Price: 1000, Quantity: 3})
	o, err := svc.CreateOrder(context.Background(), in)
	require.NoError(t, err)

	svc.FinalizePaid(context.Background(), o.ID, "ref-1")
	assert.Equal(t, 4, stock.get("p1", "M", "Black"))
	assert.Equal(t, 0, stock.get("p2", "", ""), "items without size/color are not stock-tracked")
}

// Pins the missing idempotency guard: running finalization twice for the
// same order decrements stock twice.
func TestFinalizeTwiceDoubleDecrementsStock(t *testing.T) {
	svc, _, stock, _ := newTestService(nil)
	stock.set("p1", "M", "Black", 5)

	o, err := svc.CreateOrder(context.Background(), validInput())
	require.NoError(t, err)

	svc.FinalizePaid(context.Background(), o.ID, "ref-1")
	svc.FinalizePaid(context.Background(), o.ID, "ref-1")
	assert.Equal(t, 3, stock.get("p1", "M", "Black"))
}

func TestFinalizeContinuesPastMarkPaidFailure(t *testing.T) {
	svc, store, stock, rec := newTestService(nil)
	store.failMarkPaid = true
	stock.set("p1", "M", "Black", 5)

	o, err := svc.CreateOrder(context.Background(), validInput())
	require.NoError(t, err)
	rec.kinds = nil

	svc.FinalizePaid(context.Background(), o.ID, "ref-1")

	// decrement and notifications still run; nothing is rolled back
	assert.Equal(t, 4, stock.get("p1", "M", "Black"))
	assert.Len(t, rec.seen(), 2)
}

func TestVerifyPaymentDeclined(t *testing.T) {
	svc, store, stock, _ := newTestService(fmt.Errorf("%w: abandoned", paystack.ErrDeclined))
	stock.set("p1", "M", "Black", 5)

	o, err := svc.CreateOrder(context.Background(), validInput())
	require.NoError(t, err)

	err = svc.VerifyPayment(context.Background(), o.ID, "ref-1")
	assert.ErrorIs(t, err, paystack.ErrDeclined)

	stored, _ := store.GetByID(context.Background(), o.ID)
	assert.Equal(t, StatusFailed, stored.Status)
	assert.Equal(t, 5, stock.get("p1", "M", "Black"), "declined payment leaves stock alone")
}

func TestVerifyPaymentUnavailableLeavesOrderUntouched(t *testing.T) {
	svc, store, _, _ := newTestService(fmt.Errorf("%w: connection refused", paystack.ErrUnavailable))

	o, err := svc.CreateOrder(context.Background(), validInput())
	require.NoError(t, err)

	err = svc.VerifyPayment(context.Background(), o.ID, "ref-1")
	assert.ErrorIs(t, err, paystack.ErrUnavailable)

	stored, _ := store.GetByID(context.Background(), o.ID)
	assert.Equal(t, StatusPending, stored.Status, "could-not-check must not mark the order failed")
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	svc, store, _, rec := newTestService(nil)

	o, err := svc.CreateOrder(context.Background(), validInput())
	require.NoError(t, err)
	rec.kinds = nil

	_, err = svc.UpdateStatus(context.Background(), o.ID, "Refunded")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	stored, _ := store.GetByID(context.Background(), o.ID)
	assert.Equal(t, StatusPending, stored.Status)
	assert.Empty(t, rec.seen())
}

func TestUpdateStatusOrderNotFound(t *testing.T) {
	svc, _, _, _ := newTestService(nil)
	_, err := svc.UpdateStatus(context.Background(), "missing", "paid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatusNotificationRouting(t *testing.T) {
	cases := []struct {
		name string
		from Status
		to   string
		want []NotificationKind
	}{
		{"pending verification to paid gets the official receipt", StatusPendingVerification, "paid", []NotificationKind{NotifyOfficialReceipt}},
		{"pending to paid gets the generic update", StatusPending, "paid", []NotificationKind{NotifyStatusUpdate}},
		{"shipped gets the shipped update", StatusPaid, "Shipped", []NotificationKind{NotifyShippedUpdate}},
		{"processing gets the generic update", StatusPaid, "Processing", []NotificationKind{NotifyStatusUpdate}},
		{"delivered gets the generic update", StatusShipped, "Delivered", []NotificationKind{NotifyStatusUpdate}},
		{"cancelled sends nothing", StatusPending, "cancelled", nil},
		{"failed sends nothing", StatusPending, "failed", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, store, _, rec := newTestService(nil)
			o, err := svc.CreateOrder(context.Background(), validInput())
			require.NoError(t, err)
			_, err = store.UpdateStatus(context.Background(), o.ID, tc.from)
			require.NoError(t, err)
			rec.kinds = nil

			updated, err := svc.UpdateStatus(context.Background(), o.ID, tc.to)
			require.NoError(t, err)
			assert.Equal(t, Status(tc.to), updated.Status)
			assert.Equal(t, tc.want, rec.seen())
		})
	}
}

func TestListOrdersNewestFirst(t *testing.T) {
	svc, _, _, _ := newTestService(nil)

	first, err := svc.CreateOrder(context.Background(), validInput())
	require.NoError(t, err)
	second, err := svc.CreateOrder(context.Background(), validInput())
	require.NoError(t, err)

	out, err := svc.ListOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, second.ID, out[0].ID)
	assert.Equal(t, first.ID, out[1].ID)
}
