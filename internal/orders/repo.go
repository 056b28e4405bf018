package orders

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("order not found")

type Repo struct{ DB *pgxpool.Pool }

// Create persists the order and its item snapshots in one transaction and
// assigns the id. Items and totals are immutable afterwards.
func (r *Repo) Create(ctx context.Context, o *Order) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o.ID = uuid.NewString()
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now

	ship, err := json.Marshal(o.ShippingDetails)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, user_id, status, payment_method, payment_reference,
		                   receipt_url, total_amount, shipping_fee, shipping_details,
		                   created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		o.ID, o.UserID, o.Status, o.PaymentMethod, o.PaymentReference,
		o.ReceiptURL, o.TotalAmount, o.ShippingFee, ship, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return err
	}

	for _, it := range o.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items(order_id, product_id, name, price, quantity, size, color)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			o.ID, it.ProductID, it.Name, it.Price, it.Quantity, it.Size, it.Color,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *Repo) GetByID(ctx context.Context, id string) (*Order, error) {
	o, err := r.scanOrder(ctx, `
		SELECT id, user_id, status, payment_method, payment_reference, receipt_url,
		       total_amount, shipping_fee, shipping_details, created_at, updated_at
		FROM orders WHERE id=$1`, id)
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// List returns all orders newest first.
func (r *Repo) List(ctx context.Context) ([]*Order, error) {
	return r.list(ctx, `
		SELECT id, user_id, status, payment_method, payment_reference, receipt_url,
		       total_amount, shipping_fee, shipping_details, created_at, updated_at
		FROM orders ORDER BY created_at DESC`)
}

// ListByUser returns a user's orders newest first.
func (r *Repo) ListByUser(ctx context.Context, userID string) ([]*Order, error) {
	return r.list(ctx, `
		SELECT id, user_id, status, payment_method, payment_reference, receipt_url,
		       total_amount, shipping_fee, shipping_details, created_at, updated_at
		FROM orders WHERE user_id=$1 ORDER BY created_at DESC`, userID)
}

// UpdateStatus writes the new status unconditionally. Last write wins; there
// is no version check.
func (r *Repo) UpdateStatus(ctx context.Context, id string, s Status) (*Order, error) {
	ct, err := r.DB.Exec(ctx, `UPDATE orders SET status=$2, updated_at=$3 WHERE id=$1`,
		id, s, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// MarkPaid flips the order to paid and records the gateway reference.
func (r *Repo) MarkPaid(ctx context.Context, id, reference string) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET status=$2, payment_reference=$3, updated_at=$4 WHERE id=$1`,
		id, StatusPaid, reference, time.Now().UTC())
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) scanOrder(ctx context.Context, q string, args ...any) (*Order, error) {
	var o Order
	var ship []byte
	err := r.DB.QueryRow(ctx, q, args...).Scan(
		&o.ID, &o.UserID, &o.Status, &o.PaymentMethod, &o.PaymentReference,
		&o.ReceiptURL, &o.TotalAmount, &o.ShippingFee, &ship, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(ship, &o.ShippingDetails); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Repo) list(ctx context.Context, q string, args ...any) ([]*Order, error) {
	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Order
	for rows.Next() {
		var o Order
		var ship []byte
		if err := rows.Scan(
			&o.ID, &o.UserID, &o.Status, &o.PaymentMethod, &o.PaymentReference,
			&o.ReceiptURL, &o.TotalAmount, &o.ShippingFee, &ship, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(ship, &o.ShippingDetails); err != nil {
			return nil, err
		}
		out = append(out, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, o := range out {
		if err := r.loadItems(ctx, o); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Repo) loadItems(ctx context.Context, o *Order) error {
	rows, err := r.DB.Query(ctx, `
		SELECT product_id, name, price, quantity, size, color
		FROM order_items WHERE order_id=$1 ORDER BY id`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Price, &it.Quantity, &it.Size, &it.Color); err != nil {
			return err
		}
		o.Items = append(o.Items, it)
	}
	return rows.Err()
}
