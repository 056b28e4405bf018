package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StockRepo struct{ DB *pgxpool.Pool }

// DecrementFor reduces variant stock for every item that names both a size
// and a color and matches an existing (product, size, color) variant. Stock
// never drops below zero. Items without size/color, and products without a
// matching variant, are skipped without error: those products are not
// stock-tracked.
func (r *StockRepo) DecrementFor(ctx context.Context, items []Item) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, it := range items {
		if it.Size == "" || it.Color == "" {
			continue
		}
		var stock int
		err := tx.QueryRow(ctx, `
			SELECT stock FROM product_variants
			WHERE product_id=$1 AND size=$2 AND color=$3 FOR UPDATE`,
			it.ProductID, it.Size, it.Color).Scan(&stock)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE product_variants SET stock = GREATEST(stock - $4, 0)
			WHERE product_id=$1 AND size=$2 AND color=$3`,
			it.ProductID, it.Size, it.Color, it.Quantity); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
