package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrReviewNotFound  = errors.New("review not found")
)

type ProductRepo struct{ DB *pgxpool.Pool }

func (r *ProductRepo) Create(ctx context.Context, p *Product) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p.ID = uuid.NewString()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err = tx.Exec(ctx, `
		INSERT INTO products(id, name, description, price, image_url, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		p.ID, p.Name, p.Description, p.Price, p.ImageURL, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return err
	}
	for _, v := range p.Variants {
		if _, err := tx.Exec(ctx, `
			INSERT INTO product_variants(product_id, size, color, stock)
			VALUES ($1,$2,$3,$4)`, p.ID, v.Size, v.Color, v.Stock); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *ProductRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	var p Product
	err := r.DB.QueryRow(ctx, `
		SELECT id, name, description, price, image_url, created_at, updated_at
		FROM products WHERE id=$1`, id).Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadVariants(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepo) List(ctx context.Context) ([]*Product, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, name, description, price, image_url, created_at, updated_at
		FROM products ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, p := range out {
		if err := r.loadVariants(ctx, p); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *ProductRepo) loadVariants(ctx context.Context, p *Product) error {
	rows, err := r.DB.Query(ctx, `
		SELECT size, color, stock FROM product_variants
		WHERE product_id=$1 ORDER BY size, color`, p.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.Size, &v.Color, &v.Stock); err != nil {
			return err
		}
		p.Variants = append(p.Variants, v)
	}
	return rows.Err()
}

type ReviewRepo struct{ DB *pgxpool.Pool }

// Create stores the review unapproved; it stays invisible to the public
// listing until an admin approves it.
func (r *ReviewRepo) Create(ctx context.Context, rv *Review) error {
	rv.ID = uuid.NewString()
	rv.IsApproved = false
	rv.CreatedAt = time.Now().UTC()
	_, err := r.DB.Exec(ctx, `
		INSERT INTO reviews(id, product_id, name, rating, comment, is_approved, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		rv.ID, rv.ProductID, rv.Name, rv.Rating, rv.Comment, rv.IsApproved, rv.CreatedAt)
	return err
}

func (r *ReviewRepo) ListApproved(ctx context.Context, productID string) ([]*Review, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, product_id, name, rating, comment, is_approved, created_at
		FROM reviews WHERE product_id=$1 AND is_approved ORDER BY created_at DESC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Review
	for rows.Next() {
		var rv Review
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.Name, &rv.Rating, &rv.Comment, &rv.IsApproved, &rv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &rv)
	}
	return out, rows.Err()
}

func (r *ReviewRepo) Approve(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `UPDATE reviews SET is_approved=true WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrReviewNotFound
	}
	return nil
}
