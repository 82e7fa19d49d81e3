package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/blueharbor/divebook/internal/domain"
)

const storeColumns = `id, owner_id, name, description, contact_number, address, is_active, created_at, updated_at`

func scanStore(row pgx.Row) (*domain.Store, error) {
	s := &domain.Store{}
	err := row.Scan(&s.ID, &s.OwnerID, &s.Name, &s.Description, &s.ContactNumber, &s.Address, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

type CreateStoreParams struct {
	OwnerID       int64
	Name          string
	Description   string
	ContactNumber string
	Address       string
}

func (q *Queries) CreateStore(ctx context.Context, arg CreateStoreParams) (*domain.Store, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO stores (owner_id, name, description, contact_number, address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+storeColumns,
		arg.OwnerID, arg.Name, arg.Description, arg.ContactNumber, arg.Address,
	)
	return scanStore(row)
}

func (q *Queries) GetStore(ctx context.Context, id int64) (*domain.Store, error) {
	row := q.db.QueryRow(ctx, `SELECT `+storeColumns+` FROM stores WHERE id = $1`, id)
	s, err := scanStore(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrStoreNotFound
	}
	return s, err
}

func (q *Queries) ListActiveStores(ctx context.Context) ([]*domain.Store, error) {
	rows, err := q.db.Query(ctx, `SELECT `+storeColumns+` FROM stores WHERE is_active ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stores []*domain.Store
	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, err
		}
		stores = append(stores, s)
	}
	return stores, rows.Err()
}
