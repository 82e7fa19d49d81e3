package domain

import "time"

type Store struct {
	ID            int64
	OwnerID       int64
	Name          string
	Description   string
	ContactNumber string
	Address       string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
