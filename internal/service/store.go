package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/blueharbor/divebook/internal/config"
	"github.com/blueharbor/divebook/internal/domain"
	"github.com/blueharbor/divebook/internal/repository"
)

type StoreService struct {
	db      *pgxpool.Pool
	queries *repository.Queries
}

func NewStoreService(db *pgxpool.Pool, queries *repository.Queries) *StoreService {
	return &StoreService{db: db, queries: queries}
}

type CreateStoreInput struct {
	Name          string
	Description   string
	ContactNumber string
	Address       string
}

func (s *StoreService) Create(ctx context.Context, owner *domain.User, in CreateStoreInput) (*domain.Store, error) {
	if owner.Role != domain.RoleDiveOperator && owner.Role != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || len(in.Name) > config.MaxNameLen {
		return nil, &domain.ValidationError{Field: "name", Reason: "required, at most 120 characters"}
	}
	if len(in.Description) > config.MaxDescriptionLen {
		return nil, &domain.ValidationError{Field: "description", Reason: "at most 500 characters"}
	}

	store, err := s.queries.CreateStore(ctx, repository.CreateStoreParams{
		OwnerID:       owner.ID,
		Name:          in.Name,
		Description:   in.Description,
		ContactNumber: in.ContactNumber,
		Address:       in.Address,
	})
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}
	return store, nil
}

func (s *StoreService) Get(ctx context.Context, id int64) (*domain.Store, []*domain.Schedule, error) {
	store, err := s.queries.GetStore(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	schedules, err := s.queries.ListSchedulesByStore(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("list schedules: %w", err)
	}
	return store, schedules, nil
}

func (s *StoreService) List(ctx context.Context) ([]*domain.Store, error) {
	return s.queries.ListActiveStores(ctx)
}

type CreateScheduleInput struct {
	Title       string
	Description string
	Date        time.Time
	StartTime   string
	EndTime     string
	Price       decimal.Decimal
	MaxSlots    int
}

// CreateSchedule adds a schedule to a store the caller owns (admins may
// add to any store).
func (s *StoreService) CreateSchedule(ctx context.Context, caller *domain.User, storeID int64, in CreateScheduleInput) (*domain.Schedule, error) {
	store, err := s.queries.GetStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if store.OwnerID != caller.ID && !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, &domain.ValidationError{Field: "title", Reason: "required"}
	}
	if in.Date.IsZero() {
		return nil, &domain.ValidationError{Field: "date", Reason: "required, format YYYY-MM-DD"}
	}
	if in.Price.IsNegative() {
		return nil, &domain.ValidationError{Field: "price", Reason: "must not be negative"}
	}
	if in.MaxSlots == 0 {
		in.MaxSlots = config.DefaultMaxSlots
	}
	if in.MaxSlots < 1 {
		return nil, &domain.ValidationError{Field: "max_slots", Reason: "must be at least 1"}
	}

	schedule, err := s.queries.CreateSchedule(ctx, repository.CreateScheduleParams{
		StoreID:     storeID,
		Title:       in.Title,
		Description: in.Description,
		Date:        in.Date,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Price:       in.Price,
		MaxSlots:    in.MaxSlots,
	})
	if err != nil {
		return nil, fmt.Errorf("create schedule: %w", err)
	}
	return schedule, nil
}

func (s *StoreService) GetSchedule(ctx context.Context, id int64) (*domain.Schedule, error) {
	return s.queries.GetSchedule(ctx, id)
}
