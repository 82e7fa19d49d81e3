package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueharbor/divebook/internal/domain"
	"github.com/blueharbor/divebook/internal/repository"
)

// These tests run against a real Postgres because the properties under test
// (row locks, atomic commit, counter integrity) live in the database.
// Set TEST_DATABASE_URL to run them.
func setupDB(t *testing.T) (*pgxpool.Pool, *repository.Queries) {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database tests")
	}

	ctx := context.Background()
	pool, err := repository.NewPool(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, repository.RunMigrations(url, os.DirFS("../../migrations")))

	_, err = pool.Exec(ctx, `TRUNCATE coupon_redemptions, coupons, bookings, schedules, stores, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return pool, repository.New(pool)
}

var userSeq int

func seedUser(t *testing.T, q *repository.Queries, role domain.Role) *domain.User {
	t.Helper()
	userSeq++
	user, err := q.CreateUser(context.Background(), repository.CreateUserParams{
		FirstName:    "Test",
		LastName:     fmt.Sprintf("Diver%d", userSeq),
		Email:        fmt.Sprintf("diver%d-%d@example.com", userSeq, time.Now().UnixNano()),
		PasswordHash: "x",
		Role:         role,
	})
	require.NoError(t, err)
	return user
}

func seedSchedule(t *testing.T, q *repository.Queries, price string, maxSlots int) *domain.Schedule {
	t.Helper()
	ctx := context.Background()
	owner := seedUser(t, q, domain.RoleDiveOperator)

	store, err := q.CreateStore(ctx, repository.CreateStoreParams{
		OwnerID: owner.ID,
		Name:    "Blue Reef Divers",
	})
	require.NoError(t, err)

	p, err := decimal.NewFromString(price)
	require.NoError(t, err)

	schedule, err := q.CreateSchedule(ctx, repository.CreateScheduleParams{
		StoreID:   store.ID,
		Title:     "Morning reef dive",
		Date:      time.Now().UTC().AddDate(0, 0, 7),
		StartTime: "08:00",
		EndTime:   "11:00",
		Price:     p,
		MaxSlots:  maxSlots,
	})
	require.NoError(t, err)
	return schedule
}

func seedCoupon(t *testing.T, q *repository.Queries, admin *domain.User, code string, usesPerUser int) *domain.Coupon {
	t.Helper()
	maxDiscount := decimal.NewFromInt(150)
	coupon, err := q.CreateCoupon(context.Background(), repository.CreateCouponParams{
		Code:          code,
		DiscountType:  domain.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(20),
		MaxDiscount:   &maxDiscount,
		Scope:         domain.ScopeGlobal,
		UsesPerUser:   usesPerUser,
		CreatedBy:     admin.ID,
	})
	require.NoError(t, err)
	return coupon
}

func TestCreateBookingWithCappedCoupon(t *testing.T) {
	pool, q := setupDB(t)
	ctx := context.Background()
	svc := NewBookingService(pool, q)

	admin := seedUser(t, q, domain.RoleAdmin)
	user := seedUser(t, q, domain.RoleRegular)
	schedule := seedSchedule(t, q, "1000", 2)
	seedCoupon(t, q, admin, "DIVE20", 1)

	booking, err := svc.Create(ctx, user, CreateBookingInput{
		ScheduleID: schedule.ID,
		Slots:      2,
		CouponCode: "dive20", // normalized to uppercase
	})
	require.NoError(t, err)

	// 20% of 2000 is 400, capped at 150.
	assert.True(t, booking.OriginalPrice.Equal(decimal.NewFromInt(2000)), "got %s", booking.OriginalPrice)
	assert.True(t, booking.DiscountApplied.Equal(decimal.NewFromInt(150)), "got %s", booking.DiscountApplied)
	assert.True(t, booking.FinalPrice.Equal(decimal.NewFromInt(1850)), "got %s", booking.FinalPrice)

	updated, err := q.GetSchedule(ctx, schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.BookedSlots)

	coupon, err := q.GetCouponByCode(ctx, "DIVE20")
	require.NoError(t, err)
	assert.Equal(t, 1, coupon.TotalUsed)

	// Schedule is now full: another user is rejected with available_slots 0.
	other := seedUser(t, q, domain.RoleRegular)
	_, err = svc.Create(ctx, other, CreateBookingInput{ScheduleID: schedule.ID, Slots: 1})
	var capErr *domain.CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 0, capErr.AvailableSlots)
}

func TestCreateBookingDuplicateConflict(t *testing.T) {
	pool, q := setupDB(t)
	ctx := context.Background()
	svc := NewBookingService(pool, q)

	user := seedUser(t, q, domain.RoleRegular)
	schedule := seedSchedule(t, q, "500", 10)

	_, err := svc.Create(ctx, user, CreateBookingInput{ScheduleID: schedule.ID, Slots: 1})
	require.NoError(t, err)

	_, err = svc.Create(ctx, user, CreateBookingInput{ScheduleID: schedule.ID, Slots: 1})
	assert.ErrorIs(t, err, domain.ErrDuplicateBooking)
}

func TestCouponPerUserLimit(t *testing.T) {
	pool, q := setupDB(t)
	ctx := context.Background()
	svc := NewBookingService(pool, q)

	admin := seedUser(t, q, domain.RoleAdmin)
	user := seedUser(t, q, domain.RoleRegular)
	seedCoupon(t, q, admin, "ONCE", 1)

	first := seedSchedule(t, q, "1000", 5)
	second := seedSchedule(t, q, "1000", 5)

	_, err := svc.Create(ctx, user, CreateBookingInput{ScheduleID: first.ID, Slots: 1, CouponCode: "ONCE"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, user, CreateBookingInput{ScheduleID: second.ID, Slots: 1, CouponCode: "ONCE"})
	var couponErr *domain.CouponError
	require.ErrorAs(t, err, &couponErr)
	assert.Contains(t, couponErr.Reason, "maximum number of times")
}

func TestCancelRestoresSlotsButNotCouponUsage(t *testing.T) {
	pool, q := setupDB(t)
	ctx := context.Background()
	svc := NewBookingService(pool, q)

	admin := seedUser(t, q, domain.RoleAdmin)
	user := seedUser(t, q, domain.RoleRegular)
	schedule := seedSchedule(t, q, "1000", 2)
	seedCoupon(t, q, admin, "DIVE20", 1)

	booking, err := svc.Create(ctx, user, CreateBookingInput{
		ScheduleID: schedule.ID,
		Slots:      2,
		CouponCode: "DIVE20",
	})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, user, booking.ID)
	require.NoError(t, err)
	assert.True(t, cancelled.IsCancelled)

	// Slots return exactly to the pre-booking value.
	updated, err := q.GetSchedule(ctx, schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.BookedSlots)

	// Coupon usage is not reversed.
	coupon, err := q.GetCouponByCode(ctx, "DIVE20")
	require.NoError(t, err)
	assert.Equal(t, 1, coupon.TotalUsed)

	// Cancelling again is reported, not silently ignored, and does not
	// decrement slots twice.
	_, err = svc.Cancel(ctx, user, booking.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyCancelled)

	updated, err = q.GetSchedule(ctx, schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.BookedSlots)
}

func TestCancelAuthorization(t *testing.T) {
	pool, q := setupDB(t)
	ctx := context.Background()
	svc := NewBookingService(pool, q)

	owner := seedUser(t, q, domain.RoleRegular)
	stranger := seedUser(t, q, domain.RoleRegular)
	admin := seedUser(t, q, domain.RoleAdmin)
	schedule := seedSchedule(t, q, "500", 5)

	booking, err := svc.Create(ctx, owner, CreateBookingInput{ScheduleID: schedule.ID, Slots: 1})
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, stranger, booking.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.Cancel(ctx, admin, booking.ID)
	assert.NoError(t, err)
}

func TestConcurrentBookingSingleSlot(t *testing.T) {
	pool, q := setupDB(t)
	ctx := context.Background()
	svc := NewBookingService(pool, q)

	schedule := seedSchedule(t, q, "500", 1)

	const attempts = 8
	users := make([]*domain.User, attempts)
	for i := range users {
		users[i] = seedUser(t, q, domain.RoleRegular)
	}

	var wg sync.WaitGroup
	results := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Create(ctx, users[i], CreateBookingInput{ScheduleID: schedule.ID, Slots: 1})
			results[i] = err
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		var capErr *domain.CapacityError
		if !errors.As(err, &capErr) && !errors.Is(err, domain.ErrTransient) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one booking may win the last slot")

	updated, err := q.GetSchedule(ctx, schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.BookedSlots)
}

func TestListBookingsRoleAndStatus(t *testing.T) {
	pool, q := setupDB(t)
	ctx := context.Background()
	svc := NewBookingService(pool, q)

	admin := seedUser(t, q, domain.RoleAdmin)
	alice := seedUser(t, q, domain.RoleRegular)
	bob := seedUser(t, q, domain.RoleRegular)
	schedule := seedSchedule(t, q, "500", 10)

	aliceBooking, err := svc.Create(ctx, alice, CreateBookingInput{ScheduleID: schedule.ID, Slots: 1})
	require.NoError(t, err)
	_, err = svc.Create(ctx, bob, CreateBookingInput{ScheduleID: schedule.ID, Slots: 1})
	require.NoError(t, err)

	// Admin sees everything, users only their own.
	all, err := svc.List(ctx, admin, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := svc.List(ctx, alice, "")
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, alice.ID, own[0].UserID)

	// Status filter.
	_, err = svc.Cancel(ctx, alice, aliceBooking.ID)
	require.NoError(t, err)

	active, err := svc.List(ctx, admin, "active")
	require.NoError(t, err)
	assert.Len(t, active, 1)

	cancelled, err := svc.List(ctx, admin, "cancelled")
	require.NoError(t, err)
	assert.Len(t, cancelled, 1)

	_, err = svc.List(ctx, admin, "bogus")
	var valErr *domain.ValidationError
	assert.ErrorAs(t, err, &valErr)
}

func TestCreateBookingValidation(t *testing.T) {
	pool, q := setupDB(t)
	ctx := context.Background()
	svc := NewBookingService(pool, q)

	user := seedUser(t, q, domain.RoleRegular)

	var valErr *domain.ValidationError
	_, err := svc.Create(ctx, user, CreateBookingInput{Slots: 1})
	assert.ErrorAs(t, err, &valErr)

	_, err = svc.Create(ctx, user, CreateBookingInput{ScheduleID: 1, Slots: 0})
	assert.ErrorAs(t, err, &valErr)

	_, err = svc.Create(ctx, user, CreateBookingInput{ScheduleID: 999999, Slots: 1})
	assert.ErrorIs(t, err, domain.ErrScheduleNotFound)
}

func TestCreateBookingUnknownCoupon(t *testing.T) {
	pool, q := setupDB(t)
	ctx := context.Background()
	svc := NewBookingService(pool, q)

	user := seedUser(t, q, domain.RoleRegular)
	schedule := seedSchedule(t, q, "500", 5)

	_, err := svc.Create(ctx, user, CreateBookingInput{
		ScheduleID: schedule.ID,
		Slots:      1,
		CouponCode: "NOPE",
	})
	assert.ErrorIs(t, err, domain.ErrCouponNotFound)

	// The failed coupon lookup must not leak a reservation.
	updated, err := q.GetSchedule(ctx, schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.BookedSlots)
}

func TestPastScheduleRejected(t *testing.T) {
	pool, q := setupDB(t)
	ctx := context.Background()
	svc := NewBookingService(pool, q)
	svc.now = func() time.Time { return time.Now().UTC().AddDate(0, 1, 0) }

	user := seedUser(t, q, domain.RoleRegular)
	schedule := seedSchedule(t, q, "500", 5)

	_, err := svc.Create(ctx, user, CreateBookingInput{ScheduleID: schedule.ID, Slots: 1})
	var capErr *domain.CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Contains(t, capErr.Reason, "past schedule")
}
