package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Names of the unique constraints backing the booking table. The create
// path uses them to tell a booking-number collision (regenerate and retry)
// apart from a duplicate active booking (reject).
const (
	constraintBookingNumber     = "bookings_booking_number_key"
	constraintNoDuplicateActive = "bookings_no_duplicate_active_idx"
)

// Repository defines methods for accessing booking data from storage.
type Repository interface {
	// Create inserts the booking inside a transaction that re-checks for
	// overlapping active bookings of the same car. Returns *OverlapError,
	// ErrDuplicateBooking or ErrNumberCollision on conflict.
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	// FindOverlapping returns the first active booking of the car whose
	// half-open period intersects [start, end), or nil if none.
	FindOverlapping(ctx context.Context, carID string, start, end time.Time) (*Booking, error)
	// UpdateStatus moves the booking from one status to another with a
	// compare-and-set. Returns ErrStatusChanged if the booking is no
	// longer in the expected status.
	UpdateStatus(ctx context.Context, id string, from, to Status) error
	// HasOtherActiveBookingOn reports whether the car has an active
	// booking other than excludeID whose period covers the given day.
	HasOtherActiveBookingOn(ctx context.Context, carID, excludeID string, day time.Time) (bool, error)
	// AppendNote appends a line to the booking's completion notes.
	AppendNote(ctx context.Context, id, note string) error
	// ListDueToStart returns active reservations whose start date has
	// arrived but whose service has not started yet.
	ListDueToStart(ctx context.Context, now time.Time) ([]*Booking, error)
	// ListDueToComplete returns started bookings whose end date has passed.
	ListDueToComplete(ctx context.Context, now time.Time) ([]*Booking, error)
}

type pgxBookingRepository struct {
	pool *pgxpool.Pool
}

// NewPgxRepository creates a new Repository implementation using pgxpool.
func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxBookingRepository{
		pool: pool,
	}
}

const bookingColumns = `
	b.id,
	b.booking_number,
	b.user_id,
	b.car_id,
	b.start_date,
	b.end_date,
	b.status,
	b.services,
	b.total_price,
	b.notes,
	b.created_at,
	b.updated_at
`

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var services []byte
	if err := row.Scan(
		&b.ID,
		&b.BookingNumber,
		&b.UserID,
		&b.CarID,
		&b.StartDate,
		&b.EndDate,
		&b.Status,
		&services,
		&b.TotalPrice,
		&b.Notes,
		&b.CreatedAt,
		&b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(services) > 0 {
		if err := json.Unmarshal(services, &b.Services); err != nil {
			return nil, fmt.Errorf("decode booking services: %w", err)
		}
	}
	return &b, nil
}

// overlapCondition is the half-open intersection test shared by the
// availability check and the create transaction: an existing booking
// [s, e) overlaps [start, end) iff s < end AND e > start.
const overlapCondition = `
	b.car_id = $1
	AND b.status = ANY($2)
	AND b.start_date < $4
	AND b.end_date > $3
`

func activeStatusStrings() []string {
	active := ActiveStatuses()
	out := make([]string, len(active))
	for i, s := range active {
		out[i] = string(s)
	}
	return out
}

func (r *pgxBookingRepository) FindOverlapping(ctx context.Context, carID string, start, end time.Time) (*Booking, error) {
	query := `SELECT` + bookingColumns + `
		FROM public.bookings b
		WHERE` + overlapCondition + `
		ORDER BY b.start_date ASC
		LIMIT 1`

	b, err := scanBooking(r.pool.QueryRow(ctx, query, carID, activeStatusStrings(), start, end))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("FindOverlapping query failed: %w", err)
	}
	return b, nil
}

func (r *pgxBookingRepository) Create(ctx context.Context, b *Booking) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin create booking tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Serialize check+insert per car. Row locks cannot protect against a
	// conflicting row that does not exist yet, so the second of two
	// concurrent creates for the same car waits here until the first
	// commits and then sees its row in the overlap check below.
	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1::text))`, b.CarID); err != nil {
		return fmt.Errorf("acquire car booking lock: %w", err)
	}

	checkQuery := `
		SELECT b.id, b.start_date, b.end_date
		FROM public.bookings b
		WHERE` + overlapCondition + `
		ORDER BY b.start_date ASC
		LIMIT 1`

	var conflict OverlapError
	err = tx.QueryRow(ctx, checkQuery, b.CarID, activeStatusStrings(), b.StartDate, b.EndDate).
		Scan(&conflict.ConflictingID, &conflict.Start, &conflict.End)
	if err == nil {
		return &conflict
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("overlap check failed: %w", err)
	}

	services, err := json.Marshal(b.Services)
	if err != nil {
		return fmt.Errorf("encode booking services: %w", err)
	}

	const insertQuery = `
		INSERT INTO public.bookings
			(booking_number, user_id, car_id, start_date, end_date, status, services, total_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	if err := tx.QueryRow(ctx, insertQuery,
		b.BookingNumber, b.UserID, b.CarID, b.StartDate, b.EndDate,
		b.Status, services, b.TotalPrice,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			switch pgErr.ConstraintName {
			case constraintBookingNumber:
				return ErrNumberCollision
			case constraintNoDuplicateActive:
				return ErrDuplicateBooking
			}
		}
		return fmt.Errorf("insert booking failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create booking tx: %w", err)
	}
	return nil
}

func (r *pgxBookingRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	query := `SELECT` + bookingColumns + `FROM public.bookings b WHERE b.id = $1`

	b, err := scanBooking(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("GetByID query failed: %w", err)
	}
	return b, nil
}

func (r *pgxBookingRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(
		"b.id", "b.booking_number", "b.user_id", "b.car_id",
		"b.start_date", "b.end_date", "b.status", "b.services",
		"b.total_price", "b.notes", "b.created_at", "b.updated_at",
		"count(*) OVER() as total_count",
	).From("public.bookings b")

	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"b.user_id": filter.UserID})
	}
	if filter.CarID != "" {
		query = query.Where(squirrel.Eq{"b.car_id": filter.CarID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"b.status": filter.Status})
	}
	if !filter.From.IsZero() {
		query = query.Where(squirrel.Gt{"b.end_date": filter.From})
	}
	if !filter.To.IsZero() {
		query = query.Where(squirrel.Lt{"b.start_date": filter.To})
	}

	query = query.OrderBy("b.start_date DESC")

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize
	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	var total int

	for rows.Next() {
		var b Booking
		var services []byte
		if err := rows.Scan(
			&b.ID, &b.BookingNumber, &b.UserID, &b.CarID,
			&b.StartDate, &b.EndDate, &b.Status, &services,
			&b.TotalPrice, &b.Notes, &b.CreatedAt, &b.UpdatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		if len(services) > 0 {
			if err := json.Unmarshal(services, &b.Services); err != nil {
				return nil, 0, fmt.Errorf("decode booking services: %w", err)
			}
		}
		bookings = append(bookings, &b)
	}

	return bookings, total, nil
}

func (r *pgxBookingRepository) UpdateStatus(ctx context.Context, id string, from, to Status) error {
	const query = `
		UPDATE public.bookings
		SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
	`

	ct, err := r.pool.Exec(ctx, query, id, from, to)
	if err != nil {
		return fmt.Errorf("update booking status failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrStatusChanged
	}
	return nil
}

func (r *pgxBookingRepository) AppendNote(ctx context.Context, id, note string) error {
	const query = `
		UPDATE public.bookings
		SET notes = CASE WHEN notes IS NULL THEN $2 ELSE notes || E'\n' || $2 END,
		    updated_at = now()
		WHERE id = $1
	`

	ct, err := r.pool.Exec(ctx, query, id, note)
	if err != nil {
		return fmt.Errorf("append booking note failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxBookingRepository) HasOtherActiveBookingOn(ctx context.Context, carID, excludeID string, day time.Time) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM public.bookings b
			WHERE b.car_id = $1
			  AND b.id <> $2
			  AND b.status = ANY($3)
			  AND b.start_date <= $4
			  AND b.end_date > $4
		)
	`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, carID, excludeID, activeStatusStrings(), day).
		Scan(&exists); err != nil {
		return false, fmt.Errorf("active booking check failed: %w", err)
	}
	return exists, nil
}

func (r *pgxBookingRepository) ListDueToStart(ctx context.Context, now time.Time) ([]*Booking, error) {
	query := `SELECT` + bookingColumns + `
		FROM public.bookings b
		WHERE b.status = ANY($1)
		  AND b.start_date <= $2
		  AND b.end_date > $2
		ORDER BY b.start_date ASC`

	reserved := []string{string(StatusReserved), string(StatusReservedBySupportAgent)}
	return r.queryBookings(ctx, query, reserved, now)
}

func (r *pgxBookingRepository) ListDueToComplete(ctx context.Context, now time.Time) ([]*Booking, error) {
	// Strict comparison: a booking ending exactly at this instant is still
	// within its half-open period and is left for the next tick.
	query := `SELECT` + bookingColumns + `
		FROM public.bookings b
		WHERE b.status = ANY($1)
		  AND b.end_date < $2
		ORDER BY b.end_date ASC`

	started := []string{
		string(StatusReserved),
		string(StatusReservedBySupportAgent),
		string(StatusServiceStarted),
	}
	return r.queryBookings(ctx, query, started, now)
}

func (r *pgxBookingRepository) queryBookings(ctx context.Context, query string, args ...any) ([]*Booking, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	for rows.Next() {
		var b Booking
		var services []byte
		if err := rows.Scan(
			&b.ID, &b.BookingNumber, &b.UserID, &b.CarID,
			&b.StartDate, &b.EndDate, &b.Status, &services,
			&b.TotalPrice, &b.Notes, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan booking failed: %w", err)
		}
		if len(services) > 0 {
			if err := json.Unmarshal(services, &b.Services); err != nil {
				return nil, fmt.Errorf("decode booking services: %w", err)
			}
		}
		bookings = append(bookings, &b)
	}
	return bookings, nil
}
