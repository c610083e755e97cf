package feedback

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const constraintOnePerBooking = "feedbacks_booking_id_key"

// Repository defines methods for accessing feedback data from storage.
type Repository interface {
	// Create inserts the feedback and refreshes the car's aggregate rating
	// in the same transaction. Returns ErrAlreadySubmitted when the booking
	// already has feedback.
	Create(ctx context.Context, f *Feedback) error
	ListByCar(ctx context.Context, carID string, page, pageSize int) ([]*Feedback, int, error)
}

type pgxFeedbackRepository struct {
	pool *pgxpool.Pool
}

// NewPgxRepository creates a new Repository implementation using pgxpool.
func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxFeedbackRepository{pool: pool}
}

func (r *pgxFeedbackRepository) Create(ctx context.Context, f *Feedback) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin create feedback tx: %w", err)
	}
	defer tx.Rollback(ctx)

	const insertQuery = `
		INSERT INTO public.feedbacks (booking_id, car_id, user_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	if err := tx.QueryRow(ctx, insertQuery,
		f.BookingID, f.CarID, f.UserID, f.Rating, f.Comment,
	).Scan(&f.ID, &f.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation &&
			pgErr.ConstraintName == constraintOnePerBooking {
			return ErrAlreadySubmitted
		}
		return fmt.Errorf("insert feedback failed: %w", err)
	}

	// The aggregate lives on the car row so listings sort and display
	// without a join.
	const ratingQuery = `
		UPDATE public.cars
		SET rating = (
			SELECT round(avg(rating)::numeric, 2)
			FROM public.feedbacks
			WHERE car_id = $1
		),
		updated_at = now()
		WHERE id = $1
	`

	if _, err := tx.Exec(ctx, ratingQuery, f.CarID); err != nil {
		return fmt.Errorf("refresh car rating failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create feedback tx: %w", err)
	}
	return nil
}

func (r *pgxFeedbackRepository) ListByCar(ctx context.Context, carID string, page, pageSize int) ([]*Feedback, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(
		"f.id", "f.booking_id", "f.car_id", "f.user_id",
		"f.rating", "f.comment", "f.created_at",
		"count(*) OVER() as total_count",
	).From("public.feedbacks f").
		Where(squirrel.Eq{"f.car_id": carID}).
		OrderBy("f.created_at DESC").
		Limit(uint64(pageSize)).
		Offset(uint64((page - 1) * pageSize))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list feedbacks query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list feedbacks failed: %w", err)
	}
	defer rows.Close()

	var feedbacks []*Feedback
	var total int

	for rows.Next() {
		var f Feedback
		if err := rows.Scan(
			&f.ID, &f.BookingID, &f.CarID, &f.UserID,
			&f.Rating, &f.Comment, &f.CreatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan feedback failed: %w", err)
		}
		feedbacks = append(feedbacks, &f)
	}

	return feedbacks, total, nil
}
