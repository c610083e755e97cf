package car

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines methods for accessing car data from storage.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Car, error)
	List(ctx context.Context, filter Filter) ([]*Car, int, error)
	Create(ctx context.Context, c *Car) error
	Update(ctx context.Context, c *Car) error
	Delete(ctx context.Context, id string) error
	SetStatus(ctx context.Context, id string, status Status) error
	// UpdateMileage sets the car's mileage. The update is guarded in SQL so
	// the stored value never decreases.
	UpdateMileage(ctx context.Context, id string, mileage int) error
	AddImage(ctx context.Context, img *Image) error
	ListImages(ctx context.Context, carID string) ([]Image, error)
	DeleteImage(ctx context.Context, imageID string) (*Image, error)
}

type pgxCarRepository struct {
	pool *pgxpool.Pool
}

// NewPgxRepository creates a new Repository implementation using pgxpool.
func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxCarRepository{
		pool: pool,
	}
}

const carColumns = `
	c.id,
	c.make,
	c.model,
	c.year,
	c.status,
	c.fuel_type,
	c.gearbox,
	c.engine_capacity,
	c.passenger_capacity,
	c.climate_control,
	c.price_per_day,
	c.category,
	c.location,
	c.mileage,
	c.rating,
	c.created_at,
	c.updated_at
`

func scanCar(row pgx.Row) (*Car, error) {
	var c Car
	if err := row.Scan(
		&c.ID,
		&c.Make,
		&c.Model,
		&c.Year,
		&c.Status,
		&c.FuelType,
		&c.Gearbox,
		&c.EngineCapacity,
		&c.PassengerCapacity,
		&c.ClimateControl,
		&c.PricePerDay,
		&c.Category,
		&c.Location,
		&c.Mileage,
		&c.Rating,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *pgxCarRepository) GetByID(ctx context.Context, id string) (*Car, error) {
	query := `SELECT` + carColumns + `FROM public.cars c WHERE c.id = $1`

	c, err := scanCar(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("GetByID query failed: %w", err)
	}

	images, err := r.ListImages(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Images = images

	return c, nil
}

func (r *pgxCarRepository) List(ctx context.Context, filter Filter) ([]*Car, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(
		"c.id", "c.make", "c.model", "c.year", "c.status", "c.fuel_type",
		"c.gearbox", "c.engine_capacity", "c.passenger_capacity",
		"c.climate_control", "c.price_per_day", "c.category", "c.location",
		"c.mileage", "c.rating", "c.created_at", "c.updated_at",
		"count(*) OVER() as total_count",
	).From("public.cars c")

	if filter.Make != "" {
		query = query.Where(squirrel.ILike{"c.make": "%" + filter.Make + "%"})
	}
	if filter.Model != "" {
		query = query.Where(squirrel.ILike{"c.model": "%" + filter.Model + "%"})
	}
	if filter.Category != "" {
		query = query.Where(squirrel.Eq{"c.category": filter.Category})
	}
	if filter.Location != "" {
		query = query.Where(squirrel.Eq{"c.location": filter.Location})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"c.status": filter.Status})
	}
	if filter.Gearbox != "" {
		query = query.Where(squirrel.Eq{"c.gearbox": filter.Gearbox})
	}
	if filter.FuelType != "" {
		query = query.Where(squirrel.Eq{"c.fuel_type": filter.FuelType})
	}
	if filter.MaxPrice > 0 {
		query = query.Where(squirrel.LtOrEq{"c.price_per_day": filter.MaxPrice})
	}

	query = query.OrderBy("c.make ASC", "c.model ASC")

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
		return nil, 0, fmt.Errorf("build list cars query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list cars failed: %w", err)
	}
	defer rows.Close()

	var cars []*Car
	var total int

	for rows.Next() {
		var c Car
		if err := rows.Scan(
			&c.ID, &c.Make, &c.Model, &c.Year, &c.Status, &c.FuelType,
			&c.Gearbox, &c.EngineCapacity, &c.PassengerCapacity,
			&c.ClimateControl, &c.PricePerDay, &c.Category, &c.Location,
			&c.Mileage, &c.Rating, &c.CreatedAt, &c.UpdatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan car failed: %w", err)
		}
		cars = append(cars, &c)
	}

	return cars, total, nil
}

func (r *pgxCarRepository) Create(ctx context.Context, c *Car) error {
	const query = `
		INSERT INTO public.cars
			(make, model, year, status, fuel_type, gearbox, engine_capacity,
			 passenger_capacity, climate_control, price_per_day, category, location, mileage)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at
	`

	if err := r.pool.QueryRow(
		ctx,
		query,
		c.Make, c.Model, c.Year, c.Status, c.FuelType, c.Gearbox,
		c.EngineCapacity, c.PassengerCapacity, c.ClimateControl,
		c.PricePerDay, c.Category, c.Location, c.Mileage,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return fmt.Errorf("create car failed: %w", err)
	}

	return nil
}

func (r *pgxCarRepository) Update(ctx context.Context, c *Car) error {
	const query = `
		UPDATE public.cars
		SET make = $2, model = $3, year = $4, fuel_type = $5, gearbox = $6,
		    engine_capacity = $7, passenger_capacity = $8, climate_control = $9,
		    price_per_day = $10, category = $11, location = $12, updated_at = now()
		WHERE id = $1
	`

	ct, err := r.pool.Exec(ctx, query,
		c.ID, c.Make, c.Model, c.Year, c.FuelType, c.Gearbox,
		c.EngineCapacity, c.PassengerCapacity, c.ClimateControl,
		c.PricePerDay, c.Category, c.Location,
	)
	if err != nil {
		return fmt.Errorf("update car failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxCarRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM public.cars WHERE id = $1`

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete car failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxCarRepository) SetStatus(ctx context.Context, id string, status Status) error {
	const query = `UPDATE public.cars SET status = $2, updated_at = now() WHERE id = $1`

	ct, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("set car status failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxCarRepository) UpdateMileage(ctx context.Context, id string, mileage int) error {
	// The mileage guard lives in the WHERE clause so concurrent writers
	// can never roll the odometer backwards.
	const query = `
		UPDATE public.cars
		SET mileage = $2, updated_at = now()
		WHERE id = $1 AND mileage <= $2
	`

	ct, err := r.pool.Exec(ctx, query, id, mileage)
	if err != nil {
		return fmt.Errorf("update car mileage failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		// Either the car does not exist or the new value is lower.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrMileageDecrease
	}
	return nil
}

func (r *pgxCarRepository) AddImage(ctx context.Context, img *Image) error {
	const query = `
		INSERT INTO public.car_images (car_id, path, thumb_path)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	if err := r.pool.QueryRow(ctx, query, img.CarID, img.Path, img.ThumbPath).
		Scan(&img.ID, &img.CreatedAt); err != nil {
		return fmt.Errorf("add car image failed: %w", err)
	}
	return nil
}

func (r *pgxCarRepository) ListImages(ctx context.Context, carID string) ([]Image, error) {
	const query = `
		SELECT id, car_id, path, thumb_path, created_at
		FROM public.car_images
		WHERE car_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, carID)
	if err != nil {
		return nil, fmt.Errorf("list car images failed: %w", err)
	}
	defer rows.Close()

	var images []Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.ID, &img.CarID, &img.Path, &img.ThumbPath, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan car image failed: %w", err)
		}
		images = append(images, img)
	}
	return images, nil
}

func (r *pgxCarRepository) DeleteImage(ctx context.Context, imageID string) (*Image, error) {
	const query = `
		DELETE FROM public.car_images
		WHERE id = $1
		RETURNING id, car_id, path, thumb_path, created_at
	`

	var img Image
	if err := r.pool.QueryRow(ctx, query, imageID).
		Scan(&img.ID, &img.CarID, &img.Path, &img.ThumbPath, &img.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("delete car image failed: %w", err)
	}
	return &img, nil
}
