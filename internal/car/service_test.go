package car

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	cars map[string]*Car
}

func newFakeRepo(cars ...*Car) *fakeRepo {
	r := &fakeRepo{cars: make(map[string]*Car)}
	for _, c := range cars {
		r.cars[c.ID] = c
	}
	return r
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (*Car, error) {
	c, ok := r.cars[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (r *fakeRepo) List(ctx context.Context, filter Filter) ([]*Car, int, error) {
	return nil, 0, nil
}

func (r *fakeRepo) Create(ctx context.Context, c *Car) error {
	c.ID = "generated"
	r.cars[c.ID] = c
	return nil
}

func (r *fakeRepo) Update(ctx context.Context, c *Car) error {
	if _, ok := r.cars[c.ID]; !ok {
		return ErrNotFound
	}
	r.cars[c.ID] = c
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, id string) error {
	delete(r.cars, id)
	return nil
}

func (r *fakeRepo) SetStatus(ctx context.Context, id string, status Status) error {
	c, ok := r.cars[id]
	if !ok {
		return ErrNotFound
	}
	c.Status = status
	return nil
}

func (r *fakeRepo) UpdateMileage(ctx context.Context, id string, mileage int) error {
	c, ok := r.cars[id]
	if !ok {
		return ErrNotFound
	}
	if mileage < c.Mileage {
		return ErrMileageDecrease
	}
	c.Mileage = mileage
	return nil
}

func (r *fakeRepo) AddImage(ctx context.Context, img *Image) error { return nil }

func (r *fakeRepo) ListImages(ctx context.Context, carID string) ([]Image, error) {
	return nil, nil
}

func (r *fakeRepo) DeleteImage(ctx context.Context, imageID string) (*Image, error) {
	return nil, ErrNotFound
}

func TestDisplayModel(t *testing.T) {
	c := &Car{Make: "Toyota", Model: "Corolla", Year: 2022}
	assert.Equal(t, "Toyota Corolla (2022)", c.DisplayModel())
}

func TestCreateDefaultsToAvailable(t *testing.T) {
	svc := NewService(newFakeRepo(), nil, nil)

	c := &Car{Make: "Skoda", Model: "Octavia", Year: 2021}
	require.NoError(t, svc.Create(context.Background(), c))
	assert.Equal(t, StatusAvailable, c.Status)
}

func TestCreateRejectsUnknownStatus(t *testing.T) {
	svc := NewService(newFakeRepo(), nil, nil)

	c := &Car{Make: "Skoda", Model: "Octavia", Year: 2021, Status: "parked"}
	assert.ErrorIs(t, svc.Create(context.Background(), c), ErrInvalidStatus)
}

func TestSetStatusValidates(t *testing.T) {
	repo := newFakeRepo(&Car{ID: "c1", Status: StatusAvailable})
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	assert.ErrorIs(t, svc.SetStatus(ctx, "c1", "parked"), ErrInvalidStatus)

	require.NoError(t, svc.SetStatus(ctx, "c1", StatusBooked))
	assert.Equal(t, StatusBooked, repo.cars["c1"].Status)
}

func TestUpdateMileageIsMonotonic(t *testing.T) {
	repo := newFakeRepo(&Car{ID: "c1", Mileage: 50000})
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	assert.ErrorIs(t, svc.UpdateMileage(ctx, "c1", 49999), ErrMileageDecrease)
	assert.ErrorIs(t, svc.UpdateMileage(ctx, "c1", -1), ErrMileageDecrease)

	require.NoError(t, svc.UpdateMileage(ctx, "c1", 50200))
	assert.Equal(t, 50200, repo.cars["c1"].Mileage)
}
