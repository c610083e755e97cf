package car

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/drivehub/car-rental-backend/internal/pkg/storage"
)

var ErrUnsupportedImageType = errors.New("unsupported image type")

// Service defines business logic for the vehicle fleet.
type Service interface {
	GetByID(ctx context.Context, id string) (*Car, error)
	List(ctx context.Context, filter Filter) ([]*Car, int, error)
	Create(ctx context.Context, c *Car) error
	Update(ctx context.Context, c *Car) error
	Delete(ctx context.Context, id string) error
	SetStatus(ctx context.Context, id string, status Status) error
	UpdateMileage(ctx context.Context, id string, mileage int) error
	UploadImage(ctx context.Context, carID, filename string, content io.Reader) (*Image, error)
	DeleteImage(ctx context.Context, imageID string) error
}

type service struct {
	repo      Repository
	files     storage.Storage
	thumbs    *storage.ImageProcessor
	thumbSize int
}

// NewService creates a new car Service.
func NewService(repo Repository, files storage.Storage, thumbs *storage.ImageProcessor) Service {
	return &service{
		repo:      repo,
		files:     files,
		thumbs:    thumbs,
		thumbSize: 320,
	}
}

func (s *service) GetByID(ctx context.Context, id string) (*Car, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Car, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Create(ctx context.Context, c *Car) error {
	if c.Status == "" {
		c.Status = StatusAvailable
	}
	if !c.Status.IsValid() {
		return ErrInvalidStatus
	}
	return s.repo.Create(ctx, c)
}

func (s *service) Update(ctx context.Context, c *Car) error {
	return s.repo.Update(ctx, c)
}

func (s *service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *service) SetStatus(ctx context.Context, id string, status Status) error {
	if !status.IsValid() {
		return ErrInvalidStatus
	}
	return s.repo.SetStatus(ctx, id, status)
}

func (s *service) UpdateMileage(ctx context.Context, id string, mileage int) error {
	if mileage < 0 {
		return ErrMileageDecrease
	}
	return s.repo.UpdateMileage(ctx, id, mileage)
}

// UploadImage stores the original image and a generated thumbnail, then
// records both paths against the car.
func (s *service) UploadImage(ctx context.Context, carID, filename string, content io.Reader) (*Image, error) {
	// Make sure the car exists before touching storage.
	if _, err := s.repo.GetByID(ctx, carID); err != nil {
		return nil, err
	}

	ext := filepath.Ext(filename)
	switch ext {
	case ".jpg", ".jpeg", ".png":
	default:
		return nil, ErrUnsupportedImageType
	}

	// Buffer the upload so we can read it twice (original + thumbnail).
	data, err := io.ReadAll(content)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	name := uuid.NewString()
	origPath := filepath.Join("cars", carID, name+ext)
	thumbPath := filepath.Join("cars", carID, name+"_thumb.jpg")

	if err := s.files.Save(ctx, origPath, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	thumb, err := s.thumbs.GenerateThumbnail(bytes.NewReader(data), s.thumbSize, s.thumbSize)
	if err != nil {
		// Roll back the original so storage stays consistent.
		_ = s.files.Delete(ctx, origPath)
		return nil, fmt.Errorf("failed to generate thumbnail: %w", err)
	}
	if err := s.files.Save(ctx, thumbPath, thumb); err != nil {
		_ = s.files.Delete(ctx, origPath)
		return nil, fmt.Errorf("failed to store thumbnail: %w", err)
	}

	img := &Image{
		CarID:     carID,
		Path:      origPath,
		ThumbPath: thumbPath,
	}
	if err := s.repo.AddImage(ctx, img); err != nil {
		_ = s.files.Delete(ctx, origPath)
		_ = s.files.Delete(ctx, thumbPath)
		return nil, err
	}

	return img, nil
}

func (s *service) DeleteImage(ctx context.Context, imageID string) error {
	img, err := s.repo.DeleteImage(ctx, imageID)
	if err != nil {
		return err
	}

	// Storage cleanup is best effort; the DB row is already gone.
	_ = s.files.Delete(ctx, img.Path)
	_ = s.files.Delete(ctx, img.ThumbPath)
	return nil
}
