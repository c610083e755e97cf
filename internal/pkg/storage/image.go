package storage

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"

	"github.com/disintegration/imaging"
)

const defaultJPEGQuality = 80

// ImageProcessor produces listing thumbnails from uploaded car photos.
type ImageProcessor struct {
	quality int
}

// NewImageProcessor returns a processor with the default JPEG quality.
func NewImageProcessor() *ImageProcessor {
	return &ImageProcessor{quality: defaultJPEGQuality}
}

// GenerateThumbnail decodes the source image, scales it to fit inside the
// maxWidth x maxHeight box preserving aspect ratio, and returns it re-encoded
// as JPEG.
func (p *ImageProcessor) GenerateThumbnail(content io.Reader, maxWidth, maxHeight int) (io.Reader, error) {
	img, _, err := image.Decode(content)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	thumbnail := imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, thumbnail, &jpeg.Options{Quality: p.quality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf, nil
}
