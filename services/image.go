package services

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"github.com/disintegration/imaging"

	"veribuy/models"
)

const (
	DefaultMaxImageDimension = 1536
	jpegQuality              = 85
)

// EncodeImage decodes a photo, applies its EXIF orientation, shrinks it to
// fit within maxDim on both sides and returns it as base64 JPEG.
func EncodeImage(r io.Reader, maxDim int) (models.ImagePayload, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return models.ImagePayload{}, fmt.Errorf("%w: decode: %v", models.ErrEncoding, err)
	}

	if maxDim <= 0 {
		maxDim = DefaultMaxImageDimension
	}
	b := img.Bounds()
	if b.Dx() > maxDim || b.Dy() > maxDim {
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return models.ImagePayload{}, fmt.Errorf("%w: encode: %v", models.ErrEncoding, err)
	}

	return models.ImagePayload{
		MIMEType: "image/jpeg",
		Data:     base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// EncodeImageFile is EncodeImage for a file on disk.
func EncodeImageFile(path string, maxDim int) (models.ImagePayload, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.ImagePayload{}, fmt.Errorf("%w: %v", models.ErrEncoding, err)
	}
	defer f.Close()
	return EncodeImage(f, maxDim)
}
