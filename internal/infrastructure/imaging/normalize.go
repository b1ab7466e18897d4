package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"net/http"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// MaxEdge bounds the longer side of a stored listing photo.
	MaxEdge = 1600
	// Quality is the JPEG quality of stored photos.
	Quality = 85
	// MaxUploadBytes is the largest original accepted.
	MaxUploadBytes = 10 << 20
)

var ErrUnsupported = errors.New("unsupported image format")

var accepted = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Photo is a normalised listing photo ready for storage.
type Photo struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// Normalize sniffs the real type of data, decodes it, shrinks it to fit MaxEdge and re-encodes it as JPEG.
func Normalize(data []byte) (*Photo, error) {
	if len(data) > MaxUploadBytes {
		return nil, fmt.Errorf("image larger than %d bytes", MaxUploadBytes)
	}
	sniffed := http.DetectContentType(data)
	if !accepted[sniffed] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, sniffed)
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	img := fit(src, MaxEdge)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: Quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	b := img.Bounds()
	return &Photo{Data: buf.Bytes(), ContentType: "image/jpeg", Width: b.Dx(), Height: b.Dy()}, nil
}

// fit scales img down, keeping its aspect ratio, so neither side exceeds edge.
func fit(img image.Image, edge int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= edge && h <= edge {
		return img
	}
	nw, nh := edge, edge
	if w > h {
		nh = max(1, h*edge/w)
	} else {
		nw = max(1, w*edge/h)
	}
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
