// Package imaging prepares listing photos for upload.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// MaxDimension is the longest edge of an uploaded photo.
const MaxDimension = 1600

// JPEGQuality is the compression quality for JPEG output.
const JPEGQuality = 85

// MaxInputBytes caps the size of a photo read from disk or a form.
const MaxInputBytes = 10 << 20

// AllowedMIME lists the accepted input MIME types.
var AllowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Upload is a photo ready to be sent as one multipart part.
type Upload struct {
	Name string
	Data []byte
	MIME string
}

// Prepare reads a photo, checks its format by sniffing bytes, downscales it
// to MaxDimension and re-encodes it as JPEG. name is kept for the part's
// filename with its extension replaced.
func Prepare(name string, r io.Reader) (Upload, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxInputBytes+1))
	if err != nil {
		return Upload{}, fmt.Errorf("reading %s: %w", name, err)
	}
	if len(data) > MaxInputBytes {
		return Upload{}, fmt.Errorf("%s is larger than %d MB", name, MaxInputBytes>>20)
	}

	detected := http.DetectContentType(data)
	if !AllowedMIME[detected] {
		return Upload{}, fmt.Errorf("%s: unsupported image format %s (JPEG, PNG or WebP accepted)", name, detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Upload{}, fmt.Errorf("decoding %s: %w", name, err)
	}

	img = downscale(img, MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return Upload{}, fmt.Errorf("encoding %s: %w", name, err)
	}

	return Upload{
		Name: jpegName(name),
		Data: buf.Bytes(),
		MIME: "image/jpeg",
	}, nil
}

func jpegName(name string) string {
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) || base == "" {
		base = "photo"
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".jpg"
}

// downscale resizes img so neither edge exceeds maxDim, keeping the aspect
// ratio. Smaller images are returned unchanged.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := w, h
	if w > h {
		newW = maxDim
		newH = int(float64(h) * float64(maxDim) / float64(w))
	} else {
		newH = maxDim
		newW = int(float64(w) * float64(maxDim) / float64(h))
	}
	newW = max(newW, 1)
	newH = max(newH, 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
	image.RegisterFormat("webp", "RIFF????WEBPVP8", webp.Decode, webp.DecodeConfig)
}
