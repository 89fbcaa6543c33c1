// Package photos stores product photos as square thumbnails.
package photos

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	// registered for image.Decode
	_ "image/gif"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

// ThumbnailSize is the edge length of stored photos in pixels.
const ThumbnailSize = 150

// DefaultMaxPixels bounds the declared size of an upload before it is decoded.
const DefaultMaxPixels = 40_000_000

var (
	// ErrInvalidImage is returned for uploads that are not a supported image.
	ErrInvalidImage = errors.New("photos: unsupported or corrupt image")
	// ErrImageTooLarge is returned for images declaring more than MaxPixels.
	ErrImageTooLarge = errors.New("photos: image dimensions too large")
)

// Store writes thumbnails to Dir and returns URLs under URLPrefix.
type Store struct {
	Dir       string
	URLPrefix string
	// MaxPixels defaults to DefaultMaxPixels.
	MaxPixels int
}

func (s Store) maxPixels() int {
	if s.MaxPixels <= 0 {
		return DefaultMaxPixels
	}
	return s.MaxPixels
}

// CropSquare cuts the centre square out of img.
func CropSquare(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	side := min(w, h)
	x0 := b.Min.X + (w-side)/2
	y0 := b.Min.Y + (h-side)/2
	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(dst, dst.Bounds(), img, image.Pt(x0, y0), draw.Src)
	return dst
}

// Thumbnail centre-crops img to a square and scales it down to size x size.
// Squares no larger than size are kept as they are.
func Thumbnail(img image.Image, size int) image.Image {
	sq := CropSquare(img)
	if sq.Bounds().Dx() <= size {
		return sq
	}
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), sq, sq.Bounds(), draw.Over, nil)
	return dst
}

// Save checks the declared size of r, decodes it, thumbnails it and writes it under a unique name. PNG and GIF
// uploads are stored as PNG, everything else as JPEG.
func (s Store) Save(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > s.maxPixels()/cfg.Height {
		return "", fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	thumb := Thumbnail(img, ThumbnailSize)

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", err
	}
	ext := ".jpg"
	if format == "png" || format == "gif" {
		ext = ".png"
	}
	name := uuid.NewString() + ext
	f, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return "", err
	}
	if ext == ".png" {
		err = png.Encode(f, thumb)
	} else {
		err = jpeg.Encode(f, thumb, &jpeg.Options{Quality: 90})
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(filepath.Join(s.Dir, name))
		return "", err
	}
	return path.Join("/", s.URLPrefix, name), nil
}

// Remove deletes a photo previously returned by Save. URLs outside the store
// are ignored.
func (s Store) Remove(url string) error {
	prefix := path.Join("/", s.URLPrefix) + "/"
	if !strings.HasPrefix(url, prefix) {
		return nil
	}
	name := path.Base(url)
	if name == "." || name == "/" {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
