// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging validates and processes article image uploads using
// pure Go libraries.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder
)

// Upload limits.
const (
	MaxUploadSize       = 5 << 20 // 5 MB per file
	MaxImagesPerArticle = 10
)

// Preset is one resized rendition of an uploaded image.
type Preset struct {
	Name     string
	MaxWidth int
	Quality  int
}

// Presets are the renditions created for every upload, ordered small to
// large.
var Presets = []Preset{
	{Name: "small", MaxWidth: 300, Quality: 80},
	{Name: "medium", MaxWidth: 768, Quality: 85},
	{Name: "large", MaxWidth: 1920, Quality: 90},
}

var allowedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

// ValidateUpload checks an upload's extension and size before any
// decoding happens.
func ValidateUpload(filename string, size int64) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return fmt.Errorf("unsupported image type %q", ext)
	}
	if size > MaxUploadSize {
		return fmt.Errorf("image exceeds %d MB limit", MaxUploadSize>>20)
	}
	if size == 0 {
		return fmt.Errorf("empty upload")
	}
	return nil
}

// ProcessResult contains the stored original and its dimensions.
type ProcessResult struct {
	Width    int
	Height   int
	MimeType string
	Path     string
	Variants []VariantResult
}

// VariantResult is one created rendition.
type VariantResult struct {
	Preset string
	Width  int
	Height int
	Path   string
}

// Processor saves uploads and their renditions under a base directory.
type Processor struct {
	uploadDir string
}

// NewProcessor creates a processor storing files under uploadDir.
func NewProcessor(uploadDir string) *Processor {
	return &Processor{uploadDir: uploadDir}
}

// Process decodes an upload, applies EXIF orientation, stores the
// original and creates all renditions. key namespaces the files, one
// key per stored image.
func (p *Processor) Process(r io.Reader, key, filename string) (*ProcessResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}

	format := detectFormat(data)
	if format == "" {
		return nil, fmt.Errorf("unsupported image format")
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	orientation := readExifOrientation(bytes.NewReader(data))
	img = applyOrientation(img, orientation)

	bounds := img.Bounds()

	// Re-encode drops EXIF metadata from the stored original.
	original, err := encodeImage(img, format, 95)
	if err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}

	origPath, err := p.saveFile(filepath.Join("originals", key), filename, original)
	if err != nil {
		return nil, fmt.Errorf("saving original: %w", err)
	}

	result := &ProcessResult{
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		MimeType: formatToMimeType(format),
		Path:     origPath,
	}

	for _, preset := range Presets {
		v, err := p.createVariant(img, key, filename, format, preset)
		if err != nil {
			return nil, fmt.Errorf("creating %s variant: %w", preset.Name, err)
		}
		if v != nil {
			result.Variants = append(result.Variants, *v)
		}
	}

	return result, nil
}

// createVariant resizes to the preset width, keeping aspect ratio.
// Images already narrower than the preset get no variant.
func (p *Processor) createVariant(img image.Image, key, filename, format string, preset Preset) (*VariantResult, error) {
	if img.Bounds().Dx() <= preset.MaxWidth {
		return nil, nil
	}

	resized := imaging.Resize(img, preset.MaxWidth, 0, imaging.Lanczos)
	encoded, err := encodeImage(resized, format, preset.Quality)
	if err != nil {
		return nil, err
	}

	path, err := p.saveFile(filepath.Join(preset.Name, key), filename, encoded)
	if err != nil {
		return nil, err
	}

	b := resized.Bounds()
	return &VariantResult{
		Preset: preset.Name,
		Width:  b.Dx(),
		Height: b.Dy(),
		Path:   path,
	}, nil
}

// Remove deletes the original and every rendition of a stored image.
func (p *Processor) Remove(key string) error {
	dirs := []string{filepath.Join(p.uploadDir, "originals", key)}
	for _, preset := range Presets {
		dirs = append(dirs, filepath.Join(p.uploadDir, preset.Name, key))
	}
	for _, dir := range dirs {
		if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", dir, err)
		}
	}
	return nil
}

func (p *Processor) saveFile(subDir, filename string, data []byte) (string, error) {
	dir := filepath.Join(p.uploadDir, subDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// readExifOrientation reads the EXIF orientation tag from image data.
// Returns 1 (normal) if orientation cannot be determined.
func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return orientation
}

// applyOrientation applies EXIF orientation transformation to an image.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// encodeImage encodes an image to bytes with the specified format and quality.
func encodeImage(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case "jpeg", "jpg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	case "gif":
		if err := gif.Encode(&buf, img, nil); err != nil {
			return nil, err
		}
	default:
		// WebP encoding is not available in pure Go; store as JPEG.
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// detectFormat detects the image format from raw bytes.
func detectFormat(data []byte) string {
	contentType := http.DetectContentType(data)
	// Explicitly reject TIFF (CVE-2023-36308 in disintegration/imaging)
	if strings.Contains(contentType, "tiff") {
		return ""
	}
	switch {
	case strings.Contains(contentType, "jpeg"):
		return "jpeg"
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "gif"):
		return "gif"
	case strings.Contains(contentType, "webp"):
		return "webp"
	default:
		return ""
	}
}

func formatToMimeType(format string) string {
	switch format {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
