package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ErrEmptyImage is returned when a decoded image has no pixels.
var ErrEmptyImage = errors.New("image has zero width or height")

// ErrImageTooLarge is returned when an image declares more than MaxPixels.
var ErrImageTooLarge = errors.New("image too large")

// MaxPixels bounds width × height of images accepted by DecodeBytes. An
// A3 chart scanned at 600 dpi is about 70 megapixels.
const MaxPixels = 100_000_000

// Decoded is a decoded chart image together with its detected format.
type Decoded struct {
	Image  image.Image
	Format string // "png", "jpeg", "gif", "tiff", "bmp" or "webp"
}

// DecodeBytes decodes an encoded image held in memory.
//
// The format is detected from the content, not from any file name. JPEG and
// TIFF photos of a chart are rotated according to their EXIF orientation
// tag, so coordinates picked on a phone preview match the decoded pixels.
//
// # Errors
//
//   - Returns error if data is not a PNG, JPEG, GIF, TIFF, BMP or WebP image
//   - Returns ErrImageTooLarge (wrapped) if the header declares more than
//     MaxPixels, before any pixel data is decoded
//   - Returns ErrEmptyImage (wrapped) if the image has no pixels
func DecodeBytes(data []byte) (*Decoded, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if px := int64(cfg.Width) * int64(cfg.Height); px > MaxPixels {
		return nil, fmt.Errorf("failed to decode image: %w (%dx%d, limit %d pixels)",
			ErrImageTooLarge, cfg.Width, cfg.Height, MaxPixels)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("failed to decode image: %w", ErrEmptyImage)
	}

	return &Decoded{Image: img, Format: format}, nil
}

// ImageCache provides thread-safe caching of decoded chart images keyed by
// file path.
//
// The MCP front-end analyses the same chart several times (mask preview,
// calibration, analysis with different presets), so each file is read and
// decoded once.
//
// # Memory Management
//
// Cached images remain in memory until explicitly removed via Evict() or
// Clear().
//
// # Example Usage
//
//	cache := imaging.NewImageCache()
//	dec, err := cache.Load("/path/to/chart.png")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cache.Evict("/path/to/chart.png") // Optional: free memory
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]*Decoded
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]*Decoded),
	}
}

// Load retrieves an image from the cache or reads and decodes it from disk.
//
// The image is cached using the exact path string provided. Different paths
// to the same file (e.g., relative vs absolute) will result in separate cache
// entries.
func (c *ImageCache) Load(path string) (*Decoded, error) {
	c.mu.RLock()
	if dec, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return dec, nil
	}
	c.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	dec, err := DecodeBytes(data)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[path] = dec
	c.mu.Unlock()

	return dec, nil
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]*Decoded)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
//
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// ImageInfo contains metadata about a loaded chart.
type ImageInfo struct {
	// Width is the image width in pixels, after EXIF orientation.
	Width int `json:"width"`

	// Height is the image height in pixels, after EXIF orientation.
	Height int `json:"height"`

	// Format is the format detected from the file content.
	Format string `json:"format"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// HasAlpha indicates whether the image has an alpha (transparency) channel.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`

	// Center is the default analysis center (w/2, h/2) used when no
	// calibration is given.
	Center image.Point `json:"center"`
}

// LoadImageInfo loads an image into the cache and describes it.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	dec, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	info := Describe(dec)
	info.FileSizeBytes = stat.Size()
	return info, nil
}

// Describe returns the metadata of a decoded image. FileSizeBytes is left
// zero.
func Describe(dec *Decoded) *ImageInfo {
	bounds := dec.Image.Bounds()

	hasAlpha := false
	colorDepth := "8-bit"
	switch dec.Image.(type) {
	case *image.RGBA, *image.NRGBA:
		hasAlpha = true
	case *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
		colorDepth = "16-bit"
	case *image.Gray16:
		colorDepth = "16-bit"
	}

	return &ImageInfo{
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		Format:     dec.Format,
		ColorDepth: colorDepth,
		HasAlpha:   hasAlpha,
		Center:     image.Pt(bounds.Dx()/2, bounds.Dy()/2),
	}
}
