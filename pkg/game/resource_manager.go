package game

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io/fs"
	"path"
	"strings"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// Image cache sizing. Cost is measured in decoded RGBA bytes.
const (
	imageCacheCounters = 10000
	imageCacheMaxCost  = 256 * 1024 * 1024
	imageCacheBuffer   = 64
)

// ResourceManager is responsible for centralized management of editor resources.
// It loads map object, background and furniture images from a file system
// (the embedded assets or a directory on disk) and keeps decoded images in a
// bounded ristretto cache so large floor plans do not pin every variant of
// every theme in memory.
//
// Fonts are built from the Go font family and cached per size.
//
// Thread Safety Note:
// The image cache itself is safe for concurrent use, but ebiten images must be
// created on the game goroutine. Call LoadImage from Update/Draw only.
//
// Usage:
//
//	rm, err := NewResourceManager(os.DirFS("."))
//	img, err := rm.LoadImage("assets/objects/wall.png")
//	if err != nil {
//	    log.Printf("Failed to load image: %v", err)
//	}
type ResourceManager struct {
	fsys       fs.FS
	imageCache *ristretto.Cache[string, *ebiten.Image]

	regularSource *text.GoTextFaceSource
	boldSource    *text.GoTextFaceSource
	fontCache     map[fontKey]*text.GoTextFace
}

type fontKey struct {
	bold bool
	size float64
}

// NewResourceManager creates a ResourceManager that reads from fsys.
//
// Parameters:
//   - fsys: The file system holding the image assets. May be nil, in which case
//     every LoadImage call fails and callers fall back to flat colors.
//
// Returns:
//   - A pointer to a newly initialized ResourceManager.
//   - An error if the cache or the built-in fonts cannot be initialized.
func NewResourceManager(fsys fs.FS) (*ResourceManager, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, *ebiten.Image]{
		NumCounters: imageCacheCounters,
		MaxCost:     imageCacheMaxCost,
		BufferItems: imageCacheBuffer,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create image cache: %w", err)
	}

	regular, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, fmt.Errorf("failed to load regular font: %w", err)
	}
	bold, err := text.NewGoTextFaceSource(bytes.NewReader(gobold.TTF))
	if err != nil {
		return nil, fmt.Errorf("failed to load bold font: %w", err)
	}

	return &ResourceManager{
		fsys:          fsys,
		imageCache:    cache,
		regularSource: regular,
		boldSource:    bold,
		fontCache:     make(map[fontKey]*text.GoTextFace),
	}, nil
}

// LoadImage loads an image file from the specified path and caches it for future use.
// If the image is still in the cache, the cached version is returned.
// Supported formats: PNG and JPEG.
//
// Parameters:
//   - p: The slash-separated path inside the file system (e.g., "assets/objects/wall.png").
//
// Returns:
//   - A pointer to the loaded ebiten.Image.
//   - An error if the file cannot be opened or decoded.
func (rm *ResourceManager) LoadImage(p string) (*ebiten.Image, error) {
	key := normalizePath(p)
	if img, ok := rm.imageCache.Get(key); ok {
		return img, nil
	}

	if rm.fsys == nil {
		return nil, fmt.Errorf("no resource file system for image %s", key)
	}

	file, err := rm.fsys.Open(key)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file %s: %w", key, err)
	}
	defer file.Close()

	decoded, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", key, err)
	}

	img := ebiten.NewImageFromImage(decoded)
	b := decoded.Bounds()
	rm.imageCache.Set(key, img, int64(b.Dx()*b.Dy()*4))
	rm.imageCache.Wait()

	return img, nil
}

// Font returns a Go font face of the given size, cached per size.
func (rm *ResourceManager) Font(size float64, bold bool) *text.GoTextFace {
	key := fontKey{bold: bold, size: size}
	if face, ok := rm.fontCache[key]; ok {
		return face
	}
	source := rm.regularSource
	if bold {
		source = rm.boldSource
	}
	face := &text.GoTextFace{Source: source, Size: size}
	rm.fontCache[key] = face
	return face
}

// Close releases the image cache.
func (rm *ResourceManager) Close() {
	rm.imageCache.Close()
}

// normalizePath converts a path to the slash-separated, unrooted form fs.FS expects.
func normalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimPrefix(p, "/")
	return path.Clean(p)
}
