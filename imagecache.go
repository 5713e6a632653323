package arbor

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register decoders for DirLoader
	_ "image/png"
	"os"
	"path/filepath"
	"sync"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/singleflight"
)

// ImageLoader fetches the image identified by key.
type ImageLoader func(ctx context.Context, key string) (image.Image, error)

// ImageCache memoizes decoded images by key. Concurrent loads of the same key
// collapse into one in-flight request. Create one per application and pass it
// to the viewer and cell renderers that need it.
//
// ImageCache is safe for concurrent use: preloads run on worker goroutines
// while the UI thread reads through Get.
type ImageCache struct {
	load  ImageLoader
	group singleflight.Group

	mu     sync.Mutex
	images map[string]image.Image
	failed map[string]error
	logf   func(format string, args ...any) // nil = silent
}

// NewImageCache creates a cache backed by load.
func NewImageCache(load ImageLoader) *ImageCache {
	return &ImageCache{
		load:   load,
		images: make(map[string]image.Image),
		failed: make(map[string]error),
	}
}

// SetLogf sets where load failures are reported. nil silences them.
func (c *ImageCache) SetLogf(logf func(format string, args ...any)) {
	c.mu.Lock()
	c.logf = logf
	c.mu.Unlock()
}

// Get returns the cached image for key, if it has been loaded.
func (c *ImageCache) Get(key string) (image.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	img, ok := c.images[key]
	return img, ok
}

// Err returns the error recorded for a failed load of key, or nil.
func (c *ImageCache) Err(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failed[key]
}

// Put stores img under key, replacing any previous entry.
func (c *ImageCache) Put(key string, img image.Image) {
	c.mu.Lock()
	c.images[key] = img
	delete(c.failed, key)
	c.mu.Unlock()
}

// Preload loads key unless it is already cached or has already failed.
// Failures resolve to NothingLoaded; the error stays available through Err.
func (c *ImageCache) Preload(ctx context.Context, key string) LoadResult {
	c.mu.Lock()
	_, have := c.images[key]
	_, failed := c.failed[key]
	c.mu.Unlock()
	if have || failed || c.load == nil {
		return NothingLoaded
	}

	v, _, _ := c.group.Do(key, func() (any, error) {
		// An earlier flight may have finished since the check above.
		c.mu.Lock()
		_, have := c.images[key]
		c.mu.Unlock()
		if have {
			return NothingLoaded, nil
		}

		img, err := c.load(ctx, key)
		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			// A cancelled preload is not a failure; a later one may retry.
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return NothingLoaded, nil
			}
			c.failed[key] = err
			if c.logf != nil {
				c.logf("[arbor] image %q: %v", key, err)
			}
			return NothingLoaded, nil
		}
		if img == nil {
			c.failed[key] = fmt.Errorf("load %s: no image", key)
			return NothingLoaded, nil
		}
		c.images[key] = img
		return ResourcesLoaded, nil
	})
	return v.(LoadResult)
}

// Forget drops key (and any recorded failure) so the next Preload refetches it.
func (c *ImageCache) Forget(key string) {
	c.mu.Lock()
	delete(c.images, key)
	delete(c.failed, key)
	c.mu.Unlock()
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.images)
}

// DirLoader returns an ImageLoader that decodes key as a path relative to dir.
// PNG, JPEG, BMP and WebP are supported.
func DirLoader(dir string) ImageLoader {
	return func(ctx context.Context, key string) (image.Image, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(dir, filepath.FromSlash(key))
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		img, _, err := image.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return img, nil
	}
}
