package arbor

import (
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
)

func solidImage(w, h int) image.Image {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

func TestImageCachePreload(t *testing.T) {
	var calls atomic.Int32
	c := NewImageCache(func(_ context.Context, key string) (image.Image, error) {
		calls.Add(1)
		return solidImage(4, 4), nil
	})

	if got := c.Preload(context.Background(), "a"); got != ResourcesLoaded {
		t.Errorf("first Preload = %v, want RESOURCES_LOADED", got)
	}
	if got := c.Preload(context.Background(), "a"); got != NothingLoaded {
		t.Errorf("cached Preload = %v, want NOTHING_LOADED", got)
	}
	if calls.Load() != 1 {
		t.Errorf("loader calls = %d, want 1", calls.Load())
	}
	if _, ok := c.Get("a"); !ok || c.Len() != 1 {
		t.Error("image should be cached")
	}

	c.Forget("a")
	if _, ok := c.Get("a"); ok {
		t.Error("Forget should drop the image")
	}
	c.Preload(context.Background(), "a")
	if calls.Load() != 2 {
		t.Errorf("loader calls after Forget = %d, want 2", calls.Load())
	}
}

func TestImageCacheCollapsesConcurrentLoads(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	c := NewImageCache(func(_ context.Context, key string) (image.Image, error) {
		calls.Add(1)
		<-release
		return solidImage(1, 1), nil
	})

	const n = 8
	var wg sync.WaitGroup
	results := make([]LoadResult, n)
	started := make(chan struct{}, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started <- struct{}{}
			results[i] = c.Preload(context.Background(), "same")
		}()
	}
	for range n {
		<-started
	}
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("loader calls = %d, want 1", calls.Load())
	}
	loaded := 0
	for _, r := range results {
		if r == ResourcesLoaded {
			loaded++
		}
	}
	if loaded == 0 {
		t.Error("at least the in-flight request should report RESOURCES_LOADED")
	}
}

func TestImageCacheFailure(t *testing.T) {
	var calls atomic.Int32
	logs := &logSink{}
	c := NewImageCache(func(context.Context, string) (image.Image, error) {
		calls.Add(1)
		return nil, errBoom
	})
	c.SetLogf(logs.logf)

	if got := c.Preload(context.Background(), "bad"); got != NothingLoaded {
		t.Errorf("failed Preload = %v, want NOTHING_LOADED", got)
	}
	if !errors.Is(c.Err("bad"), errBoom) {
		t.Errorf("Err = %v", c.Err("bad"))
	}
	if !logs.contains(`image "bad"`) {
		t.Errorf("logs = %v", logs.lines)
	}

	c.Preload(context.Background(), "bad")
	if calls.Load() != 1 {
		t.Error("a failed key is not retried until forgotten")
	}

	c.Put("bad", solidImage(1, 1))
	if c.Err("bad") != nil {
		t.Error("Put should clear the recorded failure")
	}
}

func TestImageCacheNilImage(t *testing.T) {
	c := NewImageCache(func(context.Context, string) (image.Image, error) { return nil, nil })
	if got := c.Preload(context.Background(), "k"); got != NothingLoaded {
		t.Errorf("Preload = %v", got)
	}
	if c.Err("k") == nil {
		t.Error("a nil image should be recorded as a failure")
	}
}

func TestImageCacheCancelledIsNotFailure(t *testing.T) {
	c := NewImageCache(func(ctx context.Context, _ string) (image.Image, error) {
		return nil, ctx.Err()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := c.Preload(ctx, "k"); got != NothingLoaded {
		t.Errorf("Preload = %v", got)
	}
	if c.Err("k") != nil {
		t.Error("cancellation should not be recorded as a failure")
	}
}

func TestImageCacheNoLoader(t *testing.T) {
	c := NewImageCache(nil)
	if got := c.Preload(context.Background(), "k"); got != NothingLoaded {
		t.Errorf("Preload = %v", got)
	}
}

func TestDirLoader(t *testing.T) {
	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "icon.png"))
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, solidImage(3, 2)); err != nil {
		t.Fatal(err)
	}
	f.Close()
	if err := os.WriteFile(filepath.Join(dir, "broken.png"), []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}

	load := DirLoader(dir)
	img, err := load(context.Background(), "icon.png")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Errorf("bounds = %v", b)
	}
	if _, err := load(context.Background(), "missing.png"); err == nil {
		t.Error("missing file should fail")
	}
	if _, err := load(context.Background(), "broken.png"); err == nil {
		t.Error("undecodable file should fail")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := load(ctx, "icon.png"); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled load = %v", err)
	}
}
