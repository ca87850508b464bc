package imaging

import (
	"fmt"
	"sync"
	"testing"
)

func TestCacheKeyDeterministic(t *testing.T) {
	p := TransformParams{Width: IntPtr(400), Watermark: "wm", Grayscale: true}.Normalize()
	k1 := buildCacheKey("img-a", p)
	k2 := buildCacheKey("img-a", p)
	if k1 != k2 {
		t.Errorf("identical inputs produced different keys: %s vs %s", k1, k2)
	}
}

func TestCacheKeySourceIdentity(t *testing.T) {
	p := TransformParams{}.Normalize()
	if buildCacheKey("img-a", p) == buildCacheKey("img-b", p) {
		t.Error("different sources with identical params must not collide")
	}
}

func TestCacheKeyCoversEveryField(t *testing.T) {
	base := TransformParams{}.Normalize()
	variants := map[string]TransformParams{
		"width":       {Width: IntPtr(100)},
		"height":      {Height: IntPtr(100)},
		"format":      {Format: "png"},
		"quality":     {Quality: 50},
		"crop_x":      {CropX: IntPtr(1)},
		"crop_y":      {CropY: IntPtr(1)},
		"crop_width":  {CropWidth: IntPtr(1)},
		"crop_height": {CropHeight: IntPtr(1)},
		"rotate":      {Rotate: IntPtr(90)},
		"watermark":   {Watermark: "x"},
		"grayscale":   {Grayscale: true},
		"enhance":     {Enhance: true},
		"compress":    {Compress: true},
	}

	baseKey := buildCacheKey("img", base)
	for name, p := range variants {
		t.Run(name, func(t *testing.T) {
			if buildCacheKey("img", p.Normalize()) == baseKey {
				t.Errorf("changing %s did not change the cache key", name)
			}
		})
	}
}

// An unset optional must hash differently from any set value,
// including zero.
func TestCacheKeyNilVersusZero(t *testing.T) {
	unset := buildCacheKey("img", TransformParams{}.Normalize())
	zero := buildCacheKey("img", TransformParams{CropX: IntPtr(0), CropY: IntPtr(0), CropWidth: IntPtr(1), CropHeight: IntPtr(1)}.Normalize())
	if unset == zero {
		t.Error("nil and set-to-zero crop fields must hash differently")
	}
}

func testKey(i int) CacheKey {
	return buildCacheKey(fmt.Sprintf("img-%d", i), TransformParams{}.Normalize())
}

func TestCacheLookupInsert(t *testing.T) {
	c := NewResultCache(10)
	key := testKey(1)

	if _, _, ok := c.Lookup(key); ok {
		t.Fatal("lookup on empty cache should miss")
	}

	c.Insert(key, []byte{1, 2, 3}, FormatJPEG)
	data, format, ok := c.Lookup(key)
	if !ok {
		t.Fatal("lookup after insert should hit")
	}
	if format != FormatJPEG {
		t.Errorf("format: got %q, want %q", format, FormatJPEG)
	}
	if string(data) != string([]byte{1, 2, 3}) {
		t.Errorf("bytes: got %v, want [1 2 3]", data)
	}
}

func TestCacheBound(t *testing.T) {
	const capacity = 5
	c := NewResultCache(capacity)

	for i := 0; i < capacity+1; i++ {
		c.Insert(testKey(i), []byte{byte(i)}, FormatPNG)
	}

	if got := c.Len(); got != capacity {
		t.Errorf("Len after capacity+1 inserts: got %d, want %d", got, capacity)
	}
	if _, _, ok := c.Lookup(testKey(0)); ok {
		t.Error("first-inserted entry should have been evicted")
	}
	for i := 1; i <= capacity; i++ {
		if _, _, ok := c.Lookup(testKey(i)); !ok {
			t.Errorf("entry %d should still be cached", i)
		}
	}
}

// Eviction is insertion-order, not access-order: reading the oldest
// entry does not save it.
func TestCacheEvictionIgnoresAccess(t *testing.T) {
	c := NewResultCache(2)
	c.Insert(testKey(0), []byte{0}, FormatPNG)
	c.Insert(testKey(1), []byte{1}, FormatPNG)

	c.Lookup(testKey(0)) // hot read

	c.Insert(testKey(2), []byte{2}, FormatPNG)
	if _, _, ok := c.Lookup(testKey(0)); ok {
		t.Error("oldest-inserted entry should be evicted despite recent access")
	}
	if _, _, ok := c.Lookup(testKey(1)); !ok {
		t.Error("second entry should survive")
	}
}

func TestCacheDefensiveCopies(t *testing.T) {
	c := NewResultCache(10)
	key := testKey(1)

	src := []byte{1, 2, 3}
	c.Insert(key, src, FormatJPEG)
	src[0] = 99 // caller mutates its slice after insert

	first, _, _ := c.Lookup(key)
	first[1] = 99 // caller mutates the returned copy

	second, _, _ := c.Lookup(key)
	if second[0] != 1 || second[1] != 2 || second[2] != 3 {
		t.Errorf("cached entry corrupted by caller mutation: got %v, want [1 2 3]", second)
	}
}

func TestCacheOverwriteKeepsBound(t *testing.T) {
	c := NewResultCache(3)
	key := testKey(1)

	c.Insert(key, []byte{1}, FormatPNG)
	c.Insert(key, []byte{2}, FormatPNG)

	if got := c.Len(); got != 1 {
		t.Errorf("Len after re-insert of same key: got %d, want 1", got)
	}
	data, _, _ := c.Lookup(key)
	if len(data) != 1 || data[0] != 2 {
		t.Errorf("re-insert should overwrite: got %v, want [2]", data)
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := NewResultCache(8)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := testKey(i % 16)
				c.Insert(key, []byte{byte(i)}, FormatPNG)
				c.Lookup(key)
			}
		}(g)
	}
	wg.Wait()

	if got := c.Len(); got > 8 {
		t.Errorf("cache exceeded capacity under concurrency: %d entries", got)
	}
}
