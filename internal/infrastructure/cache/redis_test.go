package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/stephen-lakes/optimalvid/internal/domain/model"
	"github.com/stephen-lakes/optimalvid/internal/domain/repository"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return mr, client, cleanup
}

func testVideos() []*model.Video {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return []*model.Video{
		{
			ID:          uuid.New(),
			UserID:      uuid.New(),
			Title:       "Clip",
			Description: "a short clip",
			Duration:    30,
			Genre:       "demo",
			Tags:        []string{"a", "b"},
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:        uuid.New(),
			UserID:    uuid.New(),
			Title:     "Song",
			Duration:  200,
			Genre:     "music",
			Tags:      []string{},
			MediaKey:  "media/x/song.mp4",
			CreatedAt: now.Add(time.Second),
			UpdatedAt: now.Add(2 * time.Second),
		},
	}
}

func TestRedisVideoListCache_PutThenGet(t *testing.T) {
	_, client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewRedisVideoListCache(client)
	ctx := context.Background()
	key := VideoListKey(repository.VideoFilter{Genre: "demo", Page: 1, Limit: 10})
	videos := testVideos()

	if err := cache.Put(ctx, key, videos, time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, hit, err := cache.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !hit {
		t.Fatal("expected cache hit")
	}

	if diff := cmp.Diff(videos, got); diff != "" {
		t.Errorf("cached videos mismatch (-want +got):\n%s", diff)
	}
}

func TestRedisVideoListCache_Get_CacheMiss(t *testing.T) {
	_, client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewRedisVideoListCache(client)

	got, hit, err := cache.Get(context.Background(), Key("videos:all:all:1:10"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if hit {
		t.Error("expected miss")
	}
	if got != nil {
		t.Errorf("expected nil for cache miss, got %v", got)
	}
}

func TestRedisVideoListCache_EmptyListIsHit(t *testing.T) {
	_, client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewRedisVideoListCache(client)
	ctx := context.Background()
	key := Key("videos:none:all:1:10")

	if err := cache.Put(ctx, key, nil, time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, hit, err := cache.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !hit {
		t.Fatal("an empty cached list should be a hit")
	}
	if len(got) != 0 {
		t.Errorf("len(got) = %d, want 0", len(got))
	}
}

func TestRedisVideoListCache_Put_Overwrites(t *testing.T) {
	_, client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewRedisVideoListCache(client)
	ctx := context.Background()
	key := Key("videos:all:all:1:10")
	videos := testVideos()

	if err := cache.Put(ctx, key, videos, time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := cache.Put(ctx, key, videos[:1], time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, _, err := cache.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != videos[0].ID {
		t.Errorf("Get after overwrite = %v, want only %v", got, videos[0].ID)
	}
}

func TestRedisVideoListCache_TTLExpiry(t *testing.T) {
	mr, client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewRedisVideoListCache(client)
	ctx := context.Background()
	key := Key("videos:demo:all:1:10")

	if err := cache.Put(ctx, key, testVideos(), 60*time.Second); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	mr.FastForward(59 * time.Second)
	if _, hit, err := cache.Get(ctx, key); err != nil || !hit {
		t.Fatalf("entry should still be live at 59s (hit=%v, err=%v)", hit, err)
	}

	mr.FastForward(2 * time.Second)
	_, hit, err := cache.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if hit {
		t.Error("entry should be unreachable after the TTL elapsed")
	}
}

func TestRedisVideoListCache_InvalidateAll(t *testing.T) {
	_, client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewRedisVideoListCache(client)
	ctx := context.Background()

	keys := []Key{
		VideoListKey(repository.VideoFilter{Page: 1, Limit: 10}),
		VideoListKey(repository.VideoFilter{Genre: "demo", Page: 1, Limit: 10}),
		VideoListKey(repository.VideoFilter{Tag: "a", Page: 2, Limit: 5}),
	}
	for _, k := range keys {
		if err := cache.Put(ctx, k, testVideos(), time.Minute); err != nil {
			t.Fatalf("Put(%s) failed: %v", k, err)
		}
	}

	// Unrelated keys must survive the flush.
	if err := client.Set(ctx, "sessions:1", "x", 0).Err(); err != nil {
		t.Fatalf("seed unrelated key: %v", err)
	}

	if err := cache.InvalidateAll(ctx); err != nil {
		t.Fatalf("InvalidateAll failed: %v", err)
	}

	for _, k := range keys {
		_, hit, err := cache.Get(ctx, k)
		if err != nil {
			t.Fatalf("Get(%s) failed: %v", k, err)
		}
		if hit {
			t.Errorf("key %s survived InvalidateAll", k)
		}
	}

	if v, err := client.Get(ctx, "sessions:1").Result(); err != nil || v != "x" {
		t.Errorf("unrelated key was touched: %q, %v", v, err)
	}
}

func TestRedisVideoListCache_InvalidateAll_ManyKeys(t *testing.T) {
	_, client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewRedisVideoListCache(client)
	ctx := context.Background()

	for page := 1; page <= 3*scanBatchSize; page++ {
		k := VideoListKey(repository.VideoFilter{Page: page, Limit: 10})
		if err := cache.Put(ctx, k, nil, time.Minute); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	if err := cache.InvalidateAll(ctx); err != nil {
		t.Fatalf("InvalidateAll failed: %v", err)
	}

	keys, err := client.Keys(ctx, "videos:*").Result()
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("%d keys left after InvalidateAll", len(keys))
	}
}

func TestRedisVideoListCache_InvalidateAll_Empty(t *testing.T) {
	_, client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewRedisVideoListCache(client)

	if err := cache.InvalidateAll(context.Background()); err != nil {
		t.Fatalf("InvalidateAll on empty cache failed: %v", err)
	}
}

func TestRedisVideoListCache_Generation(t *testing.T) {
	_, client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewRedisVideoListCache(client)
	ctx := context.Background()

	gen, err := cache.Generation(ctx)
	if err != nil {
		t.Fatalf("Generation failed: %v", err)
	}
	if gen != 0 {
		t.Errorf("initial generation = %d, want 0", gen)
	}

	for i := 0; i < 2; i++ {
		if err := cache.InvalidateAll(ctx); err != nil {
			t.Fatalf("InvalidateAll failed: %v", err)
		}
	}

	gen, err = cache.Generation(ctx)
	if err != nil {
		t.Fatalf("Generation failed: %v", err)
	}
	if gen != 2 {
		t.Errorf("generation after two invalidations = %d, want 2", gen)
	}
}

func TestRedisVideoListCache_PutIfGeneration(t *testing.T) {
	mr, client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewRedisVideoListCache(client)
	ctx := context.Background()
	key := Key("videos:all:all:1:10")

	gen, err := cache.Generation(ctx)
	if err != nil {
		t.Fatalf("Generation failed: %v", err)
	}

	stored, err := cache.PutIfGeneration(ctx, key, testVideos(), time.Minute, gen)
	if err != nil {
		t.Fatalf("PutIfGeneration failed: %v", err)
	}
	if !stored {
		t.Fatal("PutIfGeneration with current generation should store")
	}

	if ttl := mr.TTL(key.String()); ttl <= 0 || ttl > time.Minute {
		t.Errorf("TTL = %v, want within (0, 1m]", ttl)
	}

	if _, hit, _ := cache.Get(ctx, key); !hit {
		t.Error("expected hit after conditional put")
	}
}

func TestRedisVideoListCache_PutIfGeneration_RejectsStaleFill(t *testing.T) {
	_, client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewRedisVideoListCache(client)
	ctx := context.Background()
	key := Key("videos:all:all:1:10")

	// A reader observes the generation and queries the store...
	gen, err := cache.Generation(ctx)
	if err != nil {
		t.Fatalf("Generation failed: %v", err)
	}

	// ...a writer commits and invalidates before the reader fills.
	if err := cache.InvalidateAll(ctx); err != nil {
		t.Fatalf("InvalidateAll failed: %v", err)
	}

	stored, err := cache.PutIfGeneration(ctx, key, testVideos(), time.Minute, gen)
	if err != nil {
		t.Fatalf("PutIfGeneration failed: %v", err)
	}
	if stored {
		t.Error("fill observed before an invalidation must be discarded")
	}

	if _, hit, _ := cache.Get(ctx, key); hit {
		t.Error("stale fill is visible in the cache")
	}
}

func TestRedisVideoListCache_CorruptEntry(t *testing.T) {
	_, client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewRedisVideoListCache(client)
	ctx := context.Background()

	if err := client.Set(ctx, "videos:all:all:1:10", "not json", time.Minute).Err(); err != nil {
		t.Fatalf("seed corrupt entry: %v", err)
	}

	_, hit, err := cache.Get(ctx, Key("videos:all:all:1:10"))
	if err == nil {
		t.Error("expected decode error for corrupt entry")
	}
	if hit {
		t.Error("corrupt entry must not be reported as a hit")
	}
}

func TestRedisVideoListCache_BackendDown(t *testing.T) {
	mr, client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewRedisVideoListCache(client)
	ctx := context.Background()
	key := Key("videos:all:all:1:10")

	mr.Close()

	if _, hit, err := cache.Get(ctx, key); err == nil || hit {
		t.Errorf("Get with backend down = (hit=%v, err=%v), want error and miss", hit, err)
	}
	if err := cache.Put(ctx, key, testVideos(), time.Minute); err == nil {
		t.Error("Put with backend down should fail")
	}
	if _, err := cache.Generation(ctx); err == nil {
		t.Error("Generation with backend down should fail")
	}
	if err := cache.InvalidateAll(ctx); err == nil {
		t.Error("InvalidateAll with backend down should fail")
	}
}
