package feed

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func newTestCache(t *testing.T, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, ttl, zerolog.Nop()), mr
}

func TestPageKey(t *testing.T) {
	if got := pageKey(userA, nil, 10); got != "feed:"+userA+":first:10" {
		t.Fatalf("unexpected key: %s", got)
	}

	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	cursor := &Cursor{CreatedAt: ts, ID: post1}
	want := "feed:" + userA + ":" + ts.Format(time.RFC3339Nano) + ":" + post1 + ":20"
	if got := pageKey(userA, cursor, 20); got != want {
		t.Fatalf("unexpected key: got %s, want %s", got, want)
	}
}

func TestCacheRoundTrip(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	page := Page{
		Posts:      []Post{{ID: post1, Author: Author{ID: userB}, Text: "hello"}},
		NextCursor: &Cursor{CreatedAt: time.Now().UTC().Truncate(time.Millisecond), ID: post1},
	}
	key := pageKey(userA, nil, 10)
	cache.SetPage(ctx, key, page)

	got, ok := cache.GetPage(ctx, key)
	if !ok {
		t.Fatalf("expected cache hit")
	}
	if len(got.Posts) != 1 || got.Posts[0].ID != post1 || got.NextCursor == nil {
		t.Fatalf("unexpected cached page: %+v", got)
	}

	if ttl := mr.TTL(key); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected ttl: %v", ttl)
	}
}

func TestCacheMiss(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	if _, ok := cache.GetPage(context.Background(), pageKey(userA, nil, 10)); ok {
		t.Fatalf("expected miss for absent key")
	}
}

func TestCacheCorruptEntry(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	key := pageKey(userA, nil, 10)
	if err := mr.Set(key, "{not json"); err != nil {
		t.Fatalf("seed key: %v", err)
	}
	if _, ok := cache.GetPage(context.Background(), key); ok {
		t.Fatalf("expected corrupt entry to read as miss")
	}
}

func TestInvalidateUserSweepsOnlyThatUser(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	cache.SetPage(ctx, pageKey(userA, nil, 10), Page{})
	cache.SetPage(ctx, pageKey(userA, &Cursor{CreatedAt: time.Now(), ID: post1}, 10), Page{})
	cache.SetPage(ctx, pageKey(userB, nil, 10), Page{})

	if err := cache.InvalidateUser(ctx, userA); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	if mr.Exists(pageKey(userA, nil, 10)) {
		t.Fatalf("expected userA pages swept")
	}
	if !mr.Exists(pageKey(userB, nil, 10)) {
		t.Fatalf("expected userB pages untouched")
	}
}

func TestInvalidateUserRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	cache := NewCache(client, time.Minute, zerolog.Nop())
	mr.Close()

	if err := cache.InvalidateUser(context.Background(), userA); err == nil {
		t.Fatalf("expected error when redis is unreachable")
	}
}

func TestNilCacheIsSafe(t *testing.T) {
	var cache *Cache
	ctx := context.Background()

	if _, ok := cache.GetPage(ctx, "key"); ok {
		t.Fatalf("nil cache must miss")
	}
	cache.SetPage(ctx, "key", Page{})
	if err := cache.InvalidateUser(ctx, userA); err != nil {
		t.Fatalf("nil cache invalidate: %v", err)
	}

	if NewCache(nil, time.Minute, zerolog.Nop()) != nil {
		t.Fatalf("expected nil cache for nil client")
	}
}
