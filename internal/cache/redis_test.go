package cache

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	a := Key("https://fashion-studio.dicoding.dev/")
	b := Key("https://fashion-studio.dicoding.dev/page2")

	if !strings.HasPrefix(a, keyPrefix) {
		t.Errorf("Key() = %q, want prefix %q", a, keyPrefix)
	}
	if a == b {
		t.Error("distinct URLs mapped to the same key")
	}
	if a != Key("https://fashion-studio.dicoding.dev/") {
		t.Error("Key() is not stable")
	}
	if len(a) != len(keyPrefix)+64 {
		t.Errorf("Key() length = %d, want prefix + sha256 hex", len(a))
	}
}

func TestPageCache_RoundTrip(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	c, err := New(ctx, url, time.Minute)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	page := "https://fashion-studio.dicoding.dev/page" + time.Now().Format("150405.000000")
	t.Cleanup(func() { c.Client.Del(ctx, Key(page)) })

	if _, ok, err := c.Get(ctx, page); err != nil || ok {
		t.Fatalf("Get() before Set = %v, %v; want miss", ok, err)
	}
	if err := c.Set(ctx, page, []byte("<html></html>")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, ok, err := c.Get(ctx, page)
	if err != nil || !ok || string(got) != "<html></html>" {
		t.Errorf("Get() = %q, %v, %v", got, ok, err)
	}
}
