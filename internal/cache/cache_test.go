package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestKey(t *testing.T) {
	tests := []struct {
		prefix, id, want string
	}{
		{"coin", "Bitcoin", "coin:bitcoin"},
		{"market_data", "usd_100", "market_data:usd_100"},
		{"full_response", "What is BTC?", "full_response:what is btc?"},
	}
	for _, tt := range tests {
		if got := Key(tt.prefix, tt.id); got != tt.want {
			t.Errorf("Key(%q, %q) = %q, want %q", tt.prefix, tt.id, got, tt.want)
		}
	}
}

func TestMemorySetGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	defer m.Close()

	if err := m.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	v, ok, err := m.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || v != "v" {
		t.Errorf("Get: got (%q, %v), want (\"v\", true)", v, ok)
	}
}

func TestMemoryMiss(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	_, ok, err := m.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("expected miss for absent key")
	}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	defer m.Close()

	if err := m.Set(ctx, "k", "v", time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Error("expected expired key to miss")
	}
}

func TestMemoryZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	defer m.Close()

	if err := m.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	v, ok, _ := m.Get(ctx, "k")
	if !ok || v != "v" {
		t.Errorf("zero-TTL entry should persist, got (%q, %v)", v, ok)
	}
}

func TestRedisSetGet(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	r := NewRedis(RedisOptions{Addr: mr.Addr()})
	defer r.Close()

	if err := r.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	if err := r.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := r.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || v != "v" {
		t.Errorf("Get: got (%q, %v), want (\"v\", true)", v, ok)
	}

	if _, ok, err := r.Get(ctx, "absent"); err != nil || ok {
		t.Errorf("absent key: got (ok=%v, err=%v), want miss", ok, err)
	}
}

func TestRedisExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	r := NewRedis(RedisOptions{Addr: mr.Addr()})
	defer r.Close()

	if err := r.Set(ctx, "k", "v", time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	mr.FastForward(2 * time.Second)

	if _, ok, _ := r.Get(ctx, "k"); ok {
		t.Error("expected expired key to miss")
	}
}
