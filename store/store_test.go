package store

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/moodrec/core"
)

// exerciseStore 对任意 core.Store 实现跑同一组用例。
func exerciseStore(t *testing.T, s core.Store) {
	t.Helper()
	ctx := context.Background()
	key := "moodrec:test:" + t.Name()

	if _, err := s.Get(ctx, key); !core.IsStoreNotFound(err) {
		t.Fatalf("Get(missing) error = %v, want not found", err)
	}
	if err := s.Set(ctx, key, []byte("v1")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := s.Get(ctx, key)
	if err != nil || !bytes.Equal(got, []byte("v1")) {
		t.Fatalf("Get() = %q, %v", got, err)
	}
	if err := s.Set(ctx, key, []byte("v2"), 60); err != nil {
		t.Fatalf("Set(ttl) error = %v", err)
	}
	if got, _ := s.Get(ctx, key); !bytes.Equal(got, []byte("v2")) {
		t.Fatalf("Get() after overwrite = %q", got)
	}
	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, key); !core.IsStoreNotFound(err) {
		t.Fatalf("Get(deleted) error = %v", err)
	}
	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("Delete(missing) error = %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	exerciseStore(t, s)
}

func TestMemoryStoreTTL(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	_ = s.Set(ctx, "k", []byte("v"), 1)
	s.mu.Lock()
	s.data["k"].expire = time.Now().Add(-time.Second)
	s.mu.Unlock()
	if _, err := s.Get(ctx, "k"); !core.IsStoreNotFound(err) {
		t.Errorf("expired key still readable: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	v := []byte("abc")
	_ = s.Set(ctx, "k", v)
	v[0] = 'x'
	got, _ := s.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("stored value aliased caller slice: %q", got)
	}
}

func TestBadgerStoreInMemory(t *testing.T) {
	s, err := NewBadgerStore(BadgerOptions{InMemory: true, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("NewBadgerStore() error = %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestBadgerStoreRequiresDir(t *testing.T) {
	if _, err := NewBadgerStore(BadgerOptions{}); !core.IsInvalidInput(err) {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	s, err := NewRedisStore(RedisOptions{Addr: addr})
	if err != nil {
		t.Fatalf("NewRedisStore() error = %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestNew(t *testing.T) {
	tests := []struct {
		cfg     Config
		name    string
		wantErr bool
	}{
		{cfg: Config{}, name: "memory"},
		{cfg: Config{Backend: "badger"}, name: "badger"},
		{cfg: Config{Backend: "etcd"}, wantErr: true},
	}
	for _, tt := range tests {
		s, err := New(tt.cfg, zerolog.Nop())
		if tt.wantErr {
			if !core.IsNotSupported(err) {
				t.Errorf("New(%+v) error = %v, want NOT_SUPPORTED", tt.cfg, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("New(%+v) error = %v", tt.cfg, err)
		}
		if s.Name() != tt.name {
			t.Errorf("Name() = %q, want %q", s.Name(), tt.name)
		}
		_ = s.Close()
	}
}
