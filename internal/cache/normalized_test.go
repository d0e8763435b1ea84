package cache

import (
	"context"
	"strings"
	"testing"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/config"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/domain"
)

func TestNormalizedKey(t *testing.T) {
	a := normalizedKey("qcs_raw_material", 0)
	if !strings.HasPrefix(a, normalizedDataPrefix) {
		t.Errorf("key %q lacks prefix", a)
	}
	if b := normalizedKey(" QCS_RAW_MATERIAL ", 0); a != b {
		t.Errorf("keys differ for equivalent types: %q vs %q", a, b)
	}
	if c := normalizedKey("qcs_temp", 0); a == c {
		t.Errorf("distinct types share key %q", a)
	}
	if d := normalizedKey("qcs_raw_material", 1); a == d {
		t.Errorf("generations share key %q", a)
	}
}

func TestVersionKeyIsOutsideDataKeys(t *testing.T) {
	v := versionKey("qcs_raw_material")
	if !strings.HasPrefix(v, normalizedVersionPrefix) || strings.HasPrefix(v, normalizedDataPrefix) {
		t.Errorf("version key %q would be removed with the data keys", v)
	}
}

func TestDisabledCacheIsNoop(t *testing.T) {
	c, err := NewNormalizedCache(config.CacheConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewNormalizedCache failed: %v", err)
	}

	ctx := context.Background()
	if err := c.Set(ctx, "t", 0, []domain.NormalizedRecord{{ID: "1"}}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if entry, err := c.Get(ctx, "t"); entry.Hit || err != nil {
		t.Errorf("Get = hit %v, err %v; want miss", entry.Hit, err)
	}
	if err := c.Invalidate(ctx, "t"); err != nil {
		t.Errorf("Invalidate failed: %v", err)
	}
	if err := c.InvalidateAll(ctx); err != nil {
		t.Errorf("InvalidateAll failed: %v", err)
	}
}

func TestBuildRedisOptions(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.CacheConfig
		wantAddr string
		wantErr  bool
	}{
		{name: "defaults", cfg: config.CacheConfig{}, wantAddr: "127.0.0.1:6379"},
		{name: "host and port", cfg: config.CacheConfig{RedisHost: "cache", RedisPort: "6380"}, wantAddr: "cache:6380"},
		{name: "url wins", cfg: config.CacheConfig{RedisURL: "redis://redis.internal:6390/2", RedisHost: "cache"}, wantAddr: "redis.internal:6390"},
		{name: "bad url", cfg: config.CacheConfig{RedisURL: "http://%zz"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := buildRedisOptions(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("buildRedisOptions failed: %v", err)
			}
			if opts.Addr != tt.wantAddr {
				t.Errorf("Addr = %q, want %q", opts.Addr, tt.wantAddr)
			}
		})
	}
}
