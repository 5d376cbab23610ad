package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:   HTTPConfig{Port: 8080},
		Search: SearchConfig{Addresses: []string{"http://localhost:9200"}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingSearchAddresses(t *testing.T) {
	cfg := validConfig()
	cfg.Search.Addresses = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing search addresses")
	}
}

func TestValidate_CacheDriver(t *testing.T) {
	for _, driver := range []string{"valkey", "redis"} {
		t.Run("driver="+driver, func(t *testing.T) {
			cfg := validConfig()
			cfg.Cache = CacheConfig{Enabled: true, Driver: driver, Addrs: []string{"localhost:6379"}}
			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for driver %q: %v", driver, err)
			}
		})
	}

	cfg := validConfig()
	cfg.Cache = CacheConfig{Enabled: true, Driver: "memcached", Addrs: []string{"localhost:11211"}}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
	expected := `cache.driver must be "valkey" or "redis", got "memcached"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_CacheAddrsOnlyWhenEnabled(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled cache needs no addrs: %v", err)
	}
	cfg.Cache.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for enabled cache without addrs")
	}
}

func TestValidate_PageSizes(t *testing.T) {
	cfg := validConfig()
	cfg.Facets.DefaultPageSize = 200
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for default page size above max")
	}

	cfg = validConfig()
	cfg.Facets.MaxPageSize = 20000
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for max page size above result window")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 30 {
		t.Errorf("expected WriteTimeoutSec=30, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Search.IndexPrefix != "facetdex" {
		t.Errorf("expected IndexPrefix='facetdex', got %q", cfg.Search.IndexPrefix)
	}
	if cfg.Search.ReadinessTimeout != 30 {
		t.Errorf("expected ReadinessTimeout=30, got %d", cfg.Search.ReadinessTimeout)
	}
	if cfg.Cache.Driver != "valkey" || cfg.Cache.TTLSec != 60 {
		t.Errorf("unexpected cache defaults: %+v", cfg.Cache)
	}
	if cfg.Facets.DefaultPageSize != 10 || cfg.Facets.MaxPageSize != 100 || cfg.Facets.CountConcurrency != 8 {
		t.Errorf("unexpected facet defaults: %+v", cfg.Facets)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:   HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Search: SearchConfig{IndexPrefix: "catalog", ReadinessTimeout: 5},
		Cache:  CacheConfig{Driver: "redis", TTLSec: 300},
		Facets: FacetsConfig{DefaultPageSize: 25, MaxPageSize: 500, CountConcurrency: 2},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Search.IndexPrefix != "catalog" {
		t.Errorf("expected IndexPrefix='catalog', got %q", cfg.Search.IndexPrefix)
	}
	if cfg.Cache.Driver != "redis" || cfg.Cache.TTLSec != 300 {
		t.Errorf("cache overridden: %+v", cfg.Cache)
	}
	if cfg.Facets.DefaultPageSize != 25 || cfg.Facets.CountConcurrency != 2 {
		t.Errorf("facets overridden: %+v", cfg.Facets)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("FACETDEX_TEST_ES", "http://es:9200")

	got := string(expandEnvVars([]byte("a: ${FACETDEX_TEST_ES}\nb: ${FACETDEX_TEST_UNSET:-fallback}\nc: ${FACETDEX_TEST_UNSET}")))
	want := "a: http://es:9200\nb: fallback\nc: "
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLoad_FromConfigDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	yaml := "http:\n  port: ${FACETDEX_TEST_PORT:-9090}\nsearch:\n  addresses: [\"http://localhost:9200\"]\n"
	if err := os.WriteFile(filepath.Join(dir, "config", "unittest.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, err := Load("unittest")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Port != 9090 || cfg.Search.Addresses[0] != "http://localhost:9200" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Facets.DefaultPageSize != 10 {
		t.Error("defaults must be applied after load")
	}
}

func TestMustLoad_PanicsOnMissingConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	defer func() {
		if recover() == nil {
			t.Error("expected panic for missing config file")
		}
	}()
	MustLoad("unittest")
}
