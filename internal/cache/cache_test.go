package cache

import (
	"testing"
	"time"
)

func TestOracleKey(t *testing.T) {
	a := OracleKey("openai", "gpt-4o-mini", "some chunk")
	b := OracleKey("openai", "gpt-4o-mini", "some chunk")
	if a != b {
		t.Error("identical inputs must produce the same key")
	}

	if OracleKey("openai", "gpt-4o-mini", "other chunk") == a {
		t.Error("different input must change the key")
	}
	if OracleKey("ollama", "gpt-4o-mini", "some chunk") == a {
		t.Error("different provider must change the key")
	}
	// Field boundaries matter: ("ab","c") vs ("a","bc")
	if OracleKey("ab", "c", "x") == OracleKey("a", "bc", "x") {
		t.Error("shifting bytes across fields must change the key")
	}
}

func TestDiskCache(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)

	if _, found := c.Get("missing"); found {
		t.Error("empty cache reported a hit")
	}

	if err := c.Set("k", []byte("value"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, found := c.Get("k")
	if !found || string(got) != "value" {
		t.Errorf("Get = %q, %v; want value, true", got, found)
	}

	if err := c.Delete("k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("deleted key still present")
	}
}

func TestDiskCache_TTLExpiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)

	if err := c.Set("short", []byte("v"), time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if _, found := c.Get("short"); found {
		t.Error("expired entry still served")
	}
	// Expired entries are removed on read
	if _, found := c.Get("short"); found {
		t.Error("expired entry resurrected")
	}
}

func TestDiskCache_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	if err := NewDiskCache(dir, time.Hour).Set("k", []byte("persisted"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	reopened := NewDiskCache(dir, time.Hour)
	got, found := reopened.Get("k")
	if !found || string(got) != "persisted" {
		t.Errorf("Get after reopen = %q, %v; want persisted, true", got, found)
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Hour, time.Hour)

	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, found := c.Get("k")
	if !found || string(got) != "v" {
		t.Errorf("Get = %q, %v; want v, true", got, found)
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("cleared key still present")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()

	// Seed the disk layer only, as a previous run would have
	if err := NewDiskCache(dir, time.Hour).Set("k", []byte("from disk"), 0); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	layered := NewLayeredCache(time.Hour, dir, time.Hour)
	got, found := layered.Get("k")
	if !found || string(got) != "from disk" {
		t.Fatalf("Get = %q, %v; want from disk, true", got, found)
	}

	// The hit is promoted: removing the disk entry must not lose it
	if err := layered.disk.Delete("k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, found := layered.Get("k"); !found {
		t.Error("promoted entry missing from the memory layer")
	}
}

func TestLayeredCache_SetWritesBothLayers(t *testing.T) {
	dir := t.TempDir()
	layered := NewLayeredCache(time.Hour, dir, time.Hour)

	if err := layered.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, found := NewDiskCache(dir, time.Hour).Get("k"); !found {
		t.Error("value missing from the disk layer")
	}
}
