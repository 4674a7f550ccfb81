package ttlmap

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestContainsAfterUpsert(t *testing.T) {
	table := New[string](time.Minute, zerolog.Nop())
	table.Upsert("1.2.3.4")
	if !table.Contains("1.2.3.4") {
		t.Fatal("Entry not found after upsert")
	}
	if table.Contains("5.6.7.8") {
		t.Fatal("Found entry that was never inserted")
	}
}

func TestContainsExpires(t *testing.T) {
	table := New[string](20*time.Millisecond, zerolog.Nop())
	table.Upsert("key")
	if !table.Contains("key") {
		t.Fatal("Entry expired immediately")
	}
	time.Sleep(30 * time.Millisecond)
	if table.Contains("key") {
		t.Fatal("Entry still live after TTL")
	}
}

func TestUpsertSlidesExpiry(t *testing.T) {
	table := New[string](50*time.Millisecond, zerolog.Nop())
	table.Upsert("key")
	time.Sleep(30 * time.Millisecond)
	table.Upsert("key")
	time.Sleep(30 * time.Millisecond)
	// 60ms after the first upsert, but only 30ms after the second
	if !table.Contains("key") {
		t.Fatal("Second upsert did not slide the expiry forward")
	}
}

func TestSweepRemovesExpiredOnly(t *testing.T) {
	table := New[string](50*time.Millisecond, zerolog.Nop())
	table.Upsert("old")
	time.Sleep(60 * time.Millisecond)
	table.Upsert("new")

	if removed := table.Sweep(time.Now()); removed != 1 {
		t.Fatalf("Sweep removed %d entries, expected 1", removed)
	}
	if table.Contains("old") {
		t.Fatal("Expired entry survived sweep")
	}
	if !table.Contains("new") {
		t.Fatal("Live entry removed by sweep")
	}
}

func TestSweepInvokesEvictCallback(t *testing.T) {
	table := New[string](time.Millisecond, zerolog.Nop())
	evicted := make(map[string]bool)
	table.OnEvict(func(key string) error {
		evicted[key] = true
		return nil
	})
	table.Upsert("a")
	table.Upsert("b")
	time.Sleep(10 * time.Millisecond)

	table.Sweep(time.Now())

	if !evicted["a"] || !evicted["b"] {
		t.Fatalf("Eviction callback not called for all expired keys: %v", evicted)
	}
}

func TestSweepContinuesAfterEvictError(t *testing.T) {
	table := New[string](time.Millisecond, zerolog.Nop())
	var calls int
	table.OnEvict(func(key string) error {
		calls++
		return errors.New("disk on fire")
	})
	table.Upsert("a")
	table.Upsert("b")
	time.Sleep(10 * time.Millisecond)

	if removed := table.Sweep(time.Now()); removed != 2 {
		t.Fatalf("Sweep removed %d entries, expected 2", removed)
	}
	if calls != 2 {
		t.Fatalf("Eviction callback called %d times, expected 2", calls)
	}
}

func TestKeysSkipsExpired(t *testing.T) {
	table := New[string](50*time.Millisecond, zerolog.Nop())
	table.Upsert("old")
	time.Sleep(60 * time.Millisecond)
	table.Upsert("new")

	keys := table.Keys()
	if len(keys) != 1 || keys[0] != "new" {
		t.Fatalf("Keys is %v", keys)
	}
}

func TestClear(t *testing.T) {
	table := New[string](time.Minute, zerolog.Nop())
	table.Upsert("a")
	table.Upsert("b")
	table.Clear()
	if table.Len() != 0 {
		t.Fatalf("Table has %d entries after clear", table.Len())
	}
}
