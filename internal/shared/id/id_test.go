package id

import (
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestGenerateUnique(t *testing.T) {
	gen := NewGenerator()

	id1 := gen.Generate()
	id2 := gen.Generate()

	if id1.String() == id2.String() {
		t.Error("Generated IDs should be unique")
	}
}

func TestGenerateWithPrefix(t *testing.T) {
	gen := NewGenerator()

	for _, prefix := range []string{NotificationPrefix, RequestPrefix, FramePrefix} {
		got := gen.GenerateWithPrefix(prefix)

		if !strings.HasPrefix(got, prefix+"_") {
			t.Errorf("ID should start with '%s_', got: %s", prefix, got)
		}

		parts := strings.Split(got, "_")
		if len(parts) != 2 || !IsValid(parts[1]) {
			t.Errorf("Prefixed ID should have format 'prefix_ulid', got: %s", got)
		}
	}
}

func TestNotificationIDsSortByCreation(t *testing.T) {
	ids := make([]string, 100)
	for i := range ids {
		ids[i] = NewNotificationID().String()
	}

	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	for i := range ids {
		if ids[i] != sorted[i] {
			t.Fatalf("IDs out of order at %d: %s vs %s", i, ids[i], sorted[i])
		}
	}
}

func TestTimestamp(t *testing.T) {
	at := time.UnixMilli(1_700_000_000_000)
	gen := NewGeneratorWithEntropy(strings.NewReader(strings.Repeat("x", 64)), func() time.Time { return at })

	got, err := Timestamp(gen.GenerateWithPrefix(NotificationPrefix))
	if err != nil {
		t.Fatalf("Timestamp failed: %v", err)
	}
	if !got.Equal(at) {
		t.Errorf("Expected %v, got %v", at, got)
	}

	if _, err := Timestamp("ntf_not-a-ulid"); err == nil {
		t.Error("Expected error for invalid ID")
	}
}

func TestConcurrentGeneration(t *testing.T) {
	const workers, perWorker = 8, 200

	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, workers*perWorker)
		wg   sync.WaitGroup
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				s := NewRequestID().String()
				mu.Lock()
				seen[s] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Errorf("Expected %d unique IDs, got %d", workers*perWorker, len(seen))
	}
}
