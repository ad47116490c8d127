package sysstats

import "testing"

func TestCollector_Collect(t *testing.T) {
	c := NewCollector()
	stats := c.Collect()

	if stats.Goroutines <= 0 {
		t.Fatalf("goroutines=%d, want > 0", stats.Goroutines)
	}
	if stats.CollectedAt < stats.StartedAt {
		t.Fatalf("collected_at=%d before started_at=%d", stats.CollectedAt, stats.StartedAt)
	}
}
