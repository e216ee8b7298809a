package featureflags

import "testing"

func TestDefaults(t *testing.T) {
	t.Setenv("FLAG_RECONCILE_WORKER", "")
	if !Enabled(ReconcileWorker) {
		t.Fatalf("expected reconcile worker on by default")
	}
	if Enabled("unknown_flag") {
		t.Fatalf("expected unknown flag off")
	}
}

func TestOverride(t *testing.T) {
	t.Setenv("FLAG_REALTIME_EVENTS", "off")
	if Enabled(RealtimeEvents) {
		t.Fatalf("expected realtime events disabled")
	}
	t.Setenv("FLAG_REALTIME_EVENTS", "YES")
	if !Enabled(RealtimeEvents) {
		t.Fatalf("expected realtime events enabled")
	}
}
