package cronrunner

import (
	"context"
	"testing"
)

func TestRunner_RejectsInvalidSpec(t *testing.T) {
	r := New(nil, context.Background())
	if _, err := r.Add("bad", "not a cron spec", func(context.Context) error { return nil }); err == nil {
		t.Fatalf("expected error for invalid spec")
	}
	if _, err := r.Add("sweep", "0 */5 * * * *", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("err=%v", err)
	}
	if got := len(r.cron.Entries()); got != 1 {
		t.Fatalf("entries=%d want=1", got)
	}
}
