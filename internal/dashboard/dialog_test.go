package dashboard

import (
	"context"
	"testing"

	"github.com/hospdash/hospdash/internal/platform/notification"
)

func TestDialog_OpenConfirm(t *testing.T) {
	sink := notification.NewMemorySink(0)
	d := NewDialog(sink)

	if d.State() != DialogClosed {
		t.Fatalf("expected initial state closed, got %s", d.State())
	}
	d.Open()
	if !d.IsOpen() {
		t.Fatal("expected dialog to be open")
	}
	d.Confirm()
	if d.IsOpen() {
		t.Fatal("expected dialog to be closed after confirm")
	}
	if len(sink.Toasts()) != 0 {
		t.Errorf("expected no notification on confirm, got %d", len(sink.Toasts()))
	}
}

func TestDialog_CancelNotify(t *testing.T) {
	tests := []struct {
		name    string
		notify  bool
		message string
		want    string
	}{
		{"default message", true, "", DefaultCancelMessage},
		{"custom message", true, "done", "done"},
		{"silent", false, "ignored", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := notification.NewMemorySink(0)
			d := NewDialog(sink)
			d.Open()
			d.Cancel(context.Background(), tt.notify, tt.message)

			if d.IsOpen() {
				t.Fatal("expected dialog to be closed after cancel")
			}
			last, ok := sink.Last()
			if tt.want == "" {
				if ok {
					t.Fatalf("expected no notification, got %+v", last)
				}
				return
			}
			if !ok {
				t.Fatal("expected a notification")
			}
			if last.Message != tt.want || last.Level != notification.LevelInfo {
				t.Errorf("expected info %q, got %s %q", tt.want, last.Level, last.Message)
			}
		})
	}
}

func TestDialog_Reusable(t *testing.T) {
	d := NewDialog(nil)
	for i := 0; i < 3; i++ {
		d.Open()
		d.Cancel(context.Background(), true, "")
	}
	d.Open()
	if !d.IsOpen() {
		t.Fatal("expected dialog to reopen")
	}
}

func TestDialog_OnCloseRunsOnlyFromOpen(t *testing.T) {
	d := NewDialog(nil)
	calls := 0
	d.OnClose(func() { calls++ })

	d.Confirm()
	if calls != 0 {
		t.Fatalf("expected no hook call when already closed, got %d", calls)
	}
	d.Open()
	d.Confirm()
	if calls != 1 {
		t.Fatalf("expected 1 hook call, got %d", calls)
	}
}
