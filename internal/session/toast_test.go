package session_test

import (
	"testing"
	"time"

	"github.com/saferoom/chat-client/internal/session"
)

func activeTexts(q *session.ToastQueue) []string {
	var texts []string
	for _, t := range q.Active() {
		texts = append(texts, t.Text)
	}
	return texts
}

func TestToastQueue_ExpiresEachToastIndependently(t *testing.T) {
	q := session.NewToastQueue(80*time.Millisecond, nil)
	defer q.Stop()

	q.Add("first")
	time.Sleep(40 * time.Millisecond)
	q.Add("second")

	got := activeTexts(q)
	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Fatalf("expected both toasts active in order, got %v", got)
	}

	// First expires, second is still within its own window.
	time.Sleep(60 * time.Millisecond)
	got = activeTexts(q)
	if len(got) != 1 || got[0] != "second" {
		t.Fatalf("expected only the second toast, got %v", got)
	}

	time.Sleep(60 * time.Millisecond)
	if got := activeTexts(q); len(got) != 0 {
		t.Fatalf("expected no active toasts, got %v", got)
	}
}

func TestToastQueue_IDsAreUniqueWithinOneInstant(t *testing.T) {
	q := session.NewToastQueue(time.Minute, nil)
	defer q.Stop()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		toast := q.Add("same text")
		if seen[toast.ID] {
			t.Fatalf("duplicate toast id %q", toast.ID)
		}
		seen[toast.ID] = true
	}

	if got := len(q.Active()); got != 100 {
		t.Errorf("expected 100 active toasts (no dedup), got %d", got)
	}
}

func TestToastQueue_ExpiryNotifiesOnce(t *testing.T) {
	expired := make(chan session.Toast, 4)
	q := session.NewToastQueue(20*time.Millisecond, func(toast session.Toast) {
		expired <- toast
	})
	defer q.Stop()

	added := q.Add("bye")

	select {
	case toast := <-expired:
		if toast.ID != added.ID {
			t.Errorf("expired id %q, want %q", toast.ID, added.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for expiry notification")
	}

	select {
	case toast := <-expired:
		t.Errorf("unexpected second expiry for %q", toast.ID)
	case <-time.After(60 * time.Millisecond):
	}
}

func TestToastQueue_StopCancelsPendingExpiry(t *testing.T) {
	notified := make(chan session.Toast, 1)
	q := session.NewToastQueue(30*time.Millisecond, func(toast session.Toast) {
		notified <- toast
	})

	q.Add("never expires")
	q.Stop()

	if got := len(q.Active()); got != 0 {
		t.Errorf("expected empty queue after Stop, got %d toasts", got)
	}

	select {
	case toast := <-notified:
		t.Errorf("expiry fired after Stop for %q", toast.ID)
	case <-time.After(80 * time.Millisecond):
	}
}
