package service

import (
	"errors"
	"testing"
	"time"
)

func TestConfirmationsTakeOnce(t *testing.T) {
	registry := NewConfirmations(time.Minute, FixedClock(testNow))
	item := registry.Request(ActionDeleteVoucher, "42", "Gutschein")
	if item.Token == "" || !item.ExpiresAt.Equal(testNow.Add(time.Minute)) {
		t.Fatalf("unexpected confirmation: %+v", item)
	}
	if registry.Pending() != 1 {
		t.Fatalf("expected one pending confirmation")
	}

	taken, err := registry.Take(item.Token, ActionDeleteVoucher)
	if err != nil {
		t.Fatalf("take failed: %v", err)
	}
	if taken.Target != "42" {
		t.Fatalf("unexpected target: %s", taken.Target)
	}
	if _, err := registry.Take(item.Token, ActionDeleteVoucher); !errors.Is(err, ErrConfirmationNotFound) {
		t.Fatalf("second take must fail, got: %v", err)
	}
}

func TestConfirmationsActionMismatchKeepsToken(t *testing.T) {
	registry := NewConfirmations(time.Minute, FixedClock(testNow))
	item := registry.Request(ActionRemoveLocation, "1", "CineStar")
	if _, err := registry.Take(item.Token, ActionDeleteVoucher); !errors.Is(err, ErrConfirmationMismatch) {
		t.Fatalf("expected mismatch, got: %v", err)
	}
	if _, err := registry.Take(item.Token, ActionRemoveLocation); err != nil {
		t.Fatalf("token should survive a mismatch: %v", err)
	}
}

func TestConfirmationsExpire(t *testing.T) {
	now := testNow
	clock := Clock{Now: func() time.Time { return now }, Location: time.UTC}
	registry := NewConfirmations(time.Minute, clock)
	item := registry.Request(ActionDeleteVoucher, "1", "x")

	now = now.Add(time.Minute)
	if _, err := registry.Take(item.Token, ActionDeleteVoucher); !errors.Is(err, ErrConfirmationNotFound) {
		t.Fatalf("expired token must be rejected, got: %v", err)
	}
	if registry.Pending() != 0 {
		t.Fatalf("expired tokens should be purged")
	}
}

func TestConfirmationsCancel(t *testing.T) {
	registry := NewConfirmations(0, FixedClock(testNow))
	item := registry.Request(ActionDeleteVoucher, "1", "x")
	if !registry.Cancel(item.Token) {
		t.Fatalf("cancel should report the dropped token")
	}
	if registry.Cancel(item.Token) {
		t.Fatalf("cancel twice should report false")
	}
	if !registry.Request(ActionDeleteVoucher, "1", "x").ExpiresAt.Equal(testNow.Add(defaultConfirmationTTL)) {
		t.Fatalf("zero ttl should fall back to the default")
	}
}
