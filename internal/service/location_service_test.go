package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kinogutschein/internal/constants"
	"github.com/kinogutschein/internal/models"
)

func setupLocationServiceTest(t *testing.T) (*LocationService, *voucherServiceFixture) {
	t.Helper()
	f := setupVoucherServiceTest(t)
	clock := Clock{Now: func() time.Time { return *f.now }, Location: time.UTC}
	svc := NewLocationService(f.settings, constants.StorageKeyLocations, clock, f.svc.Confirmations())
	return svc, f
}

func collectLocations(seq func(func(models.Location) bool)) []models.Location {
	var items []models.Location
	for item := range seq {
		items = append(items, item)
	}
	return items
}

func TestLocationMountSeedsDefaults(t *testing.T) {
	svc, f := setupLocationServiceTest(t)
	ctx := context.Background()

	picker, err := svc.Mount(ctx)
	if err != nil {
		t.Fatalf("mount failed: %v", err)
	}
	items := picker.Locations()
	if len(items) != 5 || items[0].Name != "CineStar" || items[0].ID != "1" {
		t.Fatalf("unexpected defaults: %+v", items)
	}

	raw, ok, err := f.settings.Get(ctx, constants.StorageKeyLocations)
	if err != nil || !ok {
		t.Fatalf("defaults should be persisted: ok=%v err=%v", ok, err)
	}
	stored, err := models.DecodeLocations(raw)
	if err != nil {
		t.Fatalf("decode stored list failed: %v", err)
	}
	if len(stored) != 5 {
		t.Fatalf("expected 5 stored locations, got %d", len(stored))
	}
}

func TestLocationMountReseedsCorruptValue(t *testing.T) {
	svc, f := setupLocationServiceTest(t)
	ctx := context.Background()
	if err := f.settings.Set(ctx, constants.StorageKeyLocations, "not json"); err != nil {
		t.Fatalf("set corrupt value failed: %v", err)
	}
	picker, err := svc.Mount(ctx)
	if err != nil {
		t.Fatalf("mount should recover: %v", err)
	}
	if len(picker.Locations()) != 5 {
		t.Fatalf("expected defaults after corrupt value")
	}
	raw, _, err := f.settings.Get(ctx, constants.StorageKeyLocations)
	if err != nil {
		t.Fatalf("get stored value failed: %v", err)
	}
	if _, err := models.DecodeLocations(raw); err != nil {
		t.Fatalf("corrupt value should be overwritten: %v", err)
	}
}

func TestLocationMountKeepsEmptyStoredList(t *testing.T) {
	svc, f := setupLocationServiceTest(t)
	ctx := context.Background()
	if err := f.settings.Set(ctx, constants.StorageKeyLocations, "[]"); err != nil {
		t.Fatalf("set empty list failed: %v", err)
	}
	picker, err := svc.Mount(ctx)
	if err != nil {
		t.Fatalf("mount failed: %v", err)
	}
	if len(picker.Locations()) != 0 {
		t.Fatalf("an explicitly emptied list must stay empty")
	}
}

func TestLocationAddBlankIsNoop(t *testing.T) {
	svc, _ := setupLocationServiceTest(t)
	ctx := context.Background()
	picker, err := svc.Mount(ctx)
	if err != nil {
		t.Fatalf("mount failed: %v", err)
	}
	for _, name := range []string{"", "   "} {
		location, err := picker.Add(ctx, name, "Hauptstraße 1")
		if err != nil || location != nil {
			t.Fatalf("blank name should be ignored, got %v %v", location, err)
		}
	}
	if len(picker.Locations()) != 5 {
		t.Fatalf("list must stay unchanged")
	}
}

func TestLocationAddAndFilter(t *testing.T) {
	svc, f := setupLocationServiceTest(t)
	ctx := context.Background()
	picker, err := svc.Mount(ctx)
	if err != nil {
		t.Fatalf("mount failed: %v", err)
	}

	added, err := picker.Add(ctx, "  Kino X ", " Am Markt 3 ")
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if added.Name != "Kino X" || added.Address == nil || *added.Address != "Am Markt 3" {
		t.Fatalf("unexpected added location: %+v", added)
	}
	if added.ID == "" || !added.CreatedAt.Equal(f.now.UTC()) {
		t.Fatalf("unexpected id or timestamp: %+v", added)
	}

	matches := collectLocations(picker.ListMatching("kino"))
	found := false
	for _, item := range matches {
		if item.Name == "Kino X" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected Kino X in %+v", matches)
	}

	all := collectLocations(picker.ListMatching(""))
	if len(all) != 6 {
		t.Fatalf("empty query should list everything, got %d", len(all))
	}

	duplicate, err := picker.Add(ctx, "kino x", "")
	if err != nil {
		t.Fatalf("duplicate add failed: %v", err)
	}
	if duplicate.ID != added.ID || len(picker.Locations()) != 6 {
		t.Fatalf("duplicate names must return the existing entry")
	}

	second, err := picker.Add(ctx, "Kino Y", "")
	if err != nil {
		t.Fatalf("add second failed: %v", err)
	}
	if second.ID == added.ID {
		t.Fatalf("ids must be unique even with a frozen clock")
	}
}

func TestLocationListMatchingIsRestartable(t *testing.T) {
	svc, _ := setupLocationServiceTest(t)
	ctx := context.Background()
	picker, err := svc.Mount(ctx)
	if err != nil {
		t.Fatalf("mount failed: %v", err)
	}
	seq := picker.ListMatching("film")
	first := collectLocations(seq)
	if len(first) != 2 {
		t.Fatalf("expected Filmpalast and Mathäser Filmpalast, got %+v", first)
	}
	if _, err := picker.Add(ctx, "Filmbühne", ""); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	second := collectLocations(seq)
	if len(second) != 3 {
		t.Fatalf("re-iterating should reflect the current list, got %d", len(second))
	}

	count := 0
	for range seq {
		count++
		break
	}
	if count != 1 {
		t.Fatalf("early break should stop iteration")
	}
}

func TestLocationRemoveRequiresConfirmation(t *testing.T) {
	svc, f := setupLocationServiceTest(t)
	ctx := context.Background()
	picker, err := svc.Mount(ctx)
	if err != nil {
		t.Fatalf("mount failed: %v", err)
	}

	if _, err := picker.RequestRemove("missing"); !errors.Is(err, ErrLocationNotFound) {
		t.Fatalf("expected not found, got: %v", err)
	}
	confirmation, err := picker.RequestRemove("2")
	if err != nil {
		t.Fatalf("request remove failed: %v", err)
	}
	if len(picker.Locations()) != 5 {
		t.Fatalf("request alone must not remove")
	}
	if err := picker.ConfirmRemove(ctx, confirmation.Token); err != nil {
		t.Fatalf("confirm remove failed: %v", err)
	}
	for _, item := range picker.Locations() {
		if item.ID == "2" {
			t.Fatalf("location 2 should be removed")
		}
	}
	if err := picker.ConfirmRemove(ctx, confirmation.Token); !errors.Is(err, ErrConfirmationNotFound) {
		t.Fatalf("token must be single use, got: %v", err)
	}

	raw, _, err := f.settings.Get(ctx, constants.StorageKeyLocations)
	if err != nil {
		t.Fatalf("get stored value failed: %v", err)
	}
	stored, err := models.DecodeLocations(raw)
	if err != nil || len(stored) != 4 {
		t.Fatalf("removal should be persisted, got %d err=%v", len(stored), err)
	}

	declined, err := picker.RequestRemove("3")
	if err != nil {
		t.Fatalf("request remove failed: %v", err)
	}
	if !f.svc.CancelConfirmation(declined.Token) {
		t.Fatalf("cancel should drop the pending request")
	}
	if len(picker.Locations()) != 4 {
		t.Fatalf("declined removal must not change the list")
	}
}

func TestLocationPickersAreIsolated(t *testing.T) {
	svc, _ := setupLocationServiceTest(t)
	ctx := context.Background()
	first, err := svc.Mount(ctx)
	if err != nil {
		t.Fatalf("mount first failed: %v", err)
	}
	second, err := svc.Mount(ctx)
	if err != nil {
		t.Fatalf("mount second failed: %v", err)
	}
	if _, err := first.Add(ctx, "Nur Erster", ""); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if len(second.Locations()) != 5 {
		t.Fatalf("second picker must not see additions until remounted")
	}
	third, err := svc.Mount(ctx)
	if err != nil {
		t.Fatalf("remount failed: %v", err)
	}
	if len(third.Locations()) != 6 {
		t.Fatalf("remount should read the persisted list")
	}
}

func TestLocationSelectAndFreeText(t *testing.T) {
	svc, _ := setupLocationServiceTest(t)
	picker, err := svc.Mount(context.Background())
	if err != nil {
		t.Fatalf("mount failed: %v", err)
	}
	if got := picker.Select(picker.Locations()[1]); got != "UCI Kinowelt" {
		t.Fatalf("unexpected selection: %s", got)
	}
	if got := ResolveLocationName("  Open Air  "); got != "Open Air" {
		t.Fatalf("unexpected free text: %q", got)
	}
}
