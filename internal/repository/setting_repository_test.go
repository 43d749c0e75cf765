package repository

import (
	"context"
	"testing"
)

func TestSettingRepositoryKeyValue(t *testing.T) {
	_, db := setupVoucherRepositoryTest(t)
	repo := NewSettingRepository(db)
	ctx := context.Background()

	if _, ok, err := repo.Get(ctx, "kinogutschein-locations"); err != nil || ok {
		t.Fatalf("missing key should report false, got ok=%v err=%v", ok, err)
	}
	if err := repo.Set(ctx, "kinogutschein-locations", `[{"id":"1","name":"CineStar"}]`); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := repo.Set(ctx, "kinogutschein-locations", `[]`); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	value, ok, err := repo.Get(ctx, "kinogutschein-locations")
	if err != nil || !ok || value != "[]" {
		t.Fatalf("want [] got %q ok=%v err=%v", value, ok, err)
	}

	setting, err := repo.GetByKey("kinogutschein-locations")
	if err != nil || setting == nil || setting.Value != "[]" {
		t.Fatalf("get by key mismatch: %+v err=%v", setting, err)
	}

	if err := repo.Delete(ctx, "kinogutschein-locations"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok, err := repo.Get(ctx, "kinogutschein-locations"); err != nil || ok {
		t.Fatalf("deleted key should be gone, ok=%v err=%v", ok, err)
	}
	if err := repo.Delete(ctx, "kinogutschein-locations"); err != nil {
		t.Fatalf("deleting a missing key should succeed: %v", err)
	}
}

func TestSettingRepositoryUpsertUpdatesValue(t *testing.T) {
	_, db := setupVoucherRepositoryTest(t)
	repo := NewSettingRepository(db)
	if _, err := repo.Upsert("editor_state", `{"mode":"editing"}`); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	updated, err := repo.Upsert("editor_state", `{"mode":"browsing"}`)
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	if updated.Value != `{"mode":"browsing"}` {
		t.Fatalf("unexpected value: %s", updated.Value)
	}
	var count int64
	if err := db.Table("settings").Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("upsert must keep a single row, got %d", count)
	}
}
