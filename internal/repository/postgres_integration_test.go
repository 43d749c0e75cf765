//go:build integration
// +build integration

package repository

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/kinogutschein/internal/constants"
	"github.com/kinogutschein/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{&models.Voucher{}, &models.Setting{}}
	_ = db.Migrator().DropTable(cleanupModels...)

	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresVoucherKeywordSearch(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewVoucherRepository(db)

	ref := "CS-006"
	voucher := &models.Voucher{
		ID:             1,
		Name:           "CineStar 10er Gutschein",
		ExpirationDate: models.NewDate(2025, 12, 31),
		Status:         constants.VoucherStatusPartiallyRedeemed,
		UsageCount:     1,
		UsageLimit:     10,
		Redemptions: models.RedemptionList{
			{Date: models.NewDate(2025, 7, 22), Time: "20:10", Film: "Superman", AttendeeCount: 1, VoucherRefID: &ref},
		},
	}
	if err := repo.Create(voucher); err != nil {
		t.Fatalf("create voucher failed: %v", err)
	}
	if err := repo.Create(&models.Voucher{
		ID:             2,
		Name:           "10 Tickets für 63€",
		ExpirationDate: models.NewDate(2026, 3, 15),
		Status:         constants.VoucherStatusValid,
		UsageLimit:     10,
	}); err != nil {
		t.Fatalf("create second voucher failed: %v", err)
	}

	for _, keyword := range []string{"cinestar", "SUPERMAN", "cs-006"} {
		rows, total, err := repo.List(VoucherListFilter{Page: 1, Keyword: keyword})
		if err != nil {
			t.Fatalf("voucher list search %q failed: %v", keyword, err)
		}
		if total != 1 || len(rows) != 1 || rows[0].ID != 1 {
			t.Fatalf("voucher list search %q want id 1 got total=%d len=%d", keyword, total, len(rows))
		}
	}

	got, err := repo.GetByID(1)
	if err != nil || got == nil {
		t.Fatalf("get voucher failed: %v", err)
	}
	if got.ExpirationDate.String() != "2025-12-31" || got.Redemptions[0].Date.String() != "2025-07-22" {
		t.Fatalf("postgres date round trip mismatch: %+v", got)
	}
}

func TestPostgresSettingUpsert(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewSettingRepository(db)
	ctx := context.Background()

	if err := repo.Set(ctx, "kinogutschein-locations", "[]"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := repo.Set(ctx, "kinogutschein-locations", `[{"id":"1","name":"CineStar"}]`); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	value, ok, err := repo.Get(ctx, "kinogutschein-locations")
	if err != nil || !ok || !strings.Contains(value, "CineStar") {
		t.Fatalf("unexpected value %q ok=%v err=%v", value, ok, err)
	}
}
