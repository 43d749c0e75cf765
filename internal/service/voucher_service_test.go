package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kinogutschein/internal/constants"
	"github.com/kinogutschein/internal/models"
	"github.com/kinogutschein/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

var testNow = time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

type voucherServiceFixture struct {
	svc      *VoucherService
	repo     *repository.GormVoucherRepository
	settings *repository.GormSettingRepository
	db       *gorm.DB
	now      *time.Time
}

func setupVoucherServiceTest(t *testing.T) *voucherServiceFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:voucher_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	now := testNow
	clock := Clock{Now: func() time.Time { return now }, Location: time.UTC}
	repo := repository.NewVoucherRepository(db)
	svc := NewVoucherService(repo, NewConfirmations(time.Minute, clock), clock, 1)
	return &voucherServiceFixture{
		svc:      svc,
		repo:     repo,
		settings: repository.NewSettingRepository(db),
		db:       db,
		now:      &now,
	}
}

func validVoucherInput(name string) VoucherInput {
	return VoucherInput{
		Name:           name,
		PurchasePrice:  "50",
		ExpirationDate: models.NewDate(2026, 1, 31),
		Status:         constants.VoucherStatusValid,
		UsageLimit:     5,
	}
}

func TestVoucherServiceCreateAssignsIDAndCoercesPrice(t *testing.T) {
	f := setupVoucherServiceTest(t)

	cases := []struct {
		price    string
		expected string
	}{
		{price: "12,50", expected: "12.50"},
		{price: "abc", expected: "0.00"},
		{price: "", expected: "0.00"},
		{price: "-3", expected: "0.00"},
		{price: " 80 ", expected: "80.00"},
	}
	for idx, tc := range cases {
		input := validVoucherInput(fmt.Sprintf("Gutschein %d", idx))
		input.PurchasePrice = tc.price
		voucher, err := f.svc.Create(input)
		if err != nil {
			t.Fatalf("create voucher failed: %v", err)
		}
		if voucher.PurchasePrice.String() != tc.expected {
			t.Fatalf("price %q: expected %s, got %s", tc.price, tc.expected, voucher.PurchasePrice.String())
		}
		expectedID := testNow.UnixMilli() + int64(idx)
		if voucher.ID != expectedID {
			t.Fatalf("expected time derived id %d, got %d", expectedID, voucher.ID)
		}
	}

	count, err := f.repo.Count()
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != int64(len(cases)) {
		t.Fatalf("expected %d vouchers, got %d", len(cases), count)
	}
}

func TestVoucherServiceCreateRejectsInvalidInput(t *testing.T) {
	f := setupVoucherServiceTest(t)

	noExpiry := validVoucherInput("ohne Ablauf")
	noExpiry.ExpirationDate = models.Date{}
	if _, err := f.svc.Create(noExpiry); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for missing expiration, got: %v", err)
	}

	zeroLimit := validVoucherInput("ohne Limit")
	zeroLimit.UsageLimit = 0
	if _, err := f.svc.Create(zeroLimit); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for usage limit, got: %v", err)
	}

	badStatus := validVoucherInput("Status")
	badStatus.Status = "gültig"
	var validationErr *ValidationError
	if _, err := f.svc.Create(badStatus); !errors.As(err, &validationErr) || validationErr.Field != "status" {
		t.Fatalf("expected status validation error, got: %v", err)
	}
}

func TestVoucherServiceCreateWithExistingIDFails(t *testing.T) {
	f := setupVoucherServiceTest(t)
	id := int64(42)
	input := validVoucherInput("A")
	input.ID = &id
	if _, err := f.svc.Create(input); err != nil {
		t.Fatalf("create voucher failed: %v", err)
	}
	if _, err := f.svc.Create(input); !errors.Is(err, ErrVoucherExists) {
		t.Fatalf("expected ErrVoucherExists, got: %v", err)
	}
}

func TestVoucherServiceUpdateReplacesWholeRecord(t *testing.T) {
	f := setupVoucherServiceTest(t)
	input := validVoucherInput("Original")
	input.OrderNumber = "ORD-1"
	input.Redemptions = models.RedemptionList{{Date: models.NewDate(2025, 7, 1), Time: "20:00", Film: "Alt", AttendeeCount: 1}}
	input.UsageCount = 1
	created, err := f.svc.Create(input)
	if err != nil {
		t.Fatalf("create voucher failed: %v", err)
	}

	replacement := validVoucherInput("Ersetzt")
	replacement.PurchasePrice = "63"
	updated, err := f.svc.Update(created.ID, replacement)
	if err != nil {
		t.Fatalf("update voucher failed: %v", err)
	}
	if updated == nil || updated.ID != created.ID {
		t.Fatalf("expected same identity after update, got: %+v", updated)
	}

	reloaded, err := f.svc.Get(created.ID)
	if err != nil {
		t.Fatalf("reload voucher failed: %v", err)
	}
	if reloaded.Name != "Ersetzt" || reloaded.PurchasePrice.String() != "63.00" {
		t.Fatalf("unexpected reloaded voucher: %+v", reloaded)
	}
	if reloaded.OrderNumber != nil {
		t.Fatalf("full replace should clear order number, got: %v", *reloaded.OrderNumber)
	}
	if len(reloaded.Redemptions) != 0 || reloaded.UsageCount != 0 {
		t.Fatalf("full replace should clear redemptions, got: %+v", reloaded.Redemptions)
	}
}

func TestVoucherServiceUpdateMissingIsSilentNoop(t *testing.T) {
	f := setupVoucherServiceTest(t)
	updated, err := f.svc.Update(999, validVoucherInput("Niemand"))
	if err != nil {
		t.Fatalf("update missing voucher should not fail: %v", err)
	}
	if updated != nil {
		t.Fatalf("expected nil voucher for missing target, got: %+v", updated)
	}
	count, err := f.repo.Count()
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("update must not append, got count=%d", count)
	}
}

func TestVoucherServiceDeleteIsTwoStep(t *testing.T) {
	f := setupVoucherServiceTest(t)
	created, err := f.svc.Create(validVoucherInput("Löschen"))
	if err != nil {
		t.Fatalf("create voucher failed: %v", err)
	}

	declined, err := f.svc.RequestDelete(created.ID)
	if err != nil {
		t.Fatalf("request delete failed: %v", err)
	}
	if !f.svc.CancelConfirmation(declined.Token) {
		t.Fatalf("expected cancel to succeed")
	}
	if err := f.svc.ConfirmDelete(declined.Token); !errors.Is(err, ErrConfirmationNotFound) {
		t.Fatalf("declined token must not delete, got: %v", err)
	}
	if _, err := f.svc.Get(created.ID); err != nil {
		t.Fatalf("voucher should still exist: %v", err)
	}

	confirmation, err := f.svc.RequestDelete(created.ID)
	if err != nil {
		t.Fatalf("request delete failed: %v", err)
	}
	if err := f.svc.ConfirmDelete(confirmation.Token); err != nil {
		t.Fatalf("confirm delete failed: %v", err)
	}
	if _, err := f.svc.Get(created.ID); !errors.Is(err, ErrVoucherNotFound) {
		t.Fatalf("expected voucher deleted, got: %v", err)
	}
	if err := f.svc.ConfirmDelete(confirmation.Token); !errors.Is(err, ErrConfirmationNotFound) {
		t.Fatalf("token must be single use, got: %v", err)
	}
}

func TestVoucherServiceRequestDeleteMissing(t *testing.T) {
	f := setupVoucherServiceTest(t)
	if _, err := f.svc.RequestDelete(12345); !errors.Is(err, ErrVoucherNotFound) {
		t.Fatalf("expected ErrVoucherNotFound, got: %v", err)
	}
}

func TestVoucherServiceListKeepsInsertionOrder(t *testing.T) {
	f := setupVoucherServiceTest(t)
	for _, name := range []string{"Erster", "Zweiter", "Dritter"} {
		if _, err := f.svc.Create(validVoucherInput(name)); err != nil {
			t.Fatalf("create voucher failed: %v", err)
		}
		*f.now = f.now.Add(time.Second)
	}

	vouchers, total, err := f.svc.List(repository.VoucherListFilter{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("list vouchers failed: %v", err)
	}
	if total != 3 || len(vouchers) != 2 {
		t.Fatalf("unexpected pagination result: total=%d len=%d", total, len(vouchers))
	}
	if vouchers[0].Name != "Erster" || vouchers[1].Name != "Zweiter" {
		t.Fatalf("unexpected order: %s, %s", vouchers[0].Name, vouchers[1].Name)
	}

	filtered, total, err := f.svc.List(repository.VoucherListFilter{Keyword: "dritt"})
	if err != nil {
		t.Fatalf("list vouchers failed: %v", err)
	}
	if total != 1 || filtered[0].Name != "Dritter" {
		t.Fatalf("unexpected keyword filter result: %+v", filtered)
	}
}
