package models

import (
	"strconv"
	"time"

	"github.com/kinogutschein/internal/constants"

	"github.com/shopspring/decimal"
)

// ExampleVouchers 首次启动时写入的示例兑换券
func ExampleVouchers() []Voucher {
	cineStar := "CineStar"
	orderNumber := "1006729134"
	redemption := func(date Date, film, at, ref string) Redemption {
		loc := cineStar
		refID := ref
		return Redemption{
			Date:          date,
			Time:          at,
			Film:          film,
			Location:      &loc,
			AttendeeCount: 1,
			VoucherRefID:  &refID,
		}
	}

	return []Voucher{
		{
			ID:             1,
			Name:           "CineStar 10er Gutschein",
			PurchasePrice:  NewMoneyFromDecimal(decimal.RequireFromString("80.00")),
			ExpirationDate: NewDate(2025, 12, 31),
			Status:         constants.VoucherStatusPartiallyRedeemed,
			OrderNumber:    &orderNumber,
			TermsText:      "Bis zu 10 Kinogutscheine für 1 Person für 2D-Filme inkl. Sitzplatz & Filmzuschlag bei CineStar. Gültig ab 01.01.2025 bis 31.12.2025.",
			UsageCount:     6,
			UsageLimit:     10,
			Redemptions: RedemptionList{
				redemption(NewDate(2024, 12, 8), "Wicked", "19:45", "CS-001"),
				redemption(NewDate(2025, 2, 16), "Captain America: Brave New World", "19:45", "CS-002"),
				redemption(NewDate(2025, 3, 14), "Mickey 17", "22:45", "CS-003"),
				redemption(NewDate(2025, 4, 30), "Thunderbolts*", "22:20", "CS-004"),
				redemption(NewDate(2025, 6, 22), "28 Years Later", "20:00", "CS-005"),
				redemption(NewDate(2025, 7, 22), "Superman", "20:10", "CS-006"),
			},
		},
		{
			ID:             2,
			Name:           "10 Tickets für 63€ (Kino-Gutschein)",
			PurchasePrice:  NewMoneyFromDecimal(decimal.RequireFromString("63.00")),
			ExpirationDate: NewDate(2026, 3, 15),
			Status:         constants.VoucherStatusValid,
			TermsText:      "Gültig für alle 2D-Filme inkl. Zuschläge. 3D-Zuschlag: +3€ (ggf. +1€ für 3D-Brille). Keine Einlösung bei Sonderveranstaltungen, Vorpremieren oder IMAX. Nicht einlösbar im Filmpalast am ZKM (Karlsruhe).",
			UsageCount:     0,
			UsageLimit:     10,
			Redemptions:    RedemptionList{},
		},
	}
}

// DefaultLocations 地点列表为空时写入的默认影院
func DefaultLocations(createdAt time.Time) []Location {
	names := []string{"CineStar", "UCI Kinowelt", "Cineplex", "Filmpalast", "Mathäser Filmpalast"}
	items := make([]Location, 0, len(names))
	for i, name := range names {
		items = append(items, Location{
			ID:        strconv.Itoa(i + 1),
			Name:      name,
			CreatedAt: createdAt,
		})
	}
	return items
}
