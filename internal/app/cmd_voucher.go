package app

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kinogutschein/internal/models"
	"github.com/kinogutschein/internal/repository"
	"github.com/kinogutschein/internal/service"
)

func runVoucherCommand(s *session, args []string) error {
	return dispatch(s, "voucher", args, map[string]commandFunc{
		"list":   voucherList,
		"show":   voucherShow,
		"add":    voucherAdd,
		"delete": voucherDelete,
	})
}

func voucherList(s *session, args []string) error {
	fs := s.newFlagSet("voucher list")
	keyword := fs.String("q", "", "Suchbegriff (Name, Bestellnummer, Film, Gutscheinnummer)")
	status := fs.String("status", "", "Status filtern (valid, partially_redeemed, fully_redeemed)")
	page := fs.Int("page", 1, "Seite")
	pageSize := fs.Int("size", 0, "Einträge pro Seite (0 = alle)")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	if *status != "" && !service.IsVoucherStatus(*status) {
		return usageErrorf("voucher list: unbekannter Status %q", *status)
	}

	vouchers, total, err := s.container.VoucherService.List(repository.VoucherListFilter{
		Keyword:  *keyword,
		Status:   *status,
		Page:     *page,
		PageSize: *pageSize,
	})
	if err != nil {
		return err
	}
	if total == 0 {
		fmt.Fprintln(s.out, "Keine Gutscheine gefunden.")
		return nil
	}

	today := s.container.Clock.Today()
	w := s.table()
	writeRow(w, "ID", "NAME", "STATUS", "NUTZUNGEN", "ABLAUF", "FRIST", "PREIS", "BEDINGUNGEN")
	for _, voucher := range vouchers {
		tier := service.ExpiryTier(voucher.ExpirationDate, today)
		writeRow(w,
			strconv.FormatInt(voucher.ID, 10),
			voucher.Name,
			s.paint(service.StatusColor(voucher, today), labelOf(displayStatusLabels, service.ClassifyStatus(voucher, today))),
			fmt.Sprintf("%d/%d", voucher.UsageCount, voucher.UsageLimit),
			voucher.ExpirationDate.String(),
			s.paint(service.ExpiryTierColor(tier), labelOf(expiryTierLabels, tier)),
			euro(voucher.PurchasePrice),
			service.TruncateTerms(voucher.TermsText),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if int64(len(vouchers)) < total {
		fmt.Fprintf(s.out, "%d von %d Gutscheinen (Seite %d)\n", len(vouchers), total, *page)
	}
	return nil
}

func voucherShow(s *session, args []string) error {
	fs := s.newFlagSet("voucher show")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	id, err := parseVoucherID("voucher show", positional)
	if err != nil {
		return err
	}
	voucher, err := s.container.VoucherService.Get(id)
	if err != nil {
		return err
	}
	s.printVoucher(voucher)
	return nil
}

func (s *session) printVoucher(voucher *models.Voucher) {
	today := s.container.Clock.Today()
	status := labelOf(displayStatusLabels, service.ClassifyStatus(*voucher, today))
	tier := service.ExpiryTier(voucher.ExpirationDate, today)

	fmt.Fprintf(s.out, "%s (ID %d)\n", s.bold(voucher.Name), voucher.ID)
	fmt.Fprintf(s.out, "  Status:       %s\n", s.paint(service.StatusColor(*voucher, today), status))
	fmt.Fprintf(s.out, "  Preis:        %s\n", euro(voucher.PurchasePrice))
	fmt.Fprintf(s.out, "  Ablaufdatum:  %s (%s, %.1f Monate)\n",
		voucher.ExpirationDate.String(),
		s.paint(service.ExpiryTierColor(tier), labelOf(expiryTierLabels, tier)),
		service.MonthsUntil(voucher.ExpirationDate, today),
	)
	fmt.Fprintf(s.out, "  Nutzungen:    %d/%d\n", voucher.UsageCount, voucher.UsageLimit)
	if voucher.SinglePersonOnly {
		fmt.Fprintln(s.out, "  Nur für 1 Person")
	}
	if voucher.OrderNumber != nil {
		fmt.Fprintf(s.out, "  Bestellnummer: %s\n", *voucher.OrderNumber)
	}
	if voucher.Film != nil {
		fmt.Fprintf(s.out, "  Film:         %s\n", *voucher.Film)
	}
	if voucher.Location != nil {
		fmt.Fprintf(s.out, "  Kino:         %s\n", *voucher.Location)
	}
	if voucher.RedeemedAt != nil {
		fmt.Fprintf(s.out, "  Eingelöst am: %s\n", voucher.RedeemedAt.String())
	}
	if voucher.TermsText != "" {
		fmt.Fprintf(s.out, "  Bedingungen:  %s\n", voucher.TermsText)
	}
	if service.CanRedeem(*voucher) {
		fmt.Fprintf(s.out, "  Einlösen möglich: kinogutschein edit start %d\n", voucher.ID)
	}
	s.printRedemptions(voucher.Redemptions)
}

func (s *session) printRedemptions(redemptions models.RedemptionList) {
	if len(redemptions) == 0 {
		fmt.Fprintln(s.out, "  Noch keine Einlösungen.")
		return
	}
	fmt.Fprintf(s.out, "  Einlösungen (%d):\n", len(redemptions))
	w := s.table()
	writeRow(w, "  #", "DATUM", "ZEIT", "FILM", "KINO", "PERSONEN", "GUTSCHEINNR.")
	for idx, item := range redemptions {
		ref := item.RefID()
		if count := service.RefIDCount(ref); count > 1 {
			ref = fmt.Sprintf("%s (%d)", ref, count)
		}
		writeRow(w,
			fmt.Sprintf("  %d", idx+1),
			item.Date.String(),
			item.Time,
			item.Film,
			item.LocationName(),
			strconv.Itoa(item.EffectiveAttendeeCount()),
			ref,
		)
	}
	_ = w.Flush()
}

func voucherAdd(s *session, args []string) error {
	fs := s.newFlagSet("voucher add")
	input := s.container.VoucherService.NewVoucherInput()
	fs.StringVar(&input.Name, "name", "", "Name")
	fs.StringVar(&input.PurchasePrice, "price", "", "Kaufpreis, z. B. 63,00")
	expires := fs.String("expires", "", "Ablaufdatum JJJJ-MM-TT (Pflicht)")
	fs.StringVar(&input.Status, "status", input.Status, "Status")
	fs.IntVar(&input.UsageLimit, "limit", input.UsageLimit, "Maximale Nutzungen")
	fs.StringVar(&input.OrderNumber, "order", "", "Bestellnummer")
	fs.StringVar(&input.TermsText, "terms", "", "Bedingungen")
	fs.BoolVar(&input.SinglePersonOnly, "single", false, "Nur für 1 Person")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	if strings.TrimSpace(*expires) != "" {
		date, err := models.ParseDate(*expires)
		if err != nil {
			return WrapError(ExitCommandError, service.MessageDateInvalid, nil)
		}
		input.ExpirationDate = date
	}

	voucher, err := s.container.VoucherService.Create(input)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Gutschein „%s“ angelegt (ID %d).\n", voucher.Name, voucher.ID)
	return nil
}

func voucherDelete(s *session, args []string) error {
	fs := s.newFlagSet("voucher delete")
	yes := fs.Bool("yes", false, "Ohne Rückfrage löschen")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	id, err := parseVoucherID("voucher delete", positional)
	if err != nil {
		return err
	}

	svc := s.container.VoucherService
	confirmation, err := svc.RequestDelete(id)
	if err != nil {
		return err
	}
	if !*yes && !s.confirm(fmt.Sprintf("Gutschein „%s“ wirklich löschen?", confirmation.Fingerprint)) {
		svc.CancelConfirmation(confirmation.Token)
		fmt.Fprintln(s.out, "Abgebrochen.")
		return nil
	}
	if err := svc.ConfirmDelete(confirmation.Token); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Gutschein %d gelöscht.\n", id)
	return nil
}

func parseVoucherID(name string, positional []string) (int64, error) {
	if len(positional) != 1 {
		return 0, usageErrorf("%s: genau eine Gutschein-ID erwartet", name)
	}
	id, err := strconv.ParseInt(positional[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, usageErrorf("%s: ungültige Gutschein-ID %q", name, positional[0])
	}
	return id, nil
}
