package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kinogutschein/internal/constants"
	"github.com/kinogutschein/internal/service"
)

func runSummaryCommand(s *session, args []string) error {
	if _, err := parseArgs(s.newFlagSet("summary"), args); err != nil {
		return err
	}
	vouchers, err := s.container.VoucherService.ListAll()
	if err != nil {
		return err
	}
	summary := service.Summarize(vouchers, s.container.Clock.Today())

	w := s.table()
	writeRow(w, "BEREICH", "ANZAHL", "SUMME")
	writeRow(w, s.paint(constants.ColorGreen, "Aktiv"), strconv.Itoa(summary.Active.Count), euro(summary.Active.Total))
	writeRow(w, s.paint(constants.ColorBlue, "Eingelöst"), strconv.Itoa(summary.Redeemed.Count), euro(summary.Redeemed.Total))
	writeRow(w, s.paint(constants.ColorRed, "Abgelaufen"), strconv.Itoa(summary.Expired.Count), euro(summary.Expired.Total))
	return w.Flush()
}

func runTimelineCommand(s *session, args []string) error {
	fs := s.newFlagSet("timeline")
	voucherID := fs.Int64("voucher", 0, "Nur diesen Gutschein anzeigen")
	year := fs.Int("year", 0, "Jahr (Standard: aktuelles Jahr)")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	selected := *year
	if selected == 0 {
		selected = s.container.Clock.Today().Year()
	}

	if *voucherID > 0 {
		voucher, err := s.container.VoucherService.Get(*voucherID)
		if err != nil {
			return err
		}
		years := service.TimelineYears(voucher.Redemptions)
		timeline := service.BuildVoucherTimeline(voucher.Redemptions, service.ClampYear(years, selected))
		fmt.Fprintf(s.out, "%s: %d Einlösungen in %d\n", s.bold(voucher.Name), len(timeline.Entries), timeline.Year)
		w := s.table()
		for _, entry := range timeline.Entries {
			writeRow(w,
				fmt.Sprintf("  %d", entry.Index+1),
				entry.Redemption.Date.String(),
				entry.Redemption.Film,
				timelineBar(entry.Position),
			)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		s.printYearRange(timeline.Years)
		return nil
	}

	vouchers, err := s.container.VoucherService.ListAll()
	if err != nil {
		return err
	}
	timeline := service.BuildGlobalTimeline(vouchers, selected)
	fmt.Fprintf(s.out, "%d Filme in %d", timeline.FilmCount(), timeline.Year)
	if n := len(timeline.Years); n > 0 {
		fmt.Fprintf(s.out, " (%d Jahre gesamt: %d-%d)", n, timeline.Years[0], timeline.Years[n-1])
	}
	fmt.Fprintln(s.out)

	w := s.table()
	for _, marker := range timeline.Markers {
		writeRow(w,
			marker.Date.String(),
			marker.Time,
			marker.Film,
			marker.Location,
			fmt.Sprintf("%d P.", marker.TotalAttendees),
			strings.Join(marker.VoucherNames, ", "),
			timelineBar(marker.Position),
		)
	}
	return w.Flush()
}

func (s *session) printYearRange(years []int) {
	if len(years) == 0 {
		return
	}
	parts := make([]string, len(years))
	for i, year := range years {
		parts[i] = strconv.Itoa(year)
	}
	fmt.Fprintf(s.out, "Jahre: %s\n", strings.Join(parts, ", "))
}

// timelineBar 将 0-100 的位置渲染为 50 格的文本刻度
func timelineBar(position float64) string {
	const width = 50
	cell := min(width-1, max(0, int(position/100*width)))
	return "|" + strings.Repeat("-", cell) + "o" + strings.Repeat("-", width-1-cell) + "|"
}

func runAuditCommand(s *session, args []string) error {
	if _, err := parseArgs(s.newFlagSet("audit"), args); err != nil {
		return err
	}
	vouchers, err := s.container.VoucherService.ListAll()
	if err != nil {
		return err
	}
	mismatches := service.AuditStatus(vouchers)
	if len(mismatches) == 0 {
		fmt.Fprintln(s.out, "Alle Gutscheine sind stimmig.")
		return nil
	}
	w := s.table()
	writeRow(w, "ID", "NAME", "STATUS", "VORSCHLAG", "NUTZUNGEN", "PERSONEN LAUT EINLÖSUNGEN")
	for _, item := range mismatches {
		writeRow(w,
			strconv.FormatInt(item.VoucherID, 10),
			item.Name,
			labelOf(storedStatusLabels, item.Status),
			s.paint(constants.ColorYellow, labelOf(storedStatusLabels, item.SuggestedStatus)),
			fmt.Sprintf("%d/%d", item.UsageCount, item.UsageLimit),
			strconv.Itoa(item.RedemptionTotal),
		)
	}
	return w.Flush()
}

func runExportCommand(s *session, args []string) error {
	fs := s.newFlagSet("export")
	format := fs.String("format", constants.ExportFormatCSV, "Format (csv, txt, xlsx, pdf)")
	out := fs.String("out", "", "Zieldatei, \"-\" für Standardausgabe")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	content, _, ext, err := s.container.ExportService.ExportVouchers(*format)
	if err != nil {
		return err
	}
	if *out == "-" {
		_, err := s.out.Write(content)
		return err
	}

	path := *out
	if path == "" {
		name := fmt.Sprintf("kinogutscheine-%s.%s", s.container.Clock.Current().Format("20060102"), ext)
		path = filepath.Join(s.container.Config.Export.Dir, name)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return WrapError(ExitCommandError, "Export konnte nicht gespeichert werden", err)
		}
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return WrapError(ExitCommandError, "Export konnte nicht gespeichert werden", err)
	}
	s.log.Infow("export_written", "path", path, "bytes", len(content))
	fmt.Fprintf(s.out, "Export gespeichert: %s\n", path)
	return nil
}

func runSeedCommand(s *session, args []string) error {
	if _, err := parseArgs(s.newFlagSet("seed"), args); err != nil {
		return err
	}
	written, err := s.container.SeedService.Reseed(s.ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%d Beispielgutscheine geschrieben.\n", written)
	return nil
}
