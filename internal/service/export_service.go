package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/kinogutschein/internal/constants"
	"github.com/kinogutschein/internal/logger"
	"github.com/kinogutschein/internal/models"

	"github.com/jung-kurt/gofpdf"
	"github.com/tealeg/xlsx"
)

// ExportService 兑换券导出服务
type ExportService struct {
	vouchers *VoucherService
}

// NewExportService 创建导出服务
func NewExportService(vouchers *VoucherService) *ExportService {
	return &ExportService{vouchers: vouchers}
}

var voucherExportHeaders = []string{
	"id",
	"name",
	"purchase_price",
	"expiration_date",
	"status",
	"display_status",
	"expiry_tier",
	"usage_count",
	"usage_limit",
	"redemptions",
	"order_number",
	"redeemed_at",
	"terms",
}

var redemptionExportHeaders = []string{
	"voucher_id",
	"voucher_name",
	"date",
	"time",
	"film",
	"location",
	"attendee_count",
	"voucher_ref_id",
}

// ExportVouchers 按格式导出全部兑换券，返回内容、Content-Type 与扩展名
func (s *ExportService) ExportVouchers(format string) ([]byte, string, string, error) {
	if s == nil || s.vouchers == nil {
		return nil, "", "", ErrExportFailed
	}
	normalized := strings.TrimSpace(strings.ToLower(format))
	switch normalized {
	case constants.ExportFormatCSV, constants.ExportFormatTXT, constants.ExportFormatXLSX, constants.ExportFormatPDF:
	default:
		return nil, "", "", ErrExportFormatInvalid
	}

	vouchers, err := s.vouchers.ListAll()
	if err != nil {
		return nil, "", "", err
	}
	today := s.vouchers.clock.Today()

	var (
		content     []byte
		contentType string
	)
	switch normalized {
	case constants.ExportFormatTXT:
		content, contentType = exportVouchersTXT(vouchers, today), "text/plain; charset=utf-8"
	case constants.ExportFormatCSV:
		content, err = exportVouchersCSV(vouchers, today)
		contentType = "text/csv; charset=utf-8"
	case constants.ExportFormatXLSX:
		content, err = exportVouchersXLSX(vouchers, today)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case constants.ExportFormatPDF:
		content, err = exportVouchersPDF(vouchers, today)
		contentType = "application/pdf"
	}
	if err != nil {
		logger.Errorw("voucher_export_failed", "format", normalized, "error", err)
		return nil, "", "", fmt.Errorf("%w: %v", ErrExportFailed, err)
	}
	logger.Infow("voucher_exported", "format", normalized, "count", len(vouchers), "bytes", len(content))
	return content, contentType, normalized, nil
}

func voucherExportRecord(voucher models.Voucher, today models.Date) []string {
	orderNumber := ""
	if voucher.OrderNumber != nil {
		orderNumber = *voucher.OrderNumber
	}
	redeemedAt := ""
	if voucher.RedeemedAt != nil {
		redeemedAt = voucher.RedeemedAt.String()
	}
	return []string{
		strconv.FormatInt(voucher.ID, 10),
		voucher.Name,
		voucher.PurchasePrice.String(),
		voucher.ExpirationDate.String(),
		voucher.Status,
		ClassifyStatus(voucher, today),
		ExpiryTier(voucher.ExpirationDate, today),
		strconv.Itoa(voucher.UsageCount),
		strconv.Itoa(voucher.UsageLimit),
		strconv.Itoa(len(voucher.Redemptions)),
		orderNumber,
		redeemedAt,
		voucher.TermsText,
	}
}

func redemptionExportRecord(voucher models.Voucher, item models.Redemption) []string {
	return []string{
		strconv.FormatInt(voucher.ID, 10),
		voucher.Name,
		item.Date.String(),
		item.Time,
		item.Film,
		item.LocationName(),
		strconv.Itoa(item.EffectiveAttendeeCount()),
		item.RefID(),
	}
}

func exportVouchersTXT(vouchers []models.Voucher, today models.Date) []byte {
	lines := make([]string, 0, len(vouchers))
	for _, voucher := range vouchers {
		lines = append(lines, fmt.Sprintf("%s | %s | %d/%d | %s | %s",
			voucher.Name,
			ClassifyStatus(voucher, today),
			voucher.UsageCount,
			voucher.UsageLimit,
			voucher.ExpirationDate.String(),
			voucher.PurchasePrice.String(),
		))
	}
	return []byte(strings.Join(lines, "\n"))
}

func exportVouchersCSV(vouchers []models.Voucher, today models.Date) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(voucherExportHeaders); err != nil {
		return nil, err
	}
	for _, voucher := range vouchers {
		if err := writer.Write(voucherExportRecord(voucher, today)); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exportVouchersXLSX(vouchers []models.Voucher, today models.Date) ([]byte, error) {
	file := xlsx.NewFile()
	voucherSheet, err := file.AddSheet("Gutscheine")
	if err != nil {
		return nil, err
	}
	addXLSXHeader(voucherSheet, voucherExportHeaders)
	for _, voucher := range vouchers {
		row := voucherSheet.AddRow()
		for idx, value := range voucherExportRecord(voucher, today) {
			cell := row.AddCell()
			switch idx {
			case 0:
				cell.SetInt(int(voucher.ID))
			case 2:
				cell.SetFloat(voucher.PurchasePrice.InexactFloat64())
			case 7:
				cell.SetInt(voucher.UsageCount)
			case 8:
				cell.SetInt(voucher.UsageLimit)
			default:
				cell.SetString(value)
			}
		}
	}

	redemptionSheet, err := file.AddSheet("Einlösungen")
	if err != nil {
		return nil, err
	}
	addXLSXHeader(redemptionSheet, redemptionExportHeaders)
	for _, voucher := range vouchers {
		for _, item := range voucher.Redemptions {
			row := redemptionSheet.AddRow()
			for _, value := range redemptionExportRecord(voucher, item) {
				row.AddCell().SetString(value)
			}
		}
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func addXLSXHeader(sheet *xlsx.Sheet, headers []string) {
	headerRow := sheet.AddRow()
	for _, h := range headers {
		cell := headerRow.AddCell()
		cell.SetString(h)
		style := xlsx.NewStyle()
		font := xlsx.DefaultFont()
		font.Bold = true
		style.Font = *font
		cell.SetStyle(style)
	}
}

func exportVouchersPDF(vouchers []models.Voucher, today models.Date) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, tr("Kinogutscheine"))
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, tr("Stand: "+today.String()))
	pdf.Ln(10)

	headers := []string{"ID", "Name", "Preis", "Ablauf", "Status", "Nutzungen", "Filme"}
	colWidths := []float64{30, 95, 22, 28, 40, 30, 25}
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(220, 220, 220)
	for i, h := range headers {
		pdf.CellFormat(colWidths[i], 8, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for idx, voucher := range vouchers {
		fill := idx%2 == 1
		pdf.SetFillColor(245, 245, 245)
		name := []rune(voucher.Name)
		if len(name) > 55 {
			name = append(name[:55], []rune("...")...)
		}
		cells := []string{
			strconv.FormatInt(voucher.ID, 10),
			string(name),
			voucher.PurchasePrice.String(),
			voucher.ExpirationDate.String(),
			ClassifyStatus(voucher, today),
			fmt.Sprintf("%d/%d", voucher.UsageCount, voucher.UsageLimit),
			strconv.Itoa(len(voucher.Redemptions)),
		}
		for i, value := range cells {
			align := "L"
			if i != 1 {
				align = "C"
			}
			pdf.CellFormat(colWidths[i], 7, tr(value), "1", 0, align, fill, 0, "")
		}
		pdf.Ln(-1)
	}

	summary := Summarize(vouchers, today)
	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 10)
	for _, line := range []string{
		fmt.Sprintf("Aktiv: %d (%s)", summary.Active.Count, summary.Active.Total.String()),
		fmt.Sprintf("Eingelöst: %d (%s)", summary.Redeemed.Count, summary.Redeemed.Total.String()),
		fmt.Sprintf("Abgelaufen: %d (%s)", summary.Expired.Count, summary.Expired.Total.String()),
	} {
		pdf.Cell(0, 6, tr(line))
		pdf.Ln(6)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
