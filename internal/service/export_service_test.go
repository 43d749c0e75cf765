package service

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func setupExportServiceTest(t *testing.T) *ExportService {
	t.Helper()
	f := setupVoucherServiceTest(t)
	for _, name := range []string{"Kinowelt Pack", "Mathäser 5er"} {
		input := validVoucherInput(name)
		input.TermsText = "Gültig für 2D"
		_, err := f.svc.Create(input)
		require.NoError(t, err)
	}
	session := NewVoucherEditor(f.svc).StartNew()
	name, expiry := "Mit Einlösung", "2025-12-31"
	require.NoError(t, session.Apply(VoucherPatch{Name: &name, ExpirationDate: &expiry}))
	require.NoError(t, session.AddRedemption(RedemptionInput{Date: "2025-07-22", Time: "20:10", Film: "Superman", Location: "CineStar", AttendeeCount: 1}))
	_, err := session.Submit()
	require.NoError(t, err)
	return NewExportService(f.svc)
}

func TestExportVouchersCSV(t *testing.T) {
	svc := setupExportServiceTest(t)
	content, contentType, ext, err := svc.ExportVouchers("CSV")
	require.NoError(t, err)
	require.Equal(t, "csv", ext)
	require.Contains(t, contentType, "text/csv")

	records, err := csv.NewReader(bytes.NewReader(content)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	require.Equal(t, voucherExportHeaders, records[0])
	require.Equal(t, "Kinowelt Pack", records[1][1])
	require.Equal(t, "50.00", records[1][2])
	require.Equal(t, "valid", records[1][5])
	require.Equal(t, "1", records[3][9])
}

func TestExportVouchersTXT(t *testing.T) {
	svc := setupExportServiceTest(t)
	content, _, ext, err := svc.ExportVouchers("txt")
	require.NoError(t, err)
	require.Equal(t, "txt", ext)
	lines := strings.Split(string(content), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "Mathäser 5er | valid | 0/5 | 2026-01-31 | 50.00", lines[1])
}

func TestExportVouchersXLSXAndPDF(t *testing.T) {
	svc := setupExportServiceTest(t)

	content, contentType, _, err := svc.ExportVouchers("xlsx")
	require.NoError(t, err)
	require.Contains(t, contentType, "spreadsheetml")
	require.True(t, bytes.HasPrefix(content, []byte("PK")))

	content, contentType, _, err = svc.ExportVouchers(" pdf ")
	require.NoError(t, err)
	require.Equal(t, "application/pdf", contentType)
	require.True(t, bytes.HasPrefix(content, []byte("%PDF")))
}

func TestExportVouchersRejectsUnknownFormat(t *testing.T) {
	svc := setupExportServiceTest(t)
	_, _, _, err := svc.ExportVouchers("docx")
	require.True(t, errors.Is(err, ErrExportFormatInvalid))
}
