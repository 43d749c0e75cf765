package app

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/kinogutschein/internal/constants"
)

const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiBlue   = "\033[34m"
	ansiOrange = "\033[38;5;208m"
)

var displayStatusLabels = map[string]string{
	constants.VoucherDisplayValid:             "Gültig",
	constants.VoucherDisplayPartiallyRedeemed: "Teilweise eingelöst",
	constants.VoucherDisplayRedeemed:          "Eingelöst",
	constants.VoucherDisplayExpired:           "Abgelaufen",
}

var storedStatusLabels = map[string]string{
	constants.VoucherStatusValid:             "Gültig",
	constants.VoucherStatusPartiallyRedeemed: "Teilweise eingelöst",
	constants.VoucherStatusFullyRedeemed:     "Eingelöst",
}

var expiryTierLabels = map[string]string{
	constants.ExpiryTierExpired: "abgelaufen",
	constants.ExpiryTierUrgent:  "< 2 Monate",
	constants.ExpiryTierSoon:    "< 6 Monate",
	constants.ExpiryTierFine:    "> 6 Monate",
}

var colorCodes = map[string]string{
	constants.ColorGreen:  ansiGreen,
	constants.ColorYellow: ansiYellow,
	constants.ColorRed:    ansiRed,
	constants.ColorOrange: ansiOrange,
	constants.ColorBlue:   ansiBlue,
}

func labelOf(labels map[string]string, key string) string {
	if label, ok := labels[key]; ok {
		return label
	}
	return key
}

// paint 按状态色着色，未开启颜色时原样返回
func (s *session) paint(color, text string) string {
	code, ok := colorCodes[color]
	if !s.color || !ok {
		return text
	}
	return code + text + ansiReset
}

func (s *session) bold(text string) string {
	if !s.color {
		return text
	}
	return ansiBold + text + ansiReset
}

func (s *session) table() *tabwriter.Writer {
	return tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
}

func euro(amount fmt.Stringer) string {
	return amount.String() + " €"
}

func writeRow(w io.Writer, cells ...string) {
	for i, cell := range cells {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, cell)
	}
	fmt.Fprintln(w)
}
