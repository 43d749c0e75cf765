package service

import (
	"math"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/kinogutschein/internal/constants"
	"github.com/kinogutschein/internal/models"
)

// 以下均为纯函数，每次读取时基于完整集合重新计算

// ClassifyStatus 展示状态：已全部兑换、部分兑换、已过期或有效
// 存储状态不会因过期而被改写，过期仅是展示层标签
func ClassifyStatus(voucher models.Voucher, today models.Date) string {
	switch voucher.Status {
	case constants.VoucherStatusFullyRedeemed:
		return constants.VoucherDisplayRedeemed
	case constants.VoucherStatusPartiallyRedeemed:
		return constants.VoucherDisplayPartiallyRedeemed
	}
	if voucher.ExpirationDate.Before(today) {
		return constants.VoucherDisplayExpired
	}
	return constants.VoucherDisplayValid
}

// StatusColor 状态色：全部兑换绿、部分兑换黄，其余按剩余天数
func StatusColor(voucher models.Voucher, today models.Date) string {
	switch voucher.Status {
	case constants.VoucherStatusFullyRedeemed:
		return constants.ColorGreen
	case constants.VoucherStatusPartiallyRedeemed:
		return constants.ColorYellow
	}
	days := today.DaysUntil(voucher.ExpirationDate)
	switch {
	case days < 0:
		return constants.ColorRed
	case days <= constants.StatusColorWarnDays:
		return constants.ColorOrange
	default:
		return constants.ColorBlue
	}
}

// MonthsUntil 距过期的月数（天数 / 30.44）
func MonthsUntil(expiration, today models.Date) float64 {
	return float64(today.DaysUntil(expiration)) / constants.DaysPerMonth
}

// ExpiryTier 过期紧迫度，随剩余天数单调变化
func ExpiryTier(expiration, today models.Date) string {
	months := MonthsUntil(expiration, today)
	switch {
	case months < 0:
		return constants.ExpiryTierExpired
	case months < constants.ExpiryUrgentMonths:
		return constants.ExpiryTierUrgent
	case months < constants.ExpirySoonMonths:
		return constants.ExpiryTierSoon
	default:
		return constants.ExpiryTierFine
	}
}

// ExpiryTierColor 紧迫度对应颜色
func ExpiryTierColor(tier string) string {
	switch tier {
	case constants.ExpiryTierExpired, constants.ExpiryTierUrgent:
		return constants.ColorRed
	case constants.ExpiryTierSoon:
		return constants.ColorOrange
	default:
		return constants.ColorGreen
	}
}

// CanRedeem 是否提供“兑换”操作：状态有效或部分兑换，且未用满
func CanRedeem(voucher models.Voucher) bool {
	if voucher.Status != constants.VoucherStatusValid && voucher.Status != constants.VoucherStatusPartiallyRedeemed {
		return false
	}
	return voucher.UsageCount < voucher.UsageLimit
}

// Partition 汇总分区
type Partition struct {
	Vouchers []models.Voucher
	Count    int
	Total    models.Money
}

func (p *Partition) add(voucher models.Voucher) {
	p.Vouchers = append(p.Vouchers, voucher)
	p.Count++
	p.Total = p.Total.Add(voucher.PurchasePrice)
}

// VoucherSummary 有效、已兑换、已过期三个互斥分区
type VoucherSummary struct {
	Active   Partition
	Redeemed Partition
	Expired  Partition
}

// Summarize 将每张兑换券恰好归入一个分区
func Summarize(vouchers []models.Voucher, today models.Date) VoucherSummary {
	var summary VoucherSummary
	for _, voucher := range vouchers {
		switch {
		case voucher.Status == constants.VoucherStatusFullyRedeemed:
			summary.Redeemed.add(voucher)
		case voucher.ExpirationDate.Before(today):
			summary.Expired.add(voucher)
		default:
			summary.Active.add(voucher)
		}
	}
	return summary
}

// SuggestedStatus 按使用次数推导的状态
func SuggestedStatus(voucher models.Voucher) string {
	switch {
	case voucher.UsageLimit > 0 && voucher.UsageCount >= voucher.UsageLimit:
		return constants.VoucherStatusFullyRedeemed
	case voucher.UsageCount > 0:
		return constants.VoucherStatusPartiallyRedeemed
	default:
		return constants.VoucherStatusValid
	}
}

// StatusMismatch 存储状态与使用次数不一致的兑换券
type StatusMismatch struct {
	VoucherID       int64
	Name            string
	Status          string
	SuggestedStatus string
	UsageCount      int
	UsageLimit      int
	RedemptionTotal int
}

// AuditStatus 列出状态与使用次数不一致、或使用次数与兑换记录不符的兑换券
func AuditStatus(vouchers []models.Voucher) []StatusMismatch {
	var mismatches []StatusMismatch
	for _, voucher := range vouchers {
		suggested := SuggestedStatus(voucher)
		total := voucher.RedemptionAttendeeTotal()
		if suggested == voucher.Status && total == voucher.UsageCount {
			continue
		}
		mismatches = append(mismatches, StatusMismatch{
			VoucherID:       voucher.ID,
			Name:            voucher.Name,
			Status:          voucher.Status,
			SuggestedStatus: suggested,
			UsageCount:      voucher.UsageCount,
			UsageLimit:      voucher.UsageLimit,
			RedemptionTotal: total,
		})
	}
	return mismatches
}

// TruncateTerms 列表中截断显示条款
func TruncateTerms(text string) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= constants.TermsPreviewRunes {
		return string(runes)
	}
	return string(runes[:constants.TermsPreviewRunes]) + "..."
}

// RefIDCount 外部券号中逗号分隔的编号个数，仅用于展示
func RefIDCount(ref string) int {
	if strings.TrimSpace(ref) == "" {
		return 0
	}
	return len(strings.Split(ref, ","))
}

// TimelineYears 兑换记录涉及的年份（升序去重）
func TimelineYears(redemptions []models.Redemption) []int {
	seen := make(map[int]struct{}, len(redemptions))
	years := make([]int, 0, len(redemptions))
	for _, item := range redemptions {
		year := item.Date.Year()
		if _, ok := seen[year]; ok {
			continue
		}
		seen[year] = struct{}{}
		years = append(years, year)
	}
	sort.Ints(years)
	return years
}

// ClampYear 将年份限制在 [最早年份, 最晚年份]
func ClampYear(years []int, year int) int {
	if len(years) == 0 {
		return year
	}
	return min(max(year, years[0]), years[len(years)-1])
}

// StepYear 年份翻页
func StepYear(years []int, year, delta int) int {
	return ClampYear(years, year+delta)
}

// TimelinePosition 日期在全年时间轴上的百分比位置，限制在 [2, 98]
func TimelinePosition(date models.Date) float64 {
	year := date.Year()
	daysInYear := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC).YearDay()
	position := float64(date.YearDay()) / float64(daysInYear) * 100
	return math.Max(2, math.Min(98, position))
}

// TimelineEntry 单张兑换券时间轴上的一条记录
type TimelineEntry struct {
	Index      int
	Redemption models.Redemption
	Position   float64
}

// VoucherTimeline 单张兑换券在指定年份的时间轴
type VoucherTimeline struct {
	Year    int
	Years   []int
	Entries []TimelineEntry
}

// BuildVoucherTimeline 计算单张兑换券的年度时间轴（按录入顺序）
func BuildVoucherTimeline(redemptions []models.Redemption, year int) VoucherTimeline {
	timeline := VoucherTimeline{
		Year:  year,
		Years: TimelineYears(redemptions),
	}
	for idx, item := range redemptions {
		if item.Date.Year() != year {
			continue
		}
		timeline.Entries = append(timeline.Entries, TimelineEntry{
			Index:      idx,
			Redemption: item,
			Position:   TimelinePosition(item.Date),
		})
	}
	return timeline
}

// TimelineMarker 汇总时间轴上的一个点：同一天同一影片合并
type TimelineMarker struct {
	Date           models.Date
	Time           string
	Film           string
	Location       string
	TotalAttendees int
	VoucherNames   []string
	VoucherIDs     []int64
	Position       float64
}

// GlobalTimeline 全部兑换券的年度汇总时间轴
type GlobalTimeline struct {
	Year    int
	Years   []int
	Markers []TimelineMarker
}

// FilmCount 当年影片数
func (g GlobalTimeline) FilmCount() int {
	return len(g.Markers)
}

// BuildGlobalTimeline 汇总全部兑换记录；所选年份无记录时回落到最晚年份
func BuildGlobalTimeline(vouchers []models.Voucher, year int) GlobalTimeline {
	var all []models.Redemption
	for _, voucher := range vouchers {
		all = append(all, voucher.Redemptions...)
	}
	timeline := GlobalTimeline{
		Year:  year,
		Years: TimelineYears(all),
	}
	if len(timeline.Years) > 0 && !slices.Contains(timeline.Years, year) {
		timeline.Year = timeline.Years[len(timeline.Years)-1]
	}

	index := make(map[string]int)
	for _, voucher := range vouchers {
		for _, item := range voucher.Redemptions {
			if item.Date.Year() != timeline.Year {
				continue
			}
			key := item.Date.String() + "-" + item.Film
			pos, ok := index[key]
			if !ok {
				index[key] = len(timeline.Markers)
				timeline.Markers = append(timeline.Markers, TimelineMarker{
					Date:     item.Date,
					Time:     item.Time,
					Film:     item.Film,
					Location: item.LocationName(),
					Position: TimelinePosition(item.Date),
				})
				pos = len(timeline.Markers) - 1
			}
			marker := &timeline.Markers[pos]
			marker.TotalAttendees += item.EffectiveAttendeeCount()
			if !slices.Contains(marker.VoucherNames, voucher.Name) {
				marker.VoucherNames = append(marker.VoucherNames, voucher.Name)
			}
			if !slices.Contains(marker.VoucherIDs, voucher.ID) {
				marker.VoucherIDs = append(marker.VoucherIDs, voucher.ID)
			}
		}
	}
	sort.SliceStable(timeline.Markers, func(i, j int) bool {
		return timeline.Markers[i].Date.Before(timeline.Markers[j].Date)
	})
	return timeline
}
