package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kinogutschein/internal/constants"
	"github.com/kinogutschein/internal/logger"
	"github.com/kinogutschein/internal/models"

	"github.com/google/uuid"
)

// 编辑器模式
const (
	EditorModeBrowsing = "browsing"
	EditorModeEditing  = "editing"
)

// EditorState 编辑器可持久化状态
type EditorState struct {
	Mode      string        `json:"mode"`
	SessionID string        `json:"session_id,omitempty"`
	TargetID  *int64        `json:"target_id,omitempty"` // 为空表示新建
	Draft     *VoucherInput `json:"draft,omitempty"`
}

// VoucherEditor 兑换券编辑状态机，状态为 Browsing 或 Editing(目标ID|新建)
// 同一时刻至多一个草稿，开启新编辑会关闭旧草稿；非并发安全
type VoucherEditor struct {
	vouchers *VoucherService
	session  *DraftSession
}

// NewVoucherEditor 创建处于 Browsing 状态的编辑器
func NewVoucherEditor(vouchers *VoucherService) *VoucherEditor {
	return &VoucherEditor{vouchers: vouchers}
}

// Mode 当前模式
func (e *VoucherEditor) Mode() string {
	if e.session == nil {
		return EditorModeBrowsing
	}
	return EditorModeEditing
}

// Current 返回打开中的草稿
func (e *VoucherEditor) Current() (*DraftSession, error) {
	if e.session == nil {
		return nil, ErrNoOpenDraft
	}
	return e.session, nil
}

// StartNew 打开空白草稿（新建）
func (e *VoucherEditor) StartNew() *DraftSession {
	return e.open(nil, e.vouchers.NewVoucherInput())
}

// StartEdit 载入已有兑换券到草稿
func (e *VoucherEditor) StartEdit(id int64) (*DraftSession, error) {
	voucher, err := e.vouchers.Get(id)
	if err != nil {
		return nil, err
	}
	target := voucher.ID
	return e.open(&target, VoucherInputFromModel(voucher)), nil
}

// StartMarkRedeemed 载入兑换券并预填为已全部兑换，需 Submit 才会生效
func (e *VoucherEditor) StartMarkRedeemed(id int64) (*DraftSession, error) {
	session, err := e.StartEdit(id)
	if err != nil {
		return nil, err
	}
	today := e.vouchers.clock.Today()
	session.draft.Status = constants.VoucherStatusFullyRedeemed
	session.draft.RedeemedAt = &today
	return session, nil
}

// State 导出可持久化状态
func (e *VoucherEditor) State() EditorState {
	if e.session == nil {
		return EditorState{Mode: EditorModeBrowsing}
	}
	draft := e.session.Draft()
	state := EditorState{
		Mode:      EditorModeEditing,
		SessionID: e.session.id,
		Draft:     &draft,
	}
	if e.session.target != nil {
		target := *e.session.target
		state.TargetID = &target
	}
	return state
}

// Restore 恢复持久化状态；无效的 Editing 状态回落为 Browsing
func (e *VoucherEditor) Restore(state EditorState) {
	e.closeCurrent()
	if state.Mode != EditorModeEditing || state.Draft == nil {
		return
	}
	session := e.open(state.TargetID, *state.Draft)
	if state.SessionID != "" {
		session.id = state.SessionID
	}
}

func (e *VoucherEditor) open(target *int64, draft VoucherInput) *DraftSession {
	e.closeCurrent()
	if draft.Redemptions == nil {
		draft.Redemptions = models.RedemptionList{}
	}
	draft.Redemptions = draft.Redemptions.Clone()
	session := &DraftSession{
		id:     uuid.NewString(),
		editor: e,
		draft:  draft,
	}
	if target != nil {
		copied := *target
		session.target = &copied
		session.draft.ID = &copied
	} else {
		session.draft.ID = nil
	}
	e.session = session
	return session
}

func (e *VoucherEditor) closeCurrent() {
	if e.session != nil {
		e.session.closed = true
		e.session = nil
	}
}

// DraftSession 单个兑换券草稿；兑换记录的增删改只作用于草稿
type DraftSession struct {
	id     string
	editor *VoucherEditor
	target *int64
	draft  VoucherInput
	closed bool
}

// RedemptionInput 兑换记录表单
type RedemptionInput struct {
	Date          string
	Time          string
	Film          string
	Location      string
	AttendeeCount int
	VoucherRefID  string
}

// VoucherPatch 草稿字段修改，nil 表示不修改
type VoucherPatch struct {
	Name             *string
	PurchasePrice    *string
	ExpirationDate   *string
	Status           *string
	RedeemedAt       *string
	Film             *string
	Location         *string
	OrderNumber      *string
	TermsText        *string
	UsageLimit       *int
	SinglePersonOnly *bool
}

// ID 草稿会话标识
func (d *DraftSession) ID() string {
	return d.id
}

// TargetID 编辑目标，新建草稿返回 false
func (d *DraftSession) TargetID() (int64, bool) {
	if d.target == nil {
		return 0, false
	}
	return *d.target, true
}

// Draft 返回草稿副本
func (d *DraftSession) Draft() VoucherInput {
	draft := d.draft
	draft.Redemptions = d.draft.Redemptions.Clone()
	if d.draft.RedeemedAt != nil {
		redeemedAt := *d.draft.RedeemedAt
		draft.RedeemedAt = &redeemedAt
	}
	if d.draft.ID != nil {
		id := *d.draft.ID
		draft.ID = &id
	}
	return draft
}

// Apply 修改草稿字段；任一字段非法时草稿保持不变
func (d *DraftSession) Apply(patch VoucherPatch) error {
	if d.closed {
		return ErrDraftClosed
	}
	next := d.Draft()
	if patch.Name != nil {
		next.Name = *patch.Name
	}
	if patch.PurchasePrice != nil {
		next.PurchasePrice = *patch.PurchasePrice
	}
	if patch.ExpirationDate != nil {
		date, err := models.ParseDate(*patch.ExpirationDate)
		if err != nil {
			return validationError("expiration_date", MessageDateInvalid)
		}
		next.ExpirationDate = date
	}
	if patch.Status != nil {
		status := strings.TrimSpace(*patch.Status)
		if !IsVoucherStatus(status) {
			return validationError("status", MessageStatusInvalid)
		}
		next.Status = status
	}
	if patch.RedeemedAt != nil {
		if strings.TrimSpace(*patch.RedeemedAt) == "" {
			next.RedeemedAt = nil
		} else {
			date, err := models.ParseDate(*patch.RedeemedAt)
			if err != nil {
				return validationError("redeemed_at", MessageDateInvalid)
			}
			next.RedeemedAt = &date
		}
	}
	if patch.Film != nil {
		next.Film = *patch.Film
	}
	if patch.Location != nil {
		next.Location = *patch.Location
	}
	if patch.OrderNumber != nil {
		next.OrderNumber = *patch.OrderNumber
	}
	if patch.TermsText != nil {
		next.TermsText = *patch.TermsText
	}
	if patch.UsageLimit != nil {
		if *patch.UsageLimit < 1 {
			return validationError("usage_limit", MessageUsageLimitMinimum)
		}
		next.UsageLimit = *patch.UsageLimit
	}
	if patch.SinglePersonOnly != nil {
		next.SinglePersonOnly = *patch.SinglePersonOnly
	}
	d.draft = next
	return nil
}

// AddRedemption 追加兑换记录并累加人次
func (d *DraftSession) AddRedemption(input RedemptionInput) error {
	if d.closed {
		return ErrDraftClosed
	}
	redemption, err := buildRedemption(input, nil)
	if err != nil {
		return err
	}
	d.draft.Redemptions = append(d.draft.Redemptions, redemption)
	d.draft.UsageCount += redemption.AttendeeCount
	return nil
}

// EditRedemption 原位替换兑换记录，按人次差值调整使用次数（不低于 0）
// 人次为 0 时沿用旧值；外部券号留空时沿用旧值，地点留空则清除
func (d *DraftSession) EditRedemption(index int, input RedemptionInput) error {
	if d.closed {
		return ErrDraftClosed
	}
	if index < 0 || index >= len(d.draft.Redemptions) {
		return ErrRedemptionIndexInvalid
	}
	previous := d.draft.Redemptions[index]
	redemption, err := buildRedemption(input, &previous)
	if err != nil {
		return err
	}
	delta := redemption.AttendeeCount - previous.EffectiveAttendeeCount()
	d.draft.Redemptions[index] = redemption
	d.draft.UsageCount = max(0, d.draft.UsageCount+delta)
	return nil
}

// RequestRemoveRedemption 登记删除兑换记录的意图
func (d *DraftSession) RequestRemoveRedemption(index int) (Confirmation, error) {
	if d.closed {
		return Confirmation{}, ErrDraftClosed
	}
	if index < 0 || index >= len(d.draft.Redemptions) {
		return Confirmation{}, ErrRedemptionIndexInvalid
	}
	target := d.id + "#" + strconv.Itoa(index)
	return d.editor.vouchers.confirmations.Request(
		ActionRemoveRedemption,
		target,
		redemptionFingerprint(d.draft.Redemptions[index]),
	), nil
}

// ConfirmRemoveRedemption 凭令牌删除兑换记录并扣减人次（不低于 0）
func (d *DraftSession) ConfirmRemoveRedemption(token string) error {
	if d.closed {
		return ErrDraftClosed
	}
	item, err := d.editor.vouchers.confirmations.Take(token, ActionRemoveRedemption)
	if err != nil {
		return err
	}
	sessionID, indexText, ok := strings.Cut(item.Target, "#")
	if !ok || sessionID != d.id {
		return ErrConfirmationStale
	}
	index, err := strconv.Atoi(indexText)
	if err != nil || index < 0 || index >= len(d.draft.Redemptions) {
		return ErrConfirmationStale
	}
	removed := d.draft.Redemptions[index]
	if redemptionFingerprint(removed) != item.Fingerprint {
		return ErrConfirmationStale
	}

	remaining := make(models.RedemptionList, 0, len(d.draft.Redemptions)-1)
	remaining = append(remaining, d.draft.Redemptions[:index]...)
	remaining = append(remaining, d.draft.Redemptions[index+1:]...)
	d.draft.Redemptions = remaining
	d.draft.UsageCount = max(0, d.draft.UsageCount-removed.EffectiveAttendeeCount())
	return nil
}

// Submit 提交草稿：新建则追加，编辑则整条覆盖；成功后回到 Browsing
// 编辑目标已不存在时静默忽略，返回 nil
func (d *DraftSession) Submit() (*models.Voucher, error) {
	if d.closed {
		return nil, ErrDraftClosed
	}
	var (
		voucher *models.Voucher
		err     error
	)
	if d.target == nil {
		voucher, err = d.editor.vouchers.Create(d.Draft())
	} else {
		voucher, err = d.editor.vouchers.Update(*d.target, d.Draft())
	}
	if err != nil {
		return nil, err
	}
	d.editor.closeCurrent()
	return voucher, nil
}

// Cancel 放弃草稿，回到 Browsing
func (d *DraftSession) Cancel() error {
	if d.closed {
		return ErrDraftClosed
	}
	d.editor.closeCurrent()
	logger.Debugw("voucher_draft_canceled", "session_id", d.id)
	return nil
}

func buildRedemption(input RedemptionInput, previous *models.Redemption) (models.Redemption, error) {
	film := strings.TrimSpace(input.Film)
	dateText := strings.TrimSpace(input.Date)
	timeText := strings.TrimSpace(input.Time)
	if film == "" || dateText == "" || timeText == "" {
		return models.Redemption{}, validationError("redemption", MessageRedemptionRequired)
	}
	date, err := models.ParseDate(dateText)
	if err != nil {
		return models.Redemption{}, validationError("date", MessageDateInvalid)
	}
	at, err := parseTimeOfDay(timeText)
	if err != nil {
		return models.Redemption{}, validationError("time", MessageTimeInvalid)
	}

	attendees := input.AttendeeCount
	if previous != nil && attendees == 0 {
		attendees = previous.EffectiveAttendeeCount()
	}
	if attendees < 1 {
		return models.Redemption{}, validationError("attendee_count", MessageAttendeeMinimum)
	}

	ref := optionalText(input.VoucherRefID)
	if ref == nil && previous != nil && previous.VoucherRefID != nil {
		copied := *previous.VoucherRefID
		ref = &copied
	}
	return models.Redemption{
		Date:          date,
		Time:          at.Format(constants.TimeOfDayLayout),
		Film:          film,
		Location:      optionalText(input.Location),
		AttendeeCount: attendees,
		VoucherRefID:  ref,
	}, nil
}

// parseTimeOfDay 接受 HH:MM 与 HH:MM:SS，秒数在保存时丢弃
func parseTimeOfDay(text string) (time.Time, error) {
	at, err := time.Parse(constants.TimeOfDayLayout, text)
	if err == nil {
		return at, nil
	}
	return time.Parse(constants.TimeOfDayWithSecondsLayout, text)
}

func redemptionFingerprint(item models.Redemption) string {
	return fmt.Sprintf("%s|%s|%s|%d", item.Date.String(), item.Time, item.Film, item.EffectiveAttendeeCount())
}
