package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kinogutschein/internal/constants"
	"github.com/kinogutschein/internal/logger"
	"github.com/kinogutschein/internal/models"
	"github.com/kinogutschein/internal/repository"
)

// VoucherService 兑换券服务
type VoucherService struct {
	repo              repository.VoucherRepository
	confirmations     *Confirmations
	clock             Clock
	defaultUsageLimit int
}

// NewVoucherService 创建兑换券服务
func NewVoucherService(repo repository.VoucherRepository, confirmations *Confirmations, clock Clock, defaultUsageLimit int) *VoucherService {
	if confirmations == nil {
		confirmations = NewConfirmations(0, clock)
	}
	if defaultUsageLimit < 1 {
		defaultUsageLimit = constants.DefaultVoucherUsageLimit
	}
	return &VoucherService{
		repo:              repo,
		confirmations:     confirmations,
		clock:             clock,
		defaultUsageLimit: defaultUsageLimit,
	}
}

// VoucherInput 兑换券表单（草稿），价格保持原始文本
type VoucherInput struct {
	ID               *int64                `json:"id,omitempty"`
	Name             string                `json:"name"`
	PurchasePrice    string                `json:"purchase_price"`
	ExpirationDate   models.Date           `json:"expiration_date"`
	Status           string                `json:"status"`
	RedeemedAt       *models.Date          `json:"redeemed_at,omitempty"`
	Film             string                `json:"film"`
	Location         string                `json:"location"`
	OrderNumber      string                `json:"order_number"`
	TermsText        string                `json:"terms_text"`
	UsageCount       int                   `json:"usage_count"`
	UsageLimit       int                   `json:"usage_limit"`
	SinglePersonOnly bool                  `json:"single_person_only"`
	Redemptions      models.RedemptionList `json:"redemptions"`
}

// NewVoucherInput 新建表单的默认值
func (s *VoucherService) NewVoucherInput() VoucherInput {
	limit := constants.DefaultVoucherUsageLimit
	if s != nil {
		limit = s.defaultUsageLimit
	}
	return VoucherInput{
		Status:      constants.VoucherStatusValid,
		UsageCount:  0,
		UsageLimit:  limit,
		Redemptions: models.RedemptionList{},
	}
}

// VoucherInputFromModel 将已提交的兑换券载入表单
func VoucherInputFromModel(voucher *models.Voucher) VoucherInput {
	id := voucher.ID
	input := VoucherInput{
		ID:               &id,
		Name:             voucher.Name,
		PurchasePrice:    voucher.PurchasePrice.String(),
		ExpirationDate:   voucher.ExpirationDate,
		Status:           voucher.Status,
		TermsText:        voucher.TermsText,
		UsageCount:       voucher.UsageCount,
		UsageLimit:       voucher.UsageLimit,
		SinglePersonOnly: voucher.SinglePersonOnly,
		Redemptions:      voucher.Redemptions.Clone(),
	}
	if voucher.RedeemedAt != nil {
		redeemedAt := *voucher.RedeemedAt
		input.RedeemedAt = &redeemedAt
	}
	if voucher.Film != nil {
		input.Film = *voucher.Film
	}
	if voucher.Location != nil {
		input.Location = *voucher.Location
	}
	if voucher.OrderNumber != nil {
		input.OrderNumber = *voucher.OrderNumber
	}
	if input.Redemptions == nil {
		input.Redemptions = models.RedemptionList{}
	}
	return input
}

// Get 获取兑换券
func (s *VoucherService) Get(id int64) (*models.Voucher, error) {
	if s == nil || s.repo == nil {
		return nil, ErrVoucherFetchFailed
	}
	voucher, err := s.repo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVoucherFetchFailed, err)
	}
	if voucher == nil {
		return nil, ErrVoucherNotFound
	}
	return voucher, nil
}

// List 分页查询兑换券
func (s *VoucherService) List(filter repository.VoucherListFilter) ([]models.Voucher, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, ErrVoucherFetchFailed
	}
	vouchers, total, err := s.repo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrVoucherFetchFailed, err)
	}
	return vouchers, total, nil
}

// ListAll 查询全部兑换券
func (s *VoucherService) ListAll() ([]models.Voucher, error) {
	if s == nil || s.repo == nil {
		return nil, ErrVoucherFetchFailed
	}
	vouchers, err := s.repo.ListAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVoucherFetchFailed, err)
	}
	return vouchers, nil
}

// Create 新增兑换券，未指定 ID 时按当前时间分配
func (s *VoucherService) Create(input VoucherInput) (*models.Voucher, error) {
	if s == nil || s.repo == nil {
		return nil, ErrVoucherSaveFailed
	}
	if err := validateVoucherInput(input); err != nil {
		return nil, err
	}

	var id int64
	if input.ID != nil && *input.ID > 0 {
		exists, err := s.repo.Exists(*input.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrVoucherSaveFailed, err)
		}
		if exists {
			return nil, ErrVoucherExists
		}
		id = *input.ID
	} else {
		allocated, err := s.allocateID()
		if err != nil {
			return nil, err
		}
		id = allocated
	}

	voucher := buildVoucher(id, input)
	if err := s.repo.Create(voucher); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVoucherSaveFailed, err)
	}
	logger.Infow("voucher_created", "voucher_id", voucher.ID, "name", voucher.Name)
	return voucher, nil
}

// Update 整条覆盖兑换券；目标不存在时静默忽略并返回 nil
func (s *VoucherService) Update(id int64, input VoucherInput) (*models.Voucher, error) {
	if s == nil || s.repo == nil {
		return nil, ErrVoucherSaveFailed
	}
	if err := validateVoucherInput(input); err != nil {
		return nil, err
	}
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVoucherFetchFailed, err)
	}
	if existing == nil {
		logger.Debugw("voucher_update_target_missing", "voucher_id", id)
		return nil, nil
	}

	voucher := buildVoucher(id, input)
	voucher.CreatedAt = existing.CreatedAt
	if err := s.repo.Replace(voucher); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVoucherSaveFailed, err)
	}
	logger.Infow("voucher_updated", "voucher_id", id, "status", voucher.Status, "usage_count", voucher.UsageCount)
	return voucher, nil
}

// RequestDelete 登记删除意图，返回确认令牌
func (s *VoucherService) RequestDelete(id int64) (Confirmation, error) {
	voucher, err := s.Get(id)
	if err != nil {
		return Confirmation{}, err
	}
	return s.confirmations.Request(ActionDeleteVoucher, strconv.FormatInt(voucher.ID, 10), voucher.Name), nil
}

// ConfirmDelete 凭令牌执行删除（不可撤销）
func (s *VoucherService) ConfirmDelete(token string) error {
	if s == nil || s.repo == nil {
		return ErrVoucherDeleteFailed
	}
	item, err := s.confirmations.Take(token, ActionDeleteVoucher)
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(item.Target, 10, 64)
	if err != nil {
		return ErrConfirmationNotFound
	}
	affected, err := s.repo.Delete(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVoucherDeleteFailed, err)
	}
	if affected == 0 {
		return ErrVoucherNotFound
	}
	logger.Infow("voucher_deleted", "voucher_id", id)
	return nil
}

// CancelConfirmation 放弃任意待确认操作
func (s *VoucherService) CancelConfirmation(token string) bool {
	if s == nil {
		return false
	}
	return s.confirmations.Cancel(token)
}

// Confirmations 返回共享的确认登记表
func (s *VoucherService) Confirmations() *Confirmations {
	return s.confirmations
}

// Clock 返回服务使用的时钟
func (s *VoucherService) Clock() Clock {
	return s.clock
}

func (s *VoucherService) allocateID() (int64, error) {
	id := s.clock.Current().UnixMilli()
	for {
		exists, err := s.repo.Exists(id)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrVoucherSaveFailed, err)
		}
		if !exists {
			return id, nil
		}
		id++
	}
}

func validateVoucherInput(input VoucherInput) error {
	if input.ExpirationDate.IsZero() {
		return validationError("expiration_date", MessageExpirationRequired)
	}
	if input.UsageLimit < 1 {
		return validationError("usage_limit", MessageUsageLimitMinimum)
	}
	if input.UsageCount < 0 {
		return validationError("usage_count", MessageUsageCountNegative)
	}
	if !IsVoucherStatus(input.Status) {
		return validationError("status", MessageStatusInvalid)
	}
	return nil
}

// IsVoucherStatus 判断是否为合法的存储状态
func IsVoucherStatus(status string) bool {
	switch status {
	case constants.VoucherStatusValid, constants.VoucherStatusPartiallyRedeemed, constants.VoucherStatusFullyRedeemed:
		return true
	default:
		return false
	}
}

func buildVoucher(id int64, input VoucherInput) *models.Voucher {
	voucher := &models.Voucher{
		ID:               id,
		Name:             strings.TrimSpace(input.Name),
		PurchasePrice:    models.ParseMoneyLenient(input.PurchasePrice),
		ExpirationDate:   input.ExpirationDate,
		Status:           input.Status,
		Film:             optionalText(input.Film),
		Location:         optionalText(input.Location),
		OrderNumber:      optionalText(input.OrderNumber),
		TermsText:        strings.TrimSpace(input.TermsText),
		UsageCount:       input.UsageCount,
		UsageLimit:       input.UsageLimit,
		SinglePersonOnly: input.SinglePersonOnly,
		Redemptions:      input.Redemptions.Clone(),
	}
	if input.RedeemedAt != nil && !input.RedeemedAt.IsZero() {
		redeemedAt := *input.RedeemedAt
		voucher.RedeemedAt = &redeemedAt
	}
	if voucher.Redemptions == nil {
		voucher.Redemptions = models.RedemptionList{}
	}
	return voucher
}

func optionalText(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
