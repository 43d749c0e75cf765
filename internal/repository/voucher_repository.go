package repository

import (
	"errors"
	"strings"

	"github.com/kinogutschein/internal/models"

	"gorm.io/gorm"
)

// VoucherRepository 兑换券仓储接口
type VoucherRepository interface {
	Create(voucher *models.Voucher) error
	GetByID(id int64) (*models.Voucher, error)
	Exists(id int64) (bool, error)
	List(filter VoucherListFilter) ([]models.Voucher, int64, error)
	ListAll() ([]models.Voucher, error)
	Replace(voucher *models.Voucher) error
	Delete(id int64) (int64, error)
	Count() (int64, error)
	WithTx(tx *gorm.DB) *GormVoucherRepository
}

// GormVoucherRepository GORM 兑换券仓储实现
type GormVoucherRepository struct {
	db *gorm.DB
}

// NewVoucherRepository 创建兑换券仓储
func NewVoucherRepository(db *gorm.DB) *GormVoucherRepository {
	return &GormVoucherRepository{db: db}
}

// WithTx 绑定事务
func (r *GormVoucherRepository) WithTx(tx *gorm.DB) *GormVoucherRepository {
	if tx == nil {
		return r
	}
	return &GormVoucherRepository{db: tx}
}

// Create 新增兑换券
func (r *GormVoucherRepository) Create(voucher *models.Voucher) error {
	if voucher == nil || voucher.ID == 0 {
		return errors.New("invalid voucher")
	}
	if voucher.Redemptions == nil {
		voucher.Redemptions = models.RedemptionList{}
	}
	return r.db.Create(voucher).Error
}

// GetByID 根据 ID 查询兑换券
func (r *GormVoucherRepository) GetByID(id int64) (*models.Voucher, error) {
	if id == 0 {
		return nil, nil
	}
	var voucher models.Voucher
	if err := r.db.First(&voucher, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &voucher, nil
}

// Exists 判断 ID 是否已被占用
func (r *GormVoucherRepository) Exists(id int64) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Voucher{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List 分页查询兑换券，按录入顺序排列
func (r *GormVoucherRepository) List(filter VoucherListFilter) ([]models.Voucher, int64, error) {
	keyword := strings.TrimSpace(filter.Keyword)
	if keyword != "" && !supportsUnicodeLower(dbDialectName(r.db)) {
		return r.listMatchingInMemory(filter, keyword)
	}

	query := r.db.Model(&models.Voucher{})
	if keyword != "" {
		like := "%" + strings.ToLower(keyword) + "%"
		condition, argCount := buildKeywordLikeCondition(r.db, []string{"name", "order_number"}, []string{"redemptions"})
		query = query.Where(condition, repeatLikeArgs(like, argCount)...)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	var vouchers []models.Voucher
	if err := query.Order("created_at asc, id asc").Find(&vouchers).Error; err != nil {
		return nil, 0, err
	}
	return vouchers, total, nil
}

// listMatchingInMemory sqlite 的 LOWER/LIKE 只处理 ASCII，关键字在内存中按 Unicode 规则匹配
func (r *GormVoucherRepository) listMatchingInMemory(filter VoucherListFilter, keyword string) ([]models.Voucher, int64, error) {
	query := r.db.Model(&models.Voucher{})
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	var candidates []models.Voucher
	if err := query.Order("created_at asc, id asc").Find(&candidates).Error; err != nil {
		return nil, 0, err
	}

	needle := strings.ToLower(keyword)
	matched := make([]models.Voucher, 0, len(candidates))
	for _, voucher := range candidates {
		if voucherMatchesKeyword(voucher, needle) {
			matched = append(matched, voucher)
		}
	}
	return paginateSlice(matched, filter.Page, filter.PageSize), int64(len(matched)), nil
}

// voucherMatchesKeyword 名称、订单号、兑换记录的影片与外部券号做不区分大小写的子串匹配
func voucherMatchesKeyword(voucher models.Voucher, needle string) bool {
	fields := []string{voucher.Name}
	if voucher.OrderNumber != nil {
		fields = append(fields, *voucher.OrderNumber)
	}
	for _, item := range voucher.Redemptions {
		fields = append(fields, item.Film, item.RefID())
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// ListAll 查询全部兑换券（派生视图需要完整集合）
func (r *GormVoucherRepository) ListAll() ([]models.Voucher, error) {
	var vouchers []models.Voucher
	if err := r.db.Order("created_at asc, id asc").Find(&vouchers).Error; err != nil {
		return nil, err
	}
	return vouchers, nil
}

// Replace 整条覆盖兑换券（含兑换记录）
func (r *GormVoucherRepository) Replace(voucher *models.Voucher) error {
	if voucher == nil || voucher.ID == 0 {
		return errors.New("invalid voucher")
	}
	if voucher.Redemptions == nil {
		voucher.Redemptions = models.RedemptionList{}
	}
	return r.db.Model(&models.Voucher{ID: voucher.ID}).
		Select("*").
		Omit("id", "created_at").
		Updates(voucher).Error
}

// Delete 删除兑换券，返回受影响行数
func (r *GormVoucherRepository) Delete(id int64) (int64, error) {
	result := r.db.Delete(&models.Voucher{}, id)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Count 统计兑换券数量
func (r *GormVoucherRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&models.Voucher{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
