package models

import (
	"time"
)

// Voucher 电影兑换券（Gutschein）
type Voucher struct {
	ID               int64          `gorm:"primaryKey;autoIncrement:false" json:"id"`                      // 主键（按创建时间毫秒生成）
	Name             string         `gorm:"type:varchar(200);not null" json:"name"`                        // 名称
	PurchasePrice    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"purchase_price"`   // 购买价格
	ExpirationDate   Date           `gorm:"type:date;index" json:"expiration_date"`                        // 过期日期
	Status           string         `gorm:"type:varchar(32);index;not null;default:'valid'" json:"status"` // 状态
	RedeemedAt       *Date          `gorm:"type:date" json:"redeemed_at,omitempty"`                        // 全部兑换日期
	Film             *string        `gorm:"type:varchar(200)" json:"film,omitempty"`                       // 最近观看影片（历史字段）
	Location         *string        `gorm:"type:varchar(200)" json:"location,omitempty"`                   // 最近观影地点（历史字段）
	OrderNumber      *string        `gorm:"type:varchar(120)" json:"order_number,omitempty"`               // 订单号
	TermsText        string         `gorm:"type:text" json:"terms_text"`                                   // 使用条款
	UsageCount       int            `gorm:"not null;default:0" json:"usage_count"`                         // 已用人次
	UsageLimit       int            `gorm:"not null;default:1" json:"usage_limit"`                         // 可用人次上限
	SinglePersonOnly bool           `gorm:"not null;default:false" json:"single_person_only"`              // 每次仅限一人
	Redemptions      RedemptionList `gorm:"type:json" json:"redemptions"`                                  // 兑换记录（按录入顺序）
	CreatedAt        time.Time      `json:"created_at"`                                                    // 创建时间
	UpdatedAt        time.Time      `json:"updated_at"`                                                    // 更新时间
}

// TableName 指定表名
func (Voucher) TableName() string {
	return "vouchers"
}

// Clone 深拷贝兑换券，草稿与已提交数据互不共享
func (v *Voucher) Clone() *Voucher {
	if v == nil {
		return nil
	}
	cloned := *v
	cloned.RedeemedAt = cloneDate(v.RedeemedAt)
	cloned.Film = cloneString(v.Film)
	cloned.Location = cloneString(v.Location)
	cloned.OrderNumber = cloneString(v.OrderNumber)
	cloned.Redemptions = v.Redemptions.Clone()
	return &cloned
}

// RedemptionAttendeeTotal 按兑换记录累加人次
func (v *Voucher) RedemptionAttendeeTotal() int {
	if v == nil {
		return 0
	}
	total := 0
	for _, item := range v.Redemptions {
		total += item.EffectiveAttendeeCount()
	}
	return total
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func cloneDate(value *Date) *Date {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
