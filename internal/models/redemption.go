package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
)

// Redemption 一次观影兑换记录（Einlösung）
type Redemption struct {
	Date          Date    `json:"date"`                     // 放映日期
	Time          string  `json:"time"`                     // 放映时间 HH:MM
	Film          string  `json:"film"`                     // 影片名称
	Location      *string `json:"location,omitempty"`       // 影院名称（仅保存名称副本）
	AttendeeCount int     `json:"attendee_count"`           // 本次人次
	VoucherRefID  *string `json:"voucher_ref_id,omitempty"` // 外部券号，可能包含逗号分隔的多个编号
}

// EffectiveAttendeeCount 返回有效人次，缺省按 1 计
func (r Redemption) EffectiveAttendeeCount() int {
	if r.AttendeeCount <= 0 {
		return 1
	}
	return r.AttendeeCount
}

// LocationName 返回影院名称，缺省为空串
func (r Redemption) LocationName() string {
	if r.Location == nil {
		return ""
	}
	return *r.Location
}

// RefID 返回外部券号，缺省为空串
func (r Redemption) RefID() string {
	if r.VoucherRefID == nil {
		return ""
	}
	return *r.VoucherRefID
}

// RedemptionList 兑换记录列表（JSON 列存储）
type RedemptionList []Redemption

// Clone 深拷贝
func (l RedemptionList) Clone() RedemptionList {
	if l == nil {
		return nil
	}
	cloned := make(RedemptionList, len(l))
	for i, item := range l {
		item.Location = cloneString(item.Location)
		item.VoucherRefID = cloneString(item.VoucherRefID)
		cloned[i] = item
	}
	return cloned
}

// Value 用于数据库写入
func (l RedemptionList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	payload, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(payload), nil
}

// Scan 用于数据库读取
func (l *RedemptionList) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*l = RedemptionList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("unsupported redemption list value")
	}
	if strings.TrimSpace(string(raw)) == "" {
		*l = RedemptionList{}
		return nil
	}
	var items []Redemption
	if err := json.Unmarshal(raw, &items); err != nil {
		return err
	}
	*l = items
	return nil
}
