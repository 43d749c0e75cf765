package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout 日历日期格式
const DateLayout = "2006-01-02"

// Date 日历日期（不含时分秒，统一为 UTC 零点）
type Date struct {
	time.Time
}

// NewDate 按年月日创建日期
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf 截取时间点所在的日历日期（按时间点自身时区）
func DateOf(t time.Time) Date {
	year, month, day := t.Date()
	return NewDate(year, month, day)
}

// ParseDate 解析 YYYY-MM-DD
func ParseDate(raw string) (Date, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Date{}, fmt.Errorf("empty date")
	}
	parsed, err := time.Parse(DateLayout, trimmed)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: parsed}, nil
}

// DaysUntil 返回从 d 到 other 相差的天数（other 晚于 d 时为正）
func (d Date) DaysUntil(other Date) int {
	return int(other.Time.Sub(d.Time).Hours() / 24)
}

// Before 判断是否早于另一日期
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// After 判断是否晚于另一日期
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

// String 返回 YYYY-MM-DD，零值返回空串
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalJSON 输出 YYYY-MM-DD，零值输出 null
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON 解析 YYYY-MM-DD，空串与 null 视为零值
func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if strings.TrimSpace(raw) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value 用于数据库写入
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// Scan 用于数据库读取
func (d *Date) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = DateOf(v)
		return nil
	case string:
		return d.scanText(v)
	case []byte:
		return d.scanText(string(v))
	default:
		return fmt.Errorf("unsupported date value type: %T", value)
	}
}

func (d *Date) scanText(raw string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		*d = Date{}
		return nil
	}
	if len(trimmed) > len(DateLayout) {
		trimmed = trimmed[:len(DateLayout)]
	}
	parsed, err := ParseDate(trimmed)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
