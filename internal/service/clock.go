package service

import (
	"time"

	"github.com/kinogutschein/internal/models"
)

// Clock 提供当前时间与所在时区的“今天”
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

// SystemClock 使用系统时间
func SystemClock(location *time.Location) Clock {
	return Clock{Now: time.Now, Location: location}
}

// FixedClock 固定时间（测试使用）
func FixedClock(at time.Time) Clock {
	return Clock{
		Now:      func() time.Time { return at },
		Location: at.Location(),
	}
}

// Current 当前时间
func (c Clock) Current() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	if c.Location != nil {
		return now().In(c.Location)
	}
	return now()
}

// Today 当前日历日期
func (c Clock) Today() models.Date {
	return models.DateOf(c.Current())
}
