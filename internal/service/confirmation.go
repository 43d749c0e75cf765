package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// 需要二次确认的破坏性操作
const (
	ActionDeleteVoucher    = "delete_voucher"
	ActionRemoveRedemption = "remove_redemption"
	ActionRemoveLocation   = "remove_location"
)

const defaultConfirmationTTL = 5 * time.Minute

// Confirmation 待确认的操作意图
type Confirmation struct {
	Token       string
	Action      string
	Target      string
	Fingerprint string
	ExpiresAt   time.Time
}

// Confirmations 两段式确认登记表
// Request 返回令牌，Take 消费令牌后调用方才执行破坏性操作
type Confirmations struct {
	mu      sync.Mutex
	ttl     time.Duration
	clock   Clock
	pending map[string]Confirmation
}

// NewConfirmations 创建确认登记表
func NewConfirmations(ttl time.Duration, clock Clock) *Confirmations {
	if ttl <= 0 {
		ttl = defaultConfirmationTTL
	}
	return &Confirmations{
		ttl:     ttl,
		clock:   clock,
		pending: make(map[string]Confirmation),
	}
}

// Request 登记待确认操作
func (c *Confirmations) Request(action, target, fingerprint string) Confirmation {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Current()
	c.purgeExpiredLocked(now)
	item := Confirmation{
		Token:       uuid.NewString(),
		Action:      action,
		Target:      target,
		Fingerprint: fingerprint,
		ExpiresAt:   now.Add(c.ttl),
	}
	c.pending[item.Token] = item
	return item
}

// Take 消费令牌；动作不匹配时令牌保留
func (c *Confirmations) Take(token, action string) (Confirmation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Current()
	c.purgeExpiredLocked(now)
	item, ok := c.pending[token]
	if !ok {
		return Confirmation{}, ErrConfirmationNotFound
	}
	if item.Action != action {
		return Confirmation{}, ErrConfirmationMismatch
	}
	delete(c.pending, token)
	return item, nil
}

// Cancel 放弃待确认操作，等同于用户拒绝
func (c *Confirmations) Cancel(token string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.pending[token]; !ok {
		return false
	}
	delete(c.pending, token)
	return true
}

// Pending 当前待确认数量
func (c *Confirmations) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.purgeExpiredLocked(c.clock.Current())
	return len(c.pending)
}

func (c *Confirmations) purgeExpiredLocked(now time.Time) {
	for token, item := range c.pending {
		if !now.Before(item.ExpiresAt) {
			delete(c.pending, token)
		}
	}
}
