package service

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/kinogutschein/internal/logger"
	"github.com/kinogutschein/internal/models"
	"github.com/kinogutschein/internal/repository"
)

// LocationService 影院地点服务，地点列表整体存放在单个键下
type LocationService struct {
	store         repository.KeyValueStore
	key           string
	clock         Clock
	confirmations *Confirmations
}

// NewLocationService 创建地点服务
func NewLocationService(store repository.KeyValueStore, key string, clock Clock, confirmations *Confirmations) *LocationService {
	if confirmations == nil {
		confirmations = NewConfirmations(0, clock)
	}
	return &LocationService{
		store:         store,
		key:           key,
		clock:         clock,
		confirmations: confirmations,
	}
}

// Mount 读取一次地点列表并返回选择器实例
// 无存储值时写入默认影院；存储值无法解析时丢弃并重新写入默认值
func (s *LocationService) Mount(ctx context.Context) (*LocationPicker, error) {
	if s == nil || s.store == nil {
		return nil, ErrLocationStorageFailed
	}
	raw, ok, err := s.store.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLocationStorageFailed, err)
	}

	if ok && raw != "" {
		items, decodeErr := models.DecodeLocations(raw)
		if decodeErr == nil {
			return &LocationPicker{service: s, items: items}, nil
		}
		logger.Warnw("location_list_parse_failed", "key", s.key, "error", decodeErr)
	}

	defaults := models.DefaultLocations(s.clock.Current().UTC())
	if err := s.persist(ctx, defaults); err != nil {
		return nil, err
	}
	logger.Infow("location_list_seeded", "key", s.key, "count", len(defaults))
	return &LocationPicker{service: s, items: defaults}, nil
}

func (s *LocationService) persist(ctx context.Context, items []models.Location) error {
	payload, err := models.EncodeLocations(items)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLocationStorageFailed, err)
	}
	if err := s.store.Set(ctx, s.key, payload); err != nil {
		return fmt.Errorf("%w: %v", ErrLocationStorageFailed, err)
	}
	return nil
}

// LocationPicker 地点选择器实例，持有挂载时读取的内存列表
// 不同实例之间互不感知新增，需重新 Mount 才能看到
type LocationPicker struct {
	mu      sync.Mutex
	service *LocationService
	items   []models.Location
}

// Locations 返回当前列表副本
func (p *LocationPicker) Locations() []models.Location {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.items)
}

// ListMatching 名称不区分大小写的子串匹配，每次迭代都会重新计算
func (p *LocationPicker) ListMatching(query string) iter.Seq[models.Location] {
	needle := strings.ToLower(query)
	return func(yield func(models.Location) bool) {
		for _, item := range p.Locations() {
			if !strings.Contains(strings.ToLower(item.Name), needle) {
				continue
			}
			if !yield(item) {
				return
			}
		}
	}
}

// Add 新增地点并整体写入存储；名称为空时静默忽略
// 同名（不区分大小写）地点已存在时直接返回已有地点
func (p *LocationPicker) Add(ctx context.Context, name, address string) (*models.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, item := range p.items {
		if strings.EqualFold(item.Name, name) {
			existing := item
			return &existing, nil
		}
	}

	now := p.service.clock.Current()
	location := models.Location{
		ID:        p.nextIDLocked(now.UnixMilli()),
		Name:      name,
		Address:   optionalText(address),
		CreatedAt: now.UTC(),
	}
	updated := append(slices.Clone(p.items), location)
	if err := p.service.persist(ctx, updated); err != nil {
		return nil, err
	}
	p.items = updated
	logger.Infow("location_added", "location_id", location.ID, "name", location.Name)
	return &location, nil
}

// RequestRemove 登记删除地点的意图
func (p *LocationPicker) RequestRemove(id string) (Confirmation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := slices.IndexFunc(p.items, func(item models.Location) bool { return item.ID == id })
	if idx < 0 {
		return Confirmation{}, ErrLocationNotFound
	}
	return p.service.confirmations.Request(ActionRemoveLocation, id, p.items[idx].Name), nil
}

// ConfirmRemove 凭令牌删除地点并整体写入存储
func (p *LocationPicker) ConfirmRemove(ctx context.Context, token string) error {
	item, err := p.service.confirmations.Take(token, ActionRemoveLocation)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	updated := slices.DeleteFunc(slices.Clone(p.items), func(loc models.Location) bool {
		return loc.ID == item.Target
	})
	if len(updated) == len(p.items) {
		return ErrLocationNotFound
	}
	if err := p.service.persist(ctx, updated); err != nil {
		return err
	}
	p.items = updated
	logger.Infow("location_removed", "location_id", item.Target)
	return nil
}

// Select 选择地点或自由输入，统一交回名称字符串
func (p *LocationPicker) Select(location models.Location) string {
	return location.Name
}

// ResolveLocationName 自由输入的地点名称
func ResolveLocationName(text string) string {
	return strings.TrimSpace(text)
}

func (p *LocationPicker) nextIDLocked(seed int64) string {
	id := seed
	for {
		candidate := strconv.FormatInt(id, 10)
		taken := slices.ContainsFunc(p.items, func(item models.Location) bool { return item.ID == candidate })
		if !taken {
			return candidate
		}
		id++
	}
}
