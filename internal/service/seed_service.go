package service

import (
	"context"
	"fmt"

	"github.com/kinogutschein/internal/constants"
	"github.com/kinogutschein/internal/logger"
	"github.com/kinogutschein/internal/models"
	"github.com/kinogutschein/internal/repository"
)

// SeedService 示例数据写入
type SeedService struct {
	repo     repository.VoucherRepository
	settings repository.KeyValueStore
}

// NewSeedService 创建示例数据服务
func NewSeedService(repo repository.VoucherRepository, settings repository.KeyValueStore) *SeedService {
	return &SeedService{repo: repo, settings: settings}
}

// EnsureSeeded 首次启动时写入示例兑换券；之后即使集合被清空也不再写入
func (s *SeedService) EnsureSeeded(ctx context.Context) (int, error) {
	if s == nil || s.repo == nil || s.settings == nil {
		return 0, ErrVoucherSaveFailed
	}
	_, done, err := s.settings.Get(ctx, constants.SettingKeyVoucherSeeded)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrVoucherFetchFailed, err)
	}
	if done {
		return 0, nil
	}

	count, err := s.repo.Count()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrVoucherFetchFailed, err)
	}
	created := 0
	if count == 0 {
		for _, voucher := range models.ExampleVouchers() {
			item := voucher
			if err := s.repo.Create(&item); err != nil {
				return created, fmt.Errorf("%w: %v", ErrVoucherSaveFailed, err)
			}
			created++
		}
	}
	if err := s.settings.Set(ctx, constants.SettingKeyVoucherSeeded, "1"); err != nil {
		return created, fmt.Errorf("%w: %v", ErrVoucherSaveFailed, err)
	}
	if created > 0 {
		logger.Infow("voucher_examples_seeded", "count", created)
	}
	return created, nil
}

// Reseed 强制写入示例兑换券，已存在的同 ID 记录被整条覆盖
func (s *SeedService) Reseed(ctx context.Context) (int, error) {
	if s == nil || s.repo == nil || s.settings == nil {
		return 0, ErrVoucherSaveFailed
	}
	written := 0
	for _, voucher := range models.ExampleVouchers() {
		item := voucher
		exists, err := s.repo.Exists(item.ID)
		if err != nil {
			return written, fmt.Errorf("%w: %v", ErrVoucherFetchFailed, err)
		}
		if exists {
			err = s.repo.Replace(&item)
		} else {
			err = s.repo.Create(&item)
		}
		if err != nil {
			return written, fmt.Errorf("%w: %v", ErrVoucherSaveFailed, err)
		}
		written++
	}
	if err := s.settings.Set(ctx, constants.SettingKeyVoucherSeeded, "1"); err != nil {
		return written, fmt.Errorf("%w: %v", ErrVoucherSaveFailed, err)
	}
	logger.Infow("voucher_examples_reseeded", "count", written)
	return written, nil
}
