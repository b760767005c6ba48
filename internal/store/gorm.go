package store

import (
	"context"
	"errors"
	"fmt"

	"shortlink-service/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore 基于 gorm 的存储实现, 支持 mysql / postgres / sqlite
type GormStore struct {
	db *gorm.DB
}

// NewGormStore 创建 GormStore
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Get(ctx context.Context, code string) (*model.ShortLink, error) {
	var link model.ShortLink
	err := s.db.WithContext(ctx).Where("code = ?", code).Take(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询短链接失败: %w", err)
	}
	return &link, nil
}

func (s *GormStore) PutIfAbsent(ctx context.Context, link *model.ShortLink) error {
	// 主键冲突时什么都不做, 通过影响行数判断是否已存在
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(link)
	if res.Error != nil {
		return fmt.Errorf("写入短链接失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (s *GormStore) IncrementCounter(ctx context.Context, code, field string, delta int64) error {
	if err := CheckCounter(field, delta); err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(&model.ShortLink{}).
		Where("code = ?", code).
		UpdateColumn(field, gorm.Expr(field+" + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("更新计数失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) QueryByOwner(ctx context.Context, ownerID string, page Page) ([]model.ShortLink, string, error) {
	q := s.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if page.Cursor != "" {
		c, err := DecodeCursor(page.Cursor)
		if err != nil {
			return nil, "", err
		}
		q = q.Where("created_at < ? OR (created_at = ? AND code < ?)", c.CreatedAt, c.CreatedAt, c.Code)
	}
	q = q.Order("created_at DESC").Order("code DESC")
	if page.Limit > 0 {
		q = q.Limit(page.Limit + 1)
	}

	var links []model.ShortLink
	if err := q.Find(&links).Error; err != nil {
		return nil, "", fmt.Errorf("查询所有者短链接失败: %w", err)
	}

	var next string
	if page.Limit > 0 && len(links) > page.Limit {
		links = links[:page.Limit]
		next = EncodeCursor(&links[len(links)-1])
	}
	return links, next, nil
}

func (s *GormStore) SetActive(ctx context.Context, code string, active bool) error {
	res := s.db.WithContext(ctx).Model(&model.ShortLink{}).
		Where("code = ?", code).
		UpdateColumn("active", active)
	if res.Error != nil {
		return fmt.Errorf("更新短链接状态失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// mysql 在值未变化时同样返回 0 行, 需要再确认一次记录是否存在
		if _, err := s.Get(ctx, code); err != nil {
			return err
		}
	}
	return nil
}

func (s *GormStore) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	table := func() *gorm.DB { return s.db.WithContext(ctx).Model(&model.ShortLink{}) }
	if err := table().Count(&stats.TotalLinks).Error; err != nil {
		return Stats{}, fmt.Errorf("统计短链接失败: %w", err)
	}
	if err := table().Where("active = ?", true).Count(&stats.ActiveLinks).Error; err != nil {
		return Stats{}, fmt.Errorf("统计启用短链接失败: %w", err)
	}
	if err := table().Select("COALESCE(SUM(click_count), 0)").Scan(&stats.TotalClicks).Error; err != nil {
		return Stats{}, fmt.Errorf("统计点击数失败: %w", err)
	}
	return stats, nil
}
