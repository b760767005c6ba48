package model

import (
	"time"
)

// ShortLink 短链接模型
// 除 ClickCount 与 Active 外, 记录创建后不再修改
type ShortLink struct {
	Code       string     `gorm:"primaryKey;size:30" json:"code"`
	TargetURL  string     `gorm:"type:text;not null" json:"target_url"`
	OwnerID    *string    `gorm:"size:64;index:idx_short_links_owner_created,priority:1" json:"owner_id,omitempty"`
	CreatedAt  time.Time  `gorm:"not null;index:idx_short_links_owner_created,priority:2" json:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at"`
	ClickCount int64      `gorm:"not null;default:0" json:"click_count"`
	Active     bool       `gorm:"not null;default:true" json:"active"`
}

// TableName 指定表名
func (ShortLink) TableName() string {
	return "short_links"
}

// Owner 返回所有者 ID, 匿名创建时为空字符串
func (l *ShortLink) Owner() string {
	if l.OwnerID == nil {
		return ""
	}
	return *l.OwnerID
}

// IsExpired 判断在 now 时刻是否已过期, ExpiresAt 为空表示永不过期
func (l *ShortLink) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && !l.ExpiresAt.After(now)
}
