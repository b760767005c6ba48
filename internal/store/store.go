package store

import (
	"context"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"

	"shortlink-service/internal/model"
)

var (
	ErrNotFound       = errors.New("store: record not found")
	ErrAlreadyExists  = errors.New("store: record already exists")
	ErrInvalidCounter = errors.New("store: invalid counter update")
	ErrInvalidCursor  = errors.New("store: invalid cursor")
)

// FieldClickCount 是唯一允许原子自增的字段
const FieldClickCount = "click_count"

// Store 是注册服务对持久化层的全部要求
type Store interface {
	// Get 按主键读取, 不存在时返回 ErrNotFound
	Get(ctx context.Context, code string) (*model.ShortLink, error)
	// PutIfAbsent 原子地"不存在则创建", 主键已被占用 (无论是否启用) 时返回 ErrAlreadyExists
	PutIfAbsent(ctx context.Context, link *model.ShortLink) error
	// IncrementCounter 原子自增计数字段, 记录不存在时返回 ErrNotFound
	IncrementCounter(ctx context.Context, code, field string, delta int64) error
	// QueryByOwner 按 created_at 倒序返回某个所有者的记录, 以及下一页游标 (没有下一页时为空)
	QueryByOwner(ctx context.Context, ownerID string, page Page) ([]model.ShortLink, string, error)
	// SetActive 修改启用标记, 记录不存在时返回 ErrNotFound
	SetActive(ctx context.Context, code string, active bool) error
	// Stats 汇总统计
	Stats(ctx context.Context) (Stats, error)
}

// Page 分页参数, Limit <= 0 表示返回全部
type Page struct {
	Limit  int
	Cursor string
}

// Stats 全局统计
type Stats struct {
	TotalLinks  int64 `json:"total_links"`
	ActiveLinks int64 `json:"active_links"`
	TotalClicks int64 `json:"total_clicks"`
}

// Cursor 是分页游标的解码形式: 上一页最后一条记录的 (created_at, code)
type Cursor struct {
	CreatedAt time.Time
	Code      string
}

// EncodeCursor 将记录位置编码为不透明字符串
func EncodeCursor(link *model.ShortLink) string {
	raw := strconv.FormatInt(link.CreatedAt.UnixNano(), 10) + "|" + link.Code
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor 解析 EncodeCursor 生成的游标
func DecodeCursor(s string) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	nanos, code, ok := strings.Cut(string(raw), "|")
	if !ok || code == "" {
		return Cursor{}, ErrInvalidCursor
	}
	n, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	return Cursor{CreatedAt: time.Unix(0, n).UTC(), Code: code}, nil
}

// After 判断记录在倒序排列中是否位于游标之后
func (c Cursor) After(link *model.ShortLink) bool {
	if link.CreatedAt.Equal(c.CreatedAt) {
		return link.Code < c.Code
	}
	return link.CreatedAt.Before(c.CreatedAt)
}

// CheckCounter 校验自增参数: 只允许 click_count, 且只能增加
func CheckCounter(field string, delta int64) error {
	if field != FieldClickCount || delta <= 0 {
		return ErrInvalidCounter
	}
	return nil
}
