package registry

import (
	"errors"
	"fmt"

	"shortlink-service/internal/shortcode"
)

// 客户端输入错误 (4xx)
var (
	ErrInvalidURL         = errors.New("invalid target_url: must be an absolute http or https URL")
	ErrInvalidAliasFormat = shortcode.ErrInvalidAlias
	ErrAliasAlreadyExists = shortcode.ErrAliasExists
	ErrInvalidExpiration  = errors.New(`invalid expiration: expected "never" or "N days"`)
	ErrInvalidOwner       = errors.New("invalid owner_id: at most 64 characters")
	ErrInvalidCursor      = errors.New("invalid cursor")
)

// 资源状态错误
var (
	ErrNotFound  = errors.New("short link not found")
	ErrGone      = errors.New("short link has expired")
	ErrForbidden = errors.New("not allowed to modify this short link")
)

// 基础设施错误 (5xx)
var (
	ErrCodeSpaceExhausted = shortcode.ErrCodeSpaceExhausted
	ErrCodeGeneration     = shortcode.ErrRandomSource
	ErrStoreUnavailable   = errors.New("store unavailable")
)

// unavailable 包装底层存储错误, 调用方通过 errors.Is(err, ErrStoreUnavailable) 判断
func unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
