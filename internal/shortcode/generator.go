package shortcode

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"regexp"

	"shortlink-service/internal/store"

	"go.uber.org/zap"
)

const (
	// Charset 包含用于生成短码的所有字符
	Charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// CodeLength 是生成的短码的长度
	CodeLength = 6
	// MaxAttempts 是随机短码冲突时的最大尝试次数
	MaxAttempts = 10
)

var aliasPattern = regexp.MustCompile(`^[A-Za-z0-9-]{2,30}$`)

// reservedAliases 与服务自身的顶层路由同名, 用作别名时 /:code 无法访问
var reservedAliases = map[string]struct{}{
	"api":     {},
	"auth":    {},
	"health":  {},
	"links":   {},
	"metrics": {},
	"owners":  {},
	"swagger": {},
}

var (
	ErrInvalidAlias       = errors.New("invalid alias format: expected 2-30 letters, digits or hyphens")
	ErrAliasExists        = errors.New("alias already exists")
	ErrCodeSpaceExhausted = errors.New("code space exhausted: could not allocate a unique code")
	ErrRandomSource       = errors.New("random source failed")

	ErrReservedAlias = fmt.Errorf("%w: alias is reserved", ErrInvalidAlias)
)

// ClaimFunc 原子地占用 code, 已被占用时必须返回 store.ErrAlreadyExists
type ClaimFunc func(ctx context.Context, code string) error

// Generator 负责校验别名并分配唯一短码
type Generator struct {
	random      io.Reader
	maxAttempts int
	logger      *zap.SugaredLogger
}

// Option 修改 Generator 的默认行为
type Option func(*Generator)

// WithRandom 替换随机源, 默认为 crypto/rand
func WithRandom(r io.Reader) Option {
	return func(g *Generator) { g.random = r }
}

// WithMaxAttempts 修改最大尝试次数
func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// NewGenerator 创建一个新的短码生成器实例
func NewGenerator(logger *zap.SugaredLogger, opts ...Option) *Generator {
	g := &Generator{
		random:      rand.Reader,
		maxAttempts: MaxAttempts,
		logger:      logger.Named("shortcode_generator"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ValidateAlias 检查别名格式
func ValidateAlias(alias string) error {
	if !aliasPattern.MatchString(alias) {
		return ErrInvalidAlias
	}
	if _, ok := reservedAliases[alias]; ok {
		return ErrReservedAlias
	}
	return nil
}

// Allocate 分配短码并通过 claim 占用
// 指定别名时只尝试一次; 否则随机生成, 冲突时重新生成, 最多 maxAttempts 次
func (g *Generator) Allocate(ctx context.Context, alias string, claim ClaimFunc) (string, error) {
	if alias != "" {
		if err := ValidateAlias(alias); err != nil {
			return "", err
		}
		err := claim(ctx, alias)
		if errors.Is(err, store.ErrAlreadyExists) {
			return "", ErrAliasExists
		}
		if err != nil {
			return "", err
		}
		return alias, nil
	}

	for i := 0; i < g.maxAttempts; i++ {
		code, err := g.generateRandomString(CodeLength)
		if err != nil {
			return "", err
		}
		if _, ok := reservedAliases[code]; ok {
			continue
		}
		err = claim(ctx, code)
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, store.ErrAlreadyExists) {
			return "", err
		}
		g.logger.Debugf("短码冲突, 重新生成: code=%s attempt=%d", code, i+1)
	}
	g.logger.Warnf("已尝试%d次生成短码, 但均存在冲突", g.maxAttempts)
	return "", ErrCodeSpaceExhausted
}

// generateRandomString 使用加密安全的随机数生成器生成一个给定长度的字符串
func (g *Generator) generateRandomString(length int) (string, error) {
	b := make([]byte, length)
	limit := big.NewInt(int64(len(Charset)))
	for i := range b {
		num, err := rand.Int(g.random, limit)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrRandomSource, err)
		}
		b[i] = Charset[num.Int64()]
	}
	return string(b), nil
}
