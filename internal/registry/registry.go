package registry

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"shortlink-service/internal/metrics"
	"shortlink-service/internal/model"
	"shortlink-service/internal/shortcode"
	"shortlink-service/internal/store"

	"go.uber.org/zap"
)

// DefaultTimeout 是单次存储调用的默认超时
const DefaultTimeout = 5 * time.Second

// Registry 是短链接的业务核心: 创建, 解析, 按所有者列出
// 不持有任何进程内可变状态, 唯一的共享状态是 Store
type Registry struct {
	store     store.Store
	generator *shortcode.Generator
	baseURL   string
	timeout   time.Duration
	metrics   *metrics.Metrics
	logger    *zap.SugaredLogger
	now       func() time.Time

	// 进行中的点击计数
	clicks sync.WaitGroup
}

// Options 是 Registry 的可选配置
type Options struct {
	BaseURL string
	Timeout time.Duration
	Metrics *metrics.Metrics
	// Now 用于测试中固定时间, 默认为 time.Now
	Now func() time.Time
}

// New 创建 Registry
func New(st store.Store, generator *shortcode.Generator, logger *zap.SugaredLogger, opts Options) *Registry {
	r := &Registry{
		store:     st,
		generator: generator,
		baseURL:   strings.TrimSuffix(opts.BaseURL, "/"),
		timeout:   opts.Timeout,
		metrics:   opts.Metrics,
		logger:    logger.Named("registry"),
		now:       opts.Now,
	}
	if r.timeout <= 0 {
		r.timeout = DefaultTimeout
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// CreateRequest 创建短链接的输入
type CreateRequest struct {
	TargetURL  string
	Alias      string
	Expiration string
	OwnerID    string
}

// CreateResult 创建结果: 完整记录和对外的短链接
type CreateResult struct {
	Link     model.ShortLink
	ShortURL string
}

// Create 校验请求并写入一条新的短链接
// 所有校验都在写入之前完成; 短码通过 PutIfAbsent 原子占用
func (r *Registry) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	target, err := NormalizeURL(req.TargetURL)
	if err != nil {
		r.metrics.CreateFailed("invalid_url")
		return nil, err
	}
	expiration, err := ParseExpiration(req.Expiration)
	if err != nil {
		r.metrics.CreateFailed("invalid_expiration")
		return nil, err
	}
	if !validOwner(req.OwnerID) {
		r.metrics.CreateFailed("invalid_owner")
		return nil, ErrInvalidOwner
	}

	now := r.now().UTC()
	link := model.ShortLink{
		TargetURL: target,
		CreatedAt: now,
		ExpiresAt: expiration.ExpiresAt(now),
		Active:    true,
	}
	if req.OwnerID != "" {
		owner := req.OwnerID
		link.OwnerID = &owner
	}

	code, err := r.generator.Allocate(ctx, req.Alias, func(ctx context.Context, code string) error {
		link.Code = code
		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		return r.store.PutIfAbsent(callCtx, &link)
	})
	if err != nil {
		return nil, r.createError(err)
	}
	link.Code = code

	source := "random"
	if req.Alias != "" {
		source = "alias"
	}
	r.metrics.LinkCreated(source)
	r.logger.Infow("短链接已创建", "code", code, "owner_id", req.OwnerID, "source", source)

	return &CreateResult{Link: link, ShortURL: r.ShortURL(code)}, nil
}

func (r *Registry) createError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidAliasFormat):
		r.metrics.CreateFailed("invalid_alias")
		return err
	case errors.Is(err, ErrAliasAlreadyExists):
		r.metrics.CreateFailed("alias_exists")
		return err
	case errors.Is(err, ErrCodeSpaceExhausted):
		r.metrics.CreateFailed("code_space_exhausted")
		r.logger.Errorw("短码空间耗尽", "error", err)
		return err
	case errors.Is(err, ErrCodeGeneration):
		r.metrics.CreateFailed("random_source")
		r.logger.Errorw("随机数生成失败", "error", err)
		return err
	default:
		r.metrics.CreateFailed("store_unavailable")
		r.logger.Errorw("写入短链接失败", "error", err)
		return unavailable(err)
	}
}

// ShortURL 返回 code 对应的对外短链接
func (r *Registry) ShortURL(code string) string {
	return r.baseURL + "/" + code
}

// Resolve 返回可跳转的目标地址并记录一次点击
// 点击计数在后台完成, 失败只记录日志, 不影响跳转
func (r *Registry) Resolve(ctx context.Context, code string) (string, error) {
	link, err := r.lookup(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			r.metrics.Resolved("not_found")
		} else {
			r.metrics.Resolved("error")
		}
		return "", err
	}
	if link.IsExpired(r.now()) {
		r.metrics.Resolved("gone")
		return "", ErrGone
	}
	if !link.Active {
		r.metrics.Resolved("not_found")
		return "", ErrNotFound
	}

	r.recordClick(ctx, link.Code)
	r.metrics.Resolved("ok")
	return link.TargetURL, nil
}

func (r *Registry) recordClick(ctx context.Context, code string) {
	// 请求结束不应取消计数
	clickCtx := context.WithoutCancel(ctx)
	r.clicks.Add(1)
	go func() {
		defer r.clicks.Done()
		callCtx, cancel := context.WithTimeout(clickCtx, r.timeout)
		defer cancel()
		if err := r.store.IncrementCounter(callCtx, code, store.FieldClickCount, 1); err != nil {
			r.metrics.ClickIncrementFailed()
			r.logger.Warnw("点击计数失败, 已忽略", "code", code, "error", err)
		}
	}()
}

// Wait 等待所有进行中的点击计数结束, 用于优雅退出和测试
func (r *Registry) Wait() {
	r.clicks.Wait()
}

// lookup 按主键读取, 不合法的短码直接视为不存在
func (r *Registry) lookup(ctx context.Context, code string) (*model.ShortLink, error) {
	if shortcode.ValidateAlias(code) != nil {
		return nil, ErrNotFound
	}
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	link, err := r.store.Get(callCtx, code)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		r.logger.Errorw("读取短链接失败", "code", code, "error", err)
		return nil, unavailable(err)
	}
	return link, nil
}

// ListByOwner 按创建时间倒序返回某个所有者的短链接
// page.Limit <= 0 时返回全部; 返回的字符串是下一页游标
func (r *Registry) ListByOwner(ctx context.Context, ownerID string, page store.Page) ([]model.ShortLink, string, error) {
	if ownerID == "" || !validOwner(ownerID) {
		return nil, "", ErrInvalidOwner
	}
	if page.Limit < 0 {
		page.Limit = 0
	}
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	links, next, err := r.store.QueryByOwner(callCtx, ownerID, page)
	if errors.Is(err, store.ErrInvalidCursor) {
		return nil, "", ErrInvalidCursor
	}
	if err != nil {
		r.logger.Errorw("查询所有者短链接失败", "owner_id", ownerID, "error", err)
		return nil, "", unavailable(err)
	}
	return links, next, nil
}
