package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"shortlink-service/internal/middleware"
	"shortlink-service/internal/model"
	"shortlink-service/internal/registry"
	"shortlink-service/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	// NextCursorHeader 携带下一页的游标, 没有更多数据时不返回
	NextCursorHeader = "X-Next-Cursor"
	maxPageSize      = 1000
)

// ShortLinkHandler 处理器
type ShortLinkHandler struct {
	registry *registry.Registry
	db       *gorm.DB
	redis    *redis.Client
}

// NewShortLinkHandler 创建处理器实例, db 和 redis 只用于健康检查, redis 可以为 nil
func NewShortLinkHandler(reg *registry.Registry, db *gorm.DB, redisClient *redis.Client) *ShortLinkHandler {
	return &ShortLinkHandler{
		registry: reg,
		db:       db,
		redis:    redisClient,
	}
}

// ErrorResponse 错误响应, Field 指出出错的请求字段
type ErrorResponse struct {
	Error string `json:"error" example:"alias already exists"`
	Field string `json:"field,omitempty" example:"alias"`
}

// CreateShortLinkRequest 创建短链接的请求
type CreateShortLinkRequest struct {
	TargetURL  string `json:"target_url" example:"https://github.com/gin-gonic/gin"`
	Alias      string `json:"alias,omitempty" example:"gin"`
	Expiration string `json:"expiration,omitempty" example:"7 days"`
	OwnerID    string `json:"owner_id,omitempty" example:"user-1"`
}

// LinkResponse 短链接的对外表示
type LinkResponse struct {
	Code       string     `json:"code" example:"aB3dE9"`
	ShortURL   string     `json:"short_url" example:"http://localhost:8080/aB3dE9"`
	TargetURL  string     `json:"target_url" example:"https://github.com/gin-gonic/gin"`
	OwnerID    *string    `json:"owner_id"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at"`
	ClickCount int64      `json:"click_count"`
	Active     bool       `json:"active"`
}

func (h *ShortLinkHandler) toResponse(link *model.ShortLink) LinkResponse {
	return LinkResponse{
		Code:       link.Code,
		ShortURL:   h.registry.ShortURL(link.Code),
		TargetURL:  link.TargetURL,
		OwnerID:    link.OwnerID,
		CreatedAt:  link.CreatedAt,
		ExpiresAt:  link.ExpiresAt,
		ClickCount: link.ClickCount,
		Active:     link.Active,
	}
}

// HealthCheck godoc
// @Summary 健康检查
// @Description 检查数据库和缓存连接
// @Tags System
// @Produce  json
// @Success 200 {object} map[string]interface{} "服务正常"
// @Failure 503 {object} map[string]interface{} "依赖不可用"
// @Router /health [get]
func (h *ShortLinkHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	healthy := true
	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		checks["database"] = "down"
		healthy = false
	} else {
		checks["database"] = "up"
	}
	if h.redis != nil {
		// 缓存故障时服务会回源, 不影响整体状态
		if err := h.redis.Ping(ctx).Err(); err != nil {
			checks["cache"] = "down"
		} else {
			checks["cache"] = "up"
		}
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "checks": checks, "timestamp": time.Now()})
}

// CreateShortLink godoc
// @Summary 创建短链接
// @Description 为长 URL 创建短链接, 可指定别名和过期策略 ("never" 或 "N days", 默认 30 天). 携带令牌时所有者为当前用户
// @Tags ShortLink
// @Accept  json
// @Produce  json
// @Param   link  body   CreateShortLinkRequest  true  "短链接参数"
// @Success 201 {object} LinkResponse "创建成功"
// @Failure 400 {object} ErrorResponse "请求无效"
// @Failure 409 {object} ErrorResponse "别名已存在"
// @Failure 500 {object} ErrorResponse "服务器内部错误"
// @Router /links [post]
func (h *ShortLinkHandler) CreateShortLink(c *gin.Context) {
	var req CreateShortLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "无效的请求数据: " + err.Error()})
		return
	}

	ownerID := req.OwnerID
	if userID := middleware.CurrentUserID(c); userID != "" {
		ownerID = userID
	}

	res, err := h.registry.Create(c.Request.Context(), registry.CreateRequest{
		TargetURL:  req.TargetURL,
		Alias:      req.Alias,
		Expiration: req.Expiration,
		OwnerID:    ownerID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.toResponse(&res.Link))
}

// Redirect godoc
// @Summary 短链接跳转
// @Description 307 跳转到目标地址并记录一次点击
// @Tags ShortLink
// @Param   code  path  string  true  "短码或别名"
// @Success 307 "跳转到目标地址"
// @Failure 404 {object} ErrorResponse "链接不存在或已禁用"
// @Failure 410 {object} ErrorResponse "链接已过期"
// @Failure 500 {object} ErrorResponse "服务器内部错误"
// @Router /links/{code} [get]
func (h *ShortLinkHandler) Redirect(c *gin.Context) {
	target, err := h.registry.Resolve(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	// 浏览器缓存跳转会绕过点击计数
	c.Header("Cache-Control", "private, max-age=0")
	c.Redirect(http.StatusTemporaryRedirect, target)
}

// ListOwnerLinks godoc
// @Summary 按所有者列出短链接
// @Description 按创建时间倒序返回. 指定 limit 时分页, 下一页游标在 X-Next-Cursor 响应头中
// @Tags ShortLink
// @Produce  json
// @Param   owner_id  path   string  true   "所有者"
// @Param   limit     query  int     false  "每页数量, 默认返回全部"
// @Param   cursor    query  string  false  "上一页返回的游标"
// @Success 200 {array} LinkResponse "成功响应"
// @Failure 400 {object} ErrorResponse "参数无效"
// @Failure 500 {object} ErrorResponse "服务器内部错误"
// @Router /owners/{owner_id}/links [get]
func (h *ShortLinkHandler) ListOwnerLinks(c *gin.Context) {
	h.listLinks(c, c.Param("owner_id"))
}

// MyLinks godoc
// @Summary 我的短链接
// @Description 列出当前用户创建的短链接, 参数同 /owners/{owner_id}/links
// @Tags ShortLink
// @Security ApiKeyAuth
// @Produce  json
// @Param   limit   query  int     false  "每页数量"
// @Param   cursor  query  string  false  "上一页返回的游标"
// @Success 200 {array} LinkResponse "成功响应"
// @Failure 401 {object} ErrorResponse "未认证"
// @Router /api/links [get]
func (h *ShortLinkHandler) MyLinks(c *gin.Context) {
	h.listLinks(c, middleware.CurrentUserID(c))
}

func (h *ShortLinkHandler) listLinks(c *gin.Context, ownerID string) {
	page := store.Page{Cursor: c.Query("cursor")}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit 必须是非负整数", Field: "limit"})
			return
		}
		page.Limit = min(limit, maxPageSize)
	}

	links, next, err := h.registry.ListByOwner(c.Request.Context(), ownerID, page)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]LinkResponse, 0, len(links))
	for i := range links {
		resp = append(resp, h.toResponse(&links[i]))
	}
	if next != "" {
		c.Header(NextCursorHeader, next)
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteLink godoc
// @Summary 删除短链接
// @Description 软删除: 链接停用但短码不会被回收. 只有所有者或管理员可以操作
// @Tags ShortLink
// @Security ApiKeyAuth
// @Produce  json
// @Param   code  path  string  true  "短码"
// @Success 200 {object} map[string]interface{} "删除成功"
// @Failure 403 {object} ErrorResponse "无权操作"
// @Failure 404 {object} ErrorResponse "链接不存在"
// @Router /api/links/{code} [delete]
func (h *ShortLinkHandler) DeleteLink(c *gin.Context) {
	requester := registry.Requester{
		UserID: middleware.CurrentUserID(c),
		Admin:  middleware.IsAdmin(c),
	}
	if err := h.registry.Delete(c.Request.Context(), c.Param("code"), requester); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "删除成功"})
}

// ToggleLinkRequest 设置启用状态, 不传 active 时切换当前状态
type ToggleLinkRequest struct {
	Active *bool `json:"active" example:"false"`
}

// ToggleLink godoc
// @Summary 启用或停用短链接
// @Description 管理员设置短链接的启用状态, 请求体为空时切换当前状态
// @Tags Admin
// @Security ApiKeyAuth
// @Accept  json
// @Produce  json
// @Param   code    path  string             true   "短码"
// @Param   status  body  ToggleLinkRequest  false  "目标状态"
// @Success 200 {object} map[string]interface{} "状态更新成功"
// @Failure 404 {object} ErrorResponse "链接不存在"
// @Router /api/links/{code} [put]
func (h *ShortLinkHandler) ToggleLink(c *gin.Context) {
	code := c.Param("code")
	var req ToggleLinkRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "无效的请求数据: " + err.Error(), Field: "active"})
			return
		}
	}

	var active bool
	if req.Active != nil {
		active = *req.Active
	} else {
		link, err := h.registry.Get(c.Request.Context(), code)
		if err != nil {
			respondError(c, err)
			return
		}
		active = !link.Active
	}

	if err := h.registry.SetActive(c.Request.Context(), code, active); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "状态更新成功", "active": active})
}

// GetStats godoc
// @Summary 全局统计
// @Tags Admin
// @Security ApiKeyAuth
// @Produce  json
// @Success 200 {object} store.Stats "成功响应"
// @Failure 500 {object} ErrorResponse "服务器内部错误"
// @Router /api/stats [get]
func (h *ShortLinkHandler) GetStats(c *gin.Context) {
	stats, err := h.registry.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// respondError 把业务错误映射为 HTTP 状态码
func respondError(c *gin.Context, err error) {
	status, field := http.StatusInternalServerError, ""
	switch {
	case errors.Is(err, registry.ErrInvalidURL):
		status, field = http.StatusBadRequest, "target_url"
	case errors.Is(err, registry.ErrInvalidAliasFormat):
		status, field = http.StatusBadRequest, "alias"
	case errors.Is(err, registry.ErrInvalidExpiration):
		status, field = http.StatusBadRequest, "expiration"
	case errors.Is(err, registry.ErrInvalidOwner):
		status, field = http.StatusBadRequest, "owner_id"
	case errors.Is(err, registry.ErrInvalidCursor):
		status, field = http.StatusBadRequest, "cursor"
	case errors.Is(err, registry.ErrAliasAlreadyExists):
		status, field = http.StatusConflict, "alias"
	case errors.Is(err, registry.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, registry.ErrGone):
		status = http.StatusGone
	case errors.Is(err, registry.ErrForbidden):
		status = http.StatusForbidden
	}

	if status < http.StatusInternalServerError {
		c.JSON(status, ErrorResponse{Error: err.Error(), Field: field})
		return
	}

	// 5xx 不向客户端暴露底层错误
	_ = c.Error(err)
	msg := "服务器内部错误"
	switch {
	case errors.Is(err, registry.ErrStoreUnavailable):
		msg = registry.ErrStoreUnavailable.Error()
	case errors.Is(err, registry.ErrCodeSpaceExhausted):
		msg = registry.ErrCodeSpaceExhausted.Error()
	}
	c.JSON(status, ErrorResponse{Error: msg})
}
