package registry

import (
	"context"
	"errors"

	"shortlink-service/internal/model"
	"shortlink-service/internal/store"
)

// Requester 是发起修改操作的用户
type Requester struct {
	UserID string
	Admin  bool
}

// Get 读取一条记录, 不检查过期和启用状态
func (r *Registry) Get(ctx context.Context, code string) (*model.ShortLink, error) {
	return r.lookup(ctx, code)
}

// SetActive 启用或停用短链接, 停用后解析结果与不存在相同
func (r *Registry) SetActive(ctx context.Context, code string, active bool) error {
	if _, err := r.lookup(ctx, code); err != nil {
		return err
	}
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	err := r.store.SetActive(callCtx, code, active)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return unavailable(err)
	}
	r.logger.Infow("短链接状态已更新", "code", code, "active", active)
	return nil
}

// Delete 软删除: 只有所有者或管理员可以操作, 短码不会被回收
func (r *Registry) Delete(ctx context.Context, code string, requester Requester) error {
	link, err := r.lookup(ctx, code)
	if err != nil {
		return err
	}
	if !link.Active {
		return ErrNotFound
	}
	if !requester.Admin && (requester.UserID == "" || link.Owner() != requester.UserID) {
		return ErrForbidden
	}
	return r.SetActive(ctx, code, false)
}

// Stats 返回全局统计
func (r *Registry) Stats(ctx context.Context) (store.Stats, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	stats, err := r.store.Stats(callCtx)
	if err != nil {
		return store.Stats{}, unavailable(err)
	}
	return stats, nil
}
