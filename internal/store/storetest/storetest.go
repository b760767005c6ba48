// Package storetest 是 store.Store 实现的通用契约测试
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"shortlink-service/internal/model"
	"shortlink-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory 为每个子测试创建一个干净的 Store
type Factory func(t *testing.T) store.Store

var base = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func newLink(code, owner string, createdAt time.Time) *model.ShortLink {
	l := &model.ShortLink{
		Code:      code,
		TargetURL: "https://example.com/" + code,
		CreatedAt: createdAt,
		Active:    true,
	}
	if owner != "" {
		l.OwnerID = &owner
	}
	return l
}

// Run 执行全部契约测试
func Run(t *testing.T, newStore Factory) {
	t.Run("PutIfAbsent 后可以读取", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		expires := base.Add(time.Hour)
		link := newLink("abc123", "u1", base)
		link.ExpiresAt = &expires

		require.NoError(t, s.PutIfAbsent(ctx, link))

		got, err := s.Get(ctx, "abc123")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/abc123", got.TargetURL)
		assert.Equal(t, "u1", got.Owner())
		assert.True(t, got.Active)
		assert.Zero(t, got.ClickCount)
		require.NotNil(t, got.ExpiresAt)
		assert.True(t, got.ExpiresAt.Equal(expires))
	})

	t.Run("Get 不存在的记录", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("PutIfAbsent 拒绝重复主键且不覆盖", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.PutIfAbsent(ctx, newLink("dup", "", base)))

		other := newLink("dup", "u2", base)
		other.TargetURL = "https://other.example.com"
		assert.ErrorIs(t, s.PutIfAbsent(ctx, other), store.ErrAlreadyExists)

		got, err := s.Get(ctx, "dup")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/dup", got.TargetURL)
	})

	t.Run("停用的记录仍占用主键", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.PutIfAbsent(ctx, newLink("gone", "", base)))
		require.NoError(t, s.SetActive(ctx, "gone", false))

		assert.ErrorIs(t, s.PutIfAbsent(ctx, newLink("gone", "", base)), store.ErrAlreadyExists)
	})

	t.Run("IncrementCounter", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.PutIfAbsent(ctx, newLink("clk", "", base)))

		require.NoError(t, s.IncrementCounter(ctx, "clk", store.FieldClickCount, 1))
		require.NoError(t, s.IncrementCounter(ctx, "clk", store.FieldClickCount, 2))

		got, err := s.Get(ctx, "clk")
		require.NoError(t, err)
		assert.EqualValues(t, 3, got.ClickCount)

		assert.ErrorIs(t, s.IncrementCounter(ctx, "nope", store.FieldClickCount, 1), store.ErrNotFound)
		assert.ErrorIs(t, s.IncrementCounter(ctx, "clk", "active", 1), store.ErrInvalidCounter)
		assert.ErrorIs(t, s.IncrementCounter(ctx, "clk", store.FieldClickCount, -1), store.ErrInvalidCounter)
	})

	t.Run("并发自增不丢失", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.PutIfAbsent(ctx, newLink("race", "", base)))

		const n = 20
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, s.IncrementCounter(ctx, "race", store.FieldClickCount, 1))
			}()
		}
		wg.Wait()

		got, err := s.Get(ctx, "race")
		require.NoError(t, err)
		assert.EqualValues(t, n, got.ClickCount)
	})

	t.Run("QueryByOwner 倒序并只返回该所有者", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.PutIfAbsent(ctx, newLink("first", "u1", base)))
		require.NoError(t, s.PutIfAbsent(ctx, newLink("second", "u1", base.Add(time.Minute))))
		require.NoError(t, s.PutIfAbsent(ctx, newLink("third", "u1", base.Add(2*time.Minute))))
		require.NoError(t, s.PutIfAbsent(ctx, newLink("other", "u2", base.Add(3*time.Minute))))
		require.NoError(t, s.PutIfAbsent(ctx, newLink("anon", "", base.Add(4*time.Minute))))

		links, next, err := s.QueryByOwner(ctx, "u1", store.Page{})
		require.NoError(t, err)
		assert.Empty(t, next)
		assert.Equal(t, []string{"third", "second", "first"}, codes(links))

		links, _, err = s.QueryByOwner(ctx, "nobody", store.Page{})
		require.NoError(t, err)
		assert.Empty(t, links)
	})

	t.Run("QueryByOwner 游标分页", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		for i, code := range []string{"p1", "p2", "p3", "p4", "p5"} {
			require.NoError(t, s.PutIfAbsent(ctx, newLink(code, "u1", base.Add(time.Duration(i)*time.Minute))))
		}

		var all []string
		cursor := ""
		for pages := 0; pages < 10; pages++ {
			links, next, err := s.QueryByOwner(ctx, "u1", store.Page{Limit: 2, Cursor: cursor})
			require.NoError(t, err)
			assert.LessOrEqual(t, len(links), 2)
			all = append(all, codes(links)...)
			if next == "" {
				break
			}
			cursor = next
		}
		assert.Equal(t, []string{"p5", "p4", "p3", "p2", "p1"}, all)

		_, _, err := s.QueryByOwner(ctx, "u1", store.Page{Limit: 2, Cursor: "%%%"})
		assert.ErrorIs(t, err, store.ErrInvalidCursor)
	})

	t.Run("SetActive", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.PutIfAbsent(ctx, newLink("tog", "", base)))

		require.NoError(t, s.SetActive(ctx, "tog", false))
		got, err := s.Get(ctx, "tog")
		require.NoError(t, err)
		assert.False(t, got.Active)

		// 重复设置相同的值不是错误
		require.NoError(t, s.SetActive(ctx, "tog", false))
		assert.ErrorIs(t, s.SetActive(ctx, "missing", false), store.ErrNotFound)
	})

	t.Run("Stats", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.PutIfAbsent(ctx, newLink("s1", "", base)))
		require.NoError(t, s.PutIfAbsent(ctx, newLink("s2", "", base)))
		require.NoError(t, s.SetActive(ctx, "s2", false))
		require.NoError(t, s.IncrementCounter(ctx, "s1", store.FieldClickCount, 4))

		stats, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, store.Stats{TotalLinks: 2, ActiveLinks: 1, TotalClicks: 4}, stats)
	})
}

func codes(links []model.ShortLink) []string {
	out := make([]string, 0, len(links))
	for _, l := range links {
		out = append(out, l.Code)
	}
	return out
}
