package registry

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"shortlink-service/internal/metrics"
	"shortlink-service/internal/model"
	"shortlink-service/internal/shortcode"
	"shortlink-service/internal/store"
	"shortlink-service/internal/store/memstore"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// clock 是可手动推进的测试时钟
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	registry *Registry
	store    *memstore.Store
	clock    *clock
	metrics  *metrics.Metrics
}

func newFixture(t *testing.T, opts ...shortcode.Option) *fixture {
	t.Helper()
	logger := zap.NewNop().Sugar()
	st := memstore.New()
	clk := &clock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	m := metrics.New()
	r := New(st, shortcode.NewGenerator(logger, opts...), logger, Options{
		BaseURL: "https://sho.rt/",
		Timeout: time.Second,
		Metrics: m,
		Now:     clk.Now,
	})
	t.Cleanup(r.Wait)
	return &fixture{registry: r, store: st, clock: clk, metrics: m}
}

func (f *fixture) stored(t *testing.T, code string) *model.ShortLink {
	t.Helper()
	link, err := f.store.Get(context.Background(), code)
	require.NoError(t, err)
	return link
}

func TestCreate_ResolvesBackToTarget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	targets := []string{
		"https://example.com",
		"http://example.com/path?q=1#frag",
		"https://sub.example.co.uk:8443/a/b",
		"http://127.0.0.1:8080/health",
		"https://localhost/x",
	}
	for _, target := range targets {
		res, err := f.registry.Create(ctx, CreateRequest{TargetURL: target})
		require.NoError(t, err, target)
		assert.Len(t, res.Link.Code, shortcode.CodeLength)
		assert.Equal(t, "https://sho.rt/"+res.Link.Code, res.ShortURL)

		got, err := f.registry.Resolve(ctx, res.Link.Code)
		require.NoError(t, err)
		assert.Equal(t, target, got)
	}
}

func TestCreate_ScenarioSchemeLessWithSevenDays(t *testing.T) {
	f := newFixture(t)
	now := f.clock.Now()

	res, err := f.registry.Create(context.Background(), CreateRequest{
		TargetURL:  "example.com",
		Expiration: "7 days",
	})
	require.NoError(t, err)

	stored := f.stored(t, res.Link.Code)
	assert.Equal(t, "https://example.com", stored.TargetURL)
	require.NotNil(t, stored.ExpiresAt)
	assert.WithinDuration(t, now.Add(7*24*time.Hour), *stored.ExpiresAt, time.Second)
	assert.True(t, stored.Active)
	assert.Zero(t, stored.ClickCount)
	assert.True(t, stored.CreatedAt.Equal(now))
	assert.Nil(t, stored.OwnerID)
}

func TestCreate_DefaultAndNeverExpiration(t *testing.T) {
	f := newFixture(t)
	now := f.clock.Now()

	res, err := f.registry.Create(context.Background(), CreateRequest{TargetURL: "https://example.com"})
	require.NoError(t, err)
	require.NotNil(t, res.Link.ExpiresAt)
	assert.Equal(t, now.Add(30*24*time.Hour), *res.Link.ExpiresAt)

	res, err = f.registry.Create(context.Background(), CreateRequest{TargetURL: "https://example.com", Expiration: "never"})
	require.NoError(t, err)
	assert.Nil(t, res.Link.ExpiresAt)
}

func TestCreate_InvalidInputPerformsNoWrite(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateRequest
		wantErr error
	}{
		{name: "not a url", req: CreateRequest{TargetURL: "not a url"}, wantErr: ErrInvalidURL},
		{name: "empty url", req: CreateRequest{TargetURL: "   "}, wantErr: ErrInvalidURL},
		{name: "ftp scheme", req: CreateRequest{TargetURL: "ftp://example.com"}, wantErr: ErrInvalidURL},
		{name: "no host", req: CreateRequest{TargetURL: "https://"}, wantErr: ErrInvalidURL},
		{name: "single label host", req: CreateRequest{TargetURL: "intranet"}, wantErr: ErrInvalidURL},
		{name: "alias too short", req: CreateRequest{TargetURL: "example.com", Alias: "a"}, wantErr: ErrInvalidAliasFormat},
		{name: "alias with underscore", req: CreateRequest{TargetURL: "example.com", Alias: "my_link"}, wantErr: ErrInvalidAliasFormat},
		{name: "bad expiration", req: CreateRequest{TargetURL: "example.com", Expiration: "tomorrow"}, wantErr: ErrInvalidExpiration},
		{name: "zero days", req: CreateRequest{TargetURL: "example.com", Expiration: "0 days"}, wantErr: ErrInvalidExpiration},
		{name: "owner too long", req: CreateRequest{TargetURL: "example.com", OwnerID: strings.Repeat("u", 65)}, wantErr: ErrInvalidOwner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.registry.Create(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, f.store.Calls(memstore.OpPut), "校验失败时不应写入")
		})
	}
}

func TestCreate_Alias(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, alias := range []string{"ab", "My-Link-2025", strings.Repeat("z", 30)} {
		res, err := f.registry.Create(ctx, CreateRequest{TargetURL: "example.com/" + alias, Alias: alias})
		require.NoError(t, err, alias)
		assert.Equal(t, alias, res.Link.Code)
		assert.Equal(t, "https://example.com/"+alias, f.stored(t, alias).TargetURL)
	}

	expected := `
# HELP shortlink_links_created_total Short links created, by code source.
# TYPE shortlink_links_created_total counter
shortlink_links_created_total{source="alias"} 3
`
	assert.NoError(t, testutil.GatherAndCompare(f.metrics.Registry(), strings.NewReader(expected), "shortlink_links_created_total"))
}

func TestCreate_AliasConflictKeepsOriginal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.registry.Create(ctx, CreateRequest{TargetURL: "https://first.example.com", Alias: "ab"})
	require.NoError(t, err)

	_, err = f.registry.Create(ctx, CreateRequest{TargetURL: "https://second.example.com", Alias: "ab"})
	assert.ErrorIs(t, err, ErrAliasAlreadyExists)

	assert.Equal(t, 1, f.store.Len())
	assert.Equal(t, "https://first.example.com", f.stored(t, "ab").TargetURL)
}

func TestCreate_AliasOfInactiveLinkStaysTaken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.registry.Create(ctx, CreateRequest{TargetURL: "example.com", Alias: "retired"})
	require.NoError(t, err)
	require.NoError(t, f.registry.SetActive(ctx, "retired", false))

	_, err = f.registry.Create(ctx, CreateRequest{TargetURL: "example.org", Alias: "retired"})
	assert.ErrorIs(t, err, ErrAliasAlreadyExists)
}

func TestCreate_CodeSpaceExhausted(t *testing.T) {
	f := newFixture(t, shortcode.WithRandom(zeroReader{}))
	f.store.Seed(model.ShortLink{Code: "aaaaaa", TargetURL: "https://example.com", Active: true})

	_, err := f.registry.Create(context.Background(), CreateRequest{TargetURL: "example.org"})
	assert.ErrorIs(t, err, ErrCodeSpaceExhausted)
	assert.Equal(t, shortcode.MaxAttempts, f.store.Calls(memstore.OpPut))
	assert.Equal(t, 1, f.store.Len())
}

func TestCreate_StoreUnavailable(t *testing.T) {
	f := newFixture(t)
	f.store.FailWith(memstore.OpPut, errors.New("dial tcp: connection refused"))

	_, err := f.registry.Create(context.Background(), CreateRequest{TargetURL: "example.com"})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Equal(t, 1, f.store.Calls(memstore.OpPut), "存储故障不应重试")
}

func TestCreate_RandomSourceFailureIsNotStoreFailure(t *testing.T) {
	f := newFixture(t, shortcode.WithRandom(brokenReader{}))

	_, err := f.registry.Create(context.Background(), CreateRequest{TargetURL: "example.com"})
	assert.ErrorIs(t, err, ErrCodeGeneration)
	assert.NotErrorIs(t, err, ErrStoreUnavailable)
	assert.Zero(t, f.store.Calls(memstore.OpPut))
}

func TestCreate_WithOwner(t *testing.T) {
	f := newFixture(t)

	res, err := f.registry.Create(context.Background(), CreateRequest{TargetURL: "example.com", OwnerID: "u1"})
	require.NoError(t, err)
	require.NotNil(t, res.Link.OwnerID)
	assert.Equal(t, "u1", *res.Link.OwnerID)
	assert.Equal(t, "u1", f.stored(t, res.Link.Code).Owner())
}

func TestResolve_NotFound(t *testing.T) {
	f := newFixture(t)

	for _, code := range []string{"doesnotexist", "x", "bad code", ""} {
		_, err := f.registry.Resolve(context.Background(), code)
		assert.ErrorIs(t, err, ErrNotFound, code)
	}
	assert.Equal(t, 1, f.store.Calls(memstore.OpGet), "格式不合法的短码不查询存储")
}

func TestResolve_CountsClicks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.registry.Create(ctx, CreateRequest{TargetURL: "example.com"})
	require.NoError(t, err)

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			target, err := f.registry.Resolve(ctx, res.Link.Code)
			assert.NoError(t, err)
			assert.Equal(t, "https://example.com", target)
		}()
	}
	wg.Wait()
	f.registry.Wait()

	assert.Equal(t, int64(n), f.stored(t, res.Link.Code).ClickCount)
}

func TestResolve_CountsAfterRequestContextCancelled(t *testing.T) {
	f := newFixture(t)

	res, err := f.registry.Create(context.Background(), CreateRequest{TargetURL: "example.com"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	_, err = f.registry.Resolve(ctx, res.Link.Code)
	require.NoError(t, err)
	cancel()
	f.registry.Wait()

	assert.Equal(t, int64(1), f.stored(t, res.Link.Code).ClickCount)
}

func TestResolve_ExpiryBoundary(t *testing.T) {
	f := newFixture(t)
	now := f.clock.Now()
	past := now.Add(-time.Second)
	exact := now
	future := now.Add(time.Hour)

	f.store.Seed(
		model.ShortLink{Code: "expired", TargetURL: "https://a.example.com", CreatedAt: now.Add(-time.Hour), ExpiresAt: &past, Active: true},
		model.ShortLink{Code: "boundary", TargetURL: "https://b.example.com", CreatedAt: now.Add(-time.Hour), ExpiresAt: &exact, Active: true},
		model.ShortLink{Code: "fresh", TargetURL: "https://c.example.com", CreatedAt: now.Add(-time.Hour), ExpiresAt: &future, Active: true},
	)

	_, err := f.registry.Resolve(context.Background(), "expired")
	assert.ErrorIs(t, err, ErrGone)

	_, err = f.registry.Resolve(context.Background(), "boundary")
	assert.ErrorIs(t, err, ErrGone, "expires_at == now 视为已过期")

	target, err := f.registry.Resolve(context.Background(), "fresh")
	require.NoError(t, err)
	assert.Equal(t, "https://c.example.com", target)

	f.registry.Wait()
	assert.Zero(t, f.stored(t, "expired").ClickCount, "过期链接不计数")
}

func TestResolve_ExpiresAsClockAdvances(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.registry.Create(ctx, CreateRequest{TargetURL: "example.com", Expiration: "1 day"})
	require.NoError(t, err)

	_, err = f.registry.Resolve(ctx, res.Link.Code)
	require.NoError(t, err)

	f.clock.Advance(24 * time.Hour)
	_, err = f.registry.Resolve(ctx, res.Link.Code)
	assert.ErrorIs(t, err, ErrGone)
}

func TestResolve_InactiveIsNotFound(t *testing.T) {
	f := newFixture(t)
	f.store.Seed(model.ShortLink{Code: "paused", TargetURL: "https://example.com", CreatedAt: f.clock.Now(), Active: false})

	_, err := f.registry.Resolve(context.Background(), "paused")
	assert.ErrorIs(t, err, ErrNotFound)

	f.registry.Wait()
	assert.Zero(t, f.store.Calls(memstore.OpIncrement))
}

func TestResolve_ClickFailureIsSwallowed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.registry.Create(ctx, CreateRequest{TargetURL: "example.com"})
	require.NoError(t, err)
	f.store.FailWith(memstore.OpIncrement, errors.New("write timeout"))

	target, err := f.registry.Resolve(ctx, res.Link.Code)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", target)
	f.registry.Wait()

	assert.Zero(t, f.stored(t, res.Link.Code).ClickCount)
	expected := `
# HELP shortlink_click_increment_failures_total Click counter writes that failed and were dropped.
# TYPE shortlink_click_increment_failures_total counter
shortlink_click_increment_failures_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(f.metrics.Registry(), strings.NewReader(expected), "shortlink_click_increment_failures_total"))
}

func TestResolve_StoreUnavailable(t *testing.T) {
	f := newFixture(t)
	f.store.FailWith(memstore.OpGet, errors.New("connection reset"))

	_, err := f.registry.Resolve(context.Background(), "abcdef")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestListByOwner_NewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var codes []string
	for i := 0; i < 3; i++ {
		res, err := f.registry.Create(ctx, CreateRequest{TargetURL: "example.com", OwnerID: "u1"})
		require.NoError(t, err)
		codes = append(codes, res.Link.Code)
		f.clock.Advance(time.Minute)
	}
	_, err := f.registry.Create(ctx, CreateRequest{TargetURL: "example.com", OwnerID: "u2"})
	require.NoError(t, err)
	_, err = f.registry.Create(ctx, CreateRequest{TargetURL: "example.com"})
	require.NoError(t, err)

	links, next, err := f.registry.ListByOwner(ctx, "u1", store.Page{})
	require.NoError(t, err)
	assert.Empty(t, next)
	require.Len(t, links, 3)
	assert.Equal(t, []string{codes[2], codes[1], codes[0]}, []string{links[0].Code, links[1].Code, links[2].Code})

	links, _, err = f.registry.ListByOwner(ctx, "nobody", store.Page{})
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestListByOwner_Pagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := f.registry.Create(ctx, CreateRequest{TargetURL: "example.com", OwnerID: "u1"})
		require.NoError(t, err)
		f.clock.Advance(time.Second)
	}

	var seen []string
	cursor := ""
	for pages := 0; ; pages++ {
		require.Less(t, pages, 5, "分页没有结束")
		links, next, err := f.registry.ListByOwner(ctx, "u1", store.Page{Limit: 2, Cursor: cursor})
		require.NoError(t, err)
		for _, l := range links {
			seen = append(seen, l.Code)
		}
		if next == "" {
			break
		}
		cursor = next
	}

	all, _, err := f.registry.ListByOwner(ctx, "u1", store.Page{})
	require.NoError(t, err)
	require.Len(t, seen, 5)
	for i := range all {
		assert.Equal(t, all[i].Code, seen[i])
	}
}

func TestListByOwner_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.registry.ListByOwner(ctx, "", store.Page{})
	assert.ErrorIs(t, err, ErrInvalidOwner)

	_, _, err = f.registry.ListByOwner(ctx, "u1", store.Page{Cursor: "%%%"})
	assert.ErrorIs(t, err, ErrInvalidCursor)

	f.store.FailWith(memstore.OpQuery, errors.New("too many connections"))
	_, _, err = f.registry.ListByOwner(ctx, "u1", store.Page{})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.registry.Create(ctx, CreateRequest{TargetURL: "example.com", OwnerID: "u1"})
	require.NoError(t, err)
	code := res.Link.Code

	assert.ErrorIs(t, f.registry.Delete(ctx, code, Requester{UserID: "u2"}), ErrForbidden)
	assert.ErrorIs(t, f.registry.Delete(ctx, code, Requester{}), ErrForbidden)
	assert.ErrorIs(t, f.registry.Delete(ctx, "missing", Requester{UserID: "u1"}), ErrNotFound)

	require.NoError(t, f.registry.Delete(ctx, code, Requester{UserID: "u1"}))
	assert.False(t, f.stored(t, code).Active)
	assert.Equal(t, 1, f.store.Len(), "软删除保留记录")

	_, err = f.registry.Resolve(ctx, code)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, f.registry.Delete(ctx, code, Requester{UserID: "u1"}), ErrNotFound)
}

func TestDelete_AdminMayDeleteAnyLink(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.registry.Create(ctx, CreateRequest{TargetURL: "example.com"})
	require.NoError(t, err)

	require.NoError(t, f.registry.Delete(ctx, res.Link.Code, Requester{UserID: "admin", Admin: true}))
	assert.False(t, f.stored(t, res.Link.Code).Active)
}

func TestSetActive_ReEnable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.registry.Create(ctx, CreateRequest{TargetURL: "example.com"})
	require.NoError(t, err)

	require.NoError(t, f.registry.SetActive(ctx, res.Link.Code, false))
	require.NoError(t, f.registry.SetActive(ctx, res.Link.Code, false))
	require.NoError(t, f.registry.SetActive(ctx, res.Link.Code, true))

	_, err = f.registry.Resolve(ctx, res.Link.Code)
	assert.NoError(t, err)

	assert.ErrorIs(t, f.registry.SetActive(ctx, "missing", true), ErrNotFound)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.registry.Create(ctx, CreateRequest{TargetURL: "example.com"})
	require.NoError(t, err)
	b, err := f.registry.Create(ctx, CreateRequest{TargetURL: "example.org"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := f.registry.Resolve(ctx, a.Link.Code)
		require.NoError(t, err)
	}
	f.registry.Wait()
	require.NoError(t, f.registry.SetActive(ctx, b.Link.Code, false))

	stats, err := f.registry.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.Stats{TotalLinks: 2, ActiveLinks: 1, TotalClicks: 3}, stats)

	f.store.FailWith(memstore.OpStats, errors.New("boom"))
	_, err = f.registry.Stats(ctx)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

// zeroReader 使生成的随机短码固定为 "aaaaaa"
type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy unavailable")
}
