// Package memstore 提供 store.Store 的内存实现, 用于测试, 支持按操作注入故障
package memstore

import (
	"context"
	"sort"
	"sync"

	"shortlink-service/internal/model"
	"shortlink-service/internal/store"
)

// Op 标识 Store 上的一个操作
type Op string

const (
	OpGet       Op = "get"
	OpPut       Op = "put_if_absent"
	OpIncrement Op = "increment_counter"
	OpQuery     Op = "query_by_owner"
	OpSetActive Op = "set_active"
	OpStats     Op = "stats"
)

// Store 内存存储
type Store struct {
	mu       sync.Mutex
	links    map[string]model.ShortLink
	failures map[Op]error
	calls    map[Op]int
}

// New 创建空的内存存储
func New() *Store {
	return &Store{
		links:    make(map[string]model.ShortLink),
		failures: make(map[Op]error),
		calls:    make(map[Op]int),
	}
}

// FailWith 让之后对 op 的所有调用返回 err, 传入 nil 恢复正常
func (s *Store) FailWith(op Op, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// Calls 返回 op 被调用的次数 (包括失败的调用)
func (s *Store) Calls(op Op) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// Len 返回记录数
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.links)
}

// Seed 直接写入记录, 覆盖同名记录
func (s *Store) Seed(links ...model.ShortLink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range links {
		s.links[l.Code] = l
	}
}

// enter 记录调用并返回注入的故障, 调用方需持有锁
func (s *Store) enter(op Op) error {
	s.calls[op]++
	return s.failures[op]
}

func (s *Store) Get(ctx context.Context, code string) (*model.ShortLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpGet); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	link, ok := s.links[code]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &link, nil
}

func (s *Store) PutIfAbsent(ctx context.Context, link *model.ShortLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpPut); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := s.links[link.Code]; ok {
		return store.ErrAlreadyExists
	}
	s.links[link.Code] = *link
	return nil
}

func (s *Store) IncrementCounter(ctx context.Context, code, field string, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpIncrement); err != nil {
		return err
	}
	if err := store.CheckCounter(field, delta); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	link, ok := s.links[code]
	if !ok {
		return store.ErrNotFound
	}
	link.ClickCount += delta
	s.links[code] = link
	return nil
}

func (s *Store) QueryByOwner(ctx context.Context, ownerID string, page store.Page) ([]model.ShortLink, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpQuery); err != nil {
		return nil, "", err
	}
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	var cursor *store.Cursor
	if page.Cursor != "" {
		c, err := store.DecodeCursor(page.Cursor)
		if err != nil {
			return nil, "", err
		}
		cursor = &c
	}

	links := make([]model.ShortLink, 0)
	for _, l := range s.links {
		if l.Owner() != ownerID || l.OwnerID == nil {
			continue
		}
		if cursor != nil && !cursor.After(&l) {
			continue
		}
		links = append(links, l)
	}
	sort.Slice(links, func(i, j int) bool {
		if links[i].CreatedAt.Equal(links[j].CreatedAt) {
			return links[i].Code > links[j].Code
		}
		return links[i].CreatedAt.After(links[j].CreatedAt)
	})

	var next string
	if page.Limit > 0 && len(links) > page.Limit {
		links = links[:page.Limit]
		next = store.EncodeCursor(&links[len(links)-1])
	}
	return links, next, nil
}

func (s *Store) SetActive(ctx context.Context, code string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpSetActive); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	link, ok := s.links[code]
	if !ok {
		return store.ErrNotFound
	}
	link.Active = active
	s.links[code] = link
	return nil
}

func (s *Store) Stats(ctx context.Context) (store.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpStats); err != nil {
		return store.Stats{}, err
	}
	if err := ctx.Err(); err != nil {
		return store.Stats{}, err
	}
	var stats store.Stats
	for _, l := range s.links {
		stats.TotalLinks++
		if l.Active {
			stats.ActiveLinks++
		}
		stats.TotalClicks += l.ClickCount
	}
	return stats, nil
}

var _ store.Store = (*Store)(nil)
