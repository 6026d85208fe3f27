package service

import (
	"context"
	"errors"
	"sync"

	"digitalmaturity/internal/event"
	"digitalmaturity/internal/model"
)

type memCatalogCache struct {
	mu          sync.Mutex
	entries     map[model.OrganizationType][]model.Question
	invalidated int
}

func newMemCatalogCache() *memCatalogCache {
	return &memCatalogCache{entries: map[model.OrganizationType][]model.Question{}}
}

func (c *memCatalogCache) GetQuestions(ctx context.Context, t model.OrganizationType) ([]model.Question, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[t], nil
}

func (c *memCatalogCache) SetQuestions(ctx context.Context, t model.OrganizationType, qs []model.Question) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[t] = qs
	return nil
}

func (c *memCatalogCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[model.OrganizationType][]model.Question{}
	c.invalidated++
	return nil
}

type memStatsCache struct {
	mu          sync.Mutex
	stats       *model.Stats
	invalidated int
}

func (c *memStatsCache) GetStats(ctx context.Context) (*model.Stats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats, nil
}

func (c *memStatsCache) SetStats(ctx context.Context, s *model.Stats) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = s
	return nil
}

func (c *memStatsCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = nil
	c.invalidated++
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*event.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, e *event.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type broadcast struct {
	orgID   string // empty for admin messages
	msgType string
}

type recordingBroadcaster struct {
	mu  sync.Mutex
	got []broadcast
}

func (b *recordingBroadcaster) BroadcastToAdmins(msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.got = append(b.got, broadcast{msgType: msgType})
}

func (b *recordingBroadcaster) BroadcastToOrganization(orgID, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.got = append(b.got, broadcast{orgID: orgID, msgType: msgType})
}

func (b *recordingBroadcaster) has(orgID, msgType string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, m := range b.got {
		if m.orgID == orgID && m.msgType == msgType {
			return true
		}
	}
	return false
}

var errBoom = errors.New("boom")
