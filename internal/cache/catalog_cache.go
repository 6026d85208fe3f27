package cache

import (
	"digitalmaturity/internal/model"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CatalogCache handles Redis operations for the filtered level-1 catalog
type CatalogCache interface {
	GetQuestions(ctx context.Context, orgType model.OrganizationType) ([]model.Question, error)
	SetQuestions(ctx context.Context, orgType model.OrganizationType, questions []model.Question) error
	Invalidate(ctx context.Context) error
}

type catalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCatalogCache creates a new catalog cache
func NewCatalogCache(client *redis.Client, ttl time.Duration) CatalogCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &catalogCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *catalogCache) key(orgType model.OrganizationType) string {
	return fmt.Sprintf("catalog:level1:%s", orgType)
}

// GetQuestions returns nil, nil on a miss
func (c *catalogCache) GetQuestions(ctx context.Context, orgType model.OrganizationType) ([]model.Question, error) {
	data, err := c.client.Get(ctx, c.key(orgType)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var questions []model.Question
	if err := json.Unmarshal([]byte(data), &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (c *catalogCache) SetQuestions(ctx context.Context, orgType model.OrganizationType, questions []model.Question) error {
	data, err := json.Marshal(questions)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(orgType), data, c.ttl).Err()
}

func (c *catalogCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, c.key(model.OrgCompany), c.key(model.OrgPA)).Err()
}
