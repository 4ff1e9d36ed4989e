package repositories

import (
	"context"
	"github.com/maxaizer/tutor-bot/internal/domain/models"
	gocache "github.com/patrickmn/go-cache"
	"time"
)

type leadRepository interface {
	Add(ctx context.Context, lead models.Lead) error
	GetAll(ctx context.Context) ([]models.Lead, error)
}

const allLeadsKey = "all"

// CachedLeads keeps the full lead list in memory between writes, so repeated admin listings
// don't hit the spreadsheet quota.
type CachedLeads struct {
	repo  leadRepository
	cache *gocache.Cache
}

func NewCachedLeads(repo leadRepository, expiration time.Duration) *CachedLeads {
	return &CachedLeads{repo: repo, cache: gocache.New(expiration, 2*expiration)}
}

func (c *CachedLeads) Add(ctx context.Context, lead models.Lead) error {
	err := c.repo.Add(ctx, lead)
	c.cache.Delete(allLeadsKey)
	return err
}

func (c *CachedLeads) GetAll(ctx context.Context) ([]models.Lead, error) {
	if value, found := c.cache.Get(allLeadsKey); found {
		return value.([]models.Lead), nil
	}

	leads, err := c.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	c.cache.Set(allLeadsKey, leads, gocache.DefaultExpiration)
	return leads, nil
}
