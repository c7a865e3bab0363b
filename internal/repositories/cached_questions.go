package repositories

import (
	"context"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/zecpath/evaluation-engine/internal/entities"
)

type questionFlowRepository interface {
	GetFlowForJob(ctx context.Context, jobID int64) ([]entities.QuestionTemplate, error)
}

// CachedQuestions keeps per-job flows in memory; the flow is read once per
// interview turn, so a short TTL saves a handful of queries per call.
type CachedQuestions struct {
	repo  questionFlowRepository
	cache *gocache.Cache
}

func NewCachedQuestions(repo questionFlowRepository) *CachedQuestions {
	return &CachedQuestions{repo: repo, cache: gocache.New(10*time.Minute, 20*time.Minute)}
}

func (c *CachedQuestions) GetFlowForJob(ctx context.Context, jobID int64) ([]entities.QuestionTemplate, error) {
	key := strconv.FormatInt(jobID, 10)
	if value, found := c.cache.Get(key); found {
		return value.([]entities.QuestionTemplate), nil
	}

	templates, err := c.repo.GetFlowForJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if len(templates) > 0 {
		if err = c.cache.Add(key, templates, gocache.DefaultExpiration); err != nil {
			return templates, err
		}
	}

	return templates, err
}
