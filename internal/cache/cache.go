package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/config"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

const runLockKey = "timetable_optimization_lock"

var ErrNoResult = errors.New("没有找到排课结果")

// 只有持有锁的任务才能释放锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func lastResultKey(strategy string) string {
	return fmt.Sprintf("timetable_optimization_last_%s", strategy)
}

type Cache struct {
	config *config.Config
	client *redis.Client
}

func New(cfg *config.Config, client *redis.Client) *Cache {
	return &Cache{
		config: cfg,
		client: client,
	}
}

func (c *Cache) operationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(c.config.Redis.OperationExpiration)*time.Second)
}

// AcquireRunLock 尝试获取排课锁，锁已被其他任务持有时返回 false
func (c *Cache) AcquireRunLock(ctx context.Context, runID string) (bool, error) {
	ctx, cancel := c.operationContext(ctx)
	defer cancel()

	return c.client.SetNX(ctx, runLockKey, runID, time.Duration(c.config.Redis.LockExpiration)*time.Second).Result()
}

func (c *Cache) ReleaseRunLock(ctx context.Context, runID string) error {
	ctx, cancel := c.operationContext(ctx)
	defer cancel()

	return releaseScript.Run(ctx, c.client, []string{runLockKey}, runID).Err()
}

func (c *Cache) SaveLastResult(ctx context.Context, result *domain.OptimizationResult) error {
	ctx, cancel := c.operationContext(ctx)
	defer cancel()

	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, lastResultKey(result.Strategy), payload, time.Duration(c.config.Redis.ResultExpiration)*time.Second).Err()
}

func (c *Cache) GetLastResult(ctx context.Context, strategy string) (*domain.OptimizationResult, error) {
	ctx, cancel := c.operationContext(ctx)
	defer cancel()

	payload, err := c.client.Get(ctx, lastResultKey(strategy)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoResult
		}
		return nil, err
	}

	result := &domain.OptimizationResult{}
	if err := json.Unmarshal(payload, result); err != nil {
		return nil, err
	}
	return result, nil
}
