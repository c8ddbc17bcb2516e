/**
 * 仓库层:团队摘要缓存
 * @description: 团队工单统计的 Redis 缓存，键为 {prefix}{pteam_id}
 * @note: client 为 nil 时所有操作都是空操作，未启用 Redis 的部署直接走数据库
 */
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"neovuln/internal/model/pteam"
	"neovuln/internal/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// SummaryCache 团队摘要缓存
type SummaryCache struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
}

// NewSummaryCache 创建摘要缓存
func NewSummaryCache(client *redis.Client, ttl time.Duration, keyPrefix string) *SummaryCache {
	return &SummaryCache{
		client:    client,
		ttl:       ttl,
		keyPrefix: keyPrefix,
	}
}

// Enabled 是否连接了 Redis
func (c *SummaryCache) Enabled() bool {
	return c != nil && c.client != nil
}

// Get 读取缓存，未命中时返回 nil, nil
func (c *SummaryCache) Get(ctx context.Context, pteamID string) (*pteam.PTeamSummary, error) {
	if !c.Enabled() {
		return nil, nil
	}

	data, err := c.client.Get(ctx, c.getKey(pteamID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}

	var summary pteam.PTeamSummary
	if err := json.Unmarshal([]byte(data), &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal summary: %w", err)
	}
	return &summary, nil
}

// Set 写入缓存
func (c *SummaryCache) Set(ctx context.Context, summary *pteam.PTeamSummary) error {
	if !c.Enabled() {
		return nil
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := c.client.Set(ctx, c.getKey(summary.PTeamID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store summary: %w", err)
	}
	return nil
}

// Invalidate 删除若干团队的缓存
func (c *SummaryCache) Invalidate(ctx context.Context, pteamIDs ...string) error {
	if !c.Enabled() || len(pteamIDs) == 0 {
		return nil
	}

	keys := make([]string, 0, len(pteamIDs))
	for _, id := range pteamIDs {
		keys = append(keys, c.getKey(id))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate summaries: %w", err)
	}
	return nil
}

func (c *SummaryCache) getKey(pteamID string) string {
	return c.keyPrefix + pteamID
}

// InvalidateQuietly 删除缓存，失败只记录日志不返回错误
func (c *SummaryCache) InvalidateQuietly(ctx context.Context, pteamIDs ...string) {
	if err := c.Invalidate(ctx, pteamIDs...); err != nil {
		logger.LogError(err, "", "", "", "invalidate_summary", "CACHE", map[string]interface{}{
			"pteam_ids": pteamIDs,
		})
	}
}
