package ticket

import (
	"context"
	"fmt"

	"neovuln/internal/model/pteam"
	"neovuln/internal/model/vuln"
	"neovuln/internal/pkg/logger"

	"github.com/sirupsen/logrus"
)

// TopicChange 话题更新中影响工单的变化
type TopicChange struct {
	TagsChanged         bool
	ThreatImpactChanged bool
	// Reenabled 话题由禁用变为启用
	Reenabled bool
}

// NeedsAutoClose 变化是否可能让原本未关闭的工单满足关闭条件
func (c TopicChange) NeedsAutoClose() bool {
	return c.TagsChanged || c.Reenabled
}

// Dispatcher 各类变更之后按固定顺序调用自动关闭与当前状态重算
// 需要两者时自动关闭总在重算之前，物化行反映关闭后的状态
type Dispatcher struct {
	engine *Engine
}

// NewDispatcher 创建分发器，engine 应已绑定到调用方的事务
func NewDispatcher(engine *Engine) *Dispatcher {
	return &Dispatcher{engine: engine}
}

// TopicCreated 话题(及其动作)创建之后
func (d *Dispatcher) TopicCreated(ctx context.Context, topic *vuln.Topic) error {
	if _, err := d.engine.AutoCloseByTopic(ctx, topic); err != nil {
		return fmt.Errorf("auto close by topic: %w", err)
	}
	return d.engine.FixCurrentStatusByTopic(ctx, topic)
}

// TopicUpdated 话题更新之后，无论改了哪些字段都会重算当前状态
func (d *Dispatcher) TopicUpdated(ctx context.Context, topic *vuln.Topic, change TopicChange) error {
	if change.NeedsAutoClose() {
		if _, err := d.engine.AutoCloseByTopic(ctx, topic); err != nil {
			return fmt.Errorf("auto close by topic: %w", err)
		}
	}
	return d.engine.FixCurrentStatusByTopic(ctx, topic)
}

// TopicDeleted 话题删除之后
func (d *Dispatcher) TopicDeleted(ctx context.Context, topicID string) error {
	return d.engine.FixCurrentStatusByDeletedTopic(ctx, topicID)
}

// ReferencesUploaded 团队引用写入之后，tagIDs 为版本集合发生变化的标签
func (d *Dispatcher) ReferencesUploaded(ctx context.Context, p *pteam.PTeam, tagIDs []string) error {
	if err := d.autoCloseTags(ctx, p, tagIDs); err != nil {
		return err
	}
	return d.engine.FixCurrentStatusByPTeam(ctx, p)
}

// PTeamCreated 团队创建之后
func (d *Dispatcher) PTeamCreated(ctx context.Context, p *pteam.PTeam) error {
	return d.engine.FixCurrentStatusByPTeam(ctx, p)
}

// PTeamUpdated 团队更新之后，由禁用变为启用时对全部引用标签尝试自动关闭
func (d *Dispatcher) PTeamUpdated(ctx context.Context, p *pteam.PTeam, wasDisabled bool) error {
	if wasDisabled && !p.Disabled {
		covered, err := d.engine.refs.ListCoveredTags(ctx, p.PTeamID)
		if err != nil {
			return fmt.Errorf("failed to list covered tags: %w", err)
		}
		tagIDs := make([]string, 0, len(covered))
		for _, c := range covered {
			tagIDs = append(tagIDs, c.TagID)
		}
		if err := d.autoCloseTags(ctx, p, tagIDs); err != nil {
			return err
		}
	}
	return d.engine.FixCurrentStatusByPTeam(ctx, p)
}

// ActionCreated 处置动作创建之后，重新对整个话题尝试自动关闭
func (d *Dispatcher) ActionCreated(ctx context.Context, topic *vuln.Topic) error {
	if _, err := d.engine.AutoCloseByTopic(ctx, topic); err != nil {
		return fmt.Errorf("auto close by topic: %w", err)
	}
	return nil
}

// ActionDeleted 删除动作不会让工单新满足关闭条件，状态保持不变
// 历史与物化表不一致时使用 FixStatusMismatch 修复
func (d *Dispatcher) ActionDeleted(ctx context.Context, topic *vuln.Topic, actionID string) error {
	logger.LogSystemEvent("ticket", "action_deleted", "status left as is", logrus.DebugLevel,
		map[string]interface{}{
			"topic_id":  topic.TopicID,
			"action_id": actionID,
		})
	return nil
}

func (d *Dispatcher) autoCloseTags(ctx context.Context, p *pteam.PTeam, tagIDs []string) error {
	if len(tagIDs) == 0 {
		return nil
	}
	tags, err := d.engine.tags.GetTagsByIDs(ctx, tagIDs)
	if err != nil {
		return fmt.Errorf("failed to load tags: %w", err)
	}
	pairs := make([]PTeamTag, 0, len(tags))
	for _, tag := range tags {
		pairs = append(pairs, PTeamTag{PTeam: p, Tag: tag})
	}
	if _, err := d.engine.AutoCloseByPTeamTags(ctx, pairs); err != nil {
		return fmt.Errorf("auto close by pteam tags: %w", err)
	}
	return nil
}
