package ticket

import (
	"context"
	"fmt"
	"sort"

	"neovuln/internal/model/pteam"
	"neovuln/internal/model/vuln"
	"neovuln/internal/pkg/tagtree"
	pteamrepo "neovuln/internal/repo/mysql/pteam"
)

// triple 一个应当存在当前状态行的三元组
type triple struct {
	key   pteam.StatusKey
	topic *vuln.Topic
}

// coveredTriples 团队引用的标签与启用话题的标签两两匹配，得到应当存在的三元组
// 行挂在团队引用的标签上，不挂在话题的父标签上
func coveredTriples(covered []*pteamrepo.CoveredTag, topics []*vuln.Topic) []triple {
	var out []triple
	for _, c := range covered {
		for _, topic := range topics {
			if topic.Disabled {
				continue
			}
			for _, topicTag := range topic.Tags {
				if tagtree.Covers(c.TagID, c.ParentID, topicTag.TagID) {
					out = append(out, triple{
						key:   pteam.StatusKey{PTeamID: c.PTeamID, TopicID: topic.TopicID, TagID: c.TagID},
						topic: topic,
					})
					break
				}
			}
		}
	}
	return out
}

// pteamTriples 团队当前应当存在的全部三元组，团队禁用时为空
func (e *Engine) pteamTriples(ctx context.Context, p *pteam.PTeam) ([]triple, error) {
	if p.Disabled {
		return nil, nil
	}
	covered, err := e.refs.ListCoveredTags(ctx, p.PTeamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list covered tags: %w", err)
	}
	topicTagIDs := make([]string, 0, len(covered)*2)
	for _, c := range covered {
		topicTagIDs = append(topicTagIDs, c.TagID)
		if c.ParentID != nil {
			topicTagIDs = append(topicTagIDs, *c.ParentID)
		}
	}
	topics, err := e.topics.ListEnabledByTagIDs(ctx, topicTagIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	return coveredTriples(covered, topics), nil
}

// FixCurrentStatusByPTeam 重算团队的当前状态行
// 不再成立的行删除，其余行按最新状态插入或更新；可重复调用
func (e *Engine) FixCurrentStatusByPTeam(ctx context.Context, p *pteam.PTeam) error {
	e.touch(p.PTeamID)
	if p.Disabled {
		if err := e.statuses.DeleteCurrentByPTeam(ctx, p.PTeamID); err != nil {
			return fmt.Errorf("failed to delete current statuses: %w", err)
		}
		return nil
	}

	triples, err := e.pteamTriples(ctx, p)
	if err != nil {
		return err
	}
	statuses, err := e.statuses.ListStatusesByPTeam(ctx, p.PTeamID)
	if err != nil {
		return fmt.Errorf("failed to list statuses: %w", err)
	}
	existing, err := e.statuses.ListCurrentByPTeam(ctx, p.PTeamID)
	if err != nil {
		return fmt.Errorf("failed to list current statuses: %w", err)
	}
	return e.applyCurrent(ctx, triples, latestByKey(statuses), existing)
}

// FixCurrentStatusByTopic 重算话题的当前状态行，话题禁用时删除全部行
func (e *Engine) FixCurrentStatusByTopic(ctx context.Context, topic *vuln.Topic) error {
	existing, err := e.statuses.ListCurrentByTopic(ctx, topic.TopicID)
	if err != nil {
		return fmt.Errorf("failed to list current statuses: %w", err)
	}
	for _, row := range existing {
		e.touch(row.PTeamID)
	}

	if topic.Disabled {
		if err := e.statuses.DeleteCurrentByTopic(ctx, topic.TopicID); err != nil {
			return fmt.Errorf("failed to delete current statuses: %w", err)
		}
		return nil
	}

	covered, err := e.refs.ListCoveredTagsByTopicTags(ctx, topic.TagIDs())
	if err != nil {
		return fmt.Errorf("failed to list covered tags: %w", err)
	}
	triples := coveredTriples(covered, []*vuln.Topic{topic})
	statuses, err := e.statuses.ListStatusesByTopic(ctx, topic.TopicID)
	if err != nil {
		return fmt.Errorf("failed to list statuses: %w", err)
	}
	return e.applyCurrent(ctx, triples, latestByKey(statuses), existing)
}

// FixCurrentStatusByDeletedTopic 删除话题的全部当前状态行
func (e *Engine) FixCurrentStatusByDeletedTopic(ctx context.Context, topicID string) error {
	existing, err := e.statuses.ListCurrentByTopic(ctx, topicID)
	if err != nil {
		return fmt.Errorf("failed to list current statuses: %w", err)
	}
	for _, row := range existing {
		e.touch(row.PTeamID)
	}
	if err := e.statuses.DeleteCurrentByTopic(ctx, topicID); err != nil {
		return fmt.Errorf("failed to delete current statuses: %w", err)
	}
	return nil
}

// applyCurrent 删除范围内多余的行，并按期望集合插入或更新
func (e *Engine) applyCurrent(ctx context.Context, triples []triple,
	latest map[pteam.StatusKey]*pteam.PTeamTopicTagStatus, existing []*pteam.CurrentPTeamTopicTagStatus) error {
	desired := make(map[pteam.StatusKey]*pteam.CurrentPTeamTopicTagStatus, len(triples))
	for _, t := range triples {
		desired[t.key] = buildCurrent(t.key, t.topic, latest[t.key])
		e.touch(t.key.PTeamID)
	}

	var stale []pteam.StatusKey
	for _, row := range existing {
		if _, ok := desired[row.Key()]; !ok {
			stale = append(stale, row.Key())
		}
	}
	if err := e.statuses.DeleteCurrent(ctx, stale); err != nil {
		return fmt.Errorf("failed to delete stale current statuses: %w", err)
	}

	rows := make([]*pteam.CurrentPTeamTopicTagStatus, 0, len(desired))
	for _, row := range desired {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.PTeamID != b.PTeamID {
			return a.PTeamID < b.PTeamID
		}
		if a.TopicID != b.TopicID {
			return a.TopicID < b.TopicID
		}
		return a.TagID < b.TagID
	})
	if err := e.statuses.UpsertCurrent(ctx, rows); err != nil {
		return fmt.Errorf("failed to upsert current statuses: %w", err)
	}
	return nil
}
