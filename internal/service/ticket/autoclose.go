package ticket

import (
	"context"
	"errors"
	"fmt"

	"neovuln/internal/model/pteam"
	"neovuln/internal/model/tag_system"
	"neovuln/internal/model/vuln"
	"neovuln/internal/pkg/logger"
	"neovuln/internal/pkg/utils"
	"neovuln/internal/pkg/version"
	pteamrepo "neovuln/internal/repo/mysql/pteam"
)

// PTeamTag 团队与其引用的标签
type PTeamTag struct {
	PTeam *pteam.PTeam
	Tag   *tag_system.Tag
}

// excluded 三元组的最新状态为 completed，或为计划在未来处理的 scheduled 时，自动关闭跳过
func (e *Engine) excluded(ctx context.Context, key pteam.StatusKey) (bool, error) {
	latest, err := e.statuses.LatestStatus(ctx, key)
	if err != nil {
		return false, err
	}
	if latest == nil {
		return false, nil
	}
	return latest.TopicStatus == pteam.TopicStatusCompleted || latest.ScheduledInFuture(e.now()), nil
}

// TryAutoClose 判断团队声明的版本是否已全部不在话题动作声明的受影响范围内，是则自动关闭
// 版本数据无法解析或无法比较时放弃关闭并记录日志，不返回错误
func (e *Engine) TryAutoClose(ctx context.Context, p *pteam.PTeam, tag *tag_system.Tag, topic *vuln.Topic) (bool, error) {
	if topic.Disabled || p.Disabled {
		return false, nil
	}

	key := pteam.StatusKey{PTeamID: p.PTeamID, TopicID: topic.TopicID, TagID: tag.TagID}
	skip, err := e.excluded(ctx, key)
	if err != nil {
		return false, err
	}
	if skip {
		return false, nil
	}

	// 只取团队对该标签本身声明的版本
	refVersions, err := e.refs.ListVersions(ctx, p.PTeamID, tag.TagID)
	if err != nil {
		return false, fmt.Errorf("failed to list reference versions: %w", err)
	}
	if len(refVersions) == 0 {
		return false, nil
	}

	actions, err := e.actions.ListByTopic(ctx, topic.TopicID)
	if err != nil {
		return false, fmt.Errorf("failed to list topic actions: %w", err)
	}
	matched := pickActionsForPTeamTag(actions, tag)
	if len(matched) == 0 {
		return false, nil
	}
	vulnerableStrings := pickVulnerableVersionStrings(matched, tag)
	if len(vulnerableStrings) == 0 {
		return false, nil
	}

	vulnerable, err := detectVulnerable(tag.TagName, vulnerableStrings, refVersions)
	if err != nil {
		if errors.Is(err, version.ErrVersionMatch) {
			logger.LogBusinessOperation("auto_close_abstain", e.systemUserID, "system", "",
				utils.GetRequestIDFromContext(ctx), "failed", "human check required",
				map[string]interface{}{
					"pteam_id": p.PTeamID,
					"topic_id": topic.TopicID,
					"tag_id":   tag.TagID,
					"tag_name": tag.TagName,
					"reason":   "human_check_required",
					"error":    err.Error(),
				})
			return false, nil
		}
		return false, err
	}
	if vulnerable {
		return false, nil
	}

	loggingIDs := make([]string, 0, len(matched))
	executedAt := e.now()
	for _, action := range matched {
		log := &vuln.ActionLog{
			ActionID:    action.ActionID,
			TopicID:     topic.TopicID,
			UserID:      e.systemUserID,
			PTeamID:     &key.PTeamID,
			Action:      action.Action,
			ActionType:  action.ActionType,
			Recommended: action.Recommended,
			ExecutedAt:  executedAt,
		}
		if err := e.actions.CreateLog(ctx, log); err != nil {
			return false, fmt.Errorf("failed to create action log: %w", err)
		}
		loggingIDs = append(loggingIDs, log.LoggingID)
	}

	req := &pteam.SetTopicStatusRequest{
		TopicStatus: pteam.TopicStatusCompleted,
		Note:        AutoCloseNote,
		LoggingIDs:  loggingIDs,
	}
	if _, err := e.SetStatus(ctx, p, tag, topic, req, e.systemUserID); err != nil {
		return false, err
	}

	logger.LogBusinessOperation("auto_close", e.systemUserID, "system", "",
		utils.GetRequestIDFromContext(ctx), "success", "ticket auto closed",
		map[string]interface{}{
			"pteam_id":    p.PTeamID,
			"topic_id":    topic.TopicID,
			"tag_id":      tag.TagID,
			"logging_ids": loggingIDs,
		})
	return true, nil
}

// detectVulnerable 按标签名对应的版本族解析双方，任一版本落在任一范围内即仍受影响
func detectVulnerable(tagName string, vulnerableStrings, refVersions []string) (bool, error) {
	family := version.ForTagName(tagName)

	var ranges []*version.Range
	for _, s := range vulnerableStrings {
		parsed, err := version.ParseRanges(family, s)
		if err != nil {
			return false, err
		}
		ranges = append(ranges, parsed...)
	}

	versions := make([]version.Version, 0, len(refVersions))
	for _, s := range refVersions {
		v, err := family.ParseVersion(s)
		if err != nil {
			return false, err
		}
		versions = append(versions, v)
	}

	return version.DetectMatched(ranges, versions)
}

// AutoCloseByTopic 对话题覆盖到的每个 (团队, 标签) 尝试自动关闭，返回关闭数量
func (e *Engine) AutoCloseByTopic(ctx context.Context, topic *vuln.Topic) (int, error) {
	if topic.Disabled {
		return 0, nil
	}

	covered, err := e.refs.ListCoveredTagsByTopicTags(ctx, topic.TagIDs())
	if err != nil {
		return 0, fmt.Errorf("failed to list covered tags: %w", err)
	}
	pairs, err := e.loadPairs(ctx, covered)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, pair := range pairs {
		ok, err := e.TryAutoClose(ctx, pair.PTeam, pair.Tag, topic)
		if err != nil {
			return closed, err
		}
		if ok {
			closed++
		}
	}
	return closed, nil
}

// AutoCloseByPTeamTags 对每个 (团队, 标签) 覆盖到的启用话题尝试自动关闭，返回关闭数量
func (e *Engine) AutoCloseByPTeamTags(ctx context.Context, pairs []PTeamTag) (int, error) {
	closed := 0
	for _, pair := range pairs {
		if pair.PTeam.Disabled {
			continue
		}
		topicTagIDs := []string{pair.Tag.TagID}
		if pair.Tag.ParentID != nil && *pair.Tag.ParentID != pair.Tag.TagID {
			topicTagIDs = append(topicTagIDs, *pair.Tag.ParentID)
		}
		topics, err := e.topics.ListEnabledByTagIDs(ctx, topicTagIDs)
		if err != nil {
			return closed, fmt.Errorf("failed to list topics: %w", err)
		}
		for _, topic := range topics {
			ok, err := e.TryAutoClose(ctx, pair.PTeam, pair.Tag, topic)
			if err != nil {
				return closed, err
			}
			if ok {
				closed++
			}
		}
	}
	return closed, nil
}

// loadPairs 把 (团队ID, 标签ID) 加载为完整对象，保持输入顺序
func (e *Engine) loadPairs(ctx context.Context, covered []*pteamrepo.CoveredTag) ([]PTeamTag, error) {
	if len(covered) == 0 {
		return nil, nil
	}
	pteamIDs := make([]string, 0, len(covered))
	tagIDs := make([]string, 0, len(covered))
	for _, c := range covered {
		pteamIDs = append(pteamIDs, c.PTeamID)
		tagIDs = append(tagIDs, c.TagID)
	}

	teams, err := e.pteams.GetByIDs(ctx, pteamIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load pteams: %w", err)
	}
	tags, err := e.tags.GetTagsByIDs(ctx, tagIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}
	teamByID := make(map[string]*pteam.PTeam, len(teams))
	for _, t := range teams {
		teamByID[t.PTeamID] = t
	}
	tagByID := make(map[string]*tag_system.Tag, len(tags))
	for _, t := range tags {
		tagByID[t.TagID] = t
	}

	pairs := make([]PTeamTag, 0, len(covered))
	for _, c := range covered {
		p, tag := teamByID[c.PTeamID], tagByID[c.TagID]
		if p == nil || tag == nil {
			return nil, fmt.Errorf("dangling reference pteam=%s tag=%s", c.PTeamID, c.TagID)
		}
		pairs = append(pairs, PTeamTag{PTeam: p, Tag: tag})
	}
	return pairs, nil
}
