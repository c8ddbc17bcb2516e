package ticket

import (
	"context"
	"fmt"
	"time"

	"neovuln/internal/model/pteam"
	"neovuln/internal/model/tag_system"
	"neovuln/internal/model/vuln"
	"neovuln/internal/pkg/logger"
	"neovuln/internal/pkg/utils"

	"gorm.io/datatypes"
)

// SetStatus 追加一条状态记录并同步更新当前状态行
// 调用方负责校验请求，人工设置的校验见 pteam 服务
func (e *Engine) SetStatus(ctx context.Context, p *pteam.PTeam, tag *tag_system.Tag, topic *vuln.Topic,
	req *pteam.SetTopicStatusRequest, actorID string) (*pteam.PTeamTopicTagStatus, error) {
	key := pteam.StatusKey{PTeamID: p.PTeamID, TopicID: topic.TopicID, TagID: tag.TagID}

	latest, err := e.statuses.LatestStatus(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest status: %w", err)
	}

	assignees := dedupe(req.Assignees)
	if len(assignees) == 0 && req.TopicStatus == pteam.TopicStatusAcknowledged &&
		(latest == nil || latest.TopicStatus == pteam.TopicStatusAlerted) {
		assignees = []string{actorID}
	}

	// 同一三元组的记录按 created_at 取最新，保证新记录严格晚于已有记录
	createdAt := e.now()
	if latest != nil && !createdAt.After(latest.CreatedAt) {
		createdAt = latest.CreatedAt.Add(time.Microsecond)
	}

	status := &pteam.PTeamTopicTagStatus{
		PTeamID:     key.PTeamID,
		TopicID:     key.TopicID,
		TagID:       key.TagID,
		TopicStatus: req.TopicStatus,
		UserID:      actorID,
		Note:        req.Note,
		Assignees:   datatypes.NewJSONSlice(assignees),
		LoggingIDs:  datatypes.NewJSONSlice(dedupe(req.LoggingIDs)),
		ScheduledAt: req.ScheduledAt,
		CreatedAt:   createdAt,
	}
	if err := e.statuses.CreateStatus(ctx, status); err != nil {
		return nil, fmt.Errorf("failed to create status: %w", err)
	}

	current := buildCurrent(key, topic, status)
	if err := e.statuses.UpsertCurrent(ctx, []*pteam.CurrentPTeamTopicTagStatus{current}); err != nil {
		return nil, fmt.Errorf("failed to update current status: %w", err)
	}
	e.touch(key.PTeamID)

	previous := pteam.TopicStatusAlerted
	if latest != nil {
		previous = latest.TopicStatus
	}
	logger.LogAuditOperation(actorID, "", "set_topic_status", "pteam_topic_tag_status", "success",
		utils.GetClientIPFromContext(ctx), "", utils.GetRequestIDFromContext(ctx),
		map[string]interface{}{
			"pteam_id":  key.PTeamID,
			"topic_id":  key.TopicID,
			"tag_id":    key.TagID,
			"status_id": status.StatusID,
			"from":      previous,
			"to":        status.TopicStatus,
			"is_system": actorID == e.systemUserID,
		})

	return status, nil
}

// buildCurrent 由话题与最新状态生成当前状态行
// 最新状态为 completed 时 threat_impact 与 updated_at 置空
func buildCurrent(key pteam.StatusKey, topic *vuln.Topic, latest *pteam.PTeamTopicTagStatus) *pteam.CurrentPTeamTopicTagStatus {
	row := &pteam.CurrentPTeamTopicTagStatus{
		PTeamID:     key.PTeamID,
		TopicID:     key.TopicID,
		TagID:       key.TagID,
		TopicStatus: pteam.TopicStatusAlerted,
	}
	if latest != nil {
		statusID := latest.StatusID
		row.StatusID = &statusID
		row.TopicStatus = latest.TopicStatus
	}
	if latest == nil || latest.TopicStatus != pteam.TopicStatusCompleted {
		threatImpact := topic.ThreatImpact
		updatedAt := topic.UpdatedAt
		row.ThreatImpact = &threatImpact
		row.UpdatedAt = &updatedAt
	}
	return row
}

// latestByKey 每个三元组 created_at 最大的状态记录
func latestByKey(statuses []*pteam.PTeamTopicTagStatus) map[pteam.StatusKey]*pteam.PTeamTopicTagStatus {
	latest := make(map[pteam.StatusKey]*pteam.PTeamTopicTagStatus)
	for _, s := range statuses {
		key := pteam.KeyOf(s)
		cur, ok := latest[key]
		if !ok || s.CreatedAt.After(cur.CreatedAt) ||
			(s.CreatedAt.Equal(cur.CreatedAt) && s.StatusID > cur.StatusID) {
			latest[key] = s
		}
	}
	return latest
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
