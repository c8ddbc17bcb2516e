package pteam

import (
	"context"
	"fmt"
	"sort"
	"time"

	model "neovuln/internal/model/basemodel"
	"neovuln/internal/model/pteam"
	"neovuln/internal/model/system"
	"neovuln/internal/model/tag_system"
	"neovuln/internal/model/vuln"
	"neovuln/internal/pkg/logger"
	"neovuln/internal/pkg/tagtree"
	"neovuln/internal/pkg/utils"
	pteamrepo "neovuln/internal/repo/mysql/pteam"
	tagrepo "neovuln/internal/repo/mysql/tag_system"
	vulnrepo "neovuln/internal/repo/mysql/vuln"
	"neovuln/internal/service/ticket"

	"gorm.io/gorm"
)

// triple 一次状态读写涉及的团队、话题与团队标签
type triple struct {
	pteam *pteam.PTeam
	topic *vuln.Topic
	tag   *tag_system.Tag
}

func (t *triple) key() pteam.StatusKey {
	return pteam.StatusKey{PTeamID: t.pteam.PTeamID, TopicID: t.topic.TopicID, TagID: t.tag.TagID}
}

// resolveTriple 团队启用、话题存在且启用、标签是团队引用的标签并且覆盖话题
func (s *pteamService) resolveTriple(ctx context.Context, db *gorm.DB, pteamID, topicID, tagID string) (*triple, error) {
	p, err := s.getPTeam(ctx, pteamrepo.NewPTeamRepository(db), pteamID, false)
	if err != nil {
		return nil, err
	}

	topic, err := vulnrepo.NewTopicRepository(db).GetByID(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}
	if topic == nil || topic.Disabled {
		return nil, system.ErrTopicNotFound
	}

	covered, err := pteamrepo.NewReferenceRepository(db).ListCoveredTags(ctx, pteamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list covered tags: %w", err)
	}
	var ref *pteamrepo.CoveredTag
	for _, c := range covered {
		if c.TagID == tagID {
			ref = c
			break
		}
	}
	if ref == nil {
		return nil, fmt.Errorf("pteam tag %s: %w", tagID, system.ErrTagNotFound)
	}

	related := false
	for _, id := range topic.TagIDs() {
		if tagtree.Covers(ref.TagID, ref.ParentID, id) {
			related = true
			break
		}
	}
	if !related {
		return nil, system.NewValidationError("tag_id", "话题与该团队标签无关")
	}

	tag, err := tagrepo.NewTagRepository(db).GetTagByID(ctx, tagID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	if tag == nil {
		return nil, system.ErrTagNotFound
	}
	return &triple{pteam: p, topic: topic, tag: tag}, nil
}

// validateStatusRequest 人工设置状态的校验
func validateStatusRequest(req *pteam.SetTopicStatusRequest, now time.Time) error {
	if !req.TopicStatus.Valid() {
		return system.NewValidationError("topic_status", "未知的工单状态: "+string(req.TopicStatus))
	}
	if req.TopicStatus == pteam.TopicStatusAlerted {
		return system.NewValidationError("topic_status", "不能手动设置为 alerted")
	}
	if req.TopicStatus == pteam.TopicStatusScheduled {
		if req.ScheduledAt == nil || !req.ScheduledAt.After(now) {
			return system.NewValidationError("scheduled_at", "scheduled 状态需要一个未来的计划时间")
		}
	} else if req.ScheduledAt != nil {
		return system.NewValidationError("scheduled_at", "只有 scheduled 状态可以设置计划时间")
	}
	return nil
}

func (s *pteamService) SetTopicStatus(ctx context.Context, pteamID, topicID, tagID string,
	req *pteam.SetTopicStatusRequest, actorID string) (*pteam.TopicStatusResponse, error) {
	if err := validateStatusRequest(req, model.Now()); err != nil {
		return nil, err
	}
	if req.ScheduledAt != nil {
		at := req.ScheduledAt.Truncate(time.Microsecond)
		req.ScheduledAt = &at
	}

	var resp *pteam.TopicStatusResponse
	touched, err := s.engine.InTransaction(ctx, func(tx *gorm.DB, engine *ticket.Engine) error {
		t, err := s.resolveTriple(ctx, tx, pteamID, topicID, tagID)
		if err != nil {
			return err
		}

		if len(req.LoggingIDs) > 0 {
			logs, err := vulnrepo.NewActionRepository(tx).GetLogsByIDs(ctx, req.LoggingIDs)
			if err != nil {
				return fmt.Errorf("failed to get action logs: %w", err)
			}
			byID := make(map[string]*vuln.ActionLog, len(logs))
			for _, l := range logs {
				byID[l.LoggingID] = l
			}
			for _, id := range req.LoggingIDs {
				l, ok := byID[id]
				if !ok || l.TopicID != topicID {
					return system.NewValidationError("logging_ids", "动作日志不存在或不属于该话题: "+id)
				}
			}
		}

		status, err := engine.SetStatus(ctx, t.pteam, t.tag, t.topic, req, actorID)
		if err != nil {
			return err
		}
		resp = pteam.NewTopicStatusResponse(t.key(), status)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateQuietly(ctx, touched...)
	return resp, nil
}

func (s *pteamService) GetTopicStatus(ctx context.Context, pteamID, topicID, tagID string) (*pteam.TopicStatusResponse, error) {
	t, err := s.resolveTriple(ctx, s.db, pteamID, topicID, tagID)
	if err != nil {
		return nil, err
	}
	latest, err := s.statuses.LatestStatus(ctx, t.key())
	if err != nil {
		return nil, fmt.Errorf("failed to get latest status: %w", err)
	}
	return pteam.NewTopicStatusResponse(t.key(), latest), nil
}

// ListTopicStatusHistory 工单的全部状态记录，新的在前，每条附带 logging_ids 对应的动作日志
func (s *pteamService) ListTopicStatusHistory(ctx context.Context, pteamID, topicID, tagID string) ([]*pteam.TopicStatusHistoryEntry, error) {
	t, err := s.resolveTriple(ctx, s.db, pteamID, topicID, tagID)
	if err != nil {
		return nil, err
	}
	statuses, err := s.statuses.ListStatusHistory(ctx, t.key())
	if err != nil {
		return nil, fmt.Errorf("failed to list status history: %w", err)
	}

	var ids []string
	for _, st := range statuses {
		ids = append(ids, st.LoggingIDs...)
	}
	logs, err := vulnrepo.NewActionRepository(s.db).GetLogsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get action logs: %w", err)
	}
	byID := make(map[string]*vuln.ActionLog, len(logs))
	for _, l := range logs {
		byID[l.LoggingID] = l
	}

	entries := make([]*pteam.TopicStatusHistoryEntry, 0, len(statuses))
	for _, st := range statuses {
		entry := &pteam.TopicStatusHistoryEntry{
			TopicStatusResponse: pteam.NewTopicStatusResponse(t.key(), st),
			ActionLogs:          []*vuln.ActionLog{},
		}
		// 已删除的日志直接跳过
		for _, id := range st.LoggingIDs {
			if l, ok := byID[id]; ok {
				entry.ActionLogs = append(entry.ActionLogs, l)
			}
		}
		sort.SliceStable(entry.ActionLogs, func(i, j int) bool {
			return entry.ActionLogs[i].ExecutedAt.After(entry.ActionLogs[j].ExecutedAt)
		})
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *pteamService) FixStatusMismatch(ctx context.Context, pteamID string, tagID *string, actorID string) (*ticket.MismatchResult, error) {
	var result *ticket.MismatchResult
	touched, err := s.engine.InTransaction(ctx, func(tx *gorm.DB, engine *ticket.Engine) error {
		p, err := s.getPTeam(ctx, pteamrepo.NewPTeamRepository(tx), pteamID, false)
		if err != nil {
			return err
		}
		result, err = engine.FixStatusMismatch(ctx, p, tagID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateQuietly(ctx, touched...)

	logger.LogBusinessOperation("fix_status_mismatch", actorID, "", utils.GetClientIPFromContext(ctx),
		utils.GetRequestIDFromContext(ctx), "success", "status mismatch fixed",
		map[string]interface{}{
			"pteam_id": pteamID,
			"tag_id":   tagID,
			"checked":  result.Checked,
			"closed":   result.Closed,
		})
	return result, nil
}
