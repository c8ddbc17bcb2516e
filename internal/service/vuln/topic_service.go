/*
 * @author: sun977
 * @date: 2025.12.04
 * @description: 话题服务
 *   话题与处置动作的增删改，所有写操作在一个事务内完成并调用工单分发器，
 *   提交后清理受影响团队的摘要缓存。
 */

package vuln

import (
	"context"
	"fmt"
	"strings"

	model "neovuln/internal/model/basemodel"
	"neovuln/internal/model/system"
	"neovuln/internal/model/tag_system"
	"neovuln/internal/model/vuln"
	"neovuln/internal/pkg/logger"
	"neovuln/internal/pkg/utils"
	vulnrepo "neovuln/internal/repo/mysql/vuln"
	redisrepo "neovuln/internal/repo/redis"
	tagservice "neovuln/internal/service/tag_system"
	"neovuln/internal/service/ticket"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TopicService interface {
	CreateTopic(ctx context.Context, req *vuln.CreateTopicRequest, actorID string) (*vuln.Topic, error)
	// GetTopic 获取话题(含已禁用)及其处置动作
	GetTopic(ctx context.Context, id string) (*vuln.Topic, error)
	ListTopics(ctx context.Context, req *vuln.ListTopicsRequest) ([]*vuln.Topic, int64, error)
	UpdateTopic(ctx context.Context, id string, req *vuln.UpdateTopicRequest, actorID string) (*vuln.Topic, error)
	// DeleteTopic 删除话题、关联关系与处置动作，动作日志和状态历史保留
	DeleteTopic(ctx context.Context, id string, actorID string) error

	// AutoCloseTopic 对话题覆盖到的全部 (团队, 标签) 重新尝试自动关闭
	AutoCloseTopic(ctx context.Context, id string, actorID string) (int, error)
	// ReconcileTopic 按最新状态重建话题的当前状态行
	ReconcileTopic(ctx context.Context, id string, actorID string) error
}

type topicService struct {
	db      *gorm.DB
	engine  *ticket.Engine
	tags    tagservice.TagService
	topics  vulnrepo.TopicRepository
	actions vulnrepo.ActionRepository
	cache   *redisrepo.SummaryCache
}

func NewTopicService(db *gorm.DB, engine *ticket.Engine, tags tagservice.TagService, cache *redisrepo.SummaryCache) TopicService {
	return &topicService{
		db:      db,
		engine:  engine,
		tags:    tags,
		topics:  vulnrepo.NewTopicRepository(db),
		actions: vulnrepo.NewActionRepository(db),
		cache:   cache,
	}
}

func (s *topicService) CreateTopic(ctx context.Context, req *vuln.CreateTopicRequest, actorID string) (*vuln.Topic, error) {
	title := strings.TrimSpace(req.Title)
	abstract := strings.TrimSpace(req.Abstract)
	if title == "" {
		return nil, system.NewValidationError("title", "标题不能为空")
	}
	if err := validateThreatImpact(req.ThreatImpact); err != nil {
		return nil, err
	}
	if err := validateActionRequests(req.Actions); err != nil {
		return nil, err
	}

	var created *vuln.Topic
	touched, err := s.engine.InTransaction(ctx, func(tx *gorm.DB, engine *ticket.Engine) error {
		topics := vulnrepo.NewTopicRepository(tx)
		actions := vulnrepo.NewActionRepository(tx)

		if req.TopicID != "" {
			existing, err := topics.GetByID(ctx, req.TopicID)
			if err != nil {
				return fmt.Errorf("failed to get topic: %w", err)
			}
			if existing != nil {
				return fmt.Errorf("topic %s: %w", req.TopicID, system.ErrConflict)
			}
		}
		for _, a := range req.Actions {
			if err := ensureActionIDFree(ctx, actions, a.ActionID); err != nil {
				return err
			}
		}

		tags, err := s.tags.WithDB(tx).GetOrCreateTags(ctx, req.Tags)
		if err != nil {
			return err
		}
		tagNames := namesOf(tags)
		for _, a := range req.Actions {
			if bad := actionTagsMismatch(tagNames, a.Ext.Tags); len(bad) > 0 {
				return system.NewValidationError("actions", "动作标签与话题标签不符: "+strings.Join(bad, ", "))
			}
		}

		topic := &vuln.Topic{
			TopicID:            req.TopicID,
			Title:              title,
			Abstract:           abstract,
			ThreatImpact:       req.ThreatImpact,
			ContentFingerprint: ContentFingerprint(title, abstract, req.ThreatImpact, tagNames),
			CreatedBy:          actorID,
		}
		if err := topics.Create(ctx, topic); err != nil {
			return fmt.Errorf("failed to create topic: %w", err)
		}
		if err := topics.ReplaceTags(ctx, topic.TopicID, idsOf(tags)); err != nil {
			return fmt.Errorf("failed to bind tags: %w", err)
		}
		if err := s.bindMispTags(ctx, topics, topic.TopicID, req.MispTags); err != nil {
			return err
		}
		for _, a := range req.Actions {
			if err := actions.Create(ctx, newTopicAction(topic.TopicID, a, actorID)); err != nil {
				return fmt.Errorf("failed to create action: %w", err)
			}
		}

		created, err = topics.GetByID(ctx, topic.TopicID)
		if err != nil {
			return fmt.Errorf("failed to reload topic: %w", err)
		}
		return ticket.NewDispatcher(engine).TopicCreated(ctx, created)
	})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateQuietly(ctx, touched...)

	logger.LogBusinessOperation("create_topic", actorID, "", utils.GetClientIPFromContext(ctx),
		utils.GetRequestIDFromContext(ctx), "success", "topic created",
		map[string]interface{}{
			"topic_id":       created.TopicID,
			"tags":           created.TagNames(),
			"actions":        len(req.Actions),
			"touched_pteams": len(touched),
		})
	return s.GetTopic(ctx, created.TopicID)
}

func (s *topicService) GetTopic(ctx context.Context, id string) (*vuln.Topic, error) {
	topic, err := s.topics.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}
	if topic == nil {
		return nil, system.ErrTopicNotFound
	}
	topic.Actions, err = s.actions.ListByTopic(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list actions: %w", err)
	}
	return topic, nil
}

func (s *topicService) ListTopics(ctx context.Context, req *vuln.ListTopicsRequest) ([]*vuln.Topic, int64, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 || req.PageSize > 100 {
		req.PageSize = 20
	}
	return s.topics.List(ctx, req)
}

func (s *topicService) UpdateTopic(ctx context.Context, id string, req *vuln.UpdateTopicRequest, actorID string) (*vuln.Topic, error) {
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, system.NewValidationError("title", "标题不能为空")
	}
	if req.ThreatImpact != nil {
		if err := validateThreatImpact(*req.ThreatImpact); err != nil {
			return nil, err
		}
	}

	var change ticket.TopicChange
	touched, err := s.engine.InTransaction(ctx, func(tx *gorm.DB, engine *ticket.Engine) error {
		topics := vulnrepo.NewTopicRepository(tx)
		topic, err := topics.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get topic: %w", err)
		}
		if topic == nil {
			return system.ErrTopicNotFound
		}

		title, abstract, impact := topic.Title, topic.Abstract, topic.ThreatImpact
		if req.Title != nil {
			title = strings.TrimSpace(*req.Title)
		}
		if req.Abstract != nil {
			abstract = strings.TrimSpace(*req.Abstract)
		}
		if req.ThreatImpact != nil {
			impact = *req.ThreatImpact
		}

		tags := topic.Tags
		if req.Tags != nil {
			tags, err = s.tags.WithDB(tx).GetOrCreateTags(ctx, *req.Tags)
			if err != nil {
				return err
			}
			change.TagsChanged = !sameIDs(idsOf(tags), topic.TagIDs())
		}
		if change.TagsChanged {
			if err := checkExistingActions(ctx, vulnrepo.NewActionRepository(tx), id, namesOf(tags)); err != nil {
				return err
			}
		}
		change.ThreatImpactChanged = impact != topic.ThreatImpact
		if req.Disabled != nil {
			change.Reenabled = topic.Disabled && !*req.Disabled
		}

		fields := map[string]interface{}{
			"title":         title,
			"abstract":      abstract,
			"threat_impact": impact,
			"updated_at":    model.Now(),
		}
		if req.Disabled != nil {
			fields["disabled"] = *req.Disabled
		}
		if title != topic.Title || abstract != topic.Abstract || change.ThreatImpactChanged || change.TagsChanged {
			fields["content_fingerprint"] = ContentFingerprint(title, abstract, impact, namesOf(tags))
		}
		if err := topics.Update(ctx, id, fields); err != nil {
			return fmt.Errorf("failed to update topic: %w", err)
		}
		if change.TagsChanged {
			if err := topics.ReplaceTags(ctx, id, idsOf(tags)); err != nil {
				return fmt.Errorf("failed to bind tags: %w", err)
			}
		}
		if req.MispTags != nil {
			if err := s.bindMispTags(ctx, topics, id, *req.MispTags); err != nil {
				return err
			}
		}

		updated, err := topics.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to reload topic: %w", err)
		}
		return ticket.NewDispatcher(engine).TopicUpdated(ctx, updated, change)
	})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateQuietly(ctx, touched...)

	logger.LogBusinessOperation("update_topic", actorID, "", utils.GetClientIPFromContext(ctx),
		utils.GetRequestIDFromContext(ctx), "success", "topic updated",
		map[string]interface{}{
			"topic_id":              id,
			"tags_changed":          change.TagsChanged,
			"threat_impact_changed": change.ThreatImpactChanged,
			"reenabled":             change.Reenabled,
			"disabled":              req.Disabled != nil && *req.Disabled,
		})
	return s.GetTopic(ctx, id)
}

func (s *topicService) DeleteTopic(ctx context.Context, id string, actorID string) error {
	touched, err := s.engine.InTransaction(ctx, func(tx *gorm.DB, engine *ticket.Engine) error {
		topics := vulnrepo.NewTopicRepository(tx)
		topic, err := topics.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get topic: %w", err)
		}
		if topic == nil {
			return system.ErrTopicNotFound
		}
		if err := topics.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete topic: %w", err)
		}
		return ticket.NewDispatcher(engine).TopicDeleted(ctx, id)
	})
	if err != nil {
		return err
	}
	s.cache.InvalidateQuietly(ctx, touched...)

	logger.LogBusinessOperation("delete_topic", actorID, "", utils.GetClientIPFromContext(ctx),
		utils.GetRequestIDFromContext(ctx), "success", "topic deleted",
		map[string]interface{}{"topic_id": id})
	return nil
}

func (s *topicService) AutoCloseTopic(ctx context.Context, id string, actorID string) (int, error) {
	closed := 0
	touched, err := s.engine.InTransaction(ctx, func(tx *gorm.DB, engine *ticket.Engine) error {
		topic, err := vulnrepo.NewTopicRepository(tx).GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get topic: %w", err)
		}
		if topic == nil {
			return system.ErrTopicNotFound
		}
		closed, err = engine.AutoCloseByTopic(ctx, topic)
		if err != nil {
			return err
		}
		return engine.FixCurrentStatusByTopic(ctx, topic)
	})
	if err != nil {
		return 0, err
	}
	s.cache.InvalidateQuietly(ctx, touched...)

	logger.LogBusinessOperation("auto_close_topic", actorID, "", utils.GetClientIPFromContext(ctx),
		utils.GetRequestIDFromContext(ctx), "success", "topic auto close finished",
		map[string]interface{}{"topic_id": id, "closed": closed})
	return closed, nil
}

func (s *topicService) ReconcileTopic(ctx context.Context, id string, actorID string) error {
	touched, err := s.engine.InTransaction(ctx, func(tx *gorm.DB, engine *ticket.Engine) error {
		topic, err := vulnrepo.NewTopicRepository(tx).GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get topic: %w", err)
		}
		if topic == nil {
			return system.ErrTopicNotFound
		}
		return engine.FixCurrentStatusByTopic(ctx, topic)
	})
	if err != nil {
		return err
	}
	s.cache.InvalidateQuietly(ctx, touched...)

	logger.LogBusinessOperation("reconcile_topic", actorID, "", utils.GetClientIPFromContext(ctx),
		utils.GetRequestIDFromContext(ctx), "success", "topic reconciled",
		map[string]interface{}{"topic_id": id, "pteams": len(touched)})
	return nil
}

func (s *topicService) bindMispTags(ctx context.Context, topics vulnrepo.TopicRepository, topicID string, names []string) error {
	ids := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		tag, err := topics.GetOrCreateMispTag(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to get misp tag: %w", err)
		}
		ids = append(ids, tag.TagID)
	}
	if err := topics.ReplaceMispTags(ctx, topicID, ids); err != nil {
		return fmt.Errorf("failed to bind misp tags: %w", err)
	}
	return nil
}

// checkExistingActions 标签变更后已有动作的标签仍须属于话题
func checkExistingActions(ctx context.Context, actions vulnrepo.ActionRepository, topicID string, tagNames []string) error {
	existing, err := actions.ListByTopic(ctx, topicID)
	if err != nil {
		return fmt.Errorf("failed to list actions: %w", err)
	}
	for _, a := range existing {
		if bad := actionTagsMismatch(tagNames, a.ExtData().Tags); len(bad) > 0 {
			return system.NewValidationError("tags", "已有动作的标签不在新的话题标签中: "+strings.Join(bad, ", "))
		}
	}
	return nil
}

func validateThreatImpact(v int) error {
	if v < vuln.ThreatImpactImmediate || v > vuln.ThreatImpactNone {
		return system.NewValidationError("threat_impact", "威胁等级必须在 1-4 之间")
	}
	return nil
}

func newTopicAction(topicID string, req *vuln.CreateActionRequest, actorID string) *vuln.TopicAction {
	ext := req.Ext
	if ext.Tags == nil {
		ext.Tags = []string{}
	}
	if ext.VulnerableVersions == nil {
		ext.VulnerableVersions = map[string][]string{}
	}
	return &vuln.TopicAction{
		ActionID:    req.ActionID,
		TopicID:     topicID,
		Action:      strings.TrimSpace(req.Action),
		ActionType:  req.ActionType,
		Recommended: req.Recommended,
		Ext:         datatypes.NewJSONType(ext),
		CreatedBy:   actorID,
	}
}

func namesOf(tags []*tag_system.Tag) []string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.TagName)
	}
	return names
}

func idsOf(tags []*tag_system.Tag) []string {
	ids := make([]string, 0, len(tags))
	for _, t := range tags {
		ids = append(ids, t.TagID)
	}
	return ids
}

func sameIDs(a, b []string) bool {
	left, right := sortedUnique(a), sortedUnique(b)
	if len(left) != len(right) {
		return false
	}
	for i := range left {
		if left[i] != right[i] {
			return false
		}
	}
	return true
}
