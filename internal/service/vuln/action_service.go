package vuln

import (
	"context"
	"fmt"
	"strings"
	"time"

	model "neovuln/internal/model/basemodel"
	"neovuln/internal/model/system"
	"neovuln/internal/model/vuln"
	"neovuln/internal/pkg/logger"
	"neovuln/internal/pkg/utils"
	pteamrepo "neovuln/internal/repo/mysql/pteam"
	vulnrepo "neovuln/internal/repo/mysql/vuln"
	redisrepo "neovuln/internal/repo/redis"
	"neovuln/internal/service/ticket"

	"gorm.io/gorm"
)

type ActionService interface {
	CreateAction(ctx context.Context, topicID string, req *vuln.CreateActionRequest, actorID string) (*vuln.TopicAction, error)
	ListActions(ctx context.Context, topicID string) ([]*vuln.TopicAction, error)
	DeleteAction(ctx context.Context, actionID string, actorID string) error
	// CreateActionLog 记录人工执行了某个动作，工单状态变更时可以引用日志ID
	CreateActionLog(ctx context.Context, req *vuln.CreateActionLogRequest, actorID string) (*vuln.ActionLog, error)
}

type actionService struct {
	db      *gorm.DB
	engine  *ticket.Engine
	topics  vulnrepo.TopicRepository
	actions vulnrepo.ActionRepository
	cache   *redisrepo.SummaryCache
}

func NewActionService(db *gorm.DB, engine *ticket.Engine, cache *redisrepo.SummaryCache) ActionService {
	return &actionService{
		db:      db,
		engine:  engine,
		topics:  vulnrepo.NewTopicRepository(db),
		actions: vulnrepo.NewActionRepository(db),
		cache:   cache,
	}
}

func (s *actionService) CreateAction(ctx context.Context, topicID string, req *vuln.CreateActionRequest, actorID string) (*vuln.TopicAction, error) {
	if err := validateActionRequests([]*vuln.CreateActionRequest{req}); err != nil {
		return nil, err
	}

	var action *vuln.TopicAction
	touched, err := s.engine.InTransaction(ctx, func(tx *gorm.DB, engine *ticket.Engine) error {
		topics := vulnrepo.NewTopicRepository(tx)
		actions := vulnrepo.NewActionRepository(tx)

		topic, err := topics.GetByID(ctx, topicID)
		if err != nil {
			return fmt.Errorf("failed to get topic: %w", err)
		}
		if topic == nil {
			return system.ErrTopicNotFound
		}
		if err := ensureActionIDFree(ctx, actions, req.ActionID); err != nil {
			return err
		}
		if bad := actionTagsMismatch(topic.TagNames(), req.Ext.Tags); len(bad) > 0 {
			return system.NewValidationError("ext.tags", "动作标签与话题标签不符: "+strings.Join(bad, ", "))
		}

		action = newTopicAction(topicID, req, actorID)
		if err := actions.Create(ctx, action); err != nil {
			return fmt.Errorf("failed to create action: %w", err)
		}
		return ticket.NewDispatcher(engine).ActionCreated(ctx, topic)
	})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateQuietly(ctx, touched...)

	logger.LogBusinessOperation("create_action", actorID, "", utils.GetClientIPFromContext(ctx),
		utils.GetRequestIDFromContext(ctx), "success", "topic action created",
		map[string]interface{}{
			"topic_id":  topicID,
			"action_id": action.ActionID,
		})
	return s.actions.GetByID(ctx, action.ActionID)
}

func (s *actionService) ListActions(ctx context.Context, topicID string) ([]*vuln.TopicAction, error) {
	topic, err := s.topics.GetByID(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}
	if topic == nil {
		return nil, system.ErrTopicNotFound
	}
	return s.actions.ListByTopic(ctx, topicID)
}

func (s *actionService) DeleteAction(ctx context.Context, actionID string, actorID string) error {
	var topicID string
	touched, err := s.engine.InTransaction(ctx, func(tx *gorm.DB, engine *ticket.Engine) error {
		actions := vulnrepo.NewActionRepository(tx)
		action, err := actions.GetByID(ctx, actionID)
		if err != nil {
			return fmt.Errorf("failed to get action: %w", err)
		}
		if action == nil {
			return system.ErrActionNotFound
		}
		topicID = action.TopicID
		topic, err := vulnrepo.NewTopicRepository(tx).GetByID(ctx, action.TopicID)
		if err != nil {
			return fmt.Errorf("failed to get topic: %w", err)
		}
		if err := actions.Delete(ctx, actionID); err != nil {
			return fmt.Errorf("failed to delete action: %w", err)
		}
		if topic == nil {
			return nil
		}
		return ticket.NewDispatcher(engine).ActionDeleted(ctx, topic, actionID)
	})
	if err != nil {
		return err
	}
	s.cache.InvalidateQuietly(ctx, touched...)

	logger.LogBusinessOperation("delete_action", actorID, "", utils.GetClientIPFromContext(ctx),
		utils.GetRequestIDFromContext(ctx), "success", "topic action deleted",
		map[string]interface{}{
			"topic_id":  topicID,
			"action_id": actionID,
		})
	return nil
}

func (s *actionService) CreateActionLog(ctx context.Context, req *vuln.CreateActionLogRequest, actorID string) (*vuln.ActionLog, error) {
	topic, err := s.topics.GetByID(ctx, req.TopicID)
	if err != nil {
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}
	if topic == nil || topic.Disabled {
		return nil, system.NewValidationError("topic_id", "话题不存在")
	}
	action, err := s.actions.GetByID(ctx, req.ActionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get action: %w", err)
	}
	if action == nil || action.TopicID != req.TopicID {
		return nil, system.NewValidationError("action_id", "动作不属于该话题")
	}

	if req.PTeamID != nil {
		p, err := pteamrepo.NewPTeamRepository(s.db).GetByID(ctx, *req.PTeamID)
		if err != nil {
			return nil, fmt.Errorf("failed to get pteam: %w", err)
		}
		if p == nil || p.Disabled {
			return nil, system.NewValidationError("pteam_id", "团队不存在")
		}
		rows, err := pteamrepo.NewStatusRepository(s.db).ListCurrentByTopic(ctx, req.TopicID)
		if err != nil {
			return nil, fmt.Errorf("failed to list current statuses: %w", err)
		}
		found := false
		for _, row := range rows {
			if row.PTeamID == p.PTeamID {
				found = true
				break
			}
		}
		if !found {
			return nil, system.NewValidationError("topic_id", "话题与团队无关")
		}
	}

	executedAt := model.Now()
	if req.ExecutedAt != nil {
		executedAt = req.ExecutedAt.Truncate(time.Microsecond)
	}
	log := &vuln.ActionLog{
		ActionID:    action.ActionID,
		TopicID:     topic.TopicID,
		UserID:      actorID,
		PTeamID:     req.PTeamID,
		Action:      action.Action,
		ActionType:  action.ActionType,
		Recommended: action.Recommended,
		ExecutedAt:  executedAt,
	}
	if err := s.actions.CreateLog(ctx, log); err != nil {
		return nil, fmt.Errorf("failed to create action log: %w", err)
	}

	logger.LogBusinessOperation("create_action_log", actorID, "", utils.GetClientIPFromContext(ctx),
		utils.GetRequestIDFromContext(ctx), "success", "action log created",
		map[string]interface{}{
			"logging_id": log.LoggingID,
			"topic_id":   log.TopicID,
			"action_id":  log.ActionID,
		})
	return log, nil
}

// validateActionRequests 检查动作类型，并且同一请求中的动作ID不能重复
func validateActionRequests(reqs []*vuln.CreateActionRequest) error {
	seen := make(map[string]struct{}, len(reqs))
	for _, a := range reqs {
		if a == nil {
			return system.NewValidationError("actions", "动作不能为空")
		}
		if strings.TrimSpace(a.Action) == "" {
			return system.NewValidationError("action", "动作内容不能为空")
		}
		if !a.ActionType.Valid() {
			return system.NewValidationError("action_type", "未知的动作类型: "+string(a.ActionType))
		}
		if a.ActionID == "" {
			continue
		}
		if _, dup := seen[a.ActionID]; dup {
			return system.NewValidationError("action_id", "动作ID重复: "+a.ActionID)
		}
		seen[a.ActionID] = struct{}{}
	}
	return nil
}

func ensureActionIDFree(ctx context.Context, actions vulnrepo.ActionRepository, id string) error {
	if id == "" {
		return nil
	}
	existing, err := actions.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get action: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("action %s: %w", id, system.ErrConflict)
	}
	return nil
}
