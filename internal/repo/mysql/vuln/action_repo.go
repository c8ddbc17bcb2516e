package vuln

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"neovuln/internal/model/vuln"
	"neovuln/internal/pkg/logger"
)

// ActionRepository 处置动作与动作日志数据访问接口
type ActionRepository interface {
	Create(ctx context.Context, action *vuln.TopicAction) error
	GetByID(ctx context.Context, id string) (*vuln.TopicAction, error)
	ListByTopic(ctx context.Context, topicID string) ([]*vuln.TopicAction, error)
	Delete(ctx context.Context, id string) error

	CreateLog(ctx context.Context, log *vuln.ActionLog) error
	GetLogsByIDs(ctx context.Context, ids []string) ([]*vuln.ActionLog, error)
}

type actionRepository struct {
	db *gorm.DB
}

func NewActionRepository(db *gorm.DB) ActionRepository {
	return &actionRepository{db: db}
}

func (r *actionRepository) Create(ctx context.Context, action *vuln.TopicAction) error {
	if err := r.db.WithContext(ctx).Create(action).Error; err != nil {
		logger.LogError(err, "", "", "", "create_topic_action", "REPO", map[string]interface{}{
			"operation": "create_topic_action",
			"topic_id":  action.TopicID,
		})
		return err
	}
	return nil
}

func (r *actionRepository) GetByID(ctx context.Context, id string) (*vuln.TopicAction, error) {
	var action vuln.TopicAction
	if err := r.db.WithContext(ctx).Where("action_id = ?", id).First(&action).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &action, nil
}

// ListByTopic 话题的全部处置动作，按创建时间排序
func (r *actionRepository) ListByTopic(ctx context.Context, topicID string) ([]*vuln.TopicAction, error) {
	var actions []*vuln.TopicAction
	err := r.db.WithContext(ctx).Where("topic_id = ?", topicID).
		Order("created_at, action_id").
		Find(&actions).Error
	return actions, err
}

func (r *actionRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("action_id = ?", id).Delete(&vuln.TopicAction{}).Error
}

func (r *actionRepository) CreateLog(ctx context.Context, log *vuln.ActionLog) error {
	if err := r.db.WithContext(ctx).Create(log).Error; err != nil {
		logger.LogError(err, "", log.UserID, "", "create_action_log", "REPO", map[string]interface{}{
			"operation": "create_action_log",
			"action_id": log.ActionID,
		})
		return err
	}
	return nil
}

func (r *actionRepository) GetLogsByIDs(ctx context.Context, ids []string) ([]*vuln.ActionLog, error) {
	var logs []*vuln.ActionLog
	if len(ids) == 0 {
		return logs, nil
	}
	err := r.db.WithContext(ctx).Where("logging_id IN ?", ids).Find(&logs).Error
	return logs, err
}
