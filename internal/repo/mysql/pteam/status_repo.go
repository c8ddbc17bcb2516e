package pteam

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"neovuln/internal/model/pteam"
	"neovuln/internal/pkg/logger"
)

// StatusRepository 状态历史与当前状态数据访问接口
type StatusRepository interface {
	// 状态历史，只追加
	CreateStatus(ctx context.Context, s *pteam.PTeamTopicTagStatus) error
	GetStatusByID(ctx context.Context, id string) (*pteam.PTeamTopicTagStatus, error)
	// LatestStatus created_at 最大的一条，没有记录时返回 nil
	LatestStatus(ctx context.Context, key pteam.StatusKey) (*pteam.PTeamTopicTagStatus, error)
	// ListStatusHistory 同一工单的全部状态记录，新的在前
	ListStatusHistory(ctx context.Context, key pteam.StatusKey) ([]*pteam.PTeamTopicTagStatus, error)
	ListStatusesByPTeam(ctx context.Context, pteamID string) ([]*pteam.PTeamTopicTagStatus, error)
	ListStatusesByTopic(ctx context.Context, topicID string) ([]*pteam.PTeamTopicTagStatus, error)

	// 当前状态物化表
	GetCurrent(ctx context.Context, key pteam.StatusKey) (*pteam.CurrentPTeamTopicTagStatus, error)
	ListCurrentByPTeam(ctx context.Context, pteamID string) ([]*pteam.CurrentPTeamTopicTagStatus, error)
	ListCurrentByTopic(ctx context.Context, topicID string) ([]*pteam.CurrentPTeamTopicTagStatus, error)
	UpsertCurrent(ctx context.Context, rows []*pteam.CurrentPTeamTopicTagStatus) error
	DeleteCurrent(ctx context.Context, keys []pteam.StatusKey) error
	DeleteCurrentByPTeam(ctx context.Context, pteamID string) error
	DeleteCurrentByTopic(ctx context.Context, topicID string) error
}

type statusRepository struct {
	db *gorm.DB
}

func NewStatusRepository(db *gorm.DB) StatusRepository {
	return &statusRepository{db: db}
}

func tripleWhere(db *gorm.DB, key pteam.StatusKey) *gorm.DB {
	return db.Where("pteam_id = ? AND topic_id = ? AND tag_id = ?", key.PTeamID, key.TopicID, key.TagID)
}

func (r *statusRepository) CreateStatus(ctx context.Context, s *pteam.PTeamTopicTagStatus) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		logger.LogError(err, "", s.UserID, "", "create_topic_status", "REPO", map[string]interface{}{
			"operation": "create_topic_status",
			"pteam_id":  s.PTeamID,
			"topic_id":  s.TopicID,
			"tag_id":    s.TagID,
		})
		return err
	}
	return nil
}

func (r *statusRepository) GetStatusByID(ctx context.Context, id string) (*pteam.PTeamTopicTagStatus, error) {
	var s pteam.PTeamTopicTagStatus
	if err := r.db.WithContext(ctx).Where("status_id = ?", id).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *statusRepository) LatestStatus(ctx context.Context, key pteam.StatusKey) (*pteam.PTeamTopicTagStatus, error) {
	var s pteam.PTeamTopicTagStatus
	err := tripleWhere(r.db.WithContext(ctx), key).
		Order("created_at desc, status_id desc").
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *statusRepository) ListStatusHistory(ctx context.Context, key pteam.StatusKey) ([]*pteam.PTeamTopicTagStatus, error) {
	var statuses []*pteam.PTeamTopicTagStatus
	err := tripleWhere(r.db.WithContext(ctx), key).
		Order("created_at desc, status_id desc").
		Find(&statuses).Error
	return statuses, err
}

func (r *statusRepository) ListStatusesByPTeam(ctx context.Context, pteamID string) ([]*pteam.PTeamTopicTagStatus, error) {
	var statuses []*pteam.PTeamTopicTagStatus
	err := r.db.WithContext(ctx).Where("pteam_id = ?", pteamID).Find(&statuses).Error
	return statuses, err
}

func (r *statusRepository) ListStatusesByTopic(ctx context.Context, topicID string) ([]*pteam.PTeamTopicTagStatus, error) {
	var statuses []*pteam.PTeamTopicTagStatus
	err := r.db.WithContext(ctx).Where("topic_id = ?", topicID).Find(&statuses).Error
	return statuses, err
}

func (r *statusRepository) GetCurrent(ctx context.Context, key pteam.StatusKey) (*pteam.CurrentPTeamTopicTagStatus, error) {
	var c pteam.CurrentPTeamTopicTagStatus
	if err := tripleWhere(r.db.WithContext(ctx), key).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *statusRepository) ListCurrentByPTeam(ctx context.Context, pteamID string) ([]*pteam.CurrentPTeamTopicTagStatus, error) {
	var rows []*pteam.CurrentPTeamTopicTagStatus
	err := r.db.WithContext(ctx).Where("pteam_id = ?", pteamID).
		Order("topic_id, tag_id").
		Find(&rows).Error
	return rows, err
}

func (r *statusRepository) ListCurrentByTopic(ctx context.Context, topicID string) ([]*pteam.CurrentPTeamTopicTagStatus, error) {
	var rows []*pteam.CurrentPTeamTopicTagStatus
	err := r.db.WithContext(ctx).Where("topic_id = ?", topicID).
		Order("pteam_id, tag_id").
		Find(&rows).Error
	return rows, err
}

// UpsertCurrent 按三元组插入或更新，冲突时只更新状态与话题冗余字段
func (r *statusRepository) UpsertCurrent(ctx context.Context, rows []*pteam.CurrentPTeamTopicTagStatus) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "pteam_id"}, {Name: "topic_id"}, {Name: "tag_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status_id", "topic_status", "threat_impact", "updated_at"}),
	}).CreateInBatches(rows, 200).Error
}

func (r *statusRepository) DeleteCurrent(ctx context.Context, keys []pteam.StatusKey) error {
	db := r.db.WithContext(ctx)
	for _, key := range keys {
		if err := tripleWhere(db, key).Delete(&pteam.CurrentPTeamTopicTagStatus{}).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *statusRepository) DeleteCurrentByPTeam(ctx context.Context, pteamID string) error {
	return r.db.WithContext(ctx).Where("pteam_id = ?", pteamID).Delete(&pteam.CurrentPTeamTopicTagStatus{}).Error
}

func (r *statusRepository) DeleteCurrentByTopic(ctx context.Context, topicID string) error {
	return r.db.WithContext(ctx).Where("topic_id = ?", topicID).Delete(&pteam.CurrentPTeamTopicTagStatus{}).Error
}
