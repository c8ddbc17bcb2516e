package vuln

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"neovuln/internal/model/tag_system"
	"neovuln/internal/model/vuln"
	"neovuln/internal/pkg/logger"
)

// TopicRepository 话题数据访问接口
// 读取的话题都带有 Tags 与 MispTags
type TopicRepository interface {
	Create(ctx context.Context, topic *vuln.Topic) error
	GetByID(ctx context.Context, id string) (*vuln.Topic, error)
	// Update 按列更新话题，fields 的键为列名
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error
	ReplaceTags(ctx context.Context, topicID string, tagIDs []string) error
	ReplaceMispTags(ctx context.Context, topicID string, mispTagIDs []string) error
	// ListEnabledByTagIDs 标签集合中任一标签出现在话题标签里的启用话题
	ListEnabledByTagIDs(ctx context.Context, tagIDs []string) ([]*vuln.Topic, error)
	List(ctx context.Context, req *vuln.ListTopicsRequest) ([]*vuln.Topic, int64, error)
	GetOrCreateMispTag(ctx context.Context, name string) (*vuln.MispTag, error)
}

type topicRepository struct {
	db *gorm.DB
}

func NewTopicRepository(db *gorm.DB) TopicRepository {
	return &topicRepository{db: db}
}

func (r *topicRepository) Create(ctx context.Context, topic *vuln.Topic) error {
	if err := r.db.WithContext(ctx).Create(topic).Error; err != nil {
		logger.LogError(err, "", "", "", "create_topic", "REPO", map[string]interface{}{
			"operation": "create_topic",
			"topic_id":  topic.TopicID,
		})
		return err
	}
	return nil
}

func (r *topicRepository) GetByID(ctx context.Context, id string) (*vuln.Topic, error) {
	var topic vuln.Topic
	if err := r.db.WithContext(ctx).Where("topic_id = ?", id).First(&topic).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	topics := []*vuln.Topic{&topic}
	if err := r.loadTags(ctx, topics); err != nil {
		return nil, err
	}
	return &topic, nil
}

func (r *topicRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&vuln.Topic{}).Where("topic_id = ?", id).Updates(fields).Error
}

// Delete 删除话题及其关联关系和处置动作，动作日志保留
func (r *topicRepository) Delete(ctx context.Context, id string) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("topic_id = ?", id).Delete(&vuln.TopicTag{}).Error; err != nil {
		return err
	}
	if err := db.Where("topic_id = ?", id).Delete(&vuln.TopicMispTag{}).Error; err != nil {
		return err
	}
	if err := db.Where("topic_id = ?", id).Delete(&vuln.TopicAction{}).Error; err != nil {
		return err
	}
	return db.Where("topic_id = ?", id).Delete(&vuln.Topic{}).Error
}

func (r *topicRepository) ReplaceTags(ctx context.Context, topicID string, tagIDs []string) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("topic_id = ?", topicID).Delete(&vuln.TopicTag{}).Error; err != nil {
		return err
	}
	if len(tagIDs) == 0 {
		return nil
	}
	rows := make([]vuln.TopicTag, 0, len(tagIDs))
	for _, id := range uniqueStrings(tagIDs) {
		rows = append(rows, vuln.TopicTag{TopicID: topicID, TagID: id})
	}
	return db.Create(&rows).Error
}

func (r *topicRepository) ReplaceMispTags(ctx context.Context, topicID string, mispTagIDs []string) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("topic_id = ?", topicID).Delete(&vuln.TopicMispTag{}).Error; err != nil {
		return err
	}
	if len(mispTagIDs) == 0 {
		return nil
	}
	rows := make([]vuln.TopicMispTag, 0, len(mispTagIDs))
	for _, id := range uniqueStrings(mispTagIDs) {
		rows = append(rows, vuln.TopicMispTag{TopicID: topicID, TagID: id})
	}
	return db.Create(&rows).Error
}

func (r *topicRepository) ListEnabledByTagIDs(ctx context.Context, tagIDs []string) ([]*vuln.Topic, error) {
	var topics []*vuln.Topic
	if len(tagIDs) == 0 {
		return topics, nil
	}
	sub := r.db.Model(&vuln.TopicTag{}).Select("topic_id").Where("tag_id IN ?", tagIDs)
	err := r.db.WithContext(ctx).
		Where("disabled = ? AND topic_id IN (?)", false, sub).
		Order("topic_id").
		Find(&topics).Error
	if err != nil {
		return nil, err
	}
	if err := r.loadTags(ctx, topics); err != nil {
		return nil, err
	}
	return topics, nil
}

func (r *topicRepository) List(ctx context.Context, req *vuln.ListTopicsRequest) ([]*vuln.Topic, int64, error) {
	var topics []*vuln.Topic
	var total int64
	db := r.db.WithContext(ctx).Model(&vuln.Topic{})

	if !req.IncludeDisabled {
		db = db.Where("disabled = ?", false)
	}
	if req.Keyword != "" {
		db = db.Where("(title LIKE ? OR abstract LIKE ?)", "%"+req.Keyword+"%", "%"+req.Keyword+"%")
	}
	if req.TagName != "" {
		sub := r.db.Table("topic_tags").
			Select("topic_tags.topic_id").
			Joins("JOIN tags ON tags.tag_id = topic_tags.tag_id").
			Where("tags.tag_name = ?", req.TagName)
		db = db.Where("topic_id IN (?)", sub)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if req.Page > 0 && req.PageSize > 0 {
		offset := (req.Page - 1) * req.PageSize
		db = db.Offset(offset).Limit(req.PageSize)
	}

	if err := db.Order("threat_impact, updated_at desc").Find(&topics).Error; err != nil {
		return nil, 0, err
	}
	if err := r.loadTags(ctx, topics); err != nil {
		return nil, 0, err
	}
	return topics, total, nil
}

func (r *topicRepository) GetOrCreateMispTag(ctx context.Context, name string) (*vuln.MispTag, error) {
	db := r.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "tag_name"}}, DoNothing: true}).
		Create(&vuln.MispTag{TagName: name}).Error
	if err != nil {
		return nil, err
	}
	var tag vuln.MispTag
	if err := db.Where("tag_name = ?", name).First(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// loadTags 批量填充话题的 Tags 与 MispTags
func (r *topicRepository) loadTags(ctx context.Context, topics []*vuln.Topic) error {
	if len(topics) == 0 {
		return nil
	}
	byID := make(map[string]*vuln.Topic, len(topics))
	ids := make([]string, 0, len(topics))
	for _, t := range topics {
		t.Tags = []*tag_system.Tag{}
		t.MispTags = []*vuln.MispTag{}
		byID[t.TopicID] = t
		ids = append(ids, t.TopicID)
	}

	var tagRows []struct {
		TopicID string `gorm:"column:topic_id"`
		tag_system.Tag
	}
	err := r.db.WithContext(ctx).Table("topic_tags").
		Select("topic_tags.topic_id, tags.*").
		Joins("JOIN tags ON tags.tag_id = topic_tags.tag_id").
		Where("topic_tags.topic_id IN ?", ids).
		Order("tags.tag_name").
		Scan(&tagRows).Error
	if err != nil {
		return err
	}
	for i := range tagRows {
		tag := tagRows[i].Tag
		byID[tagRows[i].TopicID].Tags = append(byID[tagRows[i].TopicID].Tags, &tag)
	}

	var mispRows []struct {
		TopicID string `gorm:"column:topic_id"`
		vuln.MispTag
	}
	err = r.db.WithContext(ctx).Table("topic_misp_tags").
		Select("topic_misp_tags.topic_id, misp_tags.*").
		Joins("JOIN misp_tags ON misp_tags.tag_id = topic_misp_tags.tag_id").
		Where("topic_misp_tags.topic_id IN ?", ids).
		Order("misp_tags.tag_name").
		Scan(&mispRows).Error
	if err != nil {
		return err
	}
	for i := range mispRows {
		tag := mispRows[i].MispTag
		byID[mispRows[i].TopicID].MispTags = append(byID[mispRows[i].TopicID].MispTags, &tag)
	}
	return nil
}

func uniqueStrings(values []string) []string {
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
