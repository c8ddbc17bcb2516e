package tag_system

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"neovuln/internal/model/tag_system"
	"neovuln/internal/pkg/logger"
)

// TagRepository 标签数据访问接口
// 查询不到时返回 (nil, nil)，由服务层决定是否视为错误
type TagRepository interface {
	GetTagByID(ctx context.Context, id string) (*tag_system.Tag, error)
	GetTagByName(ctx context.Context, name string) (*tag_system.Tag, error)
	GetTagsByIDs(ctx context.Context, ids []string) ([]*tag_system.Tag, error)
	GetTagsByNames(ctx context.Context, names []string) ([]*tag_system.Tag, error)
	// CreateTagIfAbsent 插入标签，同名标签已存在时什么都不做
	CreateTagIfAbsent(ctx context.Context, tag *tag_system.Tag) error
	ListTags(ctx context.Context, req *tag_system.ListTagsRequest) ([]*tag_system.Tag, int64, error)
}

type tagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) GetTagByID(ctx context.Context, id string) (*tag_system.Tag, error) {
	var tag tag_system.Tag
	err := r.db.WithContext(ctx).Where("tag_id = ?", id).First(&tag).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tag, nil
}

// GetTagByName 按名称获取标签
func (r *tagRepository) GetTagByName(ctx context.Context, name string) (*tag_system.Tag, error) {
	var tag tag_system.Tag
	err := r.db.WithContext(ctx).Where("tag_name = ?", name).First(&tag).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tag, nil
}

// GetTagsByIDs 批量获取标签
func (r *tagRepository) GetTagsByIDs(ctx context.Context, ids []string) ([]*tag_system.Tag, error) {
	var tags []*tag_system.Tag
	if len(ids) == 0 {
		return tags, nil
	}
	err := r.db.WithContext(ctx).Where("tag_id IN ?", ids).Order("tag_name").Find(&tags).Error
	return tags, err
}

// GetTagsByNames 批量按名称获取标签
func (r *tagRepository) GetTagsByNames(ctx context.Context, names []string) ([]*tag_system.Tag, error) {
	var tags []*tag_system.Tag
	if len(names) == 0 {
		return tags, nil
	}
	err := r.db.WithContext(ctx).Where("tag_name IN ?", names).Find(&tags).Error
	return tags, err
}

func (r *tagRepository) CreateTagIfAbsent(ctx context.Context, tag *tag_system.Tag) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "tag_name"}}, DoNothing: true}).
		Create(tag).Error
	if err != nil {
		logger.LogError(err, "", "", "", "create_tag", "REPO", map[string]interface{}{
			"operation": "create_tag",
			"tag_name":  tag.TagName,
		})
	}
	return err
}

func (r *tagRepository) ListTags(ctx context.Context, req *tag_system.ListTagsRequest) ([]*tag_system.Tag, int64, error) {
	var tags []*tag_system.Tag
	var total int64
	db := r.db.WithContext(ctx).Model(&tag_system.Tag{})

	if req.Keyword != "" {
		db = db.Where("tag_name LIKE ?", "%"+req.Keyword+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if req.Page > 0 && req.PageSize > 0 {
		offset := (req.Page - 1) * req.PageSize
		db = db.Offset(offset).Limit(req.PageSize)
	}

	err := db.Order("tag_name").Find(&tags).Error
	return tags, total, err
}
