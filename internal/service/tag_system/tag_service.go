/*
 * @author: sun977
 * @date: 2025.12.02
 * @description: 标签服务
 *   标签按名称唯一，首次出现时连同父标签一起创建；
 *   并发创建同名标签时依赖唯一索引 + ON CONFLICT DO NOTHING 收敛到同一行。
 */

package tag_system

import (
	"context"
	"fmt"
	"strings"

	model "neovuln/internal/model/basemodel"
	"neovuln/internal/model/system"
	"neovuln/internal/model/tag_system"
	"neovuln/internal/pkg/logger"
	"neovuln/internal/pkg/tagtree"
	"neovuln/internal/pkg/utils"
	repo "neovuln/internal/repo/mysql/tag_system"

	"gorm.io/gorm"
)

type TagService interface {
	// GetOrCreateTag 按名称获取标签，不存在时创建(父标签先于子标签)
	GetOrCreateTag(ctx context.Context, name string) (*tag_system.Tag, error)
	// GetOrCreateTags 批量版本，保持输入顺序并去重
	GetOrCreateTags(ctx context.Context, names []string) ([]*tag_system.Tag, error)
	GetTag(ctx context.Context, id string) (*tag_system.Tag, error)
	ListTags(ctx context.Context, req *tag_system.ListTagsRequest) ([]*tag_system.Tag, int64, error)
	SearchTags(ctx context.Context, keyword string) ([]*tag_system.Tag, error)
	// WithDB 返回绑定到指定连接(通常是事务)的服务
	WithDB(db *gorm.DB) TagService
}

type tagService struct {
	repo repo.TagRepository
}

func NewTagService(db *gorm.DB) TagService {
	return &tagService{repo: repo.NewTagRepository(db)}
}

func (s *tagService) WithDB(db *gorm.DB) TagService {
	return NewTagService(db)
}

func (s *tagService) GetOrCreateTag(ctx context.Context, name string) (*tag_system.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, system.NewValidationError("tag_name", "标签名称不能为空")
	}

	tag, err := s.repo.GetTagByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	if tag != nil {
		return tag, nil
	}

	tag = &tag_system.Tag{TagID: model.NewID(), TagName: name}
	if parentName, ok := tagtree.ParentOf(name); ok {
		if parentName == name {
			// 组级标签以自身为父标签
			id, n := tag.TagID, name
			tag.ParentID, tag.ParentName = &id, &n
		} else {
			parent, err := s.GetOrCreateTag(ctx, parentName)
			if err != nil {
				return nil, err
			}
			tag.ParentID, tag.ParentName = &parent.TagID, &parent.TagName
		}
	}

	if err := s.repo.CreateTagIfAbsent(ctx, tag); err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}

	// 并发插入时可能是别人的那一行胜出，统一按名称重新读取
	created, err := s.repo.GetTagByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	if created == nil {
		return nil, fmt.Errorf("tag %q vanished after insert", name)
	}
	if created.TagID == tag.TagID {
		logger.LogBusinessOperation("create_tag", utils.GetActorIDFromContext(ctx), "", "",
			utils.GetRequestIDFromContext(ctx), "success", "tag created",
			map[string]interface{}{
				"tag_id":    created.TagID,
				"tag_name":  created.TagName,
				"parent_id": created.ParentID,
			})
	}
	return created, nil
}

func (s *tagService) GetOrCreateTags(ctx context.Context, names []string) ([]*tag_system.Tag, error) {
	tags := make([]*tag_system.Tag, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		tag, err := s.GetOrCreateTag(ctx, name)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[tag.TagID]; dup {
			continue
		}
		seen[tag.TagID] = struct{}{}
		tags = append(tags, tag)
	}
	return tags, nil
}

func (s *tagService) GetTag(ctx context.Context, id string) (*tag_system.Tag, error) {
	tag, err := s.repo.GetTagByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	if tag == nil {
		return nil, system.ErrTagNotFound
	}
	return tag, nil
}

func (s *tagService) ListTags(ctx context.Context, req *tag_system.ListTagsRequest) ([]*tag_system.Tag, int64, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 || req.PageSize > 100 {
		req.PageSize = 20
	}
	return s.repo.ListTags(ctx, req)
}

// SearchTags 名称模糊搜索，最多返回 100 条
func (s *tagService) SearchTags(ctx context.Context, keyword string) ([]*tag_system.Tag, error) {
	tags, _, err := s.repo.ListTags(ctx, &tag_system.ListTagsRequest{
		Keyword:  strings.TrimSpace(keyword),
		Page:     1,
		PageSize: 100,
	})
	return tags, err
}
