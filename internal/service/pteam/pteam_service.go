/*
 * @author: sun977
 * @date: 2025.12.05
 * @description: 团队服务
 *   团队、标签引用与工单状态的写操作都在一个事务内调用工单分发器，
 *   提交后清理受影响团队的摘要缓存。
 */

package pteam

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	model "neovuln/internal/model/basemodel"
	"neovuln/internal/model/pteam"
	"neovuln/internal/model/system"
	"neovuln/internal/model/tag_system"
	"neovuln/internal/pkg/logger"
	"neovuln/internal/pkg/utils"
	pteamrepo "neovuln/internal/repo/mysql/pteam"
	tagrepo "neovuln/internal/repo/mysql/tag_system"
	redisrepo "neovuln/internal/repo/redis"
	tagservice "neovuln/internal/service/tag_system"
	"neovuln/internal/service/ticket"

	"gorm.io/gorm"
)

type PTeamService interface {
	CreatePTeam(ctx context.Context, req *pteam.CreatePTeamRequest, actorID string) (*pteam.PTeam, error)
	// GetPTeam 团队详情及全部引用
	GetPTeam(ctx context.Context, id string) (*pteam.PTeamResponse, error)
	UpdatePTeam(ctx context.Context, id string, req *pteam.UpdatePTeamRequest, actorID string) (*pteam.PTeam, error)

	// UploadReferences 用 JSONL 内容整体替换团队某个分组的引用
	UploadReferences(ctx context.Context, pteamID, group string, r io.Reader, actorID string) (*pteam.UploadReferencesResponse, error)

	SetTopicStatus(ctx context.Context, pteamID, topicID, tagID string, req *pteam.SetTopicStatusRequest, actorID string) (*pteam.TopicStatusResponse, error)
	GetTopicStatus(ctx context.Context, pteamID, topicID, tagID string) (*pteam.TopicStatusResponse, error)
	ListTopicStatusHistory(ctx context.Context, pteamID, topicID, tagID string) ([]*pteam.TopicStatusHistoryEntry, error)
	Summary(ctx context.Context, pteamID string) (*pteam.PTeamSummary, error)
	FixStatusMismatch(ctx context.Context, pteamID string, tagID *string, actorID string) (*ticket.MismatchResult, error)
}

type pteamService struct {
	db       *gorm.DB
	engine   *ticket.Engine
	tags     tagservice.TagService
	pteams   pteamrepo.PTeamRepository
	refs     pteamrepo.ReferenceRepository
	statuses pteamrepo.StatusRepository
	tagRepo  tagrepo.TagRepository
	cache    *redisrepo.SummaryCache

	maxLineBytes int
}

// Option 团队服务可选项
type Option func(*pteamService)

// WithMaxLineBytes 引用文件单行最大字节数
func WithMaxLineBytes(n int) Option {
	return func(s *pteamService) {
		if n > 0 {
			s.maxLineBytes = n
		}
	}
}

func NewPTeamService(db *gorm.DB, engine *ticket.Engine, tags tagservice.TagService, cache *redisrepo.SummaryCache, opts ...Option) PTeamService {
	s := &pteamService{
		db:       db,
		engine:   engine,
		tags:     tags,
		pteams:   pteamrepo.NewPTeamRepository(db),
		refs:     pteamrepo.NewReferenceRepository(db),
		statuses: pteamrepo.NewStatusRepository(db),
		tagRepo:  tagrepo.NewTagRepository(db),
		cache:    cache,

		maxLineBytes: DefaultMaxLineBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *pteamService) CreatePTeam(ctx context.Context, req *pteam.CreatePTeamRequest, actorID string) (*pteam.PTeam, error) {
	name := strings.TrimSpace(req.PTeamName)
	if name == "" {
		return nil, system.NewValidationError("pteam_name", "团队名称不能为空")
	}

	p := &pteam.PTeam{PTeamName: name, ContactInfo: strings.TrimSpace(req.ContactInfo)}
	touched, err := s.engine.InTransaction(ctx, func(tx *gorm.DB, engine *ticket.Engine) error {
		if err := pteamrepo.NewPTeamRepository(tx).Create(ctx, p); err != nil {
			return fmt.Errorf("failed to create pteam: %w", err)
		}
		return ticket.NewDispatcher(engine).PTeamCreated(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateQuietly(ctx, touched...)

	logger.LogBusinessOperation("create_pteam", actorID, "", utils.GetClientIPFromContext(ctx),
		utils.GetRequestIDFromContext(ctx), "success", "pteam created",
		map[string]interface{}{"pteam_id": p.PTeamID, "pteam_name": p.PTeamName})
	return s.pteams.GetByID(ctx, p.PTeamID)
}

func (s *pteamService) GetPTeam(ctx context.Context, id string) (*pteam.PTeamResponse, error) {
	p, err := s.getPTeam(ctx, s.pteams, id, true)
	if err != nil {
		return nil, err
	}
	refs, err := s.refs.ListByPTeam(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list references: %w", err)
	}
	tagByID, err := s.loadTags(ctx, refs)
	if err != nil {
		return nil, err
	}

	resp := &pteam.PTeamResponse{
		PTeamID:     p.PTeamID,
		PTeamName:   p.PTeamName,
		ContactInfo: p.ContactInfo,
		Disabled:    p.Disabled,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		References:  make([]*pteam.ReferenceResponse, 0, len(refs)),
	}
	for _, ref := range refs {
		item := &pteam.ReferenceResponse{
			TagID:   ref.TagID,
			Group:   ref.Group,
			Target:  ref.Target,
			Version: ref.Version,
		}
		if tag, ok := tagByID[ref.TagID]; ok {
			item.TagName = tag.TagName
		}
		resp.References = append(resp.References, item)
	}
	sort.SliceStable(resp.References, func(i, j int) bool {
		return resp.References[i].TagName < resp.References[j].TagName
	})
	return resp, nil
}

func (s *pteamService) UpdatePTeam(ctx context.Context, id string, req *pteam.UpdatePTeamRequest, actorID string) (*pteam.PTeam, error) {
	if req.PTeamName != nil && strings.TrimSpace(*req.PTeamName) == "" {
		return nil, system.NewValidationError("pteam_name", "团队名称不能为空")
	}

	var wasDisabled bool
	touched, err := s.engine.InTransaction(ctx, func(tx *gorm.DB, engine *ticket.Engine) error {
		pteams := pteamrepo.NewPTeamRepository(tx)
		p, err := s.getPTeam(ctx, pteams, id, true)
		if err != nil {
			return err
		}
		wasDisabled = p.Disabled

		fields := map[string]interface{}{"updated_at": model.Now()}
		if req.PTeamName != nil {
			fields["pteam_name"] = strings.TrimSpace(*req.PTeamName)
		}
		if req.ContactInfo != nil {
			fields["contact_info"] = strings.TrimSpace(*req.ContactInfo)
		}
		if req.Disabled != nil {
			fields["disabled"] = *req.Disabled
		}
		if err := pteams.Update(ctx, id, fields); err != nil {
			return fmt.Errorf("failed to update pteam: %w", err)
		}

		updated, err := s.getPTeam(ctx, pteams, id, true)
		if err != nil {
			return err
		}
		return ticket.NewDispatcher(engine).PTeamUpdated(ctx, updated, wasDisabled)
	})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateQuietly(ctx, touched...)

	logger.LogBusinessOperation("update_pteam", actorID, "", utils.GetClientIPFromContext(ctx),
		utils.GetRequestIDFromContext(ctx), "success", "pteam updated",
		map[string]interface{}{
			"pteam_id":     id,
			"was_disabled": wasDisabled,
			"disabled":     req.Disabled,
		})
	return s.pteams.GetByID(ctx, id)
}

// getPTeam 读取团队，includeDisabled 为 false 时禁用团队视为不存在
func (s *pteamService) getPTeam(ctx context.Context, pteams pteamrepo.PTeamRepository, id string, includeDisabled bool) (*pteam.PTeam, error) {
	p, err := pteams.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get pteam: %w", err)
	}
	if p == nil || (p.Disabled && !includeDisabled) {
		return nil, system.ErrPTeamNotFound
	}
	return p, nil
}

func (s *pteamService) loadTags(ctx context.Context, refs []*pteam.PTeamTagReference) (map[string]*tag_system.Tag, error) {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.TagID)
	}
	tags, err := s.tagRepo.GetTagsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}
	byID := make(map[string]*tag_system.Tag, len(tags))
	for _, t := range tags {
		byID[t.TagID] = t
	}
	return byID, nil
}
