package pteam

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"neovuln/internal/model/pteam"
)

// CoveredTag 团队引用的标签及其父标签
type CoveredTag struct {
	PTeamID  string  `gorm:"column:pteam_id"`
	TagID    string  `gorm:"column:tag_id"`
	ParentID *string `gorm:"column:parent_id"`
}

// ReferenceRepository 团队标签引用数据访问接口
type ReferenceRepository interface {
	ListByPTeam(ctx context.Context, pteamID string) ([]*pteam.PTeamTagReference, error)
	ListByGroup(ctx context.Context, pteamID, group string) ([]*pteam.PTeamTagReference, error)
	DeleteByGroup(ctx context.Context, pteamID, group string) error
	CreateBatch(ctx context.Context, refs []*pteam.PTeamTagReference) error
	// ListVersions 团队对该标签(不含父子标签)声明的去重非空版本
	ListVersions(ctx context.Context, pteamID, tagID string) ([]string, error)
	// ListCoveredTags 团队引用的去重标签
	ListCoveredTags(ctx context.Context, pteamID string) ([]*CoveredTag, error)
	// ListCoveredTagsByTopicTags 启用团队中引用了这些标签(或其子标签)的 (团队, 标签)
	ListCoveredTagsByTopicTags(ctx context.Context, topicTagIDs []string) ([]*CoveredTag, error)
}

type referenceRepository struct {
	db *gorm.DB
}

func NewReferenceRepository(db *gorm.DB) ReferenceRepository {
	return &referenceRepository{db: db}
}

func groupEq(group string) clause.Eq {
	return clause.Eq{Column: clause.Column{Name: "group"}, Value: group}
}

func (r *referenceRepository) ListByPTeam(ctx context.Context, pteamID string) ([]*pteam.PTeamTagReference, error) {
	var refs []*pteam.PTeamTagReference
	err := r.db.WithContext(ctx).Where("pteam_id = ?", pteamID).
		Order("tag_id, target, version").
		Find(&refs).Error
	return refs, err
}

func (r *referenceRepository) ListByGroup(ctx context.Context, pteamID, group string) ([]*pteam.PTeamTagReference, error) {
	var refs []*pteam.PTeamTagReference
	err := r.db.WithContext(ctx).Where("pteam_id = ?", pteamID).Where(groupEq(group)).
		Find(&refs).Error
	return refs, err
}

func (r *referenceRepository) DeleteByGroup(ctx context.Context, pteamID, group string) error {
	return r.db.WithContext(ctx).Where("pteam_id = ?", pteamID).Where(groupEq(group)).
		Delete(&pteam.PTeamTagReference{}).Error
}

func (r *referenceRepository) CreateBatch(ctx context.Context, refs []*pteam.PTeamTagReference) error {
	if len(refs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(refs, 200).Error
}

func (r *referenceRepository) ListVersions(ctx context.Context, pteamID, tagID string) ([]string, error) {
	var versions []string
	err := r.db.WithContext(ctx).Model(&pteam.PTeamTagReference{}).
		Distinct("version").
		Where("pteam_id = ? AND tag_id = ? AND version <> ?", pteamID, tagID, "").
		Order("version").
		Pluck("version", &versions).Error
	return versions, err
}

func (r *referenceRepository) ListCoveredTags(ctx context.Context, pteamID string) ([]*CoveredTag, error) {
	var rows []*CoveredTag
	err := r.db.WithContext(ctx).Table("pteam_tag_references AS r").
		Distinct("r.pteam_id, r.tag_id, t.parent_id").
		Joins("JOIN tags AS t ON t.tag_id = r.tag_id").
		Where("r.pteam_id = ?", pteamID).
		Order("r.tag_id").
		Scan(&rows).Error
	return rows, err
}

func (r *referenceRepository) ListCoveredTagsByTopicTags(ctx context.Context, topicTagIDs []string) ([]*CoveredTag, error) {
	var rows []*CoveredTag
	if len(topicTagIDs) == 0 {
		return rows, nil
	}
	err := r.db.WithContext(ctx).Table("pteam_tag_references AS r").
		Distinct("r.pteam_id, r.tag_id, t.parent_id").
		Joins("JOIN tags AS t ON t.tag_id = r.tag_id").
		Joins("JOIN pteams AS p ON p.pteam_id = r.pteam_id").
		Where("p.disabled = ?", false).
		Where("(r.tag_id IN ? OR t.parent_id IN ?)", topicTagIDs, topicTagIDs).
		Order("r.pteam_id, r.tag_id").
		Scan(&rows).Error
	return rows, err
}
