package pteam

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"neovuln/internal/model/pteam"
	"neovuln/internal/pkg/logger"
)

// PTeamRepository 团队数据访问接口
type PTeamRepository interface {
	Create(ctx context.Context, p *pteam.PTeam) error
	GetByID(ctx context.Context, id string) (*pteam.PTeam, error)
	GetByIDs(ctx context.Context, ids []string) ([]*pteam.PTeam, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
}

type pteamRepository struct {
	db *gorm.DB
}

func NewPTeamRepository(db *gorm.DB) PTeamRepository {
	return &pteamRepository{db: db}
}

func (r *pteamRepository) Create(ctx context.Context, p *pteam.PTeam) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		logger.LogError(err, "", "", "", "create_pteam", "REPO", map[string]interface{}{
			"operation":  "create_pteam",
			"pteam_name": p.PTeamName,
		})
		return err
	}
	return nil
}

func (r *pteamRepository) GetByID(ctx context.Context, id string) (*pteam.PTeam, error) {
	var p pteam.PTeam
	if err := r.db.WithContext(ctx).Where("pteam_id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *pteamRepository) GetByIDs(ctx context.Context, ids []string) ([]*pteam.PTeam, error) {
	var teams []*pteam.PTeam
	if len(ids) == 0 {
		return teams, nil
	}
	err := r.db.WithContext(ctx).Where("pteam_id IN ?", ids).Order("pteam_id").Find(&teams).Error
	return teams, err
}

func (r *pteamRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&pteam.PTeam{}).Where("pteam_id = ?", id).Updates(fields).Error
}
