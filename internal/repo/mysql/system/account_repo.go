package system

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"neovuln/internal/model/system"
)

// AccountRepository 账号数据访问接口
type AccountRepository interface {
	GetByID(ctx context.Context, userID string) (*system.Account, error)
	GetByEmail(ctx context.Context, email string) (*system.Account, error)
	// EnsureByEmail 按邮箱取账号，不存在时创建
	EnsureByEmail(ctx context.Context, email string) (*system.Account, error)
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) GetByID(ctx context.Context, userID string) (*system.Account, error) {
	var account system.Account
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*system.Account, error) {
	var account system.Account
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) EnsureByEmail(ctx context.Context, email string) (*system.Account, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(&system.Account{Email: email}).Error
	if err != nil {
		return nil, err
	}
	return r.GetByEmail(ctx, email)
}
