/*
 * @author: sun977
 * @date: 2025.12.03
 * @description: 工单引擎
 *   负责 (团队, 话题, 标签) 三元组的自动关闭判断、状态写入与当前状态物化表的维护。
 *   引擎本身不开启事务，调用方通过 WithDB(tx) 得到绑定到事务的副本，
 *   一次业务操作内的所有写入在同一个事务中提交或回滚。
 */

package ticket

import (
	"context"
	"fmt"
	"sort"
	"time"

	model "neovuln/internal/model/basemodel"
	"neovuln/internal/model/system"
	pteamrepo "neovuln/internal/repo/mysql/pteam"
	systemrepo "neovuln/internal/repo/mysql/system"
	tagrepo "neovuln/internal/repo/mysql/tag_system"
	vulnrepo "neovuln/internal/repo/mysql/vuln"

	"gorm.io/gorm"
)

// AutoCloseNote 自动关闭写入状态记录的备注
const AutoCloseNote = "auto closed by system"

// Engine 工单引擎
type Engine struct {
	db           *gorm.DB
	systemUserID string
	now          func() time.Time

	tags     tagrepo.TagRepository
	topics   vulnrepo.TopicRepository
	actions  vulnrepo.ActionRepository
	pteams   pteamrepo.PTeamRepository
	refs     pteamrepo.ReferenceRepository
	statuses pteamrepo.StatusRepository

	// 本次操作中物化表发生过变化的团队，提交后用于清理摘要缓存
	touched map[string]struct{}
}

// NewEngine 创建工单引擎
// 系统账号是自动关闭的操作人，查不到时返回错误，调用方应终止启动
func NewEngine(ctx context.Context, db *gorm.DB, systemAccountEmail string) (*Engine, error) {
	account, err := systemrepo.NewAccountRepository(db).GetByEmail(ctx, systemAccountEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve system account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("system account %q: %w", systemAccountEmail, system.ErrAccountNotFound)
	}
	return newEngine(db, account.UserID), nil
}

func newEngine(db *gorm.DB, systemUserID string) *Engine {
	return &Engine{
		db:           db,
		systemUserID: systemUserID,
		now:          model.Now,
		tags:         tagrepo.NewTagRepository(db),
		topics:       vulnrepo.NewTopicRepository(db),
		actions:      vulnrepo.NewActionRepository(db),
		pteams:       pteamrepo.NewPTeamRepository(db),
		refs:         pteamrepo.NewReferenceRepository(db),
		statuses:     pteamrepo.NewStatusRepository(db),
		touched:      make(map[string]struct{}),
	}
}

// WithDB 返回绑定到指定连接(通常是事务)的引擎副本
func (e *Engine) WithDB(db *gorm.DB) *Engine {
	bound := newEngine(db, e.systemUserID)
	bound.now = e.now
	return bound
}

// SystemUserID 系统账号ID
func (e *Engine) SystemUserID() string {
	return e.systemUserID
}

// TouchedPTeams 物化表发生过变化的团队ID(已排序)
func (e *Engine) TouchedPTeams() []string {
	ids := make([]string, 0, len(e.touched))
	for id := range e.touched {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (e *Engine) touch(pteamIDs ...string) {
	for _, id := range pteamIDs {
		e.touched[id] = struct{}{}
	}
}

// InTransaction 在一个事务中执行 fn，fn 收到绑定到该事务的引擎
// 提交成功后返回物化表发生过变化的团队，调用方据此清理缓存
func (e *Engine) InTransaction(ctx context.Context, fn func(tx *gorm.DB, bound *Engine) error) ([]string, error) {
	var bound *Engine
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bound = e.WithDB(tx)
		return fn(tx, bound)
	})
	if err != nil {
		return nil, err
	}
	return bound.TouchedPTeams(), nil
}
