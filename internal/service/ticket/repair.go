package ticket

import (
	"context"
	"fmt"

	"neovuln/internal/model/pteam"
	"neovuln/internal/model/tag_system"
)

// MismatchResult 修复结果
type MismatchResult struct {
	Checked int `json:"checked"`
	Closed  int `json:"closed"`
}

// FixStatusMismatch 按状态历史与处置动作重新计算团队工单
// 对未关闭(alerted/acknowledged 或计划时间已过的 scheduled)的三元组重新尝试自动关闭，
// 之后重算团队的当前状态行；tagID 不为空时只处理该标签
func (e *Engine) FixStatusMismatch(ctx context.Context, p *pteam.PTeam, tagID *string) (*MismatchResult, error) {
	result := &MismatchResult{}

	triples, err := e.pteamTriples(ctx, p)
	if err != nil {
		return nil, err
	}

	tagCache := make(map[string]*tag_system.Tag)
	for _, t := range triples {
		if tagID != nil && t.key.TagID != *tagID {
			continue
		}
		tag, ok := tagCache[t.key.TagID]
		if !ok {
			tag, err = e.tags.GetTagByID(ctx, t.key.TagID)
			if err != nil {
				return nil, fmt.Errorf("failed to load tag: %w", err)
			}
			if tag == nil {
				return nil, fmt.Errorf("tag %s referenced by pteam %s does not exist", t.key.TagID, p.PTeamID)
			}
			tagCache[t.key.TagID] = tag
		}

		result.Checked++
		closed, err := e.TryAutoClose(ctx, p, tag, t.topic)
		if err != nil {
			return nil, err
		}
		if closed {
			result.Closed++
		}
	}

	if err := e.FixCurrentStatusByPTeam(ctx, p); err != nil {
		return nil, err
	}
	return result, nil
}
