package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newFixStatusCmd() *cobra.Command {
	var pteamID, tagID string
	cmd := &cobra.Command{
		Use:   "fix-status",
		Short: "修复团队中应为 completed 却未关闭的工单",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, ctx, err := newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			var tag *string
			if tagID != "" {
				tag = &tagID
			}
			result, err := rt.pteam.PTeamService.FixStatusMismatch(ctx, pteamID, tag, rt.actorID)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
	cmd.Flags().StringVar(&pteamID, "pteam", "", "团队ID")
	cmd.Flags().StringVar(&tagID, "tag", "", "只检查该标签")
	_ = cmd.MarkFlagRequired("pteam")
	return cmd
}

func newAutoCloseTopicCmd() *cobra.Command {
	var topicID string
	cmd := &cobra.Command{
		Use:   "auto-close-topic",
		Short: "对话题覆盖的全部团队标签重新尝试自动关闭",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, ctx, err := newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			closed, err := rt.vuln.TopicService.AutoCloseTopic(ctx, topicID, rt.actorID)
			if err != nil {
				return err
			}
			return printJSON(map[string]interface{}{"topic_id": topicID, "closed": closed})
		},
	}
	cmd.Flags().StringVar(&topicID, "topic", "", "话题ID")
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}

func newReconcileTopicCmd() *cobra.Command {
	var topicID string
	cmd := &cobra.Command{
		Use:   "reconcile-topic",
		Short: "按最新状态重建话题的当前状态",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, ctx, err := newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.vuln.TopicService.ReconcileTopic(ctx, topicID, rt.actorID); err != nil {
				return err
			}
			fmt.Printf("topic %s reconciled\n", topicID)
			return nil
		},
	}
	cmd.Flags().StringVar(&topicID, "topic", "", "话题ID")
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
