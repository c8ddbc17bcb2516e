/*
 * @author: Sun977
 * @date: 2026.01.21
 * @description: Cobra Root Command 定义
 */

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgPath    string
	env        string
	actorEmail string
)

var rootCmd = &cobra.Command{
	Use:   "vulnctl",
	Short: "NeoVuln 运维工具",
	Long: `vulnctl 直接连接数据库执行工单修复与维护操作，不经过 HTTP 服务。

示例:
  1.修复团队的状态不一致
	vulnctl fix-status --pteam <pteam_id> [--tag <tag_id>]
  2.对话题重新尝试自动关闭
	vulnctl auto-close-topic --topic <topic_id>
  3.重建话题的当前状态
	vulnctl reconcile-topic --topic <topic_id>
  4.上传团队引用
	vulnctl upload-references --pteam <pteam_id> --group svc -f refs.jsonl
  5.签发操作人令牌
	vulnctl token --email alice@example.com
`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "配置文件目录 (默认: ./configs)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "运行环境: development, test, production")
	rootCmd.PersistentFlags().StringVar(&actorEmail, "actor", "", "操作人邮箱 (默认: 系统账号)")

	rootCmd.AddCommand(newFixStatusCmd())
	rootCmd.AddCommand(newAutoCloseTopicCmd())
	rootCmd.AddCommand(newReconcileTopicCmd())
	rootCmd.AddCommand(newUploadReferencesCmd())
	rootCmd.AddCommand(newTokenCmd())
}
