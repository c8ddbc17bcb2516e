package main

import (
	"neovuln/internal/pkg/utils"

	"github.com/spf13/cobra"
)

func newUploadReferencesCmd() *cobra.Command {
	var pteamID, group, file string
	cmd := &cobra.Command{
		Use:   "upload-references",
		Short: "用 JSONL 文件替换团队某个分组的引用",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := utils.OpenInput(file)
			if err != nil {
				return err
			}
			defer in.Close()

			rt, ctx, err := newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			resp, err := rt.pteam.PTeamService.UploadReferences(ctx, pteamID, group, in, rt.actorID)
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}
	cmd.Flags().StringVar(&pteamID, "pteam", "", "团队ID")
	cmd.Flags().StringVar(&group, "group", "", "引用分组")
	cmd.Flags().StringVarP(&file, "file", "f", "-", "JSONL 文件路径，- 表示标准输入")
	_ = cmd.MarkFlagRequired("pteam")
	_ = cmd.MarkFlagRequired("group")
	return cmd
}
