package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var email string
	var create bool
	cmd := &cobra.Command{
		Use:   "token",
		Short: "为账号签发操作人令牌",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, ctx, err := newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			account, err := rt.auth.Accounts.GetByEmail(ctx, email)
			if err != nil {
				return err
			}
			if account == nil {
				if !create {
					return fmt.Errorf("account %q not found, use --create", email)
				}
				if account, err = rt.auth.Accounts.EnsureByEmail(ctx, email); err != nil {
					return err
				}
			}
			if account.Disabled {
				return fmt.Errorf("account %q is disabled", email)
			}

			token, err := rt.auth.JWTManager.GenerateToken(account.UserID, account.Email)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "账号邮箱")
	cmd.Flags().BoolVar(&create, "create", false, "账号不存在时创建")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
