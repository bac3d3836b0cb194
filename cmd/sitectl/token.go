package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tendant/site-content/pkg/sitecontent/auth"
)

func (c *cli) tokenCmd() *cobra.Command {
	var (
		email string
		role  string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a token for the admin routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return errors.New("--email is required")
			}
			authn, err := c.cfg.BuildAuthenticator()
			if err != nil {
				return err
			}
			if authn == nil {
				return errors.New("JWT_SECRET is not set")
			}
			token, err := authn.IssueToken(auth.Caller{ID: uuid.NewString(), Email: email, Role: role})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email recorded in the token")
	cmd.Flags().StringVar(&role, "role", auth.RoleAdmin, "Role: user, admin or super_admin")
	return cmd
}
