package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/listmailer/internal/auth"
	"github.com/nhle/listmailer/internal/model"
)

func (c *cli) usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage dashboard accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			users, err := c.svc.Store.GetUsers(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, len(users))
			for i, u := range users {
				rows[i] = []string{u.Name, orDash(u.Email), u.Role, u.Status}
			}
			return printTable(cmd.OutOrStdout(), []string{"Name", "Email", "Role", "Status"}, rows)
		},
	})

	var in auth.UserInput
	var admin, inactive bool
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Name = args[0]
			in.Role = model.RoleUser
			if admin {
				in.Role = model.RoleAdmin
			}
			in.Status = model.UserStatusActive
			if inactive {
				in.Status = model.UserStatusInactive
			}
			u, err := c.svc.Auth.CreateUser(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s %q\n", strings.ToLower(u.Role), u.Name)
			return nil
		},
	}
	add.Flags().StringVar(&in.Email, "email", "", "Email address")
	add.Flags().StringVarP(&in.Password, "password", "p", "", "Login password")
	add.Flags().BoolVar(&admin, "admin", false, "Grant the Admin role")
	add.Flags().BoolVar(&inactive, "inactive", false, "Create the account disabled")
	_ = add.MarkFlagRequired("password")
	cmd.AddCommand(add)

	var yes bool
	del := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errNotConfirmed
			}
			u, err := c.svc.Store.GetUserByName(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := c.svc.Auth.DeleteUser(cmd.Context(), u.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %q\n", u.Name)
			return nil
		},
	}
	del.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the deletion")
	cmd.AddCommand(del)

	return cmd
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
