package cmd

import (
	"github.com/spf13/cobra"

	"github.com/evermart/storefront/auth/request"
)

func authCommands(a *app) []*cobra.Command {
	login := &cobra.Command{
		Use:   "login EMAIL PASSWORD",
		Short: "Log in and persist the session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.auth.Login(cmd.Context(), request.Login{
				Email:    args[0],
				Password: args[1],
			})
			if err != nil {
				return err
			}
			return printJson(result.User)
		},
	}

	register := &cobra.Command{
		Use:   "register NAME EMAIL PASSWORD",
		Short: "Create an account and log in",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.auth.Register(cmd.Context(), request.Register{
				Name:     args[0],
				Email:    args[1],
				Password: args[2],
			})
			if err != nil {
				return err
			}
			return printJson(result.User)
		},
	}

	logout := &cobra.Command{
		Use:   "logout",
		Short: "End the session and clear local state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.auth.Logout(cmd.Context())
		},
	}

	whoami := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.auth.Me(cmd.Context())
			if err != nil {
				return err
			}
			return printJson(user)
		},
	}

	return []*cobra.Command{login, register, logout, whoami}
}
