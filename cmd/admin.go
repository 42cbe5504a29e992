package cmd

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/evermart/storefront/admin/request"
)

func adminCommand(a *app) *cobra.Command {
	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Admin console",
	}

	dashboard := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the admin dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.admin.Dashboard(cmd.Context())
			if err != nil {
				return err
			}
			return printJson(result)
		},
	}

	var rangeName string
	analytics := &cobra.Command{
		Use:   "analytics",
		Short: "Show analytics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.admin.Analytics(cmd.Context(), rangeName)
			if err != nil {
				return err
			}
			return printJson(result)
		},
	}
	analytics.Flags().StringVar(&rangeName, "range", "30d", "reporting range")

	var role, search string
	var page int
	users := &cobra.Command{
		Use:   "users",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.admin.Users(cmd.Context(), request.FindUsers{
				Role:   role,
				Search: search,
				Page:   page,
			})
			if err != nil {
				return err
			}
			return printJson(result)
		},
	}
	users.Flags().StringVar(&role, "role", "", "filter by role")
	users.Flags().StringVar(&search, "search", "", "search by name or email")
	users.Flags().IntVar(&page, "page", 0, "page number")

	setRole := &cobra.Command{
		Use:   "set-role USER_ID ROLE",
		Short: "Change a user's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return err
			}
			return a.admin.UpdateRole(cmd.Context(), id, request.UpdateRole{Role: args[1]})
		},
	}

	var active bool
	setStatus := &cobra.Command{
		Use:   "set-status USER_ID",
		Short: "Activate or deactivate a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return err
			}
			return a.admin.UpdateStatus(cmd.Context(), id, request.UpdateStatus{Active: active})
		},
	}
	setStatus.Flags().BoolVar(&active, "active", true, "whether the user may log in")

	adminCmd.AddCommand(dashboard, analytics, users, setRole, setStatus)
	return adminCmd
}
