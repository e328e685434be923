package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vsinha/printcenter/pkg/application/dto"
	"github.com/vsinha/printcenter/pkg/domain/entities"
)

func newUserCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	var (
		in   dto.UserInput
		role string
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an account without going through the API",
		Long: `Create an account directly in the store. Use it to bootstrap the first
print manager before anyone can log in.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := entities.ParseRole(role)
			if err != nil {
				return err
			}
			in.Role = r

			rt, err := app.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer rt.close(app.logger)

			user, err := rt.svc.Accounts.Bootstrap(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Created %s (%s) id=%s\n", user.Email, user.Role, user.ID)
			return nil
		},
	}
	f := create.Flags()
	f.StringVar(&in.Email, "email", "", "Email address (required)")
	f.StringVar(&in.FullName, "name", "", "Full name")
	f.StringVar(&in.Password, "password", "", "Initial password (required)")
	f.StringVar(&role, "role", string(entities.RoleConsumer), "Role")
	f.StringVar(&in.Department, "department", "", "Department")
	f.StringVar(&in.OrgUnitID, "org-unit", "", "Org unit ID")
	f.StringVar(&in.PhoneNumber, "phone", "", "Phone number")
	f.BoolVar(&in.IsSuperuser, "superuser", false, "Grant superuser")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")

	cmd.AddCommand(create)
	return cmd
}
