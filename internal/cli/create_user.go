package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/casa-guarda/service-listing/internal/application"
	"github.com/casa-guarda/service-listing/internal/platform/database"
	"github.com/casa-guarda/service-listing/internal/repository"
)

type userCreator interface {
	CreateUser(ctx context.Context, req application.CreateUserRequest) (*application.UserDTO, error)
}

func newCreateUserCmd(e *env) *cobra.Command {
	var req application.CreateUserRequest

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user account",
		Long: `Create an active user account. This is how the first administrator is
provisioned; later accounts can be managed from the admin API.

When --password is omitted the password is read from the first line of stdin.`,
		Example: `  listingctl create-user --email admin@example.com --role admin --first-name Ana --last-name Silva
  echo "$ADMIN_PASSWORD" | listingctl create-user --email admin@example.com --role admin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.Connect(e.cfg.DBConfig, e.log)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer func() { _ = sqlDB.Close() }()
			}

			svc := application.NewProfileService(repository.NewGormProfileRepository(db), e.log)
			return runCreateUser(cmd.Context(), svc, req, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "Login email")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password (read from stdin when empty)")
	cmd.Flags().StringVar(&req.Role, "role", "user", "Role: admin or user")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "Last name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runCreateUser(ctx context.Context, svc userCreator, req application.CreateUserRequest, in io.Reader, out io.Writer) error {
	if req.Password == "" {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read password: %w", err)
		}
		req.Password = strings.TrimRight(line, "\r\n")
	}

	user, err := svc.CreateUser(ctx, req)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "created %s user %s (%s)\n", user.Role, user.Email, user.UserID)
	return err
}
