package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/ds124wfegd/eshikshan/internal/entity"
	"github.com/ds124wfegd/eshikshan/pkg/auth"

	"github.com/spf13/cobra"
)

// TokenOptions describe the identity a local token is issued for.
type TokenOptions struct {
	ID     int64
	Email  string
	Name   string
	Role   string
	Expiry time.Duration
}

// NewTokenCommand issues a signed bearer token for local testing.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TokenOptions{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed JWT for local testing",
		Example: `  eshikshan token --id 1 --email asha@example.com --role student
  eshikshan token --id 10 --email ravi@example.com --role instructor --expiry 2h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.ID, "id", 0, "user id (required)")
	cmd.Flags().StringVar(&opts.Email, "email", "", "user email (required)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "display name")
	cmd.Flags().StringVar(&opts.Role, "role", string(entity.RoleStudent), "student | instructor | admin")
	cmd.Flags().DurationVar(&opts.Expiry, "expiry", 0, "token lifetime (defaults to jwt.expiration)")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runToken(rootOpts *RootOptions, opts *TokenOptions, cmd *cobra.Command) error {
	role := entity.Role(strings.ToLower(opts.Role))
	if !role.Valid() {
		return fmt.Errorf("invalid role %q", opts.Role)
	}
	if opts.ID <= 0 {
		return fmt.Errorf("id must be positive")
	}

	expiry := opts.Expiry
	if expiry <= 0 {
		expiry = rootOpts.Config.JWT.Expiration
	}

	manager := auth.NewJWTManager(rootOpts.Config.JWT.Secret, expiry)
	token, err := manager.GenerateToken(opts.ID, opts.Email, opts.Name, string(role))
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
