package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/jobportal/internal/config"
	"github.com/jonathan/jobportal/internal/server"
	"github.com/jonathan/jobportal/internal/types"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for local testing",
	Long:  "Signs a token with JWT_SECRET for the given user and role. Production tokens are issued by the auth service.",
	RunE:  runToken,
}

var (
	tokenUserID string
	tokenRole   string
)

func init() {
	tokenCmd.Flags().StringVar(&tokenUserID, "user-id", "", "User ID (UUID); a random one when empty")
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(types.RoleJobSeeker), `Role: "Job Seeker" or "Employer"`)
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	userID := uuid.New()
	if tokenUserID != "" {
		parsed, err := uuid.Parse(tokenUserID)
		if err != nil {
			return fmt.Errorf("invalid --user-id: %w", err)
		}
		userID = parsed
	}
	role, ok := types.ParseRole(tokenRole)
	if !ok {
		return fmt.Errorf("invalid --role %q", tokenRole)
	}

	jwtCfg, err := config.NewJWTConfig()
	if err != nil {
		return err
	}
	token, err := server.NewJWTService(jwtCfg).GenerateToken(types.Identity{UserID: userID, Role: role})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
