package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/dto"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/service"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/config"
)

var tokenFlags struct {
	userID string
	role   string
	name   string
	badge  string
	ttl    time.Duration
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a development bearer token",
	Long: `Signs a bearer token with JWT_SECRET for local testing. Production
tokens come from the identity provider.`,
	RunE: runToken,
}

func init() {
	f := tokenCmd.Flags()
	f.StringVar(&tokenFlags.userID, "user", "", "user id")
	f.StringVar(&tokenFlags.role, "role", "", "administrator, commanding_officer, supervisor, investigator, analyst or exhibit_officer")
	f.StringVar(&tokenFlags.name, "name", "", "display name")
	f.StringVar(&tokenFlags.badge, "badge", "", "badge number")
	f.DurationVar(&tokenFlags.ttl, "ttl", 0, "lifetime, defaults to JWT_EXPIRATION")
	_ = tokenCmd.MarkFlagRequired("user")
	_ = tokenCmd.MarkFlagRequired("role")
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	role, ok := models.ParseRole(tokenFlags.role)
	if !ok {
		return fmt.Errorf("unknown role %q", tokenFlags.role)
	}
	name := tokenFlags.name
	if name == "" {
		name = tokenFlags.userID
	}
	badge := tokenFlags.badge
	if badge == "" {
		badge = "DEV-" + tokenFlags.userID
	}

	tokens := service.NewTokenService(cfg.JWT, dto.NewValidator())
	issued, err := tokens.Issue(models.IssueTokenRequest{
		UserID:      tokenFlags.userID,
		Role:        role,
		Name:        name,
		BadgeNumber: badge,
		TTL:         tokenFlags.ttl,
	})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(issued)
}
