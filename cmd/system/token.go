package system

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Alijeyrad/medstage_backend/config"
	"github.com/Alijeyrad/medstage_backend/internal/domain"
	pasetotoken "github.com/Alijeyrad/medstage_backend/pkg/paseto"
	redispkg "github.com/Alijeyrad/medstage_backend/pkg/redis"
)

// NewTokenCommand mints an access token with the configured keys. Tokens are
// normally issued by the identity service; this is for local testing.
func NewTokenCommand() *cobra.Command {
	var (
		userID      string
		role        string
		withSession bool
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a PASETO access token for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}

			r, err := domain.ParseRole(role)
			if err != nil {
				return err
			}
			uid := uuid.New()
			if userID != "" {
				if uid, err = uuid.Parse(userID); err != nil {
					return fmt.Errorf("invalid --user-id: %w", err)
				}
			}

			mgr, err := pasetotoken.NewFromConfig(cfg)
			if err != nil {
				return err
			}
			if !mgr.CanIssue() {
				return errors.New("configured paseto keys are verify-only; set secret_key_hex or local_key_hex")
			}

			var sid *uuid.UUID
			if withSession {
				id, err := putSession(cmd.Context(), cfg, uid)
				if err != nil {
					return err
				}
				sid = &id
			}

			token, err := mgr.IssueAccess(domain.Actor{UserID: uid, Role: r}, sid)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "user_id=%s role=%s\n", uid, r)
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user-id", "", "User id to embed (random when empty)")
	cmd.Flags().StringVar(&role, "role", domain.RoleStudent.String(), "student, service_chief, doctor or dean")
	cmd.Flags().BoolVar(&withSession, "session", false, "Register a redis session for the token")

	return cmd
}

func putSession(ctx context.Context, cfg *config.Config, userID uuid.UUID) (uuid.UUID, error) {
	rdb, err := redispkg.New(ctx, cfg.Redis)
	if errors.Is(err, redispkg.ErrNotConfigured) {
		return uuid.Nil, errors.New("--session needs redis.addr")
	}
	if err != nil {
		return uuid.Nil, err
	}
	defer rdb.Close()

	sid := uuid.New()
	ttl := time.Duration(cfg.Authentication.Paseto.AccessTTLMinutes) * time.Minute
	if err := redispkg.NewSessions(rdb, "").Put(ctx, sid.String(), userID, ttl); err != nil {
		return uuid.Nil, err
	}
	return sid, nil
}
