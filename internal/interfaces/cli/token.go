package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ipfolio/ipfolio/internal/domain/user"
	"github.com/ipfolio/ipfolio/internal/interfaces/http/middleware"
)

// newTokenCommand issues signed development tokens. Production tokens come
// from the identity provider; this exists for local testing and support.
func newTokenCommand(rt *runtime) *cobra.Command {
	var (
		userID   string
		role     string
		clientID int64
		canRead  bool
		canWrite bool
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed development token",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := user.Role(role)
			if !r.Valid() {
				return fmt.Errorf("unknown role %q (want admin, employee or client)", role)
			}

			p := user.Principal{
				UserID:   userID,
				Role:     r,
				CanRead:  canRead,
				CanWrite: canWrite,
			}
			if r == user.RoleClient {
				if clientID <= 0 {
					return fmt.Errorf("client tokens need --client-id")
				}
				p.ClientID = &clientID
			}

			token, err := middleware.IssueToken(rt.cfg.Auth, p.Normalize(), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&userID, "user", "dev", "subject for the token")
	f.StringVar(&role, "role", "admin", "role (admin, employee, client)")
	f.Int64Var(&clientID, "client-id", 0, "client id (client role only)")
	f.BoolVar(&canRead, "can-read", true, "employee read flag")
	f.BoolVar(&canWrite, "can-write", false, "employee write flag")
	f.DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
