package server

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-marathon-server/users"
	"github.com/rs/zerolog/log"
)

// InitialiseSystem makes sure every configured admin user exists so that
// admins can log in on a fresh database. Existing users are left untouched.
func (s *Server) InitialiseSystem(ctx context.Context) error {
	admins := s.config.GetAdminUsers()
	if len(admins) == 0 {
		log.Info().Msg("bootstrap: no admin users configured")
		return nil
	}

	for _, email := range admins {
		email = users.NormalizeEmail(email)
		if email == "" {
			continue
		}
		if err := s.users.Ensure(ctx, email); err != nil {
			return fmt.Errorf("[Server InitialiseSystem] failed to bootstrap admin user %s: %w", email, err)
		}
	}
	log.Info().Strs("admins", admins).Msg("bootstrap: admin users present")
	return nil
}
