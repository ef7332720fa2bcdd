package service

import (
	"crypto/subtle"
	"strings"

	"carrental/internal/domain"

	"github.com/rs/zerolog"
)

type AdminCredential struct {
	Username string
	Password string
}

var _ domain.AdminService = (*AdminService)(nil)

// AdminService checks admin console logins against the configured accounts.
type AdminService struct {
	admins []AdminCredential
	logger *zerolog.Logger
}

func NewAdminService(admins []AdminCredential, logger *zerolog.Logger) *AdminService {
	return &AdminService{admins: append([]AdminCredential(nil), admins...), logger: logger}
}

// Authenticate compares every configured account in constant time so the
// response does not depend on which field mismatched.
func (s *AdminService) Authenticate(username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.ErrInvalidInput
	}

	matched := 0
	for _, admin := range s.admins {
		userOK := subtle.ConstantTimeCompare([]byte(admin.Username), []byte(username))
		passOK := subtle.ConstantTimeCompare([]byte(admin.Password), []byte(password))
		matched |= userOK & passOK
	}
	if matched != 1 {
		s.logger.Warn().Str("username", username).Msg("admin login failed")
		return domain.ErrInvalidCredentials
	}
	return nil
}
