package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	apperrors "github.com/quizadmin/quiz-admin-server/internal/errors"
	"github.com/quizadmin/quiz-admin-server/internal/model"
	"github.com/quizadmin/quiz-admin-server/internal/repository"
	"github.com/quizadmin/quiz-admin-server/internal/util"
)

// AdminService is the admin directory. The admins table is the only source of
// identities; the configured bootstrap admin must be inserted with
// EnsureBootstrapAdmin before requests are served.
type AdminService struct {
	adminRepo     repository.AdminRepository
	hasher        *util.PasswordHasher
	tokens        *TokenService
	checkPassword bool
}

func NewAdminService(
	adminRepo repository.AdminRepository,
	hasher *util.PasswordHasher,
	tokens *TokenService,
	checkPassword bool,
) *AdminService {
	return &AdminService{
		adminRepo:     adminRepo,
		hasher:        hasher,
		tokens:        tokens,
		checkPassword: checkPassword,
	}
}

// EnsureBootstrapAdmin inserts the configured admin if the email is not taken yet.
// An existing row is never modified; a password that no longer matches it is
// only reported.
func (s *AdminService) EnsureBootstrapAdmin(ctx context.Context, email, password string) (*model.Admin, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash bootstrap password: %w", err)
	}

	created, err := s.adminRepo.CreateIfNotExists(ctx, email, hash)
	if err != nil {
		return nil, fmt.Errorf("create bootstrap admin: %w", err)
	}

	admin, err := s.adminRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("load bootstrap admin: %w", err)
	}
	if admin == nil {
		return nil, fmt.Errorf("bootstrap admin %s not found after insert", email)
	}

	if created {
		log.Info().Int64("adminId", admin.ID).Str("email", email).Msg("bootstrap admin created")
	} else if !s.hasher.Verify(password, admin.PasswordHash) {
		log.Warn().Int64("adminId", admin.ID).Str("email", email).
			Msg("configured ADMIN_PASSWORD does not match the stored bootstrap admin; keeping stored hash")
	}

	return admin, nil
}

func (s *AdminService) GetByID(ctx context.Context, id int64) (*model.Admin, error) {
	return s.adminRepo.FindByID(ctx, id)
}

func (s *AdminService) GetByEmail(ctx context.Context, email string) (*model.Admin, error) {
	return s.adminRepo.FindByEmail(ctx, email)
}

// Login resolves the admin by email and, when password checking is enabled,
// verifies the password. On success it returns a new session token.
func (s *AdminService) Login(ctx context.Context, email, password string) (*model.Admin, string, error) {
	admin, err := s.adminRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", apperrors.Database(err)
	}
	if admin == nil {
		return nil, "", apperrors.Forbidden("Invalid credentials")
	}

	if s.checkPassword && !s.hasher.Verify(password, admin.PasswordHash) {
		return nil, "", apperrors.Forbidden("Invalid credentials")
	}

	token, err := s.tokens.Issue(admin.ID)
	if err != nil {
		return nil, "", apperrors.Internal("Failed to create session").WithCause(err)
	}

	return admin, token, nil
}
