package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/member-auth-api/internal/models"
	"github.com/noah-isme/member-auth-api/internal/repository"
	appErrors "github.com/noah-isme/member-auth-api/pkg/errors"
)

// admissionYearOffset maps admission year 1 to calendar year 2003.
const admissionYearOffset = 2002

type userRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// UserService handles member sign-up and profile reads.
type UserService struct {
	repo      userRepository
	hasher    PasswordHasher
	validator *validator.Validate
	audit     auditRecorder
	logger    *zap.Logger
	now       func() time.Time
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, hasher PasswordHasher, validate *validator.Validate, audit auditRecorder, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &UserService{repo: repo, hasher: hasher, validator: validate, audit: audit, logger: logger, now: time.Now}
}

// Create registers a new unverified member.
func (s *UserService) Create(ctx context.Context, req models.NewUserRequest) (*models.NewUserResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, appErrors.ErrBadRequest.Status, "invalid user payload")
	}
	if !ValidPassword(req.Username, req.Password) {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "password does not satisfy the password rules")
	}

	memberSince := s.now().UTC().Truncate(time.Second)
	if req.AdmissionYear < 1 || req.AdmissionYear+admissionYearOffset > memberSince.Year() {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "invalid admission year")
	}

	user := &models.User{
		Username:      req.Username,
		MemberSince:   memberSince,
		AdmissionYear: req.AdmissionYear,
		LegalName:     req.LegalName,
		Nickname:      req.Nickname,
		Status:        models.UserStatusUnverified,
		Admin:         false,
	}
	user.PasswordHash = s.hasher.Hash(user.Username, user.Salt(), req.Password)

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, appErrors.ErrDuplicatedUsername
		}
		s.logger.Error("failed to create user", zap.String("username", user.Username), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to create user")
	}

	if s.audit != nil {
		s.audit.Record(models.AuditLog{Username: user.Username, Action: models.AuditActionUserCreate, CreatedAt: memberSince})
	}

	return &models.NewUserResponse{Username: user.Username}, nil
}

// Detail returns the profile of username. The full view adds account
// metadata and is meant for admins and the account owner. Deleted accounts
// are reported as not found.
func (s *UserService) Detail(ctx context.Context, username string, full bool) (*models.UserDetailResponse, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		s.logger.Error("failed to read user", zap.String("username", username), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to read user")
	}
	if user.Status == models.UserStatusDeleted {
		return nil, appErrors.ErrNotFound
	}

	detail := &models.UserDetailResponse{
		Username:      user.Username,
		AdmissionYear: user.AdmissionYear,
		LegalName:     user.LegalName,
		Nickname:      user.Nickname,
	}
	if full {
		memberSince := user.MemberSince.UTC()
		admin := user.Admin
		detail.MemberSince = &memberSince
		detail.Status = user.Status
		detail.Admin = &admin
	}
	return detail, nil
}
