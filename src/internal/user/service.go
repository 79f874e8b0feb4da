package user

import (
	"context"
	"errors"
	"math"
	"surihub-timeclock-svc/src/internal/cache"
	"surihub-timeclock-svc/src/internal/config"
	"surihub-timeclock-svc/src/internal/models"
	"surihub-timeclock-svc/src/internal/security"
	"surihub-timeclock-svc/src/internal/session"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ActivityPublisher records audit events for logins and admin actions.
type ActivityPublisher interface {
	PublishActivity(ctx context.Context, userID, sessionID, serviceName, action string) error
}

type Service interface {
	Register(ctx context.Context, req *RegisterRequest) (*Profile, error)
	CreateAdmin(ctx context.Context, req *RegisterRequest, createdBy string) (*Profile, error)
	Login(ctx context.Context, req *LoginRequest, meta ClientMeta) (*LoginResponse, error)
	Logout(ctx context.Context, userID, sessionID string) error
	GetAllUsers(ctx context.Context, req *GetAllUsersRequest) (*GetAllUsersResponse, error)
	GetUser(ctx context.Context, id string) (*Profile, error)
	FullNames(ctx context.Context, ids []string) (map[string]string, error)
	CountByRole(ctx context.Context, role string) (int64, error)
}

type userService struct {
	userRepository Repository
	sessionRepo    session.Repository
	cacheService   cache.Service
	tokens         *security.TokenManager
	activity       ActivityPublisher
	cfg            *config.Configuration
}

func NewUserService(
	userRepository Repository,
	sessionRepo session.Repository,
	cacheService cache.Service,
	tokens *security.TokenManager,
	activity ActivityPublisher,
	cfg *config.Configuration,
) Service {
	return &userService{
		userRepository: userRepository,
		sessionRepo:    sessionRepo,
		cacheService:   cacheService,
		tokens:         tokens,
		activity:       activity,
		cfg:            cfg,
	}
}

func (s *userService) Register(ctx context.Context, req *RegisterRequest) (*Profile, error) {
	user, err := s.create(ctx, req, RoleEmployee, nil)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("Employee registered")
	return user.ToProfile(), nil
}

func (s *userService) CreateAdmin(ctx context.Context, req *RegisterRequest, createdBy string) (*Profile, error) {
	if createdBy == "" {
		return nil, models.ErrInvalidParams
	}

	user, err := s.create(ctx, req, RoleAdmin, &createdBy)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":    user.ID,
		"created_by": createdBy,
	}).Info("Admin account created")

	s.publishActivity(ctx, createdBy, "", models.ServiceAdminUsers, models.ActionAdminCreated)
	return user.ToProfile(), nil
}

func (s *userService) create(ctx context.Context, req *RegisterRequest, role string, createdBy *string) (*User, error) {
	if req == nil || req.Email == "" || req.Password == "" {
		return nil, models.ErrInvalidParams
	}

	hash, err := security.HashPassword(req.Password, s.cfg.Security.BcryptCost)
	if err != nil {
		logrus.WithError(err).Error("Failed to hash password")
		return nil, err
	}

	now := time.Now().UTC()
	user := &User{
		ID:           uuid.NewString(),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        normalizeEmail(req.Email),
		PasswordHash: hash,
		Role:         role,
		CreatedBy:    createdBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepository.Create(ctx, user); err != nil {
		return nil, err
	}
	s.invalidateStats(ctx)
	return user, nil
}

func (s *userService) Login(ctx context.Context, req *LoginRequest, meta ClientMeta) (*LoginResponse, error) {
	user, err := s.userRepository.GetByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, models.ErrUserNotFound) {
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	ok, err := security.CheckPassword(user.PasswordHash, req.Password)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("Stored password hash is unreadable")
		return nil, models.ErrInvalidCredentials
	}
	if !ok {
		logrus.WithField("user_id", user.ID).Warn("Login with wrong password")
		return nil, models.ErrInvalidCredentials
	}

	sessionID := uuid.NewString()
	token, expiresAt, err := s.tokens.SignAccessToken(user.ID, sessionID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	authSession := &session.Session{
		SessionID:    sessionID,
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
		IsActive:     true,
		CreatedAt:    now,
		LastActiveAt: now,
		ExpiresAt:    expiresAt,
	}
	if err := s.sessionRepo.Create(ctx, authSession); err != nil {
		return nil, err
	}
	if err := s.cacheService.CacheActiveSession(ctx, authSession); err != nil {
		logrus.WithError(err).Warn("Failed to cache new session")
	}
	if err := s.userRepository.UpdateLastLogin(ctx, user.ID, now); err != nil {
		logrus.WithError(err).Warn("Failed to record last login")
	}
	user.LastLoginAt = &now

	logrus.WithFields(logrus.Fields{
		"user_id":    user.ID,
		"session_id": sessionID,
		"role":       user.Role,
	}).Info("User logged in")

	s.publishActivity(ctx, user.ID, sessionID, models.ServiceAuth, models.ActionLogin)

	return &LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user.ToProfile(),
	}, nil
}

func (s *userService) Logout(ctx context.Context, userID, sessionID string) error {
	if userID == "" || sessionID == "" {
		return models.ErrInvalidParams
	}

	if err := s.sessionRepo.Deactivate(ctx, sessionID); err != nil && !errors.Is(err, models.ErrSessionInactive) {
		return err
	}
	if err := s.cacheService.DeleteSession(ctx, userID, sessionID); err != nil {
		logrus.WithError(err).Warn("Failed to drop cached session")
	}

	logrus.WithFields(logrus.Fields{
		"user_id":    userID,
		"session_id": sessionID,
	}).Info("User logged out")

	s.publishActivity(ctx, userID, sessionID, models.ServiceAuth, models.ActionLogout)
	return nil
}

func (s *userService) GetAllUsers(ctx context.Context, req *GetAllUsersRequest) (*GetAllUsersResponse, error) {
	if req.Limit <= 0 {
		req.Limit = s.cfg.Search.MinQueryLimit
	}
	if req.Limit > s.cfg.Search.MaxQueryLimit {
		req.Limit = s.cfg.Search.MaxQueryLimit
	}
	if req.Page <= 0 {
		req.Page = 1
	}

	if req.Role != "" && !isValidRole(req.Role) {
		return nil, models.ErrInvalidParams
	}

	users, totalCount, err := s.userRepository.GetAllUsers(ctx, req)
	if err != nil {
		logrus.WithError(err).Error("Failed to get users from repository")
		return nil, err
	}

	profiles := make([]*Profile, len(users))
	for i, user := range users {
		profiles[i] = user.ToProfile()
	}

	totalPages := int(math.Ceil(float64(totalCount) / float64(req.Limit)))

	return &GetAllUsersResponse{
		Users:      profiles,
		TotalCount: totalCount,
		Page:       req.Page,
		Limit:      req.Limit,
		TotalPages: totalPages,
	}, nil
}

func (s *userService) GetUser(ctx context.Context, id string) (*Profile, error) {
	if id == "" {
		return nil, models.ErrInvalidParams
	}
	user, err := s.userRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.ToProfile(), nil
}

// FullNames maps user ids to display names. Unknown ids are left out.
func (s *userService) FullNames(ctx context.Context, ids []string) (map[string]string, error) {
	users, err := s.userRepository.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(users))
	for _, u := range users {
		if name := u.FullName(); name != "" {
			names[u.ID] = name
		}
	}
	return names, nil
}

func (s *userService) CountByRole(ctx context.Context, role string) (int64, error) {
	return s.userRepository.CountByRole(ctx, role)
}

func (s *userService) invalidateStats(ctx context.Context) {
	if err := s.cacheService.InvalidateStats(ctx); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate stats cache")
	}
}

func (s *userService) publishActivity(ctx context.Context, userID, sessionID, serviceName, action string) {
	if s.activity == nil {
		return
	}
	if err := s.activity.PublishActivity(ctx, userID, sessionID, serviceName, action); err != nil {
		logrus.WithError(err).WithField("action", action).Warn("Failed to publish activity")
	}
}
