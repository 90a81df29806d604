package services

import (
	"context"
	"errors"

	"authgate/internal/models"
	"authgate/internal/utils"
	"authgate/pkg/response"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuthService struct {
	db       *gorm.DB
	sessions *SessionService
	codec    *utils.TokenCodec
}

func NewAuthService(db *gorm.DB, sessions *SessionService, codec *utils.TokenCodec) *AuthService {
	return &AuthService{db: db, sessions: sessions, codec: codec}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=50"`
	Email    string `json:"email" binding:"required,email,max=100"`
	Password string `json:"password" binding:"required,min=6"`
	Avatar   string `json:"avatar"`
	Role     string `json:"role" binding:"omitempty,oneof=admin user"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	Session      *models.Session
	User         *models.User
}

type RefreshResult struct {
	AccessToken  string
	RefreshToken string
}

// Register creates a new user. Email uniqueness is enforced here with a
// lookup and again by the database index.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	var existing models.User
	err := s.db.WithContext(ctx).First(&existing, "email = ?", req.Email).Error
	if err == nil {
		return nil, response.Conflict("Email already in use")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = "user"
	}

	user := &models.User{
		ID:       uuid.NewString(),
		Name:     req.Name,
		Email:    req.Email,
		Password: hash,
		Avatar:   req.Avatar,
		Role:     role,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials, issues the token pair, and records a session
// for the device. Access tokens are never persisted server-side.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest, meta DeviceMeta) (*LoginResult, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", req.Email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NotFound("User not found")
	}
	if err != nil {
		return nil, err
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		return nil, response.Unauthorized("Invalid password")
	}

	accessToken, err := s.codec.IssueAccess(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.codec.IssueRefresh(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Create(ctx, user.ID, refreshToken, meta)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Session:      session,
		User:         &user,
	}, nil
}

// Refresh rotates the session's refresh token and issues a fresh access
// token. Every rotation failure surfaces as the same authentication error;
// expired, mismatched, and missing sessions are indistinguishable to the
// client beyond the message text.
func (s *AuthService) Refresh(ctx context.Context, sessionID, refreshToken string) (*RefreshResult, error) {
	newRefresh, claims, err := s.sessions.Rotate(ctx, sessionID, refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound):
			return nil, response.Unauthorized("Session not found")
		case errors.Is(err, ErrSessionExpired):
			return nil, response.Unauthorized("Refresh token expired")
		case errors.Is(err, ErrTokenMismatch):
			return nil, response.Unauthorized("Invalid refresh token")
		default:
			return nil, err
		}
	}

	accessToken, err := s.codec.IssueAccess(claims.UserID, claims.Email, claims.Role)
	if err != nil {
		return nil, err
	}

	return &RefreshResult{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
	}, nil
}

// Logout revokes the session named by the client's session cookie.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Revoke(ctx, sessionID)
}

// LogoutAll revokes every session the user owns and returns the count.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) (int64, error) {
	return s.sessions.RevokeAll(ctx, userID)
}

// LogoutDevice revokes one session after an ownership check. Foreign and
// absent sessions both fail with the same authorization error so existence
// is not leaked.
func (s *AuthService) LogoutDevice(ctx context.Context, userID, sessionID string) error {
	err := s.sessions.RevokeOwned(ctx, userID, sessionID)
	if errors.Is(err, ErrSessionForbidden) {
		return response.Forbidden("Session does not belong to this user")
	}
	return err
}

// Devices lists the user's live sessions for the device-management view.
func (s *AuthService) Devices(ctx context.Context, userID string) ([]models.Session, error) {
	return s.sessions.ListForUser(ctx, userID)
}

// GetUserByID loads a user for profile projections.
func (s *AuthService) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NotFound("User not found")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SeedAdminIfNotExists creates a default admin account on first boot.
func (s *AuthService) SeedAdminIfNotExists(email, password string) error {
	var count int64
	s.db.Model(&models.User{}).Where("role = ?", "admin").Count(&count)
	if count > 0 {
		return nil
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	admin := &models.User{
		ID:       uuid.NewString(),
		Name:     "Administrator",
		Email:    email,
		Password: hash,
		Role:     "admin",
	}
	return s.db.Create(admin).Error
}
