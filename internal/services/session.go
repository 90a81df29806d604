package services

import (
	"context"
	"errors"
	"time"

	"authgate/internal/models"
	"authgate/internal/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sentinel failures for session operations. The auth layer folds these into
// uniform 401/403 responses so a caller cannot probe session state through
// behavior differences.
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionExpired   = errors.New("refresh token expired")
	ErrTokenMismatch    = errors.New("invalid refresh token")
	ErrSessionForbidden = errors.New("session does not belong to this user")
)

// DeviceMeta is the client context captured at login for the device list.
type DeviceMeta struct {
	UserAgent  string
	IP         string
	DeviceName string
}

// SessionService is the registry of per-device sessions. Each session holds
// the salted hash of its current refresh token; the plaintext never touches
// the database.
type SessionService struct {
	db    *gorm.DB
	codec *utils.TokenCodec
}

func NewSessionService(db *gorm.DB, codec *utils.TokenCodec) *SessionService {
	return &SessionService{db: db, codec: codec}
}

// Create records a new session for a fresh login. Absolute expiry is
// now + refresh TTL; only rotation extends it afterwards.
func (s *SessionService) Create(ctx context.Context, userID, refreshToken string, meta DeviceMeta) (*models.Session, error) {
	hash, err := utils.HashToken(refreshToken)
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		ID:               uuid.NewString(),
		UserID:           userID,
		RefreshTokenHash: hash,
		UserAgent:        meta.UserAgent,
		IP:               meta.IP,
		DeviceName:       meta.DeviceName,
		ExpiresAt:        time.Now().Add(s.codec.RefreshTTL()),
	}
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// Rotate exchanges a live refresh token for a new one. The presented token
// must hash-match the stored value; on success the stored hash is replaced
// and expiry extended, which makes every refresh token single-use. An
// expired session is deleted as a side effect. A mismatch leaves the
// session untouched: the presented token may be a replay of an
// already-rotated token rather than an attack, but it is never a free retry.
//
// The hash swap is a conditional update guarded by the old hash, so two
// rotations racing on the same session cannot both succeed from the same
// prior state; the loser reports a mismatch.
func (s *SessionService) Rotate(ctx context.Context, sessionID, presented string) (string, *utils.Claims, error) {
	var session models.Session
	err := s.db.WithContext(ctx).First(&session, "id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, ErrSessionNotFound
	}
	if err != nil {
		return "", nil, err
	}

	if session.Expired(time.Now()) {
		s.db.WithContext(ctx).Delete(&models.Session{}, "id = ?", sessionID)
		return "", nil, ErrSessionExpired
	}

	if !utils.CheckToken(presented, session.RefreshTokenHash) {
		return "", nil, ErrTokenMismatch
	}

	claims, err := s.codec.VerifyRefresh(presented)
	if err != nil {
		return "", nil, ErrTokenMismatch
	}

	newToken, err := s.codec.IssueRefresh(claims.UserID, claims.Email, claims.Role)
	if err != nil {
		return "", nil, err
	}
	newHash, err := utils.HashToken(newToken)
	if err != nil {
		return "", nil, err
	}

	res := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ? AND refresh_token_hash = ?", sessionID, session.RefreshTokenHash).
		Updates(map[string]interface{}{
			"refresh_token_hash": newHash,
			"expires_at":         time.Now().Add(s.codec.RefreshTTL()),
		})
	if res.Error != nil {
		return "", nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Lost the race to a concurrent rotation; the presented token has
		// already been superseded.
		return "", nil, ErrTokenMismatch
	}

	return newToken, claims, nil
}

// Revoke deletes a session unconditionally.
func (s *SessionService) Revoke(ctx context.Context, sessionID string) error {
	return s.db.WithContext(ctx).Delete(&models.Session{}, "id = ?", sessionID).Error
}

// RevokeOwned deletes a session after verifying it belongs to userID.
// Absent sessions and foreign sessions fail identically.
func (s *SessionService) RevokeOwned(ctx context.Context, userID, sessionID string) error {
	var session models.Session
	err := s.db.WithContext(ctx).First(&session, "id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrSessionForbidden
	}
	if err != nil {
		return err
	}
	if session.UserID != userID {
		return ErrSessionForbidden
	}
	return s.db.WithContext(ctx).Delete(&models.Session{}, "id = ?", sessionID).Error
}

// RevokeAll deletes every session for a user and returns the count.
func (s *SessionService) RevokeAll(ctx context.Context, userID string) (int64, error) {
	res := s.db.WithContext(ctx).Delete(&models.Session{}, "user_id = ?", userID)
	return res.RowsAffected, res.Error
}

// ListForUser returns the user's sessions for the device-management view.
// The hash field is excluded from the model's JSON projection.
func (s *SessionService) ListForUser(ctx context.Context, userID string) ([]models.Session, error) {
	var sessions []models.Session
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&sessions).Error
	return sessions, err
}

// PurgeExpired deletes sessions whose absolute expiry has passed. Expired
// sessions are already rejected lazily on rotation; this reclaims the rows.
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Delete(&models.Session{}, "expires_at < ?", time.Now())
	return res.RowsAffected, res.Error
}
