package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/circleup/circleup/internal/client/client"
	"github.com/circleup/circleup/internal/client/models"
	"github.com/circleup/circleup/internal/client/repositories/metadata"
	"github.com/circleup/circleup/internal/common"
	"github.com/circleup/circleup/internal/cryptox"
	"github.com/circleup/circleup/internal/dbx"
	"github.com/circleup/circleup/internal/logging"
)

// AuthService signs users in and out.
//
// Contract:
//   - Login: authenticate against the API and remember a verifier so the
//     same credentials work offline later. If the API is unreachable it
//     falls back to OfflineLogin.
//   - OfflineLogin: check the credentials against the stored verifier.
//   - Register: create an account on the API.
//   - Logout: drop the session and the stored offline credentials.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*models.Session, error)
	OfflineLogin(ctx context.Context, email, password string) (*models.Session, error)
	Register(ctx context.Context, req models.RegistrationRequest) (*models.RegistrationResponse, error)
	Logout(ctx context.Context, session *models.Session) error
	ClearOfflineData(ctx context.Context) error
}

type authService struct {
	client client.Client
	db     *sql.DB
	logger logging.Logger
	now    func() time.Time
}

func NewAuthService(c client.Client, db *sql.DB, logger logging.Logger) AuthService {
	return &authService{client: c, db: db, logger: logger.With("service", "auth"), now: time.Now}
}

func (a *authService) Login(ctx context.Context, email, password string) (*models.Session, error) {
	resp, err := a.client.Login(ctx, email, password)
	if errors.Is(err, client.ErrUnavailable) {
		a.logger.Info(ctx, "server unavailable, trying offline login", "email", email)
		return a.OfflineLogin(ctx, email, password)
	}
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}

	var user models.User
	if resp.Data != nil {
		user = *resp.Data
	}
	session := models.NewSession(user, resp.AccessToken, resp.RefreshToken, a.now())
	if session.User.Email == "" {
		session.User.Email = email
	}

	// The online session is valid regardless; only a later offline login
	// depends on this write.
	if err := a.saveOfflineData(ctx, email, password, session.User); err != nil {
		a.logger.Warn(ctx, "failed to store offline credentials", "error", err)
	}
	return session, nil
}

func (a *authService) OfflineLogin(ctx context.Context, email, password string) (*models.Session, error) {
	repo := metadata.NewSQLiteRepository(a.db)

	savedEmail, err := repo.Get(ctx, metadata.KeyEmail)
	if err != nil {
		return nil, localDataError(err)
	}
	if !strings.EqualFold(string(savedEmail), email) {
		return nil, client.ErrLoginRejected
	}

	salt, err := repo.Get(ctx, metadata.KeySalt)
	if err != nil {
		return nil, localDataError(err)
	}
	verifier, err := repo.Get(ctx, metadata.KeyVerifier)
	if err != nil {
		return nil, localDataError(err)
	}

	if !cryptox.CheckPassword([]byte(password), salt, verifier) {
		return nil, client.ErrLoginRejected
	}

	session := models.NewOfflineSession(string(savedEmail), a.now())
	if raw, err := repo.Get(ctx, metadata.KeyUser); err == nil {
		var u models.User
		if err := json.Unmarshal(raw, &u); err == nil {
			session.User = u
		}
	}
	return session, nil
}

func (a *authService) saveOfflineData(ctx context.Context, email, password string, user models.User) error {
	salt := common.GenerateRandByteArray(cryptox.SaltSize)
	key := cryptox.DeriveKey([]byte(password), salt)
	defer common.WipeByteArray(key)
	verifier := cryptox.MakeVerifier(key)

	userJSON, err := json.Marshal(user)
	if err != nil {
		return err
	}

	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, metadata.KeyEmail, []byte(email)); err != nil {
			return err
		}
		if err := repo.Set(ctx, metadata.KeySalt, salt); err != nil {
			return err
		}
		if err := repo.Set(ctx, metadata.KeyVerifier, verifier); err != nil {
			return err
		}
		return repo.Set(ctx, metadata.KeyUser, userJSON)
	})
}

func (a *authService) Register(ctx context.Context, req models.RegistrationRequest) (*models.RegistrationResponse, error) {
	if req.Role == "" {
		req.Role = "member"
	}
	if req.IsActive == 0 {
		req.IsActive = 1
	}
	resp, err := a.client.Register(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("registration error: %w", err)
	}
	return resp, nil
}

func (a *authService) Logout(ctx context.Context, session *models.Session) error {
	if session == nil {
		return ErrNotLoggedIn
	}
	session.AccessToken = ""
	session.RefreshToken = ""
	session.ExpiresAt = time.Time{}

	if err := a.ClearOfflineData(ctx); err != nil {
		return fmt.Errorf("failed to clear offline data: %w", err)
	}
	a.logger.Info(ctx, "logged out", "session", session.ID)
	return nil
}

// ClearOfflineData wipes the stored credentials verifier.
func (a *authService) ClearOfflineData(ctx context.Context) error {
	return metadata.NewSQLiteRepository(a.db).Clear(ctx)
}

func localDataError(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return client.ErrLocalDataNotAvailable
	}
	return err
}
