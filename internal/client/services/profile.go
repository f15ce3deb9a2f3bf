package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/circleup/circleup/internal/client/client"
	"github.com/circleup/circleup/internal/client/models"
	"github.com/circleup/circleup/internal/common"
	"github.com/circleup/circleup/internal/logging"
)

var imageExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {},
}

// ProfileService uploads the profile image of the signed-in user.
type ProfileService struct {
	client client.Client
	logger logging.Logger
	now    func() time.Time
}

func NewProfileService(c client.Client, logger logging.Logger) *ProfileService {
	return &ProfileService{client: c, logger: logger.With("service", "profile"), now: time.Now}
}

// UploadImage sends the file at path as the session user's profile image.
// Offline sessions cannot upload.
func (s *ProfileService) UploadImage(ctx context.Context, session *models.Session, path string) (*models.ImageUploadResponse, error) {
	if session == nil {
		return nil, ErrNotLoggedIn
	}
	if !session.Authorized(s.now()) {
		return nil, client.ErrUnauthorized
	}

	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := imageExtensions[ext]; !ok {
		return nil, fmt.Errorf("%w: unsupported image type %q", common.ErrorValidation, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	username := session.User.Username
	if username == "" {
		username = session.User.Email
	}

	resp, err := s.client.UploadProfileImage(ctx, session, username, filepath.Base(path), f)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	s.logger.Info(ctx, "profile image uploaded", "user", username, "url", resp.ImageURL)
	return resp, nil
}
