package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/circleup/circleup/internal/client/services"
)

// Profile prints the current session.
func (a *App) Profile(ctx context.Context) error {
	s := a.Session()
	if s == nil {
		return services.ErrNotLoggedIn
	}

	printlnFn("Email:", s.User.Email)
	if s.User.Username != "" {
		printlnFn("Username:", s.User.Username)
	}
	if s.User.Role != "" {
		printlnFn("Role:", s.User.Role)
	}
	if s.Offline {
		printlnFn("Session: offline")
	} else {
		printlnFn("Session: online")
		if !s.ExpiresAt.IsZero() {
			printlnFn("Token expires:", s.ExpiresAt.Local().Format(time.RFC1123))
		}
	}
	return nil
}

func (a *App) Upload(ctx context.Context, path string) error {
	resp, err := a.profile.UploadImage(ctx, a.Session(), path)
	if err != nil {
		return err
	}
	msg := "Profile image uploaded"
	if resp.ImageURL != "" {
		msg = fmt.Sprintf("%s: %s", msg, resp.ImageURL)
	}
	printlnFn(msg)
	return nil
}
