package cli

import (
	"context"
	"errors"
	"os"

	"github.com/circleup/circleup/internal/client/client"
	"github.com/circleup/circleup/internal/client/models"
	"github.com/circleup/circleup/internal/client/validate"
	"github.com/circleup/circleup/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for an email, a password and its confirmation, validates
// them and creates the account via the AuthService.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := getPassword("Confirm password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if err := validate.Registration(email, string(password), string(confirm)); err != nil {
		return err
	}

	resp, err := a.authService.Register(ctx, models.RegistrationRequest{
		Username: email,
		Email:    email,
		Password: string(password),
	})
	if err != nil {
		return err
	}

	printlnFn("Success!")
	for _, m := range resp.Messages {
		printlnFn(m)
	}
	return nil
}

// Login prompts for credentials and signs in. The AuthService falls back to
// the locally stored verifier when the server is unreachable; the resulting
// session is then marked offline.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := validate.Login(email, string(password)); err != nil {
		return err
	}

	session, err := a.authService.Login(ctx, email, string(password))
	if err != nil {
		if errors.Is(err, client.ErrLocalDataNotAvailable) {
			printlnFn("Server unavailable and no saved credentials for offline login")
		}
		a.logger.Info(ctx, "login unsuccessful", "email", email, "error", err)
		return err
	}

	a.setSession(session)
	if session.Offline {
		printlnFn("Logged in offline; showing cached data")
	} else {
		printlnFn("Login successful")
	}
	return nil
}

// Logout ends the session and removes locally stored credentials.
func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx, a.Session()); err != nil {
		return err
	}
	a.setSession(nil)
	printlnFn("Logged out")
	return nil
}
