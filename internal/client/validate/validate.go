// Package validate checks login and registration input before it is sent to
// the API. Messages are meant to be shown to the user as they are.
package validate

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/circleup/circleup/internal/common"
)

const (
	MaxEmailLength    = 40
	MaxPasswordLength = 20
	MinPasswordLength = 8

	passwordSpecials = "#?!@$%^&*-_"
)

var emailRegex = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Error is a user-facing validation failure. It matches common.ErrorValidation.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return common.ErrorValidation }

var (
	ErrEmailRequired    = &Error{"Email field is required"}
	ErrEmailInvalid     = &Error{"Enter valid email"}
	ErrEmailTooLong     = &Error{"Email must be at most 40 characters"}
	ErrPasswordRequired = &Error{"Password field is required"}
	ErrPasswordTooLong  = &Error{"Password must be at most 20 characters"}
	ErrPasswordWeak     = &Error{"Password must be at least 8 characters long and include uppercase letter, lowercase letter, number, and special character"}
	ErrConfirmRequired  = &Error{"Confirm Password field is empty"}
	ErrPasswordMismatch = &Error{"Passwords do not match"}
)

// Login checks the sign-in form. It returns the first problem found.
func Login(email, password string) error {
	if err := checkEmail(email); err != nil {
		return err
	}
	if strings.TrimSpace(password) == "" {
		return ErrPasswordRequired
	}
	if !WithinPasswordLimit(password) {
		return ErrPasswordTooLong
	}
	return nil
}

// Registration checks the sign-up form. It returns the first problem found.
func Registration(email, password, confirm string) error {
	if err := checkEmail(email); err != nil {
		return err
	}
	if strings.TrimSpace(password) == "" {
		return ErrPasswordRequired
	}
	if !WithinPasswordLimit(password) {
		return ErrPasswordTooLong
	}
	if !StrongPassword(password) {
		return ErrPasswordWeak
	}
	if strings.TrimSpace(confirm) == "" {
		return ErrConfirmRequired
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}

func checkEmail(email string) error {
	switch {
	case strings.TrimSpace(email) == "":
		return ErrEmailRequired
	case !emailRegex.MatchString(email):
		return ErrEmailInvalid
	case !WithinEmailLimit(email):
		return ErrEmailTooLong
	}
	return nil
}

// StrongPassword requires at least MinPasswordLength characters including an
// upper-case letter, a lower-case letter, a digit and one of #?!@$%^&*-_.
func StrongPassword(p string) bool {
	if utf8.RuneCountInString(p) < MinPasswordLength {
		return false
	}
	var upper, lower, digit, special bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	return upper && lower && digit && special
}

func WithinEmailLimit(s string) bool    { return utf8.RuneCountInString(s) <= MaxEmailLength }
func WithinPasswordLimit(s string) bool { return utf8.RuneCountInString(s) <= MaxPasswordLength }
