package services

import (
	"errors"
	"fmt"

	"github.com/circleup/circleup/internal/common"
)

var (
	ErrNoConnectionNoCache     = errors.New("no internet connection and no cached data available")
	ErrPostNotAvailableOffline = errors.New("post not available offline")
	ErrToggleFavorite          = errors.New("failed to toggle favorite")
	ErrNotLoggedIn             = errors.New("not logged in")
	ErrInvalidPage             = fmt.Errorf("%w: page and limit must be positive", common.ErrorValidation)
)
