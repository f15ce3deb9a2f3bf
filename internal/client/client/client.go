package client

import (
	"context"
	"io"

	"github.com/circleup/circleup/internal/client/models"
)

// PostSource is the read side of the feed API.
type PostSource interface {
	GetPosts(ctx context.Context, page, limit int) ([]models.Post, error)
	GetAllPosts(ctx context.Context) ([]models.Post, error)
	GetPost(ctx context.Context, id int) (*models.Post, error)
}

// Client is the full remote API used by the application.
type Client interface {
	PostSource
	Login(ctx context.Context, email, password string) (*models.LoginResponse, error)
	Register(ctx context.Context, req models.RegistrationRequest) (*models.RegistrationResponse, error)
	UploadProfileImage(ctx context.Context, session *models.Session, username, filename string, image io.Reader) (*models.ImageUploadResponse, error)
	Ping(ctx context.Context) error
}
