package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/circleup/circleup/internal/client/client"
	"github.com/circleup/circleup/internal/client/config"
	"github.com/circleup/circleup/internal/client/connectivity"
	"github.com/circleup/circleup/internal/client/feed"
	"github.com/circleup/circleup/internal/client/models"
	"github.com/circleup/circleup/internal/client/services"
	"github.com/circleup/circleup/internal/logging"
)

// imageUploader is the part of services.ProfileService the CLI needs.
type imageUploader interface {
	UploadImage(ctx context.Context, session *models.Session, path string) (*models.ImageUploadResponse, error)
}

type App struct {
	config      *config.Config
	logger      logging.Logger
	authService services.AuthService
	postService services.PostService
	profile     imageUploader
	feed        *feed.Model
	favorites   *feed.FavoritesModel
	watcher     *connectivity.Watcher
	closeFn     func() error

	mu      sync.RWMutex
	session *models.Session
	mode    connectivity.Mode

	reader *bufio.Reader
}

// NewApp opens the local database and builds the service graph from c.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	repos, err := client.InitDatabase(ctx, c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	apiClient, err := client.NewHTTPClient(c.BaseURL, c.RequestTimeout)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}

	var source client.PostSource = apiClient
	if c.BreakerFailures > 0 {
		bc := client.DefaultBreakerConfig()
		bc.FailureThreshold = uint32(c.BreakerFailures)
		source = client.NewBreakerSource(apiClient, bc, logger)
	}

	watcher := connectivity.NewWatcher(
		connectivity.NewPingChecker(apiClient, connectivity.DefaultProbeTimeout),
		c.OnlineCheckInterval,
		logger,
	)

	posts := services.NewPostService(source, repos.Cache, repos.Favorites, watcher, logger,
		services.WithRetention(c.CacheRetention))
	favs := services.NewFavoritesService(repos.Favorites, repos.Cache, logger)

	a := &App{
		config:      c,
		logger:      logger,
		authService: services.NewAuthService(apiClient, repos.DB, logger),
		postService: posts,
		profile:     services.NewProfileService(apiClient, logger),
		feed:        feed.NewModel(posts, watcher, c.PageSize, logger),
		favorites:   feed.NewFavoritesModel(favs),
		watcher:     watcher,
		closeFn:     repos.Close,
		reader:      bufio.NewReader(os.Stdin),
	}
	watcher.OnChange(a.setMode)
	return a, nil
}

func (a *App) setMode(mode connectivity.Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed && a.feed != nil {
		a.feed.SetOffline(mode == connectivity.ModeOffline)
	}
}

func (a *App) Mode() connectivity.Mode {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mode
}

func (a *App) Session() *models.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session
}

func (a *App) setSession(s *models.Session) {
	a.mu.Lock()
	a.session = s
	a.mu.Unlock()
}

func (a *App) isLoggedIn() bool {
	return a.Session() != nil
}

// Run starts the REPL and releases the database when it returns.
func (a *App) Run(ctx context.Context) error {
	defer func() {
		if a.closeFn != nil {
			if err := a.closeFn(); err != nil {
				a.logger.Error(ctx, "failed to close database", "error", err)
			}
		}
	}()
	a.Root(ctx)
	return nil
}
