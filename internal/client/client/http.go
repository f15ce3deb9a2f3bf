package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/circleup/circleup/internal/client/models"
	"github.com/circleup/circleup/internal/common"
)

// HTTPClient implements Client over the JSON REST API.
type HTTPClient struct {
	baseURL *url.URL
	http    *http.Client
}

// NewHTTPClient returns a client for the API rooted at baseURL. timeout
// bounds every request; zero means no client-side limit.
func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: scheme and host required", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return &HTTPClient{baseURL: u, http: &http.Client{Timeout: timeout}}, nil
}

func (c *HTTPClient) GetPosts(ctx context.Context, page, limit int) ([]models.Post, error) {
	q := url.Values{}
	q.Set("_page", strconv.Itoa(page))
	q.Set("_limit", strconv.Itoa(limit))

	var posts []models.Post
	if err := c.getJSON(ctx, "posts", q, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *HTTPClient) GetAllPosts(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	if err := c.getJSON(ctx, "posts", nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *HTTPClient) GetPost(ctx context.Context, id int) (*models.Post, error) {
	var post models.Post
	if err := c.getJSON(ctx, "posts/"+strconv.Itoa(id), nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// Login posts credentials and returns the decoded response. A 2xx answer
// with success=false is reported as ErrLoginRejected.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	var resp models.LoginResponse
	err := c.postJSON(ctx, "login", models.LoginRequest{Email: email, Password: password}, &resp)
	if errors.Is(err, ErrUnauthorized) {
		return nil, ErrLoginRejected
	}
	if err != nil {
		return nil, err
	}
	if !resp.Success || resp.Data == nil || resp.AccessToken == "" {
		if resp.Message != "" {
			return nil, fmt.Errorf("%w: %s", ErrLoginRejected, resp.Message)
		}
		return nil, ErrLoginRejected
	}
	return &resp, nil
}

func (c *HTTPClient) Register(ctx context.Context, req models.RegistrationRequest) (*models.RegistrationResponse, error) {
	var resp models.RegistrationResponse
	if err := c.postJSON(ctx, "users", req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		if len(resp.Messages) > 0 {
			return nil, fmt.Errorf("%w: %s", ErrRegistrationRejected, strings.Join(resp.Messages, "; "))
		}
		return nil, ErrRegistrationRejected
	}
	return &resp, nil
}

// UploadProfileImage sends a multipart form with the username and the image
// to v1/upload, signed with the session's access token.
func (c *HTTPClient) UploadProfileImage(ctx context.Context, session *models.Session, username, filename string, image io.Reader) (*models.ImageUploadResponse, error) {
	if !session.Authorized(time.Now()) {
		return nil, ErrUnauthorized
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("username", username); err != nil {
		return nil, err
	}
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("v1/upload", nil), &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(common.AuthorizationHeaderName, "Bearer "+session.AccessToken)

	var resp models.ImageUploadResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ping checks that the API host answers at all. Any HTTP response, whatever
// its status, counts as reachable.
func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL.String(), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	_ = resp.Body.Close()
	return nil
}

func (c *HTTPClient) endpoint(path string, q url.Values) string {
	u := c.baseURL.ResolveReference(&url.URL{Path: path})
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path, q), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

func (c *HTTPClient) postJSON(ctx context.Context, path string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path, nil), bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

func (c *HTTPClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return c.mapError(err)
	}
	defer resp.Body.Close()

	if err := statusError(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

func (c *HTTPClient) mapError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func statusError(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return common.ErrorNotFound
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s", ErrUnavailable, resp.Status)
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s; body: %s", ErrUnexpectedStatus, resp.Status, strings.TrimSpace(string(b)))
	}
}
