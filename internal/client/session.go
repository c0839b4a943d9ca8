package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"storefront/web/internal/config"
	"storefront/web/internal/domain"

	log "github.com/sirupsen/logrus"
	"resty.dev/v3"
)

// ErrUnauthorized is returned when the session endpoint answers 401.
var ErrUnauthorized = errors.New("unauthorized")

// StatusError reports a response status the caller did not expect.
type StatusError struct {
	Path string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.Code, e.Path)
}

// SessionClient talks to the cookie-authenticated user endpoints. Cookies set
// by the backend are kept in a jar and sent with every later request.
type SessionClient interface {
	CheckSession(ctx context.Context) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, error)
	Register(ctx context.Context, reg Registration) (*domain.User, error)
	Logout(ctx context.Context) error
	UpdateCart(ctx context.Context, items domain.CartItems) error
}

// Registration is the body of a sign-up request.
type Registration struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type sessionClient struct {
	config     config.AuthConfig
	httpClient *resty.Client
}

type userEnvelope struct {
	User *domain.User `json:"user"`
}

func NewSessionClient(backend config.BackendConfig, cfg config.AuthConfig) (SessionClient, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	if cfg.CookieName != "" {
		base, err := url.Parse(backend.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid backend url: %w", err)
		}
		jar.SetCookies(base, []*http.Cookie{{Name: cfg.CookieName, Value: cfg.CookieValue, Path: "/"}})
	}

	client := resty.New().
		SetBaseURL(backend.BaseURL).
		SetTimeout(backend.TimeoutDuration()).
		SetCookieJar(jar).
		SetHeader("Accept", "application/json")

	return &sessionClient{
		config:     cfg,
		httpClient: client,
	}, nil
}

func (c *sessionClient) CheckSession(ctx context.Context) (*domain.User, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		Get(c.config.SessionPath)
	if err != nil {
		return nil, fmt.Errorf("failed to check session: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return decodeUser(resp.Bytes())
	case http.StatusUnauthorized:
		return nil, ErrUnauthorized
	default:
		return nil, &StatusError{Path: c.config.SessionPath, Code: resp.StatusCode()}
	}
}

func (c *sessionClient) Login(ctx context.Context, email, password string) (*domain.User, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email, "password": password}).
		Post(c.config.LoginPath)
	if err != nil {
		return nil, fmt.Errorf("failed to log in: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK, http.StatusCreated:
		return decodeUser(resp.Bytes())
	case http.StatusUnauthorized, http.StatusBadRequest, http.StatusNotFound:
		return nil, ErrUnauthorized
	default:
		return nil, &StatusError{Path: c.config.LoginPath, Code: resp.StatusCode()}
	}
}

func (c *sessionClient) Register(ctx context.Context, reg Registration) (*domain.User, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(reg).
		Post(c.config.RegisterPath)
	if err != nil {
		return nil, fmt.Errorf("failed to register: %w", err)
	}

	if resp.IsError() {
		return nil, &StatusError{Path: c.config.RegisterPath, Code: resp.StatusCode()}
	}
	return decodeUser(resp.Bytes())
}

func (c *sessionClient) Logout(ctx context.Context) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		Get(c.config.LogoutPath)
	if err != nil {
		return fmt.Errorf("failed to log out: %w", err)
	}
	if resp.IsError() {
		return &StatusError{Path: c.config.LogoutPath, Code: resp.StatusCode()}
	}
	return nil
}

func (c *sessionClient) UpdateCart(ctx context.Context, items domain.CartItems) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]any{"cartItems": items}).
		Put(c.config.CartPath)
	if err != nil {
		return fmt.Errorf("failed to update remote cart: %w", err)
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.IsError() {
		return &StatusError{Path: c.config.CartPath, Code: resp.StatusCode()}
	}

	log.Debugf("Mirrored cart with %d entries to backend", len(items))
	return nil
}

func decodeUser(body []byte) (*domain.User, error) {
	var envelope userEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	if envelope.User == nil {
		return nil, errors.New("response has no user")
	}
	return envelope.User, nil
}
