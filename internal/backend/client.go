package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultCookieName is the session cookie issued by the backend.
const DefaultCookieName = "JSESSIONID"

const maxBodyBytes = 1 << 20

// ErrDecode is returned when a success response does not have the expected shape.
var ErrDecode = errors.New("unexpected response payload")

// SessionStore keeps the backend session cookie between calls.
type SessionStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, value string) error
	Clear(ctx context.Context) error
}

// Client talks to the quiz backend on behalf of one session.
type Client struct {
	baseURL    *url.URL
	http       *http.Client
	cookieName string
	sessions   SessionStore
	log        logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithSessionStore attaches the store the session cookie is read from and written to.
func WithSessionStore(store SessionStore) Option {
	return func(c *Client) { c.sessions = store }
}

// WithCookieName overrides DefaultCookieName.
func WithCookieName(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.cookieName = name
		}
	}
}

// WithLogger sets the logger used for call tracing.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient builds a client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	c := &Client{
		baseURL:    u,
		http:       &http.Client{Timeout: 15 * time.Second},
		cookieName: DefaultCookieName,
		log:        logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// do performs one call and decodes a success body into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	target := *c.baseURL
	target.Path = c.baseURL.Path + path

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.sessions != nil {
		value, err := c.sessions.Load(ctx)
		if err != nil {
			c.log.WithError(err).Warn("load session cookie")
		} else if value != "" {
			req.AddCookie(&http.Cookie{Name: c.cookieName, Value: value})
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}
	c.rememberSession(ctx, resp)

	class := Classify(resp, &target, raw)
	log := c.log.WithFields(logrus.Fields{
		"method": method,
		"path":   path,
		"status": resp.StatusCode,
		"class":  class.String(),
	})
	if class != ClassSuccess {
		apiErr := newError(class, resp, method, path, raw)
		log.Debug("backend call failed")
		return apiErr
	}
	log.Debug("backend call")

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if !isJSON(resp) {
		return fmt.Errorf("%w: %s %s returned %q", ErrDecode, method, path, resp.Header.Get("Content-Type"))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrDecode, method, path, err)
	}
	return nil
}

// rememberSession stores a rotated session cookie or forgets an expired one.
func (c *Client) rememberSession(ctx context.Context, resp *http.Response) {
	if c.sessions == nil {
		return
	}
	for _, cookie := range resp.Cookies() {
		if cookie.Name != c.cookieName {
			continue
		}
		var err error
		if cookie.MaxAge < 0 || cookie.Value == "" {
			err = c.sessions.Clear(ctx)
		} else {
			err = c.sessions.Save(ctx, cookie.Value)
		}
		if err != nil {
			c.log.WithError(err).Warn("persist session cookie")
		}
	}
}

// Classify sorts a response into a Class. requested is the URL the call was
// made to; redirects are detected by comparing it with the final request URL.
func Classify(resp *http.Response, requested *url.URL, body []byte) Class {
	if looksLikeLogin(resp, requested) {
		return ClassAuthRequired
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ClassAuthRequired
	case resp.StatusCode == http.StatusForbidden:
		return ClassForbidden
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return ClassSuccess
	case resp.StatusCode == http.StatusNotFound:
		return ClassNotFound
	}
	if isJSON(resp) {
		var envelope apiErrorBody
		if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Violations) > 0 {
			return ClassValidationFailed
		}
	}
	return ClassServerError
}

func looksLikeLogin(resp *http.Response, requested *url.URL) bool {
	if resp.Request != nil && resp.Request.URL != nil && requested != nil {
		final := resp.Request.URL
		if final.Host == requested.Host && final.Path != requested.Path &&
			(strings.Contains(final.Path, "/login") || strings.Contains(final.Path, "/oauth2/authorization")) {
			return true
		}
	}
	if requested != nil && strings.Contains(requested.Path, "/api/") {
		ct := strings.ToLower(resp.Header.Get("Content-Type"))
		if strings.Contains(ct, "text/html") {
			return true
		}
	}
	return false
}

func isJSON(resp *http.Response) bool {
	return strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "application/json")
}

func newError(class Class, resp *http.Response, method, path string, raw []byte) *Error {
	e := &Error{
		Class:  class,
		Status: resp.StatusCode,
		Method: method,
		Path:   path,
		Body:   strings.TrimSpace(string(raw)),
	}
	switch class {
	case ClassAuthRequired:
		e.Status = http.StatusUnauthorized
		e.Message = "login required"
		e.Body = ""
		return e
	case ClassForbidden:
		e.Message = "forbidden"
		return e
	}
	if isJSON(resp) {
		var envelope apiErrorBody
		if err := json.Unmarshal(raw, &envelope); err == nil {
			e.Message = envelope.Message
			e.Violations = envelope.Violations
		}
	}
	if e.Message == "" {
		e.Message = e.Body
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}
	return e
}
