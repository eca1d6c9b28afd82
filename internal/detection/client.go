package detection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"asd-screening-service/internal/domain"
)

// ErrUnreachable wraps transport failures talking to the detection service.
var ErrUnreachable = errors.New("detection service unreachable")

// ServiceError is a well-formed HTTP exchange the service did not accept:
// a non-2xx status or a body that is not JSON.
type ServiceError struct {
	Path    string
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("detection %s: status %d: %s", e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("detection %s: status %d", e.Path, e.Status)
}

// Config describes where the detection service lives.
type Config struct {
	BaseURL string
	// StartPath and StopPath are fmt templates taking the activity kind.
	StartPath string
	StopPath  string
	Timeout   time.Duration
}

const (
	DefaultBaseURL   = "http://127.0.0.1:5003"
	DefaultStartPath = "/start-%s"
	DefaultStopPath  = "/stop-%s"
)

// Client issues start/stop requests. It keeps no per-session state.
type Client struct {
	baseURL   string
	startPath string
	stopPath  string
	http      *http.Client
}

// Response is the JSON body the service answers with.
type Response struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.StartPath == "" {
		cfg.StartPath = DefaultStartPath
	}
	if cfg.StopPath == "" {
		cfg.StopPath = DefaultStopPath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		startPath: cfg.StartPath,
		stopPath:  cfg.StopPath,
		http:      &http.Client{Timeout: cfg.Timeout},
	}
}

// Start asks the service to begin detection for kind.
func (c *Client) Start(ctx context.Context, kind domain.ActivityKind) (Response, error) {
	return c.post(ctx, fmt.Sprintf(c.startPath, kind))
}

// Stop asks the service to end detection for kind.
func (c *Client) Stop(ctx context.Context, kind domain.ActivityKind) (Response, error) {
	return c.post(ctx, fmt.Sprintf(c.stopPath, kind))
}

// Health probes GET /health.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ServiceError{Path: "/health", Status: resp.StatusCode}
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Response{}, ctxErr
		}
		return Response{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	var body Response
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return body, &ServiceError{Path: path, Status: resp.StatusCode, Message: body.Error}
	}
	if decodeErr != nil {
		// Message stays empty: it only ever carries text sent by the service.
		return Response{}, &ServiceError{Path: path, Status: resp.StatusCode}
	}
	return body, nil
}
