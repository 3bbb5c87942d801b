package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/logocruncher/logo-cruncher/internal/constants"
	"github.com/logocruncher/logo-cruncher/internal/logging"
)

// retryLogger implements the retryablehttp.LeveledLogger interface on top
// of the component logger.
type retryLogger struct {
	logger *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg(msg)
}

// HTTPExecutor posts commands to a backend service:
//
//	POST {base}/invoke/{command}
//
// with the JSON arguments as body and an Envelope as response.
type HTTPExecutor struct {
	baseURL string
	client  *retryablehttp.Client
	logger  *logging.Logger
}

// NewHTTPExecutor creates an HTTPExecutor for baseURL. A zero timeout leaves
// the caller's context as the only deadline.
func NewHTTPExecutor(baseURL string, timeout time.Duration, logger *logging.Logger) (*HTTPExecutor, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend URL %q: scheme must be http or https", baseURL)
	}

	log := logging.OrNop(logger).Component("http-executor")

	// The backend owns retry policy, so the client makes exactly one attempt
	// and hands non-2xx responses back untouched.
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.HTTPClient.Timeout = timeout
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = &retryLogger{logger: log}

	return &HTTPExecutor{
		baseURL: strings.TrimSuffix(u.String(), "/"),
		client:  retryClient,
		logger:  log,
	}, nil
}

// Invoke implements Executor.
func (h *HTTPExecutor) Invoke(ctx context.Context, command string, args any) (*Response, error) {
	body, err := marshalArgs(args)
	if err != nil {
		return nil, err
	}

	endpoint := h.baseURL + "/invoke/" + url.PathEscape(command)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, constants.MaxEnvelopeBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	env, decodeErr := DecodeEnvelope(bytes.NewReader(data))
	if decodeErr == nil && env.Error != "" {
		return nil, errors.New(env.Error)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if msg := strings.TrimSpace(string(data)); msg != "" && decodeErr != nil {
			return nil, fmt.Errorf("%s: %s", resp.Status, msg)
		}
		return nil, errors.New(resp.Status)
	}

	if decodeErr != nil {
		return nil, decodeErr
	}
	return env.Response()
}

// CloseIdleConnections releases pooled connections.
func (h *HTTPExecutor) CloseIdleConnections() {
	h.client.HTTPClient.CloseIdleConnections()
}
