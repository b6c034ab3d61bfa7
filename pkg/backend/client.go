package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/benmeehan/device-autosetup/internal/constants"
	"github.com/benmeehan/device-autosetup/internal/models"
)

// maxLoggedBody limits how much of an error response is kept for logging.
const maxLoggedBody = 512

// ClientInterface defines the two backend operations used during setup.
// Implementations make a single attempt per call.
type ClientInterface interface {
	Register(ctx context.Context, seed string, profile models.DeviceProfile) (*models.RegisterResponse, error)
	RequestConfig(ctx context.Context, credential string, profile models.DeviceProfile) (json.RawMessage, error)
}

// Client talks to the setup backend over HTTP with JSON bodies.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a Client. A zero timeout leaves requests bounded only by ctx.
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Register submits the seed and device description and returns the issued credential.
func (c *Client) Register(ctx context.Context, seed string, profile models.DeviceProfile) (*models.RegisterResponse, error) {
	body := models.RegisterRequest{
		EncryptedSeed: seed,
		DeviceInfo:    models.NewDeviceInfo(profile),
	}

	c.logger.Info().Str("model", profile.Model).Str("os_version", profile.OSVersion).Msg("Sending seed to backend")

	data, err := c.post(ctx, constants.RegisterPath, body, "")
	if err != nil {
		return nil, err
	}

	var response models.RegisterResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if response.JWT == "" {
		return nil, fmt.Errorf("%w: no jwt in registration response", ErrMalformedResponse)
	}

	c.logger.Info().Bool("has_config", len(response.Config) > 0).Msg("Received successful registration response")
	return &response, nil
}

// RequestConfig fetches the device configuration using credential as a bearer token.
// The returned object is not interpreted.
func (c *Client) RequestConfig(ctx context.Context, credential string, profile models.DeviceProfile) (json.RawMessage, error) {
	data, err := c.post(ctx, constants.RequestConfigPath, models.ConfigRequest(models.NewDeviceInfo(profile)), credential)
	if err != nil {
		return nil, err
	}

	var object map[string]json.RawMessage
	if err := json.Unmarshal(data, &object); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if object == nil {
		return nil, fmt.Errorf("%w: configuration is not a JSON object", ErrMalformedResponse)
	}

	c.logger.Info().Int("fields", len(object)).Msg("Received device configuration")
	return json.RawMessage(data), nil
}

// endpoint resolves path against the base URL.
func (c *Client) endpoint(path string) (string, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, c.baseURL)
	}
	return base.JoinPath(path).String(), nil
}

// post sends body as JSON and returns the response body of a 200 response.
func (c *Client) post(ctx context.Context, path string, body any, bearer string) ([]byte, error) {
	endpoint, err := c.endpoint(path)
	if err != nil {
		c.logger.Error().Err(err).Msg("Invalid URL for backend")
		return nil, err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("Error sending request to backend")
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, constants.MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", ErrTransport, err)
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(data), maxLoggedBody)}
		c.logger.Warn().
			Int("status_code", resp.StatusCode).
			Str("endpoint", endpoint).
			Str("response", statusErr.Body).
			Msg("Server returned an error")
		return nil, statusErr
	}

	return data, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
