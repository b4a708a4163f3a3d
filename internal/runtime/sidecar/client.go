// Package sidecar implements the model runtime against an out-of-process
// inference server. The sidecar hosts the actual multimodal model on the
// GPU and exposes load/unload/infer over HTTP; this client owns nothing but
// the wire protocol.
package sidecar

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/Hardik-Sankhla/VoiceInvoice/internal/config"
	"github.com/Hardik-Sankhla/VoiceInvoice/pkg/models"
)

// Sentinel errors for sidecar failures.
var (
	ErrUnreachable = errors.New("inference sidecar unreachable")
	ErrTimeout     = errors.New("inference sidecar timeout")
	ErrRejected    = errors.New("inference sidecar rejected request")
)

// Client drives the inference sidecar over HTTP.
type Client struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewClient creates a sidecar client from config.
func NewClient(cfg config.SidecarConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *Client) Name() string { return "sidecar" }

// Load asks the sidecar to pull the model onto the device. Blocks until the
// warm-up completes or ctx expires.
func (c *Client) Load(ctx context.Context) error {
	body, _ := json.Marshal(map[string]string{"model": c.model})
	return c.post(ctx, "/v1/model/load", body, nil)
}

// Unload asks the sidecar to drop the model and free device memory.
func (c *Client) Unload(ctx context.Context) error {
	return c.post(ctx, "/v1/model/unload", nil, nil)
}

// Infer sends one audio clip plus the instruction prompt and returns the raw
// generated text.
func (c *Client) Infer(ctx context.Context, clip models.AudioClip, prompt string) (string, error) {
	body, err := json.Marshal(inferRequest{
		Model:  c.model,
		Prompt: prompt,
		Audio:  base64.StdEncoding.EncodeToString(clip.Data),
		MIME:   clip.MIME,
	})
	if err != nil {
		return "", fmt.Errorf("encoding infer request: %w", err)
	}

	var resp inferResponse
	if err := c.post(ctx, "/v1/infer", body, &resp); err != nil {
		return "", err
	}
	return resp.Text, nil
}

type inferRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Audio  string `json:"audio_b64"`
	MIME   string `json:"mime"`
}

type inferResponse struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *Client) post(ctx context.Context, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error == "" {
			errResp.Error = fmt.Sprintf("status %d", resp.StatusCode)
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("%w: %s", ErrUnreachable, errResp.Error)
		}
		return fmt.Errorf("%w: %s", ErrRejected, errResp.Error)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding sidecar response: %w", err)
		}
	}
	return nil
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}
