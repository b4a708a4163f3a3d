package sidecar_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hardik-Sankhla/VoiceInvoice/internal/config"
	"github.com/Hardik-Sankhla/VoiceInvoice/internal/runtime/sidecar"
	"github.com/Hardik-Sankhla/VoiceInvoice/pkg/models"
)

func newTestClient(url string) *sidecar.Client {
	return sidecar.NewClient(config.SidecarConfig{
		BaseURL: url,
		Model:   "Qwen/Qwen2-Audio-7B-Instruct",
		Timeout: 2 * time.Second,
	})
}

func TestLoad_SendsModelName(t *testing.T) {
	var gotPath string
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	require.NoError(t, c.Load(context.Background()))

	assert.Equal(t, "/v1/model/load", gotPath)
	assert.Equal(t, "Qwen/Qwen2-Audio-7B-Instruct", gotBody["model"])
}

func TestUnload(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, newTestClient(srv.URL).Unload(context.Background()))
	assert.Equal(t, "/v1/model/unload", gotPath)
}

func TestInfer_RoundTrip(t *testing.T) {
	clip := models.AudioClip{Data: []byte("RIFF....WAVE"), MIME: "audio/wav"}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/infer", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, base64.StdEncoding.EncodeToString(clip.Data), req["audio_b64"])
		assert.Equal(t, "audio/wav", req["mime"])
		assert.NotEmpty(t, req["prompt"])

		json.NewEncoder(w).Encode(map[string]string{"text": "CUSTOMER: Acme\n"})
	}))
	defer srv.Close()

	text, err := newTestClient(srv.URL).Infer(context.Background(), clip, "extract the invoice")
	require.NoError(t, err)
	assert.Equal(t, "CUSTOMER: Acme\n", text)
}

func TestInfer_ServerErrorIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "model crashed"})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Infer(context.Background(), models.AudioClip{Data: []byte("x")}, "p")
	require.Error(t, err)
	assert.ErrorIs(t, err, sidecar.ErrUnreachable)
	assert.Contains(t, err.Error(), "model crashed")
}

func TestInfer_ClientErrorIsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"error": "unsupported audio codec"})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Infer(context.Background(), models.AudioClip{Data: []byte("x")}, "p")
	require.Error(t, err)
	assert.ErrorIs(t, err, sidecar.ErrRejected)
}

func TestInfer_ContextTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := newTestClient(srv.URL).Infer(ctx, models.AudioClip{Data: []byte("x")}, "p")
	require.Error(t, err)
	assert.ErrorIs(t, err, sidecar.ErrTimeout)
}

func TestInfer_ConnectionRefused(t *testing.T) {
	// Point at a server that is already closed.
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url).Infer(context.Background(), models.AudioClip{Data: []byte("x")}, "p")
	require.Error(t, err)
	assert.ErrorIs(t, err, sidecar.ErrUnreachable)
}

func TestClient_Name(t *testing.T) {
	assert.Equal(t, "sidecar", newTestClient("http://localhost:0").Name())
}
