// Package faceapi implements the face embedding contract against the
// face recognition service.
package faceapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/reunite-labs/reunite/internal/domain"
	"github.com/reunite-labs/reunite/internal/metrics"
)

// Embedder computes face embeddings by uploading photos to the face API.
type Embedder struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// Config holds the face API settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *zap.Logger
}

// New creates a face API client.
func New(cfg *Config) *Embedder {
	return &Embedder{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  cfg.Logger,
	}
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
	Error     string    `json:"error"`
}

// EmbedFace implements domain.FaceEmbedder. A 422 from the API means the
// model found no face in the image and maps to ErrNoFaceDetected; every
// other failure maps to ErrEmbeddingProvider.
func (e *Embedder) EmbedFace(ctx context.Context, image []byte, filename string) ([]float32, error) {
	body, contentType, err := buildMultipart(image, filename)
	if err != nil {
		return nil, fmt.Errorf("build multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embed", body)
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	start := time.Now()
	resp, err := e.client.Do(req)
	duration := time.Since(start)

	if err != nil {
		metrics.FaceRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: face API request: %w", domain.ErrEmbeddingProvider, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnprocessableEntity:
		metrics.FaceRequestsTotal.WithLabelValues("no_face").Inc()
		return nil, fmt.Errorf("%w: %s", domain.ErrNoFaceDetected, filename)
	case resp.StatusCode != http.StatusOK:
		metrics.FaceRequestsTotal.WithLabelValues("error").Inc()
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: face API status %d: %s",
			domain.ErrEmbeddingProvider, resp.StatusCode, string(detail))
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		metrics.FaceRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: decode face API response: %w", domain.ErrEmbeddingProvider, err)
	}
	if len(parsed.Embedding) == 0 {
		metrics.FaceRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: empty embedding in response", domain.ErrEmbeddingProvider)
	}

	metrics.FaceRequestsTotal.WithLabelValues("success").Inc()
	metrics.FaceRequestDuration.WithLabelValues("success").Observe(duration.Seconds())

	return parsed.Embedding, nil
}

// HealthCheck verifies face API availability.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/health", http.NoBody)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("face API health: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("face API status %d", resp.StatusCode)
	}
	return nil
}

func buildMultipart(image []byte, filename string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("image", filename)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", fmt.Errorf("write image part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}
