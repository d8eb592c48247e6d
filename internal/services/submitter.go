package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"recruitai/interview-orchestrator/internal/config"
)

// SubmitterService delivers finished submission payloads to the recruiting
// backend. With no endpoint configured, delivery is a no-op and records are
// only kept locally.
type SubmitterService interface {
	Deliver(ctx context.Context, payloadJSON string) error
}

type submitterService struct {
	cfg        config.SubmissionConfig
	client     *http.Client
	maxRetries int
	log        *logrus.Entry
}

func NewSubmitterService(cfg config.SubmissionConfig, maxRetries int, log *logrus.Entry) SubmitterService {
	return &submitterService{
		cfg:        cfg,
		client:     &http.Client{Timeout: 30 * time.Second},
		maxRetries: maxRetries,
		log:        log,
	}
}

// Deliver implements SubmitterService.
func (s *submitterService) Deliver(ctx context.Context, payloadJSON string) error {
	if s.cfg.Endpoint == "" {
		s.log.Debug("no submission endpoint configured, keeping record local only")
		return nil
	}

	operation := func() error {
		return s.post(ctx, payloadJSON)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(s.maxRetries)),
		ctx,
	)

	if err := backoff.Retry(operation, policy); err != nil {
		return fmt.Errorf("submission delivery failed: %w", err)
	}

	return nil
}

func (s *submitterService) post(ctx context.Context, payloadJSON string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewBufferString(payloadJSON))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	err = fmt.Errorf("backend returned %d: %s", resp.StatusCode, string(body))

	// Client errors won't heal on retry
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return backoff.Permanent(err)
	}
	return err
}
