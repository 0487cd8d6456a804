// Package archive copies the visitor's photo from the provider into
// durable object storage. Failure here never fails the relay.
package archive

import (
	"context"
	"io"
	"net/http"
	"time"

	"visitor-relay/internal/common/config"
	httpclient "visitor-relay/internal/common/http"
	"visitor-relay/internal/common/logger"
	"visitor-relay/internal/common/metrics"
)

const photoContentType = "image/jpeg"

// ObjectStore is the narrow storage surface the archiver writes through.
type ObjectStore interface {
	PutPublicObject(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

// Result is the outcome of an archive attempt. Degraded is an expected
// branch, not an error: the URL then carries the configured fallback, or is
// empty under the text_post policy.
type Result struct {
	URL      string
	Degraded bool
}

type Service struct {
	store        ObjectStore
	fetcher      *httpclient.Client
	cfg          config.PhotoConfig
	storeTimeout time.Duration
	logger       logger.Logger
}

func NewService(store ObjectStore, photoCfg config.PhotoConfig, storeTimeout time.Duration, log logger.Logger) *Service {
	return &Service{
		store:        store,
		fetcher:      httpclient.NewClient(config.GetDuration(photoCfg.FetchTimeout)),
		cfg:          photoCfg,
		storeTimeout: storeTimeout,
		logger:       log,
	}
}

// Archive fetches the source photo and stores it under key. An absent
// source URL degrades immediately without a network call. Any fetch or
// storage failure is logged and degrades to the configured policy.
func (s *Service) Archive(ctx context.Context, sourceURL, key string) Result {
	if sourceURL == "" {
		return s.degrade("no photo url in entry", nil)
	}

	resp, err := s.fetcher.Get(ctx, sourceURL)
	if err != nil {
		return s.degrade("photo fetch failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return s.degrade("photo source returned non-200", nil, map[string]interface{}{
			"status": resp.StatusCode,
		})
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	publicURL, err := s.store.PutPublicObject(storeCtx, key, photoContentType, resp.Body)
	if err != nil {
		return s.degrade("photo storage write failed", err)
	}

	s.logger.Debug("archived visitor photo", map[string]interface{}{
		"key": key,
		"url": publicURL,
	})

	return Result{URL: publicURL}
}

func (s *Service) degrade(reason string, err error, extra ...map[string]interface{}) Result {
	fields := map[string]interface{}{"policy": s.cfg.OnFailure}
	if err != nil {
		fields["error"] = err.Error()
	}
	for _, m := range extra {
		for k, v := range m {
			fields[k] = v
		}
	}
	s.logger.Warn(reason, fields)
	metrics.PhotoDegraded.Inc()

	if s.cfg.OnFailure == config.PhotoFailureTextPost {
		return Result{Degraded: true}
	}
	return Result{URL: s.cfg.DefaultURL, Degraded: true}
}
