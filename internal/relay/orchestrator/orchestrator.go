// Package orchestrator sequences the relay pipeline for one webhook
// delivery: verify -> normalize -> archive -> compose -> publish.
package orchestrator

import (
	"context"
	"time"

	"visitor-relay/internal/common/dedup"
	"visitor-relay/internal/common/errors"
	"visitor-relay/internal/common/logger"
	"visitor-relay/internal/common/metrics"
	"visitor-relay/internal/models"
	"visitor-relay/internal/relay/archive"
	"visitor-relay/internal/relay/compose"
	"visitor-relay/internal/relay/normalize"
	"visitor-relay/internal/relay/registry"
	"visitor-relay/internal/relay/signature"
)

// statusSignIn is the only provider status the relay acts on.
const statusSignIn = "sign_in"

// Archiver copies the visitor photo to object storage, degrading instead
// of failing.
type Archiver interface {
	Archive(ctx context.Context, sourceURL, key string) archive.Result
}

// Publisher submits the announcement and fans out the chat notification.
type Publisher interface {
	Publish(ctx context.Context, ann models.Announcement) (*models.PublishResult, error)
	NotifyChat(ctx context.Context, message string)
}

type Service struct {
	sharedSecret string
	registry     *registry.Registry
	normalizer   *normalize.Service
	archiver     Archiver
	composer     *compose.Composer
	publisher    Publisher
	suppressor   *dedup.Suppressor
	logger       logger.Logger
}

func NewService(
	sharedSecret string,
	reg *registry.Registry,
	normalizer *normalize.Service,
	archiver Archiver,
	composer *compose.Composer,
	publisher Publisher,
	suppressor *dedup.Suppressor,
	log logger.Logger,
) *Service {
	return &Service{
		sharedSecret: sharedSecret,
		registry:     reg,
		normalizer:   normalizer,
		archiver:     archiver,
		composer:     composer,
		publisher:    publisher,
		suppressor:   suppressor,
		logger:       log,
	}
}

// Execute runs the pipeline for one delivery and returns its terminal
// state. It never panics on malformed input; every exit is a Result.
func (s *Service) Execute(ctx context.Context, in Input) Result {
	start := time.Now()
	result := s.run(ctx, in)

	metrics.RelayRequests.WithLabelValues(string(result.State)).Inc()
	metrics.RelayDuration.WithLabelValues(string(result.State)).Observe(time.Since(start).Seconds())

	return result
}

func (s *Service) run(ctx context.Context, in Input) Result {
	// Unknown locations are rejected before any secret comparison so an
	// attacker probing codes observes a fixed early exit.
	loc, ok := s.registry.Lookup(in.LocationCode)
	if !ok {
		return Result{State: StateRejected, Err: errors.NewUnknownLocationError(in.LocationCode)}
	}

	n := in.Notification
	if !signature.Verify(n.Token, n.Timestamp, n.Signature, s.sharedSecret) {
		s.logger.Warn("webhook signature failed to verify", map[string]interface{}{
			"location": in.LocationCode,
		})
		return Result{State: StateRejected, Err: errors.NewSignatureInvalidError()}
	}

	if n.Status != statusSignIn {
		s.logger.Debug("ignoring non-sign-in status", map[string]interface{}{
			"status":   n.Status,
			"location": in.LocationCode,
		})
		return Result{State: StateIgnored}
	}

	event, err := s.normalizer.Normalize(n.EntryPayload, loc)
	if err != nil {
		stdErr := errors.Normalize(err)
		s.logger.Error("failed to normalize entry payload", map[string]interface{}{
			"location": in.LocationCode,
			"error":    stdErr.Details,
		})
		return Result{State: StateFailed, Err: stdErr}
	}

	// Redelivery of an already-relayed event answers with the stored link
	// when the cache has one. A cache miss or unavailable cache simply
	// republishes; the board tolerates resubmits.
	eventKey := loc.Code + ":" + event.ProviderID
	first, storedLink := s.suppressor.Claim(ctx, eventKey)
	if !first && storedLink != "" {
		metrics.DuplicateDeliveries.Inc()
		s.logger.Info("duplicate delivery answered from cache", map[string]interface{}{
			"event": eventKey,
			"link":  storedLink,
		})
		return Result{State: StateDone, Link: storedLink}
	}

	archived := s.archiver.Archive(ctx, event.PhotoSourceURL, event.ArchivalKey(loc.ArchivePrefix))

	ann := s.composer.Compose(event, loc, archived.URL)

	published, err := s.publisher.Publish(ctx, ann)
	if err != nil {
		return Result{State: StateFailed, Err: errors.Normalize(err)}
	}

	s.suppressor.StoreLink(ctx, eventKey, published.CanonicalLink)

	s.publisher.NotifyChat(ctx, s.composer.ChatMessage(event, loc, published.CanonicalLink))

	return Result{State: StateDone, Link: published.CanonicalLink}
}
