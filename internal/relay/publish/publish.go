// Package publish submits announcements to the community board and fans
// out the optional chat notification.
package publish

import (
	"context"

	"visitor-relay/internal/common/config"
	"visitor-relay/internal/common/errors"
	"visitor-relay/internal/common/logger"
	"visitor-relay/internal/common/metrics"
	"visitor-relay/internal/common/reddit"
	"visitor-relay/internal/models"
)

// Board is the narrow community-board surface the publisher submits
// through.
type Board interface {
	Submit(ctx context.Context, sub reddit.SubmitRequest) (*reddit.SubmitResult, error)
}

type Service struct {
	board     Board
	boardName string
	notifier  Notifier
	chatCfg   config.ChatConfig
	logger    logger.Logger
}

func NewService(board Board, boardName string, notifier Notifier, chatCfg config.ChatConfig, log logger.Logger) *Service {
	return &Service{
		board:     board,
		boardName: boardName,
		notifier:  notifier,
		chatCfg:   chatCfg,
		logger:    log,
	}
}

// Publish submits the announcement and normalizes whichever response shape
// the board returned into a single canonical link. Resubmit mode is always
// on: a webhook redelivery creates a new post rather than erroring.
func (s *Service) Publish(ctx context.Context, ann models.Announcement) (*models.PublishResult, error) {
	sub := reddit.SubmitRequest{
		Board:    s.boardName,
		Title:    ann.Title,
		Text:     ann.BodyText,
		Resubmit: true,
	}
	if ann.TargetURL != nil {
		sub.URL = *ann.TargetURL
	}

	result, err := s.board.Submit(ctx, sub)
	if err != nil {
		return nil, errors.NewBoardSubmitFailedError(err)
	}

	link := result.CanonicalLink()
	s.logger.Info("published announcement", map[string]interface{}{
		"link":  link,
		"board": s.boardName,
	})

	return &models.PublishResult{CanonicalLink: link}, nil
}

// NotifyChat sends the formatted chat message when a notifier is
// configured. Failures are logged and counted; they never reach the
// webhook caller.
func (s *Service) NotifyChat(ctx context.Context, message string) {
	if s.notifier == nil {
		return
	}

	notifyCtx, cancel := context.WithTimeout(ctx, config.GetDuration(s.chatCfg.Timeout))
	defer cancel()

	if err := s.notifier.Notify(notifyCtx, message); err != nil {
		metrics.ChatNotifyFailed.Inc()
		s.logger.Warn("chat notification failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
