package publish

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"visitor-relay/internal/common/config"
	"visitor-relay/internal/common/errors"
	"visitor-relay/internal/common/logger"
	"visitor-relay/internal/common/reddit"
	"visitor-relay/internal/models"
)

type MockBoard struct {
	mock.Mock
}

func (m *MockBoard) Submit(ctx context.Context, sub reddit.SubmitRequest) (*reddit.SubmitResult, error) {
	args := m.Called(ctx, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reddit.SubmitResult), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, message string) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func linkAnnouncement() models.Announcement {
	url := "https://s3.amazonaws.com/photos/nyc/evt-1.jpg"
	return models.Announcement{
		Title:     "James Bond signed in at New York",
		TargetURL: &url,
	}
}

func chatConfig() config.ChatConfig {
	return config.ChatConfig{WebhookURL: "https://hooks.example/x", Timeout: 1000}
}

func TestPublish_DirectLinkShape(t *testing.T) {
	board := new(MockBoard)
	board.On("Submit", mock.Anything, mock.MatchedBy(func(sub reddit.SubmitRequest) bool {
		return sub.Resubmit && sub.URL != "" && sub.Board == "officevisitors"
	})).Return(&reddit.SubmitResult{DirectLink: "https://board.example/posts/42"}, nil)

	svc := NewService(board, "officevisitors", nil, chatConfig(), logger.NewNoOpLogger())

	result, err := svc.Publish(context.Background(), linkAnnouncement())
	require.NoError(t, err)
	assert.Equal(t, "https://board.example/posts/42", result.CanonicalLink)
	board.AssertExpectations(t)
}

func TestPublish_PostHandleShape(t *testing.T) {
	board := new(MockBoard)
	board.On("Submit", mock.Anything, mock.Anything).
		Return(&reddit.SubmitResult{PostID: "abc123"}, nil)

	svc := NewService(board, "officevisitors", nil, chatConfig(), logger.NewNoOpLogger())

	result, err := svc.Publish(context.Background(), linkAnnouncement())
	require.NoError(t, err)
	assert.Equal(t, "https://redd.it/abc123", result.CanonicalLink)
}

func TestPublish_SelfPostCarriesText(t *testing.T) {
	empty := ""
	ann := models.Announcement{Title: "Visitor", BodyText: &empty}

	board := new(MockBoard)
	board.On("Submit", mock.Anything, mock.MatchedBy(func(sub reddit.SubmitRequest) bool {
		return sub.URL == "" && sub.Text != nil && *sub.Text == ""
	})).Return(&reddit.SubmitResult{PostID: "xyz"}, nil)

	svc := NewService(board, "officevisitors", nil, chatConfig(), logger.NewNoOpLogger())

	_, err := svc.Publish(context.Background(), ann)
	require.NoError(t, err)
	board.AssertExpectations(t)
}

func TestPublish_BoardFailure(t *testing.T) {
	board := new(MockBoard)
	board.On("Submit", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	svc := NewService(board, "officevisitors", nil, chatConfig(), logger.NewNoOpLogger())

	_, err := svc.Publish(context.Background(), linkAnnouncement())
	require.Error(t, err)

	stdErr := errors.Normalize(err)
	assert.Equal(t, errors.ErrCodeBoardSubmitFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestNotifyChat_FailureIsSwallowed(t *testing.T) {
	notifier := new(MockNotifier)
	notifier.On("Notify", mock.Anything, "a message").Return(assert.AnError)

	svc := NewService(new(MockBoard), "officevisitors", notifier, chatConfig(), logger.NewNoOpLogger())

	// Must not panic or surface the error.
	svc.NotifyChat(context.Background(), "a message")
	notifier.AssertExpectations(t)
}

func TestNotifyChat_NoNotifierConfigured(t *testing.T) {
	svc := NewService(new(MockBoard), "officevisitors", nil, config.ChatConfig{}, logger.NewNoOpLogger())
	svc.NotifyChat(context.Background(), "a message")
}
