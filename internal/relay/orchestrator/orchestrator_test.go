package orchestrator

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"visitor-relay/internal/common/config"
	"visitor-relay/internal/common/dedup"
	"visitor-relay/internal/common/errors"
	"visitor-relay/internal/common/logger"
	"visitor-relay/internal/models"
	"visitor-relay/internal/relay/archive"
	"visitor-relay/internal/relay/compose"
	"visitor-relay/internal/relay/normalize"
	"visitor-relay/internal/relay/registry"
)

const testSecret = "shared-secret"

// ==========================
// Mocks
// ==========================

type MockArchiver struct {
	mock.Mock
}

func (m *MockArchiver) Archive(ctx context.Context, sourceURL, key string) archive.Result {
	args := m.Called(ctx, sourceURL, key)
	return args.Get(0).(archive.Result)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, ann models.Announcement) (*models.PublishResult, error) {
	args := m.Called(ctx, ann)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PublishResult), args.Error(1)
}

func (m *MockPublisher) NotifyChat(ctx context.Context, message string) {
	m.Called(ctx, message)
}

// ==========================
// Helpers
// ==========================

func sign(token, timestamp string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(timestamp + token))
	return hex.EncodeToString(mac.Sum(nil))
}

func validEntry() string {
	return `{
		"id": "evt-1",
		"your_full_name": "James Bond",
		"signed_in_time_utc": "2021-03-14 09:00:00",
		"photo_url": "https://provider.example/photos/evt-1.jpg"
	}`
}

func signedInput(locationCode, status, entry string) Input {
	token := "tok-123"
	timestamp := "1615712400"
	return Input{
		LocationCode: locationCode,
		Notification: models.InboundNotification{
			EntryPayload: entry,
			Status:       status,
			Timestamp:    timestamp,
			Token:        token,
			Signature:    sign(token, timestamp),
		},
	}
}

func newService(t *testing.T, archiver Archiver, publisher Publisher, suppressor *dedup.Suppressor) *Service {
	t.Helper()

	reg, err := registry.New(map[string]config.LocationConfig{
		"nyc": {DisplayName: "New York", Timezone: "America/New_York"},
	})
	require.NoError(t, err)

	normalizer, err := normalize.NewService(logger.NewNoOpLogger())
	require.NoError(t, err)

	composer := compose.New(config.TemplateConfig{
		Title:      "{visitor_name} signed in at {location} on {date}",
		Chat:       "{visitor_name}: {link}",
		DateLayout: "Jan 2 3:04 PM",
	})

	return NewService(testSecret, reg, normalizer, archiver, composer, publisher, suppressor, logger.NewNoOpLogger())
}

// ==========================
// Pipeline tests
// ==========================

func TestExecute_HappyPath(t *testing.T) {
	archiver := new(MockArchiver)
	archiver.On("Archive", mock.Anything, "https://provider.example/photos/evt-1.jpg", "nyc/evt-1.jpg").
		Return(archive.Result{URL: "https://s3.amazonaws.com/photos/nyc/evt-1.jpg"})

	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(ann models.Announcement) bool {
		return ann.TargetURL != nil &&
			*ann.TargetURL == "https://s3.amazonaws.com/photos/nyc/evt-1.jpg" &&
			ann.BodyText == nil
	})).Return(&models.PublishResult{CanonicalLink: "https://redd.it/abc123"}, nil)
	publisher.On("NotifyChat", mock.Anything, "James Bond: https://redd.it/abc123").Return()

	svc := newService(t, archiver, publisher, nil)

	result := svc.Execute(context.Background(), signedInput("nyc", "sign_in", validEntry()))

	assert.Equal(t, StateDone, result.State)
	assert.Equal(t, "https://redd.it/abc123", result.Link)
	assert.Nil(t, result.Err)
	archiver.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestExecute_TitleReflectsLocalTime(t *testing.T) {
	archiver := new(MockArchiver)
	archiver.On("Archive", mock.Anything, mock.Anything, mock.Anything).
		Return(archive.Result{URL: "https://cdn.example/x.jpg"})

	var captured models.Announcement
	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(models.Announcement)
		}).
		Return(&models.PublishResult{CanonicalLink: "https://redd.it/x"}, nil)
	publisher.On("NotifyChat", mock.Anything, mock.Anything).Return()

	svc := newService(t, archiver, publisher, nil)
	result := svc.Execute(context.Background(), signedInput("nyc", "sign_in", validEntry()))

	require.Equal(t, StateDone, result.State)
	// 2021-03-14 09:00 UTC is 05:00 EDT across the DST boundary.
	assert.Equal(t, "James Bond signed in at New York on Mar 14 5:00 AM", captured.Title)
}

func TestExecute_IgnoredStatus(t *testing.T) {
	archiver := new(MockArchiver)
	publisher := new(MockPublisher)
	svc := newService(t, archiver, publisher, nil)

	result := svc.Execute(context.Background(), signedInput("nyc", "sign_out", validEntry()))

	assert.Equal(t, StateIgnored, result.State)
	assert.Empty(t, result.Link)
	assert.Nil(t, result.Err)
	archiver.AssertNotCalled(t, "Archive", mock.Anything, mock.Anything, mock.Anything)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestExecute_RejectedSignature(t *testing.T) {
	svc := newService(t, new(MockArchiver), new(MockPublisher), nil)

	in := signedInput("nyc", "sign_in", validEntry())
	in.Notification.Signature = "deadbeef"

	result := svc.Execute(context.Background(), in)

	assert.Equal(t, StateRejected, result.State)
	require.NotNil(t, result.Err)
	assert.Equal(t, errors.ErrCodeSignatureInvalid, result.Err.Code)
}

func TestExecute_UnknownLocationBeforeVerification(t *testing.T) {
	svc := newService(t, new(MockArchiver), new(MockPublisher), nil)

	// No valid signature is supplied; the unknown code must still reject
	// without reaching the secret comparison.
	in := signedInput("atlantis", "sign_in", validEntry())
	in.Notification.Signature = ""

	result := svc.Execute(context.Background(), in)

	assert.Equal(t, StateRejected, result.State)
	require.NotNil(t, result.Err)
	assert.Equal(t, errors.ErrCodeUnknownLocation, result.Err.Code)
}

func TestExecute_MalformedEntry(t *testing.T) {
	archiver := new(MockArchiver)
	publisher := new(MockPublisher)
	svc := newService(t, archiver, publisher, nil)

	result := svc.Execute(context.Background(), signedInput("nyc", "sign_in", `{"id": "x"}`))

	assert.Equal(t, StateFailed, result.State)
	require.NotNil(t, result.Err)
	assert.Equal(t, errors.ErrCodeEntryMalformed, result.Err.Code)
	archiver.AssertNotCalled(t, "Archive", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecute_DegradedPhotoStillPublishes(t *testing.T) {
	archiver := new(MockArchiver)
	archiver.On("Archive", mock.Anything, mock.Anything, mock.Anything).
		Return(archive.Result{URL: "https://cdn.example/default.jpg", Degraded: true})

	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(ann models.Announcement) bool {
		return ann.TargetURL != nil && *ann.TargetURL == "https://cdn.example/default.jpg"
	})).Return(&models.PublishResult{CanonicalLink: "https://redd.it/abc123"}, nil)
	publisher.On("NotifyChat", mock.Anything, mock.Anything).Return()

	svc := newService(t, archiver, publisher, nil)
	result := svc.Execute(context.Background(), signedInput("nyc", "sign_in", validEntry()))

	assert.Equal(t, StateDone, result.State)
	publisher.AssertExpectations(t)
}

func TestExecute_PublishFailure(t *testing.T) {
	archiver := new(MockArchiver)
	archiver.On("Archive", mock.Anything, mock.Anything, mock.Anything).
		Return(archive.Result{URL: "https://cdn.example/x.jpg"})

	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything).
		Return(nil, errors.NewBoardSubmitFailedError(assert.AnError))

	svc := newService(t, archiver, publisher, nil)
	result := svc.Execute(context.Background(), signedInput("nyc", "sign_in", validEntry()))

	assert.Equal(t, StateFailed, result.State)
	require.NotNil(t, result.Err)
	assert.Equal(t, errors.ErrCodeBoardSubmitFailed, result.Err.Code)
	publisher.AssertNotCalled(t, "NotifyChat", mock.Anything, mock.Anything)
}

func TestExecute_DuplicateDeliveryAnsweredFromCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	suppressor := dedup.NewFromClient(client, time.Hour, logger.NewNoOpLogger())

	archiver := new(MockArchiver)
	archiver.On("Archive", mock.Anything, mock.Anything, mock.Anything).
		Return(archive.Result{URL: "https://cdn.example/x.jpg"})

	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything).
		Return(&models.PublishResult{CanonicalLink: "https://redd.it/abc123"}, nil).Once()
	publisher.On("NotifyChat", mock.Anything, mock.Anything).Return().Once()

	svc := newService(t, archiver, publisher, suppressor)
	in := signedInput("nyc", "sign_in", validEntry())

	first := svc.Execute(context.Background(), in)
	require.Equal(t, StateDone, first.State)

	second := svc.Execute(context.Background(), in)
	assert.Equal(t, StateDone, second.State)
	assert.Equal(t, first.Link, second.Link)

	// The board was only hit once.
	publisher.AssertNumberOfCalls(t, "Publish", 1)
}
