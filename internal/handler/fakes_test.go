package handler

import (
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/fileflow/fileflow-api/internal/dto"
	"github.com/fileflow/fileflow-api/internal/models"
	"github.com/fileflow/fileflow-api/internal/navigation"
	"github.com/fileflow/fileflow-api/internal/utils"
)

// authAs binds the locals the JWT middleware would set for the given user.
func authAs(user models.User) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", user.ID)
		c.Locals("username", user.Username)
		c.Locals("user_role", user.Role)
		c.Locals("team", user.Team)
		return c.Next()
	}
}

func decodeEnvelope(t *testing.T, resp *http.Response) utils.APIResponse {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope utils.APIResponse
	require.NoError(t, json.Unmarshal(body, &envelope))
	return envelope
}

// stubSubmissionService answers every call with fixed values.
type stubSubmissionService struct {
	submission dto.SubmissionResponse
	err        error
	withdrawn  []uint
}

func (s *stubSubmissionService) List(ctx context.Context, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []dto.SubmissionResponse{s.submission}, nil
}

func (s *stubSubmissionService) Get(ctx context.Context, id uint) (dto.SubmissionResponse, error) {
	return s.submission, s.err
}

func (s *stubSubmissionService) Upload(ctx context.Context, owner models.User, file *multipart.FileHeader) (dto.SubmissionResponse, error) {
	return s.submission, s.err
}

func (s *stubSubmissionService) SubmitForReview(ctx context.Context, id uint, owner models.User) (dto.SubmissionResponse, error) {
	return s.submission, s.err
}

func (s *stubSubmissionService) Resubmit(ctx context.Context, id uint, owner models.User, file *multipart.FileHeader) (dto.SubmissionResponse, error) {
	return s.submission, s.err
}

func (s *stubSubmissionService) Withdraw(ctx context.Context, id uint, owner models.User) error {
	if s.err != nil {
		return s.err
	}
	s.withdrawn = append(s.withdrawn, id)
	return nil
}

// stubReviewService records the decision payloads it receives.
type stubReviewService struct {
	submission dto.SubmissionResponse
	err        error
	decisions  []dto.ReviewRequest
	reviewers  []models.User
}

func (s *stubReviewService) TeamLeaderReview(ctx context.Context, id uint, reviewer models.User, payload dto.ReviewRequest) (dto.SubmissionResponse, error) {
	return s.record(reviewer, payload)
}

func (s *stubReviewService) AdminReview(ctx context.Context, id uint, reviewer models.User, payload dto.ReviewRequest) (dto.SubmissionResponse, error) {
	return s.record(reviewer, payload)
}

func (s *stubReviewService) record(reviewer models.User, payload dto.ReviewRequest) (dto.SubmissionResponse, error) {
	if s.err != nil {
		return dto.SubmissionResponse{}, s.err
	}
	s.decisions = append(s.decisions, payload)
	s.reviewers = append(s.reviewers, reviewer)
	return s.submission, nil
}

// stubNotificationService answers the consumption surface with fixed values.
type stubNotificationService struct {
	notifications []dto.NotificationResponse
	notification  dto.NotificationResponse
	resolution    navigation.Resolution
	unread        int64
	updated       int64
	deleted       int64
	err           error
	markedRead    []uint
	deletedIDs    []uint
}

func (s *stubNotificationService) Deliver(ctx context.Context, notification *models.Notification) error {
	return s.err
}

func (s *stubNotificationService) List(ctx context.Context, userID uint, limit, offset int) ([]dto.NotificationResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.notifications, nil
}

func (s *stubNotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.unread, s.err
}

func (s *stubNotificationService) MarkRead(ctx context.Context, id, userID uint) (dto.NotificationResponse, error) {
	if s.err != nil {
		return dto.NotificationResponse{}, s.err
	}
	s.markedRead = append(s.markedRead, id)
	return s.notification, nil
}

func (s *stubNotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return s.updated, s.err
}

func (s *stubNotificationService) Delete(ctx context.Context, id, userID uint) error {
	if s.err != nil {
		return s.err
	}
	s.deletedIDs = append(s.deletedIDs, id)
	return nil
}

func (s *stubNotificationService) DeleteRead(ctx context.Context, userID uint) (int64, error) {
	return s.deleted, s.err
}

func (s *stubNotificationService) Navigation(ctx context.Context, id, userID uint, role string) (navigation.Resolution, error) {
	if s.err != nil {
		return navigation.Resolution{}, s.err
	}
	return s.resolution, nil
}

func (s *stubNotificationService) Subscribe(userID uint) (<-chan dto.NotificationResponse, func()) {
	stream := make(chan dto.NotificationResponse)
	close(stream)
	return stream, func() {}
}

func (s *stubNotificationService) Start(ctx context.Context) {}
