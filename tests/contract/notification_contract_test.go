package contract_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/fileflow/fileflow-api/internal/dto"
	"github.com/fileflow/fileflow-api/internal/handler"
	"github.com/fileflow/fileflow-api/internal/models"
	"github.com/fileflow/fileflow-api/internal/navigation"
)

type stubNotificationService struct {
	notifications []dto.NotificationResponse
	resolution    navigation.Resolution
}

func (s stubNotificationService) Deliver(context.Context, *models.Notification) error { return nil }

func (s stubNotificationService) List(context.Context, uint, int, int) ([]dto.NotificationResponse, error) {
	return s.notifications, nil
}

func (s stubNotificationService) UnreadCount(context.Context, uint) (int64, error) { return 0, nil }

func (s stubNotificationService) MarkRead(context.Context, uint, uint) (dto.NotificationResponse, error) {
	return dto.NotificationResponse{}, nil
}

func (s stubNotificationService) MarkAllRead(context.Context, uint) (int64, error) { return 0, nil }

func (s stubNotificationService) Delete(context.Context, uint, uint) error { return nil }

func (s stubNotificationService) DeleteRead(context.Context, uint) (int64, error) { return 0, nil }

func (s stubNotificationService) Navigation(context.Context, uint, uint, string) (navigation.Resolution, error) {
	return s.resolution, nil
}

func (s stubNotificationService) Subscribe(uint) (<-chan dto.NotificationResponse, func()) {
	stream := make(chan dto.NotificationResponse)
	close(stream)
	return stream, func() {}
}

func (s stubNotificationService) Start(context.Context) {}

func compileContract(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()

	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", name))
	require.NoError(t, err)

	schema, err := jsonschema.NewCompiler().Compile("file://" + schemaPath)
	require.NoError(t, err)
	return schema
}

func newNotificationApp(svc stubNotificationService) *fiber.App {
	h := handler.NewNotificationHandler(svc, zerolog.Nop(), time.Second)

	app := fiber.New()
	group := app.Group("/api/v1/notifications", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(4))
		c.Locals("user_role", models.RoleUser)
		return c.Next()
	})
	h.Register(group)
	return app
}

func fetchJSON(t *testing.T, app *fiber.App, path string) interface{} {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	return payload
}

func TestNotificationListContract(t *testing.T) {
	schema := compileContract(t, "notification.schema.json")

	now := time.Now().UTC()
	fileID := uint(9)
	assignmentID := uint(3)
	svc := stubNotificationService{
		notifications: []dto.NotificationResponse{
			{
				ID:               1,
				UserID:           4,
				Type:             models.NotificationTypeApproval,
				Title:            "File Approved by Team Leader",
				Message:          "lead approved report.pdf",
				FileID:           &fileID,
				ActionByID:       2,
				ActionByUsername: "lead",
				ActionByRole:     models.RoleTeamLeader,
				CreatedAt:        now,
			},
			{
				ID:               2,
				UserID:           4,
				Type:             models.NotificationTypeComment,
				Title:            "New Comment on Assignment",
				Message:          "lead commented on Quarterly Report",
				AssignmentID:     &assignmentID,
				ActionByID:       2,
				ActionByUsername: "lead",
				ActionByRole:     models.RoleTeamLeader,
				IsRead:           true,
				CreatedAt:        now.Add(-time.Hour),
			},
		},
	}

	payload := fetchJSON(t, newNotificationApp(svc), "/api/v1/notifications")
	require.NoError(t, schema.Validate(payload))
}

func TestNotificationNavigationContract(t *testing.T) {
	schema := compileContract(t, "notification_navigation.schema.json")

	assignmentID := uint(3)
	svc := stubNotificationService{
		resolution: navigation.Resolution{
			TargetTab: "tasks",
			Context: &navigation.Context{
				AssignmentID:       &assignmentID,
				ShouldOpenComments: true,
				ExpandAllReplies:   true,
			},
			NotificationType: "reply",
		},
	}

	payload := fetchJSON(t, newNotificationApp(svc), "/api/v1/notifications/7/navigation")
	require.NoError(t, schema.Validate(payload))
}
