// Package navigation maps notifications to dashboard navigation targets. The
// resolver is a pure function: the same notification and role always produce
// the same resolution, and malformed or legacy rows degrade to a no-op
// target instead of an error.
package navigation

import (
	"strings"

	"github.com/fileflow/fileflow-api/internal/models"
)

// Tabs holds the dashboard tab names for a single role.
type Tabs struct {
	Tasks string
	Files string
	Users string
}

var roleTabs = map[string]Tabs{
	models.RoleAdmin:      {Tasks: "tasks", Files: "file-approval", Users: "users"},
	models.RoleTeamLeader: {Tasks: "assignments", Files: "file-collection"},
	models.RoleUser:       {Tasks: "tasks", Files: "my-files"},
}

// Context carries the state a dashboard needs to restore when the user
// clicks a notification. Only the fields relevant to the resolved target are
// populated.
type Context struct {
	AssignmentID       *uint  `json:"assignmentId,omitempty"`
	FileID             *uint  `json:"fileId,omitempty"`
	ShouldOpenComments bool   `json:"shouldOpenComments,omitempty"`
	ExpandAllReplies   bool   `json:"expandAllReplies,omitempty"`
	FromFileSubmission bool   `json:"fromFileSubmission,omitempty"`
	UserID             *uint  `json:"userId,omitempty"`
	Action             string `json:"action,omitempty"`
	Username           string `json:"username,omitempty"`
}

// Resolution is the navigation target for a notification click. An empty
// TargetTab with type "unknown" means the click is a no-op.
type Resolution struct {
	TargetTab        string   `json:"targetTab"`
	Context          *Context `json:"context"`
	NotificationType string   `json:"notificationType"`
}

// TypeUnknown is returned when no rule matches the notification.
const TypeUnknown = "unknown"

// Resolve determines where a notification click should navigate for the
// given viewer role. Rules are evaluated in priority order; the first match
// wins. Unknown roles fall back to the regular user tab set.
func Resolve(n models.Notification, role string) Resolution {
	role = strings.ToLower(strings.TrimSpace(role))
	tabs, ok := roleTabs[role]
	if !ok {
		tabs = roleTabs[models.RoleUser]
	}

	if res, ok := resolveCommentOrReply(n, tabs); ok {
		return res
	}
	if res, ok := resolveAssignmentSubmission(n, tabs); ok {
		return res
	}
	if res, ok := resolveReviewOutcome(n, tabs); ok {
		return res
	}
	if res, ok := resolvePasswordReset(n, role, tabs); ok {
		return res
	}
	if res, ok := resolveUntyped(n, tabs); ok {
		return res
	}

	return Resolution{NotificationType: TypeUnknown}
}

func resolveCommentOrReply(n models.Notification, tabs Tabs) (Resolution, bool) {
	isReply := looksLikeReply(n)
	if n.Type != models.NotificationTypeComment && !isReply {
		return Resolution{}, false
	}
	if n.AssignmentID == nil {
		return Resolution{}, false
	}

	notificationType := models.NotificationTypeComment
	if isReply {
		notificationType = "reply"
	}

	return Resolution{
		TargetTab: tabs.Tasks,
		Context: &Context{
			AssignmentID:       n.AssignmentID,
			ShouldOpenComments: true,
			ExpandAllReplies:   isReply,
		},
		NotificationType: notificationType,
	}, true
}

func resolveAssignmentSubmission(n models.Notification, tabs Tabs) (Resolution, bool) {
	switch n.Type {
	case models.NotificationTypeSubmission, models.NotificationTypeFileUploaded, models.NotificationTypeAssignment:
	default:
		return Resolution{}, false
	}
	if n.AssignmentID == nil {
		return Resolution{}, false
	}

	return Resolution{
		TargetTab: tabs.Tasks,
		Context: &Context{
			AssignmentID:       n.AssignmentID,
			FileID:             n.FileID,
			FromFileSubmission: true,
		},
		NotificationType: n.Type,
	}, true
}

func resolveReviewOutcome(n models.Notification, tabs Tabs) (Resolution, bool) {
	switch n.Type {
	case models.NotificationTypeApproval, models.NotificationTypeRejection,
		models.NotificationTypeFinalApproval, models.NotificationTypeFinalRejection:
	default:
		return Resolution{}, false
	}
	if n.FileID == nil {
		return Resolution{}, false
	}

	return Resolution{
		TargetTab:        tabs.Files,
		Context:          &Context{FileID: n.FileID},
		NotificationType: n.Type,
	}, true
}

func resolvePasswordReset(n models.Notification, role string, tabs Tabs) (Resolution, bool) {
	if role != models.RoleAdmin || !strings.Contains(n.Type, models.NotificationTypePasswordResetRequest) {
		return Resolution{}, false
	}

	userID := n.ActionByID
	return Resolution{
		TargetTab: tabs.Users,
		Context: &Context{
			UserID:   &userID,
			Action:   "reset-password",
			Username: n.ActionByUsername,
		},
		NotificationType: models.NotificationTypePasswordResetRequest,
	}, true
}

// resolveUntyped infers a target for legacy rows with an empty type from
// whichever references are present.
func resolveUntyped(n models.Notification, tabs Tabs) (Resolution, bool) {
	if strings.TrimSpace(n.Type) != "" {
		return Resolution{}, false
	}

	switch {
	case n.AssignmentID != nil && n.FileID != nil:
		return Resolution{
			TargetTab: tabs.Tasks,
			Context: &Context{
				AssignmentID:       n.AssignmentID,
				FileID:             n.FileID,
				FromFileSubmission: true,
			},
			NotificationType: models.NotificationTypeSubmission,
		}, true
	case n.AssignmentID != nil:
		return Resolution{
			TargetTab:        tabs.Tasks,
			Context:          &Context{AssignmentID: n.AssignmentID},
			NotificationType: models.NotificationTypeAssignment,
		}, true
	case n.FileID != nil:
		return Resolution{
			TargetTab:        tabs.Files,
			Context:          &Context{FileID: n.FileID},
			NotificationType: "file",
		}, true
	}

	return Resolution{}, false
}

func looksLikeReply(n models.Notification) bool {
	title := strings.ToLower(n.Title)
	if strings.Contains(title, "new reply on assignment") || strings.Contains(title, "reply") {
		return true
	}
	return strings.Contains(strings.ToLower(n.Message), "replied to your comment")
}
