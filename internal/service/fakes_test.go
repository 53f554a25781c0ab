package service

import (
	"context"
	"io"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/fileflow/fileflow-api/internal/models"
	"github.com/fileflow/fileflow-api/internal/repository"
	"github.com/fileflow/fileflow-api/internal/workflow"
)

type memorySubmissionRepo struct {
	mu          sync.Mutex
	submissions map[uint]models.Submission
	events      []models.OutboxEvent
	nextID      uint
}

func newMemorySubmissionRepo() *memorySubmissionRepo {
	return &memorySubmissionRepo{
		submissions: make(map[uint]models.Submission),
		nextID:      1,
	}
}

func (m *memorySubmissionRepo) List(ctx context.Context, filter repository.SubmissionFilter) ([]models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	results := make([]models.Submission, 0, len(m.submissions))
	for _, submission := range m.submissions {
		if filter.OwnerID != nil && submission.OwnerID != *filter.OwnerID {
			continue
		}
		if filter.Team != nil && submission.Team != *filter.Team {
			continue
		}
		if filter.Stage != nil && submission.CurrentStage != *filter.Stage {
			continue
		}
		if filter.Status != nil && submission.Status != *filter.Status {
			continue
		}
		results = append(results, submission)
	}
	return results, nil
}

func (m *memorySubmissionRepo) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	submission, ok := m.submissions[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return submission, nil
}

func (m *memorySubmissionRepo) CreateWithEvent(ctx context.Context, submission *models.Submission, event *models.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	submission.ID = m.nextID
	submission.CreatedAt = time.Now()
	submission.UpdatedAt = time.Now()
	m.submissions[m.nextID] = *submission
	m.nextID++

	if event != nil {
		event.ID = uint(len(m.events) + 1)
		event.SubmissionID = &submission.ID
		m.events = append(m.events, *event)
	}
	return nil
}

func (m *memorySubmissionRepo) Transition(ctx context.Context, id uint, fromStage workflow.Stage, updates map[string]interface{}, event *models.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	submission, ok := m.submissions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if submission.CurrentStage != fromStage {
		return workflow.ErrWrongStage
	}

	applyUpdates(&submission, updates)
	m.submissions[id] = submission

	if event != nil {
		event.ID = uint(len(m.events) + 1)
		if event.SubmissionID == nil {
			event.SubmissionID = &id
		}
		m.events = append(m.events, *event)
	}
	return nil
}

func (m *memorySubmissionRepo) Delete(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.submissions[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.submissions, id)
	return nil
}

// applyUpdates mirrors the column-name updates used against gorm.
func applyUpdates(submission *models.Submission, updates map[string]interface{}) {
	for column, value := range updates {
		switch column {
		case "status":
			submission.Status = value.(workflow.Status)
		case "current_stage":
			submission.CurrentStage = value.(workflow.Stage)
		case "filename":
			submission.Filename = value.(string)
		case "file_url":
			submission.FileURL = value.(string)
		case "public_url":
			submission.PublicURL = value.(string)
		case "team_leader_reviewer_id":
			submission.TeamLeaderReviewerID = uintPtrFrom(value)
		case "team_leader_reviewer_username":
			submission.TeamLeaderReviewerUsername = value.(string)
		case "team_leader_reviewed_at":
			submission.TeamLeaderReviewedAt = timePtrFrom(value)
		case "team_leader_comment":
			submission.TeamLeaderComment = value.(string)
		case "admin_reviewer_id":
			submission.AdminReviewerID = uintPtrFrom(value)
		case "admin_reviewer_username":
			submission.AdminReviewerUsername = value.(string)
		case "admin_reviewed_at":
			submission.AdminReviewedAt = timePtrFrom(value)
		case "admin_comment":
			submission.AdminComment = value.(string)
		case "final_approved_at":
			submission.FinalApprovedAt = timePtrFrom(value)
		case "rejection_reason":
			submission.RejectionReason = value.(string)
		case "rejected_by_id":
			submission.RejectedByID = uintPtrFrom(value)
		case "rejected_by_username":
			submission.RejectedByUsername = value.(string)
		case "rejected_at":
			submission.RejectedAt = timePtrFrom(value)
		case "updated_at":
			submission.UpdatedAt = value.(time.Time)
		}
	}
}

func uintPtrFrom(value interface{}) *uint {
	switch v := value.(type) {
	case uint:
		return &v
	case *uint:
		return v
	default:
		return nil
	}
}

func timePtrFrom(value interface{}) *time.Time {
	switch v := value.(type) {
	case time.Time:
		return &v
	case *time.Time:
		return v
	default:
		return nil
	}
}

type memoryUserRepo struct {
	users map[uint]models.User
}

func newMemoryUserRepo(users ...models.User) *memoryUserRepo {
	repo := &memoryUserRepo{users: make(map[uint]models.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (m *memoryUserRepo) GetByID(ctx context.Context, id uint) (models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (m *memoryUserRepo) GetByUsername(ctx context.Context, username string) (models.User, error) {
	for _, user := range m.users {
		if user.Username == username {
			return user, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (m *memoryUserRepo) ListAdmins(ctx context.Context) ([]models.User, error) {
	var admins []models.User
	for _, user := range m.users {
		if user.Role == models.RoleAdmin {
			admins = append(admins, user)
		}
	}
	return admins, nil
}

func (m *memoryUserRepo) ListTeamLeaders(ctx context.Context, team string) ([]models.User, error) {
	var leaders []models.User
	for _, user := range m.users {
		if user.Role == models.RoleTeamLeader && user.Team == team {
			leaders = append(leaders, user)
		}
	}
	return leaders, nil
}

func (m *memoryUserRepo) ListByTeam(ctx context.Context, team string) ([]models.User, error) {
	var users []models.User
	for _, user := range m.users {
		if user.Team == team {
			users = append(users, user)
		}
	}
	return users, nil
}

func (m *memoryUserRepo) Create(ctx context.Context, user *models.User) error {
	m.users[user.ID] = *user
	return nil
}

type memoryAssignmentRepo struct {
	assignments map[uint]models.Assignment
	nextID      uint
}

func newMemoryAssignmentRepo() *memoryAssignmentRepo {
	return &memoryAssignmentRepo{assignments: make(map[uint]models.Assignment), nextID: 1}
}

func (m *memoryAssignmentRepo) List(ctx context.Context, filter repository.AssignmentFilter) ([]models.Assignment, error) {
	results := make([]models.Assignment, 0, len(m.assignments))
	for _, assignment := range m.assignments {
		if filter.OwnerID != nil && assignment.OwnerID != *filter.OwnerID {
			continue
		}
		if filter.Team != nil && assignment.Team != *filter.Team {
			continue
		}
		if filter.MemberID != nil {
			found := false
			for _, member := range assignment.Members {
				if member.UserID == *filter.MemberID {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		results = append(results, assignment)
	}
	return results, nil
}

func (m *memoryAssignmentRepo) GetByID(ctx context.Context, id uint) (models.Assignment, error) {
	assignment, ok := m.assignments[id]
	if !ok {
		return models.Assignment{}, gorm.ErrRecordNotFound
	}
	return assignment, nil
}

func (m *memoryAssignmentRepo) Create(ctx context.Context, assignment *models.Assignment) error {
	assignment.ID = m.nextID
	for i := range assignment.Members {
		assignment.Members[i].ID = uint(i + 1)
		assignment.Members[i].AssignmentID = assignment.ID
	}
	m.assignments[m.nextID] = *assignment
	m.nextID++
	return nil
}

func (m *memoryAssignmentRepo) GetMember(ctx context.Context, assignmentID, userID uint) (models.AssignmentMember, error) {
	assignment, ok := m.assignments[assignmentID]
	if !ok {
		return models.AssignmentMember{}, gorm.ErrRecordNotFound
	}
	for _, member := range assignment.Members {
		if member.UserID == userID {
			return member, nil
		}
	}
	return models.AssignmentMember{}, gorm.ErrRecordNotFound
}

func (m *memoryAssignmentRepo) UpdateMember(ctx context.Context, member *models.AssignmentMember) error {
	assignment, ok := m.assignments[member.AssignmentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range assignment.Members {
		if assignment.Members[i].ID == member.ID {
			assignment.Members[i] = *member
			m.assignments[member.AssignmentID] = assignment
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type memoryCommentRepo struct {
	comments map[uint]models.AssignmentComment
	replies  map[uint]models.CommentReply
	nextID   uint
}

func newMemoryCommentRepo() *memoryCommentRepo {
	return &memoryCommentRepo{
		comments: make(map[uint]models.AssignmentComment),
		replies:  make(map[uint]models.CommentReply),
		nextID:   1,
	}
}

func (m *memoryCommentRepo) CreateComment(ctx context.Context, comment *models.AssignmentComment) error {
	comment.ID = m.nextID
	comment.CreatedAt = time.Now()
	m.comments[m.nextID] = *comment
	m.nextID++
	return nil
}

func (m *memoryCommentRepo) CreateReply(ctx context.Context, reply *models.CommentReply) error {
	reply.ID = m.nextID
	reply.CreatedAt = time.Now()
	m.replies[m.nextID] = *reply
	m.nextID++
	return nil
}

func (m *memoryCommentRepo) GetComment(ctx context.Context, id uint) (models.AssignmentComment, error) {
	comment, ok := m.comments[id]
	if !ok {
		return models.AssignmentComment{}, gorm.ErrRecordNotFound
	}
	return comment, nil
}

func (m *memoryCommentRepo) ListByAssignment(ctx context.Context, assignmentID uint) ([]models.AssignmentComment, error) {
	var results []models.AssignmentComment
	for _, comment := range m.comments {
		if comment.AssignmentID != assignmentID {
			continue
		}
		for _, reply := range m.replies {
			if reply.CommentID == comment.ID {
				comment.Replies = append(comment.Replies, reply)
			}
		}
		results = append(results, comment)
	}
	return results, nil
}

func (m *memoryCommentRepo) ListParticipants(ctx context.Context, assignmentID uint) ([]uint, error) {
	seen := make(map[uint]struct{})
	var participants []uint

	add := func(id uint) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		participants = append(participants, id)
	}

	for _, comment := range m.comments {
		if comment.AssignmentID == assignmentID {
			add(comment.AuthorID)
			for _, reply := range m.replies {
				if reply.CommentID == comment.ID {
					add(reply.AuthorID)
				}
			}
		}
	}
	return participants, nil
}

type memoryOutboxRepo struct {
	mu     sync.Mutex
	events map[uint]models.OutboxEvent
	nextID uint
}

func newMemoryOutboxRepo() *memoryOutboxRepo {
	return &memoryOutboxRepo{events: make(map[uint]models.OutboxEvent), nextID: 1}
}

func (m *memoryOutboxRepo) Create(ctx context.Context, event *models.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	event.ID = m.nextID
	event.CreatedAt = time.Now()
	m.events[m.nextID] = *event
	m.nextID++
	return nil
}

func (m *memoryOutboxRepo) MarkDispatched(ctx context.Context, id uint, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	event, ok := m.events[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	event.DispatchedAt = &at
	m.events[id] = event
	return nil
}

func (m *memoryOutboxRepo) ListUndispatched(ctx context.Context, olderThan time.Time, limit int) ([]models.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var events []models.OutboxEvent
	for _, event := range m.events {
		if event.DispatchedAt == nil && event.CreatedAt.Before(olderThan) {
			events = append(events, event)
		}
	}
	return events, nil
}

type memoryNotificationRepo struct {
	mu            sync.Mutex
	notifications map[uint]models.Notification
	nextID        uint
}

func newMemoryNotificationRepo() *memoryNotificationRepo {
	return &memoryNotificationRepo{notifications: make(map[uint]models.Notification), nextID: 1}
}

func (m *memoryNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	notification.ID = m.nextID
	notification.CreatedAt = time.Now()
	m.notifications[m.nextID] = *notification
	m.nextID++
	return nil
}

func (m *memoryNotificationRepo) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var results []models.Notification
	for _, notification := range m.notifications {
		if notification.UserID == userID {
			results = append(results, notification)
		}
	}
	return results, nil
}

func (m *memoryNotificationRepo) FindByID(ctx context.Context, id uint) (models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	notification, ok := m.notifications[id]
	if !ok {
		return models.Notification{}, gorm.ErrRecordNotFound
	}
	return notification, nil
}

func (m *memoryNotificationRepo) CountUnread(ctx context.Context, userID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for _, notification := range m.notifications {
		if notification.UserID == userID && !notification.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *memoryNotificationRepo) MarkRead(ctx context.Context, id, userID uint) (models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	notification, ok := m.notifications[id]
	if !ok || notification.UserID != userID {
		return models.Notification{}, gorm.ErrRecordNotFound
	}
	notification.IsRead = true
	m.notifications[id] = notification
	return notification, nil
}

func (m *memoryNotificationRepo) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var updated int64
	for id, notification := range m.notifications {
		if notification.UserID == userID && !notification.IsRead {
			notification.IsRead = true
			m.notifications[id] = notification
			updated++
		}
	}
	return updated, nil
}

func (m *memoryNotificationRepo) Delete(ctx context.Context, id, userID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	notification, ok := m.notifications[id]
	if !ok || notification.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	delete(m.notifications, id)
	return nil
}

func (m *memoryNotificationRepo) DeleteRead(ctx context.Context, userID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	for id, notification := range m.notifications {
		if notification.UserID == userID && notification.IsRead {
			delete(m.notifications, id)
			deleted++
		}
	}
	return deleted, nil
}

// collectSink records delivered notifications in memory.
type collectSink struct {
	mu            sync.Mutex
	notifications []models.Notification
	failures      int
}

func (c *collectSink) Deliver(ctx context.Context, notification *models.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failures > 0 {
		c.failures--
		return io.ErrUnexpectedEOF
	}

	notification.ID = uint(len(c.notifications) + 1)
	c.notifications = append(c.notifications, *notification)
	return nil
}

func (c *collectSink) byType(notificationType string) []models.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	var matched []models.Notification
	for _, notification := range c.notifications {
		if notification.Type == notificationType {
			matched = append(matched, notification)
		}
	}
	return matched
}

// stubStorage implements FileStorage and PublicLinker.
type stubStorage struct {
	uploads int
}

func (s *stubStorage) Upload(_ context.Context, name string, _ io.Reader) (string, error) {
	s.uploads++
	return "https://cdn.example.com/" + name, nil
}

func (s *stubStorage) PublicURL(_ context.Context, submission models.Submission) (string, error) {
	return "https://public.example.com/" + submission.Filename, nil
}

// stubFanout records dispatched events without delivering anything.
type stubFanout struct {
	mu     sync.Mutex
	events []models.OutboxEvent
}

func (s *stubFanout) Dispatch(ctx context.Context, event models.OutboxEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *stubFanout) Run(ctx context.Context) {}

func (s *stubFanout) kinds() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	kinds := make([]string, 0, len(s.events))
	for _, event := range s.events {
		kinds = append(kinds, event.Kind)
	}
	return kinds
}
