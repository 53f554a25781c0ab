package service

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/fileflow/fileflow-api/internal/dto"
	"github.com/fileflow/fileflow-api/internal/models"
	"github.com/fileflow/fileflow-api/internal/workflow"
)

var (
	testOwner      = models.User{ID: 1, Username: "uploader", Role: models.RoleUser, Team: "alpha"}
	testTeamLeader = models.User{ID: 2, Username: "lead", Role: models.RoleTeamLeader, Team: "alpha"}
	testAdmin      = models.User{ID: 3, Username: "root", Role: models.RoleAdmin}
)

func newReviewFixture(t *testing.T) (*memorySubmissionRepo, ReviewService, *stubFanout) {
	t.Helper()
	repo := newMemorySubmissionRepo()
	fanout := &stubFanout{}
	svc := NewReviewService(repo, &stubStorage{}, fanout, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())
	return repo, svc, fanout
}

func seedSubmission(t *testing.T, repo *memorySubmissionRepo, status workflow.Status, stage workflow.Stage) uint {
	t.Helper()
	submission := models.Submission{
		OwnerID:       testOwner.ID,
		OwnerUsername: testOwner.Username,
		Team:          testOwner.Team,
		Filename:      "report.pdf",
		FileURL:       "https://cdn.example.com/report.pdf",
		Status:        status,
		CurrentStage:  stage,
	}
	require.NoError(t, repo.CreateWithEvent(context.Background(), &submission, nil))
	return submission.ID
}

func newTestFileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(int64(len(content))+1024))
	files := req.MultipartForm.File["file"]
	require.Len(t, files, 1)
	return files[0]
}

func TestTeamLeaderApproveAdvancesToAdminQueue(t *testing.T) {
	repo, svc, fanout := newReviewFixture(t)
	id := seedSubmission(t, repo, workflow.StatusUploaded, workflow.StagePendingTeamLeader)

	result, err := svc.TeamLeaderReview(context.Background(), id, testTeamLeader, dto.ReviewRequest{
		Decision: dto.DecisionApprove,
		Comment:  "looks good",
	})
	require.NoError(t, err)

	require.Equal(t, workflow.StatusTeamLeaderApproved, result.Status)
	require.Equal(t, workflow.StagePendingAdmin, result.CurrentStage)
	require.True(t, workflow.IsConsistent(result.Status, result.CurrentStage))
	require.Equal(t, testTeamLeader.ID, *result.TeamLeader.ReviewerID)
	require.Equal(t, "lead", result.TeamLeader.ReviewerUsername)
	require.NotNil(t, result.TeamLeader.ReviewedAt)
	require.Equal(t, "looks good", result.TeamLeader.Comment)

	require.Equal(t, []string{models.EventTeamLeaderApproved}, fanout.kinds())
}

func TestTeamLeaderRejectRecordsRejectionMetadata(t *testing.T) {
	repo, svc, fanout := newReviewFixture(t)
	id := seedSubmission(t, repo, workflow.StatusUploaded, workflow.StagePendingTeamLeader)

	result, err := svc.TeamLeaderReview(context.Background(), id, testTeamLeader, dto.ReviewRequest{
		Decision: dto.DecisionReject,
		Comment:  "wrong template",
	})
	require.NoError(t, err)

	require.Equal(t, workflow.StatusRejectedByTeamLeader, result.Status)
	require.Equal(t, workflow.StageRejectedByTeamLeader, result.CurrentStage)
	require.Equal(t, "wrong template", result.RejectionReason)
	require.Equal(t, "lead", result.RejectedBy)
	require.NotNil(t, result.RejectedAt)

	require.Equal(t, []string{models.EventTeamLeaderRejected}, fanout.kinds())
}

func TestAdminApprovePublishesSubmission(t *testing.T) {
	repo, svc, fanout := newReviewFixture(t)
	id := seedSubmission(t, repo, workflow.StatusTeamLeaderApproved, workflow.StagePendingAdmin)

	result, err := svc.AdminReview(context.Background(), id, testAdmin, dto.ReviewRequest{
		Decision: dto.DecisionApprove,
	})
	require.NoError(t, err)

	require.Equal(t, workflow.StatusFinalApproved, result.Status)
	require.Equal(t, workflow.StagePublishedToPublic, result.CurrentStage)
	require.NotNil(t, result.FinalApprovedAt)
	require.Equal(t, "https://public.example.com/report.pdf", result.PublicURL)

	require.Equal(t, []string{models.EventAdminApproved}, fanout.kinds())
}

func TestAdminReviewBeforeTeamLeaderFailsWithWrongStage(t *testing.T) {
	repo, svc, _ := newReviewFixture(t)
	id := seedSubmission(t, repo, workflow.StatusUploaded, workflow.StagePendingTeamLeader)

	_, err := svc.AdminReview(context.Background(), id, testAdmin, dto.ReviewRequest{
		Decision: dto.DecisionApprove,
	})
	require.ErrorIs(t, err, workflow.ErrWrongStage)

	// State is untouched.
	stored, getErr := repo.GetByID(context.Background(), id)
	require.NoError(t, getErr)
	require.Equal(t, workflow.StatusUploaded, stored.Status)
	require.Equal(t, workflow.StagePendingTeamLeader, stored.CurrentStage)
}

func TestSecondTeamLeaderReviewLosesTheRace(t *testing.T) {
	repo, svc, _ := newReviewFixture(t)
	id := seedSubmission(t, repo, workflow.StatusUploaded, workflow.StagePendingTeamLeader)

	_, err := svc.TeamLeaderReview(context.Background(), id, testTeamLeader, dto.ReviewRequest{Decision: dto.DecisionApprove})
	require.NoError(t, err)

	other := models.User{ID: 9, Username: "lead-2", Role: models.RoleTeamLeader, Team: "alpha"}
	_, err = svc.TeamLeaderReview(context.Background(), id, other, dto.ReviewRequest{Decision: dto.DecisionReject, Comment: "no"})
	require.ErrorIs(t, err, workflow.ErrWrongStage)

	stored, getErr := repo.GetByID(context.Background(), id)
	require.NoError(t, getErr)
	require.Equal(t, workflow.StatusTeamLeaderApproved, stored.Status)
	require.Equal(t, "lead", stored.TeamLeaderReviewerUsername)
}

func TestReviewOnTerminalSubmissionIsInvalid(t *testing.T) {
	repo, svc, _ := newReviewFixture(t)
	id := seedSubmission(t, repo, workflow.StatusFinalApproved, workflow.StagePublishedToPublic)

	_, err := svc.AdminReview(context.Background(), id, testAdmin, dto.ReviewRequest{Decision: dto.DecisionReject, Comment: "undo"})
	require.ErrorIs(t, err, workflow.ErrInvalidState)
}

func TestReviewMissingSubmissionReturnsNotFound(t *testing.T) {
	_, svc, _ := newReviewFixture(t)

	_, err := svc.TeamLeaderReview(context.Background(), 404, testTeamLeader, dto.ReviewRequest{Decision: dto.DecisionApprove})
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestReviewRejectsUnknownDecision(t *testing.T) {
	repo, svc, _ := newReviewFixture(t)
	id := seedSubmission(t, repo, workflow.StatusUploaded, workflow.StagePendingTeamLeader)

	_, err := svc.TeamLeaderReview(context.Background(), id, testTeamLeader, dto.ReviewRequest{Decision: "maybe"})
	require.Error(t, err)

	var validationErrors validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)
}

func TestReviewCommentIsSanitized(t *testing.T) {
	repo, svc, _ := newReviewFixture(t)
	id := seedSubmission(t, repo, workflow.StatusUploaded, workflow.StagePendingTeamLeader)

	result, err := svc.TeamLeaderReview(context.Background(), id, testTeamLeader, dto.ReviewRequest{
		Decision: dto.DecisionReject,
		Comment:  `<script>alert("x")</script>needs work`,
	})
	require.NoError(t, err)
	require.Equal(t, "needs work", result.RejectionReason)
}

func TestRejectResubmitApproveRoundTripPublishes(t *testing.T) {
	repo, reviews, _ := newReviewFixture(t)
	submissions := NewSubmissionService(repo, &stubStorage{}, &stubFanout{}, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())

	id := seedSubmission(t, repo, workflow.StatusUploaded, workflow.StagePendingTeamLeader)

	_, err := reviews.TeamLeaderReview(context.Background(), id, testTeamLeader, dto.ReviewRequest{
		Decision: dto.DecisionReject,
		Comment:  "redo the summary",
	})
	require.NoError(t, err)

	revised, err := submissions.Resubmit(context.Background(), id, testOwner, newTestFileHeader(t, "report-v2.txt", []byte("revised content")))
	require.NoError(t, err)
	require.Equal(t, workflow.StatusUnderRevision, revised.Status)
	require.Equal(t, workflow.StagePendingTeamLeader, revised.CurrentStage)
	require.Empty(t, revised.RejectionReason)
	require.Nil(t, revised.TeamLeader.ReviewerID)

	_, err = reviews.TeamLeaderReview(context.Background(), id, testTeamLeader, dto.ReviewRequest{Decision: dto.DecisionApprove})
	require.NoError(t, err)

	final, err := reviews.AdminReview(context.Background(), id, testAdmin, dto.ReviewRequest{Decision: dto.DecisionApprove})
	require.NoError(t, err)

	require.Equal(t, workflow.StatusFinalApproved, final.Status)
	require.Equal(t, workflow.StagePublishedToPublic, final.CurrentStage)
	require.NotEmpty(t, final.PublicURL)
}
