package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/fileflow/fileflow-api/internal/dto"
	"github.com/fileflow/fileflow-api/internal/models"
	"github.com/fileflow/fileflow-api/internal/workflow"
)

func newSubmissionFixture(t *testing.T) (*memorySubmissionRepo, SubmissionService, *stubFanout, *stubStorage) {
	t.Helper()
	repo := newMemorySubmissionRepo()
	fanout := &stubFanout{}
	storage := &stubStorage{}
	svc := NewSubmissionService(repo, storage, fanout, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())
	return repo, svc, fanout, storage
}

func TestUploadCreatesPendingSubmission(t *testing.T) {
	_, svc, fanout, storage := newSubmissionFixture(t)

	result, err := svc.Upload(context.Background(), testOwner, newTestFileHeader(t, "report.txt", []byte("quarterly numbers")))
	require.NoError(t, err)

	require.Equal(t, workflow.StatusUploaded, result.Status)
	require.Equal(t, workflow.StagePendingTeamLeader, result.CurrentStage)
	require.Equal(t, testOwner.ID, result.OwnerID)
	require.Equal(t, "report.txt", result.Filename)
	require.Equal(t, "https://cdn.example.com/report.txt", result.FileURL)
	require.Equal(t, 1, storage.uploads)

	require.Equal(t, []string{models.EventFileSubmitted}, fanout.kinds())
}

func TestUploadRejectsUnsupportedFileType(t *testing.T) {
	_, svc, fanout, _ := newSubmissionFixture(t)

	// An unrecognizable binary blob detects as application/octet-stream.
	_, err := svc.Upload(context.Background(), testOwner, newTestFileHeader(t, "weird.bin", []byte{0x00, 0x01, 0x02, 0x03, 0xff}))
	require.ErrorIs(t, err, ErrUnsupportedFileType)
	require.Empty(t, fanout.kinds())
}

func TestSubmitForReviewRequiresUploadedOrRevisedStatus(t *testing.T) {
	repo, svc, _, _ := newSubmissionFixture(t)
	id := seedSubmission(t, repo, workflow.StatusRejectedByTeamLeader, workflow.StageRejectedByTeamLeader)

	_, err := svc.SubmitForReview(context.Background(), id, testOwner)
	require.ErrorIs(t, err, workflow.ErrInvalidState)
}

func TestSubmitForReviewDispatchesSubmissionEvent(t *testing.T) {
	repo, svc, fanout, _ := newSubmissionFixture(t)
	id := seedSubmission(t, repo, workflow.StatusUnderRevision, workflow.StagePendingTeamLeader)

	result, err := svc.SubmitForReview(context.Background(), id, testOwner)
	require.NoError(t, err)
	require.Equal(t, workflow.StagePendingTeamLeader, result.CurrentStage)
	require.Equal(t, []string{models.EventFileSubmitted}, fanout.kinds())
}

func TestResubmitRequiresRejectedStatus(t *testing.T) {
	repo, svc, _, _ := newSubmissionFixture(t)
	id := seedSubmission(t, repo, workflow.StatusUploaded, workflow.StagePendingTeamLeader)

	_, err := svc.Resubmit(context.Background(), id, testOwner, newTestFileHeader(t, "v2.txt", []byte("try again")))
	require.ErrorIs(t, err, workflow.ErrInvalidState)
}

func TestResubmitReplacesFileAndClearsReviews(t *testing.T) {
	repo, svc, fanout, _ := newSubmissionFixture(t)
	id := seedSubmission(t, repo, workflow.StatusRejectedByAdmin, workflow.StageRejectedByAdmin)

	result, err := svc.Resubmit(context.Background(), id, testOwner, newTestFileHeader(t, "report-v2.txt", []byte("new body")))
	require.NoError(t, err)

	require.Equal(t, workflow.StatusUnderRevision, result.Status)
	require.Equal(t, workflow.StagePendingTeamLeader, result.CurrentStage)
	require.Equal(t, "report-v2.txt", result.Filename)
	require.Nil(t, result.TeamLeader.ReviewerID)
	require.Nil(t, result.Admin.ReviewerID)
	require.Empty(t, result.RejectionReason)

	require.Equal(t, []string{models.EventFileSubmitted}, fanout.kinds())
}

func TestWithdrawRefusesPublishedSubmission(t *testing.T) {
	repo, svc, _, _ := newSubmissionFixture(t)
	id := seedSubmission(t, repo, workflow.StatusFinalApproved, workflow.StagePublishedToPublic)

	err := svc.Withdraw(context.Background(), id, testOwner)
	require.ErrorIs(t, err, ErrAlreadyPublished)
}

func TestWithdrawRequiresOwnershipUnlessAdmin(t *testing.T) {
	repo, svc, _, _ := newSubmissionFixture(t)
	id := seedSubmission(t, repo, workflow.StatusUploaded, workflow.StagePendingTeamLeader)

	stranger := models.User{ID: 42, Username: "stranger", Role: models.RoleUser, Team: "beta"}
	require.ErrorIs(t, svc.Withdraw(context.Background(), id, stranger), ErrNotOwner)

	require.NoError(t, svc.Withdraw(context.Background(), id, testAdmin))

	_, err := svc.Get(context.Background(), id)
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestListFiltersByStatus(t *testing.T) {
	repo, svc, _, _ := newSubmissionFixture(t)
	seedSubmission(t, repo, workflow.StatusUploaded, workflow.StagePendingTeamLeader)
	seedSubmission(t, repo, workflow.StatusFinalApproved, workflow.StagePublishedToPublic)

	status := string(workflow.StatusFinalApproved)
	results, err := svc.List(context.Background(), dto.SubmissionFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, workflow.StatusFinalApproved, results[0].Status)
}

func TestListRejectsUnknownStatusFilter(t *testing.T) {
	_, svc, _, _ := newSubmissionFixture(t)

	bogus := "approved_kinda"
	_, err := svc.List(context.Background(), dto.SubmissionFilter{Status: &bogus})
	require.Error(t, err)
}
