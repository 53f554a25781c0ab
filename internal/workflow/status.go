package workflow

import "fmt"

// Status captures how far a submission has progressed through review.
type Status string

// Stage is the position of a submission in the review pipeline. Status and
// stage always move together; PairedStage defines the only legal pairings.
type Stage string

const (
	StatusUploaded             Status = "uploaded"
	StatusTeamLeaderApproved   Status = "team_leader_approved"
	StatusFinalApproved        Status = "final_approved"
	StatusRejectedByTeamLeader Status = "rejected_by_team_leader"
	StatusRejectedByAdmin      Status = "rejected_by_admin"
	StatusUnderRevision        Status = "under_revision"
)

const (
	StagePendingTeamLeader    Stage = "pending_team_leader"
	StagePendingAdmin         Stage = "pending_admin"
	StagePublishedToPublic    Stage = "published_to_public"
	StageRejectedByTeamLeader Stage = "rejected_by_team_leader"
	StageRejectedByAdmin      Stage = "rejected_by_admin"
)

var pairedStages = map[Status]Stage{
	StatusUploaded:             StagePendingTeamLeader,
	StatusUnderRevision:        StagePendingTeamLeader,
	StatusTeamLeaderApproved:   StagePendingAdmin,
	StatusFinalApproved:        StagePublishedToPublic,
	StatusRejectedByTeamLeader: StageRejectedByTeamLeader,
	StatusRejectedByAdmin:      StageRejectedByAdmin,
}

// PairedStage returns the stage a status must be paired with. Unknown
// statuses are an error condition for the caller, never coerced.
func PairedStage(status Status) (Stage, error) {
	stage, ok := pairedStages[status]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	return stage, nil
}

// IsKnown reports whether the status belongs to the defined set.
func IsKnown(status Status) bool {
	_, ok := pairedStages[status]
	return ok
}

// IsConsistent reports whether the status/stage pair is one of the legal
// pairings. Unknown statuses are never consistent.
func IsConsistent(status Status, stage Stage) bool {
	paired, ok := pairedStages[status]
	return ok && paired == stage
}

// IsRejected reports whether the status is one of the rejected variants.
func IsRejected(status Status) bool {
	return status == StatusRejectedByTeamLeader || status == StatusRejectedByAdmin
}

// IsTerminal reports whether the status permits no further review. Rejected
// submissions are terminal for review purposes but may still be resubmitted
// as a revision, which resets the pipeline.
func IsTerminal(status Status) bool {
	return status == StatusFinalApproved || IsRejected(status)
}

// IsPending reports whether the stage still awaits a reviewer.
func IsPending(stage Stage) bool {
	return stage == StagePendingTeamLeader || stage == StagePendingAdmin
}

// AwaitsSubmission reports whether the status may enter team-leader review.
func AwaitsSubmission(status Status) bool {
	return status == StatusUploaded || status == StatusUnderRevision
}
