package service

import "errors"

var (
	// ErrSubmissionNotFound indicates a submission could not be found.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrAssignmentNotFound indicates an assignment could not be found.
	ErrAssignmentNotFound = errors.New("assignment not found")
	// ErrCommentNotFound indicates a comment could not be found.
	ErrCommentNotFound = errors.New("comment not found")
	// ErrNotificationNotFound indicates a notification could not be found.
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrUserNotFound indicates the referenced user account does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrNotOwner indicates the caller does not own the submission.
	ErrNotOwner = errors.New("submission belongs to another user")
	// ErrAlreadyPublished indicates the operation is not allowed on a published submission.
	ErrAlreadyPublished = errors.New("submission is already published")
	// ErrNotAssignmentMember indicates the user is not part of the assignment.
	ErrNotAssignmentMember = errors.New("user is not a member of the assignment")
	// ErrAlreadySubmitted indicates the member already responded to the assignment.
	ErrAlreadySubmitted = errors.New("assignment already has a submission from this member")
	// ErrAssignmentPastDue indicates the assignment deadline has passed.
	ErrAssignmentPastDue = errors.New("assignment is past due")
	// ErrUnsupportedFileType indicates the uploaded file failed the type allow-list.
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrInvalidCredentials indicates the login username/password pair did not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNoRecipients indicates fan-out could not resolve anyone to notify.
	// It is logged by the dispatcher and never surfaces to API callers.
	ErrNoRecipients = errors.New("no notification recipients resolved")
)
