// Package lifecycle holds the activity state machine: the transition rules
// from pending to verified or rejected. Both target states are terminal.
// The functions here are pure; persistence commits the result with a
// compare-and-swap on the version column, which is what makes a transition
// exactly-once under concurrent reviewers.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mohdfarhan01/ACADVault/app/apperror"
	"github.com/mohdfarhan01/ACADVault/app/model"
)

// Verify transitions a pending activity to verified and returns the updated
// copy. The credential is attached by the caller before the commit so that
// status, reviewer fields, points and credential land in one write.
func Verify(ref model.ActivityRef, reviewerID uuid.UUID, notes string, points int, expectedVersion int64, now time.Time) (model.ActivityRef, error) {
	if err := checkTransition(ref, reviewerID, expectedVersion); err != nil {
		return ref, err
	}
	if points < 0 || points > model.MaxPoints {
		return ref, apperror.Validation(fmt.Sprintf("points must be between 0 and %d", model.MaxPoints))
	}

	ref.Status = model.StatusVerified
	ref.ReviewerID = &reviewerID
	ref.VerificationNotes = notes
	ref.AwardedPoints = points
	ref.Version++
	ref.UpdatedAt = now
	return ref, nil
}

// Reject transitions a pending activity to rejected. No credential, no
// points.
func Reject(ref model.ActivityRef, reviewerID uuid.UUID, notes string, expectedVersion int64, now time.Time) (model.ActivityRef, error) {
	if err := checkTransition(ref, reviewerID, expectedVersion); err != nil {
		return ref, err
	}

	ref.Status = model.StatusRejected
	ref.ReviewerID = &reviewerID
	ref.VerificationNotes = notes
	ref.Version++
	ref.UpdatedAt = now
	return ref, nil
}

func checkTransition(ref model.ActivityRef, reviewerID uuid.UUID, expectedVersion int64) error {
	if ref.Status != model.StatusPending {
		return apperror.InvalidStateTransition(string(ref.Status))
	}
	if reviewerID == ref.StudentID {
		return apperror.Unauthorized("reviewers cannot decide their own submissions")
	}
	if expectedVersion != ref.Version {
		return apperror.StaleVersion(expectedVersion, ref.Version)
	}
	return nil
}
