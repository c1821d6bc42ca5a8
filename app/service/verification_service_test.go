package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohdfarhan01/ACADVault/app/apperror"
	"github.com/mohdfarhan01/ACADVault/app/credential"
	"github.com/mohdfarhan01/ACADVault/app/model"
	"github.com/mohdfarhan01/ACADVault/app/signer"
)

func TestVerifyHackathonScenario(t *testing.T) {
	h := newHarness(t)
	student := uuid.New()
	faculty := uuid.New()
	ref := h.submit(t, student, "Hackathon Win")

	updated, err := h.gateway.verify(context.Background(), faculty, model.RoleFaculty, ref.ID,
		model.VerifyRequest{Notes: "Confirmed", Points: 15, ExpectedVersion: 0})
	require.NoError(t, err)

	assert.Equal(t, model.StatusVerified, updated.Status)
	assert.Equal(t, 15, updated.AwardedPoints)
	assert.Equal(t, faculty, *updated.ReviewerID)
	require.NotNil(t, updated.Credential)
	assert.NotEmpty(t, updated.Credential.ReferenceToken)
	assert.True(t, h.issuer.VerifyCredential(*updated))

	stored, err := h.activities.FindRefByID(context.Background(), ref.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusVerified, stored.Status)
	assert.Equal(t, int64(1), stored.Version)

	portfolio, err := h.portfolios.Find(context.Background(), student)
	require.NoError(t, err)
	assert.Equal(t, 15, portfolio.Stats.TotalPoints)
	assert.Equal(t, 1, portfolio.Stats.VerifiedCount)
	assert.Equal(t, 0, portfolio.Stats.PendingCount)
}

func TestRejectScenario(t *testing.T) {
	h := newHarness(t)
	student := uuid.New()
	faculty := uuid.New()
	ref := h.submit(t, student, "Unproven Claim")

	updated, err := h.gateway.reject(context.Background(), faculty, model.RoleFaculty, ref.ID,
		model.RejectRequest{Notes: "No evidence", ExpectedVersion: 0})
	require.NoError(t, err)

	assert.Equal(t, model.StatusRejected, updated.Status)
	assert.Nil(t, updated.Credential)
	assert.Zero(t, updated.AwardedPoints)

	portfolio, err := h.portfolios.Find(context.Background(), student)
	require.NoError(t, err)
	assert.Equal(t, 1, portfolio.Stats.RejectedCount)
	assert.Zero(t, portfolio.Stats.TotalPoints)
}

func TestVerifyAlreadyDecided(t *testing.T) {
	h := newHarness(t)
	student := uuid.New()
	faculty := uuid.New()
	ref := h.submit(t, student, "Decided")

	_, err := h.gateway.reject(context.Background(), faculty, model.RoleFaculty, ref.ID,
		model.RejectRequest{Notes: "no", ExpectedVersion: 0})
	require.NoError(t, err)
	before, _ := h.portfolios.Find(context.Background(), student)

	_, err = h.gateway.verify(context.Background(), faculty, model.RoleFaculty, ref.ID,
		model.VerifyRequest{Notes: "changed my mind", Points: 10, ExpectedVersion: 1})
	assert.True(t, errors.Is(err, apperror.ErrInvalidStateTransition))

	stored, _ := h.activities.FindRefByID(context.Background(), ref.ID)
	assert.Equal(t, model.StatusRejected, stored.Status)
	assert.Nil(t, stored.Credential)

	after, _ := h.portfolios.Find(context.Background(), student)
	assert.Equal(t, before.Stats, after.Stats)
}

func TestVerifyRequiresReviewerCapability(t *testing.T) {
	h := newHarness(t)
	ref := h.submit(t, uuid.New(), "Anything")

	for _, role := range []model.Role{model.RoleStudent, model.RoleRecruiter} {
		_, err := h.gateway.verify(context.Background(), uuid.New(), role, ref.ID,
			model.VerifyRequest{Points: 5, ExpectedVersion: 0})
		assert.True(t, errors.Is(err, apperror.ErrUnauthorized), "role %s", role)
	}
}

func TestSelfVerificationBlocked(t *testing.T) {
	h := newHarness(t)
	// A faculty member submitting an activity cannot decide it themselves.
	facultyOwner := uuid.New()
	ref := h.submit(t, facultyOwner, "My Own Workshop")

	_, err := h.gateway.verify(context.Background(), facultyOwner, model.RoleFaculty, ref.ID,
		model.VerifyRequest{Points: 5, ExpectedVersion: 0})
	assert.True(t, errors.Is(err, apperror.ErrUnauthorized))

	stored, _ := h.activities.FindRefByID(context.Background(), ref.ID)
	assert.Equal(t, model.StatusPending, stored.Status)
}

func TestConcurrentVerifyExactlyOneWins(t *testing.T) {
	h := newHarness(t)
	student := uuid.New()
	ref := h.submit(t, student, "Contested")

	reviewers := []uuid.UUID{uuid.New(), uuid.New()}
	errs := make([]error, len(reviewers))

	var wg sync.WaitGroup
	for i, reviewer := range reviewers {
		wg.Add(1)
		go func(i int, reviewer uuid.UUID) {
			defer wg.Done()
			_, errs[i] = h.gateway.verify(context.Background(), reviewer, model.RoleFaculty, ref.ID,
				model.VerifyRequest{Notes: "mine", Points: 10, ExpectedVersion: 0})
		}(i, reviewer)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		// The loser sees a stale version when its read predates the
		// winner's commit, or an invalid transition when it reads after.
		conflict := errors.Is(err, apperror.ErrStaleVersion) || errors.Is(err, apperror.ErrInvalidStateTransition)
		assert.True(t, conflict, "loser must see a conflict, got %v", err)
	}
	assert.Equal(t, 1, winners)

	stored, _ := h.activities.FindRefByID(context.Background(), ref.ID)
	assert.Equal(t, model.StatusVerified, stored.Status)
	assert.Equal(t, int64(1), stored.Version)
	require.NotNil(t, stored.Credential)

	portfolio, _ := h.portfolios.Find(context.Background(), student)
	assert.Equal(t, 10, portfolio.Stats.TotalPoints)
	assert.Equal(t, 1, portfolio.Stats.VerifiedCount)
}

func TestStaleVersionFromOutdatedClient(t *testing.T) {
	h := newHarness(t)
	ref := h.submit(t, uuid.New(), "Stale Read")

	_, err := h.gateway.verify(context.Background(), uuid.New(), model.RoleFaculty, ref.ID,
		model.VerifyRequest{Points: 5, ExpectedVersion: 7})
	assert.True(t, errors.Is(err, apperror.ErrStaleVersion))
}

func TestIssuanceFailureLeavesActivityPending(t *testing.T) {
	h := newHarness(t)
	ref := h.submit(t, uuid.New(), "Unsignable")

	// Gateway wired to a signer with no key: issuance must fail and the
	// transition must not commit.
	var dead *signer.Signer
	brokenIssuer := credential.NewIssuer(dead, h.activities)
	gateway := NewVerificationService(h.activities, h.portfolios, brokenIssuer, h.portfolio)

	_, err := gateway.verify(context.Background(), uuid.New(), model.RoleFaculty, ref.ID,
		model.VerifyRequest{Points: 5, ExpectedVersion: 0})
	assert.True(t, errors.Is(err, apperror.ErrSigningUnavailable))

	stored, _ := h.activities.FindRefByID(context.Background(), ref.ID)
	assert.Equal(t, model.StatusPending, stored.Status)
	assert.Equal(t, int64(0), stored.Version)
	assert.Nil(t, stored.Credential)
}

func TestScanRoundTrip(t *testing.T) {
	h := newHarness(t)
	student := uuid.New()
	ref := h.submit(t, student, "Scannable")

	updated, err := h.gateway.verify(context.Background(), uuid.New(), model.RoleFaculty, ref.ID,
		model.VerifyRequest{Points: 20, ExpectedVersion: 0})
	require.NoError(t, err)

	// QR artifact carries exactly the reference token; resolving it must
	// return the activity that produced the credential.
	res, err := h.gateway.scan(context.Background(), updated.Credential.ReferenceToken)
	require.NoError(t, err)
	assert.Equal(t, ref.ID, res.Activity.ID)
	assert.True(t, res.CredentialValid)

	// Private portfolio: identity is redacted.
	assert.Empty(t, res.Activity.StudentName)

	require.NoError(t, h.portfolios.SetVisibility(context.Background(), student, model.VisibilityPublic))
	res, err = h.gateway.scan(context.Background(), updated.Credential.ReferenceToken)
	require.NoError(t, err)
	assert.Equal(t, "Test Student", res.Activity.StudentName)
}

func TestScanUnknownTokenIsGenericNotFound(t *testing.T) {
	h := newHarness(t)

	_, err := h.gateway.scan(context.Background(), "no-such-token")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestScanRejectsTokenOnUndecidedActivity(t *testing.T) {
	h := newHarness(t)
	student := uuid.New()
	ref := h.submit(t, student, "Corrupt Row")

	// A reference token on a pending row cannot come from issuance; the
	// record is corrupt and must not be served as a credential.
	h.activities.mu.Lock()
	corrupt := h.activities.refs[ref.ID]
	corrupt.Credential = &model.Credential{ReferenceToken: "forged-token"}
	h.activities.refs[ref.ID] = corrupt
	h.activities.mu.Unlock()

	_, err := h.gateway.scan(context.Background(), "forged-token")
	assert.True(t, errors.Is(err, apperror.ErrCredentialInvalid))
}

func TestScanFlagsTamperedCredential(t *testing.T) {
	h := newHarness(t)
	student := uuid.New()
	ref := h.submit(t, student, "Tampered")

	updated, err := h.gateway.verify(context.Background(), uuid.New(), model.RoleFaculty, ref.ID,
		model.VerifyRequest{Points: 20, ExpectedVersion: 0})
	require.NoError(t, err)

	// Corrupt the stored points behind the signature's back.
	h.activities.mu.Lock()
	tampered := h.activities.refs[ref.ID]
	tampered.AwardedPoints = 99
	h.activities.refs[ref.ID] = tampered
	h.activities.mu.Unlock()

	res, err := h.gateway.scan(context.Background(), updated.Credential.ReferenceToken)
	require.NoError(t, err)
	assert.False(t, res.CredentialValid, "tampering must be reported, not hidden")
}
