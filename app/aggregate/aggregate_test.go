package aggregate

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/mohdfarhan01/ACADVault/app/model"
)

func ref(status model.ActivityStatus, points int, version int64) model.ActivityRef {
	return model.ActivityRef{
		ID:            uuid.New(),
		Status:        status,
		AwardedPoints: points,
		Version:       version,
	}
}

func TestComputeCounts(t *testing.T) {
	refs := []model.ActivityRef{
		ref(model.StatusVerified, 15, 1),
		ref(model.StatusVerified, 20, 1),
		ref(model.StatusPending, 0, 0),
		ref(model.StatusRejected, 0, 1),
	}

	stats := Compute(refs)

	assert.Equal(t, 4, stats.TotalActivities)
	assert.Equal(t, 2, stats.VerifiedCount)
	assert.Equal(t, 1, stats.PendingCount)
	assert.Equal(t, 1, stats.RejectedCount)
	assert.Equal(t, 35, stats.TotalPoints)
}

func TestComputeEmpty(t *testing.T) {
	stats := Compute(nil)
	assert.Zero(t, stats.TotalActivities)
	assert.Zero(t, stats.TotalPoints)
	assert.NotEmpty(t, stats.SourceChecksum)
}

func TestComputeIdempotent(t *testing.T) {
	refs := []model.ActivityRef{
		ref(model.StatusVerified, 15, 1),
		ref(model.StatusPending, 0, 0),
	}

	assert.Equal(t, Compute(refs), Compute(refs))
}

func TestChecksumOrderIndependent(t *testing.T) {
	a := ref(model.StatusVerified, 10, 1)
	b := ref(model.StatusPending, 0, 0)

	s1 := Compute([]model.ActivityRef{a, b})
	s2 := Compute([]model.ActivityRef{b, a})
	assert.Equal(t, s1.SourceChecksum, s2.SourceChecksum)
}

func TestChecksumTracksVersions(t *testing.T) {
	a := ref(model.StatusPending, 0, 0)
	before := Compute([]model.ActivityRef{a})

	a.Version = 1
	a.Status = model.StatusVerified
	a.AwardedPoints = 5
	after := Compute([]model.ActivityRef{a})

	assert.NotEqual(t, before.SourceChecksum, after.SourceChecksum)
	assert.Equal(t, 5, after.TotalPoints)
}
