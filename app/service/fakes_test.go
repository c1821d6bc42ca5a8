package service

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mohdfarhan01/ACADVault/app/apperror"
	"github.com/mohdfarhan01/ACADVault/app/credential"
	"github.com/mohdfarhan01/ACADVault/app/model"
	"github.com/mohdfarhan01/ACADVault/app/signer"
)

// fakeActivityStore is an in-memory ActivityRepository. CommitTransition
// does a mutex-guarded compare-and-swap, mirroring the conditional UPDATE
// the Postgres repo issues.
type fakeActivityStore struct {
	mu       sync.Mutex
	refs     map[uuid.UUID]model.ActivityRef
	payloads map[uuid.UUID]model.ActivityPayload
	names    map[uuid.UUID]string
}

func newFakeActivityStore() *fakeActivityStore {
	return &fakeActivityStore{
		refs:     map[uuid.UUID]model.ActivityRef{},
		payloads: map[uuid.UUID]model.ActivityPayload{},
		names:    map[uuid.UUID]string{},
	}
}

func (f *fakeActivityStore) add(ref model.ActivityRef, payload model.ActivityPayload, studentName string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refs[ref.ID] = ref
	f.payloads[ref.ID] = payload
	f.names[ref.StudentID] = studentName
}

func (f *fakeActivityStore) Create(_ context.Context, studentID uuid.UUID, req model.CreateActivityRequest) (*model.ActivityResponse, error) {
	started, err := time.Parse("2006-01-02", req.DateStarted)
	if err != nil {
		return nil, apperror.Validation("invalid date_started")
	}
	payload := model.ActivityPayload{
		StudentID:    studentID.String(),
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Organization: req.Organization,
		DateStarted:  started,
		IsOngoing:    req.IsOngoing,
		SkillsGained: req.SkillsGained,
		Documents:    req.Documents,
	}
	ref := model.ActivityRef{
		ID:            uuid.New(),
		StudentID:     studentID,
		Status:        model.StatusPending,
		PayloadDigest: credential.PayloadDigest(payload),
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	f.add(ref, payload, f.names[studentID])
	return f.toResponse(ref), nil
}

func (f *fakeActivityStore) FindRefByID(_ context.Context, id uuid.UUID) (*model.ActivityRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ref, ok := f.refs[id]
	if !ok {
		return nil, apperror.NotFound("activity")
	}
	cp := ref
	return &cp, nil
}

func (f *fakeActivityStore) FindRefByToken(_ context.Context, token string) (*model.ActivityRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ref := range f.refs {
		if ref.Credential != nil && ref.Credential.ReferenceToken == token {
			cp := ref
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("credential")
}

func (f *fakeActivityStore) FindRefsByStudent(_ context.Context, studentID uuid.UUID) ([]model.ActivityRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	refs := []model.ActivityRef{}
	for _, ref := range f.refs {
		if ref.StudentID == studentID {
			refs = append(refs, ref)
		}
	}
	return refs, nil
}

func (f *fakeActivityStore) FindByID(_ context.Context, id uuid.UUID) (*model.ActivityResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ref, ok := f.refs[id]
	if !ok {
		return nil, apperror.NotFound("activity")
	}
	return f.toResponse(ref), nil
}

func (f *fakeActivityStore) FindPending(_ context.Context) ([]model.ActivityResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.ActivityResponse{}
	for _, ref := range f.refs {
		if ref.Status == model.StatusPending {
			out = append(out, *f.toResponse(ref))
		}
	}
	return out, nil
}

func (f *fakeActivityStore) FindByStudent(_ context.Context, studentID uuid.UUID, verifiedOnly bool) ([]model.ActivityResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.ActivityResponse{}
	for _, ref := range f.refs {
		if ref.StudentID != studentID {
			continue
		}
		if verifiedOnly && ref.Status != model.StatusVerified {
			continue
		}
		out = append(out, *f.toResponse(ref))
	}
	return out, nil
}

func (f *fakeActivityStore) CommitTransition(_ context.Context, ref model.ActivityRef, expectedVersion int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.refs[ref.ID]
	if !ok {
		return apperror.NotFound("activity")
	}
	if current.Status != model.StatusPending || current.Version != expectedVersion {
		return apperror.StaleVersion(expectedVersion, current.Version)
	}
	f.refs[ref.ID] = ref
	return nil
}

func (f *fakeActivityStore) TokenInUse(_ context.Context, token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ref := range f.refs {
		if ref.Credential != nil && ref.Credential.ReferenceToken == token {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeActivityStore) toResponse(ref model.ActivityRef) *model.ActivityResponse {
	payload := f.payloads[ref.ID]
	return &model.ActivityResponse{
		ID:                ref.ID,
		StudentID:         ref.StudentID,
		StudentName:       f.names[ref.StudentID],
		Status:            ref.Status,
		Title:             payload.Title,
		Description:       payload.Description,
		Category:          payload.Category,
		Organization:      payload.Organization,
		DateStarted:       payload.DateStarted,
		DateCompleted:     payload.DateCompleted,
		IsOngoing:         payload.IsOngoing,
		SkillsGained:      payload.SkillsGained,
		Documents:         payload.Documents,
		VerificationNotes: ref.VerificationNotes,
		AwardedPoints:     ref.AwardedPoints,
		Credential:        ref.Credential,
		Version:           ref.Version,
		CreatedAt:         ref.CreatedAt,
		UpdatedAt:         ref.UpdatedAt,
	}
}

type fakePortfolioStore struct {
	mu         sync.Mutex
	stats      map[uuid.UUID]model.PortfolioStats
	visibility map[uuid.UUID]model.Visibility
	recomputed map[uuid.UUID]time.Time
}

func newFakePortfolioStore() *fakePortfolioStore {
	return &fakePortfolioStore{
		stats:      map[uuid.UUID]model.PortfolioStats{},
		visibility: map[uuid.UUID]model.Visibility{},
		recomputed: map[uuid.UUID]time.Time{},
	}
}

func (f *fakePortfolioStore) Find(_ context.Context, studentID uuid.UUID) (*model.Portfolio, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &model.Portfolio{
		StudentID:  studentID,
		Visibility: f.visibilityLocked(studentID),
		Stats:      f.stats[studentID],
	}
	if at, ok := f.recomputed[studentID]; ok {
		p.LastRecomputedAt = &at
	}
	return p, nil
}

func (f *fakePortfolioStore) UpsertStats(_ context.Context, studentID uuid.UUID, stats model.PortfolioStats, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stats[studentID] = stats
	f.recomputed[studentID] = at
	return nil
}

func (f *fakePortfolioStore) SetVisibility(_ context.Context, studentID uuid.UUID, v model.Visibility) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visibility[studentID] = v
	return nil
}

func (f *fakePortfolioStore) Visibility(_ context.Context, studentID uuid.UUID) (model.Visibility, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visibilityLocked(studentID), nil
}

func (f *fakePortfolioStore) visibilityLocked(studentID uuid.UUID) model.Visibility {
	if v, ok := f.visibility[studentID]; ok {
		return v
	}
	return model.VisibilityPrivate
}

type fakeUserStore struct {
	users map[uuid.UUID]model.User
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := u
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("user")
}

func (f *fakeUserStore) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user")
	}
	cp := u
	return &cp, nil
}

// testHarness wires the real services to in-memory stores and a real signer.
type testHarness struct {
	activities *fakeActivityStore
	portfolios *fakePortfolioStore
	users      *fakeUserStore
	issuer     *credential.Issuer
	portfolio  *PortfolioService
	gateway    *VerificationService
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	sgn, err := signer.New(bytes.Repeat([]byte{9}, 32))
	require.NoError(t, err)

	activities := newFakeActivityStore()
	portfolios := newFakePortfolioStore()
	users := &fakeUserStore{users: map[uuid.UUID]model.User{}}
	issuer := credential.NewIssuer(sgn, activities)
	portfolio := NewPortfolioService(activities, portfolios, users, issuer)
	gateway := NewVerificationService(activities, portfolios, issuer, portfolio)

	return &testHarness{
		activities: activities,
		portfolios: portfolios,
		users:      users,
		issuer:     issuer,
		portfolio:  portfolio,
		gateway:    gateway,
	}
}

func (h *testHarness) submit(t *testing.T, studentID uuid.UUID, title string) model.ActivityRef {
	t.Helper()
	payload := model.ActivityPayload{
		StudentID:    studentID.String(),
		Title:        title,
		Description:  "test activity",
		Category:     "hackathon",
		Organization: "ACM",
		DateStarted:  time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		IsOngoing:    true,
	}
	ref := model.ActivityRef{
		ID:            uuid.New(),
		StudentID:     studentID,
		Status:        model.StatusPending,
		PayloadDigest: credential.PayloadDigest(payload),
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	h.activities.add(ref, payload, "Test Student")
	return ref
}
