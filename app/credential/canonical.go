package credential

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/mohdfarhan01/ACADVault/app/model"
)

// canonicalPayload is the exact byte layout a credential signature covers.
// Field order is fixed by struct declaration order, timestamps are RFC3339
// UTC at second precision (so a database round trip cannot change them),
// and there are no floating-point fields.
type canonicalPayload struct {
	ActivityID    string `json:"activity_id"`
	OwnerID       string `json:"owner_id"`
	PayloadDigest string `json:"payload_digest"`
	ReviewerID    string `json:"reviewer_id"`
	AwardedPoints int    `json:"awarded_points"`
	IssuedAt      string `json:"issued_at"`
}

// Canonical serializes the signed fields of a verification decision.
func Canonical(activityID, ownerID uuid.UUID, payloadDigest string, reviewerID uuid.UUID, points int, issuedAt time.Time) []byte {
	p := canonicalPayload{
		ActivityID:    activityID.String(),
		OwnerID:       ownerID.String(),
		PayloadDigest: payloadDigest,
		ReviewerID:    reviewerID.String(),
		AwardedPoints: points,
		IssuedAt:      issuedAt.UTC().Truncate(time.Second).Format(time.RFC3339),
	}
	// Marshal of a flat struct of strings and ints cannot fail.
	out, _ := json.Marshal(p)
	return out
}

// payloadDigestDoc mirrors the submitted payload fields that the digest
// freezes at submission time. Document references are part of the claim, so
// they are covered too.
type payloadDigestDoc struct {
	StudentID     string              `json:"student_id"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Category      string              `json:"category"`
	Organization  string              `json:"organization"`
	DateStarted   string              `json:"date_started"`
	DateCompleted string              `json:"date_completed"`
	IsOngoing     bool                `json:"is_ongoing"`
	Location      string              `json:"location"`
	SkillsGained  []string            `json:"skills_gained"`
	Documents     []model.DocumentRef `json:"documents"`
}

// PayloadDigest computes the sha256 digest of an activity payload. It is
// stored on the reference row at submission so later signatures never depend
// on MongoDB round-trip byte stability.
func PayloadDigest(p model.ActivityPayload) string {
	doc := payloadDigestDoc{
		StudentID:    p.StudentID,
		Title:        p.Title,
		Description:  p.Description,
		Category:     p.Category,
		Organization: p.Organization,
		DateStarted:  p.DateStarted.UTC().Truncate(time.Second).Format(time.RFC3339),
		IsOngoing:    p.IsOngoing,
		Location:     p.Location,
		SkillsGained: p.SkillsGained,
		Documents:    p.Documents,
	}
	if p.DateCompleted != nil {
		doc.DateCompleted = p.DateCompleted.UTC().Truncate(time.Second).Format(time.RFC3339)
	}
	raw, _ := json.Marshal(doc)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
