package model

import (
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ActivityStatus string

const (
	StatusPending  ActivityStatus = "pending"
	StatusVerified ActivityStatus = "verified"
	StatusRejected ActivityStatus = "rejected"
)

// MaxPoints bounds reviewer-awarded points per activity.
const MaxPoints = 100

var ActivityCategories = []string{
	"achievement", "internship", "project", "event_participation",
	"competition", "certification", "publication", "workshop",
	"seminar", "hackathon", "sports", "cultural", "other",
}

// ActivityRef is the relational side of an activity: ownership, lifecycle
// state, reviewer decision and the credential issued on verification. The
// submitted payload lives in MongoDB and is referenced by MongoActivityID.
type ActivityRef struct {
	ID                 uuid.UUID      `json:"id"`
	StudentID          uuid.UUID      `json:"student_id"`
	MongoActivityID    string         `json:"mongo_activity_id"`
	Status             ActivityStatus `json:"status"`
	ReviewerID         *uuid.UUID     `json:"reviewer_id,omitempty"`
	VerificationNotes  string         `json:"verification_notes,omitempty"`
	AwardedPoints      int            `json:"awarded_points"`
	PayloadDigest      string         `json:"-"`
	Credential         *Credential    `json:"credential,omitempty"`
	Version            int64          `json:"version"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// ActivityPayload is the MongoDB document holding what the student actually
// claimed. It is immutable after submission; edits mean a new activity.
type ActivityPayload struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	StudentID     string             `bson:"studentId" json:"-"`
	Title         string             `bson:"title" json:"title"`
	Description   string             `bson:"description" json:"description"`
	Category      string             `bson:"category" json:"category"`
	Organization  string             `bson:"organization" json:"organization"`
	DateStarted   time.Time          `bson:"dateStarted" json:"date_started"`
	DateCompleted *time.Time         `bson:"dateCompleted,omitempty" json:"date_completed,omitempty"`
	IsOngoing     bool               `bson:"isOngoing" json:"is_ongoing"`
	Location      string             `bson:"location,omitempty" json:"location,omitempty"`
	SkillsGained  []string           `bson:"skillsGained,omitempty" json:"skills_gained,omitempty"`
	Documents     []DocumentRef      `bson:"documents,omitempty" json:"documents,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"-"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"-"`
}

// DocumentRef points at an externally stored document. The engine never
// reads document bytes.
type DocumentRef struct {
	FileName string `bson:"fileName" json:"file_name"`
	FileURL  string `bson:"fileUrl" json:"file_url"`
	FileType string `bson:"fileType" json:"file_type"`
}

type CreateActivityRequest struct {
	Title         string        `json:"title" validate:"required,max=200"`
	Description   string        `json:"description" validate:"required"`
	Category      string        `json:"category" validate:"required,oneof=achievement internship project event_participation competition certification publication workshop seminar hackathon sports cultural other"`
	Organization  string        `json:"organization" validate:"required,max=200"`
	DateStarted   string        `json:"date_started" validate:"required"`
	DateCompleted string        `json:"date_completed,omitempty"`
	IsOngoing     bool          `json:"is_ongoing"`
	Location      string        `json:"location,omitempty"`
	SkillsGained  []string      `json:"skills_gained,omitempty"`
	Documents     []DocumentRef `json:"documents,omitempty"`
}

type VerifyRequest struct {
	Notes           string `json:"notes"`
	Points          int    `json:"points" validate:"min=0,max=100"`
	ExpectedVersion int64  `json:"expectedVersion" validate:"min=0"`
}

type RejectRequest struct {
	Notes           string `json:"notes" validate:"required"`
	ExpectedVersion int64  `json:"expectedVersion" validate:"min=0"`
}

type ScanRequest struct {
	ReferenceToken string `json:"referenceToken" validate:"required"`
}

// ActivityResponse joins the reference row with its payload document.
// CredentialValid is populated on every read path that serves a credential;
// false means the stored signature no longer matches the record.
type ActivityResponse struct {
	ID                uuid.UUID      `json:"id"`
	StudentID         uuid.UUID      `json:"student_id"`
	StudentName       string         `json:"student_name,omitempty"`
	Status            ActivityStatus `json:"status"`
	Title             string         `json:"title"`
	Description       string         `json:"description"`
	Category          string         `json:"category"`
	Organization      string         `json:"organization"`
	DateStarted       time.Time      `json:"date_started"`
	DateCompleted     *time.Time     `json:"date_completed,omitempty"`
	IsOngoing         bool           `json:"is_ongoing"`
	Location          string         `json:"location,omitempty"`
	SkillsGained      []string       `json:"skills_gained,omitempty"`
	Documents         []DocumentRef  `json:"documents,omitempty"`
	VerificationNotes string         `json:"verification_notes,omitempty"`
	AwardedPoints     int            `json:"awarded_points"`
	Credential        *Credential    `json:"credential,omitempty"`
	CredentialValid   *bool          `json:"credential_valid,omitempty"`
	Version           int64          `json:"version"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// ScanResponse is the public view behind a QR lookup. Student identity is
// included only when the owner's portfolio is public.
type ScanResponse struct {
	Activity        ActivityResponse `json:"activity"`
	CredentialValid bool             `json:"credential_valid"`
}
