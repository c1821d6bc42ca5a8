package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mohdfarhan01/ACADVault/app/apperror"
	"github.com/mohdfarhan01/ACADVault/app/credential"
	"github.com/mohdfarhan01/ACADVault/app/model"
)

type ActivityRepository interface {
	Create(ctx context.Context, studentID uuid.UUID, req model.CreateActivityRequest) (*model.ActivityResponse, error)
	FindRefByID(ctx context.Context, id uuid.UUID) (*model.ActivityRef, error)
	FindRefByToken(ctx context.Context, token string) (*model.ActivityRef, error)
	FindRefsByStudent(ctx context.Context, studentID uuid.UUID) ([]model.ActivityRef, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.ActivityResponse, error)
	FindPending(ctx context.Context) ([]model.ActivityResponse, error)
	FindByStudent(ctx context.Context, studentID uuid.UUID, verifiedOnly bool) ([]model.ActivityResponse, error)
	// CommitTransition persists a lifecycle decision with a compare-and-swap
	// on the version column. Status, reviewer fields, points and credential
	// commit in one statement or not at all.
	CommitTransition(ctx context.Context, ref model.ActivityRef, expectedVersion int64) error
	TokenInUse(ctx context.Context, token string) (bool, error)
}

type ActivityRepo struct {
	pgDB    *sql.DB
	mongoDB *mongo.Database
}

var _ ActivityRepository = (*ActivityRepo)(nil)
var _ credential.TokenStore = (*ActivityRepo)(nil)

func NewActivityRepo(pgDB *sql.DB, mongoDB *mongo.Database) *ActivityRepo {
	return &ActivityRepo{pgDB: pgDB, mongoDB: mongoDB}
}

const refColumns = `ar.id, ar.student_id, ar.mongo_activity_id, ar.status, ar.reviewer_id,
	ar.verification_notes, ar.awarded_points, ar.payload_digest,
	ar.reference_token, ar.signature, ar.issued_at, ar.version, ar.created_at, ar.updated_at`

func (r *ActivityRepo) Create(ctx context.Context, studentID uuid.UUID, req model.CreateActivityRequest) (*model.ActivityResponse, error) {
	const layout = "2006-01-02"
	started, err := time.Parse(layout, req.DateStarted)
	if err != nil {
		return nil, apperror.Validation("invalid date_started, expected YYYY-MM-DD")
	}

	var completed *time.Time
	if !req.IsOngoing {
		if req.DateCompleted == "" {
			return nil, apperror.Validation("date_completed is required unless the activity is ongoing")
		}
		end, err := time.Parse(layout, req.DateCompleted)
		if err != nil {
			return nil, apperror.Validation("invalid date_completed, expected YYYY-MM-DD")
		}
		completed = &end
	}

	now := time.Now()
	payload := model.ActivityPayload{
		StudentID:     studentID.String(),
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		Organization:  req.Organization,
		DateStarted:   started,
		DateCompleted: completed,
		IsOngoing:     req.IsOngoing,
		Location:      req.Location,
		SkillsGained:  req.SkillsGained,
		Documents:     req.Documents,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	coll := r.mongoDB.Collection("activities")
	res, err := coll.InsertOne(ctx, payload)
	if err != nil {
		return nil, err
	}
	oid := res.InsertedID.(primitive.ObjectID)

	digest := credential.PayloadDigest(payload)

	query := `
		INSERT INTO activity_references (student_id, mongo_activity_id, status, payload_digest, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	var pgID uuid.UUID
	err = r.pgDB.QueryRowContext(ctx, query, studentID, oid.Hex(), model.StatusPending, digest, now, now).Scan(&pgID)
	if err != nil {
		if _, delErr := coll.DeleteOne(ctx, bson.M{"_id": oid}); delErr != nil {
			log.Println("Warning: orphaned payload document", oid.Hex(), "cleanup failed:", delErr)
		}
		return nil, err
	}

	ref := model.ActivityRef{
		ID:              pgID,
		StudentID:       studentID,
		MongoActivityID: oid.Hex(),
		Status:          model.StatusPending,
		PayloadDigest:   digest,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	payload.ID = oid
	return mapToResponse(ref, payload, ""), nil
}

func (r *ActivityRepo) FindRefByID(ctx context.Context, id uuid.UUID) (*model.ActivityRef, error) {
	query := `SELECT ` + refColumns + ` FROM activity_references ar WHERE ar.id = $1`
	ref, err := scanRef(r.pgDB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("activity")
	}
	if err != nil {
		return nil, err
	}
	return ref, nil
}

func (r *ActivityRepo) FindRefByToken(ctx context.Context, token string) (*model.ActivityRef, error) {
	query := `SELECT ` + refColumns + ` FROM activity_references ar WHERE ar.reference_token = $1`
	ref, err := scanRef(r.pgDB.QueryRowContext(ctx, query, token))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("credential")
	}
	if err != nil {
		return nil, err
	}
	return ref, nil
}

func (r *ActivityRepo) FindRefsByStudent(ctx context.Context, studentID uuid.UUID) ([]model.ActivityRef, error) {
	query := `SELECT ` + refColumns + ` FROM activity_references ar WHERE ar.student_id = $1 ORDER BY ar.created_at DESC`
	rows, err := r.pgDB.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refs := []model.ActivityRef{}
	for rows.Next() {
		ref, err := scanRef(rows)
		if err != nil {
			return nil, err
		}
		refs = append(refs, *ref)
	}
	return refs, rows.Err()
}

func (r *ActivityRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ActivityResponse, error) {
	query := `
		SELECT ` + refColumns + `, u.full_name
		FROM activity_references ar
		JOIN users u ON u.id = ar.student_id
		WHERE ar.id = $1`

	row := r.pgDB.QueryRowContext(ctx, query, id)
	ref, name, err := scanRefWithName(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("activity")
	}
	if err != nil {
		return nil, err
	}

	payload, err := r.findPayload(ctx, ref.MongoActivityID)
	if err != nil {
		return nil, err
	}
	return mapToResponse(*ref, *payload, name), nil
}

func (r *ActivityRepo) FindPending(ctx context.Context) ([]model.ActivityResponse, error) {
	query := `
		SELECT ` + refColumns + `, u.full_name
		FROM activity_references ar
		JOIN users u ON u.id = ar.student_id
		WHERE ar.status = $1
		ORDER BY ar.created_at ASC`

	return r.queryResponses(ctx, query, model.StatusPending)
}

func (r *ActivityRepo) FindByStudent(ctx context.Context, studentID uuid.UUID, verifiedOnly bool) ([]model.ActivityResponse, error) {
	query := `
		SELECT ` + refColumns + `, u.full_name
		FROM activity_references ar
		JOIN users u ON u.id = ar.student_id
		WHERE ar.student_id = $1`
	args := []interface{}{studentID}
	if verifiedOnly {
		query += ` AND ar.status = $2`
		args = append(args, model.StatusVerified)
	}
	query += ` ORDER BY ar.created_at DESC`

	return r.queryResponses(ctx, query, args...)
}

func (r *ActivityRepo) CommitTransition(ctx context.Context, ref model.ActivityRef, expectedVersion int64) error {
	var token, signature, issuedAt interface{}
	if ref.Credential != nil {
		token = ref.Credential.ReferenceToken
		signature = ref.Credential.Signature
		issuedAt = ref.Credential.IssuedAt
	}

	query := `
		UPDATE activity_references
		SET status = $1, reviewer_id = $2, verification_notes = $3, awarded_points = $4,
		    reference_token = $5, signature = $6, issued_at = $7, version = $8, updated_at = $9
		WHERE id = $10 AND version = $11 AND status = $12`

	res, err := r.pgDB.ExecContext(ctx, query,
		ref.Status, ref.ReviewerID, ref.VerificationNotes, ref.AwardedPoints,
		token, signature, issuedAt, ref.Version, ref.UpdatedAt,
		ref.ID, expectedVersion, model.StatusPending,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}

	// Lost the race, or the row vanished. Read back to tell the caller which.
	current, err := r.FindRefByID(ctx, ref.ID)
	if err != nil {
		return err
	}
	return apperror.StaleVersion(expectedVersion, current.Version)
}

func (r *ActivityRepo) TokenInUse(ctx context.Context, token string) (bool, error) {
	var exists bool
	err := r.pgDB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM activity_references WHERE reference_token = $1)`, token,
	).Scan(&exists)
	return exists, err
}

func (r *ActivityRepo) queryResponses(ctx context.Context, query string, args ...interface{}) ([]model.ActivityResponse, error) {
	rows, err := r.pgDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []refWithName
	for rows.Next() {
		ref, name, err := scanRefWithName(rows)
		if err != nil {
			return nil, err
		}
		refs = append(refs, refWithName{ref: *ref, name: name})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return []model.ActivityResponse{}, nil
	}

	var oids []primitive.ObjectID
	for _, rw := range refs {
		oid, err := primitive.ObjectIDFromHex(rw.ref.MongoActivityID)
		if err != nil {
			return nil, fmt.Errorf("invalid payload reference on activity %s: %w", rw.ref.ID, err)
		}
		oids = append(oids, oid)
	}

	coll := r.mongoDB.Collection("activities")
	cursor, err := coll.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	payloads := map[string]model.ActivityPayload{}
	for cursor.Next(ctx) {
		var doc model.ActivityPayload
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		payloads[doc.ID.Hex()] = doc
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return joinPayloads(refs, payloads)
}

type refWithName struct {
	ref  model.ActivityRef
	name string
}

// joinPayloads pairs each reference row with its payload document. A row
// whose document is absent is corruption and fails the whole read: dropping
// it would make lists diverge from the portfolio counts.
func joinPayloads(refs []refWithName, payloads map[string]model.ActivityPayload) ([]model.ActivityResponse, error) {
	results := make([]model.ActivityResponse, 0, len(refs))
	for _, rw := range refs {
		payload, ok := payloads[rw.ref.MongoActivityID]
		if !ok {
			return nil, fmt.Errorf("payload document missing for activity %s", rw.ref.ID)
		}
		results = append(results, *mapToResponse(rw.ref, payload, rw.name))
	}
	return results, nil
}

func (r *ActivityRepo) findPayload(ctx context.Context, mongoID string) (*model.ActivityPayload, error) {
	oid, err := primitive.ObjectIDFromHex(mongoID)
	if err != nil {
		return nil, errors.New("invalid payload reference")
	}

	var payload model.ActivityPayload
	coll := r.mongoDB.Collection("activities")
	if err := coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&payload); err != nil {
		return nil, errors.New("payload document missing in NoSQL")
	}
	return &payload, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRef(row rowScanner) (*model.ActivityRef, error) {
	var ref model.ActivityRef
	var reviewerID uuid.NullUUID
	var token sql.NullString
	var signature []byte
	var issuedAt sql.NullTime

	err := row.Scan(
		&ref.ID, &ref.StudentID, &ref.MongoActivityID, &ref.Status, &reviewerID,
		&ref.VerificationNotes, &ref.AwardedPoints, &ref.PayloadDigest,
		&token, &signature, &issuedAt, &ref.Version, &ref.CreatedAt, &ref.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if reviewerID.Valid {
		ref.ReviewerID = &reviewerID.UUID
	}
	if token.Valid {
		ref.Credential = &model.Credential{
			ReferenceToken: token.String,
			Signature:      signature,
		}
		if issuedAt.Valid {
			ref.Credential.IssuedAt = issuedAt.Time
		}
	}
	return &ref, nil
}

func scanRefWithName(row rowScanner) (*model.ActivityRef, string, error) {
	var ref model.ActivityRef
	var reviewerID uuid.NullUUID
	var token sql.NullString
	var signature []byte
	var issuedAt sql.NullTime
	var fullName sql.NullString

	err := row.Scan(
		&ref.ID, &ref.StudentID, &ref.MongoActivityID, &ref.Status, &reviewerID,
		&ref.VerificationNotes, &ref.AwardedPoints, &ref.PayloadDigest,
		&token, &signature, &issuedAt, &ref.Version, &ref.CreatedAt, &ref.UpdatedAt,
		&fullName,
	)
	if err != nil {
		return nil, "", err
	}

	if reviewerID.Valid {
		ref.ReviewerID = &reviewerID.UUID
	}
	if token.Valid {
		ref.Credential = &model.Credential{
			ReferenceToken: token.String,
			Signature:      signature,
		}
		if issuedAt.Valid {
			ref.Credential.IssuedAt = issuedAt.Time
		}
	}
	return &ref, fullName.String, nil
}

func mapToResponse(ref model.ActivityRef, payload model.ActivityPayload, studentName string) *model.ActivityResponse {
	return &model.ActivityResponse{
		ID:                ref.ID,
		StudentID:         ref.StudentID,
		StudentName:       studentName,
		Status:            ref.Status,
		Title:             payload.Title,
		Description:       payload.Description,
		Category:          payload.Category,
		Organization:      payload.Organization,
		DateStarted:       payload.DateStarted,
		DateCompleted:     payload.DateCompleted,
		IsOngoing:         payload.IsOngoing,
		Location:          payload.Location,
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
