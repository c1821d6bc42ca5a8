// Package credential issues and checks the verifiable artifact attached to
// verified activities: an ed25519 signature over the canonical decision
// fields plus an opaque reference token. The token is the entire QR payload;
// the frontend renders it, the scan endpoint resolves it.
package credential

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mohdfarhan01/ACADVault/app/model"
	"github.com/mohdfarhan01/ACADVault/app/signer"
)

// tokenBytes gives 128 bits of entropy per reference token.
const tokenBytes = 16

// maxTokenAttempts bounds collision retries. With 128-bit tokens a single
// retry is already vanishingly unlikely.
const maxTokenAttempts = 5

// TokenStore answers whether a reference token is already in use.
type TokenStore interface {
	TokenInUse(ctx context.Context, token string) (bool, error)
}

type Issuer struct {
	signer *signer.Signer
	tokens TokenStore
}

func NewIssuer(s *signer.Signer, tokens TokenStore) *Issuer {
	return &Issuer{signer: s, tokens: tokens}
}

// Issue builds the credential for a verify decision. The signature is
// deterministic over its canonical input; only the token and timestamp vary
// between calls.
func (i *Issuer) Issue(ctx context.Context, ref model.ActivityRef, reviewerID uuid.UUID, points int, issuedAt time.Time) (*model.Credential, error) {
	issuedAt = issuedAt.UTC().Truncate(time.Second)

	canonical := Canonical(ref.ID, ref.StudentID, ref.PayloadDigest, reviewerID, points, issuedAt)
	sig, err := i.signer.Sign(canonical)
	if err != nil {
		return nil, err
	}

	token, err := i.newReferenceToken(ctx)
	if err != nil {
		return nil, err
	}

	return &model.Credential{
		ReferenceToken: token,
		Signature:      sig,
		IssuedAt:       issuedAt,
	}, nil
}

// VerifyCredential recomputes the canonical bytes from the activity's
// current verified fields and checks the stored signature. A false result
// means the record was tampered with or corrupted; callers report it, they
// never repair it.
func (i *Issuer) VerifyCredential(ref model.ActivityRef) bool {
	if ref.Status != model.StatusVerified || ref.Credential == nil || ref.ReviewerID == nil {
		return false
	}
	canonical := Canonical(ref.ID, ref.StudentID, ref.PayloadDigest, *ref.ReviewerID, ref.AwardedPoints, ref.Credential.IssuedAt)
	return i.signer.Verify(canonical, ref.Credential.Signature)
}

func (i *Issuer) newReferenceToken(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		buf := make([]byte, tokenBytes)
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generating reference token: %w", err)
		}
		token := base64.RawURLEncoding.EncodeToString(buf)

		inUse, err := i.tokens.TokenInUse(ctx, token)
		if err != nil {
			return "", fmt.Errorf("checking reference token uniqueness: %w", err)
		}
		if !inUse {
			return token, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique reference token after %d attempts", maxTokenAttempts)
}
