package model

import "time"

// Credential is the verifiable artifact attached to a verified activity.
// ReferenceToken is the opaque string carried by the QR artifact; Signature
// covers the canonical serialization of the verified fields.
type Credential struct {
	ReferenceToken string    `json:"reference_token"`
	Signature      []byte    `json:"signature"`
	IssuedAt       time.Time `json:"issued_at"`
}
