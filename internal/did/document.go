package did

import "encoding/json"

// Document is a W3C-shaped DID document rendered from a Record.
type Document struct {
	Context            []string             `json:"@context"`
	ID                 string               `json:"id"`
	VerificationMethod []VerificationMethod `json:"verificationMethod"`
	Authentication     []string             `json:"authentication"`
	AssertionMethod    []string             `json:"assertionMethod"`
}

// VerificationMethod is a single verification method in a DID document.
type VerificationMethod struct {
	ID           string          `json:"id"`
	Type         string          `json:"type"`
	Controller   string          `json:"controller"`
	PublicKeyJwk json.RawMessage `json:"publicKeyJwk"`
}

// RenderDocument renders the DID document for a record.
func RenderDocument(r *Record) *Document {
	vmID := r.DID + "#key-1"
	return &Document{
		Context: []string{
			"https://www.w3.org/ns/did/v1",
			"https://w3id.org/security/suites/jws-2020/v1",
		},
		ID: r.DID,
		VerificationMethod: []VerificationMethod{{
			ID:           vmID,
			Type:         "JsonWebKey2020",
			Controller:   r.DID,
			PublicKeyJwk: json.RawMessage(r.PublicKeyJWK),
		}},
		Authentication:  []string{vmID},
		AssertionMethod: []string{vmID},
	}
}
