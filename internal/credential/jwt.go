package credential

import (
	"crypto/ed25519"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// vcJWTClaims is the VC-JWT envelope: registered claims plus the credential
// payload under "vc".
type vcJWTClaims struct {
	jwt.RegisteredClaims
	VC map[string]any `json:"vc"`
}

// ExportJWT renders a credential as an EdDSA-signed JWT. The issuer DID is
// the token issuer, the holder DID the subject, and the claim set travels
// under the "vc" claim.
func (e *Engine) ExportJWT(cred *Credential, key ed25519.PrivateKey) (string, error) {
	claims := vcJWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   cred.Issuer,
			Subject:  cred.Holder,
			ID:       cred.ID.String(),
			IssuedAt: jwt.NewNumericDate(cred.IssuedAt),
		},
		VC: map[string]any{
			"@context":          []string{"https://www.w3.org/2018/credentials/v1"},
			"type":              cred.Types,
			"credentialSubject": cred.Claims,
		},
	}
	if cred.ExpiresAt != nil {
		claims.ExpiresAt = jwt.NewNumericDate(*cred.ExpiresAt)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	token.Header["kid"] = cred.Proof.VerificationMethod

	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign vc-jwt: %w", err)
	}
	return signed, nil
}

// VerifyJWT checks an exported VC-JWT against the issuer's public key and
// returns its claims. Expired tokens fail.
func VerifyJWT(tokenString string, pub ed25519.PublicKey) (*vcJWTClaims, error) {
	claims := &vcJWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return pub, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return time.Now().UTC() }),
	)
	if err != nil {
		return nil, fmt.Errorf("parse vc-jwt: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("vc-jwt is not valid")
	}
	return claims, nil
}
