package auth

import (
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// bearerScheme is the only accepted authorization scheme.
const bearerScheme = "bearer "

// algRS256 is the only accepted signature algorithm.
const algRS256 = "RS256"

// Claims is the decoded token payload. Values are returned exactly as
// carried by the token; nothing is rewritten on success.
type Claims struct {
	Issuer    string   `json:"iss"`
	Subject   string   `json:"sub"`
	Audience  Audience `json:"aud"`
	IssuedAt  int64    `json:"iat"`
	ExpiresAt int64    `json:"exp"`
}

// Audience is the token's aud claim. Identity providers emit it as a
// single string or as an array of strings; both forms decode to the
// slice.
type Audience []string

func (a *Audience) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*a = Audience{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*a = Audience(many)
	return nil
}

// tokenHeader is the decoded header segment of a compact token.
type tokenHeader struct {
	Typ string `json:"typ"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
}

// Verifier validates bearer tokens against remotely published signing
// keys.
type Verifier struct {
	resolver KeyResolver
	now      func() time.Time
}

// NewVerifier creates a Verifier backed by the given key resolver.
func NewVerifier(resolver KeyResolver) *Verifier {
	return &Verifier{
		resolver: resolver,
		now:      time.Now,
	}
}

// VerifyAuthorizationHeader validates a raw Authorization header value
// and returns the verified claims. The header must carry the bearer
// scheme; the token must be well-formed, signed with RS256 by a key
// present in the resolved key set, and not expired.
func (v *Verifier) VerifyAuthorizationHeader(ctx context.Context, header string) (*Claims, error) {
	token, err := bearerToken(header)
	if err != nil {
		return nil, err
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, ErrMalformedToken
	}

	hdr, err := decodeHeader(parts[0])
	if err != nil {
		return nil, err
	}
	if hdr.Alg != algRS256 {
		return nil, fmt.Errorf("%w: algorithm %q not allowed", ErrInvalidSignature, hdr.Alg)
	}

	key, err := v.resolver.ResolveKey(ctx, hdr.Kid)
	if err != nil {
		switch {
		case errors.Is(err, ErrKeyNotFound), errors.Is(err, ErrNoUsableKeys), errors.Is(err, ErrKeyResolutionFailed):
			return nil, err
		default:
			return nil, fmt.Errorf("%w: %v", ErrKeyResolutionFailed, err)
		}
	}

	pub, err := key.RSAPublicKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyResolutionFailed, err)
	}

	if err := verifySignature(parts, pub); err != nil {
		return nil, err
	}

	claims, err := decodeClaims(parts[1])
	if err != nil {
		return nil, err
	}

	if claims.ExpiresAt != 0 && v.now().Unix() >= claims.ExpiresAt {
		return nil, ErrTokenExpired
	}

	return claims, nil
}

// bearerToken extracts the compact token from the header value. The
// scheme prefix is matched case-insensitively.
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingHeader
	}
	if !strings.HasPrefix(strings.ToLower(header), bearerScheme) {
		return "", ErrMalformedHeader
	}

	split := strings.SplitN(header, " ", 2)
	return split[1], nil
}

// decodeHeader decodes the base64url header segment.
func decodeHeader(segment string) (*tokenHeader, error) {
	raw, err := base64.RawURLEncoding.DecodeString(segment)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	var hdr tokenHeader
	if err := json.Unmarshal(raw, &hdr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	return &hdr, nil
}

// decodeClaims decodes the base64url payload segment.
func decodeClaims(segment string) (*Claims, error) {
	raw, err := base64.RawURLEncoding.DecodeString(segment)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	var claims Claims
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	return &claims, nil
}

// verifySignature checks the RS256 signature over the signing input
// (header dot payload) of the original compact token.
func verifySignature(parts []string, pub *rsa.PublicKey) error {
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	hashed := sha256.Sum256([]byte(parts[0] + "." + parts[1]))
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, hashed[:], sig); err != nil {
		return ErrInvalidSignature
	}

	return nil
}
