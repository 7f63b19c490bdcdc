package auth

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

// mintToken builds a compact RS256 token signed with key.
func mintToken(t *testing.T, key *rsa.PrivateKey, header map[string]any, claims map[string]any) string {
	t.Helper()

	hb, err := json.Marshal(header)
	if err != nil {
		t.Fatalf("marshal header: %v", err)
	}
	pb, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("marshal claims: %v", err)
	}

	signingInput := base64.RawURLEncoding.EncodeToString(hb) + "." + base64.RawURLEncoding.EncodeToString(pb)
	hashed := sha256.Sum256([]byte(signingInput))

	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, hashed[:])
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	return signingInput + "." + base64.RawURLEncoding.EncodeToString(sig)
}

func rs256Header(kid string) map[string]any {
	return map[string]any{"typ": "JWT", "alg": "RS256", "kid": kid}
}

// verifierForKey wires a Verifier to a JWKS endpoint publishing the
// certificate for key under kid.
func verifierForKey(t *testing.T, key *rsa.PrivateKey, cert, kid string) *Verifier {
	t.Helper()

	srv := jwksServer(t, []JWK{{Kid: kid, Kty: "RSA", Use: "sig", X5c: []string{cert}}}, nil)
	return NewVerifier(NewJWKSClient(srv.URL, testLogger()))
}

func TestVerify_ValidToken(t *testing.T) {
	key, cert := testKeyPair(t)
	v := verifierForKey(t, key, cert, "k1")

	exp := time.Now().Add(time.Hour).Unix()
	token := mintToken(t, key, rs256Header("k1"), map[string]any{
		"sub": "auth0|u1",
		"iss": "https://tenant.auth0.example/",
		"exp": exp,
	})

	claims, err := v.VerifyAuthorizationHeader(context.Background(), "Bearer "+token)
	if err != nil {
		t.Fatalf("VerifyAuthorizationHeader() error: %v", err)
	}

	// The subject comes back exactly as carried by the token.
	if claims.Subject != "auth0|u1" {
		t.Errorf("Subject = %q, want auth0|u1", claims.Subject)
	}
	if claims.ExpiresAt != exp {
		t.Errorf("ExpiresAt = %d, want %d", claims.ExpiresAt, exp)
	}
}

func TestVerify_AudienceForms(t *testing.T) {
	key, cert := testKeyPair(t)
	v := verifierForKey(t, key, cert, "k1")

	tests := []struct {
		name string
		aud  any
		want Audience
	}{
		{"single string", "api://recipes", Audience{"api://recipes"}},
		{
			"string array",
			[]string{"api://recipes", "https://tenant.auth0.example/userinfo"},
			Audience{"api://recipes", "https://tenant.auth0.example/userinfo"},
		},
		{"absent", nil, nil},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			payload := map[string]any{
				"sub": "auth0|u1",
				"exp": time.Now().Add(time.Hour).Unix(),
			}
			if test.aud != nil {
				payload["aud"] = test.aud
			}
			token := mintToken(t, key, rs256Header("k1"), payload)

			claims, err := v.VerifyAuthorizationHeader(context.Background(), "Bearer "+token)
			if err != nil {
				t.Fatalf("VerifyAuthorizationHeader() error: %v", err)
			}
			if len(claims.Audience) != len(test.want) {
				t.Fatalf("Audience = %v, want %v", claims.Audience, test.want)
			}
			for i := range test.want {
				if claims.Audience[i] != test.want[i] {
					t.Errorf("Audience[%d] = %q, want %q", i, claims.Audience[i], test.want[i])
				}
			}
		})
	}
}

func TestVerify_SchemeCaseInsensitive(t *testing.T) {
	key, cert := testKeyPair(t)
	v := verifierForKey(t, key, cert, "k1")

	token := mintToken(t, key, rs256Header("k1"), map[string]any{"sub": "u1"})

	for _, scheme := range []string{"Bearer ", "bearer ", "BEARER "} {
		if _, err := v.VerifyAuthorizationHeader(context.Background(), scheme+token); err != nil {
			t.Errorf("scheme %q rejected: %v", scheme, err)
		}
	}
}

func TestVerify_HeaderErrors(t *testing.T) {
	key, cert := testKeyPair(t)
	v := verifierForKey(t, key, cert, "k1")

	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{"missing", "", ErrMissingHeader},
		{"wrong_scheme", "Basic dXNlcjpwYXNz", ErrMalformedHeader},
		{"no_space", "Bearer", ErrMalformedHeader},
		{"garbage_token", "Bearer not-a-token", ErrMalformedToken},
		{"two_segments", "Bearer aaaa.bbbb", ErrMalformedToken},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := v.VerifyAuthorizationHeader(context.Background(), test.header)
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("error = %v, want %v", err, test.wantErr)
			}
		})
	}
}

func TestVerify_UnknownKid(t *testing.T) {
	key, cert := testKeyPair(t)
	v := verifierForKey(t, key, cert, "k1")

	token := mintToken(t, key, rs256Header("absent"), map[string]any{"sub": "u1"})

	_, err := v.VerifyAuthorizationHeader(context.Background(), "Bearer "+token)
	if !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("error = %v, want ErrKeyNotFound", err)
	}
}

func TestVerify_WrongKeySignature(t *testing.T) {
	key, cert := testKeyPair(t)
	v := verifierForKey(t, key, cert, "k1")

	// Signed with a different key than the one published under k1.
	otherKey, _ := testKeyPair(t)
	token := mintToken(t, otherKey, rs256Header("k1"), map[string]any{"sub": "u1"})

	_, err := v.VerifyAuthorizationHeader(context.Background(), "Bearer "+token)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("error = %v, want ErrInvalidSignature", err)
	}
}

func TestVerify_TamperedPayload(t *testing.T) {
	key, cert := testKeyPair(t)
	v := verifierForKey(t, key, cert, "k1")

	token := mintToken(t, key, rs256Header("k1"), map[string]any{"sub": "u1"})

	forged, err := json.Marshal(map[string]any{"sub": "u2"})
	if err != nil {
		t.Fatal(err)
	}
	segments := strings.Split(token, ".")
	segments[1] = base64.RawURLEncoding.EncodeToString(forged)
	tampered := segments[0] + "." + segments[1] + "." + segments[2]

	_, err = v.VerifyAuthorizationHeader(context.Background(), "Bearer "+tampered)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("error = %v, want ErrInvalidSignature", err)
	}
}

func TestVerify_Expired(t *testing.T) {
	key, cert := testKeyPair(t)
	v := verifierForKey(t, key, cert, "k1")

	// Validly signed but past its expiry claim.
	token := mintToken(t, key, rs256Header("k1"), map[string]any{
		"sub": "u1",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})

	_, err := v.VerifyAuthorizationHeader(context.Background(), "Bearer "+token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("error = %v, want ErrTokenExpired", err)
	}
}

func TestVerify_AlgorithmConfusion(t *testing.T) {
	key, cert := testKeyPair(t)
	v := verifierForKey(t, key, cert, "k1")

	// An unsigned token claiming alg=none must never verify.
	header := map[string]any{"typ": "JWT", "alg": "none", "kid": "k1"}
	hb, _ := json.Marshal(header)
	pb, _ := json.Marshal(map[string]any{"sub": "u1"})
	token := base64.RawURLEncoding.EncodeToString(hb) + "." + base64.RawURLEncoding.EncodeToString(pb) + "."

	_, err := v.VerifyAuthorizationHeader(context.Background(), "Bearer "+token)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("error = %v, want ErrInvalidSignature", err)
	}
}

func TestVerify_ResolutionFailure(t *testing.T) {
	key, _ := testKeyPair(t)

	srv := jwksServer(t, nil, nil)
	srv.Close()
	v := NewVerifier(NewJWKSClient(srv.URL, testLogger()))

	token := mintToken(t, key, rs256Header("k1"), map[string]any{"sub": "u1"})

	_, err := v.VerifyAuthorizationHeader(context.Background(), "Bearer "+token)
	if !errors.Is(err, ErrKeyResolutionFailed) {
		t.Fatalf("error = %v, want ErrKeyResolutionFailed", err)
	}
}
