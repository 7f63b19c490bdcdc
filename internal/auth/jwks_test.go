package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// testKeyPair generates an RSA key and a matching self-signed
// certificate, returned as the base64 DER string used in x5c chains.
func testKeyPair(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "test-idp"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}

	return key, base64.StdEncoding.EncodeToString(der)
}

// jwksServer serves a JWKS document and counts fetches.
func jwksServer(t *testing.T, keys []JWK, fetches *atomic.Int64) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fetches != nil {
			fetches.Add(1)
		}
		_ = json.NewEncoder(w).Encode(jwksDocument{Keys: keys})
	}))
	t.Cleanup(srv.Close)

	return srv
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestFetchKeySet_Filtering(t *testing.T) {
	_, cert := testKeyPair(t)

	keys := []JWK{
		{Kid: "good", Kty: "RSA", Use: "sig", X5c: []string{cert}},
		{Kid: "enc-key", Kty: "RSA", Use: "enc", X5c: []string{cert}},
		{Kid: "ec-key", Kty: "EC", Use: "sig", X5c: []string{cert}},
		{Kid: "", Kty: "RSA", Use: "sig", X5c: []string{cert}},
		{Kid: "no-material", Kty: "RSA", Use: "sig"},
	}

	srv := jwksServer(t, keys, nil)
	client := NewJWKSClient(srv.URL, testLogger())

	got, err := client.FetchKeySet(context.Background())
	if err != nil {
		t.Fatalf("FetchKeySet() error: %v", err)
	}

	if len(got) != 1 || got[0].Kid != "good" {
		t.Fatalf("FetchKeySet() = %+v, want only kid=good", got)
	}
}

func TestFetchKeySet_NoUsableKeys(t *testing.T) {
	srv := jwksServer(t, []JWK{{Kid: "enc", Kty: "RSA", Use: "enc"}}, nil)
	client := NewJWKSClient(srv.URL, testLogger())

	_, err := client.FetchKeySet(context.Background())
	if !errors.Is(err, ErrNoUsableKeys) {
		t.Fatalf("FetchKeySet() error = %v, want ErrNoUsableKeys", err)
	}
}

func TestFetchKeySet_EndpointDown(t *testing.T) {
	srv := jwksServer(t, nil, nil)
	srv.Close()
	client := NewJWKSClient(srv.URL, testLogger())

	_, err := client.FetchKeySet(context.Background())
	if !errors.Is(err, ErrKeyResolutionFailed) {
		t.Fatalf("FetchKeySet() error = %v, want ErrKeyResolutionFailed", err)
	}
}

func TestResolveKey_KeyNotFound(t *testing.T) {
	_, cert := testKeyPair(t)
	srv := jwksServer(t, []JWK{{Kid: "other", Kty: "RSA", Use: "sig", X5c: []string{cert}}}, nil)
	client := NewJWKSClient(srv.URL, testLogger())

	_, err := client.ResolveKey(context.Background(), "wanted")
	if !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("ResolveKey() error = %v, want ErrKeyNotFound", err)
	}
}

func TestResolveKey_ParsesCertificate(t *testing.T) {
	key, cert := testKeyPair(t)
	srv := jwksServer(t, []JWK{{Kid: "k1", Kty: "RSA", Use: "sig", X5c: []string{cert}}}, nil)
	client := NewJWKSClient(srv.URL, testLogger())

	sk, err := client.ResolveKey(context.Background(), "k1")
	if err != nil {
		t.Fatalf("ResolveKey() error: %v", err)
	}

	pub, err := sk.RSAPublicKey()
	if err != nil {
		t.Fatalf("RSAPublicKey() error: %v", err)
	}
	if pub.N.Cmp(key.PublicKey.N) != 0 {
		t.Error("resolved public key does not match the generated key")
	}
}

func TestResolveKey_ModulusExponentFallback(t *testing.T) {
	key, _ := testKeyPair(t)

	n := base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes())
	e := base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes())

	srv := jwksServer(t, []JWK{{Kid: "k1", Kty: "RSA", Use: "sig", N: n, E: e}}, nil)
	client := NewJWKSClient(srv.URL, testLogger())

	sk, err := client.ResolveKey(context.Background(), "k1")
	if err != nil {
		t.Fatalf("ResolveKey() error: %v", err)
	}

	pub, err := sk.RSAPublicKey()
	if err != nil {
		t.Fatalf("RSAPublicKey() error: %v", err)
	}
	if pub.N.Cmp(key.PublicKey.N) != 0 || pub.E != key.PublicKey.E {
		t.Error("rebuilt public key does not match the generated key")
	}
}

func TestCertToPEM_Wrapping(t *testing.T) {
	raw := strings.Repeat("A", 150)
	pemStr := certToPEM(raw)

	lines := strings.Split(strings.TrimSuffix(pemStr, "\n"), "\n")
	if lines[0] != "-----BEGIN CERTIFICATE-----" {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if lines[len(lines)-1] != "-----END CERTIFICATE-----" {
		t.Errorf("unexpected footer: %q", lines[len(lines)-1])
	}

	body := lines[1 : len(lines)-1]
	if len(body) != 3 {
		t.Fatalf("wrapped into %d lines, want 3", len(body))
	}
	if len(body[0]) != 64 || len(body[1]) != 64 || len(body[2]) != 22 {
		t.Errorf("unexpected line lengths: %d, %d, %d", len(body[0]), len(body[1]), len(body[2]))
	}
}

func TestCachedKeyResolver_CachesKeySet(t *testing.T) {
	_, cert := testKeyPair(t)
	var fetches atomic.Int64
	srv := jwksServer(t, []JWK{{Kid: "k1", Kty: "RSA", Use: "sig", X5c: []string{cert}}}, &fetches)

	resolver := NewCachedKeyResolver(NewJWKSClient(srv.URL, testLogger()), time.Minute, nil)

	for i := 0; i < 3; i++ {
		if _, err := resolver.ResolveKey(context.Background(), "k1"); err != nil {
			t.Fatalf("ResolveKey() error: %v", err)
		}
	}

	if got := fetches.Load(); got != 1 {
		t.Errorf("key set fetched %d times, want 1", got)
	}
}

func TestCachedKeyResolver_RefetchesOnUnknownKid(t *testing.T) {
	_, cert := testKeyPair(t)
	var fetches atomic.Int64
	srv := jwksServer(t, []JWK{{Kid: "k1", Kty: "RSA", Use: "sig", X5c: []string{cert}}}, &fetches)

	resolver := NewCachedKeyResolver(NewJWKSClient(srv.URL, testLogger()), time.Minute, nil)

	if _, err := resolver.ResolveKey(context.Background(), "k1"); err != nil {
		t.Fatalf("ResolveKey() error: %v", err)
	}

	// Unknown kid against a cached set must invalidate and refetch
	// once before surfacing the miss.
	if _, err := resolver.ResolveKey(context.Background(), "rotated"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("ResolveKey() error = %v, want ErrKeyNotFound", err)
	}

	if got := fetches.Load(); got != 2 {
		t.Errorf("key set fetched %d times, want 2", got)
	}
}
