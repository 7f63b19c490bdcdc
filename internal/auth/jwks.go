// Package auth provides bearer-token verification against a remote
// JWKS endpoint and the authorization gate built on top of it.
package auth

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/recipevault/recipevault/internal/metrics"
)

// JWK is a single entry of the identity provider's published key set.
type JWK struct {
	Kid string   `json:"kid"`
	Kty string   `json:"kty"`
	Use string   `json:"use"`
	N   string   `json:"n"`
	E   string   `json:"e"`
	X5c []string `json:"x5c"`
}

// jwksDocument is the JSON document served at the JWKS endpoint.
type jwksDocument struct {
	Keys []JWK `json:"keys"`
}

// SigningKey is a usable verification key extracted from the key set.
// PEM holds either a CERTIFICATE block (from the x5c chain) or a
// PUBLIC KEY block (reconstructed from modulus/exponent).
type SigningKey struct {
	Kid string
	PEM string
}

// RSAPublicKey parses the PEM material into an RSA public key.
func (k *SigningKey) RSAPublicKey() (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(k.PEM))
	if block == nil {
		return nil, fmt.Errorf("no PEM block in signing key %q", k.Kid)
	}

	switch block.Type {
	case "CERTIFICATE":
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse certificate for key %q: %w", k.Kid, err)
		}
		pub, ok := cert.PublicKey.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("certificate for key %q is not RSA", k.Kid)
		}
		return pub, nil
	case "PUBLIC KEY":
		pub, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse public key for key %q: %w", k.Kid, err)
		}
		rsaPub, ok := pub.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("public key for key %q is not RSA", k.Kid)
		}
		return rsaPub, nil
	default:
		return nil, fmt.Errorf("unexpected PEM block %q for key %q", block.Type, k.Kid)
	}
}

// KeyResolver resolves a key identifier to verification key material.
type KeyResolver interface {
	ResolveKey(ctx context.Context, kid string) (*SigningKey, error)
}

// KeySetFetcher retrieves the full filtered key set.
type KeySetFetcher interface {
	FetchKeySet(ctx context.Context) ([]SigningKey, error)
}

// JWKSClient fetches signing keys from a fixed JWKS endpoint.
type JWKSClient struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewJWKSClient creates a JWKSClient for the given endpoint.
func NewJWKSClient(url string, logger *slog.Logger) *JWKSClient {
	return &JWKSClient{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// FetchKeySet downloads the published key set and filters it to
// entries usable for signature verification: declared signing usage,
// RSA key type, a key identifier, and either a certificate chain or
// modulus/exponent material.
func (c *JWKSClient) FetchKeySet(ctx context.Context) ([]SigningKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyResolutionFailed, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyResolutionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: key set endpoint returned %d", ErrKeyResolutionFailed, resp.StatusCode)
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode key set: %v", ErrKeyResolutionFailed, err)
	}

	keys := make([]SigningKey, 0, len(doc.Keys))
	for _, k := range doc.Keys {
		if !usableForVerification(k) {
			continue
		}
		pemBlock, err := keyToPEM(k)
		if err != nil {
			c.logger.Warn("skipping unusable signing key",
				slog.String("kid", k.Kid),
				slog.String("error", err.Error()),
			)
			continue
		}
		keys = append(keys, SigningKey{Kid: k.Kid, PEM: pemBlock})
	}

	if len(keys) == 0 {
		return nil, ErrNoUsableKeys
	}

	return keys, nil
}

// ResolveKey fetches the key set and selects the requested entry.
func (c *JWKSClient) ResolveKey(ctx context.Context, kid string) (*SigningKey, error) {
	keys, err := c.FetchKeySet(ctx)
	if err != nil {
		return nil, err
	}
	return selectKey(keys, kid)
}

// usableForVerification applies the signing-key filter.
func usableForVerification(k JWK) bool {
	if k.Use != "sig" || k.Kty != "RSA" || k.Kid == "" {
		return false
	}
	return len(k.X5c) > 0 || (k.N != "" && k.E != "")
}

// keyToPEM converts a JWK into PEM-encoded key material. Entries with
// a certificate chain yield the first certificate; otherwise the RSA
// public key is rebuilt from modulus and exponent.
func keyToPEM(k JWK) (string, error) {
	if len(k.X5c) > 0 {
		return certToPEM(k.X5c[0]), nil
	}
	return modulusToPEM(k.N, k.E)
}

// certToPEM wraps a base64 DER certificate in a standard PEM block
// with 64-character line wrapping.
func certToPEM(cert string) string {
	var b strings.Builder
	b.WriteString("-----BEGIN CERTIFICATE-----\n")
	for len(cert) > 0 {
		n := 64
		if len(cert) < n {
			n = len(cert)
		}
		b.WriteString(cert[:n])
		b.WriteByte('\n')
		cert = cert[n:]
	}
	b.WriteString("-----END CERTIFICATE-----\n")
	return b.String()
}

// modulusToPEM rebuilds an RSA public key from base64url modulus and
// exponent and encodes it as a PKIX PEM block.
func modulusToPEM(n, e string) (string, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(n)
	if err != nil {
		return "", fmt.Errorf("decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(e)
	if err != nil {
		return "", fmt.Errorf("decode exponent: %w", err)
	}

	pub := &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(new(big.Int).SetBytes(eBytes).Int64()),
	}

	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("marshal public key: %w", err)
	}

	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}

// selectKey picks the entry matching the requested key identifier.
func selectKey(keys []SigningKey, kid string) (*SigningKey, error) {
	for i := range keys {
		if keys[i].Kid == kid {
			return &keys[i], nil
		}
	}
	return nil, ErrKeyNotFound
}

// keySetCacheKey is the single cache entry under which the filtered
// key set is stored.
const keySetCacheKey = "jwks"

// CachedKeyResolver caches the fetched key set with a bounded
// lifetime. A key identifier missing from a cached set forces one
// refetch before the miss is surfaced, so key rotation is picked up
// without waiting for expiry.
type CachedKeyResolver struct {
	fetcher KeySetFetcher
	cache   *gocache.Cache
	metrics metrics.Recorder
}

// NewCachedKeyResolver wraps a fetcher with a TTL-bounded cache.
func NewCachedKeyResolver(fetcher KeySetFetcher, ttl time.Duration, recorder metrics.Recorder) *CachedKeyResolver {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &CachedKeyResolver{
		fetcher: fetcher,
		cache:   gocache.New(ttl, 2*ttl),
		metrics: recorder,
	}
}

// ResolveKey returns the key for kid from the cached set, refetching
// on expiry or on a miss against cached material.
func (r *CachedKeyResolver) ResolveKey(ctx context.Context, kid string) (*SigningKey, error) {
	if v, ok := r.cache.Get(keySetCacheKey); ok {
		keys := v.([]SigningKey)
		if key, err := selectKey(keys, kid); err == nil {
			r.metrics.IncKeyCacheHit()
			return key, nil
		}
		// Cached set does not carry this kid; the provider may have
		// rotated keys since the last fetch.
		r.cache.Delete(keySetCacheKey)
	}

	r.metrics.IncKeyCacheMiss()

	keys, err := r.fetcher.FetchKeySet(ctx)
	if err != nil {
		return nil, err
	}
	r.cache.SetDefault(keySetCacheKey, keys)

	return selectKey(keys, kid)
}
