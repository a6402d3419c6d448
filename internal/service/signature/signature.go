// Package signature validates the X-Hub-Signature headers the platform
// attaches to webhook deliveries.
package signature

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"hash"
	"net/http"
	"strings"
)

const (
	HeaderSHA1   = "X-Hub-Signature"
	HeaderSHA256 = "X-Hub-Signature-256"
)

var (
	ErrSignatureMismatch = errors.New("couldn't validate the request signature")
	ErrMalformedHeader   = errors.New("malformed signature header")
)

// Algorithm is the digest named in the header prefix.
type Algorithm string

const (
	SHA1   Algorithm = "sha1"
	SHA256 Algorithm = "sha256"
)

func (a Algorithm) hasher() func() hash.Hash {
	if a == SHA256 {
		return sha256.New
	}
	return sha1.New
}

// Verify checks header against the HMAC of rawBody keyed by appSecret.
// An empty header returns (false, nil): the caller decides whether an
// unsigned delivery is acceptable. A present but wrong header returns
// ErrSignatureMismatch (or ErrMalformedHeader wrapped in it).
func Verify(rawBody []byte, header, appSecret string) (bool, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return false, nil
	}

	algo, digest, ok := strings.Cut(header, "=")
	if !ok || digest == "" {
		return false, errors.Join(ErrSignatureMismatch, ErrMalformedHeader)
	}

	var a Algorithm
	switch strings.ToLower(algo) {
	case string(SHA1):
		a = SHA1
	case string(SHA256):
		a = SHA256
	default:
		return false, errors.Join(ErrSignatureMismatch, ErrMalformedHeader)
	}

	provided, err := hex.DecodeString(digest)
	if err != nil {
		return false, errors.Join(ErrSignatureMismatch, ErrMalformedHeader)
	}

	if !hmac.Equal(provided, compute(a, rawBody, appSecret)) {
		return false, ErrSignatureMismatch
	}
	return true, nil
}

// VerifyRequest picks the strongest signature header present on h.
func VerifyRequest(rawBody []byte, h http.Header, appSecret string) (bool, error) {
	if v := h.Get(HeaderSHA256); v != "" {
		return Verify(rawBody, v, appSecret)
	}
	return Verify(rawBody, h.Get(HeaderSHA1), appSecret)
}

// Sign returns a header value for rawBody, e.g. "sha1=<hex>".
func Sign(rawBody []byte, appSecret string, algo Algorithm) string {
	return string(algo) + "=" + hex.EncodeToString(compute(algo, rawBody, appSecret))
}

func compute(algo Algorithm, rawBody []byte, appSecret string) []byte {
	mac := hmac.New(algo.hasher(), []byte(appSecret))
	mac.Write(rawBody)
	return mac.Sum(nil)
}
