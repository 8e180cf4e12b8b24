package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"net/url"
	"sort"
	"strings"
)

// Algorithm selects the HMAC digest used for gateway signatures
type Algorithm string

const (
	HMACSHA256 Algorithm = "HMAC-SHA256"
	HMACSHA512 Algorithm = "HMAC-SHA512"
)

// Signer computes and verifies gateway signatures over parameter maps.
// The canonical form is the gateways' shared convention: keys sorted
// lexicographically, parameters with empty values skipped, values
// URL-encoded, pairs joined as key=value with "&".
type Signer struct {
	secret []byte
	algo   Algorithm
}

// NewSigner creates a Signer for the given shared secret and algorithm
func NewSigner(secret string, algo Algorithm) *Signer {
	return &Signer{secret: []byte(secret), algo: algo}
}

// Sign returns the lowercase hex HMAC of the canonical encoding of params.
// Signature-carrying keys must be removed by the caller before signing.
func (s *Signer) Sign(params map[string]string) string {
	mac := hmac.New(s.hashFunc(), s.secret)
	mac.Write([]byte(Canonicalize(params)))
	return hex.EncodeToString(mac.Sum(nil))
}

// SignString returns the lowercase hex HMAC of a raw string payload,
// for providers that sign a preassembled string instead of a parameter map
func (s *Signer) SignString(payload string) string {
	mac := hmac.New(s.hashFunc(), s.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the signature over params and compares it with the
// provided one. Comparison is constant-time and case-insensitive since
// gateways differ in hex casing.
func (s *Signer) Verify(params map[string]string, signature string) bool {
	if signature == "" {
		return false
	}
	expected := s.Sign(params)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

// VerifyString verifies a signature over a raw string payload
func (s *Signer) VerifyString(payload, signature string) bool {
	if signature == "" {
		return false
	}
	expected := s.SignString(payload)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

func (s *Signer) hashFunc() func() hash.Hash {
	if s.algo == HMACSHA512 {
		return sha512.New
	}
	return sha256.New
}

// Canonicalize builds the canonical signing string from a parameter map:
// sorted keys, empty values skipped, URL-encoded values, k=v pairs joined
// with "&"
func Canonicalize(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[k]))
	}
	return b.String()
}
