// Package fileurl provides HMAC-signed URL generation and verification for attachment downloads.
// Message file_url values are signed links, so a download does not need a bearer token.
package fileurl

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

const Prefix = "/api/v1/files/"

// Signer signs file ids with a shared secret.
type Signer struct {
	secret string
	ttl    time.Duration
	now    func() time.Time
}

func NewSigner(secret string, ttl time.Duration) *Signer {
	return &Signer{secret: secret, ttl: ttl, now: time.Now}
}

// SignURL returns a relative URL path with HMAC signature and expiry query parameters.
// The signature covers "{fileID}:{expiresUnix}" using HMAC-SHA256.
func (s *Signer) SignURL(fileID string) string {
	expires := s.now().Add(s.ttl).Unix()
	sig := computeHMAC(fileID, expires, s.secret)
	return fmt.Sprintf("%s%s?expires=%d&sig=%s", Prefix, fileID, expires, sig)
}

// Verify checks that the HMAC signature is valid and the URL has not expired.
func (s *Signer) Verify(fileID, expires, sig string) bool {
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return false
	}
	if s.now().Unix() > exp {
		return false
	}
	expected := computeHMAC(fileID, exp, s.secret)
	return hmac.Equal([]byte(sig), []byte(expected))
}

func computeHMAC(fileID string, expires int64, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%s:%d", fileID, expires)))
	return hex.EncodeToString(mac.Sum(nil))
}
