package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LinkSigner creates and validates time-limited document download tokens.
type LinkSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewLinkSigner constructs a signer with the provided secret and TTL.
func NewLinkSigner(secret string, ttl time.Duration) *LinkSigner {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &LinkSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token binding the document id to its stored file name.
func (s *LinkSigner) Sign(documentID, fileName string) (string, time.Time, error) {
	if documentID == "" || fileName == "" {
		return "", time.Time{}, fmt.Errorf("document id and file name required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	id := base64.RawURLEncoding.EncodeToString([]byte(documentID))
	encoded := base64.RawURLEncoding.EncodeToString([]byte(fileName))
	token := strings.Join([]string{id, ts, encoded, s.mac(id, ts, encoded)}, ".")
	return token, expiresAt, nil
}

// Verify checks the signature and expiry, returning the embedded document id and file name.
func (s *LinkSigner) Verify(token string) (documentID, fileName string, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return "", "", fmt.Errorf("invalid token format")
	}
	id, ts, encoded, signature := parts[0], parts[1], parts[2], parts[3]

	if !hmac.Equal([]byte(s.mac(id, ts, encoded)), []byte(signature)) {
		return "", "", fmt.Errorf("invalid token signature")
	}
	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", "", fmt.Errorf("invalid timestamp")
	}
	if s.now().After(time.Unix(expUnix, 0)) {
		return "", "", fmt.Errorf("token expired")
	}
	rawID, err := base64.RawURLEncoding.DecodeString(id)
	if err != nil {
		return "", "", fmt.Errorf("decode document id: %w", err)
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", fmt.Errorf("decode file name: %w", err)
	}
	return string(rawID), string(raw), nil
}

func (s *LinkSigner) mac(id, ts, encoded string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(id + "|" + ts + "|" + encoded))
	return hex.EncodeToString(mac.Sum(nil))
}
