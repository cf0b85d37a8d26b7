package service

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/ds124wfegd/eshikshan/internal/entity"
)

const idempotencyDomain = "eshikshan/notification/v1"

// Status tokens for events that do not carry a submission status.
const (
	tokenSubmitted = "submitted"
	tokenRemoved   = "removed"
	tokenWithdrawn = "withdrawn"
)

// IdempotencyKey derives the dedup key of a notification. The status revision
// scopes the key to one transition: repeating it collides, while a later return
// to the same status yields a fresh key.
func IdempotencyKey(recipient string, t entity.NotificationType, relatedID int64, statusToken string, revision int64) string {
	h := sha256.New()
	for _, part := range []string{
		idempotencyDomain,
		normalizeEmail(recipient),
		string(t),
		strconv.FormatInt(relatedID, 10),
		statusToken,
		strconv.FormatInt(revision, 10),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
