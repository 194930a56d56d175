// Package pagination implements the keyset cursors used by the cashier
// shift log and other append-only listings. Pages walk (created_at, id)
// descending; the cursor token names the last row the client has seen.
package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/festpay/festpay-backend/pkg/errors"
)

const (
	// DefaultLimit is the page size when the client does not ask for one.
	DefaultLimit = 25
	// MaxLimit caps a single page so a busy shift cannot be pulled in one query.
	MaxLimit = 100

	cursorSeparator = "|"
)

// Params carries the client's paging inputs through the service layer.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor is the decoded keyset position: the creation time and id of the
// last entry on the previous page.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// NormalizeLimit clamps the requested page size to the allowed range.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// LimitWithBuffer adds a lookahead row so callers can tell whether another
// page exists without a count query.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// EncodeCursor renders the position as an opaque token safe to carry in a
// query string.
func EncodeCursor(cursor Cursor) string {
	payload := cursor.CreatedAt.UTC().Format(time.RFC3339Nano) + cursorSeparator + cursor.ID.String()
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// ParseCursor decodes a token produced by EncodeCursor. An empty token means
// start from the newest entry. Garbage tokens come straight from clients, so
// failures surface as validation errors.
func ParseCursor(value string) (*Cursor, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed page cursor")
	}
	timestamp, id, ok := strings.Cut(string(decoded), cursorSeparator)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "malformed page cursor")
	}

	createdAt, err := time.Parse(time.RFC3339Nano, timestamp)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("bad cursor timestamp %q", timestamp))
	}
	entryID, err := uuid.Parse(id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "bad cursor entry id")
	}
	return &Cursor{CreatedAt: createdAt, ID: entryID}, nil
}
