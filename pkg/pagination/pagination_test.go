package pagination

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/festpay/festpay-backend/pkg/errors"
)

func TestCursorRoundtrip(t *testing.T) {
	want := Cursor{CreatedAt: time.Now().UTC().Truncate(time.Microsecond), ID: uuid.New()}

	token := EncodeCursor(want)
	if strings.ContainsAny(token, "+/=") {
		t.Errorf("token %q is not query-string safe", token)
	}

	got, err := ParseCursor(token)
	if err != nil {
		t.Fatalf("parse cursor: %v", err)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) || got.ID != want.ID {
		t.Errorf("roundtrip = %+v, want %+v", got, want)
	}
}

func TestParseCursorEmptyMeansFirstPage(t *testing.T) {
	for _, value := range []string{"", "   "} {
		cursor, err := ParseCursor(value)
		if err != nil {
			t.Fatalf("ParseCursor(%q): %v", value, err)
		}
		if cursor != nil {
			t.Errorf("ParseCursor(%q) = %+v, want nil", value, cursor)
		}
	}
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	for _, value := range []string{"not-base64!!", "aGVsbG8", EncodeCursor(Cursor{}) + "x"} {
		_, err := ParseCursor(value)
		if err == nil {
			t.Errorf("ParseCursor(%q) accepted garbage", value)
			continue
		}
		if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
			t.Errorf("ParseCursor(%q) error = %v, want validation code", value, err)
		}
	}
}

func TestNormalizeLimit(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, DefaultLimit},
		{-3, DefaultLimit},
		{10, 10},
		{MaxLimit + 50, MaxLimit},
	}
	for _, tc := range cases {
		if got := NormalizeLimit(tc.in); got != tc.want {
			t.Errorf("NormalizeLimit(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
	if got := LimitWithBuffer(10); got != 11 {
		t.Errorf("LimitWithBuffer(10) = %d, want 11", got)
	}
}
