package pagination

import (
	"errors"
	"testing"
)

func TestTrimReportsNextPage(t *testing.T) {
	rows := []int{5, 4, 3}
	page, info, err := Trim(rows, 2, func(v int) Cursor {
		return Cursor{ID: "id", Timestamp: "2024-03-10T07:00:00Z"}
	})
	if err != nil {
		t.Fatalf("trim: %v", err)
	}
	if len(page) != 2 || !info.HasMore || info.NextPageToken == "" {
		t.Fatalf("unexpected page: %v %+v", page, info)
	}

	cursor, err := DecodeCursor(info.NextPageToken)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cursor.ID != "id" || cursor.Timestamp != "2024-03-10T07:00:00Z" {
		t.Fatalf("unexpected cursor: %+v", cursor)
	}
}

func TestTrimLastPage(t *testing.T) {
	page, info, err := Trim([]int{1}, 2, func(int) Cursor { return Cursor{} })
	if err != nil {
		t.Fatalf("trim: %v", err)
	}
	if len(page) != 1 || info.HasMore {
		t.Fatalf("unexpected page: %v %+v", page, info)
	}
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	if _, err := DecodeCursor("%%%"); !errors.Is(err, ErrInvalidPageToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
	cursor, err := DecodeCursor("")
	if err != nil || cursor != nil {
		t.Fatalf("expected nil cursor for empty token")
	}
}
