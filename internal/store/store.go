package store

import (
	"context"
	"errors"

	"github.com/ZaidMomin2003/talxify/backend/internal/model/interview"
)

// ErrNotFound reports a missing document.
var ErrNotFound = errors.New("document not found")

// Store is the document-store collaborator. Documents are opaque maps with
// last-write-wins semantics; the two array fields on profiles (`bookmarks`,
// `activity`) get dedicated append/remove operations.
type Store interface {
	GetProfile(ctx context.Context, userID string) (map[string]any, error)
	MergeProfile(ctx context.Context, userID string, fields map[string]any) error
	AddBookmark(ctx context.Context, userID string, bookmark map[string]any) error
	RemoveBookmark(ctx context.Context, userID, bookmarkID string) error
	AppendActivity(ctx context.Context, userID string, entry map[string]any) error

	SaveInterview(ctx context.Context, record *interview.Record) error
	GetInterview(ctx context.Context, sessionID string) (*interview.Record, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
