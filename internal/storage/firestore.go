package storage

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
)

// Firestore field names, shared with documents written by earlier clients.
const (
	fieldUserID    = "user_id"
	fieldJournal   = "journal"
	fieldTimestamp = "timestamp"
)

// FirestoreStore keeps entries as documents of one collection. The timestamp
// is assigned by the server. List orders on the client because Firestore
// drops documents lacking the OrderBy field, and older documents may have no
// timestamp.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
	now        func() time.Time
}

func NewFirestoreStore(client *firestore.Client, collection string) *FirestoreStore {
	if collection == "" {
		collection = "journals"
	}
	return &FirestoreStore{client: client, collection: collection, now: time.Now}
}

func (f *FirestoreStore) Append(ctx context.Context, entry Entry) (Entry, error) {
	ref, _, err := f.client.Collection(f.collection).Add(ctx, map[string]interface{}{
		fieldUserID:    entry.UserID,
		fieldJournal:   entry.Text,
		fieldTimestamp: firestore.ServerTimestamp,
	})
	if err != nil {
		return Entry{}, errors.Wrap(err, "failed to add journal document")
	}
	entry.ID = ref.ID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = f.now().UTC()
	}
	return entry, nil
}

func (f *FirestoreStore) List(ctx context.Context, q Query) ([]Entry, error) {
	iter := f.client.Collection(f.collection).
		Where(fieldUserID, "==", q.UserID).
		Documents(ctx)
	defer iter.Stop()

	var out []Entry
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to read journal documents")
		}
		out = append(out, documentToEntry(doc.Ref.ID, doc.Data()))
	}
	return orderDocuments(out, q.Limit), nil
}

// orderDocuments sorts newest first; entries without a timestamp sort last.
func orderDocuments(entries []Entry, limit int) []Entry {
	newestFirst(entries)
	return applyLimit(entries, limit)
}

func (f *FirestoreStore) Close() error {
	return f.client.Close()
}

func documentToEntry(id string, data map[string]interface{}) Entry {
	e := Entry{ID: id, CreatedAt: NormalizeTimestamp(data[fieldTimestamp])}
	if s, ok := data[fieldUserID].(string); ok {
		e.UserID = s
	}
	if s, ok := data[fieldJournal].(string); ok {
		e.Text = s
	}
	return e
}
