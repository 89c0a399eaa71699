package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/drcloud/assistant/internal/logging"
)

// DefaultCollection is the Firestore collection holding documentation
// records.
const DefaultCollection = "encounter_notes"

// FirestoreStore is a DocumentStore backed by Cloud Firestore. Each
// record becomes one document keyed by its generated ID.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
	logger     *logging.Logger
}

// NewFirestoreStore connects to Firestore for the given project. An
// empty collection name falls back to DefaultCollection.
func NewFirestoreStore(ctx context.Context, projectID, collection string) (*FirestoreStore, error) {
	if projectID == "" {
		return nil, fmt.Errorf("firestore project ID must not be empty")
	}
	if collection == "" {
		collection = DefaultCollection
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	return &FirestoreStore{
		client:     client,
		collection: collection,
		logger:     logging.GetLogger("store.firestore"),
	}, nil
}

// Put writes a new document. IDs are always generated server-side here
// rather than taken from the caller, which keeps the sink append-only:
// two documentation events for the same encounter produce two documents.
func (s *FirestoreStore) Put(ctx context.Context, rec Record) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	_, err := s.client.Collection(s.collection).Doc(rec.ID).Create(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("failed to write documentation record: %w", err)
	}

	s.logger.DebugWithFields("documentation record persisted",
		logging.Field("record_id", rec.ID),
		logging.Field("agent_name", rec.AgentName),
	)
	return rec.ID, nil
}

// List returns all records ordered by timestamp.
func (s *FirestoreStore) List(ctx context.Context) ([]Record, error) {
	iter := s.client.Collection(s.collection).OrderBy("timestamp", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var records []Record
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read documentation records: %w", err)
		}

		var rec Record
		if err := doc.DataTo(&rec); err != nil {
			s.logger.Warn("skipping malformed record %s: %v", doc.Ref.ID, err)
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// Close releases the Firestore client.
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

var _ DocumentStore = (*FirestoreStore)(nil)
