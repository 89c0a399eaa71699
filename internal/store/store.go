// Package store provides append-only persistence for clinical
// documentation records. One record is written per documentation event;
// records are never updated in place, so concurrent writers need no
// coordination.
package store

import (
	"context"
	"time"
)

// Record is one persisted documentation event. All text fields must be
// de-identified before they reach the store.
type Record struct {
	// ID is the generated unique record key.
	ID string `json:"id" firestore:"id"`

	// Timestamp is the UTC time the documentation event occurred.
	Timestamp time.Time `json:"timestamp" firestore:"timestamp"`

	// AgentName is the capability that produced the record.
	AgentName string `json:"agent_name" firestore:"agent_name"`

	// PatientSummary is the de-identified patient-facing note body.
	PatientSummary string `json:"patient_summary" firestore:"patient_summary"`
}

// DocumentStore is the append-only persistence sink for documentation
// records. Put always creates a new record and never overwrites an
// existing one.
type DocumentStore interface {
	// Put appends a record and returns its generated ID.
	Put(ctx context.Context, rec Record) (string, error)

	// List returns all records, oldest first.
	List(ctx context.Context) ([]Record, error)

	// Close releases any underlying client resources.
	Close() error
}
