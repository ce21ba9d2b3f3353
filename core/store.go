package core

import "context"

// RecordStore is the persistence boundary for long-term records. The engine
// defines the record shape but not the storage mechanism; implementations
// treat records as opaque rows keyed by record ID.
type RecordStore interface {
	SaveRecord(ctx context.Context, rec LongTermRecord) error
	LoadRecords(ctx context.Context) ([]LongTermRecord, error)
	DeleteRecord(ctx context.Context, id string) error
}

// CanonStore persists canon facts keyed by fact key.
type CanonStore interface {
	SaveFact(ctx context.Context, fact CanonFact) error
	LoadFacts(ctx context.Context) ([]CanonFact, error)
}
