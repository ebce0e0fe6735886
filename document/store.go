package document

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// PlaceholderSummary marks a record whose analysis is still running.
const PlaceholderSummary = "Processing..."

// Record is one analysis attempt in the session history. Err is the terminal
// error text when the attempt failed; Entities is meaningful only when Err
// is empty.
type Record struct {
	ID        string
	DisplayID string
	Entities  Entities
	Summary   string
	Err       string
}

// Failed reports whether this record is an error entry.
func (r Record) Failed() bool { return r.Err != "" }

// Pending reports whether this record is a placeholder still awaiting its
// analysis result.
func (r Record) Pending() bool { return r.Summary == PlaceholderSummary }

// Store is the mutex-guarded session history. Records are appended as
// placeholders when analysis starts and replaced in place when it finishes,
// so display ordinals stay stable while results stream in.
type Store struct {
	mu      sync.Mutex
	session string
	records []Record
}

// NewStore starts an empty session.
func NewStore() *Store {
	return &Store{session: uuid.NewString()}
}

// Session returns the current session id. It changes on Reset.
func (s *Store) Session() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Len returns the number of records in the session.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Records returns a snapshot of the session history.
func (s *Store) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Latest returns the most recent record, if any.
func (s *Store) Latest() (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) == 0 {
		return Record{}, false
	}
	return s.records[len(s.records)-1], true
}

// Append adds a finished record to the history.
func (s *Store) Append(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	s.records = append(s.records, rec)
}

// Placeholder appends a Processing record and returns its index and display
// id. The caller replaces it via ReplaceAt when analysis completes.
func (s *Store) Placeholder() (int, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	displayID := fmt.Sprintf("Document_%d", len(s.records)+1)
	s.records = append(s.records, Record{
		ID:        uuid.NewString(),
		DisplayID: displayID,
		Entities:  NewEntities(),
		Summary:   PlaceholderSummary,
	})
	return len(s.records) - 1, displayID
}

// ReplaceAt swaps the record at index for rec, preserving the slot's display
// id when rec has none. An out-of-range index falls back to an upsert by
// display id so a late result is never dropped.
func (s *Store) ReplaceAt(index int, rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if index >= 0 && index < len(s.records) {
		if rec.DisplayID == "" {
			rec.DisplayID = s.records[index].DisplayID
		}
		s.records[index] = rec
		return
	}
	s.upsertLocked(rec)
}

// Fail records a terminal error. A trailing placeholder is replaced so the
// failed slot does not linger as Processing; otherwise the error is appended
// as its own record.
func (s *Store) Fail(errText string) Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := Record{
		ID:        uuid.NewString(),
		DisplayID: fmt.Sprintf("Document_%d_Error", len(s.records)+1),
		Entities:  NewEntities(),
		Err:       errText,
	}
	if n := len(s.records); n > 0 && s.records[n-1].Pending() {
		rec.DisplayID = fmt.Sprintf("Document_%d_Error", n)
		s.records[n-1] = rec
		return rec
	}
	s.records = append(s.records, rec)
	return rec
}

// Upsert inserts rec, or merges it into the existing record with the same
// display id keeping the higher-confidence value per field.
func (s *Store) Upsert(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	s.upsertLocked(rec)
}

func (s *Store) upsertLocked(rec Record) {
	for i := range s.records {
		if s.records[i].DisplayID != rec.DisplayID {
			continue
		}
		merged := MergeKeepHighest(s.records[i].Entities, rec.Entities)
		summary := rec.Summary
		if summary == "" {
			summary = s.records[i].Summary
		}
		s.records[i] = Record{
			ID:        rec.ID,
			DisplayID: rec.DisplayID,
			Entities:  merged,
			Summary:   summary,
			Err:       rec.Err,
		}
		return
	}
	s.records = append(s.records, rec)
}

// UpdateLatest runs fn on the most recent record under the lock. Reports
// false when the history is empty.
func (s *Store) UpdateLatest(fn func(*Record)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) == 0 {
		return false
	}
	fn(&s.records[len(s.records)-1])
	return true
}

// PropagateHighest merges source into every other finished record so older
// entries reflect the strongest known value per field. The record at
// excludeIndex (the one source came from) and error records are left alone.
func (s *Store) PropagateHighest(source Entities, excludeIndex int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if i == excludeIndex || s.records[i].Failed() || s.records[i].Pending() {
			continue
		}
		s.records[i].Entities = MergeKeepHighest(s.records[i].Entities, source)
	}
}

// Combined returns the threshold-gated best-value view across the session.
func (s *Store) Combined(threshold float64) Entities {
	return Combine(s.Records(), threshold)
}

// Reset clears the history and starts a new session id.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.session = uuid.NewString()
}
