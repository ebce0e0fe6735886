package document

import (
	"strings"
	"testing"
)

func cv(value string, conf float64) ConfidenceValue {
	return ConfidenceValue{Value: value, Confidence: conf}
}

func TestNewConfidenceValue(t *testing.T) {
	if got := NewConfidenceValue("", 0.5); got.Value != "N/A" {
		t.Errorf("empty value = %q, want N/A", got.Value)
	}
	if got := NewConfidenceValue("x", 1.5); got.Confidence != 1 {
		t.Errorf("confidence above 1 = %v, want clamped to 1", got.Confidence)
	}
	if got := NewConfidenceValue("x", -0.2); got.Confidence != 0 {
		t.Errorf("negative confidence = %v, want clamped to 0", got.Confidence)
	}
}

func TestValidValue(t *testing.T) {
	for _, invalid := range []string{"", "  ", "N/A", "n/a", "Not Listed", "No", "legal description is missing"} {
		if ValidValue(invalid) {
			t.Errorf("ValidValue(%q) = true, want false", invalid)
		}
	}
	for _, valid := range []string{"Yes", "JOHN DOE", "123456", "0.00"} {
		if !ValidValue(valid) {
			t.Errorf("ValidValue(%q) = false, want true", valid)
		}
	}
}

func TestPlaceholderLifecycle(t *testing.T) {
	s := NewStore()

	idx, displayID := s.Placeholder()
	if idx != 0 || displayID != "Document_1" {
		t.Fatalf("first placeholder = (%d, %q), want (0, Document_1)", idx, displayID)
	}
	if rec, ok := s.Latest(); !ok || !rec.Pending() {
		t.Fatalf("latest = %+v, want pending placeholder", rec)
	}

	done := Record{DisplayID: displayID, Summary: "Deed of trust"}
	done.Entities = NewEntities()
	done.Entities.DocumentType = cv("Deed of Trust", 0.97)
	s.ReplaceAt(idx, done)

	recs := s.Records()
	if len(recs) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(recs))
	}
	if recs[0].Pending() {
		t.Error("record still pending after ReplaceAt")
	}
	if recs[0].Entities.DocumentType.Value != "Deed of Trust" {
		t.Errorf("DocumentType = %q, want Deed of Trust", recs[0].Entities.DocumentType.Value)
	}

	if _, id2 := s.Placeholder(); id2 != "Document_2" {
		t.Errorf("second placeholder display id = %q, want Document_2", id2)
	}
}

func TestReplaceAtOutOfRangeUpserts(t *testing.T) {
	s := NewStore()
	rec := Record{DisplayID: "Document_1", Summary: "late"}
	rec.Entities = NewEntities()
	s.ReplaceAt(5, rec)
	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1 after out-of-range ReplaceAt", s.Len())
	}
}

func TestFailReplacesTrailingPlaceholder(t *testing.T) {
	s := NewStore()
	s.Placeholder()

	rec := s.Fail("analysis failed: boom")
	if !rec.Failed() {
		t.Fatal("Fail returned a non-error record")
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1 (placeholder replaced, not appended)", s.Len())
	}
	if !strings.Contains(rec.DisplayID, "_Error") {
		t.Errorf("error display id = %q, want _Error suffix", rec.DisplayID)
	}

	// Without a trailing placeholder the error appends.
	s.Fail("second failure")
	if s.Len() != 2 {
		t.Fatalf("len = %d, want 2", s.Len())
	}
}

func TestUpsertMergesByDisplayID(t *testing.T) {
	s := NewStore()
	first := Record{DisplayID: "Document_1"}
	first.Entities = NewEntities()
	first.Entities.LenderName = cv("ACME BANK", 0.80)
	s.Append(first)

	second := Record{DisplayID: "Document_1", Summary: "recheck"}
	second.Entities = NewEntities()
	second.Entities.LenderName = cv("ACME BANK, N.A.", 0.95)
	s.Upsert(second)

	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1 after upsert of same display id", s.Len())
	}
	rec, _ := s.Latest()
	if rec.Entities.LenderName.Value != "ACME BANK, N.A." {
		t.Errorf("LenderName = %q, want the higher-confidence value", rec.Entities.LenderName.Value)
	}
	if rec.Summary != "recheck" {
		t.Errorf("Summary = %q, want recheck", rec.Summary)
	}
}

func TestPropagateHighestSkipsSourceAndErrors(t *testing.T) {
	s := NewStore()

	old := Record{DisplayID: "Document_1"}
	old.Entities = NewEntities()
	old.Entities.LoanAmount = cv("250000.00", 0.70)
	s.Append(old)

	s.Append(Record{DisplayID: "Document_2_Error", Entities: NewEntities(), Err: "boom"})

	latest := Record{DisplayID: "Document_3"}
	latest.Entities = NewEntities()
	latest.Entities.LoanAmount = cv("255000.00", 0.98)
	s.Append(latest)

	s.PropagateHighest(latest.Entities, 2)

	recs := s.Records()
	if got := recs[0].Entities.LoanAmount; got.Value != "255000.00" || got.Confidence != 0.98 {
		t.Errorf("history LoanAmount = %+v, want upgraded to 255000.00/0.98", got)
	}
	if recs[1].Entities.LoanAmount.Value != "N/A" {
		t.Errorf("error record was touched by propagation: %+v", recs[1].Entities.LoanAmount)
	}
	if recs[2].Entities.LoanAmount.Value != "255000.00" {
		t.Errorf("source record changed: %+v", recs[2].Entities.LoanAmount)
	}
}

func TestResetStartsNewSession(t *testing.T) {
	s := NewStore()
	before := s.Session()
	s.Append(Record{DisplayID: "Document_1", Entities: NewEntities()})

	s.Reset()

	if s.Len() != 0 {
		t.Errorf("len after reset = %d, want 0", s.Len())
	}
	if s.Session() == before {
		t.Error("session id unchanged after reset")
	}
}

func TestUpdateLatest(t *testing.T) {
	s := NewStore()
	if s.UpdateLatest(func(r *Record) {}) {
		t.Error("UpdateLatest on empty store = true, want false")
	}
	s.Append(Record{DisplayID: "Document_1", Entities: NewEntities()})
	ok := s.UpdateLatest(func(r *Record) {
		r.Entities.MIN = cv("123456789012345678", 1)
	})
	if !ok {
		t.Fatal("UpdateLatest = false, want true")
	}
	rec, _ := s.Latest()
	if rec.Entities.MIN.Value != "123456789012345678" {
		t.Errorf("MIN = %q, want the edited value", rec.Entities.MIN.Value)
	}
}
