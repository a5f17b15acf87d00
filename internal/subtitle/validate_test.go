package subtitle

import (
	"errors"
	"reflect"
	"testing"
)

func TestValidateChunkScenario(t *testing.T) {
	tl := ParseText(scenarioText, "")

	for _, e := range tl.Entries {
		if res := ValidateChunk(e, tl, 8); !res.IsValid {
			t.Errorf("%s: expected valid against 8s video, got %+v", e.ID, res.Errors)
		}
	}

	res := ValidateChunk(tl.Entries[1], tl, 4)
	if res.IsValid {
		t.Fatal("expected second entry to be invalid against 4s video")
	}
	if !res.Has(ViolationStartsAfterVideo) || !res.Has(ViolationEndsAfterVideo) {
		t.Errorf("expected starts/ends after video violations, got %+v", res.Errors)
	}
	if len(res.Errors) != 2 {
		t.Errorf("expected exactly 2 violations, got %+v", res.Errors)
	}
	if res.Errors[0].Message != "Chunk ends at 00:08 but video is only 00:04 long" {
		t.Errorf("unexpected message %q", res.Errors[0].Message)
	}
}

func TestValidateChunkRules(t *testing.T) {
	others := &Timeline{Entries: []Entry{
		NewEntry("other", 10, 20, "other"),
	}}

	tests := []struct {
		name  string
		entry Entry
		video float64
		want  []ViolationCode
	}{
		{"valid", NewEntry("e", 0, 5, ""), 30, nil},
		{"end within tolerance", NewEntry("e", 25, 31, ""), 30, nil},
		{"end beyond tolerance", NewEntry("e", 25, 31.5, ""), 30, []ViolationCode{ViolationEndsAfterVideo}},
		{"start at video end", NewEntry("e", 30, 30.5, ""), 30, nil},
		{"start after video", NewEntry("e", 30.5, 30.9, ""), 30, []ViolationCode{ViolationStartsAfterVideo}},
		{"negative start", Entry{ID: "e", StartTime: -1, EndTime: 2}, 30, []ViolationCode{ViolationNegativeStart}},
		{"zero length", NewEntry("e", 3, 3, ""), 30, []ViolationCode{ViolationEndNotAfterStart}},
		{"reversed", NewEntry("e", 5, 3, ""), 30, []ViolationCode{ViolationEndNotAfterStart}},
		{"overlaps start of other", NewEntry("e", 5, 11, ""), 30, []ViolationCode{ViolationIntersects}},
		{"inside other", NewEntry("e", 12, 15, ""), 30, []ViolationCode{ViolationIntersects}},
		{"covers other", NewEntry("e", 9, 21, ""), 30, []ViolationCode{ViolationIntersects}},
		{"ends where other starts", NewEntry("e", 5, 10, ""), 30, nil},
		{"starts where other ends", NewEntry("e", 20, 25, ""), 30, nil},
		{
			"everything at once",
			Entry{ID: "e", StartTime: -5, EndTime: -6},
			-10,
			[]ViolationCode{ViolationEndsAfterVideo, ViolationStartsAfterVideo, ViolationNegativeStart, ViolationEndNotAfterStart},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateChunk(tt.entry, others, tt.video)

			var got []ViolationCode
			for _, v := range res.Errors {
				got = append(got, v.Code)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("violations = %v, want %v", got, tt.want)
			}
			if res.IsValid != (len(tt.want) == 0) {
				t.Errorf("IsValid = %v with violations %v", res.IsValid, got)
			}
		})
	}
}

func TestValidateChunkIgnoresItself(t *testing.T) {
	tl := &Timeline{Entries: []Entry{NewEntry("same", 0, 5, "")}}
	if res := ValidateChunk(tl.Entries[0], tl, 10); !res.IsValid {
		t.Errorf("entry should not overlap itself: %+v", res.Errors)
	}
}

func TestOverlapAsymmetry(t *testing.T) {
	a := NewEntry("a", 0, 5, "A")
	b := NewEntry("b", 5, 10, "B")
	tl := &Timeline{Entries: []Entry{a, b}}

	if res := ValidateChunk(a, tl, 10); res.Has(ViolationIntersects) {
		t.Error("back-to-back entries flagged as intersecting")
	}
	if res := ValidateChunk(b, tl, 10); res.Has(ViolationIntersects) {
		t.Error("back-to-back entries flagged as intersecting")
	}

	got, ok := EntryAt(tl, 5)
	if !ok || got.ID != "a" {
		t.Errorf("EntryAt(5) = %q, want a (first in array order)", got.ID)
	}
}

func TestValidateChunkIdempotent(t *testing.T) {
	tl := &Timeline{Entries: []Entry{
		NewEntry("a", 0, 6, ""),
		NewEntry("b", 5, 12, ""),
	}}
	first := ValidateChunk(tl.Entries[1], tl, 10)
	for i := 0; i < 3; i++ {
		again := ValidateChunk(tl.Entries[1], tl, 10)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("validation result changed: %+v vs %+v", first, again)
		}
	}
}

func TestValidateAll(t *testing.T) {
	tl := &Timeline{Entries: []Entry{
		NewEntry("a", 0, 5, ""),
		NewEntry("b", 4, 8, ""),
		NewEntry("c", 9, 10, ""),
		NewEntry("d", 40, 45, ""),
	}}

	report := ValidateAll(tl, 30)
	if report.IsValid {
		t.Fatal("expected invalid report")
	}

	wantIDs := []string{"a", "b", "d"}
	if !reflect.DeepEqual(report.InvalidChunkIDs, wantIDs) {
		t.Errorf("invalid ids = %v, want %v", report.InvalidChunkIDs, wantIDs)
	}
	if _, ok := report.ErrorsByChunkID["c"]; ok {
		t.Error("valid entry should not appear in errors map")
	}
	if len(report.ErrorsByChunkID["d"]) != 2 {
		t.Errorf("expected 2 violations for d, got %+v", report.ErrorsByChunkID["d"])
	}

	wantCodes := []ViolationCode{ViolationEndsAfterVideo, ViolationIntersects, ViolationStartsAfterVideo}
	if !reflect.DeepEqual(report.Codes(), wantCodes) {
		t.Errorf("codes = %v, want %v", report.Codes(), wantCodes)
	}

	err := report.Err()
	if !errors.Is(err, ErrValidationFailed) {
		t.Errorf("expected ErrValidationFailed, got %v", err)
	}
	var vErr *ValidationError
	if !errors.As(err, &vErr) || len(vErr.Report.InvalidChunkIDs) != 3 {
		t.Errorf("expected *ValidationError carrying the report, got %v", err)
	}
}

func TestValidateAllValid(t *testing.T) {
	report := ValidateAll(ParseText(scenarioText, ""), 8)
	if !report.IsValid || len(report.InvalidChunkIDs) != 0 || report.Err() != nil {
		t.Errorf("expected valid report, got %+v", report)
	}

	if r := ValidateAll(nil, 0); !r.IsValid {
		t.Error("nil timeline should validate")
	}
}
