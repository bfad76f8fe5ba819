package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseChoiceOrder(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ChoiceOrder
		wantErr bool
	}{
		{name: "identity", input: "A,B,C,D", want: IdentityOrder},
		{name: "shuffled", input: "B,A,D,C", want: ChoiceOrder{ChoiceB, ChoiceA, ChoiceD, ChoiceC}},
		{name: "lowercase and spaces", input: " d, c ,b,a", want: ChoiceOrder{ChoiceD, ChoiceC, ChoiceB, ChoiceA}},
		{name: "too short", input: "A,B,C", wantErr: true},
		{name: "too long", input: "A,B,C,D,A", wantErr: true},
		{name: "repeated label", input: "A,A,C,D", wantErr: true},
		{name: "unknown label", input: "A,B,C,E", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseChoiceOrder(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseChoiceOrder(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseChoiceOrder(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestChoiceOrder_OriginalAndDisplayed(t *testing.T) {
	order := ChoiceOrder{ChoiceB, ChoiceA, ChoiceD, ChoiceC}

	tests := []struct {
		displayed ChoiceLabel
		original  ChoiceLabel
	}{
		{ChoiceA, ChoiceB},
		{ChoiceB, ChoiceA},
		{ChoiceC, ChoiceD},
		{ChoiceD, ChoiceC},
	}

	for _, tt := range tests {
		got, ok := order.Original(tt.displayed)
		if !ok || got != tt.original {
			t.Errorf("Original(%s) = %s, %v; want %s", tt.displayed, got, ok, tt.original)
		}
		back, ok := order.Displayed(tt.original)
		if !ok || back != tt.displayed {
			t.Errorf("Displayed(%s) = %s, %v; want %s", tt.original, back, ok, tt.displayed)
		}
	}

	if _, ok := order.Original("E"); ok {
		t.Error("Original should reject an unknown label")
	}
}

func TestChoiceOrder_ValueAndScan(t *testing.T) {
	order := ChoiceOrder{ChoiceC, ChoiceA, ChoiceD, ChoiceB}

	value, err := order.Value()
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	if value != "C,A,D,B" {
		t.Fatalf("Value() = %v, want C,A,D,B", value)
	}

	var scanned ChoiceOrder
	if err := scanned.Scan([]byte("C,A,D,B")); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if scanned != order {
		t.Errorf("Scan() = %v, want %v", scanned, order)
	}

	if _, err := (ChoiceOrder{ChoiceA, ChoiceA, ChoiceB, ChoiceC}).Value(); err == nil {
		t.Error("Value() should refuse an invalid order")
	}
	if err := scanned.Scan(42); err == nil {
		t.Error("Scan() should reject non-string columns")
	}
}

func TestChoiceOrder_JSON(t *testing.T) {
	data, err := json.Marshal(ChoiceOrder{ChoiceD, ChoiceC, ChoiceB, ChoiceA})
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	if string(data) != `"D,C,B,A"` {
		t.Errorf("Marshal = %s", data)
	}

	var decoded ChoiceOrder
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if decoded != (ChoiceOrder{ChoiceD, ChoiceC, ChoiceB, ChoiceA}) {
		t.Errorf("Unmarshal = %v", decoded)
	}

	if err := json.Unmarshal([]byte(`"A,B"`), &decoded); err == nil {
		t.Error("Unmarshal should reject a short order")
	}
}

func TestExamSchedule_Window(t *testing.T) {
	schedule := &ExamSchedule{
		StartTime: mustTime(t, "2025-01-10T08:00:00Z"),
		EndTime:   mustTime(t, "2025-01-10T10:00:00Z"),
	}

	tests := []struct {
		now  string
		want WindowState
	}{
		{"2025-01-10T07:59:59Z", WindowNotOpen},
		{"2025-01-10T08:00:00Z", WindowOpen},
		{"2025-01-10T10:00:00Z", WindowOpen},
		{"2025-01-10T10:00:01Z", WindowClosed},
	}
	for _, tt := range tests {
		if got := schedule.Window(mustTime(t, tt.now)); got != tt.want {
			t.Errorf("Window(%s) = %s, want %s", tt.now, got, tt.want)
		}
	}

	if got := (&ExamSchedule{}).AttemptLimit(); got != DefaultMaxAttempts {
		t.Errorf("AttemptLimit() of unset schedule = %d, want %d", got, DefaultMaxAttempts)
	}
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(20, 10, 25)
	if p.Page != 3 || p.Size != 10 || p.Total != 25 || p.Pages != 3 {
		t.Errorf("NewPagination(20, 10, 25) = %+v", p)
	}

	p = NewPagination(0, 0, 0)
	if p.Page != 1 || p.Size != 10 || p.Pages != 0 {
		t.Errorf("NewPagination(0, 0, 0) = %+v", p)
	}
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("bad time %q: %v", value, err)
	}
	return parsed
}
