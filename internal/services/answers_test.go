package services

import (
	"reflect"
	"strings"
	"testing"

	"github.com/SAP-F-2025/exam-service/internal/models"
)

func TestParseAnswers(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		want        map[uint]models.ChoiceLabel
		wantWarning bool
	}{
		{
			name: "snake case list",
			raw:  `[{"question_id":1,"selected_label":"B"},{"question_id":2,"selected_label":"d"}]`,
			want: map[uint]models.ChoiceLabel{1: "B", 2: "D"},
		},
		{
			name: "client list with isAnswered",
			raw:  `[{"questionId":"3","selectedOption":"A","isAnswered":true},{"questionId":4,"selectedOption":"C","isAnswered":false}]`,
			want: map[uint]models.ChoiceLabel{3: "A"},
		},
		{
			name: "object keyed by question id",
			raw:  `{"10":"c","2":"A"}`,
			want: map[uint]models.ChoiceLabel{2: "A", 10: "C"},
		},
		{
			name: "payload wrapped in a string",
			raw:  `"[{\"question_id\":5,\"selected_label\":\"B\"}]"`,
			want: map[uint]models.ChoiceLabel{5: "B"},
		},
		{
			name: "null and empty labels are unanswered",
			raw:  `[{"question_id":1,"selected_label":null},{"question_id":2,"selected_label":"  "},{"question_id":3}]`,
			want: map[uint]models.ChoiceLabel{},
		},
		{
			name: "empty payload",
			raw:  ``,
			want: map[uint]models.ChoiceLabel{},
		},
		{
			name: "null payload",
			raw:  `null`,
			want: map[uint]models.ChoiceLabel{},
		},
		{
			name:        "invalid label is dropped",
			raw:         `[{"question_id":1,"selected_label":"E"},{"question_id":2,"selected_label":"A"}]`,
			want:        map[uint]models.ChoiceLabel{2: "A"},
			wantWarning: true,
		},
		{
			name:        "non string label is dropped",
			raw:         `[{"question_id":1,"selected_label":2}]`,
			want:        map[uint]models.ChoiceLabel{},
			wantWarning: true,
		},
		{
			name:        "bad question ids are dropped",
			raw:         `[{"question_id":0,"selected_label":"A"},{"question_id":-1,"selected_label":"A"},{"question_id":1.5,"selected_label":"A"},{"selected_label":"A"}]`,
			want:        map[uint]models.ChoiceLabel{},
			wantWarning: true,
		},
		{
			name:        "non object entry",
			raw:         `["A",{"question_id":7,"selected_label":"D"}]`,
			want:        map[uint]models.ChoiceLabel{7: "D"},
			wantWarning: true,
		},
		{
			name:        "duplicate keeps last",
			raw:         `[{"question_id":1,"selected_label":"A"},{"question_id":1,"selected_label":"C"}]`,
			want:        map[uint]models.ChoiceLabel{1: "C"},
			wantWarning: true,
		},
		{
			name:        "scalar payload",
			raw:         `42`,
			want:        map[uint]models.ChoiceLabel{},
			wantWarning: true,
		},
		{
			name:        "broken JSON",
			raw:         `[{"question_id":1,`,
			want:        map[uint]models.ChoiceLabel{},
			wantWarning: true,
		},
		{
			name:        "doubly wrapped string",
			raw:         `"\"[]\""`,
			want:        map[uint]models.ChoiceLabel{},
			wantWarning: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, warning := ParseAnswers([]byte(tt.raw))

			if got := AnswerMap(entries); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("answers = %v, want %v", got, tt.want)
			}
			if (warning != nil) != tt.wantWarning {
				t.Errorf("warning = %v, wantWarning %v", warning, tt.wantWarning)
			}
		})
	}
}

func TestParseAnswers_ObjectOrderIsStable(t *testing.T) {
	entries, warning := ParseAnswers([]byte(`{"30":"A","4":"B","100":"C","x":"D"}`))
	if warning == nil || !strings.Contains(warning.Error(), `"x"`) {
		t.Fatalf("expected warning about key x, got %v", warning)
	}

	var ids []uint
	for _, entry := range entries {
		ids = append(ids, entry.QuestionID)
	}
	if !reflect.DeepEqual(ids, []uint{4, 30, 100}) {
		t.Errorf("question order = %v, want [4 30 100]", ids)
	}
}
