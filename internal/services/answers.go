package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/SAP-F-2025/exam-service/internal/models"
)

// ParseAnswers validates a raw answers payload into answer entries. It accepts
//
//	[{"question_id":1,"selected_label":"B"}]
//	[{"questionId":1,"selectedOption":"B","isAnswered":true}]
//	{"1":"B"}
//
// and any of those wrapped once in a JSON string. Entries that cannot be used
// are dropped and listed in the returned warning; an unusable payload yields no
// answers. The warning is nil when every entry was accepted.
func ParseAnswers(raw []byte) ([]models.AnswerEntry, *MalformedAnswersWarning) {
	p := &answerParser{index: make(map[uint]int)}
	p.parse(raw, true)

	if len(p.problems) == 0 {
		return p.entries, nil
	}
	return p.entries, &MalformedAnswersWarning{Problems: p.problems}
}

// AnswerMap indexes entries by question id
func AnswerMap(entries []models.AnswerEntry) map[uint]models.ChoiceLabel {
	out := make(map[uint]models.ChoiceLabel, len(entries))
	for _, entry := range entries {
		out[entry.QuestionID] = entry.Label
	}
	return out
}

type answerParser struct {
	entries  []models.AnswerEntry
	index    map[uint]int
	problems []string
}

func (p *answerParser) parse(raw []byte, unwrap bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return
	}

	switch raw[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			p.reject("answers payload is not valid JSON: %v", err)
			return
		}
		for i, item := range items {
			p.parseListEntry(i, item)
		}
	case '{':
		var items map[string]json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			p.reject("answers payload is not valid JSON: %v", err)
			return
		}
		p.parseMap(items)
	case '"':
		var inner string
		if !unwrap || json.Unmarshal(raw, &inner) != nil {
			p.reject("answers payload is not a JSON list or object")
			return
		}
		p.parse([]byte(inner), false)
	default:
		p.reject("answers payload is not a JSON list or object")
	}
}

func (p *answerParser) parseListEntry(pos int, item json.RawMessage) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil || fields == nil {
		p.reject("entry %d is not an object", pos)
		return
	}

	rawID, ok := firstField(fields, "question_id", "questionId")
	if !ok {
		p.reject("entry %d has no question id", pos)
		return
	}
	questionID, ok := parseQuestionID(rawID)
	if !ok {
		p.reject("entry %d has invalid question id %s", pos, string(rawID))
		return
	}

	if rawAnswered, ok := firstField(fields, "isAnswered", "is_answered"); ok {
		var answered bool
		if err := json.Unmarshal(rawAnswered, &answered); err == nil && !answered {
			return
		}
	}

	rawLabel, _ := firstField(fields, "selected_label", "selectedOption")
	p.add(questionID, rawLabel)
}

func (p *answerParser) parseMap(items map[string]json.RawMessage) {
	// map iteration order is random; keep the output stable
	keys := make([]string, 0, len(items))
	for key := range items {
		keys = append(keys, key)
	}
	sortNumericKeys(keys)

	for _, key := range keys {
		questionID, err := strconv.ParseUint(strings.TrimSpace(key), 10, 64)
		if err != nil || questionID == 0 || questionID > math.MaxUint32 {
			p.reject("invalid question id %q", key)
			continue
		}
		p.add(uint(questionID), items[key])
	}
}

func (p *answerParser) add(questionID uint, rawLabel json.RawMessage) {
	if len(rawLabel) == 0 || bytes.Equal(rawLabel, []byte("null")) {
		return
	}

	var text string
	if err := json.Unmarshal(rawLabel, &text); err != nil {
		p.reject("question %d: selected label must be a string", questionID)
		return
	}
	if strings.TrimSpace(text) == "" {
		return
	}
	label, ok := models.ParseChoiceLabel(text)
	if !ok {
		p.reject("question %d: invalid label %q", questionID, text)
		return
	}

	entry := models.AnswerEntry{QuestionID: questionID, Label: label}
	if i, seen := p.index[questionID]; seen {
		p.reject("question %d answered more than once, keeping the last answer", questionID)
		p.entries[i] = entry
		return
	}
	p.index[questionID] = len(p.entries)
	p.entries = append(p.entries, entry)
}

func (p *answerParser) reject(format string, args ...interface{}) {
	p.problems = append(p.problems, fmt.Sprintf(format, args...))
}

func firstField(fields map[string]json.RawMessage, names ...string) (json.RawMessage, bool) {
	for _, name := range names {
		if value, ok := fields[name]; ok {
			return value, true
		}
	}
	return nil, false
}

// parseQuestionID accepts 7 and "7"
func parseQuestionID(raw json.RawMessage) (uint, bool) {
	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return 0, false
	}

	switch v := value.(type) {
	case float64:
		if v < 1 || v > math.MaxUint32 || v != math.Trunc(v) {
			return 0, false
		}
		return uint(v), true
	case string:
		id, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil || id == 0 || id > math.MaxUint32 {
			return 0, false
		}
		return uint(id), true
	default:
		return 0, false
	}
}

func sortNumericKeys(keys []string) {
	numeric := func(s string) (uint64, bool) {
		n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
		return n, err == nil
	}
	less := func(a, b string) bool {
		na, okA := numeric(a)
		nb, okB := numeric(b)
		switch {
		case okA && okB:
			return na < nb
		case okA != okB:
			return okA
		default:
			return a < b
		}
	}
	sort.Slice(keys, func(i, j int) bool { return less(keys[i], keys[j]) })
}
