package answers

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/brightpath/attempt-service/internal/models"
)

// The codec is the single translation boundary between the backend's untyped
// option/answer payloads and the typed values the rest of the service works
// with. Every function here is total: malformed input degrades to an empty or
// placeholder result, never an error. The attempt UI must keep rendering when
// the backend changes a payload shape.

// Option is one selectable choice, normalized from whatever shape the backend
// sent.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// MatchSides holds the two columns of a matching question.
type MatchSides struct {
	Left  []string `json:"left"`
	Right []string `json:"right"`
}

// DecodeOptions accepts a flat string list, an object list with
// text/label/value fallbacks, or nothing. Malformed entries degrade to
// stringified placeholders.
func DecodeOptions(spec []byte) []Option {
	items, ok := decodeAny(spec).([]any)
	if !ok {
		return []Option{}
	}

	options := make([]Option, 0, len(items))
	for i, item := range items {
		switch v := item.(type) {
		case string:
			options = append(options, Option{ID: v, Text: v})
		case map[string]any:
			text := stringField(v, "text", "label", "value")
			id := stringField(v, "id", "value")
			if text == "" {
				text = fmt.Sprintf("Option %d", i+1)
			}
			if id == "" {
				id = text
			}
			options = append(options, Option{ID: id, Text: text})
		default:
			s := formatScalar(v)
			if s == "" {
				s = fmt.Sprintf("Option %d", i+1)
			}
			options = append(options, Option{ID: s, Text: s})
		}
	}
	return options
}

// DecodeMatchPairs accepts a nested {pairs:[...]} wrapper, a flat pair-object
// list (left/premise and right/response key fallbacks), or an explicit
// {left,right} object. Unrecognized shapes decode to empty sides.
func DecodeMatchPairs(spec []byte) MatchSides {
	sides := MatchSides{Left: []string{}, Right: []string{}}

	switch v := decodeAny(spec).(type) {
	case []any:
		appendPairObjects(&sides, v)
	case map[string]any:
		if pairs, ok := v["pairs"].([]any); ok {
			appendPairObjects(&sides, pairs)
			return sides
		}
		sides.Left = toStringList(v["left"])
		sides.Right = toStringList(v["right"])
	}
	return sides
}

func appendPairObjects(sides *MatchSides, items []any) {
	for _, item := range items {
		pair, ok := item.(map[string]any)
		if !ok {
			continue
		}
		left := stringField(pair, "left", "premise")
		right := stringField(pair, "right", "response")
		if left == "" && right == "" {
			continue
		}
		sides.Left = append(sides.Left, left)
		sides.Right = append(sides.Right, right)
	}
}

// DecodeOrderItems accepts a flat list or {items:[...]}; unrecognized shapes
// decode to an empty list.
func DecodeOrderItems(spec []byte) []string {
	switch v := decodeAny(spec).(type) {
	case []any:
		return toStringList(v)
	case map[string]any:
		return toStringList(v["items"])
	}
	return []string{}
}

// ExtractAnswerValue unwraps answers the backend wrapped in a value/answer/
// correctAnswer envelope, and returns anything else unchanged. The backend
// wraps inconsistently depending on endpoint.
func ExtractAnswerValue(raw any) any {
	wrapper, ok := raw.(map[string]any)
	if !ok {
		return raw
	}
	for _, key := range []string{"value", "answer", "correctAnswer"} {
		if inner, present := wrapper[key]; present {
			return inner
		}
	}
	return raw
}

// HasAnswerValue is the canonical "has the learner touched this question"
// test: true for a non-empty string, a finite number, any boolean, a
// non-empty list or a non-empty mapping.
func HasAnswerValue(raw any) bool {
	switch v := ExtractAnswerValue(raw).(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(v) != ""
	case bool:
		return true
	case float64:
		return !math.IsNaN(v) && !math.IsInf(v, 0)
	case int, int64:
		return true
	case []any:
		return len(v) > 0
	case []string:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	case map[string]string:
		return len(v) > 0
	case models.AnswerValue:
		return !v.IsNone() && HasAnswerValue(answerValueAsAny(v))
	default:
		return false
	}
}

// FormatAnswerForDisplay resolves option ids to labels and renders any
// supported answer shape as a human-readable string. Matching pairs render as
// "left -> right" joined by commas. Never returns an error; unrecognized
// shapes fall back to a JSON rendering, worst case a fmt rendering.
func FormatAnswerForDisplay(raw any, spec []byte) string {
	value := ExtractAnswerValue(raw)
	if !HasAnswerValue(value) {
		return ""
	}

	options := DecodeOptions(spec)

	switch v := value.(type) {
	case string:
		return resolveLabel(v, options)
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return formatScalar(v)
	case []any:
		return joinLabels(toStringList(v), options)
	case []string:
		return joinLabels(v, options)
	case map[string]any:
		return formatPairs(toStringMap(v), spec)
	case map[string]string:
		return formatPairs(v, spec)
	case models.AnswerValue:
		return FormatAnswerForDisplay(answerValueAsAny(v), spec)
	default:
		if encoded, err := json.Marshal(v); err == nil {
			return string(encoded)
		}
		return fmt.Sprintf("%v", v)
	}
}

// ===== WIRE ENCODING =====

// EncodeAnswer renders the in-memory answer as its wire form: a JSON string
// for scalar kinds, an array for lists, an object for pairs, null when
// unanswered.
func EncodeAnswer(value models.AnswerValue) json.RawMessage {
	var encoded []byte
	var err error

	switch value.Kind {
	case models.AnswerText:
		encoded, err = json.Marshal(value.Text)
	case models.AnswerList:
		list := value.List
		if list == nil {
			list = []string{}
		}
		encoded, err = json.Marshal(list)
	case models.AnswerPair:
		pairs := value.Pairs
		if pairs == nil {
			pairs = map[string]string{}
		}
		encoded, err = json.Marshal(pairs)
	default:
		return json.RawMessage("null")
	}
	if err != nil {
		return json.RawMessage("null")
	}
	return encoded
}

// DecodeAnswer is the inverse of EncodeAnswer, tolerant of wrapped values and
// of the backend's looser scalar types. The question type settles ambiguity
// for booleans and numbers, which travel as their JSON forms on some
// endpoints.
func DecodeAnswer(questionType models.QuestionType, raw json.RawMessage) models.AnswerValue {
	if len(raw) == 0 {
		return models.NoAnswer()
	}
	value := ExtractAnswerValue(decodeAny(raw))

	switch v := value.(type) {
	case nil:
		return models.NoAnswer()
	case string:
		return models.TextAnswer(v)
	case bool:
		return models.TextAnswer(strconv.FormatBool(v))
	case float64:
		return models.TextAnswer(formatScalar(v))
	case []any:
		return models.ListAnswer(toStringList(v))
	case map[string]any:
		return models.PairAnswer(toStringMap(v))
	default:
		return models.NoAnswer()
	}
}

// ===== INTERNAL HELPERS =====

func decodeAny(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

func stringField(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func formatScalar(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case nil:
		return ""
	default:
		if encoded, err := json.Marshal(s); err == nil {
			return string(encoded)
		}
		return fmt.Sprintf("%v", s)
	}
}

func toStringList(v any) []string {
	switch items := v.(type) {
	case []any:
		list := make([]string, 0, len(items))
		for _, item := range items {
			list = append(list, formatScalar(item))
		}
		return list
	case []string:
		return items
	}
	return []string{}
}

func toStringMap(m map[string]any) map[string]string {
	out := make(map[string]string, len(m))
	for key, value := range m {
		out[key] = formatScalar(value)
	}
	return out
}

// resolveLabel matches case-insensitively against option ids first, then
// option text, and falls back to the raw value.
func resolveLabel(value string, options []Option) string {
	for _, opt := range options {
		if strings.EqualFold(opt.ID, value) {
			return opt.Text
		}
	}
	for _, opt := range options {
		if strings.EqualFold(opt.Text, value) {
			return opt.Text
		}
	}
	return value
}

func joinLabels(values []string, options []Option) string {
	labels := make([]string, len(values))
	for i, value := range values {
		labels[i] = resolveLabel(value, options)
	}
	return strings.Join(labels, ", ")
}

// formatPairs renders "left -> right" entries following the optionSpec's left
// column order where known, leftover keys alphabetically.
func formatPairs(pairs map[string]string, spec []byte) string {
	if len(pairs) == 0 {
		return ""
	}

	seen := make(map[string]bool, len(pairs))
	ordered := make([]string, 0, len(pairs))
	for _, left := range DecodeMatchPairs(spec).Left {
		if _, ok := pairs[left]; ok && !seen[left] {
			ordered = append(ordered, left)
			seen[left] = true
		}
	}
	var leftover []string
	for left := range pairs {
		if !seen[left] {
			leftover = append(leftover, left)
		}
	}
	sort.Strings(leftover)
	ordered = append(ordered, leftover...)

	parts := make([]string, len(ordered))
	for i, left := range ordered {
		parts[i] = left + " -> " + pairs[left]
	}
	return strings.Join(parts, ", ")
}

func answerValueAsAny(v models.AnswerValue) any {
	switch v.Kind {
	case models.AnswerText:
		return v.Text
	case models.AnswerList:
		return v.List
	case models.AnswerPair:
		return v.Pairs
	default:
		return nil
	}
}
