package answers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath/attempt-service/internal/models"
)

func TestDecodeOptions(t *testing.T) {
	t.Run("flat string list", func(t *testing.T) {
		options := DecodeOptions([]byte(`["Paris","London","Rome"]`))
		require.Len(t, options, 3)
		assert.Equal(t, Option{ID: "Paris", Text: "Paris"}, options[0])
	})

	t.Run("object list with text", func(t *testing.T) {
		options := DecodeOptions([]byte(`[{"id":"a","text":"Alpha"},{"id":"b","text":"Beta"}]`))
		require.Len(t, options, 2)
		assert.Equal(t, Option{ID: "a", Text: "Alpha"}, options[0])
	})

	t.Run("label and value fallbacks", func(t *testing.T) {
		options := DecodeOptions([]byte(`[{"label":"First"},{"value":"second"}]`))
		require.Len(t, options, 2)
		assert.Equal(t, "First", options[0].Text)
		assert.Equal(t, "second", options[1].Text)
		assert.Equal(t, "second", options[1].ID)
	})

	t.Run("malformed entries degrade to placeholders", func(t *testing.T) {
		options := DecodeOptions([]byte(`[{},42,null]`))
		require.Len(t, options, 3)
		assert.Equal(t, "Option 1", options[0].Text)
		assert.Equal(t, "42", options[1].Text)
		assert.Equal(t, "Option 3", options[2].Text)
	})

	t.Run("non-list shapes decode empty", func(t *testing.T) {
		assert.Empty(t, DecodeOptions(nil))
		assert.Empty(t, DecodeOptions([]byte(`"oops"`)))
		assert.Empty(t, DecodeOptions([]byte(`{not json`)))
	})
}

func TestDecodeMatchPairs(t *testing.T) {
	t.Run("nested pairs wrapper", func(t *testing.T) {
		sides := DecodeMatchPairs([]byte(`{"pairs":[{"left":"Cat","right":"Meow"},{"left":"Dog","right":"Bark"}]}`))
		assert.Equal(t, []string{"Cat", "Dog"}, sides.Left)
		assert.Equal(t, []string{"Meow", "Bark"}, sides.Right)
	})

	t.Run("flat pair list with premise and response keys", func(t *testing.T) {
		sides := DecodeMatchPairs([]byte(`[{"premise":"H2O","response":"water"}]`))
		assert.Equal(t, []string{"H2O"}, sides.Left)
		assert.Equal(t, []string{"water"}, sides.Right)
	})

	t.Run("explicit left and right lists", func(t *testing.T) {
		sides := DecodeMatchPairs([]byte(`{"left":["a","b"],"right":["1","2"]}`))
		assert.Equal(t, []string{"a", "b"}, sides.Left)
		assert.Equal(t, []string{"1", "2"}, sides.Right)
	})

	t.Run("unrecognized shapes decode empty without panicking", func(t *testing.T) {
		sides := DecodeMatchPairs([]byte(`"nope"`))
		assert.Empty(t, sides.Left)
		assert.Empty(t, sides.Right)
	})
}

func TestDecodeOrderItems(t *testing.T) {
	assert.Equal(t, []string{"x", "y"}, DecodeOrderItems([]byte(`["x","y"]`)))
	assert.Equal(t, []string{"x", "y"}, DecodeOrderItems([]byte(`{"items":["x","y"]}`)))
	assert.Empty(t, DecodeOrderItems([]byte(`17`)))
	assert.Empty(t, DecodeOrderItems(nil))
}

func TestExtractAnswerValue(t *testing.T) {
	assert.Equal(t, "London", ExtractAnswerValue(map[string]any{"value": "London"}))
	assert.Equal(t, "London", ExtractAnswerValue(map[string]any{"answer": "London"}))
	assert.Equal(t, "London", ExtractAnswerValue(map[string]any{"correctAnswer": "London"}))
	assert.Equal(t, "London", ExtractAnswerValue("London"))

	// A map without a wrapper key is itself the value (matching answers).
	pairs := map[string]any{"Cat": "Meow"}
	assert.Equal(t, pairs, ExtractAnswerValue(pairs))
}

func TestHasAnswerValue(t *testing.T) {
	falsy := []any{nil, "", "   ", []any{}, map[string]any{}}
	for _, v := range falsy {
		assert.Falsef(t, HasAnswerValue(v), "expected no answer for %#v", v)
	}

	truthy := []any{"0", float64(0), false, []any{"a"}, map[string]any{"x": "y"}}
	for _, v := range truthy {
		assert.Truef(t, HasAnswerValue(v), "expected answer for %#v", v)
	}

	assert.False(t, HasAnswerValue(models.NoAnswer()))
	assert.False(t, HasAnswerValue(models.TextAnswer("  ")))
	assert.True(t, HasAnswerValue(models.TextAnswer("0")))
	assert.True(t, HasAnswerValue(models.ListAnswer([]string{"a"})))
}

func TestAnswerRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		qtype models.QuestionType
		value models.AnswerValue
	}{
		{"multiple choice", models.MultipleChoice, models.TextAnswer("London")},
		{"true false", models.TrueFalse, models.TextAnswer("true")},
		{"numeric", models.Numeric, models.TextAnswer("42.5")},
		{"short answer", models.ShortAnswer, models.TextAnswer("photosynthesis")},
		{"essay", models.Essay, models.TextAnswer("a longer body of text")},
		{"multi select", models.MultiSelect, models.ListAnswer([]string{"a", "c"})},
		{"ordering", models.Ordering, models.ListAnswer([]string{"third", "first", "second"})},
		{"matching", models.Matching, models.PairAnswer(map[string]string{"Cat": "Meow", "Dog": "Bark"})},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			encoded := EncodeAnswer(tc.value)
			decoded := DecodeAnswer(tc.qtype, encoded)
			assert.True(t, tc.value.Equal(decoded),
				"round trip changed value: %#v -> %s -> %#v", tc.value, encoded, decoded)
		})
	}

	t.Run("unanswered encodes as null and decodes as none", func(t *testing.T) {
		encoded := EncodeAnswer(models.NoAnswer())
		assert.Equal(t, json.RawMessage("null"), encoded)
		assert.True(t, DecodeAnswer(models.Essay, encoded).IsNone())
	})

	t.Run("wrapped wire values decode transparently", func(t *testing.T) {
		decoded := DecodeAnswer(models.MultipleChoice, []byte(`{"value":"London"}`))
		assert.True(t, models.TextAnswer("London").Equal(decoded))
	})
}

func TestFormatAnswerForDisplay(t *testing.T) {
	t.Run("multiple choice selection renders its label", func(t *testing.T) {
		spec := []byte(`["Paris","London","Rome"]`)
		encoded := EncodeAnswer(models.TextAnswer("London"))
		decoded := DecodeAnswer(models.MultipleChoice, encoded)
		assert.Equal(t, "London", FormatAnswerForDisplay(decoded, spec))
	})

	t.Run("option id resolves to option text case-insensitively", func(t *testing.T) {
		spec := []byte(`[{"id":"opt1","text":"Paris"},{"id":"opt2","text":"London"}]`)
		assert.Equal(t, "London", FormatAnswerForDisplay("OPT2", spec))
	})

	t.Run("matching renders left -> right pairs", func(t *testing.T) {
		spec := []byte(`{"pairs":[{"left":"Cat","right":"Meow"},{"left":"Dog","right":"Bark"}]}`)
		value := models.PairAnswer(map[string]string{"Cat": "Meow", "Dog": "Bark"})
		assert.Equal(t, "Cat -> Meow, Dog -> Bark", FormatAnswerForDisplay(value, spec))
	})

	t.Run("list maps each element through label resolution", func(t *testing.T) {
		spec := []byte(`[{"id":"a","text":"Alpha"},{"id":"b","text":"Beta"}]`)
		value := models.ListAnswer([]string{"a", "b"})
		assert.Equal(t, "Alpha, Beta", FormatAnswerForDisplay(value, spec))
	})

	t.Run("unanswered renders empty", func(t *testing.T) {
		assert.Equal(t, "", FormatAnswerForDisplay(nil, nil))
		assert.Equal(t, "", FormatAnswerForDisplay(models.NoAnswer(), nil))
	})

	t.Run("never panics on arbitrary shapes", func(t *testing.T) {
		assert.NotPanics(t, func() {
			FormatAnswerForDisplay([]any{map[string]any{"weird": true}}, []byte(`{broken`))
			FormatAnswerForDisplay(struct{ X int }{1}, nil)
		})
	})
}
