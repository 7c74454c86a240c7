package genai

import (
	"os"
	"testing"

	"quizforge/internal/config"
	"quizforge/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain initializes the logger for all tests in this package
func TestMain(m *testing.M) {
	if err := logger.Initialize(config.LoggerConfig{}); err != nil {
		panic("Failed to initialize logger for tests: " + err.Error())
	}
	exitVal := m.Run()
	_ = logger.Sync()
	os.Exit(exitVal)
}

func TestExtractJSON_Direct(t *testing.T) {
	v, ok := ExtractJSON(`[{"question_text": "Q1"}]`)
	require.True(t, ok)
	list, isList := v.([]any)
	require.True(t, isList)
	assert.Len(t, list, 1)
}

func TestExtractJSON_FencedBlock(t *testing.T) {
	raw := "Here is your quiz:\n```json\n[{\"question_text\":\"Q\",\"question_type\":\"boolean\",\"answers\":[{\"answer_text\":\"True\",\"is_correct\":true,\"position\":0}]}]\n```"
	v, ok := ExtractJSON(raw)
	require.True(t, ok)
	list, isList := v.([]any)
	require.True(t, isList)
	require.Len(t, list, 1)

	obj, isObj := list[0].(map[string]any)
	require.True(t, isObj)
	assert.Equal(t, "Q", obj["question_text"])
	assert.Equal(t, "boolean", obj["question_type"])
}

func TestExtractJSON_FencedBlockWithoutTag(t *testing.T) {
	raw := "Sure!\n```\n{\"question_text\": \"untagged\"}\n```\nHope that helps."
	v, ok := ExtractJSON(raw)
	require.True(t, ok)
	obj, isObj := v.(map[string]any)
	require.True(t, isObj)
	assert.Equal(t, "untagged", obj["question_text"])
}

func TestExtractJSON_BracketScan(t *testing.T) {
	raw := `The questions you asked for: [{"question_text": "embedded"}] and nothing else.`
	v, ok := ExtractJSON(raw)
	require.True(t, ok)
	list, isList := v.([]any)
	require.True(t, isList)
	assert.Len(t, list, 1)
}

func TestExtractJSON_ObjectInProse(t *testing.T) {
	raw := `Result: {"question_text": "lone object"} done.`
	v, ok := ExtractJSON(raw)
	require.True(t, ok)
	obj, isObj := v.(map[string]any)
	require.True(t, isObj)
	assert.Equal(t, "lone object", obj["question_text"])
}

func TestExtractJSON_NewlineStripped(t *testing.T) {
	// A raw newline inside a string literal is invalid JSON until the
	// newline-stripping pass removes it.
	raw := "{\"question_text\": \"line one\nline two\"}"
	v, ok := ExtractJSON(raw)
	require.True(t, ok)
	obj, isObj := v.(map[string]any)
	require.True(t, isObj)
	assert.Equal(t, "line oneline two", obj["question_text"])
}

func TestExtractJSON_Failures(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"prose":          "not json at all",
		"broken fence":   "```json\n[{\"unterminated\": \n```",
		"unbalanced":     "here is [ not json",
		"very long text": string(make([]byte, 2000)),
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			v, ok := ExtractJSON(raw)
			assert.False(t, ok)
			assert.Nil(t, v)
		})
	}
}

func TestExtractJSON_FirstFenceWins(t *testing.T) {
	raw := "```json\n{\"first\": 1}\n```\nand\n```json\n{\"second\": 2}\n```"
	v, ok := ExtractJSON(raw)
	require.True(t, ok)
	obj, isObj := v.(map[string]any)
	require.True(t, isObj)
	assert.Contains(t, obj, "first")
}

func TestExtractJSON_SkipsBrokenFence(t *testing.T) {
	raw := "```json\nnot json\n```\nthen ```json\n{\"ok\": true}\n```"
	v, ok := ExtractJSON(raw)
	require.True(t, ok)
	obj, isObj := v.(map[string]any)
	require.True(t, isObj)
	assert.Contains(t, obj, "ok")
}
