package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{
			name: "bare json",
			in:   `{"thought": "go home", "action": "click", "params": {"index": 2}}`,
			want: "click",
		},
		{
			name: "fenced json",
			in:   "Here is my action:\n```json\n{\"action\": \"open\", \"params\": {\"url\": \"https://example.com\"}}\n```",
			want: "open",
		},
		{
			name: "prose around json",
			in:   `I will finish now. {"action": "done", "params": {"success": true, "result": "ok"}} That completes the task.`,
			want: "done",
		},
		{name: "no json", in: "I am not sure what to do.", wantErr: true},
		{name: "missing action name", in: `{"params": {"index": 1}}`, wantErr: true},
		{name: "malformed json", in: `{"action": "click",`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, err := parseAction(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, action.Name)
		})
	}
}

func TestActionParamAccessors(t *testing.T) {
	action, err := parseAction(`{"action": "ask_human", "params": {
		"question": "Which size?",
		"options": ["S", "M", "L"],
		"index": 3,
		"confirm": true
	}}`)
	require.NoError(t, err)

	assert.Equal(t, "Which size?", action.str("question"))
	assert.Equal(t, "", action.str("absent"))
	assert.Equal(t, []string{"S", "M", "L"}, action.strs("options"))
	assert.Nil(t, action.strs("question"))
	assert.Equal(t, 3, action.num("index", -1))
	assert.Equal(t, -1, action.num("absent", -1))
	assert.True(t, action.boolean("confirm"))
	assert.False(t, action.boolean("absent"))
}

func TestProviderForModel(t *testing.T) {
	assert.Equal(t, "anthropic", providerForModel("claude-sonnet-4-5-20250929"))
	assert.Equal(t, "openai", providerForModel("gpt-4o-mini"))
	assert.Equal(t, "openai", providerForModel("o3-mini"))
	assert.Equal(t, "google", providerForModel("gemini-1.5-flash"))
	assert.Equal(t, "", providerForModel(""))
	assert.Equal(t, "", providerForModel("mystery-model"))
}

func TestNewProviderWithoutKeys(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	_, err := NewProvider("")
	assert.ErrorIs(t, err, ErrNoAPIKey)

	_, err = NewProvider("claude-sonnet-4-5-20250929")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}
