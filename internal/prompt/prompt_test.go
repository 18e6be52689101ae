package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompose_RejectsEmptyText(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t "} {
		_, err := Compose(Input{Text: text, AllowInfer: true})
		assert.ErrorIs(t, err, ErrEmptyText, "text %q", text)
	}
}

func TestCompose_SystemPromptIsFixed(t *testing.T) {
	a, err := Compose(Input{Text: "hello", AllowInfer: true})
	require.NoError(t, err)
	b, err := Compose(Input{Text: "something else", Environment: "Work"})
	require.NoError(t, err)

	assert.Equal(t, a.System, b.System)
	for _, key := range []string{"intent", "message", "position", "action", "calibration", "rewrites", "tone_label"} {
		assert.Contains(t, a.System, key)
	}
	for _, env := range Environments {
		assert.Contains(t, a.System, env)
	}
}

func TestCompose_UserPromptEchoesInput(t *testing.T) {
	p, err := Compose(Input{
		Text:           "I need this done ASAP",
		Environment:    "Work",
		Outcome:        "Clarity",
		DesiredEmotion: "Calm",
		AllowInfer:     true,
	})
	require.NoError(t, err)

	assert.Contains(t, p.User, "I need this done ASAP")
	assert.Contains(t, p.User, "Environment: Work")
	assert.Contains(t, p.User, "Outcome: Clarity")
	assert.Contains(t, p.User, "Desired emotion: Calm")
	assert.NotContains(t, p.User, "Infer the missing")
}

func TestCompose_MissingLabels(t *testing.T) {
	p, err := Compose(Input{Text: "hi", Outcome: "Boundary", AllowInfer: true})
	require.NoError(t, err)
	assert.Contains(t, p.User, "Infer the missing labels (Environment, Desired emotion)")

	p, err = Compose(Input{Text: "hi", Outcome: "Boundary", AllowInfer: false})
	require.NoError(t, err)
	assert.Contains(t, p.User, "Do not infer the missing labels (Environment, Desired emotion)")
}
