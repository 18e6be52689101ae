// Package prompt builds the two chat messages sent to the language model for
// a rewrite request.
package prompt

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyText is returned when the caller's text is empty or only whitespace.
var ErrEmptyText = errors.New("user_text is required")

// Closed label vocabularies. The model is told to pick from these when it
// infers a missing label.
var (
	Environments = []string{"Work", "Family", "Romantic", "Friends", "Social", "Public"}
	Outcomes     = []string{"Clarity", "Connection", "Boundary", "Resolution", "Influence", "Apology"}
	Emotions     = []string{"Calm", "Confident", "Warm", "Respected", "Understood", "Reassured"}
)

// Input is everything the caller supplied for one rewrite.
type Input struct {
	Text           string
	Environment    string
	Outcome        string
	DesiredEmotion string
	AllowInfer     bool
}

// Prompt is the composed system and user message pair.
type Prompt struct {
	System string
	User   string
}

// Validate rejects input that cannot be rewritten.
func (in Input) Validate() error {
	if strings.TrimSpace(in.Text) == "" {
		return ErrEmptyText
	}
	return nil
}

// Compose produces the fixed system instruction and the per-call user
// instruction for in.
func Compose(in Input) (Prompt, error) {
	if err := in.Validate(); err != nil {
		return Prompt{}, err
	}
	return Prompt{
		System: systemPrompt,
		User:   userPrompt(in),
	}, nil
}

func userPrompt(in Input) string {
	var b strings.Builder

	b.WriteString("Rewrite the following message.\n\n")
	fmt.Fprintf(&b, "Original message:\n\"\"\"\n%s\n\"\"\"\n\n", in.Text)

	var missing []string
	writeLabel := func(name, value string) {
		if v := strings.TrimSpace(value); v != "" {
			fmt.Fprintf(&b, "%s: %s\n", name, v)
			return
		}
		missing = append(missing, name)
	}
	writeLabel("Environment", in.Environment)
	writeLabel("Outcome", in.Outcome)
	writeLabel("Desired emotion", in.DesiredEmotion)

	if len(missing) == 0 {
		b.WriteString("\nAll context labels were provided; echo them in \"inferred\".\n")
		return b.String()
	}

	if in.AllowInfer {
		fmt.Fprintf(&b, "\nInfer the missing labels (%s) from the message and report them in \"inferred\".\n",
			strings.Join(missing, ", "))
	} else {
		fmt.Fprintf(&b, "\nDo not infer the missing labels (%s); leave them out of \"inferred\".\n",
			strings.Join(missing, ", "))
	}
	return b.String()
}

var systemPrompt = strings.Join([]string{
	"You are a communication coach. You rewrite a person's message so it lands the way they intend.",
	"",
	"Every rewrite is built on five pillars:",
	"- intent: what the speaker actually wants",
	"- message: the core point, stated plainly",
	"- position: where the speaker stands relative to the listener",
	"- action: the concrete next step being asked for",
	"- calibration: how tone and intensity are tuned for this listener",
	"",
	"Return ONLY a JSON object, with no prose and no markdown, matching this shape:",
	`{`,
	`  "inferred": {"environment": string, "outcome": string, "desired_emotion": string},`,
	`  "diagnostics": {"intent_summary": string, "tone_issues": string, "risk": string},`,
	`  "rewrites": [`,
	`    {`,
	`      "text": string,`,
	`      "tone_label": string,`,
	`      "pillars": {"intent": string, "message": string, "position": string, "action": string, "calibration": string},`,
	`      "rationale": string,`,
	`      "cautions": string`,
	`    }`,
	`  ]`,
	`}`,
	"",
	"Produce between 2 and 4 rewrites, each with a distinct tone. Keep every pillar to one short sentence.",
	"intent_summary is a single line.",
	"",
	"Allowed environment values: " + strings.Join(Environments, ", "),
	"Allowed outcome values: " + strings.Join(Outcomes, ", "),
	"Allowed desired_emotion values: " + strings.Join(Emotions, ", "),
}, "\n")
