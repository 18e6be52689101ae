package models

// Inferred holds the labels the model filled in for the caller.
type Inferred struct {
	Environment    string `json:"environment,omitempty"`
	Outcome        string `json:"outcome,omitempty"`
	DesiredEmotion string `json:"desired_emotion,omitempty"`
}

// Diagnostics is the model's free-text read of the original message.
type Diagnostics map[string]string

func (d Diagnostics) IntentSummary() string {
	if d == nil {
		return ""
	}
	return d["intent_summary"]
}

// Pillars explains a variant along the five fixed framework categories.
type Pillars struct {
	Intent      string `json:"intent"`
	Message     string `json:"message"`
	Position    string `json:"position"`
	Action      string `json:"action"`
	Calibration string `json:"calibration"`
}

// PillarKeys lists the keys every pillars object must carry, in display order.
var PillarKeys = []string{"intent", "message", "position", "action", "calibration"}

// Variant is one alternative phrasing. Variants are returned to the caller
// and never stored individually.
type Variant struct {
	Text      string  `json:"text"`
	ToneLabel string  `json:"tone_label"`
	Pillars   Pillars `json:"pillars"`
	Rationale string  `json:"rationale"`
	Cautions  string  `json:"cautions"`
}

// RewriteContent is the validated model output.
type RewriteContent struct {
	Inferred    *Inferred   `json:"inferred,omitempty"`
	Diagnostics Diagnostics `json:"diagnostics,omitempty"`
	Rewrites    []Variant   `json:"rewrites"`
}
