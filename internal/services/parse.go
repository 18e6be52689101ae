package services

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/reframeapp/reframe/internal/models"
)

var (
	leadingFencePattern  = regexp.MustCompile("^```(?:json|JSON)?[ \t]*\r?\n?")
	trailingFencePattern = regexp.MustCompile("\r?\n?```$")
)

type rawVariant struct {
	Text      *string           `json:"text"`
	ToneLabel *string           `json:"tone_label"`
	Pillars   map[string]string `json:"pillars"`
	Rationale *string           `json:"rationale"`
	Cautions  *string           `json:"cautions"`
}

type rawContent struct {
	Inferred    *models.Inferred  `json:"inferred"`
	Diagnostics map[string]string `json:"diagnostics"`
	Rewrites    []rawVariant      `json:"rewrites"`
}

// StripFences removes a surrounding markdown code fence, with or without a
// json language tag.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = leadingFencePattern.ReplaceAllString(s, "")
	s = trailingFencePattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// ParseCompletion decodes the model's answer. Any deviation from the
// expected shape is reported as ErrMalformedModelOutput.
func ParseCompletion(raw string) (*models.RewriteContent, error) {
	body := StripFences(raw)
	if !strings.HasPrefix(body, "{") {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrMalformedModelOutput)
	}

	var content rawContent
	if err := json.Unmarshal([]byte(body), &content); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedModelOutput, err)
	}

	if len(content.Rewrites) == 0 {
		return nil, fmt.Errorf("%w: no rewrites", ErrMalformedModelOutput)
	}

	variants := make([]models.Variant, 0, len(content.Rewrites))
	for i, rv := range content.Rewrites {
		v, err := rv.toVariant()
		if err != nil {
			return nil, fmt.Errorf("%w: rewrite %d: %v", ErrMalformedModelOutput, i, err)
		}
		variants = append(variants, v)
	}

	return &models.RewriteContent{
		Inferred:    content.Inferred,
		Diagnostics: models.Diagnostics(content.Diagnostics),
		Rewrites:    variants,
	}, nil
}

func (rv rawVariant) toVariant() (models.Variant, error) {
	if rv.Text == nil || strings.TrimSpace(*rv.Text) == "" {
		return models.Variant{}, fmt.Errorf("missing text")
	}
	if rv.ToneLabel == nil {
		return models.Variant{}, fmt.Errorf("missing tone_label")
	}
	if rv.Rationale == nil {
		return models.Variant{}, fmt.Errorf("missing rationale")
	}
	if len(rv.Pillars) != len(models.PillarKeys) {
		return models.Variant{}, fmt.Errorf("pillars must have exactly %d keys, got %d", len(models.PillarKeys), len(rv.Pillars))
	}
	for _, key := range models.PillarKeys {
		if _, ok := rv.Pillars[key]; !ok {
			return models.Variant{}, fmt.Errorf("missing pillar %q", key)
		}
	}

	v := models.Variant{
		Text:      *rv.Text,
		ToneLabel: *rv.ToneLabel,
		Pillars: models.Pillars{
			Intent:      rv.Pillars["intent"],
			Message:     rv.Pillars["message"],
			Position:    rv.Pillars["position"],
			Action:      rv.Pillars["action"],
			Calibration: rv.Pillars["calibration"],
		},
		Rationale: *rv.Rationale,
	}
	if rv.Cautions != nil {
		v.Cautions = *rv.Cautions
	}
	return v, nil
}
