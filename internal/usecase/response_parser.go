package usecase

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"meeting-classifier/internal/domain"
	"meeting-classifier/internal/domain/model"
)

var codeFence = regexp.MustCompile("```(?i:json)?\\s*")

// ExtractJSONObject drops markdown fences and returns the text from the first '{'
// to the last '}', so prose or fences around the object are ignored.
func ExtractJSONObject(raw string) (string, error) {
	cleaned := codeFence.ReplaceAllString(raw, "")
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end <= start {
		return "", domain.ErrMalformedResponse
	}
	return strings.TrimSpace(cleaned[start : end+1]), nil
}

// ParseCandidate decodes the model's free-text reply into an unvalidated candidate.
func ParseCandidate(raw string) (model.CandidateClassification, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, domain.ErrEmptyResponse
	}
	obj, err := ExtractJSONObject(raw)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(strings.NewReader(obj))
	dec.UseNumber()
	var cand map[string]any
	if err := dec.Decode(&cand); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after object", domain.ErrMalformedResponse)
	}
	return model.CandidateClassification(cand), nil
}
