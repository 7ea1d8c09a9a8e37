package usecase

import (
	"encoding/json"
	"math"
	"strings"

	"meeting-classifier/internal/domain"
	"meeting-classifier/internal/domain/model"
)

// Validate turns an untrusted candidate into a Classification or returns the first
// *domain.ValidationError it finds. It never returns a partially filled result.
//
// Checks run in this order: required fields present and non-null, the three required enums,
// the optional vambeModel, confidenceScore in [0,1], the interaction estimates as integers >= 0,
// then boolean and modelVersion typing.
//
// Coercions: enum strings are trimmed and upper-cased, booleans may be the strings
// "true"/"false", a null or empty vambeModel is absent, and integral floats count as integers.
func Validate(candidate model.CandidateClassification) (*model.Classification, error) {
	if candidate == nil {
		return nil, violation("candidate", "must be a JSON object", nil)
	}
	for _, f := range model.RequiredFields {
		if v, ok := candidate[f]; !ok || v == nil {
			return nil, violation(f, "required field is missing", nil)
		}
	}

	var c model.Classification
	var err error

	if c.CommercialSector, err = enumField(candidate, model.FieldCommercialSector, model.ParseCommercialSector); err != nil {
		return nil, err
	}
	if c.LeadSource, err = enumField(candidate, model.FieldLeadSource, model.ParseLeadSource); err != nil {
		return nil, err
	}
	if c.InterestReason, err = enumField(candidate, model.FieldInterestReason, model.ParseInterestReason); err != nil {
		return nil, err
	}
	if c.VambeModel, err = optionalVambeModel(candidate); err != nil {
		return nil, err
	}

	score, ok := toFloat(candidate[model.FieldConfidenceScore])
	if !ok {
		return nil, violation(model.FieldConfidenceScore, "must be a number", candidate[model.FieldConfidenceScore])
	}
	if score < 0 || score > 1 {
		return nil, violation(model.FieldConfidenceScore, "must be between 0 and 1", score)
	}
	c.ConfidenceScore = score

	estimates := []struct {
		field string
		dst   *int64
	}{
		{model.FieldEstimatedDailyInteractions, &c.EstimatedDailyInteractions},
		{model.FieldEstimatedWeeklyInteractions, &c.EstimatedWeeklyInteractions},
		{model.FieldEstimatedMonthlyInteractions, &c.EstimatedMonthlyInteractions},
	}
	for _, e := range estimates {
		n, ok := toInt(candidate[e.field])
		if !ok {
			return nil, violation(e.field, "must be an integer", candidate[e.field])
		}
		if n < 0 {
			return nil, violation(e.field, "must not be negative", n)
		}
		*e.dst = n
	}

	flags := []struct {
		field string
		dst   *bool
	}{
		{model.FieldHasDemandPeaks, &c.HasDemandPeaks},
		{model.FieldHasSeasonalDemand, &c.HasSeasonalDemand},
		{model.FieldHasTechTeam, &c.HasTechTeam},
		{model.FieldIsPotentialClient, &c.IsPotentialClient},
		{model.FieldIsProblemClient, &c.IsProblemClient},
		{model.FieldIsLostClient, &c.IsLostClient},
		{model.FieldShouldBeContacted, &c.ShouldBeContacted},
	}
	for _, f := range flags {
		b, ok := toBool(candidate[f.field])
		if !ok {
			return nil, violation(f.field, "must be a boolean", candidate[f.field])
		}
		*f.dst = b
	}

	version, ok := candidate[model.FieldModelVersion].(string)
	if !ok {
		return nil, violation(model.FieldModelVersion, "must be a string", candidate[model.FieldModelVersion])
	}
	if strings.TrimSpace(version) == "" {
		return nil, violation(model.FieldModelVersion, "must not be empty", nil)
	}
	c.ModelVersion = version

	return &c, nil
}

func violation(field, reason string, value any) *domain.ValidationError {
	return &domain.ValidationError{Field: field, Reason: reason, Value: value}
}

func enumField[T ~string](candidate model.CandidateClassification, field string, parse func(string) (T, bool)) (T, error) {
	raw, ok := candidate[field].(string)
	if !ok {
		return "", violation(field, "must be a string", candidate[field])
	}
	v, ok := parse(raw)
	if !ok {
		return "", violation(field, "not in domain", raw)
	}
	return v, nil
}

func optionalVambeModel(candidate model.CandidateClassification) (*model.VambeModel, error) {
	v, present := candidate[model.FieldVambeModel]
	if !present || v == nil {
		return nil, nil
	}
	raw, ok := v.(string)
	if !ok {
		return nil, violation(model.FieldVambeModel, "must be a string", v)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	m, ok := model.ParseVambeModel(raw)
	if !ok {
		return nil, violation(model.FieldVambeModel, "not in domain", raw)
	}
	return &m, nil
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// maxExactFloatInt is the largest magnitude a float64 holds without losing integer precision.
const maxExactFloatInt = 1 << 53

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return integral(f)
	case float64:
		return integral(n)
	case int:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

func integral(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > maxExactFloatInt {
		return 0, false
	}
	return int64(f), true
}

func toBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}
