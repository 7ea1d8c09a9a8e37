package usecase

import (
	"fmt"
	"strings"

	"meeting-classifier/internal/domain/model"
	"meeting-classifier/internal/domain/ports/adapter"
)

const classificationSystemPrompt = "You are a sales analyst. You read transcriptions of sales meetings and " +
	"classify the client. Reply with one JSON object and nothing else: no markdown, no comments."

// BuildClassificationMessages renders the system and user messages for one meeting.
// The label domains come from the model package so prompt and validator never drift.
func BuildClassificationMessages(m *model.Meeting, modelVersion string) []adapter.Message {
	return []adapter.Message{
		{Role: "system", Content: classificationSystemPrompt},
		{Role: "user", Content: buildClassificationPrompt(m, modelVersion)},
	}
}

func buildClassificationPrompt(m *model.Meeting, modelVersion string) string {
	var b strings.Builder
	b.WriteString("Classify the following sales meeting.\n")
	fmt.Fprintf(&b, "Client: %s\nSalesperson: %s\nDate: %s\nClosed deal: %t\n",
		m.Name, m.SalesmanName, m.Date.Format("2006-01-02"), m.Closed)
	b.WriteString("Transcription:\n")
	b.WriteString(strings.TrimSpace(m.Transcription))
	b.WriteString("\n\nReturn a JSON object with exactly these fields:\n")

	fields := []struct{ name, desc string }{
		{model.FieldCommercialSector, "one of: " + model.JoinLabels(model.CommercialSectors())},
		{model.FieldLeadSource, "one of: " + model.JoinLabels(model.LeadSources())},
		{model.FieldInterestReason, "one of: " + model.JoinLabels(model.InterestReasons())},
		{model.FieldHasDemandPeaks, "boolean, the client mentions peaks in demand"},
		{model.FieldHasSeasonalDemand, "boolean, demand depends on the season"},
		{model.FieldEstimatedDailyInteractions, "integer >= 0"},
		{model.FieldEstimatedWeeklyInteractions, "integer >= 0"},
		{model.FieldEstimatedMonthlyInteractions, "integer >= 0"},
		{model.FieldHasTechTeam, "boolean, the client has an in-house technical team"},
		{model.FieldVambeModel, "one of: " + model.JoinLabels(model.VambeModels()) + ", or null when unclear"},
		{model.FieldIsPotentialClient, "boolean"},
		{model.FieldIsProblemClient, "boolean"},
		{model.FieldIsLostClient, "boolean"},
		{model.FieldShouldBeContacted, "boolean"},
		{model.FieldConfidenceScore, "number between 0 and 1"},
		{model.FieldModelVersion, fmt.Sprintf("always the string %q", modelVersion)},
	}
	for _, f := range fields {
		fmt.Fprintf(&b, "- %s: %s\n", f.name, f.desc)
	}
	b.WriteString("Use OTHER when no label fits. Estimate interaction counts from what the client says about volume.")
	return b.String()
}
