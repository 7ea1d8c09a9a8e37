package model

import "time"

// Classification is the validated enrichment stored for a meeting. At most one exists per MeetingID.
type Classification struct {
	ID        int64 `json:"id"`
	MeetingID int64 `json:"meetingId"`

	CommercialSector CommercialSector `json:"commercialSector"`
	LeadSource       LeadSource       `json:"leadSource"`
	InterestReason   InterestReason   `json:"interestReason"`

	HasDemandPeaks    bool `json:"hasDemandPeaks"`
	HasSeasonalDemand bool `json:"hasSeasonalDemand"`
	HasTechTeam       bool `json:"hasTechTeam"`

	EstimatedDailyInteractions   int64 `json:"estimatedDailyInteractions"`
	EstimatedWeeklyInteractions  int64 `json:"estimatedWeeklyInteractions"`
	EstimatedMonthlyInteractions int64 `json:"estimatedMonthlyInteractions"`

	VambeModel *VambeModel `json:"vambeModel"`

	IsPotentialClient bool `json:"isPotentialClient"`
	IsProblemClient   bool `json:"isProblemClient"`
	IsLostClient      bool `json:"isLostClient"`
	ShouldBeContacted bool `json:"shouldBeContacted"`

	ConfidenceScore float64 `json:"confidenceScore"`
	ModelVersion    string  `json:"modelVersion"`

	CreatedAt time.Time `json:"createdAt"`
}

// CandidateClassification is the untrusted object decoded from the model's reply.
// Numbers are kept as json.Number so the validator sees them exactly as written.
type CandidateClassification map[string]any

// Candidate field names, in the order the validator checks presence.
const (
	FieldCommercialSector             = "commercialSector"
	FieldLeadSource                   = "leadSource"
	FieldInterestReason               = "interestReason"
	FieldHasDemandPeaks               = "hasDemandPeaks"
	FieldHasSeasonalDemand            = "hasSeasonalDemand"
	FieldEstimatedDailyInteractions   = "estimatedDailyInteractions"
	FieldEstimatedWeeklyInteractions  = "estimatedWeeklyInteractions"
	FieldEstimatedMonthlyInteractions = "estimatedMonthlyInteractions"
	FieldHasTechTeam                  = "hasTechTeam"
	FieldVambeModel                   = "vambeModel"
	FieldIsPotentialClient            = "isPotentialClient"
	FieldIsProblemClient              = "isProblemClient"
	FieldIsLostClient                 = "isLostClient"
	FieldShouldBeContacted            = "shouldBeContacted"
	FieldConfidenceScore              = "confidenceScore"
	FieldModelVersion                 = "modelVersion"
)

// RequiredFields lists every field that must be present and non-null. vambeModel is optional.
var RequiredFields = []string{
	FieldCommercialSector, FieldLeadSource, FieldInterestReason,
	FieldHasDemandPeaks, FieldHasSeasonalDemand,
	FieldEstimatedDailyInteractions, FieldEstimatedWeeklyInteractions, FieldEstimatedMonthlyInteractions,
	FieldHasTechTeam, FieldIsPotentialClient, FieldIsProblemClient, FieldIsLostClient,
	FieldShouldBeContacted, FieldConfidenceScore, FieldModelVersion,
}

// JobOutcome is how a classification job ended when it did not fail.
type JobOutcome string

const (
	OutcomeClassified        JobOutcome = "classified"
	OutcomeAlreadyClassified JobOutcome = "already_classified"
)
