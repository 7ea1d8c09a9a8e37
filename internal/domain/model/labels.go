package model

import "strings"

// CommercialSector is the business vertical a client operates in.
type CommercialSector string

const (
	SectorRetail               CommercialSector = "RETAIL"
	SectorEcommerce            CommercialSector = "ECOMMERCE"
	SectorHealthcare           CommercialSector = "HEALTHCARE"
	SectorEducation            CommercialSector = "EDUCATION"
	SectorFinancialServices    CommercialSector = "FINANCIAL_SERVICES"
	SectorRealEstate           CommercialSector = "REAL_ESTATE"
	SectorTourism              CommercialSector = "TOURISM"
	SectorRestaurants          CommercialSector = "RESTAURANTS"
	SectorLogistics            CommercialSector = "LOGISTICS"
	SectorTechnology           CommercialSector = "TECHNOLOGY"
	SectorProfessionalServices CommercialSector = "PROFESSIONAL_SERVICES"
	SectorNGO                  CommercialSector = "NGO"
	SectorOther                CommercialSector = "OTHER"
)

// LeadSource is how the client first heard about the product.
type LeadSource string

const (
	LeadReferral     LeadSource = "REFERRAL"
	LeadConference   LeadSource = "CONFERENCE"
	LeadWebinar      LeadSource = "WEBINAR"
	LeadSocialMedia  LeadSource = "SOCIAL_MEDIA"
	LeadSearchEngine LeadSource = "SEARCH_ENGINE"
	LeadPodcast      LeadSource = "PODCAST"
	LeadAdvertising  LeadSource = "ADVERTISING"
	LeadArticle      LeadSource = "ARTICLE"
	LeadOther        LeadSource = "OTHER"
)

// InterestReason is the main pain point the client wants solved.
type InterestReason string

const (
	InterestScalability     InterestReason = "SCALABILITY"
	InterestAutomation      InterestReason = "AUTOMATION"
	InterestCustomerService InterestReason = "CUSTOMER_SERVICE"
	InterestResponseTime    InterestReason = "RESPONSE_TIME"
	InterestIntegration     InterestReason = "INTEGRATION"
	InterestCostReduction   InterestReason = "COST_REDUCTION"
	InterestMultichannel    InterestReason = "MULTICHANNEL"
	InterestAnalytics       InterestReason = "ANALYTICS"
	InterestOther           InterestReason = "OTHER"
)

// VambeModel is the product tier recommended for the client.
type VambeModel string

const (
	ModelAxis   VambeModel = "AXIS"
	ModelMercur VambeModel = "MERCUR"
	ModelIris   VambeModel = "IRIS"
	ModelAPI    VambeModel = "API"
)

var (
	commercialSectors = []CommercialSector{
		SectorRetail, SectorEcommerce, SectorHealthcare, SectorEducation, SectorFinancialServices,
		SectorRealEstate, SectorTourism, SectorRestaurants, SectorLogistics, SectorTechnology,
		SectorProfessionalServices, SectorNGO, SectorOther,
	}
	leadSources = []LeadSource{
		LeadReferral, LeadConference, LeadWebinar, LeadSocialMedia, LeadSearchEngine,
		LeadPodcast, LeadAdvertising, LeadArticle, LeadOther,
	}
	interestReasons = []InterestReason{
		InterestScalability, InterestAutomation, InterestCustomerService, InterestResponseTime,
		InterestIntegration, InterestCostReduction, InterestMultichannel, InterestAnalytics, InterestOther,
	}
	vambeModels = []VambeModel{ModelAxis, ModelMercur, ModelIris, ModelAPI}
)

// CommercialSectors returns the closed domain in declaration order.
func CommercialSectors() []CommercialSector { return append([]CommercialSector(nil), commercialSectors...) }

func LeadSources() []LeadSource { return append([]LeadSource(nil), leadSources...) }

func InterestReasons() []InterestReason { return append([]InterestReason(nil), interestReasons...) }

func VambeModels() []VambeModel { return append([]VambeModel(nil), vambeModels...) }

func (s CommercialSector) IsValid() bool { return contains(commercialSectors, s) }
func (s LeadSource) IsValid() bool       { return contains(leadSources, s) }
func (s InterestReason) IsValid() bool   { return contains(interestReasons, s) }
func (s VambeModel) IsValid() bool       { return contains(vambeModels, s) }

// ParseCommercialSector matches raw against the domain after trimming and upper-casing.
func ParseCommercialSector(raw string) (CommercialSector, bool) {
	v := CommercialSector(canonicalLabel(raw))
	return v, v.IsValid()
}

func ParseLeadSource(raw string) (LeadSource, bool) {
	v := LeadSource(canonicalLabel(raw))
	return v, v.IsValid()
}

func ParseInterestReason(raw string) (InterestReason, bool) {
	v := InterestReason(canonicalLabel(raw))
	return v, v.IsValid()
}

func ParseVambeModel(raw string) (VambeModel, bool) {
	v := VambeModel(canonicalLabel(raw))
	return v, v.IsValid()
}

func canonicalLabel(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

func contains[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// JoinLabels renders a domain as a comma separated list for prompts and error messages.
func JoinLabels[T ~string](set []T) string {
	parts := make([]string, len(set))
	for i, s := range set {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}
