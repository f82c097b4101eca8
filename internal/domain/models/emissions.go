package models

import "time"

// SurveyEmissions is the derived breakdown of a survey, in tons of CO2 per
// year except MonthlyEmissions (tons per month).
type SurveyEmissions struct {
	FlightEmissions          float64 `bson:"flightEmissions" json:"flightEmissions"`
	CarEmissions             float64 `bson:"carEmissions" json:"carEmissions"`
	PublicTransportEmissions float64 `bson:"publicTransportEmissions" json:"publicTransportEmissions"`
	TransportationEmissions  float64 `bson:"transportationEmissions" json:"transportationEmissions"`

	DietEmissions float64 `bson:"dietEmissions" json:"dietEmissions"`

	ElectricEmissions    float64 `bson:"electricEmissions" json:"electricEmissions"`
	WaterEmissions       float64 `bson:"waterEmissions" json:"waterEmissions"`
	OtherEnergyEmissions float64 `bson:"otherEnergyEmissions" json:"otherEnergyEmissions"`
	EnergyEmissions      float64 `bson:"energyEmissions" json:"energyEmissions"`

	TotalEmissions   float64 `bson:"totalEmissions" json:"totalEmissions"`
	MonthlyEmissions float64 `bson:"monthlyEmissions" json:"monthlyEmissions"`
}

// EmissionsDocument is the per-user, per-month persisted survey result.
type EmissionsDocument struct {
	UserID           string          `bson:"userId" json:"userId"`
	Month            string          `bson:"month" json:"month"`
	SurveyData       SurveyData      `bson:"surveyData" json:"surveyData"`
	SurveyEmissions  SurveyEmissions `bson:"surveyEmissions" json:"surveyEmissions"`
	TotalEmissions   float64         `bson:"totalEmissions" json:"totalEmissions"`
	MonthlyEmissions float64         `bson:"monthlyEmissions" json:"monthlyEmissions"`
	TotalOffset      *float64        `bson:"totalOffset,omitempty" json:"totalOffset,omitempty"`
	LastUpdated      time.Time       `bson:"lastUpdated" json:"lastUpdated"`
}

// EmissionsUpdate lists the fields a survey save sets on an EmissionsDocument.
// Fields not listed here (TotalOffset) are left untouched by the merge.
type EmissionsUpdate struct {
	SurveyData       SurveyData      `bson:"surveyData" json:"surveyData"`
	SurveyEmissions  SurveyEmissions `bson:"surveyEmissions" json:"surveyEmissions"`
	TotalEmissions   float64         `bson:"totalEmissions" json:"totalEmissions"`
	MonthlyEmissions float64         `bson:"monthlyEmissions" json:"monthlyEmissions"`
	LastUpdated      time.Time       `bson:"lastUpdated" json:"lastUpdated"`
}

// CommunityEmissionsData is the single global running total.
type CommunityEmissionsData struct {
	EmissionsCalculated float64   `bson:"emissions_calculated" json:"emissions_calculated"`
	EmissionsOffset     float64   `bson:"emissions_offset" json:"emissions_offset"`
	LastUpdated         time.Time `bson:"last_updated" json:"last_updated"`
}

// MonthKey formats the document key for the month containing t.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// SubmissionEvent announces a saved survey and the resulting community total.
type SubmissionEvent struct {
	UserID         string                 `json:"userId"`
	SessionID      string                 `json:"sessionId"`
	Month          string                 `json:"month"`
	TotalEmissions float64                `json:"totalEmissions"`
	Community      CommunityEmissionsData `json:"community"`
	SavedAt        time.Time              `json:"savedAt"`
}
