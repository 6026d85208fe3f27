package model

import "time"

// OrganizationType distinguishes private companies from public administrations
type OrganizationType string

const (
	OrgCompany OrganizationType = "azienda"
	OrgPA      OrganizationType = "pa"
)

// Valid reports whether t is a known organization type
func (t OrganizationType) Valid() bool {
	return t == OrgCompany || t == OrgPA
}

// Label is the human readable type used in reports
func (t OrganizationType) Label() string {
	if t == OrgPA {
		return "Pubblica Amministrazione"
	}
	return "Azienda"
}

// Organization is a registered respondent. It logs in with its access code.
type Organization struct {
	ID             string           `json:"id" bson:"_id,omitempty"`
	Name           string           `json:"name" bson:"name"`
	Type           OrganizationType `json:"type" bson:"type"`
	Sector         string           `json:"sector,omitempty" bson:"sector,omitempty"`
	Size           string           `json:"size,omitempty" bson:"size,omitempty"`
	Email          string           `json:"email" bson:"email"`
	FiscalCode     string           `json:"fiscal_code,omitempty" bson:"fiscalCode,omitempty"`
	Phone          string           `json:"phone,omitempty" bson:"phone,omitempty"`
	AdminName      string           `json:"admin_name,omitempty" bson:"adminName,omitempty"`
	AccessCode     string           `json:"access_code" bson:"accessCode"`
	HashedPassword string           `json:"-" bson:"hashedPassword"`
	CreatedAt      time.Time        `json:"created_at" bson:"createdAt"`
}

// OrganizationInfo is the subset of organization data used by reports
type OrganizationInfo struct {
	Name   string           `json:"name"`
	Type   OrganizationType `json:"type"`
	Sector string           `json:"sector,omitempty"`
	Size   string           `json:"size,omitempty"`
}

// Info extracts report data
func (o *Organization) Info() OrganizationInfo {
	return OrganizationInfo{Name: o.Name, Type: o.Type, Sector: o.Sector, Size: o.Size}
}

// OrganizationOverview is an admin listing row
type OrganizationOverview struct {
	Organization
	AssessmentsCount int                 `json:"assessments_count"`
	Assessments      []AssessmentSummary `json:"assessments"`
}
