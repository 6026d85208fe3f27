package model

// OrganizationList is the admin listing payload
type OrganizationList struct {
	Organizations []OrganizationOverview `json:"organizations"`
	Total         int                    `json:"total"`
}

// ActionResponse acknowledges an admin action
type ActionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// RegenerateResponse reports the recomputed maturity of an assessment
type RegenerateResponse struct {
	Success       bool     `json:"success"`
	Message       string   `json:"message"`
	MaturityLevel *float64 `json:"maturity_level"`
	MaturityLabel string   `json:"maturity_label"`
}
