package scenario

import "time"

// Snapshot is the project-level document shared by all collaborators.
// Version increases strictly on every successful write; a client whose known
// version trails the stored one has missed a remote change.
type Snapshot struct {
	ProjectID                   string        `json:"project_id"`
	Participants                []Participant `json:"participants"`
	ParticipantsInSubcollection bool          `json:"participants_in_subcollection"`
	ProjectParams               ProjectParams `json:"project_params"`
	DeedDate                    string        `json:"deed_date"`
	FormulaParams               FormulaParams `json:"formula_params"`
	Version                     int64         `json:"version"`
	LastModifiedBy              string        `json:"last_modified_by"`
	LastModifiedAt              time.Time     `json:"last_modified_at"`
}

// ProjectParams holds the shared financial parameters of the project.
type ProjectParams struct {
	PurchasePrice float64 `json:"purchase_price"`
	NotaryRate    float64 `json:"notary_rate"`
	WorksBudget   float64 `json:"works_budget"`
	LoanRate      float64 `json:"loan_rate"`
	LoanYears     int     `json:"loan_years"`
	InsuranceRate float64 `json:"insurance_rate"`
}

// FormulaParams holds the coefficients of the portage pricing formula.
type FormulaParams struct {
	PortageRate       float64 `json:"portage_rate"`
	IndexationRate    float64 `json:"indexation_rate"`
	CarryingCostShare float64 `json:"carrying_cost_share"`
}

// Participant is the fully-resolved entity type: every default has been
// applied at the load boundary, so comparison and sync logic never see
// missing values.
type Participant struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`

	// Financial inputs.
	Contribution  float64 `json:"contribution"`
	MonthlyIncome float64 `json:"monthly_income"`
	PersonalLoan  float64 `json:"personal_loan"`
	Surface       float64 `json:"surface"`

	// Legacy unit sizing, kept for older projects.
	RoomCount int `json:"room_count"`

	// Timeline. EntryDate is the zero time for founding members.
	EntryDate time.Time  `json:"entry_date"`
	ExitDate  *time.Time `json:"exit_date,omitempty"`

	// Optional per-participant overrides of the shared loan terms.
	InterestRateOverride  *float64 `json:"interest_rate_override,omitempty"`
	InsuranceRateOverride *float64 `json:"insurance_rate_override,omitempty"`

	LotsOwned []Lot            `json:"lots_owned,omitempty"`
	Purchase  *PurchaseDetails `json:"purchase,omitempty"`

	// Derived outputs, recomputed by the calculation engine. Never compared
	// by the diff engine and never a reason to sync.
	MonthlyPayment float64 `json:"monthly_payment"`
	LoanShare      float64 `json:"loan_share"`
	PortagePrice   float64 `json:"portage_price"`
}

// Lot is a unit of co-ownership held by a participant.
type Lot struct {
	ID        string  `json:"id"`
	Surface   float64 `json:"surface"`
	Tantiemes int     `json:"tantiemes"`
}

// PurchaseDetails describes the terms under which a participant bought in.
type PurchaseDetails struct {
	Price      float64 `json:"price"`
	NotaryFees float64 `json:"notary_fees"`
	WorksShare float64 `json:"works_share"`
	Date       string  `json:"date"`
}

// ParticipantRecord is the standalone, per-entity storage form used after
// migration. DisplayOrder preserves the participant's position in the
// original array.
type ParticipantRecord struct {
	Participant

	Version        int64     `json:"version"`
	LastModifiedBy string    `json:"last_modified_by"`
	LastModifiedAt time.Time `json:"last_modified_at"`
	DisplayOrder   int       `json:"display_order"`
}
