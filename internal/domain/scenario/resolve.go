package scenario

import (
	"fmt"
	"time"
)

// dateLayout is the wire format for participant timeline dates.
const dateLayout = "2006-01-02"

// ParticipantDoc is the raw wire/storage form of a participant, where most
// fields may be absent. Older documents predate several of these fields.
type ParticipantDoc struct {
	Name                  string           `json:"name"`
	Enabled               *bool            `json:"enabled,omitempty"`
	Contribution          *float64         `json:"contribution,omitempty"`
	MonthlyIncome         *float64         `json:"monthly_income,omitempty"`
	PersonalLoan          *float64         `json:"personal_loan,omitempty"`
	Surface               *float64         `json:"surface,omitempty"`
	RoomCount             *int             `json:"room_count,omitempty"`
	EntryDate             string           `json:"entry_date,omitempty"`
	ExitDate              string           `json:"exit_date,omitempty"`
	InterestRateOverride  *float64         `json:"interest_rate_override,omitempty"`
	InsuranceRateOverride *float64         `json:"insurance_rate_override,omitempty"`
	LotsOwned             []Lot            `json:"lots_owned,omitempty"`
	Purchase              *PurchaseDetails `json:"purchase,omitempty"`
	MonthlyPayment        *float64         `json:"monthly_payment,omitempty"`
	LoanShare             *float64         `json:"loan_share,omitempty"`
	PortagePrice          *float64         `json:"portage_price,omitempty"`
}

// ResolveParticipant applies all defaults to a raw participant document.
// Enabled defaults to true when absent; numeric inputs default to zero;
// timeline dates are normalized to UTC instants.
func ResolveParticipant(doc ParticipantDoc) (Participant, error) {
	p := Participant{
		Name:                  doc.Name,
		Enabled:               true,
		Contribution:          floatOrZero(doc.Contribution),
		MonthlyIncome:         floatOrZero(doc.MonthlyIncome),
		PersonalLoan:          floatOrZero(doc.PersonalLoan),
		Surface:               floatOrZero(doc.Surface),
		InterestRateOverride:  doc.InterestRateOverride,
		InsuranceRateOverride: doc.InsuranceRateOverride,
		LotsOwned:             doc.LotsOwned,
		Purchase:              doc.Purchase,
		MonthlyPayment:        floatOrZero(doc.MonthlyPayment),
		LoanShare:             floatOrZero(doc.LoanShare),
		PortagePrice:          floatOrZero(doc.PortagePrice),
	}
	if doc.Enabled != nil {
		p.Enabled = *doc.Enabled
	}
	if doc.RoomCount != nil {
		p.RoomCount = *doc.RoomCount
	}
	if doc.EntryDate != "" {
		t, err := time.ParseInLocation(dateLayout, doc.EntryDate, time.UTC)
		if err != nil {
			return Participant{}, fmt.Errorf("parsing entry date %q: %w", doc.EntryDate, err)
		}
		p.EntryDate = t
	}
	if doc.ExitDate != "" {
		t, err := time.ParseInLocation(dateLayout, doc.ExitDate, time.UTC)
		if err != nil {
			return Participant{}, fmt.Errorf("parsing exit date %q: %w", doc.ExitDate, err)
		}
		p.ExitDate = &t
	}
	return p, nil
}

// ResolveParticipants resolves a whole raw participant array in order.
func ResolveParticipants(docs []ParticipantDoc) ([]Participant, error) {
	if docs == nil {
		return nil, nil
	}
	resolved := make([]Participant, len(docs))
	for i, doc := range docs {
		p, err := ResolveParticipant(doc)
		if err != nil {
			return nil, fmt.Errorf("participant %d: %w", i, err)
		}
		resolved[i] = p
	}
	return resolved, nil
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
