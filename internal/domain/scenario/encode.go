package scenario

// EncodeParticipant converts a resolved participant back to its wire/storage
// form. Every field is written explicitly so stored documents are always
// fully populated going forward; only genuinely optional values stay absent.
func EncodeParticipant(p Participant) ParticipantDoc {
	enabled := p.Enabled
	contribution := p.Contribution
	monthlyIncome := p.MonthlyIncome
	personalLoan := p.PersonalLoan
	surface := p.Surface
	roomCount := p.RoomCount
	monthlyPayment := p.MonthlyPayment
	loanShare := p.LoanShare
	portagePrice := p.PortagePrice

	doc := ParticipantDoc{
		Name:                  p.Name,
		Enabled:               &enabled,
		Contribution:          &contribution,
		MonthlyIncome:         &monthlyIncome,
		PersonalLoan:          &personalLoan,
		Surface:               &surface,
		RoomCount:             &roomCount,
		InterestRateOverride:  p.InterestRateOverride,
		InsuranceRateOverride: p.InsuranceRateOverride,
		LotsOwned:             p.LotsOwned,
		Purchase:              p.Purchase,
		MonthlyPayment:        &monthlyPayment,
		LoanShare:             &loanShare,
		PortagePrice:          &portagePrice,
	}
	if !p.EntryDate.IsZero() {
		doc.EntryDate = p.EntryDate.UTC().Format(dateLayout)
	}
	if p.ExitDate != nil {
		doc.ExitDate = p.ExitDate.UTC().Format(dateLayout)
	}
	return doc
}

// EncodeParticipants encodes a whole participant list in order.
func EncodeParticipants(ps []Participant) []ParticipantDoc {
	docs := make([]ParticipantDoc, len(ps))
	for i, p := range ps {
		docs[i] = EncodeParticipant(p)
	}
	return docs
}
