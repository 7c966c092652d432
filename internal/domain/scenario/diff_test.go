package scenario_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/castorcoop/scenariosync/internal/domain/scenario"
)

func participantFixture(name string) scenario.Participant {
	return scenario.Participant{
		Name:          name,
		Enabled:       true,
		Contribution:  50000,
		MonthlyIncome: 2500,
		Surface:       80,
		EntryDate:     time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestChangedIndices_IdenticalLists(t *testing.T) {
	a := []scenario.Participant{participantFixture("Anne"), participantFixture("Benoît")}
	b := []scenario.Participant{participantFixture("Anne"), participantFixture("Benoît")}

	require.Empty(t, scenario.ChangedIndices(a, b))
}

func TestChangedIndices_SingleFieldChange(t *testing.T) {
	a := []scenario.Participant{participantFixture("Anne"), participantFixture("Benoît")}
	b := []scenario.Participant{participantFixture("Anne"), participantFixture("Benoît")}
	b[0].Surface = 120

	require.Equal(t, []int{0}, scenario.ChangedIndices(a, b))
}

func TestChangedIndices_LengthMismatchReportsAll(t *testing.T) {
	a := []scenario.Participant{participantFixture("Anne"), participantFixture("Benoît")}
	b := []scenario.Participant{
		participantFixture("Anne"),
		participantFixture("Benoît"),
		participantFixture("Claire"),
	}

	require.Equal(t, []int{0, 1, 2}, scenario.ChangedIndices(a, b))
}

func TestChangedIndices_DerivedFieldsIgnored(t *testing.T) {
	a := []scenario.Participant{participantFixture("Anne")}
	b := []scenario.Participant{participantFixture("Anne")}
	b[0].MonthlyPayment = 842.17
	b[0].LoanShare = 0.31
	b[0].PortagePrice = 96500

	require.Empty(t, scenario.ChangedIndices(a, b))
}

func TestChangedIndices_OptionalOverrides(t *testing.T) {
	rate := 3.45

	a := []scenario.Participant{participantFixture("Anne")}
	b := []scenario.Participant{participantFixture("Anne")}
	b[0].InterestRateOverride = &rate
	require.Equal(t, []int{0}, scenario.ChangedIndices(a, b))

	// Equal values behind distinct pointers are not a change.
	sameA, sameB := rate, rate
	a[0].InterestRateOverride = &sameA
	b[0].InterestRateOverride = &sameB
	require.Empty(t, scenario.ChangedIndices(a, b))
}

func TestChangedIndices_DatesCompareByInstant(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	a := []scenario.Participant{participantFixture("Anne")}
	b := []scenario.Participant{participantFixture("Anne")}
	b[0].EntryDate = a[0].EntryDate.In(paris)

	require.Empty(t, scenario.ChangedIndices(a, b))
}

func TestChangedIndices_LotsAndPurchase(t *testing.T) {
	a := []scenario.Participant{participantFixture("Anne"), participantFixture("Benoît")}
	b := []scenario.Participant{participantFixture("Anne"), participantFixture("Benoît")}
	b[0].LotsOwned = []scenario.Lot{{ID: "lot-3", Surface: 62, Tantiemes: 118}}
	b[1].Purchase = &scenario.PurchaseDetails{Price: 210000, NotaryFees: 16800, Date: "2025-06-01"}

	require.Equal(t, []int{0, 1}, scenario.ChangedIndices(a, b))
}
