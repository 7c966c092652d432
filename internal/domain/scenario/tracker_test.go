package scenario_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/castorcoop/scenariosync/internal/domain/scenario"
)

func TestFieldTracker_MarkAndClear(t *testing.T) {
	tr := scenario.NewFieldTracker()
	require.False(t, tr.IsDirty())
	require.True(t, tr.LastSave().IsZero())

	tr.MarkDirty("deed_date")
	tr.MarkManyDirty([]string{"formula_params", "deed_date"})

	require.True(t, tr.IsDirty())
	require.True(t, tr.IsFieldDirty("deed_date"))
	require.False(t, tr.IsFieldDirty("participants"))
	require.Equal(t, []string{"deed_date", "formula_params"}, tr.DirtyFields())

	tr.Clear()
	require.False(t, tr.IsDirty())
	require.Empty(t, tr.DirtyFields())
	require.False(t, tr.LastSave().IsZero())
}

func TestFieldTracker_ConcurrentMarks(t *testing.T) {
	tr := scenario.NewFieldTracker()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.MarkDirty("deed_date")
			tr.MarkManyDirty([]string{"formula_params"})
		}()
	}
	wg.Wait()

	require.Equal(t, []string{"deed_date", "formula_params"}, tr.DirtyFields())
}
