package detector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danbauman77/reginfo-monitor/internal/types"
)

func record(fields map[string]string) *types.Record {
	return &types.Record{
		RIN:           "2060-AV54",
		PublicationID: "202410",
		Fields:        fields,
	}
}

func snapshot(fields map[string]string) *types.Snapshot {
	return &types.Snapshot{
		Record:    *record(fields),
		FetchedAt: time.Now().Add(-24 * time.Hour),
	}
}

func TestCompareFirstSeen(t *testing.T) {
	current := record(map[string]string{
		types.FieldTitle: "Some Rule",
		types.FieldStage: "Proposed Rule",
	})

	report := Compare(nil, current)

	assert.Equal(t, types.ClassFirstSeen, report.Classification)
	assert.True(t, report.Notable())
	assert.Nil(t, report.Previous)
	assert.Empty(t, report.Diffs)
	assert.Equal(t, "2060-AV54", report.RIN)
}

func TestCompareUnchanged(t *testing.T) {
	fields := map[string]string{
		types.FieldTitle:  "Some Rule",
		types.FieldStage:  "Proposed Rule",
		types.FieldAgency: "EPA",
	}

	report := Compare(snapshot(fields), record(fields))

	assert.Equal(t, types.ClassUnchanged, report.Classification)
	assert.False(t, report.Notable())
	assert.Empty(t, report.Diffs)
	require.NotNil(t, report.Previous)
}

func TestCompareSingleFieldChange(t *testing.T) {
	prev := snapshot(map[string]string{
		types.FieldTitle: "Some Rule",
		types.FieldStage: "Proposed Rule",
	})
	current := record(map[string]string{
		types.FieldTitle: "Some Rule",
		types.FieldStage: "Final Rule",
	})

	report := Compare(prev, current)

	assert.Equal(t, types.ClassChanged, report.Classification)
	assert.True(t, report.Notable())
	require.Len(t, report.Diffs, 1)
	assert.Equal(t, types.FieldDiff{
		Field: types.FieldStage,
		Old:   "Proposed Rule",
		New:   "Final Rule",
	}, report.Diffs[0])
}

func TestCompareFieldPresenceCountsAsChange(t *testing.T) {
	tests := []struct {
		name    string
		prev    map[string]string
		current map[string]string
		want    types.FieldDiff
	}{
		{
			name:    "field added",
			prev:    map[string]string{types.FieldTitle: "Some Rule"},
			current: map[string]string{types.FieldTitle: "Some Rule", types.FieldStage: "Final Rule"},
			want:    types.FieldDiff{Field: types.FieldStage, Old: "", New: "Final Rule"},
		},
		{
			name:    "field dropped",
			prev:    map[string]string{types.FieldTitle: "Some Rule", types.FieldStage: "Final Rule"},
			current: map[string]string{types.FieldTitle: "Some Rule"},
			want:    types.FieldDiff{Field: types.FieldStage, Old: "Final Rule", New: ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Compare(snapshot(tt.prev), record(tt.current))
			assert.Equal(t, types.ClassChanged, report.Classification)
			require.Len(t, report.Diffs, 1)
			assert.Equal(t, tt.want, report.Diffs[0])
		})
	}
}

func TestCompareDiffsSortedByField(t *testing.T) {
	prev := snapshot(map[string]string{
		"RIN_INFO.ZEBRA": "1",
		"RIN_INFO.ALPHA": "1",
		"RIN_INFO.MIKE":  "1",
	})
	current := record(map[string]string{
		"RIN_INFO.ZEBRA": "2",
		"RIN_INFO.ALPHA": "2",
		"RIN_INFO.MIKE":  "2",
	})

	report := Compare(prev, current)

	require.Len(t, report.Diffs, 3)
	assert.Equal(t, "RIN_INFO.ALPHA", report.Diffs[0].Field)
	assert.Equal(t, "RIN_INFO.MIKE", report.Diffs[1].Field)
	assert.Equal(t, "RIN_INFO.ZEBRA", report.Diffs[2].Field)
}

func TestCompareIsIdempotent(t *testing.T) {
	fields := map[string]string{types.FieldStage: "Proposed Rule"}

	first := Compare(nil, record(fields))
	assert.True(t, first.Notable())

	// Save the first result and compare again with no upstream change:
	// the second run must not be notable.
	snap := &types.Snapshot{Record: first.Current, FetchedAt: time.Now()}
	second := Compare(snap, record(fields))
	assert.Equal(t, types.ClassUnchanged, second.Classification)
	assert.False(t, second.Notable())
}

func TestCompareDoesNotAliasInputs(t *testing.T) {
	fields := map[string]string{types.FieldStage: "Proposed Rule"}
	current := record(fields)

	report := Compare(nil, current)
	current.Fields[types.FieldStage] = "mutated"

	assert.Equal(t, "Proposed Rule", report.Current.Fields[types.FieldStage])
}
