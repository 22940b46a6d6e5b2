// Package detector decides what counts as a reportable change between two
// fetched states of a regulation. Comparison is field-level rather than
// whole-record so the notification can say which attributes moved.
package detector

import (
	"sort"
	"time"

	"github.com/danbauman77/reginfo-monitor/internal/types"
)

// Compare classifies a freshly fetched record against the previous
// snapshot. A nil prev means the RIN has never been seen: the report is
// informational ("first seen") and carries no diffs. Compare is a pure
// function and cannot fail on well-formed records; malformed input is
// rejected at the fetcher boundary.
func Compare(prev *types.Snapshot, current *types.Record) types.ChangeReport {
	report := types.ChangeReport{
		RIN:        current.RIN,
		Current:    *current.Clone(),
		DetectedAt: time.Now(),
	}

	if prev == nil {
		report.Classification = types.ClassFirstSeen
		return report
	}

	report.Previous = prev.Record.Clone()
	report.Diffs = diffFields(prev.Record.Fields, current.Fields)

	if len(report.Diffs) == 0 {
		report.Classification = types.ClassUnchanged
	} else {
		report.Classification = types.ClassChanged
	}
	return report
}

// diffFields returns the fields present in either record whose values
// differ, sorted by field name. A field absent on one side is a distinct
// value from any present value and shows up as an empty Old or New.
func diffFields(old, new map[string]string) []types.FieldDiff {
	keys := make(map[string]struct{}, len(old)+len(new))
	for k := range old {
		keys[k] = struct{}{}
	}
	for k := range new {
		keys[k] = struct{}{}
	}

	var diffs []types.FieldDiff
	for k := range keys {
		ov, oldOK := old[k]
		nv, newOK := new[k]
		if oldOK && newOK && ov == nv {
			continue
		}
		diffs = append(diffs, types.FieldDiff{Field: k, Old: ov, New: nv})
	}

	sort.Slice(diffs, func(i, j int) bool {
		return diffs[i].Field < diffs[j].Field
	})
	return diffs
}
