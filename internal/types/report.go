package types

import "time"

// Classification represents the outcome of comparing a record against its
// previous snapshot.
type Classification string

const (
	// ClassFirstSeen marks a RIN with no prior snapshot.
	ClassFirstSeen Classification = "first_seen"

	// ClassChanged marks a record with at least one differing field.
	ClassChanged Classification = "changed"

	// ClassUnchanged marks a record identical to its previous snapshot.
	ClassUnchanged Classification = "unchanged"
)

// FieldDiff records one differing field between two records. An empty Old
// means the field was absent from the previous record, an empty New means
// it was dropped from the current one; present values are never empty.
type FieldDiff struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// ChangeReport is the result of one comparison. It lives only for the
// duration of a run and is never persisted.
type ChangeReport struct {
	RIN            string
	Classification Classification
	Previous       *Record // nil when first seen
	Current        Record
	Diffs          []FieldDiff // sorted by field name
	DetectedAt     time.Time
}

// Notable reports whether the report should be included in a notification.
func (r *ChangeReport) Notable() bool {
	return r.Classification != ClassUnchanged
}
