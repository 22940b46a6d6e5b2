package types

import "time"

// Well-known field keys produced by the XML flattening. The export carries
// many more; these are the ones surfaced by name elsewhere.
const (
	FieldTitle  = "RIN_INFO.RULE_TITLE"
	FieldStage  = "RIN_INFO.RULE_STAGE"
	FieldStatus = "RIN_INFO.RIN_STATUS"
	FieldAgency = "RIN_INFO.AGENCY.NAME"
)

// Record is the parsed state of one regulation as exported for a single
// Unified Agenda publication. Fields maps dotted element paths to their
// text values; volatile attributes (run dates and the like) are stripped
// at parse time and never appear here.
type Record struct {
	RIN           string            `json:"rin"`
	PublicationID string            `json:"publication_id"`
	Fields        map[string]string `json:"fields"`
}

// Field returns the value for a field key and whether it is present.
func (r *Record) Field(key string) (string, bool) {
	v, ok := r.Fields[key]
	return v, ok
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	fields := make(map[string]string, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	return &Record{
		RIN:           r.RIN,
		PublicationID: r.PublicationID,
		Fields:        fields,
	}
}

// Snapshot is the last stored record for a RIN plus its retrieval time.
type Snapshot struct {
	Record    Record    `json:"record"`
	FetchedAt time.Time `json:"fetched_at"`
}
