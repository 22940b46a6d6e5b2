package fetcher

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/danbauman77/reginfo-monitor/internal/types"
)

// volatileAttrs are stamped on every export regardless of content and
// would otherwise make every run look like a change.
var volatileAttrs = map[string]struct{}{
	"RUN_DATE":  {},
	"RUNDATE":   {},
	"TIMESTAMP": {},
	"GENERATED": {},
}

// parseRecord flattens the RIN XML export into a field map keyed by dotted
// element path, e.g. RIN_INFO.RULE_TITLE. Comments and volatile attributes
// never make it into the record. Repeated paths (timetable entries and the
// like) are joined in document order so they stay comparable.
func parseRecord(rin, pubID string, r io.Reader) (*types.Record, error) {
	dec := xml.NewDecoder(r)
	// Exports are declared as ISO-8859-1 inconsistently; treat any charset
	// as already-decoded text.
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	fields := make(map[string]string)
	var path []string
	var text strings.Builder
	leaf := false

	setField := func(key, value string) {
		if prev, ok := fields[key]; ok {
			fields[key] = prev + "; " + value
			return
		}
		fields[key] = value
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			path = append(path, t.Name.Local)
			text.Reset()
			leaf = true
			for _, attr := range t.Attr {
				name := strings.ToUpper(attr.Name.Local)
				if _, volatile := volatileAttrs[name]; volatile {
					continue
				}
				if v := strings.TrimSpace(attr.Value); v != "" {
					setField(fieldKey(path)+"@"+attr.Name.Local, v)
				}
			}
		case xml.EndElement:
			if leaf {
				if v := strings.TrimSpace(text.String()); v != "" {
					setField(fieldKey(path), v)
				}
			}
			path = path[:len(path)-1]
			text.Reset()
			leaf = false
		case xml.CharData:
			text.Write(t)
		}
	}

	if len(path) != 0 {
		return nil, fmt.Errorf("malformed xml: unclosed element %s", fieldKey(path))
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("export contains no data elements")
	}

	return &types.Record{
		RIN:           rin,
		PublicationID: pubID,
		Fields:        fields,
	}, nil
}

// fieldKey joins the element path below the document root. The root
// element wraps everything and carries no signal of its own.
func fieldKey(path []string) string {
	if len(path) > 1 {
		return strings.Join(path[1:], ".")
	}
	return path[0]
}
