package export

// Dataset defines tabular export content. Rows are keyed by header name
// so renderers can emit columns in a stable order.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// values flattens a row into a slice ordered by the dataset headers.
// Missing keys come out as empty strings.
func (d Dataset) values(row map[string]string) []string {
	out := make([]string, len(d.Headers))
	for i, header := range d.Headers {
		out[i] = row[header]
	}
	return out
}
