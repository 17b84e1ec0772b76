package table

// Records returns the table as a sequence of mappings, one per row.
// Missing cells are nil; FromRecords reads the result back.
func (t *Table) Records() []map[string]any {
	out := make([]map[string]any, t.Len())
	for i := range out {
		out[i] = make(map[string]any, len(t.order))
	}
	for _, name := range t.order {
		c := t.cols[name]
		for i := range out {
			if !c.Valid[i] {
				out[i][name] = nil
				continue
			}
			switch c.Kind {
			case KindNumber:
				out[i][name] = c.Numbers[i]
			case KindString:
				out[i][name] = c.Strings[i]
			case KindDate:
				out[i][name] = c.Dates[i]
			case KindBool:
				out[i][name] = c.Bools[i]
			}
		}
	}
	return out
}
