package filters

// Flatten migrates a legacy nested filter into the current flat shape: event
// entries move from the Events list into Filters, tagged IsEvent, preserving
// their relative order after the existing filter entries. Flattening an
// already-flat filter is a no-op, so the migration can run on every read.
func Flatten(f Filter) Filter {
	if f.IsFlat() {
		return f
	}

	flat := f
	flat.Filters = make([]Entry, 0, len(f.Filters)+len(f.Events))
	flat.Filters = append(flat.Filters, f.Filters...)

	for _, e := range f.Events {
		e.IsEvent = true
		flat.Filters = append(flat.Filters, e)
	}

	flat.Events = nil
	if flat.EventsOrder == "" {
		flat.EventsOrder = EventsOrderThen
	}
	return flat
}

// FlattenAll applies Flatten in place to a slice of filters.
func FlattenAll(fs []Filter) {
	for i := range fs {
		fs[i] = Flatten(fs[i])
	}
}
