package model

// Record is the decoded script payload embedded in a sheet page.
// Only the fields needed for table reconstruction are modelled; the payload
// carries many more keys that are ignored by the decoder.
type Record struct {
	// Flyweight holds the deduplicated text pool.
	Flyweight Flyweight `json:"flyweight"`

	// Actions is the semicolon-delimited action log.
	Actions string `json:"actions"`
}

// Flyweight is the shared-resource section of the payload.
type Flyweight struct {
	// Texts is the ordered text pool referenced by placement commands.
	Texts []string `json:"texts"`
}

// TextPool returns the record's text pool.
func (r *Record) TextPool() TextPool {
	if r == nil {
		return nil
	}
	return TextPool(r.Flyweight.Texts)
}
