package scan

// Entry is one decoded post. Fields that were not found are empty.
type Entry struct {
	Title     string `json:"title" yaml:"title"`
	Link      string `json:"link" yaml:"link"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
	Kind      Kind   `json:"kind" yaml:"kind"`
}

// Valid reports whether title, link and timestamp are all present.
func (e Entry) Valid() bool {
	return e.Title != "" && e.Link != "" && e.Timestamp != ""
}

// Decode pulls the recognised fields out of a segmented block.
func Decode(block string, kind Kind) Entry {
	tags := TagsFor(kind)
	return Entry{
		Title:     ExtractField(block, tags.Title.Start, tags.Title.End),
		Link:      ExtractField(block, tags.Link.Start, tags.Link.End),
		Timestamp: ExtractField(block, tags.Timestamp.Start, tags.Timestamp.End),
		Kind:      kind,
	}
}
