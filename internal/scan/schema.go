package scan

import "strings"

// Kind identifies the entry schema family a block was segmented as.
type Kind int

const (
	KindRSS Kind = iota
	KindAtom
)

func (k Kind) String() string {
	switch k {
	case KindRSS:
		return "rss"
	case KindAtom:
		return "atom"
	default:
		return "unknown"
	}
}

// Schema is the set of entry families present in a document.
type Schema int

const (
	SchemaUnknown Schema = iota
	SchemaRSS
	SchemaAtom
	SchemaMixed
)

func (s Schema) String() string {
	switch s {
	case SchemaRSS:
		return "rss"
	case SchemaAtom:
		return "atom"
	case SchemaMixed:
		return "mixed"
	default:
		return "unknown"
	}
}

// Kinds lists the families to scan, RSS first.
func (s Schema) Kinds() []Kind {
	switch s {
	case SchemaRSS:
		return []Kind{KindRSS}
	case SchemaAtom:
		return []Kind{KindAtom}
	case SchemaMixed:
		return []Kind{KindRSS, KindAtom}
	default:
		return nil
	}
}

// TagPair is a start/end delimiter pair.
type TagPair struct {
	Start string
	End   string
}

// Wrapper is the tag pair enclosing one entry.
type Wrapper = TagPair

// FieldTags names the delimiters used for each decoded field.
type FieldTags struct {
	Wrapper   Wrapper
	Title     TagPair
	Link      TagPair
	Timestamp TagPair
}

var fieldTags = map[Kind]FieldTags{
	KindRSS: {
		Wrapper:   Wrapper{Start: "<item>", End: "</item>"},
		Title:     TagPair{Start: "<title>", End: "</title>"},
		Link:      TagPair{Start: "<link>", End: "</link>"},
		Timestamp: TagPair{Start: "<pubDate>", End: "</pubDate>"},
	},
	KindAtom: {
		Wrapper:   Wrapper{Start: "<entry>", End: "</entry>"},
		Title:     TagPair{Start: "<title>", End: "</title>"},
		Link:      TagPair{Start: "<link>", End: "</link>"},
		Timestamp: TagPair{Start: "<updated>", End: "</updated>"},
	},
}

// TagsFor returns the field table for kind.
func TagsFor(kind Kind) FieldTags {
	return fieldTags[kind]
}

// DetectSchema sniffs which wrapper start tags appear anywhere in doc.
func DetectSchema(doc string) Schema {
	hasRSS := strings.Contains(doc, fieldTags[KindRSS].Wrapper.Start)
	hasAtom := strings.Contains(doc, fieldTags[KindAtom].Wrapper.Start)
	switch {
	case hasRSS && hasAtom:
		return SchemaMixed
	case hasRSS:
		return SchemaRSS
	case hasAtom:
		return SchemaAtom
	default:
		return SchemaUnknown
	}
}
