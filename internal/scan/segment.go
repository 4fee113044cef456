package scan

import (
	"iter"
	"strings"
)

// Segmenter yields successive non-overlapping wrapper blocks from a document.
// It is single-use: once Next reports false, it stays exhausted.
type Segmenter struct {
	doc     string
	wrapper Wrapper
	pos     int
	done    bool
}

func NewSegmenter(doc string, wrapper Wrapper) *Segmenter {
	return &Segmenter{doc: doc, wrapper: wrapper}
}

// Next returns the next block, start tag through end tag inclusive. Scanning
// stops at the first start tag that has no end tag after it.
func (s *Segmenter) Next() (string, bool) {
	if s.done || s.wrapper.Start == "" || s.wrapper.End == "" {
		s.done = true
		return "", false
	}
	rel := strings.Index(s.doc[s.pos:], s.wrapper.Start)
	if rel < 0 {
		s.done = true
		return "", false
	}
	start := s.pos + rel
	bodyStart := start + len(s.wrapper.Start)
	rel = strings.Index(s.doc[bodyStart:], s.wrapper.End)
	if rel < 0 {
		s.done = true
		return "", false
	}
	end := bodyStart + rel + len(s.wrapper.End)
	s.pos = end
	return s.doc[start:end], true
}

// Blocks iterates the blocks of doc with a fresh Segmenter.
func Blocks(doc string, wrapper Wrapper) iter.Seq[string] {
	return func(yield func(string) bool) {
		seg := NewSegmenter(doc, wrapper)
		for {
			block, ok := seg.Next()
			if !ok || !yield(block) {
				return
			}
		}
	}
}
