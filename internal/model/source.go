// Package model defines the syntax, symbol and finding types shared by the analysis engine.
package model

import "fmt"

// Path represents a file system path.
type Path string

// SourceSpan locates a node or declaration in a source file.
type SourceSpan struct {
	File      Path `yaml:"file"`
	Line      int  `yaml:"line"`
	Column    int  `yaml:"column"`
	Offset    int  `yaml:"offset"`
	EndOffset int  `yaml:"end_offset"`
}

// String renders the span as file:line:column.
func (s SourceSpan) String() string {
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

// Before reports whether s sorts before other.
//
// Spans are ordered by file path, then byte offset, then line and column, so the
// order does not depend on the order a provider enumerated declarations in.
func (s SourceSpan) Before(other SourceSpan) bool {
	if s.File != other.File {
		return s.File < other.File
	}

	if s.Offset != other.Offset {
		return s.Offset < other.Offset
	}

	if s.Line != other.Line {
		return s.Line < other.Line
	}

	return s.Column < other.Column
}
