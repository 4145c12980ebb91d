package search

import (
	"bytes"
	_ "embed"
)

//go:embed playbook.md
var defaultPlaybook []byte

// DefaultPlaybook returns an index over the built-in retail strategy playbook.
func DefaultPlaybook(opts ...Option) Index {
	ix, _ := NewIndexFromReader(bytes.NewReader(defaultPlaybook), opts...)
	return ix
}

// LoadPlaybook indexes the playbook at path, or the built-in one when path
// is empty.
func LoadPlaybook(path string, opts ...Option) (Index, error) {
	if path == "" {
		return DefaultPlaybook(opts...), nil
	}
	return NewIndexFromMarkdown(path, opts...)
}
