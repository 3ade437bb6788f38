// Package errorlist collects the failures from loading a directory of
// contract documents into a single error value, tagging each one with
// the top-level file that produced it.
//
// A !include chain means the absolute path inside an error (see
// harness.BadContractError) can point several files deep into whatever
// the broken document included, which isn't necessarily the file the
// directory scan was actually iterating over. List keeps both: the
// originating top-level source alongside the underlying error.
package errorlist

import (
	"fmt"
	"strings"
)

// Entry is one failed load, tagged with the top-level contract file that
// was being loaded when err surfaced.
type Entry struct {
	Source string
	Err    error
}

// List is a collection of load failures.
type List []Entry

// Append adds err under source to el. A nil err is a no-op. An err whose
// message already appears in el is dropped rather than duplicated: a
// broken !include reached from several top-level files would otherwise
// report the same underlying failure once per file that reaches it.
func (el List) Append(source string, err error) List {
	if err == nil {
		return el
	}
	msg := err.Error()
	for _, e := range el {
		if e.Err.Error() == msg {
			return el
		}
	}
	return append(el, Entry{Source: source, Err: err})
}

// Error joins every entry's source and message, one per distinct failure.
func (el List) Error() string {
	return strings.Join(el.AsStrings(), "; ")
}

// AsError returns el as an error, or nil if el is empty.
func (el List) AsError() error {
	if len(el) == 0 {
		return nil
	}
	return el
}

// AsStrings renders each entry as "<source>: <message>".
func (el List) AsStrings() []string {
	s := make([]string, 0, len(el))
	for _, e := range el {
		s = append(s, fmt.Sprintf("%s: %s", e.Source, e.Err))
	}
	return s
}
