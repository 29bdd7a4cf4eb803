// Package teardown tracks resources as they are acquired and releases them
// in reverse order, once.
package teardown

// Stack is a last-in first-out list of release functions. The zero value
// is ready to use. A Stack is not safe for concurrent use.
type Stack struct {
	entries []entry
}

type entry struct {
	name    string
	release func()
}

// Push records a release function for the named resource. A nil release
// is ignored.
func (s *Stack) Push(name string, release func()) {
	if release == nil {
		return
	}
	s.entries = append(s.entries, entry{name, release})
}

// Release calls every recorded function, most recent first, and empties
// the stack. Calling it again does nothing until more entries are pushed.
func (s *Stack) Release() {
	for len(s.entries) > 0 {
		last := len(s.entries) - 1
		e := s.entries[last]
		s.entries = s.entries[:last]
		e.release()
	}
}

// Len is the number of pending entries.
func (s *Stack) Len() int { return len(s.entries) }

// Names lists the pending entries in acquisition order.
func (s *Stack) Names() []string {
	names := make([]string, len(s.entries))
	for k, e := range s.entries {
		names[k] = e.name
	}
	return names
}

// Guard releases the stack when *err is non-nil. It is meant to be
// deferred by a constructor with a named error result, so a failure part
// way through setup leaves nothing behind.
func (s *Stack) Guard(err *error) {
	if *err != nil {
		s.Release()
	}
}
