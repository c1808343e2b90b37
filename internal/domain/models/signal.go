package models

import "sort"

// SignalKind classifies where a signal came from
type SignalKind string

const (
	SignalKindKeyword   SignalKind = "keyword"
	SignalKindPattern   SignalKind = "pattern"
	SignalKindContext   SignalKind = "context"
	SignalKindStatistic SignalKind = "statistic"
)

// Signal is a discrete, named indicator extracted from input content or
// context. Signals are created once per request and never mutated.
type Signal struct {
	Kind SignalKind `json:"kind"`
	Name string     `json:"name"`
}

// SignalSet is an unordered, duplicate-free collection of signal names.
type SignalSet struct {
	signals map[string]Signal
}

// NewSignalSet creates an empty signal set
func NewSignalSet() *SignalSet {
	return &SignalSet{signals: make(map[string]Signal)}
}

// Add inserts a signal; re-adding the same name is a no-op
func (s *SignalSet) Add(kind SignalKind, name string) {
	if _, ok := s.signals[name]; ok {
		return
	}
	s.signals[name] = Signal{Kind: kind, Name: name}
}

// Has reports whether a signal name is present
func (s *SignalSet) Has(name string) bool {
	_, ok := s.signals[name]
	return ok
}

// Len returns the number of distinct signals
func (s *SignalSet) Len() int {
	return len(s.signals)
}

// Names returns all signal names sorted lexically. Sorting keeps downstream
// output deterministic even though the set itself is unordered.
func (s *SignalSet) Names() []string {
	names := make([]string, 0, len(s.signals))
	for name := range s.signals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ByKind returns the signals of one kind, sorted by name
func (s *SignalSet) ByKind(kind SignalKind) []Signal {
	var out []Signal
	for _, sig := range s.signals {
		if sig.Kind == kind {
			out = append(out, sig)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
