package trace

import (
	"strings"
	"sync"
	"time"
)

type (
	// Kind classifies a traced phrase
	Kind string

	// Phrase is a single human-readable line describing a scenario step
	Phrase struct {
		Time     time.Time `json:"time"`
		Scenario string    `json:"scenario"`
		Kind     Kind      `json:"kind"`
		Text     string    `json:"text"`
	}

	// Sink receives traced phrases. Sinks must not fail the scenario, so
	// Write reports nothing back
	Sink interface {
		Write(Phrase)
	}

	// SinkFunc adapts a function to the Sink interface
	SinkFunc func(Phrase)

	// Recorder keeps every phrase in memory
	Recorder struct {
		phrases []Phrase
		mu      sync.Mutex
	}

	tee []Sink

	discard struct{}
)

const (
	KindScenario Kind = "scenario"
	KindGiven    Kind = "given"
	KindWhen     Kind = "when"
	KindThen     Kind = "then"
	KindVariable Kind = "variable"
	KindDetail   Kind = "detail"
)

// Discard drops every phrase
var Discard Sink = discard{}

// Keyword returns the leading "GIVEN", "WHEN" or "THEN" of the phrase text,
// or an empty string when the text carries none
func (p Phrase) Keyword() string {
	if k, _, ok := strings.Cut(p.Text, ": "); ok {
		switch k {
		case "GIVEN", "WHEN", "THEN":
			return k
		}
	}
	return ""
}

func (f SinkFunc) Write(p Phrase) {
	f(p)
}

// Tee fans each phrase out to every non-nil sink, in order
func Tee(sinks ...Sink) Sink {
	res := make(tee, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			res = append(res, s)
		}
	}
	return res
}

func (t tee) Write(p Phrase) {
	for _, s := range t {
		s.Write(p)
	}
}

func (discard) Write(Phrase) {}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Write(p Phrase) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phrases = append(r.phrases, p)
}

// Phrases returns a copy of everything recorded so far
func (r *Recorder) Phrases() []Phrase {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]Phrase, len(r.phrases))
	copy(res, r.phrases)
	return res
}

// Texts returns the text of every recorded phrase
func (r *Recorder) Texts() []string {
	ph := r.Phrases()
	res := make([]string, len(ph))
	for i, p := range ph {
		res[i] = p.Text
	}
	return res
}

// Kinds returns the kind of every recorded phrase
func (r *Recorder) Kinds() []Kind {
	ph := r.Phrases()
	res := make([]Kind, len(ph))
	for i, p := range ph {
		res[i] = p.Kind
	}
	return res
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phrases = nil
}
