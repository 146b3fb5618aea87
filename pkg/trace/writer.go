package trace

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

type (
	// Writer prints phrases as plain lines. A blank line separates each
	// scenario's preconditions from what came before
	Writer struct {
		out   io.Writer
		style func(Phrase) string
		mu    sync.Mutex
	}
)

var (
	keywordStyle = lipgloss.NewStyle().Bold(true)
	givenStyle   = keywordStyle.Foreground(lipgloss.Color("39"))
	whenStyle    = keywordStyle.Foreground(lipgloss.Color("214"))
	thenStyle    = keywordStyle.Foreground(lipgloss.Color("42"))
	headerStyle  = lipgloss.NewStyle().Underline(true)
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// NewWriter creates a plain text sink. A nil writer means standard output
func NewWriter(w io.Writer) *Writer {
	if w == nil {
		w = os.Stdout
	}
	return &Writer{
		out:   w,
		style: plainText,
	}
}

// NewStyled creates a sink that colours the GIVEN, WHEN and THEN keywords
// for terminal output
func NewStyled(w io.Writer) *Writer {
	res := NewWriter(w)
	res.style = styledText
	return res
}

func (w *Writer) Write(p Phrase) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if p.Kind == KindGiven {
		_, _ = fmt.Fprintln(w.out)
	}
	_, _ = fmt.Fprintln(w.out, w.style(p))
}

func plainText(p Phrase) string {
	return p.Text
}

func styledText(p Phrase) string {
	switch p.Kind {
	case KindScenario:
		return headerStyle.Render(p.Text)
	case KindVariable, KindDetail:
		return detailStyle.Render(p.Text)
	}

	kw := p.Keyword()
	if kw == "" {
		return p.Text
	}
	rest := p.Text[len(kw):]
	switch kw {
	case "GIVEN":
		return givenStyle.Render(kw) + rest
	case "WHEN":
		return whenStyle.Render(kw) + rest
	default:
		return thenStyle.Render(kw) + rest
	}
}
