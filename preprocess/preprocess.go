// Package preprocess injects the deck's control values into a pattern
// template before it is handed to the engine.
package preprocess

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig"

	"go-livedeck/settings"
)

// DefaultSentinel is the mute prefix understood by the pattern language.
const DefaultSentinel = "_"

// Placeholder tokens, one per control.
const (
	TokenVolume = "<volume>"
	TokenCPM    = "<cpm>"
)

// Tokens lists every known placeholder in display order.
func Tokens() []string {
	out := []string{TokenVolume, TokenCPM}
	for _, t := range settings.Tracks() {
		out = append(out, trackToken(t))
	}
	return out
}

func trackToken(t settings.Track) string {
	return "<" + string(t) + ">"
}

// Processor renders templates. The zero value uses DefaultSentinel.
type Processor struct {
	Sentinel string
}

func New(sentinel string) *Processor {
	return &Processor{Sentinel: sentinel}
}

func (p *Processor) sentinel() string {
	if p == nil || p.Sentinel == "" {
		return DefaultSentinel
	}
	return p.Sentinel
}

// Apply replaces every occurrence of each known token. Tracks that are on
// render as "", tracks that are off render as the sentinel. Text without
// tokens is returned unchanged.
func (p *Processor) Apply(tmpl string, s settings.Settings) string {
	pairs := []string{
		TokenVolume, settings.FormatNumber(s.Volume),
		TokenCPM, settings.FormatNumber(s.CPM),
	}
	for _, t := range settings.Tracks() {
		v := p.sentinel()
		if s.Track(t) {
			v = ""
		}
		pairs = append(pairs, trackToken(t), v)
	}
	// Tokens are delimited by <>, so no token is a substring of another and a
	// single replacer pass is order independent.
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// Missing returns the known tokens that do not occur in tmpl.
func (p *Processor) Missing(tmpl string) []string {
	var missing []string
	for _, tok := range Tokens() {
		if !strings.Contains(tmpl, tok) {
			missing = append(missing, tok)
		}
	}
	return missing
}

// Expand runs {{ ... }} actions in text with the sprig function map. The
// record is exposed as the template's dot, so {{ .CPM | mul 2 }} works.
// Text without actions is returned as is.
func (p *Processor) Expand(text string, s settings.Settings) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}
	t, err := template.New("pattern").Funcs(sprig.TxtFuncMap()).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse pattern expressions: %w", err)
	}
	var b strings.Builder
	if err := t.Execute(&b, s); err != nil {
		return "", fmt.Errorf("expand pattern expressions: %w", err)
	}
	return b.String(), nil
}

// Render is Apply followed by Expand when expressions are enabled.
func (p *Processor) Render(tmpl string, s settings.Settings, expressions bool) (string, error) {
	out := p.Apply(tmpl, s)
	if !expressions {
		return out, nil
	}
	return p.Expand(out, s)
}
