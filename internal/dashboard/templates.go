package dashboard

import (
	"embed"
	"html/template"
	"strings"

	"github.com/mesikahq/patient-dashboard/internal/patient"
)

//go:embed templates/*.html
var templateFS embed.FS

// Template names, as registered with the gin HTML renderer.
const (
	TemplateIndex    = "index.html"
	TemplateNotFound = "404.html"
)

var funcs = template.FuncMap{
	"trendArrow": func(t patient.Trend) string {
		switch t {
		case patient.TrendAbove:
			return "▲"
		case patient.TrendBelow:
			return "▼"
		default:
			return ""
		}
	},
	"initials": func(name string) string {
		var b strings.Builder
		for _, f := range strings.Fields(name) {
			b.WriteString(strings.ToUpper(string([]rune(f)[0])))
		}
		return b.String()
	},
}

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
}
