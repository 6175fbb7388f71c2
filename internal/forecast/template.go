package forecast

import (
	"bytes"
	"os"
	"strconv"
	"text/template"
)

const defaultTemplate = `Forecast {{.ID}}
Tasks:           {{.Summary.Count}}
Expected total:  {{fixed .Summary.Expected 3}}
Total variance:  {{fixed .Summary.Variance 3}}
{{- if .Result.Defined}}
Std deviation:   {{fixed .Summary.StdDev 3}}
Z-score:         {{fixed .Result.Z 3}}
{{- end}}
P(finish by {{fixed .Target 3}}): {{.Result.Format .Config.Decimals}}
{{- range .Confidence}}
P{{fixed .Probability 0}} completion: {{fixed .Target 3}}
{{- end}}
`

var templateFuncs = template.FuncMap{
	"fixed": Fixed,
}

// Fixed formats v with a fixed number of decimals.
func Fixed(v float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

// Render renders a text summary of f using either a custom template file or
// the default template.
func Render(f *Forecast, templatePath string) (string, error) {
	tmplStr := defaultTemplate
	if templatePath != "" {
		content, err := os.ReadFile(templatePath)
		if err != nil {
			return "", err
		}
		tmplStr = string(content)
	}

	tmpl, err := template.New("forecast").Funcs(templateFuncs).Parse(tmplStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, f); err != nil {
		return "", err
	}
	return buf.String(), nil
}
