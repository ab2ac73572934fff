package shapegen

import (
	"bytes"
	"errors"
	"go/format"
	"strconv"
	"strings"
	"text/template"
)

var ErrFormatFailed = errors.New("formatting the generated source failed")

const fileTemplate = `// Code generated by proxygen. DO NOT EDIT.

package {{.Package}}

import (
{{- range .Imports}}
	{{with .Alias}}{{.}} {{end}}"{{.Path}}"
{{- end}}
)

func init() {
{{- range .Shapes}}
	dynproxy.RegisterShape(func(h dynproxy.Handler) {{.Interface}} { return &{{.TypeName}}{h} })
{{- end}}
}
{{range $shape := .Shapes}}
type {{.TypeName}} struct{ h dynproxy.Handler }

func (s *{{.TypeName}}) ProxyHandler() dynproxy.Handler { return s.h }
{{range .Methods}}
func (s *{{$shape.TypeName}}) {{.Name}}({{params .Params}}) {{results .Results}} {
	{{if .Results}}out := {{end}}s.h.Invoke({{printf "%q" .Name}}{{range .Params}}, {{.Name}}{{end}})
{{- range $i, $r := .Results}}
	r{{$i}}, _ := out[{{$i}}].({{$r}})
{{- end}}
{{- if .Results}}

	return {{resultNames .Results}}
{{- end}}
}
{{end}}{{end}}`

var shapeFile = template.Must(template.New("shapes").Funcs(template.FuncMap{
	"params":      renderParams,
	"results":     renderResults,
	"resultNames": renderResultNames,
}).Parse(fileTemplate))

// Render produces the gofmt-ed source of f.
func Render(f *File) ([]byte, error) {
	var buf bytes.Buffer
	if err := shapeFile.Execute(&buf, f); err != nil {
		return nil, err
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, errors.Join(ErrFormatFailed, err)
	}

	return src, nil
}

func renderParams(params []Param) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.Declaration()
	}

	return strings.Join(parts, ", ")
}

func renderResults(results []string) string {
	switch len(results) {
	case 0:
		return ""
	case 1:
		return results[0]
	default:
		return "(" + strings.Join(results, ", ") + ")"
	}
}

func renderResultNames(results []string) string {
	names := make([]string, len(results))
	for i := range results {
		names[i] = "r" + strconv.Itoa(i)
	}

	return strings.Join(names, ", ")
}
