package printing

import (
	"html/template"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTemplateEngine(t *testing.T) {
	engine := NewTemplateEngine()
	assert.NotNil(t, engine)

	funcMap := engine.GetFuncMap()
	for _, name := range []string{"truncate", "upper", "lower", "title", "trim", "default"} {
		assert.NotNil(t, funcMap[name], name)
	}
}

func TestTemplateEngine_WithFuncs(t *testing.T) {
	engine := NewTemplateEngine(WithFuncs(template.FuncMap{
		"shout": func(s string) string { return s + "!" },
	}))

	fsys := fstest.MapFS{"t.html": {Data: []byte(`{{define "t"}}{{shout .}}{{end}}`)}}
	tmpl, err := engine.ParseFS(fsys, "*.html")
	require.NoError(t, err)

	out, err := engine.Execute(tmpl, "t", "sale")
	require.NoError(t, err)
	assert.Equal(t, template.HTML("sale!"), out)
}

func TestTemplateEngine_ParseFS_Invalid(t *testing.T) {
	engine := NewTemplateEngine()
	fsys := fstest.MapFS{"bad.html": {Data: []byte(`{{define "bad"}}{{.Name}`)}}

	_, err := engine.ParseFS(fsys, "*.html")
	require.Error(t, err)

	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)
}

func TestTemplateEngine_Execute_Escapes(t *testing.T) {
	engine := NewTemplateEngine()
	fsys := fstest.MapFS{"t.html": {Data: []byte(`{{define "t"}}<b>{{.}}</b>{{end}}`)}}
	tmpl, err := engine.ParseFS(fsys, "*.html")
	require.NoError(t, err)

	out, err := engine.Execute(tmpl, "t", "<script>")
	require.NoError(t, err)
	assert.Equal(t, template.HTML("<b>&lt;script&gt;</b>"), out)

	_, err = engine.Execute(tmpl, "missing", nil)
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, ErrCodeRenderFailed, renderErr.Code)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		max    int
		suffix []string
		want   string
	}{
		{name: "short", input: "Milk", max: 10, want: "Milk"},
		{name: "long", input: "Full Cream Milk 2L", max: 10, want: "Full Cr..."},
		{name: "custom suffix", input: "Full Cream Milk", max: 6, suffix: []string{"…"}, want: "Full …"},
		{name: "multibyte", input: "Crème brûlée", max: 8, want: "Crème..."},
		{name: "max below suffix", input: "Yoghurt", max: 2, want: ".."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truncate(tt.input, tt.max, tt.suffix...))
		})
	}
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Shelf Tag", titleCase("shelf tag"))
}

func TestDefaultString(t *testing.T) {
	assert.Equal(t, "Price labels", defaultString("  ", "Price labels"))
	assert.Equal(t, "Weekly", defaultString("Weekly", "Price labels"))
}
