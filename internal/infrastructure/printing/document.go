package printing

import (
	_ "embed"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/erp/labelprint/internal/domain/labeling"
)

var (
	//go:embed templates/sheet.css
	sheetCSS string

	//go:embed templates/labels.css
	labelCSS string
)

// Document is a complete printable label document
type Document struct {
	// JobID identifies the print run the document belongs to; zero for previews
	JobID      uuid.UUID
	Title      string
	HTML       string
	Format     labeling.LabelFormat
	PageCount  int
	LabelCount int
}

type documentView struct {
	Title  string
	CSS    template.CSS
	Layout labeling.LayoutKind
	Pages  [][]labeling.Row[template.HTML]
}

type previewView struct {
	CSS    template.CSS
	Layout labeling.LayoutKind
	Label  template.HTML
}

// DocumentBuilder wraps rendered labels into printable HTML.
// It is safe for concurrent use.
type DocumentBuilder struct {
	engine *TemplateEngine
	tmpl   *template.Template
}

// NewDocumentBuilder parses the embedded document templates
func NewDocumentBuilder(engine *TemplateEngine) (*DocumentBuilder, error) {
	if engine == nil {
		engine = NewTemplateEngine()
	}
	tmpl, err := engine.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &DocumentBuilder{engine: engine, tmpl: tmpl}, nil
}

// Build produces a full HTML document with one section per page
func (b *DocumentBuilder) Build(sheet labeling.ComposedSheet[template.HTML], format labeling.LabelFormat, title string) (*Document, error) {
	if err := format.Validate(); err != nil {
		return nil, NewRenderError(ErrCodeInvalidFormat, "invalid label format", err)
	}

	pages := sheet.Pages()
	html, err := b.engine.Execute(b.tmpl, "document", documentView{
		Title:  title,
		CSS:    template.CSS(sheetCSS + "\n" + labelCSS + "\n" + PageCSS(format)),
		Layout: format.Layout,
		Pages:  pages,
	})
	if err != nil {
		return nil, err
	}

	return &Document{
		Title:      title,
		HTML:       string(html),
		Format:     format,
		PageCount:  len(pages),
		LabelCount: sheet.LabelCount(),
	}, nil
}

// Preview wraps a single rendered label in a fragment sized to the format.
// The stylesheet only targets label classes so it can be embedded in another page.
func (b *DocumentBuilder) Preview(label template.HTML, format labeling.LabelFormat) (string, error) {
	css := labelCSS + "\n" + fmt.Sprintf(
		".label-preview { width: %s; height: %s; border: 1px dashed #bbb; background: #fff; }\n",
		mm(format.Width), mm(format.Height))

	html, err := b.engine.Execute(b.tmpl, "preview", previewView{
		CSS:    template.CSS(css),
		Layout: format.Layout,
		Label:  label,
	})
	if err != nil {
		return "", err
	}
	return string(html), nil
}

// PageCSS returns the @page rule and cell geometry for a format
func PageCSS(format labeling.LabelFormat) string {
	var sb strings.Builder

	switch format.PageSize {
	case labeling.PageSizeCustom:
		fmt.Fprintf(&sb, "@page { size: %s %s; margin: 0; }\n", mm(format.Width), mm(format.Height))
		fmt.Fprintf(&sb, ".page { width: %s; height: %s; }\n", mm(format.Width), mm(format.Height))
	default:
		sb.WriteString("@page { size: letter; margin: 0; }\n")
		// Center the label grid on the sheet
		side := max((labeling.LetterWidthMM-float64(format.LabelsPerRow)*format.Width)/2, 0)
		top := max((labeling.LetterHeightMM-float64(format.RowsPerPage)*format.Height)/2, 0)
		fmt.Fprintf(&sb, ".page { width: %s; height: %s; padding: %s %s; }\n",
			mm(labeling.LetterWidthMM), mm(labeling.LetterHeightMM), mm(top), mm(side))
	}

	fmt.Fprintf(&sb, ".label-cell { width: %s; height: %s; flex: 0 0 %s; }\n",
		mm(format.Width), mm(format.Height), mm(format.Width))
	return sb.String()
}

// mm formats a millimetre length without trailing zeros
func mm(v float64) string {
	return strconv.FormatFloat(round2(v), 'f', -1, 64) + "mm"
}

func round2(v float64) float64 {
	f, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	return f
}
