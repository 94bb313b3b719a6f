package printing

import (
	"embed"
	"html/template"

	"github.com/erp/labelprint/internal/domain/labeling"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	thermalTemplate = "thermal_label"
	gridTemplate    = "grid_label"
)

// labelView is the template data for one label. Absent optional fields are empty strings.
type labelView struct {
	Name          string
	Price         string
	WasPrice      string
	SKU           string
	BarcodeValue  string
	BarcodeURI    template.URL
	Unit          string
	Category      string
	StoreName     string
	ExpiryDate    string
	BatchNumber   string
	PromotionText string
	FontClass     string
	HasFooter     bool
}

func newLabelView(label labeling.FormattedLabel, format labeling.LabelFormat) labelView {
	v := labelView{
		Name:          label.Name,
		Price:         label.Price,
		WasPrice:      deref(label.WasPrice),
		SKU:           label.SKU,
		BarcodeValue:  deref(label.BarcodeValue),
		Unit:          deref(label.Unit),
		Category:      deref(label.Category),
		StoreName:     deref(label.StoreName),
		ExpiryDate:    deref(label.ExpiryDate),
		BatchNumber:   deref(label.BatchNumber),
		PromotionText: deref(label.PromotionText),
		FontClass:     "font-" + string(format.FontTier()),
		HasFooter:     label.HasFooter(),
	}
	if label.Barcode != nil {
		// Encoder output is always a data:image/png;base64 URI
		v.BarcodeURI = template.URL(label.Barcode.DataURI)
	}
	return v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// LabelRenderer renders one formatted label as an HTML fragment.
// It is safe for concurrent use.
type LabelRenderer struct {
	engine *TemplateEngine
	tmpl   *template.Template
}

// NewLabelRenderer parses the embedded label templates
func NewLabelRenderer(engine *TemplateEngine) (*LabelRenderer, error) {
	if engine == nil {
		engine = NewTemplateEngine()
	}
	tmpl, err := engine.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &LabelRenderer{engine: engine, tmpl: tmpl}, nil
}

// Render produces the label markup for the format's layout
func (r *LabelRenderer) Render(label labeling.FormattedLabel, format labeling.LabelFormat) (template.HTML, error) {
	var name string
	switch format.Layout {
	case labeling.LayoutThermal:
		name = thermalTemplate
	case labeling.LayoutGrid:
		name = gridTemplate
	default:
		return "", NewRenderError(ErrCodeInvalidFormat, "unknown label layout: "+string(format.Layout), nil)
	}
	return r.engine.Execute(r.tmpl, name, newLabelView(label, format))
}
