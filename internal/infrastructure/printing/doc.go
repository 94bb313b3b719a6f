// Package printing renders price labels to HTML and PDF.
//
// This package contains:
//   - TemplateEngine, which parses the embedded label templates
//   - LabelRenderer, which turns a FormattedLabel into an HTML fragment for a thermal or grid layout
//   - DocumentBuilder, which wraps a composed sheet into a printable HTML document
//   - PDFRenderer and its chromedp implementation for headless Chrome printing
//   - PDFStorage and a file system implementation for generated PDFs
//   - PrintSurface implementations that take finished documents to an output
//
// Example usage:
//
//	renderer, err := NewLabelRenderer(NewTemplateEngine())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	html, err := renderer.Render(label, format)
package printing
