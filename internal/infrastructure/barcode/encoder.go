// Package barcode rasterises CODE128 and EAN13 barcodes into PNG data URIs.
package barcode

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"regexp"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/ean"
	"go.uber.org/zap"

	"github.com/erp/labelprint/internal/domain/labeling"
)

const dataURIPrefix = "data:image/png;base64,"

var digitsOnly = regexp.MustCompile(`^\d+$`)

// Options tunes the raster output. Sizes are in pixels.
type Options struct {
	// ModuleWidth is the width of the narrowest bar
	ModuleWidth int
	// Height is the bar height
	Height int
	// FontSize is the caption height when DisplayValue is set
	FontSize int
	// Margin is the quiet zone around the symbol
	Margin int
	// DisplayValue draws the human-readable value under the bars
	DisplayValue bool
}

// DefaultOptions returns the label tuning: taller bars (120 vs 100), a larger
// caption (24 vs 20) and a tighter margin (4 vs 10) than the usual baseline.
// The caption is off because labels print the value as text.
func DefaultOptions() Options {
	return Options{
		ModuleWidth: 2,
		Height:      120,
		FontSize:    24,
		Margin:      4,
	}
}

// Overrides replaces individual Options fields for one call.
// A nil field keeps the encoder's value; a set field always wins.
type Overrides struct {
	ModuleWidth  *int
	Height       *int
	FontSize     *int
	Margin       *int
	DisplayValue *bool
}

// apply returns base with the set fields of o. Sizes below their minimum are ignored.
func (base Options) apply(o *Overrides) Options {
	if o == nil {
		return base
	}
	if o.ModuleWidth != nil && *o.ModuleWidth > 0 {
		base.ModuleWidth = *o.ModuleWidth
	}
	if o.Height != nil && *o.Height > 0 {
		base.Height = *o.Height
	}
	if o.FontSize != nil && *o.FontSize > 0 {
		base.FontSize = *o.FontSize
	}
	if o.Margin != nil && *o.Margin >= 0 {
		base.Margin = *o.Margin
	}
	if o.DisplayValue != nil {
		base.DisplayValue = *o.DisplayValue
	}
	return base
}

// Int and Bool build override fields
func Int(v int) *int { return &v }

func Bool(v bool) *bool { return &v }

// SymbologyFor picks EAN13 for exactly 13 digits, CODE128 for everything else
func SymbologyFor(value string) labeling.Symbology {
	if len(value) == 13 && digitsOnly.MatchString(value) {
		return labeling.SymbologyEAN13
	}
	return labeling.SymbologyCode128
}

// Encoder renders barcode values to PNG data URIs.
// It is safe for concurrent use.
type Encoder struct {
	options Options
	logger  *zap.Logger
}

// EncoderOption configures an Encoder
type EncoderOption func(*Encoder)

// WithOptions replaces the default raster tuning
func WithOptions(opts Options) EncoderOption {
	return func(e *Encoder) {
		e.options = opts
	}
}

// WithLogger sets the logger for encoding failures
func WithLogger(logger *zap.Logger) EncoderOption {
	return func(e *Encoder) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEncoder creates an encoder with DefaultOptions
func NewEncoder(opts ...EncoderOption) *Encoder {
	e := &Encoder{
		options: DefaultOptions(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encode implements labeling.BarcodeEncoder with the encoder's own options
func (e *Encoder) Encode(value string) (*labeling.BarcodeImage, bool) {
	return e.EncodeWithOptions(value, nil)
}

// EncodeWithOptions encodes value with opts applied over the encoder options.
// Failures are logged and reported as ok=false; they never panic or return errors.
func (e *Encoder) EncodeWithOptions(value string, opts *Overrides) (img *labeling.BarcodeImage, ok bool) {
	if value == "" {
		return nil, false
	}

	symbology := SymbologyFor(value)
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("Barcode encoder panicked",
				zap.String("value", value),
				zap.String("symbology", symbology.String()),
				zap.Any("panic", r))
			img, ok = nil, false
		}
	}()

	uri, err := e.render(value, symbology, e.options.apply(opts))
	if err != nil {
		e.logger.Warn("Failed to encode barcode",
			zap.String("value", value),
			zap.String("symbology", symbology.String()),
			zap.Error(err))
		return nil, false
	}

	return &labeling.BarcodeImage{Symbology: symbology, DataURI: uri}, true
}

func (e *Encoder) render(value string, symbology labeling.Symbology, opts Options) (string, error) {
	symbol, err := encodeSymbol(value, symbology)
	if err != nil {
		return "", err
	}

	raster, err := rasterize(symbol, value, opts)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, raster); err != nil {
		return "", fmt.Errorf("failed to encode png: %w", err)
	}
	return dataURIPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func encodeSymbol(value string, symbology labeling.Symbology) (barcode.Barcode, error) {
	switch symbology {
	case labeling.SymbologyEAN13:
		bc, err := ean.Encode(value)
		if err != nil {
			return nil, fmt.Errorf("invalid EAN13 value: %w", err)
		}
		return bc, nil
	default:
		bc, err := code128.Encode(value)
		if err != nil {
			return nil, fmt.Errorf("invalid CODE128 value: %w", err)
		}
		return bc, nil
	}
}

// rasterize scales the symbol to the module width and bar height and places it
// on a white canvas with the quiet-zone margin and optional caption.
func rasterize(symbol barcode.Barcode, value string, opts Options) (image.Image, error) {
	modules := symbol.Bounds().Dx()
	scaled, err := barcode.Scale(symbol, modules*opts.ModuleWidth, opts.Height)
	if err != nil {
		return nil, fmt.Errorf("failed to scale barcode: %w", err)
	}
	return compose(scaled, value, opts), nil
}
