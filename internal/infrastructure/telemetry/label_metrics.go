package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Label operations recorded on label_documents_total
const (
	LabelOpDocument = "document"
	LabelOpPrint    = "print"
	LabelOpPreview  = "preview"
)

// LabelMetrics records label engine activity.
// A nil *LabelMetrics records nothing.
type LabelMetrics struct {
	documentsTotal *Counter   // label_documents_total{label.format,label.operation}
	labelsPrinted  *Counter   // labels_printed_total{label.format}
	printRefused   *Counter   // label_print_refused_total{label.outcome}
	buildDuration  *Histogram // label_document_build_duration_seconds{label.format,label.operation}
}

// NewLabelMetrics creates the label instruments on meter.
func NewLabelMetrics(meter metric.Meter) (*LabelMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	documentsTotal, err := NewCounter(meter,
		"label_documents_total",
		"Label documents built, by format and operation",
		"{document}",
	)
	if err != nil {
		return nil, err
	}

	labelsPrinted, err := NewCounter(meter,
		"labels_printed_total",
		"Labels handed to the print surface",
		"{label}",
	)
	if err != nil {
		return nil, err
	}

	printRefused, err := NewCounter(meter,
		"label_print_refused_total",
		"Print requests that dispatched nothing, by reason",
		"{request}",
	)
	if err != nil {
		return nil, err
	}

	buildDuration, err := NewHistogram(meter, HistogramOpts{
		Name:        "label_document_build_duration_seconds",
		Description: "Time to format, render and compose a label document",
		Unit:        "s",
		Boundaries:  BuildDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	return &LabelMetrics{
		documentsTotal: documentsTotal,
		labelsPrinted:  labelsPrinted,
		printRefused:   printRefused,
		buildDuration:  buildDuration,
	}, nil
}

// RecordBuild records one built document and how long it took.
func (m *LabelMetrics) RecordBuild(ctx context.Context, operation, format string, d time.Duration) {
	if m == nil {
		return
	}
	m.documentsTotal.Inc(ctx, AttrLabelFormat.String(format), AttrLabelOperation.String(operation))
	m.buildDuration.RecordDuration(ctx, d, AttrLabelFormat.String(format), AttrLabelOperation.String(operation))
}

// RecordPrinted counts labels dispatched to the print surface.
func (m *LabelMetrics) RecordPrinted(ctx context.Context, format string, labels int) {
	if m == nil {
		return
	}
	m.labelsPrinted.Add(ctx, int64(labels), AttrLabelFormat.String(format))
}

// RecordRefused counts a print request that dispatched nothing.
func (m *LabelMetrics) RecordRefused(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.printRefused.Inc(ctx, AttrLabelOutcome.String(reason))
}
