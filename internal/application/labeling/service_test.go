package labeling_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"

	app "github.com/erp/labelprint/internal/application/labeling"
	"github.com/erp/labelprint/internal/domain/labeling"
	"github.com/erp/labelprint/internal/domain/shared"
	"github.com/erp/labelprint/internal/infrastructure/barcode"
	"github.com/erp/labelprint/internal/infrastructure/cache"
	infra "github.com/erp/labelprint/internal/infrastructure/printing"
	"github.com/erp/labelprint/internal/infrastructure/telemetry"
)

// =============================================================================
// Mock Implementations
// =============================================================================

type MockPrintSurface struct {
	mock.Mock
}

func (m *MockPrintSurface) Dispatch(ctx context.Context, doc *infra.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

type panickingEncoder struct{}

func (panickingEncoder) Encode(string) (*labeling.BarcodeImage, bool) {
	panic("encoder exploded")
}

type memoryJobRepository struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]labeling.LabelJob
}

func (r *memoryJobRepository) Save(_ context.Context, job *labeling.LabelJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.jobs == nil {
		r.jobs = map[uuid.UUID]labeling.LabelJob{}
	}
	r.jobs[job.ID] = *job
	return nil
}

func (r *memoryJobRepository) FindByID(_ context.Context, id uuid.UUID) (*labeling.LabelJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &job, nil
}

func (r *memoryJobRepository) FindRecent(_ context.Context, limit int) ([]labeling.LabelJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]labeling.LabelJob, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// =============================================================================
// Helpers
// =============================================================================

func newService(t *testing.T, encoder labeling.BarcodeEncoder, opts ...app.Option) *app.LabelService {
	t.Helper()
	engine := infra.NewTemplateEngine()
	renderer, err := infra.NewLabelRenderer(engine)
	require.NoError(t, err)
	builder, err := infra.NewDocumentBuilder(engine)
	require.NoError(t, err)

	opts = append([]app.Option{app.WithLogger(zaptest.NewLogger(t))}, opts...)
	return app.NewLabelService(labeling.NewFormatter(encoder), renderer, builder, opts...)
}

func products(n int) []labeling.ProductRecord {
	out := make([]labeling.ProductRecord, n)
	for i := range out {
		out[i] = labeling.ProductRecord{
			ID:    uuid.NewString()[:8],
			Name:  "Product",
			Price: decimal.RequireFromString("10.50"),
		}
	}
	return out
}

func printRequest(t *testing.T, id labeling.FormatID, items []labeling.ProductRecord) app.PrintRequest {
	t.Helper()
	format, err := labeling.FormatByID(id)
	require.NoError(t, err)
	return app.PrintRequest{
		Products: items,
		Options:  labeling.DefaultLabelOptions(),
		Format:   format,
		Title:    "Weekly specials",
	}
}

func waitDispatch(t *testing.T, svc *app.LabelService) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, svc.Wait(ctx))
}

// =============================================================================
// Print
// =============================================================================

func TestLabelService_Print_NoProducts(t *testing.T) {
	surface := new(MockPrintSurface)
	svc := newService(t, nil, app.WithPrintSurface(surface))

	result := svc.Print(context.Background(), printRequest(t, labeling.FormatStandard30, nil))

	assert.False(t, result.Success)
	assert.Equal(t, "no products selected for label printing", result.Error)
	assert.Zero(t, result.LabelCount)
	assert.Empty(t, result.JobID)
	waitDispatch(t, svc)
	surface.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestLabelService_Print_Dispatches(t *testing.T) {
	surface := new(MockPrintSurface)
	var got *infra.Document
	surface.On("Dispatch", mock.Anything, mock.AnythingOfType("*printing.Document")).
		Run(func(args mock.Arguments) { got = args.Get(1).(*infra.Document) }).
		Return(nil).Once()

	svc := newService(t, barcode.NewEncoder(), app.WithPrintSurface(surface))

	items := products(2)
	req := printRequest(t, labeling.FormatStandard30, items)
	req.Quantities = labeling.QuantityMap{items[0].ID: 4}

	result := svc.Print(context.Background(), req)
	require.True(t, result.Success, result.Error)
	assert.Equal(t, 5, result.LabelCount)

	jobID, err := uuid.Parse(result.JobID)
	require.NoError(t, err)

	waitDispatch(t, svc)
	surface.AssertExpectations(t)
	require.NotNil(t, got)
	assert.Equal(t, jobID, got.JobID)
	assert.Equal(t, 5, got.LabelCount)
	assert.Equal(t, 1, got.PageCount)
	assert.Equal(t, "Weekly specials", got.Title)
	assert.Contains(t, got.HTML, "<!DOCTYPE html>")
}

func TestLabelService_Print_DispatchOutlivesRequestContext(t *testing.T) {
	surface := new(MockPrintSurface)
	release := make(chan struct{})
	var dispatchErr error
	surface.On("Dispatch", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-release
			dispatchErr = args.Get(0).(context.Context).Err()
		}).
		Return(nil).Once()

	svc := newService(t, nil, app.WithPrintSurface(surface))

	ctx, cancel := context.WithCancel(context.Background())
	result := svc.Print(ctx, printRequest(t, labeling.FormatThermal78x25, products(1)))
	require.True(t, result.Success)

	cancel()
	close(release)
	waitDispatch(t, svc)

	assert.NoError(t, dispatchErr)
	surface.AssertExpectations(t)
}

func TestLabelService_Print_SurfaceFailureNotObserved(t *testing.T) {
	surface := new(MockPrintSurface)
	surface.On("Dispatch", mock.Anything, mock.Anything).Return(errors.New("printer on fire")).Once()

	svc := newService(t, nil, app.WithPrintSurface(surface))
	result := svc.Print(context.Background(), printRequest(t, labeling.FormatLarge10, products(3)))

	assert.True(t, result.Success)
	assert.Equal(t, 3, result.LabelCount)
	waitDispatch(t, svc)
	surface.AssertExpectations(t)
}

func TestLabelService_Print_SurfacePanicRecovered(t *testing.T) {
	surface := new(MockPrintSurface)
	surface.On("Dispatch", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { panic("driver crashed") }).
		Return(nil).Once()

	svc := newService(t, nil, app.WithPrintSurface(surface))
	result := svc.Print(context.Background(), printRequest(t, labeling.FormatShelf80, products(1)))

	assert.True(t, result.Success)
	waitDispatch(t, svc)
}

func TestLabelService_Print_PanicBecomesResult(t *testing.T) {
	surface := new(MockPrintSurface)
	svc := newService(t, panickingEncoder{}, app.WithPrintSurface(surface))

	result := svc.Print(context.Background(), printRequest(t, labeling.FormatStandard30, products(2)))

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "label generation failed")
	assert.Contains(t, result.Error, "encoder exploded")
	waitDispatch(t, svc)
	surface.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestLabelService_Print_InvalidFormat(t *testing.T) {
	surface := new(MockPrintSurface)
	svc := newService(t, nil, app.WithPrintSurface(surface))

	req := printRequest(t, labeling.FormatCustom, products(1))
	req.Format.LabelsPerRow = 0

	result := svc.Print(context.Background(), req)

	assert.False(t, result.Success)
	assert.Equal(t, "Labels per row must be at least 1", result.Error)
	surface.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestLabelService_Print_IdempotencyKey(t *testing.T) {
	surface := new(MockPrintSurface)
	surface.On("Dispatch", mock.Anything, mock.Anything).Return(nil).Once()

	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	svc := newService(t, nil, app.WithPrintSurface(surface), app.WithIdempotencyStore(store))

	req := printRequest(t, labeling.FormatStandard30, products(1))
	req.IdempotencyKey = "order-42-labels"

	first := svc.Print(context.Background(), req)
	require.True(t, first.Success)

	second := svc.Print(context.Background(), req)
	assert.False(t, second.Success)
	assert.Equal(t, "duplicate print request", second.Error)

	waitDispatch(t, svc)
	surface.AssertNumberOfCalls(t, "Dispatch", 1)
}

func TestLabelService_Print_TooManyLabels(t *testing.T) {
	surface := new(MockPrintSurface)
	defaults := app.DefaultDefaults()
	defaults.MaxLabels = 10
	svc := newService(t, nil, app.WithPrintSurface(surface), app.WithDefaults(defaults))

	items := products(2)
	tests := []struct {
		name       string
		quantities labeling.QuantityMap
	}{
		{name: "over ceiling", quantities: labeling.QuantityMap{items[0].ID: 10}},
		{name: "overflowing sum", quantities: labeling.QuantityMap{items[0].ID: 1 << 62, items[1].ID: 1 << 62}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := printRequest(t, labeling.FormatStandard30, items)
			req.Quantities = tt.quantities

			result := svc.Print(context.Background(), req)

			assert.False(t, result.Success)
			assert.Equal(t, "A document can hold at most 10 labels", result.Error)
		})
	}
	waitDispatch(t, svc)
	surface.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func counterValue(t *testing.T, reader *sdkmetric.ManualReader, name string, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	want := attribute.NewSet(attrs...)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				if dp.Attributes.Equals(&want) {
					return dp.Value
				}
			}
		}
	}
	return 0
}

func TestLabelService_Print_RecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	lm, err := telemetry.NewLabelMetrics(telemetry.NewMeterProviderWithReader(reader, nil).Meter("labeling"))
	require.NoError(t, err)

	surface := new(MockPrintSurface)
	surface.On("Dispatch", mock.Anything, mock.Anything).Return(nil)
	svc := newService(t, nil, app.WithPrintSurface(surface), app.WithMetrics(lm))

	items := products(2)
	req := printRequest(t, labeling.FormatLarge10, items)
	req.Quantities = labeling.QuantityMap{items[0].ID: 4}
	result := svc.Print(context.Background(), req)
	require.True(t, result.Success)
	waitDispatch(t, svc)

	svc.Print(context.Background(), printRequest(t, labeling.FormatLarge10, nil))

	_, err = svc.BuildDocument(context.Background(), printRequest(t, labeling.FormatLarge10, items))
	require.NoError(t, err)

	format := telemetry.AttrLabelFormat.String("LARGE_10")
	assert.Equal(t, int64(5), counterValue(t, reader, "labels_printed_total", format))
	assert.Equal(t, int64(1), counterValue(t, reader, "label_documents_total",
		format, telemetry.AttrLabelOperation.String(telemetry.LabelOpPrint)))
	assert.Equal(t, int64(1), counterValue(t, reader, "label_documents_total",
		format, telemetry.AttrLabelOperation.String(telemetry.LabelOpDocument)))
	assert.Equal(t, int64(1), counterValue(t, reader, "label_print_refused_total",
		telemetry.AttrLabelOutcome.String("no_products")))
}

// =============================================================================
// BuildDocument and Preview
// =============================================================================

func TestLabelService_BuildDocument(t *testing.T) {
	svc := newService(t, nil)

	tests := []struct {
		name       string
		format     labeling.FormatID
		count      int
		wantPages  int
		wantCells  int
		wantEmpty  int
		wantAtPage string
	}{
		{name: "standard sheet spills to second page", format: labeling.FormatStandard30, count: 31, wantPages: 2, wantCells: 33, wantEmpty: 2, wantAtPage: "size: letter"},
		{name: "thermal roll one label per page", format: labeling.FormatThermal78x25, count: 3, wantPages: 3, wantCells: 3, wantEmpty: 0, wantAtPage: "size: 78mm 25mm"},
		{name: "large sheet half row padded", format: labeling.FormatLarge10, count: 3, wantPages: 1, wantCells: 4, wantEmpty: 1, wantAtPage: "size: letter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := svc.BuildDocument(context.Background(), printRequest(t, tt.format, products(tt.count)))
			require.NoError(t, err)

			assert.Equal(t, tt.count, doc.LabelCount)
			assert.Equal(t, tt.wantPages, doc.PageCount)
			assert.Equal(t, uuid.Nil, doc.JobID)
			assert.Equal(t, tt.wantPages, strings.Count(doc.HTML, `<section class="page">`))
			assert.Equal(t, tt.wantCells, strings.Count(doc.HTML, `class="label-cell`))
			assert.Equal(t, tt.wantEmpty, strings.Count(doc.HTML, `<div class="label-cell empty"></div>`))
			assert.Contains(t, doc.HTML, tt.wantAtPage)
		})
	}
}

func TestLabelService_BuildDocument_TooManyLabels(t *testing.T) {
	svc := newService(t, nil)

	items := products(1)
	req := printRequest(t, labeling.FormatStandard30, items)
	req.Quantities = labeling.QuantityMap{items[0].ID: labeling.DefaultMaxLabels + 1}

	_, err := svc.BuildDocument(context.Background(), req)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "TOO_MANY_LABELS", domainErr.Code)

	req.Quantities = labeling.QuantityMap{items[0].ID: 40}
	doc, err := svc.BuildDocument(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 40, doc.LabelCount)
}

func TestLabelService_BuildDocument_PanicReturnsError(t *testing.T) {
	svc := newService(t, panickingEncoder{})

	_, err := svc.BuildDocument(context.Background(), printRequest(t, labeling.FormatStandard30, products(1)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encoder exploded")
}

func TestLabelService_Preview(t *testing.T) {
	svc := newService(t, barcode.NewEncoder())
	format, err := labeling.FormatByID(labeling.FormatStandard30)
	require.NoError(t, err)

	product := labeling.ProductRecord{
		ID:      "42",
		Name:    "Fish & Chips <large>",
		Price:   decimal.RequireFromString("89.9"),
		Barcode: "5901234123457",
	}

	html, err := svc.Preview(context.Background(), product, labeling.DefaultLabelOptions(), format)
	require.NoError(t, err)

	assert.Contains(t, html, `class="label-preview layout-grid"`)
	assert.Contains(t, html, "<style>")
	assert.Contains(t, html, "R89.90")
	assert.Contains(t, html, "Fish &amp; Chips &lt;large&gt;")
	assert.Contains(t, html, "data:image/png;base64,")
	assert.NotContains(t, html, "<!DOCTYPE html>")
}

func TestLabelService_Preview_PanicReturnsError(t *testing.T) {
	svc := newService(t, panickingEncoder{})
	format, err := labeling.FormatByID(labeling.FormatThermal78x25)
	require.NoError(t, err)

	_, err = svc.Preview(context.Background(), labeling.ProductRecord{ID: "1"}, labeling.DefaultLabelOptions(), format)
	require.Error(t, err)
}

// =============================================================================
// Jobs and catalogue
// =============================================================================

func TestLabelService_Formats(t *testing.T) {
	formats := newService(t, nil).Formats()
	require.Len(t, formats, 5)
	assert.Equal(t, "THERMAL_78X25", formats[0].ID)
	assert.Equal(t, 30, formats[1].LabelsPerPage)
}

func TestLabelService_GetJob(t *testing.T) {
	t.Run("without repository", func(t *testing.T) {
		_, err := newService(t, nil).GetJob(context.Background(), uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("found and missing", func(t *testing.T) {
		repo := &memoryJobRepository{}
		job, err := labeling.NewLabelJob(labeling.FormatShelf80, "Shelf tags", 80, 1)
		require.NoError(t, err)
		require.NoError(t, repo.Save(context.Background(), job))

		svc := newService(t, nil, app.WithJobRepository(repo))

		got, err := svc.GetJob(context.Background(), job.ID)
		require.NoError(t, err)
		assert.Equal(t, job.ID.String(), got.ID)
		assert.Equal(t, "PENDING", got.Status)

		_, err = svc.GetJob(context.Background(), uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)

		list, err := svc.ListJobs(context.Background(), 10)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}

func TestLabelService_ListJobs_NoRepository(t *testing.T) {
	list, err := newService(t, nil).ListJobs(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}
