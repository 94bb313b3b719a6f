package labeling

// Cell is one slot on a sheet. Empty cells pad the final row.
type Cell[T any] struct {
	Label T
	Empty bool
}

// Row is one horizontal run of cells, always LabelsPerRow wide
type Row[T any] []Cell[T]

// ComposedSheet is a sequence of labels laid out in rows for a format
type ComposedSheet[T any] struct {
	format LabelFormat
	rows   []Row[T]
	count  int
}

// Compose arranges labels into rows of format.LabelsPerRow cells.
// The last row is padded with empty cells; no labels gives no rows.
func Compose[T any](labels []T, format LabelFormat) ComposedSheet[T] {
	perRow := max(format.LabelsPerRow, 1)
	rows := make([]Row[T], 0, (len(labels)+perRow-1)/perRow)

	for start := 0; start < len(labels); start += perRow {
		row := make(Row[T], perRow)
		end := min(start+perRow, len(labels))
		for i := start; i < end; i++ {
			row[i-start] = Cell[T]{Label: labels[i]}
		}
		for i := end - start; i < perRow; i++ {
			row[i] = Cell[T]{Empty: true}
		}
		rows = append(rows, row)
	}

	return ComposedSheet[T]{format: format, rows: rows, count: len(labels)}
}

// Format returns the format the sheet was composed for
func (s ComposedSheet[T]) Format() LabelFormat {
	return s.format
}

// Rows returns every row in order
func (s ComposedSheet[T]) Rows() []Row[T] {
	return s.rows
}

// LabelCount returns the number of non-empty cells
func (s ComposedSheet[T]) LabelCount() int {
	return s.count
}

// Pages groups rows by format.RowsPerPage
func (s ComposedSheet[T]) Pages() [][]Row[T] {
	perPage := max(s.format.RowsPerPage, 1)
	pages := make([][]Row[T], 0, s.PageCount())
	for start := 0; start < len(s.rows); start += perPage {
		pages = append(pages, s.rows[start:min(start+perPage, len(s.rows))])
	}
	return pages
}

// PageCount returns the number of pages the sheet spans
func (s ComposedSheet[T]) PageCount() int {
	perPage := max(s.format.RowsPerPage, 1)
	return (len(s.rows) + perPage - 1) / perPage
}

// Map renders each label, keeping the layout intact
func Map[T, U any](s ComposedSheet[T], fn func(T) (U, error)) (ComposedSheet[U], error) {
	rows := make([]Row[U], len(s.rows))
	for r, row := range s.rows {
		out := make(Row[U], len(row))
		for c, cell := range row {
			if cell.Empty {
				out[c] = Cell[U]{Empty: true}
				continue
			}
			v, err := fn(cell.Label)
			if err != nil {
				return ComposedSheet[U]{}, err
			}
			out[c] = Cell[U]{Label: v}
		}
		rows[r] = out
	}
	return ComposedSheet[U]{format: s.format, rows: rows, count: s.count}, nil
}
