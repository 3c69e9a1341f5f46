package features

import (
	"sort"

	apperrors "github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// MetaRow is one document's metadata: its index and the regression target.
type MetaRow struct {
	Doc    int     `json:"doc"`
	Target float64 `json:"target"`
}

// Metadata maps document index to target. The first row seen for an index
// wins; later duplicates are counted and dropped.
type Metadata struct {
	targets    map[int]float64
	duplicates int
}

// NewMetadata builds a deduplicated metadata table.
func NewMetadata(rows []MetaRow) *Metadata {
	m := &Metadata{targets: make(map[int]float64, len(rows))}
	for _, r := range rows {
		if _, ok := m.targets[r.Doc]; ok {
			m.duplicates++
			continue
		}
		m.targets[r.Doc] = r.Target
	}
	return m
}

// Target returns the target for doc.
func (m *Metadata) Target(doc int) (float64, bool) {
	v, ok := m.targets[doc]
	return v, ok
}

func (m *Metadata) Len() int {
	return len(m.targets)
}

// Duplicates is the number of rows dropped because their index repeated.
func (m *Metadata) Duplicates() int {
	return m.duplicates
}

// Docs returns the document indices in ascending order.
func (m *Metadata) Docs() []int {
	docs := make([]int, 0, len(m.targets))
	for doc := range m.targets {
		docs = append(docs, doc)
	}
	sort.Ints(docs)
	return docs
}

// Targets returns a copy of the doc → target mapping.
func (m *Metadata) Targets() map[int]float64 {
	out := make(map[int]float64, len(m.targets))
	for doc, v := range m.targets {
		out[doc] = v
	}
	return out
}

// Vector returns the targets of docs, in the order given. A doc without
// metadata is an alignment error.
func (m *Metadata) Vector(docs []int) (*mat.VecDense, error) {
	if len(docs) == 0 {
		return nil, apperrors.EmptyResult("matrix", 0, "no documents to align")
	}
	data := make([]float64, len(docs))
	for i, doc := range docs {
		v, ok := m.targets[doc]
		if !ok {
			return nil, apperrors.Alignment("matrix", len(docs), "document %d has no metadata row", doc)
		}
		data[i] = v
	}
	return mat.NewVecDense(len(docs), data), nil
}

// Subset returns metadata restricted to docs.
func (m *Metadata) Subset(docs []int) *Metadata {
	out := &Metadata{targets: make(map[int]float64, len(docs))}
	for _, doc := range docs {
		if v, ok := m.targets[doc]; ok {
			out.targets[doc] = v
		}
	}
	return out
}

// Matrix is a sparse document × term matrix keyed by document index. Row i
// is the i-th smallest document index and column j the j-th vocabulary term.
// It satisfies mat.Matrix so it can be handed to gonum directly.
type Matrix struct {
	docs  []int
	rowOf map[int]int
	terms []string
	colOf map[string]int
	cells map[int]map[int]float64
	nnz   int
}

var _ mat.Matrix = (*Matrix)(nil)

// BuildMatrix pivots weighted entries into a Matrix with one column per
// vocabulary term and returns it with the metadata restricted to its rows.
// Missing (document, term) cells read as zero. Every matrix document must
// have a metadata row.
func BuildMatrix(entries []Entry, vocab *Vocabulary, meta *Metadata) (*Matrix, *Metadata, error) {
	if len(entries) == 0 {
		return nil, nil, apperrors.EmptyResult("matrix", 0, "no weighted entries")
	}
	m := &Matrix{
		rowOf: make(map[int]int),
		terms: vocab.Terms(),
		colOf: make(map[string]int, vocab.Len()),
		cells: make(map[int]map[int]float64),
	}
	for j, term := range m.terms {
		m.colOf[term] = j
	}
	for _, e := range entries {
		col, ok := m.colOf[e.Token]
		if !ok {
			continue
		}
		row, ok := m.cells[e.Doc]
		if !ok {
			row = make(map[int]float64)
			m.cells[e.Doc] = row
			m.docs = append(m.docs, e.Doc)
		}
		if _, seen := row[col]; !seen {
			m.nnz++
		}
		row[col] = e.TFIDF
	}
	sort.Ints(m.docs)
	for i, doc := range m.docs {
		m.rowOf[doc] = i
	}

	for _, doc := range m.docs {
		if _, ok := meta.Target(doc); !ok {
			return nil, nil, apperrors.Alignment("matrix", len(m.docs), "document %d has no metadata row", doc)
		}
	}
	return m, meta.Subset(m.docs), nil
}

// Dims returns the number of documents and terms.
func (m *Matrix) Dims() (r, c int) {
	return len(m.docs), len(m.terms)
}

// At returns the weight at row i, column j.
func (m *Matrix) At(i, j int) float64 {
	if i < 0 || i >= len(m.docs) {
		panic(mat.ErrRowAccess)
	}
	if j < 0 || j >= len(m.terms) {
		panic(mat.ErrColAccess)
	}
	return m.cells[m.docs[i]][j]
}

// T returns the implicit transpose.
func (m *Matrix) T() mat.Matrix {
	return mat.Transpose{Matrix: m}
}

// DocIDs returns the document index of each row. The slice must not be
// modified.
func (m *Matrix) DocIDs() []int {
	return m.docs
}

// Terms returns the term of each column. The slice must not be modified.
func (m *Matrix) Terms() []string {
	return m.terms
}

// RowOf returns the row position of doc.
func (m *Matrix) RowOf(doc int) (int, bool) {
	i, ok := m.rowOf[doc]
	return i, ok
}

// Value returns the weight of term in doc, zero when absent.
func (m *Matrix) Value(doc int, term string) float64 {
	col, ok := m.colOf[term]
	if !ok {
		return 0
	}
	return m.cells[doc][col]
}

// Row returns doc's non-zero-stored cells keyed by term.
func (m *Matrix) Row(doc int) (map[string]float64, bool) {
	cells, ok := m.cells[doc]
	if !ok {
		return nil, false
	}
	out := make(map[string]float64, len(cells))
	for col, v := range cells {
		out[m.terms[col]] = v
	}
	return out, true
}

// RowVector returns doc's dense feature vector in column order.
func (m *Matrix) RowVector(doc int) ([]float64, bool) {
	cells, ok := m.cells[doc]
	if !ok {
		return nil, false
	}
	v := make([]float64, len(m.terms))
	for col, w := range cells {
		v[col] = w
	}
	return v, true
}

// NNZ is the number of stored cells.
func (m *Matrix) NNZ() int {
	return m.nnz
}

// Dense copies the rows for docs, in the order given, into a dense matrix.
// Nil docs means every row in matrix order.
func (m *Matrix) Dense(docs []int) (*mat.Dense, error) {
	if docs == nil {
		docs = m.docs
	}
	if len(docs) == 0 || len(m.terms) == 0 {
		return nil, apperrors.EmptyResult("matrix", len(docs), "cannot build an empty dense matrix")
	}
	d := mat.NewDense(len(docs), len(m.terms), nil)
	for i, doc := range docs {
		cells, ok := m.cells[doc]
		if !ok {
			return nil, apperrors.Alignment("matrix", len(docs), "document %d is not a matrix row", doc)
		}
		for col, w := range cells {
			d.Set(i, col, w)
		}
	}
	return d, nil
}
