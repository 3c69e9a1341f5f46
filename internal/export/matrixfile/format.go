// Package matrixfile reads and writes .btdm snapshots of a document-term
// matrix.
//
// Layout, little-endian:
//
//	header  64 bytes   magic, version, term/doc counts, created-at, offsets
//	rows    variable   per document: doc int64, target float64, n uint32,
//	                   then n × (column uint32, weight float64)
//	dict    variable   JSON: terms in column order and a row index
//	footer  32 bytes   CRC32 of rows+dict, doc count, dict offset/size, rows size
package matrixfile

const (
	MagicBytes    uint32 = 0x4D445442 // "BTDM"
	FormatVersion uint32 = 1
	HeaderSize    int    = 64
	FooterSize    int    = 32
	Extension            = ".btdm"
)

// Header is the fixed-size block at the start of every file.
type Header struct {
	Magic      uint32
	Version    uint32
	TermCount  uint32
	DocCount   uint32
	CreatedAt  int64
	DictOffset int64
	DictSize   int64
	RowsOffset int64
	RowsSize   int64
}

// Dictionary is the JSON section.
type Dictionary struct {
	RunID string     `json:"run"`
	Terms []string   `json:"terms"`
	Rows  []RowEntry `json:"rows"`
}

// RowEntry locates one document's record relative to the rows section.
type RowEntry struct {
	Doc    int   `json:"d"`
	Offset int64 `json:"o"`
	Len    int   `json:"l"`
}

// Row is one decoded document record.
type Row struct {
	Doc     int
	Target  float64
	Columns []int
	Weights []float64
}

const rowPrefix = 8 + 8 + 4
const cellSize = 4 + 8
