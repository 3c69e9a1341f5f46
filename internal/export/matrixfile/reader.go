package matrixfile

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"os"
	"sort"

	apperrors "github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/errors"
)

const stage = "matrixfile"

type Reader struct {
	file   *os.File
	header Header
	dict   Dictionary
}

// Open validates the header, footer checksum and dictionary of path.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening matrix file: %w", err)
	}
	r, err := open(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

func open(f *os.File) (*Reader, error) {
	headerBytes := make([]byte, HeaderSize)
	if _, err := f.ReadAt(headerBytes, 0); err != nil {
		return nil, apperrors.DataFormat(stage, 0, "reading header: %v", err)
	}
	header := Header{
		Magic:      binary.LittleEndian.Uint32(headerBytes[0:4]),
		Version:    binary.LittleEndian.Uint32(headerBytes[4:8]),
		TermCount:  binary.LittleEndian.Uint32(headerBytes[8:12]),
		DocCount:   binary.LittleEndian.Uint32(headerBytes[12:16]),
		CreatedAt:  int64(binary.LittleEndian.Uint64(headerBytes[16:24])),
		DictOffset: int64(binary.LittleEndian.Uint64(headerBytes[24:32])),
		DictSize:   int64(binary.LittleEndian.Uint64(headerBytes[32:40])),
		RowsOffset: int64(binary.LittleEndian.Uint64(headerBytes[40:48])),
		RowsSize:   int64(binary.LittleEndian.Uint64(headerBytes[48:56])),
	}
	if header.Magic != MagicBytes {
		return nil, apperrors.DataFormat(stage, 0, "bad magic bytes %x", header.Magic)
	}
	if header.Version != FormatVersion {
		return nil, apperrors.DataFormat(stage, 0, "unsupported version %d", header.Version)
	}

	footer := make([]byte, FooterSize)
	if _, err := f.ReadAt(footer, header.DictOffset+header.DictSize); err != nil {
		return nil, apperrors.DataFormat(stage, 0, "reading footer: %v", err)
	}
	crc := crc32.NewIEEE()
	body := io.NewSectionReader(f, header.RowsOffset, header.RowsSize+header.DictSize)
	if _, err := io.Copy(crc, body); err != nil {
		return nil, fmt.Errorf("checksumming matrix file: %w", err)
	}
	if want := binary.LittleEndian.Uint32(footer[0:4]); crc.Sum32() != want {
		return nil, apperrors.DataFormat(stage, int(header.DocCount), "checksum mismatch: got %08x, want %08x", crc.Sum32(), want)
	}

	dictBytes := make([]byte, header.DictSize)
	if _, err := f.ReadAt(dictBytes, header.DictOffset); err != nil {
		return nil, apperrors.DataFormat(stage, 0, "reading dictionary: %v", err)
	}
	var dict Dictionary
	if err := json.Unmarshal(dictBytes, &dict); err != nil {
		return nil, apperrors.DataFormat(stage, 0, "parsing dictionary: %v", err)
	}
	if len(dict.Terms) != int(header.TermCount) || len(dict.Rows) != int(header.DocCount) {
		return nil, apperrors.DataFormat(stage, len(dict.Rows), "dictionary disagrees with header")
	}
	return &Reader{file: f, header: header, dict: dict}, nil
}

// Row reads doc's record. ok is false when doc is not in the file.
func (r *Reader) Row(doc int) (row Row, ok bool, err error) {
	idx := sort.Search(len(r.dict.Rows), func(i int) bool {
		return r.dict.Rows[i].Doc >= doc
	})
	if idx >= len(r.dict.Rows) || r.dict.Rows[idx].Doc != doc {
		return Row{}, false, nil
	}
	entry := r.dict.Rows[idx]
	b := make([]byte, entry.Len)
	if _, err := r.file.ReadAt(b, r.header.RowsOffset+entry.Offset); err != nil {
		return Row{}, false, fmt.Errorf("reading row for document %d: %w", doc, err)
	}
	row, err = decodeRow(b)
	if err != nil {
		return Row{}, false, err
	}
	return row, true, nil
}

// Vector returns doc's dense feature vector in column order.
func (r *Reader) Vector(doc int) ([]float64, bool, error) {
	row, ok, err := r.Row(doc)
	if !ok || err != nil {
		return nil, ok, err
	}
	vec := make([]float64, len(r.dict.Terms))
	for i, col := range row.Columns {
		vec[col] = row.Weights[i]
	}
	return vec, true, nil
}

func decodeRow(b []byte) (Row, error) {
	if len(b) < rowPrefix {
		return Row{}, apperrors.DataFormat(stage, 0, "row record truncated")
	}
	n := int(binary.LittleEndian.Uint32(b[16:20]))
	if len(b) != rowPrefix+n*cellSize {
		return Row{}, apperrors.DataFormat(stage, 0, "row record has %d bytes, want %d", len(b), rowPrefix+n*cellSize)
	}
	row := Row{
		Doc:     int(int64(binary.LittleEndian.Uint64(b[0:8]))),
		Target:  math.Float64frombits(binary.LittleEndian.Uint64(b[8:16])),
		Columns: make([]int, n),
		Weights: make([]float64, n),
	}
	pos := rowPrefix
	for i := 0; i < n; i++ {
		row.Columns[i] = int(binary.LittleEndian.Uint32(b[pos : pos+4]))
		row.Weights[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[pos+4 : pos+12]))
		pos += cellSize
	}
	return row, nil
}

func (r *Reader) Terms() []string { return r.dict.Terms }

func (r *Reader) RunID() string { return r.dict.RunID }

// DocIDs returns the documents in row order.
func (r *Reader) DocIDs() []int {
	docs := make([]int, len(r.dict.Rows))
	for i, e := range r.dict.Rows {
		docs[i] = e.Doc
	}
	return docs
}

func (r *Reader) DocCount() uint32 {
	return r.header.DocCount
}

func (r *Reader) Close() error {
	return r.file.Close()
}
