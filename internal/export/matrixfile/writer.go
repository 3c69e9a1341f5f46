package matrixfile

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/internal/features"
)

// Writer creates snapshot files in a directory.
type Writer struct {
	dataDir string
}

func NewWriter(dataDir string) *Writer {
	return &Writer{dataDir: dataDir}
}

// Write atomically creates name (the extension is added if missing) with
// every row of m and its target from meta. It writes to a .tmp file first
// and renames on success.
func (w *Writer) Write(name, runID string, m *features.Matrix, meta *features.Metadata) (string, error) {
	docs := m.DocIDs()
	if len(docs) == 0 {
		return "", fmt.Errorf("cannot write empty matrix")
	}
	if !strings.HasSuffix(name, Extension) {
		name += Extension
	}
	finalPath := filepath.Join(w.dataDir, name)
	tmpPath := finalPath + ".tmp"

	if err := os.MkdirAll(w.dataDir, 0o755); err != nil {
		return "", fmt.Errorf("creating matrix directory: %w", err)
	}
	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("creating temp matrix file: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			f.Close()
			os.Remove(tmpPath)
		}
	}()

	header := Header{
		Magic:      MagicBytes,
		Version:    FormatVersion,
		TermCount:  uint32(len(m.Terms())),
		DocCount:   uint32(len(docs)),
		CreatedAt:  time.Now().Unix(),
		RowsOffset: int64(HeaderSize),
	}
	if _, err := f.Write(make([]byte, HeaderSize)); err != nil {
		return "", fmt.Errorf("reserving header: %w", err)
	}

	crc := crc32.NewIEEE()
	bw := bufio.NewWriter(io.MultiWriter(f, crc))
	dict := Dictionary{RunID: runID, Terms: m.Terms(), Rows: make([]RowEntry, 0, len(docs))}

	var offset int64
	for _, doc := range docs {
		target, ok := meta.Target(doc)
		if !ok {
			return "", fmt.Errorf("document %d has no target", doc)
		}
		vec, _ := m.RowVector(doc)
		record := encodeRow(doc, target, vec)
		if _, err := bw.Write(record); err != nil {
			return "", fmt.Errorf("writing row for document %d: %w", doc, err)
		}
		dict.Rows = append(dict.Rows, RowEntry{Doc: doc, Offset: offset, Len: len(record)})
		offset += int64(len(record))
	}
	header.RowsSize = offset
	header.DictOffset = header.RowsOffset + offset

	dictData, err := json.Marshal(dict)
	if err != nil {
		return "", fmt.Errorf("marshaling dictionary: %w", err)
	}
	if _, err := bw.Write(dictData); err != nil {
		return "", fmt.Errorf("writing dictionary: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return "", fmt.Errorf("flushing matrix file: %w", err)
	}
	header.DictSize = int64(len(dictData))

	footer := make([]byte, FooterSize)
	binary.LittleEndian.PutUint32(footer[0:4], crc.Sum32())
	binary.LittleEndian.PutUint32(footer[4:8], header.DocCount)
	binary.LittleEndian.PutUint64(footer[8:16], uint64(header.DictOffset))
	binary.LittleEndian.PutUint64(footer[16:24], uint64(header.DictSize))
	binary.LittleEndian.PutUint64(footer[24:32], uint64(header.RowsSize))
	if _, err := f.Write(footer); err != nil {
		return "", fmt.Errorf("writing footer: %w", err)
	}
	if _, err := f.WriteAt(encodeHeader(header), 0); err != nil {
		return "", fmt.Errorf("updating header: %w", err)
	}
	if err := f.Sync(); err != nil {
		return "", fmt.Errorf("syncing matrix file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing matrix file: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return "", fmt.Errorf("renaming matrix file: %w", err)
	}
	committed = true
	return finalPath, nil
}

func encodeHeader(h Header) []byte {
	b := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(b[0:4], h.Magic)
	binary.LittleEndian.PutUint32(b[4:8], h.Version)
	binary.LittleEndian.PutUint32(b[8:12], h.TermCount)
	binary.LittleEndian.PutUint32(b[12:16], h.DocCount)
	binary.LittleEndian.PutUint64(b[16:24], uint64(h.CreatedAt))
	binary.LittleEndian.PutUint64(b[24:32], uint64(h.DictOffset))
	binary.LittleEndian.PutUint64(b[32:40], uint64(h.DictSize))
	binary.LittleEndian.PutUint64(b[40:48], uint64(h.RowsOffset))
	binary.LittleEndian.PutUint64(b[48:56], uint64(h.RowsSize))
	return b
}

// encodeRow writes only non-zero weights.
func encodeRow(doc int, target float64, vec []float64) []byte {
	n := 0
	for _, v := range vec {
		if v != 0 {
			n++
		}
	}
	b := make([]byte, rowPrefix+n*cellSize)
	binary.LittleEndian.PutUint64(b[0:8], uint64(int64(doc)))
	binary.LittleEndian.PutUint64(b[8:16], math.Float64bits(target))
	binary.LittleEndian.PutUint32(b[16:20], uint32(n))
	pos := rowPrefix
	for col, v := range vec {
		if v == 0 {
			continue
		}
		binary.LittleEndian.PutUint32(b[pos:pos+4], uint32(col))
		binary.LittleEndian.PutUint64(b[pos+4:pos+12], math.Float64bits(v))
		pos += cellSize
	}
	return b
}
