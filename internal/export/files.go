package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/internal/export/matrixfile"
)

// CSVSink writes the long-form weighted table to Path and the per-document
// targets and split labels next to it as <name>_metadata.csv.
type CSVSink struct {
	Path string
}

func (s *CSVSink) Name() string { return "csv" }

// MetadataPath returns where the metadata table is written.
func (s *CSVSink) MetadataPath() string {
	ext := filepath.Ext(s.Path)
	return strings.TrimSuffix(s.Path, ext) + "_metadata" + ext
}

func (s *CSVSink) Export(ctx context.Context, snap *Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	err := writeCSV(s.Path, []string{"doc", "term", "n", "tf", "idf", "tf_idf"}, func(w *csv.Writer) error {
		for _, e := range snap.Entries {
			if err := w.Write([]string{
				strconv.Itoa(e.Doc),
				e.Token,
				strconv.Itoa(e.N),
				formatFloat(e.TF),
				formatFloat(e.IDF),
				formatFloat(e.TFIDF),
			}); err != nil {
				return err
			}
		}
		return ctx.Err()
	})
	if err != nil {
		return err
	}
	return writeCSV(s.MetadataPath(), []string{"doc", "target", "split"}, func(w *csv.Writer) error {
		for _, doc := range snap.Matrix.DocIDs() {
			target, _ := snap.Metadata.Target(doc)
			if err := w.Write([]string{strconv.Itoa(doc), formatFloat(target), snap.SplitOf(doc)}); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeCSV writes to a temp file and renames it into place.
func writeCSV(path string, header []string, body func(w *csv.Writer) error) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}
	w := csv.NewWriter(f)
	err = w.Write(header)
	if err == nil {
		err = body(w)
	}
	if err == nil {
		w.Flush()
		err = w.Error()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming %s: %w", tmp, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// MatrixFileSink writes the .btdm snapshot.
type MatrixFileSink struct {
	Dir  string
	File string

	// Written is the path of the last file written.
	Written string
}

func (s *MatrixFileSink) Name() string { return "matrixfile" }

func (s *MatrixFileSink) Export(_ context.Context, snap *Snapshot) error {
	name := s.File
	if name == "" {
		name = snap.RunID
	}
	path, err := matrixfile.NewWriter(s.Dir).Write(name, snap.RunID, snap.Matrix, snap.Metadata)
	if err != nil {
		return err
	}
	s.Written = path
	return nil
}
