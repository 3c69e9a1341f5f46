package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/logger"
)

const stage = "loader"

// Options controls cleaning. Seed is the only source of randomness.
type Options struct {
	Delimiter  rune
	MinABV     float64
	SampleSize int
	Seed       uint64
}

// Table is the raw delimited input: a header plus rows of exactly
// len(Columns) fields.
type Table struct {
	Header []string
	Rows   [][]string
}

// Read parses delimited input and checks every record has the canonical
// column count.
func Read(r io.Reader, delimiter rune) (*Table, error) {
	cr := csv.NewReader(r)
	if delimiter != 0 {
		cr.Comma = delimiter
	}
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.DataFormat(stage, 0, "input is empty")
		}
		return nil, apperrors.DataFormat(stage, 0, "reading header: %v", err)
	}
	if len(header) != len(Columns) {
		return nil, apperrors.DataFormat(stage, 0, "expected %d columns, header has %d", len(Columns), len(header))
	}
	cr.FieldsPerRecord = len(Columns)

	table := &Table{Header: header}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.DataFormat(stage, len(table.Rows), "reading row %d: %v", len(table.Rows)+1, err)
		}
		table.Rows = append(table.Rows, record)
	}
	return table, nil
}

// Clean drops incomplete rows, maps fields onto Review, keeps rows whose ABV
// exceeds MinABV and samples SampleSize of them. When fewer rows survive the
// ABV filter than SampleSize, all of them are kept.
func Clean(table *Table, opts Options) ([]Review, Stats, error) {
	log := logger.WithComponent(stage)
	stats := Stats{InputRows: len(table.Rows)}

	complete := make([]Review, 0, len(table.Rows))
	for i, row := range table.Rows {
		if hasMissing(row) {
			continue
		}
		review, err := parseRow(row)
		if err != nil {
			return nil, stats, apperrors.DataFormat(stage, len(complete), "row %d: %v", i+1, err)
		}
		complete = append(complete, review)
	}
	stats.CompleteRows = len(complete)
	if len(complete) == 0 {
		return nil, stats, apperrors.EmptyResult(stage, stats.InputRows, "no complete rows")
	}

	strong := complete[:0]
	for _, review := range complete {
		if review.ABV > opts.MinABV {
			strong = append(strong, review)
		}
	}
	stats.AboveMinABV = len(strong)
	if len(strong) == 0 {
		return nil, stats, apperrors.EmptyResult(stage, stats.CompleteRows, "no rows with abv > %.2f", opts.MinABV)
	}

	sampled := Sample(strong, opts.SampleSize, opts.Seed)
	stats.Sampled = len(sampled)
	log.Info("reviews cleaned",
		"input_rows", stats.InputRows,
		"complete_rows", stats.CompleteRows,
		"above_min_abv", stats.AboveMinABV,
		"sampled", stats.Sampled,
	)
	return sampled, stats, nil
}

// Sample draws n reviews without replacement using a PCG source seeded with
// seed, and returns them ordered by Index. The input slice is not modified.
func Sample(reviews []Review, n int, seed uint64) []Review {
	pool := make([]Review, len(reviews))
	copy(pool, reviews)
	if n >= len(pool) {
		sortByIndex(pool)
		return pool
	}
	rng := rand.New(rand.NewPCG(seed, seed))
	for i := 0; i < n; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	sampled := pool[:n:n]
	sortByIndex(sampled)
	return sampled
}

// Load reads and cleans the file at path.
func Load(ctx context.Context, path string, opts Options) ([]Review, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("opening review file: %w", err)
	}
	defer f.Close()

	table, err := Read(f, opts.Delimiter)
	if err != nil {
		return nil, Stats{}, err
	}
	if err := ctx.Err(); err != nil {
		return nil, Stats{}, err
	}
	return Clean(table, opts)
}

func sortByIndex(reviews []Review) {
	sort.SliceStable(reviews, func(i, j int) bool {
		return reviews[i].Index < reviews[j].Index
	})
}

func hasMissing(row []string) bool {
	for _, field := range row {
		v := strings.TrimSpace(field)
		if v == "" || v == "NA" {
			return true
		}
	}
	return false
}

// fieldParser accumulates the first conversion error so parseRow reads as a
// flat list of assignments.
type fieldParser struct {
	row []string
	err error
}

func (p *fieldParser) str(col int) string {
	return strings.TrimSpace(p.row[col])
}

func (p *fieldParser) integer(col int) int {
	if p.err != nil {
		return 0
	}
	v, err := strconv.Atoi(p.str(col))
	if err != nil {
		p.err = fmt.Errorf("column %s: %w", Columns[col], err)
	}
	return v
}

func (p *fieldParser) unix(col int) int64 {
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseInt(p.str(col), 10, 64)
	if err != nil {
		// Some exports write unix seconds as floats.
		f, ferr := strconv.ParseFloat(p.str(col), 64)
		if ferr != nil {
			p.err = fmt.Errorf("column %s: %w", Columns[col], err)
			return 0
		}
		return int64(f)
	}
	return v
}

func (p *fieldParser) number(col int) float64 {
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(p.str(col), 64)
	if err != nil {
		p.err = fmt.Errorf("column %s: %w", Columns[col], err)
	}
	return v
}

func parseRow(row []string) (Review, error) {
	p := &fieldParser{row: row}
	r := Review{
		Index:        p.integer(colIndex),
		ABV:          p.number(colABV),
		BeerID:       p.integer(colBeerID),
		BrewerID:     p.integer(colBrewerID),
		BeerName:     p.str(colBeerName),
		BeerStyle:    p.str(colBeerStyle),
		Appearance:   p.number(colAppearance),
		Aroma:        p.number(colAroma),
		Overall:      p.number(colOverall),
		Palate:       p.number(colPalate),
		Taste:        p.number(colTaste),
		Text:         row[colText],
		TimeStruct:   p.str(colTimeStruct),
		TimeUnix:     p.unix(colTimeUnix),
		AgeSeconds:   p.number(colAgeSeconds),
		BirthdayRaw:  p.str(colBirthdayRaw),
		BirthdayUnix: p.unix(colBirthdayUnix),
		Gender:       p.str(colGender),
		ProfileName:  p.str(colProfileName),
	}
	return r, p.err
}
