// Package loader reads delimited beer-review files, drops incomplete rows,
// maps the 19 source columns onto the canonical schema, filters by
// alcohol-by-volume and draws a seeded fixed-size sample.
package loader

// Columns is the canonical schema, in source order. Source headers are
// ignored beyond their count; position decides the field.
var Columns = [...]string{
	"index",
	"abv",
	"beer_id",
	"brewer_id",
	"beer_name",
	"beer_style",
	"appearance",
	"aroma",
	"overall",
	"palate",
	"taste",
	"text",
	"time_struct",
	"time_unix",
	"age_seconds",
	"birthday_raw",
	"birthday_unix",
	"gender",
	"profile_name",
}

const (
	colIndex = iota
	colABV
	colBeerID
	colBrewerID
	colBeerName
	colBeerStyle
	colAppearance
	colAroma
	colOverall
	colPalate
	colTaste
	colText
	colTimeStruct
	colTimeUnix
	colAgeSeconds
	colBirthdayRaw
	colBirthdayUnix
	colGender
	colProfileName
)

// Review is one cleaned review record.
type Review struct {
	Index        int     `json:"index"`
	ABV          float64 `json:"abv"`
	BeerID       int     `json:"beer_id"`
	BrewerID     int     `json:"brewer_id"`
	BeerName     string  `json:"beer_name"`
	BeerStyle    string  `json:"beer_style"`
	Appearance   float64 `json:"appearance"`
	Aroma        float64 `json:"aroma"`
	Overall      float64 `json:"overall"`
	Palate       float64 `json:"palate"`
	Taste        float64 `json:"taste"`
	Text         string  `json:"text"`
	TimeStruct   string  `json:"time_struct"`
	TimeUnix     int64   `json:"time_unix"`
	AgeSeconds   float64 `json:"age_seconds"`
	BirthdayRaw  string  `json:"birthday_raw"`
	BirthdayUnix int64   `json:"birthday_unix"`
	Gender       string  `json:"gender"`
	ProfileName  string  `json:"profile_name"`
}

// Aspects returns the five aspect scores in a fixed order: appearance,
// aroma, overall, palate, taste.
func (r Review) Aspects() [5]float64 {
	return [5]float64{r.Appearance, r.Aroma, r.Overall, r.Palate, r.Taste}
}

// AspectNames labels the values returned by Review.Aspects.
var AspectNames = [5]string{"appearance", "aroma", "overall", "palate", "taste"}

// Stats counts records surviving each cleaning step.
type Stats struct {
	InputRows    int `json:"input_rows"`
	CompleteRows int `json:"complete_rows"`
	AboveMinABV  int `json:"above_min_abv"`
	Sampled      int `json:"sampled"`
}
