package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/internal/export/matrixfile"
	apperrors "github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reviewHeader = "index,beer/ABV,beer/beerId,beer/brewerId,beer/name,beer/style," +
	"review/appearance,review/aroma,review/overall,review/palate,review/taste,review/text," +
	"review/timeStruct,review/timeUnix,user/ageInSeconds,user/birthdayRaw,user/birthdayUnix," +
	"user/gender,user/profileName"

var texts = []string{
	"Hoppy and bitter with pine resin",
	"Malty sweet caramel, a hoppy finish",
	"Roasted malt and coffee, smooth",
	"Bitter citrus peel and pine",
}

// fixture writes a review file and a config pointing at it.
func fixture(t *testing.T) (configPath, outDir string) {
	t.Helper()
	dir := t.TempDir()
	var b strings.Builder
	b.WriteString(reviewHeader + "\n")
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, `%d,%.1f,1,2,Ale,IPA,%d,4,4,3,4,"%s",{},1234567890,100,"Jan 1, 1980",0,Male,u%d`+"\n",
			i, 4.0+float64(i%8)*0.5, 3+i%3, texts[i%len(texts)], i)
	}
	input := filepath.Join(dir, "reviews.csv")
	require.NoError(t, os.WriteFile(input, []byte(b.String()), 0o644))

	outDir = filepath.Join(dir, "out")
	yaml := fmt.Sprintf(`input:
  path: %s
vocabulary:
  minDocFreq: 5
output:
  dir: %s
  csv: features.csv
  matrixFile: features
logging:
  level: error
`, input, outDir)
	configPath = filepath.Join(dir, "pipeline.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(yaml), 0o644))
	return configPath, outDir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCmd_Definition(t *testing.T) {
	root := newRootCmd()
	assert.Equal(t, "beerfeat", root.Use)

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"run", "explore", "check"})

	flag := root.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, defaultConfigPath, flag.DefValue)
}

func TestRunCmd_JSON(t *testing.T) {
	configPath, outDir := fixture(t)

	out, err := execute(t, "run", "--config", configPath, "--run-id", "cli-run", "--json")
	require.NoError(t, err)

	var report runReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "cli-run", report.RunID)
	assert.Equal(t, 40, report.Documents)
	assert.Equal(t, report.Documents, report.Train+report.Test)
	assert.Equal(t, []string{"csv", "matrixfile"}, report.Sinks)

	assert.FileExists(t, filepath.Join(outDir, "features.csv"))
	assert.FileExists(t, filepath.Join(outDir, "features_metadata.csv"))
	r, err := matrixfile.Open(filepath.Join(outDir, "features.btdm"))
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, "cli-run", r.RunID())
}

func TestRunCmd_Table(t *testing.T) {
	configPath, _ := fixture(t)
	out, err := execute(t, "run", "-c", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "STAGE")
	assert.Contains(t, out, "vocabulary")
	assert.Contains(t, out, "exported to: [csv matrixfile]")
}

func TestRunCmd_EmptyVocabularyExitCode(t *testing.T) {
	configPath, _ := fixture(t)
	t.Setenv("BRF_VOCABULARY_MIN_DOC_FREQ", "1000")
	_, err := execute(t, "run", "--config", configPath)
	require.Error(t, err)
	assert.Equal(t, apperrors.ExitEmptyResult, apperrors.ExitCode(err))
}

func TestRunCmd_MissingInputIsConfigError(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("logging:\n  level: error\n"), 0o644))
	_, err := execute(t, "run", "--config", configPath)
	require.Error(t, err)
	assert.Equal(t, apperrors.ExitConfig, apperrors.ExitCode(err))
}

func TestExploreCmd(t *testing.T) {
	configPath, _ := fixture(t)
	out, err := execute(t, "explore", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "40 reviews")
	assert.Contains(t, out, "appearance")
	assert.Contains(t, out, "VAR RATIO")
}

func TestCheckCmd(t *testing.T) {
	configPath, _ := fixture(t)
	out, err := execute(t, "check", "--config", configPath, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"input"`)
	assert.Contains(t, out, `"status": "up"`)

	_, err = execute(t, "check", "--config", configPath, "--input", filepath.Join(t.TempDir(), "gone.csv"))
	require.Error(t, err)
	assert.Equal(t, apperrors.ExitExport, apperrors.ExitCode(err))
}
