package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bebbyilham/monad-ambient-cli/internal/stats"
)

func sampleResults() []stats.RoundResult {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return []stats.RoundResult{
		{
			WalletName: "w1", Round: 1, Action: "swap_out", Amount: 0.25,
			Success: true, TxHashes: []string{"0xaaa"}, Timestamp: base,
		},
		{
			WalletName: "w2", Round: 1, Action: "swap_in", Amount: 90,
			Success: false, ErrKind: "execution_failure", ErrMessage: "swap failed",
			Timestamp: base.Add(time.Minute),
		},
		{
			WalletName: "w1", Round: 2, Action: "roundtrip", Amount: 0.1,
			Success: true, TxHashes: []string{"0xbbb", "0xccc"},
			Timestamp: base.Add(2 * time.Minute),
		},
	}
}

func sampleSummary() stats.Summary {
	return stats.Summary{Attempted: 3, Successful: 2, SuccessRate: 2.0 / 3.0}
}

func TestExportResults_CSV(t *testing.T) {
	exporter := NewResultExporter(zap.NewNop())
	dir := t.TempDir()

	path, err := exporter.ExportResults(sampleResults(), sampleSummary(), Options{
		Format:    FormatCSV,
		OutputDir: dir,
	})
	require.NoError(t, err)
	assert.Equal(t, ".csv", filepath.Ext(path))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4) // header + 3 results
	assert.Equal(t, CSVHeaders(), rows[0])
	assert.Equal(t, "w1", rows[1][1])
	assert.Equal(t, "swap_out", rows[1][3])
	assert.Equal(t, "0xbbb|0xccc", rows[3][6])
}

func TestExportResults_JSON(t *testing.T) {
	exporter := NewResultExporter(zap.NewNop())
	dir := t.TempDir()

	path, err := exporter.ExportResults(sampleResults(), sampleSummary(), Options{
		Format:    FormatJSON,
		OutputDir: dir,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded struct {
		ResultCount int                 `json:"result_count"`
		Results     []stats.RoundResult `json:"results"`
		Summary     stats.Summary       `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 3, decoded.ResultCount)
	require.Len(t, decoded.Results, 3)
	assert.Equal(t, 3, decoded.Summary.Attempted)
}

func TestExportResults_SortedByTimestamp(t *testing.T) {
	exporter := NewResultExporter(zap.NewNop())
	results := sampleResults()
	// Reverse the input; the export must re-sort chronologically.
	results[0], results[2] = results[2], results[0]

	path, err := exporter.ExportResults(results, sampleSummary(), Options{
		Format:    FormatCSV,
		OutputDir: t.TempDir(),
	})
	require.NoError(t, err)

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "swap_out", rows[1][3])
	assert.Equal(t, "roundtrip", rows[3][3])
}

func TestExportResults_Filters(t *testing.T) {
	exporter := NewResultExporter(zap.NewNop())

	path, err := exporter.ExportResults(sampleResults(), sampleSummary(), Options{
		Format:       FormatCSV,
		OutputDir:    t.TempDir(),
		WalletFilter: "w1",
		OnlySuccess:  true,
	})
	require.NoError(t, err)

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3) // header + 2 w1 successes
	for _, row := range rows[1:] {
		assert.Equal(t, "w1", row[1])
		assert.Equal(t, "true", row[5])
	}
}

func TestExportResults_NoMatches(t *testing.T) {
	exporter := NewResultExporter(zap.NewNop())

	_, err := exporter.ExportResults(sampleResults(), sampleSummary(), Options{
		Format:       FormatCSV,
		OutputDir:    t.TempDir(),
		WalletFilter: "unknown",
	})
	assert.Error(t, err)
}

func TestExportResults_UnsupportedFormat(t *testing.T) {
	exporter := NewResultExporter(zap.NewNop())

	_, err := exporter.ExportResults(sampleResults(), sampleSummary(), Options{
		Format:    Format("xml"),
		OutputDir: t.TempDir(),
	})
	assert.Error(t, err)
}
