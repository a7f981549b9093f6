// Package export writes run results to disk for later inspection.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bebbyilham/monad-ambient-cli/internal/stats"
)

// Format represents the export file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Options configures the export behavior
type Options struct {
	Format       Format
	WalletFilter string // Filter by wallet name
	ActionFilter string // Filter by action (swap_out/swap_in/roundtrip/add_liquidity)
	OnlySuccess  bool   // Only export successful operations
	OutputDir    string
}

// ResultExporter writes round results and the run summary.
type ResultExporter struct {
	logger *zap.Logger
}

// NewResultExporter creates a new result exporter
func NewResultExporter(logger *zap.Logger) *ResultExporter {
	return &ResultExporter{logger: logger}
}

// ExportResults writes the results matching the options and returns the
// output path.
func (re *ResultExporter) ExportResults(results []stats.RoundResult, summary stats.Summary, options Options) (string, error) {
	filtered := re.filterResults(results, options)
	if len(filtered) == 0 {
		return "", fmt.Errorf("no results match the export criteria")
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.Before(filtered[j].Timestamp)
	})

	filename := re.generateFilename(options)
	outputPath := filepath.Join(options.OutputDir, filename)

	if err := os.MkdirAll(options.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	var err error
	switch options.Format {
	case FormatCSV:
		err = re.exportToCSV(filtered, outputPath)
	case FormatJSON:
		err = re.exportToJSON(filtered, summary, outputPath)
	default:
		err = fmt.Errorf("unsupported format: %s", options.Format)
	}
	if err != nil {
		return "", err
	}

	re.logger.Info("Results exported",
		zap.String("file", outputPath),
		zap.Int("count", len(filtered)),
		zap.String("format", string(options.Format)))

	return outputPath, nil
}

// filterResults applies filters to the result list
func (re *ResultExporter) filterResults(results []stats.RoundResult, options Options) []stats.RoundResult {
	var filtered []stats.RoundResult
	for _, res := range results {
		if options.WalletFilter != "" && res.WalletName != options.WalletFilter {
			continue
		}
		if options.ActionFilter != "" && res.Action != options.ActionFilter {
			continue
		}
		if options.OnlySuccess && !res.Success {
			continue
		}
		filtered = append(filtered, res)
	}
	return filtered
}

// generateFilename creates a filename based on export options
func (re *ResultExporter) generateFilename(options Options) string {
	timestamp := time.Now().Format("20060102_150405")

	prefix := "run_all"
	if options.ActionFilter != "" {
		prefix = "run_" + options.ActionFilter
	}
	if options.WalletFilter != "" {
		prefix += "_" + options.WalletFilter
	}

	return fmt.Sprintf("%s_%s.%s", prefix, timestamp, options.Format)
}

// CSVHeaders returns the column names of the CSV export.
func CSVHeaders() []string {
	return []string{
		"timestamp", "wallet", "round", "action", "amount",
		"success", "tx_hashes", "error_kind", "error_message",
	}
}

func toCSVRow(res stats.RoundResult) []string {
	return []string{
		res.Timestamp.UTC().Format(time.RFC3339),
		res.WalletName,
		strconv.Itoa(res.Round),
		res.Action,
		strconv.FormatFloat(res.Amount, 'f', -1, 64),
		strconv.FormatBool(res.Success),
		strings.Join(res.TxHashes, "|"),
		res.ErrKind,
		res.ErrMessage,
	}
}

// exportToCSV writes one row per result
func (re *ResultExporter) exportToCSV(results []stats.RoundResult, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(CSVHeaders()); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, res := range results {
		if err := writer.Write(toCSVRow(res)); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
	}
	return nil
}

// exportToJSON writes the results plus the run summary
func (re *ResultExporter) exportToJSON(results []stats.RoundResult, summary stats.Summary, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	exportData := struct {
		ExportTime  time.Time           `json:"export_time"`
		ResultCount int                 `json:"result_count"`
		Results     []stats.RoundResult `json:"results"`
		Summary     stats.Summary       `json:"summary"`
	}{
		ExportTime:  time.Now(),
		ResultCount: len(results),
		Results:     results,
		Summary:     summary,
	}

	if err := encoder.Encode(exportData); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
