// internal/history/export.go
package history

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Format – формат файла экспорта.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat проверяет формат из флага CLI.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatCSV, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unsupported export format %q (csv|json)", s)
}

var csvHeaders = []string{"signature", "slot", "block_time", "status", "kind", "amount", "mint", "recipient", "memo"}

// Exporter пишет историю в файл.
type Exporter struct {
	logger *zap.Logger
	now    func() time.Time
}

func NewExporter(logger *zap.Logger) *Exporter {
	return &Exporter{logger: logger.Named("history-export"), now: time.Now}
}

// Export пишет entries в dir и возвращает путь файла.
func (ex *Exporter) Export(entries []Entry, format Format, dir, account string) (string, error) {
	if len(entries) == 0 {
		return "", fmt.Errorf("no transactions to export")
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	outputPath := filepath.Join(dir, ex.filename(account, format))

	var err error
	switch format {
	case FormatCSV:
		err = exportToCSV(entries, outputPath)
	case FormatJSON:
		err = ex.exportToJSON(entries, outputPath, account)
	default:
		err = fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return "", err
	}

	ex.logger.Info("History exported",
		zap.String("file", outputPath),
		zap.Int("count", len(entries)),
		zap.String("format", string(format)))
	return outputPath, nil
}

func (ex *Exporter) filename(account string, format Format) string {
	prefix := "history"
	if len(account) >= 8 {
		prefix += "_" + account[:8]
	}
	return fmt.Sprintf("%s_%s.%s", prefix, ex.now().Format("20060102_150405"), format)
}

func exportToCSV(entries []Entry, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(csvHeaders); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, e := range entries {
		blockTime := ""
		if e.BlockTime != nil {
			blockTime = e.BlockTime.Format(time.RFC3339)
		}
		record := []string{e.Signature, strconv.FormatUint(e.Slot, 10), blockTime, string(e.Status), e.Kind, e.Amount, e.Mint, e.Recipient, e.Memo}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write entry: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func (ex *Exporter) exportToJSON(entries []Entry, outputPath, account string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer file.Close()

	failed := 0
	for _, e := range entries {
		if e.Status != StatusConfirmed {
			failed++
		}
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	exportData := struct {
		ExportTime   time.Time `json:"export_time"`
		Account      string    `json:"account,omitempty"`
		Count        int       `json:"count"`
		Failed       int       `json:"failed"`
		Transactions []Entry   `json:"transactions"`
	}{
		ExportTime:   ex.now().UTC(),
		Account:      account,
		Count:        len(entries),
		Failed:       failed,
		Transactions: entries,
	}
	if err := encoder.Encode(exportData); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
