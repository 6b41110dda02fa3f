package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/chinmay1088/hopper/storage"
)

const exportBatch = 500

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the operation journal",
	Long: `Export every operation in the journal.

File formats:
  --csv        Export to CSV format (default)
  --json       Export to JSON format
  --txt        Export to txt format

Files are written to the exports directory under the data directory.

Examples:
  hopper export                    # Export to CSV (default)
  hopper export --json             # Export to JSON
  hopper export --csv --json       # Export to both formats`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

var (
	csvFlag  bool
	jsonFlag bool
	txtFlag  bool
)

func init() {
	exportCmd.Flags().BoolVar(&csvFlag, "csv", false, "Export to CSV format")
	exportCmd.Flags().BoolVar(&jsonFlag, "json", false, "Export to JSON format")
	exportCmd.Flags().BoolVar(&txtFlag, "txt", false, "Export to txt format")
}

// ExportData is the JSON export document.
type ExportData struct {
	ExportDate     string          `json:"export_date"`
	CurrentNetwork string          `json:"current_network"`
	Total          int             `json:"total_operations"`
	Operations     []storage.Entry `json:"operations"`
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if !csvFlag && !jsonFlag && !txtFlag {
		csvFlag = true
	}

	journal, err := openJournal()
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer journal.Close()

	total, err := journal.Count(ctx, storage.Filter{})
	if err != nil {
		return fmt.Errorf("failed to count operations: %w", err)
	}

	fmt.Println("📊 Preparing export data...")
	bar := progressbar.NewOptions(max(total, 1),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetDescription("[cyan][1/2][reset] Reading journal..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	data := &ExportData{
		ExportDate:     time.Now().Format(time.DateTime),
		CurrentNetwork: cfg.Network.Name,
	}
	for offset := 0; offset < total; offset += exportBatch {
		batch, err := journal.List(ctx, storage.Filter{Limit: exportBatch, Offset: offset})
		if err != nil {
			return fmt.Errorf("failed to read journal: %w", err)
		}
		data.Operations = append(data.Operations, batch...)
		_ = bar.Add(len(batch))
		if len(batch) < exportBatch {
			break
		}
	}
	data.Total = len(data.Operations)

	bar.Describe("[cyan][2/2][reset] Writing export files...")
	exportDir := filepath.Join(cfg.DataDir, "exports")
	if err := os.MkdirAll(exportDir, 0700); err != nil {
		return fmt.Errorf("failed to prepare export directory: %w", err)
	}
	files, err := writeExportFiles(data, exportDir, time.Now().Format("20060102_150405"))
	if err != nil {
		return fmt.Errorf("failed to write export files: %w", err)
	}

	_ = bar.Finish()
	fmt.Println()
	fmt.Println("📁 Export completed successfully!")
	for _, f := range files {
		fmt.Printf("📍 %s\n", f)
	}
	fmt.Printf("📊 Operations: %d\n", data.Total)
	return nil
}

func writeExportFiles(data *ExportData, dir, timestamp string) ([]string, error) {
	type format struct {
		enabled bool
		ext     string
		write   func(io.Writer, *ExportData) error
	}
	formats := []format{
		{csvFlag, "csv", writeCSV},
		{jsonFlag, "json", writeJSON},
		{txtFlag, "txt", writeTXT},
	}

	var files []string
	for _, f := range formats {
		if !f.enabled {
			continue
		}
		name := filepath.Join(dir, fmt.Sprintf("hopper_%s.%s", timestamp, f.ext))
		if err := writeFile(name, data, f.write); err != nil {
			return files, fmt.Errorf("failed to write %s export: %w", f.ext, err)
		}
		files = append(files, name)
	}
	return files, nil
}

func writeFile(name string, data *ExportData, write func(io.Writer, *ExportData) error) error {
	file, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if err := write(file, data); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func writeCSV(w io.Writer, data *ExportData) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"ID", "Time", "Network", "Kind", "Account", "Summary", "Hash", "Status", "Error"}); err != nil {
		return err
	}
	for _, e := range data.Operations {
		if err := writer.Write([]string{
			strconv.FormatInt(e.ID, 10),
			e.CreatedAt.UTC().Format(time.RFC3339),
			e.Network,
			e.Kind,
			e.Account,
			e.Summary,
			e.TxHash,
			e.Status,
			e.Error,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeJSON(w io.Writer, data *ExportData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func writeTXT(w io.Writer, data *ExportData) error {
	var content strings.Builder
	content.WriteString("HOPPER OPERATION EXPORT\n")
	content.WriteString("=======================\n\n")
	content.WriteString(fmt.Sprintf("Export Date: %s\n", data.ExportDate))
	content.WriteString(fmt.Sprintf("Current Network: %s\n", data.CurrentNetwork))
	content.WriteString(fmt.Sprintf("\nOperations (%d):\n", data.Total))

	for i, e := range data.Operations {
		content.WriteString(fmt.Sprintf("  %d. [%s] %s | %s | %s\n",
			i+1, strings.ToUpper(e.Status), e.CreatedAt.UTC().Format(time.DateTime), e.Network, e.Summary))
		if e.TxHash != "" {
			content.WriteString(fmt.Sprintf("     Hash: %s\n", e.TxHash))
		}
		if e.Error != "" {
			content.WriteString(fmt.Sprintf("     Error: %s\n", e.Error))
		}
	}

	_, err := io.WriteString(w, content.String())
	return err
}
