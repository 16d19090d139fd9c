// package formatter provides functions to export favorite authors to various formats (JSON, CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/desertthunder/litfav/internal/models"
	"github.com/desertthunder/litfav/internal/shared"
)

// Supported export formats.
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

// Formats lists the accepted values of the export format flag.
var Formats = []string{FormatJSON, FormatCSV, FormatMarkdown, FormatText}

// Lifespan renders birth and death dates as "1900 - 1980", "b. 1900" or "".
func Lifespan(birth, death string) string {
	switch {
	case birth != "" && death != "":
		return birth + " - " + death
	case birth != "":
		return "b. " + birth
	case death != "":
		return "d. " + death
	default:
		return ""
	}
}

// ExportToJSON converts favorites to indented JSON.
func ExportToJSON(entries []models.FavoriteEntry) ([]byte, error) {
	if entries == nil {
		entries = []models.FavoriteEntry{}
	}
	return shared.MarshalJSON(entries, true)
}

// ExportToCSV converts favorites to CSV format with columns: AuthorID, Name, BirthDate, DeathDate, TopWork, AddedBy, AddedAt, ImageURL
func ExportToCSV(entries []models.FavoriteEntry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"AuthorID", "Name", "BirthDate", "DeathDate", "TopWork", "AddedBy", "AddedAt", "ImageURL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, e := range entries {
		addedAt := ""
		if !e.AddedAt.IsZero() {
			addedAt = e.AddedAt.UTC().Format(time.RFC3339)
		}
		record := []string{e.AuthorID, e.Name, e.BirthDate, e.DeathDate, e.TopWork, e.AddedBy, addedAt, e.ImageURL}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts favorites to Markdown.
//
// images maps author ids to local image filenames; entries without one link their remote image instead.
func ExportToMarkdown(owner string, entries []models.FavoriteEntry, images map[string]string) ([]byte, error) {
	var buf bytes.Buffer

	title := "Favorite Authors"
	if owner != "" {
		title = fmt.Sprintf("Favorite Authors of %s", owner)
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Authors**: %d\n\n", len(entries)))

	for _, e := range entries {
		buf.WriteString(fmt.Sprintf("## %s\n\n", e.Name))

		if img, ok := images[e.AuthorID]; ok && img != "" {
			buf.WriteString(fmt.Sprintf("![%s](%s)\n\n", e.Name, img))
		} else if e.ImageURL != "" {
			buf.WriteString(fmt.Sprintf("![%s](%s)\n\n", e.Name, e.ImageURL))
		}

		if span := Lifespan(e.BirthDate, e.DeathDate); span != "" {
			buf.WriteString(fmt.Sprintf("- **Lived**: %s\n", span))
		}
		if e.TopWork != "" {
			buf.WriteString(fmt.Sprintf("- **Top Work**: %s\n", e.TopWork))
		}
		buf.WriteString(fmt.Sprintf("- **Open Library**: https://openlibrary.org/authors/%s\n", e.AuthorID))
		if !e.AddedAt.IsZero() {
			buf.WriteString(fmt.Sprintf("- **Added**: %s\n", e.AddedAt.UTC().Format("2006-01-02")))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts favorites to plain text format
func ExportToText(entries []models.FavoriteEntry) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Favorite authors: %d\n\n", len(entries)))

	for i, e := range entries {
		line := fmt.Sprintf("%d. %s [%s]", i+1, e.Name, e.AuthorID)
		if span := Lifespan(e.BirthDate, e.DeathDate); span != "" {
			line += fmt.Sprintf(" (%s)", span)
		}
		if e.TopWork != "" {
			line += " - " + e.TopWork
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

// Export renders entries in format. Unknown formats return [shared.ErrInvalidArgument].
func Export(owner string, entries []models.FavoriteEntry, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		return ExportToJSON(entries)
	case FormatCSV:
		return ExportToCSV(entries)
	case FormatMarkdown, "md":
		return ExportToMarkdown(owner, entries, nil)
	case FormatText, "text":
		return ExportToText(entries)
	default:
		return nil, fmt.Errorf("%w: unknown format %q (want one of %s)", shared.ErrInvalidArgument, format, strings.Join(Formats, ", "))
	}
}

// Extension returns the file extension used for format.
func Extension(format string) string {
	switch strings.ToLower(format) {
	case FormatCSV:
		return ".csv"
	case FormatMarkdown, "md":
		return ".md"
	case FormatText, "text":
		return ".txt"
	default:
		return ".json"
	}
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// WriteExport writes entries in format to path.
//
// Defaults to favorites{ext} in the working directory.
func WriteExport(owner string, entries []models.FavoriteEntry, format, path string) (string, error) {
	if path == "" {
		path = "favorites" + Extension(format)
	}

	data, err := Export(owner, entries, format)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
	Images    int
}

// WriteMarkdownExport exports favorites to a dedicated directory.
//
// Creates {dir}/README.md and, when downloadImages is set, {dir}/{authorId}.jpg for each entry with an image.
// Image download failures are reported on stderr and the remote URL is linked instead.
func WriteMarkdownExport(owner string, entries []models.FavoriteEntry, outputDir string, downloadImages bool) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = "favorites"
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	images := map[string]string{}
	if downloadImages {
		for _, e := range entries {
			if e.ImageURL == "" {
				continue
			}

			imageData, err := DownloadImage(e.ImageURL)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to download image for %s: %v\n", e.Name, err)
				continue
			}

			filename := e.AuthorID + ".jpg"
			imagePath := filepath.Join(outputDir, filename)
			if err := os.WriteFile(imagePath, imageData, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save image for %s: %v\n", e.Name, err)
				continue
			}

			images[e.AuthorID] = filename
			result.Files = append(result.Files, imagePath)
			result.Images++
		}
	}

	mdData, err := ExportToMarkdown(owner, entries, images)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}
