// package formatter provides functions to export collection data to various formats (CSV, Markdown, plain text)
// and to read bulk import files
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/vkx/internal/models"
	"github.com/desertthunder/vkx/internal/shared"
)

// Formats lists the export formats accepted by [WriteExport].
var Formats = []string{"json", "csv", "markdown", "txt"}

func stateLabel(v *models.VinylState) string {
	if v == nil {
		return ""
	}
	return v.Label()
}

func acquiredLabel(ym *models.YearMonth) string {
	if ym == nil || ym.IsZero() {
		return ""
	}
	return ym.String()
}

// ExportToCSV converts a CollectionExport to CSV format with columns: ID, External ID, Title, Source, Record, Cover, Acquired
func ExportToCSV(export *models.CollectionExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "External ID", "Title", "Source", "Record", "Cover", "Acquired"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, album := range export.Albums {
		record := []string{
			strconv.FormatInt(album.ID, 10),
			album.ExternalID,
			album.Title,
			album.Source.Name,
			stateLabel(album.Record),
			stateLabel(album.Cover),
			acquiredLabel(album.Acquired),
		}
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

// ExportToMarkdown converts a CollectionExport to Markdown format with optional cover image
func ExportToMarkdown(export *models.CollectionExport, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer
	c := export.Collection

	buf.WriteString(fmt.Sprintf("# %s\n\n", c.Name))

	if imageFilename != "" {
		buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", imageFilename))
	}

	if c.Description != "" {
		buf.WriteString(fmt.Sprintf("**Description**: %s\n\n", c.Description))
	}

	buf.WriteString(fmt.Sprintf("**Albums**: %d\n", len(export.Albums)))
	buf.WriteString(fmt.Sprintf("**Artists**: %d\n", len(export.Artists)))
	buf.WriteString(fmt.Sprintf("**Likes**: %d\n", c.LikesCount))
	buf.WriteString(fmt.Sprintf("**Visibility**: %s\n\n", shared.VisibilityString(c.IsPublic)))

	if len(export.Albums) > 0 {
		buf.WriteString("## Albums\n\n")
		buf.WriteString("| # | Title | Record | Cover | Acquired |\n")
		buf.WriteString("|---|-------|--------|-------|----------|\n")
		for i, a := range export.Albums {
			buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n",
				i+1, escapePipes(a.Title), stateLabel(a.Record), stateLabel(a.Cover), acquiredLabel(a.Acquired)))
		}
		buf.WriteString("\n")
	}

	if len(export.Artists) > 0 {
		buf.WriteString("## Artists\n\n")
		for i, a := range export.Artists {
			buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, a.Title))
		}
	}

	return buf.Bytes(), nil
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// ExportToText converts a CollectionExport to plain text format
func ExportToText(export *models.CollectionExport) ([]byte, error) {
	var buf bytes.Buffer
	c := export.Collection

	buf.WriteString(fmt.Sprintf("Collection: %s\n", c.Name))
	if c.Description != "" {
		buf.WriteString(fmt.Sprintf("Description: %s\n", c.Description))
	}
	buf.WriteString(fmt.Sprintf("Albums: %d\n", len(export.Albums)))
	buf.WriteString(fmt.Sprintf("Artists: %d\n\n", len(export.Artists)))

	for i, a := range export.Albums {
		line := fmt.Sprintf("%d. %s", i+1, a.Title)
		if a.Record != nil {
			line += fmt.Sprintf(" [%s]", a.Record.Label())
		}
		buf.WriteString(line + "\n")
	}
	if len(export.Artists) > 0 {
		buf.WriteString("\n")
		for _, a := range export.Artists {
			buf.WriteString(fmt.Sprintf("* %s\n", a.Title))
		}
	}

	return buf.Bytes(), nil
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

// ToJSON generates an indented JSON representation of v
func ToJSON(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	AlbumsFile   string
	MetadataFile string
}

// WriteCSVExport exports a collection to CSV format with accompanying metadata JSON file.
//
// Creates {base}_albums.csv and {base}_metadata.json
func WriteCSVExport(export *models.CollectionExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = fmt.Sprintf("collection_%d", export.Collection.ID)
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	albumsFile := baseFilepath + "_albums.csv"
	if err := os.WriteFile(albumsFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToJSON(export.Collection)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{AlbumsFile: albumsFile, MetadataFile: metadataFile}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport exports a collection to Markdown format in a dedicated directory.
//
// The imageURL parameter is optional. If provided, the cover is downloaded next to README.md;
// a failed download only drops the image.
func WriteMarkdownExport(export *models.CollectionExport, outputDir string, imageURL string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = fmt.Sprintf("collection_%d", export.Collection.ID)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: outputDir, Files: []string{}}

	var coverImageFilename string
	if imageURL != "" {
		if imageData, err := DownloadImage(imageURL); err == nil {
			coverPath := filepath.Join(outputDir, "cover.jpg")
			if err := os.WriteFile(coverPath, imageData, 0644); err == nil {
				coverImageFilename = "cover.jpg"
				result.CoverImage = coverPath
				result.Files = append(result.Files, coverPath)
			}
		}
	}

	mdData, err := ExportToMarkdown(export, coverImageFilename)
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

// WriteTextExport exports a collection to plain text format.
func WriteTextExport(export *models.CollectionExport, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("collection_%d.txt", export.Collection.ID)
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}

// WriteExport writes export in format under base and returns the files created.
func WriteExport(export *models.CollectionExport, format, base, imageURL string) ([]string, error) {
	switch format {
	case "csv":
		res, err := WriteCSVExport(export, base)
		if err != nil {
			return nil, err
		}
		return []string{res.AlbumsFile, res.MetadataFile}, nil
	case "markdown", "md":
		res, err := WriteMarkdownExport(export, base, imageURL)
		if err != nil {
			return nil, err
		}
		return res.Files, nil
	case "txt", "text":
		path := ""
		if base != "" {
			path = base + ".txt"
		}
		p, err := WriteTextExport(export, path)
		if err != nil {
			return nil, err
		}
		return []string{p}, nil
	case "json", "":
		if base == "" {
			base = fmt.Sprintf("collection_%d", export.Collection.ID)
		}
		data, err := ToJSON(export)
		if err != nil {
			return nil, fmt.Errorf("JSON marshal failed: %w", err)
		}
		path := base + ".json"
		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("JSON write failed: %w", err)
		}
		return []string{path}, nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q (want one of %s)", shared.ErrInvalidFlag, format, strings.Join(Formats, ", "))
	}
}
