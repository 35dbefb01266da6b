package formatter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/desertthunder/vkx/internal/models"
	"github.com/desertthunder/vkx/internal/shared"
)

// ImportColumns are the recognised header names of a bulk import CSV. Only external_id and title are required.
var ImportColumns = []string{"external_id", "entity_type", "title", "source", "image_url", "state_record", "state_cover", "acquired"}

// ReadImportFile opens path and parses it with [ReadImportCSV].
func ReadImportFile(path string) ([]models.AddItemRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()
	return ReadImportCSV(f)
}

// ReadImportCSV parses a header-led CSV into add requests. Missing entity_type means ALBUM and
// missing source means DISCOGS. Rows that cannot be parsed fail the whole file with their line number.
func ReadImportCSV(r io.Reader) ([]models.AddItemRequest, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: import file is empty", shared.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"external_id", "title"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: import file is missing the %s column", shared.ErrInvalidInput, required)
		}
	}

	var reqs []models.AddItemRequest
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}

		get := func(name string) string {
			if i, ok := cols[name]; ok && i < len(record) {
				return strings.TrimSpace(record[i])
			}
			return ""
		}

		req, err := importRow(get)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", shared.ErrInvalidInput, line, err)
		}
		reqs = append(reqs, req)
	}

	return reqs, nil
}

func importRow(get func(string) string) (models.AddItemRequest, error) {
	req := models.AddItemRequest{
		ExternalID: get("external_id"),
		EntityType: models.EntityAlbum,
		Title:      get("title"),
		ImageURL:   get("image_url"),
		Source:     models.SourceDiscogs,
	}

	if v := get("entity_type"); v != "" {
		et, err := models.ParseEntityType(v)
		if err != nil {
			return req, err
		}
		req.EntityType = et
	}
	if v := get("source"); v != "" {
		req.Source = models.ExternalSource(strings.ToUpper(v))
	}

	var cond models.Condition
	var hasCond bool
	if v := get("state_record"); v != "" {
		s, err := models.ParseVinylState(v)
		if err != nil {
			return req, err
		}
		cond.Record, hasCond = &s, true
	}
	if v := get("state_cover"); v != "" {
		s, err := models.ParseVinylState(v)
		if err != nil {
			return req, err
		}
		cond.Cover, hasCond = &s, true
	}
	if v := get("acquired"); v != "" {
		ym, err := models.ParseYearMonth(v)
		if err != nil {
			return req, err
		}
		cond.Acquired, hasCond = &ym, true
	}
	if hasCond {
		req.Condition = &cond
	}

	return req, nil
}
