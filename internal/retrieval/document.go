package retrieval

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Document is a single corpus record, as stuffed into the QA prompt.
type Document struct {
	Content string `json:"content"`
	Source  string `json:"source"`
	Row     int    `json:"row"`
}

// LoadCSVCorpus turns every CSV row into a document whose content is one
// "header: value" line per column. The first row must be the header.
func LoadCSVCorpus(source string, r io.Reader) ([]Document, error) {
	csvReader := csv.NewReader(r)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = 0

	header, err := csvReader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("corpus %s is empty", source)
		}
		return nil, fmt.Errorf("read corpus %s header: %w", source, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	log.Debugf("reading corpus [%s] with columns %v ...", source, header)

	var docs []Document
	for row := 0; ; row++ {
		record, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read corpus %s row %d: %w", source, row, err)
		}

		lines := make([]string, len(record))
		for i, value := range record {
			lines[i] = fmt.Sprintf("%s: %s", header[i], strings.TrimSpace(value))
		}

		docs = append(docs, Document{
			Content: strings.Join(lines, "\n"),
			Source:  source,
			Row:     row,
		})
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("corpus %s has no records", source)
	}

	log.Printf("corpus [%s]: read %d documents", source, len(docs))

	return docs, nil
}
