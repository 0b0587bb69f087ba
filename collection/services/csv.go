package services

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/gocarina/gocsv"
)

// UnmarshalCSV reads rows into out after checking that every column the
// rows need is in the header.
func UnmarshalCSV(data []byte, out any, columns ...string) error {
	header, err := csv.NewReader(bytes.NewReader(data)).Read()
	if err != nil {
		return fmt.Errorf("%w reading csv header: %w", ErrIncorrectAssumption, err)
	}
	present := make(map[string]bool, len(header))
	for _, column := range header {
		present[column] = true
	}
	for _, column := range columns {
		if !present[column] {
			return fmt.Errorf("%w missing csv column `%s`", ErrIncorrectAssumption, column)
		}
	}
	if err := gocsv.UnmarshalBytes(data, out); err != nil {
		return fmt.Errorf("%w reading csv: %w", ErrIncorrectAssumption, err)
	}
	return nil
}
