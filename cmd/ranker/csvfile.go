package main

import (
	"fmt"
	"os"

	"places_ranker/internal/domain"
	"places_ranker/internal/report"
)

func writeCSVFile(path string, r domain.Ranking) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close csv: %w", cerr)
		}
	}()
	return report.WriteCSV(f, r)
}
