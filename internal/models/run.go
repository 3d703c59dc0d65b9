package models

import "time"

// RunRecord summarizes one finished collection run for the archive.
type RunRecord struct {
	ID         string    // ID is the run uuid.
	Dataset    string    // Dataset is the file name prefix, e.g. LandPermitDataset.
	StartedAt  time.Time // StartedAt is when the run began.
	FinishedAt time.Time // FinishedAt is when the CSV was written.
	OutputPath string    // OutputPath is the written CSV file.
	RowCount   int       // RowCount is the number of data rows.
}
