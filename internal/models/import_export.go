package models

import "time"

type ImportValidationError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

type ImportSummary struct {
	TotalRows        int                     `json:"totalRows"`
	SuccessCount     int                     `json:"successCount"`
	ErrorCount       int                     `json:"errorCount"`
	CreatedQuestions []string                `json:"createdQuestions"`
	Errors           []ImportValidationError `json:"errors"`
	ArchivedAs       string                  `json:"archivedAs,omitempty"`
	ProcessingTime   time.Duration           `json:"processingTime"`
}

// ImportMetadata is parsed from the first row of an upload template:
// "# Grade: G, Subject: S, Book: B".
type ImportMetadata struct {
	Grade   string `json:"grade"`
	Subject string `json:"subject"`
	Book    string `json:"book"`
}
