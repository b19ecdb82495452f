package dto

// SpreadsheetExport carries a rendered workbook back to the browser.
// Content is base64 encoded; the client decodes and triggers a download,
// nothing is kept server side.
type SpreadsheetExport struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     string `json:"content"`
}

// CreateReportRequest enqueues an asynchronous report job.
type CreateReportRequest struct {
	Type   string `json:"type" validate:"required,oneof=students teachers canteen purchases"`
	Format string `json:"format" validate:"required,oneof=csv pdf xlsx"`
	Month  string `json:"month" validate:"omitempty,len=7"`
}

// ReportJobResponse acknowledges an accepted report job.
type ReportJobResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// ReportStatusResponse exposes job progress to clients.
type ReportStatusResponse struct {
	ID        string  `json:"id"`
	Status    string  `json:"status"`
	ResultURL *string `json:"result_url,omitempty"`
	Error     *string `json:"error,omitempty"`
}
