package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/escolaware/escola-api/internal/dto"
	"github.com/escolaware/escola-api/internal/models"
	appErrors "github.com/escolaware/escola-api/pkg/errors"
	"github.com/escolaware/escola-api/pkg/export"
	"github.com/escolaware/escola-api/pkg/storage"
)

type exportStudentReader interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
}

type exportTeacherReader interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.TeacherDetail, int, error)
}

type exportCanteenReader interface {
	ListPurchases(ctx context.Context, filter models.CanteenPurchaseFilter) ([]models.CanteenPurchase, int, error)
	StandingBySchool(ctx context.Context, schoolID string, ref time.Time) ([]models.StudentCanteenStanding, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type xlsxRenderer interface {
	Render(data export.Dataset, sheet string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService builds report datasets and renders them either inline
// (spreadsheet downloads) or onto the filesystem (async reports).
type ExportService struct {
	students exportStudentReader
	teachers exportTeacherReader
	canteen  exportCanteenReader
	storage  fileStorage
	csv      csvRenderer
	pdf      pdfRenderer
	xlsx     xlsxRenderer
	signer   *storage.SignedURLSigner
	logger   *zap.Logger
	cfg      ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(
	students exportStudentReader,
	teachers exportTeacherReader,
	canteen exportCanteenReader,
	store fileStorage,
	signer *storage.SignedURLSigner,
	cfg ExportConfig,
	logger *zap.Logger,
) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		students: students,
		teachers: teachers,
		canteen:  canteen,
		storage:  store,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		xlsx:     export.NewXLSXExporter(),
		signer:   signer,
		logger:   logger,
		cfg:      cfg,
	}
}

// StudentsSpreadsheet renders the school's student roster as a workbook
// and returns it base64 encoded. Nothing is kept server side.
func (s *ExportService) StudentsSpreadsheet(ctx context.Context, schoolID string) (*dto.SpreadsheetExport, error) {
	dataset, _, err := s.buildStudentDataset(ctx, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build student export")
	}
	payload, err := s.xlsx.Render(dataset, "Students")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render spreadsheet")
	}
	filename := fmt.Sprintf("students_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	return &dto.SpreadsheetExport{
		Filename:    filename,
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Content:     base64.StdEncoding.EncodeToString(payload),
	}, nil
}

// Generate builds the dataset for a queued job and stores the rendered
// file, returning a signed download URL.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	case models.ReportFormatXLSX:
		payload, err = s.xlsx.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(job), payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/reports/download/%s", prefix, token),
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(job.Type)), sanitizeFilename(job.SchoolID), timestamp, job.Params.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ReportTypeStudents:
		return s.buildStudentDataset(ctx, job.SchoolID)
	case models.ReportTypeTeachers:
		return s.buildTeacherDataset(ctx, job.SchoolID)
	case models.ReportTypeCanteen:
		return s.buildCanteenDataset(ctx, job.SchoolID, job.Params.Month)
	case models.ReportTypePurchases:
		return s.buildPurchaseDataset(ctx, job.SchoolID, job.Params.Month)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", job.Type)
	}
}

func (s *ExportService) buildStudentDataset(ctx context.Context, schoolID string) (export.Dataset, string, error) {
	rows := make([]map[string]string, 0)
	for page := 1; ; page++ {
		students, total, err := s.students.List(ctx, models.StudentFilter{SchoolID: schoolID, Page: page, PageSize: 100})
		if err != nil {
			return export.Dataset{}, "", err
		}
		for _, student := range students {
			rows = append(rows, map[string]string{
				"Name":          student.FullName,
				"Email":         student.Email,
				"Enrollment":    student.Enrollment,
				"Class ID":      deref(student.ClassID),
				"Canteen Limit": formatCents(student.CanteenLimit),
				"Active":        fmt.Sprintf("%t", student.Active),
			})
		}
		if len(rows) >= total || len(students) == 0 {
			break
		}
	}
	dataset := export.Dataset{
		Headers: []string{"Name", "Email", "Enrollment", "Class ID", "Canteen Limit", "Active"},
		Rows:    rows,
	}
	return dataset, "Students", nil
}

func (s *ExportService) buildTeacherDataset(ctx context.Context, schoolID string) (export.Dataset, string, error) {
	rows := make([]map[string]string, 0)
	for page := 1; ; page++ {
		teachers, total, err := s.teachers.List(ctx, models.TeacherFilter{SchoolID: schoolID, Page: page, PageSize: 100})
		if err != nil {
			return export.Dataset{}, "", err
		}
		for _, teacher := range teachers {
			rows = append(rows, map[string]string{
				"Name":         teacher.FullName,
				"Email":        teacher.Email,
				"Registration": teacher.Registration,
				"Expertise":    deref(teacher.Expertise),
				"Active":       fmt.Sprintf("%t", teacher.Active),
			})
		}
		if len(rows) >= total || len(teachers) == 0 {
			break
		}
	}
	dataset := export.Dataset{
		Headers: []string{"Name", "Email", "Registration", "Expertise", "Active"},
		Rows:    rows,
	}
	return dataset, "Teachers", nil
}

func (s *ExportService) buildCanteenDataset(ctx context.Context, schoolID string, month *string) (export.Dataset, string, error) {
	ref, err := resolveReportMonth(month)
	if err != nil {
		return export.Dataset{}, "", err
	}
	standings, err := s.canteen.StandingBySchool(ctx, schoolID, ref)
	if err != nil {
		return export.Dataset{}, "", err
	}
	rows := make([]map[string]string, 0, len(standings))
	for _, standing := range standings {
		rows = append(rows, map[string]string{
			"Student":       standing.FullName,
			"Monthly Limit": formatCents(standing.CanteenLimit),
			"Month Total":   formatCents(&standing.MonthTotalCents),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Student", "Monthly Limit", "Month Total"},
		Rows:    rows,
	}
	return dataset, fmt.Sprintf("Canteen %s", ref.Format("2006-01")), nil
}

func (s *ExportService) buildPurchaseDataset(ctx context.Context, schoolID string, month *string) (export.Dataset, string, error) {
	ref, err := resolveReportMonth(month)
	if err != nil {
		return export.Dataset{}, "", err
	}
	rows := make([]map[string]string, 0)
	for page := 1; ; page++ {
		purchases, total, err := s.canteen.ListPurchases(ctx, models.CanteenPurchaseFilter{SchoolID: schoolID, Month: &ref, Page: page, PageSize: 100})
		if err != nil {
			return export.Dataset{}, "", err
		}
		for _, purchase := range purchases {
			totalCents := purchase.UnitPriceCents * int64(purchase.Quantity)
			rows = append(rows, map[string]string{
				"Student ID":   purchase.StudentID,
				"Item ID":      purchase.ItemID,
				"Quantity":     fmt.Sprintf("%d", purchase.Quantity),
				"Unit Price":   formatCents(&purchase.UnitPriceCents),
				"Total":        formatCents(&totalCents),
				"Purchased At": purchase.PurchasedAt.UTC().Format(time.RFC3339),
			})
		}
		if len(rows) >= total || len(purchases) == 0 {
			break
		}
	}
	dataset := export.Dataset{
		Headers: []string{"Student ID", "Item ID", "Quantity", "Unit Price", "Total", "Purchased At"},
		Rows:    rows,
	}
	return dataset, fmt.Sprintf("Purchases %s", ref.Format("2006-01")), nil
}

func resolveReportMonth(month *string) (time.Time, error) {
	if month == nil || *month == "" {
		return time.Now().UTC(), nil
	}
	ref, err := time.Parse("2006-01", *month)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q: %w", *month, err)
	}
	return ref, nil
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func formatCents(cents *int64) string {
	if cents == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", float64(*cents)/100)
}
