package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/trainhub/training-admin-api/internal/models"
	appErrors "github.com/trainhub/training-admin-api/pkg/errors"
	"github.com/trainhub/training-admin-api/pkg/export"
)

// Export formats accepted by the session export endpoint.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
	FormatPDF  = "pdf"
)

var sheetHeaders = []string{"No.", "Topic", "Date", "Status", "Assigned To", "Place", "Cancelled Reason"}

type scheduledLister interface {
	ListScheduledOrdered(ctx context.Context) ([]models.Session, error)
}

type conductorByNameResolver interface {
	FindByFullName(ctx context.Context, firstName, lastName string) (*models.User, error)
}

type sessionWriter interface {
	FindByTopicAndConductor(ctx context.Context, topic, conductorID string) (*models.Session, error)
	Create(ctx context.Context, caller models.Caller, req CreateSessionRequest) (*models.Session, error)
	Update(ctx context.Context, caller models.Caller, id string, req UpdateSessionRequest) (*models.Session, error)
}

// ExportServiceConfig tunes spreadsheet rendering.
type ExportServiceConfig struct {
	SheetName  string
	DateFormat string
}

// ExportDocument is a rendered export ready to stream to the client.
type ExportDocument struct {
	FileName    string
	ContentType string
	Content     []byte
}

// RowError records an import failure for a single spreadsheet row.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportReport summarizes an import run. Failed rows never abort the run.
type ImportReport struct {
	Created int        `json:"created"`
	Updated int        `json:"updated"`
	Errors  []RowError `json:"errors"`
}

// ExportService renders scheduled sessions into downloadable documents and
// ingests session spreadsheets.
type ExportService struct {
	sessions scheduledLister
	writer   sessionWriter
	users    conductorByNameResolver
	excel    *export.ExcelExporter
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
	cfg      ExportServiceConfig
}

// ExportServiceParams groups constructor dependencies.
type ExportServiceParams struct {
	Sessions scheduledLister
	Writer   sessionWriter
	Users    conductorByNameResolver
	Metrics  *MetricsService
	Logger   *zap.Logger
	Config   ExportServiceConfig
}

// NewExportService constructs an ExportService with sane defaults.
func NewExportService(params ExportServiceParams) *ExportService {
	cfg := params.Config
	if cfg.SheetName == "" {
		cfg.SheetName = "Sessions"
	}
	if cfg.DateFormat == "" {
		cfg.DateFormat = "2006/01/02"
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		sessions: params.Sessions,
		writer:   params.Writer,
		users:    params.Users,
		excel:    export.NewExcelExporter(),
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		metrics:  params.Metrics,
		logger:   logger,
		now:      time.Now,
		cfg:      cfg,
	}
}

// Export renders all scheduled sessions, ordered by date, in the requested
// format. Staff only.
func (s *ExportService) Export(ctx context.Context, caller models.Caller, format string) (*ExportDocument, error) {
	if !caller.IsStaff {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only staff may export sessions")
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatXLSX
	}

	sessions, err := s.sessions.ListScheduledOrdered(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sessions for export")
	}
	data := s.dataset(sessions)

	var (
		content     []byte
		contentType string
	)
	switch format {
	case FormatXLSX:
		content, err = s.excel.Render(data, s.cfg.SheetName)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatCSV:
		content, err = s.csv.Render(data)
		contentType = "text/csv"
	case FormatPDF:
		content, err = s.pdf.Render(data, s.cfg.SheetName)
		contentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.metrics.RecordExport(format)
	return &ExportDocument{
		FileName:    fmt.Sprintf("sessions-%s.%s", s.now().UTC().Format("20060102"), format),
		ContentType: contentType,
		Content:     content,
	}, nil
}

// Import ingests an xlsx workbook of sessions. Rows are keyed on topic and
// conductor: a matching session is updated in place, otherwise a new
// scheduled session is created. Each row passes through the same validation
// as manual edits; failures are collected per row.
func (s *ExportService) Import(ctx context.Context, caller models.Caller, r io.Reader) (*ImportReport, error) {
	if !caller.IsStaff {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only staff may import sessions")
	}

	rows, err := s.excel.ReadSheet(r)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "could not read workbook; expected an xlsx file")
	}
	if len(rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "workbook is empty")
	}
	if err := checkHeaders(rows[0]); err != nil {
		return nil, err
	}

	report := &ImportReport{}
	for i, row := range rows[1:] {
		rowNum := i + 2
		if isBlankRow(row) {
			continue
		}
		created, err := s.importRow(ctx, caller, row)
		if err != nil {
			report.Errors = append(report.Errors, RowError{Row: rowNum, Message: errorMessage(err)})
			s.metrics.RecordImportRow("failed")
			continue
		}
		if created {
			report.Created++
			s.metrics.RecordImportRow("created")
		} else {
			report.Updated++
			s.metrics.RecordImportRow("updated")
		}
	}

	s.logger.Info("session import finished",
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("failed", len(report.Errors)))
	return report, nil
}

func (s *ExportService) dataset(sessions []models.Session) export.Dataset {
	data := export.Dataset{Headers: sheetHeaders}
	for i, session := range sessions {
		data.Rows = append(data.Rows, map[string]string{
			"No.":              strconv.Itoa(i + 1),
			"Topic":            session.Topic,
			"Date":             session.Date.Format(s.cfg.DateFormat),
			"Status":           string(session.Status),
			"Assigned To":      session.ConductorName,
			"Place":            session.Place,
			"Cancelled Reason": session.CancelledReason,
		})
	}
	return data
}

// importRow processes one data row. The bool result reports whether a new
// session was created rather than an existing one updated.
func (s *ExportService) importRow(ctx context.Context, caller models.Caller, row []string) (bool, error) {
	topic := strings.TrimSpace(cell(row, 1))
	if topic == "" {
		return false, appErrors.Clone(appErrors.ErrValidation, "topic must not be empty")
	}
	date, err := time.Parse(s.cfg.DateFormat, strings.TrimSpace(cell(row, 2)))
	if err != nil {
		return false, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("invalid date %q; expected format %s", cell(row, 2), s.cfg.DateFormat))
	}
	status := models.SessionStatus(strings.ToLower(strings.TrimSpace(cell(row, 3))))
	if status == "" {
		status = models.StatusScheduled
	}
	if !status.Valid() {
		return false, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", cell(row, 3)))
	}

	conductor, err := s.resolveByName(ctx, cell(row, 4))
	if err != nil {
		return false, err
	}
	place := strings.TrimSpace(cell(row, 5))
	reason := strings.TrimSpace(cell(row, 6))

	existing, err := s.writer.FindByTopicAndConductor(ctx, topic, conductor.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to match session")
	}

	if existing == nil {
		session, err := s.writer.Create(ctx, caller, CreateSessionRequest{
			Topic:       topic,
			Date:        date,
			Place:       place,
			ConductedBy: conductor.ID,
		})
		if err != nil {
			return false, err
		}
		if status != models.StatusScheduled || reason != "" {
			statusValue := string(status)
			if _, err := s.writer.Update(ctx, caller, session.ID, UpdateSessionRequest{
				Status:          &statusValue,
				CancelledReason: &reason,
			}); err != nil {
				return false, err
			}
		}
		return true, nil
	}

	statusValue := string(status)
	req := UpdateSessionRequest{
		Date:            &date,
		Place:           &place,
		Status:          &statusValue,
		CancelledReason: &reason,
	}
	if _, err := s.writer.Update(ctx, caller, existing.ID, req); err != nil {
		return false, err
	}
	return false, nil
}

func (s *ExportService) resolveByName(ctx context.Context, fullName string) (*models.User, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "assigned to must not be empty")
	}
	first, last := splitName(fullName)
	user, err := s.users.FindByFullName(ctx, first, last)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no user named %q", fullName))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve conductor")
	}
	return user, nil
}

func checkHeaders(row []string) error {
	for i, want := range sheetHeaders {
		if !strings.EqualFold(strings.TrimSpace(cell(row, i)), want) {
			return appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("unexpected header in column %d: want %q", i+1, want))
		}
	}
	return nil
}

func splitName(fullName string) (string, string) {
	parts := strings.Fields(fullName)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return row[i]
}

func isBlankRow(row []string) bool {
	for _, value := range row {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

func errorMessage(err error) string {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
