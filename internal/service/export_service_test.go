package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trainhub/training-admin-api/internal/models"
	"github.com/trainhub/training-admin-api/pkg/export"
)

type fakeScheduledLister struct {
	sessions []models.Session
}

func (f *fakeScheduledLister) ListScheduledOrdered(context.Context) ([]models.Session, error) {
	return f.sessions, nil
}

type fakeNameResolver struct {
	users map[string]*models.User
}

func (f *fakeNameResolver) FindByFullName(_ context.Context, firstName, lastName string) (*models.User, error) {
	key := strings.ToLower(strings.TrimSpace(firstName + " " + lastName))
	user, ok := f.users[key]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

type fakeImportWriter struct {
	existing map[string]*models.Session
	created  []CreateSessionRequest
	updated  map[string]UpdateSessionRequest
}

func newFakeImportWriter(existing ...*models.Session) *fakeImportWriter {
	w := &fakeImportWriter{existing: map[string]*models.Session{}, updated: map[string]UpdateSessionRequest{}}
	for _, s := range existing {
		w.existing[s.Topic+"|"+s.ConductedBy] = s
	}
	return w
}

func (f *fakeImportWriter) FindByTopicAndConductor(_ context.Context, topic, conductorID string) (*models.Session, error) {
	if session, ok := f.existing[topic+"|"+conductorID]; ok {
		return session, nil
	}
	return nil, nil
}

func (f *fakeImportWriter) Create(_ context.Context, _ models.Caller, req CreateSessionRequest) (*models.Session, error) {
	f.created = append(f.created, req)
	return &models.Session{ID: "new-" + req.Topic, Topic: req.Topic, ConductedBy: req.ConductedBy, Status: models.StatusScheduled}, nil
}

func (f *fakeImportWriter) Update(_ context.Context, _ models.Caller, id string, req UpdateSessionRequest) (*models.Session, error) {
	f.updated[id] = req
	return &models.Session{ID: id}, nil
}

func newExportSvc(sessions []models.Session, writer *fakeImportWriter, users *fakeNameResolver) *ExportService {
	svc := NewExportService(ExportServiceParams{
		Sessions: &fakeScheduledLister{sessions: sessions},
		Writer:   writer,
		Users:    users,
	})
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func exportFixtures() []models.Session {
	return []models.Session{
		{
			ID:            "s1",
			Topic:         "Go Fundamentals",
			Date:          time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
			Place:         "Room A",
			ConductorName: "Ada Lovelace",
			Status:        models.StatusScheduled,
		},
		{
			ID:            "s2",
			Topic:         "Kubernetes Basics",
			Date:          time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC),
			Place:         "Room B",
			ConductorName: "Grace Hopper",
			Status:        models.StatusScheduled,
		},
	}
}

func TestExportRequiresStaff(t *testing.T) {
	svc := newExportSvc(nil, newFakeImportWriter(), &fakeNameResolver{})

	_, err := svc.Export(context.Background(), selfCaller, "csv")
	require.Error(t, err)
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	svc := newExportSvc(nil, newFakeImportWriter(), &fakeNameResolver{})

	_, err := svc.Export(context.Background(), staffCaller, "docx")
	require.Error(t, err)
}

func TestExportCSVLayout(t *testing.T) {
	svc := newExportSvc(exportFixtures(), newFakeImportWriter(), &fakeNameResolver{})

	doc, err := svc.Export(context.Background(), staffCaller, "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", doc.ContentType)
	assert.Equal(t, "sessions-20250601.csv", doc.FileName)

	records, err := csv.NewReader(bytes.NewReader(doc.Content)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"No.", "Topic", "Date", "Status", "Assigned To", "Place", "Cancelled Reason"}, records[0])
	assert.Equal(t, []string{"1", "Go Fundamentals", "2025/07/01", "scheduled", "Ada Lovelace", "Room A", ""}, records[1])
	assert.Equal(t, "2", records[2][0])
}

func TestExportRendersXLSXAndPDF(t *testing.T) {
	svc := newExportSvc(exportFixtures(), newFakeImportWriter(), &fakeNameResolver{})

	xlsxDoc, err := svc.Export(context.Background(), staffCaller, "xlsx")
	require.NoError(t, err)
	assert.NotEmpty(t, xlsxDoc.Content)

	pdfDoc, err := svc.Export(context.Background(), staffCaller, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdfDoc.ContentType)
	assert.True(t, bytes.HasPrefix(pdfDoc.Content, []byte("%PDF")))
}

func importWorkbook(t *testing.T, rows [][]string) *bytes.Reader {
	t.Helper()
	data := export.Dataset{Headers: []string{"No.", "Topic", "Date", "Status", "Assigned To", "Place", "Cancelled Reason"}}
	for _, row := range rows {
		entry := map[string]string{}
		for i, header := range data.Headers {
			if i < len(row) {
				entry[header] = row[i]
			}
		}
		data.Rows = append(data.Rows, entry)
	}
	content, err := export.NewExcelExporter().Render(data, "Sessions")
	require.NoError(t, err)
	return bytes.NewReader(content)
}

func TestImportCreatesAndUpdates(t *testing.T) {
	existing := &models.Session{ID: "s1", Topic: "Go Fundamentals", ConductedBy: "u1", Status: models.StatusScheduled}
	writer := newFakeImportWriter(existing)
	users := &fakeNameResolver{users: map[string]*models.User{
		"ada lovelace": {ID: "u1", FirstName: "Ada", LastName: "Lovelace"},
		"grace hopper": {ID: "u2", FirstName: "Grace", LastName: "Hopper"},
	}}
	svc := newExportSvc(nil, writer, users)

	report, err := svc.Import(context.Background(), staffCaller, importWorkbook(t, [][]string{
		{"1", "Go Fundamentals", "2025/07/05", "scheduled", "Ada Lovelace", "Room C", ""},
		{"2", "SQL Tuning", "2025/08/01", "scheduled", "Grace Hopper", "Room B", ""},
	}))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Updated)
	assert.Empty(t, report.Errors)

	require.Len(t, writer.created, 1)
	assert.Equal(t, "SQL Tuning", writer.created[0].Topic)
	assert.Equal(t, "u2", writer.created[0].ConductedBy)

	update, ok := writer.updated["s1"]
	require.True(t, ok)
	assert.Equal(t, "Room C", *update.Place)
	assert.Equal(t, time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC), *update.Date)
}

func TestImportCollectsRowErrors(t *testing.T) {
	writer := newFakeImportWriter()
	users := &fakeNameResolver{users: map[string]*models.User{
		"ada lovelace": {ID: "u1", FirstName: "Ada", LastName: "Lovelace"},
	}}
	svc := newExportSvc(nil, writer, users)

	report, err := svc.Import(context.Background(), staffCaller, importWorkbook(t, [][]string{
		{"1", "Go Fundamentals", "not-a-date", "scheduled", "Ada Lovelace", "", ""},
		{"2", "SQL Tuning", "2025/08/01", "scheduled", "Nobody Known", "", ""},
		{"3", "Valid Row", "2025/08/02", "scheduled", "Ada Lovelace", "", ""},
	}))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 0, report.Updated)
	require.Len(t, report.Errors, 2)
	assert.Equal(t, 2, report.Errors[0].Row)
	assert.Equal(t, 3, report.Errors[1].Row)
}

func TestImportRejectsWrongHeaders(t *testing.T) {
	svc := newExportSvc(nil, newFakeImportWriter(), &fakeNameResolver{})

	data := export.Dataset{Headers: []string{"Name", "When"}, Rows: nil}
	content, err := export.NewExcelExporter().Render(data, "Sessions")
	require.NoError(t, err)

	_, err = svc.Import(context.Background(), staffCaller, bytes.NewReader(content))
	require.Error(t, err)
}

func TestImportRequiresStaff(t *testing.T) {
	svc := newExportSvc(nil, newFakeImportWriter(), &fakeNameResolver{})

	_, err := svc.Import(context.Background(), selfCaller, bytes.NewReader(nil))
	require.Error(t, err)
}
