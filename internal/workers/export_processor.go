// internal/workers/export_processor.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/tealeg/xlsx/v3"
	"golang.org/x/sync/errgroup"

	"github.com/ammerola/keuringen-be/internal/adapters/storage"
	"github.com/ammerola/keuringen-be/internal/core/domain"
	"github.com/ammerola/keuringen-be/internal/core/ports"
	"github.com/ammerola/keuringen-be/internal/core/services"
	"github.com/ammerola/keuringen-be/internal/workers/tasks"
)

// ExportHeaders are the column titles of the Keuringen sheet
var ExportHeaders = []string{
	"Datum toewijzing",
	"Onderneming",
	"Klant",
	"Adres",
	"Postcode",
	"Gemeente",
	"Type",
	"Status",
	"Datum plaatsbezoek",
	"Prijs",
	"Opmerkingen",
}

// ExportOptions configures where exports go and how they are rendered
type ExportOptions struct {
	KeyPrefix string
	Location  *time.Location
	StatusTTL time.Duration
}

// ExportProcessor renders the inspection list to an xlsx workbook
type ExportProcessor struct {
	inspections ports.InspectionService
	storage     ports.FileStorage
	cache       ports.CacheRepository
	opts        ExportOptions
	logger      *slog.Logger
}

// NewExportProcessor creates a new export processor
func NewExportProcessor(inspections ports.InspectionService, fs ports.FileStorage, cache ports.CacheRepository, opts ExportOptions, logger *slog.Logger) *ExportProcessor {
	if opts.StatusTTL <= 0 {
		opts.StatusTTL = 24 * time.Hour
	}
	return &ExportProcessor{
		inspections: inspections,
		storage:     fs,
		cache:       cache,
		opts:        opts,
		logger:      logger.With(slog.String("processor", "export")),
	}
}

// ProcessExport handles tasks.TypeExportInspections
func (p *ExportProcessor) ProcessExport(ctx context.Context, t *asynq.Task) error {
	var payload tasks.ExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	jobID, ok := asynq.GetTaskID(ctx)
	if !ok || jobID == "" {
		jobID = uuid.NewString()
	}

	job := &domain.ExportJob{
		ID:          jobID,
		Status:      domain.ExportProcessing,
		Query:       payload.Query,
		RequestedBy: payload.RequestedBy,
		CreatedAt:   payload.RequestedAt,
	}
	p.saveStatus(ctx, job)

	p.logger.InfoContext(ctx, "processing export",
		slog.String("job_id", jobID),
		slog.String("query", payload.Query))

	records, err := p.inspections.Load(ctx)
	if err != nil {
		return p.fail(ctx, job, err)
	}
	rows := domain.Filter(records, payload.Query)

	file, err := BuildWorkbook(rows, p.opts.Location)
	if err != nil {
		return p.fail(ctx, job, err)
	}

	key := fmt.Sprintf("%skeuringen_%s_%s.xlsx",
		p.opts.KeyPrefix, time.Now().In(p.location()).Format("20060102_150405"), jobID)
	if err := p.upload(ctx, key, file); err != nil {
		return p.fail(ctx, job, err)
	}

	job.Status = domain.ExportCompleted
	job.Rows = len(rows)
	job.Key = key
	p.saveStatus(ctx, job)

	p.logger.InfoContext(ctx, "export completed",
		slog.String("job_id", jobID),
		slog.String("key", key),
		slog.Int("rows", len(rows)))

	return nil
}

// upload streams the workbook into storage without buffering it
func (p *ExportProcessor) upload(ctx context.Context, key string, file *xlsx.File) error {
	pr, pw := io.Pipe()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := file.Write(pw)
		pw.CloseWithError(err)
		if err != nil {
			return fmt.Errorf("writing workbook: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		_, err := p.storage.Upload(gctx, key, pr, storage.XLSXContentType)
		pr.CloseWithError(err)
		if err != nil {
			return fmt.Errorf("uploading export: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func (p *ExportProcessor) fail(ctx context.Context, job *domain.ExportJob, err error) error {
	job.Status = domain.ExportFailed
	job.Error = err.Error()
	p.saveStatus(ctx, job)

	p.logger.ErrorContext(ctx, "export failed",
		slog.String("job_id", job.ID),
		slog.String("error", err.Error()))
	return err
}

func (p *ExportProcessor) saveStatus(ctx context.Context, job *domain.ExportJob) {
	job.UpdatedAt = time.Now()
	if err := p.cache.SetWithTTL(ctx, services.ExportStatusKey(job.ID), job, p.opts.StatusTTL); err != nil {
		p.logger.WarnContext(ctx, "failed to store export status",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()))
	}
}

func (p *ExportProcessor) location() *time.Location {
	if p.opts.Location != nil {
		return p.opts.Location
	}
	return time.Local
}

// BuildWorkbook renders rows into a workbook with a Keuringen sheet and a
// per-status Overzicht sheet
func BuildWorkbook(rows []domain.Inspection, loc *time.Location) (*xlsx.File, error) {
	file := xlsx.NewFile()

	sheet, err := file.AddSheet("Keuringen")
	if err != nil {
		return nil, fmt.Errorf("failed to add worksheet: %w", err)
	}
	addHeaderRow(sheet, ExportHeaders)

	counts := make(map[domain.InspectionStatus]int)
	for _, rec := range rows {
		counts[rec.Status]++

		row := sheet.AddRow()
		row.AddCell().Value = domain.FormatDate(rec.AssignedAt, loc)
		row.AddCell().Value = rec.CompanyName
		row.AddCell().Value = rec.Address.Client.FullName()
		row.AddCell().Value = rec.Address.Street + " " + rec.Address.Number
		row.AddCell().Value = rec.Address.PostalCode
		row.AddCell().Value = rec.Address.Municipality
		row.AddCell().Value = string(rec.Type)
		row.AddCell().Value = string(rec.Status)

		visit := row.AddCell()
		if rec.SiteVisitAt != nil {
			visit.Value = domain.FormatDate(*rec.SiteVisitAt, loc)
		}

		price := row.AddCell()
		if rec.Price != nil {
			f, _ := rec.Price.Float64()
			price.SetFloat(f)
		}

		row.AddCell().Value = rec.Notes
	}

	for i := range ExportHeaders {
		sheet.SetColWidth(i+1, i+1, 18)
	}

	summary, err := file.AddSheet("Overzicht")
	if err != nil {
		return nil, fmt.Errorf("failed to add summary sheet: %w", err)
	}
	addHeaderRow(summary, []string{"Status", "Aantal"})
	for _, status := range domain.AllStatuses {
		row := summary.AddRow()
		row.AddCell().Value = string(status)
		row.AddCell().SetInt(counts[status])
	}
	total := summary.AddRow()
	total.AddCell().Value = "Totaal"
	total.AddCell().SetInt(len(rows))

	return file, nil
}

func addHeaderRow(sheet *xlsx.Sheet, headers []string) {
	row := sheet.AddRow()
	for _, header := range headers {
		cell := row.AddCell()
		cell.Value = header
		style := cell.GetStyle()
		style.Font.Bold = true
		style.Fill.PatternType = "solid"
		style.Fill.FgColor = "CCCCCC"
	}
}
