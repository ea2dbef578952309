// internal/web/inspection_pages.go
package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ammerola/keuringen-be/internal/core/domain"
	"github.com/ammerola/keuringen-be/internal/core/ports"
	"github.com/ammerola/keuringen-be/internal/handlers/middleware"
)

// dateInputLayout is the value format of <input type="datetime-local">
const dateInputLayout = "2006-01-02T15:04"

type listPage struct {
	View domain.ListView
}

type formPage struct {
	Form     url.Values
	Types    []domain.InspectionType
	Statuses []domain.InspectionStatus
}

// List handles GET /keuringen?zoek=&pagina=. A failed fetch is logged and
// shown as the empty list.
func (d *Dashboard) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	params := ports.ListParams{Query: q.Get("zoek")}
	if p, err := strconv.Atoi(q.Get("pagina")); err == nil {
		params.Page = p
	}

	view := domain.NewListView(nil, params.Query)
	errMsg := ""

	result, err := d.inspections.List(ctx, params)
	if err != nil {
		d.logger.ErrorContext(ctx, "failed to load inspections",
			slog.String("error", err.Error()))
		if d.opts.SurfaceErrors {
			errMsg = "De keuringen konden niet geladen worden."
		}
	} else {
		view = result.View
	}

	d.render(w, r, http.StatusOK, "keuringen.html", "Keuringen", listPage{View: view}, errMsg)
}

// Detail handles GET /keuringen/{id}
func (d *Dashboard) Detail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	rec, err := d.inspections.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrInspectionNotFound) || errors.Is(err, domain.ErrInvalidInput) {
			http.NotFound(w, r)
			return
		}
		d.logger.ErrorContext(ctx, "failed to load inspection",
			slog.String("inspection_id", id.String()),
			slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	d.render(w, r, http.StatusOK, "keuring_detail.html", "Keuring", rec, "")
}

// NewForm handles GET /keuringen/nieuw
func (d *Dashboard) NewForm(w http.ResponseWriter, r *http.Request) {
	form := url.Values{}
	form.Set("datum_toewijzing", time.Now().In(d.opts.Location).Format(dateInputLayout))
	form.Set("status", string(domain.StatusNew))
	d.renderForm(w, r, http.StatusOK, form, "")
}

// Create handles POST /keuringen/nieuw
func (d *Dashboard) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	in, err := parseInspectionForm(r.PostForm, d.opts.Location)
	if err != nil {
		d.renderForm(w, r, http.StatusUnprocessableEntity, r.PostForm, err.Error())
		return
	}
	if session, ok := middleware.SessionFromContext(ctx); ok {
		in.CreatedBy = session.UserID
	}

	rec, err := d.inspections.Create(ctx, in)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			d.renderForm(w, r, http.StatusUnprocessableEntity, r.PostForm, err.Error())
			return
		}
		d.logger.ErrorContext(ctx, "failed to create inspection", slog.String("error", err.Error()))
		d.renderForm(w, r, http.StatusInternalServerError, r.PostForm, "De keuring kon niet opgeslagen worden.")
		return
	}

	d.redirectWithFlash(w, r, "/keuringen/"+rec.ID.String(), "success", "Keuring toegevoegd.")
}

// Refresh handles POST /keuringen/refresh
func (d *Dashboard) Refresh(w http.ResponseWriter, r *http.Request) {
	back := pageURL(r.PostFormValue("zoek"), 1)
	if err := d.inspections.Refresh(r.Context()); err != nil {
		d.logger.ErrorContext(r.Context(), "failed to refresh inspections", slog.String("error", err.Error()))
		d.redirectWithFlash(w, r, back, "error", "Vernieuwen is mislukt.")
		return
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// Export handles POST /keuringen/export
func (d *Dashboard) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.PostFormValue("zoek")
	back := pageURL(query, 1)

	var userID uuid.UUID
	if session, ok := middleware.SessionFromContext(ctx); ok {
		userID = session.UserID
	}

	job, err := d.exports.RequestExport(ctx, query, userID)
	if err != nil {
		d.logger.ErrorContext(ctx, "failed to queue export", slog.String("error", err.Error()))
		d.redirectWithFlash(w, r, back, "error", "De export kon niet gestart worden.")
		return
	}

	s := d.session(r)
	s.AddFlash(FlashMessage{
		Type:    "success",
		Message: "Export gestart.",
		Link:    "/keuringen/export/" + job.ID,
	})
	d.save(w, r, s)
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// ExportDownload handles GET /keuringen/export/{task_id}. Finished exports
// redirect to the signed download link.
func (d *Dashboard) ExportDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	job, err := d.exports.Status(ctx, r.PathValue("task_id"))
	switch {
	case errors.Is(err, domain.ErrExportNotFound), errors.Is(err, domain.ErrInvalidInput):
		d.redirectWithFlash(w, r, "/keuringen", "error", "Deze export bestaat niet meer.")
		return
	case err != nil:
		d.logger.ErrorContext(ctx, "failed to get export status", slog.String("error", err.Error()))
		d.redirectWithFlash(w, r, "/keuringen", "error", "De export kon niet opgehaald worden.")
		return
	}

	switch job.Status {
	case domain.ExportCompleted:
		http.Redirect(w, r, job.DownloadURL, http.StatusFound)
	case domain.ExportFailed:
		d.redirectWithFlash(w, r, "/keuringen", "error", "De export is mislukt.")
	default:
		d.redirectWithFlash(w, r, "/keuringen", "info", "De export wordt nog verwerkt.")
	}
}

func (d *Dashboard) renderForm(w http.ResponseWriter, r *http.Request, status int, form url.Values, errMsg string) {
	d.render(w, r, status, "keuring_nieuw.html", "Nieuwe keuring", formPage{
		Form:     form,
		Types:    domain.AllTypes,
		Statuses: domain.AllStatuses,
	}, errMsg)
}

// parseInspectionForm maps the form fields onto the create input. Dates
// are read in loc.
func parseInspectionForm(form url.Values, loc *time.Location) (domain.CreateInspectionInput, error) {
	in := domain.CreateInspectionInput{
		Status:       domain.InspectionStatus(form.Get("status")),
		Type:         domain.InspectionType(form.Get("type")),
		Notes:        strings.TrimSpace(form.Get("opmerkingen")),
		Street:       form.Get("straatnaam"),
		Number:       form.Get("nummer"),
		PostalCode:   form.Get("postcode"),
		Municipality: form.Get("gemeente"),
		FirstName:    form.Get("voornaam"),
		LastName:     form.Get("familienaam"),
		Email:        form.Get("emailadres"),
		Phone:        strings.TrimSpace(form.Get("telefoonnummer")),
	}

	if raw := form.Get("datum_toewijzing"); raw != "" {
		t, err := time.ParseInLocation(dateInputLayout, raw, loc)
		if err != nil {
			return in, fmt.Errorf("%w: datum toewijzing is not a valid date", domain.ErrInvalidInput)
		}
		in.AssignedAt = t
	}

	if raw := form.Get("datum_plaatsbezoek"); raw != "" {
		t, err := time.ParseInLocation(dateInputLayout, raw, loc)
		if err != nil {
			return in, fmt.Errorf("%w: datum plaatsbezoek is not a valid date", domain.ErrInvalidInput)
		}
		in.SiteVisitAt = &t
	}

	if raw := strings.TrimSpace(form.Get("prijs")); raw != "" {
		p, err := decimal.NewFromString(strings.Replace(raw, ",", ".", 1))
		if err != nil {
			return in, fmt.Errorf("%w: prijs is not a number", domain.ErrInvalidInput)
		}
		in.Price = &p
	}

	return in, nil
}
