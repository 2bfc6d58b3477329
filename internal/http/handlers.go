package http

import (
	"bytes"
	"context"
	"net/http"
	"strconv"

	"myexpense/internal/charts"
	"myexpense/internal/core"
	"myexpense/internal/export"
	"myexpense/internal/ledger"
	"myexpense/internal/log"
	"myexpense/internal/session"
)

type confirmKey struct{}

// withConfirmation records whether the client confirmed a destructive action.
func withConfirmation(ctx context.Context, ok bool) context.Context {
	return context.WithValue(ctx, confirmKey{}, ok)
}

// RequestConfirmer approves a deletion only when the request carried
// confirm=true.
var RequestConfirmer = session.ConfirmFunc(func(ctx context.Context, _ core.Transaction) bool {
	ok, _ := ctx.Value(confirmKey{}).(bool)
	return ok
})

func (s *Server) revision() int64 {
	if s.deps.Loader == nil {
		return 0
	}
	return s.deps.Loader.Revision()
}

func (s *Server) filterFromQuery(w http.ResponseWriter, r *http.Request) (core.Filter, bool) {
	f, err := ParseFilterQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return core.Filter{}, false
	}
	return f, true
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f, ok := s.filterFromQuery(w, r)
	if !ok {
		return
	}
	d := s.deps.Dashboards.Dashboard(f)
	NewJSONResponse().Revision(d.Revision).JSON(newListView(d)).Write(w)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(w, r)
	if err := parser.Parse(); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Malformed request body", log.FieldError, err.Error())
		BadRequestError("malformed request body").Write(w)
		return
	}

	op, status := log.OpCreate, http.StatusCreated
	if !s.deps.Editor.State().Idle() {
		op, status = log.OpUpdate, http.StatusOK
	}

	t, err := s.deps.Editor.Submit(r.Context(), parser.Fields())
	if err != nil {
		s.writeError(w, r, op, err)
		return
	}
	NewJSONResponse().Status(status).Revision(s.revision()).JSON(newTransactionView(t)).Write(w)
}

func (s *Server) handleBeginEdit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	fields, err := s.deps.Editor.BeginEdit(id)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().JSON(editView{Editing: true, ID: id, Fields: fields}).Write(w)
}

func (s *Server) handleEditState(w http.ResponseWriter, r *http.Request) {
	st := s.deps.Editor.State()
	NewJSONResponse().JSON(editView{Editing: !st.Idle(), ID: st.EditingID}).Write(w)
}

func (s *Server) handleCancelEdit(w http.ResponseWriter, r *http.Request) {
	s.deps.Editor.Cancel()
	NewJSONResponse().JSON(editView{}).Write(w)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	ctx := withConfirmation(r.Context(), confirmed)

	if err := s.deps.Editor.Delete(ctx, id); err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	NoContent().Revision(s.revision()).Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	d := s.deps.Dashboards.Dashboard(core.Filter{})
	NewJSONResponse().Revision(d.Revision).JSON(newSummaryView(d)).Write(w)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	f, ok := s.filterFromQuery(w, r)
	if !ok {
		return
	}
	d := s.deps.Dashboards.Dashboard(f)

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, export.ToRows(d.Rows)); err != nil {
		s.writeError(w, r, log.OpExport, err)
		return
	}
	NewJSONResponse().
		Revision(d.Revision).
		Body("text/csv; charset=utf-8", buf.Bytes()).
		Attachment(export.FileName(s.prefix, export.ExtCSV, s.now())).
		Write(w)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	f, ok := s.filterFromQuery(w, r)
	if !ok {
		return
	}
	d := s.deps.Dashboards.Dashboard(f)

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, export.ToRows(d.Rows)); err != nil {
		s.writeError(w, r, log.OpExport, err)
		return
	}
	NewJSONResponse().
		Revision(d.Revision).
		Body(export.ContentTypeXLSX, buf.Bytes()).
		Attachment(export.FileName(s.prefix, export.ExtXLSX, s.now())).
		Write(w)
}

func (s *Server) handleExportSheet(w http.ResponseWriter, r *http.Request) {
	if s.deps.Sheets == nil {
		ErrorResponse(http.StatusServiceUnavailable, "spreadsheet export is not configured").Write(w)
		return
	}
	f, ok := s.filterFromQuery(w, r)
	if !ok {
		return
	}
	d := s.deps.Dashboards.Dashboard(f)
	if err := export.WriteSheet(r.Context(), s.deps.Sheets, export.ToRows(d.Rows)); err != nil {
		s.events.LogError(r.Context(), "Sheet export failed", err, log.OpExport, log.NewFields().WithFilter(f))
		ErrorResponse(http.StatusBadGateway, "spreadsheet export failed").Write(w)
		return
	}
	NewJSONResponse().Revision(d.Revision).JSON(map[string]int{"rows": len(d.Rows)}).Write(w)
}

func (s *Server) handleCategoryChart(w http.ResponseWriter, r *http.Request) {
	d := s.deps.Dashboards.Dashboard(core.Filter{})
	png, err := charts.CategoryBreakdown(d.Categories)
	s.writeChart(w, r, png, err)
}

func (s *Server) handleMonthlyChart(w http.ResponseWriter, r *http.Request) {
	d := s.deps.Dashboards.Dashboard(core.Filter{})
	png, err := charts.MonthlyComparison(d.Series)
	s.writeChart(w, r, png, err)
}

func (s *Server) writeChart(w http.ResponseWriter, r *http.Request, png []byte, err error) {
	if err != nil {
		s.writeError(w, r, log.OpRender, err)
		return
	}
	NewJSONResponse().Header("Cache-Control", "no-store").Body(charts.ContentType, png).Write(w)
}

func (s *Server) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	t, err := s.deps.Themes.Get(r.Context())
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().JSON(themeView{Theme: string(t)}).Write(w)
}

func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(w, r)
	if err := parser.Parse(); err != nil {
		BadRequestError("malformed request body").Write(w)
		return
	}
	t, err := ledger.ParseTheme(parser.Get("theme"))
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	if err := s.deps.Themes.Set(r.Context(), t); err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().JSON(themeView{Theme: string(t)}).Write(w)
}

func (s *Server) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	t, err := s.deps.Themes.Toggle(r.Context())
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().JSON(themeView{Theme: string(t)}).Write(w)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	records, err := s.deps.Loader.Load(r.Context())
	if err != nil {
		s.writeError(w, r, log.OpLoad, err)
		return
	}
	rev := s.deps.Loader.Revision()
	NewJSONResponse().Revision(rev).JSON(map[string]any{"count": len(records), "revision": rev}).Write(w)
}
