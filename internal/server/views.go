package server

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	"qadash/internal/catalog"
	"qadash/internal/domain"
	"qadash/internal/events"
	"qadash/internal/runner"
	"qadash/internal/session"
	"qadash/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{
	"login",
	"catalog",
	"history",
	"result",
	"profile",
	"reports",
	"settings",
	"notifications",
	"message",
}

var templateFuncs = template.FuncMap{
	"date":     catalog.FormatDate,
	"datetime": catalog.FormatDateTime,
	"lastRun": func(v *string) string {
		if v == nil {
			return "Never"
		}
		return catalog.FormatDate(*v)
	},
	"initials": session.Initials,
	"lower":    strings.ToLower,
	"statusClass": func(status string) string {
		return "status-" + strings.ToLower(status)
	},
	"confidence": func(v float64) string {
		return fmt.Sprintf("%.1f%%", v)
	},
	"query": func(f catalog.Filter, view string) template.URL {
		v := url.Values{}
		if f.Query != "" {
			v.Set("q", f.Query)
		}
		if f.Status != "" {
			v.Set("status", f.Status)
		}
		if f.Department != "" {
			v.Set("department", f.Department)
		}
		if f.Sort != "" {
			v.Set("sort", f.Sort)
		}
		v.Set("view", view)
		return template.URL("/?" + v.Encode())
	},
}

func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

type page struct {
	Title string
	Nav   string
	User  *domain.User
	Data  any
}

type messageData struct {
	Message  string
	LinkHref string
	LinkText string
}

type loginData struct {
	Email string
	Error string
}

type catalogData struct {
	Projects     []domain.Project
	Total        int
	Filter       catalog.Filter
	View         string
	Statuses     []string
	Departments  []string
	FormDepts    []string
	Environments []string
	Form         CreateProjectRequest
	FormError    string
}

type historyData struct {
	HistoryResponse
	Environments []string
	Today        string
	Config       projectConfig
	Frequencies  []string
	ConfigSaved  bool
}

// projectConfig is the per-project configuration panel. Saving it is
// accepted but not persisted, so every project shows these defaults.
type projectConfig struct {
	Notifications     bool
	NotifyOnFail      bool
	NotifyOnPass      bool
	AutoSchedule      bool
	ScheduleFrequency string
	Assignees         []string
	DataSource        string
	RetentionDays     int
}

var scheduleFrequencies = []string{"hourly", "daily", "weekly", "monthly"}

func defaultProjectConfig() projectConfig {
	return projectConfig{
		Notifications:     true,
		NotifyOnFail:      true,
		ScheduleFrequency: "daily",
		Assignees:         []string{"john.smith@company.com"},
		DataSource:        "SharePoint",
		RetentionDays:     90,
	}
}

type reportRow struct {
	Department string
	Projects   int
	Runs       int
}

type reportsData struct {
	ByStatus  map[string]int
	Statuses  []string
	Rows      []reportRow
	TotalRuns int
}

type notification struct {
	Title  string
	Detail string
	Type   string
	When   string
}

func (h *handler) registerViews(r chi.Router) {
	r.Get("/login", h.loginForm)
	r.Post("/login", h.login)
	r.Group(func(r chi.Router) {
		r.Use(h.requireUser)
		r.Post("/logout", h.logout)
		r.Get("/", h.catalogPage)
		r.Post("/projects", h.createProjectForm)
		r.Post("/projects/{projectId}/runs", h.triggerRunForm)
		r.Post("/projects/{projectId}/config", h.saveProjectConfig)
		r.Get("/history/{projectId}", h.historyPage)
		r.Get("/results/{resultId}", h.resultPage)
		r.Get("/profile", h.profilePage)
		r.Get("/reports", h.reportsPage)
		r.Get("/settings", h.settingsPage)
		r.Get("/notifications", h.notificationsPage)
	})
}

func (h *handler) render(w http.ResponseWriter, r *http.Request, status int, name string, p page) {
	if principal, ok := principalFromContext(r.Context()); ok {
		u := principal.User
		p.User = &u
	}
	var buf bytes.Buffer
	if err := h.pages[name].ExecuteTemplate(&buf, "layout", p); err != nil {
		h.Logger.Error("render template", "page", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (h *handler) renderMessage(w http.ResponseWriter, r *http.Request, status int, title, msg string) {
	h.render(w, r, status, "message", page{
		Title: title,
		Data:  messageData{Message: msg, LinkHref: "/", LinkText: "Back to projects"},
	})
}

// renderError maps a store or runner error onto a message page.
func (h *handler) renderError(w http.ResponseWriter, r *http.Request, what string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.renderMessage(w, r, http.StatusNotFound, what+" not found", "The "+strings.ToLower(what)+" you are looking for does not exist.")
	case errors.Is(err, runner.ErrInvalidRequest):
		h.renderMessage(w, r, http.StatusBadRequest, "Invalid request", err.Error())
	default:
		h.Logger.Error("view failed", "path", r.URL.Path, "error", err)
		h.renderMessage(w, r, http.StatusInternalServerError, "Something went wrong", "The request could not be completed.")
	}
}

func (h *handler) loginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.cookiePrincipal(r); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "login", page{Title: "Sign in", Data: loginData{}})
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, "login", page{Title: "Sign in", Data: loginData{Error: "Invalid form submission."}})
		return
	}
	email := strings.TrimSpace(r.PostForm.Get("email"))
	password := r.PostForm.Get("password")

	s := session.NewStore(h.Sessions.Options())
	if !s.Login(email, password) {
		h.render(w, r, http.StatusBadRequest, "login", page{
			Title: "Sign in",
			Data:  loginData{Email: email, Error: "Email and password are required."},
		})
		return
	}
	if oldID, _, ok := h.sessionFromCookie(r); ok {
		h.Sessions.Delete(oldID)
	}
	id := h.Sessions.Register(s)
	u, _ := s.CurrentUser()
	h.setSessionCookie(w, id)
	h.Metrics.LoggedIn()
	h.Events.Append(events.UserLogin, "", u.ID, u.ID, events.Payload{"source": "web"})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFromContext(r.Context())
	if s, ok := h.Sessions.Get(principal.SessionID); ok {
		s.Logout()
	}
	h.Sessions.Delete(principal.SessionID)
	h.clearSessionCookie(w)
	h.Events.Append(events.UserLogout, "", principal.User.ID, principal.User.ID, nil)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func catalogFilter(r *http.Request) (catalog.Filter, string) {
	q := r.URL.Query()
	view := q.Get("view")
	if view != catalog.ViewTable {
		view = catalog.ViewCard
	}
	return catalog.Filter{
		Query:      q.Get("q"),
		Status:     q.Get("status"),
		Department: q.Get("department"),
		Sort:       q.Get("sort"),
	}, view
}

func (h *handler) catalogPage(w http.ResponseWriter, r *http.Request) {
	h.renderCatalog(w, r, http.StatusOK, CreateProjectRequest{}, "")
}

func (h *handler) renderCatalog(w http.ResponseWriter, r *http.Request, status int, form CreateProjectRequest, formErr string) {
	all, err := h.Store.ListProjects(r.Context())
	if err != nil {
		h.renderError(w, r, "Project", err)
		return
	}
	f, view := catalogFilter(r)
	h.render(w, r, status, "catalog", page{
		Title: "Projects",
		Nav:   "projects",
		Data: catalogData{
			Projects:     catalog.Apply(all, f),
			Total:        len(all),
			Filter:       f,
			View:         view,
			Statuses:     domain.ProjectStatuses,
			Departments:  catalog.Departments(all),
			FormDepts:    domain.Departments,
			Environments: domain.Environments,
			Form:         form,
			FormError:    formErr,
		},
	})
}

func (h *handler) createProjectForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderCatalog(w, r, http.StatusBadRequest, CreateProjectRequest{}, "Invalid form submission.")
		return
	}
	form := CreateProjectRequest{
		ID:          r.PostForm.Get("id"),
		Name:        r.PostForm.Get("name"),
		Department:  r.PostForm.Get("department"),
		Domain:      r.PostForm.Get("domain"),
		Description: r.PostForm.Get("description"),
	}
	p := form.project()
	if p.ID == "" || p.Name == "" {
		h.renderCatalog(w, r, http.StatusBadRequest, form, "Project ID and name are required.")
		return
	}
	principal, _ := principalFromContext(r.Context())
	if err := h.createProject(r.Context(), p, principal.User.ID); err != nil {
		h.renderError(w, r, "Project", err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *handler) triggerRunForm(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectId")
	if err := r.ParseForm(); err != nil {
		h.renderMessage(w, r, http.StatusBadRequest, "Invalid request", "Invalid form submission.")
		return
	}
	req := domain.RunRequest{
		ReferenceID:   r.PostForm.Get("reference_id"),
		Environment:   r.PostForm.Get("environment"),
		ExecutionDate: r.PostForm.Get("execution_date"),
		Notes:         r.PostForm.Get("notes"),
	}
	principal, _ := principalFromContext(r.Context())
	if _, err := h.Runner.Trigger(r.Context(), projectID, principal.User.ID, req); err != nil {
		h.renderError(w, r, "Project", err)
		return
	}
	http.Redirect(w, r, "/history/"+url.PathEscape(projectID), http.StatusSeeOther)
}

func (h *handler) historyPage(w http.ResponseWriter, r *http.Request) {
	hist, err := h.history(r.Context(), chi.URLParam(r, "projectId"))
	if err != nil {
		h.renderError(w, r, "Project", err)
		return
	}
	h.render(w, r, http.StatusOK, "history", page{
		Title: hist.Project.Name + " history",
		Nav:   "projects",
		Data: historyData{
			HistoryResponse: hist,
			Environments:    domain.Environments,
			Today:           time.Now().Format("2006-01-02"),
			Config:          defaultProjectConfig(),
			Frequencies:     scheduleFrequencies,
			ConfigSaved:     r.URL.Query().Get("saved") == "1",
		},
	})
}

func (h *handler) saveProjectConfig(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectId")
	if _, err := h.Store.GetProject(r.Context(), id); err != nil {
		h.renderError(w, r, "Project", err)
		return
	}
	http.Redirect(w, r, "/history/"+url.PathEscape(id)+"?saved=1", http.StatusSeeOther)
}

func (h *handler) resultPage(w http.ResponseWriter, r *http.Request) {
	d, err := h.Synth.GetResultDetail(r.Context(), chi.URLParam(r, "resultId"))
	if err != nil {
		h.renderError(w, r, "Result", err)
		return
	}
	h.Metrics.ResultSynthesized(d.Status)
	h.render(w, r, http.StatusOK, "result", page{Title: "Result " + d.ResultID, Nav: "projects", Data: d})
}

func (h *handler) profilePage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "profile", page{Title: "Profile", Nav: "profile"})
}

func (h *handler) settingsPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "settings", page{Title: "Settings", Nav: "settings"})
}

func (h *handler) reportsPage(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Store.ListProjects(r.Context())
	if err != nil {
		h.renderError(w, r, "Report", err)
		return
	}
	data := reportsData{ByStatus: map[string]int{}, Statuses: domain.ProjectStatuses}
	rows := map[string]*reportRow{}
	for _, p := range projects {
		data.ByStatus[p.Status]++
		data.TotalRuns += p.TotalRuns
		row, ok := rows[p.Department]
		if !ok {
			row = &reportRow{Department: p.Department}
			rows[p.Department] = row
		}
		row.Projects++
		row.Runs += p.TotalRuns
	}
	for _, row := range rows {
		data.Rows = append(data.Rows, *row)
	}
	sort.Slice(data.Rows, func(i, j int) bool { return data.Rows[i].Department < data.Rows[j].Department })
	h.render(w, r, http.StatusOK, "reports", page{Title: "Reports", Nav: "reports", Data: data})
}

func (h *handler) notificationsPage(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	var items []notification
	for _, evt := range h.Events.Latest(50) {
		items = append(items, describeEvent(evt, now))
	}
	h.render(w, r, http.StatusOK, "notifications", page{Title: "Notifications", Nav: "notifications", Data: items})
}

func describeEvent(evt domain.Event, now time.Time) notification {
	n := notification{Type: evt.Type, When: evt.TS}
	if ts, err := time.Parse(time.RFC3339, evt.TS); err == nil {
		n.When = humanize.RelTime(ts, now, "ago", "from now")
	}
	switch evt.Type {
	case events.ProjectCreated:
		n.Title = "Project created"
		n.Detail = fmt.Sprintf("%s was added to the catalog.", evt.ProjectID)
	case events.ProjectUpdated:
		n.Title = "Project updated"
		n.Detail = fmt.Sprintf("%s was updated.", evt.ProjectID)
	case events.RunTriggered:
		n.Title = "Run started"
		n.Detail = fmt.Sprintf("Run %s started for %s.", evt.EntityID, evt.ProjectID)
	case events.RunCompleted:
		n.Title = "Run completed"
		n.Detail = fmt.Sprintf("Run %s for %s finished with status %v.", evt.EntityID, evt.ProjectID, evt.Payload["status"])
	case events.UserLogin:
		n.Title = "Signed in"
		n.Detail = fmt.Sprintf("%s signed in.", evt.ActorID)
	case events.UserLogout:
		n.Title = "Signed out"
		n.Detail = fmt.Sprintf("%s signed out.", evt.ActorID)
	default:
		n.Title = evt.Type
	}
	return n
}
