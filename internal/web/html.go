package web

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/billed-app/billdesk/internal/bill"
	"github.com/billed-app/billdesk/internal/submission"
	"github.com/billed-app/billdesk/internal/triage"
)

//go:embed templates/*.html
var templatesFS embed.FS

// expenseTypes are the categories offered on the new-bill form.
var expenseTypes = []string{
	"Transports",
	"Restaurants et bars",
	"Hôtel et logement",
	"Services en ligne",
	"IT et électronique",
	"Equipement et matériel",
	"Fournitures de bureau",
}

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"statusLabel":  bill.FormatStatus,
	"formatDate":   bill.FormatDate,
	"expenseTypes": func() []string { return expenseTypes },
}).ParseFS(templatesFS, "templates/*.html"))

// billRow is one line of the employee bills table, display-ready.
type billRow struct {
	Type    string
	Name    string
	Date    string
	Amount  int
	Status  string
	FileURL string
}

type billsPage struct {
	User  bill.User
	Rows  []billRow
	Error string
}

type newBillPage struct {
	User  bill.User
	State submission.State
	Form  submission.Form
}

type dashboardPage struct {
	User   bill.User
	Panels []triage.PanelView
	Detail triage.DetailView
	Error  string
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("Error rendering template", "template", name, "error", err)
	}
}
