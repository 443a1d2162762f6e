package web

import (
	"io"
	"log/slog"
	"math"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/billed-app/billdesk/internal/bill"
	"github.com/billed-app/billdesk/internal/submission"
	"github.com/billed-app/billdesk/internal/triage"
)

// handleRoot sends a visitor to the view matching their session.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookie)
	if err == nil {
		if user, err := s.sessions.Get(cookie.Value); err == nil {
			http.Redirect(w, r, homeRoute(user), http.StatusSeeOther)
			return
		}
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func homeRoute(user bill.User) string {
	if user.Type == "Admin" {
		return triage.RouteDashboard
	}
	return submission.RouteBills
}

// handleLoginPage serves the login form
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, "login.html", nil)
}

// handleLogin creates a session for the chosen identity
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	user := bill.User{
		Type:  r.FormValue("type"),
		Email: strings.TrimSpace(r.FormValue("email")),
	}
	if user.Email == "" || (user.Type != "Employee" && user.Type != "Admin") {
		http.Error(w, "Invalid identity", http.StatusBadRequest)
		return
	}

	token, err := s.sessions.Create(user)
	if err != nil {
		slog.Error("Failed to create session", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
	})
	http.Redirect(w, r, homeRoute(user), http.StatusSeeOther)
}

// handleLogout destroys the session
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, token string, user bill.User) {
	if err := s.sessions.Delete(token); err != nil {
		slog.Warn("Failed to delete session", "error", err)
	}
	s.dropControllers(token)
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleBills renders the employee's own bills. A store failure surfaces its
// raw message in the view.
func (s *Server) handleBills(w http.ResponseWriter, r *http.Request, token string, user bill.User) {
	page := billsPage{User: user}

	bills, err := s.billStore.List(r.Context())
	if err != nil {
		slog.Error("Failed to load bills", "error", err)
		page.Error = err.Error()
		s.render(w, "bills.html", page)
		return
	}

	for _, b := range bills {
		if b.Email != user.Email {
			continue
		}
		page.Rows = append(page.Rows, billRow{
			Type:    b.Type,
			Name:    b.Name,
			Date:    bill.FormatDate(b.Date),
			Amount:  b.Amount,
			Status:  bill.FormatStatus(b.Status),
			FileURL: b.FileURL,
		})
	}
	s.render(w, "bills.html", page)
}

// handleNewBillPage serves the new-bill form
func (s *Server) handleNewBillPage(w http.ResponseWriter, r *http.Request, token string, user bill.User) {
	c := s.submissionController(token, user)
	s.render(w, "newbill.html", newBillPage{User: user, State: c.State()})
}

// handleChangeFile handles a receipt file selection on the new-bill form.
// Only the first file of the selection is considered.
func (s *Server) handleChangeFile(w http.ResponseWriter, r *http.Request, token string, user bill.User) {
	if err := r.ParseMultipartForm(50 << 20); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		http.Error(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	c := s.submissionController(token, user)
	page := newBillPage{User: user, Form: formValues(r)}

	f, header, err := r.FormFile("file")
	if err != nil {
		page.State = c.State()
		s.render(w, "newbill.html", page)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		http.Error(w, "Error reading file", http.StatusInternalServerError)
		return
	}

	state := c.HandleChangeFile(r.Context(), submission.FileSelection{
		Name:        header.Filename,
		ContentType: selectionContentType(header.Header.Get("Content-Type"), header.Filename),
		Data:        data,
	})

	if state.Suggestion != nil {
		if page.Form.Name == "" {
			page.Form.Name = state.Suggestion.Name
		}
		if page.Form.Date == "" {
			page.Form.Date = state.Suggestion.Date
		}
		if page.Form.Amount == "" && state.Suggestion.Amount > 0 {
			page.Form.Amount = strconv.Itoa(int(math.Round(state.Suggestion.Amount)))
		}
	}

	page.State = state
	s.render(w, "newbill.html", page)
}

// handleSubmitBill finalizes the draft bill
func (s *Server) handleSubmitBill(w http.ResponseWriter, r *http.Request, token string, user bill.User) {
	if err := r.ParseMultipartForm(50 << 20); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		http.Error(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	c := s.submissionController(token, user)
	route, ok := c.HandleSubmit(r.Context(), formValues(r))
	if !ok {
		// Stay on the form; the file-field error (if any) is already shown.
		s.render(w, "newbill.html", newBillPage{User: user, State: c.State(), Form: formValues(r)})
		return
	}

	s.dropSubmission(token)
	http.Redirect(w, r, route, http.StatusSeeOther)
}

// handleDashboard renders the admin triage view. A store failure surfaces
// its raw message in the view.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, token string, user bill.User) {
	c := s.triageController(token, user)
	page := dashboardPage{User: user, Detail: c.Detail()}

	if _, err := c.ListBills(r.Context()); err != nil {
		slog.Error("Failed to load bills", "error", err)
		page.Error = err.Error()
	}

	for index := 1; index <= 3; index++ {
		page.Panels = append(page.Panels, c.Panel(index))
	}
	s.render(w, "dashboard.html", page)
}

// handleTogglePanel expands or collapses a status panel
func (s *Server) handleTogglePanel(w http.ResponseWriter, r *http.Request, token string, user bill.User) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || index < 1 || index > 3 {
		http.Error(w, "Invalid panel index", http.StatusBadRequest)
		return
	}

	c := s.triageController(token, user)
	if _, err := c.TogglePanel(r.Context(), index); err != nil {
		slog.Error("Failed to toggle panel", "index", index, "error", err)
		page := dashboardPage{User: user, Error: err.Error(), Detail: c.Detail()}
		for i := 1; i <= 3; i++ {
			page.Panels = append(page.Panels, c.Panel(i))
		}
		s.render(w, "dashboard.html", page)
		return
	}

	http.Redirect(w, r, triage.RouteDashboard, http.StatusSeeOther)
}

// handleSelectBill toggles the detail view for a bill card
func (s *Server) handleSelectBill(w http.ResponseWriter, r *http.Request, token string, user bill.User) {
	c := s.triageController(token, user)
	c.SelectBill(r.PathValue("id"))
	http.Redirect(w, r, triage.RouteDashboard, http.StatusSeeOther)
}

// handleAcceptBill accepts the displayed bill
func (s *Server) handleAcceptBill(w http.ResponseWriter, r *http.Request, token string, user bill.User) {
	c := s.triageController(token, user)
	route := c.Accept(r.Context(), r.FormValue("comment-admin"))
	http.Redirect(w, r, route, http.StatusSeeOther)
}

// handleRefuseBill refuses the displayed bill
func (s *Server) handleRefuseBill(w http.ResponseWriter, r *http.Request, token string, user bill.User) {
	c := s.triageController(token, user)
	route := c.Refuse(r.Context(), r.FormValue("comment-admin"))
	http.Redirect(w, r, route, http.StatusSeeOther)
}

func formValues(r *http.Request) submission.Form {
	return submission.Form{
		Type:       r.FormValue("expense-type"),
		Name:       r.FormValue("expense-name"),
		Amount:     r.FormValue("amount"),
		Date:       r.FormValue("datepicker"),
		Vat:        r.FormValue("vat"),
		Pct:        r.FormValue("pct"),
		Commentary: r.FormValue("commentary"),
	}
}

// selectionContentType falls back to the file extension when the part
// carries no content type.
func selectionContentType(contentType, filename string) string {
	if contentType != "" {
		return contentType
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	}
	return "application/octet-stream"
}
