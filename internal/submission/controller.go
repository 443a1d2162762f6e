package submission

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/billed-app/billdesk/internal/bill"
	"github.com/billed-app/billdesk/internal/scanning"
	"github.com/billed-app/billdesk/internal/store"
)

// RouteBills is where a successful submission navigates.
const RouteBills = "/bills"

// fileErrorText is the inline error shown for a non-image selection.
const fileErrorText = "Fichier non valide"

// FileSelection is one user-selected receipt file. Multi-file selection is
// not supported; callers pass only the first file.
type FileSelection struct {
	Name        string
	ContentType string
	Data        []byte
}

// State is the controller's view-facing state after an operation. The web
// layer renders it; the controller never touches the UI itself.
type State struct {
	FileErrorText string
	FileName      string
	FileURL       string
	AllowSubmit   bool

	// Suggestion carries scanned expense data to prefill the form. Nil when
	// no scanner is configured or the scan failed.
	Suggestion *scanning.ExpenseData
}

// Form holds the raw field values of the new-bill form.
type Form struct {
	Type       string
	Name       string
	Amount     string
	Date       string
	Vat        string
	Pct        string
	Commentary string
}

// Controller drives the employee-side bill submission workflow: validate the
// selected receipt, upload it, then finalize the bill record. Uploading
// creates a shell record in the store; submission updates it, so a bill's
// store-side existence predates the submit click.
type Controller struct {
	store   store.Store
	user    bill.User
	scanner scanning.Scanner // optional

	mu            sync.Mutex
	fileURL       string
	fileName      string
	billID        string
	allowSubmit   bool
	lastFileType  string
	fileErrorText string
}

// NewController creates a submission controller for the given session
// identity. scanner may be nil to disable receipt-scan prefill.
func NewController(s store.Store, user bill.User, scanner scanning.Scanner) *Controller {
	return &Controller{
		store:   s,
		user:    user,
		scanner: scanner,
	}
}

// HandleChangeFile validates a newly selected receipt file and, when valid,
// uploads it. Only files whose MIME top-level type is image are accepted. A
// rejected file surfaces inline error text and leaves any previous upload
// untouched. A valid re-selection supersedes the previous upload: the stale
// attachment is deleted best-effort before the new create, so at most one
// live attachment exists per draft.
func (c *Controller) HandleChangeFile(ctx context.Context, sel FileSelection) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastFileType = topLevelType(sel.ContentType)

	if c.lastFileType != "image" {
		c.fileErrorText = fileErrorText
		return c.state()
	}
	c.fileErrorText = ""

	if c.billID != "" {
		// Best-effort: a failed delete is logged but never blocks the new
		// upload. The delete is issued before the create.
		if err := c.store.Delete(ctx, c.billID); err != nil {
			slog.Warn("Failed to delete stale attachment", "billId", c.billID, "error", err)
		}
	}

	result, err := c.store.CreateFile(ctx, c.user.Email, sel.Name, sel.Data, sel.ContentType)
	if err != nil {
		slog.Error("Failed to upload receipt", "filename", sel.Name, "error", err)
		return c.state()
	}

	c.billID = result.Key
	c.fileURL = result.FileURL
	c.fileName = sel.Name
	c.allowSubmit = true

	st := c.state()
	if c.scanner != nil {
		data, err := c.scanner.ScanReceipt(sel.Data, sel.ContentType)
		if err != nil {
			slog.Warn("Failed to scan receipt for prefill", "filename", sel.Name, "error", err)
		} else {
			st.Suggestion = data
		}
	}
	return st
}

// HandleSubmit finalizes the draft: it assembles the bill from the form
// fields and updates the shell record created by the upload. The returned
// route is where the view should navigate; ok is false when the submission
// was aborted or the store update failed, in which case the user stays on
// the form.
func (c *Controller) HandleSubmit(ctx context.Context, form Form) (route string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Re-check the current selection. A non-image file aborts silently; the
	// file-field error is already showing.
	if c.lastFileType != "image" {
		return "", false
	}

	b := bill.Bill{
		Email:      c.user.Email,
		Type:       form.Type,
		Name:       form.Name,
		Amount:     parseAmount(form.Amount),
		Date:       form.Date,
		Vat:        form.Vat,
		Pct:        parsePct(form.Pct),
		Commentary: form.Commentary,
		FileURL:    c.fileURL,
		FileName:   c.fileName,
		Status:     bill.StatusPending,
	}

	if _, err := c.store.Update(ctx, c.billID, b); err != nil {
		slog.Error("Failed to submit bill", "billId", c.billID, "error", err)
		return "", false
	}

	return RouteBills, true
}

// State returns the current view-facing state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state()
}

func (c *Controller) state() State {
	return State{
		FileErrorText: c.fileErrorText,
		FileName:      c.fileName,
		FileURL:       c.fileURL,
		AllowSubmit:   c.allowSubmit,
	}
}

func topLevelType(contentType string) string {
	top, _, _ := strings.Cut(contentType, "/")
	return strings.ToLower(strings.TrimSpace(top))
}

// parseAmount coerces a blank or non-numeric amount to 0 rather than
// persisting an invalid numeric value.
func parseAmount(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}

// parsePct defaults to 20 when the field is blank, non-numeric or zero.
func parsePct(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v == 0 {
		return 20
	}
	return v
}
