package triage

import (
	"context"
	"log/slog"
	"sync"

	"github.com/billed-app/billdesk/internal/bill"
	"github.com/billed-app/billdesk/internal/store"
)

// RouteDashboard is where accept/refuse transitions navigate.
const RouteDashboard = "/dashboard"

// PanelView is the view-facing state of one status disclosure panel.
type PanelView struct {
	Index    int
	Status   bill.Status
	Expanded bool
	Cards    []bill.Card
}

// DetailView is the right-hand detail area: either the selected bill's admin
// form or the "no bill selected" placeholder.
type DetailView struct {
	Selected bool
	Bill     bill.Bill
}

// Controller drives the manager-side triage workflow: three independent
// status panels, per-card selection, and accept/refuse transitions. It emits
// view data; the web layer does the rendering.
type Controller struct {
	store store.Store
	user  bill.User

	mu         sync.Mutex
	bills      []bill.Bill
	expanded   map[int]bool
	selectedID string
}

// NewController creates a triage controller for the given session identity.
func NewController(s store.Store, user bill.User) *Controller {
	return &Controller{
		store:    s,
		user:     user,
		expanded: make(map[int]bool),
	}
}

// ListBills loads every bill record from the store. Store errors are
// returned to the caller untouched; the dashboard displays them verbatim.
func (c *Controller) ListBills(ctx context.Context) ([]bill.Bill, error) {
	bills, err := c.store.List(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.bills = bills
	c.mu.Unlock()
	return bills, nil
}

// TogglePanel expands a collapsed panel or collapses an expanded one.
// Expanding re-reads the full list and emits one card per bill matching the
// panel's status, excluding the viewer's own bills and the service accounts.
// Collapsing clears the panel's cards. Panels toggle independently.
func (c *Controller) TogglePanel(ctx context.Context, index int) (PanelView, error) {
	status := bill.StatusForPanel(index)

	c.mu.Lock()
	wasExpanded := c.expanded[index]
	c.mu.Unlock()

	if wasExpanded {
		c.mu.Lock()
		c.expanded[index] = false
		c.mu.Unlock()
		return PanelView{Index: index, Status: status}, nil
	}

	bills, err := c.ListBills(ctx)
	if err != nil {
		return PanelView{}, err
	}

	c.mu.Lock()
	c.expanded[index] = true
	c.mu.Unlock()

	return PanelView{
		Index:    index,
		Status:   status,
		Expanded: true,
		Cards:    cards(bill.Filter(bills, status, c.user.Email)),
	}, nil
}

// Panel returns the current view of a panel without toggling it.
func (c *Controller) Panel(index int) PanelView {
	status := bill.StatusForPanel(index)

	c.mu.Lock()
	defer c.mu.Unlock()

	view := PanelView{Index: index, Status: status, Expanded: c.expanded[index]}
	if view.Expanded {
		view.Cards = cards(bill.Filter(c.bills, status, c.user.Email))
	}
	return view
}

// SelectBill toggles the detail view for a card. Selecting a new card swaps
// the detail content to that bill's admin form; re-selecting the displayed
// card deselects it and restores the placeholder.
func (c *Controller) SelectBill(id string) DetailView {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selectedID == id {
		c.selectedID = ""
		return DetailView{}
	}

	for _, b := range c.bills {
		if b.ID == id {
			c.selectedID = id
			return DetailView{Selected: true, Bill: b}
		}
	}

	c.selectedID = ""
	return DetailView{}
}

// Detail returns the current detail view.
func (c *Controller) Detail() DetailView {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selectedID != "" {
		for _, b := range c.bills {
			if b.ID == c.selectedID {
				return DetailView{Selected: true, Bill: b}
			}
		}
	}
	return DetailView{}
}

// Accept transitions the displayed bill to accepted with the manager's note.
func (c *Controller) Accept(ctx context.Context, note string) string {
	return c.transition(ctx, bill.StatusAccepted, note)
}

// Refuse transitions the displayed bill to refused with the manager's note.
func (c *Controller) Refuse(ctx context.Context, note string) string {
	return c.transition(ctx, bill.StatusRefused, note)
}

// transition persists the status change. There is no guard on the bill's
// current status: re-accepting or moving accepted to refused is allowed so a
// manager can correct an earlier decision. Failures are logged only; the
// view navigates back to the dashboard either way, and the fresh list load
// shows whether the transition took.
func (c *Controller) transition(ctx context.Context, status bill.Status, note string) string {
	c.mu.Lock()
	var current *bill.Bill
	for i := range c.bills {
		if c.bills[i].ID == c.selectedID {
			current = &c.bills[i]
			break
		}
	}
	if current == nil {
		c.mu.Unlock()
		return RouteDashboard
	}

	updated := *current
	updated.Status = status
	updated.CommentAdmin = note

	c.selectedID = ""
	c.expanded = make(map[int]bool)
	c.mu.Unlock()

	if _, err := c.store.Update(ctx, updated.ID, updated); err != nil {
		slog.Error("Failed to update bill status", "billId", updated.ID, "status", status, "error", err)
	}

	return RouteDashboard
}

func cards(bills []bill.Bill) []bill.Card {
	result := make([]bill.Card, 0, len(bills))
	for _, b := range bills {
		result = append(result, bill.NewCard(b))
	}
	return result
}
