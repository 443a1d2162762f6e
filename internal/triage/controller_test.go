package triage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/billed-app/billdesk/internal/bill"
	"github.com/billed-app/billdesk/internal/store"
)

func TestTriage(t *testing.T) {
	// Disable logging during tests
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	RegisterFailHandler(Fail)
	RunSpecs(t, "Triage Suite")
}

type updateCall struct {
	id   string
	bill bill.Bill
}

// mockStore is a mock implementation of store.Store
type mockStore struct {
	bills   []bill.Bill
	updates []updateCall
	deletes []string

	listErr   error
	updateErr error
}

func (m *mockStore) List(ctx context.Context) ([]bill.Bill, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.bills, nil
}

func (m *mockStore) CreateFile(ctx context.Context, email, filename string, data []byte, contentType string) (store.CreateResult, error) {
	return store.CreateResult{}, errors.New("not supported")
}

func (m *mockStore) Update(ctx context.Context, id string, b bill.Bill) (bill.Bill, error) {
	if m.updateErr != nil {
		return bill.Bill{}, m.updateErr
	}
	m.updates = append(m.updates, updateCall{id: id, bill: b})
	return b, nil
}

func (m *mockStore) Delete(ctx context.Context, id string) error {
	m.deletes = append(m.deletes, id)
	return nil
}

var _ = Describe("Controller", func() {
	var (
		billStore  *mockStore
		controller *Controller
		viewer     bill.User
		ctx        context.Context
	)

	BeforeEach(func() {
		billStore = &mockStore{
			bills: []bill.Bill{
				{ID: "1", Email: "john.doe@billed.com", Name: "Vol Paris Londres", Status: bill.StatusPending},
				{ID: "2", Email: "jane.doe@billed.com", Name: "Hotel", Status: bill.StatusPending},
				{ID: "3", Email: "sam.smith@billed.com", Name: "Taxi", Status: bill.StatusAccepted},
				{ID: "4", Email: "ann.lee@billed.com", Name: "Restaurant", Status: bill.StatusRefused},
			},
		}
		viewer = bill.User{Type: "Admin", Email: "admin@billed.com"}
		controller = NewController(billStore, viewer)
		ctx = context.Background()
	})

	Describe("ListBills", func() {
		It("returns every record from the store", func() {
			bills, err := controller.ListBills(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(bills).To(HaveLen(4))
		})

		It("carries fields through verbatim", func() {
			bills, err := controller.ListBills(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(bills[0].ID).To(Equal("1"))
			Expect(bills[0].Status).To(Equal(bill.StatusPending))
			Expect(bills[0].Name).To(Equal("Vol Paris Londres"))
		})

		When("the store rejects", func() {
			BeforeEach(func() {
				billStore.listErr = errors.New("Erreur 404")
			})

			It("propagates the error untouched", func() {
				_, err := controller.ListBills(ctx)
				Expect(err).To(MatchError("Erreur 404"))
			})
		})
	})

	Describe("TogglePanel", func() {
		When("the panel is collapsed", func() {
			It("expands panel 1 with one card per pending bill", func() {
				view, err := controller.TogglePanel(ctx, 1)
				Expect(err).NotTo(HaveOccurred())
				Expect(view.Expanded).To(BeTrue())
				Expect(view.Status).To(Equal(bill.StatusPending))
				Expect(view.Cards).To(HaveLen(2))
				Expect(view.Cards[0].BillID).To(Equal("1"))
				Expect(view.Cards[1].BillID).To(Equal("2"))
			})

			It("excludes the viewer's own bills", func() {
				billStore.bills = append(billStore.bills, bill.Bill{
					ID: "5", Email: viewer.Email, Status: bill.StatusPending,
				})
				view, err := controller.TogglePanel(ctx, 1)
				Expect(err).NotTo(HaveOccurred())
				Expect(view.Cards).To(HaveLen(2))
			})

			It("excludes service accounts", func() {
				billStore.bills = append(billStore.bills, bill.Bill{
					ID: "6", Email: "cedric.hiely@billed.com", Status: bill.StatusPending,
				})
				view, err := controller.TogglePanel(ctx, 1)
				Expect(err).NotTo(HaveOccurred())
				Expect(view.Cards).To(HaveLen(2))
			})

			When("the list load fails", func() {
				BeforeEach(func() {
					billStore.listErr = errors.New("Erreur 500")
				})

				It("propagates the error and stays collapsed", func() {
					_, err := controller.TogglePanel(ctx, 1)
					Expect(err).To(MatchError("Erreur 500"))
					Expect(controller.Panel(1).Expanded).To(BeFalse())
				})
			})
		})

		When("the panel is expanded", func() {
			BeforeEach(func() {
				_, err := controller.TogglePanel(ctx, 1)
				Expect(err).NotTo(HaveOccurred())
			})

			It("collapses it and clears the cards", func() {
				view, err := controller.TogglePanel(ctx, 1)
				Expect(err).NotTo(HaveOccurred())
				Expect(view.Expanded).To(BeFalse())
				Expect(view.Cards).To(BeEmpty())
			})
		})

		It("toggles panels independently", func() {
			view1, err := controller.TogglePanel(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			view3, err := controller.TogglePanel(ctx, 3)
			Expect(err).NotTo(HaveOccurred())

			Expect(view1.Expanded).To(BeTrue())
			Expect(view3.Expanded).To(BeTrue())
			Expect(view3.Status).To(Equal(bill.StatusRefused))
			Expect(view3.Cards).To(HaveLen(1))
			Expect(controller.Panel(1).Expanded).To(BeTrue())
		})
	})

	Describe("SelectBill", func() {
		BeforeEach(func() {
			_, err := controller.ListBills(ctx)
			Expect(err).NotTo(HaveOccurred())
		})

		It("selects a bill and exposes its admin form data", func() {
			detail := controller.SelectBill("1")
			Expect(detail.Selected).To(BeTrue())
			Expect(detail.Bill.ID).To(Equal("1"))
			Expect(detail.Bill.Name).To(Equal("Vol Paris Londres"))
		})

		It("swaps the detail content when another card is selected", func() {
			controller.SelectBill("1")
			detail := controller.SelectBill("2")
			Expect(detail.Selected).To(BeTrue())
			Expect(detail.Bill.ID).To(Equal("2"))
		})

		It("deselects when the same card is clicked again", func() {
			controller.SelectBill("1")
			detail := controller.SelectBill("1")
			Expect(detail.Selected).To(BeFalse())
		})

		It("restores the placeholder for unknown ids", func() {
			detail := controller.SelectBill("nope")
			Expect(detail.Selected).To(BeFalse())
		})
	})

	Describe("Accept", func() {
		BeforeEach(func() {
			_, err := controller.ListBills(ctx)
			Expect(err).NotTo(HaveOccurred())
			controller.SelectBill("1")
		})

		It("persists the bill as accepted with the manager's note", func() {
			controller.Accept(ctx, "Looks fine")
			Expect(billStore.updates).To(HaveLen(1))
			Expect(billStore.updates[0].id).To(Equal("1"))
			Expect(billStore.updates[0].bill.Status).To(Equal(bill.StatusAccepted))
			Expect(billStore.updates[0].bill.CommentAdmin).To(Equal("Looks fine"))
		})

		It("keeps the other fields of the bill intact", func() {
			controller.Accept(ctx, "ok")
			Expect(billStore.updates[0].bill.Name).To(Equal("Vol Paris Londres"))
			Expect(billStore.updates[0].bill.Email).To(Equal("john.doe@billed.com"))
		})

		It("navigates back to the dashboard", func() {
			Expect(controller.Accept(ctx, "ok")).To(Equal(RouteDashboard))
		})

		It("clears the selection", func() {
			controller.Accept(ctx, "ok")
			Expect(controller.Detail().Selected).To(BeFalse())
		})

		When("the store update fails", func() {
			BeforeEach(func() {
				billStore.updateErr = errors.New("update error")
			})

			It("still navigates back to the dashboard", func() {
				Expect(controller.Accept(ctx, "ok")).To(Equal(RouteDashboard))
			})
		})

		When("no bill is displayed", func() {
			BeforeEach(func() {
				controller.SelectBill("1") // deselect
			})

			It("navigates without persisting anything", func() {
				Expect(controller.Accept(ctx, "ok")).To(Equal(RouteDashboard))
				Expect(billStore.updates).To(BeEmpty())
			})
		})
	})

	Describe("Refuse", func() {
		BeforeEach(func() {
			_, err := controller.ListBills(ctx)
			Expect(err).NotTo(HaveOccurred())
			controller.SelectBill("2")
		})

		It("persists the bill as refused with the manager's note", func() {
			controller.Refuse(ctx, "Missing receipt")
			Expect(billStore.updates).To(HaveLen(1))
			Expect(billStore.updates[0].bill.Status).To(Equal(bill.StatusRefused))
			Expect(billStore.updates[0].bill.CommentAdmin).To(Equal("Missing receipt"))
		})
	})

	// There is deliberately no guard on the current status; this documents
	// the permissive behavior as an extension point for a stricter policy.
	Describe("re-transition", func() {
		BeforeEach(func() {
			_, err := controller.ListBills(ctx)
			Expect(err).NotTo(HaveOccurred())
		})

		It("allows refusing an already accepted bill", func() {
			controller.SelectBill("3")
			controller.Refuse(ctx, "second thoughts")
			Expect(billStore.updates).To(HaveLen(1))
			Expect(billStore.updates[0].bill.Status).To(Equal(bill.StatusRefused))
		})

		It("allows re-accepting an already accepted bill", func() {
			controller.SelectBill("3")
			controller.Accept(ctx, "confirmed")
			Expect(billStore.updates).To(HaveLen(1))
			Expect(billStore.updates[0].bill.Status).To(Equal(bill.StatusAccepted))
		})
	})
})
