package bill

// Status is the lifecycle state of a bill.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRefused  Status = "refused"
)

// Bill represents one expense report record. Field names follow the Bill
// Store's wire format so records round-trip through list/update untouched.
type Bill struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Type         string `json:"type"`
	Name         string `json:"name"`
	Amount       int    `json:"amount"`
	Date         string `json:"date"`
	Vat          string `json:"vat"`
	Pct          int    `json:"pct"`
	Commentary   string `json:"commentary"`
	FileURL      string `json:"fileUrl"`
	FileName     string `json:"fileName"`
	Status       Status `json:"status"`
	CommentAdmin string `json:"commentAdmin,omitempty"`
}

// User is the acting session identity shared by both controllers.
type User struct {
	Type  string `json:"type"`
	Email string `json:"email"`
}

// ServiceAccounts are seeded demo identities whose bills never appear in
// triage.
var ServiceAccounts = []string{
	"cedric.hiely@billed.com",
	"christian.saluzzo@billed.com",
	"jean.limbert@billed.com",
	"joanna.binet@billed.com",
}

// StatusForPanel maps a dashboard panel index (1..3) to its status. Unknown
// indexes return the empty status, which matches no bill.
func StatusForPanel(index int) Status {
	switch index {
	case 1:
		return StatusPending
	case 2:
		return StatusAccepted
	case 3:
		return StatusRefused
	}
	return ""
}
