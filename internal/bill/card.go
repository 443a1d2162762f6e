package bill

import "strings"

// Card is the compact display summary of one bill shown in a dashboard panel.
type Card struct {
	BillID    string
	FirstName string
	LastName  string
	Name      string
	Amount    int
	Date      string
	Type      string
}

// NewCard builds the display summary for a bill. The owner's name is derived
// from the email local-part split on the first dot; without a dot the whole
// local-part becomes the last name. Pure and deterministic.
func NewCard(b Bill) Card {
	localPart := b.Email
	if at := strings.Index(localPart, "@"); at >= 0 {
		localPart = localPart[:at]
	}

	var firstName, lastName string
	if dot := strings.Index(localPart, "."); dot >= 0 {
		firstName = localPart[:dot]
		lastName = localPart[dot+1:]
	} else {
		lastName = localPart
	}

	return Card{
		BillID:    b.ID,
		FirstName: firstName,
		LastName:  lastName,
		Name:      b.Name,
		Amount:    b.Amount,
		Date:      FormatDate(b.Date),
		Type:      b.Type,
	}
}
