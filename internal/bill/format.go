package bill

import (
	"fmt"
	"time"
)

// French short month names, capitalized the way the dashboard displays them.
var frenchShortMonths = [...]string{
	"Janv.", "Févr.", "Mars", "Avr.", "Mai", "Juin",
	"Juil.", "Août", "Sept.", "Oct.", "Nov.", "Déc.",
}

// FormatDate renders a stored calendar date (YYYY-MM-DD) as the short French
// form shown on bill cards, e.g. "4 Avr. 04". Dates that do not parse are
// returned unchanged rather than failing the whole render.
func FormatDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%d %s %02d", t.Day(), frenchShortMonths[t.Month()-1], t.Year()%100)
}

// FormatStatus renders a status as its French display label.
func FormatStatus(status Status) string {
	switch status {
	case StatusPending:
		return "En attente"
	case StatusAccepted:
		return "Accepté"
	case StatusRefused:
		return "Refusé"
	}
	return string(status)
}
