package scanning

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// parseExpenseJSON parses the JSON response from an LLM provider.
func parseExpenseJSON(text string) (*ExpenseData, error) {
	text = strings.TrimSpace(text)

	// Remove markdown code blocks if present
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	// Find the JSON object boundaries - look for first { and last }
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}

	text = text[startIdx : endIdx+1]

	var data ExpenseData
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	// Normalize the date to the form the bill form expects
	if data.Date != "" {
		parsedDate, err := time.Parse("2006-01-02", data.Date)
		if err != nil {
			formats := []string{
				"2006/01/02",
				"02/01/2006",
				"01/02/2006",
				"02-01-2006",
			}
			parsed := false
			for _, format := range formats {
				if d, e := time.Parse(format, data.Date); e == nil {
					data.Date = d.Format("2006-01-02")
					parsed = true
					break
				}
			}
			if !parsed {
				// Leave the date blank rather than guessing; the employee
				// fills it in on the form.
				data.Date = ""
			}
		} else {
			data.Date = parsedDate.Format("2006-01-02")
		}
	}

	data.Name = strings.TrimSpace(data.Name)

	return &data, nil
}
