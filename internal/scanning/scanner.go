package scanning

// ExpenseData contains information extracted from a receipt image, used to
// prefill the new-bill form. Amount is in currency units as printed on the
// receipt.
type ExpenseData struct {
	Name   string  `json:"name"`
	Date   string  `json:"date"` // ISO 8601 format
	Amount float64 `json:"amount"`
}

// Scanner defines the interface for receipt scanning operations
type Scanner interface {
	// ScanReceipt analyzes a receipt image and extracts expense metadata
	ScanReceipt(imageData []byte, contentType string) (*ExpenseData, error)
	// Close closes the scanner and releases resources
	Close() error
}
