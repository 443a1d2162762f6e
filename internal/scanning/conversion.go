package scanning

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"strings"

	"github.com/gen2brain/heic"
)

// expenseScanPrompt is the shared prompt used by all LLM providers for scanning receipts
const expenseScanPrompt = `You are analyzing a receipt or invoice for an expense report. Carefully read all text in the image and extract the following information:

1. **Expense Name**: A short label for the expense, starting with the merchant or vendor name. Examples: "Hotel Ibis Paris", "SNCF Paris-Lyon", "Restaurant Le Comptoir".

2. **Date**: The transaction date, purchase date, or invoice date. Convert it to ISO 8601 format (YYYY-MM-DD). Common printed formats: DD/MM/YYYY, MM/DD/YYYY, or written dates.

3. **Total Amount**: The final total or amount due, usually at the bottom, often labeled "TOTAL", "Total TTC", "Montant" or similar. Extract only the numeric value (e.g., 42.75 for 42,75 EUR).

Return ONLY valid JSON in this exact format:
{
  "name": "Merchant - Brief Description",
  "date": "YYYY-MM-DD",
  "amount": 0.00
}

Important:
- The name should start with the actual merchant name from the receipt
- The date must be in YYYY-MM-DD format
- The amount must be a number (not a string)
- If you cannot find a field, use null for that field
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

// imageToPNG converts any supported image format to PNG
func imageToPNG(imageData []byte, mimeType string) ([]byte, error) {
	var img image.Image
	var err error

	// HEIC/HEIF (common on iPhones) is not supported by Go's standard image
	// package, so it gets its own decoder.
	if isHEICFormat(imageData) || isHEICMimeType(mimeType) {
		img, err = heic.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
	} else {
		img, _, err = image.Decode(bytes.NewReader(imageData))
		if err != nil {
			if strings.Contains(err.Error(), "unknown format") || strings.Contains(err.Error(), "unsupported") {
				return nil, fmt.Errorf("unsupported image format. Supported formats: JPEG, PNG, GIF, HEIC, HEIF. Error: %w", err)
			}
			return nil, fmt.Errorf("decoding image: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}

	return buf.Bytes(), nil
}

// isHEICFormat checks if the image data is in HEIC/HEIF format
// HEIC files typically start with specific magic bytes
func isHEICFormat(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	// HEIC files carry an ftyp box at offset 4 with an HEIC-related brand
	if string(data[4:8]) == "ftyp" {
		brand := string(data[8:12])
		if brand == "heic" || brand == "heif" || brand == "mif1" || brand == "msf1" {
			return true
		}
	}
	return false
}

// isHEICMimeType checks if the MIME type indicates HEIC/HEIF format
func isHEICMimeType(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return mimeType == "image/heic" || mimeType == "image/heif" ||
		strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}

// prepareImageData normalizes the MIME type and converts the image to PNG if
// needed. Returns the final image data, the MIME type to use, and whether a
// conversion occurred.
func prepareImageData(imageData []byte, contentType string) ([]byte, string, bool, error) {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if mimeType == "" {
		mimeType = "image/jpeg" // default
	}

	if mimeType == "image/png" && !isHEICFormat(imageData) {
		return imageData, "image/png", false, nil
	}

	pngData, err := imageToPNG(imageData, mimeType)
	if err != nil {
		return nil, "", false, fmt.Errorf("converting image to PNG: %w", err)
	}

	return pngData, "image/png", true, nil
}
