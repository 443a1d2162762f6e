package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/billed-app/billdesk/internal/bill"
)

// HTTPStore talks to the remote Bill Store over HTTP.
type HTTPStore struct {
	baseURL string
	client  *http.Client
}

// NewHTTPStore creates a client for the Bill Store at baseURL.
func NewHTTPStore(baseURL string) *HTTPStore {
	return &HTTPStore{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// List returns every bill record in the store.
func (s *HTTPStore) List(ctx context.Context) ([]bill.Bill, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/bills", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling bill store: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var bills []bill.Bill
	if err := json.NewDecoder(resp.Body).Decode(&bills); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return bills, nil
}

// CreateFile uploads a receipt as multipart form data. The file part keeps
// the file's own content type; nothing else is imposed on the payload.
func (s *HTTPStore) CreateFile(ctx context.Context, email, filename string, data []byte, contentType string) (CreateResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return CreateResult{}, fmt.Errorf("creating file part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return CreateResult{}, fmt.Errorf("writing file part: %w", err)
	}
	if err := writer.WriteField("email", email); err != nil {
		return CreateResult{}, fmt.Errorf("writing email field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return CreateResult{}, fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/bills", &body)
	if err != nil {
		return CreateResult{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return CreateResult{}, fmt.Errorf("calling bill store: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return CreateResult{}, err
	}

	var result CreateResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return CreateResult{}, fmt.Errorf("decoding response: %w", err)
	}
	return result, nil
}

// Update replaces the record identified by id with the given bill.
func (s *HTTPStore) Update(ctx context.Context, id string, b bill.Bill) (bill.Bill, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return bill.Bill{}, fmt.Errorf("marshaling bill: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.baseURL+"/bills/"+id, bytes.NewReader(data))
	if err != nil {
		return bill.Bill{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return bill.Bill{}, fmt.Errorf("calling bill store: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return bill.Bill{}, err
	}

	var updated bill.Bill
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		return bill.Bill{}, fmt.Errorf("decoding response: %w", err)
	}
	return updated, nil
}

// Delete removes the record identified by id.
func (s *HTTPStore) Delete(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.baseURL+"/bills/"+id, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling bill store: %w", err)
	}
	defer resp.Body.Close()

	return checkStatus(resp)
}

// checkStatus maps a non-2xx response to the store's user-facing error form,
// e.g. "Erreur 404". The dashboard displays these messages verbatim.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	// Drain so the connection can be reused.
	io.Copy(io.Discard, resp.Body)
	return fmt.Errorf("Erreur %d", resp.StatusCode)
}
