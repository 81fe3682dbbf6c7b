package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"shelflife/internal/domain"
	"shelflife/internal/middleware"
	"shelflife/internal/recognition"
	"shelflife/internal/service"
	"shelflife/internal/transport"
)

// APIError carries the server's structured error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// Client talks to the tracker API. All requests carry the device ID so the
// server can partition anonymous data per device; a bearer token, when set,
// takes precedence.
type Client struct {
	baseURL    string
	deviceID   string
	token      string
	httpClient *http.Client
}

func New(baseURL, deviceID string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		deviceID: deviceID,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// SetToken switches the client from anonymous to authenticated requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set(middleware.DeviceIDHeader, c.deviceID)
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var envelope middleware.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
	}
	return apiErr
}

// List fetches the owner's products in display order.
func (c *Client) List(ctx context.Context) ([]*service.ProductView, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/products", nil)
	if err != nil {
		return nil, err
	}

	var payload transport.ProductListResponse
	if err := c.do(req, &payload); err != nil {
		return nil, err
	}
	return payload.Products, nil
}

// Create stores a new product and returns it with server-assigned fields.
func (c *Client) Create(ctx context.Context, input transport.ProductRequest) (*domain.Product, error) {
	return c.submit(ctx, http.MethodPost, "/api/products", input)
}

// Update overwrites an existing product.
func (c *Client) Update(ctx context.Context, id string, input transport.ProductRequest) (*domain.Product, error) {
	return c.submit(ctx, http.MethodPut, "/api/products/"+id, input)
}

func (c *Client) submit(ctx context.Context, method, path string, input transport.ProductRequest) (*domain.Product, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, method, path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var product domain.Product
	if err := c.do(req, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// Delete removes a product permanently.
func (c *Client) Delete(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/api/products/"+id, nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// Recognize uploads a product photo together with the current draft values
// and returns the merged prefill.
func (c *Client) Recognize(ctx context.Context, image []byte, mimeType string, draft recognition.Result) (recognition.Result, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(map[string][]string)
	header["Content-Disposition"] = []string{`form-data; name="image"; filename="photo"`}
	header["Content-Type"] = []string{mimeType}
	part, err := writer.CreatePart(header)
	if err != nil {
		return recognition.Result{}, err
	}
	if _, err := part.Write(image); err != nil {
		return recognition.Result{}, err
	}
	writer.WriteField("brand", draft.Brand)
	writer.WriteField("name", draft.Name)
	if err := writer.Close(); err != nil {
		return recognition.Result{}, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/products/recognize", &body)
	if err != nil {
		return recognition.Result{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var result recognition.Result
	if err := c.do(req, &result); err != nil {
		return recognition.Result{}, err
	}
	return result, nil
}

// Stream subscribes to the live product list. Snapshots arrive on the
// returned channel until the context is cancelled or the connection drops;
// the channel is closed either way.
func (c *Client) Stream(ctx context.Context) (<-chan []*service.ProductView, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/products/stream", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	// No overall timeout on a long-lived stream; the context governs it.
	streamClient := &http.Client{}

	resp, err := streamClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, decodeAPIError(resp)
	}

	snapshots := make(chan []*service.ProductView)
	go func() {
		defer close(snapshots)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 64*1024), 16<<20)

		var event string
		for scanner.Scan() {
			line := scanner.Text()

			switch {
			case strings.HasPrefix(line, "event: "):
				event = strings.TrimPrefix(line, "event: ")

			case strings.HasPrefix(line, "data: "):
				if event == "error" {
					return
				}

				var payload transport.ProductListResponse
				if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &payload); err != nil {
					continue
				}
				select {
				case snapshots <- payload.Products:
				case <-ctx.Done():
					return
				}

			case line == "":
				event = ""
			}
		}
	}()

	return snapshots, nil
}
