package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flicky/holohaven-api/internal/dto"
)

const defaultTimeout = 10 * time.Second

// APIError is a response the server produced. It is never a reason to fall
// back to the offline mirror.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsNetworkError reports whether err means the server could not be reached.
func IsNetworkError(err error) bool {
	var apiErr *APIError
	if err == nil || errors.As(err, &apiErr) {
		return false
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// RemoteCart talks to the cart endpoints with a bearer token.
type RemoteCart struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewRemoteCart(baseURL, token string, httpClient *http.Client) *RemoteCart {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &RemoteCart{baseURL: strings.TrimRight(baseURL, "/"), token: token, http: httpClient}
}

func (r *RemoteCart) Get(ctx context.Context) (*dto.CartResponse, error) {
	return r.do(ctx, http.MethodGet, "/cart", nil)
}

func (r *RemoteCart) Add(ctx context.Context, productID uuid.UUID, quantity int) (*dto.CartResponse, error) {
	return r.do(ctx, http.MethodPost, "/cart/items", dto.AddCartItemRequest{ProductID: productID, Quantity: quantity})
}

func (r *RemoteCart) SetQuantity(ctx context.Context, productID uuid.UUID, quantity int) (*dto.CartResponse, error) {
	return r.do(ctx, http.MethodPatch, "/cart/items/"+productID.String(), dto.UpdateCartItemRequest{Quantity: &quantity})
}

func (r *RemoteCart) Remove(ctx context.Context, productID uuid.UUID) (*dto.CartResponse, error) {
	return r.do(ctx, http.MethodDelete, "/cart/items/"+productID.String(), nil)
}

func (r *RemoteCart) Clear(ctx context.Context) error {
	_, err := r.do(ctx, http.MethodDelete, "/cart", nil)
	return err
}

// do sends one request. A nil cart with a nil error means the endpoint
// answered with a message instead of a cart.
func (r *RemoteCart) do(ctx context.Context, method, path string, body any) (*dto.CartResponse, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		return nil, &APIError{Status: resp.StatusCode, Message: payload.Error}
	}

	var probe struct {
		Items json.RawMessage `json:"items"`
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if probe.Items == nil {
		return nil, nil
	}

	var cart dto.CartResponse
	if err := json.Unmarshal(raw, &cart); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return &cart, nil
}
