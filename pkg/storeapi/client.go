package storeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/jchen-labs/shopfront/pkg/config"
	pkgerrors "github.com/jchen-labs/shopfront/pkg/errors"
	"github.com/jchen-labs/shopfront/pkg/logger"
)

// Client talks to the remote storefront API described by the deployment's
// StoreConfig. The user key is an opaque credential obtained elsewhere; the
// client only knows which query/body parameter carries it.
type Client struct {
	baseURL      *url.URL
	httpClient   *http.Client
	userKeyParam string
	logg         *logger.Logger
}

// NewClient builds a storefront API client.
func NewClient(cfg config.StoreConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("store base url required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse store base url: %w", err)
	}
	if strings.TrimSpace(cfg.UserKeyParam) == "" {
		return nil, fmt.Errorf("user key param required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Client{
		baseURL:      base,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		userKeyParam: cfg.UserKeyParam,
		logg:         logg,
	}, nil
}

// FetchCart returns the authoritative cart rows for the user, in server
// display order.
func (c *Client) FetchCart(ctx context.Context, userKey string) ([]CartRow, error) {
	if err := requireUserKey(userKey); err != nil {
		return nil, err
	}
	var rows []CartRow
	if err := c.getJSON(ctx, "/api/cart", url.Values{c.userKeyParam: {userKey}}, &rows); err != nil {
		return nil, err
	}
	for i, row := range rows {
		if row.CartEntryID == 0 || row.ProductID == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "malformed cart row").
				WithDetails(map[string]any{"index": i})
		}
	}
	return rows, nil
}

// FetchProducts returns the full product catalog.
func (c *Client) FetchProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.getJSON(ctx, "/api/products", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// AddToCart merges quantity for the product into the user's server-side
// cart. The server enforces stock and answers with an acknowledgement.
func (c *Client) AddToCart(ctx context.Context, userKey string, productID int64, quantity int) (*Ack, error) {
	if err := requireUserKey(userKey); err != nil {
		return nil, err
	}
	if productID == 0 || quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id and positive quantity required")
	}
	body := map[string]any{
		c.userKeyParam: userKey,
		"product_id":   productID,
		"quantity":     quantity,
	}
	return c.postAck(ctx, "/api/add_cart", body)
}

// DeleteCartEntry removes one cart row, addressed by its stable entry id.
func (c *Client) DeleteCartEntry(ctx context.Context, userKey string, cartEntryID int64) (*Ack, error) {
	if err := requireUserKey(userKey); err != nil {
		return nil, err
	}
	path := fmt.Sprintf("/api/cart/%d", cartEntryID)
	return c.deleteAck(ctx, path, url.Values{c.userKeyParam: {userKey}})
}

// SubmitCheckout posts the atomic multi-item checkout request. A server
// rejection (non-2xx, or an explicit success=false body) is returned as a
// CONFLICT error carrying the server's message verbatim.
func (c *Client) SubmitCheckout(ctx context.Context, userKey string, items []CheckoutPair) (*Ack, error) {
	if err := requireUserKey(userKey); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout requires at least one item")
	}
	body := map[string]any{
		c.userKeyParam:   userKey,
		"selected_items": items,
	}
	return c.postAck(ctx, "/api/checkout", body)
}

// FetchOrders returns the user's order history, newest first.
func (c *Client) FetchOrders(ctx context.Context, userKey string) ([]OrderRow, error) {
	if err := requireUserKey(userKey); err != nil {
		return nil, err
	}
	var rows []OrderRow
	if err := c.getJSON(ctx, "/api/orders", url.Values{c.userKeyParam: {userKey}}, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteOrder removes one order history row.
func (c *Client) DeleteOrder(ctx context.Context, userKey string, orderID int64) (*Ack, error) {
	if err := requireUserKey(userKey); err != nil {
		return nil, err
	}
	path := fmt.Sprintf("/api/orders/%d", orderID)
	return c.deleteAck(ctx, path, url.Values{c.userKeyParam: {userKey}})
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dest any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logg.Warn(req.Context(), "storefront unreachable")
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cannot reach server")
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.errorFromResponse(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "malformed server response")
	}
	return nil
}

func (c *Client) postAck(ctx context.Context, path string, body any) (*Ack, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode request body")
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, nil, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doAck(req)
}

func (c *Client) deleteAck(ctx context.Context, path string, query url.Values) (*Ack, error) {
	req, err := c.newRequest(ctx, http.MethodDelete, path, query, nil)
	if err != nil {
		return nil, err
	}
	return c.doAck(req)
}

func (c *Client) doAck(req *http.Request) (*Ack, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logg.Warn(req.Context(), "storefront unreachable")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cannot reach server")
	}
	defer drainAndClose(resp.Body)

	var ack Ack
	decodeErr := json.NewDecoder(resp.Body).Decode(&ack)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decodeErr != nil || strings.TrimSpace(ack.Message) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeDependency,
				fmt.Sprintf("server returned status %d", resp.StatusCode))
		}
		// Rejection: surface the server message verbatim.
		return nil, pkgerrors.New(pkgerrors.CodeConflict, ack.Message).
			WithDetails(map[string]any{"status": resp.StatusCode})
	}
	if decodeErr != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, decodeErr, "malformed server response")
	}
	// Some deployments answer 200 with success=false; treat that as a
	// rejection too.
	if !ack.Success {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, ack.Message)
	}
	return &ack, nil
}

func (c *Client) errorFromResponse(resp *http.Response) error {
	var ack Ack
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil || strings.TrimSpace(ack.Message) == "" {
		return pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("server returned status %d", resp.StatusCode))
	}
	code := pkgerrors.CodeDependency
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		code = pkgerrors.CodeUnauthorized
	case http.StatusNotFound:
		code = pkgerrors.CodeNotFound
	case http.StatusConflict, http.StatusBadRequest:
		code = pkgerrors.CodeConflict
	}
	return pkgerrors.New(code, ack.Message).
		WithDetails(map[string]any{"status": resp.StatusCode})
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	target := *c.baseURL
	target.Path = strings.TrimRight(target.Path, "/") + path
	if query != nil {
		target.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func requireUserKey(userKey string) error {
	if strings.TrimSpace(userKey) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user key required")
	}
	return nil
}

func drainAndClose(body io.ReadCloser) {
	io.Copy(io.Discard, body)
	body.Close()
}
