package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Sapuran-Berperan/fleet-portal/internal/model"
)

// rawDecoder validates a response body before accepting it
type rawDecoder interface {
	decodeRaw(op string, raw []byte) error
}

type rawPage struct {
	Content       json.RawMessage `json:"content"`
	TotalPages    *int            `json:"totalPages"`
	TotalElements *int            `json:"totalElements"`
}

type pageDecoder[T any] struct {
	size int
	page model.Page[T]
}

func (d *pageDecoder[T]) decodeRaw(op string, raw []byte) error {
	malformed := func(err error) error {
		return &Error{Kind: KindMalformed, Op: op, Err: err}
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return malformed(errors.New("page envelope must be a JSON object"))
	}

	var env rawPage
	if err := json.Unmarshal(raw, &env); err != nil {
		return malformed(err)
	}

	items, err := decodeArray[T](env.Content)
	if err != nil {
		return malformed(fmt.Errorf("content: %w", err))
	}

	totalElements := 0
	if env.TotalElements != nil {
		totalElements = *env.TotalElements
	}
	if totalElements < 0 {
		return malformed(fmt.Errorf("totalElements is negative (%d)", totalElements))
	}

	totalPages := 0
	if env.TotalPages != nil {
		totalPages = *env.TotalPages
	}
	if totalPages < 0 {
		return malformed(fmt.Errorf("totalPages is negative (%d)", totalPages))
	}
	if totalPages == 0 {
		totalPages = model.TotalPages(totalElements, d.size)
	}

	d.page = model.Page[T]{
		Content:       items,
		TotalPages:    totalPages,
		TotalElements: totalElements,
	}
	return nil
}

type listDecoder[T any] struct {
	items []T
}

func (d *listDecoder[T]) decodeRaw(op string, raw []byte) error {
	items, err := decodeArray[T](raw)
	if err != nil {
		return &Error{Kind: KindMalformed, Op: op, Err: err}
	}
	d.items = items
	return nil
}

// decodeArray accepts a JSON array or null; anything else is rejected
func decodeArray[T any](raw []byte) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []T{}, nil
	}
	if raw[0] != '[' {
		return nil, errors.New("expected a JSON array")
	}
	items := []T{}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ListPage fetches one page of a collection with the active filters
func ListPage[T any](ctx context.Context, c *Client, token string, resource model.Resource, q model.PageQuery) (model.Page[T], error) {
	d := &pageDecoder[T]{size: q.Size}
	target := c.endpoint(q.Values(), resource.String())
	if err := c.doJSON(ctx, "list "+resource.String(), http.MethodGet, target, token, nil, d); err != nil {
		return model.Page[T]{}, err
	}
	return d.page, nil
}

// ListAll fetches the full, unfiltered collection
func ListAll[T any](ctx context.Context, c *Client, token string, resource model.Resource) ([]T, error) {
	d := &listDecoder[T]{}
	target := c.endpoint(nil, resource.String(), "all")
	if err := c.doJSON(ctx, "list all "+resource.String(), http.MethodGet, target, token, nil, d); err != nil {
		return nil, err
	}
	return d.items, nil
}

// ListOwned fetches every record of a collection that belongs to one owner
func ListOwned[T any](ctx context.Context, c *Client, token, ownerID string, resource model.Resource) ([]T, error) {
	d := &listDecoder[T]{}
	target := c.endpoint(nil, model.ResourceOwners.String(), ownerID, resource.String())
	if err := c.doJSON(ctx, "list owned "+resource.String(), http.MethodGet, target, token, nil, d); err != nil {
		return nil, err
	}
	return d.items, nil
}

// Get fetches one record
func Get[T any](ctx context.Context, c *Client, token string, resource model.Resource, id string) (T, error) {
	var out T
	err := c.doJSON(ctx, "get "+resource.String(), http.MethodGet, c.endpoint(nil, resource.String(), id), token, nil, &out)
	return out, err
}

// Create posts a new record and returns the stored version
func Create[T any](ctx context.Context, c *Client, token string, resource model.Resource, body any) (T, error) {
	var out T
	err := c.doJSON(ctx, "create "+resource.String(), http.MethodPost, c.endpoint(nil, resource.String()), token, body, &out)
	return out, err
}

// Update replaces a record and returns the stored version
func Update[T any](ctx context.Context, c *Client, token string, resource model.Resource, id string, body any) (T, error) {
	var out T
	err := c.doJSON(ctx, "update "+resource.String(), http.MethodPut, c.endpoint(nil, resource.String(), id), token, body, &out)
	return out, err
}

// PageFetcher binds a collection and a session token for paged loading
type PageFetcher[T any] struct {
	Client   *Client
	Token    string
	Resource model.Resource
}

// FetchPage implements paging.Fetcher
func (f PageFetcher[T]) FetchPage(ctx context.Context, q model.PageQuery) (model.Page[T], error) {
	return ListPage[T](ctx, f.Client, f.Token, f.Resource, q)
}
