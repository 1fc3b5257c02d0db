package dataclient

import (
	"context"
	"net/http"
	"net/url"
)

// Filter is an exact-match condition on one record field.
type Filter struct {
	Field string
	Value string
}

func Where(field, value string) Filter {
	return Filter{Field: field, Value: value}
}

// Store is the set of operations the data server offers on a collection.
type Store[T any] interface {
	List(ctx context.Context, filters ...Filter) ([]T, error)
	Get(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, v *T) (*T, error)
	Replace(ctx context.Context, id string, v *T) (*T, error)
	Patch(ctx context.Context, id string, fields map[string]any) (*T, error)
	Delete(ctx context.Context, id string) error
}

// Collection is a typed view over one REST collection.
type Collection[T any] struct {
	client *Client
	name   string
}

var _ Store[struct{}] = (*Collection[struct{}])(nil)

func (c *Collection[T]) Name() string {
	return c.name
}

func (c *Collection[T]) List(ctx context.Context, filters ...Filter) ([]T, error) {
	var q url.Values
	if len(filters) > 0 {
		q = url.Values{}
		for _, f := range filters {
			q.Add(f.Field, f.Value)
		}
	}
	var out []T
	if err := c.client.do(ctx, http.MethodGet, "/"+c.name, q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Collection[T]) Get(ctx context.Context, id string) (*T, error) {
	var out T
	if err := c.client.do(ctx, http.MethodGet, c.recordPath(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Collection[T]) Create(ctx context.Context, v *T) (*T, error) {
	var out T
	if err := c.client.do(ctx, http.MethodPost, "/"+c.name, nil, v, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Replace is a full PUT of the record.
func (c *Collection[T]) Replace(ctx context.Context, id string, v *T) (*T, error) {
	var out T
	if err := c.client.do(ctx, http.MethodPut, c.recordPath(id), nil, v, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Patch sends only the given fields.
func (c *Collection[T]) Patch(ctx context.Context, id string, fields map[string]any) (*T, error) {
	var out T
	if err := c.client.do(ctx, http.MethodPatch, c.recordPath(id), nil, fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	return c.client.do(ctx, http.MethodDelete, c.recordPath(id), nil, nil, nil)
}

func (c *Collection[T]) recordPath(id string) string {
	return "/" + c.name + "/" + url.PathEscape(id)
}
