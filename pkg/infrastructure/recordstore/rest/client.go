// Package rest implements the record store boundary against the external
// record service's HTTP API.
package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/quayside/stockflow/pkg/recordstore"
)

// Client talks to the external record service. Every call carries a bounded
// timeout so one slow store round trip cannot stall a multi-entity
// operation.
type Client struct {
	http *resty.Client
}

// Config holds connection settings for the record service
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NewClient creates a record service client
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		c.SetAuthToken(cfg.APIKey)
	}
	return &Client{http: c}
}

// Verify interface compliance
var _ recordstore.Store = (*Client)(nil)

type wirePredicate struct {
	Field string `json:"field"`
	Op    string `json:"op"`
	Value any    `json:"value,omitempty"`
}

type wireOrder struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc,omitempty"`
}

type wireQuery struct {
	Predicates []wirePredicate `json:"predicates,omitempty"`
	OrderBy    []wireOrder     `json:"order_by,omitempty"`
	Limit      int             `json:"limit,omitempty"`
}

func toWireQuery(q recordstore.Query) wireQuery {
	wq := wireQuery{Limit: q.Limit}
	for _, p := range q.Predicates {
		wq.Predicates = append(wq.Predicates, wirePredicate{Field: p.Field, Op: string(p.Op), Value: p.Value})
	}
	for _, o := range q.OrderBy {
		wq.OrderBy = append(wq.OrderBy, wireOrder{Field: o.Field, Desc: o.Desc})
	}
	return wq
}

// Find queries an entity collection
func (c *Client) Find(ctx context.Context, entity recordstore.EntityType, query recordstore.Query) ([]recordstore.Record, error) {
	var out struct {
		Records []recordstore.Record `json:"records"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(toWireQuery(query)).
		SetResult(&out).
		Post(fmt.Sprintf("/entities/%s/query", entity))
	if err := classify(resp, err); err != nil {
		return nil, err
	}
	return out.Records, nil
}

// Create inserts a record
func (c *Client) Create(ctx context.Context, entity recordstore.EntityType, fields recordstore.Record) (recordstore.Record, error) {
	var out recordstore.Record
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(fields).
		SetResult(&out).
		Post(fmt.Sprintf("/entities/%s", entity))
	if err := classify(resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

// Update patches a record, optionally guarded by predicates the service
// re-evaluates before writing
func (c *Client) Update(ctx context.Context, entity recordstore.EntityType, id string, fields recordstore.Record, guards ...recordstore.Predicate) (recordstore.Record, error) {
	body := struct {
		Fields recordstore.Record `json:"fields"`
		Guards []wirePredicate    `json:"guards,omitempty"`
	}{Fields: fields}
	for _, g := range guards {
		body.Guards = append(body.Guards, wirePredicate{Field: g.Field, Op: string(g.Op), Value: g.Value})
	}

	var out recordstore.Record
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Patch(fmt.Sprintf("/entities/%s/%s", entity, id))
	if err := classify(resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes all records matching the query
func (c *Client) Delete(ctx context.Context, entity recordstore.EntityType, query recordstore.Query) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(toWireQuery(query)).
		Post(fmt.Sprintf("/entities/%s/delete", entity))
	return classify(resp, err)
}

// classify maps transport and HTTP failures onto the store error classes
func classify(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %v", recordstore.ErrUnavailable, err)
	}
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return recordstore.ErrNotFound
	case resp.StatusCode() == http.StatusConflict:
		return recordstore.ErrConflict
	case resp.IsError():
		return fmt.Errorf("%w: status %d: %s", recordstore.ErrUnavailable, resp.StatusCode(), resp.String())
	}
	return nil
}
