// Package isy is a client for the ISY node-server REST API.
//
// Node servers occupy a profile slot on the controller and manage their own
// nodes under /rest/ns/{profile}. The API is GET-only; a 2xx status is the
// success contract, response bodies are not interpreted.
package isy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to one ISY node-server profile slot.
type Client struct {
	base     string
	profile  int
	username string
	password string
	http     *http.Client
}

// New creates a client for the given profile slot. Credentials are the ISY
// admin credentials used for HTTP Basic auth.
func New(base string, profile int, username, password string) *Client {
	return &Client{
		base:     strings.TrimRight(base, "/"),
		profile:  profile,
		username: username,
		password: password,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

// AddNode registers a node under the node definition defID. primary is the
// address of the node's primary (the controller node for day nodes).
func (c *Client) AddNode(ctx context.Context, addr, defID, primary, name string) error {
	q := url.Values{}
	q.Set("primary", primary)
	q.Set("name", name)
	path := fmt.Sprintf("/rest/ns/%d/nodes/%s/add/%s",
		c.profile, url.PathEscape(addr), url.PathEscape(defID))
	return c.get(ctx, "add node", path, q)
}

// RemoveNode deletes a node from the controller.
func (c *Client) RemoveNode(ctx context.Context, addr string) error {
	path := fmt.Sprintf("/rest/ns/%d/nodes/%s/remove", c.profile, url.PathEscape(addr))
	return c.get(ctx, "remove node", path, nil)
}

// ReportStatus updates one driver value on a node.
func (c *Client) ReportStatus(ctx context.Context, addr, driver string, value, uom int) error {
	path := fmt.Sprintf("/rest/ns/%d/nodes/%s/report/status/%s/%d/%d",
		c.profile, url.PathEscape(addr), url.PathEscape(driver), value, uom)
	return c.get(ctx, "report status", path, nil)
}

func (c *Client) get(ctx context.Context, op, path string, q url.Values) error {
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &Error{Sentinel: ErrBadStatus, Operation: op, Err: err}
	}
	req.SetBasicAuth(c.username, c.password)

	res, err := c.http.Do(req)
	if err != nil {
		return &Error{Sentinel: ErrUnavailable, Operation: op, Err: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()
	}()

	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
		return nil
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return &Error{Sentinel: ErrUnauthorized, Operation: op, Status: res.StatusCode}
	case res.StatusCode == http.StatusNotFound:
		return &Error{Sentinel: ErrNotFound, Operation: op, Status: res.StatusCode}
	case res.StatusCode >= 500:
		return &Error{Sentinel: ErrUnavailable, Operation: op, Status: res.StatusCode}
	default:
		return &Error{Sentinel: ErrBadStatus, Operation: op, Status: res.StatusCode}
	}
}
