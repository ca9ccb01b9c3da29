package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// Row-store access. Collections live behind a REST interface where
// equality filters are query parameters (col=eq.value) and writes
// return the affected rows when asked to.

// buildQuery assembles the query string for a row request. filters are
// column→value equality matches; order is a raw order expression such
// as "created_at.desc" (empty for none).
func buildQuery(filters map[string]string, order string) string {
	q := url.Values{}
	q.Set("select", "*")
	for col, val := range filters {
		q.Set(col, "eq."+val)
	}
	if order != "" {
		q.Set("order", order)
	}
	return q.Encode()
}

func (c *Client) rowsRequest(ctx context.Context, method, table, query string, body any) ([]Row, error) {
	token := ""
	if sess := c.currentSession(); sess != nil {
		token = sess.AccessToken
	}
	extra := map[string]string{"Prefer": "return=representation"}
	data, err := c.do(ctx, method, "/rest/v1/"+table, query, body, token, extra)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var rows []Row
	if err := json.Unmarshal(data, &rows); err != nil {
		// Some endpoints return a single object instead of an array.
		var row Row
		if err2 := json.Unmarshal(data, &row); err2 != nil {
			return nil, err
		}
		rows = []Row{row}
	}
	return rows, nil
}

// SelectRows reads all rows of a collection matching the filters.
func (c *Client) SelectRows(ctx context.Context, table string, filters map[string]string, order string) ([]Row, error) {
	return c.rowsRequest(ctx, http.MethodGet, table, buildQuery(filters, order), nil)
}

// SelectRow reads a single matching row, or nil when none matches.
func (c *Client) SelectRow(ctx context.Context, table string, filters map[string]string) (Row, error) {
	rows, err := c.SelectRows(ctx, table, filters, "")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// InsertRow inserts a row and returns it as stored (with generated id
// and timestamps filled in by the store).
func (c *Client) InsertRow(ctx context.Context, table string, values Row) (Row, error) {
	rows, err := c.rowsRequest(ctx, http.MethodPost, table, buildQuery(nil, ""), values)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &RequestError{Status: http.StatusInternalServerError, Message: "insert returned no row"}
	}
	return rows[0], nil
}

// UpdateRows applies a sparse update to all rows matching the filters
// and returns the updated rows.
func (c *Client) UpdateRows(ctx context.Context, table string, filters map[string]string, values Row) ([]Row, error) {
	return c.rowsRequest(ctx, http.MethodPatch, table, buildQuery(filters, ""), values)
}

// DeleteRows removes all rows matching the filters. Referential
// constraints (a License's owned contracts, links and charges) are the
// store's responsibility: it either cascades or blocks the delete.
func (c *Client) DeleteRows(ctx context.Context, table string, filters map[string]string) error {
	_, err := c.rowsRequest(ctx, http.MethodDelete, table, buildQuery(filters, ""), nil)
	return err
}
