package appwrite

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Document is a record returned by the Appwrite databases API. The system
// attributes are decoded eagerly; the full payload is kept for Decode.
type Document struct {
	ID           string    `json:"$id"`
	CollectionID string    `json:"$collectionId"`
	DatabaseID   string    `json:"$databaseId"`
	CreatedAt    time.Time `json:"$createdAt"`
	UpdatedAt    time.Time `json:"$updatedAt"`

	raw json.RawMessage
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Document) UnmarshalJSON(b []byte) error {
	type systemFields Document
	var fields systemFields
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	*d = Document(fields)
	d.raw = append(json.RawMessage(nil), b...)
	return nil
}

// Decode unmarshals the document's attributes into v.
func (d Document) Decode(v any) error {
	if len(d.raw) == 0 {
		return fmt.Errorf("document %s: no payload", d.ID)
	}
	return json.Unmarshal(d.raw, v)
}

// DocumentList is one page of documents matching a query.
type DocumentList struct {
	Total     int        `json:"total"`
	Documents []Document `json:"documents"`
}

// CreateDocument stores data as a new document in the collection.
func (c *Client) CreateDocument(ctx context.Context, databaseID, collectionID, documentID string, data any) (*Document, error) {
	req, err := jsonRequest(http.MethodPost, collectionPath(databaseID, collectionID), map[string]any{
		"documentId": documentID,
		"data":       data,
	})
	if err != nil {
		return nil, err
	}

	var doc Document
	if _, err := c.do(ctx, req, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListDocuments returns the documents of a collection matching queries.
func (c *Client) ListDocuments(ctx context.Context, databaseID, collectionID string, queries ...Query) (*DocumentList, error) {
	params := url.Values{}
	for _, q := range queries {
		params.Add("queries[]", string(q))
	}

	var list DocumentList
	if _, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   collectionPath(databaseID, collectionID),
		query:  params,
	}, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func collectionPath(databaseID, collectionID string) string {
	return "/databases/" + url.PathEscape(databaseID) + "/collections/" + url.PathEscape(collectionID) + "/documents"
}
