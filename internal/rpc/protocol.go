// Package rpc implements the line-delimited JSON protocol served by
// `pk serve` over a unix socket, so a fleet of agent processes can share one
// open store without each paying the open/verify cost.
package rpc

import (
	"encoding/json"

	"github.com/picket-dev/picket/internal/types"
)

// Request represents an RPC request from a client to the server.
type Request struct {
	Operation     string          `json:"operation"`
	Args          json.RawMessage `json:"args,omitempty"`
	ClientVersion string          `json:"client_version,omitempty"`
}

// Response represents an RPC response from the server to a client.
type Response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Operations supported by the server.
const (
	OpHealth   = "health"
	OpCreate   = "create"
	OpList     = "list"
	OpShow     = "show"
	OpCheckout = "checkout"
	OpRelease  = "release"
	OpComment  = "comment"
	OpStatus   = "status"
	OpReport   = "report"
	OpStats    = "stats"
)

// HealthResponse is returned by the health operation.
type HealthResponse struct {
	Status  string  `json:"status"`
	Version string  `json:"version"`
	Uptime  float64 `json:"uptime_seconds"`
	DBPath  string  `json:"db_path"`
}

// CreateArgs are the arguments for the create operation.
type CreateArgs struct {
	Issue *types.Issue `json:"issue"`
	Actor string       `json:"actor"`
}

// ListArgs are the arguments for the list operation.
type ListArgs struct {
	Status     string `json:"status,omitempty"`
	Priority   string `json:"priority,omitempty"`
	Project    string `json:"project,omitempty"`
	WorkStatus string `json:"work_status,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

// ShowArgs are the arguments for the show operation.
type ShowArgs struct {
	IssueID    string `json:"issue_id"`
	WithThread bool   `json:"with_thread,omitempty"`
}

// ShowResult is the response payload for the show operation.
type ShowResult struct {
	Issue  *types.Issue         `json:"issue"`
	Thread []*types.ThreadEntry `json:"thread,omitempty"`
}

// CheckoutArgs are the arguments for the checkout operation.
type CheckoutArgs struct {
	IssueID string `json:"issue_id"`
	Agent   string `json:"agent"`
}

// ReleaseArgs are the arguments for the release operation.
type ReleaseArgs struct {
	IssueID string `json:"issue_id"`
	Agent   string `json:"agent"`
}

// CommentArgs are the arguments for the comment operation.
type CommentArgs struct {
	IssueID string `json:"issue_id"`
	Author  string `json:"author"`
	Comment string `json:"comment"`
}

// StatusArgs are the arguments for the status operation.
type StatusArgs struct {
	IssueID string `json:"issue_id"`
	Status  string `json:"status"`
	Author  string `json:"author"`
	Unlock  bool   `json:"unlock,omitempty"`
}

// ReportArgs are the arguments for the report operation.
type ReportArgs struct {
	IssueID string        `json:"issue_id"`
	Report  *types.Report `json:"report"`
	Agent   string        `json:"agent"`
}

// NewRequest creates a new RPC request with the given operation and arguments.
func NewRequest(operation string, args interface{}) (*Request, error) {
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	return &Request{
		Operation:     operation,
		Args:          argsJSON,
		ClientVersion: ClientVersion,
	}, nil
}

// NewSuccessResponse creates a successful response with the given data.
func NewSuccessResponse(data interface{}) (*Response, error) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Response{
		Success: true,
		Data:    dataJSON,
	}, nil
}

// NewErrorResponse creates an error response with the given error message.
func NewErrorResponse(err error) *Response {
	return &Response{
		Success: false,
		Error:   err.Error(),
	}
}

// UnmarshalArgs unmarshals the request arguments into the given value.
func (r *Request) UnmarshalArgs(v interface{}) error {
	return json.Unmarshal(r.Args, v)
}

// UnmarshalData unmarshals the response data into the given value.
func (r *Response) UnmarshalData(v interface{}) error {
	return json.Unmarshal(r.Data, v)
}
