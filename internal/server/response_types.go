// file: internal/server/response_types.go
// version: 1.0.0
// guid: 4f7a0b3c-6d9e-4f2a-8b5c-1d4e7f0a3b6c

package server

// ListResponse provides a consistent format for list responses
type ListResponse struct {
	Items  any `json:"items"`
	Count  int `json:"count"`
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
	Total  int `json:"total,omitempty"`
}

// ItemResponse provides a consistent format for single item responses
type ItemResponse struct {
	Data any `json:"data"`
}

// CreateResponse provides a consistent format for resource creation responses
type CreateResponse struct {
	ID   string `json:"id"`
	Data any    `json:"data,omitempty"`
}

// MessageResponse provides a consistent format for status messages
type MessageResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// DeleteResponse provides a consistent format for deletion responses
type DeleteResponse struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// OperationResponse acknowledges an enqueued background operation.
type OperationResponse struct {
	OperationID string `json:"operation_id"`
	Type        string `json:"type"`
	Status      string `json:"status"`
}

// NewListResponse creates a new ListResponse
func NewListResponse(items any, count int, limit int, offset int) *ListResponse {
	return &ListResponse{
		Items:  items,
		Count:  count,
		Limit:  limit,
		Offset: offset,
	}
}
