package types

// WorkItemRequest submits a document for parameter update and export.
type WorkItemRequest struct {
	// Path of the document to open, as seen by the host.
	// example: /work/peg/SquarePeg.ipt
	Document string `json:"document" example:"/work/peg/SquarePeg.ipt"`
	// Positional arguments forwarded to the add-in. Key "_1" names the change-set JSON file.
	// example: {"_1":"/work/params.json"}
	Arguments map[string]string `json:"arguments,omitempty"`
}

// WorkItemStatus reports the lifecycle of a submitted work item.
type WorkItemStatus struct {
	// Work item identifier.
	// example: 0b3f1c9e-8d0c-4a52-9a55-7a4f3b0f0c11
	ID string `json:"id" example:"0b3f1c9e-8d0c-4a52-9a55-7a4f3b0f0c11"`
	// One of queued, running, finished.
	// example: finished
	Status string `json:"status" example:"finished"`
	// Document path from the request.
	Document string `json:"document,omitempty"`
	// Expected output files that currently exist on disk. A failed run may leave a partial set.
	Outputs []string `json:"outputs,omitempty"`
	// Unix seconds of submission.
	SubmittedAt int64 `json:"submitted_at,omitempty"`
	// Unix seconds of completion, zero until finished.
	FinishedAt int64 `json:"finished_at,omitempty"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
