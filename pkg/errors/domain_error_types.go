package errors

import (
	"fmt"
	"strings"
	"time"
)

// DomainErrorType represents the category of domain error
type DomainErrorType string

const (
	// DomainValidationError indicates input validation failure
	DomainValidationError DomainErrorType = "VALIDATION_ERROR"

	// DomainBusinessRuleError indicates a graph rule violation
	DomainBusinessRuleError DomainErrorType = "BUSINESS_RULE_ERROR"

	// DomainNotFoundError indicates a resource was not found
	DomainNotFoundError DomainErrorType = "NOT_FOUND"

	// DomainConflictError indicates a conflict with existing state
	DomainConflictError DomainErrorType = "CONFLICT"

	// DomainInfrastructureError indicates an infrastructure-level failure
	DomainInfrastructureError DomainErrorType = "INFRASTRUCTURE_ERROR"
)

// Error codes of the workflow graph taxonomy.
const (
	CodeDuplicateID        = "DUPLICATE_ID"
	CodeUnknownType        = "UNKNOWN_TYPE"
	CodeUnknownNode        = "UNKNOWN_NODE"
	CodeDanglingReference  = "DANGLING_REFERENCE"
	CodeInvalidGraph       = "INVALID_GRAPH"
	CodeGraphLimitExceeded = "GRAPH_LIMIT_EXCEEDED"
	CodeWorkflowNotFound   = "WORKFLOW_NOT_FOUND"
	CodeInvalidChange      = "INVALID_CHANGE"
)

// DomainError represents a domain-specific error with rich context
type DomainError struct {
	Type       DomainErrorType        `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StatusCode int                    `json:"status_code"`
}

// NewDomainError creates a new domain error
func NewDomainError(errorType DomainErrorType, code string, message string) *DomainError {
	return &DomainError{
		Type:       errorType,
		Code:       code,
		Message:    message,
		Details:    make(map[string]interface{}),
		StatusCode: domainErrorTypeToStatusCode(errorType),
	}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Type, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

// WithCause adds a cause to the error
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	e.Details[key] = value
	return e
}

// Is reports a match on type and code, so a fresh error built by one of the
// constructors below matches its sentinel through errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// Unwrap returns the underlying cause
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// instance copies a sentinel so details never leak into the shared value.
func (e *DomainError) instance(message string) *DomainError {
	err := NewDomainError(e.Type, e.Code, message)
	err.StatusCode = e.StatusCode
	return err
}

func domainErrorTypeToStatusCode(errorType DomainErrorType) int {
	switch errorType {
	case DomainValidationError:
		return 400 // Bad Request
	case DomainBusinessRuleError:
		return 422 // Unprocessable Entity
	case DomainNotFoundError:
		return 404 // Not Found
	case DomainConflictError:
		return 409 // Conflict
	default:
		return 500 // Internal Server Error
	}
}

// Sentinels for the workflow graph. Compare with errors.Is; construct fresh
// instances through the New* functions.
var (
	// ErrDuplicateID is raised when an add change reuses an existing node or edge id.
	ErrDuplicateID = NewDomainError(
		DomainConflictError,
		CodeDuplicateID,
		"An element with this id already exists",
	)

	// ErrUnknownType is raised when a node type is not in the block catalog.
	ErrUnknownType = NewDomainError(
		DomainBusinessRuleError,
		CodeUnknownType,
		"The node type is not registered in the block catalog",
	)

	// ErrUnknownNode is raised when a connection references a missing node.
	ErrUnknownNode = NewDomainError(
		DomainNotFoundError,
		CodeUnknownNode,
		"The connection references a node that does not exist",
	)

	// ErrDanglingReference is raised by a low-level edge add that bypasses Connect.
	ErrDanglingReference = NewDomainError(
		DomainBusinessRuleError,
		CodeDanglingReference,
		"The edge references a node that does not exist",
	)

	// ErrInvalidGraph is raised when an imported graph violates an invariant.
	ErrInvalidGraph = NewDomainError(
		DomainBusinessRuleError,
		CodeInvalidGraph,
		"The graph violates structural invariants",
	)

	ErrGraphLimitExceeded = NewDomainError(
		DomainBusinessRuleError,
		CodeGraphLimitExceeded,
		"The workflow graph size limit was exceeded",
	)

	ErrWorkflowNotFound = NewDomainError(
		DomainNotFoundError,
		CodeWorkflowNotFound,
		"The requested workflow does not exist",
	)

	ErrInvalidChange = NewDomainError(
		DomainValidationError,
		CodeInvalidChange,
		"The change is malformed",
	)
)

// NewDuplicateIDError reports an add of an id already present. kind is "node" or "edge".
func NewDuplicateIDError(kind, id string) *DomainError {
	return ErrDuplicateID.instance(fmt.Sprintf("%s id %q already exists", kind, id)).
		WithDetail("kind", kind).
		WithDetail("id", id)
}

// NewUnknownTypeError reports a node type missing from the block catalog.
func NewUnknownTypeError(nodeID, nodeType string) *DomainError {
	return ErrUnknownType.instance(fmt.Sprintf("node %q has unknown type %q", nodeID, nodeType)).
		WithDetail("node_id", nodeID).
		WithDetail("type", nodeType)
}

// NewUnknownNodeError reports a connection endpoint that is not in the graph.
// role is "source" or "target".
func NewUnknownNodeError(role, nodeID string) *DomainError {
	return ErrUnknownNode.instance(fmt.Sprintf("%s node %q does not exist", role, nodeID)).
		WithDetail("role", role).
		WithDetail("node_id", nodeID)
}

// NewDanglingReferenceError reports an edge whose endpoint is not in the graph.
func NewDanglingReferenceError(edgeID, role, nodeID string) *DomainError {
	return ErrDanglingReference.instance(fmt.Sprintf("edge %q %s %q does not exist", edgeID, role, nodeID)).
		WithDetail("edge_id", edgeID).
		WithDetail("role", role).
		WithDetail("node_id", nodeID)
}

// NewInvalidGraphError wraps the collected invariant violations of an import.
func NewInvalidGraphError(violations *ValidationErrors) *DomainError {
	return ErrInvalidGraph.instance("graph rejected: "+strings.Join(violations.Messages(), "; ")).
		WithDetail("violations", violations.Messages()).
		WithDetail("fields", violations.ToMap())
}

// NewGraphLimitExceededError reports that a commit would exceed a size limit.
func NewGraphLimitExceededError(kind string, limit int) *DomainError {
	return ErrGraphLimitExceeded.instance(fmt.Sprintf("maximum number of %ss (%d) reached", kind, limit)).
		WithDetail("kind", kind).
		WithDetail("limit", limit)
}

// NewWorkflowNotFoundError reports a workflow id that is neither open nor saved.
func NewWorkflowNotFoundError(workflowID string) *DomainError {
	return ErrWorkflowNotFound.instance(fmt.Sprintf("workflow %q not found", workflowID)).
		WithDetail("workflow_id", workflowID)
}

// NewInvalidChangeError reports a change that cannot be applied at all.
func NewInvalidChangeError(message string) *DomainError {
	return ErrInvalidChange.instance(message)
}

// ValidationErrors aggregates multiple validation errors
type ValidationErrors struct {
	Errors []*DomainError `json:"errors"`
}

// NewValidationErrors creates a new validation errors collection
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make([]*DomainError, 0),
	}
}

// Add adds a validation error
func (v *ValidationErrors) Add(field string, message string) {
	err := NewDomainError(DomainValidationError, "FIELD_VALIDATION_ERROR", message).
		WithDetail("field", field)
	v.Errors = append(v.Errors, err)
}

// HasErrors returns true if there are validation errors
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// Messages returns the message of every collected error in order.
func (v *ValidationErrors) Messages() []string {
	messages := make([]string, len(v.Errors))
	for i, err := range v.Errors {
		messages[i] = err.Message
	}
	return messages
}

// Error implements the error interface
func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return ""
	}
	return fmt.Sprintf("Validation failed: %s", strings.Join(v.Messages(), "; "))
}

// ToMap converts validation errors to a map for JSON serialization
func (v *ValidationErrors) ToMap() map[string][]string {
	result := make(map[string][]string)

	for _, err := range v.Errors {
		field, ok := err.Details["field"].(string)
		if !ok {
			field = "general"
		}
		result[field] = append(result[field], err.Message)
	}

	return result
}

// DomainErrorResponse represents the API error response format for domain errors
type DomainErrorResponse struct {
	Error     bool                   `json:"error"`
	Type      DomainErrorType        `json:"type"`
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Timestamp string                 `json:"timestamp"`
}

// NewDomainErrorResponse creates an error response from a domain error
func NewDomainErrorResponse(err *DomainError, requestID string) *DomainErrorResponse {
	return &DomainErrorResponse{
		Error:     true,
		Type:      err.Type,
		Code:      err.Code,
		Message:   err.Message,
		Details:   err.Details,
		RequestID: requestID,
		Timestamp: fmt.Sprintf("%d", timeNow().Unix()),
	}
}

// Helper function for testing (can be mocked)
var timeNow = func() time.Time {
	return time.Now()
}
