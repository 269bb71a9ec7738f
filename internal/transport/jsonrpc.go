package transport

import (
	"encoding/json"
	"io"
	"net/http"
)

// JSON-RPC 2.0 error codes.
const (
	ErrParseCode      = -32700
	ErrInvalidReq     = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
	ErrInternal       = -32603
	// ErrApplication carries a coded domain error in Error.Data.
	ErrApplication = -32000
)

// maxRequestBytes bounds a single RPC body. Backups are restored through
// POST /import/backup, which has its own limit.
const maxRequestBytes = 1 << 20

// Request is one JSON-RPC 2.0 call. Batches are not accepted.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      any             `json:"id,omitempty"`
}

// Response is a JSON-RPC 2.0 reply carrying either Result or Error.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
	ID      any    `json:"id,omitempty"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// ParseRequest decodes one request. Failures are returned as *Error with
// ErrParseCode for malformed JSON and ErrInvalidReq for a well-formed body
// that is not a 2.0 call.
func ParseRequest(body io.Reader) (Request, error) {
	var req Request
	if err := json.NewDecoder(io.LimitReader(body, maxRequestBytes)).Decode(&req); err != nil {
		return Request{}, &Error{Code: ErrParseCode, Message: "parse error: " + err.Error()}
	}
	switch {
	case req.JSONRPC != "2.0":
		return Request{}, &Error{Code: ErrInvalidReq, Message: `invalid request: jsonrpc must be "2.0"`}
	case req.Method == "":
		return Request{}, &Error{Code: ErrInvalidReq, Message: "invalid request: method is required"}
	}
	return req, nil
}

// WriteResult writes a success reply.
func WriteResult(w http.ResponseWriter, id any, result any) {
	writeJSON(w, Response{JSONRPC: "2.0", Result: result, ID: id})
}

// WriteError writes an error reply. JSON-RPC errors still use HTTP 200.
func WriteError(w http.ResponseWriter, id any, code int, message string, data any) {
	writeJSON(w, Response{
		JSONRPC: "2.0",
		Error:   &Error{Code: code, Message: message, Data: data},
		ID:      id,
	})
}

func writeJSON(w http.ResponseWriter, payload Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(payload)
}
