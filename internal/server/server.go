package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	eventbus "github.com/ionrelay/gqlruntime/internal/eventbus"
	events "github.com/ionrelay/gqlruntime/internal/events"
	executor "github.com/ionrelay/gqlruntime/internal/executor"
	language "github.com/ionrelay/gqlruntime/internal/language"
	reqid "github.com/ionrelay/gqlruntime/internal/reqid"
	schema "github.com/ionrelay/gqlruntime/internal/schema"
	"google.golang.org/grpc/metadata"
)

// Handler is an http.Handler that serves a GraphQL endpoint.
// It parses requests, runs the executor, and formats responses per GraphQL spec.
type Handler struct {
	exec *executor.Executor
	opt  Options
	sem  chan struct{} // nil means unbounded
}

type Options struct {
	// Timeout sets a default timeout if the incoming request context has none.
	// 0 means no default timeout.
	Timeout time.Duration

	// Pretty enables indented JSON responses (useful for dev).
	Pretty bool

	// MaxBodyBytes limits the size of the request body. 0 means unlimited.
	MaxBodyBytes int64

	// CORS configuration. If AllowedOrigins is empty, CORS is disabled.
	CORS CORSOptions

	// MetadataHeaders lists HTTP headers to forward into gRPC metadata.
	// Header names are case-insensitive. Default is none.
	MetadataHeaders []string

	// GraphiQL enables the in-browser IDE when true.
	GraphiQL bool

	// MaxConcurrentRequests caps how many requests this Handler executes at
	// once; a request that arrives while every slot is taken is rejected at
	// once with 503 Service Unavailable. 0 means unbounded. This bounds root-level fan-out indirectly: each
	// in-flight request owns exactly one root executeFields/executeFieldsSerial
	// call tree, so capping requests caps the number of those trees running
	// concurrently.
	MaxConcurrentRequests int
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}
func WithMetadataHeaders(headers ...string) Option {
	return func(o *Options) { o.MetadataHeaders = headers }
}
func WithMaxConcurrentRequests(n int) Option {
	return func(o *Options) { o.MaxConcurrentRequests = n }
}

// CORSOptions holds simple CORS settings.
type CORSOptions struct {
	AllowedOrigins []string
}

func WithGraphiQL(enable bool) Option { return func(o *Options) { o.GraphiQL = enable } }

// New creates a new GraphQL HTTP handler using the given runtime and schema.
func New(runtime executor.Runtime, schema *schema.Schema, opts ...Option) (*Handler, error) {
	exec := executor.NewExecutor(runtime, schema)
	op := Options{Timeout: 10 * time.Second, GraphiQL: true}
	for _, f := range opts {
		f(&op)
	}
	h := &Handler{exec: exec, opt: op}
	if op.MaxConcurrentRequests > 0 {
		h.sem = make(chan struct{}, op.MaxConcurrentRequests)
	}
	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}

	ctx, rid := reqid.NewContext(ctx)
	status := http.StatusOK
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Request: r})
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{Request: r, Status: status, Duration: time.Since(start)})
	}()

	if r.Method == http.MethodOptions {
		if len(h.opt.CORS.AllowedOrigins) > 0 {
			setCORSHeaders(w, r, h.opt.CORS)
		}
		status = http.StatusNoContent
		w.WriteHeader(status)
		return
	}

	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		status = http.StatusMethodNotAllowed
		writeJSON(w, status, errorResponse(nil, &language.Error{Message: "method not allowed"}), h.opt.Pretty)
		return
	}

	// Serve GraphiQL IDE when enabled and the client expects HTML.
	if r.Method == http.MethodGet && h.opt.GraphiQL && acceptsHTML(r.Header.Get("Accept")) && r.URL.Query().Get("query") == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(graphiqlPage)
		return
	}

	if h.sem != nil {
		select {
		case h.sem <- struct{}{}:
			defer func() { <-h.sem }()
		default:
			status = http.StatusServiceUnavailable
			writeJSON(w, status, errorResponse(nil, &language.Error{Message: "too many concurrent requests"}), h.opt.Pretty)
			return
		}
	}

	// Map configured headers into metadata
	md := metadata.MD{}
	if len(h.opt.MetadataHeaders) > 0 {
		allowed := make(map[string]struct{}, len(h.opt.MetadataHeaders))
		for _, hdr := range h.opt.MetadataHeaders {
			allowed[strings.ToLower(hdr)] = struct{}{}
		}
		for k, v := range r.Header {
			if _, ok := allowed[strings.ToLower(k)]; ok {
				md[strings.ToLower(k)] = v
			}
		}
	}
	md["graphql-request-id"] = []string{strconv.FormatInt(rid, 10)}
	ctx = metadata.NewOutgoingContext(ctx, md)

	req, batch, berr := parseRequest(r, h.opt.MaxBodyBytes)
	if berr != nil {
		status = http.StatusBadRequest
		if berr.Message == errBodyTooLargeMessage {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, errorResponse(nil, berr), h.opt.Pretty)
		return
	}

	if len(h.opt.CORS.AllowedOrigins) > 0 {
		setCORSHeaders(w, r, h.opt.CORS)
	}

	if batch != nil {
		// Batched requests run through ExecuteSync: multipart streaming has
		// no natural per-item framing in a JSON array response.
		op := make([]any, len(batch))
		for i := range batch {
			res := h.executeOneSync(ctx, batch[i])
			op[i] = res
		}
		writeJSON(w, status, op, h.opt.Pretty)
		return
	}

	h.executeOne(w, ctx, req, status)
}

// executeOne runs req and writes the response to w. An operation with no
// outstanding @defer/@stream work writes one JSON body; one that does streams
// the initial payload followed by each ExecutionPatchResult as a multipart/
// mixed chunk, per the incremental delivery over HTTP convention.
func (h *Handler) executeOne(w http.ResponseWriter, ctx context.Context, req GraphQLRequest, status int) {
	doc, opType, gerr := h.parseAndPublishStart(ctx, req)
	if gerr != nil {
		writeJSON(w, http.StatusOK, errorResponse(nil, gerr), h.opt.Pretty)
		return
	}

	start := time.Now()
	switch r := h.exec.Execute(ctx, doc, req.OperationName, req.Variables, nil).(type) {
	case *executor.IncrementalResult:
		h.publishFinish(ctx, req, opType, r.Initial.Errors, start)
		streamIncremental(w, r, h.opt.Pretty)
	case *executor.ExecutionResult:
		h.publishFinish(ctx, req, opType, r.Errors, start)
		res := any(r)
		if len(r.Errors) > 0 {
			res = toSpecResult(r)
		}
		writeJSON(w, status, res, h.opt.Pretty)
	}
}

// executeOneSync is executeOne's non-streaming counterpart for batched
// requests. It uses ExecuteSync, so an item whose execution takes the async
// path (an async resolver or @defer/@stream work) yields ExecuteSync's
// "failed to complete synchronously" error result instead of data.
func (h *Handler) executeOneSync(ctx context.Context, req GraphQLRequest) any {
	doc, opType, gerr := h.parseAndPublishStart(ctx, req)
	if gerr != nil {
		return errorResponse(nil, gerr)
	}

	start := time.Now()
	result := h.exec.ExecuteSync(ctx, doc, req.OperationName, req.Variables, nil)
	h.publishFinish(ctx, req, opType, result.Errors, start)
	if len(result.Errors) > 0 {
		return toSpecResult(result)
	}
	return result
}

func (h *Handler) parseAndPublishStart(ctx context.Context, req GraphQLRequest) (*language.QueryDocument, string, *language.Error) {
	doc, err := language.ParseQuery(req.Query)
	if err != nil {
		if ge, ok := err.(*language.Error); ok {
			return nil, "", ge
		}
		return nil, "", &language.Error{Message: err.Error()}
	}

	opDef := doc.Operations.ForName(req.OperationName)
	if opDef == nil && len(doc.Operations) == 1 {
		opDef = doc.Operations[0]
	}
	opType := ""
	if opDef != nil {
		opType = string(opDef.Operation)
	}
	eventbus.Publish(ctx, events.GraphQLStart{Query: req.Query, OperationName: req.OperationName, OperationType: opType})
	return doc, opType, nil
}

func (h *Handler) publishFinish(ctx context.Context, req GraphQLRequest, opType string, resErrs []executor.GraphQLError, start time.Time) {
	errs := make([]error, len(resErrs))
	for i := range resErrs {
		errs[i] = resErrs[i]
	}
	eventbus.Publish(ctx, events.GraphQLFinish{
		Query:         req.Query,
		OperationName: req.OperationName,
		OperationType: opType,
		Errors:        errs,
		Duration:      time.Since(start),
	})
}

const multipartBoundary = "-"

// streamIncremental writes r's initial payload followed by each subsequent
// ExecutionPatchResult as a multipart/mixed chunk, flushing after every part
// so the client observes each payload as it settles rather than buffered.
func streamIncremental(w http.ResponseWriter, r *executor.IncrementalResult, pretty bool) {
	w.Header().Set("Content-Type", `multipart/mixed; boundary="`+multipartBoundary+`"`)
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)

	writePart(w, r.Initial, pretty)
	if flusher != nil {
		flusher.Flush()
	}
	for patch := range r.Subsequent {
		writePart(w, patch, pretty)
		if flusher != nil {
			flusher.Flush()
		}
	}
	io.WriteString(w, "--"+multipartBoundary+"--\r\n")
	if flusher != nil {
		flusher.Flush()
	}
}

func writePart(w http.ResponseWriter, payload any, pretty bool) {
	io.WriteString(w, "--"+multipartBoundary+"\r\n")
	io.WriteString(w, "Content-Type: application/json; charset=utf-8\r\n\r\n")
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(payload)
	io.WriteString(w, "\r\n")
}

// ------------------ Request parsing ------------------

type GraphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`
}

func parseRequest(r *http.Request, maxBody int64) (GraphQLRequest, []GraphQLRequest, *language.Error) {
	if r.Method == http.MethodGet {
		q := r.URL.Query().Get("query")
		if q == "" {
			return GraphQLRequest{}, nil, &language.Error{Message: "missing 'query'"}
		}
		vars := map[string]any{}
		if v := r.URL.Query().Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &vars); err != nil {
				return GraphQLRequest{}, nil, &language.Error{Message: "invalid 'variables' JSON"}
			}
		}
		op := r.URL.Query().Get("operationName")
		return GraphQLRequest{Query: q, Variables: vars, OperationName: op}, nil, nil
	}

	// POST
	ct := r.Header.Get("Content-Type")
	if ct == "" || ct == "application/json" || startsWith(ct, "application/json;") {
		reader := io.Reader(r.Body)
		if maxBody > 0 {
			reader = io.LimitReader(r.Body, maxBody+1)
		}
		body, err := io.ReadAll(reader)
		if err != nil {
			return GraphQLRequest{}, nil, &language.Error{Message: "failed to read body"}
		}
		defer r.Body.Close()
		if maxBody > 0 && int64(len(body)) > maxBody {
			return GraphQLRequest{}, nil, &language.Error{Message: errBodyTooLargeMessage}
		}

		// Try array (batch)
		var arr []GraphQLRequest
		if len(body) > 0 && body[0] == '[' {
			if err := json.Unmarshal(body, &arr); err != nil {
				return GraphQLRequest{}, nil, &language.Error{Message: "invalid JSON"}
			}
			if len(arr) == 0 {
				return GraphQLRequest{}, nil, &language.Error{Message: "empty batch"}
			}
			return GraphQLRequest{}, arr, nil
		}
		// Single
		var req GraphQLRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return GraphQLRequest{}, nil, &language.Error{Message: "invalid JSON"}
		}
		if req.Query == "" {
			return GraphQLRequest{}, nil, &language.Error{Message: "missing 'query'"}
		}
		if req.Variables == nil {
			req.Variables = map[string]any{}
		}
		return req, nil, nil
	}

	return GraphQLRequest{}, nil, &language.Error{Message: "unsupported Content-Type"}
}

// ------------------ Response formatting ------------------

type specLocation struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type specError struct {
	Message    string         `json:"message"`
	Locations  []specLocation `json:"locations,omitempty"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

type specResult struct {
	Data   any         `json:"data"`
	Errors []specError `json:"errors,omitempty"`
}

func errorResponse(data any, err *language.Error) specResult {
	se := specError{Message: err.Message}
	return specResult{Data: data, Errors: []specError{se}}
}

func toSpecResult(res *executor.ExecutionResult) specResult {
	out := specResult{Data: res.Data}
	if len(res.Errors) == 0 {
		return out
	}
	out.Errors = make([]specError, len(res.Errors))
	for i, e := range res.Errors {
		se := specError{Message: e.Message, Extensions: e.Extensions}
		// Path
		if len(e.Path) > 0 {
			se.Path = make([]any, len(e.Path))
			for j, pe := range e.Path {
				switch v := pe.(type) {
				case string:
					se.Path[j] = v
				case int:
					se.Path[j] = v
				default:
					se.Path[j] = toString(v)
				}
			}
		}
		out.Errors[i] = se
	}
	// Per spec, when errors present, data may still be partially present; we preserve it.
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any, pretty bool) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}

func startsWith(s, prefix string) bool { return len(s) >= len(prefix) && s[:len(prefix)] == prefix }
func toString(v any) string            { b, _ := json.Marshal(v); return string(b) }

const errBodyTooLargeMessage = "body too large"

func setCORSHeaders(w http.ResponseWriter, r *http.Request, opts CORSOptions) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	allowed := false
	for _, o := range opts.AllowedOrigins {
		if o == "*" || o == origin {
			allowed = true
			break
		}
	}
	if !allowed {
		return
	}
	if contains(opts.AllowedOrigins, "*") {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	}
	if r.Method == http.MethodOptions {
		if hdr := r.Header.Get("Access-Control-Request-Headers"); hdr != "" {
			w.Header().Set("Access-Control-Allow-Headers", hdr)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func acceptsHTML(accept string) bool {
	if accept == "" {
		return false
	}
	parts := strings.Split(accept, ",")
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if startsWith(p, "text/html") || p == "*/*" {
			return true
		}
	}
	return false
}
