// Package server exposes the query engine as an HTTP JSON API. Requests are
// POSTs whose X-Miniql-Target header names the operation:
//
//	MiniQL.Query     SELECT, INSERT, UPDATE and DELETE statements
//	MiniQL.KeyValue  GET, PUT and DEL statements
//	MiniQL.Explain   normalized statement text, nothing runs
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/truora/miniql"
	"github.com/truora/miniql/query"
	"github.com/truora/miniql/types"
)

const (
	targetHeader    = "X-Miniql-Target"
	requestIDHeader = "X-Miniql-Request-Id"
	contentType     = "application/json"
)

// FailureCondition describe the failure condition to emulate.
type FailureCondition string

const (
	// FailureConditionNone emulates the system working normally.
	FailureConditionNone FailureCondition = "none"
	// FailureConditionInternalServerError emulates a storage outage.
	FailureConditionInternalServerError FailureCondition = "internal_server"
)

var (
	// ErrEmulatedFailure returned by every operation while a failure is emulated
	ErrEmulatedFailure = errors.New("emulated error")

	emulatingErrors = map[FailureCondition]error{
		FailureConditionNone:                nil,
		FailureConditionInternalServerError: ErrEmulatedFailure,
	}
)

// Option configures a Server
type Option func(*Server)

// WithLogger sets the request logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// Server implements http.Handler over an engine and its storage managers.
type Server struct {
	engine *miniql.Engine
	docs   query.DocumentManager
	kv     query.KeyValueManager
	logger *slog.Logger

	mu              sync.Mutex
	forceFailureErr error
}

// NewServer creates an HTTP handler running statements against docs and kv.
// Either manager may be nil, its operation then answers with a QueryError.
func NewServer(engine *miniql.Engine, docs query.DocumentManager, kv query.KeyValueManager, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		docs:   docs,
		kv:     kv,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// EmulateFailure forces the server to fail on subsequent operations.
func (s *Server) EmulateFailure(condition FailureCondition) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.forceFailureErr = emulatingErrors[condition]
}

func (s *Server) failure() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.forceFailureErr
}

// ServeHTTP dispatches requests based on X-Miniql-Target.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	defer func() {
		err := r.Body.Close()
		if err != nil {
			s.logger.Warn("error closing body", slog.Any("error", err))
		}
	}()

	requestID := uuid.NewString()
	w.Header().Set(requestIDHeader, requestID)

	op := ""

	target := r.Header.Get(targetHeader)
	if target != "" {
		parts := strings.Split(target, ".")
		op = parts[len(parts)-1]
	}

	logger := s.logger.With(slog.String("request_id", requestID), slog.String("operation", op))

	var input Request

	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()

	if err := decoder.Decode(&input); err != nil {
		writeError(w, types.NewError("SerializationException", "malformed request body", err))
		return
	}

	var (
		resp interface{}
		err  error
	)

	switch op {
	case "Query":
		resp, err = s.query(r.Context(), &input)
	case "KeyValue":
		resp, err = s.keyValue(r.Context(), &input)
	case "Explain":
		resp, err = s.explain(&input)
	default:
		http.Error(w, "unsupported operation", http.StatusBadRequest)
		return
	}

	if err != nil {
		logger.Info("statement failed", slog.String("query", input.Query), slog.Any("error", err))
		writeError(w, err)

		return
	}

	logger.Debug("statement served", slog.String("query", input.Query))

	w.Header().Set("Content-Type", contentType)

	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(resp); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) query(ctx context.Context, input *Request) (*QueryOutput, error) {
	if s.docs == nil {
		return nil, types.NewQueryError("no document storage is configured")
	}

	if err := s.failure(); err != nil {
		return nil, err
	}

	if len(input.Params) == 0 {
		res, err := s.engine.Query(ctx, s.docs, input.Query)
		if err != nil {
			return nil, err
		}

		return output(res)
	}

	stmt, err := s.engine.Prepare(s.docs, input.Query)
	if err != nil {
		return nil, err
	}

	return s.run(ctx, stmt, input)
}

func (s *Server) keyValue(ctx context.Context, input *Request) (*QueryOutput, error) {
	if s.kv == nil {
		return nil, types.NewQueryError("no key-value storage is configured")
	}

	if err := s.failure(); err != nil {
		return nil, err
	}

	if len(input.Params) == 0 {
		res, err := s.engine.QueryKeyValue(ctx, s.kv, input.Query)
		if err != nil {
			return nil, err
		}

		return output(res)
	}

	stmt, err := s.engine.PrepareKeyValue(s.kv, input.Query)
	if err != nil {
		return nil, err
	}

	return s.run(ctx, stmt, input)
}

func (s *Server) run(ctx context.Context, stmt *miniql.PreparedStatement, input *Request) (*QueryOutput, error) {
	for _, name := range input.names() {
		v, err := param(input.Params[name])
		if err != nil {
			return nil, err
		}

		if err := stmt.Bind(name, v).Err(); err != nil {
			return nil, err
		}
	}

	res, err := stmt.Execute(ctx)
	if err != nil {
		return nil, err
	}

	return output(res)
}

func (s *Server) explain(input *Request) (*ExplainOutput, error) {
	text, params, err := s.engine.Explain(input.Query)
	if err != nil {
		return nil, err
	}

	return &ExplainOutput{Statement: text, Params: params}, nil
}

func output(res *query.Result) (*QueryOutput, error) {
	rows, err := res.All()
	if err != nil {
		return nil, err
	}

	items := make([]interface{}, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.Native())
	}

	return &QueryOutput{Items: items, Count: len(items)}, nil
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusBadRequest
	msg := err.Error()
	typ := "InternalFailure"

	var qErr types.Error
	if errors.As(err, &qErr) {
		typ = qErr.Code()
		msg = qErr.Message()
	} else {
		code = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorBody{Type: typ, Message: msg})
}
