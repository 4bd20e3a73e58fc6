package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/mod/semver"

	"github.com/picket-dev/picket/internal/storage"
	"github.com/picket-dev/picket/internal/types"
)

// ServerVersion is the version of this RPC server. Set by the serve command
// from the CLI version before the server starts.
var ServerVersion = "0.0.0"

// Server serves storage operations over a unix socket. One server holds one
// open store; every connected client shares it, so cross-client atomicity is
// still the store's transaction, not anything at this layer.
type Server struct {
	socketPath string
	store      storage.Storage

	mu           sync.Mutex
	listener     net.Listener
	shutdownChan chan struct{}
	stopOnce     sync.Once
	readyChan    chan struct{}
	wg           sync.WaitGroup

	startTime      time.Time
	requestTimeout time.Duration
}

// NewServer creates a new RPC server around an open store.
func NewServer(socketPath string, store storage.Storage) *Server {
	requestTimeout := 30 * time.Second
	if env := os.Getenv("PICKET_REQUEST_TIMEOUT"); env != "" {
		if timeout, err := time.ParseDuration(env); err == nil && timeout > 0 {
			requestTimeout = timeout
		}
	}
	return &Server{
		socketPath:     socketPath,
		store:          store,
		shutdownChan:   make(chan struct{}),
		readyChan:      make(chan struct{}),
		startTime:      time.Now(),
		requestTimeout: requestTimeout,
	}
}

// Ready returns a channel closed once the server is accepting connections.
func (s *Server) Ready() <-chan struct{} {
	return s.readyChan
}

// Start listens on the socket and serves until Stop is called.
func (s *Server) Start() error {
	// A stale socket from a dead server blocks the bind.
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale socket: %w", err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.socketPath, err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	close(s.readyChan)

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.shutdownChan:
				s.wg.Wait()
				return nil
			default:
				return fmt.Errorf("accept failed: %w", err)
			}
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

// Stop shuts the server down and removes the socket.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.shutdownChan)
		s.mu.Lock()
		if s.listener != nil {
			_ = s.listener.Close()
		}
		s.mu.Unlock()
		_ = os.Remove(s.socketPath)
	})
}

// handleConn serves requests on one connection until it closes. One line in,
// one line out.
func (s *Server) handleConn(conn net.Conn) {
	defer func() { _ = conn.Close() }()

	reader := bufio.NewReader(conn)
	writer := bufio.NewWriter(conn)

	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			return
		}

		var req Request
		resp := &Response{}
		if err := json.Unmarshal(line, &req); err != nil {
			resp = NewErrorResponse(fmt.Errorf("malformed request: %w", err))
		} else {
			resp = s.dispatch(&req)
		}

		respJSON, err := json.Marshal(resp)
		if err != nil {
			return
		}
		if _, err := writer.Write(respJSON); err != nil {
			return
		}
		if err := writer.WriteByte('\n'); err != nil {
			return
		}
		if err := writer.Flush(); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(req *Request) *Response {
	if err := checkVersionCompat(req.ClientVersion); err != nil {
		return NewErrorResponse(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.requestTimeout)
	defer cancel()

	var (
		data interface{}
		err  error
	)
	switch req.Operation {
	case OpHealth:
		data = &HealthResponse{
			Status:  "healthy",
			Version: ServerVersion,
			Uptime:  time.Since(s.startTime).Seconds(),
			DBPath:  s.store.Path(),
		}
	case OpCreate:
		data, err = s.handleCreate(ctx, req)
	case OpList:
		data, err = s.handleList(ctx, req)
	case OpShow:
		data, err = s.handleShow(ctx, req)
	case OpCheckout:
		err = s.handleCheckout(ctx, req)
	case OpRelease:
		err = s.handleRelease(ctx, req)
	case OpComment:
		data, err = s.handleComment(ctx, req)
	case OpStatus:
		err = s.handleStatus(ctx, req)
	case OpReport:
		err = s.handleReport(ctx, req)
	case OpStats:
		data, err = s.store.GetStatistics(ctx)
	default:
		err = fmt.Errorf("unknown operation: %s", req.Operation)
	}
	if err != nil {
		return NewErrorResponse(err)
	}

	resp, err := NewSuccessResponse(data)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("failed to encode response: %w", err))
	}
	return resp
}

func (s *Server) handleCreate(ctx context.Context, req *Request) (*types.Issue, error) {
	var args CreateArgs
	if err := req.UnmarshalArgs(&args); err != nil {
		return nil, fmt.Errorf("invalid create args: %w", err)
	}
	if args.Issue == nil {
		return nil, fmt.Errorf("create requires an issue")
	}
	if err := s.store.CreateIssue(ctx, args.Issue, args.Actor); err != nil {
		return nil, err
	}
	return args.Issue, nil
}

func (s *Server) handleList(ctx context.Context, req *Request) ([]*types.Issue, error) {
	var args ListArgs
	if err := req.UnmarshalArgs(&args); err != nil {
		return nil, fmt.Errorf("invalid list args: %w", err)
	}
	filter := types.IssueFilter{Limit: args.Limit}
	if args.Status != "" {
		status := types.Status(args.Status)
		filter.Status = &status
	}
	if args.Priority != "" {
		priority := types.Priority(args.Priority)
		filter.Priority = &priority
	}
	if args.Project != "" {
		filter.Project = &args.Project
	}
	if args.WorkStatus != "" {
		ws := types.WorkStatus(args.WorkStatus)
		filter.WorkStatus = &ws
	}
	return s.store.ListIssues(ctx, filter)
}

func (s *Server) handleShow(ctx context.Context, req *Request) (*ShowResult, error) {
	var args ShowArgs
	if err := req.UnmarshalArgs(&args); err != nil {
		return nil, fmt.Errorf("invalid show args: %w", err)
	}
	issue, err := s.store.GetIssue(ctx, args.IssueID)
	if err != nil {
		return nil, err
	}
	result := &ShowResult{Issue: issue}
	if args.WithThread {
		result.Thread, err = s.store.GetThread(ctx, args.IssueID, 0)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *Server) handleCheckout(ctx context.Context, req *Request) error {
	var args CheckoutArgs
	if err := req.UnmarshalArgs(&args); err != nil {
		return fmt.Errorf("invalid checkout args: %w", err)
	}
	return s.store.CheckoutIssue(ctx, args.IssueID, args.Agent)
}

func (s *Server) handleRelease(ctx context.Context, req *Request) error {
	var args ReleaseArgs
	if err := req.UnmarshalArgs(&args); err != nil {
		return fmt.Errorf("invalid release args: %w", err)
	}
	return s.store.ReleaseIssue(ctx, args.IssueID, args.Agent)
}

func (s *Server) handleComment(ctx context.Context, req *Request) (*types.ThreadEntry, error) {
	var args CommentArgs
	if err := req.UnmarshalArgs(&args); err != nil {
		return nil, fmt.Errorf("invalid comment args: %w", err)
	}
	return s.store.AddComment(ctx, args.IssueID, args.Author, args.Comment)
}

func (s *Server) handleStatus(ctx context.Context, req *Request) error {
	var args StatusArgs
	if err := req.UnmarshalArgs(&args); err != nil {
		return fmt.Errorf("invalid status args: %w", err)
	}
	return s.store.UpdateStatus(ctx, args.IssueID, types.Status(args.Status), args.Author, args.Unlock)
}

func (s *Server) handleReport(ctx context.Context, req *Request) error {
	var args ReportArgs
	if err := req.UnmarshalArgs(&args); err != nil {
		return fmt.Errorf("invalid report args: %w", err)
	}
	if args.Report == nil {
		return fmt.Errorf("report operation requires a report")
	}
	return s.store.SubmitReport(ctx, args.IssueID, args.Report, args.Agent)
}

// checkVersionCompat rejects clients whose major version differs from the
// server's. Invalid versions (dev builds) are allowed through.
func checkVersionCompat(clientVersion string) error {
	if clientVersion == "" {
		return nil
	}
	serverVer := ServerVersion
	if !strings.HasPrefix(serverVer, "v") {
		serverVer = "v" + serverVer
	}
	clientVer := clientVersion
	if !strings.HasPrefix(clientVer, "v") {
		clientVer = "v" + clientVer
	}

	if !semver.IsValid(serverVer) || !semver.IsValid(clientVer) {
		return nil
	}

	if semver.Major(serverVer) != semver.Major(clientVer) {
		return fmt.Errorf("incompatible versions: client %s, server %s; restart the server with a matching pk build",
			clientVersion, ServerVersion)
	}
	return nil
}
