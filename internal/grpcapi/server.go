package grpcapi

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/grpc"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rmacdonaldsmith/commitlog-go/internal/logging"
	"github.com/rmacdonaldsmith/commitlog-go/internal/telemetry"
	api "github.com/rmacdonaldsmith/commitlog-go/pkg/api/v1"
	"github.com/rmacdonaldsmith/commitlog-go/pkg/commitlog"
)

// DefaultMaxRecordBytes is the record size cap used when Config leaves it unset.
const DefaultMaxRecordBytes = 1 << 20 // 1MB

// envelopeBytes covers the ProduceRequest framing around a record value.
const envelopeBytes = 64

// Config holds gRPC facade settings.
type Config struct {
	// MaxRecordBytes caps the decoded record value accepted by Produce.
	MaxRecordBytes int64
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.MaxRecordBytes <= 0 {
		c.MaxRecordBytes = DefaultMaxRecordBytes
	}
}

// Server owns the gRPC server instance and the log it serves.
type Server struct {
	log    commitlog.CommitLog
	config Config
	logger logrus.FieldLogger
	grpc   *grpc.Server
}

// Verify that Server implements the LogServer interface at compile time
var _ LogServer = (*Server)(nil)

// New constructs a gRPC server for log. A nil logger discards output.
func New(log commitlog.CommitLog, config Config, logger logrus.FieldLogger, opts ...grpc.ServerOption) *Server {
	config.SetDefaults()
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	s := &Server{
		log:    log,
		config: config,
		logger: logger.WithField(logging.ComponentKey, "grpcapi"),
	}
	opts = append([]grpc.ServerOption{
		grpc.MaxRecvMsgSize(int(config.MaxRecordBytes) + envelopeBytes),
		grpc.ForceServerCodec(codec{}),
		grpc.ChainUnaryInterceptor(s.unaryInterceptor),
	}, opts...)
	s.grpc = grpc.NewServer(opts...)
	RegisterLogServer(s.grpc, s)
	return s
}

// Serve accepts connections on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.WithField("address", lis.Addr().String()).Info("gRPC server listening")
	err := s.grpc.Serve(lis)
	if errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return err
}

// ListenAndServe binds to addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(lis) }()
	select {
	case <-ctx.Done():
		s.grpc.GracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}

// Stop drains in-flight calls, forcing a stop when ctx expires first.
func (s *Server) Stop(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.grpc.Stop()
	}
}

// Produce appends the request record and returns its offset.
func (s *Server) Produce(ctx context.Context, req *api.ProduceRequest) (*api.ProduceResponse, error) {
	if req.Record != nil && int64(len(req.Record.Value)) > s.config.MaxRecordBytes {
		return nil, status.Errorf(grpccodes.ResourceExhausted,
			"record of %d bytes exceeds %d bytes", len(req.Record.Value), s.config.MaxRecordBytes)
	}
	offset, err := s.log.Append(ctx, req.Record.ToRecord())
	if err != nil {
		return nil, toStatus(err)
	}
	return &api.ProduceResponse{Offset: offset}, nil
}

// Consume returns the record stored at the requested offset.
func (s *Server) Consume(ctx context.Context, req *api.ConsumeRequest) (*api.ConsumeResponse, error) {
	record, err := s.log.Read(ctx, req.Offset)
	if err != nil {
		return nil, toStatus(err)
	}
	return &api.ConsumeResponse{Record: api.FromRecord(record)}, nil
}

func (s *Server) unaryInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	ctx, span := telemetry.Tracer().Start(ctx, info.FullMethod)
	defer span.End()

	start := time.Now()
	resp, err := handler(ctx, req)
	code := status.Code(err)

	entry := logging.WithSpan(ctx, s.logger.WithFields(logrus.Fields{
		"method":   info.FullMethod,
		"code":     code.String(),
		"duration": time.Since(start),
	}))
	switch code {
	case grpccodes.OK, grpccodes.NotFound:
		entry.Debug("gRPC call")
	case grpccodes.Canceled, grpccodes.DeadlineExceeded, grpccodes.ResourceExhausted:
		entry.WithError(err).Warn("gRPC call rejected")
	default:
		span.SetStatus(codes.Error, err.Error())
		entry.WithError(err).Error("gRPC call failed")
	}
	return resp, err
}

func toStatus(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Err()
	}
	switch commitlog.KindOf(err) {
	case commitlog.KindOffsetNotFound:
		return status.Error(grpccodes.NotFound, err.Error())
	case commitlog.KindClosed:
		return status.Error(grpccodes.Unavailable, err.Error())
	default:
		return status.Error(grpccodes.Internal, err.Error())
	}
}
