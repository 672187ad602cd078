package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/2opremio/sqnz/config"
	"github.com/2opremio/sqnz/internal/log"
	"github.com/2opremio/sqnz/proto"
	"github.com/2opremio/sqnz/server"
)

var version string

const shutdownTimeout = 15 * time.Second

func main() {
	godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := log.Must(log.NewLogger(log.WithLogLevel(cfg.LogLevel))).With(zap.String("app", "sqnz"))
	logger.Info("starting", zap.String("version", version), zap.String("root", cfg.Root))

	store, err := server.OpenStore(cfg.Root)
	if err != nil {
		logger.Fatal("could not open store", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, store, logger)
	stop()
	if err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
	logger.Info("done")
	logger.Sync()
}

func run(ctx context.Context, cfg config.Config, seqs server.Sequences, logger *zap.Logger) error {
	httpLn, err := net.Listen("tcp", net.JoinHostPort("0.0.0.0", strconv.Itoa(int(cfg.Port))))
	if err != nil {
		return fmt.Errorf("could not listen: %w", err)
	}
	var grpcLn net.Listener
	if cfg.GRPCPort != 0 {
		grpcLn, err = net.Listen("tcp", net.JoinHostPort("0.0.0.0", strconv.Itoa(int(cfg.GRPCPort))))
		if err != nil {
			httpLn.Close()
			return fmt.Errorf("could not listen for grpc: %w", err)
		}
	}
	return serve(ctx, cfg.Server, httpLn, grpcLn, seqs, logger)
}

// serve runs the HTTP engine on httpLn, and the gRPC API on grpcLn when it is
// not nil, until ctx is done or one of them fails.
func serve(ctx context.Context, engine config.Approach, httpLn, grpcLn net.Listener, seqs server.Sequences, logger *zap.Logger) error {
	h := server.NewHTTPHandler(seqs, logger)
	eg, ctx := errgroup.WithContext(ctx)

	logger.Info("serving http", zap.Stringer("engine", engine), zap.Stringer("addr", httpLn.Addr()))
	switch engine {
	case config.FastHTTPApproach:
		fs := &fasthttp.Server{
			Handler:                      h.HandleFastHTTP,
			Name:                         "sqnz",
			DisablePreParseMultipartForm: true,
		}
		eg.Go(func() error {
			return fs.Serve(httpLn)
		})
		eg.Go(func() error {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return fs.ShutdownWithContext(sctx)
		})
	case config.HTTPApproach:
		hs := &http.Server{
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
		}
		eg.Go(func() error {
			if err := hs.Serve(httpLn); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		eg.Go(func() error {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return hs.Shutdown(sctx)
		})
	default:
		httpLn.Close()
		if grpcLn != nil {
			grpcLn.Close()
		}
		return fmt.Errorf("unsupported http engine: %s", engine)
	}

	if grpcLn != nil {
		logger.Info("serving grpc", zap.Stringer("addr", grpcLn.Addr()))
		gs := grpc.NewServer()
		proto.RegisterSequencesServer(gs, server.NewGRPCServer(seqs, logger))
		eg.Go(func() error {
			return gs.Serve(grpcLn)
		})
		eg.Go(func() error {
			<-ctx.Done()
			gs.GracefulStop()
			return nil
		})
	}

	err := eg.Wait()
	logger.Info("stopped", zap.Error(err))
	return err
}
