package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/exprcalc/pkg/api"
	grpcapi "github.com/lemonberrylabs/exprcalc/pkg/api/grpc"
	"github.com/lemonberrylabs/exprcalc/pkg/calc"
	"github.com/lemonberrylabs/exprcalc/pkg/store"
	"github.com/lemonberrylabs/exprcalc/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP and gRPC APIs",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "HTTP server port (default 8787, env PORT)")
	serveCmd.Flags().Int("grpc-port", 0, "gRPC server port (default 8788, env GRPC_PORT)")
	serveCmd.Flags().String("host", "", "Bind address (default 0.0.0.0, env HOST)")
	serveCmd.Flags().String("history-db", "", "SQLite file for the evaluation history, in memory when empty (env HISTORY_DB)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetInt("port"); v != 0 {
		cfg.Port = v
	}
	if v, _ := cmd.Flags().GetInt("grpc-port"); v != 0 {
		cfg.GRPCPort = v
	}
	if v, _ := cmd.Flags().GetString("host"); v != "" {
		cfg.Host = v
	}
	if v, _ := cmd.Flags().GetString("history-db"); v != "" {
		cfg.HistoryDB = v
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	opts, err := cfg.ExprOptions()
	if err != nil {
		return err
	}

	var history store.History = store.New()
	if cfg.HistoryDB != "" {
		db, err := store.OpenSQLite(cfg.HistoryDB)
		if err != nil {
			return err
		}
		history = db
		log.Printf("Evaluation history: %s", cfg.HistoryDB)
	} else {
		log.Printf("Evaluation history: in memory")
	}
	defer history.Close()

	svc := calc.New(history, opts...)
	server := api.New(svc)
	web.New(svc).Register(server.App())

	// Start gRPC server
	grpcServer := grpcapi.New(svc)
	go func() {
		log.Printf("gRPC server listening on %s", cfg.GRPCAddr())
		if err := grpcServer.Serve(cfg.GRPCAddr()); err != nil {
			log.Fatalf("gRPC server error: %v", err)
		}
	}()

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down exprcalc...")
		grpcServer.GracefulStop()
		if err := server.Shutdown(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	log.Printf("exprcalc listening on %s (literal=%s, max length=%d)", cfg.Addr(), cfg.LiteralType, cfg.MaxExpressionLength)
	return server.Listen(cfg.Addr())
}
