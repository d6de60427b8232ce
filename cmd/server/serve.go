package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"capi/internal/captcha"
	"capi/internal/catalog"
	"capi/internal/config"
	"capi/internal/handlers"
	"capi/internal/parser"
	"capi/internal/resume"
	"capi/internal/storage"
)

type flags struct {
	configPath string
	port       string
	source     string
	dataDir    string
	noStorage  bool
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:           "capi",
		Short:         "Colleges API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				log.Printf("Invalid configuration: %v", err)
				return err
			}
			if err := serve(cmd.Context(), cfg, !f.noStorage); err != nil {
				log.Printf("Server stopped: %v", err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&f.configPath, "config", "c", os.Getenv("CAPI_CONFIG"), "path to a TOML config file")
	cmd.Flags().StringVarP(&f.port, "port", "p", "", "listen port (overrides PORT)")
	cmd.Flags().StringVarP(&f.source, "source", "s", "", "dataset path or URL (overrides COLLEGES_SOURCE)")
	cmd.Flags().StringVar(&f.dataDir, "data-dir", "", "PocketBase data directory (overrides DATA_DIR)")
	cmd.Flags().BoolVar(&f.noStorage, "no-storage", false, "disable the resume endpoints and PocketBase")

	return cmd
}

func loadConfig(cmd *cobra.Command, f flags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("port") {
		cfg.Server.Port = f.port
	}
	if cmd.Flags().Changed("source") {
		cfg.Dataset.Source = f.source
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.Server.DataDir = f.dataDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDataset runs the one-shot load and publishes the table to gate
func loadDataset(ctx context.Context, cfg *config.Config, gate *catalog.Gate) error {
	manager, err := parser.NewParserManager(nil)
	if err != nil {
		return err
	}
	defer manager.Cleanup()

	if timeout := time.Duration(cfg.Dataset.LoadTimeout); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	table, err := manager.Load(ctx, cfg.Dataset.Source)
	if err != nil {
		return err
	}
	if err := gate.Publish(table); err != nil {
		return err
	}
	if gate.State() != catalog.Ready {
		return fmt.Errorf("dataset %s is empty", cfg.Dataset.Source)
	}

	log.Printf("CSV Loaded! %d rows", len(table))
	return nil
}

func serve(ctx context.Context, cfg *config.Config, withStorage bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load the dataset before binding the listener
	gate := catalog.NewGate()
	if err := loadDataset(ctx, cfg, gate); err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	engine := catalog.NewEngine(gate, catalog.Options{
		SkipHeaderInStates:    cfg.Dataset.SkipHeaderInStates,
		SkipHeaderInDistricts: cfg.Dataset.SkipHeaderInDistricts,
	})

	verifier := captcha.NewVerifier(captcha.Config{
		Secret:    cfg.Captcha.Secret,
		VerifyURL: cfg.Captcha.VerifyURL,
		RateLimit: cfg.Captcha.RateLimit,
		Burst:     cfg.Captcha.Burst,
	}, nil)

	router := handlers.Router{
		Colleges:    handlers.NewCollegeHandler(engine),
		Captcha:     handlers.NewCaptchaHandler(verifier),
		CORSOrigins: cfg.Server.CORSOrigins,
	}

	if withStorage {
		// Initialize PocketBase store with data directory
		store, err := storage.NewPocketBaseStore(storage.Options{
			DataDir:    cfg.Server.DataDir,
			Collection: cfg.Resume.Collection,
			Field:      cfg.Resume.Field,
			PublicURL:  cfg.Resume.PublicURL,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer store.Close()

		var compressor resume.Compressor
		if cfg.Resume.CompressPDF {
			compressor = resume.PDFCompressor{}
		}
		svc := resume.NewService(store, store, compressor, cfg.Resume.MaxSize)
		router.Resume = handlers.NewResumeHandler(svc)
		router.Files = store
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handlers.NewRouter(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server running at http://localhost%s", cfg.Addr())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Printf("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
