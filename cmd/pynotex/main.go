package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/Beeta/pynotex/internal/agent"
	"github.com/Beeta/pynotex/internal/ai"
	"github.com/Beeta/pynotex/internal/chunker"
	"github.com/Beeta/pynotex/internal/config"
	"github.com/Beeta/pynotex/internal/extractor"
	"github.com/Beeta/pynotex/internal/filestore"
	"github.com/Beeta/pynotex/internal/handler"
	"github.com/Beeta/pynotex/internal/index"
	"github.com/Beeta/pynotex/internal/job"
	"github.com/Beeta/pynotex/internal/middleware"
	"github.com/Beeta/pynotex/internal/prompt"
	"github.com/Beeta/pynotex/internal/repo"
	"github.com/Beeta/pynotex/internal/retriever"
	"github.com/Beeta/pynotex/internal/schedule"
	"github.com/Beeta/pynotex/internal/service"
)

var version = "dev"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "pynotex",
		Short: "pynotex notebook backend",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the pynotex server",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(configPath)
			if err != nil {
				return err
			}
			defer app.close()
			return app.serve()
		},
	}
	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")

	var ingestNotebook string
	var ingestName string
	ingestCmd := &cobra.Command{
		Use:   "ingest [files...]",
		Short: "ingest files into a notebook without the server",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if ingestNotebook == "" {
				return fmt.Errorf("--notebook is required")
			}
			app, err := buildApp(configPath)
			if err != nil {
				return err
			}
			defer app.close()
			return app.ingest(cmd.Context(), ingestNotebook, ingestName, args)
		},
	}
	ingestCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	ingestCmd.Flags().StringVar(&ingestNotebook, "notebook", "", "target notebook id, or 'new:<name>' to create one")
	ingestCmd.Flags().StringVar(&ingestName, "name", "", "override the source name (single file only)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	rootCmd.AddCommand(runCmd, ingestCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

type app struct {
	cfg       *config.Config
	db        *sql.DB
	notebooks *service.NotebookService
	sources   *service.SourceService
	chats     *service.ChatService
	transform *service.TransformService
	notes     *repo.NoteRepo
	jobs      *repo.JobRepo
	files     filestore.Store
}

func buildApp(configPath string) (*app, error) {
	if configPath == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded",
		zap.String("config", configPath), zap.String("version", version))

	db, err := repo.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := repo.ApplyMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	notebookRepo := repo.NewNotebookRepo(db)
	sourceRepo := repo.NewSourceRepo(db)
	noteRepo := repo.NewNoteRepo(db)
	chatRepo := repo.NewChatRepo(db)
	jobRepo := repo.NewJobRepo(db)

	files, err := filestore.New(cfg.FileStore)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init file store: %w", err)
	}

	gen, imageGen, err := buildGenerators(cfg.Providers)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	indexes := index.NewRegistry(chunker.New(cfg.Chunk.Size, cfg.Chunk.Overlap))
	assembler := prompt.NewAssembler(0)

	sources := service.NewSourceService(notebookRepo, sourceRepo, extractor.New(), indexes, files, cfg.Upload.MaxBytes)

	var sink agent.ImageSink
	if imageGen != nil {
		sink = filestore.NewImageSaver(files, cfg.BaseURL)
	}
	ag := agent.New(gen, imageGen, sink, assembler, agent.Config{
		Timeout:       time.Duration(cfg.Transform.TimeoutSec) * time.Second,
		MaxSlides:     cfg.Transform.MaxSlides,
		ImageParallel: cfg.Transform.ImageParallel,
	})

	return &app{
		cfg:       cfg,
		db:        db,
		notebooks: service.NewNotebookService(notebookRepo, sourceRepo, noteRepo, chatRepo, jobRepo, indexes),
		sources:   sources,
		chats:     service.NewChatService(notebookRepo, chatRepo, indexes, retriever.NewLexical(), assembler, gen, cfg.Retrieve.TopK),
		transform: service.NewTransformService(notebookRepo, sourceRepo, noteRepo, jobRepo, sources, ag, cfg.Transform.CacheSize, time.Duration(cfg.Transform.CacheTTLMin)*time.Minute),
		notes:     noteRepo,
		jobs:      jobRepo,
		files:     files,
	}, nil
}

// buildGenerators wires the configured providers into an ordered fallback
// chain, plus the first image-capable provider for slide and figure
// rendering.
func buildGenerators(configs []config.ProviderConfig) (ai.IGenerator, ai.IImageGenerator, error) {
	var entries []ai.GeneratorEntry
	var imageGen ai.IImageGenerator
	for _, pc := range configs {
		provider, err := ai.NewProvider(pc.Name, pc.Args)
		if err != nil {
			return nil, nil, fmt.Errorf("init provider %s: %w", pc.Name, err)
		}
		entries = append(entries, ai.GeneratorEntry{
			Name:      pc.Name,
			Generator: ai.NewGenerator(provider, pc.Model),
		})
		if imageGen == nil && pc.ImageModel != "" {
			imageProvider, err := ai.NewImageProvider(pc.Name, pc.Args)
			if err != nil {
				logutil.GetLogger(context.Background()).Warn("image provider unavailable",
					zap.String("name", pc.Name), zap.Error(err))
				continue
			}
			imageGen = ai.NewImageGenerator(imageProvider, pc.ImageModel)
		}
	}
	gen := ai.NewGroupGenerator(entries)
	if gen == nil {
		return nil, nil, fmt.Errorf("no usable provider configured")
	}
	return gen, imageGen, nil
}

func (a *app) serve() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.sources.RestoreIndexes(ctx); err != nil {
		return fmt.Errorf("restore indexes: %w", err)
	}

	deps := handler.RouterDeps{
		Notebooks: handler.NewNotebookHandler(a.notebooks),
		Sources:   handler.NewSourceHandler(a.sources, a.cfg.Upload.MaxBytes),
		Notes:     handler.NewNoteHandler(a.notes),
		Transform: handler.NewTransformHandler(a.transform),
		Chats:     handler.NewChatHandler(a.chats),
		Files:     handler.NewFileHandler(a.files),
		System:    handler.NewSystemHandler(a.cfg),
		GenLimit:  middleware.RateLimit(time.Second),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", a.cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(nil),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewJobSweep(a.jobs, time.Duration(a.cfg.JobSweep.RetainHours)*time.Hour), a.cfg.JobSweep.Cron); err != nil {
		return err
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(ctx).Info("http server listening", zap.Int("port", a.cfg.Port))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}

func (a *app) ingest(ctx context.Context, notebook, name string, paths []string) error {
	if len(paths) > 1 && name != "" {
		return fmt.Errorf("--name applies to a single file")
	}
	if err := a.sources.RestoreIndexes(ctx); err != nil {
		return fmt.Errorf("restore indexes: %w", err)
	}

	notebookID := notebook
	if after, ok := strings.CutPrefix(notebook, "new:"); ok {
		nb, err := a.notebooks.Create(ctx, after, "")
		if err != nil {
			return err
		}
		notebookID = nb.ID
		fmt.Printf("created notebook %s (%s)\n", nb.Name, nb.ID)
	}

	for _, path := range paths {
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		info, err := file.Stat()
		if err != nil {
			file.Close()
			return err
		}
		sourceName := filepath.Base(path)
		if name != "" {
			sourceName = name
		}
		src, err := a.sources.Upload(ctx, notebookID, sourceName, file, info.Size())
		file.Close()
		if err != nil {
			return fmt.Errorf("ingest %s: %w", path, err)
		}
		fmt.Printf("ingested %s as %s (%d chunks)\n", path, src.ID, src.ChunkCount)
	}
	return nil
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}
