package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hillway/coursegate/internal/app"
	"github.com/hillway/coursegate/internal/backend"
	"github.com/hillway/coursegate/internal/course"
	"github.com/hillway/coursegate/internal/gate"
	"github.com/hillway/coursegate/internal/quiz"
	"github.com/hillway/coursegate/internal/screen"
	"github.com/hillway/coursegate/internal/screens/reader"
	"github.com/hillway/coursegate/internal/screens/register"
	"github.com/hillway/coursegate/internal/store"
)

var readCmd = &cobra.Command{
	Use:   "read <course>",
	Short: "Open a course in the terminal reader",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReader(cmd, args[0])
	},
}

// courseEnv is everything a command needs to rebuild a course's progress.
type courseEnv struct {
	manifest *course.Manifest
	store    *store.Store
	gateCfg  gate.Config
	quizCfg  quiz.Config
	admin    bool
	logger   *slog.Logger
}

// openCourse loads the course at path and opens the store.
func openCourse(cmd *cobra.Command, path string) (*courseEnv, error) {
	gateCfg := gate.ConfigFromEnv()
	if err := gateCfg.Validate(); err != nil {
		return nil, fmt.Errorf("gate config: %w", err)
	}
	quizCfg := quiz.ConfigFromEnv()
	if err := quizCfg.Validate(); err != nil {
		return nil, fmt.Errorf("quiz config: %w", err)
	}

	m, err := loadCourse(path)
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	st, err := openStore(cmd)
	if err != nil {
		return nil, err
	}
	return &courseEnv{
		manifest: m,
		store:    st,
		gateCfg:  gateCfg,
		quizCfg:  quizCfg,
		admin:    resolveAdmin(cmd),
		logger:   slog.Default().With("course", m.Course),
	}, nil
}

func (e *courseEnv) Close() error {
	return e.store.Close()
}

func (e *courseEnv) engine(ctx context.Context, submitter quiz.Submitter) (*quiz.Engine, error) {
	return quiz.NewEngine(ctx, quiz.Options{
		Config:    e.quizCfg,
		Manifest:  e.manifest,
		KV:        e.store.KV(),
		Submitter: submitter,
		Events:    e.store.EventRepo(),
		Logger:    e.logger,
	})
}

func (e *courseEnv) session(ctx context.Context, engine *quiz.Engine, reporter gate.Reporter) (*gate.Session, error) {
	return gate.NewSession(ctx, gate.Options{
		Config:   e.gateCfg,
		Manifest: e.manifest,
		KV:       e.store.KV(),
		Events:   e.store.EventRepo(),
		Quizzes:  engine,
		Reporter: reporter,
		Logger:   e.logger,
		Admin:    e.admin,
	})
}

// runReader opens the store, builds the quiz engine and gate session, and
// launches the TUI. Learners are asked to register first when a backend is
// configured and no identity is stored.
func runReader(cmd *cobra.Command, path string) error {
	ctx := cmd.Context()

	bcfg := backend.ConfigFromEnv()
	if err := bcfg.Validate(); err != nil {
		return fmt.Errorf("backend config: %w", err)
	}
	var client *backend.Client
	if bcfg.Enabled() {
		client = backend.NewClient(bcfg)
	}

	env, err := openCourse(cmd, path)
	if err != nil {
		return err
	}
	defer env.Close()
	env.logger = env.logger.With("reader_session", uuid.NewString())

	kv := env.store.KV()
	var reporter *backend.Reporter
	defer func() { reporter.Close() }()

	open := func(id backend.Identity) (screen.Screen, error) {
		reporter = backend.NewReporter(client, id, bcfg.Timeout, env.logger)
		engine, err := env.engine(ctx, reporter)
		if err != nil {
			return nil, err
		}
		return reader.New(ctx, reader.Options{
			Manifest: env.manifest,
			Engine:   engine,
			Events:   env.store.EventRepo(),
			Logger:   env.logger,
			NewSession: func(ctx context.Context) (*gate.Session, error) {
				return env.session(ctx, engine, reporter)
			},
		})
	}

	id, known, err := backend.LoadIdentity(ctx, kv)
	if err != nil {
		env.logger.Warn("warning: failed to load learner identity", "error", err)
	}

	var initial screen.Screen
	if client != nil && !known {
		initial = register.New(
			func(ctx context.Context, name, email string) (backend.Identity, error) {
				return backend.Register(ctx, client, kv, name, email, env.logger)
			},
			open,
		)
	} else {
		if initial, err = open(id); err != nil {
			return err
		}
	}

	return app.Run(ctx, app.Options{
		Initial: initial,
		Course:  env.manifest.Course,
		Admin:   env.admin,
	})
}
