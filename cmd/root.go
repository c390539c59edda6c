package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hillway/coursegate/internal/course"
	"github.com/hillway/coursegate/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "coursegate [course]",
	Short: "Read a gated training course in the terminal",
	Long: "coursegate renders a day-by-day training course with reading gates: each section\n" +
		"needs enough reading time and scrolling, each quiz unlocks after its day's reading,\n" +
		"and each day unlocks after the previous day's quiz.",
	Args: cobra.MaximumNArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return setupLogging(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeLogging()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runReader(cmd, args[0])
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Database path or DSN (overrides COURSEGATE_DB env var)")
	rootCmd.PersistentFlags().String("db-driver", "", "Database driver: sqlite, postgres or mysql (overrides COURSEGATE_DB_DRIVER)")
	rootCmd.PersistentFlags().Bool("admin", false, "Bypass every reading gate (or COURSEGATE_ADMIN=true)")
	rootCmd.PersistentFlags().String("log-file", "", "Log file path (default $XDG_STATE_HOME/coursegate/coursegate.log)")

	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDriver returns the database driver using --db-driver (highest
// priority), then COURSEGATE_DB_DRIVER, then sqlite.
func resolveDriver(cmd *cobra.Command) string {
	if d, _ := cmd.Flags().GetString("db-driver"); d != "" {
		return strings.ToLower(d)
	}
	return store.DefaultDriver()
}

// resolveDSN returns the database DSN using --db (highest priority), then
// COURSEGATE_DB, then the default XDG path for sqlite.
func resolveDSN(cmd *cobra.Command, driver string) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		if driver == "sqlite" {
			return p, store.EnsureDir(p)
		}
		return p, nil
	}
	if driver != "sqlite" && os.Getenv("COURSEGATE_DB") == "" {
		return "", fmt.Errorf("%s needs a DSN: set --db or COURSEGATE_DB", driver)
	}
	return store.DefaultDBPath()
}

// openStore opens the store selected by the persistent flags.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	driver := resolveDriver(cmd)
	dsn, err := resolveDSN(cmd, driver)
	if err != nil {
		return nil, fmt.Errorf("resolve database: %w", err)
	}
	s, err := store.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// resolveAdmin reports whether gates are bypassed, from --admin or
// COURSEGATE_ADMIN.
func resolveAdmin(cmd *cobra.Command) bool {
	if admin, _ := cmd.Flags().GetBool("admin"); admin {
		return true
	}
	admin, _ := strconv.ParseBool(os.Getenv("COURSEGATE_ADMIN"))
	return admin
}

// loadCourse reads and validates a course manifest, or derives one from an
// HTML page.
func loadCourse(path string) (*course.Manifest, error) {
	m, err := course.Load(path)
	if err != nil {
		return nil, err
	}
	if m.Empty() {
		slog.Info("no day structure found, course is shown ungated", "path", path)
	}
	return m, nil
}

var logFile *os.File

// setupLogging points the default slog logger at the log file, keeping the
// terminal free for the reader.
func setupLogging(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("log-file")
	if path == "" {
		var err error
		if path, err = defaultLogPath(); err != nil {
			return err
		}
	}
	if err := store.EnsureDir(path); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	logFile = f
	slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelInfo})))
	return nil
}

func closeLogging() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

func defaultLogPath() (string, error) {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "coursegate", "coursegate.log"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".local", "state", "coursegate", "coursegate.log"), nil
}
