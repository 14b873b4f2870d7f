package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/LIANENGUANG/AI-Education/internal/grade"
	"github.com/LIANENGUANG/AI-Education/internal/handler"
	appI18n "github.com/LIANENGUANG/AI-Education/internal/i18n"
	"github.com/LIANENGUANG/AI-Education/internal/llm"
	"github.com/LIANENGUANG/AI-Education/internal/model"
	"github.com/LIANENGUANG/AI-Education/internal/review"
	"github.com/LIANENGUANG/AI-Education/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "aireview",
		Short: "English exam review and grading powered by LLMs",
	}

	serve := serveCmd()
	root.AddCommand(serve, gradeCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `aireview --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP review server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "aireview.db", "SQLite database path")
	f.String("upload-dir", "uploads", "Directory for uploaded documents")
	f.String("llm-backend", string(llm.BackendSiliconFlow), "LLM backend (siliconflow, openai)")
	f.String("llm-key", "", "API key for LLM (or set AIREVIEW_LLM_KEY)")
	f.String("llm-url", "", "OpenAI-compatible API base URL (overrides backend default)")
	f.String("llm-model", "", "LLM model name (overrides backend default)")
	f.Duration("llm-timeout", llm.DefaultTimeout, "Per-request LLM deadline")
	f.StringP("lang", "l", "zh", "Default message language (zh, en)")
	f.String("trace-dir", "", "Directory for raw LLM response dumps (empty = disabled)")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.String("admin-password", "", "Initial admin password (or set AIREVIEW_ADMIN_PASSWORD)")
	f.Bool("skip-llm-check", false, "Skip LLM health check on startup")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func gradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Grade answer sheets offline from JSON files",
		Long: `Grade takes a structured exam JSON file (the answer key) and a
student sheets JSON file (an array of {name, answers}) and writes the full
grade report without touching the LLM or the database.`,
		RunE: runGrade,
	}
	f := cmd.Flags()
	f.String("exam", "", "Structured exam JSON file, the answer key (required)")
	f.String("sheets", "", "Student sheets JSON file (required)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")

	_ = cmd.MarkFlagRequired("exam")
	_ = cmd.MarkFlagRequired("sheets")

	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("AIREVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("aireview")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/aireview")
	v.AddConfigPath("/etc/aireview")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := seedAdmin(db, v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if err := db.CleanupExpiredSessions(); err != nil {
		slog.Warn("cleanup expired sessions", "error", err)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	llmClient, err := llm.New(llm.Config{
		Backend: llm.Backend(v.GetString("llm-backend")),
		APIKey:  v.GetString("llm-key"),
		BaseURL: v.GetString("llm-url"),
		Model:   v.GetString("llm-model"),
		Timeout: v.GetDuration("llm-timeout"),
	})
	if err != nil {
		return fmt.Errorf("create LLM client: %w", err)
	}
	if !v.GetBool("skip-llm-check") {
		if err := llmClient.Ping(context.Background()); err != nil {
			return fmt.Errorf("LLM health check: %w", err)
		}
		slog.Info("LLM endpoint OK", "backend", v.GetString("llm-backend"), "model", v.GetString("llm-model"))
	}

	var trace review.TraceSink
	if dir := v.GetString("trace-dir"); dir != "" {
		trace, err = review.NewDirSink(dir)
		if err != nil {
			return fmt.Errorf("create trace dir: %w", err)
		}
		slog.Info("LLM response tracing enabled", "dir", dir)
	}

	analyzer := review.New(llmClient, db, trace)

	h, err := handler.New(db, analyzer, v.GetString("upload-dir"), v.GetBool("secure-cookies"))
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"backend", v.GetString("llm-backend"),
		"model", v.GetString("llm-model"),
		"lang", lang,
		"upload_dir", v.GetString("upload-dir"),
	)
	return http.ListenAndServe(addr, r)
}

func runGrade(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	examData, err := os.ReadFile(v.GetString("exam"))
	if err != nil {
		return fmt.Errorf("read exam file: %w", err)
	}
	var exam model.StructuredExam
	if err := json.Unmarshal(examData, &exam); err != nil {
		return fmt.Errorf("parse exam file: %w", err)
	}

	sheetData, err := os.ReadFile(v.GetString("sheets"))
	if err != nil {
		return fmt.Errorf("read sheets file: %w", err)
	}
	var sheets []model.StudentSheet
	if err := json.Unmarshal(sheetData, &sheets); err != nil {
		return fmt.Errorf("parse sheets file: %w", err)
	}

	key := grade.BuildAnswerKey(&exam)
	if len(key) == 0 {
		return fmt.Errorf("exam file yields an empty answer key")
	}

	results, stats := grade.GradeStudents(sheets, key)
	report := model.GradeReport{
		GradedResults:  results,
		Statistics:     stats,
		TotalQuestions: len(key),
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	slog.Info("graded offline", "students", len(results), "questions", len(key))
	return nil
}

func seedAdmin(db *store.Store, password string) error {
	count, err := db.UserCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		return fmt.Errorf("admin password is required: set --admin-password flag or AIREVIEW_ADMIN_PASSWORD env var")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = db.CreateUser(model.User{
		Username:     "admin",
		DisplayName:  "Administrator",
		PasswordHash: string(hash),
		Role:         model.UserRoleAdmin,
		Active:       true,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	slog.Info("seeded default admin user", "username", "admin")
	return nil
}
