package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"standin/internal/chat"
	"standin/internal/config"
	"standin/internal/llm/openai"
	"standin/internal/logger"
	"standin/internal/mcp"
	"standin/internal/notify"
	"standin/internal/profile"
	"standin/internal/question"
	"standin/internal/server"
	"standin/internal/tool"
	"standin/internal/tool/persona"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	configPath  string
	apiBaseURL  string
	apiKey      string
	model       string
	evalModel   string
	temperature float32
	maxRounds   int
	verbose     bool
	noColor     bool
)

func main() {
	// Secrets live in .env during development; absence is fine.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func registerGlobalFlags(flags *pflag.FlagSet) {
	flags.StringVar(&configPath, "config", "", "Config file path (default: standin.yaml lookup)")
	flags.StringVar(&apiBaseURL, "api-base-url", "", "OpenAI API base URL")
	flags.StringVar(&apiKey, "api-key", "", "OpenAI API key (default: OPENAI_API_KEY)")
	flags.StringVar(&model, "model", "", "Model for answering")
	flags.StringVar(&evalModel, "eval-model", "", "Model for evaluation (default: answering model)")
	flags.Float32Var(&temperature, "temperature", 0.7, "Temperature")
	flags.IntVar(&maxRounds, "max-rounds", 0, "Maximum tool-call rounds per turn")
	flags.BoolVar(&verbose, "verbose", false, "Enable verbose output (debug mode)")
	flags.BoolVar(&noColor, "no-color", false, "Disable colored output")
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "standin",
		Short: "Persona chat agent",
		Long:  "A persona-constrained chat agent that answers career questions on someone's behalf, with an automatic quality gate on every reply",
	}
	registerGlobalFlags(rootCmd.PersistentFlags())

	askCmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Ask the persona a single question",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAsk,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP chat API",
		RunE:  runServe,
	}

	questionsCmd := &cobra.Command{
		Use:   "questions",
		Short: "Inspect logged unknown questions",
	}
	questionsCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List all logged questions",
			RunE:  runQuestionsList,
		},
		&cobra.Command{
			Use:   "search [keyword]",
			Short: "Search logged questions",
			Args:  cobra.ExactArgs(1),
			RunE:  runQuestionsSearch,
		},
		&cobra.Command{
			Use:   "stats",
			Short: "Show question counts per category",
			RunE:  runQuestionsStats,
		},
	)

	rootCmd.AddCommand(askCmd, serveCmd, questionsCmd)
	return rootCmd
}

func loadConfig(flags *pflag.FlagSet) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadWithDefaults()
	}
	if err != nil {
		return nil, err
	}

	// Flags override the config file.
	if apiKey != "" {
		cfg.OpenAI.APIKey = apiKey
	}
	if apiBaseURL != "" {
		cfg.OpenAI.BaseURL = apiBaseURL
	}
	if model != "" {
		cfg.OpenAI.Model = model
		if evalModel == "" {
			cfg.OpenAI.EvaluatorModel = model
		}
	}
	if evalModel != "" {
		cfg.OpenAI.EvaluatorModel = evalModel
	}
	if maxRounds > 0 {
		cfg.OpenAI.MaxRounds = maxRounds
	}
	// The temperature flag has a non-zero default, so it only overrides the
	// config file when the user actually set it.
	if flags.Changed("temperature") {
		cfg.OpenAI.Temperature = temperature
	}

	if cfg.OpenAI.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key required (set OPENAI_API_KEY or use --api-key)")
	}
	return cfg, nil
}

func newLogger() *logger.Logger {
	logLevel := logger.LevelInfo
	if verbose {
		logLevel = logger.LevelDebug
	}
	log := logger.NewLogger(os.Stdout, logLevel)
	if noColor {
		log.SetColorMode(false)
	}
	return log
}

// buildService wires the full chat stack. The returned cleanup closes the
// question store and any MCP servers.
func buildService(ctx context.Context, cfg *config.Config, log *logger.Logger) (*chat.Service, func(), error) {
	if cfg.Persona.Name == "" || cfg.Persona.SummaryFile == "" {
		return nil, nil, fmt.Errorf("persona.name and persona.summary_file must be configured")
	}

	prof, err := profile.Load(cfg.Persona.Name, cfg.Persona.SummaryFile, cfg.Persona.ProfileFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load persona profile: %w", err)
	}

	var notifier notify.Notifier = notify.Null{}
	if cfg.Pushover.Token != "" {
		notifier = notify.NewPushover(cfg.Pushover.Token, cfg.Pushover.User)
		log.Debug("Pushover notifications enabled")
	}

	store, err := question.NewStore(cfg.Questions.Database, log)
	if err != nil {
		return nil, nil, fmt.Errorf("open question store: %w", err)
	}

	registry := tool.NewRegistry()
	if err := registry.Register(persona.NewRecordUserDetailsTool(notifier)); err != nil {
		store.Close()
		return nil, nil, err
	}
	if err := registry.Register(persona.NewRecordUnknownQuestionTool(store, notifier)); err != nil {
		store.Close()
		return nil, nil, err
	}
	log.Debug("Registered tools: record_user_details, record_unknown_question")

	mcpManager := mcp.NewManager(registry, log)
	if err := mcpManager.Initialize(ctx, cfg.MCP); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("initialize MCP servers: %w", err)
	}

	answerClient := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
	evalClient := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.EvaluatorModel, cfg.OpenAI.BaseURL)
	log.Debug("Using model %s (evaluator: %s)", cfg.OpenAI.Model, cfg.OpenAI.EvaluatorModel)

	svc := chat.New(answerClient, evalClient, registry, prof, log, &chat.Config{
		MaxRounds:     cfg.OpenAI.MaxRounds,
		Temperature:   cfg.OpenAI.Temperature,
		ExecutionMode: tool.ExecutionMode(cfg.Tools.Execution),
	})

	cleanup := func() {
		if err := mcpManager.Close(); err != nil {
			log.Warn("closing MCP servers: %v", err)
		}
		store.Close()
	}
	return svc, cleanup, nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}
	log := newLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, cleanup, err := buildService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	reply, err := svc.Chat(ctx, args[0], nil)
	if err != nil {
		return err
	}

	fmt.Println(reply)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}
	log := newLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, cleanup, err := buildService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := server.NewServer(cfg.Server.Address, cfg.Server.Port, svc, cfg.Server.RequestTimeout, log)
	return srv.Start(ctx)
}

func openStore() (*question.Store, *config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadWithDefaults()
	}
	if err != nil {
		return nil, nil, err
	}

	store, err := question.NewStore(cfg.Questions.Database, newLogger())
	if err != nil {
		return nil, nil, fmt.Errorf("open question store: %w", err)
	}
	return store, cfg, nil
}

func runQuestionsList(cmd *cobra.Command, args []string) error {
	store, _, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	questions, err := store.All(cmd.Context())
	if err != nil {
		return err
	}
	printQuestions(questions)
	return nil
}

func runQuestionsSearch(cmd *cobra.Command, args []string) error {
	store, _, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	questions, err := store.Search(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	printQuestions(questions)
	return nil
}

func runQuestionsStats(cmd *cobra.Command, args []string) error {
	store, _, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.CategoryStats(cmd.Context())
	if err != nil {
		return err
	}

	for _, s := range stats {
		category := s.Category
		if category == "" {
			category = "(uncategorized)"
		}
		fmt.Printf("%-30s %d\n", category, s.Count)
	}
	return nil
}

func printQuestions(questions []*question.Question) {
	if len(questions) == 0 {
		fmt.Println("No questions logged.")
		return
	}
	for _, q := range questions {
		fmt.Printf("%s  %s  %s\n", q.CreatedAt.Format("2006-01-02 15:04"), q.ID, q.Text)
		if q.Notes != "" {
			fmt.Printf("    notes: %s\n", q.Notes)
		}
	}
}
