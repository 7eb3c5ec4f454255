package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alexflint/go-arg"

	"github.com/alan-mat/sqlsuggest/internal/config"
	"github.com/alan-mat/sqlsuggest/internal/provider"
	"github.com/alan-mat/sqlsuggest/internal/suggest"
	"github.com/alan-mat/sqlsuggest/server"
)

const (
	ProgramName   = "SQLSuggest"
	Version       = "v0.1.0"
	RepositoryUrl = "github.com/alan-mat/sqlsuggest"
)

type serveCmd struct {
	Host string `arg:"--host,-H" help:"server listen host, overrides the config file"`
	Port int    `arg:"--port,-p" help:"server listen port, overrides the config file"`
}

type suggestCmd struct {
	Schema []string `arg:"--schema,-s,separate" help:"file holding entity definitions, may be repeated"`
	Prompt string   `arg:"positional,required" help:"the policy to write, in plain words"`
}

type args struct {
	Config  string      `arg:"--config,-c,env:SQLSUGGEST_CONFIG" help:"path to a YAML config file"`
	Serve   *serveCmd   `arg:"subcommand:serve" help:"start the suggestion HTTP server"`
	Suggest *suggestCmd `arg:"subcommand:suggest" help:"draft a policy and print it to stdout"`
}

func (args) Version() string {
	return fmt.Sprintf("%s %s", ProgramName, Version)
}

func (args) Epilogue() string {
	return fmt.Sprintf("For more information visit %s", RepositoryUrl)
}

func main() {
	var args args

	p, err := arg.NewParser(arg.Config{Program: strings.ToLower(ProgramName)}, &args)
	if err != nil {
		log.Fatalf("there was an error in the definition of the Go struct: %v", err)
	}
	p.MustParse(os.Args[1:])

	if p.Subcommand() == nil {
		p.WriteUsage(os.Stdout)
		os.Exit(0)
	}

	conf, err := config.Load(args.Config)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	level, _ := conf.SlogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	prov, err := newProvider(conf)
	if err != nil {
		slog.Error("failed to create lmprovider", "type", conf.Provider.Type, "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd := p.Subcommand().(type) {
	case *serveCmd:
		err = startServer(ctx, conf, cmd, prov)
	case *suggestCmd:
		err = runSuggest(ctx, conf, cmd, prov)
	default:
		p.FailSubcommand("unrecognized command", p.SubcommandNames()...)
	}

	if err != nil {
		slog.Error("command failed", "err", err)
		stop()
		os.Exit(1)
	}
}

// newProvider returns a nil provider without error when no API key is
// configured; the server reports the missing key per request.
func newProvider(conf *config.Config) (provider.LMProvider, error) {
	if conf.Provider.APIKey == "" {
		slog.Warn("no api key set, suggestions are disabled", "env", conf.ProviderType().KeyEnv())
		return nil, nil
	}
	return provider.NewLMProvider(conf.ProviderType(), conf.Provider.APIKey)
}

func startServer(ctx context.Context, conf *config.Config, cmd *serveCmd, prov provider.LMProvider) error {
	sc := server.ServerConfig{
		ListenHost:      conf.Server.ListenHost,
		ListenPort:      conf.Server.ListenPort,
		SuggestPath:     conf.Server.SuggestPath,
		AllowedOrigins:  conf.Server.AllowedOrigins,
		ShutdownTimeout: time.Duration(conf.Server.ShutdownTimeout) * time.Second,
		APIKey:          conf.Provider.APIKey,
		KeyEnv:          conf.ProviderType().KeyEnv(),
		Completion: suggest.Options{
			Model:     conf.Provider.Model,
			MaxTokens: conf.Provider.MaxTokens,
		},
	}
	if cmd.Host != "" {
		sc.ListenHost = cmd.Host
	}
	if cmd.Port != 0 {
		sc.ListenPort = cmd.Port
	}

	srv := server.New(sc, prov)
	return srv.Serve(ctx)
}
