package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"SchemaDesk/internal/cli/commands"
	"SchemaDesk/internal/config"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	// справка по флагам вместе со списком команд
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), commands.FormatGlobalUsage())
		fmt.Fprintln(flag.CommandLine.Output(), "\nFlags:")
		flag.PrintDefaults()
	}
	cfg := config.NewConfig()

	if cfg.Version {
		printVersion(cfg)
		return
	}
	os.Exit(run(cfg))
}

// run выполняет команду админского клиента и возвращает код выхода.
func run(cfg *config.Config) int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return commands.Dispatch(ctx, cfg, flag.Args())
}

func printVersion(cfg *config.Config) {
	fmt.Printf("SchemaDesk admin client %s (built %s)\nServer: %s\nToken file: %s\n",
		version, buildDate, cfg.ServerURL, cfg.TokenFile)
}
