package main

import (
	"context"
	"flag"
	"os"
	"path"

	"assetsync-service/internal/infrastructure/logx"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"
)

func init() { _ = godotenv.Load() }

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range commands {
		commander.Register(c, "")
	}

	flag.Parse()
	logx.SetLevel(os.Getenv("LOG_LEVEL"))
	os.Exit(int(commander.Execute(context.Background())))
}
