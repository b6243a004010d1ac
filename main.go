package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"yatube/app/config"
	"yatube/app/logging"
	"yatube/commands"
)

// CliVersion is reported by the version command.
const CliVersion = "1.0.0"

// exit is swapped out by tests.
var exit = os.Exit

func main() {
	RealMain()
}

// RealMain dispatches os.Args to a command.
func RealMain() {
	if len(os.Args) < 2 {
		printHelp()
		exit(1)
		return
	}

	cmd := strings.ToLower(os.Args[1])
	args := os.Args[2:]
	switch cmd {
	case "help", "-h", "--help":
		printHelp()
		return
	case "version":
		fmt.Printf("yatube version %s\n", CliVersion)
		return
	case "serve", "db", "group", "flatpage", "user":
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printHelp()
		exit(1)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		exit(1)
		return
	}
	logging.Init(cfg.Logging.LoggerConfig())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env := &commands.Env{Config: cfg, In: os.Stdin, Out: os.Stdout}
	switch cmd {
	case "serve":
		err = commands.Serve(ctx, env)
	case "db":
		err = commands.DB(env, args)
	case "group":
		err = commands.Group(ctx, env, args)
	case "flatpage":
		err = commands.FlatPage(ctx, env, args)
	case "user":
		err = commands.User(ctx, env, args)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		if errors.Is(err, commands.ErrUsage) {
			fmt.Println()
			printHelp()
		}
		exit(1)
	}
}

func printHelp() {
	helpText := `Usage: yatube <command> [options]
Commands:
  help                                    Display this help message.
  version                                 Show version information.
  serve                                   Run the blog until SIGINT or SIGTERM.
  db init                                 Initialize a new empty database.
  db clean                                Delete the database (asks first).
  db backup [file]                        Write a backup of the database.
  db restore <file>                       Replace the database with a backup.
  group create <slug> <title> [desc]      Create a post group.
  flatpage set <url> <title> [file]       Create or replace a flat page; content from file or stdin.
  user create <username> <password> [email]
                                          Register a user.

Configuration is read from $CONFIG_PATH or config.yaml, then the environment
(HTTP_ADDR, DB_DRIVER, BADGER_PATH, MYSQL_DSN, LOG_LEVEL, ...).
`
	fmt.Println(helpText)
}
