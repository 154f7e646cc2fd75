// Command shopbotctl seeds and inspects the bot's knowledge store and runs
// single turns from the terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"shop-assistant/internal/config"
	"shop-assistant/internal/domain"
	"shop-assistant/internal/repository"
	"shop-assistant/internal/usecase"
)

// store is what the subcommands need from either backend.
type store interface {
	usecase.KnowledgeStore
	PutGreeting(ctx context.Context, entry domain.GreetingEntry) error
	ListGreetings(ctx context.Context) ([]domain.GreetingEntry, error)
	ChatHistory(ctx context.Context, userID string, limit int) ([]domain.ChatTurn, error)
}

type rootOptions struct {
	dbPath string
	table  string
	getenv func(string) string
}

func main() {
	_ = godotenv.Load()
	if err := newRootCmd(os.Getenv, os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(getenv func(string) string, out io.Writer) *cobra.Command {
	opts := &rootOptions{getenv: getenv}
	root := &cobra.Command{
		Use:           "shopbotctl",
		Short:         "Manage the shop assistant's greetings and try conversations locally",
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite database path (defaults to SQLITE_PATH)")
	root.PersistentFlags().StringVar(&opts.table, "table", "", "DynamoDB table; overrides --db when set")

	root.AddCommand(newGreetingsCmd(opts), newHistoryCmd(opts), newAskCmd(opts))
	return root
}

func (o *rootOptions) config() (config.Config, error) {
	cfg, err := config.Load(o.getenv)
	if err != nil {
		return config.Config{}, err
	}
	if o.dbPath != "" {
		cfg.SQLitePath = o.dbPath
	}
	if o.table != "" {
		cfg.StateTable = o.table
	}
	return cfg, nil
}

// openStore returns the DynamoDB store when a table is configured through the
// --table flag, otherwise SQLite.
func (o *rootOptions) openStore(ctx context.Context, cfg config.Config) (store, func() error, error) {
	if o.table != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("load AWS config: %w", err)
		}
		s, err := repository.NewDynamoStore(awsdynamodb.NewFromConfig(awsCfg), cfg.StateTable)
		if err != nil {
			return nil, nil, err
		}
		return s, func() error { return nil }, nil
	}

	db, err := repository.OpenSQLite(cfg.SQLitePath)
	if err != nil {
		return nil, nil, err
	}
	s, err := repository.NewSQLiteStore(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return s, db.Close, nil
}
