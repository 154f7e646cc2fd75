package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"shop-assistant/internal/domain"
)

type greetingsFile struct {
	Greetings []domain.GreetingEntry `yaml:"greetings"`
}

// parseGreetings decodes a greetings file, rejecting entries without a
// phrase or reply.
func parseGreetings(data []byte) ([]domain.GreetingEntry, error) {
	var f greetingsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse greetings: %w", err)
	}
	for i, g := range f.Greetings {
		if strings.TrimSpace(g.Phrase) == "" || strings.TrimSpace(g.Reply) == "" {
			return nil, fmt.Errorf("parse greetings: entry %d needs both phrase and reply", i)
		}
	}
	return f.Greetings, nil
}

func newGreetingsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "greetings",
		Short: "Load or list greeting phrases",
	}

	load := &cobra.Command{
		Use:   "load <file.yaml>",
		Short: "Upsert greetings from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			entries, err := parseGreetings(data)
			if err != nil {
				return err
			}
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			s, closeFn, err := opts.openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeFn() //nolint:errcheck

			for _, e := range entries {
				if err := s.PutGreeting(cmd.Context(), e); err != nil {
					return err
				}
			}
			cmd.Printf("loaded %d greetings\n", len(entries))
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Print stored greetings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			s, closeFn, err := opts.openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeFn() //nolint:errcheck

			entries, err := s.ListGreetings(cmd.Context())
			if err != nil {
				return err
			}
			for _, e := range entries {
				cmd.Printf("%s\t%s\n", e.Phrase, e.Reply)
			}
			return nil
		},
	}

	cmd.AddCommand(load, list)
	return cmd
}
