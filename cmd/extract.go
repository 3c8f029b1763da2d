/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"chavito/pkg/config"
	"chavito/pkg/extract"

	"github.com/spf13/cobra"
)

var messageText string

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract [message]",
	Short: "Run order extraction on a message",
	Long:  "Loads Chavito configuration, connects to the configured extraction provider, and extracts intent and order fields from one message or an interactive session.",
	Run: func(cmd *cobra.Command, args []string) {
		message := resolveMessage(args)

		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Printf("failed to load config: %v\n", err)
			return
		}

		client, err := extract.NewClient(cfg)
		if err != nil {
			fmt.Printf("failed to initialize extraction client: %v\n", err)
			return
		}

		ctx := context.Background()
		if err := client.Health(ctx); err != nil {
			fmt.Printf("extraction health check failed: %v\n", err)
			return
		}

		engine := extract.NewEngine(client, slog.Default())

		if message != "" {
			printExtraction(engine.Extract(ctx, message, nil))
			return
		}

		runInteractive(ctx, engine)
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVarP(&messageText, "message", "m", "", "message text to extract from")
}

func resolveMessage(args []string) string {
	if value := strings.TrimSpace(messageText); value != "" {
		return value
	}

	if len(args) == 0 {
		return ""
	}

	value := strings.TrimSpace(strings.Join(args, " "))
	if value == "" {
		return ""
	}

	return value
}

func runInteractive(ctx context.Context, engine *extract.Engine) {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("👨🏻 ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				fmt.Printf("input error: %v\n", err)
			}
			return
		}

		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}
		if isExitCommand(message) {
			return
		}

		printExtraction(engine.Extract(ctx, message, nil))
	}
}

func printExtraction(result extract.Result) {
	fmt.Printf("🤖 %s\n", result.ReplyText)

	draft, err := json.MarshalIndent(result.Draft, "", "  ")
	if err != nil {
		fmt.Printf("failed to render draft: %v\n", err)
		return
	}

	fmt.Printf("%s\n\n", draft)
}

func isExitCommand(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "exit", "quit", ":q":
		return true
	default:
		return false
	}
}
