// Command intake-cli runs the job-posting intake conversation in the
// terminal, without the HTTP server or persistence.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/stackhire/intake-gateway/internal/adapter"
	adapterloopback "github.com/stackhire/intake-gateway/internal/adapter/loopback"
	adapteropenai "github.com/stackhire/intake-gateway/internal/adapter/openai"
	"github.com/stackhire/intake-gateway/internal/agent"
	"github.com/stackhire/intake-gateway/internal/config"
)

// maxTurns caps the interactive loop; the iterative stack questioning can run
// long but not unbounded.
const maxTurns = 60

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	log.SetPrefix("[intake-cli] ")

	pack := agent.DefaultPromptPack()
	if cfg.PromptPack != "" {
		pack, err = agent.LoadPromptPack(cfg.PromptPack)
		if err != nil {
			log.Fatalf("load prompt pack: %v", err)
		}
	}

	var chat adapter.ChatAdapter
	if cfg.OpenAIAPIKey == "" {
		fmt.Println("no openai_api_key configured; replies are loopback echoes")
		chat = adapterloopback.New()
	} else {
		chat, err = adapteropenai.New(adapteropenai.Config{
			APIKey:         cfg.OpenAIAPIKey,
			BaseURL:        cfg.OpenAIBaseURL,
			RequestTimeout: cfg.RequestTimeout,
		})
		if err != nil {
			log.Fatalf("build chat adapter: %v", err)
		}
	}

	engine := agent.New(chat, pack)
	ctx := context.Background()

	reply, history := engine.Greet(ctx, engine.InitialHistory())
	fmt.Printf("Agent: %s\n", reply)
	if strings.HasPrefix(reply, agent.ErrorReplyPrefix) {
		os.Exit(1)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for turn := 0; turn < maxTurns; turn++ {
		fmt.Print("You: ")
		if !scanner.Scan() {
			return
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			fmt.Println("Agent: Please provide a response.")
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Println("Agent: Exiting conversation. Goodbye!")
			return
		}

		result := engine.Turn(ctx, history, input)
		history = result.History
		fmt.Printf("\nAgent: %s\n", result.Reply)

		if strings.HasPrefix(result.Reply, agent.ErrorReplyPrefix) {
			fmt.Println("Agent: Encountered an error processing the response. Exiting.")
			os.Exit(1)
		}
		if result.Posting != nil {
			fmt.Println("\nCollected and validated job posting:")
			fmt.Println(result.Posting.Canonical())
			return
		}
	}
	fmt.Println("\nAgent: Reached maximum conversation turns without a final posting.")
}
