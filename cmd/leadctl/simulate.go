package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"leadbot_backend/internal/businessprofile"
	"leadbot_backend/internal/events"
	"leadbot_backend/internal/leads/adapters"
	"leadbot_backend/internal/leads/conversation"
	"leadbot_backend/internal/leads/domain"
	"leadbot_backend/internal/leads/repository/memory"
	"leadbot_backend/internal/leads/scoring"
	"leadbot_backend/internal/leads/service"
	"leadbot_backend/internal/leads/transport"
	"leadbot_backend/platform/logger"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

const simulatedPhone = "+919876543210"

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Chat with the bot in the terminal",
	Long: `Runs one conversation against an in-memory store with the rule-based
classifier and prints the final classification. Nothing is persisted.`,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
}

// askFunc reads one line of input for label.
type askFunc func(label string) (string, error)

func promptAsk(label string) (string, error) {
	p := promptui.Prompt{Label: label}
	return p.Run()
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	profile, err := businessprofile.Load(
		firstNonEmpty(profilesPath, os.Getenv("BUSINESS_PROFILES_PATH")),
		firstNonEmpty(industry, os.Getenv("INDUSTRY"), businessprofile.DefaultIndustry),
	)
	if err != nil {
		return err
	}

	name, err := promptAsk("Your name")
	if err != nil {
		return err
	}

	err = simulate(cmd.Context(), profile, name, promptAsk, cmd.OutOrStdout())
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		fmt.Fprintln(cmd.OutOrStdout(), "conversation abandoned")
		return nil
	}
	return err
}

func newSimulationService(profile businessprofile.Profile) *service.Service {
	log := logger.Discard()
	engine := conversation.NewEngine(profile.Script, scoring.New(profile.Rules, log))
	return service.New(memory.New(), engine, adapters.NewLocalTurnLocker(), events.NewInMemoryBus(log), log)
}

// simulate runs a conversation until the session is finished or ask fails.
func simulate(ctx context.Context, profile businessprofile.Profile, name string, ask askFunc, out io.Writer) error {
	svc := newSimulationService(profile)

	lead, session, err := svc.StartConversation(ctx, transport.CreateLeadRequest{
		Name:  firstNonEmpty(strings.TrimSpace(name), "there"),
		Phone: simulatedPhone,
	})
	if err != nil {
		return err
	}
	printBot(out, session.Messages)

	for {
		reply, err := ask("You")
		if err != nil {
			return err
		}
		if strings.TrimSpace(reply) == "" {
			// the HTTP API rejects a missing message before it reaches the engine
			reply = " "
		}

		res, err := svc.AdvanceConversation(ctx, lead.ID, reply)
		if err != nil {
			return err
		}
		printBot(out, res.BotMessages)

		if res.Session.IsTerminal() {
			printResult(out, res)
			return nil
		}
	}
}

func printBot(out io.Writer, messages []domain.Message) {
	for _, m := range messages {
		if m.Sender == domain.SenderBot {
			fmt.Fprintf(out, "bot> %s\n", m.Text)
		}
	}
}

func printResult(out io.Writer, res service.TurnResult) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "status:         %s\n", res.Session.Status)
	if res.Classification == nil {
		return
	}
	score := "n/a"
	if res.Classification.Score != nil {
		score = fmt.Sprint(*res.Classification.Score)
	}
	fmt.Fprintf(out, "classification: %s (score %s)\n", res.Classification.Classification, score)
	fmt.Fprintf(out, "rationale:      %s\n", res.Classification.Rationale)
}
