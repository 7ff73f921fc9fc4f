package main

import (
	"context"
	"fmt"

	"leadbot_backend/internal/bootstrap"
	"leadbot_backend/internal/businessprofile"
	"leadbot_backend/internal/events"
	"leadbot_backend/internal/leads"
	"leadbot_backend/internal/leads/adapters"
	"leadbot_backend/internal/leads/conversation"
	"leadbot_backend/internal/leads/domain"
	"leadbot_backend/internal/leads/repository"
	"leadbot_backend/internal/leads/service"
	"leadbot_backend/platform/config"
	"leadbot_backend/platform/logger"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

const cliActor = "leadctl"

var (
	reclassifyClassification string
	reclassifyLimit          int
)

var reclassifyCmd = &cobra.Command{
	Use:   "reclassify",
	Short: "Rerun the classifier on finished conversations",
	Long: `Loads finished sessions from the configured store and reruns the
configured classifier on each, writing the new verdict to the lead.`,
	RunE: runReclassify,
}

func init() {
	reclassifyCmd.Flags().StringVar(&reclassifyClassification, "classification", "", "only leads currently in this class (Pending, Hot, Warm, Cold, Invalid)")
	reclassifyCmd.Flags().IntVar(&reclassifyLimit, "limit", repository.MaxListLimit, "maximum number of sessions to process")
	rootCmd.AddCommand(reclassifyCmd)
}

func runReclassify(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	var filter domain.LeadFilter
	if reclassifyClassification != "" {
		c, ok := domain.ParseClassification(reclassifyClassification)
		if !ok {
			return fmt.Errorf("unknown classification %q", reclassifyClassification)
		}
		filter.Classification = c
	}
	filter.Limit = reclassifyLimit

	cfg, err := config.LoadForCLI()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Env)

	if cfg.GetStoreDriver() == config.StoreDriverMemory {
		return fmt.Errorf("store driver %q keeps no data between runs", cfg.GetStoreDriver())
	}
	store, _, err := bootstrap.OpenStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	profile, err := businessprofile.Load(
		firstNonEmpty(profilesPath, cfg.GetBusinessProfilesPath()),
		firstNonEmpty(industry, cfg.GetIndustry()),
	)
	if err != nil {
		return err
	}
	classifier, err := leads.NewClassifier(cfg, profile.Rules, log)
	if err != nil {
		return err
	}

	bus := events.NewInMemoryBus(log)
	defer bus.Wait()
	svc := service.New(store, conversation.NewEngine(profile.Script, classifier), adapters.NewLocalTurnLocker(), bus, log)

	sessions, err := store.ListFinishedSessions(ctx, filter)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No finished conversations to reclassify.")
		return nil
	}

	bar := progressbar.NewOptions(len(sessions),
		progressbar.OptionSetDescription("Reclassifying"),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
	)
	counts, failed := reclassifyAll(ctx, svc, sessions, func() { _ = bar.Add(1) }, log)
	_ = bar.Finish()

	fmt.Fprintln(cmd.OutOrStdout())
	for _, c := range []domain.Classification{domain.ClassificationHot, domain.ClassificationWarm, domain.ClassificationCold, domain.ClassificationInvalid} {
		fmt.Fprintf(cmd.OutOrStdout(), "%-8s %d\n", c, counts[c])
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d leads failed to reclassify", failed, len(sessions))
	}
	return nil
}

func reclassifyAll(ctx context.Context, svc *service.Service, sessions []domain.ConversationSession, step func(), log *logger.Logger) (map[domain.Classification]int, int) {
	counts := make(map[domain.Classification]int)
	failed := 0
	for _, session := range sessions {
		lead, err := svc.Reclassify(ctx, session.LeadID, cliActor)
		step()
		if err != nil {
			failed++
			log.Error("reclassify failed", "leadId", session.LeadID, "error", err)
			continue
		}
		counts[lead.Classification]++
	}
	return counts, failed
}
