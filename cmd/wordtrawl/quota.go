package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/knagata/wordtrawl/internal/quota"
)

func newQuotaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "quota",
		Short: "Show today's API call usage against the daily limit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			tracker, err := quota.NewTracker(cfg.QuotaDirectory(), cfg.Quota.DailyLimit)
			if err != nil {
				return fmt.Errorf("quota.NewTracker > %w", err)
			}
			fmt.Printf("Used:      %d\n", tracker.Used())
			fmt.Printf("Remaining: %d\n", tracker.Remaining())
			fmt.Printf("Limit:     %d\n", cfg.Quota.DailyLimit)
			return nil
		},
	}
}
