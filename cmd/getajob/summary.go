package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/radi8/getajob/internal/config"
	"github.com/radi8/getajob/internal/host"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print today's playtime leaderboard",
	Long: `Print the minutes every player has in the store for today. Live
sessions are not included; this reads persisted data only.`,
	RunE: runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	cfgManager, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := cfgManager.Current()

	// Quiet logger for interactive output
	logger := zerolog.New(os.Stderr).Level(zerolog.ErrorLevel).With().Timestamp().Logger()

	store, err := openStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	totals, err := store.Sessions().TodayTotalsAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load today's playtime: %w", err)
	}

	cyan := color.New(color.FgCyan, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)

	fmt.Println()
	cyan.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	cyan.Printf("PLAYTIME TODAY (%s)\n", time.Now().Format("2006-01-02"))
	cyan.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	if len(totals) == 0 {
		fmt.Println("No time played today.")
		fmt.Println()
		return nil
	}

	// Name resolution is best-effort; the bridge may be down while the
	// store is still readable.
	var gateway host.Gateway
	if bridge, err := host.NewBridge(host.BridgeConfig{
		BaseURL: cfg.Host.BaseURL,
		Timeout: parseDuration(cfg.Host.Timeout, 5*time.Second),
		Retries: 0,
	}, logger); err == nil {
		gateway = bridge
	}

	type entry struct {
		name    string
		minutes int64
	}
	entries := make([]entry, 0, len(totals))
	for playerID, minutes := range totals {
		entries = append(entries, entry{name: resolveName(ctx, gateway, playerID), minutes: minutes})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].minutes > entries[j].minutes })

	for i, e := range entries {
		if i == 0 {
			yellow.Printf("%3d. %-24s %d minute(s)\n", i+1, e.name, e.minutes)
			continue
		}
		fmt.Printf("%3d. %-24s %d minute(s)\n", i+1, e.name, e.minutes)
	}

	fmt.Println()
	return nil
}

func resolveName(ctx context.Context, gateway host.Gateway, playerID string) string {
	if gateway != nil {
		if name, err := gateway.ResolveName(ctx, playerID); err == nil && name != "" {
			return name
		}
	}
	return fmt.Sprintf("Unknown (%s)", playerID)
}
