package commands

import (
	"fmt"
	"strings"

	"github.com/nulltoken/heimdall2/config"
	"github.com/nulltoken/heimdall2/logger"
	"github.com/nulltoken/heimdall2/version"
)

// printStartupBanner prints the user-friendly startup message
func printStartupBanner(verbosity int, cfg *config.Config, port int) {
	// ANSI escape codes
	cyan := "\033[36m"
	green := "\033[32m"
	yellow := "\033[33m"
	blue := "\033[34m"
	bold := "\033[1m"
	reset := "\033[0m"

	versionInfo := version.Get()

	host := cfg.Server.Host
	if host == "" {
		host = config.DefaultServerHost
	}

	fmt.Printf("\n%s%s", cyan, bold)
	fmt.Printf("   ╔═══════════════════════════════════════════════╗\n")
	fmt.Printf("   ║                                               ║\n")
	fmt.Printf("   ║     H E I M D A L L                           ║\n")
	fmt.Printf("   ║     Security scan ingestion                   ║\n")
	fmt.Printf("   ║                                               ║\n")
	fmt.Printf("   ║     ▣ Ingest   ⟐ Normalize   ◎ Watch          ║\n")
	fmt.Printf("   ║                                               ║\n")
	fmt.Printf("   ╚═══════════════════════════════════════════════╝%s\n\n", reset)

	fmt.Printf("%s%s┌─ Heimdall Info ─────────────────────────────────────┐%s\n", green, bold, reset)
	fmt.Printf("%s│%s Version:   %s (commit %s)\n", green, reset, versionInfo.Version, versionInfo.Short())
	fmt.Printf("%s│%s Built:     %s\n", green, reset, versionInfo.BuildTime)
	fmt.Printf("%s│%s Verbosity: %s\n", green, reset, logger.LevelName(verbosity))
	fmt.Printf("%s│%s Listen:    http://%s:%d\n", green, reset, host, port)
	if len(cfg.Intake.WatchDirs) > 0 {
		fmt.Printf("%s│%s Watching:  %s\n", green, reset, strings.Join(cfg.Intake.WatchDirs, ", "))
	}
	fmt.Printf("%s└─────────────────────────────────────────────────────┘%s\n", green, reset)

	fmt.Printf("\n%s%s✨ Drop reports into watched directories or POST /api/upload%s\n", yellow, bold, reset)
	fmt.Printf("%s💡 Press Ctrl+C to stop%s\n\n", blue, reset)
}
