package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"plugbackup/internal/app"
	"plugbackup/internal/config"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, string, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, "", fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, "", fmt.Errorf("reading config: %w", err)
	}
	return cfg, defaults["config_path"], nil
}

var rootCmd = &cobra.Command{
	Use:   "plugbackup",
	Short: "Personal backup tool for removable destination volumes",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init SOURCE DESTINATION",
	Short: "Initialize configuration with a single job",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("getting defaults: %w", err)
		}

		source, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolving source: %w", err)
		}
		destination, err := filepath.Abs(args[1])
		if err != nil {
			return fmt.Errorf("resolving destination: %w", err)
		}

		cfg := config.NewConfig(filepath.Base(source), source, destination)

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("initializing config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Job %q: %s -> %s\n", cfg.Jobs[0].Name, source, destination)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Configuration from %s:\n\n", path)
		fmt.Printf("Log Dir: %s\n\n", cfg.LogDir)
		for _, job := range cfg.Jobs {
			fmt.Printf("[%s]\n  source:      %s\n  destination: %s\n  retries:     %d\n  retention:   %d days\n",
				job.Name, job.Source, job.Destination, job.MaxRetries, job.RetentionDays)
		}
		return nil
	},
}

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup [JOB]",
	Short: "Run one job, or every job if none is named",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}

		runner, err := app.NewRunner(cfg)
		if err != nil {
			return fmt.Errorf("initializing runner: %w", err)
		}
		defer runner.Close()

		if len(args) == 1 {
			job, err := cfg.JobByName(args[0])
			if err != nil {
				return err
			}
			ok, err := runner.RunJob(*job)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("job %q finished with errors", job.Name)
			}
			return nil
		}

		results, err := runner.RunAll()
		if err != nil {
			return err
		}
		for _, r := range results {
			fmt.Printf("%s: ok=%v\n", r.Name, r.OK)
		}
		return err
	},
}

// watch command
var watchCmd = &cobra.Command{
	Use:   "watch JOB",
	Short: "Watch a job's source and back it up on change",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		job, err := cfg.JobByName(args[0])
		if err != nil {
			return err
		}

		runner, err := app.NewRunner(cfg)
		if err != nil {
			return fmt.Errorf("initializing runner: %w", err)
		}
		defer runner.Close()

		stop := make(chan struct{})
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sig
			close(stop)
		}()

		fmt.Printf("Watching %s (ctrl-c to stop)\n", job.Source)
		return runner.Watch(*job, stop)
	},
}

// restore command
var restoreCmd = &cobra.Command{
	Use:   "restore SIDECAR [TARGET]",
	Short: "Restore a file from its vault sidecar",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sidecar := args[0]
		target := ""
		if len(args) == 2 {
			target = args[1]
		}

		if err := app.RestoreFromSidecar(sidecar, target); err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}

		fmt.Println("Restored.")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(restoreCmd)
}
