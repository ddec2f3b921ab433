package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pyramid/internal/config"
	"pyramid/internal/export"
	"pyramid/internal/session"
	"pyramid/internal/store"
)

var version = "dev"

type rootFlags struct {
	configFile string
	envFile    string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "pyramid",
		Short: "Ask three hosted models in turn and keep one conversation",
		Long: `pyramid sends each message to DeepSeek-R1, Llama and Qwen Coder one after another,
streams every reply into a single transcript and can save or restore the
conversation as JSON.

Inside the chat, type h for history, save, load <file>, clear or exit.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd, v, flags)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "Config file (default $XDG_CONFIG_HOME/pyramid/config.toml)")
	pf.StringVar(&flags.envFile, "env-file", ".env", "dotenv file loaded into the environment when present")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")
	pf.String("base-url", "", "OpenAI-compatible API base URL")
	pf.String("save-dir", "", "Directory for conversations saved without a file name")
	pf.String("log-file", "", `Log file ("-" for stderr)`)
	pf.String("log-level", "", "Log level (debug|info|warn|error)")
	pf.Bool("alt-screen", true, "Use the alternate screen buffer")
	for key, name := range map[string]string{
		config.KeyBaseURL:   "base-url",
		config.KeySaveDir:   "save-dir",
		config.KeyLogFile:   "log-file",
		config.KeyLogLevel:  "log-level",
		config.KeyAltScreen: "alt-screen",
	} {
		_ = v.BindPFlag(key, pf.Lookup(name))
	}

	rootCmd.AddCommand(
		newChatCmd(v, flags),
		newPlainCmd(v, flags),
		newHistoryCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func newChatCmd(v *viper.Viper, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Open the full-screen chat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd, v, flags)
		},
	}
}

func runChat(cmd *cobra.Command, v *viper.Viper, flags *rootFlags) error {
	a, err := wireApp(v, config.Options{ConfigFile: flags.configFile, EnvFile: flags.envFile}, flags.verbose)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	opts := []tea.ProgramOption{tea.WithMouseCellMotion(), tea.WithContext(cmd.Context())}
	if a.cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	p := tea.NewProgram(newModel(cmd.Context(), a), opts...)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		a.logger.Error("ui exited", "err", err)
		return fmt.Errorf("chat ui: %w", err)
	}
	a.logger.Info("session ended")
	return nil
}

func newPlainCmd(v *viper.Viper, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "plain",
		Short: "Chat line by line on stdin/stdout without the full-screen UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := wireApp(v, config.Options{ConfigFile: flags.configFile, EnvFile: flags.envFile}, flags.verbose)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runPlain(ctx, a, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func newHistoryCmd() *cobra.Command {
	var format, outputDir string
	cmd := &cobra.Command{
		Use:   "history <file>",
		Short: "Print or export a saved conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exporter, err := export.NewExporter(format)
			if err != nil {
				return err
			}
			snap, err := store.Load(args[0])
			if err != nil {
				return err
			}
			if outputDir == "" {
				return exporter.Export(snap, cmd.OutOrStdout())
			}

			target, err := exportToDir(exporter, snap, args[0], outputDir)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", target)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table|json|yaml|md)")
	cmd.Flags().StringVarP(&outputDir, "out", "o", "", "Write into this directory instead of stdout")
	return cmd
}

// exportToDir writes snap into dir, named after the source file with the
// exporter's extension.
func exportToDir(exporter export.Exporter, snap session.Snapshot, source, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	target := filepath.Join(dir, base+"."+exporter.Extension())

	file, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	if err := exporter.Export(snap, file); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("export %s: %w", target, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close export file: %w", err)
	}
	return target, nil
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var (
		path  string
		force bool
	)
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target := path
			if target == "" {
				var err error
				if target, err = config.DefaultFile(); err != nil {
					return err
				}
			}
			if err := config.WriteDefault(target, force); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\nSet API_KEY in the environment or add api_key to the file.\n", target)
			return err
		},
	}
	initCmd.Flags().StringVar(&path, "path", "", "Where to write the file (default $XDG_CONFIG_HOME/pyramid/config.toml)")
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	cmd.AddCommand(initCmd)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version)
			return err
		},
	}
}
