// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/kmorita/pdf-decrypt/internal/decrypt"
	kerrors "github.com/kmorita/pdf-decrypt/internal/errors"
	"github.com/kmorita/pdf-decrypt/internal/journal"
	"github.com/kmorita/pdf-decrypt/internal/logging"
	"github.com/kmorita/pdf-decrypt/internal/report"
	"github.com/kmorita/pdf-decrypt/internal/secrets"
	"github.com/kmorita/pdf-decrypt/internal/toolchain"
	"github.com/kmorita/pdf-decrypt/pkg/types"
)

const passwordPrompt = "Enter the PDF password: "

// deps holds the collaborators the commands reach outside the process for.
// Tests replace them with fakes.
type deps struct {
	newTool  func(bin string) toolchain.Tool
	prompter secrets.Prompter
	out      io.Writer
	err      io.Writer
	// progress returns nil when no spinner should be shown.
	progress func(verbose bool) decrypt.Progress
}

func defaultDeps() deps {
	return deps{
		newTool:  func(bin string) toolchain.Tool { return toolchain.NewQPDF(bin) },
		prompter: secrets.NewTerminalPrompter(),
		out:      os.Stdout,
		err:      os.Stderr,
		progress: newSpinnerProgress,
	}
}

// newRootCmd builds the command tree with its own viper instance so each
// invocation resolves configuration independently.
func newRootCmd(d deps) *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "pdf-decrypt INPUT_DIR OUTPUT_DIR",
		Short: "Batch decrypt PDF files using qpdf",
		Long: `pdf-decrypt removes password protection from every PDF in INPUT_DIR and
writes the decrypted copies to OUTPUT_DIR under the same names. It runs qpdf
once per file; a file that fails to decrypt is reported and the rest of the
batch continues.

The password is asked for interactively and handed to qpdf through a
temporary file readable only by you, which is deleted when the run ends.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(cmd, v); err != nil {
				return err
			}
			if v.GetBool("no_color") {
				color.NoColor = true
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecrypt(cmd.Context(), v, d, args[0], args[1])
		},
	}
	cmd.SetOut(d.out)
	cmd.SetErr(d.err)

	pf := cmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./pdf-decrypt.yaml or ~/.config/pdf-decrypt/config.yaml)")
	pf.Bool("debug", false, "show debug output")
	pf.Bool("no-color", false, "disable colored output")
	pf.String("journal", "", "SQLite file recording each run's per-file outcomes")

	f := cmd.Flags()
	f.Bool("strict-permissions", false, "set output PDF permissions to 0600 (owner read/write only)")
	f.String("file-mode", "", "set output PDF permissions with octal mode (e.g. 0644, 0600)")
	f.Bool("verbose", false, "show detailed qpdf error output on failures")
	f.String("qpdf", toolchain.DefaultBinary, "qpdf binary name or path")
	f.String("report", "", "write a YAML summary of the run to this file")
	cmd.MarkFlagsMutuallyExclusive("strict-permissions", "file-mode")

	bind(v, pf, "debug", "no_color", "journal")
	bind(v, f, "strict_permissions", "file_mode", "verbose", "qpdf", "report")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newHistoryCmd(v, d))
	return cmd
}

func runDecrypt(ctx context.Context, v *viper.Viper, d deps, inputDir, outputDir string) error {
	log := logging.Logger{
		Verbose: v.GetBool("verbose"),
		Debug:   v.GetBool("debug"),
		Out:     d.out,
		Err:     d.err,
	}

	tool := d.newTool(v.GetString("qpdf"))
	if err := tool.Available(); err != nil {
		return err
	}

	modeText, err := fileModeSetting(v)
	if err != nil {
		return err
	}
	mode, err := decrypt.ResolveFileMode(v.GetBool("strict_permissions"), modeText)
	if err != nil {
		return err
	}
	if err := decrypt.CheckInputDir(inputDir); err != nil {
		return err
	}

	password, err := d.prompter.ReadPassword(passwordPrompt)
	if err != nil {
		return err
	}
	if err := secrets.ValidatePassword(password); err != nil {
		return err
	}

	cfg := types.RunConfig{
		InputDir:    inputDir,
		OutputDir:   outputDir,
		FileMode:    mode,
		Verbose:     log.Verbose,
		ToolPath:    tool.Name(),
		JournalPath: v.GetString("journal"),
		ReportPath:  v.GetString("report"),
	}
	log.Debugf("input=%s output=%s tool=%s", cfg.InputDir, cfg.OutputDir, cfg.ToolPath)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := decrypt.Options{
		Config:   cfg,
		Password: password,
		Tool:     tool,
		Log:      log,
	}
	if d.progress != nil {
		opts.Progress = d.progress(log.Verbose || log.Debug)
	}

	result, err := decrypt.Run(ctx, opts)
	if err != nil {
		return err
	}

	saveRun(ctx, log, cfg, result)
	return nil
}

// fileModeSetting returns the file mode as written by the user. YAML reads an
// unquoted 0640 as the integer 416, so only string values are accepted.
func fileModeSetting(v *viper.Viper) (string, error) {
	switch val := v.Get("file_mode").(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	default:
		return "", fmt.Errorf("%w %v: quote the mode, e.g. \"0640\"", kerrors.ErrInvalidFileMode, val)
	}
}

// saveRun writes the optional journal entry and report. Failures here are
// warnings: the files are already decrypted.
func saveRun(ctx context.Context, log logging.Logger, cfg types.RunConfig, result decrypt.BatchResult) {
	if cfg.JournalPath != "" {
		if err := recordJournal(ctx, cfg, result); err != nil {
			log.Warnf("Could not update journal: %v", err)
		} else {
			log.Infof("Recorded run in %s", cfg.JournalPath)
		}
	}
	if cfg.ReportPath != "" {
		if err := report.Write(cfg.ReportPath, report.New(cfg, result)); err != nil {
			log.Warnf("Could not write report: %v", err)
		} else {
			log.Infof("Wrote report to %s", cfg.ReportPath)
		}
	}
}

func recordJournal(ctx context.Context, cfg types.RunConfig, result decrypt.BatchResult) error {
	store, err := journal.Open(cfg.JournalPath)
	if err != nil {
		return err
	}
	defer store.Close()

	_, err = store.Record(ctx, cfg, result)
	return err
}

func initConfig(cmd *cobra.Command, v *viper.Viper) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("pdf-decrypt")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "pdf-decrypt"))
		}
	}

	v.SetEnvPrefix("PDF_DECRYPT")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "Using config file:", v.ConfigFileUsed())
	return nil
}

// bind maps underscore config keys to their dashed flag names.
func bind(v *viper.Viper, fs *pflag.FlagSet, keys ...string) {
	for _, key := range keys {
		_ = v.BindPFlag(key, fs.Lookup(strings.ReplaceAll(key, "_", "-")))
	}
}
