// Command entrasim synthesizes identity-provider audit-log fixtures:
// benign background noise plus targeted attack-scenario injections.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"log/slog"

	"github.com/detectlab/entrasim/internal/config"
	"github.com/detectlab/entrasim/internal/scenario"
	"github.com/detectlab/entrasim/internal/simulate"
	"github.com/detectlab/entrasim/internal/types"
	"github.com/runreveal/kawa"
	"github.com/spf13/cobra"
)

var (
	configDir    string
	templatePath string
	seed         int64
	sinkPath     string
	outPath      string
)

type flusher interface {
	Flush(ctx context.Context) error
}

func main() {
	root := &cobra.Command{
		Use:           "entrasim",
		Short:         "Synthesize identity-provider audit-log fixtures",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configDir, "config-dir", "configs", "directory holding the YAML config files")
	root.PersistentFlags().StringVar(&templatePath, "template", "templates/entra_template.json", "record template file")
	root.PersistentFlags().Int64Var(&seed, "seed", 0, "random seed (0 uses the wall clock)")
	root.PersistentFlags().StringVar(&sinkPath, "sink", "", "JSON sink config file (overrides --out)")
	root.PersistentFlags().StringVar(&outPath, "out", "", "NDJSON output file (default prints to stdout)")

	root.AddCommand(generateCmd())
	root.AddCommand(injectCmd())

	if err := root.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

// newGenerator loads configuration and template, fatal on any defect.
func newGenerator() (*simulate.Generator, error) {
	cfg, err := config.LoadDir(configDir)
	if err != nil {
		return nil, err
	}
	text, err := config.LoadTemplate(templatePath)
	if err != nil {
		return nil, err
	}
	tmpl, err := simulate.ParseTemplate(text)
	if err != nil {
		return nil, err
	}
	return simulate.New(cfg, tmpl, simulate.WithRand(simulate.NewRand(seed))), nil
}

// openSink resolves the output destination from the flags.
func openSink() (kawa.Destination[types.Record], error) {
	if sinkPath != "" {
		return loadSink(sinkPath)
	}
	if outPath != "" {
		return (&FileConfig{Path: outPath}).Configure()
	}
	return (&PrinterConfig{}).Configure()
}

// closeSink flushes buffering sinks and closes closable ones.
func closeSink(ctx context.Context, dest kawa.Destination[types.Record]) error {
	if f, ok := dest.(flusher); ok {
		if err := f.Flush(ctx); err != nil {
			return err
		}
	}
	if c, ok := dest.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func generateCmd() *cobra.Command {
	var (
		count     int
		failures  bool
		startText string
		forceUser string
		forceApp  string
		forceOp   string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a batch of benign background-noise records",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := newGenerator()
			if err != nil {
				return err
			}
			var start time.Time
			if startText != "" {
				start, err = time.Parse(time.RFC3339, startText)
				if err != nil {
					return fmt.Errorf("parsing --start: %w", err)
				}
			}
			records, err := g.Batch(simulate.BatchParams{
				Count:           count,
				Start:           start,
				IncludeFailures: failures,
				ForceUser:       forceUser,
				ForceApp:        forceApp,
				ForceOperation:  forceOp,
			})
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			dest, err := openSink()
			if err != nil {
				return err
			}
			if err := simulate.Deliver(ctx, dest, records...); err != nil {
				return err
			}
			if err := closeSink(ctx, dest); err != nil {
				return err
			}
			slog.Info(fmt.Sprintf("generated %d records", len(records)))
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 50, "number of records to generate")
	cmd.Flags().BoolVar(&failures, "failures", true, "inject benign sign-in failures")
	cmd.Flags().StringVar(&startText, "start", "", "simulated start time (RFC 3339, default now)")
	cmd.Flags().StringVar(&forceUser, "user", "", "force every record to this user id")
	cmd.Flags().StringVar(&forceApp, "app", "", "force every record to this application display name")
	cmd.Flags().StringVar(&forceOp, "operation", "", "force every record to this operation name")
	return cmd
}

func injectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inject",
		Short: "Inject an attack-scenario narrative",
	}
	cmd.AddCommand(tokenTheftCmd())
	cmd.AddCommand(phishMailCmd())
	cmd.AddCommand(oauthConsentCmd())
	cmd.AddCommand(phishRootCmd())
	return cmd
}

// runScenario wires generator and sink around one injector invocation.
func runScenario(cmd *cobra.Command, inject func(context.Context, *simulate.Generator, kawa.Destination[types.Record]) error) error {
	g, err := newGenerator()
	if err != nil {
		return err
	}
	dest, err := openSink()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := inject(ctx, g, dest); err != nil {
		return err
	}
	return closeSink(ctx, dest)
}

func tokenTheftCmd() *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "token-theft",
		Short: "Token issuance followed by an anomalous sign-in with the stolen token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(cmd, func(ctx context.Context, g *simulate.Generator, dest kawa.Destination[types.Record]) error {
				return scenario.TokenTheft(ctx, g, scenario.TokenTheftParams{UserID: username}, dest)
			})
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "victim user id")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func phishMailCmd() *cobra.Command {
	var p scenario.PhishMailParams
	cmd := &cobra.Command{
		Use:   "phish-mail",
		Short: "Phishing-mail delivery with a suspicious URL and attachment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(cmd, func(ctx context.Context, g *simulate.Generator, dest kawa.Destination[types.Record]) error {
				return scenario.PhishMail(ctx, g, p, dest)
			})
		},
	}
	cmd.Flags().StringVar(&p.UserID, "username", "", "recipient user id")
	cmd.Flags().IntVar(&p.HoursAgo, "hours-ago", 2, "how many hours ago the mail arrived")
	cmd.Flags().StringVar(&p.Sender, "sender", "", "from address")
	cmd.Flags().StringVar(&p.Subject, "subject", "", "mail subject")
	cmd.Flags().StringVar(&p.URL, "url", "", "suspicious URL inside the message")
	cmd.Flags().BoolVar(&p.NoAttachment, "no-attachment", false, "omit the attachment block")
	cmd.Flags().StringVar(&p.AttachmentName, "attach-name", "", "attachment filename")
	cmd.Flags().StringVar(&p.AttachmentMIME, "attach-mime", "", "attachment MIME type")
	cmd.Flags().IntVar(&p.AttachmentSize, "attach-size", 0, "attachment size in bytes")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func oauthConsentCmd() *cobra.Command {
	var (
		p         scenario.OAuthConsentParams
		shapeText string
	)
	cmd := &cobra.Command{
		Use:   "oauth-consent",
		Short: "Malicious OAuth consent grant to an attacker-controlled app",
		RunE: func(cmd *cobra.Command, args []string) error {
			shape, err := scenario.ParseConsentShape(shapeText)
			if err != nil {
				return err
			}
			p.Shape = shape
			return runScenario(cmd, func(ctx context.Context, g *simulate.Generator, dest kawa.Destination[types.Record]) error {
				return scenario.OAuthConsent(ctx, g, p, dest)
			})
		},
	}
	cmd.Flags().StringVar(&p.UserID, "username", "", "consenting user id")
	cmd.Flags().StringVar(&p.AppName, "app-name", "", "attacker application display name")
	cmd.Flags().StringVar(&p.AppID, "app-id", "", "attacker application id")
	cmd.Flags().StringVar(&p.Scopes, "scopes", "", "granted permission scopes")
	cmd.Flags().StringVar(&shapeText, "shape", "flat", "record shape: flat or nested")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func phishRootCmd() *cobra.Command {
	var p scenario.PhishRootParams
	cmd := &cobra.Command{
		Use:   "phish-root",
		Short: "Single consent-grant root-cause record offset into the past",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(cmd, func(ctx context.Context, g *simulate.Generator, dest kawa.Destination[types.Record]) error {
				return scenario.PhishRoot(ctx, g, p, dest)
			})
		},
	}
	cmd.Flags().StringVar(&p.UserID, "username", "", "victim user id")
	cmd.Flags().IntVar(&p.OffsetMinutes, "offset-minutes", 60, "minutes before now to place the record")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}
