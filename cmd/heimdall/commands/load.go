package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/nulltoken/heimdall2/config"
	"github.com/nulltoken/heimdall2/display"
	"github.com/nulltoken/heimdall2/errors"
	"github.com/nulltoken/heimdall2/hdf"
	"github.com/nulltoken/heimdall2/intake"
	"github.com/nulltoken/heimdall2/internal/api"
	"github.com/nulltoken/heimdall2/internal/httpclient"
	"github.com/nulltoken/heimdall2/store"
)

// fetchTimeout bounds remote report downloads.
const fetchTimeout = 60 * time.Second

// LoadCmd represents the load command
var LoadCmd = &cobra.Command{
	Use:   "load <file|url>...",
	Short: "Ingest scan reports",
	Long: `Ingest scan reports from files or URLs.

Each report runs through format detection: already-normalized files are
registered directly, recognized scanner exports are converted first, and
unrecognized content is reported as a failure. Results land in this
process unless --upload sends them to a running server.

Examples:
  heimdall load results/nightly.json             # Ingest one report
  heimdall load scans/*.nessus                   # Ingest many reports
  heimdall load https://ci.example.com/scan.json # Fetch and ingest
  heimdall load scan.json --upload               # Send to the running server
  heimdall load scan.json -o normalized/         # Write normalized output`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLoad,
}

func init() {
	LoadCmd.Flags().StringP("output", "o", "", "Write normalized documents into this directory")
	LoadCmd.Flags().Bool("upload", false, "Send reports to the running server instead of ingesting locally")
	LoadCmd.Flags().String("server", "", "Server address for --upload (default from config)")
	LoadCmd.Flags().Bool("allow-local", false, "Permit report URLs that resolve to private addresses")
	LoadCmd.Flags().Bool("json", false, "Output results in JSON format")
}

func runLoad(cmd *cobra.Command, args []string) error {
	useJSON := display.ShouldOutputJSON(cmd)
	outputDir, _ := cmd.Flags().GetString("output")
	upload, _ := cmd.Flags().GetBool("upload")
	allowLocal, _ := cmd.Flags().GetBool("allow-local")

	if upload && outputDir != "" {
		return errors.New("cannot combine --upload with --output; uploaded documents live on the server")
	}

	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	var pipe *pipeline
	var client *api.Client
	if upload {
		client = newAPIClient(cmd)
	} else {
		pipe = newPipeline()
	}

	if outputDir != "" {
		if err := os.MkdirAll(outputDir, config.DefaultDirPermissions); err != nil {
			return errors.Wrapf(err, "creating output directory %s", outputDir)
		}
	}

	ctx := cmd.Context()
	results := make([]*intake.FileResult, 0, len(args))
	failures := 0

	for _, arg := range args {
		result := loadOne(ctx, arg, loadOptions{
			pipe:       pipe,
			client:     client,
			allowLocal: allowLocal,
			maxBytes:   cfg.MaxUploadBytes(),
		})
		results = append(results, result)

		if !result.Success {
			failures++
			if !useJSON {
				pterm.Error.Printf("%s: %s\n", result.Filename, result.Message)
			}
			continue
		}

		if !useJSON {
			printLoaded(arg, result)
		}

		if outputDir != "" {
			for _, id := range result.EvaluationIDs {
				path, err := writeNormalized(pipe.store, id, outputDir)
				if err != nil {
					return errors.Wrapf(err, "writing normalized output for %s", result.Filename)
				}
				if !useJSON {
					fmt.Printf("  wrote %s\n", path)
				}
			}
		}
	}

	if useJSON {
		if err := display.OutputJSON(results); err != nil {
			return err
		}
	} else if len(args) > 1 {
		pterm.Println()
		if failures == 0 {
			pterm.Success.Printf("Loaded %d reports\n", len(args))
		} else {
			pterm.Warning.Printf("Loaded %d of %d reports\n", len(args)-failures, len(args))
		}
	}

	if failures > 0 {
		return errors.Newf("%d of %d reports failed", failures, len(args))
	}
	return nil
}

type loadOptions struct {
	pipe       *pipeline
	client     *api.Client
	allowLocal bool
	maxBytes   int64
}

// loadOne ingests a single file or URL. Failures are folded into the
// returned result so multi-file loads keep going.
func loadOne(ctx context.Context, arg string, opts loadOptions) *intake.FileResult {
	name, data, err := readReport(ctx, arg, opts.allowLocal, opts.maxBytes)
	if err != nil {
		return &intake.FileResult{Filename: arg, Message: err.Error()}
	}

	var result *intake.FileResult
	if opts.client != nil {
		result, err = opts.client.Upload(ctx, name, data)
	} else {
		result, err = opts.pipe.orchestrator.LoadFile(ctx, name, data)
	}
	if err != nil {
		if result == nil {
			result = &intake.FileResult{Filename: name}
		}
		if result.Message == "" {
			result.Message = err.Error()
		}
		return result
	}
	return result
}

// readReport resolves a load argument into report content. URLs are
// fetched with forgery protection; --allow-local relaxes it for reports
// on private CI hosts.
func readReport(ctx context.Context, arg string, allowLocal bool, maxBytes int64) (string, []byte, error) {
	if isURL(arg) {
		var fetcher *httpclient.Client
		if allowLocal {
			fetcher = httpclient.NewLoopback(fetchTimeout)
		} else {
			fetcher = httpclient.New(fetchTimeout)
		}
		data, name, err := fetcher.FetchReport(ctx, arg, maxBytes)
		if err != nil {
			return "", nil, err
		}
		return name, data, nil
	}

	data, err := os.ReadFile(arg)
	if err != nil {
		return "", nil, errors.Wrapf(err, "reading %s", arg)
	}
	return filepath.Base(arg), data, nil
}

// printLoaded renders one successful result for human output.
func printLoaded(arg string, result *intake.FileResult) {
	if result.Converted {
		pterm.Success.Printf("%s: %d evaluation(s) registered (converted from %s)\n",
			arg, len(result.EvaluationIDs), result.Format)
	} else {
		pterm.Success.Printf("%s: %d evaluation(s) registered\n", arg, len(result.EvaluationIDs))
	}
	for _, id := range result.EvaluationIDs {
		fmt.Printf("  %s\n", id)
	}
}

// writeNormalized writes one registered evaluation back out as
// normalized JSON and returns the output path.
func writeNormalized(st *store.Store, id, dir string) (string, error) {
	eval, ok := st.Get(id)
	if !ok {
		return "", errors.Newf("no such evaluation: %s", id)
	}

	var doc interface{}
	if eval.Kind() == hdf.KindProfile {
		doc = eval.Profile()
	} else {
		doc = eval.Execution()
	}

	data, err := display.MarshalJSON(doc)
	if err != nil {
		return "", errors.Wrapf(err, "marshaling %s", id)
	}

	base := strings.TrimSuffix(eval.Filename(), filepath.Ext(eval.Filename()))
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.json", base, shortID(id)))
	if err := os.WriteFile(path, data, config.DefaultFilePermissions); err != nil {
		return "", errors.Wrapf(err, "writing %s", path)
	}
	return path, nil
}
