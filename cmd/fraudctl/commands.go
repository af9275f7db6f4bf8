package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/account"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/errors"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/feedback"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/review"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/infrastructure/batchfile"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/service/fraud"
)

const (
	formatJSON     = "json"
	formatMarkdown = "markdown"
)

// start builds the app for a command, reporting configuration failures.
func (c *cli) start(ctx context.Context, opts appOptions) (*app, bool) {
	a, err := newApp(ctx, opts)
	if err != nil {
		fmt.Fprintf(c.stderr, "fraudctl: configuration error: %v\n", err)
		return nil, false
	}
	return a, true
}

// fail logs err and prints it for the operator.
func (c *cli) fail(a *app, msg string, err error) int {
	a.logger.Error(msg, "error", err)
	fmt.Fprintf(c.stderr, "fraudctl: %s: %v\n", msg, err)
	return exitFailure
}

func (c *cli) writeJSON(v interface{}) error {
	enc := json.NewEncoder(c.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runReview(ctx context.Context, c *cli, args []string) int {
	fs, configPath := c.flagSet("review")
	format := fs.String("format", formatJSON, "Output format: json or markdown")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *format != formatJSON && *format != formatMarkdown {
		return c.usageError("review: unknown format %q", *format)
	}
	if fs.NArg() > 1 {
		return c.usageError("review: expected at most one input file")
	}

	a, ok := c.start(ctx, appOptions{configPath: *configPath})
	if !ok {
		return exitFailure
	}
	defer a.close()

	rec, err := readRecord(fs.Arg(0))
	if err != nil {
		return c.fail(a, "failed to read account record", err)
	}

	result, err := a.service.Review(ctx, rec)
	if err != nil {
		return c.fail(a, "review failed", err)
	}

	if *format == formatMarkdown {
		fmt.Fprint(c.stdout, fraud.RenderMarkdown(result))
		return exitOK
	}
	if err := c.writeJSON(result); err != nil {
		return c.fail(a, "failed to write result", err)
	}
	return exitOK
}

// readRecord decodes one account record from path, or stdin when path is
// empty or "-".
func readRecord(path string) (*account.Record, error) {
	var r io.Reader = os.Stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.NewNotFoundError("account file").WithCause(err)
		}
		defer f.Close()
		r = f
	}

	var rec account.Record
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return nil, errors.NewValidationError("record", "input is not a JSON account object").WithCause(err)
	}
	return &rec, nil
}

func runBatch(ctx context.Context, c *cli, args []string) int {
	fs, configPath := c.flagSet("batch")
	var (
		input   = fs.String("input", "", "Accounts file: .json, .jsonl or .csv")
		output  = fs.String("output", "", "Queue CSV to write, or - for stdout")
		workers = fs.Int("workers", 0, "Override batch.workers")
	)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *input == "" || *output == "" {
		return c.usageError("batch: -input and -output are required")
	}
	if *workers < 0 {
		return c.usageError("batch: -workers must not be negative")
	}

	a, ok := c.start(ctx, appOptions{configPath: *configPath, workers: *workers})
	if !ok {
		return exitFailure
	}
	defer a.close()

	items, err := batchfile.ReadAccounts(*input)
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeValidation) {
			fmt.Fprintf(c.stderr, "fraudctl: batch: %v\n", err)
			return exitUsage
		}
		return c.fail(a, "failed to read batch input", err)
	}

	rows, summary := a.service.ReviewBatch(ctx, items)

	if *output == "-" {
		err = batchfile.WriteQueue(c.stdout, rows)
	} else {
		err = batchfile.WriteQueueFile(*output, rows)
	}
	if err != nil {
		return c.fail(a, "failed to write queue", err)
	}

	if *output != "-" {
		fmt.Fprintf(c.stdout, "Processed %d account(s) -> %s (%d failed)\n", summary.Total, *output, summary.Failed)
	}
	if summary.Cancelled {
		fmt.Fprintln(c.stderr, "fraudctl: batch cancelled; unfinished rows are marked in the queue")
		return exitFailure
	}
	return exitOK
}

func runFeedback(ctx context.Context, c *cli, args []string) int {
	fs, configPath := c.flagSet("feedback")
	var (
		accountPath  = fs.String("account", "", "Account record JSON file the outcome applies to")
		digest       = fs.String("digest", "", "Account digest, when the account itself is not supplied")
		featuresJSON = fs.String("features", "", "Feature vector as a JSON object, when the account is not supplied")
		final        = fs.String("verdict", "", "Confirmed verdict (name or tag, e.g. REJECT)")
		predicted    = fs.String("predicted", "", "Verdict the pipeline predicted")
		reviewID     = fs.String("review-id", "", "Review id the outcome confirms")
		source       = fs.String("source", "analyst", "Who confirmed the outcome")
		notes        = fs.String("notes", "", "Free-text notes")
	)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	finalVerdict, ok := review.ParseVerdict(*final)
	if !ok {
		return c.usageError("feedback: -verdict must be one of APPROVE, REJECT, HOLD_URL, VIP_REVIEW")
	}
	var predictedVerdict review.Verdict
	if *predicted != "" {
		if predictedVerdict, ok = review.ParseVerdict(*predicted); !ok {
			return c.usageError("feedback: unknown -predicted verdict %q", *predicted)
		}
	}
	if *accountPath == "" && *digest == "" {
		return c.usageError("feedback: -account or -digest is required")
	}

	rec := feedback.Record{
		ReviewID:         *reviewID,
		AccountDigest:    *digest,
		PredictedVerdict: predictedVerdict,
		FinalVerdict:     finalVerdict,
		Source:           *source,
		Notes:            *notes,
	}
	if *featuresJSON != "" {
		if err := json.Unmarshal([]byte(*featuresJSON), &rec.Features); err != nil {
			return c.usageError("feedback: -features must be a JSON object of numbers")
		}
	}

	a, ok := c.start(ctx, appOptions{configPath: *configPath})
	if !ok {
		return exitFailure
	}
	defer a.close()

	if *accountPath != "" {
		acct, err := readRecord(*accountPath)
		if err != nil {
			return c.fail(a, "failed to read account record", err)
		}
		rec.Account = acct
		if len(rec.Features) == 0 {
			if rec.Features, err = a.service.Features(ctx, acct); err != nil {
				return c.fail(a, "failed to compute features", err)
			}
		}
	}

	log, err := a.feedbackLog(ctx)
	if err != nil {
		return c.fail(a, "failed to open feedback log", err)
	}
	stored, err := log.Append(ctx, rec)
	if err != nil {
		return c.fail(a, "failed to append feedback", err)
	}
	if err := c.writeJSON(stored); err != nil {
		return c.fail(a, "failed to write feedback", err)
	}
	return exitOK
}

func runTrain(ctx context.Context, c *cli, args []string) int {
	fs, configPath := c.flagSet("train")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	a, ok := c.start(ctx, appOptions{configPath: *configPath})
	if !ok {
		return exitFailure
	}
	defer a.close()

	trainer, err := a.trainer(ctx)
	if err != nil {
		return c.fail(a, "failed to open feedback log", err)
	}
	meta, err := trainer.Train(ctx)
	if err != nil {
		return c.fail(a, "training failed", err)
	}
	if err := c.writeJSON(meta); err != nil {
		return c.fail(a, "failed to write model metadata", err)
	}
	return exitOK
}

func runAutoTrain(ctx context.Context, c *cli, args []string) int {
	fs, configPath := c.flagSet("auto-train")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	a, ok := c.start(ctx, appOptions{configPath: *configPath})
	if !ok {
		return exitFailure
	}
	defer a.close()

	trainer, err := a.trainer(ctx)
	if err != nil {
		return c.fail(a, "failed to open feedback log", err)
	}
	result, err := trainer.AutoTrain(ctx)
	if err != nil {
		return c.fail(a, "auto-train failed", err)
	}
	if err := c.writeJSON(result); err != nil {
		return c.fail(a, "failed to write auto-train result", err)
	}
	return exitOK
}

func runModels(ctx context.Context, c *cli, args []string) int {
	fs, configPath := c.flagSet("models")
	format := fs.String("format", "table", "Output format for list: table or json")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	action := "list"
	if fs.NArg() > 0 {
		action = fs.Arg(0)
	}
	switch {
	case action == "list" && fs.NArg() <= 1:
		if *format != "table" && *format != formatJSON {
			return c.usageError("models: unknown format %q", *format)
		}
	case action == "activate" && fs.NArg() == 2:
	case action == "activate":
		return c.usageError("models: usage: models activate <version>")
	default:
		return c.usageError("models: unknown action %q", strings.Join(fs.Args(), " "))
	}

	a, ok := c.start(ctx, appOptions{configPath: *configPath})
	if !ok {
		return exitFailure
	}
	defer a.close()

	if action == "activate" {
		version := fs.Arg(1)
		if err := a.models.Activate(ctx, version); err != nil {
			return c.fail(a, "failed to activate model", err)
		}
		fmt.Fprintf(c.stdout, "active model: %s\n", version)
		return exitOK
	}

	models, err := a.models.List(ctx)
	if err != nil {
		return c.fail(a, "failed to list models", err)
	}
	if *format == formatJSON {
		if err := c.writeJSON(models); err != nil {
			return c.fail(a, "failed to write models", err)
		}
		return exitOK
	}

	if len(models) == 0 {
		fmt.Fprintln(c.stdout, "no models trained yet")
		return exitOK
	}
	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tACTIVE\tTRAINED AT\tRECORDS\tREJECT\tNON-REJECT\tACCURACY")
	for _, m := range models {
		active := ""
		if m.Active {
			active = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%.3f\n",
			m.Version, active, m.TrainedAt.Format(time.RFC3339), m.RecordCount,
			m.ClassCounts[feedback.ClassReject], m.ClassCounts[feedback.ClassNonReject], m.TrainingAccuracy)
	}
	if err := tw.Flush(); err != nil {
		return c.fail(a, "failed to write models", err)
	}
	return exitOK
}
