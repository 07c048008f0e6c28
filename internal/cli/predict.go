package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"classifier-service/internal/client"
	"classifier-service/internal/models"
	"classifier-service/internal/service"
)

type predictOptions struct {
	text    string
	remote  string
	timeout time.Duration
	asJSON  bool
}

func (a *app) predictCommand() *cobra.Command {
	opts := &predictOptions{}

	cmd := &cobra.Command{
		Use:   "predict [text...]",
		Short: "Classify text with the local artifacts or a running server",
		Long: `Classify one or more texts. Each argument is one text; without arguments
(and without --text), every non-empty line of stdin is one text.

Examples:
  classifier predict "The Beatles released a new album"
  classifier predict --text "Apple Inc." --json
  classifier predict --remote http://localhost:5000 "Manchester United"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.text != "" {
				args = append([]string{opts.text}, args...)
			}
			return a.runPredict(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.text, "text", "t", "", "text to classify")
	cmd.Flags().StringVar(&opts.remote, "remote", "", "base URL of a running classifier server")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "request timeout for --remote")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print results as JSON")

	return cmd
}

func (a *app) runPredict(cmd *cobra.Command, args []string, opts *predictOptions) error {
	ctx := cmd.Context()

	var classify func(ctx context.Context, text string) (*models.PredictionResult, error)
	if opts.remote != "" {
		c := client.NewClient(opts.remote, client.WithTimeout(opts.timeout))
		classify = c.Predict
	} else {
		normalizer, engine, err := a.buildEngine(ctx)
		if err != nil {
			return err
		}
		classify = service.NewClassifier(engine, normalizer, a.cfg, nil, a.logger).Classify
	}

	out := cmd.OutOrStdout()
	return eachText(cmd, args, func(text string) error {
		if len(args) == 0 && strings.TrimSpace(text) == "" {
			return nil
		}

		result, err := classify(ctx, text)
		if err != nil {
			return fmt.Errorf("prediction failed: %s", service.ErrorMessage(err))
		}

		if opts.asJSON {
			return writeJSON(out, result)
		}
		return writeResult(out, result)
	})
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeResult(w io.Writer, result *models.PredictionResult) error {
	var b strings.Builder

	if result.Confidence != nil {
		fmt.Fprintf(&b, "Category:   %s (%.3f)\n", result.Category, *result.Confidence)
	} else {
		fmt.Fprintf(&b, "Category:   %s\n", result.Category)
	}
	fmt.Fprintf(&b, "Model:      %s\n", result.Model)
	fmt.Fprintf(&b, "Normalized: %s (%d words)\n", result.PreprocessedText, result.WordCount)

	if len(result.TopPredictions) > 0 {
		parts := make([]string, len(result.TopPredictions))
		for i, p := range result.TopPredictions {
			parts[i] = fmt.Sprintf("%s %.3f", p.Category, p.Confidence)
		}
		fmt.Fprintf(&b, "Top:        %s\n", strings.Join(parts, ", "))
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}
