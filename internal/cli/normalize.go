package cli

import (
	"bufio"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"classifier-service/internal/preprocess"
)

func (a *app) normalizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize [text...]",
		Short: "Print the normalized form of each text",
		Long: `Apply the same normalization the server uses before vectorization.
Each argument is one text; without arguments, every line of stdin is one text.

Examples:
  classifier normalize "The Beatles, an English rock band!"
  cat titles.txt | classifier normalize`,
		RunE: func(cmd *cobra.Command, args []string) error {
			stopwords, err := a.loadStopwords(cmd.Context(), nil)
			if err != nil {
				return err
			}
			normalizer := preprocess.NewNormalizer(stopwords)

			out := cmd.OutOrStdout()
			return eachText(cmd, args, func(text string) error {
				_, err := fmt.Fprintln(out, normalizer.Normalize(text))
				return err
			})
		},
	}
}

// eachText calls fn for every argument, or for every stdin line when there are none.
func eachText(cmd *cobra.Command, args []string, fn func(text string) error) error {
	if len(args) > 0 {
		for _, text := range args {
			if err := fn(text); err != nil {
				return err
			}
		}
		return nil
	}
	return eachLine(cmd.InOrStdin(), fn)
}

func eachLine(r io.Reader, fn func(line string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		if err := fn(scanner.Text()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}
