package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"classifier-service/internal/preprocess"
	"classifier-service/internal/repository"
)

func (a *app) stopwordsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stopwords",
		Short: "Manage the cached stopword list",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "fetch",
			Short: "Download the stopword list and store it in the cache",
			Long: `Download the configured stopword corpus, extract the configured language
and replace the cached copy. The server reads the cache at startup, so running
this once lets it start without network access.`,
			Args: cobra.NoArgs,
			RunE: a.runStopwordsFetch,
		},
		&cobra.Command{
			Use:   "show",
			Short: "List the cached stopword sets",
			Args:  cobra.NoArgs,
			RunE:  a.runStopwordsShow,
		},
	)

	return cmd
}

func (a *app) runStopwordsFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	repo, err := a.requireCache()
	if err != nil {
		return err
	}
	defer repo.Close()

	stderr := cmd.ErrOrStderr()
	loader := preprocess.NewStopwordLoader(a.cfg.Stopwords, repo, a.logger).
		WithProgress(func(total int64) io.Writer {
			return progressbar.NewOptions64(total,
				progressbar.OptionSetWriter(stderr),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(true),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("[cyan]Downloading stopwords[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(stderr)
				}),
			)
		})

	words, err := loader.Fetch(ctx)
	if err != nil {
		return err
	}

	lang := a.cfg.Stopwords.Language
	if err := repo.Put(ctx, lang, a.cfg.Stopwords.DownloadURL, words); err != nil {
		return fmt.Errorf("failed to cache stopwords: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Cached %d stopwords for %s in %s\n", len(words), lang, a.cfg.Stopwords.CachePath)
	return nil
}

func (a *app) runStopwordsShow(cmd *cobra.Command, args []string) error {
	repo, err := a.requireCache()
	if err != nil {
		return err
	}
	defer repo.Close()

	sets, err := repo.List(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(sets) == 0 {
		fmt.Fprintf(out, "No stopword sets cached in %s\n", a.cfg.Stopwords.CachePath)
		return nil
	}

	fmt.Fprintf(out, "%-12s %6s  %-20s  %s\n", "LANGUAGE", "WORDS", "FETCHED", "SOURCE")
	for _, s := range sets {
		fmt.Fprintf(out, "%-12s %6d  %-20s  %s\n",
			s.Language, s.WordCount, s.FetchedAt.UTC().Format("2006-01-02 15:04:05"), s.Source)
	}
	return nil
}

// requireCache opens the cache regardless of the builtin setting.
func (a *app) requireCache() (*repository.StopwordRepository, error) {
	if a.cfg.Stopwords.CachePath == "" {
		return nil, errors.New("stopwords cache_path is not configured")
	}
	repo, err := repository.NewStopwordRepository(a.cfg.Stopwords.CachePath, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open stopword cache: %w", err)
	}
	return repo, nil
}
