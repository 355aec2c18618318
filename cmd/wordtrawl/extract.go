package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/knagata/wordtrawl/internal/wikidot"
)

func newExtractCommand() *cobra.Command {
	var sources []string

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Print the extracted word sequence without fetching anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := wikidot.ReadFragments(sources)
			if err != nil {
				return fmt.Errorf("wikidot.ReadFragments > %w", err)
			}
			words := wikidot.ExtractWords(content)
			for _, word := range words {
				fmt.Println(word)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d unique words\n", len(words))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&sources, "source", nil, "Path(s) to source file fragments")
	_ = cmd.MarkFlagRequired("source")

	return cmd
}
