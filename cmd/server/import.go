package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shabelingo/shabelingo-api/internal/importer"
	"github.com/spf13/cobra"
)

func newImportCmd(opts *rootOptions) *cobra.Command {
	var (
		user string
		file string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import memos for a user from an .xlsx workbook",
		Long: "Reads the first sheet of the workbook, skipping its header row. Columns are\n" +
			"original text, translation, note, evaluation text and language.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := uuid.Parse(user)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}

			cfg, err := loadAppConfig(opts)
			if err != nil {
				return err
			}
			logger, err := setupAppLogger(cfg)
			if err != nil {
				return err
			}

			st, err := openStorage(cmd.Context(), cfg.Database, logger)
			if err != nil {
				return fmt.Errorf("failed to open storage: %w", err)
			}
			defer st.Close()

			result, err := importer.New(st.memos, logger).ImportFile(cmd.Context(), userID, file)
			if result != nil {
				printImportResult(cmd, result)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "owner of the imported memos (UUID)")
	cmd.Flags().StringVar(&file, "file", "", "path to the .xlsx workbook")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func printImportResult(cmd *cobra.Command, result *importer.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "imported: %d\n", result.Imported)
	fmt.Fprintf(out, "skipped: %d\n", len(result.Skipped))
	for _, s := range result.Skipped {
		fmt.Fprintf(out, "  row %d: %s\n", s.Row, s.Reason)
	}
}
