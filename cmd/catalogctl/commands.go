package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"catalog_service/internal/repository"
	"catalog_service/internal/tagging"
	"catalog_service/internal/usecase"
	"catalog_service/pkg/db"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	rulesPath string
	verbose   bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Catalog maintenance tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.rulesPath, "rules", os.Getenv("TAG_RULES_PATH"), "tag rule file (embedded rules when empty)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(newRulesCmd(opts), newPreviewCmd(opts), newRetagCmd(opts))
	return root
}

func (o *rootOptions) logger(w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if o.verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

func (o *rootOptions) tagger() (*tagging.Tagger, error) {
	rules, err := tagging.LoadRules(o.rulesPath)
	if err != nil {
		return nil, err
	}
	return tagging.NewTagger(rules), nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newRulesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the active tag rules as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := opts.tagger()
			if err != nil {
				return err
			}
			out, err := t.Rules().YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func newPreviewCmd(opts *rootOptions) *cobra.Command {
	var req usecase.PreviewRequest
	cmd := &cobra.Command{
		Use:   "preview NAME [DESCRIPTION...]",
		Short: "Show the tags and attributes a product would get",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := opts.tagger()
			if err != nil {
				return err
			}
			req.Name = args[0]
			req.Description = strings.Join(args[1:], " ")
			return writeJSON(cmd.OutOrStdout(), usecase.Preview(t, req))
		},
	}
	cmd.Flags().StringVar(&req.Category, "category", "", "category slug or name")
	cmd.Flags().StringVar(&req.Subcategory, "subcategory", "", "subcategory slug or name")
	cmd.Flags().StringVar(&req.Brand, "brand", "", "brand")
	cmd.Flags().StringVar(&req.Tags, "tags", "", "manual tags, e.g. \"persona:ela, uso:casal\"")
	return cmd
}

func newRetagCmd(opts *rootOptions) *cobra.Command {
	var databaseURL string
	cmd := &cobra.Command{
		Use:   "retag",
		Short: "Re-run tag inference over every stored product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := opts.logger(cmd.ErrOrStderr())
			t, err := opts.tagger()
			if err != nil {
				return err
			}
			database, err := db.Connect(cmd.Context(), databaseURL)
			if err != nil {
				return err
			}
			defer database.Close()

			products := repository.NewPostgresProductRepository(database, logger)
			categories := repository.NewPostgresCategoryRepository(database, logger)
			uc := usecase.NewProductUseCase(products, categories, t, nil, nil, logger)
			report, err := uc.Retag(cmd.Context())
			if err != nil {
				return fmt.Errorf("retag failed: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres connection URL")
	return cmd
}
