package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ipfolio/ipfolio/internal/app"
	"github.com/ipfolio/ipfolio/internal/application/importer"
	"github.com/ipfolio/ipfolio/internal/domain/user"
	"github.com/ipfolio/ipfolio/pkg/errors"
)

type importOptions struct {
	clientID int64
	file     string
	dryRun   bool
}

// newImportCommand loads a JSON file of raw spreadsheet families and runs
// them through the reconciliation pipeline as an admin principal. With
// --dry-run each family is reconciled but nothing is written.
func newImportCommand(rt *runtime) *cobra.Command {
	opts := &importOptions{}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import patent families from a reconciliation file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runImport(ctx, cmd, rt, opts)
		},
	}

	fl := cmd.Flags()
	fl.Int64Var(&opts.clientID, "client-id", 0, "client the imported patents belong to")
	fl.StringVar(&opts.file, "file", "", "JSON file with the families to import")
	fl.BoolVar(&opts.dryRun, "dry-run", false, "reconcile only, write nothing")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runImport(ctx context.Context, cmd *cobra.Command, rt *runtime, opts *importOptions) error {
	data, err := os.ReadFile(opts.file)
	if err != nil {
		return fmt.Errorf("reading import file: %w", err)
	}

	var families []importer.RawFamily
	if err := json.Unmarshal(data, &families); err != nil {
		// Accept the HTTP payload shape too, so a captured request body
		// can be replayed from the command line.
		var payload struct {
			Families []importer.RawFamily `json:"families"`
		}
		if err2 := json.Unmarshal(data, &payload); err2 != nil {
			return fmt.Errorf("parsing import file: %w", err)
		}
		families = payload.Families
	}
	if len(families) == 0 {
		return errors.InvalidParam("import file contains no families")
	}

	a, err := app.New(ctx, rt.cfg, rt.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	if opts.dryRun {
		report := make([]importer.FamilyReport, 0, len(families))
		for _, family := range families {
			_, unresolved, err := a.Imports.ReconcileFamily(ctx, family)
			fr := importer.FamilyReport{Reference: family.Reference, Unresolved: unresolved}
			if err != nil {
				fr.Error = err.Error()
			}
			report = append(report, fr)
		}
		return enc.Encode(report)
	}

	if opts.clientID <= 0 {
		return errors.InvalidParam("client-id must be a positive id")
	}

	principal := user.Principal{UserID: "cli", Role: user.RoleAdmin}.Normalize()
	upload := &importer.Upload{Filename: filepath.Base(opts.file), Data: data}
	report, err := a.Imports.ImportFamilies(ctx, principal, opts.clientID, upload, families)
	if err != nil {
		return err
	}
	return enc.Encode(report)
}
