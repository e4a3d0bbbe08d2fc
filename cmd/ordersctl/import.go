package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"sales-service/internal/service"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file.json|->",
	Short: "Upsert order records from a JSON file",
	Long: `Upsert a single JSON object or an array of objects into the order store.
Invalid records in an array are skipped and their indices reported. A storage
failure stops the import; records before it stay written.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := readInput(args[0])
	if err != nil {
		return err
	}

	raws, batch, err := service.DecodeOrderPayload(data)
	if err != nil {
		return err
	}

	svc, cleanup, err := openOrderService()
	if err != nil {
		return err
	}
	defer cleanup()

	out := cmd.OutOrStdout()
	if !batch {
		res, err := svc.UpsertOrder(cmd.Context(), raws[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "upserted order row id=%d changes=%d\n", res.ID, res.Changes)
		return nil
	}

	res, err := svc.BulkUpsert(cmd.Context(), raws)
	var abort *service.BulkAbortError
	if errors.As(err, &abort) {
		fmt.Fprintf(out, "ok=%d bad=%v\n", abort.Result.OK, abort.Result.Bad)
		return fmt.Errorf("import stopped at record %d: %w", abort.Index, abort.Err)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "ok=%d bad=%v\n", res.OK, res.Bad)
	return nil
}

func readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}
