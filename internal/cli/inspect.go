package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Karonar1/lora-viewer/internal/render"
)

type inspectOptions struct {
	metadata bool
	tensors  bool
	json     bool
	query    string
}

func newInspectCommand(a *app) *cobra.Command {
	opts := &inspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Show the metadata of one safetensors file",
		Long: `Show the model type, base checkpoint and training tag frequencies of a file.

Without a file argument the last inspected file is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.lastFile()
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return errors.New("no file given and no previously inspected file")
			}
			return a.inspect(cmd.OutOrStdout(), path, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.metadata, "metadata", false, "Also print the full raw metadata")
	cmd.Flags().BoolVar(&opts.tensors, "tensors", false, "Also print the tensor list")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the record as JSON")
	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "Filter the JSON record with a jq expression")
	return cmd
}

func (a *app) inspect(out io.Writer, path string, opts *inspectOptions) error {
	record, err := a.builder.Load(path)
	if err != nil {
		return fmt.Errorf("could not be loaded: %w", err)
	}
	a.rememberPath(path)

	switch {
	case opts.query != "":
		results, err := render.Query(opts.query, record)
		if err != nil {
			return err
		}
		for _, r := range results {
			if err := writeJSON(out, r); err != nil {
				return err
			}
		}
		return nil
	case opts.json:
		return writeJSON(out, record)
	}

	printf(out, "%s", render.Summary(path, record))
	if opts.metadata {
		printf(out, "\n%s", render.MetadataTable(record))
	}
	if opts.tensors {
		printf(out, "\n%s", render.TensorTable(record))
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

