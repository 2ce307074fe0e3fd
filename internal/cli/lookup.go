package cli

import (
	"github.com/spf13/cobra"

	"github.com/heartmarshall/study-helper/internal/domain"
)

type lookupFailureView struct {
	Word    string `yaml:"word"`
	Error   string `yaml:"error"`
	Kind    string `yaml:"kind"`
	Message string `yaml:"message"`
}

func newLookupCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup WORD",
		Short: "Look a word up through the server's dictionary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			word := domain.NormalizeWord(args[0])
			def, err := o.client().FetchDefinition(cmd.Context(), word)
			if lerr, ok := domain.AsLookupError(err); ok {
				if perr := printYAML(cmd.OutOrStdout(), lookupFailureView{
					Word:    word,
					Error:   lerr.Kind.Label(),
					Kind:    string(lerr.Kind),
					Message: lerr.Message,
				}); perr != nil {
					return perr
				}
				return err
			}
			if err != nil {
				return err
			}
			return printYAML(cmd.OutOrStdout(), newDefinitionView(def))
		},
	}
}
