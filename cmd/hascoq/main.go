package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/hascoq/hascoq/util"
)

var opts util.Options

var rootCmd = &cobra.Command{
	Use:   "hascoq [flags] FILE...",
	Short: "Compile a Haskell subset to Coq under a free-monad encoding",
	Long: `hascoq translates purely functional Haskell-98-style modules into
Gallina, making partiality explicit through the Free monad so the
result can be reasoned about in Coq.`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts.Stderr = cmd.ErrOrStderr()
		return util.Compile(args, opts)
	},
}

func main() {
	rootCmd.Flags().StringVar(&opts.OutputDir, "output", ".",
		"directory the generated .v files are written to")
	rootCmd.Flags().StringVar(&opts.BaseLibDir, "base-library", "base",
		"directory of the Coq base library and its env.toml")
	rootCmd.Flags().BoolVar(&opts.NoCoqProject, "no-coq-project", false,
		"do not write a _CoqProject file")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
