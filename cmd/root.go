package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/graphseal/graphseal/pkg/logs"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "graphseal",
	Short: "Selective encryption for graph metadata documents",
	Long: `Graphseal encrypts the sensitive entities of a graph metadata document
for a designated set of OpenPGP recipients, leaving the rest of the
document as plaintext. Readers holding a matching private key recover
the sensitive entities on open; everyone else sees a structurally valid
document without them.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logs.Initialize()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	logs.AddFlags(rootCmd.PersistentFlags())
	setFlagsFromEnv("GRAPHSEAL_", rootCmd.PersistentFlags())
	for _, command := range rootCmd.Commands() {
		setFlagsFromEnv("GRAPHSEAL_", command.PersistentFlags())
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func setFlagsFromEnv(prefix string, fs *pflag.FlagSet) {
	set := map[string]bool{}
	fs.Visit(func(f *pflag.Flag) {
		set[f.Name] = true
	})
	fs.VisitAll(func(f *pflag.Flag) {
		// ignore flags set from the commandline
		if set[f.Name] {
			return
		}
		// remove trailing _ to reduce common errors with the prefix, i.e. people setting it to MY_PROG_
		cleanPrefix := strings.TrimSuffix(prefix, "_")
		name := fmt.Sprintf("%s_%s", cleanPrefix, strings.Replace(strings.ToUpper(f.Name), "-", "_", -1))
		if e, ok := os.LookupEnv(name); ok {
			_ = f.Value.Set(e)
		}
	})
}
