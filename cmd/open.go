package cmd

import (
	"github.com/spf13/cobra"

	"github.com/graphseal/graphseal/pkg/envelope"
	"github.com/graphseal/graphseal/pkg/logs"
)

var openFlags = struct {
	in       string
	out      string
	keyrings []string
}{}

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Decrypt the envelopes of a sealed document",
	Long: `Open loads a sealed document and decrypts every envelope the private
keys in the keyring can open. Envelopes addressed to other recipients
are dropped silently; their entities are simply absent from the output.`,
	RunE: open,
}

func init() {
	rootCmd.AddCommand(openCmd)
	openCmd.PersistentFlags().StringVar(&openFlags.in, "in", "-", "Input document path, - for stdin.")
	openCmd.PersistentFlags().StringVar(&openFlags.out, "out", "-", "Output document path, - for stdout.")
	openCmd.PersistentFlags().StringSliceVar(&openFlags.keyrings, "keyring", nil, "Armored keyring file holding the reader's private keys. Repeatable.")
}

func open(cmd *cobra.Command, args []string) error {
	ring, err := loadKeyring(openFlags.keyrings)
	if err != nil {
		return err
	}
	doc, err := loadDocument(openFlags.in)
	if err != nil {
		return err
	}

	codec := &envelope.Codec{Ring: ring}
	recovered, err := codec.Open(cmd.Context(), doc)
	if err != nil {
		return err
	}
	logs.Component("open").Infof("recovered %d sensitive entities", len(recovered))

	// Recovered entities must not be written back as plaintext; the output
	// of open is for the reader's eyes, so they are downgraded to plain
	// entities before writing.
	for _, e := range recovered {
		doc.Graph.Add(downgrade(e))
	}
	return writeDocument(doc, openFlags.out)
}
