package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/graphseal/graphseal/pkg/envelope"
	"github.com/graphseal/graphseal/pkg/graph"
	"github.com/graphseal/graphseal/pkg/keyserver"
)

var sealFlags = struct {
	in           string
	out          string
	keyrings     []string
	sensitive    []string
	defaultKeys  []string
	allowMissing bool
	keyserver    string
}{}

var sealCmd = &cobra.Command{
	Use:   "seal",
	Short: "Encrypt the sensitive entities of a metadata document",
	Long: `Seal loads a metadata document, encrypts the entities named with
--sensitive for their resolved recipients, and writes the document back
with the ciphertext embedded as envelope records.`,
	RunE: seal,
}

func init() {
	rootCmd.AddCommand(sealCmd)
	sealCmd.PersistentFlags().StringVar(&sealFlags.in, "in", "-", "Input document path, - for stdin.")
	sealCmd.PersistentFlags().StringVar(&sealFlags.out, "out", "-", "Output document path, - for stdout.")
	sealCmd.PersistentFlags().StringSliceVar(&sealFlags.keyrings, "keyring", nil, "Armored keyring file holding the recipient public keys. Repeatable.")
	sealCmd.PersistentFlags().StringSliceVar(&sealFlags.sensitive, "sensitive", nil, "Id of an entity to encrypt. Repeatable.")
	sealCmd.PersistentFlags().StringSliceVar(&sealFlags.defaultKeys, "default-key", nil, "Fingerprint every sensitive entity is additionally encrypted for. Repeatable.")
	sealCmd.PersistentFlags().BoolVar(&sealFlags.allowMissing, "allow-missing", false, "Tolerate recipient references that cannot be resolved to keys.")
	sealCmd.PersistentFlags().StringVar(&sealFlags.keyserver, "keyserver", "", "HKP keyserver base URL used to look up missing recipient keys.")
}

func seal(cmd *cobra.Command, args []string) error {
	ring, err := loadKeyring(sealFlags.keyrings)
	if err != nil {
		return err
	}
	doc, err := loadDocument(sealFlags.in)
	if err != nil {
		return err
	}

	for _, id := range sealFlags.sensitive {
		e := doc.Graph.Dereference(id)
		if e == nil {
			return errors.Errorf("no entity %q in document", id)
		}
		doc.Graph.Add(graph.NewEntity(id, graph.KindSensitive, e.Properties()))
	}

	codec := &envelope.Codec{
		Ring:         ring,
		Defaults:     sealFlags.defaultKeys,
		AllowMissing: sealFlags.allowMissing,
		Keyserver:    sealFlags.keyserver,
	}
	if sealFlags.keyserver != "" {
		codec.Fetcher = keyserver.New(sealFlags.keyserver, ring, nil)
	}
	if err := codec.Seal(cmd.Context(), doc); err != nil {
		return err
	}
	return writeDocument(doc, sealFlags.out)
}
