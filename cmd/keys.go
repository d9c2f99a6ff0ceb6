package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/graphseal/graphseal/pkg/identity"
)

var keysFlags = struct {
	keyrings []string
}{}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the keys in a keyring with their parsed identities",
	RunE:  keys,
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.PersistentFlags().StringSliceVar(&keysFlags.keyrings, "keyring", nil, "Armored keyring file. Repeatable.")
}

func keys(cmd *cobra.Command, args []string) error {
	ring, err := loadKeyring(keysFlags.keyrings)
	if err != nil {
		return err
	}

	local := ring.LocalKeys()
	fingerprints := make([]string, 0, len(local))
	for fingerprint := range local {
		fingerprints = append(fingerprints, fingerprint)
	}
	sort.Strings(fingerprints)

	for _, fingerprint := range fingerprints {
		info := local[fingerprint]
		fmt.Printf("%s (%s)\n", fingerprint, info.Algorithm)
		for _, raw := range info.Identities {
			parsed := identity.Parse(raw)
			fmt.Printf("    %s <%s>\n", parsed.Name, parsed.Email)
		}
	}
	return nil
}
