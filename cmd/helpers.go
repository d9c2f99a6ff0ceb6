package cmd

import (
	"os"

	"github.com/pkg/errors"

	"github.com/graphseal/graphseal/pkg/graph"
	"github.com/graphseal/graphseal/pkg/pgp"
)

// loadKeyring builds one ring from a list of armored keyring files.
func loadKeyring(paths []string) (*pgp.Ring, error) {
	if len(paths) == 0 {
		return nil, errors.New("at least one --keyring file is required")
	}
	ring := pgp.NewRing()
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "reading keyring %s", path)
		}
		if _, err := ring.Import(string(data)); err != nil {
			return nil, errors.Wrapf(err, "importing keyring %s", path)
		}
	}
	return ring, nil
}

// downgrade rebuilds a sensitive entity as a plain one so an opened
// document can be written out.
func downgrade(e *graph.Entity) *graph.Entity {
	return graph.NewEntity(e.ID(), graph.KindPlain, e.Properties())
}

// loadDocument reads a document from a file, or stdin when path is "-".
func loadDocument(path string) (*graph.Document, error) {
	if path == "-" {
		return graph.Load(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening document %s", path)
	}
	defer f.Close()
	return graph.Load(f)
}

// writeDocument writes a document to a file, or stdout when path is "-".
func writeDocument(doc *graph.Document, path string) error {
	if path == "-" {
		return doc.Write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating document %s", path)
	}
	defer f.Close()
	return doc.Write(f)
}
