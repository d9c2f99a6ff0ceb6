package envelope_test

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/maxatome/go-testdeep/td"
	"github.com/stretchr/testify/require"
	"github.com/ProtonMail/go-crypto/openpgp"

	"github.com/graphseal/graphseal/pkg/envelope"
	"github.com/graphseal/graphseal/pkg/graph"
	"github.com/graphseal/graphseal/pkg/keyserver"
	"github.com/graphseal/graphseal/pkg/pgp"
)

var (
	codecKeysOnce sync.Once
	joeEntity     *openpgp.Entity
	adaEntity     *openpgp.Entity
)

// codecKeys generates the two key pairs shared by the tests in this file.
// Generation is slow, so it happens once.
func codecKeys(t *testing.T) (*openpgp.Entity, *openpgp.Entity) {
	t.Helper()
	codecKeysOnce.Do(func() {
		var err error
		joeEntity, err = pgp.Generate("Joe Tester", "", "joe@foo.bar", 1024)
		if err != nil {
			panic(err)
		}
		adaEntity, err = pgp.Generate("Ada Example", "", "ada@example.org", 1024)
		if err != nil {
			panic(err)
		}
	})
	return joeEntity, adaEntity
}

// sensitiveProps builds an entity property bag from JSON-native values so it
// survives a marshal round trip unchanged.
func sensitiveProps(id string, extra map[string]any) map[string]any {
	props := map[string]any{"@id": id, "@type": "Person"}
	for k, v := range extra {
		props[k] = v
	}
	return props
}

func TestCodecSealOpenRoundTrip(t *testing.T) {
	joe, ada := codecKeys(t)
	ring := pgp.NewRing(joe, ada)
	ctx := context.Background()

	doc := graph.NewDocument()
	doc.Graph.Add(graph.NewEntity("./", graph.KindPlain, map[string]any{"@type": "Dataset"}))
	doc.Graph.Add(graph.NewEntity("#joe", graph.KindPlain, map[string]any{
		"@type":                "Person",
		graph.PropFingerprints: []any{pgp.Fingerprint(joe)},
	}))

	secret := sensitiveProps("#meta", map[string]any{
		"value":                "classified",
		graph.PropRecipients:   []any{graph.Ref("#joe")},
		graph.PropFingerprints: []any{pgp.Fingerprint(ada)},
	})
	doc.Graph.Add(graph.NewEntity("#meta", graph.KindSensitive, secret))

	codec := &envelope.Codec{Ring: ring}
	require.NoError(t, codec.Seal(ctx, doc))

	// The sensitive entity is gone from the graph, replaced by one envelope
	// and a descriptor per recipient.
	require.Nil(t, doc.Graph.Dereference("#meta"))
	require.Len(t, doc.Envelopes, 1)
	var descriptors int
	for _, e := range doc.Graph.Entities() {
		if e.Kind() == graph.KindRecipient {
			descriptors++
		}
	}
	require.Equal(t, 2, descriptors)

	var buf bytes.Buffer
	require.NoError(t, doc.Write(&buf))

	loaded, err := graph.Load(&buf)
	require.NoError(t, err)
	require.Len(t, loaded.Envelopes, 1)

	recovered, err := codec.Open(ctx, loaded)
	require.NoError(t, err)
	require.Len(t, recovered, 1)
	td.Cmp(t, recovered[0].Properties(), secret)
	require.Equal(t, graph.KindSensitive, recovered[0].Kind())

	// Opening cleans the descriptors out so the document can be sealed again.
	for _, e := range loaded.Graph.Entities() {
		require.NotEqual(t, graph.KindRecipient, e.Kind())
	}
}

func TestCodecPartialAccess(t *testing.T) {
	joe, ada := codecKeys(t)
	sealRing := pgp.NewRing(joe, ada)
	ctx := context.Background()

	doc := graph.NewDocument()
	forJoe := sensitiveProps("#joe-only", map[string]any{
		"value":                "for joe",
		graph.PropFingerprints: []any{pgp.Fingerprint(joe)},
	})
	forAda := sensitiveProps("#ada-only", map[string]any{
		"value":                "for ada",
		graph.PropFingerprints: []any{pgp.Fingerprint(ada)},
	})
	doc.Graph.Add(graph.NewEntity("#joe-only", graph.KindSensitive, forJoe))
	doc.Graph.Add(graph.NewEntity("#ada-only", graph.KindSensitive, forAda))

	require.NoError(t, (&envelope.Codec{Ring: sealRing}).Seal(ctx, doc))
	require.Len(t, doc.Envelopes, 2)

	var buf bytes.Buffer
	require.NoError(t, doc.Write(&buf))
	loaded, err := graph.Load(&buf)
	require.NoError(t, err)

	// A reader holding only Ada's key sees Ada's entity; Joe's envelope is
	// silently dropped.
	readRing := pgp.NewRing(ada)
	recovered, err := (&envelope.Codec{Ring: readRing}).Open(ctx, loaded)
	require.NoError(t, err)
	require.Len(t, recovered, 1)
	td.Cmp(t, recovered[0].Properties(), forAda)
	require.Nil(t, loaded.Graph.Dereference("#joe-only"))
}

func TestCodecResealStability(t *testing.T) {
	joe, _ := codecKeys(t)
	ring := pgp.NewRing(joe)
	ctx := context.Background()

	secret := sensitiveProps("#meta", map[string]any{
		"value":                "stable",
		graph.PropFingerprints: []any{pgp.Fingerprint(joe)},
	})

	doc := graph.NewDocument()
	doc.Graph.Add(graph.NewEntity("#meta", graph.KindSensitive, secret))

	codec := &envelope.Codec{Ring: ring}
	for cycle := 0; cycle < 2; cycle++ {
		require.NoError(t, codec.Seal(ctx, doc))

		var buf bytes.Buffer
		require.NoError(t, doc.Write(&buf))
		loaded, err := graph.Load(&buf)
		require.NoError(t, err)

		recovered, err := codec.Open(ctx, loaded)
		require.NoError(t, err)
		require.Len(t, recovered, 1)
		td.Cmp(t, recovered[0].Properties(), secret)

		doc = loaded
	}
}

func TestCodecSealWithoutSensitiveEntitiesIsNoop(t *testing.T) {
	doc := graph.NewDocument()
	doc.Graph.Add(graph.NewEntity("./", graph.KindPlain, map[string]any{"@type": "Dataset"}))

	codec := &envelope.Codec{Ring: pgp.NewFake()}
	require.NoError(t, codec.Seal(context.Background(), doc))
	require.Empty(t, doc.Envelopes)
	require.Len(t, doc.Graph.Entities(), 1)
}

// ringFetcher stands in for a keyserver client: it imports a fake key blob
// for every requested fingerprint and records what was asked for.
type ringFetcher struct {
	ring      *pgp.Fake
	requested []string
}

func (f *ringFetcher) Fetch(ctx context.Context, fingerprints []string) keyserver.ImportResult {
	var result keyserver.ImportResult
	for _, fingerprint := range fingerprints {
		f.requested = append(f.requested, fingerprint)
		imported, err := f.ring.Import("FAKE-KEY " + fingerprint)
		if err != nil {
			result.Problems = append(result.Problems, keyserver.Problem{Fingerprint: fingerprint, Reason: err.Error()})
			continue
		}
		result.Fingerprints = append(result.Fingerprints, imported...)
	}
	return result
}

func TestCodecFetchesMissingKeysBeforeSealing(t *testing.T) {
	ring := newFakeRing()
	fetcher := &ringFetcher{ring: ring}
	codec := &envelope.Codec{Ring: ring, Fetcher: fetcher}

	doc := graph.NewDocument()
	doc.Graph.Add(graph.NewEntity("#meta", graph.KindSensitive, sensitiveProps("#meta", map[string]any{
		"value":                "needs a fetch",
		graph.PropFingerprints: []any{keyA, keyC},
	})))

	require.NoError(t, codec.Seal(context.Background(), doc))
	// keyA is local, only keyC needed fetching.
	require.Equal(t, []string{keyC}, fetcher.requested)
	require.Len(t, doc.Envelopes, 1)
	require.Contains(t, ring.LocalKeys(), keyC)
}
