package suggest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Paranoid-AF/jsonadapter/adapter"
	"github.com/Paranoid-AF/jsonadapter/shell"
)

func texts(sugs []Suggestion) []string {
	var out []string
	for _, s := range sugs {
		out = append(out, s.Text)
	}
	return out
}

func TestSuggestDelegatedAfterPopulation(t *testing.T) {
	gen := newTestGenerator(t, newFakeResolver(standardNames()), adapter.DiscoveryOptions{})
	cmd := command(t, "date")

	sugs, ok := gen.Suggest(cmd)
	require.True(t, ok, "date is eligible")
	assert.Empty(t, sugs, "first observation only schedules discovery")

	settle(t, gen)

	sugs, ok = gen.Suggest(cmd)
	require.True(t, ok)
	require.Len(t, sugs, 1)
	assert.Equal(t, "date | jc --date | ConvertFrom-Json", sugs[0].Text)
	assert.Equal(t, adapter.Delegated, sugs[0].Strategy)
	assert.Equal(t, "jc --date | ConvertFrom-Json", sugs[0].Suffix)
}

func TestSuggestEveryCatalogCommand(t *testing.T) {
	names := map[string]shell.Category{"jc": shell.Application}
	for _, c := range adapter.DefaultCommands {
		names[c] = shell.Application
	}
	gen := newTestGenerator(t, newFakeResolver(names), adapter.DiscoveryOptions{})

	for _, c := range adapter.DefaultCommands {
		gen.Suggest(command(t, c))
		settle(t, gen)
	}
	for _, c := range adapter.DefaultCommands {
		sugs, ok := gen.Suggest(command(t, c))
		require.True(t, ok, c)
		assert.Contains(t, texts(sugs), c+" | jc --"+c+" | ConvertFrom-Json")
	}
}

func TestSuggestKeepsArguments(t *testing.T) {
	gen := newTestGenerator(t, newFakeResolver(standardNames()), adapter.DiscoveryOptions{})
	cmd := command(t, "df -h /tmp")

	gen.Suggest(cmd)
	settle(t, gen)

	sugs, _ := gen.Suggest(cmd)
	assert.Equal(t, []string{"df -h /tmp | jc --df | ConvertFrom-Json"}, texts(sugs))
}

func TestSuggestNamingConvention(t *testing.T) {
	gen := newTestGenerator(t, newFakeResolver(standardNames()), adapter.DiscoveryOptions{})
	cmd := command(t, "foo-tool --all")

	gen.Suggest(cmd)
	settle(t, gen)

	sugs, ok := gen.Suggest(cmd)
	require.True(t, ok)
	require.Len(t, sugs, 1)
	assert.Equal(t, "foo-tool --all | foo-tool-adapter", sugs[0].Text)
	assert.Equal(t, adapter.NamingConvention, sugs[0].Strategy)
}

func TestSuggestNamingConventionJSONVariant(t *testing.T) {
	gen := newTestGenerator(t, newFakeResolver(standardNames()), adapter.DiscoveryOptions{NamingSuffix: adapter.SuffixJSON})
	cmd := command(t, "bar")

	gen.Suggest(cmd)
	settle(t, gen)

	sugs, _ := gen.Suggest(cmd)
	assert.Equal(t, []string{"bar | bar-json"}, texts(sugs))

	foo := command(t, "foo-tool")
	gen.Suggest(foo)
	settle(t, gen)
	sugs, _ = gen.Suggest(foo)
	assert.Empty(t, sugs, "-adapter siblings are ignored by the -json variant")
}

func TestSuggestBothStrategiesInOrder(t *testing.T) {
	names := standardNames()
	names["date-adapter"] = shell.ExternalScript
	gen := newTestGenerator(t, newFakeResolver(names), adapter.DiscoveryOptions{})
	cmd := command(t, "date")

	gen.Suggest(cmd)
	settle(t, gen)

	sugs, _ := gen.Suggest(cmd)
	assert.Equal(t, []string{
		"date | date-adapter",
		"date | jc --date | ConvertFrom-Json",
	}, texts(sugs))
}

func TestSuggestNoAdapterStaysEmpty(t *testing.T) {
	gen := newTestGenerator(t, newFakeResolver(standardNames()), adapter.DiscoveryOptions{})
	cmd := command(t, "curl https://example.com")

	for i := 0; i < 3; i++ {
		sugs, ok := gen.Suggest(cmd)
		require.True(t, ok, "curl is eligible")
		assert.Empty(t, sugs)
		settle(t, gen)
	}
}

func TestSuggestUnresolvable(t *testing.T) {
	gen := newTestGenerator(t, newFakeResolver(standardNames()), adapter.DiscoveryOptions{})

	sugs, ok := gen.Suggest(command(t, "dtae"))
	assert.False(t, ok, "a typo means no suggestions are possible")
	assert.Nil(t, sugs)

	_, ok = gen.Suggest(command(t, "ll"))
	assert.False(t, ok, "aliases are not adapter-eligible")

	_, ok = gen.Suggest(command(t, "$cmd"))
	assert.False(t, ok)

	_, ok = gen.Suggest(nil)
	assert.False(t, ok)
}

func TestSuggestBecomesEligibleLater(t *testing.T) {
	res := newFakeResolver(standardNames())
	gen := newTestGenerator(t, res, adapter.DiscoveryOptions{})
	cmd := command(t, "uname -a")

	_, ok := gen.Suggest(cmd)
	require.False(t, ok)

	res.mu.Lock()
	res.names["uname"] = shell.Application
	res.mu.Unlock()

	_, ok = gen.Suggest(cmd)
	require.True(t, ok, "failed resolutions are retried")
	settle(t, gen)
	sugs, _ := gen.Suggest(cmd)
	assert.Equal(t, []string{"uname -a | jc --uname | ConvertFrom-Json"}, texts(sugs))
}

func TestSuggestNormalizesExtension(t *testing.T) {
	names := standardNames()
	names["date.exe"] = shell.Application
	gen := newTestGenerator(t, newFakeResolver(names), adapter.DiscoveryOptions{})
	cmd := command(t, "date.exe")

	gen.Suggest(cmd)
	settle(t, gen)

	sugs, _ := gen.Suggest(cmd)
	assert.Equal(t, []string{"date.exe | jc --date | ConvertFrom-Json"}, texts(sugs))
}

func TestSuggestFirstObservationMissWhileDiscoveryRuns(t *testing.T) {
	res := newFakeResolver(standardNames())
	gate := res.block("foo-tool-adapter")
	gen := newTestGenerator(t, res, adapter.DiscoveryOptions{})
	cmd := command(t, "foo-tool")

	for i := 0; i < 3; i++ {
		sugs, ok := gen.Suggest(cmd)
		require.True(t, ok)
		assert.Empty(t, sugs, "requests never wait for discovery")
	}

	close(gate)
	settle(t, gen)

	sugs, _ := gen.Suggest(cmd)
	assert.Equal(t, []string{"foo-tool | foo-tool-adapter"}, texts(sugs))
}

func TestSuggestFullQueueDropsAndRetries(t *testing.T) {
	res := newFakeResolver(standardNames())
	gate := res.block("foo-tool-adapter")

	classifier := adapter.NewClassifier(res)
	discovery := adapter.NewDiscovery(classifier, adapter.NewCatalog(res, "jc", nil), adapter.DiscoveryOptions{})
	gen := NewGenerator(classifier, discovery, adapter.NewCache(), 1)
	t.Cleanup(gen.Close)

	// Occupies the only slot.
	gen.Suggest(command(t, "foo-tool"))

	date := command(t, "date")
	gen.Suggest(date)

	close(gate)
	settle(t, gen)

	sugs, _ := gen.Suggest(date)
	assert.Empty(t, sugs, "the dropped attempt was not queued")

	// The slot is shared with the uncached naming probe, so a retry may be
	// dropped again; later observations get through.
	assert.Eventually(t, func() bool {
		if err := gen.Settle(context.Background()); err != nil {
			return false
		}
		sugs, _ := gen.Suggest(date)
		return len(sugs) == 1 && sugs[0].Text == "date | jc --date | ConvertFrom-Json"
	}, 2*time.Second, time.Millisecond)
}

func TestSuggestSchedulesWhileSettleWaits(t *testing.T) {
	res := newFakeResolver(standardNames())
	gate := res.block("foo-tool-adapter")
	gen := newTestGenerator(t, res, adapter.DiscoveryOptions{})

	// One discovery stays in flight until the gate opens.
	gen.Suggest(command(t, "foo-tool"))

	settled := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		settled <- gen.Settle(ctx)
	}()
	time.Sleep(20 * time.Millisecond)

	date := command(t, "date")
	gen.Suggest(date)

	close(gate)
	require.NoError(t, <-settled)
	settle(t, gen)

	sugs, _ := gen.Suggest(date)
	assert.Equal(t, []string{"date | jc --date | ConvertFrom-Json"}, texts(sugs),
		"discovery scheduled during a settle is not dropped")
}

func TestSettleHonorsContext(t *testing.T) {
	res := newFakeResolver(standardNames())
	gate := res.block("foo-tool-adapter")
	gen := newTestGenerator(t, res, adapter.DiscoveryOptions{})
	gen.Suggest(command(t, "foo-tool"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, gen.Settle(ctx), context.DeadlineExceeded)

	close(gate)
	settle(t, gen)
}

func TestSettleIdleReturnsImmediately(t *testing.T) {
	gen := newTestGenerator(t, newFakeResolver(standardNames()), adapter.DiscoveryOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, gen.Settle(ctx))
}

func TestSuggestStableAcrossCalls(t *testing.T) {
	gen := newTestGenerator(t, newFakeResolver(standardNames()), adapter.DiscoveryOptions{})
	cmd := command(t, "uptime")

	gen.Suggest(cmd)
	settle(t, gen)
	first, _ := gen.Suggest(cmd)
	settle(t, gen)
	for i := 0; i < 5; i++ {
		again, _ := gen.Suggest(cmd)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, 1, gen.CachedAdapters())
}

func TestSuggestedPipelinesDropsUnparsable(t *testing.T) {
	names := standardNames()
	names["date)"] = shell.Function
	gen := newTestGenerator(t, newFakeResolver(names), adapter.DiscoveryOptions{NamingSuffix: ")"})
	cmd := command(t, "date")

	gen.Suggest(cmd)
	settle(t, gen)

	sugs, _ := gen.Suggest(cmd)
	require.Len(t, sugs, 2, "both adapters are cached")

	pipelines := gen.SuggestedPipelines(cmd)
	require.Len(t, pipelines, 1)
	assert.Equal(t, "date | jc --date | ConvertFrom-Json", pipelines[0].Text)
	require.Len(t, pipelines[0].Stages, 3)
	assert.Equal(t, "jc", pipelines[0].Stages[1].Name)
}

func TestSuggestedPipelinesUnresolvable(t *testing.T) {
	gen := newTestGenerator(t, newFakeResolver(standardNames()), adapter.DiscoveryOptions{})
	assert.Nil(t, gen.SuggestedPipelines(command(t, "dtae")))
}

func TestClearCache(t *testing.T) {
	gen := newTestGenerator(t, newFakeResolver(standardNames()), adapter.DiscoveryOptions{})
	cmd := command(t, "date")

	gen.Suggest(cmd)
	settle(t, gen)
	require.Equal(t, 1, gen.CachedAdapters())

	gen.ClearCache()
	assert.Equal(t, 0, gen.CachedAdapters())
	sugs, ok := gen.Suggest(cmd)
	assert.True(t, ok)
	assert.Empty(t, sugs)
}

func TestCloseStopsScheduling(t *testing.T) {
	gen := newTestGenerator(t, newFakeResolver(standardNames()), adapter.DiscoveryOptions{})
	gen.Close()

	cmd := command(t, "date")
	gen.Suggest(cmd)
	settle(t, gen)
	sugs, _ := gen.Suggest(cmd)
	assert.Empty(t, sugs)
}
