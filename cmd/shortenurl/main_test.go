package main

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshdurbin/shortenurl/internal/domain"
)

var shortURLPattern = regexp.MustCompile(`Short URL: https://foo\.com/(\S+)`)

type harness struct {
	t           *testing.T
	configPath  string
	databaseURL string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("SHORTENURL_DATABASE_URL", "")
	t.Setenv("SHORTENURL_DOMAIN", "")

	dir := t.TempDir()
	return &harness{
		t:           t,
		configPath:  filepath.Join(dir, "shortenurl.toml"),
		databaseURL: "sqlite://" + filepath.Join(dir, "aliases.db"),
	}
}

func (h *harness) execute(stdin string, args ...string) (string, string, error) {
	h.t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	a := &app{in: strings.NewReader(stdin), out: out, errOut: errOut}

	cmd := newRootCmd(a)
	cmd.SetArgs(append([]string{"--config", h.configPath}, args...))
	err := cmd.Execute()

	return out.String(), errOut.String(), err
}

func (h *harness) configure() {
	h.t.Helper()
	out, _, err := h.execute("", "config", "--database-url", h.databaseURL, "--domain", "foo.com")
	require.NoError(h.t, err)
	require.Contains(h.t, out, "Database is ready.")
}

func (h *harness) create(url string) string {
	h.t.Helper()
	out, _, err := h.execute("", "alias", "create", url)
	require.NoError(h.t, err)
	require.Contains(h.t, out, "Alias created successfully!!")

	match := shortURLPattern.FindStringSubmatch(out)
	require.Len(h.t, match, 2)
	return match[1]
}

func TestFullWorkflow(t *testing.T) {
	h := newHarness(t)
	h.configure()

	originalURL := "https://example.com/it's/a/very/long/path"
	alias := h.create(originalURL)

	out, _, err := h.execute("", "alias", "get", alias)
	require.NoError(t, err)
	assert.Contains(t, out, "Long URL: "+originalURL)
	assert.Contains(t, out, "Short URL: https://foo.com/"+alias)
	assert.Contains(t, out, "Created At:")

	again, _, err := h.execute("", "alias", "get", alias)
	require.NoError(t, err)
	assert.Equal(t, out, again)

	out, _, err = h.execute("", "alias", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "https://foo.com/"+alias)
	assert.Contains(t, out, originalURL)

	out, _, err = h.execute("", "alias", "remove-alias", alias)
	require.NoError(t, err)
	assert.Equal(t, "Record was removed.\n", out)

	out, _, err = h.execute("", "alias", "get", alias)
	require.NoError(t, err)
	assert.Equal(t, "Alias does not exist.\n", out)

	out, _, err = h.execute("", "alias", "remove-alias", alias)
	require.NoError(t, err)
	assert.Equal(t, "Alias '"+alias+"' cannot be found.\n", out)
}

func TestFlush(t *testing.T) {
	h := newHarness(t)
	h.configure()

	out, _, err := h.execute("", "alias", "flush")
	require.NoError(t, err)
	assert.Equal(t, "No records to remove.\n", out)

	h.create("https://example.com/one")

	out, _, err = h.execute("", "alias", "flush")
	require.NoError(t, err)
	assert.Equal(t, "All records were removed (1).\n", out)

	out, _, err = h.execute("", "alias", "get-all")
	require.NoError(t, err)
	assert.Contains(t, out, "No records found")
}

func TestListPaging(t *testing.T) {
	h := newHarness(t)
	h.configure()

	first := h.create("https://example.com/first")
	second := h.create("https://example.com/second")
	require.NotEqual(t, first, second)

	out, _, err := h.execute("", "alias", "list", "--limit", "1", "--offset", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "https://example.com/second")
	assert.NotContains(t, out, "https://example.com/first")
}

func TestConfigPrompts(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.execute(h.databaseURL+"\nfoo.com\n", "config")
	require.NoError(t, err)
	assert.Contains(t, out, databaseURLPrompt)
	assert.Contains(t, databaseURLPrompt, "sqlite://")
	assert.Contains(t, out, domainPrompt)
	assert.Contains(t, out, "Config saved to "+h.configPath)

	h.create("https://example.com")
}

func TestConfigRejectsInvalidValues(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.execute("", "config", "--database-url", "mysql://localhost/db", "--domain", "foo.com")
	assert.ErrorIs(t, err, domain.ErrConfig)

	_, _, err = h.execute("", "config", "--database-url", h.databaseURL, "--domain", "not a domain")
	assert.ErrorIs(t, err, domain.ErrConfig)

	_, _, err = h.execute("", "config")
	assert.Error(t, err)
}

func TestConfigRejectsNonTOMLPath(t *testing.T) {
	h := newHarness(t)
	yamlPath := filepath.Join(t.TempDir(), "shortenurl.yaml")

	_, _, err := h.execute("", "--config", yamlPath, "config", "--database-url", h.databaseURL, "--domain", "foo.com")
	assert.ErrorIs(t, err, domain.ErrConfig)

	_, _, err = h.execute("", "--config", yamlPath, "alias", "list")
	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestAliasWithoutConfig(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.execute("", "alias", "list")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfig)
	assert.Contains(t, err.Error(), "shortenurl config")
}

func TestInvalidTimeout(t *testing.T) {
	h := newHarness(t)
	h.configure()

	_, _, err := h.execute("", "--timeout", "0s", "alias", "list")
	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestMetricsAndVerboseOutput(t *testing.T) {
	h := newHarness(t)
	h.configure()

	_, errOut, err := h.execute("", "--metrics", "-v", "alias", "create", "https://example.com")
	require.NoError(t, err)
	assert.Contains(t, errOut, "shortenurl_store_operations_total")
	assert.Contains(t, errOut, "level=DEBUG")
}

func TestArgumentValidation(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.execute("", "alias", "get")
	assert.Error(t, err)

	_, _, err = h.execute("", "alias", "create", "a", "b")
	assert.Error(t, err)

	_, _, err = h.execute("", "alias", "list", "--limit", "ten")
	assert.ErrorContains(t, err, "invalid argument")
}
