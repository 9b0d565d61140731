package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ehsanranjbar/flatkv/codec"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), err
}

func TestRunLines(t *testing.T) {
	out, err := runCLI(t, `{"a": [1, {"b": "x"}], "c": null}`)
	require.NoError(t, err)
	require.Equal(t, "a.0=1\na.1.b=\"x\"\nc=null\n", out)

	out, err = runCLI(t, `{"a": {"b": true}}`, "-s", "/")
	require.NoError(t, err)
	require.Equal(t, "a/b=true\n", out)
}

func TestRunMultipleInputs(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.yaml", "name: first\nlist: [1, 2]\n")
	b := writeFile(t, dir, "b.json", `{"name": "second"}`)

	out, err := runCLI(t, "", "--concurrency", "2", a, b)
	require.NoError(t, err)
	require.Equal(t, "# "+a+"\nname=\"first\"\nlist.0=1\nlist.1=2\n# "+b+"\nname=\"second\"\n", out)

	out, err = runCLI(t, "", "-o", "json", a, b)
	require.NoError(t, err)
	require.Equal(t, `{"name":"first","list.0":1,"list.1":2}`+"\n"+`{"name":"second"}`+"\n", out)
}

func TestRunFilter(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.json", `{"env": "prod", "port": 80}`)
	b := writeFile(t, dir, "b.json", `{"env": "dev", "port": 8080}`)

	out, err := runCLI(t, "", "-o", "json", "--filter", `env == "dev"`, a, b)
	require.NoError(t, err)
	require.Equal(t, `{"env":"dev","port":8080}`+"\n", out)
}

func TestRunMsgpackOutput(t *testing.T) {
	out, err := runCLI(t, `{"z": 1, "a": ["x"]}`, "-o", "msgpack")
	require.NoError(t, err)

	r, err := codec.ResultCodec{}.Decode([]byte(out))
	require.NoError(t, err)
	require.Equal(t, []string{"z", "a.0"}, r.Keys())
}

func TestRunDiff(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.json", `{"name": "svc", "port": 80, "tags": ["x"]}`)
	b := writeFile(t, dir, "b.yaml", "name: svc\nport: 8080\nreplicas: 2\n")

	out, err := runCLI(t, "", "--diff", a, b)
	require.NoError(t, err)
	require.Equal(t, "~ port = 80 -> 8080\n- tags.0 = x\n+ replicas = 2\n", out)
}

func TestRunExport(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.json", `{"name": "svc"}`)
	b := writeFile(t, dir, "b.json", `{"name": "other"}`)

	out, err := runCLI(t, "", "--db", filepath.Join(dir, "db"), a, b)
	require.NoError(t, err)
	require.Equal(t, a+"\t1\n"+b+"\t2\n", out)
}

func TestRunErrors(t *testing.T) {
	_, err := runCLI(t, `{"a": {"b": {"c": 1}}}`, "--max-depth", "1")
	require.Error(t, err)

	_, err = runCLI(t, `{"a": `)
	require.Error(t, err)

	_, err = runCLI(t, "", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	_, err = runCLI(t, "", "notes.txt")
	require.ErrorIs(t, err, codec.ErrUnknownFormat)

	_, err = runCLI(t, "", "--unknown-flag")
	require.Error(t, err)
}
