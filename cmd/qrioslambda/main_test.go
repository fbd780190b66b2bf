package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/qrioso-software/qrioslambda/internal/config"
	"github.com/qrioso-software/qrioslambda/internal/lambda"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSample_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, writeSample(dir, sampleProject("orders", "dev", "us-east-1")))

	p, err := config.LoadProject(filepath.Join(dir, config.DefaultProjectFile))
	require.NoError(t, err)
	require.NoError(t, p.Validate())
	assert.Equal(t, "orders-dev", p.StackName())
	assert.Equal(t, "hello", p.Functions["hello"].Name)

	src, err := config.NewSource(filepath.Join(dir, config.DefaultProjectFile))
	require.NoError(t, err)
	cfg, err := config.LoadResolution(src)
	require.NoError(t, err)
	assert.Equal(t, "orders-dev-artifacts", cfg.Bucket)
	assert.EqualValues(t, config.DefaultInlineMaxSize, cfg.InlineMaxSize)

	_, err = os.Stat(filepath.Join(dir, config.DefaultDirectory, "python3.12", "hello.py"))
	assert.NoError(t, err)

	assert.Error(t, writeSample(dir, sampleProject("orders", "dev", "")), "must not overwrite")
}

func TestDescribe(t *testing.T) {
	rec := lambda.FunctionRecord{Name: "svc", Runtime: "java8", Path: "/l/java8/svc"}

	out := describe(rec, lambda.Remote{Bucket: "b", Key: "k"})
	assert.Equal(t, map[string]any{"bucket": "b", "key": "k"}, out["remote"])

	out = describe(rec, lambda.Inline{Raw: []byte("abc")})
	assert.Equal(t, map[string]any{"size": 3}, out["inline"])
}

func TestIgnoredOutputs(t *testing.T) {
	cfg := config.Defaults()
	cfg.BuildRequired["go"] = config.BuildSpec{BuildCommand: "go build", OutputDirectory: ".", AssetExtension: "zip"}
	assert.Equal(t, []string{"target"}, ignoredOutputs(cfg))
}

func TestBuildTool(t *testing.T) {
	assert.Equal(t, "mvn", buildTool("mvn package -q"))
	assert.Equal(t, "", buildTool("  "))
}

func TestOptionalProject(t *testing.T) {
	dir := t.TempDir()

	a := &app{cfgPath: filepath.Join(dir, "missing.yml"), lg: zerolog.Nop()}
	p, err := a.optionalProject()
	require.NoError(t, err)
	assert.Nil(t, p)

	broken := filepath.Join(dir, "broken.yml")
	require.NoError(t, os.WriteFile(broken, []byte("service: [orders\nregion: eu-west-1\n"), 0o644))
	a.cfgPath = broken
	_, err = a.optionalProject()
	assert.Error(t, err, "a malformed project must not be ignored")

	require.NoError(t, writeSample(dir, sampleProject("orders", "dev", "eu-west-1")))
	a.cfgPath = filepath.Join(dir, "qrioso-lambda.yml")
	p, err = a.optionalProject()
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "eu-west-1", p.Region)
}
