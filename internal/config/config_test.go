package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/qrioso-software/qrioslambda/internal/lambda"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sourceWith(values map[string]any) Source {
	v := viper.New()
	for k, val := range values {
		v.Set(k, val)
	}
	return NewSourceFrom(v)
}

func TestLoadResolution_Defaults(t *testing.T) {
	res, err := LoadResolution(sourceWith(nil))
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(wd, "lambda")}, res.Directories)
	assert.Equal(t, int64(4096), res.InlineMaxSize)
	assert.Equal(t, "sfn.lambda", res.Prefix)
	assert.Empty(t, res.Bucket)
	assert.Zero(t, res.BuildTimeout)

	spec, ok := res.BuildSpecFor("java8")
	require.True(t, ok)
	assert.Equal(t, "mvn package", spec.BuildCommand)
	assert.Equal(t, "./target", spec.OutputDirectory)
	assert.Equal(t, "jar", spec.AssetExtension)
	assert.True(t, res.InlineRestrictedFor("java8"))
	assert.False(t, res.InlineRestrictedFor("python"))
}

func TestLoadResolution_Overrides(t *testing.T) {
	dir := t.TempDir()
	res, err := LoadResolution(sourceWith(map[string]any{
		"lambda.directory":                []any{dir, dir, filepath.Join(dir, ".")},
		"lambda.upload.bucket":            "artifacts",
		"lambda.upload.prefix":            "/custom/",
		"lambda.config.inline_max_size":   "10",
		"lambda.config.inline_restricted": []string{"ruby"},
		"lambda.config.build_timeout":     "2m",
		"lambda.config.build_required": map[string]any{
			"go1.x": map[string]any{
				"build_command":    "make",
				"output_directory": "dist",
				"asset_extension":  ".zip",
			},
		},
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{dir}, res.Directories)
	assert.Equal(t, "artifacts", res.Bucket)
	assert.Equal(t, "custom", res.Prefix)
	assert.Equal(t, int64(10), res.InlineMaxSize)
	assert.Equal(t, 2*time.Minute, res.BuildTimeout)

	spec, ok := res.BuildSpecFor("go1.x")
	require.True(t, ok)
	assert.Equal(t, "go1.x", spec.Runtime)
	assert.Equal(t, "make", spec.BuildCommand)
	assert.Equal(t, "dist", spec.OutputDirectory)

	_, ok = res.BuildSpecFor("java8")
	assert.False(t, ok, "build_required replaces the defaults")

	assert.True(t, res.InlineRestrictedFor("ruby"))
	assert.True(t, res.InlineRestrictedFor("go1.x"))
}

func TestLoadResolution_SingleDirectoryWithSpaces(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "my lambdas")
	res, err := LoadResolution(sourceWith(map[string]any{"lambda.directory": dir}))
	require.NoError(t, err)
	assert.Equal(t, []string{dir}, res.Directories)
}

func TestLoadResolution_NestingBucketFallback(t *testing.T) {
	res, err := LoadResolution(sourceWith(map[string]any{"nesting_bucket": "nested"}))
	require.NoError(t, err)
	assert.Equal(t, "nested", res.Bucket)

	res, err = LoadResolution(sourceWith(map[string]any{
		"nesting_bucket":       "nested",
		"lambda.upload.bucket": "explicit",
	}))
	require.NoError(t, err)
	assert.Equal(t, "explicit", res.Bucket)
}

func TestLoadResolution_Invalid(t *testing.T) {
	cases := map[string]map[string]any{
		"negative size": {"lambda.config.inline_max_size": -1},
		"bad size":      {"lambda.config.inline_max_size": "big"},
		"bad timeout":   {"lambda.config.build_timeout": "soon"},
		"no command": {"lambda.config.build_required": map[string]any{
			"java8": map[string]any{"asset_extension": "jar"},
		}},
		"no extension": {"lambda.config.build_required": map[string]any{
			"java8": map[string]any{"build_command": "mvn package"},
		}},
	}
	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadResolution(sourceWith(values))
			assert.ErrorIs(t, err, lambda.ErrConfiguration)
		})
	}
}

func TestNewSource_ReadsFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qrioso-lambda.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
lambda:
  directory: functions
  upload:
    bucket: from-file
  config:
    inline_max_size: 100
`), 0o644))

	t.Setenv("QRIOSLAMBDA_LAMBDA_UPLOAD_BUCKET", "from-env")

	src, err := NewSource(path)
	require.NoError(t, err)

	res, err := LoadResolution(src)
	require.NoError(t, err)
	assert.Equal(t, "from-env", res.Bucket)
	assert.Equal(t, int64(100), res.InlineMaxSize)
	assert.Equal(t, "functions", filepath.Base(res.Directories[0]))
}

func TestLoadResolution_FileRuntimeNamesIgnoreCase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qrioso-lambda.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
lambda:
  config:
    inline_restricted: [Ruby3.2]
    build_required:
      go1.x:
        build_command: make
        asset_extension: zip
      JavaGradle:
        build_command: gradle build
        output_directory: build/libs
        asset_extension: jar
`), 0o644))

	src, err := NewSource(path)
	require.NoError(t, err)
	res, err := LoadResolution(src)
	require.NoError(t, err)

	spec, ok := res.BuildSpecFor("JavaGradle")
	require.True(t, ok, "runtime directory names must match build_required keys")
	assert.Equal(t, "gradle build", spec.BuildCommand)
	assert.Equal(t, "build/libs", spec.OutputDirectory)
	assert.True(t, res.InlineRestrictedFor("JavaGradle"))

	_, ok = res.BuildSpecFor("go1.x")
	assert.True(t, ok)

	assert.True(t, res.InlineRestrictedFor("ruby3.2"))
	assert.True(t, res.InlineRestrictedFor("Ruby3.2"))
	assert.False(t, res.InlineRestrictedFor("python3.12"))
}

func TestNewSource_MissingFile(t *testing.T) {
	_, err := NewSource(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestLoadProject(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultProjectFile)
	require.NoError(t, os.WriteFile(path, []byte(`
service: orders
stage: dev
functions:
  hello:
    role: arn:aws:iam::123456789012:role/lambda
  worker:
    name: svc
    runtime: java8
    handler: com.example.Handler
    role: arn:aws:iam::123456789012:role/lambda
    memorySize: 512
lambda:
  directory: lambda
`), 0o644))

	p, err := LoadProject(path)
	require.NoError(t, err)
	require.NoError(t, p.Validate())

	assert.Equal(t, dir, p.RootPath)
	assert.Equal(t, "orders-dev", p.StackName())
	assert.Equal(t, "hello", p.Functions["hello"].Name)
	assert.Equal(t, "svc", p.Functions["worker"].Name)
	assert.Equal(t, 512, p.Functions["worker"].MemorySize)
}

func TestProjectValidate(t *testing.T) {
	valid := func() *Project {
		return &Project{
			Service: "orders",
			Stage:   "dev",
			Functions: map[string]FunctionDecl{
				"hello": {Name: "hello", Role: "arn:role"},
			},
		}
	}

	require.NoError(t, valid().Validate())

	p := valid()
	p.Service = "bad name"
	assert.Error(t, p.Validate())

	p = valid()
	p.Stage = ""
	assert.Error(t, p.Validate())

	p = valid()
	p.Functions["hello"] = FunctionDecl{Name: "hello"}
	assert.ErrorContains(t, p.Validate(), "role")

	p = valid()
	p.Functions["hello"] = FunctionDecl{Name: "hello", Role: "r", Timeout: 901}
	assert.ErrorContains(t, p.Validate(), "timeout")
}
