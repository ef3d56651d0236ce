package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/signalopt/utils/config"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	c := config.Default()
	assert.Equal(t, 1, c.Scenario)
	assert.Equal(t, 20, c.GA.Population)
	assert.Equal(t, 50, c.GA.Generations)
	assert.Equal(t, 60.0, c.GA.SimTime)
	assert.Equal(t, uint64(42), c.GA.Seed)
	assert.Equal(t, "best_config.json", c.Output.Path)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
scenario: 3
ga:
  population: 30
  generations: 10
  sim_time: 90
  seed: 7
  mutation_rate: 0.2
output:
  path: out/result.json
  mongo_uri: mongodb://localhost:27017
`)
	c, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Scenario)
	assert.Equal(t, 30, c.GA.Population)
	assert.Equal(t, 10, c.GA.Generations)
	assert.Equal(t, 90.0, c.GA.SimTime)
	assert.Equal(t, uint64(7), c.GA.Seed)
	assert.Equal(t, 0.2, c.GA.MutationRate)
	assert.Equal(t, "out/result.json", c.Output.Path)
	assert.Equal(t, "mongodb://localhost:27017", c.Output.MongoURI)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "scenario: 5\n")
	c, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, c.Scenario)
	// 未给出的字段保持默认值
	assert.Equal(t, 20, c.GA.Population)
	assert.Equal(t, "best_config.json", c.Output.Path)
}

func TestLoadUnknownFieldFails(t *testing.T) {
	path := writeConfig(t, "scenari0: 1\n")
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
