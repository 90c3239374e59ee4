package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qora/testnet-faucet/config"
)

const validConfig = `{
	"default_transfer_amount": 2,
	"transfer_maximum_amount": 100,
	"daily_maximum_amount": 1000,
	"node_list": ["203.0.113.1:7890", "203.0.113.2:7890"],
	"public_key": "abababababababababababababababababababababababababababababababab",
	"mosaic": {"namespace": "qora", "name": "xqc", "divisibility": 6, "supply": 9000000000},
	"message": {"payload": "testnet faucet", "type": 1}
}`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr, "default applies when unset")
	assert.Equal(t, "sqlite", cfg.Store)
	assert.Len(t, cfg.NodeList, 2)

	// Amounts convert XQC to canonical micro-units.
	assert.Equal(t, int64(2_000_000), cfg.DefaultAmount().Micro())
	limits := cfg.Limits()
	assert.Equal(t, int64(100_000_000), limits.MaxPerAddress.Micro())
	assert.Equal(t, int64(1_000_000_000), limits.MaxPerDay.Micro())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FAUCET_LISTEN_ADDR", ":9999")
	t.Setenv("FAUCET_STORE", "redis")
	t.Setenv("FAUCET_REDIS_ADDR", "localhost:6379")
	t.Setenv("FAUCET_KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := config.Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, "redis", cfg.Store)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestLoad_Rejections(t *testing.T) {
	cases := []struct {
		name string
		json string
	}{
		{"empty node list", `{
			"default_transfer_amount": 2, "transfer_maximum_amount": 100,
			"daily_maximum_amount": 1000, "node_list": [], "public_key": "ab"}`},
		{"missing public key", `{
			"default_transfer_amount": 2, "transfer_maximum_amount": 100,
			"daily_maximum_amount": 1000, "node_list": ["n"]}`},
		{"zero ceiling", `{
			"default_transfer_amount": 2, "transfer_maximum_amount": 0,
			"daily_maximum_amount": 1000, "node_list": ["n"], "public_key": "ab"}`},
		{"negative default", `{
			"default_transfer_amount": -1, "transfer_maximum_amount": 100,
			"daily_maximum_amount": 1000, "node_list": ["n"], "public_key": "ab"}`},
		{"unknown store", `{
			"default_transfer_amount": 2, "transfer_maximum_amount": 100,
			"daily_maximum_amount": 1000, "node_list": ["n"], "public_key": "ab",
			"store": "etcd"}`},
		{"postgres without dsn", `{
			"default_transfer_amount": 2, "transfer_maximum_amount": 100,
			"daily_maximum_amount": 1000, "node_list": ["n"], "public_key": "ab",
			"store": "postgres"}`},
		{"sub-micro default amount", `{
			"default_transfer_amount": 0.0000001, "transfer_maximum_amount": 100,
			"daily_maximum_amount": 1000, "node_list": ["n"], "public_key": "ab"}`},
		{"sub-micro ceiling", `{
			"default_transfer_amount": 2, "transfer_maximum_amount": 99.9999995,
			"daily_maximum_amount": 1000, "node_list": ["n"], "public_key": "ab"}`},
		{"not json", `nope`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tc.json))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
