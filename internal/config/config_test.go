package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644), "无法写入临时配置文件")
	return path
}

// TestLoadConfigWithCorrectMapSyntax 验证当 YAML 语法正确时，配置能否被成功加载
func TestLoadConfigWithCorrectMapSyntax(t *testing.T) {
	path := writeConfig(t, `
rabbitmq:
  url: "amqp://guest:guest@mq:5672/"
  prefetch_count: 20
  consumer_workers:
    bg_consumer_workers: 8
parser:
  legacy_counts: true
`)

	config, err := LoadConfig(path)
	require.NoError(t, err, "加载具有正确语法的配置不应返回错误")
	require.NotNil(t, config)

	assert.Equal(t, map[string]int{"bg_consumer_workers": 8}, config.RabbitMQ.ConsumerWorkers)
	assert.Equal(t, 8, config.RabbitMQ.Workers("bg_consumer_workers", 1))
	assert.Equal(t, 20, config.RabbitMQ.PrefetchCount)
	assert.True(t, config.Parser.LegacyCounts)

	// 文件中没有的字段保留默认值
	assert.Equal(t, "q.bg_xml_ready", config.RabbitMQ.BGXMLReadyQueue)
	assert.Equal(t, ":8080", config.Server.Address)
	assert.True(t, config.Parser.LenientFallback)
	require.NoError(t, config.Validate())
}

// TestLoadConfigWithIncorrectMapSyntax 验证当 YAML 缩进错误时，map 字段无法被正确解析
func TestLoadConfigWithIncorrectMapSyntax(t *testing.T) {
	path := writeConfig(t, `
rabbitmq:
  prefetch_count: 10
  consumer_workers: # map类型
  bg_consumer_workers: 5
`)

	config, err := LoadConfig(path)
	// go-yaml/v3 在解析这种格式时不会报错，但会将 consumer_workers 解析为空 map
	require.NoError(t, err, "加载语法错误的配置也不应立即报错")
	assert.Empty(t, config.RabbitMQ.ConsumerWorkers, "由于缩进错误，ConsumerWorkers map 应该是空的")
	assert.Equal(t, 3, config.RabbitMQ.Workers("bg_consumer_workers", 3), "未配置时使用默认并发数")
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [unclosed")
	_, err := LoadConfig(path)
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("REDIS_ADDRESS", "redis:6380")
	t.Setenv("TIKA_SERVER_URL", "http://tika:9998")
	t.Setenv("API_KEYS", "key-a, key-b,,")

	config, err := LoadConfig(writeConfig(t, "redis:\n  address: localhost:6379\n"))
	require.NoError(t, err)
	assert.Equal(t, "redis:6380", config.Redis.Address)
	assert.Equal(t, "http://tika:9998", config.Tika.ServerURL)
	assert.Equal(t, []string{"key-a", "key-b"}, config.Server.APIKeys)
}

func TestSampleConfigIsValid(t *testing.T) {
	config, err := LoadConfig("config.yaml")
	require.NoError(t, err)
	require.NoError(t, config.Validate())
	assert.Equal(t, "bg-xml", config.MinIO.BGXMLBucket)
	assert.Equal(t, 168, config.Redis.ParseCacheTTLHours)
}

func TestValidate(t *testing.T) {
	config := createDefaultConfig()
	require.NoError(t, config.Validate())

	config.Tika.Type = "abbyy"
	assert.Error(t, config.Validate())

	config = createDefaultConfig()
	config.Tika.ServerURL = ""
	assert.Error(t, config.Validate(), "tika 模式必须配置地址")
	config.Tika.Type = "none"
	assert.NoError(t, config.Validate())

	config = createDefaultConfig()
	config.Tracing.Enabled = true
	config.Tracing.Endpoint = ""
	assert.Error(t, config.Validate())

	config = createDefaultConfig()
	config.Logger.Level = "verbose"
	assert.Error(t, config.Validate())
}

func TestCreateSampleConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.yaml")
	require.NoError(t, CreateSampleConfig(path))
	assert.Error(t, CreateSampleConfig(path), "不应覆盖已有文件")

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.NoError(t, config.Validate())
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 5*time.Second, GetDuration("5s", 0))
	assert.Equal(t, time.Minute, GetDuration("bogus", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("", time.Minute))
}
