package config

import (
	"os"
	"testing"
)

func TestGetEnvWithDefault(t *testing.T) {
	const key = "TEST_APP_PORT"

	// 环境变量未设置时，应该返回默认值
	_ = os.Unsetenv(key)
	if got := getEnv(key, "9000"); got != "9000" {
		t.Fatalf("getEnv(%q) = %q, want %q", key, got, "9000")
	}

	// 环境变量设置后，应优先返回环境变量
	if err := os.Setenv(key, "8080"); err != nil {
		t.Fatalf("Setenv error: %v", err)
	}
	defer os.Unsetenv(key)
	if got := getEnv(key, "9000"); got != "8080" {
		t.Fatalf("getEnv(%q) = %q, want %q", key, got, "8080")
	}
}

func TestLoadReadsOptionalKeys(t *testing.T) {
	_ = os.Setenv("APP_PORT", "1234")
	_ = os.Setenv("GUARDIAN_API_KEY", "gkey")
	_ = os.Setenv("ADMIN_TOKEN", "secret")
	defer func() {
		_ = os.Unsetenv("APP_PORT")
		_ = os.Unsetenv("GUARDIAN_API_KEY")
		_ = os.Unsetenv("ADMIN_TOKEN")
	}()

	cfg := Load()
	if cfg.AppPort != "1234" {
		t.Fatalf("AppPort = %q, want %q", cfg.AppPort, "1234")
	}
	if cfg.GuardianAPIKey != "gkey" || cfg.AdminToken != "secret" {
		t.Fatalf("optional keys not loaded correctly: %+v", cfg)
	}
}

func TestLoadDefaults(t *testing.T) {
	_ = os.Unsetenv("CRON_SPEC")
	_ = os.Unsetenv("RETENTION_CRON")

	cfg := Load()
	if cfg.CronSpec != "*/30 * * * *" {
		t.Fatalf("CronSpec default = %q", cfg.CronSpec)
	}
	if cfg.RetentionCron != "0 3 * * *" {
		t.Fatalf("RetentionCron default = %q", cfg.RetentionCron)
	}
	// 可选项缺省为空：Guardian 源退化为空输出，管理接口关闭，但都不影响启动
	if os.Getenv("GUARDIAN_API_KEY") == "" && cfg.GuardianAPIKey != "" {
		t.Fatalf("GuardianAPIKey should default to empty, got %q", cfg.GuardianAPIKey)
	}
}
