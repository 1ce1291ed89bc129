package config

import (
	"log"
	"os"
)

type Config struct {
	AppPort string

	PostgresDSN string
	RedisAddr   string

	// 采集与保留期清理的 cron 表达式
	CronSpec      string
	RetentionCron string

	// Guardian Open Platform 的 API key，未配置时该数据源退化为空输出
	GuardianAPIKey string

	// 管理接口共享密钥，未配置时管理接口整体关闭
	AdminToken string
}

func Load() *Config {
	cfg := &Config{
		AppPort:        getEnv("APP_PORT", "9000"),
		PostgresDSN:    getEnv("POSTGRES_DSN", "host=localhost user=newspulse password=newspulse dbname=newspulse port=5432 sslmode=disable TimeZone=UTC"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		CronSpec:       getEnv("CRON_SPEC", "*/30 * * * *"),
		RetentionCron:  getEnv("RETENTION_CRON", "0 3 * * *"),
		GuardianAPIKey: getEnv("GUARDIAN_API_KEY", ""),
		AdminToken:     getEnv("ADMIN_TOKEN", ""),
	}

	log.Printf("config loaded: port=%s cron=%s retention=%s guardian=%v admin=%v",
		cfg.AppPort, cfg.CronSpec, cfg.RetentionCron, cfg.GuardianAPIKey != "", cfg.AdminToken != "")
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
