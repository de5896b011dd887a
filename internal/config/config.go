/**
 * @description
 * This package handles the configuration management for the settlement
 * service. It uses the Viper library to read configuration from environment
 * variables (with an optional .env file), providing a centralized and
 * straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the settlement service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort           string `mapstructure:"SERVER_PORT"`
	DatabaseURL          string `mapstructure:"DATABASE_URL"`
	RedisURL             string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	RabbitMQURL          string `mapstructure:"RABBITMQ_URL"`
	InternalAPIKey       string `mapstructure:"INTERNAL_API_KEY"`

	OracleAPIBaseURL string `mapstructure:"ORACLE_API_BASE_URL"`
	OracleAPIKey     string `mapstructure:"ORACLE_API_KEY"`

	// Identity of this chain's deployment. Outbound bridge messages carry
	// the local selector; the inbound queue binds to it.
	ChainName     string `mapstructure:"CHAIN_NAME"`
	ChainSelector uint64 `mapstructure:"CHAIN_SELECTOR"`

	// Account holding lending collateral in custody.
	CustodyAccountID string `mapstructure:"CUSTODY_ACCOUNT_ID"`

	// Comma-separated account id lists for privileged roles.
	VerifierAccountIDs     string `mapstructure:"VERIFIER_ACCOUNT_IDS"`
	ConfiguratorAccountIDs string `mapstructure:"CONFIGURATOR_ACCOUNT_IDS"`

	LTVCeilingBps              int64  `mapstructure:"LTV_CEILING_BPS"`
	PriceStalenessSeconds      int64  `mapstructure:"PRICE_STALENESS_SECONDS"`
	ReserveStalenessSeconds    int64  `mapstructure:"RESERVE_STALENESS_SECONDS"`
	MinReserveConfidence       int    `mapstructure:"MIN_RESERVE_CONFIDENCE_PERCENT"`
	DistributionPeriodDays     int    `mapstructure:"DISTRIBUTION_PERIOD_DAYS"`
	UpkeepSchedule             string `mapstructure:"UPKEEP_SCHEDULE"`
	BridgeDeliveryQueue        string `mapstructure:"BRIDGE_DELIVERY_QUEUE"`
	BridgeInboundQueue         string `mapstructure:"BRIDGE_INBOUND_QUEUE"`
	TransferRateLimitPerMinute int    `mapstructure:"TRANSFER_RATE_LIMIT_PER_MINUTE"`
}

// LoadConfig reads configuration from environment variables from the given
// path. It uses Viper to automatically bind environment variables to the
// Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "securitifi:rate_limit")
	viper.SetDefault("CHAIN_NAME", "local")
	viper.SetDefault("CHAIN_SELECTOR", 1)
	viper.SetDefault("LTV_CEILING_BPS", 7500)
	viper.SetDefault("PRICE_STALENESS_SECONDS", 900)
	viper.SetDefault("RESERVE_STALENESS_SECONDS", 3600)
	viper.SetDefault("MIN_RESERVE_CONFIDENCE_PERCENT", 80)
	viper.SetDefault("DISTRIBUTION_PERIOD_DAYS", 30)
	viper.SetDefault("UPKEEP_SCHEDULE", "0 * * * *")
	viper.SetDefault("BRIDGE_DELIVERY_QUEUE", "settlement_service.bridge_delivery")
	viper.SetDefault("BRIDGE_INBOUND_QUEUE", "settlement_service.bridge_inbound")
	viper.SetDefault("TRANSFER_RATE_LIMIT_PER_MINUTE", 60)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("INTERNAL_API_KEY", "INTERNAL_API_KEY", "SETTLEMENT_SERVICE_INTERNAL_API_KEY")
	_ = viper.BindEnv("ORACLE_API_BASE_URL")
	_ = viper.BindEnv("ORACLE_API_KEY")
	_ = viper.BindEnv("CHAIN_NAME")
	_ = viper.BindEnv("CHAIN_SELECTOR")
	_ = viper.BindEnv("CUSTODY_ACCOUNT_ID")
	_ = viper.BindEnv("VERIFIER_ACCOUNT_IDS")
	_ = viper.BindEnv("CONFIGURATOR_ACCOUNT_IDS")
	_ = viper.BindEnv("LTV_CEILING_BPS")
	_ = viper.BindEnv("PRICE_STALENESS_SECONDS")
	_ = viper.BindEnv("RESERVE_STALENESS_SECONDS")
	_ = viper.BindEnv("MIN_RESERVE_CONFIDENCE_PERCENT")
	_ = viper.BindEnv("DISTRIBUTION_PERIOD_DAYS")
	_ = viper.BindEnv("UPKEEP_SCHEDULE")
	_ = viper.BindEnv("BRIDGE_DELIVERY_QUEUE")
	_ = viper.BindEnv("BRIDGE_INBOUND_QUEUE")
	_ = viper.BindEnv("TRANSFER_RATE_LIMIT_PER_MINUTE")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	config.InternalAPIKey = strings.TrimSpace(config.InternalAPIKey)
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "securitifi:rate_limit"
	}

	if config.LTVCeilingBps <= 0 || config.LTVCeilingBps > 10000 {
		log.Printf("level=warn component=config msg=\"ltv ceiling out of range; using default\" ltv_bps=%d", config.LTVCeilingBps)
		config.LTVCeilingBps = 7500
	}
	if config.PriceStalenessSeconds <= 0 {
		config.PriceStalenessSeconds = 900
	}
	if config.ReserveStalenessSeconds <= 0 {
		config.ReserveStalenessSeconds = 3600
	}
	if config.MinReserveConfidence <= 0 || config.MinReserveConfidence > 100 {
		config.MinReserveConfidence = 80
	}
	if config.DistributionPeriodDays <= 0 {
		config.DistributionPeriodDays = 30
	}
	if config.TransferRateLimitPerMinute < 0 {
		config.TransferRateLimitPerMinute = 0
	}

	return
}

// SplitAccountIDs parses a comma-separated id list from the environment into
// trimmed, non-empty entries.
func SplitAccountIDs(raw string) []string {
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}
