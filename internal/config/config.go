package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ChainOptions holds the RPC endpoint and the retry policy of provider calls.
type ChainOptions struct {
	RPCURL       string
	MaxRetries   int
	RetryBackoff time.Duration
}

// PaginationOptions tunes the adaptive log window.
type PaginationOptions struct {
	InitialWindow      uint64
	TargetYield        uint64
	SafetyFactor       float64
	MinWindow          uint64
	MaxWindow          uint64
	MaxOverflowRetries int
	Pause              time.Duration
	ScanEmpty          bool
}

// ExplorerOptions controls ABI resolution.
type ExplorerOptions struct {
	URL             string
	APIKey          string
	Fallback        bool
	FallbackAddress string
	FallbackDelay   time.Duration
	// ABIFile loads the ABI from disk instead of calling the explorer.
	ABIFile string
}

// load merges config file, environment variables, and flags. Flags win over env, env over the file.
func load(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("LPSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log-level", "info")
	v.SetDefault("max-retries", 3)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}

func paginationDefaults(into map[string]interface{}) map[string]interface{} {
	into["initial-window"] = uint64(100000)
	into["target-yield"] = uint64(10000)
	into["safety-factor"] = 0.9
	into["min-window"] = uint64(1)
	into["max-window"] = uint64(0)
	into["max-overflow-retries"] = 64
	into["pause"] = 5 * time.Second
	into["scan-empty"] = false
	return into
}

func explorerDefaults(into map[string]interface{}) map[string]interface{} {
	into["explorer-url"] = "https://api.etherscan.io/api"
	into["abi-fallback"] = true
	into["abi-fallback-delay"] = "10s"
	return into
}

func explorerOptions(v *viper.Viper) ExplorerOptions {
	return ExplorerOptions{
		URL:             v.GetString("explorer-url"),
		APIKey:          v.GetString("explorer-api-key"),
		Fallback:        v.GetBool("abi-fallback"),
		FallbackAddress: v.GetString("abi-fallback-address"),
		FallbackDelay:   v.GetDuration("abi-fallback-delay"),
		ABIFile:         v.GetString("abi-file"),
	}
}

func chainOptions(v *viper.Viper) ChainOptions {
	return ChainOptions{
		RPCURL:       v.GetString("rpc"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
	}
}

func paginationOptions(v *viper.Viper) PaginationOptions {
	return PaginationOptions{
		InitialWindow:      v.GetUint64("initial-window"),
		TargetYield:        v.GetUint64("target-yield"),
		SafetyFactor:       v.GetFloat64("safety-factor"),
		MinWindow:          v.GetUint64("min-window"),
		MaxWindow:          v.GetUint64("max-window"),
		MaxOverflowRetries: v.GetInt("max-overflow-retries"),
		Pause:              v.GetDuration("pause"),
		ScanEmpty:          v.GetBool("scan-empty"),
	}
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return splitAll(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return splitAll(items)
	default:
		return nil
	}
}

// splitAll also splits comma-joined items, as env values arrive as one string.
func splitAll(items []string) []string {
	var out []string
	for _, item := range items {
		out = append(out, splitAndClean(item)...)
	}
	return out
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
