// SPDX-FileCopyrightText: © 2025 CleverMaps
//
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"bytes"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/clevermaps/cm-go-clients/sdk/config"
	"github.com/spf13/viper"
	"gopkg.in/ini.v1"
)

// Settings holds all logical keys. Tags:
// - vkey: Viper key
// - env: env name. If empty, derived from vkey
// - persist: "true" to write the key into the INI
// - default: optional default to set if key is unset
// - secret: "true" if sensitive
type Settings struct {
	Host         string `vkey:"cm_host"          env:"CM_HOST"          persist:"true" default:"https://secure.clevermaps.io/rest"`
	APIToken     string `vkey:"cm_api_token"     env:"CM_API_TOKEN"     persist:"true" secret:"true"`
	AccessToken  string `vkey:"cm_access_token"  env:"CM_ACCESS_TOKEN"  persist:"false" secret:"true"`
	ChunkSize    string `vkey:"cm_chunk_size"    env:"CM_CHUNK_SIZE"    persist:"true" default:"52428800"`
	PartSize     string `vkey:"cm_part_size"     env:"CM_PART_SIZE"     persist:"true" default:"20971520"`
	PollInterval string `vkey:"cm_poll_interval" env:"CM_POLL_INTERVAL" persist:"true" default:"5s"`
	PollTimeout  string `vkey:"cm_poll_timeout"  env:"CM_POLL_TIMEOUT"  persist:"true"`
	LogLevel     string `vkey:"cm_log_level"     env:"CM_LOG_LEVEL"     persist:"true" default:"info"`

	AwsAccessKeyID     string `vkey:"aws_access_key_id"     env:"AWS_ACCESS_KEY_ID"     persist:"true" secret:"true"`
	AwsSecretAccessKey string `vkey:"aws_secret_access_key" env:"AWS_SECRET_ACCESS_KEY" persist:"true" secret:"true"`
	AwsSessionToken    string `vkey:"aws_session_token"     env:"AWS_SESSION_TOKEN"     persist:"false" secret:"true"`
	AwsRegion          string `vkey:"aws_region"            env:"AWS_REGION"            persist:"true"`
	AwsEndpointURL     string `vkey:"aws_endpoint_url"      env:"AWS_ENDPOINT_URL"      persist:"true"`
}

func GetIniPath() string {
	if p := os.Getenv(IniPathEnv); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return home + string(os.PathSeparator) + IniName
}

// resolveEnvName: --env > "default"
func resolveEnvName(optionalEnv ...string) string {
	if len(optionalEnv) > 0 && optionalEnv[0] != "" && strings.ToLower(optionalEnv[0]) != "null" {
		return optionalEnv[0]
	}
	return "default"
}

func forEachSetting(fn func(f reflect.StructField, key string)) {
	rt := reflect.TypeOf(Settings{})
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if key := f.Tag.Get("vkey"); key != "" {
			fn(f, key)
		}
	}
}

// BindEnvFromStruct binds every Settings field to its env variable and
// registers defaults.
func BindEnvFromStruct() {
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	forEachSetting(func(f reflect.StructField, key string) {
		env := f.Tag.Get("env")
		if env == "" {
			env = strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		}
		_ = viper.BindEnv(key, env)

		if def := f.Tag.Get("default"); def != "" {
			viper.SetDefault(key, def)
		}
	})
}

// WriteIniFromStruct stores the persistable viper values into section envName,
// creating the file when missing and keeping other sections untouched.
func WriteIniFromStruct(iniPath, envName string) error {
	cfg, err := ini.Load(iniPath)
	if err != nil {
		cfg = ini.Empty()
	}
	sec := cfg.Section(envName)

	forEachSetting(func(f reflect.StructField, key string) {
		if f.Tag.Get("persist") != "true" {
			return
		}
		if val := viper.GetString(key); val != "" {
			sec.Key(key).SetValue(val)
		}
	})

	cfg.Section(ini.DefaultSection).Key(CurrentEnvironment).SetValue(envName)
	sec.Key(UpdatedEnvKey).SetValue(time.Now().UTC().Format(time.RFC3339))
	return cfg.SaveTo(iniPath)
}

// Load [DEFAULT] + [env] into Viper (TOML in-memory). ENV can still override on Get().
func loadIniSectionIntoViper(cfg *ini.File, env string) error {
	def := cfg.Section(ini.DefaultSection)
	merged := make(map[string]string)
	for _, k := range def.Keys() {
		merged[k.Name()] = k.Value()
	}
	if env != "" && cfg.HasSection(env) {
		for _, k := range cfg.Section(env).Keys() {
			merged[k.Name()] = k.Value()
		}
	}

	var buf bytes.Buffer
	for k, v := range merged {
		vSafe := strings.ReplaceAll(strings.ReplaceAll(v, `\`, `\\`), `"`, `\"`)
		_, _ = fmt.Fprintf(&buf, "%s = \"%s\"\n", k, vSafe)
	}
	viper.SetConfigType("toml")
	return viper.ReadConfig(&buf)
}

// RegisterIniCfgWithViper:
// 1) bind ENV from struct
// 2) load the INI if present (ENV-only mode otherwise)
// 3) load the active section into Viper and set current_environment
func RegisterIniCfgWithViper(optionalEnv ...string) error {
	BindEnvFromStruct()

	cfg, err := ini.Load(GetIniPath())
	if err != nil {
		viper.Set(CurrentEnvironment, resolveEnvName(optionalEnv...))
		return nil
	}

	// active env: --env > DEFAULT.current_environment > default
	env := resolveEnvName(optionalEnv...)
	if env == "default" {
		if v := cfg.Section(ini.DefaultSection).Key(CurrentEnvironment).String(); v != "" {
			env = v
		}
	}

	if err := loadIniSectionIntoViper(cfg, env); err != nil {
		return fmt.Errorf("failed to load INI into viper: %w", err)
	}
	viper.Set(CurrentEnvironment, env)
	return nil
}

// BuildConfig converts the viper state into the SDK configuration.
func BuildConfig() config.Config {
	return config.Config{
		Core: config.CoreConfig{
			BaseURL:     viper.GetString(CmHost),
			APIToken:    viper.GetString(CmAPIToken),
			AccessToken: viper.GetString(CmAccessToken),
		},
		S3: config.S3Config{
			AccessKey:   viper.GetString(AwsAccessKeyID),
			SecretKey:   viper.GetString(AwsSecretAccessKey),
			AccessToken: viper.GetString(AwsSessionToken),
			Region:      viper.GetString(AwsRegion),
			EndpointURL: viper.GetString(AwsEndpointURL),
		},
	}
}
