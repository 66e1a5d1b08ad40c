// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
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

	"github.com/scc-digitalhub/onedrive-transfer-sdk/sdk/config"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/ini.v1"
)

// EnvDumpPrefix: optional prefix for env lookup (ODTRANSFER_FOO is mirrored to FOO)
const EnvDumpPrefix = "ODTRANSFER"

// Settings holds all logical keys. Tags:
// - vkey: Viper key
// - env: canonical env name (UPPER_SNAKE). If empty, derived from vkey
// - persist: "true" to write the key into the INI
// - default: optional default to set if key is unset
// - secret: "true" if sensitive (masked by DumpSettings)
// - bind: "false" to NOT bind from env (we still can set defaults)
type Settings struct {
	GraphBaseURL       string `vkey:"graph_base_url"        env:"GRAPH_BASE_URL"        persist:"true"  default:"https://graph.microsoft.com/v1.0"`
	GraphDrivePath     string `vkey:"graph_drive_path"      env:"GRAPH_DRIVE_PATH"      persist:"true"  default:"/me/drive"`
	GraphAccessToken   string `vkey:"graph_access_token"    env:"GRAPH_ACCESS_TOKEN"    persist:"false" secret:"true"`
	GraphMaxRetries    string `vkey:"graph_max_retries"     env:"GRAPH_MAX_RETRIES"     persist:"true"  default:"2"`
	GraphTimeout       string `vkey:"graph_timeout"         env:"GRAPH_TIMEOUT"         persist:"true"  default:"5m"`
	TransferChunkSize  string `vkey:"transfer_chunk_size"   env:"TRANSFER_CHUNK_SIZE"   persist:"true"  default:"10485760"`
	TransferWorkers    string `vkey:"transfer_workers"      env:"TRANSFER_WORKERS"      persist:"true"  default:"4"`
	AwsAccessKeyID     string `vkey:"aws_access_key_id"     env:"AWS_ACCESS_KEY_ID"     persist:"true"  secret:"true"`
	AwsSecretAccessKey string `vkey:"aws_secret_access_key" env:"AWS_SECRET_ACCESS_KEY" persist:"true"  secret:"true"`
	AwsSessionToken    string `vkey:"aws_session_token"     env:"AWS_SESSION_TOKEN"     persist:"true"  secret:"true"`
	AwsRegion          string `vkey:"aws_region"            env:"AWS_REGION"            persist:"true"`
	AwsEndpointURL     string `vkey:"aws_endpoint_url"      env:"AWS_ENDPOINT_URL"      persist:"true"`
	S3Bucket           string `vkey:"s3_bucket"             env:"S3_BUCKET"             persist:"true"`
	S3ManifestKey      string `vkey:"s3_manifest_key"       env:"S3_MANIFEST_KEY"       persist:"true"`
	IniSource          string `vkey:"ini_source"            env:"INI_SOURCE"            persist:"true"`
	UpdatedEnvironment string `vkey:"updated_environment"   env:"UPDATED_ENVIRONMENT"   persist:"true"  bind:"false"`
	CurrentEnvironment string `vkey:"current_environment"   env:"CURRENT_ENVIRONMENT"   persist:"false"`
}

func getIniPath() string {
	iniPath, err := os.UserHomeDir()
	if err != nil {
		iniPath = "."
	}
	return iniPath + string(os.PathSeparator) + IniName
}

// resolveEnvName: --env > "default"
func resolveEnvName(optionalEnv ...string) string {
	if len(optionalEnv) > 0 && optionalEnv[0] != "" && strings.ToLower(optionalEnv[0]) != "null" {
		return optionalEnv[0]
	}
	return "default"
}

// mirror PREFIX_FOO -> FOO (optional)
func mirrorPrefix(prefix string) {
	if prefix == "" {
		return
	}
	upPrefix := strings.ToUpper(prefix) + "_"
	for _, e := range os.Environ() {
		kv := strings.SplitN(e, "=", 2)
		if len(kv) != 2 {
			continue
		}
		name, val := kv[0], kv[1]
		if strings.HasPrefix(name, upPrefix) {
			unpref := strings.TrimPrefix(name, upPrefix)
			if os.Getenv(unpref) == "" {
				_ = os.Setenv(unpref, val)
			}
		}
	}
}

func settingsFields(fn func(f reflect.StructField, key string)) {
	rt := reflect.TypeOf(Settings{})
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if key := f.Tag.Get("vkey"); key != "" {
			fn(f, key)
		}
	}
}

func envNameFor(f reflect.StructField, key string) string {
	if env := f.Tag.Get("env"); env != "" {
		return env
	}
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// BindEnvFromStruct binds env for all fields of Settings using struct tags.
func BindEnvFromStruct(prefix string) {
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	mirrorPrefix(prefix)

	settingsFields(func(f reflect.StructField, key string) {
		if f.Tag.Get("bind") != "false" {
			_ = viper.BindEnv(key, envNameFor(f, key))
		}
		if def := f.Tag.Get("default"); def != "" && !viper.IsSet(key) {
			viper.SetDefault(key, def)
		}
	})
}

func persistInto(sec *ini.Section) {
	settingsFields(func(f reflect.StructField, key string) {
		if f.Tag.Get("persist") != "true" {
			return
		}
		if val := viper.GetString(key); val != "" {
			sec.Key(key).SetValue(val)
		}
	})
}

// WriteIniFromStruct writes a new INI with only fields marked persist:"true".
func WriteIniFromStruct(iniPath, envName string) error {
	cfg := ini.Empty()
	cfg.Section("DEFAULT").Key(CurrentEnvironment).SetValue(envName)
	persistInto(cfg.Section(envName))
	return cfg.SaveTo(iniPath)
}

// UpdateIniFromStruct updates or creates the INI section from current Viper values.
func UpdateIniFromStruct(iniPath, envName string) error {
	cfg, err := ini.Load(iniPath)
	if err != nil {
		return WriteIniFromStruct(iniPath, envName)
	}
	sec := cfg.Section(envName)
	persistInto(sec)

	if !cfg.Section("DEFAULT").HasKey(CurrentEnvironment) {
		cfg.Section("DEFAULT").Key(CurrentEnvironment).SetValue(envName)
	}
	sec.Key(UpdatedEnvKey).SetValue(time.Now().UTC().Format(time.RFC3339))
	return cfg.SaveTo(iniPath)
}

// SaveCurrentEnvironment persists the active viper values into the INI profile.
func SaveCurrentEnvironment() error {
	return UpdateIniFromStruct(getIniPath(), resolveEnvName(viper.GetString(CurrentEnvironment)))
}

// Load [DEFAULT] + [env] into Viper (TOML in-memory). ENV can still override on Get().
func loadIniSectionIntoViper(cfg *ini.File, env string, log *zap.Logger) error {
	def := cfg.Section("DEFAULT")
	selected := def
	if env != "" && cfg.HasSection(env) {
		selected = cfg.Section(env)
		log.Debug("using environment", zap.String("env", env))
	} else if env == "" || strings.EqualFold(env, "DEFAULT") {
		log.Debug("using environment", zap.String("env", "DEFAULT"))
	} else {
		log.Warn("environment not found, falling back to [DEFAULT]", zap.String("env", env))
	}

	merged := make(map[string]string)
	for _, k := range def.Keys() {
		merged[k.Name()] = k.Value()
	}
	if selected != def {
		for _, k := range selected.Keys() {
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
// 1) bind ENV from struct (live)
// 2) load INI or lazy-bootstrap it from env (writes only target env)
// 3) load active section into Viper and set current_environment
func RegisterIniCfgWithViper(log *zap.Logger, optionalEnv ...string) error {
	if log == nil {
		log = zap.NewNop()
	}
	iniPath := getIniPath()

	BindEnvFromStruct(EnvDumpPrefix)

	cfg, err := ini.Load(iniPath)
	if err != nil {
		log.Debug("ini not found, reading environment variables", zap.String("path", iniPath))
		envName, bootErr := bootstrapFromEnv(iniPath, optionalEnv...)
		if bootErr != nil {
			log.Debug("bootstrap skipped", zap.Error(bootErr))
			if envName == "" {
				envName = resolveEnvName(optionalEnv...)
			}
			viper.Set(CurrentEnvironment, envName)
			return nil
		}
		cfg, err = ini.Load(iniPath)
		if err != nil {
			log.Warn("ini written but cannot reload, using env only", zap.Error(err))
			return nil
		}
	}

	// active env: --env > DEFAULT.current_environment > default
	env := resolveEnvName(optionalEnv...)
	if env == "default" {
		if v := cfg.Section("DEFAULT").Key(CurrentEnvironment).String(); v != "" {
			env = v
		}
	}

	if err := loadIniSectionIntoViper(cfg, env, log); err != nil {
		return fmt.Errorf("failed to load INI into viper: %w", err)
	}
	viper.Set(CurrentEnvironment, env)
	return nil
}

// Bootstrap (when INI is missing): read all variables from OS envs using Settings.
// - honors `bind:"false"` (skip ENV read for that key)
// - applies `default:"..."` only if key is unset
func bootstrapFromEnv(iniPath string, optionalEnv ...string) (string, error) {
	settingsFields(func(f reflect.StructField, key string) {
		if !strings.EqualFold(f.Tag.Get("bind"), "false") {
			if val, ok := os.LookupEnv(envNameFor(f, key)); ok && val != "" {
				viper.Set(key, val)
				return
			}
		}
		if def := f.Tag.Get("default"); def != "" && !viper.IsSet(key) {
			viper.SetDefault(key, def)
		}
	})

	if viper.GetString(GraphAccessToken) == "" {
		return "", fmt.Errorf("missing %s: set GRAPH_ACCESS_TOKEN", GraphAccessToken)
	}

	envName := resolveEnvName(optionalEnv...)
	viper.Set(CurrentEnvironment, envName)

	// marks the profile as env-generated
	viper.Set(IniSource, "env")

	if err := WriteIniFromStruct(iniPath, envName); err != nil {
		return "", fmt.Errorf("write ini failed: %w", err)
	}
	if _, err := ini.Load(iniPath); err != nil {
		return "", fmt.Errorf("ini written but cannot reload: %w", err)
	}
	return envName, nil
}

// SettingsDump returns every known key with its current value, secrets masked.
func SettingsDump() [][2]string {
	var out [][2]string
	settingsFields(func(f reflect.StructField, key string) {
		val := viper.GetString(key)
		if val != "" && f.Tag.Get("secret") == "true" {
			val = "****"
		}
		out = append(out, [2]string{key, val})
	})
	return out
}

// DumpSettings logs SettingsDump at debug level.
func DumpSettings(log *zap.Logger) {
	for _, kv := range SettingsDump() {
		log.Debug("setting", zap.String("key", kv[0]), zap.String("value", kv[1]))
	}
}

// LoadConfig builds the SDK configuration from the current Viper state.
func LoadConfig() config.Config {
	return config.Config{
		Graph: config.GraphConfig{
			BaseURL:     viper.GetString(GraphBaseURL),
			DrivePath:   viper.GetString(GraphDrivePath),
			AccessToken: viper.GetString(GraphAccessToken),
			MaxRetries:  viper.GetInt(GraphMaxRetries),
			Timeout:     viper.GetDuration(GraphTimeout),
		},
		Transfer: config.TransferConfig{
			ChunkSize: viper.GetInt64(TransferChunkSize),
			Workers:   viper.GetInt(TransferWorkers),
		},
		S3: config.S3Config{
			AccessKey:   viper.GetString(AwsAccessKeyID),
			SecretKey:   viper.GetString(AwsSecretAccessKey),
			AccessToken: viper.GetString(AwsSessionToken),
			Region:      viper.GetString(AwsRegion),
			EndpointURL: viper.GetString(AwsEndpointURL),
			Bucket:      viper.GetString(S3Bucket),
			Key:         viper.GetString(S3ManifestKey),
		},
	}.WithDefaults()
}
