package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	GeneralParams    GeneralParams
	HttpServerParams HttpServerParams
	MainDBParams     MainDBParams
	S3Params         S3Params
	ExecutorParams   ExecutorParams
	RedisParams      RedisParams
	KafkaParams      KafkaParams
	RoomParams       RoomParams
}

type GeneralParams struct {
	Env      string
	LogLevel string
}

type HttpServerParams struct {
	Address string
	Port    string
	// Origin hosts allowed for CORS and websocket upgrades
	AllowedOrigins []string
}

type MainDBParams struct {
	Username string
	Password string
	Name     string
	Port     int
	Host     string
	Timeout  int
}

type S3Params struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	BucketName      string
}

// ExecutorParams configures the Judge0-compatible execution service
type ExecutorParams struct {
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
}

// RedisParams is optional: an empty Addr disables run rate limiting
type RedisParams struct {
	Addr             string
	Password         string
	DB               int
	RunLimit         int
	RunWindowSeconds int
}

// KafkaParams is optional: no brokers means events are not published
type KafkaParams struct {
	Brokers []string
	Topic   string
}

type RoomParams struct {
	GracePeriodSeconds      int
	AutosaveIntervalSeconds int
	VersionPageSize         int
}

type ConfigManager struct {
	v      *viper.Viper
	config *Config
}

// NewConfigManager creates new config manager that handles
// all viper config options and loads a config from yaml
func NewConfigManager(configPath string) (*ConfigManager, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cm := &ConfigManager{v: v}

	if err := cm.loadConfig(); err != nil {
		return nil, err
	}

	return cm, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_server_params.allowed_origins", []string{"*"})
	v.SetDefault("executor_params.base_url", "https://ce.judge0.com")
	v.SetDefault("executor_params.timeout_seconds", 15)
	v.SetDefault("redis_params.run_limit", 20)
	v.SetDefault("redis_params.run_window_seconds", 60)
	v.SetDefault("kafka_params.topic", "codetogether.room-events")
	v.SetDefault("room_params.grace_period_seconds", 60)
	v.SetDefault("room_params.autosave_interval_seconds", 60)
	v.SetDefault("room_params.version_page_size", 50)
}

// Extracting data from yaml file and loading into Config
func (cm *ConfigManager) loadConfig() error {
	cm.config = &Config{
		GeneralParams: GeneralParams{
			Env:      cm.v.GetString("general_params.env"),
			LogLevel: cm.v.GetString("general_params.log_level"),
		},
		HttpServerParams: HttpServerParams{
			Address:        cm.v.GetString("http_server_params.http_server_address"),
			Port:           cm.v.GetString("http_server_params.http_server_port"),
			AllowedOrigins: cm.v.GetStringSlice("http_server_params.allowed_origins"),
		},
		MainDBParams: MainDBParams{
			Username: cm.v.GetString("main_db_params.db_username"),
			Password: cm.v.GetString("main_db_params.db_password"),
			Name:     cm.v.GetString("main_db_params.db_name"),
			Port:     cm.v.GetInt("main_db_params.db_port"),
			Host:     cm.v.GetString("main_db_params.db_host"),
			Timeout:  cm.v.GetInt("main_db_params.db_timeout"),
		},
		S3Params: S3Params{
			Endpoint:        cm.v.GetString("s3_params.endpoint"),
			AccessKeyID:     cm.v.GetString("s3_params.access_key_id"),
			SecretAccessKey: cm.v.GetString("s3_params.secret_access_key"),
			UseSSL:          cm.v.GetBool("s3_params.use_ssl"),
			BucketName:      cm.v.GetString("s3_params.bucket_name"),
		},
		ExecutorParams: ExecutorParams{
			BaseURL:        cm.v.GetString("executor_params.base_url"),
			APIKey:         cm.v.GetString("executor_params.api_key"),
			TimeoutSeconds: cm.v.GetInt("executor_params.timeout_seconds"),
		},
		RedisParams: RedisParams{
			Addr:             cm.v.GetString("redis_params.addr"),
			Password:         cm.v.GetString("redis_params.password"),
			DB:               cm.v.GetInt("redis_params.db"),
			RunLimit:         cm.v.GetInt("redis_params.run_limit"),
			RunWindowSeconds: cm.v.GetInt("redis_params.run_window_seconds"),
		},
		KafkaParams: KafkaParams{
			Brokers: cm.v.GetStringSlice("kafka_params.brokers"),
			Topic:   cm.v.GetString("kafka_params.topic"),
		},
		RoomParams: RoomParams{
			GracePeriodSeconds:      cm.v.GetInt("room_params.grace_period_seconds"),
			AutosaveIntervalSeconds: cm.v.GetInt("room_params.autosave_interval_seconds"),
			VersionPageSize:         cm.v.GetInt("room_params.version_page_size"),
		},
	}
	return nil
}

// Geting config instance
func (cm *ConfigManager) GetConfig() *Config {
	return cm.config
}

// Compiling a string to connect to main_db
func (db *MainDBParams) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?connect_timeout=%d&sslmode=disable",
		db.Username,
		db.Password,
		db.Host,
		db.Port,
		db.Name,
		db.Timeout,
	)
}

func (h *HttpServerParams) GetAddress() string {
	return fmt.Sprintf(
		"%s:%s",
		h.Address,
		h.Port,
	)
}

// OriginHosts strips the scheme from AllowedOrigins, which is the form
// websocket origin checks match against.
func (h *HttpServerParams) OriginHosts() []string {
	hosts := make([]string, 0, len(h.AllowedOrigins))
	for _, o := range h.AllowedOrigins {
		o = strings.TrimPrefix(o, "https://")
		o = strings.TrimPrefix(o, "http://")
		hosts = append(hosts, strings.TrimSuffix(o, "/"))
	}
	return hosts
}

func (e *ExecutorParams) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

func (r *RedisParams) Enabled() bool {
	return r.Addr != ""
}

func (r *RedisParams) RunWindow() time.Duration {
	return time.Duration(r.RunWindowSeconds) * time.Second
}

func (k *KafkaParams) Enabled() bool {
	return len(k.Brokers) > 0
}

func (r *RoomParams) GracePeriod() time.Duration {
	return time.Duration(r.GracePeriodSeconds) * time.Second
}

func (r *RoomParams) AutosaveInterval() time.Duration {
	return time.Duration(r.AutosaveIntervalSeconds) * time.Second
}

func (c *Config) Validate() error {
	// Checking out enviroment variable
	switch c.GeneralParams.Env {
	case "dev", "prod", "test":
	default:
		return fmt.Errorf("env parameter is invalid: %s. try dev/prod/test instead", c.GeneralParams.Env)
	}

	// Checking http server parameters
	if c.HttpServerParams.Address == "" {
		return fmt.Errorf("http server address is required")
	}
	if c.HttpServerParams.Port == "" {
		return fmt.Errorf("http server port is required")
	}

	// Checking MainDbparams
	if c.MainDBParams.Host == "" {
		return fmt.Errorf("MainDB: host is required")
	}
	if c.MainDBParams.Username == "" {
		return fmt.Errorf("MainDB: username is required")
	}
	if c.MainDBParams.Password == "" {
		return fmt.Errorf("MainDB: password is requred")
	}
	if c.MainDBParams.Port <= 0 || c.MainDBParams.Port > 65535 {
		return fmt.Errorf("MainDB: port is invalid")
	}

	// Checking S3 params
	if c.S3Params.Endpoint == "" {
		return fmt.Errorf("S3 endpoint is required")
	}
	if c.S3Params.AccessKeyID == "" {
		return fmt.Errorf("S3 access_key id is required")
	}
	if c.S3Params.SecretAccessKey == "" {
		return fmt.Errorf("S3 secret_access_key is required")
	}
	if c.S3Params.BucketName == "" {
		return fmt.Errorf("S3 bucket name is required")
	}

	// Checking execution service
	if c.ExecutorParams.BaseURL == "" {
		return fmt.Errorf("executor base_url is required")
	}
	if c.ExecutorParams.TimeoutSeconds <= 0 {
		return fmt.Errorf("executor timeout_seconds must be positive")
	}

	if c.RedisParams.Enabled() {
		if c.RedisParams.RunLimit <= 0 || c.RedisParams.RunWindowSeconds <= 0 {
			return fmt.Errorf("redis run_limit and run_window_seconds must be positive")
		}
	}

	if c.KafkaParams.Enabled() && c.KafkaParams.Topic == "" {
		return fmt.Errorf("kafka topic is required when brokers are set")
	}

	// Checking room lifecycle params
	if c.RoomParams.GracePeriodSeconds < 0 {
		return fmt.Errorf("room grace_period_seconds can't be negative")
	}
	if c.RoomParams.AutosaveIntervalSeconds <= 0 {
		return fmt.Errorf("room autosave_interval_seconds must be positive")
	}
	if c.RoomParams.VersionPageSize <= 0 {
		return fmt.Errorf("room version_page_size must be positive")
	}

	return nil
}
