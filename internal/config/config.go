package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Interface identifiers as stored in interface_lock_master.interface_type.
const (
	InterfaceEmployee   = "I01"
	InterfaceShift      = "I02"
	InterfaceAttendance = "I03"
	InterfaceESlot      = "I31"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	JWT        JWTConfig        `yaml:"jwt"`
	Redis      RedisConfig      `yaml:"redis"`
	SMTP       SMTPConfig       `yaml:"smtp"`
	AWS        AWSConfig        `yaml:"aws"`
	Log        LogConfig        `yaml:"log"`
	Interfaces InterfacesConfig `yaml:"interfaces"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release, test
	// Per-IP limit on the attendance callback routes.
	CallbackRPS   float64 `yaml:"callback_rps"`
	CallbackBurst int     `yaml:"callback_burst"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn"`
}

type JWTConfig struct {
	Secret     string `yaml:"secret"`
	ExpireHour int    `yaml:"expire_hour"`
}

// RedisConfig for optional async task queue
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type SMTPConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	UseTLS   bool   `yaml:"use_tls"`
}

type AWSConfig struct {
	Region string `yaml:"region"`
}

type LogConfig struct {
	Level         string `yaml:"level"`
	RetentionDays int    `yaml:"retention_days"`
}

type InterfacesConfig struct {
	Employee   EmployeeConfig   `yaml:"employee"`
	Shift      ShiftConfig      `yaml:"shift"`
	Attendance AttendanceConfig `yaml:"attendance"`
	ESlot      ESlotConfig      `yaml:"eslot"`
}

// ScheduleConfig describes when an interface job fires.
// Type is "interval" (every IntervalSeconds after InitialDelaySeconds)
// or "daily" (at Hour:Minute).
type ScheduleConfig struct {
	Type                string `yaml:"type"`
	IntervalSeconds     int    `yaml:"interval_seconds"`
	InitialDelaySeconds int    `yaml:"initial_delay_seconds"`
	Hour                int    `yaml:"hour"`
	Minute              int    `yaml:"minute"`
}

type EmployeeConfig struct {
	Enabled        bool           `yaml:"enabled"`
	MaxLockSeconds int            `yaml:"max_lock_seconds"`
	Schedule       ScheduleConfig `yaml:"schedule"`
	Recipients     []string       `yaml:"recipients"`
	FileLoc        string         `yaml:"file_loc"`
	ThreadCount    int            `yaml:"thread_count"`
	SecretKeyFile  string         `yaml:"secret_key_file"`
	Passphrase     string         `yaml:"passphrase"`
}

type ShiftConfig struct {
	Enabled        bool           `yaml:"enabled"`
	MaxLockSeconds int            `yaml:"max_lock_seconds"`
	Schedule       ScheduleConfig `yaml:"schedule"`
	Recipients     []string       `yaml:"recipients"`
	ExportLoc      string         `yaml:"export_loc"`
	CompanyCode    string         `yaml:"company_code"`
	EncryptOutput  bool           `yaml:"encrypt_output"`
	PublicKeyFile  string         `yaml:"public_key_file"`
}

type AttendanceConfig struct {
	Enabled        bool           `yaml:"enabled"`
	MaxLockSeconds int            `yaml:"max_lock_seconds"`
	Schedule       ScheduleConfig `yaml:"schedule"`
	Recipients     []string       `yaml:"recipients"`
	ResendURL      string         `yaml:"resend_url"`
	TimeoutSeconds int            `yaml:"timeout_seconds"`
}

type ESlotConfig struct {
	Enabled         bool           `yaml:"enabled"`
	MaxLockSeconds  int            `yaml:"max_lock_seconds"`
	Schedule        ScheduleConfig `yaml:"schedule"`
	Recipients      []string       `yaml:"recipients"`
	QueueURL        string         `yaml:"queue_url"`
	WaitTimeSeconds int32          `yaml:"wait_time_seconds"`
	GlCompany       string         `yaml:"gl_company"`
}

// MaxLockSeconds returns the configured stale threshold per interface type.
func (c *InterfacesConfig) MaxLockSeconds() map[string]int {
	return map[string]int{
		InterfaceEmployee:   c.Employee.MaxLockSeconds,
		InterfaceShift:      c.Shift.MaxLockSeconds,
		InterfaceAttendance: c.Attendance.MaxLockSeconds,
		InterfaceESlot:      c.ESlot.MaxLockSeconds,
	}
}

var GlobalConfig *Config

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		// Keys absent from the file keep their defaults; explicit zeros
		// such as hour: 0 are honoured.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.overrideFromEnv(); err != nil {
		return nil, err
	}
	GlobalConfig = cfg
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:          "0.0.0.0",
			Port:          "8080",
			Mode:          "debug",
			CallbackRPS:   10,
			CallbackBurst: 20,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "trax_interfaces.db",
		},
		JWT: JWTConfig{
			Secret:     "trax-interfaces-secret-change-in-production",
			ExpireHour: 24,
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			DB:      0,
		},
		SMTP: SMTPConfig{
			Port: 587,
		},
		AWS: AWSConfig{
			Region: "ap-southeast-1",
		},
		Log: LogConfig{
			Level:         "info",
			RetentionDays: 30,
		},
		Interfaces: InterfacesConfig{
			Employee: EmployeeConfig{
				MaxLockSeconds: 3600,
				Schedule:       ScheduleConfig{Type: "interval", IntervalSeconds: 60, InitialDelaySeconds: 30},
				FileLoc:        "data/employee",
				ThreadCount:    4,
			},
			Shift: ShiftConfig{
				MaxLockSeconds: 3600,
				Schedule:       ScheduleConfig{Type: "daily", IntervalSeconds: 3600, InitialDelaySeconds: 30, Hour: 2},
				ExportLoc:      "data/shift",
				CompanyCode:    "SIABMM",
			},
			Attendance: AttendanceConfig{
				MaxLockSeconds: 600,
				Schedule:       ScheduleConfig{Type: "interval", IntervalSeconds: 60, InitialDelaySeconds: 30},
				TimeoutSeconds: 30,
			},
			ESlot: ESlotConfig{
				MaxLockSeconds:  600,
				Schedule:        ScheduleConfig{Type: "interval", IntervalSeconds: 60, InitialDelaySeconds: 30},
				WaitTimeSeconds: 5,
			},
		},
	}
}

// overrideFromEnv merges the variables that are set over c. Unset
// variables leave the loaded value alone.
func (c *Config) overrideFromEnv() error {
	var env Config
	env.loadEnv()
	if err := mergo.Merge(c, env, mergo.WithOverride); err != nil {
		return err
	}

	// Redis URL override (format: redis://:password@host:port/db)
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.Enabled = true
		c.parseRedisURL(redisURL)
	}
	return nil
}

func (c *Config) loadEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.JWT.Secret = secret
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if host := os.Getenv("SMTP_HOST"); host != "" {
		c.SMTP.Enabled = true
		c.SMTP.Host = host
	}
	if port := os.Getenv("SMTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.SMTP.Port = p
		}
	}
	if user := os.Getenv("SMTP_USERNAME"); user != "" {
		c.SMTP.Username = user
	}
	if password := os.Getenv("SMTP_PASSWORD"); password != "" {
		c.SMTP.Password = password
	}
	if from := os.Getenv("SMTP_FROM"); from != "" {
		c.SMTP.From = from
	}
	if region := os.Getenv("AWS_REGION"); region != "" {
		c.AWS.Region = region
	}
	if queueURL := os.Getenv("ESLOT_QUEUE_URL"); queueURL != "" {
		c.Interfaces.ESlot.QueueURL = queueURL
	}
	if loc := os.Getenv("EMPLOYEE_FILE_LOC"); loc != "" {
		c.Interfaces.Employee.FileLoc = loc
	}
	if loc := os.Getenv("SHIFT_EXPORT_LOC"); loc != "" {
		c.Interfaces.Shift.ExportLoc = loc
	}
	if resendURL := os.Getenv("ATTENDANCE_RESEND_URL"); resendURL != "" {
		c.Interfaces.Attendance.ResendURL = resendURL
	}
}

// parseRedisURL parses a Redis URL and sets config values
// Format: redis://:password@host:port/db
func (c *Config) parseRedisURL(redisURL string) {
	url := strings.TrimPrefix(redisURL, "redis://")

	if atIdx := strings.Index(url, "@"); atIdx != -1 {
		authPart := url[:atIdx]
		url = url[atIdx+1:]
		if colonIdx := strings.Index(authPart, ":"); colonIdx != -1 {
			c.Redis.Password = authPart[colonIdx+1:]
		}
	}

	if slashIdx := strings.LastIndex(url, "/"); slashIdx != -1 {
		dbStr := url[slashIdx+1:]
		url = url[:slashIdx]
		if db, err := strconv.Atoi(dbStr); err == nil {
			c.Redis.DB = db
		}
	}

	c.Redis.Addr = url
}

func (c *Config) Save(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}
