package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	log "github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/daohuymanh/bio-data-analysis/internal/parser"
)

// AppConfig 应用配置
type AppConfig struct {
	Server ServerConfig `toml:"server"`
	Data   DataConfig   `toml:"data"`
	Log    LogConfig    `toml:"log"`
	Import ImportConfig `toml:"import"`
	GSTX   GSTXConfig   `toml:"gstx"`
	DMOSS  DMOSSConfig  `toml:"dmoss"`
	Cases  CasesConfig  `toml:"cases"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port" validate:"min=1,max=65535"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir" validate:"required"`
	DBFile  string `toml:"db_file" validate:"required"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `toml:"level" validate:"oneof=debug info warn error"`
	Format string `toml:"format" validate:"oneof=text json"`
}

// ImportConfig 导入配置
type ImportConfig struct {
	Workers  int `toml:"workers" validate:"min=1,max=64"`
	Year     int `toml:"year" validate:"min=0"` // 0 表示从文件名推断
	MonthMin int `toml:"month_min" validate:"min=1,max=12"`
	MonthMax int `toml:"month_max" validate:"min=1,max=12,gtefield=MonthMin"`
}

// GSTXConfig GSTX 月报抽取配置
type GSTXConfig struct {
	Marker              string   `toml:"marker" validate:"required"`
	BoilerplateKeywords []string `toml:"boilerplate_keywords"`
	ValueColumns        []int    `toml:"value_columns" validate:"len=5,dive,min=0"`
}

// DMOSSConfig DMOSS 矩阵抽取配置
type DMOSSConfig struct {
	MonthColumnStart int   `toml:"month_column_start" validate:"min=0"`
	MetricRows       []int `toml:"metric_rows" validate:"len=5,dive,min=0"`
}

// CasesConfig 逐例表列定位配置（位置或列名片段）
type CasesConfig struct {
	ProvinceColumn string   `toml:"province_column"`
	DistrictColumn string   `toml:"district_column"`
	MonthColumn    string   `toml:"month_column"`
	ResultColumns  []string `toml:"result_columns"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	FileFound     bool
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20261,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
			DBFile:  "edengue.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Import: ImportConfig{
			Workers:  4,
			MonthMin: 1,
			MonthMax: 12,
		},
		GSTX: GSTXConfig{
			Marker:              parser.DefaultMarker,
			BoilerplateKeywords: parser.DefaultBoilerplateKeywords(),
			ValueColumns:        append([]int(nil), parser.DefaultValueColumns[:]...),
		},
		DMOSS: DMOSSConfig{
			MonthColumnStart: parser.DefaultMonthColumnStart,
			MetricRows:       append([]int(nil), parser.DefaultMetricRows[:]...),
		},
	}
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

func defaultConfigPath() string {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}
	return filepath.Join(exeDir, "config.toml")
}

// LoadConfigWithInfo 加载配置并返回元信息；path 为空时使用可执行文件同目录下的 config.toml
func LoadConfigWithInfo(path string) (*AppConfig, LoadConfigInfo, error) {
	if path == "" {
		path = defaultConfigPath()
	}
	info := LoadConfigInfo{Path: path}
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		info.FileFound = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// 配置文件不存在，使用默认配置
	default:
		return nil, info, err
	}

	if err := applyEnv(config); err != nil {
		return nil, info, err
	}
	if err := Validate(config); err != nil {
		return nil, info, err
	}
	return config, info, nil
}

// LoadConfig 加载配置
func LoadConfig(path string) (*AppConfig, error) {
	config, _, err := LoadConfigWithInfo(path)
	return config, err
}

// 环境变量覆盖
func applyEnv(config *AppConfig) error {
	if v := strings.TrimSpace(os.Getenv("EDENGUE_DATA_DIR")); v != "" {
		config.Data.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv("EDENGUE_LOG_LEVEL")); v != "" {
		config.Log.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("EDENGUE_WORKERS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("EDENGUE_WORKERS: %w", err)
		}
		config.Import.Workers = n
	}
	return nil
}

var validate = validator.New()

// Validate 校验配置取值
func Validate(config *AppConfig) error {
	if err := validate.Struct(config); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// SaveConfig 保存配置到 path（为空时写到可执行文件同目录）
func SaveConfig(config *AppConfig, path string) error {
	if path == "" {
		path = defaultConfigPath()
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// DataDir 数据目录：绝对路径原样使用，相对路径相对于可执行文件目录
func DataDir(config *AppConfig) string {
	if filepath.IsAbs(config.Data.DataDir) {
		return config.Data.DataDir
	}
	exeDir, err := GetExeDir()
	if err != nil || exeDir == "" {
		exeDir = "."
	}
	return filepath.Join(exeDir, config.Data.DataDir)
}

// EnsureDataDir 确保数据目录及其子目录存在
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := DataDir(config)

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	// 创建子目录
	subdirs := []string{"uploads", "exports", "backups"}
	for _, subdir := range subdirs {
		path := filepath.Join(dataDir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", err
		}
	}

	return dataDir, nil
}

// GetDataPath 获取数据文件路径
func GetDataPath(config *AppConfig, subdir, filename string) string {
	return filepath.Join(DataDir(config), subdir, filename)
}

// DBPath 数据库文件路径
func DBPath(config *AppConfig) string {
	return filepath.Join(DataDir(config), config.Data.DBFile)
}

// SetupLogging 按配置设置全局日志级别与格式
func SetupLogging(c LogConfig) {
	level, err := log.ParseLevel(c.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)

	if c.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
		return
	}
	log.SetFormatter(&prefixed.TextFormatter{
		ForceFormatting: true,
		FullTimestamp:   true,
	})
}

// GSTXOptions GSTX 抽取参数（省份与年份由调用方补充）
func (c *AppConfig) GSTXOptions() parser.GSTXOptions {
	opts := parser.DefaultGSTXOptions()
	opts.Marker = c.GSTX.Marker
	if c.GSTX.BoilerplateKeywords != nil {
		opts.BoilerplateKeywords = append([]string(nil), c.GSTX.BoilerplateKeywords...)
	}
	copy(opts.ValueColumns[:], c.GSTX.ValueColumns)
	return opts
}

// DMOSSOptions DMOSS 抽取参数（年份由调用方补充）
func (c *AppConfig) DMOSSOptions() parser.DMOSSOptions {
	opts := parser.DMOSSOptions{MonthColumnStart: c.DMOSS.MonthColumnStart}
	copy(opts.MetricRows[:], c.DMOSS.MetricRows)
	return opts
}

// CaseOptions 逐例表列定位参数（年份由调用方补充）
func (c *AppConfig) CaseOptions() parser.CaseOptions {
	opts := parser.CaseOptions{
		Results: parser.ParseColumnTokens(c.Cases.ResultColumns),
	}
	if s := strings.TrimSpace(c.Cases.ProvinceColumn); s != "" {
		opts.Province = parser.ParseColumnToken(s)
	}
	if s := strings.TrimSpace(c.Cases.DistrictColumn); s != "" {
		opts.District = parser.ParseColumnToken(s)
	}
	if s := strings.TrimSpace(c.Cases.MonthColumn); s != "" {
		opts.Month = parser.ParseColumnToken(s)
	}
	return opts
}
