// Package config 负责发现、读取并合并配置：CLI > 环境变量（含 .env）> doubanhot.json > 默认值。
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"

	"github.com/John-Robertt/doubanhot/internal/provider/douban"
)

const (
	// ErrCodeNotFound 表示 --config 显式指定的文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	FileName    = "doubanhot.json"
	DotEnvName  = ".env"
	DefaultOut  = "douban_movies.json"
	DefaultPort = "3001"

	DefaultConcurrency = 4
	DefaultMaxAttempts = 3
	DefaultTimeout     = 10 * time.Second
	DefaultBaseDelay   = time.Second
	DefaultCacheTTL    = 30 * time.Minute
	DefaultCacheDir    = ".doubanhot-cache"
	DefaultRateLimit   = 120

	CacheMemory = "memory"
	CacheFile   = "file"
	CacheRedis  = "redis"
)

// CLIArgs 是 CLI 暴露的参数；空串表示未指定。
type CLIArgs struct {
	ConfigPath string
	Listen     string
	Out        string
}

// FileConfig 对应 doubanhot.json 的解析结构；所有字段可选。
type FileConfig struct {
	Listen      string            `json:"listen"`
	Log         *LogConfig        `json:"log"`
	Proxy       *ProxyConfig      `json:"proxy"`
	UserAgents  []string          `json:"user_agents"`
	Fetch       *FetchConfig      `json:"fetch"`
	Concurrency int               `json:"concurrency"`
	Underrated  *UnderratedConfig `json:"underrated"`
	Cache       *CacheConfig      `json:"cache"`
	API         *APIConfig        `json:"api"`
	URLs        douban.URLs       `json:"urls"`
	Out         string            `json:"out"`
}

type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

type ProxyConfig struct {
	URL string `json:"url"`
}

type FetchConfig struct {
	MaxAttempts  int      `json:"max_attempts"`
	TimeoutMS    int      `json:"timeout_ms"`
	BaseDelayMS  int      `json:"base_delay_ms"`
	RPS          float64  `json:"rps"`
	Burst        int      `json:"burst"`
	Breaker      bool     `json:"breaker"`
	BlockedHosts []string `json:"blocked_hosts"`
}

type UnderratedConfig struct {
	MinScore float64 `json:"min_score"`
	MaxVotes int     `json:"max_votes"`
	Limit    int     `json:"limit"`
}

type CacheConfig struct {
	Backend    string `json:"backend"`
	TTLSeconds int    `json:"ttl_seconds"`
	Dir        string `json:"dir"`
	RedisURL   string `json:"redis_url"`
	Coalesce   bool   `json:"coalesce"`
}

type APIConfig struct {
	CORSOrigins []string `json:"cors_origins"`
	// RateLimit 是每个 IP 每分钟的请求上限；负数表示关闭。
	RateLimit int `json:"rate_limit"`
}

// EffectiveConfig 是合并并规范化后的最终配置，实现层直接消费。
type EffectiveConfig struct {
	// ConfigPath 是实际读取的配置文件；未读取时为空。
	ConfigPath string

	Listen    string
	LogLevel  string
	LogFormat string
	Out       string

	ProxyURL     string
	UserAgents   []string
	MaxAttempts  int
	Timeout      time.Duration
	BaseDelay    time.Duration
	RPS          float64
	Burst        int
	Breaker      bool
	BlockedHosts []string

	Concurrency     int
	MinScore        float64
	MaxVotes        int
	UnderratedLimit int

	CacheBackend string
	CacheTTL     time.Duration
	CacheDir     string
	RedisURL     string
	Coalesce     bool

	CORSOrigins []string
	RateLimit   int

	URLs douban.URLs
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Path == "" {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LookupFunc 读取一个环境变量；第二个返回值表示是否设置。
type LookupFunc func(key string) (string, bool)

// Env 返回“进程环境优先，其次 <cwd>/.env”的查找函数。.env 不存在不算错误。
func Env(cwd string) (LookupFunc, error) {
	path := filepath.Join(cwd, DotEnvName)
	dot, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, &Error{Code: ErrCodeInvalid, Path: path, Err: err}
		}
		dot = map[string]string{}
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dot[key]
		return v, ok
	}, nil
}

// LoadEffective 发现并读取配置文件，然后与环境变量和 CLI 参数合并。
//
// 发现规则：
// 1) --config 指定：必须存在，否则 config_not_found
// 2) 未指定：读取 <cwd>/doubanhot.json（可选）
//
// env 为 nil 时只使用进程环境。
func LoadEffective(cwd string, cli CLIArgs, env LookupFunc) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}
	if env == nil {
		env = os.LookupEnv
	}

	cfgPath := filepath.Join(cwdAbs, FileName)
	required := false
	if p := strings.TrimSpace(cli.ConfigPath); p != "" {
		cfgPath = absCleanFrom(cwdAbs, p)
		required = true
	}

	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if !exists {
		if required {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
		cfgPath = ""
	}

	eff, err := merge(cwdAbs, cli, fc, env)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	eff.ConfigPath = cfgPath
	return eff, nil
}

func merge(cwd string, cli CLIArgs, fc FileConfig, env LookupFunc) (EffectiveConfig, error) {
	eff := EffectiveConfig{
		Listen:          ":" + DefaultPort,
		LogLevel:        "info",
		LogFormat:       "json",
		Out:             filepath.Join(cwd, DefaultOut),
		MaxAttempts:     DefaultMaxAttempts,
		Timeout:         DefaultTimeout,
		BaseDelay:       DefaultBaseDelay,
		BlockedHosts:    []string{douban.BlockedHost},
		Concurrency:     DefaultConcurrency,
		MinScore:        8.0,
		MaxVotes:        100000,
		UnderratedLimit: 20,
		CacheBackend:    CacheMemory,
		CacheTTL:        DefaultCacheTTL,
		CacheDir:        filepath.Join(cwd, DefaultCacheDir),
		CORSOrigins:     []string{"*"},
		RateLimit:       DefaultRateLimit,
		URLs:            douban.DefaultURLs().Merge(fc.URLs),
	}

	// 文件层
	if s := strings.TrimSpace(fc.Listen); s != "" {
		eff.Listen = s
	}
	if fc.Log != nil {
		eff.LogLevel = pick(eff.LogLevel, fc.Log.Level)
		eff.LogFormat = pick(eff.LogFormat, fc.Log.Format)
	}
	if s := strings.TrimSpace(fc.Out); s != "" {
		eff.Out = absCleanFrom(cwd, s)
	}
	if fc.Proxy != nil {
		eff.ProxyURL = strings.TrimSpace(fc.Proxy.URL)
	}
	for _, ua := range fc.UserAgents {
		if ua = strings.TrimSpace(ua); ua != "" {
			eff.UserAgents = append(eff.UserAgents, ua)
		}
	}
	if f := fc.Fetch; f != nil {
		if f.MaxAttempts != 0 {
			eff.MaxAttempts = f.MaxAttempts
		}
		if f.TimeoutMS > 0 {
			eff.Timeout = time.Duration(f.TimeoutMS) * time.Millisecond
		}
		if f.BaseDelayMS > 0 {
			eff.BaseDelay = time.Duration(f.BaseDelayMS) * time.Millisecond
		}
		eff.RPS = f.RPS
		eff.Burst = f.Burst
		eff.Breaker = f.Breaker
		if len(f.BlockedHosts) > 0 {
			eff.BlockedHosts = append([]string(nil), f.BlockedHosts...)
		}
	}
	if fc.Concurrency != 0 {
		eff.Concurrency = fc.Concurrency
	}
	if u := fc.Underrated; u != nil {
		if u.MinScore > 0 {
			eff.MinScore = u.MinScore
		}
		if u.MaxVotes > 0 {
			eff.MaxVotes = u.MaxVotes
		}
		if u.Limit > 0 {
			eff.UnderratedLimit = u.Limit
		}
	}
	if c := fc.Cache; c != nil {
		eff.CacheBackend = pick(eff.CacheBackend, c.Backend)
		if c.TTLSeconds > 0 {
			eff.CacheTTL = time.Duration(c.TTLSeconds) * time.Second
		}
		if s := strings.TrimSpace(c.Dir); s != "" {
			eff.CacheDir = absCleanFrom(cwd, s)
		}
		eff.RedisURL = strings.TrimSpace(c.RedisURL)
		eff.Coalesce = c.Coalesce
	}
	if a := fc.API; a != nil {
		if len(a.CORSOrigins) > 0 {
			eff.CORSOrigins = append([]string(nil), a.CORSOrigins...)
		}
		if a.RateLimit != 0 {
			eff.RateLimit = a.RateLimit
		}
	}

	// 环境变量层
	if v, ok := env("PORT"); ok && strings.TrimSpace(v) != "" {
		port := strings.TrimSpace(v)
		if n, err := strconv.Atoi(port); err != nil || n <= 0 || n > 65535 {
			return EffectiveConfig{}, fmt.Errorf("PORT 无效：%q", v)
		}
		eff.Listen = ":" + port
	}
	if v, ok := env("LISTEN_ADDR"); ok && strings.TrimSpace(v) != "" {
		eff.Listen = strings.TrimSpace(v)
	}
	if v, ok := env("LOG_LEVEL"); ok {
		eff.LogLevel = pick(eff.LogLevel, v)
	}
	if v, ok := env("LOG_FORMAT"); ok {
		eff.LogFormat = pick(eff.LogFormat, v)
	}
	if v, ok := env("CACHE_BACKEND"); ok {
		eff.CacheBackend = pick(eff.CacheBackend, v)
	}
	if v, ok := env("REDIS_URL"); ok && strings.TrimSpace(v) != "" {
		eff.RedisURL = strings.TrimSpace(v)
		// 只给了 REDIS_URL 时默认启用 redis。
		if _, set := env("CACHE_BACKEND"); !set && (fc.Cache == nil || strings.TrimSpace(fc.Cache.Backend) == "") {
			eff.CacheBackend = CacheRedis
		}
	}

	// CLI 层
	if s := strings.TrimSpace(cli.Listen); s != "" {
		eff.Listen = s
	}
	if s := strings.TrimSpace(cli.Out); s != "" {
		eff.Out = absCleanFrom(cwd, s)
	}

	if err := validate(&eff); err != nil {
		return EffectiveConfig{}, err
	}
	return eff, nil
}

func validate(eff *EffectiveConfig) error {
	eff.LogFormat = strings.ToLower(eff.LogFormat)
	if eff.LogFormat != "json" && eff.LogFormat != "console" {
		return fmt.Errorf("log.format 只能是 json 或 console，实际是 %q", eff.LogFormat)
	}

	if eff.ProxyURL != "" {
		u, err := url.Parse(eff.ProxyURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("proxy.url 无效：%q", eff.ProxyURL)
		}
	}

	// 范围截断：并发 [1, 16]，重试 [1, 10]。
	eff.Concurrency = clamp(eff.Concurrency, 1, 16)
	eff.MaxAttempts = clamp(eff.MaxAttempts, 1, 10)
	if eff.RPS < 0 {
		return fmt.Errorf("fetch.rps 不能为负数")
	}

	eff.CacheBackend = strings.ToLower(eff.CacheBackend)
	switch eff.CacheBackend {
	case CacheMemory, CacheFile:
	case CacheRedis:
		if eff.RedisURL == "" {
			return fmt.Errorf("cache.backend=redis 但 redis_url 为空")
		}
	default:
		return fmt.Errorf("cache.backend 只能是 memory、file 或 redis，实际是 %q", eff.CacheBackend)
	}

	if eff.RateLimit < 0 {
		eff.RateLimit = 0
	}
	return eff.URLs.Validate()
}

func pick(cur, v string) string {
	if s := strings.TrimSpace(v); s != "" {
		return s
	}
	return cur
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
