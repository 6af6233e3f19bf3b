package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/John-Robertt/doubanhot/internal/api"
	"github.com/John-Robertt/doubanhot/internal/app/spider"
	"github.com/John-Robertt/doubanhot/internal/config"
	"github.com/John-Robertt/doubanhot/internal/logging"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || isHelp(args[0]) {
		printUsage(os.Stdout)
		return
	}

	var code int
	switch args[0] {
	case "fetch":
		code = fetchCmd(args[1:])
	case "serve":
		code = serveCmd(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", args[0])
		printUsage(os.Stderr)
		code = 2
	}
	if code != 0 {
		os.Exit(code)
	}
}

type cliArgs struct {
	ConfigPath string
	Out        string
	Listen     string
}

// parseArgs 解析 --name value 与 --name=value 两种形式；allowed 之外的参数报错。
func parseArgs(args []string, allowed ...string) (cliArgs, error) {
	var ca cliArgs
	dst := map[string]*string{
		"config": &ca.ConfigPath,
		"out":    &ca.Out,
		"listen": &ca.Listen,
	}
	ok := map[string]bool{}
	for _, a := range allowed {
		ok[a] = true
	}

	for i := 0; i < len(args); i++ {
		a := args[i]
		if !strings.HasPrefix(a, "--") {
			return cliArgs{}, fmt.Errorf("多余的参数 %q", a)
		}
		name, val, hasVal := strings.Cut(strings.TrimPrefix(a, "--"), "=")
		p, known := dst[name]
		if !known || !ok[name] {
			return cliArgs{}, fmt.Errorf("未知参数 %q", a)
		}
		if !hasVal {
			if i+1 >= len(args) {
				return cliArgs{}, fmt.Errorf("--%s 需要一个值", name)
			}
			i++
			val = args[i]
		}
		if strings.TrimSpace(val) == "" {
			return cliArgs{}, fmt.Errorf("--%s 不能为空", name)
		}
		*p = val
	}
	return ca, nil
}

func fetchCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printFetchUsage(os.Stdout)
			return 0
		}
	}
	ca, err := parseArgs(args, "config", "out")
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printFetchUsage(os.Stderr)
		return 2
	}
	eff, ok := loadConfig(ca)
	if !ok {
		return 1
	}

	progressW, interactive := pickProgressWriter()
	var obs spider.Observer
	if interactive {
		obs = newProgressUI(progressW)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return runFetch(ctx, eff, obs, os.Stdout, os.Stderr)
}

func serveCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printServeUsage(os.Stdout)
			return 0
		}
	}
	ca, err := parseArgs(args, "config", "listen")
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printServeUsage(os.Stderr)
		return 2
	}
	eff, ok := loadConfig(ca)
	if !ok {
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sp, err := newSpider(eff, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化失败：%v\n", err)
		return 1
	}
	c, closeCache := newCache(ctx, eff)
	defer closeCache()

	h := api.NewRouter(sp, c, api.Options{
		CORSOrigins: eff.CORSOrigins,
		RateLimit:   eff.RateLimit,
	})
	if err := api.ListenAndServe(ctx, eff.Listen, h); err != nil {
		logging.Error().Err(err).Str("addr", eff.Listen).Msg("HTTP 服务异常退出")
		return 1
	}
	return 0
}

func loadConfig(ca cliArgs) (config.EffectiveConfig, bool) {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return config.EffectiveConfig{}, false
	}
	env, err := config.Env(cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return config.EffectiveConfig{}, false
	}
	eff, err := config.LoadEffective(cwd, config.CLIArgs{
		ConfigPath: ca.ConfigPath,
		Listen:     ca.Listen,
		Out:        ca.Out,
	}, env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return config.EffectiveConfig{}, false
	}
	logging.Init(logging.Config{Level: eff.LogLevel, Format: eff.LogFormat})
	if eff.ConfigPath != "" {
		logging.Debug().Str("path", eff.ConfigPath).Msg("已读取配置文件")
	}
	return eff, true
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `用法：
  doubanhot fetch [--out file] [--config path]
  doubanhot serve [--listen addr] [--config path]

命令：
  fetch  抓取全部榜单，打印统计并导出 JSON
  serve  启动带缓存的 HTTP JSON 接口

使用 "doubanhot <命令> --help" 查看详细说明。
`)
}

func printFetchUsage(w io.Writer) {
	fmt.Fprint(w, `用法：
  doubanhot fetch [--out file] [--config path]

参数：
  --out       导出文件（默认 ./douban_movies.json）
  --config    配置文件（默认读取 ./doubanhot.json，若存在）
  -h, --help  显示帮助
`)
}

func printServeUsage(w io.Writer) {
	fmt.Fprint(w, `用法：
  doubanhot serve [--listen addr] [--config path]

参数：
  --listen    监听地址（默认 :3001；也可用环境变量 PORT / LISTEN_ADDR）
  --config    配置文件（默认读取 ./doubanhot.json，若存在）
  -h, --help  显示帮助
`)
}
