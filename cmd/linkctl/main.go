package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"shortlink-service/internal/client"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type settings struct {
	Server string `env:"SHORTLINK_SERVER" envDefault:"http://localhost:8080"`
	Token  string `env:"SHORTLINK_TOKEN"`
}

const usage = `用法: linkctl [-server URL] [-token JWT] <命令> [参数]

命令:
  create -url URL [-alias ALIAS] [-expire "7 days"|never] [-owner OWNER]
  resolve CODE
  list [-limit N] [-cursor CURSOR] OWNER
`

func main() {
	_ = godotenv.Load()
	var s settings
	if err := env.Parse(&s); err != nil {
		fail(err)
	}

	flag.StringVar(&s.Server, "server", s.Server, "服务地址, 默认读取 SHORTLINK_SERVER")
	flag.StringVar(&s.Token, "token", s.Token, "JWT 令牌, 默认读取 SHORTLINK_TOKEN")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	c := client.New(s.Server, s.Token)

	var err error
	switch args[0] {
	case "create":
		err = runCreate(ctx, c, args[1:])
	case "resolve":
		err = runResolve(ctx, c, args[1:])
	case "list":
		err = runList(ctx, c, args[1:])
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fail(err)
	}
}

func runCreate(ctx context.Context, c *client.Client, args []string) error {
	cmd := flag.NewFlagSet("create", flag.ExitOnError)
	target := cmd.String("url", "", "目标地址")
	alias := cmd.String("alias", "", "自定义别名 (2-30 位字母, 数字或 -)")
	expire := cmd.String("expire", "", `过期策略, "never" 或 "N days", 默认 30 天`)
	owner := cmd.String("owner", "", "所有者, 携带令牌时以令牌中的用户为准")
	_ = cmd.Parse(args)
	if *target == "" {
		cmd.PrintDefaults()
		os.Exit(2)
	}

	link, err := c.Create(ctx, client.CreateRequest{
		TargetURL:  *target,
		Alias:      *alias,
		Expiration: *expire,
		OwnerID:    *owner,
	})
	if err != nil {
		return err
	}
	return printJSON(link)
}

func runResolve(ctx context.Context, c *client.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("resolve 需要一个短码")
	}
	target, err := c.Resolve(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Println(target)
	return nil
}

func runList(ctx context.Context, c *client.Client, args []string) error {
	cmd := flag.NewFlagSet("list", flag.ExitOnError)
	limit := cmd.Int("limit", 0, "每页数量, 0 表示全部")
	cursor := cmd.String("cursor", "", "上一页返回的游标")
	_ = cmd.Parse(args)
	if cmd.NArg() != 1 {
		return fmt.Errorf("list 需要一个所有者")
	}

	links, next, err := c.List(ctx, cmd.Arg(0), *limit, *cursor)
	if err != nil {
		return err
	}
	if err := printJSON(links); err != nil {
		return err
	}
	if next != "" {
		fmt.Fprintf(os.Stderr, "下一页: linkctl list -limit %d -cursor %s %s\n", *limit, next, cmd.Arg(0))
	}
	return nil
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "错误:", err)
	os.Exit(1)
}
