package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/SaweraMunawar/AI-Native-Book-backend/cmd/bookchat/commands"
	"github.com/SaweraMunawar/AI-Native-Book-backend/internal/platform/logger"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 設定読み込み前のデフォルトロガー。各コマンドが環境に応じて再設定する
	logger.New(logger.DefaultConfig())

	envFlag := &cli.StringFlag{
		Name:  "env",
		Usage: "環境変数ファイルパス",
		Value: ".env",
	}

	app := &cli.Command{
		Name:  "bookchat",
		Usage: "教科書RAGチャットボットのバックエンド",
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "APIサーバ管理コマンド",
				Commands: []*cli.Command{
					{
						Name:  "start",
						Usage: "HTTP APIサーバを起動",
						Flags: []cli.Flag{
							envFlag,
							&cli.StringFlag{
								Name:  "addr",
								Usage: "リッスンアドレス",
								Value: ":8000",
							},
						},
						Action: commands.ServerStartAction,
					},
				},
			},
			{
				Name:  "ingest",
				Usage: "教科書MarkdownをQdrantへ取り込む",
				Flags: []cli.Flag{
					envFlag,
					&cli.StringFlag{
						Name:     "docs",
						Usage:    "教科書Markdownディレクトリ",
						Required: true,
					},
				},
				Action: commands.IngestAction,
			},
			{
				Name:  "collection",
				Usage: "ベクトルコレクション管理コマンド",
				Commands: []*cli.Command{
					{
						Name:  "setup",
						Usage: "Qdrantコレクションを作成",
						Flags: []cli.Flag{
							envFlag,
							&cli.BoolFlag{
								Name:  "recreate",
								Usage: "既存コレクションを削除して再作成",
							},
						},
						Action: commands.CollectionSetupAction,
					},
				},
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
