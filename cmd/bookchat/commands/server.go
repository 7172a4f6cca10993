package commands

import (
	"context"
	"fmt"

	"github.com/SaweraMunawar/AI-Native-Book-backend/internal/api"
	"github.com/urfave/cli/v3"
)

// ServerStartAction はHTTP APIサーバを起動するコマンドのアクション
func ServerStartAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	addr := cmd.String("addr")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	chatService, err := appCtx.NewChatService()
	if err != nil {
		return err
	}

	server := api.NewServer(
		api.ServerConfig{
			ListenAddr:        addr,
			CORSOrigins:       appCtx.Config.CORSOriginsList(),
			RateLimitRequests: appCtx.Config.RateLimit.Requests,
			RateLimitWindow:   appCtx.Config.RateLimit.Window,
		},
		api.NewChatHandler(chatService, appCtx.Logger),
		api.NewHealthHandler(appCtx.NewHealthService()),
		appCtx.Logger,
	)

	// シグナル受信でグレースフルに停止する
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Listen()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("サーバの起動に失敗: %w", err)
		}
		return nil
	case <-ctx.Done():
		return server.Shutdown()
	}
}
