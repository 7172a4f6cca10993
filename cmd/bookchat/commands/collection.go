package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// CollectionSetupAction はQdrantコレクションを作成するコマンドのアクション
func CollectionSetupAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	recreate := cmd.Bool("recreate")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	exists, err := appCtx.Qdrant.CollectionExists(ctx)
	if err != nil {
		return fmt.Errorf("コレクションの確認に失敗: %w", err)
	}

	if exists {
		if !recreate {
			fmt.Printf("コレクション %s は既に存在します\n", appCtx.Config.Qdrant.Collection)
			return nil
		}
		if err := appCtx.Qdrant.DeleteCollection(ctx); err != nil {
			return fmt.Errorf("コレクションの削除に失敗: %w", err)
		}
	}

	if err := appCtx.Qdrant.CreateCollection(ctx, appCtx.Config.Embedding.Dimension); err != nil {
		return fmt.Errorf("コレクションの作成に失敗: %w", err)
	}

	fmt.Printf("コレクション %s を作成しました (次元数: %d)\n",
		appCtx.Config.Qdrant.Collection, appCtx.Config.Embedding.Dimension)
	return nil
}
