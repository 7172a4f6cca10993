package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// IngestAction は教科書ディレクトリをベクトルストアへ取り込むコマンドのアクション
func IngestAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	docsPath := cmd.String("docs")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	// コレクションは取り込み前に存在していること
	exists, err := appCtx.Qdrant.CollectionExists(ctx)
	if err != nil {
		return fmt.Errorf("コレクションの確認に失敗: %w", err)
	}
	if !exists {
		if err := appCtx.Qdrant.CreateCollection(ctx, appCtx.Config.Embedding.Dimension); err != nil {
			return fmt.Errorf("コレクションの作成に失敗: %w", err)
		}
	}

	svc, err := appCtx.NewIngestionService()
	if err != nil {
		return err
	}

	report, err := svc.IngestDir(ctx, docsPath)
	if report != nil {
		fmt.Printf("ファイル数: %d\n", report.Files)
		fmt.Printf("チャンク数: %d\n", report.Chunks)
		fmt.Printf("登録済みポイント: %d\n", report.PointsUpserted)
		if report.PointsFailed > 0 || report.PointsSkipped > 0 {
			fmt.Printf("失敗ポイント: %d\n", report.PointsFailed)
			fmt.Printf("未処理ポイント: %d\n", report.PointsSkipped)
			if batch, ok := report.FailedBatch.Get(); ok {
				fmt.Printf("失敗バッチ番号: %d\n", batch)
			}
		}
	}
	if err != nil {
		return fmt.Errorf("取り込みに失敗: %w", err)
	}

	fmt.Println("取り込みが完了しました")
	return nil
}
