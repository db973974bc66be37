// Package retry 提供一次性初始化步驟使用的有限次數重試
// 不是通用的重試框架：只做「嘗試 N 次，失敗則回傳最後一次的錯誤」
package retry

import (
	"context"
	"fmt"
	"time"
)

// Do 執行 fn 最多 attempts 次，每次失敗後等待 interval
//
// 參數:
//
//	ctx: 上下文，取消時立即停止並回傳最後一次錯誤
//	attempts: 最多嘗試次數 (< 1 視為 1)
//	interval: 兩次嘗試之間的等待時間
//	fn: 要執行的動作，參數為第幾次嘗試 (從 1 開始)
//
// 回傳:
//
//	error: 全部失敗時包裝最後一次的錯誤
func Do(ctx context.Context, attempts int, interval time.Duration, fn func(attempt int) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 1; i <= attempts; i++ {
		if err = fn(i); err == nil {
			return nil
		}
		if i == attempts {
			break
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("gave up after %d/%d attempts (%v): %w", i, attempts, ctx.Err(), err)
		case <-timer.C:
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, err)
}
