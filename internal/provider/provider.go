package provider

import (
	"context"

	"github.com/John-Robertt/doubanhot/internal/domain"
	"github.com/John-Robertt/doubanhot/internal/infra/httpx"
)

// Getter 是 provider 依赖的最小抓取能力（由 httpx.Fetcher 实现）。
type Getter interface {
	Get(ctx context.Context, url string, kind httpx.Kind) ([]byte, error)
}

// Provider 把“站点结构”限制在 provider 包内部；上层只依赖统一接口与稳定的 domain.Record。
//
// 约束：
// - Fetch 不做缓存、不做重试（重试由 Getter 统一实现）
// - Parse 必须是纯函数：相同输入 => 相同输出
type Provider interface {
	Category() domain.Category
	Fetch(ctx context.Context, g Getter) ([]byte, error)
	Parse(body []byte) ([]domain.Record, error)
}
