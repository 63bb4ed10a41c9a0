package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// ==================== 类型定义 ====================

// ChargeRequest 扣款请求
type ChargeRequest struct {
	OrderNo     string `json:"order_no"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Method      string `json:"method"` // card | trade_credit | cod
	CustomerRef string `json:"customer_ref"`
}

// ChargeResult 扣款结果
type ChargeResult struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"` // approved | declined
}

// Gateway 支付网关抽象
type Gateway interface {
	// Charge 同步扣款，拒绝时返回 ErrDeclined
	Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error)
	// Refund 按金额退款（取消订单时调用）
	Refund(ctx context.Context, transactionID string, amountCents int64) error
}

// Config 网关初始化参数
type Config struct {
	Provider         string // mock | gateway
	GatewayURL       string
	APIKey           string
	Timeout          time.Duration
	MockDeclineCents int64
}

// New 按 Provider 创建对应网关实现
func New(cfg Config) (Gateway, error) {
	switch cfg.Provider {
	case "mock", "":
		return &mockGateway{declineCents: cfg.MockDeclineCents}, nil
	case "gateway":
		if cfg.GatewayURL == "" {
			return nil, errors.New("payment.gateway_url 未配置")
		}
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client := resty.New().
			SetBaseURL(cfg.GatewayURL).
			SetTimeout(timeout).
			SetHeader("Authorization", "Bearer "+cfg.APIKey).
			SetHeader("User-Agent", "BuildMart-Go-App/1.0")
		return &httpGateway{client: client}, nil
	default:
		return nil, fmt.Errorf("不支持的支付提供方: %s", cfg.Provider)
	}
}

// ==================== Mock 实现 ====================

// mockGateway 内置审批逻辑，开发与测试环境使用
// 金额达到 declineCents 时拒绝，否则批准（declineCents=0 表示永不拒绝）
type mockGateway struct {
	declineCents int64
}

func (g *mockGateway) Charge(_ context.Context, req *ChargeRequest) (*ChargeResult, error) {
	if req.AmountCents <= 0 {
		return nil, fmt.Errorf("非法扣款金额: %d", req.AmountCents)
	}
	if g.declineCents > 0 && req.AmountCents >= g.declineCents {
		return nil, ErrDeclined
	}
	return &ChargeResult{
		TransactionID: "mock_" + uuid.NewString(),
		Status:        "approved",
	}, nil
}

func (g *mockGateway) Refund(_ context.Context, transactionID string, amountCents int64) error {
	if transactionID == "" {
		return errors.New("缺少交易号")
	}
	return nil
}

// ==================== HTTP 网关实现 ====================

type httpGateway struct {
	client *resty.Client
}

type gatewayChargeResp struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Message       string `json:"message"`
}

func (g *httpGateway) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	var res gatewayChargeResp
	var errResp map[string]interface{}

	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&res).
		SetError(&errResp).
		Post("/v1/charges")
	if err != nil {
		return nil, fmt.Errorf("支付网关请求失败: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("支付网关返回 %d: %v", resp.StatusCode(), errResp)
	}
	if res.Status != "approved" {
		return nil, ErrDeclined
	}

	return &ChargeResult{TransactionID: res.TransactionID, Status: res.Status}, nil
}

func (g *httpGateway) Refund(ctx context.Context, transactionID string, amountCents int64) error {
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"transaction_id": transactionID,
			"amount_cents":   amountCents,
		}).
		Post("/v1/refunds")
	if err != nil {
		return fmt.Errorf("支付网关请求失败: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("退款失败，网关返回 %d", resp.StatusCode())
	}
	return nil
}

// ==================== 错误定义 ====================

var (
	// ErrDeclined 网关拒绝扣款
	ErrDeclined = errors.New("支付被拒绝")
)
