// Package breaker 为协作方（文章源、交互日志）提供熔断保护。
//
// 协作方连续失败达到阈值后熔断打开，后续调用直接返回 UNAVAILABLE，
// 等待 Timeout 后进入半开状态放行少量探测请求。
package breaker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/rushteam/foryou/core"
)

// Config 熔断配置。
type Config struct {
	Name string `yaml:"name"`

	// MaxRequests 半开状态允许通过的请求数
	MaxRequests uint32 `yaml:"max_requests"`

	// Interval 闭合状态下计数清零周期，0 表示不清零
	Interval time.Duration `yaml:"interval"`

	// Timeout 打开状态持续时间，之后进入半开
	Timeout time.Duration `yaml:"timeout"`

	// FailureThreshold 连续失败多少次后打开
	FailureThreshold uint32 `yaml:"failure_threshold"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
	}
}

// New 创建熔断器，状态变化写入日志。
func New[T any](cfg Config, logger zerolog.Logger) *gobreaker.CircuitBreaker[T] {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultConfig(cfg.Name).FailureThreshold
	}
	logger = logger.With().Str("component", "breaker").Str("breaker", cfg.Name).Logger()
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			ev := logger.Info()
			if to == gobreaker.StateOpen {
				ev = logger.Warn()
			}
			ev.Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
		IsSuccessful: IsSuccessful,
	}
	return gobreaker.NewCircuitBreaker[T](settings)
}

// IsSuccessful 判断一次调用是否计为成功。
// 调用方取消和参数错误不是协作方故障，不计入失败次数。
func IsSuccessful(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	return core.IsInvalidInput(err)
}

// IsOpen 判断错误是否来自熔断器拒绝。
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func unavailable(module, msg string, err error) error {
	if err == nil || !IsOpen(err) {
		return err
	}
	return core.WrapDomainError(module, core.ErrorCodeUnavailable, msg, err)
}
