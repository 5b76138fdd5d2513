// Package saga 实现跨资源操作的补偿流程
//
// 典型场景：先把封面写入存储，再写数据库；数据库失败时删除已写入的文件。
// 每个步骤有正向操作和补偿操作，某步失败时按逆序补偿已完成的步骤。
package saga

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Step Saga中的一个步骤
// Action和Compensate都可以为nil（最后一步通常无需补偿）
type Step struct {
	Name       string
	Action     func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Saga 一次补偿事务
type Saga struct {
	name     string
	steps    []Step
	executed []Step
	timeout  time.Duration
}

// NewSaga 创建Saga，timeout<=0表示不限时
//
// 示例：
//
//	s := saga.NewSaga("create-book", 30*time.Second)
//	s.AddStep("保存封面", saveCover, removeCover)
//	s.AddStep("写入图书", createBook, nil)
//	err := s.Execute(ctx)
func NewSaga(name string, timeout time.Duration) *Saga {
	return &Saga{name: name, timeout: timeout}
}

// AddStep 添加步骤，按添加顺序执行，按逆序补偿
func (s *Saga) AddStep(name string, action, compensate func(ctx context.Context) error) *Saga {
	s.steps = append(s.steps, Step{Name: name, Action: action, Compensate: compensate})
	return s
}

// Execute 执行Saga
// 返回值保留失败步骤的原始错误（errors.Is/As可用），补偿失败的错误一并合并返回
func (s *Saga) Execute(ctx context.Context) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	for i, step := range s.steps {
		if err := ctx.Err(); err != nil {
			return multierr.Append(fmt.Errorf("saga[%s]超时: %w", s.name, err), s.compensate())
		}

		if step.Action != nil {
			if err := step.Action(ctx); err != nil {
				zap.L().Warn("saga步骤失败，开始补偿",
					zap.String("saga", s.name),
					zap.Int("step", i),
					zap.String("name", step.Name),
					zap.Error(err),
				)
				return multierr.Append(err, s.compensate())
			}
		}

		s.executed = append(s.executed, step)
	}

	return nil
}

// Executed 已完成的步骤名（按执行顺序）
func (s *Saga) Executed() []string {
	names := make([]string, len(s.executed))
	for i, step := range s.executed {
		names[i] = step.Name
	}
	return names
}

// compensate 逆序执行补偿，某个补偿失败不影响后续补偿
// 使用新的Context，避免补偿也因超时被取消
func (s *Saga) compensate() error {
	ctx := context.Background()

	var errs error
	for i := len(s.executed) - 1; i >= 0; i-- {
		step := s.executed[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			zap.L().Error("saga补偿失败，需人工处理",
				zap.String("saga", s.name),
				zap.String("name", step.Name),
				zap.Error(err),
			)
			errs = multierr.Append(errs, fmt.Errorf("补偿[%s]失败: %w", step.Name, err))
		}
	}

	s.executed = nil
	return errs
}
