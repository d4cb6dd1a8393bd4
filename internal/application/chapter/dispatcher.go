package chapter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"book-factory/internal/config"
	"book-factory/internal/domain/entity"
	"book-factory/internal/infrastructure/messaging"
	"book-factory/pkg/logger"
)

const defaultFinalizeTimeout = 30 * time.Second

// Dispatcher 把落库任务移出请求路径
type Dispatcher interface {
	// Dispatch 不阻塞、不返回错误：调用方此时已无法处理失败
	Dispatch(ctx context.Context, job *FinalizeJob)
	// Wait 等待进程内尚未完成的任务，ctx 到期时返回其错误
	Wait(ctx context.Context) error
}

// InProcessDispatcher 在独立 goroutine 中落库
type InProcessDispatcher struct {
	finalizer *Finalizer
	timeout   time.Duration
	wg        sync.WaitGroup
}

// NewInProcessDispatcher 创建进程内分发器
func NewInProcessDispatcher(finalizer *Finalizer, timeout time.Duration) *InProcessDispatcher {
	if timeout <= 0 {
		timeout = defaultFinalizeTimeout
	}
	return &InProcessDispatcher{finalizer: finalizer, timeout: timeout}
}

// Dispatch 任务与请求解绑：请求结束或客户端断开都不会取消它
func (d *InProcessDispatcher) Dispatch(ctx context.Context, job *FinalizeJob) {
	jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				logger.Error(jobCtx, "chapter finalize panicked", fmt.Errorf("%v", r))
			}
		}()
		// 错误已在 Finalize 内记录
		_ = d.finalizer.Finalize(jobCtx, job)
	}()
}

// Wait 等待全部进行中的任务
func (d *InProcessDispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FinalizePublisher 发布落库消息
type FinalizePublisher interface {
	PublishChapterFinalize(ctx context.Context, job *messaging.ChapterFinalizeMessage) (string, error)
}

// StreamDispatcher 发布到 Redis Stream，由 finalize-worker 消费；发布失败时退回进程内落库
type StreamDispatcher struct {
	publisher FinalizePublisher
	fallback  *InProcessDispatcher
}

// NewStreamDispatcher 创建队列分发器
func NewStreamDispatcher(publisher FinalizePublisher, fallback *InProcessDispatcher) *StreamDispatcher {
	return &StreamDispatcher{publisher: publisher, fallback: fallback}
}

// Dispatch 发布落库消息
func (d *StreamDispatcher) Dispatch(ctx context.Context, job *FinalizeJob) {
	pubCtx := context.WithoutCancel(ctx)
	id, err := d.publisher.PublishChapterFinalize(pubCtx, &messaging.ChapterFinalizeMessage{
		BookID:    job.BookID,
		ChapterID: job.ChapterID,
		Part:      int(job.Part),
		Text:      job.Text,
	})
	if err != nil {
		logger.Error(pubCtx, "failed to publish chapter finalize, finalizing in process", err,
			"chapter_id", job.ChapterID)
		d.fallback.Dispatch(pubCtx, job)
		return
	}
	logger.Debug(pubCtx, "chapter finalize queued", "chapter_id", job.ChapterID, "message_id", id)
}

// Wait 只需等待回退到进程内的任务
func (d *StreamDispatcher) Wait(ctx context.Context) error {
	return d.fallback.Wait(ctx)
}

// NewDispatcher 按 book.finalize_mode 选择实现；publisher 为 nil 时总是进程内落库
func NewDispatcher(cfg config.BookConfig, finalizer *Finalizer, publisher FinalizePublisher) Dispatcher {
	inProcess := NewInProcessDispatcher(finalizer, cfg.FinalizeTimeout)
	if cfg.FinalizeMode == config.FinalizeStream && publisher != nil {
		return NewStreamDispatcher(publisher, inProcess)
	}
	return inProcess
}

// NewFinalizeHandler 供 Redis Stream 消费者使用的处理函数；返回错误会触发重试
func NewFinalizeHandler(finalizer *Finalizer) messaging.MessageHandler {
	return func(ctx context.Context, msg *messaging.Message) error {
		var payload messaging.ChapterFinalizeMessage
		if err := msg.UnmarshalPayload(&payload); err != nil {
			return fmt.Errorf("failed to decode finalize payload: %w", err)
		}
		return finalizer.Finalize(ctx, &FinalizeJob{
			BookID:    payload.BookID,
			ChapterID: payload.ChapterID,
			Part:      entity.ChapterPart(payload.Part),
			Text:      payload.Text,
		})
	}
}
