package chapter

import (
	"context"
	"errors"
	"io"
	"strings"

	wfchain "book-factory/internal/workflow/chain"
	"book-factory/pkg/logger"
	"book-factory/pkg/metrics"
)

// EventType SSE 事件名
type EventType string

const (
	EventMessage  EventType = "message"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// Event 流式生成产生的事件。
// message 的 Data 是本次分片，complete 的 Data 是累计全文，error 携带 Err。
type Event struct {
	Type EventType
	Data string
	Err  error
}

// EmitFunc 接收事件；返回错误表示调用方已不再接收
type EmitFunc func(Event) error

// Streamer 把模型流转换为事件序列
type Streamer struct {
	chain *wfchain.ChapterChain
}

// NewStreamer 创建流式生成器
func NewStreamer(chain *wfchain.ChapterChain) *Streamer {
	return &Streamer{chain: chain}
}

// Stream 逐片转发模型输出。
// 上游正常结束时发出一个 complete；上游出错时发出一个 error 并停止，不重试；
// ctx 取消或 emit 失败时直接返回，不发终止事件。
func (s *Streamer) Stream(ctx context.Context, prompt *Prompt, emit EmitFunc) (string, error) {
	metrics.ActiveStreams.Inc()
	defer metrics.ActiveStreams.Dec()

	sr, err := s.chain.StreamMessages(ctx, prompt.Input.LLMOptions, prompt.Messages)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		logger.Error(ctx, "failed to open chapter stream", err)
		return "", s.fail(err, emit)
	}
	defer sr.Close()

	var sb strings.Builder
	for {
		msg, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			logger.Info(ctx, "chapter stream abandoned by client", "received_chars", sb.Len())
			return sb.String(), ctxErr
		}
		if err != nil {
			logger.Error(ctx, "chapter stream failed", err, "received_chars", sb.Len())
			return sb.String(), s.fail(err, emit)
		}
		if msg == nil || msg.Content == "" {
			continue
		}

		sb.WriteString(msg.Content)
		metrics.ChapterStreamEvents.WithLabelValues(string(EventMessage)).Inc()
		if err := emit(Event{Type: EventMessage, Data: msg.Content}); err != nil {
			return sb.String(), err
		}
	}

	text := sb.String()
	metrics.ChapterStreamEvents.WithLabelValues(string(EventComplete)).Inc()
	if err := emit(Event{Type: EventComplete, Data: text}); err != nil {
		return text, err
	}
	return text, nil
}

func (s *Streamer) fail(err error, emit EmitFunc) error {
	metrics.ChapterStreamEvents.WithLabelValues(string(EventError)).Inc()
	if emitErr := emit(Event{Type: EventError, Err: err}); emitErr != nil {
		return errors.Join(err, emitErr)
	}
	return err
}
