package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// FakeChatModel 按预设脚本应答的 ChatModel
type FakeChatModel struct {
	mu sync.Mutex

	// GenerateFunc 非流式应答；为空时返回 Reply
	GenerateFunc func(ctx context.Context, msgs []*schema.Message, opts ...model.Option) (*schema.Message, error)
	Reply        string

	// Chunks 流式应答的分片；StreamErrAfter >= 0 时在发送这么多分片后返回 StreamErr
	Chunks         []string
	StreamErrAfter int
	StreamErr      error
	// StreamOpenErr 打开流时直接失败
	StreamOpenErr error

	calls [][]*schema.Message
}

// NewFakeChatModel 创建不会注入流错误的模型
func NewFakeChatModel() *FakeChatModel {
	return &FakeChatModel{StreamErrAfter: -1}
}

func (f *FakeChatModel) record(msgs []*schema.Message) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, msgs)
	return len(f.calls)
}

// Calls 返回每次调用收到的消息
func (f *FakeChatModel) Calls() [][]*schema.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]*schema.Message, len(f.calls))
	copy(out, f.calls)
	return out
}

// LastPrompt 最近一次调用的用户消息
func (f *FakeChatModel) LastPrompt() string {
	calls := f.Calls()
	if len(calls) == 0 {
		return ""
	}
	msgs := calls[len(calls)-1]
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == schema.User {
			return msgs[i].Content
		}
	}
	return ""
}

func (f *FakeChatModel) Generate(ctx context.Context, msgs []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.record(msgs)
	if f.GenerateFunc != nil {
		return f.GenerateFunc(ctx, msgs, opts...)
	}
	return schema.AssistantMessage(f.Reply, nil), nil
}

func (f *FakeChatModel) Stream(ctx context.Context, msgs []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	f.record(msgs)
	if f.StreamOpenErr != nil {
		return nil, f.StreamOpenErr
	}

	sr, sw := schema.Pipe[*schema.Message](0)
	go func() {
		defer sw.Close()
		for i, chunk := range f.Chunks {
			if f.StreamErrAfter >= 0 && i == f.StreamErrAfter {
				sw.Send(nil, f.streamErr())
				return
			}
			if closed := sw.Send(schema.AssistantMessage(chunk, nil), nil); closed {
				return
			}
		}
		if f.StreamErrAfter >= len(f.Chunks) {
			sw.Send(nil, f.streamErr())
		}
	}()
	return sr, nil
}

func (f *FakeChatModel) streamErr() error {
	if f.StreamErr != nil {
		return f.StreamErr
	}
	return errors.New("upstream stream broke")
}

// FakeFactory 总是返回同一个模型
type FakeFactory struct {
	Model model.BaseChatModel
}

func (f *FakeFactory) Get(context.Context, string) (model.BaseChatModel, error) {
	if f.Model == nil {
		return nil, errors.New("no fake model configured")
	}
	return f.Model, nil
}

func (f *FakeFactory) ProviderName(name string) string {
	if name == "" {
		return "fake"
	}
	return name
}
