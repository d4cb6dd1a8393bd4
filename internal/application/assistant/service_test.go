package assistant_test

import (
	"context"
	"errors"
	"testing"

	"book-factory/internal/application/assistant"
	"book-factory/internal/testutil"
	wfchain "book-factory/internal/workflow/chain"
	workflowprompt "book-factory/internal/workflow/prompt"
	apperrors "book-factory/pkg/errors"
)

// mapCache 内存版读穿缓存
type mapCache struct {
	data  map[string]string
	loads int
}

func (c *mapCache) Key(parts ...string) string {
	key := ""
	for _, p := range parts {
		key += p + "|"
	}
	return key
}

func (c *mapCache) GetOrLoad(ctx context.Context, key string, loader func(ctx context.Context) (string, error)) (string, error) {
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	c.loads++
	v, err := loader(ctx)
	if err != nil {
		return "", err
	}
	c.data[key] = v
	return v, nil
}

func newService(m *testutil.FakeChatModel, cache assistant.Cache) *assistant.Service {
	chain := wfchain.NewAssistantChain(&testutil.FakeFactory{Model: m}, workflowprompt.NewRegistry("english"))
	return assistant.NewService(chain, cache, "english")
}

func TestCommentIsCached(t *testing.T) {
	m := testutil.NewFakeChatModel()
	m.Reply = "  Onions and artillery, what a combo.  "
	cache := &mapCache{data: map[string]string{}}
	svc := newService(m, cache)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if got := svc.Comment(ctx, assistant.StepIdea, "a cook in WW2"); got != "Onions and artillery, what a combo." {
			t.Fatalf("Comment() = %q", got)
		}
	}
	if cache.loads != 1 || len(m.Calls()) != 1 {
		t.Fatalf("loads = %d, model calls = %d", cache.loads, len(m.Calls()))
	}
}

func TestCommentSwallowsErrors(t *testing.T) {
	m := testutil.NewFakeChatModel()
	svc := assistant.NewService(
		wfchain.NewAssistantChain(&testutil.FakeFactory{}, workflowprompt.NewRegistry("english")),
		nil, "english")

	if got := svc.Comment(context.Background(), assistant.StepTitle, "Onions"); got != "" {
		t.Fatalf("Comment() = %q, want empty", got)
	}
	if got := newService(m, nil).Comment(context.Background(), assistant.StepTitle, "   "); got != "" {
		t.Fatalf("Comment(blank) = %q", got)
	}
}

func TestSuggest(t *testing.T) {
	m := testutil.NewFakeChatModel()
	m.Reply = "The Last Ration"
	svc := newService(m, nil)

	got, err := svc.Suggest(context.Background(), "title", "a cook in WW2")
	if err != nil || got != "The Last Ration" {
		t.Fatalf("Suggest() = %q, %v", got, err)
	}
	if _, err := svc.Suggest(context.Background(), " ", ""); !errors.Is(err, apperrors.ErrInvalidParam) {
		t.Fatalf("Suggest(blank) error = %v", err)
	}
}
