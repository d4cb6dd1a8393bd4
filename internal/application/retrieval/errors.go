package retrieval

import "errors"

var (
	// ErrVectorDisabled Milvus 或 Embedder 未配置
	ErrVectorDisabled = errors.New("vector retrieval is disabled")

	errNoQueryVector = errors.New("embedder returned no vector")
)
