package chapter

import (
	"context"
	"fmt"
	"strings"

	"book-factory/internal/domain/entity"
	"book-factory/internal/domain/repository"
	"book-factory/pkg/logger"
	"book-factory/pkg/metrics"
	"book-factory/pkg/tracer"
)

// FinalizeJob 一次分段写作的落库任务
type FinalizeJob struct {
	BookID    string
	ChapterID string
	Part      entity.ChapterPart
	Text      string
}

// Finalizer 把流式累计的文本写回章节并推进状态
type Finalizer struct {
	chapters repository.ChapterRepository
	tx       repository.Transactor
}

// NewFinalizer 创建落库器；它只依赖仓储，不持有请求级别的会话
func NewFinalizer(chapters repository.ChapterRepository, tx repository.Transactor) *Finalizer {
	return &Finalizer{chapters: chapters, tx: tx}
}

// Finalize 第一部分覆盖正文并置为 part1_completed，第二部分追加并置为 completed。
// 章节已被删除时记录日志并跳过。
func (f *Finalizer) Finalize(ctx context.Context, job *FinalizeJob) error {
	ctx, span := tracer.Start(ctx, "chapter.Finalizer.Finalize")
	defer span.End()
	ctx = logger.WithChapter(ctx, job.BookID, job.ChapterID)

	if !job.Part.Valid() {
		metrics.ChapterFinalizeTotal.WithLabelValues(job.Part.String(), "invalid").Inc()
		return fmt.Errorf("invalid part %d", job.Part)
	}

	var skipped bool
	err := f.tx.WithTransaction(ctx, func(ctx context.Context) error {
		ch, err := f.chapters.GetForUpdate(ctx, job.ChapterID)
		if err != nil {
			return err
		}
		if ch == nil {
			skipped = true
			return nil
		}
		ch.ApplyPart(job.Part, job.Text)
		return f.chapters.Update(ctx, ch)
	})
	if err != nil {
		span.RecordError(err)
		metrics.ChapterFinalizeTotal.WithLabelValues(job.Part.String(), "failed").Inc()
		logger.Error(ctx, "failed to finalize chapter part", err, "part", int(job.Part))
		return err
	}
	if skipped {
		metrics.ChapterFinalizeTotal.WithLabelValues(job.Part.String(), "skipped").Inc()
		logger.Warn(ctx, "chapter vanished before finalize, skipping", "part", int(job.Part))
		return nil
	}

	words := len(strings.Fields(job.Text))
	metrics.ChapterFinalizeTotal.WithLabelValues(job.Part.String(), "success").Inc()
	metrics.ChapterWordCount.WithLabelValues(job.Part.String()).Observe(float64(words))
	logger.Info(ctx, "chapter part finalized", "part", int(job.Part), "words", words)
	return nil
}
