package dataloader

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/graph-gophers/dataloader"

	"github.com/UkralStul/course-qa-service/internal/domain"
	"github.com/UkralStul/course-qa-service/internal/storage"
)

type contextKey string

const key = contextKey("dataloaders")

// Loaders содержит все дата-лоадеры приложения.
type Loaders struct {
	CommentsByAnswerID *dataloader.Loader
	VotesByAnswerID    *dataloader.Loader
}

// New создает лоадеры поверх хранилища. Лоадеры живут в пределах одного запроса.
func New(store storage.Storage) *Loaders {
	comments := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		ids, err := answerIDs(keys)
		if err != nil {
			return fail(len(keys), err)
		}
		// Один запрос к БД на все ответы
		byAnswer, err := store.GetCommentsByAnswerIDs(ctx, ids)
		if err != nil {
			return fail(len(keys), err)
		}
		results := make([]*dataloader.Result, len(keys))
		for i, id := range ids {
			list := byAnswer[id]
			if list == nil {
				list = []*domain.Comment{}
			}
			results[i] = &dataloader.Result{Data: list}
		}
		return results
	}

	votes := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		ids, err := answerIDs(keys)
		if err != nil {
			return fail(len(keys), err)
		}
		counts, err := store.CountVotesByAnswerIDs(ctx, ids)
		if err != nil {
			return fail(len(keys), err)
		}
		results := make([]*dataloader.Result, len(keys))
		for i, id := range ids {
			results[i] = &dataloader.Result{Data: counts[id]}
		}
		return results
	}

	return &Loaders{
		CommentsByAnswerID: dataloader.NewBatchedLoader(comments, dataloader.WithWait(time.Millisecond*1)),
		VotesByAnswerID:    dataloader.NewBatchedLoader(votes, dataloader.WithWait(time.Millisecond*1)),
	}
}

// Middleware для внедрения лоадеров в контекст запроса.
func Middleware(store storage.Storage, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithLoaders(r.Context(), New(store))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithLoaders кладет лоадеры в контекст.
func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, key, loaders)
}

// For извлекает лоадеры из контекста.
func For(ctx context.Context) (*Loaders, bool) {
	loaders, ok := ctx.Value(key).(*Loaders)
	return loaders, ok
}

// FromContextOrNew возвращает лоадеры запроса, а вне HTTP-запроса создает новые.
func FromContextOrNew(ctx context.Context, store storage.Storage) *Loaders {
	if loaders, ok := For(ctx); ok {
		return loaders
	}
	return New(store)
}

// Key переводит id ответа в ключ лоадера.
func Key(id int64) dataloader.Key {
	return dataloader.StringKey(strconv.FormatInt(id, 10))
}

// Keys переводит список id в ключи лоадера.
func Keys(ids []int64) dataloader.Keys {
	keys := make(dataloader.Keys, len(ids))
	for i, id := range ids {
		keys[i] = Key(id)
	}
	return keys
}

// CommentsForAnswers загружает комментарии ответов пакетно, в порядке ids.
func (l *Loaders) CommentsForAnswers(ctx context.Context, ids []int64) ([][]*domain.Comment, error) {
	data, errs := l.CommentsByAnswerID.LoadMany(ctx, Keys(ids))()
	if err := firstError(errs); err != nil {
		return nil, err
	}
	out := make([][]*domain.Comment, len(data))
	for i, d := range data {
		out[i], _ = d.([]*domain.Comment)
	}
	return out, nil
}

// VotesForAnswers загружает счетчики голосов ответов пакетно, в порядке ids.
func (l *Loaders) VotesForAnswers(ctx context.Context, ids []int64) ([]domain.VoteCounts, error) {
	data, errs := l.VotesByAnswerID.LoadMany(ctx, Keys(ids))()
	if err := firstError(errs); err != nil {
		return nil, err
	}
	out := make([]domain.VoteCounts, len(data))
	for i, d := range data {
		out[i], _ = d.(domain.VoteCounts)
	}
	return out, nil
}

func answerIDs(keys dataloader.Keys) ([]int64, error) {
	ids := make([]int64, len(keys))
	for i, k := range keys {
		id, err := strconv.ParseInt(k.String(), 10, 64)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

// fail возвращает одну и ту же ошибку для всех ключей.
func fail(n int, err error) []*dataloader.Result {
	results := make([]*dataloader.Result, n)
	for i := range results {
		results[i] = &dataloader.Result{Error: err}
	}
	return results
}

func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
