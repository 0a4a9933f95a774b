package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"easyfinances/internal/cache"
	"easyfinances/internal/core"
	"easyfinances/internal/errs"
	"easyfinances/internal/log"
	"easyfinances/internal/ports"
	"easyfinances/internal/recurrence"
)

const (
	slotTransactionList = "transactions:list"
	keyTransactionPage  = "transactions:page:"
	keyTransactionAll   = "transactions:all"
	keyPrefixTx         = "transactions:"

	maxListPages = 500
)

// TransactionBackend is the backend surface the service needs.
type TransactionBackend interface {
	ports.TransactionSource
	ports.TransactionWriter
}

// allLister is implemented by backends that page internally.
type allLister interface {
	ListAllTransactions(ctx context.Context) ([]core.Transaction, error)
}

// TransactionService runs the write path through the recurrence rules and
// caches reads. Concurrent page reads supersede each other; concurrent
// full-list reads share one backend fetch.
type TransactionService struct {
	backend  TransactionBackend
	expander *recurrence.Expander
	pages    cache.Cache[core.Page[core.Transaction]]
	all      cache.Cache[[]core.Transaction]
	latest   *cache.Latest
	group    singleflight.Group
	gen      atomic.Uint64
}

func NewTransactionService(
	backend TransactionBackend,
	expander *recurrence.Expander,
	pages cache.Cache[core.Page[core.Transaction]],
	all cache.Cache[[]core.Transaction],
) *TransactionService {
	if expander == nil {
		expander = recurrence.NewExpander(recurrence.DefaultHorizonMonths)
	}
	return &TransactionService{
		backend:  backend,
		expander: expander,
		pages:    pages,
		all:      all,
		latest:   cache.NewLatest(),
	}
}

// Preview validates a create request and returns the series dates without
// sending anything.
func (s *TransactionService) Preview(in core.TransactionInput) (recurrence.CreatePlan, error) {
	return s.expander.PrepareCreate(in)
}

// Create validates in, normalises its recurrence fields and posts it. The
// backend materialises the follow-on occurrences.
func (s *TransactionService) Create(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	plan, err := s.expander.PrepareCreate(in)
	if err != nil {
		return core.Transaction{}, err
	}

	created, err := s.backend.CreateTransaction(ctx, plan.Request)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	s.invalidate()

	slog.InfoContext(ctx, "Transaction created",
		log.FieldOperation, log.OpCreate,
		log.FieldTransactionID, created.ID,
		"recurring", plan.Request.IsRecurring,
		log.FieldOccurrences, len(plan.Occurrences))
	return created, nil
}

// Update edits id. With applyToFuture the edit propagates to the later
// occurrences of its series; on a standalone transaction that is rejected
// before any request is sent.
func (s *TransactionService) Update(ctx context.Context, id int64, in core.TransactionInput, applyToFuture bool) (core.Transaction, error) {
	current, err := s.backend.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("load transaction %d: %w", id, err)
	}

	plan, err := recurrence.ResolveEdit(current, in, applyToFuture)
	if err != nil {
		return core.Transaction{}, err
	}

	updated, err := s.backend.UpdateTransaction(ctx, plan.ID, plan.Request)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", id, err)
	}
	s.invalidate()

	slog.InfoContext(ctx, "Transaction updated",
		log.FieldOperation, log.OpUpdate,
		log.FieldTransactionID, id,
		log.FieldScope, plan.Scope)
	return updated, nil
}

func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	if err := s.backend.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	s.invalidate()
	slog.InfoContext(ctx, "Transaction deleted", log.FieldOperation, log.OpDelete, log.FieldTransactionID, id)
	return nil
}

func (s *TransactionService) Get(ctx context.Context, id int64) (core.Transaction, error) {
	return s.backend.GetTransaction(ctx, id)
}

// List returns one page. A newer List call cancels an older one still in
// flight, whose result is then discarded with cache.ErrSuperseded.
func (s *TransactionService) List(ctx context.Context, page int) (core.Page[core.Transaction], error) {
	if page < 1 {
		page = 1
	}
	key := keyTransactionPage + strconv.Itoa(page)
	if p, ok := s.pages.Get(key); ok {
		return p, nil
	}

	p, err := cache.Run(ctx, s.latest, slotTransactionList, func(ctx context.Context) (core.Page[core.Transaction], error) {
		return s.backend.ListTransactions(ctx, page)
	})
	if err != nil {
		return core.Page[core.Transaction]{}, err
	}
	s.pages.Set(key, p)
	return p, nil
}

// All returns every transaction across pages. Callers that overlap share
// the fetch in flight; each one still stops waiting when its own ctx ends.
func (s *TransactionService) All(ctx context.Context) ([]core.Transaction, error) {
	if txs, ok := s.all.Get(keyTransactionAll); ok {
		return txs, nil
	}

	ch := s.group.DoChan(keyTransactionAll, func() (any, error) {
		gen := s.gen.Load()
		fetchCtx := context.WithoutCancel(ctx)
		var (
			txs []core.Transaction
			err error
		)
		if l, ok := s.backend.(allLister); ok {
			txs, err = l.ListAllTransactions(fetchCtx)
		} else {
			txs, err = pageThrough(fetchCtx, s.backend)
		}
		if err != nil {
			return nil, err
		}
		if s.gen.Load() == gen {
			s.all.Set(keyTransactionAll, txs)
		}
		return txs, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]core.Transaction), nil
	}
}

// Search applies f client-side. An empty filter returns the requested page
// unchanged; otherwise every transaction is filtered and returned as a
// single page.
func (s *TransactionService) Search(ctx context.Context, page int, f TransactionFilter) (core.Page[core.Transaction], error) {
	if err := f.Validate(); err != nil {
		return core.Page[core.Transaction]{}, err
	}
	if f.IsEmpty() {
		return s.List(ctx, page)
	}
	txs, err := s.All(ctx)
	if err != nil {
		return core.Page[core.Transaction]{}, err
	}
	matched := f.Apply(txs)
	return core.Page[core.Transaction]{Count: len(matched), Results: matched}, nil
}

func (s *TransactionService) invalidate() {
	s.gen.Add(1)
	s.group.Forget(keyTransactionAll)
	s.pages.DeletePrefix(keyPrefixTx)
	s.all.DeletePrefix(keyPrefixTx)
}

func pageThrough(ctx context.Context, src ports.TransactionSource) ([]core.Transaction, error) {
	var out []core.Transaction
	for page := 1; page <= maxListPages; page++ {
		p, err := src.ListTransactions(ctx, page)
		if err != nil {
			if page > 1 && errs.IsNotFound(err) {
				break
			}
			return nil, err
		}
		out = append(out, p.Results...)
		if !p.HasNext() {
			break
		}
	}
	return out, nil
}

// IsSuperseded reports whether err is a discarded stale read.
func IsSuperseded(err error) bool {
	return errors.Is(err, cache.ErrSuperseded)
}
