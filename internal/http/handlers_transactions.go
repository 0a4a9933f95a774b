package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"easyfinances/internal/core"
	"easyfinances/internal/log"
)

// previewResponse lists the dates a create would materialise.
type previewResponse struct {
	Request     core.TransactionInput `json:"request"`
	Occurrences []core.Date           `json:"occurrences"`
}

type transactionHandlers struct {
	ResponseHandler ResponseHandler
	TransactionSvc  transactionService
}

func NewTransactionHandlers(deps *Deps) *transactionHandlers {
	return &transactionHandlers{
		ResponseHandler: deps.ResponseHandler,
		TransactionSvc:  deps.TransactionSvc,
	}
}

func (h *transactionHandlers) TransactionRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListTransactions)
	r.Post("/", h.CreateTransaction)
	r.Post("/preview", h.PreviewTransaction)
	r.Get("/{id}", h.GetTransaction)
	r.Put("/{id}", h.UpdateTransaction)
	r.Delete("/{id}", h.DeleteTransaction)
	return r
}

// ListTransactions returns one backend page, or every match as a single
// page when any filter is set.
func (h *transactionHandlers) ListTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, err := ParsePage(query)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	filter, err := ParseTransactionFilter(query)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	p, err := h.TransactionSvc.Search(r.Context(), page, filter)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	if p.Results == nil {
		p.Results = []core.Transaction{}
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, p)
}

func (h *transactionHandlers) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r, "id")
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	tx, err := h.TransactionSvc.Get(r.Context(), id)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, tx)
}

func (h *transactionHandlers) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var in core.TransactionInput
	if err := DecodeJSON(w, r, &in); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	in.Description = sanitizeInput(in.Description)

	created, err := h.TransactionSvc.Create(r.Context(), in)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Transaction created via API",
		log.NewFields().WithOperation(log.OpCreate).WithTransaction(created).ToSlice()...)
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, created)
}

func (h *transactionHandlers) PreviewTransaction(w http.ResponseWriter, r *http.Request) {
	var in core.TransactionInput
	if err := DecodeJSON(w, r, &in); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	in.Description = sanitizeInput(in.Description)

	plan, err := h.TransactionSvc.Preview(in)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	resp := previewResponse{Request: plan.Request, Occurrences: make([]core.Date, 0, len(plan.Occurrences))}
	for _, o := range plan.Occurrences {
		resp.Occurrences = append(resp.Occurrences, o.Date)
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, resp)
}

// UpdateTransaction reads apply_to_future from the body; absent means the
// edit only touches this occurrence.
func (h *transactionHandlers) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r, "id")
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	var in core.TransactionInput
	if err := DecodeJSON(w, r, &in); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	in.Description = sanitizeInput(in.Description)
	applyToFuture := in.ApplyToFuture != nil && *in.ApplyToFuture
	in.ApplyToFuture = nil

	updated, err := h.TransactionSvc.Update(r.Context(), id, in, applyToFuture)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, updated)
}

func (h *transactionHandlers) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r, "id")
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	if err := h.TransactionSvc.Delete(r.Context(), id); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}
