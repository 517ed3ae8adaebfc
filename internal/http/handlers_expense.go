package http

import (
	"errors"
	"net/http"
	"strconv"

	"expenses/internal/log"
	"expenses/internal/services"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	p, err := parsePeriod(r)
	if err != nil {
		BadRequestError("Invalid period", err.Error()).Write(w)
		return
	}

	list, err := s.expenses.ListExpenses(r.Context(), p, s.now())
	if err != nil {
		log.LogError(r.Context(), "Failed to list expenses", err, log.ComponentExpense, log.OpList,
			log.LogFields{log.FieldPeriod: p.String()})
		internalError(w, r, "Failed to load expenses")
		return
	}

	NewJSONResponse().Data(map[string]any{
		"period":   p,
		"count":    len(list),
		"expenses": toExpensesJSON(list),
	}).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	in, err := ParseExpenseInput(r)
	if err != nil {
		s.writeInputError(w, r, err, "Failed to add")
		return
	}

	res, err := s.expenses.CreateExpense(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to add", log.OpCreate)
		return
	}

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/expenses/"+strconv.FormatInt(res.ID, 10)).
		Data(map[string]int64{"id": res.ID, "rowsAffected": res.RowsAffected}).
		Success("Expense added").
		Write(w)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		BadRequestError("Invalid expense id", err.Error()).Write(w)
		return
	}

	e, err := s.expenses.GetExpense(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to load expense", log.OpRead)
		return
	}

	NewJSONResponse().Data(toExpenseJSON(e)).Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		BadRequestError("Invalid expense id", err.Error()).Write(w)
		return
	}

	in, err := ParseExpenseInput(r)
	if err != nil {
		s.writeInputError(w, r, err, "Failed to update")
		return
	}

	if err := s.expenses.UpdateExpense(r.Context(), id, in); err != nil {
		s.writeServiceError(w, r, err, "Failed to update", log.OpUpdate)
		return
	}

	NewJSONResponse().
		Data(map[string]int64{"id": id, "rowsAffected": 1}).
		Success("Expense updated").
		Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		BadRequestError("Invalid expense id", err.Error()).Write(w)
		return
	}

	if err := s.expenses.DeleteExpense(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err, "Failed to delete", log.OpDelete)
		return
	}

	NewJSONResponse().
		Data(map[string]int64{"id": id, "rowsAffected": 1}).
		Success("Expense deleted").
		Write(w)
}

func (s *Server) handleTotal(w http.ResponseWriter, r *http.Request) {
	total, err := s.expenses.Total(r.Context())
	if err != nil {
		log.LogError(r.Context(), "Failed to sum expenses", err, log.ComponentExpense, log.OpTotal, nil)
		internalError(w, r, "Failed to load total")
		return
	}

	NewJSONResponse().Data(toTotalJSON(total)).Write(w)
}

// writeInputError answers a body that could not be parsed into an expense.
func (s *Server) writeInputError(w http.ResponseWriter, r *http.Request, err error, message string) {
	var fe *FieldError
	if errors.As(err, &fe) {
		UnprocessableEntityError(message, err.Error()).Write(w)
		return
	}
	BadRequestError(message, err.Error()).Write(w)
}

// writeServiceError maps service errors to status codes. Unexpected errors
// are logged and their details withheld.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, message, op string) {
	switch {
	case errors.Is(err, services.ErrInvalidExpense):
		UnprocessableEntityError(message, err.Error()).Write(w)
	case errors.Is(err, services.ErrExpenseNotFound):
		NotFoundError("Expense not found").Write(w)
	default:
		log.LogError(r.Context(), "Expense operation failed", err, log.ComponentExpense, op, nil)
		internalError(w, r, message)
	}
}
