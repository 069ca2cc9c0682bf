package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"moneta/internal/cycle"
	apperrors "moneta/internal/errors"
	"moneta/internal/services"
)

// ExpenseHandler handles expense-related requests.
type ExpenseHandler struct {
	expenseService services.ExpenseServicer
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(expenseService services.ExpenseServicer) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

// CreateExpenseRequest represents the request payload for booking an expense.
type CreateExpenseRequest struct {
	CategoryID  string          `json:"category_id" binding:"required,uuid"`
	Amount      decimal.Decimal `json:"amount" binding:"required,positive_decimal" swaggertype:"string" example:"12.50"`
	Description string          `json:"description" binding:"max=500"`
	Date        string          `json:"date" binding:"omitempty,datetime=2006-01-02" example:"2024-03-10"`
}

// UpdateExpenseRequest represents the request payload for changing an expense.
type UpdateExpenseRequest struct {
	CategoryID  string          `json:"category_id" binding:"required,uuid"`
	Amount      decimal.Decimal `json:"amount" binding:"required,positive_decimal" swaggertype:"string" example:"12.50"`
	Description string          `json:"description" binding:"max=500"`
	Date        string          `json:"date" binding:"required,datetime=2006-01-02" example:"2024-03-10"`
}

// TotalsQuery selects the period of a totals request. Both dates are given
// or neither, in which case the current cycle is used.
type TotalsQuery struct {
	StartDate string `form:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   string `form:"end_date" binding:"omitempty,datetime=2006-01-02"`
}

// CreateExpense handles booking a new expense.
// @Summary     Create an expense
// @Description Book an expense against a category. The date defaults to today.
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateExpenseRequest true "Expense details"
// @Success     201 {object} models.Expense "Expense created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses [post]
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.CreateExpense(
		c.Request.Context(), userID, req.CategoryID, req.Amount, req.Description, date,
	)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"expense": expense})
}

// GetCurrentCycleExpenses handles listing the expenses of today's cycle.
// @Summary     Get current cycle expenses
// @Description Get the expenses dated inside the cycle that contains today, newest first
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.Expense "Expenses"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/current-cycle [get]
func (h *ExpenseHandler) GetCurrentCycleExpenses(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenses, err := h.expenseService.GetCurrentCycleExpenses(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expenses": expenses})
}

// GetExpense handles fetching a single expense.
// @Summary     Get expense by ID
// @Description Get a specific expense with its category
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} models.Expense "Expense details"
// @Failure     400 {object} ErrorResponse "Invalid expense ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/{id} [get]
func (h *ExpenseHandler) GetExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.GetExpense(c.Request.Context(), userID, expenseID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// UpdateExpense handles changing an expense.
// @Summary     Update expense
// @Description Replace the category, amount, description and date of an expense
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string               true "Expense ID"
// @Param       request body UpdateExpenseRequest true "Expense details"
// @Success     200 {object} models.Expense "Expense updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Expense or category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/{id} [put]
func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.UpdateExpense(
		c.Request.Context(), userID, expenseID, req.CategoryID, req.Amount, req.Description, date,
	)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// GetTotal handles summing expenses over a period.
// @Summary     Get total spending
// @Description Sum the expenses dated between start_date and end_date inclusive. Without dates the current cycle is used.
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       start_date query string false "Period start (YYYY-MM-DD)"
// @Param       end_date   query string false "Period end (YYYY-MM-DD)"
// @Success     200 {object} models.ExpenseTotal "Total spending"
// @Failure     400 {object} ErrorResponse "Invalid date range"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/total [get]
func (h *ExpenseHandler) GetTotal(c *gin.Context) {
	userID, from, to, err := bindTotalsQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	total, err := h.expenseService.GetTotal(c.Request.Context(), userID, from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, total)
}

// GetCategoryTotals handles summing expenses per category over a period.
// @Summary     Get spending by category
// @Description Sum the period's expenses per category, ordered by category name. Without dates the current cycle is used.
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       start_date query string false "Period start (YYYY-MM-DD)"
// @Param       end_date   query string false "Period end (YYYY-MM-DD)"
// @Success     200 {array}  models.CategoryTotal "Spending per category"
// @Failure     400 {object} ErrorResponse "Invalid date range"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/total/category [get]
func (h *ExpenseHandler) GetCategoryTotals(c *gin.Context) {
	userID, from, to, err := bindTotalsQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	totals, err := h.expenseService.GetCategoryTotals(c.Request.Context(), userID, from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"totals": totals})
}

// GetDailyTotals handles summing expenses per day over a period.
// @Summary     Get daily spending
// @Description Sum the period's expenses per day, oldest first. Without dates the current cycle is used.
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       start_date query string false "Period start (YYYY-MM-DD)"
// @Param       end_date   query string false "Period end (YYYY-MM-DD)"
// @Success     200 {array}  models.DailyTotal "Spending per day"
// @Failure     400 {object} ErrorResponse "Invalid date range"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/total/daily [get]
func (h *ExpenseHandler) GetDailyTotals(c *gin.Context) {
	userID, from, to, err := bindTotalsQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	totals, err := h.expenseService.GetDailyTotals(c.Request.Context(), userID, from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"totals": totals})
}

// DeleteExpense handles deleting an expense.
// @Summary     Delete expense
// @Description Delete an expense by ID
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} MessageResponse "Expense deleted"
// @Failure     400 {object} ErrorResponse "Invalid expense ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.expenseService.DeleteExpense(c.Request.Context(), userID, expenseID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Expense deleted successfully"})
}

func bindTotalsQuery(c *gin.Context) (userID string, from, to time.Time, err error) {
	userID, err = getUserID(c)
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}

	var q TotalsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return "", time.Time{}, time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	if from, err = parseDate(q.StartDate); err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	if to, err = parseDate(q.EndDate); err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	return userID, from, to, nil
}

// parseDate reads a YYYY-MM-DD date. An empty string is the zero time.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	date, err := time.Parse(cycle.DateLayout, s)
	if err != nil {
		return time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "date must be YYYY-MM-DD")
	}
	return date, nil
}
