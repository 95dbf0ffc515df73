package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"splitledger/ledger"
	"splitledger/models"
	"splitledger/utils"
)

// POST /api/expenses
func (h *Handler) CreateExpense(c *gin.Context) {
	var req models.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BindError(c, err)
		return
	}

	ctx := c.Request.Context()
	ev, err := h.expenses.RecordExpense(ctx, req.ToLedger())
	if err != nil {
		h.fail(c, err, "Failed to create expense")
		return
	}
	h.notify(ev)

	response, err := h.buildExpenseResponse(ctx, h.newNames(), ev)
	if err != nil {
		h.fail(c, err, "Failed to create expense")
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "Expense added", response)
}

// GET /api/expenses/:id
func (h *Handler) GetExpense(c *gin.Context) {
	id, ok := paramID(c, "expense")
	if !ok {
		return
	}

	ev, found := h.ledger.Find(id)
	if !found || ev.Kind != ledger.KindExpense {
		utils.NotFound(c, "Expense not found")
		return
	}

	response, err := h.buildExpenseResponse(c.Request.Context(), h.newNames(), ev)
	if err != nil {
		h.fail(c, err, "Failed to fetch expense")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", response)
}

// GET /api/groups/:id/expenses
func (h *Handler) GetGroupExpenses(c *gin.Context) {
	id, ok := paramID(c, "group")
	if !ok {
		return
	}

	var pagination utils.PaginationQuery
	if err := c.ShouldBindQuery(&pagination); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	g, err := h.registry.Group(ctx, id)
	if err != nil {
		h.fail(c, err, "Failed to fetch expenses")
		return
	}

	var expenses []ledger.Event
	for _, ev := range newestFirst(h.ledger.ReplayForGroup(g.ID, g.MemberIDs)) {
		if ev.Kind == ledger.KindExpense {
			expenses = append(expenses, ev)
		}
	}

	names := h.newNames()
	page := utils.Paginate(expenses, pagination)
	response := make([]models.ExpenseResponse, len(page))
	for i, ev := range page {
		if response[i], err = h.buildExpenseResponse(ctx, names, ev); err != nil {
			h.fail(c, err, "Failed to fetch expenses")
			return
		}
	}
	utils.SuccessResponse(c, http.StatusOK, "", response)
}

func (h *Handler) buildExpenseResponse(ctx context.Context, names *nameCache, ev ledger.Event) (models.ExpenseResponse, error) {
	exp := *ev.Expense
	payer, err := names.user(ctx, exp.PaidBy)
	if err != nil {
		return models.ExpenseResponse{}, err
	}

	shares := make([]models.ShareResponse, len(exp.Shares))
	for i, s := range exp.Shares {
		name, err := names.user(ctx, s.UserID)
		if err != nil {
			return models.ExpenseResponse{}, err
		}
		shares[i] = models.ShareResponse{UserID: s.UserID, UserName: name, Amount: s.Amount}
	}

	return models.ExpenseResponse{
		Expense:   exp,
		Seq:       ev.Seq,
		PayerName: payer,
		Currency:  h.currency,
		Shares:    shares,
		CreatedAt: ev.RecordedAt,
	}, nil
}
