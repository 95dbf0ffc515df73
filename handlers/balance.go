package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"splitledger/ledger"
	"splitledger/models"
	"splitledger/utils"
)

// GET /api/users/:id/balances
func (h *Handler) GetUserBalances(c *gin.Context) {
	id, ok := paramID(c, "user")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	u, err := h.registry.User(ctx, id)
	if err != nil {
		h.fail(c, err, "Failed to calculate balances")
		return
	}

	head := h.ledger.Head()
	summary, hit := h.cache.Get(ctx, id, head)
	if !hit {
		if summary, err = h.balances.BalancesFor(ctx, id); err != nil {
			h.fail(c, err, "Failed to calculate balances")
			return
		}
		h.cache.Set(ctx, head, summary)
	}

	utils.SuccessResponse(c, http.StatusOK, "", models.UserBalanceSummary{
		Summary:  summary,
		Name:     u.Name,
		Currency: h.currency,
	})
}

type groupBalanceQuery struct {
	Simplify bool `form:"simplify"`
}

// GET /api/groups/:id/balances?simplify=true
func (h *Handler) GetGroupBalances(c *gin.Context) {
	id, ok := paramID(c, "group")
	if !ok {
		return
	}

	var q groupBalanceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	g, err := h.registry.Group(ctx, id)
	if err != nil {
		h.fail(c, err, "Failed to calculate balances")
		return
	}
	gb, err := h.balances.GroupDebts(ctx, id, q.Simplify)
	if err != nil {
		h.fail(c, err, "Failed to calculate balances")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", models.GroupBalanceSummary{
		GroupID:    g.ID,
		GroupName:  g.Name,
		Simplified: q.Simplify,
		Balances:   nonNil(gb.Debts),
		TotalSpent: gb.TotalSpent,
		Currency:   h.currency,
	})
}

// GET /api/balances
func (h *Handler) GetOverallBalances(c *gin.Context) {
	debts, err := h.balances.AllDebts(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to calculate balances")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", models.OverallBalanceSummary{
		Balances: nonNil(debts),
		Currency: h.currency,
	})
}

func nonNil(debts []ledger.Debt) []ledger.Debt {
	if debts == nil {
		return []ledger.Debt{}
	}
	return debts
}
