package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"splitledger/ledger"
	"splitledger/models"
	"splitledger/utils"
)

type activityQuery struct {
	utils.PaginationQuery
	UserID string `form:"userId"`
}

// GET /api/activity, optionally filtered by ?userId=
func (h *Handler) GetActivity(c *gin.Context) {
	var q activityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	events := h.ledger.Replay()
	if q.UserID != "" {
		id, err := utils.ParseUUID(q.UserID)
		if err != nil {
			utils.BadRequest(c, "Invalid user ID")
			return
		}
		if _, err := h.registry.User(ctx, id); err != nil {
			h.fail(c, err, "Failed to fetch activity")
			return
		}
		var mine []ledger.Event
		for _, ev := range events {
			if ev.Involves(id) {
				mine = append(mine, ev)
			}
		}
		events = mine
	}

	h.respondActivity(c, events, q.PaginationQuery)
}

// GET /api/groups/:id/activity
func (h *Handler) GetGroupActivity(c *gin.Context) {
	id, ok := paramID(c, "group")
	if !ok {
		return
	}

	var pagination utils.PaginationQuery
	if err := c.ShouldBindQuery(&pagination); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	g, err := h.registry.Group(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "Failed to fetch activity")
		return
	}
	h.respondActivity(c, h.ledger.ReplayForGroup(g.ID, g.MemberIDs), pagination)
}

func (h *Handler) respondActivity(c *gin.Context, events []ledger.Event, p utils.PaginationQuery) {
	ctx := c.Request.Context()
	names := h.newNames()
	groups := make(map[uuid.UUID]string)

	page := utils.Paginate(newestFirst(events), p)
	activities := make([]models.Activity, len(page))
	for i, ev := range page {
		a, err := h.describe(ctx, names, groups, ev)
		if err != nil {
			h.fail(c, err, "Failed to fetch activity")
			return
		}
		activities[i] = a
	}
	utils.SuccessResponse(c, http.StatusOK, "", activities)
}

func (h *Handler) describe(ctx context.Context, names *nameCache, groups map[uuid.UUID]string, ev ledger.Event) (models.Activity, error) {
	a := models.Activity{Seq: ev.Seq, ReferenceID: ev.ID(), CreatedAt: ev.RecordedAt}

	switch ev.Kind {
	case ledger.KindExpense:
		exp := ev.Expense
		payer, err := names.user(ctx, exp.PaidBy)
		if err != nil {
			return a, err
		}
		groupName, ok := groups[exp.GroupID]
		if !ok {
			g, err := h.registry.Group(ctx, exp.GroupID)
			if err != nil {
				return a, err
			}
			groupName = g.Name
			groups[exp.GroupID] = groupName
		}
		gid := exp.GroupID
		a.Type = "expense_added"
		a.GroupID = &gid
		a.GroupName = groupName
		a.UserID = exp.PaidBy
		a.UserName = payer
		a.Amount = exp.Amount
		a.Description = fmt.Sprintf("%s added %q (%s %s)", payer, exp.Description, h.currency, exp.Amount)

	case ledger.KindSettlement:
		s := ev.Settlement
		from, err := names.user(ctx, s.FromUserID)
		if err != nil {
			return a, err
		}
		to, err := names.user(ctx, s.ToUserID)
		if err != nil {
			return a, err
		}
		a.Type = "settlement"
		a.UserID = s.FromUserID
		a.UserName = from
		a.Amount = s.Amount
		a.Description = fmt.Sprintf("%s paid %s %s %s", from, to, h.currency, s.Amount)
	}
	return a, nil
}
