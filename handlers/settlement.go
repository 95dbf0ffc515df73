package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"splitledger/ledger"
	"splitledger/models"
	"splitledger/utils"
)

// POST /api/settle
func (h *Handler) CreateSettlement(c *gin.Context) {
	var req models.CreateSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BindError(c, err)
		return
	}

	ctx := c.Request.Context()
	ev, err := h.settlements.RecordSettlement(ctx, req.FromUserID, req.ToUserID, req.Amount, req.Note)
	if err != nil {
		h.fail(c, err, "Failed to record settlement")
		return
	}
	h.notify(ev)

	response, err := h.buildSettlementResponse(ctx, h.newNames(), ev)
	if err != nil {
		h.fail(c, err, "Failed to record settlement")
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "Settlement recorded", response)
}

type settlementQuery struct {
	utils.PaginationQuery
	UserID string `form:"userId"`
}

// GET /api/settlements?userId=
func (h *Handler) GetSettlements(c *gin.Context) {
	var q settlementQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	userID := uuid.Nil
	if q.UserID != "" {
		id, err := utils.ParseUUID(q.UserID)
		if err != nil {
			utils.BadRequest(c, "Invalid user ID")
			return
		}
		if _, err := h.registry.User(ctx, id); err != nil {
			h.fail(c, err, "Failed to fetch settlements")
			return
		}
		userID = id
	}

	var settlements []ledger.Event
	for _, ev := range newestFirst(h.ledger.Replay()) {
		if ev.Kind != ledger.KindSettlement {
			continue
		}
		if userID == uuid.Nil || ev.Involves(userID) {
			settlements = append(settlements, ev)
		}
	}

	names := h.newNames()
	page := utils.Paginate(settlements, q.PaginationQuery)
	response := make([]models.SettlementResponse, len(page))
	for i, ev := range page {
		var err error
		if response[i], err = h.buildSettlementResponse(ctx, names, ev); err != nil {
			h.fail(c, err, "Failed to fetch settlements")
			return
		}
	}
	utils.SuccessResponse(c, http.StatusOK, "", response)
}

func (h *Handler) buildSettlementResponse(ctx context.Context, names *nameCache, ev ledger.Event) (models.SettlementResponse, error) {
	s := *ev.Settlement
	from, err := names.user(ctx, s.FromUserID)
	if err != nil {
		return models.SettlementResponse{}, err
	}
	to, err := names.user(ctx, s.ToUserID)
	if err != nil {
		return models.SettlementResponse{}, err
	}
	return models.SettlementResponse{
		Settlement: s,
		Seq:        ev.Seq,
		FromName:   from,
		ToName:     to,
		Currency:   h.currency,
		CreatedAt:  ev.RecordedAt,
	}, nil
}
