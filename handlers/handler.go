package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"splitledger/cache"
	"splitledger/ledger"
	"splitledger/utils"
)

// Notifier queues notifications for an appended event.
type Notifier interface {
	Enqueue(ev ledger.Event)
}

type Handler struct {
	registry    ledger.Registry
	ledger      *ledger.Ledger
	expenses    *ledger.ExpenseProcessor
	settlements *ledger.SettlementProcessor
	balances    *ledger.BalanceEngine
	cache       *cache.BalanceCache
	notifier    Notifier
	currency    string
	log         *zap.Logger
}

// New wires the engine around l and registry. cache and notifier may be nil.
func New(registry ledger.Registry, l *ledger.Ledger, bc *cache.BalanceCache, notifier Notifier, currency string, log *zap.Logger) *Handler {
	return &Handler{
		registry:    registry,
		ledger:      l,
		expenses:    ledger.NewExpenseProcessor(l, registry),
		settlements: ledger.NewSettlementProcessor(l, registry),
		balances:    ledger.NewBalanceEngine(l, registry),
		cache:       bc,
		notifier:    notifier,
		currency:    currency,
		log:         log,
	}
}

func (h *Handler) Register(r gin.IRouter) {
	// Users
	r.GET("/users", h.ListUsers)
	r.POST("/users", h.CreateUser)
	r.GET("/users/:id", h.GetUser)
	r.GET("/users/:id/balances", h.GetUserBalances)
	r.PUT("/users/:id/push-token", h.UpdatePushToken)

	// Groups
	r.GET("/groups", h.ListGroups)
	r.POST("/groups", h.CreateGroup)
	r.GET("/groups/:id", h.GetGroup)
	r.GET("/groups/:id/expenses", h.GetGroupExpenses)
	r.GET("/groups/:id/balances", h.GetGroupBalances)
	r.GET("/groups/:id/activity", h.GetGroupActivity)

	// Expenses
	r.POST("/expenses", h.CreateExpense)
	r.GET("/expenses/:id", h.GetExpense)

	// Settlements
	r.POST("/settle", h.CreateSettlement)
	r.GET("/settlements", h.GetSettlements)

	// Balances and activity
	r.GET("/balances", h.GetOverallBalances)
	r.GET("/activity", h.GetActivity)
}

// fail answers with the mapped engine error, or logs err and answers 500
// with message.
func (h *Handler) fail(c *gin.Context, err error, message string) {
	if utils.EngineError(c, err) {
		h.log.Info("request rejected", zap.String("path", c.FullPath()), zap.Error(err))
		return
	}
	h.log.Error(message, zap.String("path", c.FullPath()), zap.Error(err))
	utils.InternalError(c, message)
}

// paramID parses the :id path parameter, answering 400 when malformed.
func paramID(c *gin.Context, kind string) (uuid.UUID, bool) {
	id, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid "+kind+" ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) notify(ev ledger.Event) {
	if h.notifier != nil {
		h.notifier.Enqueue(ev)
	}
}

// nameCache resolves display names, looking each user up once.
type nameCache struct {
	dir   ledger.Directory
	names map[uuid.UUID]string
}

func (h *Handler) newNames() *nameCache {
	return &nameCache{dir: h.registry, names: make(map[uuid.UUID]string)}
}

func (n *nameCache) user(ctx context.Context, id uuid.UUID) (string, error) {
	if name, ok := n.names[id]; ok {
		return name, nil
	}
	u, err := n.dir.User(ctx, id)
	if err != nil {
		return "", err
	}
	n.names[id] = u.Name
	return u.Name, nil
}

// newestFirst returns events in reverse sequence order.
func newestFirst(events []ledger.Event) []ledger.Event {
	out := make([]ledger.Event, len(events))
	for i, ev := range events {
		out[len(events)-1-i] = ev
	}
	return out
}
