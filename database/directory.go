package database

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"splitledger/ledger"
	"splitledger/models"
)

// Directory is a ledger.Registry backed by the users, groups and
// group_members tables.
type Directory struct {
	db *gorm.DB
}

func NewDirectory(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

func (d *Directory) User(ctx context.Context, id uuid.UUID) (ledger.User, error) {
	var u models.User
	if err := d.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return ledger.User{}, notFound(err, "user", id)
	}
	return u.ToLedger(), nil
}

func (d *Directory) Group(ctx context.Context, id uuid.UUID) (ledger.Group, error) {
	var g models.Group
	err := d.db.WithContext(ctx).
		Preload("Members", orderedMembers).
		First(&g, "id = ?", id).Error
	if err != nil {
		return ledger.Group{}, notFound(err, "group", id)
	}
	return g.ToLedger(), nil
}

func (d *Directory) ListUsers(ctx context.Context) ([]ledger.User, error) {
	var rows []models.User
	if err := d.db.WithContext(ctx).Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]ledger.User, len(rows))
	for i := range rows {
		users[i] = rows[i].ToLedger()
	}
	return users, nil
}

func (d *Directory) CreateUser(ctx context.Context, name, email string) (ledger.User, error) {
	name, email, err := ledger.NormalizeUser(name, email)
	if err != nil {
		return ledger.User{}, err
	}

	u := models.User{Name: name, Email: email}
	if err := d.db.WithContext(ctx).Create(&u).Error; err != nil {
		return ledger.User{}, duplicateEmail(err)
	}
	return u.ToLedger(), nil
}

func (d *Directory) ListGroups(ctx context.Context) ([]ledger.Group, error) {
	var rows []models.Group
	err := d.db.WithContext(ctx).
		Preload("Members", orderedMembers).
		Order("created_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	groups := make([]ledger.Group, len(rows))
	for i := range rows {
		groups[i] = rows[i].ToLedger()
	}
	return groups, nil
}

func (d *Directory) CreateGroup(ctx context.Context, name string, memberIDs []uuid.UUID) (ledger.Group, error) {
	name, members, err := ledger.NormalizeGroup(name, memberIDs)
	if err != nil {
		return ledger.Group{}, err
	}

	g := models.Group{Name: name}
	err = d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var found []uuid.UUID
		if err := tx.Model(&models.User{}).Where("id IN ?", members).Pluck("id", &found).Error; err != nil {
			return fmt.Errorf("load members: %w", err)
		}
		if missing := firstMissing(members, found); missing != uuid.Nil {
			return &ledger.NotFoundError{Kind: "user", ID: missing}
		}

		if err := tx.Create(&g).Error; err != nil {
			return fmt.Errorf("create group: %w", err)
		}
		g.Members = memberRows(g.ID, members)
		if err := tx.Omit(clause.Associations).Create(&g.Members).Error; err != nil {
			return fmt.Errorf("add members: %w", err)
		}
		return nil
	})
	if err != nil {
		return ledger.Group{}, err
	}
	return g.ToLedger(), nil
}

func (d *Directory) SetPushToken(ctx context.Context, userID uuid.UUID, token string) error {
	res := d.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("fcm_token", token)
	if res.Error != nil {
		return fmt.Errorf("set push token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return &ledger.NotFoundError{Kind: "user", ID: userID}
	}
	return nil
}

func orderedMembers(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

func memberRows(groupID uuid.UUID, members []uuid.UUID) []models.GroupMember {
	rows := make([]models.GroupMember, len(members))
	for i, id := range members {
		rows[i] = models.GroupMember{GroupID: groupID, UserID: id, Position: i}
	}
	return rows
}

// firstMissing returns the first id of want absent from have, or uuid.Nil.
func firstMissing(want, have []uuid.UUID) uuid.UUID {
	for _, id := range want {
		if !slices.Contains(have, id) {
			return id
		}
	}
	return uuid.Nil
}

func notFound(err error, kind string, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &ledger.NotFoundError{Kind: kind, ID: id}
	}
	return fmt.Errorf("load %s %s: %w", kind, id, err)
}

func duplicateEmail(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &ledger.ValidationError{
			Reason:  ledger.ReasonEmailTaken,
			Field:   "email",
			Message: "email already registered",
		}
	}
	return fmt.Errorf("create user: %w", err)
}
