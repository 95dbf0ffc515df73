package ledger

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// User is a registered participant. Users are created outside the engine and
// never change afterwards, apart from their push token.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	PushToken string    `json:"-"`
}

// Group scopes expenses. MemberIDs is ordered and free of duplicates.
type Group struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	MemberIDs []uuid.UUID `json:"memberIds"`
}

func (g Group) HasMember(id uuid.UUID) bool {
	return slices.Contains(g.MemberIDs, id)
}

// Directory resolves the users and groups the engine references.
// Unknown ids yield a *NotFoundError.
type Directory interface {
	User(ctx context.Context, id uuid.UUID) (User, error)
	Group(ctx context.Context, id uuid.UUID) (Group, error)
}

// Registry is a Directory that also registers users and groups.
type Registry interface {
	Directory
	ListUsers(ctx context.Context) ([]User, error)
	CreateUser(ctx context.Context, name, email string) (User, error)
	ListGroups(ctx context.Context) ([]Group, error)
	CreateGroup(ctx context.Context, name string, memberIDs []uuid.UUID) (Group, error)
	SetPushToken(ctx context.Context, userID uuid.UUID, token string) error
}

// NormalizeUser trims name and lower-cases email, rejecting empty values.
func NormalizeUser(name, email string) (string, string, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return "", "", invalid(ReasonEmptyName, "name", "name is required")
	}
	if email == "" {
		return "", "", invalid(ReasonEmptyEmail, "email", "email is required")
	}
	return name, email, nil
}

// NormalizeGroup trims name and removes duplicate member ids, keeping the
// first occurrence of each.
func NormalizeGroup(name string, memberIDs []uuid.UUID) (string, []uuid.UUID, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil, invalid(ReasonEmptyName, "name", "name is required")
	}
	if len(memberIDs) == 0 {
		return "", nil, invalid(ReasonEmptyMembers, "memberIds", "a group needs at least one member")
	}
	seen := make(map[uuid.UUID]struct{}, len(memberIDs))
	members := make([]uuid.UUID, 0, len(memberIDs))
	for _, id := range memberIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		members = append(members, id)
	}
	return name, members, nil
}

// MemoryDirectory is an in-process Registry. It backs tests and runs the
// service when no database is configured.
type MemoryDirectory struct {
	mu     sync.RWMutex
	users  []User
	groups []Group
	userAt map[uuid.UUID]int
	grpAt  map[uuid.UUID]int
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		userAt: make(map[uuid.UUID]int),
		grpAt:  make(map[uuid.UUID]int),
	}
}

func (d *MemoryDirectory) User(_ context.Context, id uuid.UUID) (User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	i, ok := d.userAt[id]
	if !ok {
		return User{}, &NotFoundError{Kind: "user", ID: id}
	}
	return d.users[i], nil
}

func (d *MemoryDirectory) Group(_ context.Context, id uuid.UUID) (Group, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	i, ok := d.grpAt[id]
	if !ok {
		return Group{}, &NotFoundError{Kind: "group", ID: id}
	}
	g := d.groups[i]
	g.MemberIDs = slices.Clone(g.MemberIDs)
	return g, nil
}

func (d *MemoryDirectory) ListUsers(context.Context) ([]User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.users), nil
}

func (d *MemoryDirectory) CreateUser(_ context.Context, name, email string) (User, error) {
	name, email, err := NormalizeUser(name, email)
	if err != nil {
		return User{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.users {
		if u.Email == email {
			return User{}, invalid(ReasonEmailTaken, "email", "email already registered")
		}
	}
	u := User{ID: uuid.New(), Name: name, Email: email}
	d.userAt[u.ID] = len(d.users)
	d.users = append(d.users, u)
	return u, nil
}

func (d *MemoryDirectory) ListGroups(context.Context) ([]Group, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Group, len(d.groups))
	for i, g := range d.groups {
		g.MemberIDs = slices.Clone(g.MemberIDs)
		out[i] = g
	}
	return out, nil
}

func (d *MemoryDirectory) CreateGroup(_ context.Context, name string, memberIDs []uuid.UUID) (Group, error) {
	name, members, err := NormalizeGroup(name, memberIDs)
	if err != nil {
		return Group{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range members {
		if _, ok := d.userAt[id]; !ok {
			return Group{}, &NotFoundError{Kind: "user", ID: id}
		}
	}
	g := Group{ID: uuid.New(), Name: name, MemberIDs: members}
	d.grpAt[g.ID] = len(d.groups)
	d.groups = append(d.groups, g)
	g.MemberIDs = slices.Clone(members)
	return g, nil
}

func (d *MemoryDirectory) SetPushToken(_ context.Context, userID uuid.UUID, token string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	i, ok := d.userAt[userID]
	if !ok {
		return &NotFoundError{Kind: "user", ID: userID}
	}
	d.users[i].PushToken = strings.TrimSpace(token)
	return nil
}
