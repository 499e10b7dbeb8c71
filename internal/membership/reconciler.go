package membership

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/google/uuid"
	"github.com/ledgerline/finance-services/internal/authn"
	"github.com/ledgerline/finance-services/models"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Store is the persistence surface the reconciler needs: three reads to
// classify candidates plus the writes used by the mutation flows.
// Persistence faults propagate to the caller unchanged.
type Store interface {
	FindUserByEmail(email string) (*models.User, error)
	FindUserByUsername(username string) (*models.User, error)
	FindGroupContainingEmail(email string) (*models.Group, error)
	FindGroupByName(name string) (*models.Group, error)
	SaveGroup(group *models.Group) error
	DeleteGroup(name string) error
	UpdateGroupMembers(name string, members []models.GroupMember) error
	DeleteUser(username string) error
	DeleteTransactionsByUsername(username string) (int, error)
}

// Classification partitions a candidate email set. It is computed fresh
// from store reads on every request and never cached; lists preserve the
// order of the original candidate array.
type Classification struct {
	NotFound         []string
	Eligible         []models.GroupMember
	AlreadyGrouped   []string
	NotInTargetGroup []string
	Removable        []string
}

// Reconciler classifies candidate members and applies the group mutations
// that keep the one-group-per-user and no-empty-group invariants intact.
// Mutations are serialized per group name; classification itself is
// read-only.
type Reconciler struct {
	store Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewReconciler(store Store) *Reconciler {
	return &Reconciler{
		store: store,
		locks: make(map[string]*sync.Mutex),
	}
}

// lockGroup serializes mutations on a single group name. Classify-then-
// write is a multi-step sequence; without this two concurrent requests
// could both observe a user as ungrouped and enroll it twice.
func (r *Reconciler) lockGroup(name string) func() {
	r.mu.Lock()
	l, ok := r.locks[name]
	if !ok {
		l = &sync.Mutex{}
		r.locks[name] = l
	}
	r.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// validateCandidates runs the ordered syntactic checks: the field must be
// an array, no element may be blank, and every element must look like an
// email address. Checks short-circuit in that order.
func validateCandidates(candidates []string) error {
	if candidates == nil {
		return &ValidationError{Msg: "memberEmails must specify an array"}
	}
	if len(candidates) == 0 {
		return &ValidationError{Msg: "memberEmails field cannot be empty"}
	}
	for _, email := range candidates {
		if email == "" {
			return &ValidationError{Msg: "memberEmails field cannot be empty"}
		}
	}
	for _, email := range candidates {
		if !emailRegex.MatchString(email) {
			return &ValidationError{Msg: "wrong email format"}
		}
	}
	return nil
}

// Classify resolves each candidate against the store. For the add/create
// flows targetGroup is empty and candidates land in Eligible or
// AlreadyGrouped; for the remove flow candidates land in Removable or
// NotInTargetGroup depending on whether their current group matches.
func (r *Reconciler) Classify(candidates []string, targetGroup string) (*Classification, error) {
	if err := validateCandidates(candidates); err != nil {
		return nil, err
	}
	candidates = dedupeEmails(candidates)

	c := &Classification{}
	for _, email := range candidates {
		user, err := r.store.FindUserByEmail(email)
		if err != nil {
			return nil, err
		}
		if user == nil {
			c.NotFound = append(c.NotFound, email)
			continue
		}

		group, err := r.store.FindGroupContainingEmail(email)
		if err != nil {
			return nil, err
		}

		if targetGroup == "" {
			if group == nil {
				c.Eligible = append(c.Eligible, models.GroupMember{Email: email, UserID: user.ID})
			} else {
				c.AlreadyGrouped = append(c.AlreadyGrouped, email)
			}
			continue
		}

		if group == nil || group.Name != targetGroup {
			c.NotInTargetGroup = append(c.NotInTargetGroup, email)
		} else {
			c.Removable = append(c.Removable, email)
		}
	}

	return c, nil
}

// Create classifies the candidates, auto-enrolls the creator when one is
// given, and writes a new group. A nil creator is the admin flow where the
// acting principal is not implicitly enrolled.
func (r *Reconciler) Create(name string, candidates []string, creator *authn.Principal) (*models.Group, *Classification, error) {
	unlock := r.lockGroup(name)
	defer unlock()

	existing, err := r.store.FindGroupByName(name)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, &ConflictError{Msg: fmt.Sprintf("group %q already exists", name)}
	}

	c, err := r.Classify(candidates, "")
	if err != nil {
		return nil, nil, err
	}

	if creator != nil {
		// An already-grouped creator fails the whole creation, whether or
		// not their email also appears in the candidate list.
		creatorGroup, err := r.store.FindGroupContainingEmail(creator.Email)
		if err != nil {
			return nil, nil, err
		}
		if creatorGroup != nil {
			return nil, nil, &ConflictError{Msg: "creator is already in a group"}
		}
		if !containsEmail(candidates, creator.Email) {
			c.Eligible = append(c.Eligible, models.GroupMember{Email: creator.Email, UserID: parseID(creator.ID)})
		}
	}

	if len(c.Eligible) == 0 {
		return nil, nil, &ConflictError{Msg: "all members do not exist or are already in a group"}
	}

	group := &models.Group{Name: name, Members: c.Eligible}
	if err := r.store.SaveGroup(group); err != nil {
		return nil, nil, err
	}

	return group, c, nil
}

// Add classifies the candidates and appends the eligible ones to an
// existing group, preserving the stored member order.
func (r *Reconciler) Add(name string, candidates []string) (*models.Group, *Classification, error) {
	unlock := r.lockGroup(name)
	defer unlock()

	group, err := r.store.FindGroupByName(name)
	if err != nil {
		return nil, nil, err
	}
	if group == nil {
		return nil, nil, &NotFoundError{Msg: fmt.Sprintf("group %q does not exist", name)}
	}

	c, err := r.Classify(candidates, "")
	if err != nil {
		return nil, nil, err
	}

	if len(c.Eligible) == 0 {
		return nil, nil, &ConflictError{Msg: "all members do not exist or are already in a group"}
	}

	members := append(group.Members, c.Eligible...)
	if err := r.store.UpdateGroupMembers(name, members); err != nil {
		return nil, nil, err
	}
	group.Members = members

	return group, c, nil
}

// Remove classifies the candidates against the target group and splices
// the removable ones out. A removal that would empty the group is
// rejected; deleting the group is the way to remove its last member.
func (r *Reconciler) Remove(name string, candidates []string) (*models.Group, *Classification, error) {
	unlock := r.lockGroup(name)
	defer unlock()

	group, err := r.store.FindGroupByName(name)
	if err != nil {
		return nil, nil, err
	}
	if group == nil {
		return nil, nil, &NotFoundError{Msg: fmt.Sprintf("group %q does not exist", name)}
	}

	c, err := r.Classify(candidates, name)
	if err != nil {
		return nil, nil, err
	}

	if len(c.Removable) == 0 || len(c.Removable) == len(group.Members) {
		return nil, nil, &ConflictError{
			Msg: "cannot remove: all requested members are invalid for this group, or removal would empty it",
		}
	}

	remaining := make([]models.GroupMember, 0, len(group.Members))
	for _, m := range group.Members {
		if !containsEmail(c.Removable, m.Email) {
			remaining = append(remaining, m)
		}
	}

	if err := r.store.UpdateGroupMembers(name, remaining); err != nil {
		return nil, nil, err
	}
	group.Members = remaining

	return group, c, nil
}

// CascadeResult reports what a user deletion removed besides the user row.
type CascadeResult struct {
	DeletedTransactions int
	DeletedFromGroup    bool
}

// DeleteUser removes a user and everything hanging off it: all of the
// user's transactions, then the user's group membership (deleting the
// group outright when the user is its only member), then the user row.
// Admin accounts cannot be deleted.
func (r *Reconciler) DeleteUser(username string) (*CascadeResult, error) {
	user, err := r.store.FindUserByUsername(username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &NotFoundError{Msg: fmt.Sprintf("user %q does not exist", username)}
	}
	if user.Role == models.RoleAdmin {
		return nil, &ConflictError{Msg: "admin accounts cannot be deleted"}
	}

	count, err := r.store.DeleteTransactionsByUsername(username)
	if err != nil {
		return nil, err
	}

	result := &CascadeResult{DeletedTransactions: count}

	group, err := r.store.FindGroupContainingEmail(user.Email)
	if err != nil {
		return nil, err
	}
	if group != nil {
		unlock := r.lockGroup(group.Name)
		if len(group.Members) == 1 {
			err = r.store.DeleteGroup(group.Name)
		} else {
			remaining := make([]models.GroupMember, 0, len(group.Members)-1)
			for _, m := range group.Members {
				if m.Email != user.Email {
					remaining = append(remaining, m)
				}
			}
			err = r.store.UpdateGroupMembers(group.Name, remaining)
		}
		unlock()
		if err != nil {
			return nil, err
		}
		result.DeletedFromGroup = true
	}

	if err := r.store.DeleteUser(username); err != nil {
		return nil, err
	}

	return result, nil
}

func parseID(id string) uuid.UUID {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil
	}
	return parsed
}

// dedupeEmails drops repeated addresses, keeping the first occurrence so
// candidate order is preserved. A duplicated candidate would otherwise be
// enrolled twice or double-counted against the group size on removal.
func dedupeEmails(emails []string) []string {
	seen := make(map[string]struct{}, len(emails))
	out := make([]string, 0, len(emails))
	for _, email := range emails {
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}
	return out
}

func containsEmail(emails []string, email string) bool {
	for _, e := range emails {
		if e == email {
			return true
		}
	}
	return false
}
