package membership

import (
	"testing"

	"github.com/google/uuid"
	"github.com/ledgerline/finance-services/internal/authn"
	"github.com/ledgerline/finance-services/models"
	"github.com/stretchr/testify/assert"
)

// fakeStore is an in-memory Store keyed the same way the real database
// is: users by email, groups by name, one group per email.
type fakeStore struct {
	users        map[string]*models.User
	groups       map[string]*models.Group
	transactions map[string]int

	deletedUsers  []string
	deletedGroups []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        make(map[string]*models.User),
		groups:       make(map[string]*models.Group),
		transactions: make(map[string]int),
	}
}

func (s *fakeStore) addUser(username, email, role string) *models.User {
	u := &models.User{ID: uuid.New(), Username: username, Email: email, Role: role}
	s.users[email] = u
	return u
}

func (s *fakeStore) addGroup(name string, emails ...string) *models.Group {
	g := &models.Group{ID: uuid.New(), Name: name}
	for _, email := range emails {
		g.Members = append(g.Members, models.GroupMember{Email: email, UserID: s.users[email].ID})
	}
	s.groups[name] = g
	return g
}

func (s *fakeStore) FindUserByEmail(email string) (*models.User, error) {
	return s.users[email], nil
}

func (s *fakeStore) FindUserByUsername(username string) (*models.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) FindGroupContainingEmail(email string) (*models.Group, error) {
	for _, g := range s.groups {
		for _, m := range g.Members {
			if m.Email == email {
				return g, nil
			}
		}
	}
	return nil, nil
}

func (s *fakeStore) FindGroupByName(name string) (*models.Group, error) {
	return s.groups[name], nil
}

func (s *fakeStore) SaveGroup(group *models.Group) error {
	s.groups[group.Name] = group
	return nil
}

func (s *fakeStore) UpdateGroupMembers(name string, members []models.GroupMember) error {
	s.groups[name].Members = members
	return nil
}

func (s *fakeStore) DeleteGroup(name string) error {
	delete(s.groups, name)
	s.deletedGroups = append(s.deletedGroups, name)
	return nil
}

func (s *fakeStore) DeleteUser(username string) error {
	for email, u := range s.users {
		if u.Username == username {
			delete(s.users, email)
		}
	}
	s.deletedUsers = append(s.deletedUsers, username)
	return nil
}

func (s *fakeStore) DeleteTransactionsByUsername(username string) (int, error) {
	count := s.transactions[username]
	delete(s.transactions, username)
	return count, nil
}

func TestClassify_Validation(t *testing.T) {
	r := NewReconciler(newFakeStore())

	cases := []struct {
		name       string
		candidates []string
		wantMsg    string
	}{
		{"nil", nil, "memberEmails must specify an array"},
		{"empty array", []string{}, "memberEmails field cannot be empty"},
		{"blank element", []string{"a@example.com", ""}, "memberEmails field cannot be empty"},
		{"bad format", []string{"not-an-email"}, "wrong email format"},
		{"blank wins over format", []string{"not-an-email", ""}, "memberEmails field cannot be empty"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.Classify(tc.candidates, "")
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.wantMsg, verr.Msg)
		})
	}
}

func TestClassify_AddFlow(t *testing.T) {
	store := newFakeStore()
	store.addUser("alice", "alice@example.com", models.RoleRegular)
	store.addUser("bob", "bob@example.com", models.RoleRegular)
	store.addGroup("household", "bob@example.com")

	r := NewReconciler(store)

	c, err := r.Classify([]string{
		"ghost@example.com",
		"alice@example.com",
		"bob@example.com",
	}, "")
	assert.NoError(t, err)

	assert.Equal(t, []string{"ghost@example.com"}, c.NotFound)
	assert.Len(t, c.Eligible, 1)
	assert.Equal(t, "alice@example.com", c.Eligible[0].Email)
	assert.Equal(t, []string{"bob@example.com"}, c.AlreadyGrouped)
	assert.Empty(t, c.Removable)
	assert.Empty(t, c.NotInTargetGroup)
}

func TestClassify_RemoveFlow(t *testing.T) {
	store := newFakeStore()
	store.addUser("alice", "alice@example.com", models.RoleRegular)
	store.addUser("bob", "bob@example.com", models.RoleRegular)
	store.addUser("carol", "carol@example.com", models.RoleRegular)
	store.addGroup("household", "alice@example.com", "bob@example.com")
	store.addGroup("flatmates", "carol@example.com")

	r := NewReconciler(store)

	c, err := r.Classify([]string{
		"alice@example.com",
		"carol@example.com",
		"ghost@example.com",
	}, "household")
	assert.NoError(t, err)

	assert.Equal(t, []string{"alice@example.com"}, c.Removable)
	// carol exists but belongs to another group
	assert.Equal(t, []string{"carol@example.com"}, c.NotInTargetGroup)
	assert.Equal(t, []string{"ghost@example.com"}, c.NotFound)
}

func TestCreate_EnrollsCreator(t *testing.T) {
	store := newFakeStore()
	creator := store.addUser("alice", "alice@example.com", models.RoleRegular)
	store.addUser("bob", "bob@example.com", models.RoleRegular)

	r := NewReconciler(store)

	principal := &authn.Principal{ID: creator.ID.String(), Username: "alice", Email: "alice@example.com", Role: models.RoleRegular}
	group, c, err := r.Create("household", []string{"bob@example.com"}, principal)
	assert.NoError(t, err)

	assert.Equal(t, []string{"bob@example.com", "alice@example.com"}, group.MemberEmails())
	assert.Empty(t, c.NotFound)
	assert.NotNil(t, store.groups["household"])
}

func TestCreate_CreatorListedOnce(t *testing.T) {
	store := newFakeStore()
	creator := store.addUser("alice", "alice@example.com", models.RoleRegular)

	r := NewReconciler(store)

	principal := &authn.Principal{ID: creator.ID.String(), Username: "alice", Email: "alice@example.com", Role: models.RoleRegular}
	group, _, err := r.Create("household", []string{"alice@example.com"}, principal)
	assert.NoError(t, err)
	assert.Equal(t, []string{"alice@example.com"}, group.MemberEmails())
}

func TestCreate_CreatorAlreadyGrouped(t *testing.T) {
	store := newFakeStore()
	creator := store.addUser("alice", "alice@example.com", models.RoleRegular)
	store.addUser("bob", "bob@example.com", models.RoleRegular)
	store.addGroup("flatmates", "alice@example.com")

	r := NewReconciler(store)

	principal := &authn.Principal{ID: creator.ID.String(), Username: "alice", Email: "alice@example.com", Role: models.RoleRegular}
	_, _, err := r.Create("household", []string{"bob@example.com"}, principal)

	var cerr *ConflictError
	assert.ErrorAs(t, err, &cerr)
	assert.Equal(t, "creator is already in a group", cerr.Msg)
}

func TestCreate_GroupedCreatorListedAsCandidate(t *testing.T) {
	store := newFakeStore()
	creator := store.addUser("alice", "alice@example.com", models.RoleRegular)
	store.addUser("bob", "bob@example.com", models.RoleRegular)
	store.addGroup("flatmates", "alice@example.com")

	r := NewReconciler(store)

	// The creator's own email appearing in the candidate list must not
	// bypass the already-grouped check; a group whose creator is not a
	// member would be unreadable by its creator.
	principal := &authn.Principal{ID: creator.ID.String(), Username: "alice", Email: "alice@example.com", Role: models.RoleRegular}
	_, _, err := r.Create("household", []string{"alice@example.com", "bob@example.com"}, principal)

	var cerr *ConflictError
	assert.ErrorAs(t, err, &cerr)
	assert.Equal(t, "creator is already in a group", cerr.Msg)
	assert.Nil(t, store.groups["household"])
}

func TestCreate_DuplicateName(t *testing.T) {
	store := newFakeStore()
	store.addUser("alice", "alice@example.com", models.RoleRegular)
	store.addGroup("household", "alice@example.com")

	r := NewReconciler(store)

	_, _, err := r.Create("household", []string{"alice@example.com"}, nil)
	var cerr *ConflictError
	assert.ErrorAs(t, err, &cerr)
}

func TestCreate_NoEligibleMembers(t *testing.T) {
	store := newFakeStore()
	store.addUser("bob", "bob@example.com", models.RoleRegular)
	store.addGroup("flatmates", "bob@example.com")

	r := NewReconciler(store)

	// Admin flow (nil creator): nobody can be enrolled, nothing is written
	_, _, err := r.Create("household", []string{"ghost@example.com", "bob@example.com"}, nil)
	var cerr *ConflictError
	assert.ErrorAs(t, err, &cerr)
	assert.Equal(t, "all members do not exist or are already in a group", cerr.Msg)
	assert.Nil(t, store.groups["household"])
}

func TestAdd_AppendsEligible(t *testing.T) {
	store := newFakeStore()
	store.addUser("alice", "alice@example.com", models.RoleRegular)
	store.addUser("bob", "bob@example.com", models.RoleRegular)
	store.addGroup("household", "alice@example.com")

	r := NewReconciler(store)

	group, c, err := r.Add("household", []string{"bob@example.com", "ghost@example.com"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"alice@example.com", "bob@example.com"}, group.MemberEmails())
	assert.Equal(t, []string{"ghost@example.com"}, c.NotFound)
}

func TestAdd_MissingGroup(t *testing.T) {
	store := newFakeStore()
	store.addUser("bob", "bob@example.com", models.RoleRegular)

	r := NewReconciler(store)

	_, _, err := r.Add("household", []string{"bob@example.com"})
	var nerr *NotFoundError
	assert.ErrorAs(t, err, &nerr)
}

func TestAdd_AlreadyMemberIsIdempotentReject(t *testing.T) {
	store := newFakeStore()
	store.addUser("alice", "alice@example.com", models.RoleRegular)
	store.addGroup("household", "alice@example.com")

	r := NewReconciler(store)

	// The sole candidate already belongs to the group, so nothing is
	// eligible and the call reports a conflict without touching storage.
	_, _, err := r.Add("household", []string{"alice@example.com"})
	var cerr *ConflictError
	assert.ErrorAs(t, err, &cerr)
	assert.Equal(t, []string{"alice@example.com"}, store.groups["household"].MemberEmails())
}

func TestAdd_DuplicateCandidatesEnrolledOnce(t *testing.T) {
	store := newFakeStore()
	store.addUser("alice", "alice@example.com", models.RoleRegular)
	store.addUser("bob", "bob@example.com", models.RoleRegular)
	store.addGroup("household", "alice@example.com")

	r := NewReconciler(store)

	group, _, err := r.Add("household", []string{"bob@example.com", "bob@example.com"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"alice@example.com", "bob@example.com"}, group.MemberEmails())
}

func TestRemove_SplicesMembers(t *testing.T) {
	store := newFakeStore()
	store.addUser("alice", "alice@example.com", models.RoleRegular)
	store.addUser("bob", "bob@example.com", models.RoleRegular)
	store.addUser("carol", "carol@example.com", models.RoleRegular)
	store.addGroup("household", "alice@example.com", "bob@example.com", "carol@example.com")

	r := NewReconciler(store)

	group, c, err := r.Remove("household", []string{"bob@example.com", "ghost@example.com"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"alice@example.com", "carol@example.com"}, group.MemberEmails())
	assert.Equal(t, []string{"bob@example.com"}, c.Removable)
	assert.Equal(t, []string{"ghost@example.com"}, c.NotFound)
}

func TestRemove_DuplicateCandidatesCountedOnce(t *testing.T) {
	store := newFakeStore()
	store.addUser("alice", "alice@example.com", models.RoleRegular)
	store.addUser("bob", "bob@example.com", models.RoleRegular)
	store.addGroup("household", "alice@example.com", "bob@example.com")

	r := NewReconciler(store)

	// A repeated candidate must not inflate the removable count to the
	// full group size and falsely trip the empty-group guard.
	group, c, err := r.Remove("household", []string{"bob@example.com", "bob@example.com"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"bob@example.com"}, c.Removable)
	assert.Equal(t, []string{"alice@example.com"}, group.MemberEmails())
}

func TestRemove_WouldEmptyGroup(t *testing.T) {
	store := newFakeStore()
	store.addUser("alice", "alice@example.com", models.RoleRegular)
	store.addUser("bob", "bob@example.com", models.RoleRegular)
	store.addGroup("household", "alice@example.com", "bob@example.com")

	r := NewReconciler(store)

	_, _, err := r.Remove("household", []string{"alice@example.com", "bob@example.com"})
	var cerr *ConflictError
	assert.ErrorAs(t, err, &cerr)
	assert.Len(t, store.groups["household"].Members, 2)
}

func TestRemove_NothingRemovable(t *testing.T) {
	store := newFakeStore()
	store.addUser("alice", "alice@example.com", models.RoleRegular)
	store.addUser("carol", "carol@example.com", models.RoleRegular)
	store.addGroup("household", "alice@example.com")
	store.addGroup("flatmates", "carol@example.com")

	r := NewReconciler(store)

	_, _, err := r.Remove("household", []string{"carol@example.com"})
	var cerr *ConflictError
	assert.ErrorAs(t, err, &cerr)
}

func TestDeleteUser_Cascade(t *testing.T) {
	store := newFakeStore()
	store.addUser("alice", "alice@example.com", models.RoleRegular)
	store.addUser("bob", "bob@example.com", models.RoleRegular)
	store.addGroup("household", "alice@example.com", "bob@example.com")
	store.transactions["alice"] = 3

	r := NewReconciler(store)

	result, err := r.DeleteUser("alice")
	assert.NoError(t, err)
	assert.Equal(t, 3, result.DeletedTransactions)
	assert.True(t, result.DeletedFromGroup)

	assert.Equal(t, []string{"bob@example.com"}, store.groups["household"].MemberEmails())
	assert.Equal(t, []string{"alice"}, store.deletedUsers)
}

func TestDeleteUser_SoleMemberDeletesGroup(t *testing.T) {
	store := newFakeStore()
	store.addUser("alice", "alice@example.com", models.RoleRegular)
	store.addGroup("household", "alice@example.com")

	r := NewReconciler(store)

	result, err := r.DeleteUser("alice")
	assert.NoError(t, err)
	assert.True(t, result.DeletedFromGroup)

	// No group may survive with zero members
	assert.Nil(t, store.groups["household"])
	assert.Equal(t, []string{"household"}, store.deletedGroups)
}

func TestDeleteUser_NoGroup(t *testing.T) {
	store := newFakeStore()
	store.addUser("alice", "alice@example.com", models.RoleRegular)

	r := NewReconciler(store)

	result, err := r.DeleteUser("alice")
	assert.NoError(t, err)
	assert.False(t, result.DeletedFromGroup)
	assert.Equal(t, 0, result.DeletedTransactions)
}

func TestDeleteUser_AdminRejected(t *testing.T) {
	store := newFakeStore()
	store.addUser("root", "root@example.com", models.RoleAdmin)

	r := NewReconciler(store)

	_, err := r.DeleteUser("root")
	var cerr *ConflictError
	assert.ErrorAs(t, err, &cerr)
	assert.Empty(t, store.deletedUsers)
}

func TestDeleteUser_Missing(t *testing.T) {
	r := NewReconciler(newFakeStore())

	_, err := r.DeleteUser("ghost")
	var nerr *NotFoundError
	assert.ErrorAs(t, err, &nerr)
}
