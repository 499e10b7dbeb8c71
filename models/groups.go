package models

import "github.com/google/uuid"

// Group represents a named set of members. A user belongs to at most one
// group system-wide and a group is never stored with zero members.
type Group struct {
	ID      uuid.UUID     `json:"-"`
	Name    string        `json:"name"`
	Members []GroupMember `json:"members"`
}

type GroupMember struct {
	Email  string    `json:"email"`
	UserID uuid.UUID `json:"-"`
}

// MemberEmails returns the member addresses in stored order.
func (g *Group) MemberEmails() []string {
	emails := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		emails = append(emails, m.Email)
	}
	return emails
}

type GroupRequest struct {
	Name         string   `json:"name"`
	MemberEmails []string `json:"memberEmails"`
}

type MemberEmailsRequest struct {
	MemberEmails []string `json:"memberEmails"`
}

type MemberRef struct {
	Email string `json:"email"`
}

// GroupUpsertResponse is returned by the create and add flows.
type GroupUpsertResponse struct {
	Group           Group       `json:"group"`
	AlreadyInGroup  []MemberRef `json:"alreadyInGroup"`
	MembersNotFound []MemberRef `json:"membersNotFound"`
}

// GroupRemoveResponse is returned by the remove flow.
type GroupRemoveResponse struct {
	Group           Group       `json:"group"`
	NotInGroup      []MemberRef `json:"notInGroup"`
	MembersNotFound []MemberRef `json:"membersNotFound"`
}
