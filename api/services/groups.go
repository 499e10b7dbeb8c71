package services

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/ledgerline/finance-services/internal/authn"
	"github.com/ledgerline/finance-services/internal/authz"
	"github.com/ledgerline/finance-services/internal/events"
	"github.com/ledgerline/finance-services/internal/membership"
	"github.com/ledgerline/finance-services/models"
	"github.com/rs/zerolog"
)

// CreateGroupService creates a new group. The authenticated caller is
// auto-enrolled alongside the eligible candidates; a caller who already
// belongs to a group cannot create another one.
func CreateGroupService(svc *Service, w http.ResponseWriter, r *http.Request) {

	logger := zerolog.Ctx(r.Context())

	result, ok := authorize(svc, w, r, authz.Open())
	if !ok {
		return
	}

	createGroup(svc, w, r, logger, &result.Principal)
}

// AdminCreateGroupService creates a group on behalf of its members
// without enrolling the acting admin.
func AdminCreateGroupService(svc *Service, w http.ResponseWriter, r *http.Request) {

	logger := zerolog.Ctx(r.Context())

	if _, ok := authorize(svc, w, r, authz.Role(models.RoleAdmin)); !ok {
		return
	}

	createGroup(svc, w, r, logger, nil)
}

func createGroup(svc *Service, w http.ResponseWriter, r *http.Request, logger *zerolog.Logger, creator *authn.Principal) {

	var payload models.GroupRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		logger.Warn().Err(err).Msg("Invalid request payload")
		WriteResponse(w, http.StatusBadRequest, nil)
		return
	}

	if payload.Name == "" {
		WriteResponse(w, http.StatusBadRequest, models.Response{
			Success:      0,
			ErrorDetails: "group name cannot be empty",
		})
		return
	}

	group, classification, err := svc.Reconciler.Create(payload.Name, payload.MemberEmails, creator)
	if err != nil {
		logger.Warn().Err(err).Str("group", payload.Name).Msg("Failed to create group")
		HandleErrResponse(w, err)
		return
	}

	if err := svc.Publisher.Publish(events.Event{
		Type:   events.TypeGroupCreated,
		Group:  group.Name,
		Emails: group.MemberEmails(),
	}); err != nil {
		logger.Error().Err(err).Msg("Failed to publish group creation event")
	}

	logger.Info().Str("group", group.Name).Int("members", len(group.Members)).
		Msg("Group created successfully")

	location := fmt.Sprintf("%s/%s", r.URL.Path, group.Name)
	WriteResponse(w, http.StatusCreated, upsertResponse(group, classification), location)
}

// GetGroupService retrieves a group; only its members may read it.
func GetGroupService(svc *Service, w http.ResponseWriter, r *http.Request) {

	logger := zerolog.Ctx(r.Context())
	name := mux.Vars(r)["group-name"]

	group, err := svc.DB.FindGroupByName(name)
	if err != nil {
		logger.Error().Err(err).Msg("Database error retrieving group")
		HandleErrResponse(w, err)
		return
	}
	if group == nil {
		WriteResponse(w, http.StatusNotFound, nil)
		return
	}

	if _, ok := authorize(svc, w, r, authz.Group(group.MemberEmails())); !ok {
		return
	}

	WriteResponse(w, http.StatusOK, models.Response{Success: 1, Data: group})
}

// AddGroupMembersService appends eligible candidates to a group. Only a
// current member may add others.
func AddGroupMembersService(svc *Service, w http.ResponseWriter, r *http.Request) {

	logger := zerolog.Ctx(r.Context())
	name := mux.Vars(r)["group-name"]

	group, ok := authorizeGroupMember(svc, w, r, name)
	if !ok {
		return
	}

	var payload models.MemberEmailsRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		logger.Warn().Err(err).Msg("Invalid request payload")
		WriteResponse(w, http.StatusBadRequest, nil)
		return
	}

	updated, classification, err := svc.Reconciler.Add(group.Name, payload.MemberEmails)
	if err != nil {
		logger.Warn().Err(err).Str("group", name).Msg("Failed to add group members")
		HandleErrResponse(w, err)
		return
	}

	if err := svc.Publisher.Publish(events.Event{
		Type:   events.TypeMembersAdded,
		Group:  updated.Name,
		Emails: memberEmails(classification.Eligible),
	}); err != nil {
		logger.Error().Err(err).Msg("Failed to publish member addition event")
	}

	logger.Info().Str("group", updated.Name).Int("added", len(classification.Eligible)).
		Msg("Group members added successfully")

	WriteResponse(w, http.StatusOK, upsertResponse(updated, classification))
}

// RemoveGroupMembersService splices members out of a group. Only a
// current member may remove others; removal never empties the group.
func RemoveGroupMembersService(svc *Service, w http.ResponseWriter, r *http.Request) {

	logger := zerolog.Ctx(r.Context())
	name := mux.Vars(r)["group-name"]

	group, ok := authorizeGroupMember(svc, w, r, name)
	if !ok {
		return
	}

	var payload models.MemberEmailsRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		logger.Warn().Err(err).Msg("Invalid request payload")
		WriteResponse(w, http.StatusBadRequest, nil)
		return
	}

	updated, classification, err := svc.Reconciler.Remove(group.Name, payload.MemberEmails)
	if err != nil {
		logger.Warn().Err(err).Str("group", name).Msg("Failed to remove group members")
		HandleErrResponse(w, err)
		return
	}

	if err := svc.Publisher.Publish(events.Event{
		Type:   events.TypeMembersRemoved,
		Group:  updated.Name,
		Emails: classification.Removable,
	}); err != nil {
		logger.Error().Err(err).Msg("Failed to publish member removal event")
	}

	logger.Info().Str("group", updated.Name).Int("removed", len(classification.Removable)).
		Msg("Group members removed successfully")

	WriteResponse(w, http.StatusOK, models.GroupRemoveResponse{
		Group:           *updated,
		NotInGroup:      memberRefs(classification.NotInTargetGroup),
		MembersNotFound: memberRefs(classification.NotFound),
	})
}

// DeleteGroupService deletes a group outright. Only a current member may
// delete it; this is also the only way to remove the last member.
func DeleteGroupService(svc *Service, w http.ResponseWriter, r *http.Request) {

	logger := zerolog.Ctx(r.Context())
	name := mux.Vars(r)["group-name"]

	group, ok := authorizeGroupMember(svc, w, r, name)
	if !ok {
		return
	}

	if err := svc.DB.DeleteGroup(group.Name); err != nil {
		logger.Error().Err(err).Str("group", name).Msg("Database error deleting group")
		HandleErrResponse(w, err)
		return
	}

	if err := svc.Publisher.Publish(events.Event{
		Type:  events.TypeGroupDeleted,
		Group: group.Name,
	}); err != nil {
		logger.Error().Err(err).Msg("Failed to publish group deletion event")
	}

	logger.Info().Str("group", group.Name).Msg("Group deleted successfully")
	WriteResponse(w, http.StatusNoContent, nil)
}

// authorizeGroupMember resolves the addressed group and verifies the
// caller is one of its members.
func authorizeGroupMember(svc *Service, w http.ResponseWriter, r *http.Request, name string) (*models.Group, bool) {
	logger := zerolog.Ctx(r.Context())

	group, err := svc.DB.FindGroupByName(name)
	if err != nil {
		logger.Error().Err(err).Msg("Database error retrieving group")
		HandleErrResponse(w, err)
		return nil, false
	}
	if group == nil {
		WriteResponse(w, http.StatusNotFound, nil)
		return nil, false
	}

	if _, ok := authorize(svc, w, r, authz.Group(group.MemberEmails())); !ok {
		return nil, false
	}

	return group, true
}

func upsertResponse(group *models.Group, c *membership.Classification) models.GroupUpsertResponse {
	return models.GroupUpsertResponse{
		Group:           *group,
		AlreadyInGroup:  memberRefs(c.AlreadyGrouped),
		MembersNotFound: memberRefs(c.NotFound),
	}
}

func memberRefs(emails []string) []models.MemberRef {
	refs := make([]models.MemberRef, 0, len(emails))
	for _, email := range emails {
		refs = append(refs, models.MemberRef{Email: email})
	}
	return refs
}

func memberEmails(members []models.GroupMember) []string {
	emails := make([]string, 0, len(members))
	for _, m := range members {
		emails = append(emails, m.Email)
	}
	return emails
}
