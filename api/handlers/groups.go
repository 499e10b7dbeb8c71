package handlers

import (
	"net/http"

	"github.com/ledgerline/finance-services/api/services"
)

func CreateGroup(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.CreateGroupService(svc, w, r)
	}
}

func AdminCreateGroup(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.AdminCreateGroupService(svc, w, r)
	}
}

func GetGroup(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.GetGroupService(svc, w, r)
	}
}

func AddGroupMembers(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.AddGroupMembersService(svc, w, r)
	}
}

func RemoveGroupMembers(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.RemoveGroupMembersService(svc, w, r)
	}
}

func DeleteGroup(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.DeleteGroupService(svc, w, r)
	}
}
