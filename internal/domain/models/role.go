package models

import (
	"errors"
)

type Role string

const (
	RoleStudent   Role = "student"
	RoleParent    Role = "parent"
	RoleApplicant Role = "applicant"
	RoleTeacher   Role = "teacher"
)

var Roles = []Role{RoleStudent, RoleParent, RoleApplicant, RoleTeacher}

func ToRole(s string) (Role, error) {
	switch s {
	case string(RoleStudent):
		return RoleStudent, nil
	case string(RoleParent):
		return RoleParent, nil
	case string(RoleApplicant):
		return RoleApplicant, nil
	case string(RoleTeacher):
		return RoleTeacher, nil
	default:
		return "", errors.New("invalid role")
	}
}

func (r Role) Title() string {
	switch r {
	case RoleStudent:
		return "Ученик"
	case RoleParent:
		return "Родитель"
	case RoleApplicant:
		return "Абитуриент"
	case RoleTeacher:
		return "Преподаватель"
	default:
		return string(r)
	}
}

type Action string

const (
	ActionRegister  Action = "register"
	ActionMaterials Action = "materials"
)

var Actions = []Action{ActionRegister, ActionMaterials}

func ToAction(s string) (Action, error) {
	switch s {
	case string(ActionRegister):
		return ActionRegister, nil
	case string(ActionMaterials):
		return ActionMaterials, nil
	default:
		return "", errors.New("invalid action")
	}
}

func (a Action) Title() string {
	switch a {
	case ActionRegister:
		return "Записаться на занятия"
	case ActionMaterials:
		return "Получить материалы"
	default:
		return string(a)
	}
}

// Requirements lists the fields a registration must collect before it can be finalized.
type Requirements struct {
	Subject bool
	Class   bool
	Phone   bool
}

// RequirementsFor returns what has to be collected for the given role and action.
// Teachers are not registered at all, so nothing is required from them.
func RequirementsFor(role Role, action Action) Requirements {
	switch role {
	case RoleParent:
		return Requirements{Subject: true, Class: true, Phone: true}
	case RoleStudent:
		if action == ActionMaterials {
			return Requirements{Subject: true, Class: true}
		}
		return Requirements{Subject: true, Class: true, Phone: true}
	default:
		return Requirements{}
	}
}
