// Package lifecycle содержит чистую машину состояний сделки.
// Пакет не делает I/O и не знает про транспорт: единые правила переходов
// используются каждым адаптером (HTTP API, бот) через сервисный слой.
package lifecycle

import (
	"errors"

	"github.com/google/uuid"
)

// Status статус сделки.
type Status string

const (
	StatusActive    Status = "active"
	StatusDelivered Status = "delivered"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Action действие над сделкой.
type Action string

const (
	ActionDeliver Action = "deliver"
	ActionConfirm Action = "confirm"
	ActionCancel  Action = "cancel"
)

// Role роль участника в рамках конкретной сделки.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleFreelancer Role = "freelancer"
)

// Ошибки машины состояний. Сервисный слой оборачивает их в apperror.
var (
	ErrUnknownAction = errors.New("lifecycle: неизвестное действие")
	ErrWrongRole     = errors.New("lifecycle: действие недоступно для этой роли")
	ErrInvalidState  = errors.New("lifecycle: переход недопустим из текущего статуса")
)

// rule описывает одно правило перехода: из каких статусов, кем и куда.
type rule struct {
	from  map[Status]struct{}
	roles map[Role]struct{}
	to    Status
}

// Таблица переходов. Отмена из delivered разрешена только заказчику:
// исполнитель, уже сдавший работу, не может сам снять сделку с подтверждения.
var transitions = map[Action]rule{
	ActionDeliver: {
		from:  map[Status]struct{}{StatusActive: {}},
		roles: map[Role]struct{}{RoleFreelancer: {}},
		to:    StatusDelivered,
	},
	ActionConfirm: {
		from:  map[Status]struct{}{StatusDelivered: {}},
		roles: map[Role]struct{}{RoleCustomer: {}},
		to:    StatusCompleted,
	},
	ActionCancel: {
		from:  map[Status]struct{}{StatusActive: {}, StatusDelivered: {}},
		roles: map[Role]struct{}{RoleCustomer: {}, RoleFreelancer: {}},
		to:    StatusCancelled,
	},
}

// IsTerminal сообщает, является ли статус конечным.
func IsTerminal(s Status) bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Valid сообщает, известен ли статус машине состояний.
func Valid(s Status) bool {
	switch s {
	case StatusActive, StatusDelivered, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// ResolveRole определяет роль пользователя в сделке по её полям.
// Второе значение false, если пользователь не участник сделки.
func ResolveRole(customerID, freelancerID, actorID uuid.UUID) (Role, bool) {
	switch actorID {
	case customerID:
		return RoleCustomer, true
	case freelancerID:
		return RoleFreelancer, true
	}
	return "", false
}

// Next возвращает целевой статус для действия из текущего статуса,
// проверяя и роль, и допустимость перехода.
//
// Порядок проверок фиксирован: сначала роль, затем статус. Исполнитель,
// пытающийся подтвердить завершение, получает ErrWrongRole, а не
// ErrInvalidState, независимо от текущего статуса сделки.
func Next(current Status, action Action, role Role) (Status, error) {
	r, ok := transitions[action]
	if !ok {
		return "", ErrUnknownAction
	}
	if _, ok := r.roles[role]; !ok {
		return "", ErrWrongRole
	}
	if _, ok := r.from[current]; !ok {
		return "", ErrInvalidState
	}
	// Отмена из delivered — только заказчиком.
	if action == ActionCancel && current == StatusDelivered && role != RoleCustomer {
		return "", ErrWrongRole
	}
	return r.to, nil
}

// CanAct сообщает, доступно ли действие роли в принципе (без учёта статуса).
func CanAct(action Action, role Role) bool {
	r, ok := transitions[action]
	if !ok {
		return false
	}
	_, ok = r.roles[role]
	return ok
}

// actionOrder фиксирует порядок действий в выдаче AvailableActions.
var actionOrder = []Action{ActionDeliver, ActionConfirm, ActionCancel}

// AvailableActions возвращает действия, доступные роли в текущем статусе.
// Клиенты строят по этому списку кнопки, не дублируя таблицу переходов.
func AvailableActions(current Status, role Role) []Action {
	actions := make([]Action, 0, len(actionOrder))
	for _, a := range actionOrder {
		if !CanAct(a, role) {
			continue
		}
		if _, err := Next(current, a, role); err == nil {
			actions = append(actions, a)
		}
	}
	return actions
}
