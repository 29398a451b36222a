package model

import "strings"

type Kind string

const (
	KindTask         Kind = "task"
	KindNotification Kind = "notification"
	KindClient       Kind = "client"
	KindInvoice      Kind = "invoice"
	KindProject      Kind = "project"
)

func Kinds() []Kind {
	return []Kind{KindTask, KindNotification, KindClient, KindInvoice, KindProject}
}

func ParseKind(value string) (Kind, bool) {
	kind := Kind(strings.TrimSpace(strings.ToLower(value)))
	switch kind {
	case KindTask, KindNotification, KindClient, KindInvoice, KindProject:
		return kind, true
	}
	return "", false
}

func (k Kind) Label() string {
	switch k {
	case KindTask:
		return "Tareas"
	case KindNotification:
		return "Notificaciones"
	case KindClient:
		return "Clientes"
	case KindInvoice:
		return "Facturas"
	case KindProject:
		return "Proyectos"
	}
	return string(k)
}

type Status string

const (
	StatusPending    Status = "pendiente"
	StatusInProgress Status = "en_progreso"
	StatusCompleted  Status = "completada"
	StatusCanceled   Status = "cancelada"
	StatusActive     Status = "activo"
	StatusInactive   Status = "inactivo"
	StatusPaid       Status = "pagada"
	StatusOverdue    Status = "vencida"
)

// Terminal reports whether work on a record with this status is finished.
// Terminal records are never counted as overdue.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCanceled, StatusPaid:
		return true
	case StatusPending, StatusInProgress, StatusActive, StatusInactive, StatusOverdue:
		return false
	}
	return false
}

func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pendiente"
	case StatusInProgress:
		return "En progreso"
	case StatusCompleted:
		return "Completada"
	case StatusCanceled:
		return "Cancelada"
	case StatusActive:
		return "Activo"
	case StatusInactive:
		return "Inactivo"
	case StatusPaid:
		return "Pagada"
	case StatusOverdue:
		return "Vencida"
	}
	return string(s)
}

func NormalizeStatus(value string) Status {
	value = strings.TrimSpace(strings.ToLower(value))
	value = strings.ReplaceAll(value, " ", "_")
	return Status(value)
}

type Priority string

const (
	PriorityLow    Priority = "baja"
	PriorityMedium Priority = "media"
	PriorityHigh   Priority = "alta"
	PriorityUrgent Priority = "urgente"
)

// Rank orders priorities for sorting and range filters; unset is 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityUrgent:
		return 4
	}
	return 0
}

func (p Priority) Label() string {
	switch p {
	case PriorityLow:
		return "Baja"
	case PriorityMedium:
		return "Media"
	case PriorityHigh:
		return "Alta"
	case PriorityUrgent:
		return "Urgente"
	}
	return string(p)
}

func NormalizePriority(value string) Priority {
	return Priority(strings.TrimSpace(strings.ToLower(value)))
}
