// Package models defines the persisted entities of the reconciliation backend
// and the closed enumerations used across sale records, carrier records,
// reconciliation links and the audit trail.
package models

// InternalStatus is the lifecycle status of an internally created sale.
type InternalStatus string

const (
	InternalStatusNew       InternalStatus = "nova"
	InternalStatusSent      InternalStatus = "enviada"
	InternalStatusAwaiting  InternalStatus = "aguardando"
	InternalStatusConfirmed InternalStatus = "confirmada"
	InternalStatusCancelled InternalStatus = "cancelada"

	// Dispute sub-path, reachable from "enviada" when the carrier disagrees.
	InternalStatusDisputeSent     InternalStatus = "contestacao_enviada"
	InternalStatusDisputeUpheld   InternalStatus = "contestacao_aceita"
	InternalStatusDisputeRejected InternalStatus = "contestacao_rejeitada"
)

// internalTransitions is the allowed forward state machine for a sale.
// Corrective operations (estorno, dispute reopen) are modeled as named
// operations in the sale service and do not go through this table.
var internalTransitions = map[InternalStatus][]InternalStatus{
	InternalStatusNew:         {InternalStatusSent, InternalStatusCancelled},
	InternalStatusSent:        {InternalStatusAwaiting, InternalStatusCancelled, InternalStatusDisputeSent},
	InternalStatusAwaiting:    {InternalStatusConfirmed, InternalStatusCancelled},
	InternalStatusDisputeSent: {InternalStatusDisputeUpheld, InternalStatusDisputeRejected},
}

// IsValid reports whether s is one of the closed set of internal statuses.
func (s InternalStatus) IsValid() bool {
	switch s {
	case InternalStatusNew, InternalStatusSent, InternalStatusAwaiting,
		InternalStatusConfirmed, InternalStatusCancelled,
		InternalStatusDisputeSent, InternalStatusDisputeUpheld, InternalStatusDisputeRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition leaves s.
func (s InternalStatus) IsTerminal() bool {
	switch s {
	case InternalStatusConfirmed, InternalStatusCancelled,
		InternalStatusDisputeUpheld, InternalStatusDisputeRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine allows s -> next.
func (s InternalStatus) CanTransitionTo(next InternalStatus) bool {
	for _, allowed := range internalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// InternalStatusLabels maps each internal status to its display label.
var InternalStatusLabels = map[InternalStatus]string{
	InternalStatusNew:             "Nova",
	InternalStatusSent:            "Enviada",
	InternalStatusAwaiting:        "Aguardando",
	InternalStatusConfirmed:       "Confirmada",
	InternalStatusCancelled:       "Cancelada",
	InternalStatusDisputeSent:     "Contestação enviada",
	InternalStatusDisputeUpheld:   "Contestação aceita",
	InternalStatusDisputeRejected: "Contestação rejeitada",
}

// InternalStatusColors maps each internal status to the badge color used by callers.
var InternalStatusColors = map[InternalStatus]string{
	InternalStatusNew:             "gray",
	InternalStatusSent:            "blue",
	InternalStatusAwaiting:        "yellow",
	InternalStatusConfirmed:       "green",
	InternalStatusCancelled:       "red",
	InternalStatusDisputeSent:     "orange",
	InternalStatusDisputeUpheld:   "green",
	InternalStatusDisputeRejected: "red",
}

// CarrierStatus is the status reported by the carrier for an imported line.
type CarrierStatus string

const (
	CarrierStatusApproved  CarrierStatus = "aprovada"
	CarrierStatusInstalled CarrierStatus = "instalada"
	CarrierStatusCancelled CarrierStatus = "cancelada"
	CarrierStatusPending   CarrierStatus = "pendente"
)

func (s CarrierStatus) IsValid() bool {
	switch s {
	case CarrierStatusApproved, CarrierStatusInstalled, CarrierStatusCancelled, CarrierStatusPending:
		return true
	}
	return false
}

// CarrierStatusLabels maps each carrier status to its display label.
var CarrierStatusLabels = map[CarrierStatus]string{
	CarrierStatusApproved:  "Aprovada",
	CarrierStatusInstalled: "Instalada",
	CarrierStatusCancelled: "Cancelada",
	CarrierStatusPending:   "Pendente",
}

// MatchType is the method by which a reconciliation link was established.
type MatchType string

const (
	MatchTypeProtocol MatchType = "protocolo"
	MatchTypeTaxID    MatchType = "cpf"
	MatchTypePhone    MatchType = "telefone"
	MatchTypeManual   MatchType = "manual"
)

// LinkFinalStatus is the outcome recorded on a reconciliation link.
type LinkFinalStatus string

const (
	LinkStatusReconciled LinkFinalStatus = "conciliada"
	LinkStatusDivergent  LinkFinalStatus = "divergente"
	LinkStatusNotFound   LinkFinalStatus = "nao_encontrada"
)

func (s LinkFinalStatus) IsValid() bool {
	switch s {
	case LinkStatusReconciled, LinkStatusDivergent, LinkStatusNotFound:
		return true
	}
	return false
}

// AuditAction is the closed set of state-change actions recorded in the audit trail.
type AuditAction string

const (
	AuditActionEditField      AuditAction = "EDITAR_CAMPO"
	AuditActionReconcile      AuditAction = "CONCILIAR"
	AuditActionUnreconcile    AuditAction = "DESCONCILIAR"
	AuditActionConfirm        AuditAction = "CONFIRMAR"
	AuditActionReverse        AuditAction = "ESTORNAR"
	AuditActionReopenDispute  AuditAction = "REABRIR_CONTESTACAO"
	AuditActionInternalStatus AuditAction = "MUDAR_STATUS_INTERNO"
	AuditActionCarrierStatus  AuditAction = "MUDAR_STATUS_MAKE"
	AuditActionChangeValue    AuditAction = "ALTERAR_VALOR"
	AuditActionImportRemoved  AuditAction = "IMPORTACAO_REMOVIDA"
	AuditActionReconcileBatch AuditAction = "CONCILIAR_LOTE"
)

func (a AuditAction) IsValid() bool {
	switch a {
	case AuditActionEditField, AuditActionReconcile, AuditActionUnreconcile,
		AuditActionConfirm, AuditActionReverse, AuditActionReopenDispute,
		AuditActionInternalStatus, AuditActionCarrierStatus, AuditActionChangeValue,
		AuditActionImportRemoved, AuditActionReconcileBatch:
		return true
	}
	return false
}

// AuditActionLabels maps each audit action to its display label.
var AuditActionLabels = map[AuditAction]string{
	AuditActionEditField:      "Campo editado",
	AuditActionReconcile:      "Conciliação",
	AuditActionUnreconcile:    "Desconciliação",
	AuditActionConfirm:        "Confirmação",
	AuditActionReverse:        "Estorno",
	AuditActionReopenDispute:  "Contestação reaberta",
	AuditActionInternalStatus: "Status interno alterado",
	AuditActionCarrierStatus:  "Status da operadora alterado",
	AuditActionChangeValue:    "Valor alterado",
	AuditActionImportRemoved:  "Importação removida",
	AuditActionReconcileBatch: "Conciliação em lote",
}

// AuditOrigin tells whether a change came from the UI or from an API/system caller.
type AuditOrigin string

const (
	AuditOriginUI  AuditOrigin = "UI"
	AuditOriginAPI AuditOrigin = "API"
)
