package models

import "time"

const (
	StatusNew              = "novo"
	StatusInAnalysis       = "em-analise"
	StatusInDevelopment    = "em-desenvolvimento"
	StatusAwaitingFeedback = "aguardando-feedback"
	StatusDone             = "concluido"
)

const (
	PriorityLow    = "baixa"
	PriorityMedium = "media"
	PriorityHigh   = "alta"
	PriorityUrgent = "urgente"
)

const (
	TypeFeature      = "nova-funcionalidade"
	TypeBugFix       = "correcao-erro"
	TypeChange       = "alteracao"
	TypeOptimization = "otimizacao"
)

var (
	demandStatuses   = []string{StatusNew, StatusInAnalysis, StatusInDevelopment, StatusAwaitingFeedback, StatusDone}
	demandPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
	demandTypes      = []string{TypeFeature, TypeBugFix, TypeChange, TypeOptimization}
)

// Demand is a feature request or bug report raised for a company.
type Demand struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	Type        string    `json:"type"`
	CompanyID   *int64    `json:"company_id"`
	AccountID   *int64    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DemandPatch holds optional fields for a partial update.
type DemandPatch struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	Type        *string
	CompanyID   *int64
	AccountID   *int64
}

// Empty reports whether the patch changes nothing.
func (p DemandPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.Priority == nil &&
		p.Type == nil && p.CompanyID == nil && p.AccountID == nil
}

// DemandFilter narrows a demand listing. Zero values match everything.
type DemandFilter struct {
	Status    string
	CompanyID int64
}

// Comment is a single message in a demand's thread.
type Comment struct {
	ID         int64     `json:"id"`
	DemandID   int64     `json:"demand_id"`
	AuthorID   int64     `json:"author_id"`
	AuthorName string    `json:"author"`
	Content    string    `json:"content"`
	IsAdmin    bool      `json:"isAdmin"`
	CreatedAt  time.Time `json:"created_at"`
}

func ValidStatus(s string) bool   { return contains(demandStatuses, s) }
func ValidPriority(s string) bool { return contains(demandPriorities, s) }
func ValidType(s string) bool     { return contains(demandTypes, s) }

func contains(set []string, v string) bool {
	for _, candidate := range set {
		if candidate == v {
			return true
		}
	}
	return false
}
