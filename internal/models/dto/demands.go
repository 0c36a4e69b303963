package dto

type CompanyRequest struct {
	Name     *string `json:"name"`
	Document *string `json:"document"`
}

type DemandRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	Type        *string `json:"type"`
	CompanyID   *int64  `json:"companyId"`
	UserID      *int64  `json:"userId"`
}

type CommentRequest struct {
	Content string `json:"content"`
}
