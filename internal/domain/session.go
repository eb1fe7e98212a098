package domain

// Session is the authenticated shopper. A missing session means guest.
type Session struct {
	UserID      int64  `json:"userId"`
	DisplayName string `json:"displayName"`
}
