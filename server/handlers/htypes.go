package handlers

type RequestSignup struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RequestLogin struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RequestSubmit struct {
	RequestText string `json:"requestText"`
}

// RequestUpdateStatus addresses a request either by its position in the list
// (index) or by its stable id. When both are given the id wins.
type RequestUpdateStatus struct {
	Index  *int   `json:"index"`
	ID     string `json:"id"`
	Status string `json:"status"`
}

type ResponseSuccess struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type ResponseLogin struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

type ResponseSubmit struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}
