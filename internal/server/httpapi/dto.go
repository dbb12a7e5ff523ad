package httpapi

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type verifyRequest struct {
	UserID string `json:"userId" validate:"required,uuid"`
	Code   string `json:"code" validate:"required"`
}

type sendCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type registerResponse struct {
	Success              bool   `json:"success"`
	Message              string `json:"message"`
	UserID               string `json:"userId"`
	RequiresVerification bool   `json:"requiresVerification"`
}

type loginResponse struct {
	Success              bool   `json:"success"`
	RequiresVerification bool   `json:"requiresVerification"`
	UserID               string `json:"userId,omitempty"`
	Message              string `json:"message,omitempty"`
	Token                string `json:"token,omitempty"`
}

type verifyResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type profileResponse struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}
