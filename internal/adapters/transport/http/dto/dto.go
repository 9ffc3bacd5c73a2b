package dto

type RegisterDTO struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,strongpwd"`
	Username string `json:"username" validate:"required,alphanum,min=3,max=20"`
	FullName string `json:"full_name" validate:"max=150"`
}

type LoginDTO struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthenticateDTO carries whatever cookies the request had. Both fields
// may be empty; that is an anonymous request, not an error.
type AuthenticateDTO struct {
	AccessToken  string
	RefreshToken string
}

type RefreshDTO struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type LogoutDTO struct {
	RefreshToken string `json:"refresh_token"`
}

type RequestPasswordResetDTO struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyOTPDTO struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp"   validate:"required,len=6,numeric"`
}

type ResetPasswordDTO struct {
	Email       string `json:"email"        validate:"required,email"`
	NewPassword string `json:"new_password" validate:"required,strongpwd"`
}
