package models

// User is the signed-in account as returned by the login endpoint.
type User struct {
	ID       int    `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role"`
	IsActive int    `json:"isActive"`
}

// IsMember reports whether the account has the default member role.
func (u User) IsMember() bool {
	return u.Role == "member"
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the body returned by POST /login.
type LoginResponse struct {
	Success      bool   `json:"success"`
	StatusCode   int    `json:"statusCode"`
	Message      string `json:"message"`
	Data         *User  `json:"data"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RegistrationRequest is the body of POST /users.
type RegistrationRequest struct {
	Username  string `json:"username"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Email     string `json:"email"`
	Mobile    string `json:"mobile"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	IsActive  int    `json:"isActive"`
}

// RegistrationResponse is the body returned by POST /users.
type RegistrationResponse struct {
	StatusCode int      `json:"statusCode"`
	Success    bool     `json:"success"`
	Messages   []string `json:"messages"`
}

// ImageUploadResponse is the body returned by the profile image upload.
type ImageUploadResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	ImageURL string `json:"imageUrl"`
}
