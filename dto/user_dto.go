package dto

// UpdateMeDTO accepts only the fields a user may change on their own profile.
// Password fields are decoded so the handler can reject them.
type UpdateMeDTO struct {
	Name            *string `json:"name" binding:"omitempty,min=1,max=100"`
	Email           *string `json:"email" binding:"omitempty,email"`
	Password        *string `json:"password"`
	PasswordConfirm *string `json:"passwordConfirm"`
}

func (d UpdateMeDTO) HasPassword() bool {
	return d.Password != nil || d.PasswordConfirm != nil
}

// UpdateUserDTO is the admin update. Passwords are never changed here.
type UpdateUserDTO struct {
	Name  *string `json:"name" binding:"omitempty,min=1,max=100"`
	Email *string `json:"email" binding:"omitempty,email"`
	Role  *string `json:"role" binding:"omitempty,oneof=user guide lead-guide admin"`
	Photo *string `json:"photo"`
}
