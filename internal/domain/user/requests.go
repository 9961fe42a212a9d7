package user

type RegisterRequest struct {
	Name            string `json:"name" binding:"required,notblank,max=255"`
	PaternalSurname string `json:"paternalSurname" binding:"required,notblank,max=255"`
	MaternalSurname string `json:"maternalSurname" binding:"required,notblank,max=255"`
	Email           string `json:"email" binding:"required,max=255"`
	Password        string `json:"password" binding:"required,min=6,max=1024"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,max=255"`
	Password string `json:"password" binding:"required,min=6,max=1024"`
}

// UpdateRequest has no email field; the email is fixed at registration.
type UpdateRequest struct {
	ID              string `json:"id" binding:"required,max=1024"`
	Name            string `json:"name" binding:"required,notblank,max=255"`
	PaternalSurname string `json:"paternalSurname" binding:"required,notblank,max=255"`
	MaternalSurname string `json:"maternalSurname" binding:"required,notblank,max=255"`
	Password        string `json:"password" binding:"required,min=6,max=1024"`
}

type DeleteRequest struct {
	ID string `json:"id" binding:"required,max=1024"`
}

func (r RegisterRequest) NewUser(passwordHash string) User {
	return User{
		Name:            r.Name,
		PaternalSurname: r.PaternalSurname,
		MaternalSurname: r.MaternalSurname,
		Email:           r.Email,
		PasswordHash:    passwordHash,
	}
}

func (r UpdateRequest) Patch(passwordHash string) Patch {
	return Patch{
		Name:            r.Name,
		PaternalSurname: r.PaternalSurname,
		MaternalSurname: r.MaternalSurname,
		PasswordHash:    passwordHash,
	}
}
